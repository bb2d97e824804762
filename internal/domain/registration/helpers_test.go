package registration

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// completeDraft returns a draft that passes every rule.
func completeDraft() PatientRegistration {
	d := NewDraft()
	d.FirstName = "Jane"
	d.LastName = "Doe"
	d.DateOfBirth = "1985-06-15"
	d.Gender = GenderFemale
	d.SocialSecurityNumber = "123-45-6789"
	d.Email = "jane.doe@example.com"
	d.Phone = "(555) 123-4567"
	d.Address = Address{Street: "1 Main St", City: "Boston", State: "MA", ZipCode: "02101", Country: "United States"}
	d.EmergencyContact = EmergencyContact{Name: "John Doe", Relationship: "Spouse", Phone: "(555) 765-4321"}
	d.HIPAAAgreement = true
	d.TermsAndConditions = true
	d.PrivacyPolicy = true
	return d
}

// fillForm writes d into f through the public field API.
func fillForm(f *Form, d PatientRegistration) {
	text := map[FieldPath]string{
		Top("firstName"):                              d.FirstName,
		Top("lastName"):                               d.LastName,
		Top("dateOfBirth"):                            d.DateOfBirth,
		Top("gender"):                                 string(d.Gender),
		Top("socialSecurityNumber"):                   d.SocialSecurityNumber,
		Top("email"):                                  d.Email,
		Top("phone"):                                  d.Phone,
		Nested(GroupAddress, "street"):                d.Address.Street,
		Nested(GroupAddress, "city"):                  d.Address.City,
		Nested(GroupAddress, "state"):                 d.Address.State,
		Nested(GroupAddress, "zipCode"):               d.Address.ZipCode,
		Nested(GroupAddress, "country"):               d.Address.Country,
		Nested(GroupEmergencyContact, "name"):         d.EmergencyContact.Name,
		Nested(GroupEmergencyContact, "relationship"): d.EmergencyContact.Relationship,
		Nested(GroupEmergencyContact, "phone"):        d.EmergencyContact.Phone,
	}
	for p, v := range text {
		if err := f.UpdateField(p, TextInput(v)); err != nil {
			panic(err)
		}
	}
	for p, v := range map[FieldPath]bool{
		Top("hipaaAgreement"):     d.HIPAAAgreement,
		Top("termsAndConditions"): d.TermsAndConditions,
		Top("privacyPolicy"):      d.PrivacyPolicy,
	} {
		if err := f.UpdateField(p, CheckboxInput(v)); err != nil {
			panic(err)
		}
	}
}

// recordingSubmitter counts calls and can block until released.
type recordingSubmitter struct {
	mu      sync.Mutex
	calls   []PatientRegistration
	err     error
	started chan struct{}
	release chan struct{}
}

func (s *recordingSubmitter) SubmitRegistration(ctx context.Context, reg PatientRegistration) (*Record, error) {
	s.mu.Lock()
	s.calls = append(s.calls, reg)
	started, release, err := s.started, s.release, s.err
	s.mu.Unlock()

	if started != nil {
		close(started)
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &Record{ID: uuid.New(), Status: StatusActive, Registration: reg, CreatedAt: testNow}, nil
}

func (s *recordingSubmitter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type recordingNotifier struct {
	mu        sync.Mutex
	submitted []*Record
	failed    []error
}

func (n *recordingNotifier) RegistrationSubmitted(_ context.Context, _ PatientRegistration, rec *Record) {
	n.mu.Lock()
	n.submitted = append(n.submitted, rec)
	n.mu.Unlock()
}

func (n *recordingNotifier) RegistrationFailed(_ context.Context, _ PatientRegistration, err error) {
	n.mu.Lock()
	n.failed = append(n.failed, err)
	n.mu.Unlock()
}
