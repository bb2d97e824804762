package registration

import (
	"time"

	"github.com/google/uuid"
)

// TotalSteps is the number of wizard steps a registration moves through.
const TotalSteps = 6

// PatientRegistration is the draft a patient fills in across the six
// wizard steps. JSON names match the dotted field paths used for errors.
type PatientRegistration struct {
	// Personal information
	FirstName            string `json:"firstName"`
	LastName             string `json:"lastName"`
	MiddleName           string `json:"middleName"`
	DateOfBirth          string `json:"dateOfBirth"`
	Gender               Gender `json:"gender"`
	SocialSecurityNumber string `json:"socialSecurityNumber"`

	// Contact information
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	AlternatePhone string `json:"alternatePhone"`

	Address          Address          `json:"address"`
	EmergencyContact EmergencyContact `json:"emergencyContact"`
	Insurance        Insurance        `json:"insurance"`
	MedicalHistory   MedicalHistory   `json:"medicalHistory"`

	// Preferences
	PreferredPharmacy        string                   `json:"preferredPharmacy"`
	PreferredLanguage        string                   `json:"preferredLanguage"`
	CommunicationPreferences CommunicationPreferences `json:"communicationPreferences"`

	// Consent and agreement
	HIPAAAgreement     bool `json:"hipaaAgreement"`
	TermsAndConditions bool `json:"termsAndConditions"`
	PrivacyPolicy      bool `json:"privacyPolicy"`
}

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

type EmergencyContact struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
}

type Insurance struct {
	Provider                 string                   `json:"provider"`
	PolicyNumber             string                   `json:"policyNumber"`
	GroupNumber              string                   `json:"groupNumber"`
	SubscriberID             string                   `json:"subscriberId"`
	RelationshipToSubscriber RelationshipToSubscriber `json:"relationshipToSubscriber"`
}

// IsEmpty reports whether no insurance details were entered. The
// relationship enum is ignored since it always carries a default.
func (i Insurance) IsEmpty() bool {
	return i.Provider == "" && i.PolicyNumber == "" && i.GroupNumber == "" && i.SubscriberID == ""
}

type MedicalHistory struct {
	Allergies          []string `json:"allergies"`
	CurrentMedications []string `json:"currentMedications"`
	ChronicConditions  []string `json:"chronicConditions"`
	PreviousSurgeries  []string `json:"previousSurgeries"`
	FamilyHistory      string   `json:"familyHistory"`
}

type CommunicationPreferences struct {
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
	Phone bool `json:"phone"`
}

type Gender string

const (
	GenderUnset  Gender = ""
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) valid() bool {
	switch g {
	case GenderUnset, GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

type RelationshipToSubscriber string

const (
	SubscriberSelf   RelationshipToSubscriber = "self"
	SubscriberSpouse RelationshipToSubscriber = "spouse"
	SubscriberChild  RelationshipToSubscriber = "child"
	SubscriberOther  RelationshipToSubscriber = "other"
)

func (r RelationshipToSubscriber) valid() bool {
	switch r {
	case SubscriberSelf, SubscriberSpouse, SubscriberChild, SubscriberOther:
		return true
	}
	return false
}

// NewDraft returns an empty registration carrying the intake defaults.
func NewDraft() PatientRegistration {
	return PatientRegistration{
		Address: Address{Country: "United States"},
		Insurance: Insurance{
			RelationshipToSubscriber: SubscriberSelf,
		},
		MedicalHistory: MedicalHistory{
			Allergies:          []string{},
			CurrentMedications: []string{},
			ChronicConditions:  []string{},
			PreviousSurgeries:  []string{},
		},
		PreferredLanguage:        "English",
		CommunicationPreferences: CommunicationPreferences{Email: true},
	}
}

// Clone returns a deep copy; the medical-history slices are not shared.
func (p PatientRegistration) Clone() PatientRegistration {
	out := p
	out.MedicalHistory.Allergies = cloneList(p.MedicalHistory.Allergies)
	out.MedicalHistory.CurrentMedications = cloneList(p.MedicalHistory.CurrentMedications)
	out.MedicalHistory.ChronicConditions = cloneList(p.MedicalHistory.ChronicConditions)
	out.MedicalHistory.PreviousSurgeries = cloneList(p.MedicalHistory.PreviousSurgeries)
	return out
}

func cloneList(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// Record statuses used by the patient directory.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Record is a submitted registration as kept by the record repository.
type Record struct {
	ID           uuid.UUID           `json:"id"`
	Status       string              `json:"status"`
	Registration PatientRegistration `json:"registration"`
	CreatedAt    time.Time           `json:"created_at"`
}

// RecordFilter narrows a directory listing. Search matches first name,
// last name, email or record id case-insensitively; an empty Status or
// "all" matches every status.
type RecordFilter struct {
	Search string
	Status string
}
