package registration

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DateLayout is the wire format of dateOfBirth.
const DateLayout = "2006-01-02"

var (
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern   = regexp.MustCompile(`^\(?([0-9]{3})\)?[-. ]?([0-9]{3})[-. ]?([0-9]{4})$`)
	zipCodePattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	whitespace     = regexp.MustCompile(`\s`)
)

// FieldErrors maps a dotted field name to a user-facing message.
type FieldErrors map[string]string

func (e FieldErrors) clone() FieldErrors {
	out := make(FieldErrors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// ValidationResult is the outcome of validating a draft.
type ValidationResult struct {
	Valid  bool        `json:"isValid"`
	Errors FieldErrors `json:"errors"`
}

// Scope selects which rules a step validation evaluates.
type Scope string

const (
	// ScopeRecord evaluates every rule on every step.
	ScopeRecord Scope = "record"
	// ScopeStep evaluates only the rules for fields shown on the step.
	ScopeStep Scope = "step"
)

// ParseScope maps a configuration value to a Scope.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScopeRecord:
		return ScopeRecord, nil
	case ScopeStep:
		return ScopeStep, nil
	}
	return "", fmt.Errorf("validation scope must be %q or %q, got %q", ScopeRecord, ScopeStep, s)
}

// stepFields lists the validated fields presented on each step. Steps 4
// (insurance) and 5 (medical history) have no required fields.
var stepFields = map[int][]string{
	1: {"firstName", "lastName", "dateOfBirth", "gender"},
	2: {"email", "phone", "address.street", "address.city", "address.state", "address.zipCode", "address.country"},
	3: {"emergencyContact.name", "emergencyContact.relationship", "emergencyContact.phone"},
	6: {"hipaaAgreement", "termsAndConditions", "privacyPolicy"},
}

// ValidateStep validates d for the given step. With ScopeRecord the step
// is ignored and the whole record is checked.
func ValidateStep(d PatientRegistration, step int, scope Scope, now time.Time) ValidationResult {
	errs := validateRecord(d, now)
	if scope == ScopeStep {
		scoped := FieldErrors{}
		for _, f := range stepFields[step] {
			if msg, ok := errs[f]; ok {
				scoped[f] = msg
			}
		}
		errs = scoped
	}
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// Validate checks every rule regardless of step.
func Validate(d PatientRegistration, now time.Time) ValidationResult {
	errs := validateRecord(d, now)
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func validateRecord(d PatientRegistration, now time.Time) FieldErrors {
	errs := FieldErrors{}

	if blank(d.FirstName) {
		errs["firstName"] = "First name is required"
	}
	if blank(d.LastName) {
		errs["lastName"] = "Last name is required"
	}

	if d.DateOfBirth == "" {
		errs["dateOfBirth"] = "Date of birth is required"
	} else if dob, err := time.ParseInLocation(DateLayout, strings.TrimSpace(d.DateOfBirth), now.Location()); err != nil {
		errs["dateOfBirth"] = "Please enter a valid date of birth"
	} else if dob.After(startOfDay(now)) {
		errs["dateOfBirth"] = "Date of birth cannot be in the future"
	}

	if d.Gender == GenderUnset {
		errs["gender"] = "Gender is required"
	}

	if blank(d.Email) {
		errs["email"] = "Email is required"
	} else if !emailPattern.MatchString(d.Email) {
		errs["email"] = "Please enter a valid email address"
	}

	if blank(d.Phone) {
		errs["phone"] = "Phone number is required"
	} else if !phonePattern.MatchString(whitespace.ReplaceAllString(d.Phone, "")) {
		errs["phone"] = "Please enter a valid phone number"
	}

	if blank(d.Address.Street) {
		errs["address.street"] = "Street address is required"
	}
	if blank(d.Address.City) {
		errs["address.city"] = "City is required"
	}
	if blank(d.Address.State) {
		errs["address.state"] = "State is required"
	}
	if blank(d.Address.ZipCode) {
		errs["address.zipCode"] = "ZIP code is required"
	} else if !zipCodePattern.MatchString(d.Address.ZipCode) {
		errs["address.zipCode"] = "Please enter a valid ZIP code"
	}
	if blank(d.Address.Country) {
		errs["address.country"] = "Country is required"
	}

	if blank(d.EmergencyContact.Name) {
		errs["emergencyContact.name"] = "Emergency contact name is required"
	}
	if blank(d.EmergencyContact.Relationship) {
		errs["emergencyContact.relationship"] = "Relationship is required"
	}
	if blank(d.EmergencyContact.Phone) {
		errs["emergencyContact.phone"] = "Emergency contact phone is required"
	}

	if !d.HIPAAAgreement {
		errs["hipaaAgreement"] = "HIPAA agreement is required"
	}
	if !d.TermsAndConditions {
		errs["termsAndConditions"] = "Terms and conditions agreement is required"
	}
	if !d.PrivacyPolicy {
		errs["privacyPolicy"] = "Privacy policy agreement is required"
	}

	return errs
}

// startOfDay is midnight of now's calendar day in now's zone.
func startOfDay(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}
