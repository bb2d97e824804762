package registration

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownField = errors.New("unknown registration field")
	ErrUnknownList  = errors.New("unknown medical history list")
	ErrFieldType    = errors.New("input does not match field type")
	ErrInvalidValue = errors.New("value not allowed for field")
)

// Group names a nested block of the registration.
type Group string

const (
	GroupAddress                  Group = "address"
	GroupEmergencyContact         Group = "emergencyContact"
	GroupInsurance                Group = "insurance"
	GroupMedicalHistory           Group = "medicalHistory"
	GroupCommunicationPreferences Group = "communicationPreferences"
)

// FieldPath addresses one field of the draft: either a top-level field or
// a field nested under a Group. Build it with Top or Nested.
type FieldPath struct {
	group Group
	name  string
}

// Top addresses a top-level field such as "firstName".
func Top(name string) FieldPath {
	return FieldPath{name: name}
}

// Nested addresses a field under group, e.g. Nested(GroupAddress, "city").
func Nested(group Group, name string) FieldPath {
	return FieldPath{group: group, name: name}
}

// Group returns the parent group, empty for top-level fields.
func (p FieldPath) Group() Group { return p.group }

// Name returns the field name within its group.
func (p FieldPath) Name() string { return p.name }

// IsNested reports whether the path points below a group.
func (p FieldPath) IsNested() bool { return p.group != "" }

// String renders the dotted form used as the error key.
func (p FieldPath) String() string {
	if p.group == "" {
		return p.name
	}
	return string(p.group) + "." + p.name
}

// ParseFieldPath resolves a dotted field name coming from a client into a
// FieldPath, rejecting names the draft does not have.
func ParseFieldPath(s string) (FieldPath, error) {
	var p FieldPath
	if group, name, ok := strings.Cut(s, "."); ok {
		p = Nested(Group(group), name)
	} else {
		p = Top(s)
	}
	if _, ok := fieldKinds[p]; !ok {
		return FieldPath{}, fmt.Errorf("%w: %q", ErrUnknownField, s)
	}
	return p, nil
}

type fieldKind int

const (
	kindText fieldKind = iota
	kindBool
	kindGender
	kindRelationship
)

var fieldKinds = map[FieldPath]fieldKind{
	Top("firstName"):            kindText,
	Top("lastName"):             kindText,
	Top("middleName"):           kindText,
	Top("dateOfBirth"):          kindText,
	Top("gender"):               kindGender,
	Top("socialSecurityNumber"): kindText,
	Top("email"):                kindText,
	Top("phone"):                kindText,
	Top("alternatePhone"):       kindText,
	Top("preferredPharmacy"):    kindText,
	Top("preferredLanguage"):    kindText,
	Top("hipaaAgreement"):       kindBool,
	Top("termsAndConditions"):   kindBool,
	Top("privacyPolicy"):        kindBool,

	Nested(GroupAddress, "street"):  kindText,
	Nested(GroupAddress, "city"):    kindText,
	Nested(GroupAddress, "state"):   kindText,
	Nested(GroupAddress, "zipCode"): kindText,
	Nested(GroupAddress, "country"): kindText,

	Nested(GroupEmergencyContact, "name"):         kindText,
	Nested(GroupEmergencyContact, "relationship"): kindText,
	Nested(GroupEmergencyContact, "phone"):        kindText,
	Nested(GroupEmergencyContact, "email"):        kindText,

	Nested(GroupInsurance, "provider"):                 kindText,
	Nested(GroupInsurance, "policyNumber"):             kindText,
	Nested(GroupInsurance, "groupNumber"):              kindText,
	Nested(GroupInsurance, "subscriberId"):             kindText,
	Nested(GroupInsurance, "relationshipToSubscriber"): kindRelationship,

	Nested(GroupMedicalHistory, "familyHistory"): kindText,

	Nested(GroupCommunicationPreferences, "email"): kindBool,
	Nested(GroupCommunicationPreferences, "sms"):   kindBool,
	Nested(GroupCommunicationPreferences, "phone"): kindBool,
}

// Input is a raw value from a form control. Checkbox marks a boolean
// control; the field's type is never guessed from the text.
type Input struct {
	Value    string
	Checked  bool
	Checkbox bool
}

// TextInput is the value of a text, select or textarea control.
func TextInput(v string) Input { return Input{Value: v} }

// CheckboxInput is the state of a checkbox control.
func CheckboxInput(checked bool) Input { return Input{Checked: checked, Checkbox: true} }

// set writes in into the field at p, leaving every other field as it was.
func (d *PatientRegistration) set(p FieldPath, in Input) error {
	kind, ok := fieldKinds[p]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, p.String())
	}
	if (kind == kindBool) != in.Checkbox {
		return fmt.Errorf("%w: %q", ErrFieldType, p.String())
	}

	switch kind {
	case kindBool:
		*d.boolField(p) = in.Checked
	case kindGender:
		g := Gender(in.Value)
		if !g.valid() {
			return fmt.Errorf("%w: %q for %s", ErrInvalidValue, in.Value, p)
		}
		d.Gender = g
	case kindRelationship:
		r := RelationshipToSubscriber(in.Value)
		if !r.valid() {
			return fmt.Errorf("%w: %q for %s", ErrInvalidValue, in.Value, p)
		}
		d.Insurance.RelationshipToSubscriber = r
	default:
		*d.textField(p) = in.Value
	}
	return nil
}

func (d *PatientRegistration) textField(p FieldPath) *string {
	switch p.group {
	case "":
		switch p.name {
		case "firstName":
			return &d.FirstName
		case "lastName":
			return &d.LastName
		case "middleName":
			return &d.MiddleName
		case "dateOfBirth":
			return &d.DateOfBirth
		case "socialSecurityNumber":
			return &d.SocialSecurityNumber
		case "email":
			return &d.Email
		case "phone":
			return &d.Phone
		case "alternatePhone":
			return &d.AlternatePhone
		case "preferredPharmacy":
			return &d.PreferredPharmacy
		case "preferredLanguage":
			return &d.PreferredLanguage
		}
	case GroupAddress:
		switch p.name {
		case "street":
			return &d.Address.Street
		case "city":
			return &d.Address.City
		case "state":
			return &d.Address.State
		case "zipCode":
			return &d.Address.ZipCode
		case "country":
			return &d.Address.Country
		}
	case GroupEmergencyContact:
		switch p.name {
		case "name":
			return &d.EmergencyContact.Name
		case "relationship":
			return &d.EmergencyContact.Relationship
		case "phone":
			return &d.EmergencyContact.Phone
		case "email":
			return &d.EmergencyContact.Email
		}
	case GroupInsurance:
		switch p.name {
		case "provider":
			return &d.Insurance.Provider
		case "policyNumber":
			return &d.Insurance.PolicyNumber
		case "groupNumber":
			return &d.Insurance.GroupNumber
		case "subscriberId":
			return &d.Insurance.SubscriberID
		}
	case GroupMedicalHistory:
		if p.name == "familyHistory" {
			return &d.MedicalHistory.FamilyHistory
		}
	}
	panic("registration: no text field for " + p.String())
}

func (d *PatientRegistration) boolField(p FieldPath) *bool {
	switch p {
	case Top("hipaaAgreement"):
		return &d.HIPAAAgreement
	case Top("termsAndConditions"):
		return &d.TermsAndConditions
	case Top("privacyPolicy"):
		return &d.PrivacyPolicy
	case Nested(GroupCommunicationPreferences, "email"):
		return &d.CommunicationPreferences.Email
	case Nested(GroupCommunicationPreferences, "sms"):
		return &d.CommunicationPreferences.SMS
	case Nested(GroupCommunicationPreferences, "phone"):
		return &d.CommunicationPreferences.Phone
	}
	panic("registration: no boolean field for " + p.String())
}

// ListName identifies one of the four medical-history lists.
type ListName string

const (
	Allergies          ListName = "allergies"
	CurrentMedications ListName = "currentMedications"
	ChronicConditions  ListName = "chronicConditions"
	PreviousSurgeries  ListName = "previousSurgeries"
)

// ListNames in wizard order.
var ListNames = []ListName{CurrentMedications, Allergies, ChronicConditions, PreviousSurgeries}

var listAliases = map[string]ListName{
	"allergies":          Allergies,
	"currentMedications": CurrentMedications,
	"medications":        CurrentMedications,
	"chronicConditions":  ChronicConditions,
	"conditions":         ChronicConditions,
	"previousSurgeries":  PreviousSurgeries,
	"surgeries":          PreviousSurgeries,
}

// ParseListName accepts the list key or its short form ("medications",
// "conditions", "surgeries").
func ParseListName(s string) (ListName, error) {
	l, ok := listAliases[s]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownList, s)
	}
	return l, nil
}

func (h *MedicalHistory) list(l ListName) (*[]string, error) {
	switch l {
	case Allergies:
		return &h.Allergies, nil
	case CurrentMedications:
		return &h.CurrentMedications, nil
	case ChronicConditions:
		return &h.ChronicConditions, nil
	case PreviousSurgeries:
		return &h.PreviousSurgeries, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownList, string(l))
}
