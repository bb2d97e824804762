package registration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFieldPath(t *testing.T) {
	tests := []struct {
		in   string
		want FieldPath
	}{
		{"firstName", Top("firstName")},
		{"address.city", Nested(GroupAddress, "city")},
		{"insurance.relationshipToSubscriber", Nested(GroupInsurance, "relationshipToSubscriber")},
		{"communicationPreferences.sms", Nested(GroupCommunicationPreferences, "sms")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFieldPath(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestParseFieldPath_Unknown(t *testing.T) {
	for _, in := range []string{"", "nickname", "address", "address.planet", "medicalHistory.allergies", "a.b.c"} {
		_, err := ParseFieldPath(in)
		assert.ErrorIs(t, err, ErrUnknownField, in)
	}
}

func TestFieldPath_Accessors(t *testing.T) {
	p := Nested(GroupEmergencyContact, "phone")
	assert.True(t, p.IsNested())
	assert.Equal(t, GroupEmergencyContact, p.Group())
	assert.Equal(t, "phone", p.Name())

	top := Top("email")
	assert.False(t, top.IsNested())
	assert.Equal(t, "email", top.String())
}

func TestSet_NestedLeavesSiblings(t *testing.T) {
	d := NewDraft()
	d.Address.Street = "1 Main St"

	require.NoError(t, d.set(Nested(GroupAddress, "city"), TextInput("Boston")))

	assert.Equal(t, "Boston", d.Address.City)
	assert.Equal(t, "1 Main St", d.Address.Street)
	assert.Equal(t, "United States", d.Address.Country)
}

func TestSet_Checkbox(t *testing.T) {
	d := NewDraft()
	require.NoError(t, d.set(Top("hipaaAgreement"), CheckboxInput(true)))
	require.NoError(t, d.set(Nested(GroupCommunicationPreferences, "email"), CheckboxInput(false)))

	assert.True(t, d.HIPAAAgreement)
	assert.False(t, d.CommunicationPreferences.Email)
}

func TestSet_TypeMismatch(t *testing.T) {
	d := NewDraft()
	assert.ErrorIs(t, d.set(Top("privacyPolicy"), TextInput("true")), ErrFieldType)
	assert.ErrorIs(t, d.set(Top("firstName"), CheckboxInput(true)), ErrFieldType)
	assert.False(t, d.PrivacyPolicy)
	assert.Empty(t, d.FirstName)
}

func TestSet_EnumValues(t *testing.T) {
	d := NewDraft()

	require.NoError(t, d.set(Top("gender"), TextInput("other")))
	assert.Equal(t, GenderOther, d.Gender)

	assert.ErrorIs(t, d.set(Top("gender"), TextInput("robot")), ErrInvalidValue)
	assert.Equal(t, GenderOther, d.Gender)

	require.NoError(t, d.set(Nested(GroupInsurance, "relationshipToSubscriber"), TextInput("child")))
	assert.Equal(t, SubscriberChild, d.Insurance.RelationshipToSubscriber)

	assert.ErrorIs(t, d.set(Nested(GroupInsurance, "relationshipToSubscriber"), TextInput("cousin")), ErrInvalidValue)
}

func TestSet_EveryKnownField(t *testing.T) {
	d := NewDraft()
	for p, kind := range fieldKinds {
		var in Input
		switch kind {
		case kindBool:
			in = CheckboxInput(true)
		case kindGender:
			in = TextInput("male")
		case kindRelationship:
			in = TextInput("spouse")
		default:
			in = TextInput("x")
		}
		assert.NoError(t, d.set(p, in), p.String())
	}
}

func TestParseListName(t *testing.T) {
	tests := map[string]ListName{
		"allergies":          Allergies,
		"currentMedications": CurrentMedications,
		"medications":        CurrentMedications,
		"chronicConditions":  ChronicConditions,
		"conditions":         ChronicConditions,
		"previousSurgeries":  PreviousSurgeries,
		"surgeries":          PreviousSurgeries,
	}
	for in, want := range tests {
		got, err := ParseListName(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseListName("vaccines")
	assert.ErrorIs(t, err, ErrUnknownList)
}
