package registration

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestForm(sub Submitter, opts ...FormOption) *Form {
	return NewForm(sub, append([]FormOption{WithClock(fixedClock)}, opts...)...)
}

func TestNewForm_InitialState(t *testing.T) {
	f := newTestForm(&recordingSubmitter{})
	st := f.Snapshot()

	assert.Equal(t, 1, st.Step)
	assert.Equal(t, TotalSteps, st.TotalSteps)
	assert.False(t, st.Submitting)
	assert.Empty(t, st.Errors)
	assert.Equal(t, NewDraft(), st.Draft)
	for _, l := range ListNames {
		assert.Equal(t, "", st.ListInputs[l])
	}
}

func TestForm_UpdateFieldNested(t *testing.T) {
	f := newTestForm(&recordingSubmitter{})
	require.NoError(t, f.UpdateField(Nested(GroupAddress, "street"), TextInput("1 Main St")))
	require.NoError(t, f.UpdateField(Nested(GroupAddress, "city"), TextInput("Boston")))

	d := f.Snapshot().Draft
	assert.Equal(t, "Boston", d.Address.City)
	assert.Equal(t, "1 Main St", d.Address.Street)
	assert.Equal(t, "United States", d.Address.Country)
}

func TestForm_UpdateFieldClearsOnlyItsError(t *testing.T) {
	f := newTestForm(&recordingSubmitter{})
	f.AdvanceStep()
	require.Contains(t, f.Snapshot().Errors, "address.city")

	require.NoError(t, f.UpdateField(Nested(GroupAddress, "city"), TextInput("Boston")))

	errs := f.Snapshot().Errors
	assert.NotContains(t, errs, "address.city")
	assert.Contains(t, errs, "address.street")
	assert.Contains(t, errs, "firstName")
}

func TestForm_UpdateFieldErrors(t *testing.T) {
	f := newTestForm(&recordingSubmitter{})
	assert.ErrorIs(t, f.UpdateField(Top("nickname"), TextInput("x")), ErrUnknownField)
	assert.ErrorIs(t, f.UpdateField(Top("hipaaAgreement"), TextInput("true")), ErrFieldType)
	assert.Equal(t, NewDraft(), f.Snapshot().Draft)
}

func TestForm_UpdatePhoneField(t *testing.T) {
	f := newTestForm(&recordingSubmitter{})
	f.AdvanceStep()

	require.NoError(t, f.UpdatePhoneField(Top("phone"), "5551234567"))
	require.NoError(t, f.UpdatePhoneField(Nested(GroupEmergencyContact, "phone"), "555123"))

	st := f.Snapshot()
	assert.Equal(t, "(555) 123-4567", st.Draft.Phone)
	assert.Equal(t, "(555) 123", st.Draft.EmergencyContact.Phone)
	// phone edits keep the stale error until the next validation
	assert.Contains(t, st.Errors, "phone")
}

func TestForm_ListItems(t *testing.T) {
	f := newTestForm(&recordingSubmitter{})

	require.NoError(t, f.AddListItem(Allergies, "  "))
	assert.Empty(t, f.Snapshot().Draft.MedicalHistory.Allergies)

	require.NoError(t, f.AddListItem(Allergies, " Penicillin "))
	require.NoError(t, f.AddListItem(Allergies, "Latex"))
	assert.Equal(t, []string{"Penicillin", "Latex"}, f.Snapshot().Draft.MedicalHistory.Allergies)

	require.NoError(t, f.RemoveListItem(Allergies, 5))
	require.NoError(t, f.RemoveListItem(Allergies, -1))
	assert.Len(t, f.Snapshot().Draft.MedicalHistory.Allergies, 2)

	require.NoError(t, f.RemoveListItem(Allergies, 0))
	assert.Equal(t, []string{"Latex"}, f.Snapshot().Draft.MedicalHistory.Allergies)
}

func TestForm_PendingListInput(t *testing.T) {
	f := newTestForm(&recordingSubmitter{})

	require.NoError(t, f.SetListInput(CurrentMedications, "  "))
	require.NoError(t, f.AddPendingListItem(CurrentMedications))
	st := f.Snapshot()
	assert.Empty(t, st.Draft.MedicalHistory.CurrentMedications)
	assert.Equal(t, "  ", st.ListInputs[CurrentMedications], "blank input is kept")

	require.NoError(t, f.SetListInput(CurrentMedications, "Lisinopril 10mg"))
	require.NoError(t, f.AddPendingListItem(CurrentMedications))
	st = f.Snapshot()
	assert.Equal(t, []string{"Lisinopril 10mg"}, st.Draft.MedicalHistory.CurrentMedications)
	assert.Equal(t, "", st.ListInputs[CurrentMedications])
}

func TestForm_AddPendingListItemIsAtomic(t *testing.T) {
	for i := 0; i < 200; i++ {
		f := newTestForm(&recordingSubmitter{})
		require.NoError(t, f.SetListInput(Allergies, "Penicillin"))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.AddPendingListItem(Allergies))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, f.SetListInput(Allergies, "Latex"))
		}()
		wg.Wait()

		st := f.Snapshot()
		items := st.Draft.MedicalHistory.Allergies
		switch {
		case len(items) == 1 && items[0] == "Penicillin":
			require.Equal(t, "Latex", st.ListInputs[Allergies], "newer input was cleared by an older add")
		case len(items) == 1 && items[0] == "Latex":
			require.Equal(t, "", st.ListInputs[Allergies])
		default:
			t.Fatalf("unexpected list %v", items)
		}
	}
}

func TestForm_ListUnknown(t *testing.T) {
	f := newTestForm(&recordingSubmitter{})
	assert.ErrorIs(t, f.AddListItem("vaccines", "x"), ErrUnknownList)
	assert.ErrorIs(t, f.SetListInput("vaccines", "x"), ErrUnknownList)
	assert.ErrorIs(t, f.RemoveListItem("vaccines", 0), ErrUnknownList)
}

func TestForm_SnapshotIsCopy(t *testing.T) {
	f := newTestForm(&recordingSubmitter{})
	require.NoError(t, f.AddListItem(Allergies, "Penicillin"))

	st := f.Snapshot()
	st.Draft.MedicalHistory.Allergies[0] = "changed"
	st.Errors["x"] = "y"

	again := f.Snapshot()
	assert.Equal(t, "Penicillin", again.Draft.MedicalHistory.Allergies[0])
	assert.NotContains(t, again.Errors, "x")
}

func TestForm_AdvanceStepRecordScope(t *testing.T) {
	f := newTestForm(&recordingSubmitter{})

	res := f.AdvanceStep()
	assert.False(t, res.Valid)
	assert.Equal(t, 1, f.Step())
	assert.Equal(t, res.Errors, f.Snapshot().Errors)

	fillForm(f, completeDraft())
	for want := 2; want <= TotalSteps; want++ {
		require.True(t, f.AdvanceStep().Valid)
		assert.Equal(t, want, f.Step())
	}

	assert.True(t, f.AdvanceStep().Valid)
	assert.Equal(t, TotalSteps, f.Step(), "advance never passes the last step")
}

func TestForm_AdvanceStepStepScope(t *testing.T) {
	f := newTestForm(&recordingSubmitter{}, WithScope(ScopeStep))
	require.NoError(t, f.UpdateField(Top("firstName"), TextInput("Jane")))
	require.NoError(t, f.UpdateField(Top("lastName"), TextInput("Doe")))
	require.NoError(t, f.UpdateField(Top("dateOfBirth"), TextInput("1985-06-15")))
	require.NoError(t, f.UpdateField(Top("gender"), TextInput("female")))

	assert.True(t, f.AdvanceStep().Valid)
	assert.Equal(t, 2, f.Step())

	res := f.AdvanceStep()
	assert.False(t, res.Valid)
	assert.Equal(t, 2, f.Step())
	assert.NotContains(t, res.Errors, "privacyPolicy")
}

func TestForm_RetreatStep(t *testing.T) {
	f := newTestForm(&recordingSubmitter{})
	f.RetreatStep()
	assert.Equal(t, 1, f.Step())

	fillForm(f, completeDraft())
	f.AdvanceStep()
	f.AdvanceStep()
	require.Equal(t, 3, f.Step())

	require.NoError(t, f.UpdateField(Top("firstName"), TextInput("")))
	f.RetreatStep()
	assert.Equal(t, 2, f.Step(), "going back never validates")
}

func TestForm_ValidateStepHasNoSideEffects(t *testing.T) {
	f := newTestForm(&recordingSubmitter{})
	res := f.ValidateStep(1)
	assert.False(t, res.Valid)
	assert.Empty(t, f.Snapshot().Errors)
	assert.Equal(t, 1, f.Step())
}

func TestForm_SubmitMissingConsent(t *testing.T) {
	for _, field := range []string{"hipaaAgreement", "termsAndConditions", "privacyPolicy"} {
		t.Run(field, func(t *testing.T) {
			sub := &recordingSubmitter{}
			f := newTestForm(sub)
			fillForm(f, completeDraft())
			require.NoError(t, f.UpdateField(Top(field), CheckboxInput(false)))

			res, err := f.Submit(context.Background())
			require.NoError(t, err)
			assert.False(t, res.Accepted())
			assert.Contains(t, res.Errors, field)
			assert.Zero(t, sub.callCount(), "submitter must not be invoked")
			assert.Contains(t, f.Snapshot().Errors, field)
		})
	}
}

func TestForm_SubmitSuccess(t *testing.T) {
	sub := &recordingSubmitter{}
	notifier := &recordingNotifier{}
	f := newTestForm(sub, WithNotifier(notifier))
	fillForm(f, completeDraft())
	require.NoError(t, f.AddListItem(Allergies, "Penicillin"))

	res, err := f.Submit(context.Background())
	require.NoError(t, err)
	require.True(t, res.Accepted())

	require.Equal(t, 1, sub.callCount())
	assert.Equal(t, "Jane", sub.calls[0].FirstName)
	assert.Equal(t, []string{"Penicillin"}, sub.calls[0].MedicalHistory.Allergies)
	assert.Len(t, notifier.submitted, 1)
	assert.Empty(t, notifier.failed)
	assert.False(t, f.Submitting())
}

func TestForm_SubmitFailureKeepsDraft(t *testing.T) {
	sub := &recordingSubmitter{err: errors.New("connection refused")}
	notifier := &recordingNotifier{}
	f := newTestForm(sub, WithNotifier(notifier))
	fillForm(f, completeDraft())

	before := f.Snapshot().Draft
	_, err := f.Submit(context.Background())

	require.ErrorIs(t, err, ErrSubmitFailed)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Len(t, notifier.failed, 1)
	assert.False(t, f.Submitting())
	assert.Equal(t, before, f.Snapshot().Draft)

	require.NoError(t, f.UpdateField(Top("middleName"), TextInput("Q")), "form is editable after a failure")
}

func TestForm_SubmitInFlight(t *testing.T) {
	sub := &recordingSubmitter{started: make(chan struct{}), release: make(chan struct{})}
	f := newTestForm(sub)
	fillForm(f, completeDraft())

	var (
		wg     sync.WaitGroup
		first  SubmitResult
		errOne error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		first, errOne = f.Submit(context.Background())
	}()

	<-sub.started
	assert.True(t, f.Submitting())
	assert.True(t, f.Snapshot().Submitting)

	_, err := f.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmissionInProgress)

	// edits are still accepted while the submitter runs
	require.NoError(t, f.UpdateField(Top("middleName"), TextInput("Q")))

	close(sub.release)
	wg.Wait()

	require.NoError(t, errOne)
	assert.True(t, first.Accepted())
	assert.Equal(t, 1, sub.callCount())
	assert.False(t, f.Submitting())
}

func TestForm_SubmitContextCancelled(t *testing.T) {
	sub := &recordingSubmitter{release: make(chan struct{})}
	f := newTestForm(sub)
	fillForm(f, completeDraft())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Submit(ctx)
	assert.ErrorIs(t, err, ErrSubmitFailed)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, f.Submitting())
}
