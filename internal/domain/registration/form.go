package registration

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Form is the registration wizard controller. It owns the draft, the
// current step, the pending text for each medical-history list, the
// submitting flag and the field errors shown to the user.
//
// Form is safe for concurrent use. Its lock is released while the
// submitter runs, so a second Submit observes the in-flight submission.
type Form struct {
	mu         sync.Mutex
	draft      PatientRegistration
	step       int
	inputs     map[ListName]string
	submitting bool
	errors     FieldErrors

	scope     Scope
	submitter Submitter
	notifier  Notifier
	now       func() time.Time
}

type FormOption func(*Form)

// WithScope sets which rules AdvanceStep evaluates. Defaults to ScopeRecord.
func WithScope(s Scope) FormOption {
	return func(f *Form) { f.scope = s }
}

func WithNotifier(n Notifier) FormOption {
	return func(f *Form) { f.notifier = n }
}

func WithClock(now func() time.Time) FormOption {
	return func(f *Form) { f.now = now }
}

// NewForm starts a wizard at step 1 with an empty draft.
func NewForm(submitter Submitter, opts ...FormOption) *Form {
	f := &Form{
		draft:     NewDraft(),
		step:      1,
		inputs:    make(map[ListName]string, len(ListNames)),
		errors:    FieldErrors{},
		scope:     ScopeRecord,
		submitter: submitter,
		notifier:  nopNotifier{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// State is a point-in-time copy of a Form for rendering.
type State struct {
	Step       int                 `json:"currentStep"`
	TotalSteps int                 `json:"totalSteps"`
	Draft      PatientRegistration `json:"formData"`
	Errors     FieldErrors         `json:"errors"`
	ListInputs map[ListName]string `json:"listInputs"`
	Submitting bool                `json:"isSubmitting"`
}

func (f *Form) Snapshot() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	inputs := make(map[ListName]string, len(ListNames))
	for _, l := range ListNames {
		inputs[l] = f.inputs[l]
	}
	return State{
		Step:       f.step,
		TotalSteps: TotalSteps,
		Draft:      f.draft.Clone(),
		Errors:     f.errors.clone(),
		ListInputs: inputs,
		Submitting: f.submitting,
	}
}

// UpdateField writes in to the field at p and clears that field's error.
func (f *Form) UpdateField(p FieldPath, in Input) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.draft.set(p, in); err != nil {
		return err
	}
	delete(f.errors, p.String())
	return nil
}

// UpdatePhoneField formats raw as a phone number and writes it to p.
// Errors for p are left in place until the next validation.
func (f *Form) UpdatePhoneField(p FieldPath, raw string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.draft.set(p, TextInput(FormatPhoneNumber(raw)))
}

// SetListInput stores pending text for a medical-history list.
func (f *Form) SetListInput(l ListName, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.draft.MedicalHistory.list(l); err != nil {
		return err
	}
	f.inputs[l] = text
	return nil
}

// AddListItem appends the trimmed text to list l and clears its pending
// input. Blank text leaves both untouched.
func (f *Form) AddListItem(l ListName, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addListItemLocked(l, text)
}

// addListItemLocked requires f.mu.
func (f *Form) addListItemLocked(l ListName, text string) error {
	items, err := f.draft.MedicalHistory.list(l)
	if err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	*items = append(*items, text)
	f.inputs[l] = ""
	return nil
}

// AddPendingListItem adds the pending input of list l.
func (f *Form) AddPendingListItem(l ListName) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addListItemLocked(l, f.inputs[l])
}

// RemoveListItem drops the item at index; an out-of-range index is ignored.
func (f *Form) RemoveListItem(l ListName, index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.draft.MedicalHistory.list(l)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(*items) {
		return nil
	}
	out := make([]string, 0, len(*items)-1)
	out = append(out, (*items)[:index]...)
	out = append(out, (*items)[index+1:]...)
	*items = out
	return nil
}

// ValidateStep validates the current draft for step without changing state.
func (f *Form) ValidateStep(step int) ValidationResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return ValidateStep(f.draft, step, f.scope, f.now())
}

// AdvanceStep moves to the next step when the current one validates.
// Otherwise the errors are stored and the step is kept.
func (f *Form) AdvanceStep() ValidationResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	res := ValidateStep(f.draft, f.step, f.scope, f.now())
	if !res.Valid {
		f.errors = res.Errors.clone()
		return res
	}
	if f.step < TotalSteps {
		f.step++
	}
	return res
}

// RetreatStep moves back one step. Going back never validates.
func (f *Form) RetreatStep() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step > 1 {
		f.step--
	}
}

// Step returns the current step, 1 through TotalSteps.
func (f *Form) Step() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Submitting reports whether a submission is in flight.
func (f *Form) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// SubmitResult carries either the stored record or the field errors that
// prevented submission.
type SubmitResult struct {
	Record *Record
	Errors FieldErrors
}

func (r SubmitResult) Accepted() bool { return r.Record != nil }

// Submit validates the whole record and hands a copy of it to the
// submitter. Invalid drafts never reach the submitter. While a submission
// is in flight further calls return ErrSubmissionInProgress. A submitter
// failure is returned wrapped in ErrSubmitFailed and the draft is kept.
func (f *Form) Submit(ctx context.Context) (SubmitResult, error) {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return SubmitResult{}, ErrSubmissionInProgress
	}
	res := Validate(f.draft, f.now())
	if !res.Valid {
		f.errors = res.Errors.clone()
		f.mu.Unlock()
		return SubmitResult{Errors: res.Errors}, nil
	}
	f.submitting = true
	reg := f.draft.Clone()
	f.mu.Unlock()

	rec, err := f.submit(ctx, reg)
	if err != nil {
		f.notifier.RegistrationFailed(ctx, reg, err)
		return SubmitResult{}, fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}
	f.notifier.RegistrationSubmitted(ctx, reg, rec)
	return SubmitResult{Record: rec}, nil
}

func (f *Form) submit(ctx context.Context, reg PatientRegistration) (*Record, error) {
	defer func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}()
	return f.submitter.SubmitRegistration(ctx, reg)
}
