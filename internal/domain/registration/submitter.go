package registration

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Submitter persists a completed registration.
type Submitter interface {
	SubmitRegistration(ctx context.Context, reg PatientRegistration) (*Record, error)
}

// Notifier is told how a submission ended so the user can be informed.
type Notifier interface {
	RegistrationSubmitted(ctx context.Context, reg PatientRegistration, rec *Record)
	RegistrationFailed(ctx context.Context, reg PatientRegistration, err error)
}

type nopNotifier struct{}

func (nopNotifier) RegistrationSubmitted(context.Context, PatientRegistration, *Record) {}
func (nopNotifier) RegistrationFailed(context.Context, PatientRegistration, error)       {}

// RepositorySubmitter stores registrations as new active records.
type RepositorySubmitter struct {
	repo RecordRepository
	now  func() time.Time
}

func NewRepositorySubmitter(repo RecordRepository) *RepositorySubmitter {
	return &RepositorySubmitter{repo: repo, now: time.Now}
}

func (s *RepositorySubmitter) SubmitRegistration(ctx context.Context, reg PatientRegistration) (*Record, error) {
	rec := &Record{
		ID:           uuid.New(),
		Status:       StatusActive,
		Registration: reg,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// SimulatedSubmitter waits a fixed delay and then stores the record, so
// it always succeeds unless the context ends first.
type SimulatedSubmitter struct {
	delay time.Duration
	next  Submitter
}

func NewSimulatedSubmitter(delay time.Duration, next Submitter) *SimulatedSubmitter {
	return &SimulatedSubmitter{delay: delay, next: next}
}

func (s *SimulatedSubmitter) SubmitRegistration(ctx context.Context, reg PatientRegistration) (*Record, error) {
	t := time.NewTimer(s.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.C:
	}
	return s.next.SubmitRegistration(ctx, reg)
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, reg PatientRegistration) (*Record, error)

func (f SubmitterFunc) SubmitRegistration(ctx context.Context, reg PatientRegistration) (*Record, error) {
	return f(ctx, reg)
}

var (
	ErrSubmissionInProgress = errors.New("registration submission already in progress")
	ErrSubmitFailed         = errors.New("registration submission failed")
)
