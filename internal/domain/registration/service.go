package registration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	sessions      *SessionStore
	records       RecordRepository
	submitTimeout time.Duration
}

// NewService serves drafts from sessions and the patient directory from
// records. A zero submitTimeout leaves submissions bounded only by the
// caller's context.
func NewService(sessions *SessionStore, records RecordRepository, submitTimeout time.Duration) *Service {
	return &Service{sessions: sessions, records: records, submitTimeout: submitTimeout}
}

// -- Drafts --

func (s *Service) StartDraft() *Session {
	return s.sessions.Create()
}

func (s *Service) Draft(id uuid.UUID) (*Session, error) {
	return s.sessions.Get(id)
}

func (s *Service) DiscardDraft(id uuid.UUID) error {
	if !s.sessions.Delete(id) {
		return ErrSessionNotFound
	}
	return nil
}

// SubmitDraft submits the session's form. An accepted submission closes
// the session; a rejected or failed one leaves it open for correction.
func (s *Service) SubmitDraft(ctx context.Context, id uuid.UUID) (SubmitResult, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return SubmitResult{}, err
	}

	if s.submitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.submitTimeout)
		defer cancel()
	}

	res, err := sess.Form.Submit(ctx)
	if err != nil {
		return res, err
	}
	if res.Accepted() {
		s.sessions.Delete(id)
	}
	return res, nil
}

// -- Directory --

func (s *Service) GetRecord(ctx context.Context, id uuid.UUID) (*Record, error) {
	return s.records.GetByID(ctx, id)
}

func (s *Service) ListRecords(ctx context.Context, filter RecordFilter, limit, offset int) ([]*Record, int, error) {
	return s.records.List(ctx, filter, limit, offset)
}
