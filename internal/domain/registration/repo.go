package registration

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrRecordNotFound  = errors.New("registration record not found")
	ErrDuplicateRecord = errors.New("registration record already exists")
)

type RecordRepository interface {
	Create(ctx context.Context, rec *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	List(ctx context.Context, filter RecordFilter, limit, offset int) ([]*Record, int, error)
}

// MemoryRecordRepo keeps records in process memory. It backs the
// simulated submission mode and tests.
type MemoryRecordRepo struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*Record
}

func NewMemoryRecordRepo() *MemoryRecordRepo {
	return &MemoryRecordRepo{records: make(map[uuid.UUID]*Record)}
}

func (r *MemoryRecordRepo) Create(_ context.Context, rec *Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	stored := *rec
	stored.Registration = rec.Registration.Clone()

	r.mu.Lock()
	r.records[rec.ID] = &stored
	r.mu.Unlock()
	return nil
}

func (r *MemoryRecordRepo) GetByID(_ context.Context, id uuid.UUID) (*Record, error) {
	r.mu.RLock()
	rec, ok := r.records[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrRecordNotFound
	}
	out := *rec
	out.Registration = rec.Registration.Clone()
	return &out, nil
}

func (r *MemoryRecordRepo) List(_ context.Context, filter RecordFilter, limit, offset int) ([]*Record, int, error) {
	r.mu.RLock()
	var matched []*Record
	for _, rec := range r.records {
		if filter.matches(rec) {
			out := *rec
			out.Registration = rec.Registration.Clone()
			matched = append(matched, &out)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i].Registration, matched[j].Registration
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		if a.FirstName != b.FirstName {
			return a.FirstName < b.FirstName
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	total := len(matched)
	if offset >= total {
		return []*Record{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return matched[offset:end], total, nil
}

func (f RecordFilter) matches(rec *Record) bool {
	if f.Status != "" && f.Status != "all" && rec.Status != f.Status {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	reg := rec.Registration
	name := strings.ToLower(reg.FirstName + " " + reg.LastName)
	return strings.Contains(name, term) ||
		strings.Contains(strings.ToLower(rec.ID.String()), term) ||
		strings.Contains(strings.ToLower(reg.Email), term)
}
