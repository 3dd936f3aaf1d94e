// Package memstore is an in-memory MetadataStore used by tests across the
// core: it implements the same etag-conflict semantics as the real HTTP
// store without any network dependency.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/eclipse-pass/deposit-orchestrator/internal/domain"
	"github.com/eclipse-pass/deposit-orchestrator/internal/store"
)

// Store is a goroutine-safe, in-memory MetadataStore.
type Store struct {
	mu sync.Mutex

	submissions      map[string]domain.Submission
	deposits         map[string]domain.Deposit
	repositories     map[string]domain.Repository
	repositoryCopies map[string]domain.RepositoryCopy
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		submissions:      make(map[string]domain.Submission),
		deposits:         make(map[string]domain.Deposit),
		repositories:     make(map[string]domain.Repository),
		repositoryCopies: make(map[string]domain.RepositoryCopy),
	}
}

// SeedRepository installs a Repository directly, bypassing etag rules, for
// test fixtures.
func (s *Store) SeedRepository(r domain.Repository) domain.Repository {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Etag == "" {
		r.Etag = uuid.NewString()
	}

	s.repositories[r.ID] = r

	return r
}

func (s *Store) ReadSubmission(_ context.Context, id string) (domain.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.submissions[id]
	if !ok {
		return domain.Submission{}, fmt.Errorf("submission %s: %w", id, store.ErrNotFound)
	}

	return sub, nil
}

func (s *Store) CreateSubmission(_ context.Context, sub domain.Submission) (domain.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	sub.Etag = uuid.NewString()

	s.submissions[sub.ID] = sub

	return sub, nil
}

func (s *Store) UpdateSubmission(_ context.Context, sub domain.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.submissions[sub.ID]
	if !ok {
		return fmt.Errorf("submission %s: %w", sub.ID, store.ErrNotFound)
	}

	if existing.Etag != sub.Etag {
		return fmt.Errorf("submission %s: %w", sub.ID, store.ErrConflict)
	}

	sub.Etag = uuid.NewString()
	s.submissions[sub.ID] = sub

	return nil
}

func (s *Store) ReadDeposit(_ context.Context, id string) (domain.Deposit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.deposits[id]
	if !ok {
		return domain.Deposit{}, fmt.Errorf("deposit %s: %w", id, store.ErrNotFound)
	}

	return d, nil
}

func (s *Store) CreateDeposit(_ context.Context, d domain.Deposit) (domain.Deposit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.Etag = uuid.NewString()

	s.deposits[d.ID] = d

	return d, nil
}

func (s *Store) UpdateDeposit(_ context.Context, d domain.Deposit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.deposits[d.ID]
	if !ok {
		return fmt.Errorf("deposit %s: %w", d.ID, store.ErrNotFound)
	}

	if existing.Etag != d.Etag {
		return fmt.Errorf("deposit %s: %w", d.ID, store.ErrConflict)
	}

	d.Etag = uuid.NewString()
	s.deposits[d.ID] = d

	return nil
}

func (s *Store) ReadRepository(_ context.Context, id string) (domain.Repository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.repositories[id]
	if !ok {
		return domain.Repository{}, fmt.Errorf("repository %s: %w", id, store.ErrNotFound)
	}

	return r, nil
}

func (s *Store) ReadRepositoryCopy(_ context.Context, id string) (domain.RepositoryCopy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.repositoryCopies[id]
	if !ok {
		return domain.RepositoryCopy{}, fmt.Errorf("repository copy %s: %w", id, store.ErrNotFound)
	}

	return c, nil
}

func (s *Store) CreateRepositoryCopy(_ context.Context, c domain.RepositoryCopy) (domain.RepositoryCopy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Etag = uuid.NewString()

	s.repositoryCopies[c.ID] = c

	return c, nil
}

func (s *Store) UpdateRepositoryCopy(_ context.Context, c domain.RepositoryCopy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.repositoryCopies[c.ID]
	if !ok {
		return fmt.Errorf("repository copy %s: %w", c.ID, store.ErrNotFound)
	}

	if existing.Etag != c.Etag {
		return fmt.Errorf("repository copy %s: %w", c.ID, store.ErrConflict)
	}

	c.Etag = uuid.NewString()
	s.repositoryCopies[c.ID] = c

	return nil
}

func (s *Store) FindDepositsByStatus(_ context.Context, statuses []domain.DepositStatus) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[domain.DepositStatus]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}

	var ids []string
	for id, d := range s.deposits {
		if want[d.Status] {
			ids = append(ids, id)
		}
	}

	return ids, nil
}

func (s *Store) FindSubmissionsNotIn(_ context.Context, terminal []domain.SubmissionStatus) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	excluded := make(map[domain.SubmissionStatus]bool, len(terminal))
	for _, st := range terminal {
		excluded[st] = true
	}

	var ids []string
	for id, sub := range s.submissions {
		if !sub.Submitted {
			continue
		}
		if !excluded[sub.AggregatedStatus] {
			ids = append(ids, id)
		}
	}

	return ids, nil
}

func (s *Store) FindDepositsBySubmission(_ context.Context, submissionID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for id, d := range s.deposits {
		if d.SubmissionID == submissionID {
			ids = append(ids, id)
		}
	}

	return ids, nil
}

var _ store.MetadataStore = (*Store)(nil)
