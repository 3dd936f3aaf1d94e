// Package store defines the MetadataStore port: typed, etag-guarded CRUD
// plus attribute search over the resource kinds the core operates on. Two
// adapters implement it: httpstore (a REST client against the metadata
// repository) and memstore (an in-memory fake used in tests).
package store

import (
	"context"
	"errors"

	"github.com/eclipse-pass/deposit-orchestrator/internal/domain"
)

// Kind names a resource type understood by the store.
type Kind string

const (
	KindSubmission     Kind = "Submission"
	KindDeposit        Kind = "Deposit"
	KindRepository     Kind = "Repository"
	KindRepositoryCopy Kind = "RepositoryCopy"
	KindFile           Kind = "File"
)

// ErrConflict is returned by Update when the caller's etag no longer
// matches the resource's current etag. CriticalInteraction treats this as
// the retry signal.
var ErrConflict = errors.New("store: etag conflict")

// ErrNotFound is returned by Read when no resource exists at id.
var ErrNotFound = errors.New("store: resource not found")

// MetadataStore is the external collaborator holding every shared resource
// the core mutates. All writes are etag-guarded; callers obtain the current
// etag from Read and must supply it, unchanged, on Update.
type MetadataStore interface {
	ReadSubmission(ctx context.Context, id string) (domain.Submission, error)
	CreateSubmission(ctx context.Context, s domain.Submission) (domain.Submission, error)
	UpdateSubmission(ctx context.Context, s domain.Submission) error

	ReadDeposit(ctx context.Context, id string) (domain.Deposit, error)
	CreateDeposit(ctx context.Context, d domain.Deposit) (domain.Deposit, error)
	UpdateDeposit(ctx context.Context, d domain.Deposit) error

	ReadRepository(ctx context.Context, id string) (domain.Repository, error)

	ReadRepositoryCopy(ctx context.Context, id string) (domain.RepositoryCopy, error)
	CreateRepositoryCopy(ctx context.Context, c domain.RepositoryCopy) (domain.RepositoryCopy, error)
	UpdateRepositoryCopy(ctx context.Context, c domain.RepositoryCopy) error

	// FindDepositsByStatus returns ids of deposits whose status is one of
	// the given statuses, used by DepositUpdater to find deposits awaiting
	// reconciliation.
	FindDepositsByStatus(ctx context.Context, statuses []domain.DepositStatus) ([]string, error)

	// FindSubmissionsNotIn returns ids of submissions whose aggregated
	// status is not one of the given (terminal) statuses and whose
	// Submitted flag is true, used by SubmissionStatusUpdater.
	FindSubmissionsNotIn(ctx context.Context, terminal []domain.SubmissionStatus) ([]string, error)

	// FindDepositsBySubmission returns every deposit id linked to a
	// submission, used to compute its aggregated status.
	FindDepositsBySubmission(ctx context.Context, submissionID string) ([]string, error)
}
