// Package critical implements CriticalInteraction, the optimistic-
// concurrency mutation primitive every mutation of shared store state in
// the core is required to go through: read, precheck, mutate, write, with
// conflict retry and a final postcheck.
package critical

import (
	"context"
	"errors"
	"time"

	"github.com/eclipse-pass/deposit-orchestrator/internal/errs"
	"github.com/eclipse-pass/deposit-orchestrator/internal/mlog"
	"github.com/eclipse-pass/deposit-orchestrator/internal/retry"
)

// Result is the outcome of a Perform call.
type Result[T any, R any] struct {
	OK       bool
	Resource T
	Out      R
	Err      error
}

// Reader reads the current value of a resource of type T, identified by id.
type Reader[T any] func(ctx context.Context, id string) (T, error)

// Writer writes resource back, reporting a conflict error (one the
// Interaction's ConflictChecker recognizes) when the caller's view is stale.
type Writer[T any] func(ctx context.Context, resource T) error

// Precheck decides whether resource is eligible for mutation.
type Precheck[T any] func(resource T) bool

// Mutate applies the domain change to resource in place (or via its
// returned copy, depending on T's value semantics) and produces an
// arbitrary result.
type Mutate[T any, R any] func(ctx context.Context, resource *T) (R, error)

// Postcheck validates the freshly-written resource and the mutate result.
type Postcheck[T any, R any] func(resource T, out R) bool

// ConflictChecker reports whether err is the store's error for a stale
// write; callers pass their store's check via IsConflict, and when it is
// nil an error matching ErrGenericConflict counts as a conflict.
type ConflictChecker func(err error) bool

// Interaction bundles everything Perform needs for one resource kind.
type Interaction[T any, R any] struct {
	Read        Reader[T]
	Write       Writer[T]
	IsConflict  ConflictChecker
	RetryConfig retry.Config
}

// Perform runs the read -> precheck -> mutate -> write -> postcheck
// algorithm for the resource identified by id.
//
// mutate's side effects are applied to a fresh read of the resource on
// every retry; a precondition failure or a mutate error aborts immediately
// without retrying. A write conflict re-reads, re-applies mutate to the
// fresh copy, and retries the write, bounded by RetryConfig.MaxRetries.
func Perform[T any, R any](
	ctx context.Context,
	id string,
	ix Interaction[T, R],
	precheck Precheck[T],
	mutate Mutate[T, R],
	postcheck Postcheck[T, R],
) Result[T, R] {
	cfg := ix.RetryConfig
	if cfg.MaxRetries == 0 {
		cfg = retry.DefaultCriticalInteractionConfig()
	}

	log := mlog.FromContext(ctx)

	var zero R

	resource, err := ix.Read(ctx, id)
	if err != nil {
		return Result[T, R]{Err: err}
	}

	if !precheck(resource) {
		return Result[T, R]{
			Err: errs.PreconditionFailedError{Resource: id, Reason: "precheck returned false"},
		}
	}

	var out R
	attempt := 0

	for {
		attempt++

		working := resource

		out, err = mutate(ctx, &working)
		if err != nil {
			return Result[T, R]{Err: err}
		}

		writeErr := ix.Write(ctx, working)
		if writeErr == nil {
			resource = working
			break
		}

		if !isConflict(ix.IsConflict, writeErr) {
			return Result[T, R]{Err: writeErr}
		}

		if attempt > cfg.MaxRetries {
			return Result[T, R]{Err: errs.ConflictError{Resource: id, Attempts: attempt}}
		}

		log.Warnf("critical interaction: conflict writing %s, attempt %d/%d", id, attempt, cfg.MaxRetries)

		select {
		case <-ctx.Done():
			return Result[T, R]{Err: ctx.Err()}
		case <-time.After(cfg.Backoff(attempt)):
		}

		fresh, readErr := ix.Read(ctx, id)
		if readErr != nil {
			return Result[T, R]{Err: readErr}
		}

		if !precheck(fresh) {
			return Result[T, R]{
				Err: errs.PreconditionFailedError{Resource: id, Reason: "precheck failed on retry"},
			}
		}

		resource = fresh
	}

	if !postcheck(resource, out) {
		return Result[T, R]{
			Resource: resource,
			Out:      zero,
			Err:      errs.PreconditionFailedError{Resource: id, Reason: "postcheck returned false"},
		}
	}

	return Result[T, R]{OK: true, Resource: resource, Out: out}
}

func isConflict(check ConflictChecker, err error) bool {
	if check != nil {
		return check(err)
	}

	return errors.Is(err, ErrGenericConflict)
}

// ErrGenericConflict is matched by errors.Is when an Interaction supplies
// no IsConflict function and the underlying error wraps it directly.
var ErrGenericConflict = errors.New("critical: conflict")
