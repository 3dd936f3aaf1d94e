// Package errs defines the error kinds from the deposit orchestrator's
// error-handling design: each kind is its own type rather than a sentinel,
// so callers can carry structured context (a repository key, a retry
// count) alongside it.
package errs

import "fmt"

// Kind classifies an error for the failure-channel handler and for the
// reconcilers, mirroring the kinds named in the error-handling design.
type Kind string

const (
	KindPreconditionFailed       Kind = "precondition_failed"
	KindConflict                 Kind = "conflict"
	KindTransportFailed          Kind = "transport_failed"
	KindResolveFailed            Kind = "resolve_failed"
	KindUnmapped                 Kind = "unmapped"
	KindRemedialMisconfiguration Kind = "remedial_misconfiguration"
	KindFatal                    Kind = "fatal"
)

// Classified is implemented by every error kind below; the failure-channel
// handler and the reconcilers switch on Kind() instead of type-asserting
// concrete types at every call site.
type Classified interface {
	error
	Kind() Kind
}

// PreconditionFailedError is recoverable: logged, not raised further. It
// records which precheck failed and on what resource, for diagnosability.
type PreconditionFailedError struct {
	Resource string
	Reason   string
}

func (e PreconditionFailedError) Error() string {
	return fmt.Sprintf("precondition failed on %s: %s", e.Resource, e.Reason)
}
func (e PreconditionFailedError) Kind() Kind { return KindPreconditionFailed }

// ConflictError is raised by the store on a stale etag. CriticalInteraction
// handles it internally via retry; it only escapes once the retry budget
// is exhausted.
type ConflictError struct {
	Resource string
	Attempts int
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("conflict writing %s after %d attempt(s)", e.Resource, e.Attempts)
}
func (e ConflictError) Kind() Kind { return KindConflict }

// TransportFailedError is a physical transfer failure. The deposit is left
// dirty and retried on a later pass.
type TransportFailedError struct {
	RepositoryKey string
	Err           error
}

func (e TransportFailedError) Error() string {
	return fmt.Sprintf("transport to %s failed: %v", e.RepositoryKey, e.Err)
}
func (e TransportFailedError) Unwrap() error { return e.Err }
func (e TransportFailedError) Kind() Kind    { return KindTransportFailed }

// ResolveFailedError means a status reference could not be fetched or
// parsed. The deposit remains in its current state, retried later.
type ResolveFailedError struct {
	StatusRef string
	Err       error
}

func (e ResolveFailedError) Error() string {
	return fmt.Sprintf("resolving status at %s: %v", e.StatusRef, e.Err)
}
func (e ResolveFailedError) Unwrap() error { return e.Err }
func (e ResolveFailedError) Kind() Kind    { return KindResolveFailed }

// UnmappedError means a status was parsed but has no mapping in the
// target's StatusMapping. Logged; not retried until external state
// changes (the reconciler will simply observe the same unmapped token
// again next pass).
type UnmappedError struct {
	ExternalStatus string
	RepositoryKey  string
}

func (e UnmappedError) Error() string {
	return fmt.Sprintf("external status %q unmapped for repository %s", e.ExternalStatus, e.RepositoryKey)
}
func (e UnmappedError) Kind() Kind { return KindUnmapped }

// RemedialMisconfigurationError means the target has no resolvable
// configuration. Logged with repository identity; not retried
// automatically — a human has to fix the registry document.
type RemedialMisconfigurationError struct {
	RepositoryID string
	Reason       string
}

func (e RemedialMisconfigurationError) Error() string {
	return fmt.Sprintf("no usable configuration for repository %s: %s", e.RepositoryID, e.Reason)
}
func (e RemedialMisconfigurationError) Kind() Kind { return KindRemedialMisconfiguration }

// FatalError means the store was unreachable at startup or configuration
// was unparseable: exit.
type FatalError struct {
	Reason string
	Err    error
}

func (e FatalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fatal: %s: %v", e.Reason, e.Err)
	}

	return fmt.Sprintf("fatal: %s", e.Reason)
}
func (e FatalError) Unwrap() error { return e.Err }
func (e FatalError) Kind() Kind    { return KindFatal }
