// Package deposittask implements the unit of work the
// worker pool runs per (Submission, Repository) pair once the submission
// processor has enqueued it. It drives the package send as a critical
// interaction on the Deposit resource (Phase A), then, for targets that
// hand back a statement reference, waits out the settle interval and
// resolves the outcome through DepositStatusResolver and StatusMapping
// (Phase B).
package deposittask

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eclipse-pass/deposit-orchestrator/internal/critical"
	"github.com/eclipse-pass/deposit-orchestrator/internal/domain"
	"github.com/eclipse-pass/deposit-orchestrator/internal/errs"
	"github.com/eclipse-pass/deposit-orchestrator/internal/mlog"
	"github.com/eclipse-pass/deposit-orchestrator/internal/packager"
	"github.com/eclipse-pass/deposit-orchestrator/internal/registry"
	"github.com/eclipse-pass/deposit-orchestrator/internal/resolver"
	"github.com/eclipse-pass/deposit-orchestrator/internal/store"
	"github.com/eclipse-pass/deposit-orchestrator/internal/transport"
)

// Executor runs DepositTask for one deposit at a time. It holds no
// per-deposit state, so a single Executor is shared across every worker
// goroutine in the pool.
type Executor struct {
	Store    store.MetadataStore
	Resolver *resolver.Resolver
}

// New builds an Executor.
func New(st store.MetadataStore, res *resolver.Resolver) *Executor {
	return &Executor{Store: st, Resolver: res}
}

// Run executes Phase A (assemble and send, as a critical update of the
// Deposit) and, when Phase A succeeds with a status reference to poll,
// Phase B (settle, resolve, and apply the outcome). ds and pkg were
// already materialized by the submission processor at enqueue time.
func (e *Executor) Run(ctx context.Context, depositID string, ds domain.DepositSubmission, pkg packager.Packager) error {
	log := mlog.FromContext(ctx)

	if err := ds.Validate(); err != nil {
		return e.MarkFailed(ctx, depositID, fmt.Errorf("deposittask: submission for deposit %s failed validation: %w", depositID, err))
	}

	result := critical.Perform(ctx, depositID, depositInteraction[transport.TransportResponse](e.Store),
		func(d domain.Deposit) bool { return d.Status.IsIntermediate() },
		e.sendMutate(ds, pkg),
		func(d domain.Deposit, out transport.TransportResponse) bool {
			return d.Status == domain.DepositStatusSubmitted && out.Success
		},
	)
	if result.Err != nil {
		var classified errs.Classified
		if errors.As(result.Err, &classified) && classified.Kind() == errs.KindTransportFailed {
			log.Warnf("deposittask: physical transfer failed for deposit %s, left dirty for retry: %v", depositID, result.Err)
		}

		return result.Err
	}

	deposit := result.Resource
	if deposit.StatusRef == "" {
		return e.openRepositoryCopy(ctx, deposit)
	}

	return e.settleAndResolve(ctx, deposit, pkg.Config, log)
}

// sendMutate assembles ds into a package and sends it through pkg's
// Transport, recording the outcome on the Deposit in place. A physical
// failure (assembly, connection, or a non-success TransportResponse)
// returns an errs.TransportFailedError, which critical.Perform treats as
// an immediate abort: the deposit is left exactly as it was for a later
// reconciliation pass, since Write is never reached.
func (e *Executor) sendMutate(ds domain.DepositSubmission, pkg packager.Packager) critical.Mutate[domain.Deposit, transport.TransportResponse] {
	return func(ctx context.Context, d *domain.Deposit) (transport.TransportResponse, error) {
		stream, err := pkg.Assembler.Assemble(ctx, ds, transport.AssemblerOptions{
			Archive:            pkg.Config.AssemblerOptions.Archive,
			Compression:        pkg.Config.AssemblerOptions.Compression,
			ChecksumAlgorithms: pkg.Config.AssemblerOptions.ChecksumAlgorithms,
		})
		if err != nil {
			return transport.TransportResponse{}, errs.TransportFailedError{RepositoryKey: pkg.Config.RepositoryKey, Err: err}
		}

		session, err := pkg.Transport.Open(ctx)
		if err != nil {
			return transport.TransportResponse{}, errs.TransportFailedError{RepositoryKey: pkg.Config.RepositoryKey, Err: err}
		}
		defer session.Close()

		resp, err := session.Send(ctx, stream)
		if err != nil {
			return transport.TransportResponse{}, errs.TransportFailedError{RepositoryKey: pkg.Config.RepositoryKey, Err: err}
		}

		if !resp.Success {
			return resp, errs.TransportFailedError{RepositoryKey: pkg.Config.RepositoryKey, Err: resp.Err}
		}

		d.Status = domain.DepositStatusSubmitted
		if !resp.Receipt.Opaque {
			d.StatusRef = pkg.Config.RewriteStatementURL(resp.Receipt.StatementLink)
			d.ItemURL = resp.Receipt.AlternateLink
		}

		return resp, nil
	}
}

// settleAndResolve waits out cfg's settle interval, then resolves the
// deposit's current external status and applies it. ctx cancellation
// during the wait is treated as abandonment: the deposit is left
// Submitted with its statusRef intact for the next DepositUpdater pass to
// pick up, rather than forcing a resolve attempt the caller already gave
// up on.
func (e *Executor) settleAndResolve(ctx context.Context, deposit domain.Deposit, cfg registry.RepositoryConfig, log mlog.Logger) error {
	if cfg.SettleInterval > 0 {
		select {
		case <-ctx.Done():
			log.Infof("deposittask: settle wait abandoned for deposit %s: %v", deposit.ID, ctx.Err())
			return ctx.Err()
		case <-time.After(cfg.SettleInterval):
		}
	}

	externalStatus, err := e.Resolver.Resolve(ctx, deposit.StatusRef, cfg)
	if err != nil {
		log.Warnf("deposittask: resolving status for deposit %s: %v; leaving for reconciliation", deposit.ID, err)
		return err
	}

	internalStatus, ok := cfg.StatusMapping.Lookup(externalStatus)
	if !ok {
		log.Warnf("deposittask: %v; leaving deposit %s for reconciliation", errs.UnmappedError{ExternalStatus: externalStatus, RepositoryKey: cfg.RepositoryKey}, deposit.ID)
		return nil
	}

	switch internalStatus {
	case domain.DepositStatusAccepted:
		return e.accept(ctx, deposit)
	case domain.DepositStatusRejected:
		return e.reject(ctx, deposit.ID)
	default:
		return nil
	}
}

// openRepositoryCopy handles an opaque receipt: the target gave no
// statement to poll, so the only remaining action is to record that a
// remote copy is believed to exist. Resolution to COMPLETE or STALLED
// happens outside the core, by whatever process observes the target
// directly.
func (e *Executor) openRepositoryCopy(ctx context.Context, deposit domain.Deposit) error {
	rc, err := e.Store.CreateRepositoryCopy(ctx, domain.RepositoryCopy{
		RepositoryID: deposit.RepositoryID,
		CopyStatus:   domain.RepositoryCopyStatusInProgress,
	})
	if err != nil {
		return fmt.Errorf("deposittask: creating repository copy for deposit %s: %w", deposit.ID, err)
	}

	result := critical.Perform(ctx, deposit.ID, depositInteraction[struct{}](e.Store),
		func(d domain.Deposit) bool { return !d.Status.IsTerminal() },
		func(_ context.Context, d *domain.Deposit) (struct{}, error) {
			d.RepositoryCopyID = rc.ID
			return struct{}{}, nil
		},
		func(d domain.Deposit, _ struct{}) bool { return d.RepositoryCopyID == rc.ID },
	)

	return result.Err
}

func (e *Executor) accept(ctx context.Context, deposit domain.Deposit) error {
	rc, err := e.Store.CreateRepositoryCopy(ctx, domain.RepositoryCopy{
		RepositoryID: deposit.RepositoryID,
		CopyStatus:   domain.RepositoryCopyStatusComplete,
		ExternalIDs:  itemURLSlice(deposit.ItemURL),
		AccessURL:    deposit.ItemURL,
	})
	if err != nil {
		return fmt.Errorf("deposittask: creating repository copy for deposit %s: %w", deposit.ID, err)
	}

	result := critical.Perform(ctx, deposit.ID, depositInteraction[struct{}](e.Store),
		func(d domain.Deposit) bool { return !d.Status.IsTerminal() },
		func(_ context.Context, d *domain.Deposit) (struct{}, error) {
			d.Status = domain.DepositStatusAccepted
			d.RepositoryCopyID = rc.ID
			return struct{}{}, nil
		},
		func(d domain.Deposit, _ struct{}) bool {
			return d.Status == domain.DepositStatusAccepted && d.RepositoryCopyID == rc.ID
		},
	)

	return result.Err
}

func (e *Executor) reject(ctx context.Context, depositID string) error {
	result := critical.Perform(ctx, depositID, depositInteraction[struct{}](e.Store),
		func(d domain.Deposit) bool { return !d.Status.IsTerminal() },
		func(_ context.Context, d *domain.Deposit) (struct{}, error) {
			d.Status = domain.DepositStatusRejected
			return struct{}{}, nil
		},
		func(d domain.Deposit, _ struct{}) bool { return d.Status == domain.DepositStatusRejected },
	)

	return result.Err
}

// MarkFailed marks depositID FAILED unconditionally (short of it already
// being terminal) and returns cause, so the caller's error path is
// unaffected by whether the mark-as-failed write itself succeeds; a
// failure to persist the mark is only logged. Exported so the worker-pool
// rejection handler wired in internal/app can report a deposit that was
// created but never got to run.
func (e *Executor) MarkFailed(ctx context.Context, depositID string, cause error) error {
	log := mlog.FromContext(ctx)

	result := critical.Perform(ctx, depositID, depositInteraction[struct{}](e.Store),
		func(d domain.Deposit) bool { return !d.Status.IsTerminal() },
		func(_ context.Context, d *domain.Deposit) (struct{}, error) {
			d.Status = domain.DepositStatusFailed
			return struct{}{}, nil
		},
		func(d domain.Deposit, _ struct{}) bool { return d.Status == domain.DepositStatusFailed },
	)
	if result.Err != nil {
		log.Errorf("deposittask: could not mark deposit %s FAILED (cause: %v): %v", depositID, cause, result.Err)
	}

	return cause
}

// itemURLSlice wraps a deposit's item URL as a single-element ExternalIDs
// slice, or nil when the target never returned one (e.g. an opaque
// receipt that settled to ACCEPTED through some other unmodeled signal).
func itemURLSlice(itemURL string) []string {
	if itemURL == "" {
		return nil
	}

	return []string{itemURL}
}

func depositInteraction[R any](st store.MetadataStore) critical.Interaction[domain.Deposit, R] {
	return critical.Interaction[domain.Deposit, R]{
		Read:       func(ctx context.Context, id string) (domain.Deposit, error) { return st.ReadDeposit(ctx, id) },
		Write:      func(ctx context.Context, d domain.Deposit) error { return st.UpdateDeposit(ctx, d) },
		IsConflict: func(err error) bool { return errors.Is(err, store.ErrConflict) },
	}
}
