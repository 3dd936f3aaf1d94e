// Package depositupdater implements a periodic
// reconciliation pass over deposits left in a non-terminal state with a
// status reference to poll, so that a synchronous notification missed (or
// never sent) by DepositTask still eventually settles.
package depositupdater

import (
	"context"
	"errors"
	"time"

	"github.com/eclipse-pass/deposit-orchestrator/internal/critical"
	"github.com/eclipse-pass/deposit-orchestrator/internal/domain"
	"github.com/eclipse-pass/deposit-orchestrator/internal/errs"
	"github.com/eclipse-pass/deposit-orchestrator/internal/mlog"
	"github.com/eclipse-pass/deposit-orchestrator/internal/registry"
	"github.com/eclipse-pass/deposit-orchestrator/internal/resolver"
	"github.com/eclipse-pass/deposit-orchestrator/internal/store"
)

// Updater runs the reconciliation pass on a fixed interval until its
// context is cancelled.
type Updater struct {
	Store    store.MetadataStore
	Registry *registry.Registry
	Resolver *resolver.Resolver
	Interval time.Duration
}

// New builds an Updater.
func New(st store.MetadataStore, reg *registry.Registry, res *resolver.Resolver, interval time.Duration) *Updater {
	return &Updater{Store: st, Registry: reg, Resolver: res, Interval: interval}
}

// Run blocks, executing Tick every Interval, until ctx is cancelled.
func (u *Updater) Run(ctx context.Context) {
	log := mlog.FromContext(ctx)

	ticker := time.NewTicker(u.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := u.Tick(ctx); err != nil {
				log.Errorf("depositupdater: tick failed: %v", err)
			}
		}
	}
}

// Tick finds every FAILED or SUBMITTED deposit and attempts to reconcile
// each. An individual deposit's error is logged, not returned, so one
// misconfigured target cannot block the rest of the pass.
func (u *Updater) Tick(ctx context.Context) error {
	log := mlog.FromContext(ctx)

	ids, err := u.Store.FindDepositsByStatus(ctx, []domain.DepositStatus{domain.DepositStatusFailed, domain.DepositStatusSubmitted})
	if err != nil {
		return err
	}

	for _, id := range ids {
		if err := u.reconcile(ctx, id); err != nil {
			var classified errs.Classified
			if errors.As(err, &classified) && classified.Kind() == errs.KindRemedialMisconfiguration {
				log.Errorf("depositupdater: deposit %s needs operator attention: %v", id, err)
				continue
			}

			log.Warnf("depositupdater: deposit %s not reconciled this pass: %v", id, err)
		}
	}

	return nil
}

// reconcile resolves the current external status of one deposit and
// applies it via the same critical update shape DepositTask's Phase B
// uses.
func (u *Updater) reconcile(ctx context.Context, depositID string) error {
	deposit, err := u.Store.ReadDeposit(ctx, depositID)
	if err != nil {
		return err
	}

	if deposit.Status.IsTerminal() || deposit.StatusRef == "" || deposit.RepositoryID == "" {
		return nil
	}

	repo, err := u.Store.ReadRepository(ctx, deposit.RepositoryID)
	if err != nil {
		return err
	}

	cfg, ok := u.Registry.Resolve(repo.ID, repo.RepositoryKey)
	if !ok {
		return errs.RemedialMisconfigurationError{RepositoryID: repo.ID, Reason: "no RepositoryConfig resolvable"}
	}

	externalStatus, err := u.Resolver.Resolve(ctx, deposit.StatusRef, cfg)
	if err != nil {
		return err
	}

	internalStatus, ok := cfg.StatusMapping.Lookup(externalStatus)
	if !ok {
		return errs.UnmappedError{ExternalStatus: externalStatus, RepositoryKey: cfg.RepositoryKey}
	}

	switch internalStatus {
	case domain.DepositStatusAccepted:
		return u.accept(ctx, deposit)
	case domain.DepositStatusRejected:
		return u.reject(ctx, depositID)
	default:
		return nil
	}
}

func (u *Updater) accept(ctx context.Context, deposit domain.Deposit) error {
	rc, err := u.Store.CreateRepositoryCopy(ctx, domain.RepositoryCopy{
		RepositoryID: deposit.RepositoryID,
		CopyStatus:   domain.RepositoryCopyStatusComplete,
		ExternalIDs:  itemURLSlice(deposit.ItemURL),
		AccessURL:    deposit.ItemURL,
	})
	if err != nil {
		return err
	}

	result := critical.Perform(ctx, deposit.ID, depositInteraction[struct{}](u.Store),
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

func (u *Updater) reject(ctx context.Context, depositID string) error {
	result := critical.Perform(ctx, depositID, depositInteraction[struct{}](u.Store),
		func(d domain.Deposit) bool { return !d.Status.IsTerminal() },
		func(_ context.Context, d *domain.Deposit) (struct{}, error) {
			d.Status = domain.DepositStatusRejected
			return struct{}{}, nil
		},
		func(d domain.Deposit, _ struct{}) bool { return d.Status == domain.DepositStatusRejected },
	)

	return result.Err
}

// itemURLSlice wraps a deposit's item URL as a single-element ExternalIDs
// slice, or nil when the target never returned one.
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
