// Package submissionupdater implements a
// periodic pass that recomputes every open submission's aggregated status
// from its child deposits, so a submission settles even if the deposit
// that last changed its status never triggered an aggregate recompute
// directly.
package submissionupdater

import (
	"context"
	"errors"
	"time"

	"github.com/eclipse-pass/deposit-orchestrator/internal/critical"
	"github.com/eclipse-pass/deposit-orchestrator/internal/domain"
	"github.com/eclipse-pass/deposit-orchestrator/internal/mlog"
	"github.com/eclipse-pass/deposit-orchestrator/internal/store"
)

var terminalSubmissionStatuses = []domain.SubmissionStatus{
	domain.SubmissionStatusComplete,
	domain.SubmissionStatusCancelled,
}

// Updater runs the aggregate-recompute pass on a fixed interval until its
// context is cancelled.
type Updater struct {
	Store    store.MetadataStore
	Interval time.Duration
}

// New builds an Updater.
func New(st store.MetadataStore, interval time.Duration) *Updater {
	return &Updater{Store: st, Interval: interval}
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
				log.Errorf("submissionupdater: tick failed: %v", err)
			}
		}
	}
}

// Tick recomputes the aggregated status of every submitted, non-terminal
// submission.
func (u *Updater) Tick(ctx context.Context) error {
	log := mlog.FromContext(ctx)

	ids, err := u.Store.FindSubmissionsNotIn(ctx, terminalSubmissionStatuses)
	if err != nil {
		return err
	}

	for _, id := range ids {
		if err := u.reconcile(ctx, id); err != nil {
			log.Warnf("submissionupdater: submission %s not updated this pass: %v", id, err)
		}
	}

	return nil
}

func (u *Updater) reconcile(ctx context.Context, submissionID string) error {
	depositIDs, err := u.Store.FindDepositsBySubmission(ctx, submissionID)
	if err != nil {
		return err
	}

	statuses := make([]domain.DepositStatus, 0, len(depositIDs))
	for _, depositID := range depositIDs {
		d, err := u.Store.ReadDeposit(ctx, depositID)
		if err != nil {
			return err
		}

		statuses = append(statuses, d.Status)
	}

	aggregated := domain.ComputeAggregate(statuses)

	result := critical.Perform(ctx, submissionID,
		critical.Interaction[domain.Submission, struct{}]{
			Read:       u.Store.ReadSubmission,
			Write:      u.Store.UpdateSubmission,
			IsConflict: func(err error) bool { return errors.Is(err, store.ErrConflict) },
		},
		func(sub domain.Submission) bool { return sub.Submitted && !sub.AggregatedStatus.IsTerminal() },
		func(_ context.Context, sub *domain.Submission) (struct{}, error) {
			sub.AggregatedStatus = aggregated
			return struct{}{}, nil
		},
		func(sub domain.Submission, _ struct{}) bool { return sub.AggregatedStatus == aggregated },
	)

	return result.Err
}
