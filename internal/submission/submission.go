// Package submission implements the critical
// interaction that transitions a freshly-submitted Submission into
// IN_PROGRESS, builds its packaging projection, and fans out one
// DepositTask per eligible target repository onto the worker pool.
package submission

import (
	"context"
	"errors"
	"fmt"

	"github.com/eclipse-pass/deposit-orchestrator/internal/builder"
	"github.com/eclipse-pass/deposit-orchestrator/internal/critical"
	"github.com/eclipse-pass/deposit-orchestrator/internal/deposittask"
	"github.com/eclipse-pass/deposit-orchestrator/internal/domain"
	"github.com/eclipse-pass/deposit-orchestrator/internal/errs"
	"github.com/eclipse-pass/deposit-orchestrator/internal/mlog"
	"github.com/eclipse-pass/deposit-orchestrator/internal/packager"
	"github.com/eclipse-pass/deposit-orchestrator/internal/store"
	"github.com/eclipse-pass/deposit-orchestrator/internal/workerpool"
)

// Processor runs SubmissionProcessor for one submission at a time. A
// single Processor is shared by every consumer goroutine draining the
// submission intake queue.
type Processor struct {
	Store       store.MetadataStore
	Builder     builder.Builder
	Packagers   *packager.Resolver
	DepositTask *deposittask.Executor
	Pool        *workerpool.Pool
}

// New builds a Processor.
func New(st store.MetadataStore, b builder.Builder, pr *packager.Resolver, dt *deposittask.Executor, pool *workerpool.Pool) *Processor {
	return &Processor{Store: st, Builder: b, Packagers: pr, DepositTask: dt, Pool: pool}
}

// Process runs the critical update that claims submissionID for
// processing, then creates and enqueues a Deposit for every non-WEB_LINK
// target repository named on the submission.
func (p *Processor) Process(ctx context.Context, submissionID string) error {
	log := mlog.FromContext(ctx)

	result := critical.Perform(ctx, submissionID,
		critical.Interaction[domain.Submission, domain.DepositSubmission]{
			Read:       p.Store.ReadSubmission,
			Write:      p.Store.UpdateSubmission,
			IsConflict: func(err error) bool { return errors.Is(err, store.ErrConflict) },
		},
		func(sub domain.Submission) bool {
			return sub.Submitted && sub.AggregatedStatus == domain.SubmissionStatusNotStarted
		},
		func(ctx context.Context, sub *domain.Submission) (domain.DepositSubmission, error) {
			ds, err := p.Builder.Build(ctx, *sub)
			if err != nil {
				return domain.DepositSubmission{}, fmt.Errorf("submission: building package projection for %s: %w", sub.ID, err)
			}

			sub.AggregatedStatus = domain.SubmissionStatusInProgress

			return ds, nil
		},
		func(sub domain.Submission, ds domain.DepositSubmission) bool {
			return ds.Validate() == nil && sub.AggregatedStatus == domain.SubmissionStatusInProgress
		},
	)
	if result.Err != nil {
		var pfe errs.PreconditionFailedError
		if errors.As(result.Err, &pfe) && pfe.Reason == "postcheck returned false" {
			if failErr := p.failSubmission(ctx, submissionID); failErr != nil {
				log.Errorf("submission: marking submission %s failed after postcheck failure: %v", submissionID, failErr)
			}
		}

		return result.Err
	}

	sub := result.Resource
	ds := result.Out

	for _, repositoryID := range sub.RepositoryIDs {
		if err := p.fanOutTo(ctx, sub, ds, repositoryID); err != nil {
			log.Errorf("submission: fanning out submission %s to repository %s: %v", sub.ID, repositoryID, err)
		}
	}

	return nil
}

func (p *Processor) fanOutTo(ctx context.Context, sub domain.Submission, ds domain.DepositSubmission, repositoryID string) error {
	repo, err := p.Store.ReadRepository(ctx, repositoryID)
	if err != nil {
		return fmt.Errorf("reading repository %s: %w", repositoryID, err)
	}

	if repo.IntegrationType == domain.IntegrationTypeWebLink {
		return nil
	}

	pkg, err := p.Packagers.Resolve(ctx, repo.ID, repo.RepositoryKey)
	if err != nil {
		return fmt.Errorf("resolving packager for repository %s: %w", repositoryID, err)
	}

	deposit, err := p.Store.CreateDeposit(ctx, domain.Deposit{
		SubmissionID: sub.ID,
		RepositoryID: repo.ID,
		Status:       domain.DepositStatusDirty,
	})
	if err != nil {
		return fmt.Errorf("creating deposit for repository %s: %w", repositoryID, err)
	}

	submitted := p.Pool.Submit(workerpool.Task{
		DepositID: deposit.ID,
		Run: func(ctx context.Context) {
			if err := p.DepositTask.Run(ctx, deposit.ID, ds, pkg); err != nil {
				mlog.FromContext(ctx).Warnf("submission: deposit %s finished with error: %v", deposit.ID, err)
			}
		},
	})
	if !submitted {
		// The pool's own RejectionHandler (wired in internal/app to
		// DepositTask.MarkFailed) has already marked this deposit failed;
		// this return is only to get the rejection logged by the caller.
		return fmt.Errorf("submission: worker pool rejected deposit %s: queue full", deposit.ID)
	}

	return nil
}

// failSubmission marks submissionID FAILED. Called when the intake
// interaction's postcheck fails after its mutate has already written
// IN_PROGRESS: the submission would otherwise be stuck there forever,
// since no deposits exist yet for submissionupdater to recompute from.
func (p *Processor) failSubmission(ctx context.Context, submissionID string) error {
	result := critical.Perform(ctx, submissionID,
		critical.Interaction[domain.Submission, struct{}]{
			Read:       p.Store.ReadSubmission,
			Write:      p.Store.UpdateSubmission,
			IsConflict: func(err error) bool { return errors.Is(err, store.ErrConflict) },
		},
		func(sub domain.Submission) bool {
			return sub.AggregatedStatus == domain.SubmissionStatusInProgress
		},
		func(_ context.Context, sub *domain.Submission) (struct{}, error) {
			sub.AggregatedStatus = domain.SubmissionStatusFailed
			return struct{}{}, nil
		},
		func(sub domain.Submission, _ struct{}) bool {
			return sub.AggregatedStatus == domain.SubmissionStatusFailed
		},
	)

	return result.Err
}
