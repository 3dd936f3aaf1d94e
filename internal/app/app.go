// Package app wires every component the daemon and the control CLI share:
// configuration, logging, the metadata store client, the repository
// registry, the packaging and worker-pool machinery, the two
// reconciliation loops, and the message bus and idempotency guard used at
// the intake boundary. Both entrypoints build one App and drive it
// differently; the wiring itself lives here exactly once.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/eclipse-pass/deposit-orchestrator/internal/bus/amqpbus"
	"github.com/eclipse-pass/deposit-orchestrator/internal/builder"
	"github.com/eclipse-pass/deposit-orchestrator/internal/config"
	"github.com/eclipse-pass/deposit-orchestrator/internal/deposittask"
	"github.com/eclipse-pass/deposit-orchestrator/internal/depositupdater"
	"github.com/eclipse-pass/deposit-orchestrator/internal/idempotency"
	"github.com/eclipse-pass/deposit-orchestrator/internal/mlog"
	"github.com/eclipse-pass/deposit-orchestrator/internal/packager"
	"github.com/eclipse-pass/deposit-orchestrator/internal/registry"
	"github.com/eclipse-pass/deposit-orchestrator/internal/resolver"
	"github.com/eclipse-pass/deposit-orchestrator/internal/store"
	"github.com/eclipse-pass/deposit-orchestrator/internal/store/httpstore"
	"github.com/eclipse-pass/deposit-orchestrator/internal/submission"
	"github.com/eclipse-pass/deposit-orchestrator/internal/submissionupdater"
	"github.com/eclipse-pass/deposit-orchestrator/internal/transport/assembler"
	"github.com/eclipse-pass/deposit-orchestrator/internal/workerpool"
)

// idempotencyClaimTTL bounds how long a claimed submission id blocks a
// redelivery before it is eligible to be processed again. Long enough to
// outlast any redelivery the message bus would attempt on its own.
const idempotencyClaimTTL = 24 * time.Hour

// App bundles every long-lived collaborator the core needs, built once
// from Config and shared between the daemon and CLI entrypoints.
type App struct {
	Config *config.Config
	Logger mlog.Logger

	Store    store.MetadataStore
	Registry *registry.Registry

	Packagers   *packager.Resolver
	Pool        *workerpool.Pool
	DepositTask *deposittask.Executor
	Processor   *submission.Processor

	DepositUpdater    *depositupdater.Updater
	SubmissionUpdater *submissionupdater.Updater

	Bus   *amqpbus.Conn
	Guard *idempotency.Guard
}

// New loads configuration and constructs every collaborator it names. The
// returned App has not yet connected to Redis or RabbitMQ or started its
// worker pool; call Start for that.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	logger := mlog.New(cfg.LogDebug)

	reg, err := registry.LoadDocument(cfg.RepositoryConfigDocument)
	if err != nil {
		return nil, fmt.Errorf("app: loading repository registry: %w", err)
	}

	metadataStore := httpstore.New(cfg.MetadataStoreBaseURL, cfg.MetadataStoreUser, cfg.MetadataStorePassword)

	packagers := packager.New(reg, assembler.New())
	statusResolver := resolver.New()

	depositTask := deposittask.New(metadataStore, statusResolver)

	pool := workerpool.New(
		workerpool.Config{Workers: cfg.WorkerConcurrency, QueueFactor: cfg.WorkerQueueFactor},
		func(depositID string) {
			ctx := mlog.ContextWithLogger(context.Background(), logger)
			if err := depositTask.MarkFailed(ctx, depositID, fmt.Errorf("app: worker pool queue full")); err != nil {
				logger.Errorf("app: marking deposit %s failed after pool rejection: %v", depositID, err)
			}
		},
	)

	processor := submission.New(metadataStore, builder.FromSubmissionFiles{}, packagers, depositTask, pool)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Store:    metadataStore,
		Registry: reg,

		Packagers:   packagers,
		Pool:        pool,
		DepositTask: depositTask,
		Processor:   processor,

		DepositUpdater:    depositupdater.New(metadataStore, reg, statusResolver, cfg.DepositUpdaterInterval),
		SubmissionUpdater: submissionupdater.New(metadataStore, cfg.SubmissionUpdaterInterval),
	}, nil
}

// Start launches the worker pool and connects the message bus and
// idempotency guard. ctx governs the worker pool's lifetime; the bus and
// guard connections are dialed once and outlive ctx until Close.
func (a *App) Start(ctx context.Context) error {
	a.Pool.Start(ctx)

	if a.Config.RedisURL != "" {
		guard, err := idempotency.Connect(ctx, a.Config.RedisURL, idempotencyClaimTTL)
		if err != nil {
			return fmt.Errorf("app: connecting idempotency guard: %w", err)
		}
		a.Guard = guard
	}

	if a.Config.RabbitMQURL != "" {
		bus, err := amqpbus.Connect(a.Config.RabbitMQURL)
		if err != nil {
			return fmt.Errorf("app: connecting message bus: %w", err)
		}
		a.Bus = bus
	}

	return nil
}

// Close releases the bus and guard connections. The worker pool is drained
// separately via Pool.Shutdown, since the caller controls its grace period.
func (a *App) Close() {
	if a.Bus != nil {
		if err := a.Bus.Close(); err != nil {
			a.Logger.Warnf("app: closing message bus: %v", err)
		}
	}

	if a.Guard != nil {
		if err := a.Guard.Close(); err != nil {
			a.Logger.Warnf("app: closing idempotency guard: %v", err)
		}
	}
}
