package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eclipse-pass/deposit-orchestrator/internal/app"
	"github.com/eclipse-pass/deposit-orchestrator/internal/mlog"
)

// intakeMessage is the body published to the submission trigger queue:
// just enough to look up the full Submission from the metadata store.
type intakeMessage struct {
	SubmissionID string `json:"submissionId"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := a.Logger
	ctx = mlog.ContextWithLogger(ctx, log)

	if err := a.Start(ctx); err != nil {
		log.Fatalf("depositd: starting: %v", err)
	}

	go a.DepositUpdater.Run(ctx)
	go a.SubmissionUpdater.Run(ctx)

	if a.Bus != nil {
		go func() {
			if err := a.Bus.Consume(ctx, a.Config.RabbitMQQueue, handleIntake(a)); err != nil && ctx.Err() == nil {
				log.Errorf("depositd: intake consumer exited: %v", err)
			}
		}()
	} else {
		log.Warn("depositd: no RABBITMQ_URL configured, intake consumer not started")
	}

	log.Info("depositd: running")
	<-ctx.Done()

	log.Info("depositd: shutting down")
	a.Pool.Shutdown(30 * time.Second)
	a.Close()
}

func handleIntake(a *app.App) func(ctx context.Context, body []byte) error {
	return func(ctx context.Context, body []byte) error {
		var msg intakeMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			return fmt.Errorf("depositd: decoding intake message: %w", err)
		}

		if msg.SubmissionID == "" {
			return fmt.Errorf("depositd: intake message missing submissionId")
		}

		if a.Guard != nil {
			claimed, err := a.Guard.Claim(ctx, msg.SubmissionID)
			if err != nil {
				return fmt.Errorf("depositd: claiming submission %s: %w", msg.SubmissionID, err)
			}
			if !claimed {
				a.Logger.Infof("depositd: submission %s already claimed, skipping redelivery", msg.SubmissionID)
				return nil
			}
		}

		return a.Processor.Process(ctx, msg.SubmissionID)
	}
}
