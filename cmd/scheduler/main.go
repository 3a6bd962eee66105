package main

// Trigger workflows on the schedules in WORKFLOW_SCHEDULES:
//   WORKFLOW_SCHEDULES="LinkedIn=0 8 * * *;GoogleAlerts=@hourly" go run ./cmd/scheduler

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"jobtracker/internal/scheduler"
	"jobtracker/internal/shared/config"
	"jobtracker/internal/shared/telemetry"
	"jobtracker/internal/webhooks"
)

func main() {
	cfg := config.Load()

	logger := telemetry.NewFromSettings(telemetry.Settings{
		Service:      cfg.LogServiceName + "-scheduler",
		CollectorURL: cfg.LogCollectorURL,
		Shipping:     cfg.LogShipping,
	})
	telemetry.SetDefault(logger)
	defer logger.Close()

	schedules, err := scheduler.ParseSchedules(cfg.WorkflowSchedules)
	if err != nil {
		log.Fatalf("invalid WORKFLOW_SCHEDULES: %v", err)
	}
	if len(schedules) == 0 {
		log.Printf("WORKFLOW_SCHEDULES is empty; nothing to run")
		return
	}

	client := webhooks.New(cfg.Webhooks, webhooks.Options{
		Timeout:    cfg.WebhookTimeout,
		RatePerSec: cfg.WebhookRatePerSec,
	}, logger)
	defer client.Wait()

	s := scheduler.New(client, logger)
	for _, sc := range schedules {
		if !client.Configured(sc.Workflow) {
			log.Printf("workflow %s is scheduled but has no webhook url", sc.Workflow)
		}
		if err := s.Add(sc); err != nil {
			log.Fatalf("schedule %s: %v", sc.Workflow, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := s.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("scheduler: %v", err)
	}
}
