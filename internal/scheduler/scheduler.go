// Package scheduler triggers workflows on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"jobtracker/internal/shared/telemetry"
	"jobtracker/internal/webhooks"
)

// Trigger starts a workflow.
type Trigger interface {
	Trigger(ctx context.Context, workflow string, payload any) error
}

// Schedule binds a workflow to a standard cron spec or descriptor such as @hourly.
type Schedule struct {
	Workflow string
	Spec     string
}

// ParseSchedules reads "Workflow=spec;Workflow=spec". Blank entries are ignored.
func ParseSchedules(raw string) ([]Schedule, error) {
	var out []Schedule
	seen := map[string]bool{}
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, spec, ok := strings.Cut(part, "=")
		name, spec = strings.TrimSpace(name), strings.TrimSpace(spec)
		if !ok || name == "" || spec == "" {
			return nil, fmt.Errorf("schedule %q must look like Workflow=spec", part)
		}
		if !webhooks.Known(name) {
			return nil, fmt.Errorf("schedule %q: unknown workflow %q", part, name)
		}
		if seen[name] {
			return nil, fmt.Errorf("workflow %q is scheduled twice", name)
		}
		if _, err := cron.ParseStandard(spec); err != nil {
			return nil, fmt.Errorf("schedule %q: %w", part, err)
		}
		seen[name] = true
		out = append(out, Schedule{Workflow: name, Spec: spec})
	}
	return out, nil
}

// Scheduler runs workflow triggers on their schedules.
type Scheduler struct {
	cron    *cron.Cron
	trigger Trigger
	log     *telemetry.Logger

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// New constructs a Scheduler. Nothing runs until Start.
func New(trigger Trigger, log *telemetry.Logger) *Scheduler {
	if log == nil {
		log = telemetry.Default()
	}
	return &Scheduler{
		cron:    cron.New(),
		trigger: trigger,
		log:     log,
		entries: make(map[string]cron.EntryID),
	}
}

// Add registers s, replacing any earlier schedule for the same workflow.
func (s *Scheduler) Add(sc Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.entries[sc.Workflow]; ok {
		s.cron.Remove(id)
	}
	id, err := s.cron.AddFunc(sc.Spec, func() { s.Run(context.Background(), sc.Workflow) })
	if err != nil {
		s.log.Error("scheduler.add_failed", map[string]any{"workflow": sc.Workflow, "spec": sc.Spec, "error": err.Error()})
		return err
	}
	s.entries[sc.Workflow] = id
	s.log.Info("scheduler.added", map[string]any{"workflow": sc.Workflow, "spec": sc.Spec})
	return nil
}

// Workflows returns the scheduled workflow names in order.
func (s *Scheduler) Workflows() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for name := range s.entries {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Run triggers workflow once.
func (s *Scheduler) Run(ctx context.Context, workflow string) {
	payload := map[string]any{
		"trigger":      "schedule",
		"workflow":     workflow,
		"scheduled_at": time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.trigger.Trigger(ctx, workflow, payload); err != nil {
		s.log.Error("scheduler.trigger_failed", map[string]any{"workflow": workflow, "error": err.Error()})
		return
	}
	s.log.Info("scheduler.triggered", map[string]any{"workflow": workflow})
}

// Start runs the cron loop until ctx is done, then waits for running triggers.
func (s *Scheduler) Start(ctx context.Context) error {
	s.log.Info("scheduler.started", map[string]any{"workflows": s.Workflows()})
	s.cron.Start()
	<-ctx.Done()
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.log.Info("scheduler.stopped", nil)
	return ctx.Err()
}
