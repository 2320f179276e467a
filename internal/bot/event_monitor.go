package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/Raided-pro/EventManager/internal/events"
	"github.com/Raided-pro/EventManager/internal/ratelimit"
	"github.com/Raided-pro/EventManager/internal/storage"
	"github.com/robfig/cron/v3"
)

const (
	// DefaultCheckSchedule runs a pass one second past every minute
	DefaultCheckSchedule = "1 * * * * *"
	defaultTickTimeout   = 50 * time.Second
)

// EventPlatform is the scheduled event API the monitor and commands act on
type EventPlatform interface {
	ScheduledEvents(ctx context.Context, guildID string) ([]events.Event, error)
	ScheduledEvent(ctx context.Context, guildID, eventID string) (*events.Event, error)
	CreateEvent(ctx context.Context, guildID string, spec events.Spec) (*events.Event, error)
	EditDescription(ctx context.Context, guildID, eventID, description string) error
	StartEvent(ctx context.Context, guildID, eventID string) error
	SendMessage(ctx context.Context, channelID, content string) error
}

// MonitorConfig holds event monitor settings
type MonitorConfig struct {
	Schedule    string        // cron spec with a seconds field
	TickTimeout time.Duration // upper bound for a single pass
}

// TickReport summarises one reconciliation pass
type TickReport struct {
	Guilds      int
	Skipped     int
	Events      int
	Rescheduled int
	Started     int
	Failures    int
}

func (r *TickReport) add(o TickReport) {
	r.Guilds += o.Guilds
	r.Skipped += o.Skipped
	r.Events += o.Events
	r.Rescheduled += o.Rescheduled
	r.Started += o.Started
	r.Failures += o.Failures
}

// EventMonitor periodically reconciles the scheduled events of every managed
// guild: it clones recurring events shortly before they start, pings the
// configured mentions and starts events whose time has come.
type EventMonitor struct {
	platform EventPlatform
	guilds   storage.GuildRepository
	breaker  *ratelimit.Manager
	config   MonitorConfig
	now      func() time.Time

	// mu keeps manual syncs from overlapping a scheduled pass
	mu sync.Mutex
}

// NewEventMonitor creates a new event monitor
func NewEventMonitor(platform EventPlatform, guilds storage.GuildRepository, breaker *ratelimit.Manager, config MonitorConfig) *EventMonitor {
	if config.Schedule == "" {
		config.Schedule = DefaultCheckSchedule
	}
	if config.TickTimeout <= 0 {
		config.TickTimeout = defaultTickTimeout
	}
	return &EventMonitor{
		platform: platform,
		guilds:   guilds,
		breaker:  breaker,
		config:   config,
		now:      time.Now,
	}
}

// Start schedules passes and blocks until ctx is done. A pass in flight when
// ctx is canceled runs to completion before Start returns.
func (m *EventMonitor) Start(ctx context.Context) error {
	logger := cron.PrintfLogger(log.New(os.Stdout, "[EVENT-MONITOR] cron: ", log.LstdFlags))
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLogger(logger),
		cron.WithChain(cron.SkipIfStillRunning(logger), cron.Recover(logger)),
	)

	if _, err := c.AddFunc(m.config.Schedule, func() { m.RunOnce() }); err != nil {
		return fmt.Errorf("invalid check schedule %q: %w", m.config.Schedule, err)
	}

	log.Printf("[EVENT-MONITOR] Starting with schedule: %s", m.config.Schedule)
	c.Start()

	<-ctx.Done()
	log.Println("[EVENT-MONITOR] Stopping...")
	<-c.Stop().Done()
	log.Println("[EVENT-MONITOR] Stopped")
	return nil
}

// RunOnce runs a single pass over all managed guilds using the monitor clock.
// The pass gets its own timeout so a shutdown does not cut it short.
func (m *EventMonitor) RunOnce() TickReport {
	ctx, cancel := context.WithTimeout(context.Background(), m.config.TickTimeout)
	defer cancel()

	return m.Tick(ctx, m.now())
}

// Tick reconciles every managed guild as of now. Guilds are processed in
// sorted order and a failure in one never stops the others.
func (m *EventMonitor) Tick(ctx context.Context, now time.Time) TickReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	var report TickReport

	guilds, err := m.guilds.GetAllGuilds()
	if err != nil {
		log.Printf("[EVENT-MONITOR] ERROR: Failed to get guilds: %v", err)
		report.Failures++
		return report
	}

	for _, guildID := range guilds {
		if ctx.Err() != nil {
			log.Printf("[EVENT-MONITOR] Warning: pass interrupted: %v", ctx.Err())
			break
		}

		if allowed, err := m.breaker.Allow(guildID); !allowed {
			log.Printf("[EVENT-MONITOR] Skipping guild %s: %v", guildID, err)
			report.Skipped++
			continue
		}

		report.add(m.processGuild(ctx, guildID, now))
	}

	if report.Rescheduled > 0 || report.Started > 0 || report.Failures > 0 || report.Skipped > 0 {
		stats := m.breaker.GetStatistics()
		log.Printf("[EVENT-MONITOR] Pass complete: %d guilds, %d events, %d rescheduled, %d started, %d failures, %d skipped (paused guilds: %v)",
			report.Guilds, report.Events, report.Rescheduled, report.Started, report.Failures, report.Skipped, stats.OpenCircuits)
	}
	return report
}

// GuildPaused reports whether scheduled passes currently skip guildID after
// repeated failures to list its events
func (m *EventMonitor) GuildPaused(guildID string) bool {
	return m.breaker.IsCircuitOpen(guildID)
}

// SyncGuild runs a pass for a single guild right away, waiting for any
// scheduled pass to finish first.
func (m *EventMonitor) SyncGuild(ctx context.Context, guildID string) (TickReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	enabled, err := m.guilds.IsEnabled(guildID)
	if err != nil {
		return TickReport{}, err
	}
	if !enabled {
		return TickReport{}, storage.ErrNotEnabled
	}

	log.Printf("[EVENT-MONITOR] Manual sync triggered for guild %s", guildID)
	report := m.processGuild(ctx, guildID, m.now())
	return report, nil
}

// processGuild lists a guild's events and applies the plan of each one.
// Only a failed listing counts against the guild; event failures are logged
// and reported but never pause the guild's other events.
func (m *EventMonitor) processGuild(ctx context.Context, guildID string, now time.Time) TickReport {
	report := TickReport{Guilds: 1}

	list, err := m.platform.ScheduledEvents(ctx, guildID)
	if err != nil {
		log.Printf("[EVENT-MONITOR] ERROR: Failed to list events for guild %s: %v", guildID, err)
		report.Failures++
		if m.breaker.RecordFailure(guildID) {
			log.Printf("[EVENT-MONITOR] Warning: guild %s keeps failing, pausing it for %v",
				guildID, m.breaker.GetConfig().CircuitBreakerTimeout)
		}
		return report
	}
	m.breaker.RecordSuccess(guildID)

	for _, ev := range list {
		if !events.IsManaged(ev.Description) {
			continue
		}
		if ev.GuildID == "" {
			ev.GuildID = guildID
		}
		report.Events++

		outcome, err := m.processEvent(ctx, ev, now)
		report.Rescheduled += outcome.Rescheduled
		report.Started += outcome.Started
		if err != nil {
			log.Printf("[EVENT-MONITOR] ERROR: Event %s (%q) in guild %s: %v", ev.ID, ev.Name, guildID, err)
			report.Failures++
		}
	}

	return report
}

type eventOutcome struct {
	Rescheduled int
	Started     int
}

// processEvent applies both reconciliation rules to ev. The start rule runs
// even when rescheduling failed.
func (m *EventMonitor) processEvent(ctx context.Context, ev events.Event, now time.Time) (eventOutcome, error) {
	var outcome eventOutcome

	params := events.Decode(ev.Description)
	if len(params.Malformed) > 0 {
		log.Printf("[EVENT-MONITOR] Warning: event %s has malformed parameters %v, treating them as absent", ev.ID, params.Malformed)
	}

	plan := events.PlanFor(ev, params, now)
	if plan.RepeatErr != nil {
		log.Printf("[EVENT-MONITOR] Warning: event %s: %v", ev.ID, plan.RepeatErr)
	}
	if plan.Noop() {
		return outcome, nil
	}

	var errs []error

	if plan.Reschedule {
		if err := m.reschedule(ctx, ev, params, plan.NextStart); err != nil {
			errs = append(errs, err)
		} else {
			outcome.Rescheduled++
		}
	}

	if plan.Start {
		started, err := m.start(ctx, ev, params)
		if started {
			outcome.Started++
		}
		if err != nil {
			errs = append(errs, err)
		}
	}

	return outcome, errors.Join(errs...)
}

// reschedule creates the next occurrence and clears the repeat parameter of
// the current one so it is not cloned again
func (m *EventMonitor) reschedule(ctx context.Context, ev events.Event, params events.Params, next time.Time) error {
	created, err := m.platform.CreateEvent(ctx, ev.GuildID, events.NextOccurrenceSpec(ev, next))
	if err != nil {
		return fmt.Errorf("failed to create next occurrence: %w", err)
	}
	log.Printf("[EVENT-MONITOR] Scheduled next %s occurrence of %q for %s (event %s)",
		params.Repeat, ev.Name, next.Format(time.RFC3339), created.ID)

	desc, err := events.EncodeRepeat(params, "never")
	if err != nil {
		return err
	}
	if err := m.platform.EditDescription(ctx, ev.GuildID, ev.ID, desc); err != nil {
		return fmt.Errorf("created next occurrence but failed to clear repeat: %w", err)
	}
	return nil
}

// start pings the configured mentions and transitions the event to active.
// A failed notification does not keep the event from starting.
func (m *EventMonitor) start(ctx context.Context, ev events.Event, params events.Params) (bool, error) {
	var errs []error

	if len(params.Mentions) > 0 && params.Channel != "" {
		msg := events.StartingMessage(params.Mentions, ev.Name)
		if err := m.platform.SendMessage(ctx, params.Channel, msg); err != nil {
			errs = append(errs, fmt.Errorf("failed to send start notification to channel %s: %w", params.Channel, err))
		}
	}

	if err := m.platform.StartEvent(ctx, ev.GuildID, ev.ID); err != nil {
		errs = append(errs, fmt.Errorf("failed to start event: %w", err))
		return false, errors.Join(errs...)
	}
	log.Printf("[EVENT-MONITOR] Started event %s (%q) in guild %s", ev.ID, ev.Name, ev.GuildID)
	return true, errors.Join(errs...)
}
