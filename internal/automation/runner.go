// Package automation runs the scheduled notification engine. A Runner
// wakes on an interval, loads the per-kind settings, snapshots the
// eligible recipients for every enabled kind and dispatches one email
// per recipient, deduplicated against the automation log. Failures are
// isolated per kind and per recipient: one bad recipient never stops
// the rest of a tick.
package automation

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	autoctrl "github.com/sparkcoach/sparkcoach/internal/db/controller/automation"
	"github.com/sparkcoach/sparkcoach/internal/db/models"
	"github.com/sparkcoach/sparkcoach/internal/mailer"
)

// ErrTickInProgress is returned when a tick is requested while another
// one is still running.
var ErrTickInProgress = errors.New("automation tick already in progress")

// Clock abstracts time for the runner so tests can drive eligibility
// windows without sleeping.
type Clock interface {
	Now() time.Time
}

// SystemClock is the Clock used outside of tests.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// KindReport holds the outcome counts for one automation kind in one tick.
type KindReport struct {
	Sent    int    `json:"sent"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
	Error   string `json:"error,omitempty"`
}

// TickReport summarises one full tick.
type TickReport struct {
	StartedAt time.Time              `json:"started_at"`
	Kinds     map[string]*KindReport `json:"kinds"`
}

// Runner drives the automation loop.
type Runner struct {
	db         *gorm.DB
	dispatcher mailer.Dispatcher
	clock      Clock

	interval     time.Duration
	initialDelay time.Duration
	tickTimeout  time.Duration
	portalURL    string

	ticking  atomic.Bool
	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// Option adjusts a Runner at construction time.
type Option func(*Runner)

// WithClock replaces the runner's time source.
func WithClock(c Clock) Option {
	return func(r *Runner) { r.clock = c }
}

// WithInterval sets the time between ticks.
func WithInterval(d time.Duration) Option {
	return func(r *Runner) { r.interval = d }
}

// WithInitialDelay sets the wait before the first tick after Start.
func WithInitialDelay(d time.Duration) Option {
	return func(r *Runner) { r.initialDelay = d }
}

// WithTickTimeout sets the ceiling for one tick.
func WithTickTimeout(d time.Duration) Option {
	return func(r *Runner) { r.tickTimeout = d }
}

// WithPortalURL sets the client portal link placed in reminder emails.
func WithPortalURL(u string) Option {
	return func(r *Runner) { r.portalURL = u }
}

// New builds a Runner with hourly ticks, a five second initial delay and
// a five minute tick timeout unless options say otherwise.
func New(db *gorm.DB, dispatcher mailer.Dispatcher, opts ...Option) *Runner {
	r := &Runner{
		db:           db,
		dispatcher:   dispatcher,
		clock:        SystemClock{},
		interval:     time.Hour,
		initialDelay: 5 * time.Second,
		tickTimeout:  5 * time.Minute,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Start launches the loop in the background. The first tick fires after
// the initial delay, then every interval.
func (r *Runner) Start() {
	if !r.started.CompareAndSwap(false, true) {
		return
	}

	log.Info().
		Dur("interval", r.interval).
		Dur("initial_delay", r.initialDelay).
		Msg("automation runner starting")

	go r.loop()
}

// Stop shuts the loop down and waits for an in-flight tick to finish.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })

	if r.started.Load() {
		<-r.done
	}

	log.Info().Msg("automation runner stopped")
}

func (r *Runner) loop() {
	defer close(r.done)

	delay := time.NewTimer(r.initialDelay)
	defer delay.Stop()

	select {
	case <-delay.C:
		r.runTick()
	case <-r.stop:
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.runTick()
		case <-r.stop:
			return
		}
	}
}

// runTick wraps Tick with the configured timeout and logs the outcome.
func (r *Runner) runTick() {
	ctx, cancel := context.WithTimeout(context.Background(), r.tickTimeout)
	defer cancel()

	report, err := r.Tick(ctx)
	if err != nil {
		if errors.Is(err, ErrTickInProgress) {
			log.Warn().Msg("skipping tick, previous one still running")
		} else {
			log.Error().Err(err).Msg("automation tick failed")
		}

		return
	}

	for kind, kr := range report.Kinds {
		log.Info().
			Str("kind", kind).
			Int("sent", kr.Sent).
			Int("skipped", kr.Skipped).
			Int("failed", kr.Failed).
			Msg("automation tick finished")
	}
}

// Tick executes one full automation pass and reports per-kind counts.
// Only one tick runs at a time; a concurrent call gets ErrTickInProgress.
// A settings load failure aborts the whole tick, any later failure is
// contained to its kind or recipient.
func (r *Runner) Tick(ctx context.Context) (*TickReport, error) {
	if !r.ticking.CompareAndSwap(false, true) {
		return nil, ErrTickInProgress
	}
	defer r.ticking.Store(false)

	now := r.clock.Now()
	ticksTotal.Inc()

	settings, err := autoctrl.GetAllSettings(r.db)
	if err != nil {
		return nil, errors.Wrap(err, "loading automation settings")
	}

	byKind := make(map[string]models.AutomationSetting, len(settings))
	for _, s := range settings {
		byKind[s.Kind] = s
	}

	report := &TickReport{StartedAt: now, Kinds: make(map[string]*KindReport, len(kinds))}

	for _, def := range kinds {
		kr := &KindReport{}
		report.Kinds[def.kind] = kr

		setting, ok := byKind[def.kind]
		if !ok || !setting.Enabled {
			continue
		}

		days := setting.CooldownDays
		if days <= 0 {
			days = autoctrl.DefaultCooldownDays
		}

		r.runKind(ctx, def, days, now, kr)
	}

	return report, nil
}

// runKind processes every eligible recipient of one kind. The kind's
// last run stamp is only advanced when the snapshot succeeded and the
// recipient loop ran to completion, so an aborted kind is retried in
// full on the next tick.
func (r *Runner) runKind(ctx context.Context, def definition, days int, now time.Time, kr *KindReport) {
	candidates, err := def.snapshot(r.db, r.portalURL, days, now)
	if err != nil {
		kr.Error = err.Error()
		log.Error().Err(err).Str("kind", def.kind).Msg("snapshot failed, kind skipped")

		return
	}

	for _, cand := range candidates {
		if ctx.Err() != nil {
			kr.Error = ctx.Err().Error()
			log.Warn().Str("kind", def.kind).Msg("tick deadline hit, kind left incomplete")

			return
		}

		blocked, err := autoctrl.WasRecentlyNotified(r.db, def.kind, cand.email, days, now)
		if err != nil {
			kr.Failed++
			dispatchTotal.WithLabelValues(def.kind, "failed").Inc()
			log.Error().Err(err).
				Str("kind", def.kind).
				Str("recipient", cand.email).
				Msg("cooldown lookup failed")

			continue
		}

		if blocked {
			kr.Skipped++
			dispatchTotal.WithLabelValues(def.kind, "skipped").Inc()

			continue
		}

		if err := r.dispatcher.Send(ctx, cand.message); err != nil {
			kr.Failed++
			dispatchTotal.WithLabelValues(def.kind, "failed").Inc()
			log.Error().Err(err).
				Str("kind", def.kind).
				Str("recipient", cand.email).
				Msg("dispatch failed")

			details, _ := json.Marshal(map[string]string{"error": err.Error()})
			if _, logErr := autoctrl.AppendLog(r.db, def.kind, cand.email, models.AutomationStatusFailed, details); logErr != nil {
				log.Error().Err(logErr).
					Str("kind", def.kind).
					Str("recipient", cand.email).
					Msg("failed to append automation log")
			}

			continue
		}

		kr.Sent++
		dispatchTotal.WithLabelValues(def.kind, "sent").Inc()

		// Without the sent row the next tick sees this recipient as
		// never notified and emails them again.
		if _, logErr := autoctrl.AppendLog(r.db, def.kind, cand.email, models.AutomationStatusSent, cand.details); logErr != nil {
			log.Error().Err(logErr).
				Str("kind", def.kind).
				Str("recipient", cand.email).
				Msg("sent but not recorded: duplicate send possible next tick")
		}
	}

	if err := autoctrl.UpdateLastRun(r.db, def.kind, now); err != nil {
		log.Error().Err(err).Str("kind", def.kind).Msg("failed to update last run stamp")
	}
}
