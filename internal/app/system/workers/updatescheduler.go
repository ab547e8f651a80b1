// internal/app/system/workers/updatescheduler.go
package workers

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dalemusser/orgchart/internal/app/store/reportcache"
	"github.com/dalemusser/orgchart/internal/app/system/refresh"
	"github.com/dalemusser/orgchart/internal/app/system/timeouts"
)

// DefaultUpdateTime is used when the saved update time cannot be parsed.
const DefaultUpdateTime = "20:00"

// defaultPollInterval is how often the scheduler checks whether the daily
// run is due. Coarse on purpose; the run time has minute resolution.
const defaultPollInterval = 30 * time.Second

// RunFunc triggers one data refresh attributed to source.
type RunFunc func(ctx context.Context, source string) error

// UpdateScheduler is a background worker that fires the daily data refresh
// at the admin-configured time (UTC) and optionally runs one refresh at
// startup when the cache is empty.
type UpdateScheduler struct {
	run      RunFunc
	settings refresh.SettingsSource
	cache    reportcache.Store
	log      *zap.Logger
	interval time.Duration

	// initialMode controls the startup refresh: "true" always runs it,
	// "auto" runs it only when no cached hierarchy exists, anything else
	// skips it.
	initialMode string

	now func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewUpdateScheduler creates the scheduler worker.
func NewUpdateScheduler(run RunFunc, settings refresh.SettingsSource, cache reportcache.Store, logger *zap.Logger, initialMode string) *UpdateScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UpdateScheduler{
		run:         run,
		settings:    settings,
		cache:       cache,
		log:         logger,
		interval:    defaultPollInterval,
		initialMode: strings.ToLower(strings.TrimSpace(initialMode)),
		now:         time.Now,
	}
}

// Start begins the scheduling loop. Calling Start while running is a no-op.
func (w *UpdateScheduler) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.wg.Add(1)
	go w.loop(w.stopCh)
	w.log.Info("update scheduler started", zap.Duration("poll_interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *UpdateScheduler) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	w.wg.Wait()
	w.log.Info("update scheduler stopped")
}

// Restart reloads the schedule; called after the admin changes the update
// time or toggles automatic updates.
func (w *UpdateScheduler) Restart() {
	w.Stop()
	w.Start()
}

// Running reports whether the scheduling loop is active.
func (w *UpdateScheduler) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *UpdateScheduler) loop(stopCh chan struct{}) {
	defer w.wg.Done()

	w.maybeRunInitial()

	nextRun := w.scheduleNext()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if nextRun == nil || w.now().UTC().Before(*nextRun) {
				continue
			}
			w.log.Info("executing scheduled data update")
			ctx, cancel := context.WithTimeout(context.Background(), timeouts.Refresh())
			if err := w.run(ctx, "scheduled"); err != nil {
				w.log.Error("scheduled data update failed", zap.Error(err))
			}
			cancel()
			nextRun = w.scheduleNext()
		}
	}
}

// maybeRunInitial applies the startup refresh policy.
func (w *UpdateScheduler) maybeRunInitial() {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Refresh())
	defer cancel()

	switch w.initialMode {
	case "true":
		w.log.Info("running initial data update on startup")
		if err := w.run(ctx, "startup"); err != nil {
			w.log.Error("initial data update failed", zap.Error(err))
		}
	case "", "auto":
		_, found, err := w.cache.Get(ctx, reportcache.KeyHierarchy)
		if err != nil {
			w.log.Warn("could not check cached hierarchy", zap.Error(err))
			return
		}
		if found {
			w.log.Info("cached data exists, skipping initial update")
			return
		}
		w.log.Info("no cached data found, running initial data update")
		if err := w.run(ctx, "startup-no-cache"); err != nil {
			w.log.Error("initial data update failed", zap.Error(err))
		}
	default:
		w.log.Info("initial update skipped", zap.String("mode", w.initialMode))
	}
}

// scheduleNext reloads settings and computes the next daily run, or nil when
// automatic updates are disabled.
func (w *UpdateScheduler) scheduleNext() *time.Time {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Short())
	defer cancel()

	settings, err := w.settings.Get(ctx)
	if err != nil {
		w.log.Error("could not load settings for scheduling", zap.Error(err))
		fallback := NextRunAfter(w.now(), DefaultUpdateTime)
		return &fallback
	}
	if !settings.AutoUpdateEnabled {
		w.log.Info("automatic updates are disabled, skipping daily schedule")
		return nil
	}

	next := NextRunAfter(w.now(), settings.UpdateTime)
	w.log.Info("scheduled daily update",
		zap.String("update_time", settings.UpdateTime),
		zap.Time("next_run", next))
	return &next
}

// ParseUpdateTime parses an "HH:MM" update time, clamping out-of-range
// components and falling back to DefaultUpdateTime on malformed input.
func ParseUpdateTime(value string) (hour, minute int) {
	text := strings.TrimSpace(value)
	if text == "" {
		text = DefaultUpdateTime
	}
	parts := strings.SplitN(text, ":", 2)
	if len(parts) != 2 {
		return 20, 0
	}
	h, errH := strconv.Atoi(strings.TrimSpace(parts[0]))
	m, errM := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errH != nil || errM != nil {
		return 20, 0
	}
	return clamp(h, 0, 23), clamp(m, 0, 59)
}

// NextRunAfter returns the next UTC moment at the configured daily time
// strictly after now.
func NextRunAfter(now time.Time, updateTime string) time.Time {
	hour, minute := ParseUpdateTime(updateTime)
	utcNow := now.UTC()
	candidate := time.Date(utcNow.Year(), utcNow.Month(), utcNow.Day(), hour, minute, 0, 0, time.UTC)
	if !candidate.After(utcNow) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
