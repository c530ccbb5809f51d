package originsource

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/vicompany/hardened-web/internal/log"
)

const (
	DefaultPollInterval = time.Minute

	maxBackoff = 5 * time.Minute
)

// WatcherOptions configures a Watcher. Fetcher and Source are required.
type WatcherOptions struct {
	Logger       log.Logger
	Fetcher      Fetcher
	Source       *Source
	PollInterval time.Duration

	// StaleThreshold is how long fetches may fail before the watcher
	// reports the origin as stale. Zero means 30 minutes.
	StaleThreshold time.Duration

	// OnSwap runs on the poll goroutine after the origin changes.
	OnSwap func(old, new string)
	// OnStale runs on transitions into and out of the stale state.
	OnStale func(stale bool)
}

// Watcher polls a Fetcher and swaps changed values into a Source. On fetch
// errors the last good origin stays in effect and polling backs off.
type Watcher struct {
	fetcher        Fetcher
	source         *Source
	logger         log.Logger
	interval       time.Duration
	staleThreshold time.Duration
	onSwap         func(old, new string)
	onStale        func(stale bool)

	consecutiveErrs int
	lastSuccessAt   time.Time
	stale           bool
}

func NewWatcher(opts WatcherOptions) *Watcher {
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.StaleThreshold <= 0 {
		opts.StaleThreshold = 30 * time.Minute
	}
	return &Watcher{
		fetcher:        opts.Fetcher,
		source:         opts.Source,
		logger:         opts.Logger,
		interval:       opts.PollInterval,
		staleThreshold: opts.StaleThreshold,
		onSwap:         opts.OnSwap,
		onStale:        opts.OnStale,
		lastSuccessAt:  time.Now(),
	}
}

// Run polls until ctx is done. Launch as: go w.Run(ctx)
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info(ctx, "origin watcher starting", "poll_interval", w.interval.String())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "origin watcher stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if err := w.checkOnce(ctx); err != nil {
				w.consecutiveErrs++
				backoff := w.backoffDuration()
				w.logger.Warn(ctx, "origin watcher: backing off",
					"consecutive_errors", w.consecutiveErrs,
					"next_poll_in", backoff.String(),
				)
				ticker.Reset(backoff)
			} else if w.consecutiveErrs > 0 {
				w.logger.Info(ctx, "origin watcher: recovered", "had_consecutive_errors", w.consecutiveErrs)
				w.consecutiveErrs = 0
				ticker.Reset(w.interval)
			}
		}
	}
}

// checkOnce fetches once, swaps on change and tracks staleness.
func (w *Watcher) checkOnce(ctx context.Context) error {
	origin, err := w.fetcher.FetchOrigin(ctx)
	if err != nil {
		w.logger.Error(ctx, err, "origin watcher: fetch failed")
		if !w.stale && time.Since(w.lastSuccessAt) > w.staleThreshold {
			w.setStale(ctx, true)
		}
		return err
	}
	w.lastSuccessAt = time.Now()
	if w.stale {
		w.setStale(ctx, false)
	}

	old := w.source.Current()
	if w.source.swap(origin) {
		w.logger.Info(ctx, "origin watcher: allowed origin changed", "old", old, "new", origin)
		if w.onSwap != nil {
			w.onSwap(old, origin)
		}
	}
	return nil
}

func (w *Watcher) setStale(ctx context.Context, stale bool) {
	w.stale = stale
	if stale {
		w.logger.Error(ctx, fmt.Errorf("last successful origin fetch was %s ago", time.Since(w.lastSuccessAt).Truncate(time.Second)),
			"origin watcher: serving last known origin")
	} else {
		w.logger.Info(ctx, "origin watcher: staleness recovered")
	}
	if w.onStale != nil {
		w.onStale(stale)
	}
}

// backoffDuration doubles the interval per consecutive error, capped.
func (w *Watcher) backoffDuration() time.Duration {
	d := time.Duration(float64(w.interval) * math.Pow(2, float64(w.consecutiveErrs)))
	if d > maxBackoff || d <= 0 {
		d = maxBackoff
	}
	return d
}
