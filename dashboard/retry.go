package dashboard

import (
	"log/slog"
	"sync"
	"time"
)

// RetryConfig bounds the automatic re-run of a failed orchestration cycle.
type RetryConfig struct {
	// MaxAttempts is the number of consecutive automatic retries before the
	// error is left for a manual refetch.
	MaxAttempts int

	// BackoffBase is the delay before the first retry; each further retry
	// doubles it.
	BackoffBase time.Duration
}

// DefaultRetryConfig returns the engine's retry defaults: three retries at
// 1s, 2s, 4s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BackoffBase: time.Second,
	}
}

// retryScheduler re-invokes a failed cycle with exponential backoff. The
// attempt counter resets on any successful cycle and on manual refetch; after
// MaxAttempts consecutive failures no further retry is armed and the surfaced
// error stays until the user retries.
type retryScheduler struct {
	cfg    RetryConfig
	rerun  func()
	logger *slog.Logger

	mu      sync.Mutex
	attempt int
	timer   *time.Timer
}

func newRetryScheduler(cfg RetryConfig, rerun func(), logger *slog.Logger) *retryScheduler {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultRetryConfig().MaxAttempts
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = DefaultRetryConfig().BackoffBase
	}
	return &retryScheduler{cfg: cfg, rerun: rerun, logger: logger}
}

// onFailure arms the next retry if attempts remain. It returns the attempt
// count now surfaced to the view.
func (r *retryScheduler) onFailure(err error) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.attempt >= r.cfg.MaxAttempts {
		r.logger.Warn("Retry budget exhausted, waiting for manual refetch",
			"attempts", r.attempt,
			"error", err)
		return r.attempt
	}

	delay := r.cfg.BackoffBase << r.attempt
	r.attempt++
	r.logger.Warn("Cycle failed, retry scheduled",
		"attempt", r.attempt,
		"max_attempts", r.cfg.MaxAttempts,
		"backoff", delay,
		"error", err)

	r.stopTimerLocked()
	r.timer = time.AfterFunc(delay, r.rerun)
	return r.attempt
}

// onSuccess resets the consecutive-failure count.
func (r *retryScheduler) onSuccess() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempt = 0
}

// reset clears the counter and any armed timer, used by manual refetch.
func (r *retryScheduler) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempt = 0
	r.stopTimerLocked()
}

// stop cancels any pending retry without touching the counter.
func (r *retryScheduler) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopTimerLocked()
}

func (r *retryScheduler) attempts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempt
}

func (r *retryScheduler) stopTimerLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}
