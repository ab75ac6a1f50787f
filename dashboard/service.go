package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brightpath/dashsync/cache"
	"github.com/brightpath/dashsync/fetch"
	"github.com/brightpath/dashsync/model"
	"github.com/brightpath/dashsync/storage"
)

// DefaultRefreshInterval is how often the background refresh fires while the
// host app is foregrounded.
const DefaultRefreshInterval = 5 * time.Minute

// Service owns the dashboard sync lifecycle for one subject at a time:
// Start begins a fetch flow, Refetch and UpdateData mutate it, SetForeground
// gates the background refresh, Dispose tears everything down.
type Service struct {
	kv       storage.KeyValue
	fetchers fetch.Set
	store    *Store
	metrics  *Metrics
	logger   *slog.Logger

	retryCfg        RetryConfig
	refreshInterval time.Duration
	ttlOverrides    map[model.EntityType]time.Duration
	now             func() time.Time

	foreground atomic.Bool

	mu          sync.Mutex
	sess        *session
	orch        *orchestrator
	retry       *retryScheduler
	subjectID   string
	segment     model.Segment
	lastRefresh bool
	disposed    bool

	tickerOnce sync.Once
	refreshCh  chan time.Duration
	done       chan struct{}
	wg         sync.WaitGroup
	stopOnce   sync.Once
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithRetryConfig sets the cycle retry policy.
func WithRetryConfig(cfg RetryConfig) ServiceOption {
	return func(s *Service) {
		s.retryCfg = cfg
	}
}

// WithRefreshInterval sets the foreground background-refresh period.
func WithRefreshInterval(d time.Duration) ServiceOption {
	return func(s *Service) {
		s.refreshInterval = d
	}
}

// WithTTLOverrides replaces default cache TTLs for the listed entity types.
func WithTTLOverrides(overrides map[model.EntityType]time.Duration) ServiceOption {
	return func(s *Service) {
		s.ttlOverrides = overrides
	}
}

// WithClock sets the time source, used by tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a sync service over the given persistent store and
// fetcher set. Nothing runs until Start.
func NewService(kv storage.KeyValue, fetchers fetch.Set, opts ...ServiceOption) *Service {
	s := &Service{
		kv:              kv,
		fetchers:        fetchers,
		store:           NewStore(),
		retryCfg:        DefaultRetryConfig(),
		refreshInterval: DefaultRefreshInterval,
		logger:          slog.Default(),
		now:             time.Now,
		refreshCh:       make(chan time.Duration, 1),
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	s.foreground.Store(true)
	s.retry = newRetryScheduler(s.retryCfg, s.retryRun, s.logger)
	return s
}

// View returns the current dashboard view.
func (s *Service) View() View { return s.store.View() }

// Subscribe registers for view updates; see Store.Subscribe.
func (s *Service) Subscribe(buffer int) (<-chan View, func()) {
	return s.store.Subscribe(buffer)
}

// Metrics returns the engine metrics collector.
func (s *Service) Metrics() *Metrics { return s.metrics }

// Start begins syncing the given subject. A change of subject or segment
// discards the previous snapshot; in every case the active session is
// superseded and a fresh cycle starts.
func (s *Service) Start(subjectID string, segment model.Segment) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return fmt.Errorf("service is disposed")
	}
	if subjectID == "" {
		s.mu.Unlock()
		return fmt.Errorf("subject ID is required")
	}

	if subjectID != s.subjectID || segment != s.segment {
		s.store.reset()
	}
	s.subjectID = subjectID
	s.segment = segment
	s.retry.reset()
	s.launchLocked(false)
	s.mu.Unlock()

	s.tickerOnce.Do(func() {
		s.wg.Add(1)
		go s.refreshLoop()
	})
	return nil
}

// Refetch manually triggers a new fetch cycle. Existing snapshot data stays;
// entities are replaced only as fresh data arrives. The retry counter resets.
func (s *Service) Refetch() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return fmt.Errorf("service is disposed")
	}
	if s.subjectID == "" {
		return fmt.Errorf("no subject started")
	}
	s.retry.reset()
	s.store.setRetryCount(0)
	s.launchLocked(true)
	return nil
}

// UpdateData applies an optimistic local update: the payload lands in the
// snapshot and the cache before this call returns, and no network call is
// made. In-flight sessions are unaffected; their later merges overwrite this
// value only on fetch success.
func (s *Service) UpdateData(t model.EntityType, payload model.Payload) error {
	if !t.Valid() {
		return fmt.Errorf("unknown entity type: %s", t)
	}
	if payload == nil || payload.EntityType() != t {
		return fmt.Errorf("payload does not match entity type %s", t)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return fmt.Errorf("service is disposed")
	}
	if s.orch == nil {
		return fmt.Errorf("no subject started")
	}

	s.store.applyLocal(payload)
	s.orch.writeThrough(context.Background(), payload)
	s.metrics.updatesDirect.Inc()
	return nil
}

// SetRefreshInterval adjusts the periodic refresh at runtime, used when the
// configuration file is hot-reloaded.
func (s *Service) SetRefreshInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case s.refreshCh <- d:
	default:
	}
}

// SetForeground tells the engine whether the host app is visible. The
// periodic refresh is a no-op while backgrounded.
func (s *Service) SetForeground(visible bool) {
	s.foreground.Store(visible)
}

// Dispose supersedes the active session, stops any pending retry and the
// refresh loop. The service cannot be restarted.
func (s *Service) Dispose() {
	s.mu.Lock()
	s.disposed = true
	if s.sess != nil {
		s.sess.cancel()
		s.store.nextGeneration()
		s.sess = nil
	}
	s.mu.Unlock()

	s.retry.stop()
	s.stopOnce.Do(func() { close(s.done) })
	s.wg.Wait()
}

// launchLocked supersedes any active session and starts a cycle goroutine.
// Callers hold s.mu.
func (s *Service) launchLocked(refresh bool) {
	if s.sess != nil {
		s.sess.cancel()
		s.metrics.superseded.Inc()
	}

	sess := newSession(context.Background(), s.store.nextGeneration(), s.store.generation, refresh)
	s.sess = sess
	s.lastRefresh = refresh
	s.orch = &orchestrator{
		subjectID: s.subjectID,
		order:     model.PriorityOrder(s.segment),
		fetchers:  s.fetchers,
		cache: cache.New(s.kv, s.subjectID,
			cache.WithLogger(s.logger),
			cache.WithClock(s.now),
			cache.WithTTLOverrides(s.ttlOverrides)),
		store:   s.store,
		logger:  s.logger,
		metrics: s.metrics,
		now:     s.now,
	}
	orch := s.orch

	// The in-flight flag must be observable the moment Start or Refetch
	// returns, so it is set here rather than inside the cycle goroutine.
	s.store.beginCycle(refresh)

	go s.runCycle(orch, sess)
}

// runCycle executes one orchestration run and feeds the outcome to the retry
// scheduler. Superseded sessions report nothing.
func (s *Service) runCycle(orch *orchestrator, sess *session) {
	err := orch.run(sess)
	if !sess.isCurrent() {
		return
	}
	if err == nil {
		s.retry.onSuccess()
		return
	}

	s.metrics.cycleOutcome("failure")
	before := s.retry.attempts()
	attempt := s.retry.onFailure(err)
	if attempt > before {
		s.metrics.retryTotal.Inc()
	}
	s.store.fail(err, attempt, sess.gen)
}

// retryRun is invoked by the retry scheduler's timer: re-run the cycle
// without resetting the attempt counter.
func (s *Service) retryRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed || s.subjectID == "" {
		return
	}
	s.launchLocked(s.lastRefresh)
}

// refreshLoop periodically refreshes the dashboard while foregrounded.
func (s *Service) refreshLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !s.foreground.Load() {
				continue
			}
			if err := s.Refetch(); err != nil {
				s.logger.Debug("Periodic refresh skipped", "error", err)
			}
		case d := <-s.refreshCh:
			ticker.Reset(d)
		case <-s.done:
			return
		}
	}
}
