package storage

import (
	"sync"
	"time"

	"github.com/gnoviawan/termul-sub001/internal/infrastructure/logging"
	"github.com/gnoviawan/termul-sub001/internal/infrastructure/monitoring"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DefaultDebounce is the delay between the last WriteDebounced call for a
// key and its disk write.
const DefaultDebounce = 500 * time.Millisecond

type pendingWrite struct {
	doc         any
	scheduledAt time.Time
	cancel      CancelFunc
}

// Coalescer merges bursts of writes to the same key into one eventual store
// write carrying the last document. It is a cache-coalescing layer, not a
// log: intermediate documents are intentionally dropped.
type Coalescer struct {
	store   *Store
	sched   Scheduler
	delay   time.Duration
	log     *logging.Logger
	metrics *monitoring.Metrics

	mu      sync.Mutex
	pending map[string]*pendingWrite
}

// NewCoalescer creates a coalescer over store. A nil scheduler selects the
// real timer scheduler; delay <= 0 selects DefaultDebounce.
func NewCoalescer(store *Store, sched Scheduler, delay time.Duration, log *logging.Logger) *Coalescer {
	if sched == nil {
		sched = TimerScheduler{}
	}
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Coalescer{
		store:   store,
		sched:   sched,
		delay:   delay,
		log:     logging.OrNop(log).Named("coalescer"),
		pending: make(map[string]*pendingWrite),
	}
}

// SetMetrics attaches a metrics handle. Safe to leave unset.
func (c *Coalescer) SetMetrics(m *monitoring.Metrics) { c.metrics = m }

// WriteDebounced schedules doc to be written for key after the debounce
// delay. A second call for the same key before the timer fires replaces the
// pending document and restarts the delay. Panics on an invalid key, before
// anything is scheduled.
func (c *Coalescer) WriteDebounced(key string, doc any) {
	mustValidateKey(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	superseded := false
	if prev, ok := c.pending[key]; ok {
		prev.cancel()
		superseded = true
	}

	p := &pendingWrite{doc: doc, scheduledAt: time.Now()}
	c.pending[key] = p
	p.cancel = c.sched.ScheduleAfter(c.delay, func() { c.fire(key, p) })

	c.metrics.RecordDebounced(superseded)
	c.metrics.SetPending(len(c.pending))
}

// fire performs the write for a timer that reached its deadline. A pending
// entry that no longer matches p was superseded or flushed and is skipped.
func (c *Coalescer) fire(key string, p *pendingWrite) {
	c.mu.Lock()
	if c.pending[key] != p {
		c.mu.Unlock()
		return
	}
	delete(c.pending, key)
	c.metrics.SetPending(len(c.pending))
	c.mu.Unlock()

	if err := c.store.Write(key, p.doc); err != nil {
		// No caller to hand this to; the next flush or debounced write
		// for the key retries with fresher state.
		c.log.Error("debounced write failed", zap.String("key", key), zap.Error(err))
	}
}

// Flush writes the pending document for key immediately, if any.
func (c *Coalescer) Flush(key string) error {
	c.mu.Lock()
	p, ok := c.pending[key]
	if ok {
		p.cancel()
		delete(c.pending, key)
		c.metrics.SetPending(len(c.pending))
	}
	c.mu.Unlock()

	if !ok {
		return nil
	}
	return c.store.Write(key, p.doc)
}

// FlushAll cancels every live timer and performs all pending writes before
// returning. Mandatory on the shutdown path; skipping it loses the most
// recent mutation for any key with a live timer. Failures are aggregated
// per key.
func (c *Coalescer) FlushAll() error {
	start := time.Now()

	c.mu.Lock()
	drained := make(map[string]*pendingWrite, len(c.pending))
	for key, p := range c.pending {
		p.cancel()
		drained[key] = p
	}
	c.pending = make(map[string]*pendingWrite)
	c.metrics.SetPending(0)
	c.mu.Unlock()

	var err error
	for key, p := range drained {
		err = multierr.Append(err, c.store.Write(key, p.doc))
	}

	c.metrics.ObserveFlush(time.Since(start))
	if len(drained) > 0 {
		c.log.Info("flushed pending writes",
			zap.Int("count", len(drained)), zap.Duration("took", time.Since(start)))
	}
	return err
}

// PendingCount returns the number of keys with a live debounce timer.
func (c *Coalescer) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
