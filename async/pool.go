package async

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.ebuer.dev/hbase/metrics"
)

// Defaults of a PoolConfig.
const (
	DefaultMinWorkers  = 4
	DefaultQueueSize   = 10
	DefaultIdleTimeout = 10 * time.Second
)

// PoolConfig configures a Pool.
type PoolConfig struct {
	// Number of workers started before tasks are queued.
	MinWorkers int
	// Maximum number of concurrent workers. Workers beyond MinWorkers are
	// started only once the queue is full.
	MaxWorkers int
	// Capacity of the queue of tasks awaiting a worker.
	QueueSize int
	// Duration after which an idle worker exits. It applies to all workers,
	// so an idle Pool holds no goroutines.
	IdleTimeout time.Duration
}

// DefaultPoolConfig returns a PoolConfig of DefaultMinWorkers, a maximum of
// runtime.NumCPU() workers (but not fewer than DefaultMinWorkers),
// DefaultQueueSize, and DefaultIdleTimeout.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MinWorkers:  DefaultMinWorkers,
		MaxWorkers:  max(runtime.NumCPU(), DefaultMinWorkers),
		QueueSize:   DefaultQueueSize,
		IdleTimeout: DefaultIdleTimeout,
	}
}

// Validate returns an error if the PoolConfig is not well-formed.
func (c PoolConfig) Validate() error {
	if c.MinWorkers < 0 {
		return fmt.Errorf("invalid MinWorkers (%d; expected >= 0)", c.MinWorkers)
	} else if c.MaxWorkers < 1 || c.MaxWorkers < c.MinWorkers {
		return fmt.Errorf("invalid MaxWorkers (%d; expected >= 1 and >= MinWorkers %d)",
			c.MaxWorkers, c.MinWorkers)
	} else if c.QueueSize < 1 {
		return fmt.Errorf("invalid QueueSize (%d; expected >= 1)", c.QueueSize)
	} else if c.IdleTimeout <= 0 {
		return fmt.Errorf("invalid IdleTimeout (%s; expected > 0)", c.IdleTimeout)
	}
	return nil
}

// Pool runs submitted tasks on an elastic set of worker goroutines. Submit
// starts workers up to MinWorkers, then queues tasks, then starts workers up
// to MaxWorkers, and finally blocks until the queue has room. Tasks are
// never rejected. Pools need no explicit shutdown: idle workers exit.
type Pool struct {
	cfg   PoolConfig
	queue chan func()

	mu      sync.Mutex
	workers int
}

// NewPool returns a Pool of the PoolConfig, which must Validate.
func NewPool(cfg PoolConfig) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithMessage(err, "PoolConfig.Validate")
	}
	return &Pool{
		cfg:   cfg,
		queue: make(chan func(), cfg.QueueSize),
	}, nil
}

// Submit |task| for execution. Submit blocks only if all MaxWorkers are busy
// and the queue is full.
func (p *Pool) Submit(task func()) {
	if p.tryStart(task, p.cfg.MinWorkers) {
		return
	}
	select {
	case p.queue <- task:
		p.ensureWorker()
		return
	default:
	}
	if p.tryStart(task, p.cfg.MaxWorkers) {
		return
	}

	metrics.PoolBlockedSubmitsTotal.Inc()
	log.WithField("queued", len(p.queue)).Debug("pool saturated; blocking on queue")

	p.queue <- task
	p.ensureWorker()
}

// Workers returns the current number of live workers.
func (p *Pool) Workers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.workers
}

// Queued returns the current number of tasks awaiting a worker.
func (p *Pool) Queued() int { return len(p.queue) }

// tryStart starts a worker running |task| if fewer than |limit| are live.
func (p *Pool) tryStart(task func(), limit int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.workers >= limit {
		return false
	}
	p.workers++
	go p.work(task)
	return true
}

// ensureWorker starts a worker if none are live, as can happen where
// MinWorkers is zero or all workers idled out while a task was enqueued.
func (p *Pool) ensureWorker() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.workers == 0 {
		p.workers++
		go p.work(nil)
	}
}

func (p *Pool) work(task func()) {
	metrics.PoolWorkers.Inc()
	defer metrics.PoolWorkers.Dec()

	var timer = time.NewTimer(p.cfg.IdleTimeout)
	defer timer.Stop()

	for {
		if task != nil {
			task()
			task = nil
		}
		timer.Reset(p.cfg.IdleTimeout)

		select {
		case task = <-p.queue:
		case <-timer.C:
			p.mu.Lock()
			if len(p.queue) != 0 {
				p.mu.Unlock()
				continue
			}
			p.workers--
			p.mu.Unlock()
			return
		}
	}
}

// Submit |fn| to the Pool, returning a Future of its result. A panic of |fn|
// resolves the Future with an error.
func Submit[T any](p *Pool, fn func() (T, error)) *Future[T] {
	var f = NewFuture[T]()

	p.Submit(func() {
		var value T
		var err error

		defer func() {
			if r := recover(); r != nil {
				var zero T
				f.Resolve(zero, fmt.Errorf("task panicked: %v", r))
				return
			}
			f.Resolve(value, err)
		}()
		value, err = fn()
	})
	return f
}
