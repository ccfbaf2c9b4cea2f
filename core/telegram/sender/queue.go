// Package sender runs outbound Telegram calls on a bounded worker pool with
// retries, so slow API responses never block update handlers.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	coreconfig "github.com/m3rciful/todobot/core/config"
	"github.com/m3rciful/todobot/core/logger"
	"github.com/m3rciful/todobot/core/telegram/netutil"
)

var (
	// ErrQueueClosed is returned by Enqueue after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull is returned when the buffer is saturated.
	ErrQueueFull = errors.New("telegram sender: queue full")
)

// Options tunes a Queue. Zero values pick defaults.
type Options struct {
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent on one job, retries included.
	MaxDuration time.Duration
}

// OptionsFromConfig maps the sender config section to Options.
func OptionsFromConfig(cfg coreconfig.SenderConfig) Options {
	return Options{
		QueueSize:    cfg.QueueSize,
		Workers:      cfg.Workers,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: time.Duration(cfg.RetryBackoffMS) * time.Millisecond,
	}
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 15 * time.Second
	}
	return o
}

type job struct {
	ctx    context.Context
	action string
	run    func() error
}

// Queue executes send jobs asynchronously. Jobs are sharded by key onto a
// fixed worker, so jobs sharing a key (a chat id) run in enqueue order.
type Queue struct {
	opts   Options
	shards []chan job

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	sent   atomic.Uint64
	failed atomic.Uint64
}

// NewQueue starts the workers.
func NewQueue(opts Options) *Queue {
	opts = opts.withDefaults()
	per := max(1, opts.QueueSize/opts.Workers)
	q := &Queue{
		opts:   opts,
		shards: make([]chan job, opts.Workers),
	}
	q.wg.Add(opts.Workers)
	for i := range q.shards {
		q.shards[i] = make(chan job, per)
		go q.worker(q.shards[i])
	}
	return q
}

func (q *Queue) shard(key int64) chan job {
	n := int64(len(q.shards))
	return q.shards[((key%n)+n)%n]
}

// Enqueue schedules run on the worker owning key. run may be called several
// times, so it must be safe to repeat.
func (q *Queue) Enqueue(ctx context.Context, key int64, action string, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.shard(key) <- job{ctx: ctx, action: action, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stats returns delivered and failed job counters.
func (q *Queue) Stats() (sent, failed uint64) {
	return q.sent.Load(), q.failed.Load()
}

// Close stops accepting jobs and waits for queued ones to drain.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	for _, ch := range q.shards {
		close(ch)
	}
	q.mu.Unlock()
	q.wg.Wait()
}

func (q *Queue) worker(jobs <-chan job) {
	defer q.wg.Done()
	for j := range jobs {
		q.process(j)
	}
}

func (q *Queue) process(j job) {
	ctx := j.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	// The update context may be gone by now; only its values matter here.
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempts := q.opts.MaxRetries + 1
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = j.run(); err == nil {
			q.sent.Add(1)
			logger.Debug(ctx, "tg.sender", "send.ok",
				slog.String("status", "ok"),
				slog.String("action", j.action),
				slog.Int("attempt", attempt),
				slog.Duration("duration", logger.Took(start)),
			)
			return
		}
		if !netutil.ShouldRetry(err) || attempt == attempts {
			break
		}
		delay := netutil.Backoff(err, q.opts.RetryBackoff, attempt)
		logger.Debug(ctx, "tg.sender", "send.retry",
			slog.String("status", "retry"),
			slog.String("action", j.action),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
		)
		timer := time.NewTimer(delay)
		select {
		case <-runCtx.Done():
			timer.Stop()
			err = errors.Join(err, runCtx.Err())
			attempt = attempts
		case <-timer.C:
		}
	}

	q.failed.Add(1)
	logger.Error(ctx, "tg.sender", "send.fail",
		slog.String("status", "fail"),
		slog.String("action", j.action),
		slog.String("err", logger.RedactToken(err.Error())),
		slog.Duration("duration", logger.Took(start)),
	)
}
