package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrNotRunning is returned by Submit before Start or after Stop.
var ErrNotRunning = errors.New("jobs: queue not running")

// Task is a unit of background work. Attempt counts failed runs so far.
type Task struct {
	Name    string
	Attempt int
	Queued  time.Time
}

// Handler runs a task; a non-nil error schedules a retry.
type Handler func(ctx context.Context, task Task) error

// Options tune a Queue. Zero values pick one worker, a buffer of four per
// worker, three retries and a one second backoff.
type Options struct {
	Workers    int
	Buffer     int
	MaxRetries int
	Backoff    time.Duration
	Logger     *zap.Logger
}

// Queue runs tasks on a fixed pool of goroutines with linear backoff retries.
type Queue struct {
	name    string
	handler Handler
	opts    Options

	tasks  chan Task
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewQueue builds a stopped queue.
func NewQueue(name string, handler Handler, opts Options) *Queue {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Buffer <= 0 {
		opts.Buffer = opts.Workers * 4
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Queue{
		name:    name,
		handler: handler,
		opts:    opts,
		tasks:   make(chan Task, opts.Buffer),
	}
}

// Start launches the workers; later calls are no-ops.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ctx != nil {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.opts.Workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	q.opts.Logger.Info("queue started", zap.String("queue", q.name), zap.Int("workers", q.opts.Workers))
}

// Stop cancels the workers and waits for running tasks to return.
func (q *Queue) Stop() {
	q.mu.Lock()
	cancel := q.cancel
	q.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	q.wg.Wait()
}

// Submit queues a task, blocking while the buffer is full.
func (q *Queue) Submit(task Task) error {
	q.mu.Lock()
	ctx := q.ctx
	q.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return ErrNotRunning
	}
	if task.Queued.IsZero() {
		task.Queued = time.Now().UTC()
	}
	select {
	case <-ctx.Done():
		return ErrNotRunning
	case q.tasks <- task:
		return nil
	}
}

func (q *Queue) work() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case task := <-q.tasks:
			if err := q.handler(q.ctx, task); err != nil {
				q.retry(task, err)
			}
		}
	}
}

func (q *Queue) retry(task Task, err error) {
	task.Attempt++
	log := q.opts.Logger.With(zap.String("queue", q.name), zap.String("task", task.Name), zap.Int("attempt", task.Attempt), zap.Error(err))
	if task.Attempt > q.opts.MaxRetries {
		log.Error("task gave up")
		return
	}
	log.Warn("task failed, retrying")

	delay := q.opts.Backoff * time.Duration(task.Attempt)
	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
		case <-timer.C:
			if err := q.Submit(task); err != nil {
				log.Warn("task dropped", zap.NamedError("submit", err))
			}
		}
	}()
}
