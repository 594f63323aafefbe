// Package emit serializes file emission through a bounded queue.
//
// Producers block in Submit while the queue is full, so a slow destination
// pushes back on the exporter instead of piling up encoded files in memory.
// A single worker drains the queue in submission order, optionally paced by a
// rate limiter.
package emit

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/time/rate"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("emit queue is closed")

// Task is one unit of emission, typically writing a single file.
type Task struct {
	ID  string
	Run func(ctx context.Context) error
}

// Status of a task as reported to the notify callback.
type Status string

const (
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Notification reports a finished task.
type Notification struct {
	TaskID string
	Status Status
	Err    error
}

// Queue runs submitted tasks one at a time.
type Queue struct {
	tasks   chan Task
	limiter *rate.Limiter
	notify  func(Notification)

	// mu protects closed, err and done
	mu     sync.Mutex
	closed bool
	err    error
	done   []string

	// stop is closed by Close to release blocked Submits; senders tracks
	// Submits that may still send on tasks.
	stop    chan struct{}
	senders sync.WaitGroup

	wg sync.WaitGroup
}

// Options configures a Queue.
type Options struct {
	// Size is the number of tasks that may wait. Minimum 1.
	Size int

	// PerSecond paces task starts; 0 runs tasks back to back.
	PerSecond float64

	// Notify, if set, is called from the worker after each task.
	Notify func(Notification)
}

// New creates a queue; call Start before Submit.
func New(opts Options) *Queue {
	size := opts.Size
	if size < 1 {
		size = 1
	}
	q := &Queue{
		tasks:  make(chan Task, size),
		notify: opts.Notify,
		stop:   make(chan struct{}),
	}
	if opts.PerSecond > 0 {
		q.limiter = rate.NewLimiter(rate.Limit(opts.PerSecond), 1)
	}
	return q
}

// Start launches the worker.
func (q *Queue) Start(ctx context.Context) {
	q.wg.Add(1)
	go q.work(ctx)
}

// Submit enqueues t, blocking while the queue is full. Once a task has
// failed, Submit returns that error instead of enqueueing more work. Submit
// may be called concurrently with Close; a Submit blocked when Close runs
// returns ErrClosed.
func (q *Queue) Submit(ctx context.Context, t Task) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	if q.err != nil {
		err := q.err
		q.mu.Unlock()
		return err
	}
	q.senders.Add(1)
	q.mu.Unlock()
	defer q.senders.Done()

	select {
	case q.tasks <- t:
		return nil
	case <-q.stop:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks, waits for queued ones to finish and returns
// the first task error.
func (q *Queue) Close() error {
	q.mu.Lock()
	first := !q.closed
	q.closed = true
	q.mu.Unlock()

	if first {
		close(q.stop)
		q.senders.Wait()
		close(q.tasks)
	}

	q.wg.Wait()

	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}

// Done returns the IDs of tasks that completed successfully, in order.
func (q *Queue) Done() []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]string, len(q.done))
	copy(out, q.done)
	return out
}

func (q *Queue) work(ctx context.Context) {
	defer q.wg.Done()

	for t := range q.tasks {
		if q.failed() {
			q.report(Notification{TaskID: t.ID, Status: StatusSkipped})
			continue
		}

		if q.limiter != nil {
			if err := q.limiter.Wait(ctx); err != nil {
				q.fail(t, err)
				continue
			}
		}

		if err := t.Run(ctx); err != nil {
			q.fail(t, err)
			continue
		}

		q.mu.Lock()
		q.done = append(q.done, t.ID)
		q.mu.Unlock()
		q.report(Notification{TaskID: t.ID, Status: StatusDone})
	}
}

func (q *Queue) failed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err != nil
}

func (q *Queue) fail(t Task, err error) {
	q.mu.Lock()
	if q.err == nil {
		q.err = err
	}
	q.mu.Unlock()
	q.report(Notification{TaskID: t.ID, Status: StatusFailed, Err: err})
}

func (q *Queue) report(n Notification) {
	if q.notify != nil {
		q.notify(n)
	}
}
