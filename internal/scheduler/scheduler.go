package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/semaphore"
)

var (
	// ErrClosed is returned for units submitted after Close.
	ErrClosed = errors.New("scheduler closed")
	// ErrSkipped is returned for queued units that never started because
	// the scheduler was stopped or their context was cancelled.
	ErrSkipped = errors.New("unit skipped")
)

// Unit is one piece of work run by the scheduler.
type Unit func(ctx context.Context) error

// Handle tracks a submitted unit.
type Handle struct {
	seq  int
	ctx  context.Context
	fn   Unit
	done chan struct{}
	err  error
}

// Seq returns the submission sequence number (0-based).
func (h *Handle) Seq() int {
	return h.seq
}

// Done is closed once the unit has finished, failed or been skipped.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err returns the unit error. Only valid after Done is closed.
func (h *Handle) Err() error {
	return h.err
}

// Scheduler runs units with at most degree of them in flight.
// Queued units are admitted in submission order.
type Scheduler struct {
	degree int
	sem    *semaphore.Weighted

	mu      sync.Mutex
	queue   []*Handle
	nextSeq int
	stopped bool
	closed  bool
}

// New creates a scheduler. Degrees below 1 are raised to 1.
func New(degree int) *Scheduler {
	if degree < 1 {
		degree = 1
	}
	return &Scheduler{
		degree: degree,
		sem:    semaphore.NewWeighted(int64(degree)),
	}
}

// Degree returns the configured degree of parallelism.
func (s *Scheduler) Degree() int {
	return s.degree
}

// Submit queues fn and returns its handle. It never blocks.
func (s *Scheduler) Submit(ctx context.Context, fn Unit) *Handle {
	s.mu.Lock()
	h := &Handle{
		seq:  s.nextSeq,
		ctx:  ctx,
		fn:   fn,
		done: make(chan struct{}),
	}
	s.nextSeq++

	switch {
	case s.closed:
		s.mu.Unlock()
		h.finish(ErrClosed)
		return h
	case s.stopped:
		s.mu.Unlock()
		h.finish(ErrSkipped)
		return h
	}

	s.queue = append(s.queue, h)
	s.pumpLocked()
	s.mu.Unlock()
	return h
}

// Stop completes every queued unit with ErrSkipped. Running units are not
// interrupted; they finish normally.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	pending := s.queue
	s.queue = nil
	s.mu.Unlock()

	for _, h := range pending {
		h.finish(ErrSkipped)
	}
}

// Close stops the scheduler and rejects further submissions.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.Stop()
}

// Pending returns the number of queued units that have not started.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// pumpLocked starts queued units from the front while slots are free.
// Callers must hold s.mu.
func (s *Scheduler) pumpLocked() {
	for len(s.queue) > 0 && s.sem.TryAcquire(1) {
		h := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		go s.run(h)
	}
}

func (s *Scheduler) run(h *Handle) {
	var err error
	if ctxErr := h.ctx.Err(); ctxErr != nil {
		err = fmt.Errorf("%w: %w", ErrSkipped, ctxErr)
	} else {
		err = invoke(h.ctx, h.fn)
	}

	s.sem.Release(1)
	h.finish(err)

	s.mu.Lock()
	s.pumpLocked()
	s.mu.Unlock()
}

// invoke runs fn and converts a panic into an error.
func invoke(ctx context.Context, fn Unit) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unit panicked: %v\n%s", r, debug.Stack())
		}
	}()
	return fn(ctx)
}

func (h *Handle) finish(err error) {
	h.err = err
	close(h.done)
}

// WaitAll blocks until every handle has completed and returns the joined
// errors of the failed units, ordered by submission.
func WaitAll(handles ...*Handle) error {
	var errs []error
	for _, h := range handles {
		<-h.done
		if h.err != nil {
			errs = append(errs, fmt.Errorf("unit %d: %w", h.seq, h.err))
		}
	}
	return errors.Join(errs...)
}
