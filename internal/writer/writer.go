package writer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"compdb/internal/contextutil"
	"compdb/internal/metrics"
)

// ErrStopped is reported for messages pushed after Stop.
var ErrStopped = errors.New("writer stopped")

// Writer is a double-buffered asynchronous sink with a single worker.
//
// Producers append to the active buffer under swapMu. The worker swaps the
// active buffer with the spare one under the same lock and appends the
// taken batch to the sink under fileMu. Stop joins the worker and drains
// whatever is left, so every message pushed before Stop reaches the sink
// unless its batch failed.
type Writer struct {
	sink   io.Writer
	closer io.Closer

	swapMu  sync.Mutex
	active  []string
	spare   []string
	started bool
	stopped bool

	fileMu sync.Mutex

	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup

	ctx context.Context
}

// New creates a Writer appending to sink. The caller keeps ownership of sink.
func New(sink io.Writer) *Writer {
	return &Writer{
		sink: sink,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		ctx:  context.Background(),
	}
}

// Create creates or truncates the file at path and returns a Writer that
// owns it. The file is closed by Stop.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	w := New(f)
	w.closer = f
	return w, nil
}

// Push enqueues text. It never blocks on I/O and is safe for concurrent use.
// Messages pushed after Stop are dropped.
func (w *Writer) Push(text string) {
	w.swapMu.Lock()
	if w.stopped {
		ctx := w.ctx
		w.swapMu.Unlock()
		metrics.WriterMessagesDropped.Inc()
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "dropping message pushed after stop", "error", ErrStopped)
		return
	}
	w.active = append(w.active, text)
	w.swapMu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Start spawns the worker. ctx only carries the logger; cancelling it does
// not stop the worker. Calling Start twice is a no-op.
func (w *Writer) Start(ctx context.Context) {
	w.swapMu.Lock()
	defer w.swapMu.Unlock()
	if w.started || w.stopped {
		return
	}
	w.started = true
	w.ctx = ctx

	w.wg.Add(1)
	go w.run()
}

// Stop signals the worker, waits for it and drains both buffers. It closes
// the sink when the Writer owns it. Calling Stop twice is a no-op.
func (w *Writer) Stop() error {
	w.swapMu.Lock()
	if w.stopped {
		w.swapMu.Unlock()
		return nil
	}
	w.stopped = true
	w.swapMu.Unlock()

	close(w.done)
	w.wg.Wait()

	// Final drain: the worker is gone so both buffers are ours.
	for {
		batch := w.swap()
		if len(batch) == 0 {
			break
		}
		w.write(batch)
	}

	if w.closer != nil {
		if err := w.closer.Close(); err != nil {
			return fmt.Errorf("failed to close output file: %w", err)
		}
	}
	return nil
}

func (w *Writer) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.wake:
			if batch := w.swap(); len(batch) > 0 {
				w.write(batch)
				w.recycle(batch)
			}
		case <-w.done:
			return
		}
	}
}

// swap takes the active buffer and installs the spare one in its place.
func (w *Writer) swap() []string {
	w.swapMu.Lock()
	defer w.swapMu.Unlock()

	batch := w.active
	w.active = w.spare
	w.spare = nil
	return batch
}

// recycle returns a written batch as the spare buffer.
func (w *Writer) recycle(batch []string) {
	clear(batch)
	w.swapMu.Lock()
	w.spare = batch[:0]
	w.swapMu.Unlock()
}

// write appends batch to the sink. On the first error the remainder of
// the batch is dropped.
func (w *Writer) write(batch []string) {
	w.fileMu.Lock()
	defer w.fileMu.Unlock()

	for i, msg := range batch {
		if _, err := io.WriteString(w.sink, msg); err != nil {
			dropped := len(batch) - i
			metrics.WriterBatchesDropped.Inc()
			metrics.WriterMessagesDropped.Add(float64(dropped))
			contextutil.LoggerFromContext(w.ctx).ErrorContext(w.ctx, "failed to write batch", "error", err, "dropped", dropped)
			return
		}
		metrics.WriterMessagesWritten.Inc()
	}
}
