package builder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"compdb/internal/compdb"
	"compdb/internal/contextutil"
	"compdb/internal/extractor"
	"compdb/internal/metrics"
	"compdb/internal/project"
	"compdb/internal/registry"
	"compdb/internal/scheduler"
	"compdb/internal/writer"
)

var (
	// ErrOutputDirMissing is returned when the output directory does not exist.
	ErrOutputDirMissing = errors.New("output directory does not exist")
	// ErrOutputNotWritable is returned when the output file cannot be created.
	ErrOutputNotWritable = errors.New("output file cannot be created")
	// ErrAlreadyStarted is returned when Build is called on a used Builder.
	ErrAlreadyStarted = errors.New("builder already started")
)

// State is the lifecycle state of a Builder.
type State int

// Idle moves to Running once; Running ends in exactly one terminal state.
const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateCancelled
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// Observer receives build notifications. Calls are serialized; OnProgress
// runs while the builder holds its accumulator lock and must not block.
type Observer interface {
	OnProgress(percent float64, status string)
	OnCompleted(db *compdb.CompilationDatabase)
	OnCancelled()
}

type nopObserver struct{}

func (nopObserver) OnProgress(float64, string) {}

func (nopObserver) OnCompleted(*compdb.CompilationDatabase) {}

func (nopObserver) OnCancelled() {}

// Request selects what to build and where to write it.
type Request struct {
	SourceBuild   string // Identifier of the build description
	Units         []project.Unit
	Configuration project.Configuration
	OutputDir     string
	Name          string // Output file name, ".json" is appended when missing
}

// Result is the outcome of a run.
type Result struct {
	RunID    string
	State    State
	Database *compdb.CompilationDatabase
	Summary  Summary
}

// Option configures a Builder.
type Option func(*Builder)

// WithParallelism sets how many units are extracted at once.
func WithParallelism(degree int) Option {
	return func(b *Builder) { b.degree = degree }
}

// WithRegistry persists completed runs into reg.
func WithRegistry(reg *registry.Registry) Option {
	return func(b *Builder) { b.registry = reg }
}

// WithObserver sets the progress observer.
func WithObserver(o Observer) Option {
	return func(b *Builder) {
		if o != nil {
			b.observer = o
		}
	}
}

// Builder runs one compilation database build. A Builder is single-use.
type Builder struct {
	extractor *extractor.Extractor
	registry  *registry.Registry
	observer  Observer
	degree    int

	mu              sync.Mutex
	state           State
	runID           string
	sched           *scheduler.Scheduler
	cancelRequested bool

	// Accumulator: guarded by accMu, shared by all unit tasks.
	accMu      sync.Mutex
	out        *writer.Writer
	total      int
	processed  int
	emitted    int
	seenFiles  map[string]struct{}
	headerSeen map[string]struct{}
	commands   []compdb.CompileCommand
	perUnit    []int
	summary    Summary
}

// New creates a Builder.
func New(ext *extractor.Extractor, opts ...Option) *Builder {
	if ext == nil {
		ext = extractor.New(nil)
	}
	b := &Builder{
		extractor: ext,
		observer:  nopObserver{},
		degree:    1,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// State returns the current state.
func (b *Builder) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// RunID returns the id of the current run, empty before Build.
func (b *Builder) RunID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.runID
}

// RequestCancel asks the run to stop. Queued units are skipped; running
// units finish. Safe to call at any time and from any goroutine.
func (b *Builder) RequestCancel() {
	b.mu.Lock()
	b.cancelRequested = true
	sched := b.sched
	b.mu.Unlock()

	if sched != nil {
		sched.Stop()
	}
}

func (b *Builder) cancelled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cancelRequested
}

func (b *Builder) setState(s State) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

// Build runs the whole pipeline and blocks until every unit has finished
// or been skipped. Cancelling ctx has the effect of RequestCancel.
// Cancelled runs return a Result with StateCancelled and a nil error.
func (b *Builder) Build(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	b.mu.Lock()
	if b.state != StateIdle {
		b.mu.Unlock()
		return nil, ErrAlreadyStarted
	}
	b.state = StateRunning
	b.runID = uuid.New().String()
	runID := b.runID
	b.mu.Unlock()

	ctx = contextutil.WithAttrs(ctx, "run_id", runID)
	logger := contextutil.LoggerFromContext(ctx)

	db := compdb.New(req.Name, req.OutputDir, req.SourceBuild, req.Configuration.Name, req.Configuration.Platform)
	result := &Result{RunID: runID, Database: db}

	// Pre-flight: nothing is scheduled unless the output can be written
	out, err := b.preflight(db)
	if err != nil {
		logger.ErrorContext(ctx, "build pre-flight failed", "path", db.OutputPath(), "error", err)
		return b.fail(result, start, err)
	}

	logger.InfoContext(ctx, "build started",
		"source_build", req.SourceBuild,
		"configuration", req.Configuration.String(),
		"units", len(req.Units),
		"parallelism", b.degree,
		"output", db.OutputPath())

	b.accMu.Lock()
	b.out = out
	b.total = len(req.Units)
	b.seenFiles = make(map[string]struct{})
	b.headerSeen = make(map[string]struct{})
	b.summary = Summary{Units: len(req.Units)}
	b.accMu.Unlock()

	out.Push("[\n")
	out.Start(ctx)

	sched := scheduler.New(b.degree)
	b.mu.Lock()
	b.sched = sched
	cancelEarly := b.cancelRequested
	b.mu.Unlock()
	if cancelEarly {
		sched.Stop()
	}

	// Caller cancellation maps onto the cooperative flag
	stopWatch := context.AfterFunc(ctx, b.RequestCancel)
	defer stopWatch()

	handles := make([]*scheduler.Handle, 0, len(req.Units))
	names := make([]string, 0, len(req.Units))
	for _, unit := range req.Units {
		names = append(names, unit.Name())
		handles = append(handles, sched.Submit(ctx, b.task(unit, req.Configuration)))
	}

	waitErr := unexpected(scheduler.WaitAll(handles...))
	sched.Close()

	out.Push("\n]")
	if err := out.Stop(); err != nil {
		logger.ErrorContext(ctx, "failed to finish output", "error", err)
		if waitErr == nil {
			waitErr = err
		}
	}

	b.accMu.Lock()
	db.Commands = b.commands
	result.Summary = b.summary
	result.Summary.CommandStats = computeCommandStats(b.perUnit)
	b.accMu.Unlock()
	result.Summary.Duration = time.Since(start)

	switch {
	case waitErr != nil:
		logger.ErrorContext(ctx, "build failed", "error", waitErr)
		return b.fail(result, start, waitErr)

	case b.cancelled() || ctx.Err() != nil:
		b.setState(StateCancelled)
		result.State = StateCancelled
		metrics.BuildsTotal.WithLabelValues(StateCancelled.String()).Inc()
		metrics.BuildDuration.Observe(time.Since(start).Seconds())
		logger.InfoContext(ctx, "build cancelled",
			"units_processed", result.Summary.UnitsProcessed,
			"commands", result.Summary.Commands)
		b.observer.OnCancelled()
		return result, nil
	}

	db.LastUpdated = time.Now().UTC()
	db.IncludedUnits = names

	if b.registry != nil {
		b.registry.AppendOrUpdate(registry.EntryFrom(db))
		if err := b.registry.Save(ctx); err != nil {
			logger.WarnContext(ctx, "failed to persist registry", "error", err)
		}
	}

	b.setState(StateCompleted)
	result.State = StateCompleted
	metrics.BuildsTotal.WithLabelValues(StateCompleted.String()).Inc()
	metrics.BuildDuration.Observe(time.Since(start).Seconds())
	logger.InfoContext(ctx, "build completed",
		"commands", result.Summary.Commands,
		"units_failed", result.Summary.UnitsFailed,
		"skipped_items", result.Summary.SkippedItems,
		"duration_ms", result.Summary.Duration.Milliseconds())
	b.observer.OnCompleted(db)
	return result, nil
}

func (b *Builder) preflight(db *compdb.CompilationDatabase) (*writer.Writer, error) {
	info, err := os.Stat(db.Directory)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrOutputDirMissing, db.Directory)
	}
	out, err := writer.Create(db.OutputPath())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOutputNotWritable, err)
	}
	return out, nil
}

func (b *Builder) fail(result *Result, start time.Time, err error) (*Result, error) {
	b.setState(StateFailed)
	result.State = StateFailed
	metrics.BuildsTotal.WithLabelValues(StateFailed.String()).Inc()
	metrics.BuildDuration.Observe(time.Since(start).Seconds())
	return result, err
}

// task extracts one unit. Extraction errors are per-unit and never fail the run.
func (b *Builder) task(unit project.Unit, cfg project.Configuration) scheduler.Unit {
	return func(ctx context.Context) error {
		res, err := b.extractor.Extract(ctx, unit, cfg)
		if err != nil {
			contextutil.LoggerFromContext(ctx).WarnContext(ctx, "unit failed", "unit", unit.Name(), "error", err)
			metrics.UnitsProcessed.WithLabelValues("failed").Inc()
		} else {
			metrics.UnitsProcessed.WithLabelValues("ok").Inc()
		}
		b.collect(ctx, unit.Name(), res)
		return nil
	}
}

// collect emits the commands of one unit as a single contiguous message and
// updates progress. res is nil for a failed unit.
func (b *Builder) collect(ctx context.Context, unitName string, res *extractor.Result) {
	logger := contextutil.LoggerFromContext(ctx)

	b.accMu.Lock()
	defer b.accMu.Unlock()

	b.processed++
	b.summary.UnitsProcessed++

	if res == nil {
		b.summary.UnitsFailed++
	} else {
		var chunk strings.Builder
		count := 0
		for _, cmd := range res.Commands {
			if _, dup := b.seenFiles[cmd.File]; dup {
				logger.DebugContext(ctx, "dropping duplicate command", "unit", unitName, "file", cmd.File)
				b.summary.DuplicateCommands++
				continue
			}
			element, err := encodeCommand(cmd)
			if err != nil {
				logger.WarnContext(ctx, "failed to encode command", "unit", unitName, "file", cmd.File, "error", err)
				b.summary.SkippedItems++
				continue
			}
			b.seenFiles[cmd.File] = struct{}{}
			if b.emitted > 0 {
				chunk.WriteString(",\n")
			}
			chunk.WriteString(element)
			b.emitted++
			count++
			b.commands = append(b.commands, cmd)
		}
		if chunk.Len() > 0 {
			b.out.Push(chunk.String())
		}

		for _, dir := range res.HeaderDirs {
			if _, ok := b.headerSeen[dir]; !ok {
				b.headerSeen[dir] = struct{}{}
				b.summary.HeaderDirs = append(b.summary.HeaderDirs, dir)
			}
		}
		b.summary.Commands += count
		b.summary.SkippedItems += res.Skipped
		if res.Compiler.Fallback {
			b.summary.FallbackCompilers++
		}
		if res.Incomplete {
			b.summary.IncompleteUnits++
		}
		b.perUnit = append(b.perUnit, count)

		metrics.CommandsEmitted.Add(float64(count))
		metrics.ItemsSkipped.Add(float64(res.Skipped))
	}

	percent := 100.0
	if b.total > 0 {
		percent = float64(b.processed) * 100 / float64(b.total)
	}
	b.observer.OnProgress(percent, fmt.Sprintf("%s (%d/%d)", unitName, b.processed, b.total))
}

// encodeCommand renders one array element, indented for the output file.
func encodeCommand(cmd compdb.CompileCommand) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("  ", "  ")
	if err := enc.Encode(cmd); err != nil {
		return "", err
	}
	return "  " + strings.TrimSuffix(buf.String(), "\n"), nil
}

// unexpected drops skip errors from a WaitAll result.
func unexpected(err error) error {
	if err == nil {
		return nil
	}
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else {
		errs = []error{err}
	}

	var kept []error
	for _, e := range errs {
		if !errors.Is(e, scheduler.ErrSkipped) {
			kept = append(kept, e)
		}
	}
	return errors.Join(kept...)
}
