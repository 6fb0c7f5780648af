package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_build_service.go -package=mocks -mock_names=BuildService=MockBuildService compdb/internal/service BuildService

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"compdb/internal/builder"
	"compdb/internal/compdb"
	"compdb/internal/contextutil"
	"compdb/internal/extractor"
	"compdb/internal/project"
	"compdb/internal/registry"
	"compdb/internal/toolchain"
)

// BuildRequest represents a build request in the domain layer.
type BuildRequest struct {
	Solution      string   `validate:"required"`
	Configuration string   `validate:"required"`
	Platform      string   `validate:"required"`
	OutputDir     string   // Defaults to the service output directory
	Name          string   // Defaults to the service database name
	Units         []string // Empty selects every unit
}

// BuildStatus is a snapshot of a build job.
type BuildStatus struct {
	ID          string
	State       string
	Percent     float64
	Message     string
	SourceBuild string
	OutputPath  string
	StartedAt   time.Time
	FinishedAt  time.Time // Zero while running
	Summary     *builder.Summary
	Error       string
}

// BuildService runs database builds and answers registry queries.
type BuildService interface {
	// StartBuild validates req and starts a build in the background.
	StartBuild(ctx context.Context, req BuildRequest) (BuildStatus, error)
	// Status returns the current snapshot of a build job.
	Status(ctx context.Context, id string) (BuildStatus, error)
	// Cancel asks a running build to stop and returns its snapshot.
	Cancel(ctx context.Context, id string) (BuildStatus, error)
	// Databases returns every registered database.
	Databases(ctx context.Context) ([]registry.Entry, error)
	// Latest returns the most recent database built from sourceBuild.
	Latest(ctx context.Context, sourceBuild string) (registry.Entry, error)
}

// SolutionLoader reads a build description.
type SolutionLoader func(path string) (*project.Solution, error)

// BuildOption configures the build service.
type BuildOption func(*buildService)

// WithSolutionLoader replaces project.LoadSolution.
func WithSolutionLoader(loader SolutionLoader) BuildOption {
	return func(s *buildService) { s.loader = loader }
}

// WithDefaults sets the output directory and database name used when a request omits them.
func WithDefaults(outputDir, name string) BuildOption {
	return func(s *buildService) {
		s.outputDir = outputDir
		s.name = name
	}
}

// WithParallelism sets the scheduler degree of every build.
func WithParallelism(degree int) BuildOption {
	return func(s *buildService) { s.parallelism = degree }
}

// WithToolToken sets the first token of every command.
func WithToolToken(token string) BuildOption {
	return func(s *buildService) { s.toolToken = token }
}

// WithFinishedHook registers fn to run after every build reaches a terminal state.
func WithFinishedHook(fn func(BuildStatus)) BuildOption {
	return func(s *buildService) { s.onFinished = fn }
}

// buildService implements BuildService.
type buildService struct {
	registry    *registry.Registry
	prober      *toolchain.Prober
	loader      SolutionLoader
	outputDir   string
	name        string
	parallelism int
	toolToken   string
	onFinished  func(BuildStatus)

	mu     sync.Mutex
	jobs   map[string]*buildJob
	active string
	wg     sync.WaitGroup
}

// NewBuildService creates a new BuildService.
func NewBuildService(reg *registry.Registry, prober *toolchain.Prober, opts ...BuildOption) BuildService {
	s := &buildService{
		registry:    reg,
		prober:      prober,
		loader:      project.LoadSolution,
		outputDir:   ".",
		name:        "compile_commands",
		parallelism: 1,
		jobs:        make(map[string]*buildJob),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// StartBuild starts a build. Only one build runs at a time.
func (s *buildService) StartBuild(ctx context.Context, req BuildRequest) (BuildStatus, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := validateRequest(req); err != nil {
		logger.WarnContext(ctx, "invalid build request", "error", err)
		return BuildStatus{}, err
	}

	sol, err := s.loader(req.Solution)
	if err != nil {
		if errors.Is(err, project.ErrInvalidSolution) {
			return BuildStatus{}, &ValidationError{Field: "solution", Message: err.Error()}
		}
		logger.ErrorContext(ctx, "failed to load solution", "solution", req.Solution, "error", err)
		return BuildStatus{}, WrapError(err, "failed to load solution")
	}
	units := sol.Select(req.Units)
	if len(units) == 0 && len(req.Units) > 0 {
		return BuildStatus{}, &ValidationError{Field: "units", Message: fmt.Sprintf("no unit named %s", strings.Join(req.Units, ", "))}
	}

	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = s.outputDir
	}
	name := req.Name
	if name == "" {
		name = s.name
	}

	s.mu.Lock()
	if s.active != "" {
		s.mu.Unlock()
		return BuildStatus{}, ErrBuildInProgress
	}

	job := &buildJob{
		status: BuildStatus{
			ID:          uuid.New().String(),
			State:       builder.StateRunning.String(),
			SourceBuild: sol.ID,
			OutputPath:  compdb.OutputPath(compdb.NormalizePath(outputDir), name),
			StartedAt:   time.Now().UTC(),
		},
	}
	job.builder = builder.New(
		extractor.New(s.prober, extractor.WithToolToken(s.toolToken)),
		builder.WithParallelism(s.parallelism),
		builder.WithRegistry(s.registry),
		builder.WithObserver(job),
	)
	s.jobs[job.status.ID] = job
	s.active = job.status.ID
	s.mu.Unlock()

	buildReq := builder.Request{
		SourceBuild:   sol.ID,
		Units:         units,
		Configuration: project.Configuration{Name: req.Configuration, Platform: req.Platform},
		OutputDir:     outputDir,
		Name:          name,
	}

	// The build outlives the request that started it
	runCtx := contextutil.WithAttrs(context.WithoutCancel(ctx), "build_id", job.status.ID)
	logger.InfoContext(ctx, "build accepted", "build_id", job.status.ID, "solution", sol.ID, "units", len(units))

	s.wg.Add(1)
	go s.run(runCtx, job, buildReq)

	return job.snapshot(), nil
}

func (s *buildService) run(ctx context.Context, job *buildJob, req builder.Request) {
	defer s.wg.Done()
	logger := contextutil.LoggerFromContext(ctx)

	result, err := job.builder.Build(ctx, req)

	job.mu.Lock()
	job.status.FinishedAt = time.Now().UTC()
	if result != nil {
		job.status.State = result.State.String()
		summary := result.Summary
		job.status.Summary = &summary
	}
	if err != nil {
		job.status.State = builder.StateFailed.String()
		job.status.Error = err.Error()
	}
	job.mu.Unlock()

	if err != nil {
		logger.ErrorContext(ctx, "build failed", "error", err)
	}

	s.mu.Lock()
	if s.active == job.status.ID {
		s.active = ""
	}
	s.mu.Unlock()

	if s.onFinished != nil {
		s.onFinished(job.snapshot())
	}
}

// Status returns the snapshot of build id.
func (s *buildService) Status(_ context.Context, id string) (BuildStatus, error) {
	job, err := s.job(id)
	if err != nil {
		return BuildStatus{}, err
	}
	return job.snapshot(), nil
}

// Cancel requests cancellation of build id. Finished builds are returned unchanged.
func (s *buildService) Cancel(ctx context.Context, id string) (BuildStatus, error) {
	job, err := s.job(id)
	if err != nil {
		return BuildStatus{}, err
	}
	snap := job.snapshot()
	if snap.FinishedAt.IsZero() {
		contextutil.LoggerFromContext(ctx).InfoContext(ctx, "build cancellation requested", "build_id", id)
		job.builder.RequestCancel()
		snap.Message = "cancellation requested"
	}
	return snap, nil
}

// Databases returns the registry entries.
func (s *buildService) Databases(_ context.Context) ([]registry.Entry, error) {
	return s.registry.Entries(), nil
}

// Latest returns the most recent entry of sourceBuild.
func (s *buildService) Latest(_ context.Context, sourceBuild string) (registry.Entry, error) {
	if strings.TrimSpace(sourceBuild) == "" {
		return registry.Entry{}, &ValidationError{Field: "source", Message: "cannot be empty"}
	}
	entry, err := s.registry.MostRecentFor(sourceBuild)
	if errors.Is(err, registry.ErrNotFound) {
		return registry.Entry{}, fmt.Errorf("no database for %s: %w", sourceBuild, ErrNotFound)
	}
	if err != nil {
		return registry.Entry{}, err
	}
	return entry, nil
}

// Wait blocks until every started build has finished.
func (s *buildService) Wait() {
	s.wg.Wait()
}

func (s *buildService) job(id string) (*buildJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("build %s: %w", id, ErrNotFound)
	}
	return job, nil
}

func validateRequest(req BuildRequest) error {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &ValidationError{
				Field:   strings.ToLower(verrs[0].Field()),
				Message: "is " + verrs[0].Tag(),
			}
		}
		return WrapError(ErrInvalidInput, err.Error())
	}
	return nil
}

// buildJob tracks one build and receives its progress notifications.
type buildJob struct {
	builder *builder.Builder

	mu     sync.Mutex
	status BuildStatus
}

func (j *buildJob) OnProgress(percent float64, status string) {
	j.mu.Lock()
	j.status.Percent = percent
	j.status.Message = status
	j.mu.Unlock()
}

func (j *buildJob) OnCompleted(db *compdb.CompilationDatabase) {
	j.mu.Lock()
	j.status.Percent = 100
	j.status.Message = fmt.Sprintf("wrote %d commands", len(db.Commands))
	j.mu.Unlock()
}

func (j *buildJob) OnCancelled() {
	j.mu.Lock()
	j.status.Message = "cancelled"
	j.mu.Unlock()
}

func (j *buildJob) snapshot() BuildStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	snap := j.status
	if snap.Summary != nil {
		summary := *snap.Summary
		snap.Summary = &summary
	}
	return snap
}
