package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"compdb/internal/builder"
	"compdb/internal/contextutil"
	"compdb/internal/service"
)

// BuildsHandler starts, inspects and cancels builds.
type BuildsHandler struct {
	buildService service.BuildService
}

// NewBuildsHandler creates a new BuildsHandler.
func NewBuildsHandler(buildService service.BuildService) *BuildsHandler {
	return &BuildsHandler{buildService: buildService}
}

// BuildRequest represents the HTTP request payload for starting a build.
//
// swagger:model BuildRequest
type BuildRequest struct {
	// Path of the build description
	// required: true
	Solution string `json:"solution"`
	// required: true
	Configuration string `json:"configuration"`
	// required: true
	Platform  string   `json:"platform"`
	OutputDir string   `json:"output_dir,omitempty"`
	Name      string   `json:"name,omitempty"`
	Units     []string `json:"units,omitempty"`
}

// BuildResponse is a snapshot of a build job.
//
// swagger:model BuildResponse
type BuildResponse struct {
	ID          string           `json:"id"`
	State       string           `json:"state"`
	Percent     float64          `json:"percent"`
	Message     string           `json:"message,omitempty"`
	SourceBuild string           `json:"source_build"`
	OutputPath  string           `json:"output_path"`
	StartedAt   string           `json:"started_at"`
	FinishedAt  string           `json:"finished_at,omitempty"`
	Summary     *builder.Summary `json:"summary,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// Start starts a build in the background.
//
// swagger:route POST /api/builds startBuild
//
// Starts a compilation database build. Only one build runs at a time.
//
// consumes:
// - application/json
// responses:
//
//	'202':
//	  schema:
//	    "$ref": "#/definitions/BuildResponse"
//	'400':
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'409':
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *BuildsHandler) Start(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req BuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Convert HTTP request to service request
	status, err := h.buildService.StartBuild(ctx, service.BuildRequest{
		Solution:      req.Solution,
		Configuration: req.Configuration,
		Platform:      req.Platform,
		OutputDir:     req.OutputDir,
		Name:          req.Name,
		Units:         req.Units,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to start build")
		return
	}

	w.Header().Set("Location", "/api/builds/"+status.ID)
	writeJSON(w, ctx, http.StatusAccepted, toBuildResponse(status))
}

// Status returns the snapshot of the build named in the URL.
//
// swagger:route GET /api/builds/{id} buildStatus
//
// responses:
//
//	'200':
//	  schema:
//	    "$ref": "#/definitions/BuildResponse"
//	'404':
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *BuildsHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	status, err := h.buildService.Status(ctx, id)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to get build status")
		return
	}
	writeJSON(w, ctx, http.StatusOK, toBuildResponse(status))
}

// Cancel requests cancellation of the build named in the URL.
//
// swagger:route POST /api/builds/{id}/cancel cancelBuild
//
// responses:
//
//	'202':
//	  schema:
//	    "$ref": "#/definitions/BuildResponse"
//	'404':
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *BuildsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	status, err := h.buildService.Cancel(ctx, id)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to cancel build")
		return
	}
	writeJSON(w, ctx, http.StatusAccepted, toBuildResponse(status))
}

func toBuildResponse(s service.BuildStatus) BuildResponse {
	resp := BuildResponse{
		ID:          s.ID,
		State:       s.State,
		Percent:     s.Percent,
		Message:     s.Message,
		SourceBuild: s.SourceBuild,
		OutputPath:  s.OutputPath,
		StartedAt:   s.StartedAt.UTC().Format(time.RFC3339),
		Summary:     s.Summary,
		Error:       s.Error,
	}
	if !s.FinishedAt.IsZero() {
		resp.FinishedAt = s.FinishedAt.UTC().Format(time.RFC3339)
	}
	return resp
}
