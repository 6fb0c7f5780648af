package handlers

import (
	"net/http"
	"time"

	"compdb/internal/contextutil"
	"compdb/internal/registry"
	"compdb/internal/service"
)

// DatabasesHandler serves registry queries.
type DatabasesHandler struct {
	buildService service.BuildService
}

// NewDatabasesHandler creates a new DatabasesHandler.
func NewDatabasesHandler(buildService service.BuildService) *DatabasesHandler {
	return &DatabasesHandler{buildService: buildService}
}

// DatabaseResponse describes one registered compilation database.
//
// swagger:model DatabaseResponse
type DatabaseResponse struct {
	Name          string   `json:"name"`
	SourceBuild   string   `json:"source_build"`
	Directory     string   `json:"directory"`
	OutputPath    string   `json:"output_path"`
	Configuration string   `json:"configuration"`
	Platform      string   `json:"platform"`
	IncludedUnits []string `json:"included_units"`
	// RFC 3339 timestamp, empty when the file is missing
	LastUpdated string `json:"last_updated"`
	Stale       bool   `json:"stale"`
}

// DatabaseListResponse wraps the registry listing.
//
// swagger:model DatabaseListResponse
type DatabaseListResponse struct {
	Databases []DatabaseResponse `json:"databases"`
}

// List returns every registered database.
//
// swagger:route GET /api/databases listDatabases
//
// Lists the registered compilation databases.
//
// responses:
//
//	'200':
//	  schema:
//	    "$ref": "#/definitions/DatabaseListResponse"
func (h *DatabasesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entries, err := h.buildService.Databases(ctx)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list databases")
		return
	}

	resp := DatabaseListResponse{Databases: make([]DatabaseResponse, 0, len(entries))}
	for _, e := range entries {
		resp.Databases = append(resp.Databases, toDatabaseResponse(e))
	}
	writeJSON(w, ctx, http.StatusOK, resp)
}

// Latest returns the most recent database of the source query parameter.
//
// swagger:route GET /api/databases/latest latestDatabase
//
// Returns the most recently built database of a build description.
//
// responses:
//
//	'200':
//	  schema:
//	    "$ref": "#/definitions/DatabaseResponse"
//	'400':
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'404':
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *DatabasesHandler) Latest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	source := r.URL.Query().Get("source")
	ctx = contextutil.WithAttrs(ctx, "source_build", source)

	entry, err := h.buildService.Latest(ctx, source)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to look up database")
		return
	}
	writeJSON(w, ctx, http.StatusOK, toDatabaseResponse(entry))
}

func toDatabaseResponse(e registry.Entry) DatabaseResponse {
	resp := DatabaseResponse{
		Name:          e.Name,
		SourceBuild:   e.SourceBuild,
		Directory:     e.Directory,
		OutputPath:    e.OutputPath(),
		Configuration: e.ConfigurationName,
		Platform:      e.PlatformName,
		IncludedUnits: e.IncludedUnits,
		Stale:         e.Stale(),
	}
	if resp.IncludedUnits == nil {
		resp.IncludedUnits = []string{}
	}
	if !e.Stale() {
		resp.LastUpdated = e.LastUpdated.UTC().Format(time.RFC3339)
	}
	return resp
}
