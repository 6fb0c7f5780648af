package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"compdb/internal/builder"
	"compdb/internal/service"
	"compdb/internal/service/mocks"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// withURLParam attaches a chi route parameter to req.
func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestBuildsHandler_Start(t *testing.T) {
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		body          any
		mockSetup     func(*mocks.MockBuildService)
		wantStatus    int
		checkResponse func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name: "accepted",
			body: BuildRequest{Solution: "game.yaml", Configuration: "Release", Platform: "x64", Units: []string{"app"}},
			mockSetup: func(m *mocks.MockBuildService) {
				m.EXPECT().
					StartBuild(gomock.Any(), service.BuildRequest{
						Solution:      "game.yaml",
						Configuration: "Release",
						Platform:      "x64",
						Units:         []string{"app"},
					}).
					Return(service.BuildStatus{ID: "b-1", State: "running", StartedAt: started}, nil)
			},
			wantStatus: http.StatusAccepted,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp BuildResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if resp.ID != "b-1" || resp.State != "running" || resp.StartedAt != "2024-03-01T10:00:00Z" {
					t.Errorf("response = %+v", resp)
				}
				if resp.FinishedAt != "" {
					t.Errorf("FinishedAt = %q, want empty", resp.FinishedAt)
				}
				if got := w.Header().Get("Location"); got != "/api/builds/b-1" {
					t.Errorf("Location = %q", got)
				}
			},
		},
		{
			name:       "invalid JSON body",
			body:       "invalid json",
			mockSetup:  func(m *mocks.MockBuildService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "validation error",
			body: BuildRequest{Configuration: "Release", Platform: "x64"},
			mockSetup: func(m *mocks.MockBuildService) {
				m.EXPECT().
					StartBuild(gomock.Any(), gomock.Any()).
					Return(service.BuildStatus{}, &service.ValidationError{Field: "solution", Message: "is required"})
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "build in progress",
			body: BuildRequest{Solution: "game.yaml", Configuration: "Release", Platform: "x64"},
			mockSetup: func(m *mocks.MockBuildService) {
				m.EXPECT().
					StartBuild(gomock.Any(), gomock.Any()).
					Return(service.BuildStatus{}, service.ErrBuildInProgress)
			},
			wantStatus: http.StatusConflict,
		},
		{
			name: "service error",
			body: BuildRequest{Solution: "game.yaml", Configuration: "Release", Platform: "x64"},
			mockSetup: func(m *mocks.MockBuildService) {
				m.EXPECT().
					StartBuild(gomock.Any(), gomock.Any()).
					Return(service.BuildStatus{}, errors.New("disk on fire"))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockService := mocks.NewMockBuildService(ctrl)
			tt.mockSetup(mockService)
			handler := NewBuildsHandler(mockService)

			var body []byte
			if s, ok := tt.body.(string); ok {
				body = []byte(s)
			} else {
				body, _ = json.Marshal(tt.body)
			}
			req := httptest.NewRequest(http.MethodPost, "/api/builds", bytes.NewReader(body))
			w := httptest.NewRecorder()

			handler.Start(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Start() status = %v, want %v (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, w)
			}
		})
	}
}

func TestBuildsHandler_Status(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockBuildService(ctrl)
	handler := NewBuildsHandler(mockService)

	finished := time.Date(2024, 3, 1, 10, 0, 5, 0, time.UTC)
	mockService.EXPECT().
		Status(gomock.Any(), "b-1").
		Return(service.BuildStatus{
			ID:         "b-1",
			State:      builder.StateCompleted.String(),
			Percent:    100,
			FinishedAt: finished,
			Summary:    &builder.Summary{Units: 2, Commands: 7},
		}, nil)
	mockService.EXPECT().
		Status(gomock.Any(), "missing").
		Return(service.BuildStatus{}, service.ErrNotFound)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/builds/b-1", nil), "id", "b-1")
	w := httptest.NewRecorder()
	handler.Status(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status() status = %v, want %v", w.Code, http.StatusOK)
	}
	var resp BuildResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.State != "completed" || resp.Summary == nil || resp.Summary.Commands != 7 {
		t.Errorf("response = %+v", resp)
	}
	if resp.FinishedAt != "2024-03-01T10:00:05Z" {
		t.Errorf("FinishedAt = %q", resp.FinishedAt)
	}

	req = withURLParam(httptest.NewRequest(http.MethodGet, "/api/builds/missing", nil), "id", "missing")
	w = httptest.NewRecorder()
	handler.Status(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Status(missing) status = %v, want %v", w.Code, http.StatusNotFound)
	}
}

func TestBuildsHandler_Cancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockBuildService(ctrl)
	handler := NewBuildsHandler(mockService)

	mockService.EXPECT().
		Cancel(gomock.Any(), "b-1").
		Return(service.BuildStatus{ID: "b-1", State: "running", Message: "cancellation requested"}, nil)

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/api/builds/b-1/cancel", nil), "id", "b-1")
	w := httptest.NewRecorder()
	handler.Cancel(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("Cancel() status = %v, want %v", w.Code, http.StatusAccepted)
	}
	var resp BuildResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Message != "cancellation requested" {
		t.Errorf("Message = %q", resp.Message)
	}
}
