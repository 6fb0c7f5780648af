package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"compdb/internal/registry"
)

type stubStore struct {
	err error
}

func (s stubStore) Load(context.Context) ([]registry.Entry, error) { return nil, s.err }
func (s stubStore) Save(context.Context, []registry.Entry) error   { return s.err }

type stubEntries []registry.Entry

func (s stubEntries) Entries() []registry.Entry { return s }

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		store      registry.Store
		entries    stubEntries
		wantStatus int
		wantState  string
	}{
		{
			name:       "healthy",
			method:     http.MethodGet,
			store:      stubStore{},
			entries:    stubEntries{{Name: "db", LastUpdated: time.Now()}},
			wantStatus: http.StatusOK,
			wantState:  "healthy",
		},
		{
			name:       "stale database is degraded",
			method:     http.MethodGet,
			store:      stubStore{},
			entries:    stubEntries{{Name: "db"}},
			wantStatus: http.StatusOK,
			wantState:  "degraded",
		},
		{
			name:       "unreadable store",
			method:     http.MethodGet,
			store:      stubStore{err: errors.New("corrupt")},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "unhealthy",
		},
		{
			name:       "method not allowed",
			method:     http.MethodPost,
			store:      stubStore{},
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.store, tt.entries)
			req := httptest.NewRequest(tt.method, "/api/health", nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("ServeHTTP() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if tt.wantState == "" {
				return
			}
			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Status != tt.wantState {
				t.Errorf("Status = %q, want %q (issues %v)", resp.Status, tt.wantState, resp.Issues)
			}
		})
	}
}
