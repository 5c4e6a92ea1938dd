package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHealthHandler_Healthz(t *testing.T) {
	h := NewHealthHandler(zap.NewNop())

	w := httptest.NewRecorder()
	h.HandleHealthz(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var report HealthReport
	require.NoError(t, json.NewDecoder(w.Body).Decode(&report))
	assert.Equal(t, "ok", report.Status)
	assert.False(t, report.CheckedAt.IsZero())
	assert.Empty(t, report.Components)
}

func TestHealthHandler_Ready(t *testing.T) {
	ok := func(context.Context) error { return nil }
	refused := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name       string
		checks     []HealthCheck
		wantStatus int
		wantState  string
	}{
		{name: "no checks", wantStatus: http.StatusOK, wantState: "ok"},
		{
			name:       "all pass",
			checks:     []HealthCheck{NewPingCheck("cache", ok), NewPingCheck("store", ok)},
			wantStatus: http.StatusOK,
			wantState:  "ok",
		},
		{
			name:       "store down",
			checks:     []HealthCheck{NewPingCheck("cache", ok), NewPingCheck("store", refused)},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "unavailable",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(nil)
			for _, c := range tt.checks {
				h.RegisterCheck(c)
			}

			w := httptest.NewRecorder()
			h.HandleReady(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			var report HealthReport
			require.NoError(t, json.NewDecoder(w.Body).Decode(&report))
			assert.Equal(t, tt.wantState, report.Status)
			assert.Len(t, report.Components, len(tt.checks))
			if tt.wantState == "unavailable" {
				assert.False(t, report.Components["store"].OK)
				assert.Equal(t, "connection refused", report.Components["store"].Error)
				assert.True(t, report.Components["cache"].OK)
			}
		})
	}
}

func TestHealthHandler_ReadyTimeout(t *testing.T) {
	h := NewHealthHandler(nil)
	h.SetTimeout(20 * time.Millisecond)
	h.RegisterCheck(NewPingCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	w := httptest.NewRecorder()
	h.HandleReady(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "deadline exceeded")
}

func TestHealthHandler_Version(t *testing.T) {
	h := NewHealthHandler(zap.NewNop())
	w := httptest.NewRecorder()
	h.HandleVersion("1.2.3", "2024-01-01", "abc123")(w, httptest.NewRequest(http.MethodGet, "/version", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "1.2.3", data["version"])
	assert.Equal(t, "abc123", data["git_commit"])
}
