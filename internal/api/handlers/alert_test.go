package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sentinelops/triage/internal/api/middleware"
	"github.com/sentinelops/triage/internal/breaker"
	"github.com/sentinelops/triage/internal/config"
	"github.com/sentinelops/triage/internal/domain/alert"
	"github.com/sentinelops/triage/internal/pkg/logger"
	"github.com/sentinelops/triage/internal/pkg/validator"
	"github.com/sentinelops/triage/internal/services"
	"github.com/sentinelops/triage/internal/testutil"
)

func newAlertHandler(repo *testutil.MockAlertRepository) *AlertHandler {
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	brk := breaker.New(func() config.BreakerConfig {
		return config.BreakerConfig{
			FalsePositiveRatio: 0.20,
			ErrorRatio:         0.30,
			Window:             time.Hour,
			MinResolved:        5,
			MinAttempts:        5,
		}
	}, log)
	return NewAlertHandler(services.NewAlertService(repo, brk, log), log, validator.New())
}

func seedTestAlert(repo *testutil.MockAlertRepository, id string) {
	repo.Alerts[id] = &alert.Alert{
		ID:          id,
		ThreatType:  alert.ThreatAccountCompromise,
		EntityID:    "user-1",
		EntityKind:  "user",
		Confidence:  85,
		BlastRadius: alert.RadiusSingleUser,
		Outcome:     alert.OutcomeUnknown,
		CreatedAt:   time.Now(),
	}
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestAlertHandler_List(t *testing.T) {
	repo := testutil.NewMockAlertRepository()
	handler := newAlertHandler(repo)
	seedTestAlert(repo, "alert-1")
	seedTestAlert(repo, "alert-2")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts?page=1&page_size=10", nil)
	rr := httptest.NewRecorder()

	handler.List(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var response struct {
		Success bool `json:"success"`
		Data    struct {
			Data       []json.RawMessage `json:"data"`
			TotalItems int64             `json:"total_items"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !response.Success || response.Data.TotalItems != 2 {
		t.Errorf("response = %+v", response)
	}
}

func TestAlertHandler_Get(t *testing.T) {
	repo := testutil.NewMockAlertRepository()
	handler := newAlertHandler(repo)
	seedTestAlert(repo, "alert-1")

	tests := []struct {
		name           string
		alertID        string
		expectedStatus int
	}{
		{"existing alert", "alert-1", http.StatusOK},
		{"missing alert", "alert-404", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts/"+tt.alertID, nil)
			req = withURLParam(req, "id", tt.alertID)
			rr := httptest.NewRecorder()

			handler.Get(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.expectedStatus)
			}
		})
	}
}

func TestAlertHandler_Resolve(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
	}{
		{"valid outcome", `{"outcome":"false_positive"}`, http.StatusOK},
		{"invalid outcome", `{"outcome":"maybe"}`, http.StatusBadRequest},
		{"empty body", `{}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := testutil.NewMockAlertRepository()
			handler := newAlertHandler(repo)
			seedTestAlert(repo, "alert-1")

			req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts/alert-1/outcome",
				bytes.NewBufferString(tt.body))
			req = req.WithContext(context.WithValue(req.Context(), middleware.AnalystIDKey, int64(7)))
			req = withURLParam(req, "id", "alert-1")
			rr := httptest.NewRecorder()

			handler.Resolve(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d, body %s", rr.Code, tt.expectedStatus, rr.Body.String())
			}
		})
	}
}

func TestAlertHandler_ResolveTwiceConflicts(t *testing.T) {
	repo := testutil.NewMockAlertRepository()
	handler := newAlertHandler(repo)
	seedTestAlert(repo, "alert-1")

	resolve := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts/alert-1/outcome",
			bytes.NewBufferString(`{"outcome":"true_positive"}`))
		req = req.WithContext(context.WithValue(req.Context(), middleware.AnalystIDKey, int64(7)))
		req = withURLParam(req, "id", "alert-1")
		rr := httptest.NewRecorder()
		handler.Resolve(rr, req)
		return rr
	}

	if rr := resolve(); rr.Code != http.StatusOK {
		t.Fatalf("first resolve status = %d", rr.Code)
	}
	if rr := resolve(); rr.Code != http.StatusConflict {
		t.Errorf("second resolve status = %d, want %d", rr.Code, http.StatusConflict)
	}
}
