package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEngineHandler_Start(t *testing.T) {
	t.Run("healthy relayer returns started", func(t *testing.T) {
		handler := NewEngineHandler(&mockStarter{}, &mockRelayer{healthy: true})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/start", nil)
		w := httptest.NewRecorder()

		handler.Start(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}

		var resp map[string]interface{}
		json.NewDecoder(w.Body).Decode(&resp)
		if resp["status"] != "started" {
			t.Errorf("expected status started, got %v", resp["status"])
		}
	})

	t.Run("unavailable relayer returns 503", func(t *testing.T) {
		handler := NewEngineHandler(&mockStarter{err: errors.New("settlement relayer is not available")}, &mockRelayer{})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/start", nil)
		w := httptest.NewRecorder()

		handler.Start(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", w.Code)
		}
	})
}

func TestEngineHandler_Stop(t *testing.T) {
	handler := NewEngineHandler(&mockStarter{}, &mockRelayer{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stop", nil)
	w := httptest.NewRecorder()

	handler.Stop(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp map[string]interface{}
	json.NewDecoder(w.Body).Decode(&resp)
	if resp["status"] != "stopped" {
		t.Errorf("expected status stopped, got %v", resp["status"])
	}
}

func TestEngineHandler_Health(t *testing.T) {
	tests := []struct {
		name    string
		healthy bool
	}{
		{"relayer healthy", true},
		{"relayer down", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewEngineHandler(&mockStarter{}, &mockRelayer{healthy: tt.healthy})

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			w := httptest.NewRecorder()

			handler.Health(w, req)

			// Liveness не зависит от relayer
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}

			var resp map[string]interface{}
			json.NewDecoder(w.Body).Decode(&resp)
			if resp["relayerHealthy"] != tt.healthy {
				t.Errorf("expected relayerHealthy=%v, got %v", tt.healthy, resp["relayerHealthy"])
			}
		})
	}
}

func TestStatsHandler_GetStats(t *testing.T) {
	t.Run("returns snapshot", func(t *testing.T) {
		handler := NewStatsHandler(&mockStats{stats: statsFixture()})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
		w := httptest.NewRecorder()

		handler.GetStats(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}

		var resp map[string]interface{}
		json.NewDecoder(w.Body).Decode(&resp)
		if resp["ordersReceived"] != float64(10) || resp["matchRate"] != float64(90) {
			t.Errorf("unexpected stats payload: %v", resp)
		}
	})

	t.Run("nil service returns 500", func(t *testing.T) {
		handler := &StatsHandler{}

		req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
		w := httptest.NewRecorder()

		handler.GetStats(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", w.Code)
		}
	})
}

func TestRespondHelpers(t *testing.T) {
	t.Run("respondJSON sets content type", func(t *testing.T) {
		w := httptest.NewRecorder()
		respondJSON(w, http.StatusOK, map[string]string{"test": "value"})

		if ct := w.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %q", ct)
		}
	})

	t.Run("respondError returns error payload", func(t *testing.T) {
		w := httptest.NewRecorder()
		respondError(w, http.StatusBadRequest, "test error")

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
		var resp ErrorResponse
		json.NewDecoder(w.Body).Decode(&resp)
		if resp.Error != "test error" {
			t.Errorf("unexpected error payload: %+v", resp)
		}
	})
}
