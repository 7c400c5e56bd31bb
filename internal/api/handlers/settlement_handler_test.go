package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"matchengine/internal/models"
)

func makeBatch(id string, status string, trades int) *models.SettlementBatch {
	batch := &models.SettlementBatch{
		ID:           id,
		Status:       status,
		NetPositions: map[models.PositionKey]float64{},
		CreatedAt:    models.NowMillis(),
	}
	for i := 0; i < trades; i++ {
		batch.Trades = append(batch.Trades, &models.Trade{
			ID:       fmt.Sprintf("trade-%d", i),
			UserID:   "alice",
			Symbol:   "BTC-USDT-PERP",
			Side:     models.TradeSideLong,
			Quantity: 1,
		})
		batch.NetPositions[models.PositionKey{UserID: "alice", Symbol: "BTC-USDT-PERP"}] += 1
	}
	return batch
}

func TestSettlementHandler_GetCurrentBatch(t *testing.T) {
	t.Run("returns accumulating batch with trades", func(t *testing.T) {
		batcher := &mockBatcher{current: makeBatch("batch-1-1", models.BatchStatusAccumulating, 2)}
		handler := NewSettlementHandler(batcher, &mockRelayer{})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/settlement/batches/current", nil)
		w := httptest.NewRecorder()

		handler.GetCurrentBatch(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}

		var resp models.BatchView
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.ID != "batch-1-1" || resp.TradeCount != 2 || len(resp.Trades) != 2 {
			t.Errorf("unexpected batch view: %+v", resp)
		}
	})

	t.Run("no batch returns 404", func(t *testing.T) {
		handler := NewSettlementHandler(&mockBatcher{}, &mockRelayer{})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/settlement/batches/current", nil)
		w := httptest.NewRecorder()

		handler.GetCurrentBatch(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", w.Code)
		}
	})
}

func TestSettlementHandler_GetBatches(t *testing.T) {
	batcher := &mockBatcher{}
	for i := 0; i < 5; i++ {
		batcher.history = append(batcher.history,
			makeBatch(fmt.Sprintf("batch-%d-1", i), models.BatchStatusSettled, 1))
	}
	handler := NewSettlementHandler(batcher, &mockRelayer{})

	t.Run("respects limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/settlement/batches?limit=2", nil)
		w := httptest.NewRecorder()

		handler.GetBatches(w, req)

		var resp struct {
			Batches []models.BatchView `json:"batches"`
			Count   int                `json:"count"`
		}
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Count != 2 || len(resp.Batches) != 2 {
			t.Errorf("expected 2 batches, got %+v", resp)
		}
		// Список батчей без сделок
		if len(resp.Batches[0].Trades) != 0 {
			t.Error("batch list must not include trades")
		}
	})

	t.Run("invalid limit returns 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/settlement/batches?limit=abc", nil)
		w := httptest.NewRecorder()

		handler.GetBatches(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})
}

func TestSettlementHandler_GetSettlementStatus(t *testing.T) {
	t.Run("proxies relayer response", func(t *testing.T) {
		relayer := &mockRelayer{status: &models.SettlementStatusResponse{
			BatchID:    "batch-1-1",
			Status:     "settled",
			TradeCount: 3,
		}}
		handler := NewSettlementHandler(&mockBatcher{}, relayer)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/settlement/status/batch-1-1", nil)
		req = mux.SetURLVars(req, map[string]string{"batchId": "batch-1-1"})
		w := httptest.NewRecorder()

		handler.GetSettlementStatus(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}

		var resp models.SettlementStatusResponse
		json.NewDecoder(w.Body).Decode(&resp)
		if resp.BatchID != "batch-1-1" || resp.TradeCount != 3 {
			t.Errorf("unexpected status: %+v", resp)
		}
	})

	t.Run("relayer failure returns 502", func(t *testing.T) {
		relayer := &mockRelayer{err: fmt.Errorf("connection refused")}
		handler := NewSettlementHandler(&mockBatcher{}, relayer)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/settlement/status/batch-1-1", nil)
		req = mux.SetURLVars(req, map[string]string{"batchId": "batch-1-1"})
		w := httptest.NewRecorder()

		handler.GetSettlementStatus(w, req)

		if w.Code != http.StatusBadGateway {
			t.Errorf("expected 502, got %d", w.Code)
		}
	})
}
