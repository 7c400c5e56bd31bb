package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"matchengine/internal/service"
)

const (
	defaultBatchLimit = 20
	maxBatchLimit     = 100
)

// SettlementHandler обрабатывает HTTP запросы settlement батчей.
//
// Endpoints:
// - GET /api/v1/settlement/batches/current - текущий батч
// - GET /api/v1/settlement/batches?limit=N - рассчитанные батчи
// - GET /api/v1/settlement/status/{batchId} - статус на стороне relayer
type SettlementHandler struct {
	batcher service.TradeBatcher
	relayer service.TradeRelayer
}

// NewSettlementHandler создает SettlementHandler с внедрением зависимостей
func NewSettlementHandler(batcher service.TradeBatcher, relayer service.TradeRelayer) *SettlementHandler {
	return &SettlementHandler{batcher: batcher, relayer: relayer}
}

// GetCurrentBatch возвращает текущий батч
// (аккумулирующийся или ожидающий расчета).
//
// GET /api/v1/settlement/batches/current
//
// Response 200 OK: батч со сделками и нетто-позициями
// Response 404 Not Found: нет открытого батча
func (h *SettlementHandler) GetCurrentBatch(w http.ResponseWriter, r *http.Request) {
	batch := h.batcher.CurrentBatch()
	if batch == nil {
		respondError(w, http.StatusNotFound, "no current batch")
		return
	}
	respondJSON(w, http.StatusOK, batch.View(true))
}

// GetBatches возвращает рассчитанные батчи, новые первыми.
//
// GET /api/v1/settlement/batches?limit=20
//
// Response 200 OK: {"batches": [...], "count": N}
func (h *SettlementHandler) GetBatches(w http.ResponseWriter, r *http.Request) {
	limit := defaultBatchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > maxBatchLimit {
		limit = maxBatchLimit
	}

	batches := h.batcher.Batches()
	if len(batches) > limit {
		batches = batches[:limit]
	}

	views := make([]interface{}, 0, len(batches))
	for _, batch := range batches {
		views = append(views, batch.View(false))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"batches": views,
		"count":   len(views),
	})
}

// GetSettlementStatus запрашивает статус батча у relayer.
//
// GET /api/v1/settlement/status/{batchId}
//
// Проксирует запрос в relayer без кэширования: источник истины
// о расчете - сам relayer.
//
// Response 200 OK: ответ relayer как есть
// Response 502 Bad Gateway: relayer недоступен или ответил ошибкой
func (h *SettlementHandler) GetSettlementStatus(w http.ResponseWriter, r *http.Request) {
	batchID := mux.Vars(r)["batchId"]

	status, err := h.relayer.GetSettlementStatus(r.Context(), batchID)
	if err != nil {
		respondErrorDetails(w, http.StatusBadGateway, "failed to query settlement relayer", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, status)
}
