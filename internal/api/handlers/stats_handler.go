package handlers

import (
	"net/http"

	"matchengine/internal/models"
)

// StatsProvider отдает снимок агрегированной статистики
type StatsProvider interface {
	Stats() *models.Stats
}

// StatsHandler обрабатывает HTTP запросы статистики движка.
//
// Endpoints:
// - GET /api/v1/stats - агрегированные счетчики + производные метрики
type StatsHandler struct {
	stats StatsProvider
}

// NewStatsHandler создает StatsHandler с внедрением зависимостей
func NewStatsHandler(stats StatsProvider) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// GetStats возвращает агрегированную статистику.
//
// GET /api/v1/stats
//
// Response 200 OK:
//
//	{"ordersReceived": 120, "ordersMatched": 114, "ordersFailed": 6,
//	 "tradesSentToRelayer": 114, "tradesRelayerSuccess": 110,
//	 "tradesRelayerFailed": 4, "totalVolume": 1250000.5,
//	 "averageFillPrice": 103420.1, "uptime": 360000,
//	 "matchRate": 95, "relayerSuccessRate": 96.5, ...}
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if h.stats == nil {
		respondError(w, http.StatusInternalServerError, "stats service not initialized")
		return
	}
	respondJSON(w, http.StatusOK, h.stats.Stats())
}
