package handlers

import (
	"context"
	"net/http"

	"matchengine/internal/models"
)

// PipelineStarter проверяет готовность pipeline к работе
type PipelineStarter interface {
	Start(ctx context.Context) error
}

// RelayerProber проверяет доступность settlement relayer
type RelayerProber interface {
	HealthCheck(ctx context.Context) bool
}

// EngineHandler обрабатывает управляющие запросы движка.
//
// Endpoints:
// - POST /api/v1/start - гейт запуска (требует живой relayer)
// - POST /api/v1/stop - подтверждение остановки
// - GET  /health - liveness + доступность relayer
type EngineHandler struct {
	pipeline PipelineStarter
	relayer  RelayerProber
}

// NewEngineHandler создает EngineHandler с внедрением зависимостей
func NewEngineHandler(pipeline PipelineStarter, relayer RelayerProber) *EngineHandler {
	return &EngineHandler{pipeline: pipeline, relayer: relayer}
}

// Start подтверждает готовность движка.
//
// POST /api/v1/start
//
// Response 200 OK: {"status": "started", "timestamp": ...}
// Response 503 Service Unavailable: relayer недоступен
func (h *EngineHandler) Start(w http.ResponseWriter, r *http.Request) {
	if err := h.pipeline.Start(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "started",
		"timestamp": models.NowMillis(),
	})
}

// Stop подтверждает остановку движка.
//
// POST /api/v1/stop
//
// Фактическая остановка выполняется сигналом процессу; endpoint
// существует для совместимости с оркестрацией фронтенда.
func (h *EngineHandler) Stop(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "stopped",
		"timestamp": models.NowMillis(),
	})
}

// Health возвращает состояние сервиса.
//
// GET /health
//
// Response 200 OK:
//
//	{"status": "ok", "relayerHealthy": true, "timestamp": ...}
//
// Статус всегда 200 пока процесс жив; состояние relayer
// информационное и не влияет на код ответа.
func (h *EngineHandler) Health(w http.ResponseWriter, r *http.Request) {
	relayerHealthy := false
	if h.relayer != nil {
		relayerHealthy = h.relayer.HealthCheck(r.Context())
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"relayerHealthy": relayerHealthy,
		"timestamp":      models.NowMillis(),
	})
}
