// Package api собирает HTTP маршруты движка матчинга.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"matchengine/internal/api/handlers"
	"matchengine/internal/api/middleware"
	"matchengine/internal/engine"
	"matchengine/internal/service"
	"matchengine/internal/websocket"
)

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	Pipeline *service.Pipeline
	Engine   service.OrderEngine
	Batcher  service.TradeBatcher
	Relayer  service.TradeRelayer
	Resolver *engine.PriceResolver
	Hub      *websocket.Hub
	Logger   *zap.Logger
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Структура маршрутов:
//
//	/api/v1/
//	  ├── POST /orders - разместить ордер
//	  ├── GET  /orders/{id} - ордер по id
//	  ├── GET  /orders/user/{userId} - ордера пользователя
//	  ├── POST /prices/{symbol} - протолкнуть цену
//	  ├── GET  /orderbook/{symbol} - синтетический стакан
//	  ├── GET  /stats - статистика движка
//	  ├── GET  /settlement/batches - закрытые батчи
//	  ├── GET  /settlement/batches/current - текущий батч
//	  ├── GET  /settlement/status/{batchId} - статус на relayer
//	  ├── POST /start - гейт запуска
//	  └── POST /stop - подтверждение остановки
//
//	/health - liveness
//	/metrics - Prometheus
//	/ws/stream - WebSocket подписка
//
// Middleware: Recovery → Logging → CORS, ко всем маршрутам.
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	logger := zap.NewNop()
	if deps != nil && deps.Logger != nil {
		logger = deps.Logger
	}

	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logging(logger))
	router.Use(middleware.CORS)

	var orderHandler *handlers.OrderHandler
	if deps != nil && deps.Pipeline != nil && deps.Engine != nil {
		orderHandler = handlers.NewOrderHandler(deps.Pipeline, deps.Engine)
	}

	var priceHandler *handlers.PriceHandler
	if deps != nil && deps.Resolver != nil {
		var hub handlers.PriceBroadcaster
		if deps.Hub != nil {
			hub = deps.Hub
		}
		priceHandler = handlers.NewPriceHandler(deps.Resolver, hub)
	}

	var statsHandler *handlers.StatsHandler
	if deps != nil && deps.Pipeline != nil {
		statsHandler = handlers.NewStatsHandler(deps.Pipeline)
	}

	var settlementHandler *handlers.SettlementHandler
	if deps != nil && deps.Batcher != nil && deps.Relayer != nil {
		settlementHandler = handlers.NewSettlementHandler(deps.Batcher, deps.Relayer)
	}

	var engineHandler *handlers.EngineHandler
	if deps != nil && deps.Pipeline != nil && deps.Relayer != nil {
		engineHandler = handlers.NewEngineHandler(deps.Pipeline, deps.Relayer)
	}

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	if orderHandler != nil {
		api.HandleFunc("/orders", orderHandler.CreateOrder).Methods("POST")
		api.HandleFunc("/orders/user/{userId}", orderHandler.GetUserOrders).Methods("GET")
		api.HandleFunc("/orders/{id}", orderHandler.GetOrder).Methods("GET")
	}

	if priceHandler != nil {
		api.HandleFunc("/prices/{symbol}", priceHandler.UpdatePrice).Methods("POST")
		api.HandleFunc("/orderbook/{symbol}", priceHandler.GetOrderbook).Methods("GET")
	}

	if statsHandler != nil {
		api.HandleFunc("/stats", statsHandler.GetStats).Methods("GET")
	}

	if settlementHandler != nil {
		api.HandleFunc("/settlement/batches/current", settlementHandler.GetCurrentBatch).Methods("GET")
		api.HandleFunc("/settlement/batches", settlementHandler.GetBatches).Methods("GET")
		api.HandleFunc("/settlement/status/{batchId}", settlementHandler.GetSettlementStatus).Methods("GET")
	}

	if engineHandler != nil {
		api.HandleFunc("/start", engineHandler.Start).Methods("POST")
		api.HandleFunc("/stop", engineHandler.Stop).Methods("POST")
		router.HandleFunc("/health", engineHandler.Health).Methods("GET")
	} else {
		router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		}).Methods("GET")
	}

	// Prometheus метрики
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// WebSocket подписка на события
	if deps != nil && deps.Hub != nil {
		hub := deps.Hub
		router.HandleFunc("/ws/stream", func(w http.ResponseWriter, r *http.Request) {
			websocket.ServeWS(hub, w, r)
		})
	}

	return router
}
