package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"matchengine/internal/engine"
	"matchengine/internal/models"
	"matchengine/pkg/utils"
)

// PriceBroadcaster рассылает обновления цен подписчикам
type PriceBroadcaster interface {
	BroadcastPriceUpdate(symbol string, price float64)
}

// PriceHandler обрабатывает HTTP запросы цен и стакана.
//
// Endpoints:
// - POST /api/v1/prices/{symbol} - протолкнуть наблюденную цену
// - GET  /api/v1/orderbook/{symbol} - синтетический стакан
type PriceHandler struct {
	resolver *engine.PriceResolver
	hub      PriceBroadcaster // может быть nil
}

// NewPriceHandler создает PriceHandler с внедрением зависимостей
func NewPriceHandler(resolver *engine.PriceResolver, hub PriceBroadcaster) *PriceHandler {
	return &PriceHandler{resolver: resolver, hub: hub}
}

// priceUpdateRequest - тело POST /prices/{symbol}
type priceUpdateRequest struct {
	Price float64 `json:"price"`
}

// UpdatePrice записывает наблюденную извне цену в кэш резолвера.
//
// POST /api/v1/prices/{symbol}
//
// Request:  {"price": 111500}
// Response: {"symbol": "BTC-USDT-PERP", "price": 111500, "timestamp": ...}
//
// Response 400 Bad Request: неположительная цена или плохой символ
func (h *PriceHandler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	if err := utils.ValidateSymbol(symbol); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req priceUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := utils.ValidatePrice(req.Price); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.resolver.UpdatePrice(symbol, req.Price)
	if h.hub != nil {
		h.hub.BroadcastPriceUpdate(symbol, req.Price)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":    symbol,
		"price":     req.Price,
		"timestamp": models.NowMillis(),
	})
}

// GetOrderbook возвращает синтетический стакан вокруг текущей цены.
//
// GET /api/v1/orderbook/{symbol}
//
// Response 200 OK:
//
//	{"symbol": "BTC-USDT-PERP", "price": 111500, "source": "cache",
//	 "bids": [...], "asks": [...], "timestamp": ...}
//
// Response 503 Service Unavailable: цена недоступна
func (h *PriceHandler) GetOrderbook(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	if err := utils.ValidateSymbol(symbol); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	quote, err := h.resolver.Resolve(r.Context(), symbol, nil)
	if err != nil {
		if errors.Is(err, models.ErrPriceUnavailable) {
			respondError(w, http.StatusServiceUnavailable, "price unavailable for symbol")
			return
		}
		respondErrorDetails(w, http.StatusInternalServerError, "failed to resolve price", err.Error())
		return
	}

	depth := engine.GenerateOrderbookDepth(symbol, quote.Price)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":    symbol,
		"price":     quote.Price,
		"source":    quote.Source,
		"bids":      depth.Bids,
		"asks":      depth.Asks,
		"timestamp": models.NowMillis(),
	})
}
