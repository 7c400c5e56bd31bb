package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"matchengine/internal/models"
	"matchengine/internal/service"
)

// OrderSubmitter принимает ордера в pipeline
type OrderSubmitter interface {
	SubmitOrder(req *models.OrderRequest) (*models.Order, error)
}

// OrderHandler обрабатывает HTTP запросы ордеров.
//
// Endpoints:
// - POST /api/v1/orders - разместить ордер
// - GET  /api/v1/orders/{id} - ордер по id
// - GET  /api/v1/orders/user/{userId} - ордера пользователя
type OrderHandler struct {
	pipeline OrderSubmitter
	engine   service.OrderEngine
}

// NewOrderHandler создает OrderHandler с внедрением зависимостей
func NewOrderHandler(pipeline OrderSubmitter, engine service.OrderEngine) *OrderHandler {
	return &OrderHandler{pipeline: pipeline, engine: engine}
}

// CreateOrder размещает новый ордер.
//
// POST /api/v1/orders
//
// Request:
//
//	{"userId": "alice", "symbol": "BTC-USDT-PERP", "side": "buy",
//	 "type": "market", "quantity": 0.5, "leverage": 10}
//
// Response 200 OK (ордер принят, резолюция асинхронна):
//
//	{"orderId": "order-1-1730000000000", "status": "pending", "timestamp": 1730000000000}
//
// Response 400 Bad Request: ошибка валидации
// Response 503 Service Unavailable: движок остановлен
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.OrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	order, err := h.pipeline.SubmitOrder(&req)
	if err != nil {
		if models.IsValidationError(err) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(err, models.ErrEngineClosed) {
			respondError(w, http.StatusServiceUnavailable, "engine is shut down")
			return
		}
		respondErrorDetails(w, http.StatusInternalServerError, "failed to submit order", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, models.OrderResponse{
		OrderID:   order.ID,
		Status:    order.Status,
		Timestamp: order.Timestamp,
	})
}

// GetOrder возвращает ордер по id.
//
// GET /api/v1/orders/{id}
//
// Response 200 OK: полный ордер включая fills
// Response 404 Not Found: неизвестный id
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["id"]

	order, err := h.engine.GetOrder(orderID)
	if err != nil {
		if errors.Is(err, models.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, "order not found")
			return
		}
		respondErrorDetails(w, http.StatusInternalServerError, "failed to get order", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// GetUserOrders возвращает все ордера пользователя.
//
// GET /api/v1/orders/user/{userId}
//
// Response 200 OK:
//
//	{"userId": "alice", "orders": [...], "count": 2}
func (h *OrderHandler) GetUserOrders(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	orders := h.engine.GetUserOrders(userID)
	if orders == nil {
		orders = []*models.Order{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"userId": userID,
		"orders": orders,
		"count":  len(orders),
	})
}
