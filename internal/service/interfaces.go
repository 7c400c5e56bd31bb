// Package service связывает движок матчинга, батчер и relayer
// в единый pipeline и агрегирует статистику.
package service

import (
	"context"

	"matchengine/internal/models"
)

// OrderEngine - интерфейс движка матчинга для pipeline и хендлеров
type OrderEngine interface {
	Submit(req *models.OrderRequest) (*models.Order, error)
	GetOrder(orderID string) (*models.Order, error)
	GetUserOrders(userID string) []*models.Order
	MarkSettled(orderID string)
}

// TradeBatcher - интерфейс settlement батчера
type TradeBatcher interface {
	Add(trade *models.Trade) string
	CurrentBatch() *models.SettlementBatch
	GetBatch(batchID string) (*models.SettlementBatch, bool)
	Batches() []*models.SettlementBatch
}

// TradeRelayer - интерфейс клиента settlement relayer
type TradeRelayer interface {
	SubmitTrade(ctx context.Context, trade *models.Trade) (*models.TradeResponse, error)
	GetSettlementStatus(ctx context.Context, batchID string) (*models.SettlementStatusResponse, error)
	HealthCheck(ctx context.Context) bool
}

// Broadcaster - интерфейс отправки обновлений через WebSocket
type Broadcaster interface {
	BroadcastOrderUpdate(order *models.Order)
	BroadcastBatchUpdate(batch *models.SettlementBatch)
	BroadcastStatsUpdate(stats *models.Stats)
}
