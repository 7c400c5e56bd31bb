package service

import (
	"context"
	"sync"

	"matchengine/internal/engine"
	"matchengine/internal/models"
	"matchengine/internal/settlement"
)

// ============ Моки зависимостей pipeline ============

type mockEngine struct {
	mu          sync.Mutex
	listeners   []engine.Listener
	submitted   []*models.OrderRequest
	settled     []string
	submitErr   error
	submitOrder *models.Order
}

func (m *mockEngine) Submit(req *models.OrderRequest) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	m.submitted = append(m.submitted, req)
	if m.submitOrder != nil {
		return m.submitOrder, nil
	}
	return &models.Order{ID: "order-1-1", Status: models.OrderStatusPending}, nil
}

func (m *mockEngine) GetOrder(orderID string) (*models.Order, error) {
	return nil, models.ErrOrderNotFound
}

func (m *mockEngine) GetUserOrders(userID string) []*models.Order {
	return nil
}

func (m *mockEngine) MarkSettled(orderID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settled = append(m.settled, orderID)
}

func (m *mockEngine) Subscribe(listener engine.Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, listener)
	return func() {}
}

// fire рассылает событие всем подписчикам (имитация движка)
func (m *mockEngine) fire(order *models.Order) {
	m.mu.Lock()
	listeners := append([]engine.Listener(nil), m.listeners...)
	m.mu.Unlock()
	for _, l := range listeners {
		l(order)
	}
}

func (m *mockEngine) settledOrders() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.settled...)
}

type mockBatcher struct {
	mu        sync.Mutex
	listeners []settlement.BatchListener
	added     []*models.Trade
}

func (m *mockBatcher) Add(trade *models.Trade) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.added = append(m.added, trade)
	return "batch-1-1"
}

func (m *mockBatcher) CurrentBatch() *models.SettlementBatch { return nil }

func (m *mockBatcher) GetBatch(batchID string) (*models.SettlementBatch, bool) { return nil, false }

func (m *mockBatcher) Batches() []*models.SettlementBatch { return nil }

func (m *mockBatcher) Subscribe(listener settlement.BatchListener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, listener)
	return func() {}
}

func (m *mockBatcher) fire(batch *models.SettlementBatch) {
	m.mu.Lock()
	listeners := append([]settlement.BatchListener(nil), m.listeners...)
	m.mu.Unlock()
	for _, l := range listeners {
		l(batch)
	}
}

func (m *mockBatcher) addedTrades() []*models.Trade {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.Trade(nil), m.added...)
}

type mockRelayer struct {
	mu        sync.Mutex
	submitted []*models.Trade
	errs      []error // очередь ошибок, nil = успех
	healthy   bool
}

func (m *mockRelayer) SubmitTrade(ctx context.Context, trade *models.Trade) (*models.TradeResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted = append(m.submitted, trade)
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &models.TradeResponse{TradeID: trade.ID, Status: "accepted"}, nil
}

func (m *mockRelayer) GetSettlementStatus(ctx context.Context, batchID string) (*models.SettlementStatusResponse, error) {
	return &models.SettlementStatusResponse{BatchID: batchID, Status: "settled"}, nil
}

func (m *mockRelayer) HealthCheck(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.healthy
}

func (m *mockRelayer) submittedTrades() []*models.Trade {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.Trade(nil), m.submitted...)
}

type mockBroadcaster struct {
	mu      sync.Mutex
	orders  []*models.Order
	batches []*models.SettlementBatch
	stats   []*models.Stats
}

func (m *mockBroadcaster) BroadcastOrderUpdate(order *models.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append(m.orders, order)
}

func (m *mockBroadcaster) BroadcastBatchUpdate(batch *models.SettlementBatch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, batch)
}

func (m *mockBroadcaster) BroadcastStatsUpdate(stats *models.Stats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = append(m.stats, stats)
}

func (m *mockBroadcaster) orderUpdates() []*models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.Order(nil), m.orders...)
}

func (m *mockBroadcaster) batchUpdates() []*models.SettlementBatch {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.SettlementBatch(nil), m.batches...)
}
