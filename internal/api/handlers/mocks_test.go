package handlers

import (
	"context"
	"errors"

	"matchengine/internal/models"
)

// ============ Моки сервисов для handler тестов ============

type mockSubmitter struct {
	lastReq *models.OrderRequest
	order   *models.Order
	err     error
}

func (m *mockSubmitter) SubmitOrder(req *models.OrderRequest) (*models.Order, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

type mockEngine struct {
	orders map[string]*models.Order
}

func newMockEngine(orders ...*models.Order) *mockEngine {
	m := &mockEngine{orders: make(map[string]*models.Order)}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *mockEngine) Submit(req *models.OrderRequest) (*models.Order, error) {
	return nil, errors.New("not implemented")
}

func (m *mockEngine) GetOrder(orderID string) (*models.Order, error) {
	order, ok := m.orders[orderID]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	return order, nil
}

func (m *mockEngine) GetUserOrders(userID string) []*models.Order {
	var result []*models.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			result = append(result, o)
		}
	}
	return result
}

func (m *mockEngine) MarkSettled(orderID string) {}

type mockBatcher struct {
	current *models.SettlementBatch
	history []*models.SettlementBatch
}

func (m *mockBatcher) Add(trade *models.Trade) string { return "" }

func (m *mockBatcher) CurrentBatch() *models.SettlementBatch { return m.current }

func (m *mockBatcher) GetBatch(batchID string) (*models.SettlementBatch, bool) {
	for _, b := range m.history {
		if b.ID == batchID {
			return b, true
		}
	}
	return nil, false
}

func (m *mockBatcher) Batches() []*models.SettlementBatch { return m.history }

type mockRelayer struct {
	status  *models.SettlementStatusResponse
	err     error
	healthy bool
}

func (m *mockRelayer) SubmitTrade(ctx context.Context, trade *models.Trade) (*models.TradeResponse, error) {
	return nil, errors.New("not implemented")
}

func (m *mockRelayer) GetSettlementStatus(ctx context.Context, batchID string) (*models.SettlementStatusResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.status, nil
}

func (m *mockRelayer) HealthCheck(ctx context.Context) bool { return m.healthy }

type mockStats struct {
	stats *models.Stats
}

func (m *mockStats) Stats() *models.Stats { return m.stats }

func statsFixture() *models.Stats {
	return &models.Stats{
		OrdersReceived:      10,
		OrdersMatched:       9,
		OrdersFailed:        1,
		TradesSentToRelayer: 9,
		TradesRelayerOK:     9,
		MatchRate:           90,
		RelayerSuccessRate:  100,
	}
}

type mockStarter struct {
	err error
}

func (m *mockStarter) Start(ctx context.Context) error { return m.err }

type mockPriceBroadcaster struct {
	symbols []string
	prices  []float64
}

func (m *mockPriceBroadcaster) BroadcastPriceUpdate(symbol string, price float64) {
	m.symbols = append(m.symbols, symbol)
	m.prices = append(m.prices, price)
}
