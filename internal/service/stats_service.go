package service

import (
	"sync"

	"matchengine/internal/models"
)

// StatsService агрегирует счетчики работы движка.
//
// Счетчики наполняются pipeline'ом из потока событий, а не чтением
// внутреннего состояния движка. Производные метрики (uptime,
// matchRate, relayerSuccessRate) вычисляются на момент снимка.
type StatsService struct {
	mu    sync.Mutex
	stats models.Stats
}

// NewStatsService создает сервис статистики
func NewStatsService() *StatsService {
	return &StatsService{
		stats: models.Stats{StartTime: models.NowMillis()},
	}
}

// RecordOrderReceived учитывает принятый ордер
func (s *StatsService) RecordOrderReceived() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.OrdersReceived++
	s.stats.LastOrderTime = models.NowMillis()
}

// RecordOrderMatched учитывает исполненный ордер и его fills
func (s *StatsService) RecordOrderMatched(order *models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.OrdersMatched++
	for _, fill := range order.Fills {
		s.stats.TotalVolume += fill.Quantity * fill.Price
		s.stats.TotalQuantityFilled += fill.Quantity
	}
	if s.stats.TotalQuantityFilled > 0 {
		s.stats.AverageFillPrice = s.stats.TotalVolume / s.stats.TotalQuantityFilled
	}
}

// RecordOrderFailed учитывает отказ матчинга
func (s *StatsService) RecordOrderFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.OrdersFailed++
}

// RecordRelayerSubmission учитывает исход отправки сделки в relayer
func (s *StatsService) RecordRelayerSubmission(success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.TradesSentToRelayer++
	if success {
		s.stats.TradesRelayerOK++
	} else {
		s.stats.TradesRelayerFailed++
	}
}

// Snapshot возвращает копию статистики с производными метриками
func (s *StatsService) Snapshot() *models.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.stats
	snapshot.UptimeMs = models.NowMillis() - s.stats.StartTime
	if s.stats.OrdersReceived > 0 {
		snapshot.MatchRate = float64(s.stats.OrdersMatched) / float64(s.stats.OrdersReceived) * 100
	}
	if s.stats.TradesSentToRelayer > 0 {
		snapshot.RelayerSuccessRate = float64(s.stats.TradesRelayerOK) / float64(s.stats.TradesSentToRelayer) * 100
	}
	return &snapshot
}
