package settlement

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"matchengine/internal/config"
	"matchengine/internal/engine"
	"matchengine/internal/models"
)

// BatchListener получает снимок батча при смене статуса
// (settling при закрытии, settled после задержки расчета)
type BatchListener func(batch *models.SettlementBatch)

// Batcher аккумулирует рассчитанные сделки в settlement батчи
//
// Батч создается лениво при первой сделке и закрывается первым из
// двух событий: достигнут потолок размера или истекло окно
// аккумуляции. Закрытие идемпотентно - таймер, сработавший после
// закрытия по размеру, не трогает уже закрытый батч.
//
// Нетто-позиции (пользователь, символ) поддерживаются инкрементально
// при каждом добавлении, а не пересчетом на закрытии.
type Batcher struct {
	cfg    config.BatchConfig
	logger *zap.Logger

	mu       sync.Mutex
	current  *models.SettlementBatch
	history  []*models.SettlementBatch
	byID     map[string]*models.SettlementBatch
	batchSeq int64

	windowTimer *time.Timer

	listenerMu  sync.RWMutex
	listeners   map[int]BatchListener
	listenerSeq int

	wg     sync.WaitGroup
	closed atomic.Bool
}

// NewBatcher создает батчер
func NewBatcher(cfg config.BatchConfig, logger *zap.Logger) *Batcher {
	return &Batcher{
		cfg:       cfg,
		logger:    logger.Named("batcher"),
		history:   make([]*models.SettlementBatch, 0),
		byID:      make(map[string]*models.SettlementBatch),
		listeners: make(map[int]BatchListener),
	}
}

// Add добавляет сделку в текущий батч
//
// Возвращает id батча, в который попала сделка. После Close
// сделки молча отбрасываются (пустой id).
func (b *Batcher) Add(trade *models.Trade) string {
	if b.closed.Load() {
		return ""
	}

	b.mu.Lock()

	// Закрытый батч остается текущим на время расчета;
	// новая сделка в этот момент открывает следующий батч
	if b.current == nil || b.current.Status != models.BatchStatusAccumulating {
		b.openBatchLocked()
	}
	batch := b.current
	batch.Trades = append(batch.Trades, trade)

	key := models.PositionKey{UserID: trade.UserID, Symbol: trade.Symbol}
	batch.NetPositions[key] += trade.SignedQuantity()

	var closed *models.SettlementBatch
	if len(batch.Trades) >= b.cfg.MaxBatchSize {
		closed = b.closeCurrentLocked("size")
	}
	b.mu.Unlock()

	if closed != nil {
		b.notify(closed)
	}
	return batch.ID
}

// CurrentBatch возвращает снимок текущего батча
// (аккумулирующегося или ожидающего расчета)
func (b *Batcher) CurrentBatch() *models.SettlementBatch {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return nil
	}
	return b.current.Clone()
}

// GetBatch возвращает снимок батча по id (текущий или из истории)
func (b *Batcher) GetBatch(batchID string) (*models.SettlementBatch, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	batch, ok := b.byID[batchID]
	if !ok {
		return nil, false
	}
	return batch.Clone(), true
}

// Batches возвращает снимки рассчитанных батчей, новые первыми
func (b *Batcher) Batches() []*models.SettlementBatch {
	b.mu.Lock()
	defer b.mu.Unlock()
	result := make([]*models.SettlementBatch, 0, len(b.history))
	for i := len(b.history) - 1; i >= 0; i-- {
		result = append(result, b.history[i].Clone())
	}
	return result
}

// Subscribe регистрирует подписчика на смены статусов батчей
func (b *Batcher) Subscribe(listener BatchListener) func() {
	b.listenerMu.Lock()
	defer b.listenerMu.Unlock()

	b.listenerSeq++
	id := b.listenerSeq
	b.listeners[id] = listener

	return func() {
		b.listenerMu.Lock()
		defer b.listenerMu.Unlock()
		delete(b.listeners, id)
	}
}

// Flush принудительно закрывает текущий батч (остановка сервиса)
func (b *Batcher) Flush() {
	b.mu.Lock()
	closed := b.closeCurrentLocked("flush")
	b.mu.Unlock()

	if closed != nil {
		b.notify(closed)
	}
}

// Close останавливает батчер: текущий батч закрывается,
// задачи расчета дожидаются в пределах ctx.
func (b *Batcher) Close(ctx context.Context) error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}

	b.Flush()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// openBatchLocked создает новый аккумулирующийся батч; вызывать под mu
func (b *Batcher) openBatchLocked() {
	b.batchSeq++
	batch := &models.SettlementBatch{
		ID:           fmt.Sprintf("batch-%d-%d", b.batchSeq, models.NowMillis()),
		Trades:       make([]*models.Trade, 0, b.cfg.MaxBatchSize),
		NetPositions: make(map[models.PositionKey]float64),
		Status:       models.BatchStatusAccumulating,
		CreatedAt:    models.NowMillis(),
	}
	b.current = batch
	b.byID[batch.ID] = batch

	// Окно аккумуляции: батч закроется по таймеру, если раньше
	// не наберет потолок размера
	b.windowTimer = time.AfterFunc(b.cfg.Window, func() {
		b.mu.Lock()
		var closed *models.SettlementBatch
		if b.current == batch {
			closed = b.closeCurrentLocked("window")
		}
		b.mu.Unlock()

		if closed != nil {
			b.notify(closed)
		}
	})
}

// closeCurrentLocked закрывает текущий батч; вызывать под mu.
// Пустой батч отбрасывается без расчета. Идемпотентно.
// Батч остается текущим до завершения расчета; в историю он
// попадает только со статусом settled.
// Возвращает снимок для нотификации - рассылать после снятия mu.
func (b *Batcher) closeCurrentLocked(reason string) *models.SettlementBatch {
	batch := b.current
	if batch == nil || batch.Status != models.BatchStatusAccumulating {
		return nil
	}

	if b.windowTimer != nil {
		b.windowTimer.Stop()
		b.windowTimer = nil
	}

	if len(batch.Trades) == 0 {
		b.current = nil
		delete(b.byID, batch.ID)
		return nil
	}

	batch.Status = models.BatchStatusSettling

	b.logger.Info("batch closed",
		zap.String("batch_id", batch.ID),
		zap.String("reason", reason),
		zap.Int("trades", len(batch.Trades)),
		zap.Int("net_positions", len(batch.NetPositions)))

	// Симулированная задержка расчета on-chain
	b.wg.Add(1)
	time.AfterFunc(b.cfg.SettleDelay, func() {
		defer b.wg.Done()
		b.settle(batch.ID)
	})

	return batch.Clone()
}

// settle переводит батч settling → settled
func (b *Batcher) settle(batchID string) {
	b.mu.Lock()
	batch, ok := b.byID[batchID]
	if !ok || batch.Status != models.BatchStatusSettling {
		b.mu.Unlock()
		return
	}
	batch.Status = models.BatchStatusSettled
	batch.SettledAt = models.NowMillis()
	b.appendHistoryLocked(batch)
	if b.current == batch {
		b.current = nil
	}
	snapshot := batch.Clone()
	b.mu.Unlock()

	engine.RecordBatchSettled(len(snapshot.Trades))
	b.logger.Info("batch settled",
		zap.String("batch_id", batchID),
		zap.Int("trades", len(snapshot.Trades)))

	b.notify(snapshot)
}

// appendHistoryLocked добавляет батч в историю с вытеснением старых
func (b *Batcher) appendHistoryLocked(batch *models.SettlementBatch) {
	b.history = append(b.history, batch)
	for len(b.history) > b.cfg.HistoryLimit {
		evicted := b.history[0]
		b.history = b.history[1:]
		delete(b.byID, evicted.ID)
	}
}

func (b *Batcher) notify(batch *models.SettlementBatch) {
	b.listenerMu.RLock()
	defer b.listenerMu.RUnlock()
	for _, listener := range b.listeners {
		listener(batch)
	}
}
