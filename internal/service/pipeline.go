package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"matchengine/internal/config"
	"matchengine/internal/engine"
	"matchengine/internal/models"
	"matchengine/internal/settlement"
	"matchengine/pkg/retry"
)

// ErrRelayerUnavailable - relayer не прошел health check при запуске
var ErrRelayerUnavailable = errors.New("settlement relayer is not available")

// PipelineEngine расширяет OrderEngine подпиской на события
type PipelineEngine interface {
	OrderEngine
	Subscribe(listener engine.Listener) func()
}

// PipelineBatcher расширяет TradeBatcher подпиской на события
type PipelineBatcher interface {
	TradeBatcher
	Subscribe(listener settlement.BatchListener) func()
}

// Pipeline сшивает движок, relayer и батчер в единый поток:
//
//	Submit → engine → matched → [relayer, batcher] → batch settled → engine
//
// Pipeline - единственный подписчик движка и батчера; он же
// транслирует события в WebSocket hub и счетчики статистики.
// Отправка в relayer выполняется отдельной горутиной на каждый fill
// и никогда не блокирует резолюцию ордеров.
type Pipeline struct {
	engine  PipelineEngine
	batcher PipelineBatcher
	relayer TradeRelayer
	stats   *StatsService
	hub     Broadcaster
	cfg     config.RelayerConfig
	logger  *zap.Logger

	unsubEngine func()
	unsubBatch  func()

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPipeline создает pipeline и подписывает его на движок и батчер
//
// hub может быть nil (режим без WebSocket, например в тестах).
func NewPipeline(
	eng PipelineEngine,
	batcher PipelineBatcher,
	relayer TradeRelayer,
	stats *StatsService,
	hub Broadcaster,
	cfg config.RelayerConfig,
	logger *zap.Logger,
) *Pipeline {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pipeline{
		engine:  eng,
		batcher: batcher,
		relayer: relayer,
		stats:   stats,
		hub:     hub,
		cfg:     cfg,
		logger:  logger.Named("pipeline"),
		ctx:     ctx,
		cancel:  cancel,
	}
	p.unsubEngine = eng.Subscribe(p.onOrderUpdate)
	p.unsubBatch = batcher.Subscribe(p.onBatchUpdate)
	return p
}

// SubmitOrder - фасад приема ордера для API слоя
func (p *Pipeline) SubmitOrder(req *models.OrderRequest) (*models.Order, error) {
	order, err := p.engine.Submit(req)
	if err != nil {
		return nil, err
	}
	p.stats.RecordOrderReceived()
	return order, nil
}

// Start проверяет доступность relayer (гейт запуска)
func (p *Pipeline) Start(ctx context.Context) error {
	if !p.relayer.HealthCheck(ctx) {
		return ErrRelayerUnavailable
	}
	p.logger.Info("pipeline started")
	return nil
}

// Stats возвращает снимок агрегированных счетчиков
func (p *Pipeline) Stats() *models.Stats {
	return p.stats.Snapshot()
}

// Close отписывается от событий и дожидается отправок в relayer
func (p *Pipeline) Close(ctx context.Context) error {
	p.unsubEngine()
	p.unsubBatch()
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// onOrderUpdate обрабатывает событие смены статуса ордера
func (p *Pipeline) onOrderUpdate(order *models.Order) {
	switch order.Status {
	case models.OrderStatusMatched:
		p.stats.RecordOrderMatched(order)
		for _, fill := range order.Fills {
			p.batcher.Add(fill)
			trade := fill
			p.wg.Add(1)
			go func() {
				defer p.wg.Done()
				p.submitFill(trade)
			}()
		}
	case models.OrderStatusFailed:
		p.stats.RecordOrderFailed()
	}

	if p.hub != nil {
		p.hub.BroadcastOrderUpdate(order)
		p.hub.BroadcastStatsUpdate(p.stats.Snapshot())
	}
}

// onBatchUpdate обрабатывает событие смены статуса батча
//
// Рассчитанный батч завершает жизненный цикл своих ордеров: каждый
// ордер с fill'ом в батче переводится в settled (движок при
// необходимости доводит и промежуточный переход в settling).
func (p *Pipeline) onBatchUpdate(batch *models.SettlementBatch) {
	if batch.Status == models.BatchStatusSettled {
		for _, trade := range batch.Trades {
			p.engine.MarkSettled(trade.OrderID)
		}
	}

	if p.hub != nil {
		p.hub.BroadcastBatchUpdate(batch)
	}
}

// submitFill отправляет fill в relayer с учетом исхода в статистике
//
// При MaxRetries > 0 временные сбои (сеть, 5xx) повторяются с
// экспоненциальным backoff; ошибки протокола не повторяются.
func (p *Pipeline) submitFill(trade *models.Trade) {
	operation := func() error {
		_, err := p.relayer.SubmitTrade(p.ctx, trade)
		return err
	}

	var err error
	if p.cfg.MaxRetries > 0 {
		cfg := retry.NetworkConfig()
		cfg.MaxRetries = p.cfg.MaxRetries + 1
		cfg.RetryIf = retry.IsRetryable
		cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
			p.logger.Warn("retrying relayer submission",
				zap.String("trade_id", trade.ID),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(err))
		}
		err = retry.Do(p.ctx, operation, cfg)
	} else {
		err = operation()
	}

	success := err == nil
	p.stats.RecordRelayerSubmission(success)
	engine.RecordRelayerSubmission(success)

	if err != nil {
		p.logger.Error("relayer submission failed",
			zap.String("trade_id", trade.ID),
			zap.String("order_id", trade.OrderID),
			zap.Error(err))
		return
	}
	p.logger.Debug("trade relayed",
		zap.String("trade_id", trade.ID),
		zap.String("order_id", trade.OrderID))
}
