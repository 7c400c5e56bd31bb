package engine

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"matchengine/internal/config"
	"matchengine/internal/models"
	"matchengine/pkg/utils"
)

// Listener получает снимок ордера при каждом изменении статуса
//
// Вызывается синхронно из задачи резолюции: долгие операции
// (HTTP к relayer и т.п.) подписчик обязан уносить в свою горутину.
type Listener func(order *models.Order)

// MatchingEngine владеет жизненным циклом ордеров
//
// Submit регистрирует ордер и немедленно возвращается; резолюция
// выполняется асинхронной задачей через Scheduler. Ошибки внутри
// асинхронного пути никогда не возвращаются исходному вызывающему -
// они наблюдаемы только через подписку и счетчики.
//
// Конкурентность:
// - задача резолюции - единственный писатель полей своего ордера
// - разделяемое состояние: индекс ордеров (mu) и кэш резолвера цен
// - read-аксессоры возвращают глубокие копии
type MatchingEngine struct {
	cfg      config.EngineConfig
	resolver *PriceResolver
	sched    *Scheduler
	logger   *zap.Logger

	// Индекс ордеров за все время жизни процесса
	mu     sync.RWMutex
	orders map[string]*models.Order

	// Монотонный счетчик для генерации id
	orderSeq atomic.Int64

	// Подписчики на изменения статусов
	listenerMu  sync.RWMutex
	listeners   map[int]Listener
	listenerSeq int

	closed atomic.Bool
}

// NewMatchingEngine создает движок матчинга
func NewMatchingEngine(cfg config.EngineConfig, resolver *PriceResolver, logger *zap.Logger) *MatchingEngine {
	return &MatchingEngine{
		cfg:       cfg,
		resolver:  resolver,
		sched:     NewScheduler(),
		logger:    logger.Named("engine"),
		orders:    make(map[string]*models.Order),
		listeners: make(map[int]Listener),
	}
}

// ValidateRequest проверяет запрос на границе API
//
// Возвращает *models.ValidationError - единственная синхронная
// ошибка pipeline (HTTP 400 до входа ордера в движок).
func ValidateRequest(req *models.OrderRequest) error {
	if req.UserID == "" {
		return models.NewValidationError("userId", "is required")
	}
	if err := utils.ValidateSymbol(req.Symbol); err != nil {
		return models.NewValidationError("symbol", err.Error())
	}
	if req.Side != models.OrderSideBuy && req.Side != models.OrderSideSell {
		return models.NewValidationError("side", fmt.Sprintf("must be %q or %q", models.OrderSideBuy, models.OrderSideSell))
	}

	switch req.Type {
	case models.OrderTypeMarket, models.OrderTypeLimit,
		models.OrderTypePegMid, models.OrderTypePegBid, models.OrderTypePegAsk:
	default:
		return models.NewValidationError("type", fmt.Sprintf("unknown order type %q", req.Type))
	}

	if err := utils.ValidateQuantity(req.Quantity); err != nil {
		return models.NewValidationError("quantity", err.Error())
	}

	if req.Type == models.OrderTypeLimit {
		if req.Price == nil {
			return models.NewValidationError("price", "is required for limit orders")
		}
		if err := utils.ValidatePrice(*req.Price); err != nil {
			return models.NewValidationError("price", err.Error())
		}
	}

	if req.Leverage != 0 {
		if err := utils.ValidateLeverage(req.Leverage); err != nil {
			return models.NewValidationError("leverage", err.Error())
		}
	}

	return nil
}

// Submit регистрирует ордер и планирует асинхронную резолюцию
//
// Возвращается немедленно со снимком ордера в статусе pending.
// Реальный исход наблюдаем только через подписку или polling.
func (e *MatchingEngine) Submit(req *models.OrderRequest) (*models.Order, error) {
	if e.closed.Load() {
		return nil, models.ErrEngineClosed
	}

	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	now := models.NowMillis()
	seq := e.orderSeq.Add(1)

	leverage := req.Leverage
	if leverage == 0 {
		leverage = 1
	}

	order := &models.Order{
		ID:        fmt.Sprintf("order-%d-%d", seq, now),
		UserID:    req.UserID,
		Symbol:    req.Symbol,
		Side:      req.Side,
		Type:      req.Type,
		Quantity:  req.Quantity,
		Price:     req.Price,
		Leverage:  leverage,
		Timestamp: now,
		Status:    models.OrderStatusPending,
		Fills:     []*models.Trade{},
	}

	e.mu.Lock()
	e.orders[order.ID] = order
	e.mu.Unlock()

	RecordOrderReceived(order.Type, order.Side)

	// Симулированная сетевая задержка матчинга
	var override *float64
	if req.ReferencePrice != nil {
		p := *req.ReferencePrice
		override = &p
	}
	e.sched.AfterFunc(e.cfg.MatchDelay, func() {
		e.resolveOrder(order.ID, override, true)
	})

	e.logger.Debug("order accepted",
		zap.String("order_id", order.ID),
		zap.String("user_id", order.UserID),
		zap.String("symbol", order.Symbol),
		zap.String("type", order.Type),
		zap.String("side", order.Side))

	return order.Clone(), nil
}

// GetOrder возвращает снимок ордера по id
func (e *MatchingEngine) GetOrder(orderID string) (*models.Order, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	order, ok := e.orders[orderID]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	return order.Clone(), nil
}

// GetUserOrders возвращает снимки всех ордеров пользователя
func (e *MatchingEngine) GetUserOrders(userID string) []*models.Order {
	e.mu.RLock()
	defer e.mu.RUnlock()

	result := make([]*models.Order, 0)
	for _, order := range e.orders {
		if order.UserID == userID {
			result = append(result, order.Clone())
		}
	}
	return result
}

// Subscribe регистрирует подписчика на изменения статусов
//
// Возвращает функцию отписки.
func (e *MatchingEngine) Subscribe(listener Listener) func() {
	e.listenerMu.Lock()
	defer e.listenerMu.Unlock()

	e.listenerSeq++
	id := e.listenerSeq
	e.listeners[id] = listener

	return func() {
		e.listenerMu.Lock()
		defer e.listenerMu.Unlock()
		delete(e.listeners, id)
	}
}

// Resolver возвращает резолвер цен (для push-фида и orderbook endpoint)
func (e *MatchingEngine) Resolver() *PriceResolver {
	return e.resolver
}

// MarkSettled завершает жизненный цикл ордера: settled
//
// Вызывается pipeline'ом когда батч с fill'ом ордера рассчитан.
// Каждый fill принадлежит ровно одному батчу, поэтому второго шанса
// у ордера не будет: если батч рассчитался раньше, чем истекла
// задержка settling, промежуточный переход выполняется здесь же
// (matched → settling → settled). Отставший таймер задержки потом
// увидит терминальный статус и не сработает.
func (e *MatchingEngine) MarkSettled(orderID string) {
	order, changed := e.transition(orderID, models.OrderStatusSettled)
	if !changed {
		intermediate, ok := e.transition(orderID, models.OrderStatusSettling)
		if !ok {
			return
		}
		e.notify(intermediate)
		order, changed = e.transition(orderID, models.OrderStatusSettled)
	}
	if changed {
		e.notify(order)
	}
}

// Close останавливает движок: новые ордера не принимаются,
// ожидающие таймеры отменяются, выполняющиеся задачи дожидаются.
func (e *MatchingEngine) Close(ctx context.Context) error {
	e.closed.Store(true)
	return e.sched.Shutdown(ctx)
}

// ============ Асинхронная резолюция ============

// resolveOrder - задача резолюции ордера
//
// firstAttempt=false для повторных проверок limit ордеров:
// симулированный отказ разыгрывается только один раз на ордер,
// иначе вероятность отказа росла бы с каждой проверкой.
func (e *MatchingEngine) resolveOrder(orderID string, override *float64, firstAttempt bool) {
	started := time.Now()

	e.mu.RLock()
	order, ok := e.orders[orderID]
	var status, userID, symbol, side, orderType string
	var limitPrice *float64
	var quantity float64
	if ok {
		status = order.Status
		userID = order.UserID
		symbol = order.Symbol
		side = order.Side
		orderType = order.Type
		quantity = order.Quantity
		if order.Price != nil {
			p := *order.Price
			limitPrice = &p
		}
	}
	e.mu.RUnlock()

	if !ok || !IsOpen(status) {
		return
	}

	// 1. Симулированный отказ биржи (независимо для каждого ордера)
	if firstAttempt && rand.Float64() > e.cfg.FillSuccessRate {
		if o, changed := e.transition(orderID, models.OrderStatusFailed); changed {
			RecordOrderFailed()
			e.logger.Info("order rejected by simulated venue", zap.String("order_id", orderID))
			e.notify(o)
		}
		return
	}

	// 2. Резолюция референсной цены
	quote, err := e.resolver.Resolve(e.sched.Context(), symbol, override)
	if err != nil {
		// Цепочка фолбэков исчерпана - ордер не может быть оценен
		if o, changed := e.transition(orderID, models.OrderStatusFailed); changed {
			RecordOrderFailed()
			e.logger.Warn("order failed: price unavailable",
				zap.String("order_id", orderID),
				zap.String("symbol", symbol))
			e.notify(o)
		}
		return
	}

	// 3. Цена исполнения по типу ордера
	var fillPrice float64
	switch orderType {
	case models.OrderTypeMarket:
		// Направленное проскальзывание моделирует неблагоприятное исполнение
		fillPrice = utils.ApplySlippage(quote.Price, e.cfg.MarketSlippageBps, side == models.OrderSideBuy)

	case models.OrderTypeLimit:
		crossed := (side == models.OrderSideBuy && quote.Price <= *limitPrice) ||
			(side == models.OrderSideSell && quote.Price >= *limitPrice)
		if !crossed {
			// Цена не пересекла лимит: ордер остается pending,
			// повторная проверка по интервалу (0 = отключено)
			if e.cfg.LimitRecheckInterval > 0 {
				e.sched.AfterFunc(e.cfg.LimitRecheckInterval, func() {
					e.resolveOrder(orderID, nil, false)
				})
			}
			return
		}
		// Исполнение по лимитной цене: улучшение цены достается тейкеру
		fillPrice = *limitPrice

	default:
		// peg_mid / peg_bid / peg_ask: референсная цена как прокси
		fillPrice = quote.Price
	}

	// 4. Единственный fill на полный объем
	trade := &models.Trade{
		ID:        "trade-" + uuid.NewString(),
		OrderID:   orderID,
		UserID:    userID,
		Symbol:    symbol,
		Side:      models.NormalizeSide(side),
		Quantity:  quantity,
		Price:     fillPrice,
		Timestamp: models.NowMillis(),
	}

	matched, changed := e.applyFill(orderID, trade)
	if !changed {
		return
	}

	RecordOrderMatched(orderType, symbol, trade.Side, quantity)
	RecordResolutionLatency(float64(time.Since(started).Milliseconds()))
	e.logger.Info("order matched",
		zap.String("order_id", orderID),
		zap.String("trade_id", trade.ID),
		zap.Float64("price", fillPrice),
		zap.Float64("quantity", quantity),
		zap.String("price_source", string(quote.Source)))
	e.notify(matched)

	// 5. Переход в settling после симулированной задержки отправки
	e.sched.AfterFunc(e.cfg.SettleDelay, func() {
		if o, ok := e.transition(orderID, models.OrderStatusSettling); ok {
			e.notify(o)
		}
	})
}

// applyFill атомарно добавляет fill и переводит ордер в matched
func (e *MatchingEngine) applyFill(orderID string, trade *models.Trade) (*models.Order, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	order, ok := e.orders[orderID]
	if !ok || !CanTransition(order.Status, models.OrderStatusMatched) {
		return nil, false
	}

	order.Fills = append(order.Fills, trade)
	order.Status = models.OrderStatusMatched
	return order.Clone(), true
}

// transition выполняет допустимый переход статуса, возвращает снимок
func (e *MatchingEngine) transition(orderID, to string) (*models.Order, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	order, ok := e.orders[orderID]
	if !ok || !CanTransition(order.Status, to) {
		return nil, false
	}

	order.Status = to
	return order.Clone(), true
}

// notify рассылает снимок ордера всем подписчикам
func (e *MatchingEngine) notify(order *models.Order) {
	e.listenerMu.RLock()
	defer e.listenerMu.RUnlock()

	for _, listener := range e.listeners {
		listener(order)
	}
}
