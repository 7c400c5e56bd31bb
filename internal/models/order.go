package models

import "time"

// Статусы ордера
//
// Жизненный цикл:
//
//	pending → matched → settling → settled
//	pending → failed
//
// cancelled зарезервирован для будущей поддержки отмены ордеров.
const (
	OrderStatusPending   = "pending"
	OrderStatusMatched   = "matched"
	OrderStatusSettling  = "settling"
	OrderStatusSettled   = "settled"
	OrderStatusFailed    = "failed"
	OrderStatusCancelled = "cancelled"
)

// Направления ордера
const (
	OrderSideBuy  = "buy"
	OrderSideSell = "sell"
)

// Типы ордеров
//
// peg_* типы привязаны к референсной цене (mid/bid/ask).
// В симуляции все peg типы исполняются по референсной цене.
const (
	OrderTypeMarket = "market"
	OrderTypeLimit  = "limit"
	OrderTypePegMid = "peg_mid"
	OrderTypePegBid = "peg_bid"
	OrderTypePegAsk = "peg_ask"
)

// Order представляет торговое намерение пользователя
//
// Мутируется только задачей резолюции внутри движка.
// Fills - append-only список, суммарный объем исполнения
// никогда не превышает Quantity.
type Order struct {
	ID        string   `json:"id"`
	UserID    string   `json:"userId"`
	Symbol    string   `json:"symbol"`
	Side      string   `json:"side"`
	Type      string   `json:"type"`
	Quantity  float64  `json:"quantity"`
	Price     *float64 `json:"price,omitempty"` // лимитная цена (только для limit)
	Leverage  float64  `json:"leverage"`
	Timestamp int64    `json:"timestamp"` // unix millis
	Status    string   `json:"status"`
	Fills     []*Trade `json:"fills"`
}

// FilledQuantity возвращает суммарный исполненный объем
func (o *Order) FilledQuantity() float64 {
	var total float64
	for _, f := range o.Fills {
		total += f.Quantity
	}
	return total
}

// IsTerminal возвращает true если ордер в терминальном статусе
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusSettled ||
		o.Status == OrderStatusFailed ||
		o.Status == OrderStatusCancelled
}

// Clone возвращает глубокую копию ордера
//
// Используется read-аксессорами движка: вызывающий код получает
// снимок состояния и не может конкурировать с задачей резолюции.
func (o *Order) Clone() *Order {
	cp := *o
	if o.Price != nil {
		price := *o.Price
		cp.Price = &price
	}
	cp.Fills = make([]*Trade, len(o.Fills))
	for i, f := range o.Fills {
		fc := *f
		cp.Fills[i] = &fc
	}
	return &cp
}

// OrderRequest - входящий запрос на размещение ордера
type OrderRequest struct {
	UserID   string   `json:"userId"`
	Symbol   string   `json:"symbol"`
	Side     string   `json:"side"`
	Type     string   `json:"type"`
	Quantity float64  `json:"quantity"`
	Price    *float64 `json:"price,omitempty"`
	Leverage float64  `json:"leverage"`

	// ReferencePrice - опциональная наблюденная извне цена (например,
	// снятая фронтендом с графика). Передается резолверу цен как
	// истина в последней инстанции, минуя кэш и внешний источник.
	ReferencePrice *float64 `json:"referencePrice,omitempty"`
}

// OrderResponse - синхронный ответ на размещение ордера
//
// Возвращается до завершения резолюции: статус всегда pending.
// Реальный исход (matched/failed) наблюдаем только через
// WebSocket подписку или polling по id.
type OrderResponse struct {
	OrderID   string `json:"orderId"`
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

// NowMillis возвращает текущее время в unix millis
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
