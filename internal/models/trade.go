package models

// Нормализованные направления позиции
//
// Словарь отличается от направлений ордера (buy/sell) намеренно:
// fill описывает направление позиции, а не сторону заявки.
const (
	TradeSideLong  = "LONG"
	TradeSideShort = "SHORT"
)

// Trade - экономический результат успешного матчинга (fill)
//
// Неизменяем после создания. Создается движком, далее принадлежит
// списку fills ордера и текущему батчу (по ссылке на id, не как
// разделяемый мутабельный объект).
type Trade struct {
	ID        string  `json:"id"`
	OrderID   string  `json:"orderId"`
	UserID    string  `json:"userId"`
	Symbol    string  `json:"symbol"`
	Side      string  `json:"side"` // LONG / SHORT
	Quantity  float64 `json:"quantity"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"` // unix millis
}

// SignedQuantity возвращает объем со знаком направления
// (+ для LONG, - для SHORT). Используется при расчете нетто-позиций.
func (t *Trade) SignedQuantity() float64 {
	if t.Side == TradeSideShort {
		return -t.Quantity
	}
	return t.Quantity
}

// NormalizeSide переводит направление ордера в направление позиции
func NormalizeSide(orderSide string) string {
	if orderSide == OrderSideSell {
		return TradeSideShort
	}
	return TradeSideLong
}

// ============ Wire-типы протокола settlement relayer ============

// TradeRequest - схема отправки сделки в settlement relayer
//
// Поля в snake_case согласно протоколу relayer (HTTP POST /trades).
type TradeRequest struct {
	UserID    string  `json:"user_id"`
	Symbol    string  `json:"symbol"`
	Side      string  `json:"side"`
	Quantity  float64 `json:"quantity"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"`
	TradeID   string  `json:"trade_id,omitempty"`
}

// TradeResponse - подтверждение приема сделки relayer'ом
type TradeResponse struct {
	TradeID string `json:"trade_id"`
	Status  string `json:"status"`
}

// SettlementStatusResponse - статус батча на стороне relayer
type SettlementStatusResponse struct {
	BatchID     string `json:"batch_id"`
	Status      string `json:"status"`
	TxSignature string `json:"tx_signature,omitempty"`
	TradeCount  int    `json:"trade_count"`
	CreatedAt   string `json:"created_at"`
}

// NewTradeRequest конвертирует внутренний Trade в wire-формат relayer
func NewTradeRequest(t *Trade) *TradeRequest {
	return &TradeRequest{
		UserID:    t.UserID,
		Symbol:    t.Symbol,
		Side:      t.Side,
		Quantity:  t.Quantity,
		Price:     t.Price,
		Timestamp: t.Timestamp,
		TradeID:   t.ID,
	}
}
