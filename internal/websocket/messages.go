package websocket

import (
	"matchengine/internal/models"
)

// MessageType определяет тип WebSocket сообщения
type MessageType string

// Типы WebSocket сообщений
const (
	// MessageTypeOrderUpdate - смена статуса ордера
	// Отправляется на каждом переходе: matched, settling, settled, failed
	MessageTypeOrderUpdate MessageType = "order_update"

	// MessageTypeBatchUpdate - смена статуса settlement батча
	// Отправляется при закрытии батча и после расчета
	MessageTypeBatchUpdate MessageType = "batch_update"

	// MessageTypeStatsUpdate - обновление агрегированной статистики
	// Отправляется вслед за каждым событием ордера
	MessageTypeStatsUpdate MessageType = "stats_update"

	// MessageTypePriceUpdate - новая референсная цена символа
	MessageTypePriceUpdate MessageType = "price_update"
)

// OrderUpdateMessage - сообщение о смене статуса ордера
//
// Содержит полный снимок ордера включая fills: подписчик всегда
// видит консистентное состояние, а не дельту.
type OrderUpdateMessage struct {
	Type      MessageType   `json:"type"`
	Timestamp int64         `json:"timestamp"`
	Order     *models.Order `json:"order"`
}

// BatchUpdateMessage - сообщение о смене статуса батча
//
// Сделки батча не включаются (могут быть объемными), только
// счетчик и нетто-позиции.
type BatchUpdateMessage struct {
	Type      MessageType       `json:"type"`
	Timestamp int64             `json:"timestamp"`
	Batch     *models.BatchView `json:"batch"`
}

// StatsUpdateMessage - сообщение со статистикой движка
type StatsUpdateMessage struct {
	Type      MessageType   `json:"type"`
	Timestamp int64         `json:"timestamp"`
	Stats     *models.Stats `json:"stats"`
}

// PriceUpdateMessage - сообщение о новой референсной цене
type PriceUpdateMessage struct {
	Type      MessageType `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Symbol    string      `json:"symbol"`
	Price     float64     `json:"price"`
}
