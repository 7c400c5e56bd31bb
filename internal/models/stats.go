package models

// Stats - агрегированная статистика работы движка
//
// Счетчики наполняются инкрементально из потока уведомлений
// (не из внутреннего состояния движка). Производные метрики
// (uptime, matchRate, relayerSuccessRate) вычисляются при чтении.
type Stats struct {
	OrdersReceived int64 `json:"ordersReceived"`
	OrdersMatched  int64 `json:"ordersMatched"`
	OrdersFailed   int64 `json:"ordersFailed"`

	TradesSentToRelayer int64 `json:"tradesSentToRelayer"`
	TradesRelayerOK     int64 `json:"tradesRelayerSuccess"`
	TradesRelayerFailed int64 `json:"tradesRelayerFailed"`

	// TotalVolume - суммарный оборот (quantity * price) по всем fills
	TotalVolume float64 `json:"totalVolume"`

	// TotalQuantityFilled - суммарный исполненный объем
	TotalQuantityFilled float64 `json:"totalQuantityFilled"`

	// AverageFillPrice - средневзвешенная цена исполнения:
	// TotalVolume / TotalQuantityFilled
	AverageFillPrice float64 `json:"averageFillPrice"`

	StartTime     int64 `json:"startTime"`     // unix millis
	LastOrderTime int64 `json:"lastOrderTime"` // unix millis

	// Производные метрики (заполняются при снимке)
	UptimeMs           int64   `json:"uptime"`
	MatchRate          float64 `json:"matchRate"`          // % matched от received
	RelayerSuccessRate float64 `json:"relayerSuccessRate"` // % успешных отправок
}
