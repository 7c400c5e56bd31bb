package models

// Статусы settlement батча
//
// Жизненный цикл:
//
//	accumulating → settling → settled
//
// settled - терминальный статус.
const (
	BatchStatusAccumulating = "accumulating"
	BatchStatusSettling     = "settling"
	BatchStatusSettled      = "settled"
)

// PositionKey - ключ нетто-позиции внутри батча
type PositionKey struct {
	UserID string `json:"userId"`
	Symbol string `json:"symbol"`
}

// SettlementBatch - окно аккумуляции сделок перед расчетом
//
// NetPositions всегда равна алгебраической сумме подписанных объемов
// всех fills батча; пересчитывается инкрементально при каждой вставке,
// никогда с нуля.
type SettlementBatch struct {
	ID           string                  `json:"id"`
	Trades       []*Trade                `json:"trades"`
	NetPositions map[PositionKey]float64 `json:"-"`
	Status       string                  `json:"status"`
	CreatedAt    int64                   `json:"createdAt"`           // unix millis
	SettledAt    int64                   `json:"settledAt,omitempty"` // unix millis, 0 пока не settled
}

// NetPosition - нетто-позиция в сериализуемом виде
type NetPosition struct {
	UserID   string  `json:"userId"`
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"` // подписанный объем (+long/-short)
}

// NetPositionList возвращает нетто-позиции как срез для JSON ответов
// (map с составным ключом не сериализуется напрямую)
func (b *SettlementBatch) NetPositionList() []NetPosition {
	positions := make([]NetPosition, 0, len(b.NetPositions))
	for key, qty := range b.NetPositions {
		positions = append(positions, NetPosition{
			UserID:   key.UserID,
			Symbol:   key.Symbol,
			Quantity: qty,
		})
	}
	return positions
}

// TradeCount возвращает количество сделок в батче
func (b *SettlementBatch) TradeCount() int {
	return len(b.Trades)
}

// Clone возвращает глубокую копию батча для read-аксессоров
func (b *SettlementBatch) Clone() *SettlementBatch {
	cp := *b
	cp.Trades = make([]*Trade, len(b.Trades))
	for i, t := range b.Trades {
		tc := *t
		cp.Trades[i] = &tc
	}
	cp.NetPositions = make(map[PositionKey]float64, len(b.NetPositions))
	for k, v := range b.NetPositions {
		cp.NetPositions[k] = v
	}
	return &cp
}

// BatchView - представление батча для API и WebSocket сообщений
type BatchView struct {
	ID           string        `json:"id"`
	Status       string        `json:"status"`
	TradeCount   int           `json:"tradeCount"`
	Trades       []*Trade      `json:"trades,omitempty"`
	NetPositions []NetPosition `json:"netPositions"`
	CreatedAt    int64         `json:"createdAt"`
	SettledAt    int64         `json:"settledAt,omitempty"`
}

// View конвертирует батч в сериализуемое представление
func (b *SettlementBatch) View(includeTrades bool) *BatchView {
	view := &BatchView{
		ID:           b.ID,
		Status:       b.Status,
		TradeCount:   len(b.Trades),
		NetPositions: b.NetPositionList(),
		CreatedAt:    b.CreatedAt,
		SettledAt:    b.SettledAt,
	}
	if includeTrades {
		view.Trades = b.Trades
	}
	return view
}
