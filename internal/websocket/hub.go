// Package websocket реализует fan-out событий движка подписчикам.
package websocket

import (
	"sync"
	"sync/atomic"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"matchengine/internal/models"
)

// jsonFast - совместимый с encoding/json сериализатор без рефлексии
// на горячем пути broadcast
var jsonFast = jsoniter.ConfigCompatibleWithStandardLibrary

// Hub управляет всеми активными WebSocket соединениями
//
// Центральный менеджер broadcast'а: события ордеров, батчей и
// статистики уходят всем подключенным клиентам. Медленный клиент
// (полный send буфер) отключается, чтобы не тормозить остальных.
//
// Использование:
//  1. hub := NewHub(logger)
//  2. go hub.Run()
//  3. hub.BroadcastOrderUpdate(order)
type Hub struct {
	logger *zap.Logger

	// Зарегистрированные клиенты
	clients map[*Client]bool

	// Broadcast канал сериализованных сообщений
	broadcast chan []byte

	register   chan *Client
	unregister chan *Client

	// Останов цикла Run
	done     chan struct{}
	stopOnce sync.Once

	// Сообщения, отброшенные при полном broadcast канале
	dropped atomic.Int64

	mu sync.RWMutex
}

// NewHub создает новый Hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:     logger.Named("hub"),
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run запускает главный цикл Hub
//
// Должен запускаться в отдельной горутине: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client connected", zap.Int("total", total))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client disconnected", zap.Int("total", total))

		case message := <-h.broadcast:
			// Список клиентов копируется под коротким RLock,
			// отправка идет без блокировки
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			var toRemove []*Client
			for _, client := range clients {
				select {
				case client.send <- message:
				default:
					// Клиент не успевает вычитывать - отключаем
					toRemove = append(toRemove, client)
				}
			}

			if len(toRemove) > 0 {
				h.mu.Lock()
				for _, client := range toRemove {
					if _, ok := h.clients[client]; ok {
						delete(h.clients, client)
						close(client.send)
					}
				}
				total := len(h.clients)
				h.mu.Unlock()
				h.logger.Warn("evicted slow clients",
					zap.Int("evicted", len(toRemove)),
					zap.Int("total", total))
			}
		}
	}
}

// Stop останавливает цикл Run и закрывает все соединения
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

// Broadcast сериализует и рассылает сообщение всем клиентам
//
// Неблокирующий: при полном broadcast канале сообщение
// отбрасывается и учитывается в DroppedMessages.
func (h *Hub) Broadcast(message interface{}) {
	data, err := jsonFast.Marshal(message)
	if err != nil {
		h.logger.Error("marshal broadcast message", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.dropped.Add(1)
	}
}

// BroadcastOrderUpdate отправляет смену статуса ордера
func (h *Hub) BroadcastOrderUpdate(order *models.Order) {
	h.Broadcast(&OrderUpdateMessage{
		Type:      MessageTypeOrderUpdate,
		Timestamp: models.NowMillis(),
		Order:     order,
	})
}

// BroadcastBatchUpdate отправляет смену статуса батча
func (h *Hub) BroadcastBatchUpdate(batch *models.SettlementBatch) {
	h.Broadcast(&BatchUpdateMessage{
		Type:      MessageTypeBatchUpdate,
		Timestamp: models.NowMillis(),
		Batch:     batch.View(false),
	})
}

// BroadcastStatsUpdate отправляет обновление статистики
func (h *Hub) BroadcastStatsUpdate(stats *models.Stats) {
	h.Broadcast(&StatsUpdateMessage{
		Type:      MessageTypeStatsUpdate,
		Timestamp: models.NowMillis(),
		Stats:     stats,
	})
}

// BroadcastPriceUpdate отправляет новую референсную цену
func (h *Hub) BroadcastPriceUpdate(symbol string, price float64) {
	h.Broadcast(&PriceUpdateMessage{
		Type:      MessageTypePriceUpdate,
		Timestamp: models.NowMillis(),
		Symbol:    symbol,
		Price:     price,
	})
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// DroppedMessages возвращает количество отброшенных сообщений
func (h *Hub) DroppedMessages() int64 {
	return h.dropped.Load()
}
