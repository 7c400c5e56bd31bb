package integration

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"matchengine/internal/models"
)

// wsEnvelope decodes just enough of a broadcast to dispatch on type
type wsEnvelope struct {
	Type  string          `json:"type"`
	Order *models.Order   `json:"order,omitempty"`
	Batch json.RawMessage `json:"batch,omitempty"`
	Stats json.RawMessage `json:"stats,omitempty"`

	// price_update fields
	Symbol string  `json:"symbol,omitempty"`
	Price  float64 `json:"price,omitempty"`
}

func dialStream(t *testing.T, ts *TestServer) *websocket.Conn {
	t.Helper()
	wsURL := strings.Replace(ts.Server.URL, "http://", "ws://", 1) + "/ws/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// wait for the hub to register the client before broadcasting
	deadline := time.Now().Add(time.Second)
	for ts.Hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered with hub")
		}
		time.Sleep(2 * time.Millisecond)
	}
	return conn
}

// collectMessages reads broadcasts until the predicate is satisfied
func collectMessages(t *testing.T, conn *websocket.Conn, done func([]wsEnvelope) bool) []wsEnvelope {
	t.Helper()
	var got []wsEnvelope
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for !done(got) {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read failed after %d messages: %v", len(got), err)
		}
		// writePump batches queued broadcasts with newline separators
		for _, raw := range strings.Split(string(data), "\n") {
			if raw == "" {
				continue
			}
			var env wsEnvelope
			if err := json.Unmarshal([]byte(raw), &env); err != nil {
				t.Fatalf("failed to decode broadcast %q: %v", raw, err)
			}
			got = append(got, env)
		}
	}
	return got
}

func TestWebSocketOrderUpdates(t *testing.T) {
	ts := SetupTestServer(t)
	conn := dialStream(t, ts)

	submitOrder(t, ts, map[string]interface{}{
		"userId":         "ws-user",
		"symbol":         "BTC-PERP",
		"side":           "buy",
		"type":           "market",
		"quantity":       1.0,
		"referencePrice": 100000.0,
	})

	msgs := collectMessages(t, conn, func(got []wsEnvelope) bool {
		for _, m := range got {
			if m.Type == "order_update" && m.Order != nil && m.Order.Status == models.OrderStatusSettled {
				return true
			}
		}
		return false
	})

	var statuses []string
	for _, m := range msgs {
		if m.Type == "order_update" && m.Order != nil {
			statuses = append(statuses, m.Order.Status)
		}
	}
	// matched and settling come from the engine, settled from batch settlement
	for _, want := range []string{models.OrderStatusMatched, models.OrderStatusSettling, models.OrderStatusSettled} {
		found := false
		for _, s := range statuses {
			if s == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing order_update with status %q, got %v", want, statuses)
		}
	}
}

func TestWebSocketBatchAndStatsUpdates(t *testing.T) {
	ts := SetupTestServer(t)
	conn := dialStream(t, ts)

	submitOrder(t, ts, map[string]interface{}{
		"userId":         "ws-batch-user",
		"symbol":         "ETH-PERP",
		"side":           "sell",
		"type":           "market",
		"quantity":       3.0,
		"referencePrice": 3000.0,
	})

	msgs := collectMessages(t, conn, func(got []wsEnvelope) bool {
		for _, m := range got {
			if m.Type == "batch_update" {
				var batch models.BatchView
				if json.Unmarshal(m.Batch, &batch) == nil && batch.Status == models.BatchStatusSettled {
					return true
				}
			}
		}
		return false
	})

	sawStats := false
	for _, m := range msgs {
		if m.Type == "stats_update" {
			sawStats = true
			break
		}
	}
	if !sawStats {
		t.Error("expected at least one stats_update broadcast")
	}
}

func TestWebSocketPriceUpdates(t *testing.T) {
	ts := SetupTestServer(t)
	conn := dialStream(t, ts)

	resp, data := postJSON(t, ts.Server.URL+"/api/v1/prices/SOL-PERP", map[string]interface{}{
		"price": 155.5,
	})
	if resp.StatusCode != 200 {
		t.Fatalf("price update failed: %d %s", resp.StatusCode, data)
	}

	msgs := collectMessages(t, conn, func(got []wsEnvelope) bool {
		for _, m := range got {
			if m.Type == "price_update" {
				return true
			}
		}
		return false
	})

	for _, m := range msgs {
		if m.Type != "price_update" {
			continue
		}
		if m.Symbol != "SOL-PERP" {
			t.Errorf("expected symbol SOL-PERP, got %q", m.Symbol)
		}
		if m.Price != 155.5 {
			t.Errorf("expected price 155.5, got %f", m.Price)
		}
	}
}
