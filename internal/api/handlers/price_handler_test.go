package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"matchengine/internal/config"
	"matchengine/internal/engine"
	"matchengine/pkg/utils"
)

// fixedSource - источник цен с фиксированным ответом
type fixedSource struct {
	price float64
	err   error
}

func (s *fixedSource) GetPrice(ctx context.Context, symbol string) (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.price, nil
}

func (s *fixedSource) Name() string { return "fixed" }

func newTestResolver(source *fixedSource, enableDefaults bool) *engine.PriceResolver {
	return engine.NewPriceResolver(config.PriceConfig{
		CacheTTL:       time.Second,
		SourceTimeout:  time.Second,
		EnableDefaults: enableDefaults,
	}, source, utils.NopLogger())
}

func TestPriceHandler_UpdatePrice(t *testing.T) {
	t.Run("caches pushed price and broadcasts", func(t *testing.T) {
		resolver := newTestResolver(&fixedSource{err: errors.New("down")}, false)
		hub := &mockPriceBroadcaster{}
		handler := NewPriceHandler(resolver, hub)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/prices/BTC-USDT-PERP", strings.NewReader(`{"price":111500}`))
		req = mux.SetURLVars(req, map[string]string{"symbol": "BTC-USDT-PERP"})
		w := httptest.NewRecorder()

		handler.UpdatePrice(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}

		quote, ok := resolver.CachedQuote("BTC-USDT-PERP")
		if !ok || quote.Price != 111500 {
			t.Errorf("price not cached: %+v", quote)
		}
		if len(hub.symbols) != 1 || hub.symbols[0] != "BTC-USDT-PERP" || hub.prices[0] != 111500 {
			t.Errorf("broadcast mismatch: %v %v", hub.symbols, hub.prices)
		}
	})

	t.Run("non-positive price returns 400", func(t *testing.T) {
		handler := NewPriceHandler(newTestResolver(&fixedSource{price: 1}, true), nil)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/prices/BTC-USDT-PERP", strings.NewReader(`{"price":0}`))
		req = mux.SetURLVars(req, map[string]string{"symbol": "BTC-USDT-PERP"})
		w := httptest.NewRecorder()

		handler.UpdatePrice(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("bad symbol returns 400", func(t *testing.T) {
		handler := NewPriceHandler(newTestResolver(&fixedSource{price: 1}, true), nil)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/prices/btcusdt", strings.NewReader(`{"price":100}`))
		req = mux.SetURLVars(req, map[string]string{"symbol": "btcusdt"})
		w := httptest.NewRecorder()

		handler.UpdatePrice(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})
}

func TestPriceHandler_GetOrderbook(t *testing.T) {
	t.Run("returns depth around resolved price", func(t *testing.T) {
		handler := NewPriceHandler(newTestResolver(&fixedSource{price: 111500}, true), nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/orderbook/BTC-USDT-PERP", nil)
		req = mux.SetURLVars(req, map[string]string{"symbol": "BTC-USDT-PERP"})
		w := httptest.NewRecorder()

		handler.GetOrderbook(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var resp struct {
			Symbol string              `json:"symbol"`
			Price  float64             `json:"price"`
			Bids   []engine.DepthLevel `json:"bids"`
			Asks   []engine.DepthLevel `json:"asks"`
		}
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Price != 111500 {
			t.Errorf("expected price 111500, got %v", resp.Price)
		}
		// BTC профиль: 20 уровней на сторону
		if len(resp.Bids) != 20 || len(resp.Asks) != 20 {
			t.Errorf("expected 20 levels per side, got %d/%d", len(resp.Bids), len(resp.Asks))
		}
	})

	t.Run("price unavailable returns 503", func(t *testing.T) {
		handler := NewPriceHandler(newTestResolver(&fixedSource{err: errors.New("down")}, false), nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/orderbook/BTC-USDT-PERP", nil)
		req = mux.SetURLVars(req, map[string]string{"symbol": "BTC-USDT-PERP"})
		w := httptest.NewRecorder()

		handler.GetOrderbook(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", w.Code)
		}
	})
}
