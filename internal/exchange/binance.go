package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"matchengine/pkg/ratelimit"
)

// Binance - клиент публичного тикерного API Binance
//
// Используется как внешний источник референсных цен.
// Аутентификация не требуется (только публичные endpoint'ы).
type Binance struct {
	baseURL    string
	httpClient *HTTPClient
	limiter    *ratelimit.RateLimiter
}

// NewBinance создаёт клиент источника цен
//
// Параметры:
//   - baseURL: базовый URL API (https://api.binance.com/api/v3)
//   - httpClient: общий настроенный HTTP клиент
//   - rate: лимит запросов в секунду
func NewBinance(baseURL string, httpClient *HTTPClient, rate float64) *Binance {
	return &Binance{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		limiter:    ratelimit.NewRateLimiter(rate, rate*2),
	}
}

// Name возвращает имя источника
func (b *Binance) Name() string {
	return "binance"
}

// ConvertSymbol переводит внутренний символ в формат Binance
//
// BTC-USDT-PERP → BTCUSDT: конкатенация первых двух dash-компонентов.
// Символ без дефисов возвращается как есть.
func ConvertSymbol(symbol string) string {
	parts := strings.Split(symbol, "-")
	if len(parts) >= 2 {
		return parts[0] + parts[1]
	}
	return strings.ReplaceAll(symbol, "-", "")
}

// GetPrice возвращает последнюю цену символа
//
// GET /ticker/price?symbol=BTCUSDT
// Запросы throttle'ятся token bucket'ом: резолюции по многим
// символам одновременно не превращаются в шторм запросов.
func (b *Binance) GetPrice(ctx context.Context, symbol string) (float64, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return 0, &SourceError{Source: "binance", Message: "rate limit wait cancelled", Err: err}
	}

	query := url.Values{}
	query.Set("symbol", ConvertSymbol(symbol))
	reqURL := b.baseURL + "/ticker/price?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, err
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return 0, &SourceError{Source: "binance", Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, &SourceError{Source: "binance", Message: err.Error(), Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return 0, &SourceError{
			Source:  "binance",
			Code:    strconv.Itoa(resp.StatusCode),
			Message: strings.TrimSpace(string(body)),
		}
	}

	var ticker struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := json.Unmarshal(body, &ticker); err != nil {
		return 0, &SourceError{Source: "binance", Message: "malformed ticker response", Err: err}
	}

	price, err := strconv.ParseFloat(ticker.Price, 64)
	if err != nil {
		return 0, &SourceError{Source: "binance", Message: fmt.Sprintf("unparseable price %q", ticker.Price), Err: err}
	}

	return price, nil
}
