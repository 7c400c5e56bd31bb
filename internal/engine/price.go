package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"matchengine/internal/config"
	"matchengine/internal/exchange"
	"matchengine/internal/models"
)

// QuoteSource - происхождение цены
//
// Данные таблицы дефолтов и протухший кэш помечаются явно:
// потребитель всегда может отличить настоящее рыночное наблюдение
// от подстраховки холодного старта.
type QuoteSource string

const (
	// QuoteSourceOverride - цена передана вызывающим кодом
	// (наблюдение внешнего фида, ground truth)
	QuoteSourceOverride QuoteSource = "override"

	// QuoteSourceCache - свежая цена из кэша
	QuoteSourceCache QuoteSource = "cache"

	// QuoteSourceLive - только что получена от внешнего источника
	QuoteSourceLive QuoteSource = "live"

	// QuoteSourceStale - протухший кэш (источник недоступен;
	// устаревшая цена лучше отсутствующей)
	QuoteSourceStale QuoteSource = "stale"

	// QuoteSourceDefault - таблица дефолтов (холодный старт,
	// не является рыночным наблюдением)
	QuoteSourceDefault QuoteSource = "default"
)

// Quote - результат резолюции цены
type Quote struct {
	Symbol     string      `json:"symbol"`
	Price      float64     `json:"price"`
	Source     QuoteSource `json:"source"`
	ObservedAt time.Time   `json:"observedAt"`
}

// defaultPrices - последний фолбэк для холодного старта
var defaultPrices = map[string]float64{
	"BTC-USDT-PERP": 111500,
	"ETH-USDT-PERP": 3500,
	"SOL-USDT-PERP": 150,
	"XRP-USDT-PERP": 0.6,
	"ADA-USDT-PERP": 0.5,
}

// genericDefaultPrice для символов вне таблицы
const genericDefaultPrice = 100

type cacheEntry struct {
	price      float64
	observedAt time.Time
}

// PriceResolver возвращает текущую референсную цену символа
//
// Цепочка резолюции (строго по порядку):
//  1. override от вызывающего кода - истина, кэшируется и возвращается
//  2. кэш свежее CacheTTL
//  3. внешний источник (с таймаутом), кэш обновляется
//  4. при недоступности источника - протухший кэш
//  5. таблица дефолтов; при отключенных дефолтах - ErrPriceUnavailable
//
// Кэш разделяется всеми конкурентными задачами резолюции ордеров,
// доступ синхронизирован mutex'ом.
type PriceResolver struct {
	cfg    config.PriceConfig
	source exchange.PriceSource
	logger *zap.Logger

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// NewPriceResolver создает резолвер цен
func NewPriceResolver(cfg config.PriceConfig, source exchange.PriceSource, logger *zap.Logger) *PriceResolver {
	return &PriceResolver{
		cfg:    cfg,
		source: source,
		logger: logger.Named("price"),
		cache:  make(map[string]cacheEntry),
	}
}

// Resolve возвращает цену символа согласно цепочке фолбэков
//
// Не блокируется дольше таймаута внешнего источника. Ошибка
// возвращается только при полностью исчерпанной цепочке
// (отключенные дефолты + пустой кэш + недоступный источник).
func (r *PriceResolver) Resolve(ctx context.Context, symbol string, override *float64) (Quote, error) {
	now := time.Now()

	// 1. Override - ground truth от внешнего фида
	if override != nil {
		r.store(symbol, *override, now)
		RecordPriceResolution(string(QuoteSourceOverride))
		return Quote{Symbol: symbol, Price: *override, Source: QuoteSourceOverride, ObservedAt: now}, nil
	}

	// 2. Свежий кэш
	cached, haveCached := r.lookup(symbol)
	if haveCached && now.Sub(cached.observedAt) < r.cfg.CacheTTL {
		RecordPriceResolution(string(QuoteSourceCache))
		return Quote{Symbol: symbol, Price: cached.price, Source: QuoteSourceCache, ObservedAt: cached.observedAt}, nil
	}

	// 3. Внешний источник
	fetchCtx, cancel := context.WithTimeout(ctx, r.cfg.SourceTimeout)
	defer cancel()

	price, err := r.source.GetPrice(fetchCtx, symbol)
	if err == nil {
		r.store(symbol, price, now)
		RecordPriceResolution(string(QuoteSourceLive))
		return Quote{Symbol: symbol, Price: price, Source: QuoteSourceLive, ObservedAt: now}, nil
	}

	RecordPriceSourceError()
	r.logger.Warn("price source fetch failed",
		zap.String("symbol", symbol),
		zap.String("source", r.source.Name()),
		zap.Error(err))

	// 4. Протухший кэш: устаревшая цена лучше отсутствующей
	if haveCached {
		RecordPriceResolution(string(QuoteSourceStale))
		return Quote{Symbol: symbol, Price: cached.price, Source: QuoteSourceStale, ObservedAt: cached.observedAt}, nil
	}

	// 5. Таблица дефолтов (холодный старт)
	if r.cfg.EnableDefaults {
		price, ok := defaultPrices[symbol]
		if !ok {
			price = genericDefaultPrice
		}
		RecordPriceResolution(string(QuoteSourceDefault))
		return Quote{Symbol: symbol, Price: price, Source: QuoteSourceDefault, ObservedAt: now}, nil
	}

	return Quote{}, models.ErrPriceUnavailable
}

// UpdatePrice записывает наблюденную извне цену в кэш
//
// Путь push-фида: фронтенд снимает цену с графика и проталкивает
// её через API, минуя внешний источник.
func (r *PriceResolver) UpdatePrice(symbol string, price float64) {
	r.store(symbol, price, time.Now())
}

// CachedQuote возвращает текущую запись кэша (для диагностики)
func (r *PriceResolver) CachedQuote(symbol string) (Quote, bool) {
	entry, ok := r.lookup(symbol)
	if !ok {
		return Quote{}, false
	}
	return Quote{Symbol: symbol, Price: entry.price, Source: QuoteSourceCache, ObservedAt: entry.observedAt}, true
}

func (r *PriceResolver) lookup(symbol string) (cacheEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[symbol]
	return entry, ok
}

func (r *PriceResolver) store(symbol string, price float64, observedAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[symbol] = cacheEntry{price: price, observedAt: observedAt}
}
