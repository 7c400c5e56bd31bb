package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server   ServerConfig
	Engine   EngineConfig
	Price    PriceConfig
	Batch    BatchConfig
	Relayer  RelayerConfig
	Logging  LoggingConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port int
	Host string
}

// EngineConfig - параметры симуляции матчинга
type EngineConfig struct {
	// FillSuccessRate - вероятность успешного матчинга (0..1).
	// Моделирует отказы на стороне биржи.
	FillSuccessRate float64

	// MarketSlippageBps - проскальзывание для market ордеров в базисных
	// пунктах: fillPrice = price ± price*bps/10000
	MarketSlippageBps float64

	// MatchDelay - симулированная задержка матчинга (round-trip сети)
	MatchDelay time.Duration

	// SettleDelay - задержка перехода matched → settling
	SettleDelay time.Duration

	// LimitRecheckInterval - интервал повторной проверки непересеченных
	// limit ордеров (0 = отключено, ордер остается pending навсегда)
	LimitRecheckInterval time.Duration
}

// PriceConfig - настройки резолвера цен
type PriceConfig struct {
	// CacheTTL - окно свежести кэшированной цены
	CacheTTL time.Duration

	// SourceURL - базовый URL внешнего источника цен
	SourceURL string

	// SourceTimeout - таймаут запроса к внешнему источнику
	SourceTimeout time.Duration

	// SourceRate - лимит запросов к источнику (req/sec)
	SourceRate float64

	// EnableDefaults - разрешить последний фолбэк на таблицу дефолтных цен.
	// false делает достижимой ошибку PriceUnavailable.
	EnableDefaults bool
}

// BatchConfig - настройки settlement батчера
type BatchConfig struct {
	// MaxBatchSize - потолок количества сделок в батче (закрытие по размеру)
	MaxBatchSize int

	// Window - окно аккумуляции (закрытие по таймеру)
	Window time.Duration

	// SettleDelay - симулированная задержка settling → settled
	SettleDelay time.Duration

	// HistoryLimit - максимум батчей в истории (защита от бесконечного роста)
	HistoryLimit int
}

// RelayerConfig - настройки клиента settlement relayer
type RelayerConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	HealthTimeout  time.Duration

	// MaxRetries - повторные отправки сделок на уровне pipeline.
	// 0 = без retry (референсное поведение: только подсчет успехов/ошибок).
	MaxRetries int
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level  string
	Format string
}

// Load загружает конфигурацию из переменных окружения
//
// .env файл (если присутствует) подхватывается через godotenv;
// переменные окружения процесса имеют приоритет.
func Load() (*Config, error) {
	// .env опционален - отсутствие файла не ошибка
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvAsInt("SERVER_PORT", 3003),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Engine: EngineConfig{
			FillSuccessRate:      getEnvAsFloat("FILL_SUCCESS_RATE", 0.95),
			MarketSlippageBps:    getEnvAsFloat("MARKET_SLIPPAGE_BPS", 10),
			MatchDelay:           getEnvAsDuration("MATCH_DELAY", 100*time.Millisecond),
			SettleDelay:          getEnvAsDuration("ORDER_SETTLE_DELAY", 200*time.Millisecond),
			LimitRecheckInterval: getEnvAsDuration("LIMIT_RECHECK_INTERVAL", 1*time.Second),
		},
		Price: PriceConfig{
			CacheTTL:       getEnvAsDuration("PRICE_CACHE_TTL", 2*time.Second),
			SourceURL:      getEnv("PRICE_SOURCE_URL", "https://api.binance.com/api/v3"),
			SourceTimeout:  getEnvAsDuration("PRICE_SOURCE_TIMEOUT", 5*time.Second),
			SourceRate:     getEnvAsFloat("PRICE_SOURCE_RATE", 10),
			EnableDefaults: getEnvAsBool("ENABLE_DEFAULT_PRICES", true),
		},
		Batch: BatchConfig{
			MaxBatchSize: getEnvAsInt("MAX_BATCH_SIZE", 50),
			Window:       getEnvAsDuration("BATCH_WINDOW", 1*time.Second),
			SettleDelay:  getEnvAsDuration("BATCH_SETTLE_DELAY", 500*time.Millisecond),
			HistoryLimit: getEnvAsInt("BATCH_HISTORY_LIMIT", 100),
		},
		Relayer: RelayerConfig{
			BaseURL:        getEnv("RELAYER_URL", "http://localhost:8080"),
			RequestTimeout: getEnvAsDuration("RELAYER_TIMEOUT", 10*time.Second),
			HealthTimeout:  getEnvAsDuration("RELAYER_HEALTH_TIMEOUT", 3*time.Second),
			MaxRetries:     getEnvAsInt("RELAYER_MAX_RETRIES", 0),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validateRanges(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateRanges проверяет числовые диапазоны параметров
func (c *Config) validateRanges() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Engine.FillSuccessRate < 0 || c.Engine.FillSuccessRate > 1 {
		return fmt.Errorf("FILL_SUCCESS_RATE must be between 0 and 1, got %v", c.Engine.FillSuccessRate)
	}

	if c.Engine.MarketSlippageBps < 0 {
		return fmt.Errorf("MARKET_SLIPPAGE_BPS cannot be negative, got %v", c.Engine.MarketSlippageBps)
	}

	if c.Engine.MatchDelay < 0 || c.Engine.SettleDelay < 0 {
		return fmt.Errorf("engine delays cannot be negative")
	}

	if c.Price.CacheTTL <= 0 {
		return fmt.Errorf("PRICE_CACHE_TTL must be positive, got %v", c.Price.CacheTTL)
	}

	if c.Price.SourceTimeout <= 0 {
		return fmt.Errorf("PRICE_SOURCE_TIMEOUT must be positive, got %v", c.Price.SourceTimeout)
	}

	if c.Price.SourceRate <= 0 {
		return fmt.Errorf("PRICE_SOURCE_RATE must be positive, got %v", c.Price.SourceRate)
	}

	if c.Batch.MaxBatchSize < 1 {
		return fmt.Errorf("MAX_BATCH_SIZE must be at least 1, got %d", c.Batch.MaxBatchSize)
	}

	if c.Batch.Window <= 0 {
		return fmt.Errorf("BATCH_WINDOW must be positive, got %v", c.Batch.Window)
	}

	if c.Batch.HistoryLimit < 1 {
		return fmt.Errorf("BATCH_HISTORY_LIMIT must be at least 1, got %d", c.Batch.HistoryLimit)
	}

	if c.Relayer.RequestTimeout <= 0 {
		return fmt.Errorf("RELAYER_TIMEOUT must be positive, got %v", c.Relayer.RequestTimeout)
	}

	if c.Relayer.MaxRetries < 0 {
		return fmt.Errorf("RELAYER_MAX_RETRIES cannot be negative, got %d", c.Relayer.MaxRetries)
	}

	if c.Relayer.MaxRetries > 10 {
		return fmt.Errorf("RELAYER_MAX_RETRIES should not exceed 10, got %d", c.Relayer.MaxRetries)
	}

	return nil
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
