// Package settlement группирует рассчитанные сделки в батчи и
// взаимодействует с внешним settlement relayer'ом.
package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"matchengine/internal/config"
	"matchengine/internal/exchange"
	"matchengine/internal/models"
)

// SubmissionError - ошибка отправки в relayer
//
// Retryable() позволяет pipeline'у различать временные сбои
// (сеть, 5xx, 429) и ошибки протокола (прочие 4xx).
type SubmissionError struct {
	Endpoint   string
	StatusCode int // 0 если запрос не дошел до ответа
	Message    string
	Err        error
}

func (e *SubmissionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("relayer %s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("relayer %s: %s", e.Endpoint, e.Message)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Retryable сообщает, имеет ли смысл повторять запрос
func (e *SubmissionError) Retryable() bool {
	if e.StatusCode == 0 {
		return true // сетевой сбой
	}
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// RelayerClient - HTTP клиент settlement relayer
//
// Протокол relayer:
//   - POST /trades                   прием сделки
//   - GET  /settlement/status/{id}   статус батча
//   - GET  /health                   доступность
type RelayerClient struct {
	cfg        config.RelayerConfig
	httpClient *exchange.HTTPClient
	logger     *zap.Logger
}

// NewRelayerClient создает клиент relayer
func NewRelayerClient(cfg config.RelayerConfig, httpClient *exchange.HTTPClient, logger *zap.Logger) *RelayerClient {
	return &RelayerClient{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger.Named("relayer"),
	}
}

// SubmitTrade отправляет рассчитанную сделку в relayer
func (c *RelayerClient) SubmitTrade(ctx context.Context, trade *models.Trade) (*models.TradeResponse, error) {
	body, err := json.Marshal(models.NewTradeRequest(trade))
	if err != nil {
		return nil, &SubmissionError{Endpoint: "/trades", Message: "encode request", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/trades", bytes.NewReader(body))
	if err != nil {
		return nil, &SubmissionError{Endpoint: "/trades", Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &SubmissionError{Endpoint: "/trades", Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &SubmissionError{
			Endpoint:   "/trades",
			StatusCode: resp.StatusCode,
			Message:    string(payload),
		}
	}

	var result models.TradeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &SubmissionError{Endpoint: "/trades", Message: "decode response", Err: err}
	}

	c.logger.Debug("trade submitted to relayer",
		zap.String("trade_id", result.TradeID),
		zap.String("status", result.Status))
	return &result, nil
}

// GetSettlementStatus запрашивает статус батча на стороне relayer
func (c *RelayerClient) GetSettlementStatus(ctx context.Context, batchID string) (*models.SettlementStatusResponse, error) {
	endpoint := "/settlement/status/" + batchID

	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+endpoint, nil)
	if err != nil {
		return nil, &SubmissionError{Endpoint: endpoint, Message: "build request", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &SubmissionError{Endpoint: endpoint, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &SubmissionError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    string(payload),
		}
	}

	var result models.SettlementStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &SubmissionError{Endpoint: endpoint, Message: "decode response", Err: err}
	}
	return &result, nil
}

// HealthCheck проверяет доступность relayer
//
// Любая ошибка (сеть, таймаут, не-200) трактуется как "нездоров";
// ошибка не возвращается, только логируется.
func (c *RelayerClient) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("relayer health check failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}
