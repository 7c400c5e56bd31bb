// Package integration contains integration tests for the matching engine.
//
// These tests verify the correct interaction between components:
// - API integration tests: full HTTP request cycle through the router
// - Pipeline tests: order submission through matching, relaying and batching
// - WebSocket tests: connection and broadcast delivery
//
// A fake settlement relayer is spun up with httptest; the external
// price source is never contacted (orders carry referencePrice).
package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"matchengine/internal/api"
	"matchengine/internal/config"
	"matchengine/internal/engine"
	"matchengine/internal/exchange"
	"matchengine/internal/models"
	"matchengine/internal/service"
	"matchengine/internal/settlement"
	"matchengine/internal/websocket"
	"matchengine/pkg/utils"
)

// fakeRelayer is an in-process stand-in for the settlement relayer
type fakeRelayer struct {
	mu       sync.Mutex
	trades   []models.TradeRequest
	healthy  bool
	failures int // fail this many submissions before accepting
	server   *httptest.Server
}

func newFakeRelayer() *fakeRelayer {
	f := &fakeRelayer{healthy: true}
	mux := http.NewServeMux()
	mux.HandleFunc("/trades", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failures > 0 {
			f.failures--
			http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		var req models.TradeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.trades = append(f.trades, req)
		json.NewEncoder(w).Encode(models.TradeResponse{TradeID: req.TradeID, Status: "accepted"})
	})
	mux.HandleFunc("/settlement/status/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.SettlementStatusResponse{
			BatchID:    r.URL.Path[len("/settlement/status/"):],
			Status:     "settled",
			TradeCount: len(f.trades),
		})
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		healthy := f.healthy
		f.mu.Unlock()
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})
	f.server = httptest.NewServer(mux)
	return f
}

func (f *fakeRelayer) receivedTrades() []models.TradeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.TradeRequest(nil), f.trades...)
}

func (f *fakeRelayer) setHealthy(healthy bool) {
	f.mu.Lock()
	f.healthy = healthy
	f.mu.Unlock()
}

// TestServer wires the full stack against a fake relayer
type TestServer struct {
	Server   *httptest.Server
	Relayer  *fakeRelayer
	Engine   *engine.MatchingEngine
	Batcher  *settlement.Batcher
	Pipeline *service.Pipeline
	Hub      *websocket.Hub

	httpClient *exchange.HTTPClient
}

// SetupTestServer builds the full component stack with fast timings
func SetupTestServer(t *testing.T) *TestServer {
	t.Helper()
	logger := utils.NopLogger()
	relayer := newFakeRelayer()

	httpClient := exchange.NewHTTPClient(exchange.DefaultHTTPClientConfig())

	priceCfg := config.PriceConfig{
		CacheTTL:       2 * time.Second,
		SourceURL:      "http://127.0.0.1:1", // never reached: orders carry referencePrice
		SourceTimeout:  100 * time.Millisecond,
		SourceRate:     10,
		EnableDefaults: true,
	}
	engineCfg := config.EngineConfig{
		FillSuccessRate:      1.0,
		MarketSlippageBps:    10,
		MatchDelay:           time.Millisecond,
		SettleDelay:          time.Millisecond,
		LimitRecheckInterval: 10 * time.Millisecond,
	}
	batchCfg := config.BatchConfig{
		MaxBatchSize: 10,
		Window:       30 * time.Millisecond,
		SettleDelay:  10 * time.Millisecond,
		HistoryLimit: 50,
	}
	relayerCfg := config.RelayerConfig{
		BaseURL:        relayer.server.URL,
		RequestTimeout: time.Second,
		HealthTimeout:  time.Second,
	}

	source := exchange.NewBinance(priceCfg.SourceURL, httpClient, priceCfg.SourceRate)
	resolver := engine.NewPriceResolver(priceCfg, source, logger)
	matchingEngine := engine.NewMatchingEngine(engineCfg, resolver, logger)
	batcher := settlement.NewBatcher(batchCfg, logger)
	relayerClient := settlement.NewRelayerClient(relayerCfg, httpClient, logger)

	hub := websocket.NewHub(logger)
	go hub.Run()

	pipeline := service.NewPipeline(matchingEngine, batcher, relayerClient, service.NewStatsService(), hub, relayerCfg, logger)

	router := api.SetupRoutes(&api.Dependencies{
		Pipeline: pipeline,
		Engine:   matchingEngine,
		Batcher:  batcher,
		Relayer:  relayerClient,
		Resolver: resolver,
		Hub:      hub,
		Logger:   logger,
	})

	ts := &TestServer{
		Server:     httptest.NewServer(router),
		Relayer:    relayer,
		Engine:     matchingEngine,
		Batcher:    batcher,
		Pipeline:   pipeline,
		Hub:        hub,
		httpClient: httpClient,
	}
	t.Cleanup(ts.Cleanup)
	return ts
}

// Cleanup tears the stack down in dependency order
func (ts *TestServer) Cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ts.Server.Close()
	ts.Engine.Close(ctx)
	ts.Batcher.Close(ctx)
	ts.Pipeline.Close(ctx)
	ts.Hub.Stop()
	ts.httpClient.Close()
	ts.Relayer.server.Close()
}
