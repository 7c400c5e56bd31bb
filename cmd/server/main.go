package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"matchengine/internal/api"
	"matchengine/internal/config"
	"matchengine/internal/engine"
	"matchengine/internal/exchange"
	"matchengine/internal/service"
	"matchengine/internal/settlement"
	"matchengine/internal/websocket"
	"matchengine/pkg/pidfile"
	"matchengine/pkg/utils"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := utils.InitLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	// PID файл для оркестрации (start/stop скрипты фронтенда)
	pidPath := pidfile.DefaultPath("matchengine")
	if err := pidfile.Write(pidPath); err != nil {
		logger.Warn("failed to write pid file", zap.String("path", pidPath), zap.Error(err))
	} else {
		defer pidfile.Remove(pidPath)
		logger.Info("pid file written", zap.String("path", pidPath))
	}

	// Общий HTTP клиент с пулом соединений
	httpClient := exchange.NewHTTPClient(exchange.DefaultHTTPClientConfig())
	defer httpClient.Close()

	// Источник цен и резолвер
	binance := exchange.NewBinance(cfg.Price.SourceURL, httpClient, cfg.Price.SourceRate)
	resolver := engine.NewPriceResolver(cfg.Price, binance, logger)

	// Движок матчинга
	matchingEngine := engine.NewMatchingEngine(cfg.Engine, resolver, logger)

	// Settlement: relayer клиент и батчер
	relayer := settlement.NewRelayerClient(cfg.Relayer, httpClient, logger)
	batcher := settlement.NewBatcher(cfg.Batch, logger)

	// WebSocket hub
	hub := websocket.NewHub(logger)
	go hub.Run()
	defer hub.Stop()

	// Pipeline сшивает компоненты и подписывается на события
	stats := service.NewStatsService()
	pipeline := service.NewPipeline(matchingEngine, batcher, relayer, stats, hub, cfg.Relayer, logger)

	// Relayer health на старте - информационно, не фатально
	probeCtx, probeCancel := context.WithTimeout(context.Background(), cfg.Relayer.HealthTimeout)
	if err := pipeline.Start(probeCtx); err != nil {
		logger.Warn("settlement relayer is not reachable, trades will fail until it comes up",
			zap.String("relayer_url", cfg.Relayer.BaseURL))
	}
	probeCancel()

	deps := &api.Dependencies{
		Pipeline: pipeline,
		Engine:   matchingEngine,
		Batcher:  batcher,
		Relayer:  relayer,
		Resolver: resolver,
		Hub:      hub,
		Logger:   logger,
	}
	router := api.SetupRoutes(deps)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("matching engine listening",
			zap.String("addr", server.Addr),
			zap.String("relayer_url", cfg.Relayer.BaseURL))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Порядок остановки: HTTP → движок → батчер → pipeline.
	// Движок раньше батчера, чтобы последние matched ордера успели
	// попасть в финальный батч.
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}
	if err := matchingEngine.Close(ctx); err != nil {
		logger.Error("engine shutdown failed", zap.Error(err))
	}
	if err := batcher.Close(ctx); err != nil {
		logger.Error("batcher shutdown failed", zap.Error(err))
	}
	if err := pipeline.Close(ctx); err != nil {
		logger.Error("pipeline shutdown failed", zap.Error(err))
	}

	logger.Info("shutdown complete")
}
