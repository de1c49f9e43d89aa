package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"arena/internal/ai"
	"arena/internal/config"
	"arena/internal/engine"
	"arena/internal/game"
	"arena/internal/game/chess"
	"arena/internal/game/poker"
	"arena/internal/server"
	"arena/internal/session"
	"arena/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger, err := zcfg.Build()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	store, err := storage.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		logger.Fatal("open database", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer store.Close()

	pk, err := poker.New(cfg.Poker)
	if err != nil {
		logger.Fatal("poker config", zap.Error(err))
	}
	registry := game.NewRegistry(chess.Rules{}, pk)

	mgr, err := session.NewManager(engine.New(registry), store, session.Options{
		CacheSize: cfg.CacheSize,
		Suggester: ai.NewRandom(uint64(time.Now().UnixNano())),
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("session manager", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Abort games that never started and drop idle rooms
	go mgr.CleanupLoop(ctx, cfg.CleanupInterval, cfg.StaleGameAge)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.New(mgr, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	logger.Info("listening", zap.String("addr", cfg.Addr), zap.String("db_driver", cfg.DBDriver))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server", zap.Error(err))
	}
}
