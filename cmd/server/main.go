package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/buzzdash/buzzdash-backend/internal/config"
	"github.com/buzzdash/buzzdash-backend/internal/httpapi"
	"github.com/buzzdash/buzzdash-backend/internal/hub"
	"github.com/buzzdash/buzzdash-backend/internal/store"
	"github.com/buzzdash/buzzdash-backend/internal/transport"
	"github.com/buzzdash/buzzdash-backend/internal/trivia"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()

	logger := newLogger(cfg.LogJSON)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tr, closeTransport, err := newTransport(cfg, logger)
	if err != nil {
		logger.Fatal("transport", zap.Error(err))
	}
	defer closeTransport()

	st, err := newStore(cfg)
	if err != nil {
		logger.Fatal("store", zap.Error(err))
	}

	h := hub.NewHub(ctx, hub.BuzzMode(cfg.BuzzMode), tr, st, logger)
	gen := trivia.NewGenerator(cfg.GeminiAPIKey, cfg.GeminiURL, logger)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpapi.SetupRoutes(h, tr, gen, logger),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening",
			zap.String("addr", cfg.Addr),
			zap.String("mode", cfg.BuzzMode),
			zap.String("transport", cfg.Transport))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		h.Inbox() <- hub.ShutdownHub{}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
}

func newLogger(json bool) *zap.Logger {
	var logger *zap.Logger
	var err error
	if json {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	return logger
}

func newTransport(cfg config.Config, logger *zap.Logger) (transport.Transport, func(), error) {
	switch cfg.Transport {
	case "nats":
		bus, err := transport.NewNATSBus(cfg.NATSURL, logger)
		if err != nil {
			return nil, nil, err
		}
		return bus, bus.Close, nil
	default:
		bus := transport.NewMemoryBus(logger)
		return bus, func() { _ = bus.Close() }, nil
	}
}

func newStore(cfg config.Config) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		return store.NewMemory(), nil
	}
	return store.OpenPostgres(cfg.DatabaseURL)
}
