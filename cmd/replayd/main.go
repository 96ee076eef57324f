package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/roadstream/roadstream/internal/config"
	"github.com/roadstream/roadstream/internal/dataset"
	"github.com/roadstream/roadstream/internal/httpapi"
	"github.com/roadstream/roadstream/internal/hub"
)

func main() {
	cfg := config.Load()

	logger, err := buildLogger(cfg.Debug)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ds := dataset.Dataset{}
	if cfg.DatasetPath != "" {
		ds, err = dataset.Load(cfg.DatasetPath, cfg.EnforcementType)
		if err != nil {
			logger.Fatal("load dataset", zap.String("path", cfg.DatasetPath), zap.Error(err))
		}
		logger.Info("dataset loaded",
			zap.String("path", cfg.DatasetPath),
			zap.Int("roadworks", len(ds.Roadworks)),
			zap.Int("enforcement", len(ds.Enforcement)),
			zap.Int("segments", len(ds.Segments)))
	} else {
		logger.Info("no dataset configured, waiting for uploads")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h := hub.NewHub(ctx, ds)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpapi.SetupRoutes(h, cfg.EnforcementType, logger),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func buildLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
