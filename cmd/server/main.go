package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/elemental-duel/internal/config"
	"github.com/DoyleJ11/elemental-duel/internal/httpapi"
	"github.com/DoyleJ11/elemental-duel/internal/hub"
	"github.com/DoyleJ11/elemental-duel/internal/logging"
	"github.com/DoyleJ11/elemental-duel/internal/room"
	"github.com/DoyleJ11/elemental-duel/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() (err error) {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return err
	}
	defer func() {
		// Sync on a terminal stderr reports ENOTTY/EINVAL; nothing to act on.
		if serr := log.Sync(); serr != nil && !errors.Is(serr, syscall.ENOTTY) && !errors.Is(serr, syscall.EINVAL) {
			err = multierr.Append(err, serr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	roomCfg := room.DefaultConfig()
	roomCfg.TurnDuration = cfg.TurnDuration
	roomCfg.CountdownInterval = cfg.CountdownTick
	h := hub.NewHub(ctx, roomCfg, log)

	// Build the router *with* the hub injected
	handler := httpapi.SetupRoutes(h, ws.Config{
		PingInterval:   cfg.PingInterval,
		WriteTimeout:   cfg.WriteTimeout,
		OriginPatterns: cfg.OriginPatterns,
	}, log)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
		defer cancel()

		var errs error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		select {
		case h.Inbox() <- hub.ShutdownHub{}:
		case <-h.Done():
		}
		select {
		case <-h.Done():
		case <-shutdownCtx.Done():
			errs = multierr.Append(errs, fmt.Errorf("hub shutdown: %w", shutdownCtx.Err()))
		}
		return errs
	})

	return g.Wait()
}
