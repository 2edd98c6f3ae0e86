package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ironsheep/stack-scanner/internal/observability"
	"github.com/ironsheep/stack-scanner/internal/session"
	"github.com/ironsheep/stack-scanner/internal/web"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web page for scanning stacks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, opts, os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			return serve(ctx, a)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func serve(ctx context.Context, a *app) error {
	if a.log.GetLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	store := session.NewStore()
	srv := web.New(web.Options{
		Scanner:        a.svc,
		Store:          store,
		OCR:            a.engine,
		Sink:           a.cfg.Collection.Sink,
		MaxUploadBytes: a.cfg.Upload.MaxBytes,
		SessionTTL:     a.cfg.Session.TTL,
		Logger:         observability.Component(a.log, "web"),
	})

	httpSrv := &http.Server{
		Addr:         a.cfg.Server.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	go pruneSessions(ctx, a, store)

	if info := a.engine.Info(); !info.Available {
		a.log.Warn().Str("backend", info.Backend).Str("error", info.Error).Msg("ocr not available; scans will fail")
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.cfg.Server.Addr).Msg("listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.GracefulShutdown)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// pruneSessions ends idle sessions until ctx is done.
func pruneSessions(ctx context.Context, a *app, store *session.Store) {
	interval := a.cfg.Session.TTL / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Prune(a.cfg.Session.TTL); n > 0 {
				a.log.Debug().Int("pruned", n).Int("live", store.Len()).Msg("idle sessions pruned")
			}
		}
	}
}
