// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/stacklok/regoidc/pkg/config"
	"github.com/stacklok/regoidc/pkg/logger"
	"github.com/stacklok/regoidc/pkg/plugin"
)

const (
	defaultGracefulTimeout = 30 * time.Second
	discoveryTimeout       = 30 * time.Second
	serverRequestTimeout   = 30 * time.Second // provider round trips happen inside requests
	serverReadTimeout      = 10 * time.Second
	serverWriteTimeout     = 35 * time.Second // Must be > serverRequestTimeout to let middleware handle timeout
	serverIdleTimeout      = 60 * time.Second
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start a stand-alone regoidc server",
		Long: `Start an HTTP server exposing the regoidc login routes together with
/-/whoami, /-/ping and /metrics. The server shuts down gracefully on SIGINT
or SIGTERM.`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := viper.BindPFlag("serve.config", cmd.Flags().Lookup("config")); err != nil {
				return err
			}
			return viper.BindPFlag("serve.address", cmd.Flags().Lookup("address"))
		},
		RunE: runServe,
	}

	cmd.Flags().String("config", "regoidc.yaml", "Path to the configuration file")
	cmd.Flags().String("address", ":4873", "Address to listen on")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(viper.GetString("serve.config"))
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	p, err := plugin.New(ctx, cfg, plugin.WithRegisterer(reg))
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Close(); err != nil {
			logger.Warnw("failed to close plugin", "error", err)
		}
	}()

	readyCtx, cancel := context.WithTimeout(ctx, discoveryTimeout)
	err = p.Ready(readyCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("provider discovery failed: %w", err)
	}

	address := viper.GetString("serve.address")
	server := &http.Server{
		Addr:         address,
		Handler:      newRouter(p, reg),
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Get().Handler(), slog.LevelWarn),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infow("server listening", "address", address, "base_url", cfg.BaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), defaultGracefulTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		logger.Info("Server shutdown complete")
		return nil
	})

	return g.Wait()
}

func newRouter(p *plugin.Plugin, reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Timeout(serverRequestTimeout),
		requestLogger,
	)

	r.Get("/-/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{}"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	p.RegisterMiddlewares(r)

	r.Group(func(r chi.Router) {
		r.Use(p.BearerMiddleware)
		r.Get("/-/whoami", plugin.WhoamiHandler)
	})

	return r
}

// requestLogger logs every request at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Debugw("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
