package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vshulcz/harmonia/internal/adapters/collector/host"
	"github.com/vshulcz/harmonia/internal/adapters/http/ginserver"
	"github.com/vshulcz/harmonia/internal/adapters/http/ginserver/middlewares"
	"github.com/vshulcz/harmonia/internal/adapters/upstream"
	"github.com/vshulcz/harmonia/internal/config"
	"github.com/vshulcz/harmonia/internal/ports"
	"github.com/vshulcz/harmonia/internal/services/proxy"
	"github.com/vshulcz/harmonia/internal/services/stats"
)

const shutdownTimeout = 5 * time.Second

type app struct {
	log      *zap.Logger
	hc       *http.Client
	store    *stats.Store
	host     ports.HostCollector
	handler  http.Handler
	interval time.Duration
}

func buildApp(cfg config.ServerConfig, logger *zap.Logger) (*app, error) {
	hc := &http.Client{}

	api, err := upstream.New(cfg.APIURL, hc, upstream.WithTimeout(cfg.Timeout))
	if err != nil {
		return nil, fmt.Errorf("api client: %w", err)
	}
	self, err := upstream.New(cfg.APIURL, hc, upstream.WithTimeout(cfg.Timeout), upstream.WithProbeURL(cfg.ProbeURL))
	if err != nil {
		return nil, fmt.Errorf("probe client: %w", err)
	}

	store := stats.New(api, self, stats.WithTimeout(cfg.Timeout))
	collector := host.New(cfg.HostInterval, nil)

	h := ginserver.NewHandler(proxy.New(api), store, collector, logger)
	r := ginserver.NewRouter(h,
		middlewares.ZapLogger(logger, quietPaths(cfg.ProbeURL)...),
		middlewares.GzipResponse(),
	)

	return &app{
		log:      logger,
		hc:       hc,
		store:    store,
		host:     collector,
		handler:  r,
		interval: cfg.PollInterval,
	}, nil
}

// quietPaths are the request paths polled by the server itself. Their
// successful requests log at debug level.
func quietPaths(probeURL string) []string {
	paths := []string{"/ping"}
	if u, err := url.Parse(probeURL); err == nil && u.Path != "" && u.Path != "/ping" {
		paths = append(paths, u.Path)
	}
	return paths
}

// serve runs the HTTP server, the polling store and the host collector until
// ctx is cancelled, then shuts everything down.
func (a *app) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if err := a.host.Start(gctx); err != nil {
		a.log.Warn("host collector not started", zap.Error(err))
	}
	unsubscribe := a.store.Subscribe(stats.Watch(stats.LogTransitions(a.log)))
	if err := a.store.Start(gctx, a.interval); err != nil {
		unsubscribe()
		a.host.Stop()
		_ = srv.Close()
		_ = g.Wait()
		return fmt.Errorf("start stats store: %w", err)
	}

	g.Go(func() error {
		<-gctx.Done()

		a.store.Stop()
		a.hc.CloseIdleConnections()
		unsubscribe()
		a.host.Stop()

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
