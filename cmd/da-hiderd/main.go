package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/common/clock"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/common/log"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/config"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/domain"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/gateways/fetch"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/gateways/proxy"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/repos/blocklist"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/repos/blocklist/bloom"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/repos/blocklist/lru"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/services/engine"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/services/resolver"
)

const (
	version = "0.1.0-dev"
	appName = "da-hiderd"

	defaultShutdownTimeout = 10 * time.Second
)

// Application holds the wired engine and the proxy serving it.
type Application struct {
	config *config.AppConfig
	engine *engine.Engine
	server *http.Server
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrSourceUnset) {
			fmt.Fprintf(os.Stderr, "Blocklist source error: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		}
		os.Exit(1)
	}

	err = log.Configure(cfg.Env, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	for _, w := range cfg.Warnings() {
		log.Warn(map[string]any{"warning": w}, "Configuration warning")
	}

	log.Info(map[string]any{
		"version":   version,
		"env":       cfg.Env,
		"log_level": cfg.Log.Level,
		"port":      cfg.Proxy.Port,
		"upstream":  cfg.Proxy.Upstream,
		"blocklist": cfg.Blocklist.URL,
		"keywords":  len(cfg.Keywords),
	}, "Starting "+appName)

	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
		cancel()
	}()

	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err}, "Server failed")
	}

	log.Info(nil, appName+" stopped gracefully")
}

// buildApplication constructs all components and wires them together.
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	clk := &clock.RealClock{}

	store := blocklist.NewStore(blocklist.StoreOptions{
		Factory:     bloom.NewFactory(),
		FPRate:      cfg.Blocklist.BloomFPRate,
		ProfileHost: cfg.Blocklist.ProfileHost,
		Clock:       clk,
		Logger:      log.Component("blocklist"),
	})

	cache, err := lru.New(cfg.Cache.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to create decision cache: %w", err)
	}
	log.Info(map[string]any{"type": "LRU", "size": cfg.Cache.Size}, "Decision cache configured")

	fetcher, err := fetch.New(fetch.Options{URL: cfg.Blocklist.URL, Timeout: cfg.Blocklist.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to create blocklist fetcher: %w", err)
	}

	shapes := resolver.DefaultShapes()
	shapes.HopLimit = cfg.Resolver.HopLimit

	eng, err := engine.New(engine.Options{
		Store:    store,
		Fetcher:  fetcher,
		Keywords: domain.NewKeywordSet(cfg.Keywords),
		Cache:    cache,
		Shapes:   shapes,
		Clock:    clk,
		Logger:   log.Component("engine"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	handler, err := proxy.New(proxy.Options{
		Upstream: cfg.Proxy.Upstream,
		Engine:   eng,
		Logger:   log.Component("proxy"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create proxy: %w", err)
	}

	return &Application{
		config: cfg,
		engine: eng,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Proxy.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Run serves until ctx is cancelled. The blocklist is fetched in the
// background; pages are served unfiltered until it arrives.
func (app *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", app.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	go func() {
		if err := app.engine.Boot(ctx); err != nil {
			log.Warn(map[string]any{"error": err.Error()}, "Blocklist unavailable, serving pages unfiltered")
		}
	}()

	serveErr := make(chan error, 1)
	go func() { serveErr <- app.server.Serve(ln) }()

	log.Info(map[string]any{"address": ln.Addr().String()}, "Proxy started")

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info(nil, "Shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	if err := app.server.Shutdown(shutdownCtx); err != nil {
		log.Warn(map[string]any{"timeout": defaultShutdownTimeout, "error": err.Error()}, "Shutdown timeout exceeded")
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info(nil, "Graceful shutdown completed")
	return nil
}
