// Package orchestrator wires the bridge's components together: it starts
// the FD Poller and Hub Client, installs the interrupt handler, and drives
// shutdown. Nothing downstream of it reaches for global state — every
// capability (logger, config, app list) is injected here and threaded down.
package orchestrator

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/trybotster/ganglion-bridge/internal/apps"
	"github.com/trybotster/ganglion-bridge/internal/config"
	"github.com/trybotster/ganglion-bridge/internal/fdpoller"
	"github.com/trybotster/ganglion-bridge/internal/healthcheck"
	"github.com/trybotster/ganglion-bridge/internal/hubclient"
	"github.com/trybotster/ganglion-bridge/internal/idle"
	"github.com/trybotster/ganglion-bridge/internal/sessionmgr"
)

// Options carries the validated inputs the core is constructed from: a
// config, an app list, and feature flags. Parsing flags/files is the CLI's
// job, not the orchestrator's.
type Options struct {
	Config          *config.Config
	Logger          *slog.Logger
	HealthCheckAddr string // empty disables the local health-check server
}

// Orchestrator is the top-level lifecycle owner.
type Orchestrator struct {
	opts     Options
	logger   *slog.Logger
	registry *apps.Registry
	poller   *fdpoller.Poller
	manager  *sessionmgr.Manager
	client   *hubclient.Client
	monitor  *idle.Monitor
	health   *http.Server

	// ready mirrors the Connected-event gate: false until the first
	// post-connect DeclareApps send has been made, set by the Hub Client's
	// OnConnectedEvent callback. Read concurrently by every /healthz
	// handler goroutine, so it is an atomic rather than a bare bool.
	ready atomic.Bool
}

func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = newLogger(opts.Config.Debug)
	}

	registry := apps.NewRegistry()
	for _, a := range opts.Config.Apps {
		registry.Register(apps.App{
			Name:             a.Name,
			Slug:             a.Slug,
			WorkingDirectory: a.WorkingDirectory,
			Command:          a.Command,
			Terminal:         a.Terminal,
			Color:            a.Color,
		})
	}

	o := &Orchestrator{
		opts:     opts,
		logger:   logger,
		registry: registry,
	}

	o.poller = fdpoller.New()
	o.manager = sessionmgr.New(registry, o.poller, logger)
	o.client = hubclient.New(hubclient.Config{
		HubURL:           opts.Config.HubURL,
		APIKey:           opts.Config.GetAPIKey(),
		Devtools:         opts.Config.Devtools,
		Registry:         registry,
		Manager:          o.manager,
		Logger:           logger,
		OnConnectedEvent: o.ready.Store,
	})
	o.monitor = idle.New(time.Duration(opts.Config.IdleExitSeconds)*time.Second, o.manager, o.forceExit, logger)
	return o
}

// newLogger builds the structured logger per the ambient logging
// convention: JSON in production, text when debug is enabled.
func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	var handler slog.Handler
	if debug {
		level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler)
}

// Run installs the interrupt handler and blocks until shutdown completes.
func (o *Orchestrator) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if o.opts.HealthCheckAddr != "" {
		o.startHealthCheck()
		defer o.health.Close()
	}

	go o.monitor.Run(ctx)

	err := o.client.Run(ctx)
	o.poller.Stop()
	return err
}

func (o *Orchestrator) startHealthCheck() {
	hc := healthcheck.New(o.manager, &o.ready, o.logger)
	o.health = &http.Server{Addr: o.opts.HealthCheckAddr, Handler: hc.Handler()}
	go func() {
		if err := o.health.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			o.logger.Warn("healthcheck server stopped", "error", err)
		}
	}()
}

// forceExit is handed to the Idle Exit Monitor; it stops the hub client's
// retry loop, which unwinds Run.
func (o *Orchestrator) forceExit() {
	o.client.Stop()
}
