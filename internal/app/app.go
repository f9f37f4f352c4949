// Package app wires the bot builder components together and manages their
// lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/edgard/botbuilder/internal/app/tasks"
	"github.com/edgard/botbuilder/internal/config"
	"github.com/edgard/botbuilder/internal/registrar"
	"github.com/edgard/botbuilder/internal/registration"
	"github.com/edgard/botbuilder/internal/setup"
	"github.com/edgard/botbuilder/internal/web"
)

// App represents the running service: the HTTP server and the scheduler.
type App struct {
	logger    *slog.Logger
	cfg       *config.Config
	handler   http.Handler
	scheduler *Scheduler
}

// New builds every component from cfg.
func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	var service *registrar.Service
	if cfg.Registrar.Enabled || cfg.Setup.InProcess {
		breaker := registrar.NewBreaker(cfg.Registrar.BreakerFailures, cfg.Registrar.BreakerTimeout, log)
		service = registrar.NewService(cfg.Registrar.TelegramAPIURL, cfg.Registrar.RequestTimeout, breaker, log)
	}

	var reg setup.Registrar
	if cfg.Setup.InProcess {
		reg = service
		log.Info("Form submits to the in-process registrar")
	} else {
		reg = registration.NewClient(cfg.Setup.Endpoint, cfg.Setup.RequestTimeout, log)
		log.Info("Form submits to the verification endpoint", "endpoint", cfg.Setup.Endpoint)
	}

	messages := setup.Messages{
		TokenRequired:      cfg.Messages.TokenRequired,
		VerifyFailed:       cfg.Messages.VerifyFailed,
		UnknownError:       cfg.Messages.UnknownError,
		SuccessTitle:       cfg.Messages.SuccessTitle,
		SuccessDescription: cfg.Messages.SuccessDescription,
		ErrorTitle:         cfg.Messages.ErrorTitle,
	}
	webhookURL := cfg.Setup.WebhookURL
	sessions := web.NewSessions(cfg.Server.SessionCookie, cfg.Server.SessionTTL, func() *setup.Form {
		return setup.NewForm(reg, webhookURL, messages, log)
	})

	pages, err := web.NewHandler(sessions, log)
	if err != nil {
		return nil, err
	}
	routes := pages.Routes()
	if cfg.Registrar.Enabled {
		routes["verify"] = web.RegisteredRoute{
			Pattern: "/api/verify",
			Handler: registrar.NewHandler(service, cfg.Registrar.AllowedOrigins, log),
		}
	}

	taskMap := tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger:   log,
		Sessions: sessions,
		Config:   cfg,
	})
	scheduler, err := NewScheduler(log, &cfg.Scheduler, taskMap)
	if err != nil {
		return nil, err
	}

	return &App{
		logger:    log.With("component", "app"),
		cfg:       cfg,
		handler:   web.NewRouter(log, routes),
		scheduler: scheduler,
	}, nil
}

// Handler returns the HTTP handler serving every route.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run listens on the configured address and serves until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.cfg.Server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve runs the HTTP server on ln and the scheduler, shutting both down
// gracefully on context cancellation. It returns an error if any component
// fails during startup or execution.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	a.logger.Info("Starting app...")

	srv := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: a.cfg.Server.ReadHeaderTimeout,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("Starting HTTP server...", "addr", ln.Addr().String())
		err := srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		if gCtx.Err() == nil {
			return fmt.Errorf("http server stopped unexpectedly")
		}
		a.logger.Info("HTTP server stopped.")
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("Shutdown signal received, stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("Error stopping HTTP server", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		a.logger.Info("Starting scheduler...")
		if _, err := a.scheduler.Start(); err != nil {
			a.logger.Error("Failed to start scheduler", "error", err)
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		a.logger.Info("Shutdown signal received, stopping scheduler...")

		if err := a.scheduler.Stop(); err != nil {
			a.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	a.logger.Info("App running. Waiting for shutdown signal or error...")
	err := g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("App stopped due to error", "error", err)
		return err
	}

	a.logger.Info("App stopped gracefully.")
	return nil
}
