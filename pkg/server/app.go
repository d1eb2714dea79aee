package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	xhttp "FinCast/pkg/http"
	applogger "FinCast/pkg/logger"
)

// Component is a background part of the app with an explicit lifecycle.
type Component interface {
	Start() error
	Stop(ctx context.Context) error
}

// Closer releases a resource at the end of shutdown.
type Closer struct {
	Name  string
	Close func() error
}

// App encapsulates the entire application lifecycle.
type App struct {
	log        *applogger.Logger
	httpServer *xhttp.Server
	scheduler  Component
	consumer   Component
	closers    []Closer
	timeout    time.Duration
}

// New creates a new App. consumer may be nil when Kafka is disabled.
func New(l *applogger.Logger, httpServer *xhttp.Server, scheduler Component, consumer Component, closers ...Closer) *App {
	return &App{
		log:        l,
		httpServer: httpServer,
		scheduler:  scheduler,
		consumer:   consumer,
		closers:    closers,
		timeout:    httpServer.ShutdownTimeout(),
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(); err != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		return errors.Join(err, a.Shutdown(shutdownCtx))
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	return a.Shutdown(shutdownCtx)
}

// Start brings up the scheduler, the optional consumer and the HTTP server.
func (a *App) Start() error {
	if err := a.scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	if a.consumer != nil {
		if err := a.consumer.Start(); err != nil {
			return fmt.Errorf("start kafka consumer: %w", err)
		}
	}
	if err := a.httpServer.Start(); err != nil {
		return fmt.Errorf("start http server: %w", err)
	}
	return nil
}

// Shutdown stops intake first, then background work, then releases resources.
func (a *App) Shutdown(ctx context.Context) error {
	a.log.Info("shutting down...")
	var errs []error

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	if err := a.scheduler.Stop(ctx); err != nil {
		a.log.Warn("scheduler stop error", applogger.Error(err))
		errs = append(errs, err)
	}

	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.log.Warn("close error", applogger.String("resource", c.Name), applogger.Error(err))
			errs = append(errs, fmt.Errorf("close %s: %w", c.Name, err))
		}
	}

	a.log.Info("shutdown complete")
	a.log.RemoveCollector()
	return errors.Join(errs...)
}
