package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"signalforge/internal/marketdata/stream"
	"signalforge/internal/usecase"
	"signalforge/pkg/config"
	xhttp "signalforge/pkg/http"
	applogger "signalforge/pkg/logger"
)

// App owns the process lifecycle: the HTTP server, the background
// goroutines (kline warmer, evaluation sweep), and orderly shutdown of
// the infrastructure clients.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	handler    xhttp.Handler
	warmer     *stream.Warmer
	evaluator  *usecase.Evaluator
	httpServer *xhttp.Server
	closers    []io.Closer
}

// New assembles the application. Warmer may be nil (stream disabled);
// closers are closed in reverse order on shutdown.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	handler xhttp.Handler,
	warmer *stream.Warmer,
	evaluator *usecase.Evaluator,
	closers ...io.Closer,
) *App {
	return &App{
		cfg:       cfg,
		logger:    logger,
		handler:   handler,
		warmer:    warmer,
		evaluator: evaluator,
		closers:   closers,
	}
}

// Run starts everything and blocks until an interrupt arrives.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.logger),
	)

	if a.warmer != nil {
		go a.warmer.Run(ctx)
		a.logger.Info("kline stream warmer started", applogger.Strings("pairs", a.cfg.Stream.Pairs))
	}
	if a.evaluator != nil {
		go a.evaluator.RunSweep(ctx)
		a.logger.Info("evaluation sweep started")
	}

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown stops the HTTP server and closes infrastructure clients in
// reverse registration order.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.warmer != nil {
		if err := a.warmer.Close(); err != nil {
			a.logger.Warn("stream close error", applogger.Error(err))
		}
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		if a.closers[i] == nil {
			continue
		}
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn("close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
