package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/itsDrac/gemstone-auction/internal/dependency"
	"github.com/itsDrac/gemstone-auction/pkg/config"
)

type Server struct {
	HTTPServer   *http.Server
	Dependencies *dependency.Dependencies
}

func New(cfg *config.Config) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dependencies, err := dependency.NewDependencies(ctx, cfg)
	if err != nil {
		slog.Error("[Dependency] failed to initialize -> ", "error", err.Error())
		return nil, err
	}

	serv := &Server{
		Dependencies: dependencies,
	}

	// builds router
	mux := serv.routes()
	serv.HTTPServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return serv, nil
}

func (s *Server) Run() error {
	slog.Info("[SERVER] running -> ", "address", s.HTTPServer.Addr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// background workers stop after the HTTP server so in-flight bids still
	// get their events delivered
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.Dependencies.Outbox.Run(workerCtx)
	}()
	go func() {
		defer wg.Done()
		s.Dependencies.Services.Closer.Run(workerCtx, s.Dependencies.Config.Auction.SweepInterval)
	}()

	serveErr := make(chan error, 1)
	go func() {
		if err := s.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("[SERVER] failed to serve -> ", "error", err.Error())
			serveErr <- err
		}
	}()

	// Listen for the interrupt signal
	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("[SERVER] shutdown signal received")
	case runErr = <-serveErr:
	}

	// create shutdown context with 30 - sec timeout
	shutCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop http server
	if err := s.HTTPServer.Shutdown(shutCtx); err != nil {
		slog.Error("[SERVER] shutdown failed -> ", "error", err.Error())
		runErr = errors.Join(runErr, err)
	}

	stopWorkers()
	wg.Wait()
	slog.Info("[SERVER] workers stopped")

	s.Dependencies.Close(shutCtx)

	slog.Info("[SERVER] shutdown complete.")
	return runErr
}
