// Package api defines the web API of parapipe.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/internetarchive/parapipe/internal/pkg/config"
	"github.com/internetarchive/parapipe/internal/pkg/log"
)

var (
	server   *http.Server
	serverMu sync.Mutex
)

// Start begins serving HTTP requests in a separate goroutine.
func Start() error {
	serverMu.Lock()
	defer serverMu.Unlock()

	if server != nil {
		return ErrAPIAlreadyInitialized
	}

	logger := log.NewFieldedLogger(&log.Fields{
		"component": "api",
	})

	mux := http.NewServeMux()
	registerRoutes(mux)

	port := 9443
	if config.Get() != nil && config.Get().APIPort != 0 {
		port = config.Get().APIPort
	}

	server = &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(port)),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func(srv *http.Server) {
		logger.Info("starting API server", "addr", srv.Addr)
		// ListenAndServe returns http.ErrServerClosed when Shutdown is called.
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("API server stopped", "err", err.Error())
		}
	}(server)

	return nil
}

// Stop gracefully shuts down the server within the provided timeout.
func Stop(timeout time.Duration) error {
	serverMu.Lock()
	defer serverMu.Unlock()

	if server == nil {
		return nil
	}

	log.Info("stopping API server", "addr", server.Addr)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := server.Shutdown(ctx)
	server = nil
	return err
}
