// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api serves the raffle query interface, round history and the event
// journal over HTTP/JSON.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const DefaultListenAddress = ":8080"

type APIConfig struct {
	ListenAddress string
	// History is optional. Round and event routes answer 503 without it.
	History RoundHistory
	// Wallet is optional. POST /api/v0/raffle/enter is only routed when set.
	Wallet Wallet
	// Operator is optional. When set, POST /api/v0/raffle/reset resets a
	// stuck round as this account. The caller cannot choose the account.
	Operator common.Address
	// MaxRequestsPerIP caps in-flight requests from one source (0 = unlimited)
	MaxRequestsPerIP int
}

// API is the raffle HTTP server
type API struct {
	config     APIConfig
	logger     *slog.Logger
	node       RaffleNode
	httpServer *http.Server
	mu         sync.Mutex
}

// New creates a new API server instance
func New(
	cfg APIConfig,
	node RaffleNode,
	logger *slog.Logger,
) *API {
	if logger == nil {
		logger = slog.New(
			slog.NewJSONHandler(io.Discard, nil),
		)
	}
	logger = logger.With("component", "api")
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	return &API{
		config: cfg,
		logger: logger,
		node:   node,
	}
}

// Handler returns the request router
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", a.handleRoot)
	mux.HandleFunc("GET /health", a.handleHealth)
	mux.HandleFunc("GET /api/v0/raffle", a.handleRaffle)
	mux.HandleFunc(
		"GET /api/v0/raffle/entrance-fee",
		a.handleEntranceFee,
	)
	mux.HandleFunc("GET /api/v0/raffle/interval", a.handleInterval)
	mux.HandleFunc("GET /api/v0/raffle/state", a.handleState)
	mux.HandleFunc("GET /api/v0/raffle/players", a.handlePlayers)
	mux.HandleFunc(
		"GET /api/v0/raffle/players/{index}",
		a.handlePlayer,
	)
	mux.HandleFunc("GET /api/v0/raffle/winner", a.handleWinner)
	mux.HandleFunc("GET /api/v0/raffle/timestamp", a.handleTimestamp)
	mux.HandleFunc("GET /api/v0/raffle/upkeep", a.handleUpkeep)
	mux.HandleFunc("GET /api/v0/rounds", a.handleRounds)
	mux.HandleFunc("GET /api/v0/rounds/{round}", a.handleRound)
	mux.HandleFunc("GET /api/v0/events", a.handleEvents)
	if a.config.Wallet != nil {
		mux.HandleFunc("POST /api/v0/raffle/enter", a.handleEnter)
	}
	if a.config.Operator != (common.Address{}) {
		mux.HandleFunc("POST /api/v0/raffle/reset", a.handleReset)
	}
	if a.config.MaxRequestsPerIP > 0 {
		return newIPLimiter(a.config.MaxRequestsPerIP).middleware(mux)
	}
	return mux
}

// Start starts the HTTP server in a background goroutine.
func (a *API) Start(
	ctx context.Context,
) error {
	a.mu.Lock()
	if a.httpServer != nil {
		a.mu.Unlock()
		return errors.New("server already started")
	}
	server := &http.Server{
		Addr:              a.config.ListenAddress,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 60 * time.Second,
	}
	a.httpServer = server
	a.mu.Unlock()

	ln, err := a.listen(server)
	if err != nil {
		a.mu.Lock()
		a.httpServer = nil
		a.mu.Unlock()
		return err
	}

	a.logger.Info(
		"API listener started on " + ln.Addr().String(),
	)

	// Monitor context for cancellation
	go func() {
		<-ctx.Done()
		a.mu.Lock()
		srv := a.httpServer
		a.httpServer = nil
		a.mu.Unlock()

		if srv != nil {
			a.logger.Debug(
				"context cancelled, shutting down API server",
			)
			//nolint:contextcheck
			shutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				30*time.Second,
			)
			defer cancel()
			//nolint:contextcheck
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Error(
					"failed to shutdown API server on context cancellation",
					"error", err,
				)
			}
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (a *API) Stop(
	ctx context.Context,
) error {
	a.mu.Lock()
	srv := a.httpServer
	a.httpServer = nil
	a.mu.Unlock()

	if srv != nil {
		a.logger.Debug("shutting down API server")
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf(
				"failed to shutdown API server: %w",
				err,
			)
		}
	}
	return nil
}

// listen binds the socket before serving so that port conflicts surface from
// Start
func (a *API) listen(
	server *http.Server,
) (net.Listener, error) {
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to listen for API server: %w",
			err,
		)
	}
	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			a.logger.Error(
				"API server error",
				"error", err,
			)
		}
	}()
	return ln, nil
}
