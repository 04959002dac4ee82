package types

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/velastools/velastools/pkg/readmodel"
)

// Store is what the dashboard reads from.
type Store interface {
	readmodel.Reader
	Ping(ctx context.Context) error
	Close() error
}

// TableCache is an optional read-through cache for rendered tables.
type TableCache interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, v any) error
	Health(ctx context.Context) error
	Close() error
}

type App struct {
	Store Store
	// Cache is nil when REDIS_ENABLED is false
	Cache  TableCache
	Logger *zap.Logger
	// Server represents the HTTP server instance used to handle incoming client requests and manage HTTP routes.
	Server *http.Server
}

// Start serves until ctx is cancelled, then shuts the server down and closes the store.
func (a *App) Start(ctx context.Context) {
	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.Error("Server stopped", zap.Error(err))
		}
	}()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = a.Server.Shutdown(shutdownCtx)

	if err := a.Store.Close(); err != nil {
		a.Logger.Error("Failed to close database connection", zap.Error(err))
	}
	if a.Cache != nil {
		_ = a.Cache.Close()
	}
	a.Logger.Info("Dashboard stopped")
}
