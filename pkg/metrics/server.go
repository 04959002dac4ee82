package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// HealthFunc reports whether the process dependencies are reachable.
type HealthFunc func(ctx context.Context) error

// NewRouter exposes /metrics and /healthz for the headless processes. /healthz answers 503
// while health fails; a nil health always answers 200.
func NewRouter(health HealthFunc, logger *zap.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if health != nil {
			if err := health(req.Context()); err != nil {
				logger.Warn("Health check failed", zap.Error(err))
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")
	return r
}

// Serve listens on addr until ctx is cancelled. An empty addr disables the listener.
func Serve(ctx context.Context, addr string, logger *zap.Logger, health HealthFunc) {
	if addr == "" {
		return
	}
	srv := &http.Server{Addr: addr, Handler: NewRouter(health, logger), ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server stopped", zap.Error(err))
		}
	}()
	logger.Info("Serving metrics", zap.String("addr", addr))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
