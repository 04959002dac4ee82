package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/velastools/velastools/app/dashboard/types"
	"github.com/velastools/velastools/pkg/metrics"
)

type Controller struct {
	App   *types.App
	pages pages
}

// NewController parses the embedded templates and returns a new controller.
func NewController(app *types.App) (*Controller, error) {
	p, err := parsePages()
	if err != nil {
		return nil, err
	}
	return &Controller{App: app, pages: p}, nil
}

// NewRouter returns a new router with all the routes defined in this file.
func (c *Controller) NewRouter() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(WithTimer, withMetrics)

	r.HandleFunc("/", c.Index).Methods("GET")
	r.HandleFunc("/useful.html", c.Useful).Methods("GET")
	r.HandleFunc("/credits/{cluster}.html", c.CreditsPage).Methods("GET")
	r.HandleFunc("/rewards/{cluster}.html", c.RewardsPage).Methods("GET")

	r.HandleFunc("/api/credits/{cluster}", c.APICredits).Methods("GET")
	r.HandleFunc("/api/rewards/{cluster}", c.APIRewards).Methods("GET")

	r.HandleFunc("/health", c.HandleHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	r.NotFoundHandler = WithTimer(http.HandlerFunc(c.NotFound))
	r.MethodNotAllowedHandler = WithTimer(http.HandlerFunc(c.NotFound))

	return r, nil
}

// timedWriter stamps X-Time-Exec right before the status line goes out.
type timedWriter struct {
	http.ResponseWriter
	start  time.Time
	status int
}

func (w *timedWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
		w.Header().Set("X-Time-Exec", fmt.Sprintf("%.5f", time.Since(w.start).Seconds()))
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *timedWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// WithTimer sets X-Time-Exec to the seconds spent producing the response, with five decimals.
func WithTimer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tw := &timedWriter{ResponseWriter: w, start: time.Now()}
		next.ServeHTTP(tw, r)
		if tw.status == 0 {
			tw.WriteHeader(http.StatusOK)
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func withMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cr := mux.CurrentRoute(r); cr != nil {
			if tpl, err := cr.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		metrics.ObserveHTTP(route, rec.status, time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
