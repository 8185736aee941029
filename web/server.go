// Package web serves the product dashboard over HTTP.
package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"product-insights/models"
	"product-insights/services"
	"product-insights/utils"
)

// Sections lists the dashboard sections in display order.
var Sections = []string{"filtered", "price", "rating", "top", "category", "reviews"}

// Server renders reports over an immutable base product set. Every request
// builds its own filtered view; the base slice is never modified.
type Server struct {
	products []*models.Product
	insights *services.InsightService
	logger   *utils.Logger
	page     *pageRenderer
	metrics  *requestMetrics
}

// NewServer creates a dashboard server for products.
func NewServer(products []*models.Product, insights *services.InsightService, logger *utils.Logger) (*Server, error) {
	page, err := newPageRenderer()
	if err != nil {
		return nil, fmt.Errorf("web: parse templates: %w", err)
	}
	metrics := newRequestMetrics()
	metrics.products.Set(float64(len(products)))
	return &Server{products: products, insights: insights, logger: logger, page: page, metrics: metrics}, nil
}

// Handler returns the HTTP routes. Prometheus metrics are served on /metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.metrics.instrument("/healthz", s.handleHealth))
	mux.HandleFunc("/api/report", s.metrics.instrument("/api/report", s.handleReport))
	mux.HandleFunc("/", s.metrics.instrument("/", s.handleDashboard))
	mux.Handle("/metrics", s.metrics.handler())
	return s.logRequests(mux)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("[web] Dashboard listening on http://%s", ln.Addr())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web: serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("[web] Shutting down dashboard")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	section := r.URL.Query().Get("section")
	if section != "" && !validSection(section) {
		http.Error(w, fmt.Sprintf("unknown section %q", section), http.StatusBadRequest)
		return
	}

	report, err := s.buildReport(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.render(w, report, section); err != nil {
		s.logger.Error("[web] Render dashboard: %v", err)
	}
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	report, err := s.buildReport(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, newReportJSON(report))
}

// buildReport reads the min/max query parameters; absent ones default to
// the base set's price bounds.
func (s *Server) buildReport(r *http.Request) (*models.DashboardReport, error) {
	lo, hi, _ := services.PriceBounds(s.products)

	q := r.URL.Query()
	min, err := parseBound(q.Get("min"), lo)
	if err != nil {
		return nil, fmt.Errorf("invalid min: %w", err)
	}
	max, err := parseBound(q.Get("max"), hi)
	if err != nil {
		return nil, fmt.Errorf("invalid max: %w", err)
	}
	return s.insights.Build(s.products, min, max)
}

func parseBound(raw string, fallback float64) (float64, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(raw, 64)
}

func validSection(name string) bool {
	for _, s := range Sections {
		if s == name {
			return true
		}
	}
	return false
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("[web] %s %s (%v)", r.Method, r.URL.RequestURI(), time.Since(start))
	})
}
