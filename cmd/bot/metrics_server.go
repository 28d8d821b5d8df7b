package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"homework-bot/internal/usecase/notify"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DeliveryHealthResponse represents the health of the Telegram delivery path.
type DeliveryHealthResponse struct {
	Healthy bool                       `json:"healthy"`
	Channel notify.ChannelHealthStatus `json:"channel"`
}

// deliveryHealth is the part of notify.Service the metrics server reads.
type deliveryHealth interface {
	Health() notify.ChannelHealthStatus
}

// metricsServer serves Prometheus metrics and delivery health.
//
// Endpoints:
//   - GET /metrics - Prometheus metrics endpoint
//   - GET /health/delivery - Delivery channel state; 503 while the circuit breaker is open
type metricsServer struct {
	addr     string
	gatherer prometheus.Gatherer
	delivery deliveryHealth
	logger   *slog.Logger
}

func newMetricsServer(addr string, gatherer prometheus.Gatherer, delivery deliveryHealth, logger *slog.Logger) *metricsServer {
	return &metricsServer{addr: addr, gatherer: gatherer, delivery: delivery, logger: logger}
}

func (m *metricsServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health/delivery", deliveryHealthHandler(m.delivery))
	return mux
}

// Start runs the server until ctx is canceled, then shuts it down within
// 5 seconds. Returns nil on graceful shutdown.
func (m *metricsServer) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         m.addr,
		Handler:      m.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		m.logger.Info("metrics server starting", slog.String("addr", m.addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		m.logger.Info("metrics server shutdown initiated")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			m.logger.Error("metrics server shutdown error", slog.Any("error", err))
			return err
		}
		m.logger.Info("metrics server stopped")
		return nil

	case err := <-errChan:
		m.logger.Error("metrics server error", slog.Any("error", err))
		return err
	}
}

// deliveryHealthHandler returns 200 while messages can be sent and 503
// while the circuit breaker rejects them.
func deliveryHealthHandler(delivery deliveryHealth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if delivery == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error": "notification service not initialized",
			})
			return
		}

		status := delivery.Health()
		healthy := !status.CircuitBreakerOpen

		statusCode := http.StatusOK
		if !healthy {
			statusCode = http.StatusServiceUnavailable
		}
		w.WriteHeader(statusCode)
		_ = json.NewEncoder(w).Encode(DeliveryHealthResponse{Healthy: healthy, Channel: status})
	}
}
