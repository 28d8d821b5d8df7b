package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"homework-bot/internal/usecase/poll"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func getHealth(t *testing.T, h http.Handler, path string) (int, healthResponse) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %q", ct)
	}
	return rec.Code, body
}

func TestHealthServer_Liveness(t *testing.T) {
	server := NewHealthServer("", discardLogger(), nil)

	code, body := getHealth(t, server.Handler(), "/health")

	if code != http.StatusOK {
		t.Errorf("expected status 200, got %d", code)
	}
	if body.Status != "ok" {
		t.Errorf("expected status 'ok', got '%s'", body.Status)
	}
}

func TestHealthServer_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		ready      bool
		check      ReadinessCheck
		wantCode   int
		wantReason string
	}{
		{"not started", false, nil, http.StatusServiceUnavailable, "starting"},
		{"ready without check", true, nil, http.StatusOK, ""},
		{"check passes", true, func() error { return nil }, http.StatusOK, ""},
		{"check fails", true, func() error { return errors.New("poll loop is not running") }, http.StatusServiceUnavailable, "poll loop is not running"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := NewHealthServer("", discardLogger(), tt.check)
			server.SetReady(tt.ready)

			code, body := getHealth(t, server.Handler(), "/health/ready")

			if code != tt.wantCode {
				t.Errorf("expected status %d, got %d", tt.wantCode, code)
			}
			if body.Reason != tt.wantReason {
				t.Errorf("expected reason %q, got %q", tt.wantReason, body.Reason)
			}
		})
	}
}

func TestLoopReadiness(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	tests := []struct {
		name    string
		status  poll.Status
		wantErr string
	}{
		{"not running", poll.Status{Running: false, LastSuccess: now}, "not running"},
		{"no success yet", poll.Status{Running: true}, "no successful poll cycle yet"},
		{"stale", poll.Status{Running: true, LastSuccess: now.Add(-31 * time.Minute)}, "31m0s ago"},
		{"fresh", poll.Status{Running: true, LastSuccess: now.Add(-29 * time.Minute)}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := LoopReadiness(func() poll.Status { return tt.status }, 30*time.Minute, clock)

			err := check()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected ready, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestHealthServer_StartAndShutdown(t *testing.T) {
	// Grab a free port, then hand it to the server.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	server := NewHealthServer(addr, discardLogger(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Start(ctx) }()

	var resp *http.Response
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err = http.Get("http://" + addr + "/health")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("failed to call /health: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected nil on graceful shutdown, got %v", err)
		}
	case <-time.After(6 * time.Second):
		t.Fatal("server did not shut down")
	}
}
