package circuitbreaker

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

var errSend = errors.New("send failed")

func fail() (interface{}, error)    { return nil, errSend }
func succeed() (interface{}, error) { return "ok", nil }

func TestNew(t *testing.T) {
	cb := New(TelegramDeliveryConfig())

	if cb == nil {
		t.Fatal("expected circuit breaker, got nil")
	}
	if cb.Name() != "telegram" {
		t.Errorf("expected name='telegram', got %q", cb.Name())
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("expected initial state=Closed, got %v", cb.State())
	}
}

func TestCircuitBreaker_Execute_PassesThroughResult(t *testing.T) {
	cb := New(TelegramDeliveryConfig())

	result, err := cb.Execute(succeed)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result != "ok" {
		t.Errorf("expected result='ok', got %v", result)
	}

	result, err = cb.Execute(fail)
	if !errors.Is(err, errSend) {
		t.Errorf("expected send error, got %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result, got %v", result)
	}
}

func TestCircuitBreaker_ConsecutiveFailuresTrip(t *testing.T) {
	cfg := TelegramDeliveryConfig()
	cfg.Timeout = time.Minute
	cb := New(cfg)

	for i := 0; i < 4; i++ {
		_, _ = cb.Execute(fail)
	}
	if cb.State() != gobreaker.StateClosed {
		t.Fatalf("expected Closed after 4 failures, got %v", cb.State())
	}
	if got := cb.Counts().ConsecutiveFailures; got != 4 {
		t.Errorf("expected 4 consecutive failures, got %d", got)
	}

	_, _ = cb.Execute(fail)
	if !cb.IsOpen() {
		t.Fatalf("expected Open after 5 consecutive failures, got %v", cb.State())
	}

	_, err := cb.Execute(func() (interface{}, error) {
		t.Error("function should not be called when circuit is open")
		return nil, nil
	})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected ErrOpenState, got %v", err)
	}
}

func TestCircuitBreaker_SuccessResetsStreak(t *testing.T) {
	cb := New(TelegramDeliveryConfig())

	for i := 0; i < 4; i++ {
		_, _ = cb.Execute(fail)
	}
	_, _ = cb.Execute(succeed)
	for i := 0; i < 4; i++ {
		_, _ = cb.Execute(fail)
	}

	if cb.State() != gobreaker.StateClosed {
		t.Errorf("expected Closed when failures are not consecutive, got %v", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	cfg := TelegramDeliveryConfig()
	cfg.Timeout = 50 * time.Millisecond
	cb := New(cfg)

	for i := 0; i < 5; i++ {
		_, _ = cb.Execute(fail)
	}
	if !cb.IsOpen() {
		t.Fatalf("circuit should be open, got %v", cb.State())
	}

	time.Sleep(80 * time.Millisecond)
	if cb.State() != gobreaker.StateHalfOpen {
		t.Fatalf("expected HalfOpen after timeout, got %v", cb.State())
	}

	if _, err := cb.Execute(succeed); err != nil {
		t.Errorf("expected probe to succeed, got %v", err)
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("expected Closed after successful probe, got %v", cb.State())
	}
}

func TestCircuitBreaker_ZeroThresholdUsesLibraryDefault(t *testing.T) {
	cb := New(Config{Name: "default", Timeout: time.Minute})

	for i := 0; i < 5; i++ {
		_, _ = cb.Execute(fail)
	}
	if cb.State() != gobreaker.StateClosed {
		t.Fatalf("expected Closed after 5 failures, got %v", cb.State())
	}

	_, _ = cb.Execute(fail)
	if !cb.IsOpen() {
		t.Errorf("expected Open after 6 consecutive failures, got %v", cb.State())
	}
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	var (
		mu          sync.Mutex
		transitions []gobreaker.State
	)
	cfg := TelegramDeliveryConfig()
	cfg.OnStateChange = func(_ string, _, to gobreaker.State) {
		mu.Lock()
		defer mu.Unlock()
		transitions = append(transitions, to)
	}
	cb := New(cfg)

	for i := 0; i < 5; i++ {
		_, _ = cb.Execute(fail)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(transitions) != 1 || transitions[0] != gobreaker.StateOpen {
		t.Errorf("expected a single transition to Open, got %v", transitions)
	}
}

func TestTelegramDeliveryConfig(t *testing.T) {
	cfg := TelegramDeliveryConfig()

	if cfg.ConsecutiveFailures != 5 {
		t.Errorf("expected ConsecutiveFailures=5, got %d", cfg.ConsecutiveFailures)
	}
	if cfg.Timeout != 15*time.Minute {
		t.Errorf("expected Timeout=15m, got %v", cfg.Timeout)
	}
	if cfg.MaxRequests != 1 {
		t.Errorf("expected MaxRequests=1, got %d", cfg.MaxRequests)
	}
	if cfg.Interval != 0 {
		t.Errorf("expected Interval=0, got %v", cfg.Interval)
	}
}
