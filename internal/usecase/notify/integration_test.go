package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"homework-bot/internal/infra/notifier"
	"homework-bot/internal/resilience/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const integrationToken = "987654:INTEGRATION-token"

func newTelegramChannel(t *testing.T, handler http.HandlerFunc) *notifier.TelegramNotifier {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := notifier.DefaultTelegramConfig(integrationToken)
	cfg.APIURL = srv.URL
	cfg.Timeout = 2 * time.Second
	cfg.MessagesPerSecond = 0
	cfg.Retry = retry.Config{MaxAttempts: 1}

	ch, err := notifier.NewTelegramNotifier(cfg)
	require.NoError(t, err)
	return ch
}

// TestIntegration_TelegramDelivery verifies the service and the Bot API transport end to end
func TestIntegration_TelegramDelivery(t *testing.T) {
	// Arrange
	var (
		mu       sync.Mutex
		received []map[string]string
	)
	ch := newTelegramChannel(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		received = append(received, body)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":5,"date":1700000000,"chat":{"id":100,"type":"private"},"text":"ok"}}`))
	})
	svc, _ := newTestService(t, ch)

	// Act
	ok := svc.Notify(context.Background(), 100, `Изменился статус проверки работы "hw1". Работа проверена: ревьюеру всё понравилось. Ура!`)

	// Assert
	assert.True(t, ok)
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, "100", received[0]["chat_id"])
	assert.Equal(t, `Изменился статус проверки работы "hw1". Работа проверена: ревьюеру всё понравилось. Ура!`, received[0]["text"])
}

// TestIntegration_TelegramRejection verifies API errors are contained as false
func TestIntegration_TelegramRejection(t *testing.T) {
	ch := newTelegramChannel(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`))
	})
	svc, _ := newTestService(t, ch)

	ok := svc.Notify(context.Background(), 100, "hello")

	assert.False(t, ok)
	health := svc.Health()
	assert.NotEmpty(t, health.LastError)
	assert.NotContains(t, health.LastError, "INTEGRATION-token")
}

// TestIntegration_TelegramUnreachable verifies a dead Bot API never leaks the token
func TestIntegration_TelegramUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := notifier.DefaultTelegramConfig(integrationToken)
	cfg.APIURL = url
	cfg.MessagesPerSecond = 0
	cfg.Retry = retry.Config{MaxAttempts: 1}
	ch, err := notifier.NewTelegramNotifier(cfg)
	require.NoError(t, err)
	svc, _ := newTestService(t, ch)

	ok := svc.Notify(context.Background(), 100, "hello")

	assert.False(t, ok)
	assert.NotContains(t, svc.Health().LastError, "INTEGRATION-token")
}
