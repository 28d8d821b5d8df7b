package notify

import (
	"context"
	"sync"
	"time"
)

// mockChannel is a test implementation of the Channel interface
type mockChannel struct {
	name      string
	sendError error
	sendDelay time.Duration

	mu       sync.Mutex
	sent     []sentMessage
	attempts int
}

type sentMessage struct {
	chatID int64
	text   string
}

var _ Channel = (*mockChannel)(nil)

func newMockChannel() *mockChannel {
	return &mockChannel{name: "telegram"}
}

func (m *mockChannel) Name() string {
	return m.name
}

func (m *mockChannel) Send(ctx context.Context, chatID int64, text string) error {
	m.mu.Lock()
	m.attempts++
	delay := m.sendDelay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendError != nil {
		return m.sendError
	}
	m.sent = append(m.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (m *mockChannel) setSendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendError = err
}

func (m *mockChannel) attemptCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

func (m *mockChannel) messages() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.sent...)
}
