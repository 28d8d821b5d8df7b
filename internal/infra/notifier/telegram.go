// Package notifier provides the Telegram Bot API transport used to deliver
// plain-text messages, built on gopkg.in/telebot.v3 together with its
// rate limiter. TelegramNotifier satisfies notify.Channel.
package notifier

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"homework-bot/internal/observability/logging"
	"homework-bot/internal/resilience/retry"

	tele "gopkg.in/telebot.v3"
)

// DefaultTelegramAPIURL is the public Bot API endpoint.
const DefaultTelegramAPIURL = tele.DefaultApiURL

// TelegramConfig contains configuration for the Telegram Bot API transport.
type TelegramConfig struct {
	// Token is the bot token issued by BotFather (secret)
	Token string

	// APIURL overrides the Bot API base URL (tests, proxies)
	APIURL string

	// Timeout is the HTTP request timeout for Bot API calls
	Timeout time.Duration

	// MessagesPerSecond and Burst configure the send rate limiter
	MessagesPerSecond float64
	Burst             int

	// Retry controls re-sending after network-level failures
	Retry retry.Config

	// Client replaces the HTTP client built from Timeout when set
	Client *http.Client
}

// DefaultTelegramConfig returns the production settings for the given token:
// api.telegram.org, 30s timeout, one message per second, three attempts.
func DefaultTelegramConfig(token string) TelegramConfig {
	return TelegramConfig{
		Token:             token,
		APIURL:            DefaultTelegramAPIURL,
		Timeout:           30 * time.Second,
		MessagesPerSecond: 1,
		Burst:             1,
		Retry:             retry.TelegramSendConfig(),
	}
}

// TelegramNotifier sends plain-text messages through the Bot API sendMessage method.
type TelegramNotifier struct {
	bot         *tele.Bot
	rateLimiter *RateLimiter
	retry       retry.Config
}

// NewTelegramNotifier creates a new TelegramNotifier with the specified configuration.
//
// The bot is created offline: no getMe round trip happens here, so
// construction never touches the network.
//
// Parameters:
//   - config: Telegram configuration including bot token and API URL
//
// Returns:
//   - *TelegramNotifier: Configured notifier instance
//   - error: Non-nil if the token is empty or the bot cannot be built
func NewTelegramNotifier(config TelegramConfig) (*TelegramNotifier, error) {
	if config.Token == "" {
		return nil, errors.New("telegram: bot token is required")
	}

	client := config.Client
	if client == nil {
		client = &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
			},
		}
	}

	bot, err := tele.NewBot(tele.Settings{
		Token:   config.Token,
		URL:     config.APIURL,
		Client:  client,
		Offline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: create bot: %w", err)
	}

	retryCfg := config.Retry
	if retryCfg.Retryable == nil {
		retryCfg.Retryable = isRetryableSendError
	}
	if retryCfg.MaxAttempts < 1 {
		retryCfg.MaxAttempts = 1
	}
	retryCfg.OnRetry = func(attempt int, err error) {
		slog.Warn("telegram send failed, retrying",
			slog.Int("attempt", attempt),
			logging.Err(err))
	}

	return &TelegramNotifier{
		bot:         bot,
		rateLimiter: NewRateLimiter(config.MessagesPerSecond, config.Burst),
		retry:       retryCfg,
	}, nil
}

// Name returns the channel identifier "telegram".
func (t *TelegramNotifier) Name() string {
	return "telegram"
}

// Send implements notify.Channel.
//
// It performs the following steps:
//  1. Wait for the rate limiter
//  2. Truncate the text to the Bot API limit
//  3. Call sendMessage, retrying transient failures with backoff
//
// Network errors, Bot API 5xx replies and flood control (429) are retried;
// other API rejections (bad chat id, blocked bot) are final.
//
// ctx is checked between attempts only. telebot issues the request without
// a context, so an attempt already in flight is bounded by the HTTP client
// timeout (TelegramConfig.Timeout), not by ctx.
func (t *TelegramNotifier) Send(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	waited, err := t.rateLimiter.Wait(ctx)
	if err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}
	if waited > time.Millisecond {
		slog.Debug("telegram send delayed by rate limiter",
			slog.Duration("waited", waited))
	}

	message := truncateMessage(text, maxMessageRunes)
	recipient := tele.ChatID(chatID)

	err = retry.WithBackoff(ctx, t.retry, func() error {
		_, sendErr := t.bot.Send(recipient, message)
		return sendErr
	})
	if err != nil {
		return fmt.Errorf("telegram sendMessage: %w", err)
	}
	return nil
}

// isRetryableSendError maps Bot API error replies onto HTTP status codes so
// retry.IsRetryable can classify them alongside transport errors.
func isRetryableSendError(err error) bool {
	var floodErr tele.FloodError
	if errors.As(err, &floodErr) {
		return retry.IsRetryable(&retry.HTTPError{StatusCode: http.StatusTooManyRequests, Message: floodErr.Error()})
	}
	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		return retry.IsRetryable(&retry.HTTPError{StatusCode: apiErr.Code, Message: apiErr.Description})
	}
	return retry.IsRetryable(err)
}
