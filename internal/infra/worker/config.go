package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"homework-bot/internal/domain/entity"
	"homework-bot/internal/infra/practicum"
	"homework-bot/internal/pkg/config"

	"github.com/robfig/cron/v3"
)

// Environment keys. Secrets accept the legacy short names as aliases.
const (
	EnvPracticumToken     = "PRACTICUM_TOKEN"
	EnvPracticumTokenOld  = "PRACTICUM"
	EnvTelegramToken      = "TELEGRAM_TOKEN"
	EnvTelegramTokenOld   = "TOKEN"
	EnvTelegramChatID     = "TELEGRAM_CHAT_ID"
	EnvTelegramChatIDOld  = "CHAT_ID"
	EnvPracticumEndpoint  = "PRACTICUM_ENDPOINT"
	EnvPracticumTimeout   = "PRACTICUM_HTTP_TIMEOUT"
	EnvPracticumFromDate  = "PRACTICUM_FROM_DATE"
	EnvPollInterval       = "POLL_INTERVAL"
	EnvPollSchedule       = "POLL_SCHEDULE"
	EnvTimezone           = "WORKER_TIMEZONE"
	EnvTelegramAPIURL     = "TELEGRAM_API_URL"
	EnvTelegramTimeout    = "TELEGRAM_TIMEOUT"
	EnvErrorNotifyEnabled = "ERROR_NOTIFY_ENABLED"
	EnvErrorNotifyDedup   = "ERROR_NOTIFY_DEDUP"
	EnvMetricsPort        = "METRICS_PORT"
	EnvHealthPort         = "WORKER_HEALTH_PORT"
	EnvConfigFile         = "BOT_CONFIG_FILE"
)

// readinessIntervals is how many poll periods may pass without a
// successful cycle before the worker reports itself as not ready.
const readinessIntervals = 3

// WorkerConfig holds the complete, immutable configuration of the bot.
// It is built once at startup and passed into constructors.
//
// Configuration sources, lowest precedence first:
//   - Default values (DefaultConfig)
//   - Optional YAML settings file (BOT_CONFIG_FILE), non-secret fields only
//   - Environment variables (LoadConfigFromEnv)
//
// Secrets are fail-closed: a missing or malformed secret is a
// *entity.ConfigError. Every other field is fail-open and falls back to
// its default with a warning and a metric.
type WorkerConfig struct {
	// PracticumToken authorises status API requests.
	// Required, never logged.
	PracticumToken string

	// TelegramToken authorises Bot API calls.
	// Required, never logged.
	TelegramToken string

	// ChatID is the Telegram chat that receives every message.
	// Required, must be an integer.
	ChatID int64

	// Endpoint is the homework status API URL.
	// Default: https://practicum.yandex.ru/api/user_api/homework_statuses/
	Endpoint string

	// HTTPTimeout bounds a single status request.
	// Range: 1s-5m
	// Default: 30 seconds
	HTTPTimeout time.Duration

	// FromDate is the initial cursor in Unix seconds.
	// Default: the time of loading
	FromDate int64

	// PollInterval is the fixed delay between cycles.
	// Range: 10s-24h
	// Default: 10 minutes
	PollInterval time.Duration

	// PollSchedule is an optional cron expression that replaces PollInterval.
	// Example: "*/10 8-23 * * *"
	PollSchedule string

	// Timezone is the IANA timezone in which PollSchedule is evaluated.
	// Default: "UTC"
	Timezone string

	// TelegramAPIURL is the Bot API base URL.
	// Default: https://api.telegram.org
	TelegramAPIURL string

	// TelegramTimeout bounds a single Bot API call.
	// Range: 1s-5m
	// Default: 30 seconds
	TelegramTimeout time.Duration

	// ErrorNotifyEnabled sends operational errors to the chat.
	// Default: true
	ErrorNotifyEnabled bool

	// ErrorNotifyDedup suppresses identical consecutive error messages.
	// Default: true
	ErrorNotifyDedup bool

	// MetricsPort serves /metrics and /health/delivery.
	// Range: 1024-65535
	// Default: 9090
	MetricsPort int

	// HealthPort serves /health and /health/ready.
	// Range: 1024-65535
	// Default: 9091
	HealthPort int
}

// DefaultConfig returns a WorkerConfig with default values for every
// non-secret field. Secrets are left empty.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		Endpoint:           practicum.DefaultEndpoint,
		HTTPTimeout:        practicum.DefaultTimeout,
		PollInterval:       10 * time.Minute,
		Timezone:           "UTC",
		TelegramAPIURL:     "https://api.telegram.org",
		TelegramTimeout:    30 * time.Second,
		ErrorNotifyEnabled: true,
		ErrorNotifyDedup:   true,
		MetricsPort:        9090,
		HealthPort:         9091,
	}
}

// Validate checks every field and returns all problems at once.
//
// Returns:
//   - error: nil if configuration is valid, *entity.ConfigError listing
//     the offending keys otherwise
func (c *WorkerConfig) Validate() error {
	var keys []string
	var problems []error

	check := func(key string, err error) {
		if err != nil {
			keys = append(keys, key)
			problems = append(problems, fmt.Errorf("%s: %w", key, err))
		}
	}

	if c.PracticumToken == "" {
		check(EnvPracticumToken, errors.New("is required"))
	}
	if c.TelegramToken == "" {
		check(EnvTelegramToken, errors.New("is required"))
	}
	check(EnvPracticumEndpoint, config.ValidateHTTPURL(c.Endpoint))
	check(EnvPracticumTimeout, validateTimeout(c.HTTPTimeout))
	check(EnvPracticumFromDate, config.ValidateNonNegative(c.FromDate))
	check(EnvPollInterval, validatePollInterval(c.PollInterval))
	if c.PollSchedule != "" {
		check(EnvPollSchedule, config.ValidateCronSchedule(c.PollSchedule))
	}
	check(EnvTimezone, config.ValidateTimezone(c.Timezone))
	check(EnvTelegramAPIURL, config.ValidateHTTPURL(c.TelegramAPIURL))
	check(EnvTelegramTimeout, validateTimeout(c.TelegramTimeout))
	check(EnvMetricsPort, validatePort(c.MetricsPort))
	check(EnvHealthPort, validatePort(c.HealthPort))
	if c.MetricsPort == c.HealthPort {
		check(EnvHealthPort, fmt.Errorf("must differ from %s (%d)", EnvMetricsPort, c.MetricsPort))
	}

	if len(keys) == 0 {
		return nil
	}
	return &entity.ConfigError{
		Reason: entity.ErrInvalidSetting,
		Keys:   keys,
		Err:    fmt.Errorf("%v", problems),
	}
}

// Schedule builds the poll schedule: the cron expression when one is
// configured, otherwise a constant delay of PollInterval.
func (c *WorkerConfig) Schedule() (cron.Schedule, error) {
	if c.PollSchedule == "" {
		return cron.Every(c.PollInterval), nil
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return config.ParseCronSchedule(c.PollSchedule, loc)
}

// StaleAfter returns how long the worker may go without a successful
// cycle before readiness fails: three poll periods as seen from now.
func (c *WorkerConfig) StaleAfter(now time.Time) time.Duration {
	period := c.PollInterval
	if sched, err := c.Schedule(); err == nil {
		first := sched.Next(now)
		if gap := sched.Next(first).Sub(first); gap > 0 {
			period = gap
		}
	}
	return readinessIntervals * period
}

// LogValue keeps secrets out of structured logs.
func (c WorkerConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("endpoint", c.Endpoint),
		slog.Duration("http_timeout", c.HTTPTimeout),
		slog.Int64("from_date", c.FromDate),
		slog.Duration("poll_interval", c.PollInterval),
		slog.String("poll_schedule", c.PollSchedule),
		slog.String("timezone", c.Timezone),
		slog.String("telegram_api_url", c.TelegramAPIURL),
		slog.Int64("chat_id", c.ChatID),
		slog.Bool("error_notify_enabled", c.ErrorNotifyEnabled),
		slog.Bool("error_notify_dedup", c.ErrorNotifyDedup),
		slog.Int("metrics_port", c.MetricsPort),
		slog.Int("health_port", c.HealthPort),
	)
}

// LoadConfigFromEnv loads the worker configuration.
//
// Loading order:
//  1. Start with DefaultConfig(), FromDate set to now
//  2. Overlay the YAML file named by BOT_CONFIG_FILE, if any
//  3. Load secrets; any missing or malformed secret is fatal
//  4. Load every other field from the environment; invalid values fall
//     back to the value from steps 1-2 with a warning
//  5. Validate the combined result; conflicts such as a shared port are fatal
//
// Metrics updated (when metrics is non-nil):
//   - worker_config_validation_errors_total / worker_config_fallbacks_total per field
//   - worker_config_fallback_active
//   - worker_config_load_timestamp
//
// Parameters:
//   - logger: Structured logger for fallback warnings
//   - metrics: Metrics instance for tracking fallbacks, may be nil
//
// Returns:
//   - *WorkerConfig: Valid configuration, nil on error
//   - error: *entity.ConfigError listing every offending key
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	cfg.FromDate = time.Now().Unix()

	fallbackApplied := false
	fellBack := func(field string, warnings []string) {
		fallbackApplied = true
		if metrics != nil {
			metrics.RecordValidationError(field)
			metrics.RecordFallback(field)
		}
		for _, warning := range warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}

	if path := config.LoadEnvString(EnvConfigFile, ""); path != "" {
		settings, err := LoadSettingsFile(path)
		if err != nil {
			return nil, &entity.ConfigError{Reason: entity.ErrInvalidSetting, Keys: []string{EnvConfigFile}, Err: err}
		}
		for _, field := range settings.Apply(&cfg) {
			fellBack(field, []string{fmt.Sprintf("Invalid %s in %s, keeping default", field, path)})
		}
	}

	if err := loadSecrets(&cfg); err != nil {
		return nil, err
	}

	endpoint := config.LoadEnvWithFallback(EnvPracticumEndpoint, cfg.Endpoint, config.ValidateHTTPURL)
	cfg.Endpoint = endpoint.Value
	if endpoint.FallbackApplied {
		fellBack("endpoint", endpoint.Warnings)
	}

	httpTimeout := config.LoadEnvDuration(EnvPracticumTimeout, cfg.HTTPTimeout, validateTimeout)
	cfg.HTTPTimeout = httpTimeout.Value
	if httpTimeout.FallbackApplied {
		fellBack("http_timeout", httpTimeout.Warnings)
	}

	fromDate := config.LoadEnvInt64(EnvPracticumFromDate, cfg.FromDate, config.ValidateNonNegative)
	cfg.FromDate = fromDate.Value
	if fromDate.FallbackApplied {
		fellBack("from_date", fromDate.Warnings)
	}

	interval := config.LoadEnvDuration(EnvPollInterval, cfg.PollInterval, validatePollInterval)
	cfg.PollInterval = interval.Value
	if interval.FallbackApplied {
		fellBack("poll_interval", interval.Warnings)
	}

	schedule := config.LoadEnvWithFallback(EnvPollSchedule, cfg.PollSchedule, config.ValidateCronSchedule)
	cfg.PollSchedule = schedule.Value
	if schedule.FallbackApplied {
		fellBack("poll_schedule", schedule.Warnings)
	}

	timezone := config.LoadEnvWithFallback(EnvTimezone, cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = timezone.Value
	if timezone.FallbackApplied {
		fellBack("timezone", timezone.Warnings)
	}

	apiURL := config.LoadEnvWithFallback(EnvTelegramAPIURL, cfg.TelegramAPIURL, config.ValidateHTTPURL)
	cfg.TelegramAPIURL = apiURL.Value
	if apiURL.FallbackApplied {
		fellBack("telegram_api_url", apiURL.Warnings)
	}

	tgTimeout := config.LoadEnvDuration(EnvTelegramTimeout, cfg.TelegramTimeout, validateTimeout)
	cfg.TelegramTimeout = tgTimeout.Value
	if tgTimeout.FallbackApplied {
		fellBack("telegram_timeout", tgTimeout.Warnings)
	}

	notifyEnabled := config.LoadEnvBool(EnvErrorNotifyEnabled, cfg.ErrorNotifyEnabled)
	cfg.ErrorNotifyEnabled = notifyEnabled.Value
	if notifyEnabled.FallbackApplied {
		fellBack("error_notify_enabled", notifyEnabled.Warnings)
	}

	notifyDedup := config.LoadEnvBool(EnvErrorNotifyDedup, cfg.ErrorNotifyDedup)
	cfg.ErrorNotifyDedup = notifyDedup.Value
	if notifyDedup.FallbackApplied {
		fellBack("error_notify_dedup", notifyDedup.Warnings)
	}

	metricsPort := config.LoadEnvInt(EnvMetricsPort, cfg.MetricsPort, validatePort)
	cfg.MetricsPort = metricsPort.Value
	if metricsPort.FallbackApplied {
		fellBack("metrics_port", metricsPort.Warnings)
	}

	healthPort := config.LoadEnvInt(EnvHealthPort, cfg.HealthPort, validatePort)
	cfg.HealthPort = healthPort.Value
	if healthPort.FallbackApplied {
		fellBack("health_port", healthPort.Warnings)
	}

	if metrics != nil {
		metrics.SetFallbackActive(fallbackApplied)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if metrics != nil {
		metrics.RecordLoadTimestamp()
	}

	return &cfg, nil
}

// loadSecrets reads the fail-closed settings and reports every offending
// key in a single error.
func loadSecrets(cfg *WorkerConfig) error {
	var missing, invalid []string

	if v, _, ok := config.LookupEnv(EnvPracticumToken, EnvPracticumTokenOld); ok {
		cfg.PracticumToken = v
	} else {
		missing = append(missing, EnvPracticumToken)
	}

	if v, _, ok := config.LookupEnv(EnvTelegramToken, EnvTelegramTokenOld); ok {
		cfg.TelegramToken = v
	} else {
		missing = append(missing, EnvTelegramToken)
	}

	if v, key, ok := config.LookupEnv(EnvTelegramChatID, EnvTelegramChatIDOld); ok {
		chatID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			invalid = append(invalid, key)
		} else {
			cfg.ChatID = chatID
		}
	} else {
		missing = append(missing, EnvTelegramChatID)
	}

	switch {
	case len(missing) > 0:
		var err error
		if len(invalid) > 0 {
			err = fmt.Errorf("also not an integer: %v", invalid)
		}
		return &entity.ConfigError{Reason: entity.ErrMissingSecret, Keys: missing, Err: err}
	case len(invalid) > 0:
		return &entity.ConfigError{
			Reason: entity.ErrInvalidSetting,
			Keys:   invalid,
			Err:    errors.New("chat id must be an integer"),
		}
	}
	return nil
}

func validateTimeout(d time.Duration) error {
	return config.ValidateDuration(d, time.Second, 5*time.Minute)
}

func validatePollInterval(d time.Duration) error {
	return config.ValidateDuration(d, 10*time.Second, 24*time.Hour)
}

func validatePort(port int) error {
	return config.ValidateIntRange(port, 1024, 65535)
}
