package worker

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"homework-bot/internal/pkg/config"

	"gopkg.in/yaml.v3"
)

// Settings is the optional YAML settings file. Only non-secret fields can
// be set here; tokens and the chat id always come from the environment.
//
// Example:
//
//	practicum:
//	  endpoint: https://practicum.yandex.ru/api/user_api/homework_statuses/
//	  http_timeout: 20s
//	poll:
//	  interval: 10m
//	  schedule: "*/10 8-23 * * *"
//	  timezone: Europe/Moscow
//	error_notify:
//	  dedup: false
type Settings struct {
	Practicum struct {
		Endpoint    string        `yaml:"endpoint"`
		HTTPTimeout time.Duration `yaml:"http_timeout"`
		FromDate    *int64        `yaml:"from_date"`
	} `yaml:"practicum"`

	Poll struct {
		Interval time.Duration `yaml:"interval"`
		Schedule string        `yaml:"schedule"`
		Timezone string        `yaml:"timezone"`
	} `yaml:"poll"`

	Telegram struct {
		APIURL  string        `yaml:"api_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"telegram"`

	ErrorNotify struct {
		Enabled *bool `yaml:"enabled"`
		Dedup   *bool `yaml:"dedup"`
	} `yaml:"error_notify"`

	MetricsPort int `yaml:"metrics_port"`
	HealthPort  int `yaml:"health_port"`
}

// LoadSettingsFile reads and strictly decodes a YAML settings file.
// Unknown keys are rejected so that typos surface at startup.
func LoadSettingsFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings file: %w", err)
	}

	var s Settings
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse settings file %s: %w", path, err)
	}

	return &s, nil
}

// Apply copies every set and valid value onto cfg. Invalid values leave
// cfg untouched and are returned by field name.
func (s *Settings) Apply(cfg *WorkerConfig) []string {
	var rejected []string

	setString := func(field, value string, validate func(string) error, dst *string) {
		if value == "" {
			return
		}
		if err := validate(value); err != nil {
			rejected = append(rejected, field)
			return
		}
		*dst = value
	}
	setDuration := func(field string, value time.Duration, validate func(time.Duration) error, dst *time.Duration) {
		if value == 0 {
			return
		}
		if err := validate(value); err != nil {
			rejected = append(rejected, field)
			return
		}
		*dst = value
	}
	setPort := func(field string, value int, dst *int) {
		if value == 0 {
			return
		}
		if err := validatePort(value); err != nil {
			rejected = append(rejected, field)
			return
		}
		*dst = value
	}

	setString("endpoint", s.Practicum.Endpoint, config.ValidateHTTPURL, &cfg.Endpoint)
	setDuration("http_timeout", s.Practicum.HTTPTimeout, validateTimeout, &cfg.HTTPTimeout)
	if s.Practicum.FromDate != nil {
		if err := config.ValidateNonNegative(*s.Practicum.FromDate); err != nil {
			rejected = append(rejected, "from_date")
		} else {
			cfg.FromDate = *s.Practicum.FromDate
		}
	}

	setDuration("poll_interval", s.Poll.Interval, validatePollInterval, &cfg.PollInterval)
	setString("poll_schedule", s.Poll.Schedule, config.ValidateCronSchedule, &cfg.PollSchedule)
	setString("timezone", s.Poll.Timezone, config.ValidateTimezone, &cfg.Timezone)

	setString("telegram_api_url", s.Telegram.APIURL, config.ValidateHTTPURL, &cfg.TelegramAPIURL)
	setDuration("telegram_timeout", s.Telegram.Timeout, validateTimeout, &cfg.TelegramTimeout)

	if s.ErrorNotify.Enabled != nil {
		cfg.ErrorNotifyEnabled = *s.ErrorNotify.Enabled
	}
	if s.ErrorNotify.Dedup != nil {
		cfg.ErrorNotifyDedup = *s.ErrorNotify.Dedup
	}

	setPort("metrics_port", s.MetricsPort, &cfg.MetricsPort)
	setPort("health_port", s.HealthPort, &cfg.HealthPort)

	return rejected
}
