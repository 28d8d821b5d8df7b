package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/robfig/cron/v3"
)

// scheduleParser accepts standard five-field expressions and descriptors
// such as "@hourly" or "@every 10m".
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseCronSchedule parses a cron expression into a schedule evaluated in loc.
// A nil loc means UTC.
//
// Examples of accepted input:
//   - "*/10 * * * *" (every 10 minutes)
//   - "0 9-21 * * 1-5" (hourly during working hours on weekdays)
//   - "@every 10m"
func ParseCronSchedule(schedule string, loc *time.Location) (cron.Schedule, error) {
	if schedule == "" {
		return nil, fmt.Errorf("invalid cron schedule: cannot be empty")
	}

	parsed, err := scheduleParser.Parse(schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid cron schedule '%s': %w", schedule, err)
	}

	if loc == nil {
		loc = time.UTC
	}
	if spec, ok := parsed.(*cron.SpecSchedule); ok {
		spec.Location = loc
	}

	return parsed, nil
}

// ValidateCronSchedule validates a cron expression using the robfig/cron/v3 parser.
//
// Validation tool: https://crontab.guru/
func ValidateCronSchedule(schedule string) error {
	_, err := ParseCronSchedule(schedule, time.UTC)
	return err
}

// ValidateTimezone validates a timezone string by attempting to load it
// using time.LoadLocation.
//
// The timezone must be a valid IANA name ("UTC", "Europe/Moscow"). Missing
// tzdata in a container image makes this fail even for valid names.
func ValidateTimezone(timezone string) error {
	if timezone == "" {
		return fmt.Errorf("invalid timezone: cannot be empty")
	}

	if _, err := time.LoadLocation(timezone); err != nil {
		return fmt.Errorf("invalid timezone '%s': %w", timezone, err)
	}

	return nil
}

// ValidateDuration validates that a duration is within [min, max].
func ValidateDuration(duration, min, max time.Duration) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%v) cannot be greater than max (%v)", min, max)
	}

	if duration < min {
		return fmt.Errorf("duration %v is below minimum %v", duration, min)
	}

	if duration > max {
		return fmt.Errorf("duration %v exceeds maximum %v", duration, max)
	}

	return nil
}

// ValidateIntRange validates that an integer value is within [min, max].
//
// Use cases:
//   - Port number validation (e.g., 1024-65535)
//   - Attempt count validation (e.g., 1-10)
func ValidateIntRange(value, min, max int) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%d) cannot be greater than max (%d)", min, max)
	}

	if value < min {
		return fmt.Errorf("value %d is below minimum %d", value, min)
	}

	if value > max {
		return fmt.Errorf("value %d exceeds maximum %d", value, max)
	}

	return nil
}

// ValidatePositiveDuration validates that a duration is strictly positive.
func ValidatePositiveDuration(duration time.Duration) error {
	if duration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", duration)
	}

	return nil
}

// ValidateNonNegative validates Unix timestamps and other counters that
// may be zero but never negative.
func ValidateNonNegative(value int64) error {
	if value < 0 {
		return fmt.Errorf("value must be non-negative, got %d", value)
	}
	return nil
}

// ValidateHTTPURL validates an absolute http(s) URL with a host.
func ValidateHTTPURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("invalid url: cannot be empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url '%s': %w", raw, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url '%s': scheme must be http or https", raw)
	}

	if u.Host == "" {
		return fmt.Errorf("invalid url '%s': host is missing", raw)
	}

	return nil
}
