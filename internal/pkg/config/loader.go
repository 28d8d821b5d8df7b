package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// LoadResult represents the result of loading a configuration value.
// It contains the loaded value, any warnings generated during loading,
// and a flag indicating whether a fallback value was used.
//
// Fields:
//   - Value: The loaded configuration value (the default if validation failed)
//   - Warnings: List of warning messages (one per fallback applied)
//   - FallbackApplied: True if the default value was used due to a bad value
//
// Example:
//
//	result := LoadEnvDuration("POLL_INTERVAL", 10*time.Minute, ValidatePositiveDuration)
//	if result.FallbackApplied {
//	    for _, warning := range result.Warnings {
//	        logger.Warn("configuration warning", slog.String("warning", warning))
//	    }
//	}
//	interval := result.Value
type LoadResult[T any] struct {
	Value           T
	Warnings        []string
	FallbackApplied bool
}

// LookupEnv returns the first non-empty value among keys together with the
// key it was found under. Later keys act as legacy aliases of the first one.
//
// Example:
//
//	token, key, ok := LookupEnv("PRACTICUM_TOKEN", "PRACTICUM")
func LookupEnv(keys ...string) (value string, key string, ok bool) {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v, k, true
		}
	}
	return "", "", false
}

// LoadEnvString loads a string value from an environment variable.
// If the environment variable is not set, the default value is returned.
// No validation is performed.
func LoadEnvString(envKey, defaultValue string) string {
	value := os.Getenv(envKey)
	if value == "" {
		return defaultValue
	}
	return value
}

// LoadEnvWithFallback loads a string value from an environment variable
// with validation and automatic fallback to default on validation failure.
//
// Loading behavior:
//  1. Read environment variable
//  2. If not set or empty: Use default value (no warning)
//  3. If set: Validate using provided validator
//  4. If validation fails: Use default value and generate warning
//
// Warning format:
//
//	"Invalid {envKey}='{value}': {error}, falling back to default '{default}'"
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) LoadResult[string] {
	value := os.Getenv(envKey)
	if value == "" {
		return LoadResult[string]{Value: defaultValue}
	}

	if validator != nil {
		if err := validator(value); err != nil {
			return fallback(envKey, value, defaultValue, err)
		}
	}

	return LoadResult[string]{Value: value}
}

// LoadEnvDuration loads a duration value ("30s", "10m", "1h30m") from an
// environment variable. Parse and validation failures fall back to the
// default with a warning; this function never fails.
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) LoadResult[time.Duration] {
	return loadParsed(envKey, defaultValue, time.ParseDuration, validator)
}

// LoadEnvInt loads an integer value from an environment variable with
// parsing, validation and automatic fallback to default on failure.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) LoadResult[int] {
	return loadParsed(envKey, defaultValue, strconv.Atoi, validator)
}

// LoadEnvInt64 is LoadEnvInt for 64-bit values such as Unix timestamps.
func LoadEnvInt64(envKey string, defaultValue int64, validator func(int64) error) LoadResult[int64] {
	parse := func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }
	return loadParsed(envKey, defaultValue, parse, validator)
}

// LoadEnvBool loads a boolean value from an environment variable.
//
// Accepted values:
//   - True: "1", "t", "T", "true", "TRUE", "True"
//   - False: "0", "f", "F", "false", "FALSE", "False"
//
// Other values trigger a fallback with warning.
func LoadEnvBool(envKey string, defaultValue bool) LoadResult[bool] {
	return loadParsed(envKey, defaultValue, strconv.ParseBool, nil)
}

func loadParsed[T any](envKey string, defaultValue T, parse func(string) (T, error), validator func(T) error) LoadResult[T] {
	raw := os.Getenv(envKey)
	if raw == "" {
		return LoadResult[T]{Value: defaultValue}
	}

	parsed, err := parse(raw)
	if err != nil {
		return fallback(envKey, raw, defaultValue, fmt.Errorf("cannot parse value: %w", err))
	}

	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallback(envKey, raw, defaultValue, err)
		}
	}

	return LoadResult[T]{Value: parsed}
}

func fallback[T any](envKey, raw string, defaultValue T, err error) LoadResult[T] {
	warning := fmt.Sprintf(
		"Invalid %s='%s': %v, falling back to default '%v'",
		envKey,
		raw,
		err,
		defaultValue,
	)
	return LoadResult[T]{
		Value:           defaultValue,
		Warnings:        []string{warning},
		FallbackApplied: true,
	}
}
