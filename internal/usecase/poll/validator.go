// Package poll implements the homework status poll cycle: validating API
// payloads, owning the time cursor and relaying the newest verdict.
package poll

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"homework-bot/internal/domain/entity"
)

const (
	fieldHomeworks    = "homeworks"
	fieldCurrentDate  = "current_date"
	fieldHomeworkName = "homework_name"
	fieldStatus       = "status"
)

// Validate checks a decoded API payload and converts it into a PollResponse.
//
// The payload must be a JSON object holding a "homeworks" array of objects
// and a non-negative integer "current_date". Records keep the order in
// which they were received; homework_name and status are copied only when
// they are strings, anything else is left empty for the verdict formatter
// to reject.
//
// Returns:
//   - entity.PollResponse: Typed response on success
//   - error: *entity.ValidationError with ErrShape, ErrMissingField or ErrType
func Validate(payload any) (entity.PollResponse, error) {
	obj, ok := payload.(map[string]any)
	if !ok {
		return entity.PollResponse{}, &entity.ValidationError{
			Reason:  entity.ErrShape,
			Message: fmt.Sprintf("expected JSON object, got %s", describe(payload)),
		}
	}

	rawHomeworks, ok := obj[fieldHomeworks]
	if !ok {
		return entity.PollResponse{}, missingField(fieldHomeworks)
	}
	rawDate, ok := obj[fieldCurrentDate]
	if !ok {
		return entity.PollResponse{}, missingField(fieldCurrentDate)
	}

	list, ok := rawHomeworks.([]any)
	if !ok {
		return entity.PollResponse{}, &entity.ValidationError{
			Reason:  entity.ErrType,
			Field:   fieldHomeworks,
			Message: fmt.Sprintf("expected array, got %s", describe(rawHomeworks)),
		}
	}

	currentDate, err := toTimestamp(rawDate)
	if err != nil {
		return entity.PollResponse{}, &entity.ValidationError{
			Reason:  entity.ErrType,
			Field:   fieldCurrentDate,
			Message: err.Error(),
		}
	}

	records := make([]entity.HomeworkRecord, 0, len(list))
	for i, item := range list {
		record, ok := item.(map[string]any)
		if !ok {
			return entity.PollResponse{}, &entity.ValidationError{
				Reason:  entity.ErrType,
				Field:   fmt.Sprintf("%s[%d]", fieldHomeworks, i),
				Message: fmt.Sprintf("expected object, got %s", describe(item)),
			}
		}
		name, _ := record[fieldHomeworkName].(string)
		status, _ := record[fieldStatus].(string)
		records = append(records, entity.HomeworkRecord{Name: name, Status: status})
	}

	return entity.PollResponse{Homeworks: records, CurrentDate: currentDate}, nil
}

func missingField(field string) error {
	return &entity.ValidationError{
		Reason:  entity.ErrMissingField,
		Field:   field,
		Message: "field is required",
	}
}

// toTimestamp accepts the numeric representations produced by encoding/json
// (json.Number with UseNumber, float64 without it) as well as native ints.
func toTimestamp(v any) (int64, error) {
	var ts int64
	switch n := v.(type) {
	case json.Number:
		parsed, err := strconv.ParseInt(n.String(), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("expected integer, got %q", n.String())
		}
		ts = parsed
	case int:
		ts = int64(n)
	case int64:
		ts = n
	case float64:
		if !isIntegral(n) {
			return 0, fmt.Errorf("expected integer, got %v", n)
		}
		ts = int64(n)
	default:
		return 0, fmt.Errorf("expected integer, got %s", describe(v))
	}

	if ts < 0 {
		return 0, fmt.Errorf("expected non-negative timestamp, got %d", ts)
	}
	return ts, nil
}

func isIntegral(f float64) bool {
	return f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < math.MaxInt64
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, int, int64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
