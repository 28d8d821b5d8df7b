package entity

import (
	"errors"
	"fmt"
)

// Review statuses reported by the API.
const (
	StatusApproved  = "approved"
	StatusReviewing = "reviewing"
	StatusRejected  = "rejected"
)

var homeworkVerdicts = map[string]string{
	StatusApproved:  "Работа проверена: ревьюеру всё понравилось. Ура!",
	StatusReviewing: "Работа взята на проверку ревьюером.",
	StatusRejected:  "Работа проверена: у ревьюера есть замечания.",
}

// ResolveVerdict maps a review status to its user-facing verdict.
// Unknown statuses fail with ErrUnexpectedStatus; there is no default text.
func ResolveVerdict(status string) (string, error) {
	verdict, ok := homeworkVerdicts[status]
	if !ok {
		return "", &DomainError{Reason: ErrUnexpectedStatus, Value: status}
	}
	return verdict, nil
}

// FormatVerdict builds the chat message for a homework record.
func FormatVerdict(hw HomeworkRecord) (string, error) {
	if hw.Name == "" {
		return "", &DomainError{Reason: ErrMissingField, Value: "homework_name"}
	}
	if hw.Status == "" {
		return "", &DomainError{Reason: ErrMissingField, Value: "status", Homework: hw.Name}
	}

	verdict, err := ResolveVerdict(hw.Status)
	if err != nil {
		var domainErr *DomainError
		if errors.As(err, &domainErr) {
			domainErr.Homework = hw.Name
		}
		return "", err
	}

	return fmt.Sprintf("Изменился статус проверки работы \"%s\". %s", hw.Name, verdict), nil
}
