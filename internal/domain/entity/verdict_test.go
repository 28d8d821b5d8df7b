package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveVerdict(t *testing.T) {
	tests := []struct {
		status   string
		expected string
	}{
		{StatusApproved, "Работа проверена: ревьюеру всё понравилось. Ура!"},
		{StatusReviewing, "Работа взята на проверку ревьюером."},
		{StatusRejected, "Работа проверена: у ревьюера есть замечания."},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			verdict, err := ResolveVerdict(tt.status)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, verdict)
		})
	}
}

func TestResolveVerdict_UnexpectedStatus(t *testing.T) {
	for _, status := range []string{"", "unknown", "APPROVED", "approved ", "in_progress"} {
		t.Run(status, func(t *testing.T) {
			verdict, err := ResolveVerdict(status)

			assert.Empty(t, verdict)
			require.ErrorIs(t, err, ErrUnexpectedStatus)

			var domainErr *DomainError
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, status, domainErr.Value)
		})
	}
}

func TestFormatVerdict_Approved(t *testing.T) {
	msg, err := FormatVerdict(HomeworkRecord{Name: "X", Status: StatusApproved})

	require.NoError(t, err)
	assert.Equal(t, `Изменился статус проверки работы "X". Работа проверена: ревьюеру всё понравилось. Ура!`, msg)
}

func TestFormatVerdict_Errors(t *testing.T) {
	tests := []struct {
		name   string
		record HomeworkRecord
		reason error
	}{
		{"missing name", HomeworkRecord{Status: StatusApproved}, ErrMissingField},
		{"missing status", HomeworkRecord{Name: "hw"}, ErrMissingField},
		{"unknown status", HomeworkRecord{Name: "hw", Status: "lost"}, ErrUnexpectedStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := FormatVerdict(tt.record)

			assert.Empty(t, msg)
			assert.ErrorIs(t, err, tt.reason)
			assert.False(t, IsFatal(err))
		})
	}
}

func TestFormatVerdict_UnexpectedStatusNamesHomework(t *testing.T) {
	_, resolveErr := ResolveVerdict("lost")
	msg, err := FormatVerdict(HomeworkRecord{Name: "hw2", Status: "lost"})

	assert.Empty(t, msg)
	require.ErrorIs(t, err, ErrUnexpectedStatus)

	var domainErr *DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "lost", domainErr.Value)
	assert.Equal(t, "hw2", domainErr.Homework)
	assert.Equal(t, resolveErr.Error()+` for homework "hw2"`, err.Error())
}
