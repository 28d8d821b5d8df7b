package logging

import (
	"log/slog"
	"regexp"
)

var (
	// "Authorization: OAuth <token>" style header values
	oauthPattern = regexp.MustCompile(`(?i)(OAuth\s+)[A-Za-z0-9_\-.]+`)

	// Bot API URLs embed the token: https://api.telegram.org/bot<id>:<secret>/sendMessage
	botURLPattern = regexp.MustCompile(`/bot\d+:[A-Za-z0-9_-]+`)

	// bare bot tokens: <numeric id>:<35 char secret>
	botTokenPattern = regexp.MustCompile(`\b\d{5,}:[A-Za-z0-9_-]{30,}\b`)
)

// Sanitize masks credentials that may leak into error text.
// URL-embedded bot tokens are masked before bare ones.
func Sanitize(msg string) string {
	msg = oauthPattern.ReplaceAllString(msg, "${1}****")
	msg = botURLPattern.ReplaceAllString(msg, "/bot****")
	msg = botTokenPattern.ReplaceAllString(msg, "****")
	return msg
}

// SanitizeError returns the error message with credentials masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return Sanitize(err.Error())
}

// Err is a slog attribute carrying a sanitized error message.
func Err(err error) slog.Attr {
	return slog.String("error", SanitizeError(err))
}
