package logging

import (
	"log/slog"
	"regexp"
)

var (
	// Bot API URLs embed the token: https://api.telegram.org/bot123456:AAH.../sendPhoto
	botTokenPattern = regexp.MustCompile(`bot\d+:[A-Za-z0-9_-]+`)
	// Bare tokens, as echoed by some client errors.
	bareTokenPattern = regexp.MustCompile(`\b\d{6,}:[A-Za-z0-9_-]{30,}\b`)
	// Passwords inside DSNs.
	dsnPasswordPattern = regexp.MustCompile(`://([^:/@\s]+):([^@\s]+)@`)
)

// SanitizeError returns err's message with credentials masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	msg = botTokenPattern.ReplaceAllString(msg, "bot****")
	msg = bareTokenPattern.ReplaceAllString(msg, "****")
	msg = dsnPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	return msg
}

// Error is slog.Any("error", err) with credentials masked.
func Error(err error) slog.Attr {
	return slog.String("error", SanitizeError(err))
}
