package notifier

import (
	"context"
	"log/slog"
)

// NoOpNotifier logs captions instead of delivering them. It is used when
// Telegram delivery is disabled, so a pass can be dry-run end to end.
type NoOpNotifier struct {
	logger *slog.Logger
}

// NewNoOpNotifier creates a new NoOpNotifier. A nil logger uses slog.Default().
func NewNoOpNotifier(logger *slog.Logger) *NoOpNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoOpNotifier{logger: logger}
}

// SendPhoto logs the message and returns nil unless ctx is already done.
func (n *NoOpNotifier) SendPhoto(ctx context.Context, photoURL, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.logger.Debug("delivery disabled, message not sent",
		slog.String("photo_url", photoURL),
		slog.String("caption", caption))
	return nil
}
