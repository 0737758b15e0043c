package notify

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Tommy88/xparser/internal/infra/notifier"
)

// TelegramChannel implements Channel on top of the Telegram photo notifier.
type TelegramChannel struct {
	notifier notifier.Notifier
	enabled  bool
}

// NewTelegramChannel creates the Telegram channel for cfg.
//
// A disabled config gets a NoOpNotifier, so the channel is always usable and
// callers never need a nil check.
func NewTelegramChannel(cfg notifier.TelegramConfig, logger *slog.Logger) (*TelegramChannel, error) {
	if !cfg.Enabled {
		return newTelegramChannel(notifier.NewNoOpNotifier(logger), false), nil
	}
	n, err := notifier.NewTelegramNotifier(cfg)
	if err != nil {
		return nil, err
	}
	return newTelegramChannel(n, true), nil
}

func newTelegramChannel(n notifier.Notifier, enabled bool) *TelegramChannel {
	return &TelegramChannel{notifier: n, enabled: enabled}
}

// Name returns "telegram".
func (c *TelegramChannel) Name() string {
	return "telegram"
}

// IsEnabled returns whether Telegram delivery is enabled via configuration.
func (c *TelegramChannel) IsEnabled() bool {
	return c.enabled
}

// Send posts msg.MediaRef as a photo with msg.Caption. One call, one request.
func (c *TelegramChannel) Send(ctx context.Context, msg Message) error {
	if !c.enabled {
		return ErrChannelDisabled
	}
	if strings.TrimSpace(msg.MediaRef) == "" {
		return ErrInvalidMessage
	}
	return c.notifier.SendPhoto(ctx, msg.MediaRef, msg.Caption)
}
