package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"
)

// MaxCaptionLength is the Telegram Bot API limit for photo captions, in runes.
const MaxCaptionLength = 1024

// defaultFloodWait is used when a 429 arrives without a retry_after parameter.
const defaultFloodWait = 5 * time.Second

// TelegramConfig contains configuration for Telegram photo delivery.
type TelegramConfig struct {
	// Enabled indicates whether Telegram delivery is enabled
	Enabled bool

	// Token is the bot token issued by BotFather
	Token string

	// ChatID is the destination group or channel
	ChatID int64

	// APIURL overrides the Bot API endpoint. Empty means https://api.telegram.org.
	APIURL string

	// Timeout is the HTTP request timeout for Bot API calls
	Timeout time.Duration

	// MessagesPerMinute paces sends. Telegram allows about 20 per minute in a group.
	MessagesPerMinute float64

	// Burst is the number of messages allowed back to back before pacing starts
	Burst int
}

// TelegramNotifier sends catalog photos to a Telegram chat via the Bot API.
type TelegramNotifier struct {
	config      TelegramConfig
	bot         *tele.Bot
	chat        *tele.Chat
	rateLimiter *RateLimiter
}

// NewTelegramNotifier creates a notifier bound to cfg.ChatID.
//
// The bot is created offline: no getMe round trip is made at startup, so a
// wrong token surfaces on the first send as a ClientError.
func NewTelegramNotifier(cfg TelegramConfig) (*TelegramNotifier, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat id is empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MessagesPerMinute == 0 {
		cfg.MessagesPerMinute = 20
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 3
	}

	settings := tele.Settings{
		Token:   cfg.Token,
		Client:  &http.Client{Timeout: cfg.Timeout},
		Offline: true,
	}
	if cfg.APIURL != "" {
		settings.URL = strings.TrimRight(cfg.APIURL, "/")
	}

	bot, err := tele.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &TelegramNotifier{
		config:      cfg,
		bot:         bot,
		chat:        &tele.Chat{ID: cfg.ChatID},
		rateLimiter: NewRateLimiter(cfg.MessagesPerMinute/60.0, cfg.Burst),
	}, nil
}

// SendPhoto makes one sendPhoto call. The caption is cut to MaxCaptionLength.
//
// Error types:
//   - *RateLimitError: Telegram flood control, RetryAfter from the response
//   - *ClientError: 4xx responses other than 429 (bad token, unknown chat, bad URL)
//   - other errors: network failures, 5xx, undecodable responses
//
// A done ctx returns ctx.Err() without waiting for the request in flight.
func (t *TelegramNotifier) SendPhoto(ctx context.Context, photoURL, caption string) error {
	if err := t.rateLimiter.Allow(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	photo := &tele.Photo{
		File:    tele.FromURL(photoURL),
		Caption: TruncateCaption(caption, MaxCaptionLength, "..."),
	}

	start := time.Now()
	err := t.send(ctx, photo)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if err == nil {
		slog.Debug("telegram photo sent",
			slog.Int64("chat_id", t.config.ChatID),
			slog.Duration("duration", time.Since(start)))
		return nil
	}

	return classifyTelegramError(err)
}

// send runs the Bot API call and returns early when ctx is done.
//
// telebot does not take a context, so an abandoned request keeps running in
// its goroutine until the client Timeout ends it.
func (t *TelegramNotifier) send(ctx context.Context, photo *tele.Photo) error {
	done := make(chan error, 1)
	go func() {
		_, err := t.bot.Send(t.chat, photo)
		done <- err
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

var statusSuffix = regexp.MustCompile(`\((\d{3})\)$`)

// classifyTelegramError maps telebot errors onto the package error types.
func classifyTelegramError(err error) error {
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return floodToRateLimit(flood.RetryAfter, err)
	}
	var floodPtr *tele.FloodError
	if errors.As(err, &floodPtr) && floodPtr != nil {
		return floodToRateLimit(floodPtr.RetryAfter, err)
	}

	code := 0
	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		code = apiErr.Code
	} else if m := statusSuffix.FindStringSubmatch(err.Error()); m != nil {
		code, _ = strconv.Atoi(m[1])
	}

	switch {
	case code == http.StatusTooManyRequests:
		return floodToRateLimit(0, err)
	case code >= 400 && code < 500:
		return &ClientError{StatusCode: code, Message: fmt.Sprintf("telegram API client error: %v", err)}
	case code >= 500:
		return &ServerError{StatusCode: code, Message: fmt.Sprintf("telegram API server error: %v", err)}
	}
	return fmt.Errorf("telegram send: %w", err)
}

func floodToRateLimit(seconds int, cause error) *RateLimitError {
	wait := time.Duration(seconds) * time.Second
	if wait <= 0 {
		wait = defaultFloodWait
	}
	return &RateLimitError{
		RetryAfter: wait,
		Message:    fmt.Sprintf("telegram flood control: %v", cause),
	}
}
