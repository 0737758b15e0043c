package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"
)

const testToken = "123456:TEST-token"

// botAPI is a minimal fake of the Telegram Bot API sendPhoto method.
type botAPI struct {
	mu       sync.Mutex
	requests []map[string]any
	respond  func(w http.ResponseWriter)
}

func (b *botAPI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bot"+testToken+"/sendPhoto" {
			t.Errorf("unexpected path %q", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		var params map[string]any
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			t.Errorf("decode request: %v", err)
		}
		b.mu.Lock()
		b.requests = append(b.requests, params)
		b.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		b.respond(w)
	}
}

func okResponse(w http.ResponseWriter) {
	_, _ = fmt.Fprint(w, `{"ok":true,"result":{"message_id":42,"date":1700000000,`+
		`"chat":{"id":-1001,"type":"supergroup"},`+
		`"photo":[{"file_id":"AgAD","file_unique_id":"u1","width":320,"height":240}],`+
		`"caption":"ok"}}`)
}

func newTestNotifier(t *testing.T, api *botAPI) *TelegramNotifier {
	t.Helper()
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)

	n, err := NewTelegramNotifier(TelegramConfig{
		Enabled:           true,
		Token:             testToken,
		ChatID:            -1001,
		APIURL:            srv.URL,
		Timeout:           2 * time.Second,
		MessagesPerMinute: -1, // no pacing in tests
	})
	if err != nil {
		t.Fatalf("NewTelegramNotifier: %v", err)
	}
	return n
}

func TestNewTelegramNotifier_Validation(t *testing.T) {
	if _, err := NewTelegramNotifier(TelegramConfig{ChatID: 1}); err == nil {
		t.Error("expected error for empty token")
	}
	if _, err := NewTelegramNotifier(TelegramConfig{Token: testToken}); err == nil {
		t.Error("expected error for empty chat id")
	}
}

func TestTelegramNotifier_SendPhoto_Success(t *testing.T) {
	api := &botAPI{respond: okResponse}
	n := newTestNotifier(t, api)

	caption := "Halo\nLast: ₺100,00\nSale: ₺50,00"
	if err := n.SendPhoto(context.Background(), "https://img.example.com/halo.png", caption); err != nil {
		t.Fatalf("SendPhoto() = %v", err)
	}

	if len(api.requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(api.requests))
	}
	req := api.requests[0]
	if fmt.Sprint(req["chat_id"]) != "-1001" {
		t.Errorf("chat_id = %v, want -1001", req["chat_id"])
	}
	if req["photo"] != "https://img.example.com/halo.png" {
		t.Errorf("photo = %v", req["photo"])
	}
	if req["caption"] != caption {
		t.Errorf("caption = %v", req["caption"])
	}
}

func TestTelegramNotifier_SendPhoto_TruncatesCaption(t *testing.T) {
	api := &botAPI{respond: okResponse}
	n := newTestNotifier(t, api)

	long := strings.Repeat("Forza ", 400)
	if err := n.SendPhoto(context.Background(), "https://img/1.png", long); err != nil {
		t.Fatalf("SendPhoto() = %v", err)
	}

	caption, _ := api.requests[0]["caption"].(string)
	if utf8.RuneCountInString(caption) != MaxCaptionLength {
		t.Errorf("caption length = %d, want %d", utf8.RuneCountInString(caption), MaxCaptionLength)
	}
}

func TestTelegramNotifier_SendPhoto_FloodControl(t *testing.T) {
	api := &botAPI{respond: func(w http.ResponseWriter) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = fmt.Fprint(w, `{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 3","parameters":{"retry_after":3}}`)
	}}
	n := newTestNotifier(t, api)

	err := n.SendPhoto(context.Background(), "https://img/1.png", "caption")

	rl, ok := AsRateLimit(err)
	if !ok {
		t.Fatalf("expected RateLimitError, got %T: %v", err, err)
	}
	if rl.RetryAfter != 3*time.Second {
		t.Errorf("RetryAfter = %v, want 3s", rl.RetryAfter)
	}
	if len(api.requests) != 1 {
		t.Errorf("a single call must make exactly one request, got %d", len(api.requests))
	}
}

func TestTelegramNotifier_SendPhoto_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantServer bool
		wantClient bool
	}{
		{
			name:       "bad request",
			status:     http.StatusBadRequest,
			body:       `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`,
			wantClient: true,
		},
		{
			name:       "unauthorized",
			status:     http.StatusUnauthorized,
			body:       `{"ok":false,"error_code":401,"description":"Unauthorized"}`,
			wantClient: true,
		},
		{
			name:      "server error with html body",
			status:    http.StatusBadGateway,
			body:      `<html><body>502 Bad Gateway</body></html>`,
			wantServer: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &botAPI{respond: func(w http.ResponseWriter) {
				w.WriteHeader(tt.status)
				_, _ = fmt.Fprint(w, tt.body)
			}}
			n := newTestNotifier(t, api)

			err := n.SendPhoto(context.Background(), "https://img/1.png", "caption")
			if err == nil {
				t.Fatal("expected error")
			}
			if _, ok := AsRateLimit(err); ok {
				t.Errorf("must not be a rate limit: %v", err)
			}
			var clientErr *ClientError
			if got := errors.As(err, &clientErr); got != tt.wantClient {
				t.Errorf("ClientError = %v, want %v (%v)", got, tt.wantClient, err)
			}
			var serverErr *ServerError
			if got := errors.As(err, &serverErr); got != tt.wantServer {
				t.Errorf("ServerError = %v, want %v (%v)", got, tt.wantServer, err)
			}
		})
	}
}

func TestTelegramNotifier_SendPhoto_CanceledContext(t *testing.T) {
	api := &botAPI{respond: okResponse}
	n := newTestNotifier(t, api)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := n.SendPhoto(ctx, "https://img/1.png", "caption"); err == nil {
		t.Fatal("expected error for canceled context")
	}
	if len(api.requests) != 0 {
		t.Errorf("no request may be made after cancellation, got %d", len(api.requests))
	}
}

func TestTelegramNotifier_SendPhoto_CancelDuringRequest(t *testing.T) {
	release := make(chan struct{})
	api := &botAPI{respond: func(w http.ResponseWriter) {
		<-release
		okResponse(w)
	}}
	n := newTestNotifier(t, api)
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := n.SendPhoto(ctx, "https://img/1.png", "caption")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("SendPhoto waited %v for a cancelled request", elapsed)
	}
}

func TestClassifyTelegramError_StatusSuffix(t *testing.T) {
	err := classifyTelegramError(errors.New("telegram: Forbidden: bot was kicked from the group chat (403)"))
	var clientErr *ClientError
	if !errors.As(err, &clientErr) || clientErr.StatusCode != 403 {
		t.Fatalf("want ClientError 403, got %v", err)
	}

	err = classifyTelegramError(errors.New("telegram: Too Many Requests (429)"))
	rl, ok := AsRateLimit(err)
	if !ok || rl.RetryAfter != defaultFloodWait {
		t.Fatalf("want default flood wait, got %v", err)
	}
}
