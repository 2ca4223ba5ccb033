// Package alerts watches per-device last-seen timestamps and raises a
// notification when a device has been silent for too long.
package alerts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Notifier delivers one alert message.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// TelegramNotifier posts alert messages to a Telegram chat via the Bot
// API sendMessage method.
type TelegramNotifier struct {
	botToken string
	chatID   string
	client   *http.Client
	logger   *slog.Logger

	// baseURL is overridable for tests; defaults to the public API.
	baseURL string
}

func NewTelegramNotifier(botToken, chatID string, logger *slog.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
		baseURL:  "https://api.telegram.org",
	}
}

func (n *TelegramNotifier) Notify(ctx context.Context, text string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	form := url.Values{
		"chat_id": {n.chatID},
		"text":    {text},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			n.logger.Error("close telegram response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram sendMessage: status %d: %s", resp.StatusCode, string(body))
	}

	n.logger.Debug("telegram alert sent", "chars", len(text))
	return nil
}
