package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/example/campwatch/internal/internaltypes"
)

const DefaultTelegramURL = "https://api.telegram.org/bot"

// Telegram sends messages through the Bot API sendMessage method.
type Telegram struct {
	Token   string
	ChatID  string
	BaseURL string

	hc *http.Client
}

func NewTelegram(token, chatID, baseURL string, timeout time.Duration) *Telegram {
	if baseURL == "" {
		baseURL = DefaultTelegramURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Telegram{
		Token:   token,
		ChatID:  chatID,
		BaseURL: baseURL,
		hc:      &http.Client{Timeout: timeout},
	}
}

func (t *Telegram) Name() string { return "telegram" }

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	ParseMode string `json:"parse_mode"`
	Text      string `json:"text"`
}

func (t *Telegram) Deliver(ctx context.Context, text string) error {
	payload, err := json.Marshal(sendMessageRequest{ChatID: t.ChatID, ParseMode: ParseMode, Text: text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL+t.Token+"/sendMessage", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	res, err := t.hc.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: %v: %w", err, internaltypes.ErrDelivery)
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		var r struct {
			Description string `json:"description"`
		}
		_ = json.Unmarshal(body, &r)
		if r.Description != "" {
			return fmt.Errorf("telegram: %s (status=%d): %w", r.Description, res.StatusCode, internaltypes.ErrDelivery)
		}
		return fmt.Errorf("telegram: status=%d: %w", res.StatusCode, internaltypes.ErrDelivery)
	}
	return nil
}
