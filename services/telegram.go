package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// User is a Telegram user or bot.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// Chat is a Telegram chat. Type is one of "private", "group",
// "supergroup" or "channel".
type Chat struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Username string `json:"username"`
}

// IsPrivate reports whether the chat is a one-on-one conversation.
func (c *Chat) IsPrivate() bool {
	return c.Type == "private"
}

// Message is an inbound Telegram message or channel post.
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
	Date      int64  `json:"date"`
}

// Link returns a t.me link to the message, or an empty string when the
// chat kind has no public link form.
func (m *Message) Link() string {
	if m.Chat.Username != "" {
		return fmt.Sprintf("https://t.me/%s/%d", m.Chat.Username, m.MessageID)
	}
	// Supergroups and channels have ids of the form -100xxxxxxxxxx.
	id := strconv.FormatInt(m.Chat.ID, 10)
	if strings.HasPrefix(id, "-100") {
		return fmt.Sprintf("https://t.me/c/%s/%d", id[4:], m.MessageID)
	}
	return ""
}

// Update is one entry from getUpdates. Channel posts arrive in
// ChannelPost rather than Message.
type Update struct {
	UpdateID    int64    `json:"update_id"`
	Message     *Message `json:"message"`
	ChannelPost *Message `json:"channel_post"`
}

// EffectiveMessage returns the message carried by the update regardless of
// whether it was a direct message or a channel post.
func (u *Update) EffectiveMessage() *Message {
	if u.Message != nil {
		return u.Message
	}
	return u.ChannelPost
}

// apiResponse is the Bot API envelope.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

// TelegramService talks to the Telegram Bot API over HTTP.
type TelegramService struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// NewTelegramService creates a new TelegramService instance. pollTimeout
// is the getUpdates long-poll window; the HTTP client timeout is set above
// it so a quiet poll is not treated as a transport failure.
func NewTelegramService(token string, pollTimeout time.Duration) *TelegramService {
	return &TelegramService{
		token:      token,
		baseURL:    "https://api.telegram.org",
		httpClient: &http.Client{Timeout: pollTimeout + 10*time.Second},
	}
}

// GetUpdates long-polls for updates with ids greater than or equal to
// offset.
func (s *TelegramService) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	payload := map[string]any{
		"offset":          offset,
		"timeout":         int(timeout.Seconds()),
		"allowed_updates": []string{"message", "channel_post"},
	}

	raw, err := s.call(ctx, "getUpdates", payload)
	if err != nil {
		return nil, err
	}

	var updates []Update
	if err := json.Unmarshal(raw, &updates); err != nil {
		return nil, fmt.Errorf("telegram: failed to decode updates: %w", err)
	}
	return updates, nil
}

// SendMessage posts a Markdown-formatted message to a chat. Sends go
// through the telegram circuit breaker; getUpdates does not, since its
// long-poll timeouts are routine rather than a sign of an outage.
func (s *TelegramService) SendMessage(ctx context.Context, chatID int64, text string, disablePreview bool) error {
	payload := map[string]any{
		"chat_id":                  chatID,
		"text":                     text,
		"parse_mode":               "Markdown",
		"disable_web_page_preview": disablePreview,
	}

	_, err := WithCircuitBreaker(ctx, BreakerTelegram, func() (json.RawMessage, error) {
		return s.call(ctx, "sendMessage", payload)
	})
	return err
}

// call performs one Bot API method call and unwraps the response envelope.
func (s *TelegramService) call(ctx context.Context, method string, payload map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("telegram: failed to marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", s.baseURL, s.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("telegram: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram: %s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("telegram: %s returned status %d: %s", method, resp.StatusCode, string(respBody))
	}

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("telegram: failed to decode %s response: %w", method, err)
	}
	if !envelope.OK {
		return nil, fmt.Errorf("telegram: %s rejected: %s", method, envelope.Description)
	}

	return envelope.Result, nil
}
