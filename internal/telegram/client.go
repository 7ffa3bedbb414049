// Package telegram is a minimal Bot API client: long polling in,
// messages and inline keyboards out. It publishes inbound updates on
// the bus and never calls the digest engine directly.
package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client talks to the Telegram Bot API over HTTP.
type Client struct {
	http *resty.Client
}

// NewClient creates the API client. baseURL defaults to the official
// endpoint when empty.
func NewClient(token, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	http := resty.New().
		SetBaseURL(fmt.Sprintf("%s/bot%s", baseURL, token)).
		SetTimeout(90 * time.Second).
		SetHeader("Content-Type", "application/json")
	return &Client{http: http}
}

type apiResponse[T any] struct {
	OK          bool   `json:"ok"`
	Result      T      `json:"result"`
	Description string `json:"description"`
}

func call[T any](ctx context.Context, c *Client, method string, body any) (T, error) {
	var out apiResponse[T]
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/" + method)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s: %w", method, err)
	}
	if resp.IsError() || !out.OK {
		var zero T
		return zero, fmt.Errorf("%s: status %d: %s", method, resp.StatusCode(), out.Description)
	}
	return out.Result, nil
}

// GetUpdates long-polls for inbound updates after the given offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	return call[[]Update](ctx, c, "getUpdates", map[string]any{
		"offset":  offset,
		"timeout": int(timeout.Seconds()),
	})
}

// SendMessage sends text to a chat, with an optional inline keyboard.
// Returns the sent message so callers can schedule its deletion.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, markup *InlineKeyboardMarkup) (*Message, error) {
	body := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	if markup != nil {
		body["reply_markup"] = markup
	}
	msg, err := call[Message](ctx, c, "sendMessage", body)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// DeleteMessage removes a message. Deleting an already-gone message is
// an error here; callers treat deletion as best-effort.
func (c *Client) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	_, err := call[bool](ctx, c, "deleteMessage", map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
	})
	return err
}

// AnswerCallbackQuery acknowledges a button press so the client stops
// showing a spinner.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID string) error {
	_, err := call[bool](ctx, c, "answerCallbackQuery", map[string]any{
		"callback_query_id": callbackID,
	})
	return err
}
