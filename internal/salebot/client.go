// Package salebot forwards rating events to the external Salebot
// automation API. Delivery is best effort: callers log failures and
// never let them unwind a rating that already committed.
package salebot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"commentrating/internal/util"
	"commentrating/pkg/domain"
)

// ErrNoAPIKey indicates the settings singleton has no API key yet.
var ErrNoAPIKey = errors.New("salebot api key is not configured")

// SettingsSource yields the module settings holding the API key.
// Satisfied by store.Store.
type SettingsSource interface {
	Settings(ctx context.Context) (domain.Settings, error)
}

// Notification identifies one rating event.
type Notification struct {
	SenderID    string
	Channel     string
	ThreadText  string
	MessageID   string
	MessageText string
}

type callbackPayload struct {
	Message           string `json:"message"`
	UserID            string `json:"user_id"`
	GroupID           string `json:"group_id"`
	RatingChannel     string `json:"rating_channel"`
	RatingThreadText  string `json:"rating_thread_text"`
	RatingMessageID   string `json:"rating_message_id"`
	RatingMessageText string `json:"rating_message_text"`
}

// Client calls the Salebot callback endpoint over HTTP.
type Client struct {
	baseURL    string
	groupID    string
	settings   SettingsSource
	httpClient *http.Client
}

// NewClient constructs a Salebot client. groupID is the fixed bot
// group identifier included in every payload.
func NewClient(baseURL, groupID string, settings SettingsSource) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		groupID:    groupID,
		settings:   settings,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// NotifyRating posts a rateMessage event. The API key is read from the
// stored settings on every call, so key rotation needs no restart.
// Transport errors and non-200 responses are returned to the caller.
func (c *Client) NotifyRating(ctx context.Context, n Notification) error {
	cfg, err := c.settings.Settings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	apiKey := strings.TrimSpace(cfg.Salebot.APIKey)
	if apiKey == "" {
		return ErrNoAPIKey
	}

	payload := callbackPayload{
		Message:           "rateMessage",
		UserID:            n.SenderID,
		GroupID:           c.groupID,
		RatingChannel:     n.Channel,
		RatingThreadText:  n.ThreadText,
		RatingMessageID:   n.MessageID,
		RatingMessageText: n.MessageText,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/api/%s/tg_callback", c.baseURL, apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post rateMessage: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	logger := util.LoggerFromContext(ctx)
	logger.Info("salebot callback response", "status", resp.StatusCode, "sender_id", n.SenderID)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("salebot callback status %d", resp.StatusCode)
	}
	return nil
}
