// Package notify implements notification sinks for the event
// dispatcher.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nagito52/fleamarketsystem/internal/domain"
)

const defaultPushURL = "https://api.line.me/v2/bot/message/push"

// LineSink pushes event messages to a fixed LINE user through the
// Messaging API. Delivery failures are reported to the dispatcher,
// which logs and swallows them.
type LineSink struct {
	channelToken string
	recipientID  string
	pushURL      string
	client       *http.Client
}

type LineSinkOption func(*LineSink)

// WithPushURL overrides the Messaging API endpoint (tests).
func WithPushURL(url string) LineSinkOption {
	return func(s *LineSink) {
		s.pushURL = url
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) LineSinkOption {
	return func(s *LineSink) {
		s.client = c
	}
}

func NewLineSink(channelToken, recipientID string, opts ...LineSinkOption) *LineSink {
	s := &LineSink{
		channelToken: channelToken,
		recipientID:  recipientID,
		pushURL:      defaultPushURL,
		client:       &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type pushMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type pushRequest struct {
	To       string        `json:"to"`
	Messages []pushMessage `json:"messages"`
}

func (s *LineSink) Deliver(ctx context.Context, e domain.Event) error {
	payload, err := json.Marshal(pushRequest{
		To:       s.recipientID,
		Messages: []pushMessage{{Type: "text", Text: e.Message()}},
	})
	if err != nil {
		return fmt.Errorf("encode push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.pushURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.channelToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("push message: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("push message: unexpected status %d", resp.StatusCode)
	}
	return nil
}
