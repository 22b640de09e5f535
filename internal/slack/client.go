// Package slack is a minimal Slack Web API client covering the two calls
// the notification step needs: resolving a user by email and posting a
// message to the resolved channel.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/btbeal-db/agent-eval-request-job/internal/domain"
	apperrors "github.com/btbeal-db/agent-eval-request-job/internal/pkg/errors"
)

// DefaultHost is the Slack Web API host.
const DefaultHost = "https://slack.com"

// Client calls the Slack Web API with a bot token.
type Client struct {
	host       string
	token      string
	httpClient *http.Client
}

// New creates a Slack client. An empty host falls back to DefaultHost.
func New(host, token string) *Client {
	if host == "" {
		host = DefaultHost
	}

	return &Client{
		host:  host,
		token: token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type lookupUserResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	User  struct {
		ID string `json:"id"`
	} `json:"user"`
}

type postMessageResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// LookupUserByEmail resolves a workspace user ID from an email address.
// The user ID doubles as the DM channel for chat.postMessage.
func (c *Client) LookupUserByEmail(ctx context.Context, email string) (string, error) {
	q := url.Values{"email": {email}}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/api/users.lookupByEmail?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create lookup request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	var resp lookupUserResponse
	if err := c.call(req, &resp); err != nil {
		return "", err
	}
	if !resp.OK {
		return "", apperrors.External(fmt.Sprintf("users.lookupByEmail failed: %s", resp.Error), http.StatusOK)
	}

	return resp.User.ID, nil
}

// PostMessage posts a message to the channel or user DM named in the
// payload.
func (c *Client) PostMessage(ctx context.Context, msg domain.SlackMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/chat.postMessage", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create post request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	var resp postMessageResponse
	if err := c.call(req, &resp); err != nil {
		return err
	}
	if !resp.OK {
		return apperrors.External(fmt.Sprintf("chat.postMessage failed: %s", resp.Error), http.StatusOK)
	}

	return nil
}

func (c *Client) call(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.External("slack API call failed", 0).WithError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.External("read slack response", resp.StatusCode).WithError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.External(fmt.Sprintf("slack API returned status %d", resp.StatusCode), resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode slack response: %w", err)
	}

	return nil
}

// NewSessionMessage builds the chat.postMessage payload for a newly
// created review session: an attachment carrying the session details plus
// a plain-text fallback.
func NewSessionMessage(channel string, n domain.SessionNotification, createdAt time.Time) domain.SlackMessage {
	reviewers := "(none)"
	if len(n.ReviewerEmails) > 0 {
		reviewers = strings.Join(n.ReviewerEmails, ", ")
	}

	text := fmt.Sprintf(
		"*New agent review session created* :clipboard:\n"+
			"• *Session:* `%s`\n"+
			"• *Traces:* %d conversations to review\n"+
			"• *Reviewers:* %s\n"+
			"• *Link:* %s",
		n.SessionName, n.TraceCount, reviewers, n.SessionURL,
	)

	return domain.SlackMessage{
		Channel: channel,
		Text:    text,
		Attachments: []domain.SlackAttachment{
			{
				Color:     "#36a64f", // green
				Title:     "New agent review session created",
				TitleLink: n.SessionURL,
				Text:      fmt.Sprintf("%d conversations to review", n.TraceCount),
				Fields: []domain.SlackField{
					{Title: "Session", Value: n.SessionName, Short: true},
					{Title: "Traces", Value: strconv.Itoa(n.TraceCount), Short: true},
					{Title: "Reviewers", Value: reviewers},
				},
				Footer:    "eval-review",
				Timestamp: createdAt.Unix(),
			},
		},
	}
}
