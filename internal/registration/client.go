// Package registration talks to the external endpoint that verifies a bot
// token and registers the webhook for it.
package registration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/edgard/botbuilder/internal/errs"
	"github.com/edgard/botbuilder/internal/logger"
	"github.com/edgard/botbuilder/internal/setup"
)

// maxResponseBytes bounds how much of a response body is decoded.
const maxResponseBytes = 1 << 20

// Request is the payload posted to the endpoint.
type Request struct {
	Token      string `json:"token"`
	WebhookURL string `json:"webhook_url"`
}

// Response is the union of the success and failure bodies.
type Response struct {
	Bot   *setup.BotIdentity `json:"bot,omitempty"`
	Error string             `json:"error,omitempty"`
}

// Client posts tokens to the verification endpoint. It implements
// setup.Registrar and never retries.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for endpoint. A zero timeout leaves requests
// unbounded.
func NewClient(endpoint string, timeout time.Duration, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.With("component", "registration_client"),
	}
}

// Register posts token and webhookURL and returns the bot identity from a
// success response. Non-success statuses yield *errs.RemoteError whose
// Reason is empty when the body has no usable "error" field. Network and
// decoding failures yield a TRANSPORT error.
func (c *Client) Register(ctx context.Context, token, webhookURL string) (*setup.BotIdentity, error) {
	payload, err := encodeRequest(Request{Token: token, WebhookURL: webhookURL})
	if err != nil {
		return nil, errs.NewTransportError("encode verification request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errs.NewTransportError("build verification request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.NewTransportError("send verification request", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("Failed to close response body", "error", closeErr)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errs.NewTransportError("read verification response", err)
	}

	c.logger.DebugContext(ctx, "Verification endpoint answered",
		"status", resp.StatusCode,
		"token", logger.MaskToken(token),
		"duration", time.Since(start))

	var data Response
	decodeErr := json.Unmarshal(body, &data)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr != nil {
			return nil, errs.NewRemoteError(resp.StatusCode, "")
		}
		return nil, errs.NewRemoteError(resp.StatusCode, data.Error)
	}

	if decodeErr != nil {
		return nil, errs.NewTransportError("decode verification response", decodeErr)
	}
	if data.Bot == nil {
		return nil, errs.NewTransportError("decode verification response",
			fmt.Errorf("status %d without bot object", resp.StatusCode))
	}

	return data.Bot, nil
}

// encodeRequest marshals r without HTML escaping, so the body carries the
// token and URL byte for byte.
func encodeRequest(r Request) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
