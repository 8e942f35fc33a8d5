package esp32

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultHost is the classification device address used when none is configured
	DefaultHost = "10.244.60.22"

	// ClassifyPath is the device's classification endpoint
	ClassifyPath = "/classificar"

	// RequestTimeout bounds a whole classification call, connect to last byte
	RequestTimeout = 3 * time.Second
)

// Client is a client for the classification device's HTTP API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// ClassifyRequest is the body sent to the device
type ClassifyRequest struct {
	QR string `json:"qr"`
}

// NewClient creates a device client. host is an address such as
// "10.244.60.22" or "localhost:8081"; a full http(s) URL is also accepted.
func NewClient(host string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: BaseURL(host),
		httpClient: &http.Client{
			Timeout: RequestTimeout,
		},
		logger: logger,
	}
}

// BaseURL turns a configured device host into the URL prefix for requests
func BaseURL(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		host = DefaultHost
	}
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	return "http://" + host
}

// URL returns the full classification endpoint
func (c *Client) URL() string {
	return c.baseURL + ClassifyPath
}

// Classify submits one QR code to the device. It never retries.
//
// Errors are one of *TransportError (the device could not be reached or the
// reply could not be read), *StatusError (non-200 reply) or an error wrapping
// ErrMalformedReply (200 with a body that is not a usable JSON object).
func (c *Client) Classify(ctx context.Context, qr string) (*Reply, error) {
	jsonData, err := json.Marshal(ClassifyRequest{QR: qr})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(), bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("Device returned non-200 status",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	reply, err := DecodeReply(body)
	if err != nil {
		c.logger.Debug("Device reply could not be interpreted",
			zap.Error(err),
			zap.String("body", string(body)))
		return nil, err
	}

	return reply, nil
}
