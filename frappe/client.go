// Package frappe is a small RPC client for a Frappe site's whitelisted
// methods, served under /api/method/<method>.
package frappe

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single RPC when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// DialFunc opens the network connection for one HTTP request.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Config holds connection details for one Frappe site.
type Config struct {
	URL                string // e.g. https://erp.example.com
	APIKey             string
	APISecret          string
	Timeout            time.Duration
	InsecureSkipVerify bool
	Dial               DialFunc // optional, e.g. TunnelDialer
}

// Client calls whitelisted methods on a Frappe site.
type Client struct {
	baseURL string
	auth    string
	http    *http.Client
	log     *zap.Logger
}

// NewClient creates a Client for the given site. A nil logger disables logging.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	base := strings.TrimRight(cfg.URL, "/")
	if base == "" {
		return nil, fmt.Errorf("frappe: site url is required")
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return nil, fmt.Errorf("frappe: site url %q must start with http:// or https://", cfg.URL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	if cfg.Dial != nil {
		transport.DialContext = cfg.Dial
		transport.Proxy = nil
	}

	c := &Client{
		baseURL: base,
		http:    &http.Client{Timeout: timeout, Transport: transport},
		log:     logger,
	}
	if cfg.APIKey != "" || cfg.APISecret != "" {
		c.auth = "token " + cfg.APIKey + ":" + cfg.APISecret
	}
	return c, nil
}

// URL returns the site base URL.
func (c *Client) URL() string {
	return c.baseURL
}

// envelope is the success body of every /api/method response.
type envelope struct {
	Message json.RawMessage `json:"message"`
}

// Call invokes method with args encoded as a JSON body and decodes the
// response's "message" into out. A nil out discards the message.
func (c *Client) Call(ctx context.Context, method string, args any, out any) error {
	if method == "" {
		return fmt.Errorf("frappe: method is required")
	}

	var body io.Reader = http.NoBody
	if args != nil {
		buf, err := json.Marshal(args)
		if err != nil {
			return fmt.Errorf("%s: encoding args: %w", method, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/method/"+method, body)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if c.auth != "" {
		req.Header.Set("Authorization", c.auth)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("rpc failed", zap.String("method", method), zap.String("request_id", reqID), zap.Error(err))
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: reading response: %w", method, err)
	}

	c.log.Debug("rpc",
		zap.String("method", method),
		zap.String("request_id", reqID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rpcErr := parseError(method, resp.StatusCode, raw)
		c.log.Warn("rpc error",
			zap.String("method", method),
			zap.String("request_id", reqID),
			zap.String("exc_type", rpcErr.ExcType),
			zap.Int("status", resp.StatusCode))
		return rpcErr
	}

	if out == nil {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%s: decoding response: %w", method, err)
	}
	if len(env.Message) == 0 || string(env.Message) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Message, out); err != nil {
		return fmt.Errorf("%s: decoding message: %w", method, err)
	}
	return nil
}
