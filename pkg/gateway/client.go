// Package gateway wraps the backend's calendar and assistant endpoints in
// typed calls. Gateways are stateless; every call is one request whose
// failure is reported as a *Error.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"tableflip.dev/daypilot/pkg/logging"
)

// Options configures a Client.
type Options struct {
	// BaseURL is the API root, e.g. http://localhost:8000/api/.
	BaseURL string
	// Token is sent as a bearer credential. Empty sends no Authorization
	// header.
	Token   string
	Timeout time.Duration
	// Rate and Burst bound outbound requests per second. Zero disables the
	// limiter.
	Rate   float64
	Burst  int
	Logger *slog.Logger

	// Transport overrides the base round tripper, mostly for tests.
	Transport http.RoundTripper
}

// Client is the shared HTTP transport for Remote and Assistant.
type Client struct {
	base    *url.URL
	http    *http.Client
	limiter *rate.Limiter
	log     *slog.Logger
}

// NewClient validates opts and builds a Client.
func NewClient(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, errors.New("gateway: base url required")
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "gateway: parse base url %q", opts.BaseURL)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("gateway: base url %q must be absolute", opts.BaseURL)
	}

	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if opts.Token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"}),
			Base:   transport,
		}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		base: base,
		http: &http.Client{Timeout: timeout, Transport: transport},
		log:  logging.OrDiscard(opts.Logger),
	}
	if opts.Rate > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.Rate), burst)
	}
	return c, nil
}

// do sends one request and returns the raw 2xx body. Non-2xx statuses are
// converted to *Error with the backend's detail message when present.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body any) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, transportError(op, err)
		}
	}

	u := c.base.ResolveReference(&url.URL{Path: strings.TrimPrefix(path, "/")})
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Kind: KindDecode, Op: op, Message: "could not encode request", Cause: err}
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, transportError(op, err)
	}
	id := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", id)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	log := c.log.With(logging.FieldOp, op, logging.FieldRequestID, id)
	log.Debug("gateway request", "method", method, "url", u.Redacted())

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("gateway transport failure", "err", err, logging.Since(start))
		return nil, transportError(op, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn("gateway read failure", "err", err, logging.Since(start))
		return nil, transportError(op, err)
	}
	log.Debug("gateway response", logging.FieldStatus, resp.StatusCode, logging.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		gerr := statusError(op, resp.StatusCode, payload)
		log.Warn("gateway status failure", logging.FieldStatus, resp.StatusCode, "message", gerr.Message)
		return nil, gerr
	}
	return payload, nil
}

// call is do followed by JSON decoding into out. A success:false body is
// treated as a backend failure.
func (c *Client) call(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	payload, err := c.do(ctx, op, method, path, query, body)
	if err != nil {
		return err
	}
	if ok, msg := successFlag(payload); !ok {
		return &Error{Kind: KindBackend, Op: op, Message: msg}
	}
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return decodeError(op, err)
	}
	return nil
}

func statusError(op string, status int, payload []byte) *Error {
	kind := KindBackend
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		kind = KindUnauthorized
	}
	return &Error{Kind: kind, Op: op, Status: status, Message: detailMessage(payload)}
}

// detailMessage extracts the human message from an error body. The backend
// uses detail (string, or a list of {msg}), error or message.
func detailMessage(payload []byte) string {
	var body struct {
		Detail  json.RawMessage `json:"detail"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	if len(body.Detail) > 0 {
		var s string
		if json.Unmarshal(body.Detail, &s) == nil && s != "" {
			return s
		}
		var list []struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(body.Detail, &list) == nil {
			msgs := make([]string, 0, len(list))
			for _, item := range list {
				if item.Msg != "" {
					msgs = append(msgs, item.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}
	if body.Error != "" {
		return body.Error
	}
	return body.Message
}

// successFlag reads an optional top-level success field. Bodies without one,
// or that are not objects, count as success.
func successFlag(payload []byte) (bool, string) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return true, ""
	}
	var body struct {
		Success *bool `json:"success"`
	}
	if err := json.Unmarshal(trimmed, &body); err != nil || body.Success == nil || *body.Success {
		return true, ""
	}
	return false, failureMessage(trimmed)
}

// failureMessage picks the user-facing text of a success:false body. These
// carry a friendly message alongside a technical error.
func failureMessage(payload []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.Unmarshal(payload, &body)
	switch {
	case body.Message != "":
		return body.Message
	case body.Error != "":
		return body.Error
	}
	if msg := detailMessage(payload); msg != "" {
		return msg
	}
	return defaultMessage(KindBackend)
}
