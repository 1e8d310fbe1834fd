package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/pkg/errors"
)

// Client talks to the landed cost API and unwraps its {code, message, data, meta} envelope.
type Client struct {
	BaseURL string
	Token   string
	// Retries applies to idempotent requests that fail before a response arrives.
	Retries uint

	HTTP *http.Client
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("http %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: 15 * time.Second}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	if strings.TrimSpace(c.BaseURL) == "" {
		return nil, errors.New("api base url is empty")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.BaseURL, "/")+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := strings.TrimSpace(c.Token); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return req, nil
}

// Call sends one request and decodes the envelope's data into out. Meta is returned as is.
func (c *Client) Call(ctx context.Context, method, path string, body, out any) (map[string]any, error) {
	var (
		env envelope
		// stop is the error that ends the call without another attempt
		stop error
	)
	fatal := func(err error) error {
		stop = err
		return retry.Unrecoverable(err)
	}
	send := func() error {
		req, err := c.newRequest(ctx, method, path, body)
		if err != nil {
			return fatal(err)
		}
		resp, err := c.httpClient().Do(req)
		if err != nil {
			if method != http.MethodGet {
				return fatal(err)
			}
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		b, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
		if err != nil {
			return fatal(err)
		}
		env = envelope{}
		if jerr := json.Unmarshal(b, &env); jerr != nil && resp.StatusCode < 300 {
			return fatal(errors.Wrap(jerr, "decode response"))
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr := &APIError{Status: resp.StatusCode, Message: env.Message}
			if apiErr.Message == "" {
				apiErr.Message = strings.TrimSpace(string(b))
			}
			if code, ok := env.Meta["error_code"].(string); ok {
				apiErr.Code = code
			}
			return fatal(apiErr)
		}
		return nil
	}
	err := retry.Do(send,
		retry.Context(ctx),
		retry.Attempts(c.Retries+1),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if stop != nil {
		return nil, stop
	}
	if err != nil {
		return nil, err
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, errors.Wrap(err, "decode data")
		}
	}
	return env.Meta, nil
}
