package amino

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/okaru/aminokit/sign"
)

// headers builds the signed header set for one request. body may be nil.
func (c *Client) headers(body []byte) http.Header {
	h := http.Header{}
	h.Set("NDCDEVICEID", c.deviceID)
	h.Set("AUID", sign.TransactionID())
	h.Set("SMDEVICEID", sign.TransactionID())
	h.Set("NDCLANG", langCode(c.lang))
	h.Set("Accept-Language", c.lang)
	h.Set("User-Agent", c.userAgent)
	h.Set("Content-Type", "application/x-www-form-urlencoded")

	if body != nil {
		h.Set("NDC-MSG-SIG", sign.Signature(body))
		h.Set("Content-Type", "application/json; charset=utf-8")
	}

	c.mu.RLock()
	sid := c.session.SID
	c.mu.RUnlock()
	if sid != "" {
		h.Set("NDCAUTH", "sid="+sid)
	}

	return h
}

// langCode trims a locale like "en-US" to its NDCLANG form.
func langCode(lang string) string {
	for i := 0; i < len(lang); i++ {
		if lang[i] == '-' {
			return lang[:i]
		}
	}
	return lang
}

// doRequest performs one HTTP request and maps failures to typed errors.
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header = c.headers(body)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var env apiEnvelope
		if err := json.Unmarshal(respBody, &env); err == nil && env.StatusCode != 0 {
			return nil, env.toError()
		}
		return nil, &ServerError{
			StatusCode: resp.StatusCode,
			Reason:     http.StatusText(resp.StatusCode),
		}
	}

	return respBody, nil
}

// doWithRetry performs a request with jittered exponential backoff for
// transport-level failures. API errors are never retried.
func (c *Client) doWithRetry(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Add jitter: backoff * (0.5 to 1.5)
			jitter := backoff/2 + time.Duration(rand.Int64N(int64(backoff)))
			c.logger.Debug("retrying request",
				"attempt", attempt,
				"backoff", jitter,
				"path", path,
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(jitter):
			}

			backoff *= 2
		}

		respBody, err := c.doRequest(ctx, method, path, body)
		if err == nil {
			return respBody, nil
		}

		lastErr = err

		srvErr, ok := err.(*ServerError)
		if !ok || !srvErr.IsRetryable() {
			return nil, err
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// post marshals payload, signs it, and decodes the response into result.
func (c *Client) post(ctx context.Context, path string, payload, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	respBody, err := c.doWithRetry(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// get performs a GET request and decodes the response into result.
func (c *Client) get(ctx context.Context, path string, result any) error {
	respBody, err := c.doWithRetry(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
