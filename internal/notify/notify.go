// internal/notify/notify.go
package notify

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

	"github.com/hashicorp/go-retryablehttp"
)

// ErrUnavailable indicates a transient delivery failure; a fallback may succeed
var ErrUnavailable = errors.New("notifier unavailable")

// Notifier delivers one alert text
type Notifier interface {
	// Send returns a transport status on success
	Send(ctx context.Context, destination, sender, text string) (string, error)
}

// IsUnavailable checks if the error is transient
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

const defaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a failed response is quoted in errors
const maxErrorBody = 512

func newHTTPClient(retryMax int, timeout time.Duration) *retryablehttp.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := retryablehttp.NewClient()
	client.RetryMax = retryMax
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = timeout
	client.Logger = nil
	// Hand the last response back so the status code ends up in the error
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return client
}

// postJSON sends body and returns the response status line and payload.
// Connection failures and 429/5xx responses are wrapped in ErrUnavailable.
func postJSON(ctx context.Context, client *retryablehttp.Client, url string, headers map[string]string, body any) (string, []byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("%w: connection failed: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", nil, fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", nil, fmt.Errorf("rejected with %d: %s", resp.StatusCode, trimBody(respBody))
	}
	return resp.Status, respBody, nil
}

func trimBody(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return s
}
