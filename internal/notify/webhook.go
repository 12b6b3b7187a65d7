// internal/notify/webhook.go
package notify

import (
	"context"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Webhook posts alerts as JSON to an arbitrary endpoint
type Webhook struct {
	url    string
	token  string
	client *retryablehttp.Client
}

// WebhookPayload is the body of every webhook request
type WebhookPayload struct {
	Destination string `json:"destination"`
	Sender      string `json:"sender"`
	Text        string `json:"text"`
}

// NewWebhook creates a webhook notifier; token is sent as a bearer token when set
func NewWebhook(url, token string, retryMax int, timeout time.Duration) *Webhook {
	return &Webhook{
		url:    url,
		token:  token,
		client: newHTTPClient(retryMax, timeout),
	}
}

func (h *Webhook) Send(ctx context.Context, destination, sender, text string) (string, error) {
	var headers map[string]string
	if h.token != "" {
		headers = map[string]string{"Authorization": "Bearer " + h.token}
	}
	status, _, err := postJSON(ctx, h.client, h.url, headers, WebhookPayload{
		Destination: destination,
		Sender:      sender,
		Text:        text,
	})
	return status, err
}
