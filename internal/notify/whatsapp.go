// internal/notify/whatsapp.go
package notify

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const whatsappTextPath = "/whatsapp/1/message/text"

// WhatsApp sends alerts as WhatsApp text messages through the Infobip API
type WhatsApp struct {
	baseURL string
	apiKey  string
	client  *retryablehttp.Client
}

// NewWhatsApp creates an Infobip client. baseURL may omit the scheme, as
// Infobip hands out bare hostnames.
func NewWhatsApp(baseURL, apiKey string, retryMax int, timeout time.Duration) *WhatsApp {
	if !strings.Contains(baseURL, "://") {
		baseURL = "https://" + baseURL
	}
	return &WhatsApp{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client:  newHTTPClient(retryMax, timeout),
	}
}

type whatsappText struct {
	From    string          `json:"from"`
	To      string          `json:"to"`
	Content whatsappContent `json:"content"`
}

type whatsappContent struct {
	Text string `json:"text"`
}

type whatsappResponse struct {
	To        string `json:"to"`
	MessageID string `json:"messageId"`
	Status    struct {
		GroupName   string `json:"groupName"`
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"status"`
}

// Send posts one text message from sender to destination
func (w *WhatsApp) Send(ctx context.Context, destination, sender, text string) (string, error) {
	body := whatsappText{
		From:    sender,
		To:      destination,
		Content: whatsappContent{Text: text},
	}
	headers := map[string]string{"Authorization": "App " + w.apiKey}

	status, respBody, err := postJSON(ctx, w.client, w.baseURL+whatsappTextPath, headers, body)
	if err != nil {
		return "", err
	}

	var resp whatsappResponse
	if err := json.Unmarshal(respBody, &resp); err == nil && resp.Status.Name != "" {
		status += " (" + resp.Status.Name + ")"
	}
	return status, nil
}
