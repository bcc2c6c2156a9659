// Package notify sends best-effort order notifications over the WhatsApp
// Cloud API. Delivery failures are logged, never surfaced to the order flow.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const graphAPIBaseURL = "https://graph.facebook.com/v21.0"

// WhatsAppConfig configures the Cloud API client.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	// BaseURL overrides the Graph API endpoint, used in tests.
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// WhatsAppNotifier sends customer-facing messages through a WhatsApp
// business number.
type WhatsAppNotifier struct {
	baseURL     string
	accessToken string
	phoneID     string
	client      *http.Client
	logger      *zap.Logger
}

// NewWhatsAppNotifier constructs the notifier. Missing credentials yield a
// disabled notifier whose sends are silent no-ops.
func NewWhatsAppNotifier(cfg WhatsAppConfig) *WhatsAppNotifier {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = graphAPIBaseURL
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WhatsAppNotifier{
		baseURL:     baseURL,
		accessToken: strings.TrimSpace(cfg.AccessToken),
		phoneID:     strings.TrimSpace(cfg.PhoneNumberID),
		client:      client,
		logger:      logger,
	}
}

// Enabled reports whether credentials are configured.
func (n *WhatsAppNotifier) Enabled() bool {
	return n != nil && n.accessToken != "" && n.phoneID != ""
}

// SendText delivers a free-form text message. The Cloud API only accepts
// these within 24 hours of the customer's last message.
func (n *WhatsAppNotifier) SendText(ctx context.Context, to, text string) error {
	return n.send(ctx, to, map[string]any{
		"type": "text",
		"text": map[string]string{"body": text},
	})
}

// SendTemplate delivers a pre-approved template message, required for
// business-initiated conversations such as order confirmations.
func (n *WhatsAppNotifier) SendTemplate(ctx context.Context, to, templateName, languageCode string, bodyParams ...string) error {
	template := map[string]any{
		"name":     templateName,
		"language": map[string]string{"code": languageCode},
	}
	if len(bodyParams) > 0 {
		parameters := make([]map[string]string, 0, len(bodyParams))
		for _, param := range bodyParams {
			parameters = append(parameters, map[string]string{"type": "text", "text": param})
		}
		template["components"] = []map[string]any{{
			"type":       "body",
			"parameters": parameters,
		}}
	}
	return n.send(ctx, to, map[string]any{
		"type":     "template",
		"template": template,
	})
}

type graphErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (n *WhatsAppNotifier) send(ctx context.Context, to string, message map[string]any) error {
	if !n.Enabled() {
		return nil
	}

	payload := map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                FormatPhone(to),
	}
	for k, v := range message {
		payload[k] = v
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("whatsapp: encode message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", n.baseURL, n.phoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("whatsapp: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.accessToken)

	res, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("whatsapp send failed", zap.Error(err))
		return fmt.Errorf("whatsapp: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		var graphErr graphErrorResponse
		_ = json.NewDecoder(res.Body).Decode(&graphErr)
		message := graphErr.Error.Message
		if message == "" {
			message = res.Status
		}
		n.logger.Warn("whatsapp send rejected",
			zap.Int("status", res.StatusCode),
			zap.String("reason", message))
		return fmt.Errorf("whatsapp: %s", message)
	}
	return nil
}

// FormatPhone strips everything but digits, the shape the Cloud API expects.
func FormatPhone(phone string) string {
	digits := make([]rune, 0, len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	return string(digits)
}
