package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const whatsappDefaultEndpoint = "https://graph.facebook.com"

// WhatsApp implements the Provider interface for the WhatsApp Business
// Cloud API (Graph API).
type WhatsApp struct {
	apiVersion    string
	phoneNumberID string
	token         string
	endpoint      string
	client        HTTPClient
}

// WhatsAppConfig holds the Graph API credentials and endpoint.
type WhatsAppConfig struct {
	APIVersion    string
	PhoneNumberID string
	Token         string
	// Endpoint overrides the default Graph API URL (useful for testing).
	Endpoint string
}

// NewWhatsApp creates a WhatsApp provider from the given configuration.
func NewWhatsApp(cfg WhatsAppConfig, client HTTPClient) *WhatsApp {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = whatsappDefaultEndpoint
	}
	return &WhatsApp{
		apiVersion:    cfg.APIVersion,
		phoneNumberID: cfg.PhoneNumberID,
		token:         cfg.Token,
		endpoint:      endpoint,
		client:        client,
	}
}

func (w *WhatsApp) GetName() string { return "whatsapp" }

// SendTemplate delivers a template message via the Cloud API messages endpoint.
func (w *WhatsApp) SendTemplate(ctx context.Context, msg *TemplateMessage) (*DeliveryResult, error) {
	payload := waPayload{
		MessagingProduct: "whatsapp",
		To:               msg.To,
		Type:             "template",
		Template: &waTemplate{
			Name:     msg.Template,
			Language: waLanguage{Code: msg.Language},
		},
	}
	if len(msg.Params) > 0 {
		params := make([]waParameter, len(msg.Params))
		for i, text := range msg.Params {
			params[i] = waParameter{Type: "text", Text: text}
		}
		payload.Template.Components = []waComponent{{Type: "body", Parameters: params}}
	}

	return w.post(ctx, payload)
}

// SendText delivers a free-form text message.
func (w *WhatsApp) SendText(ctx context.Context, to, body string) (*DeliveryResult, error) {
	return w.post(ctx, waPayload{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             &waText{Body: body},
	})
}

func (w *WhatsApp) post(_ context.Context, payload waPayload) (*DeliveryResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: marshal request: %w", err)
	}

	resp, err := w.client.Do(&HTTPRequest{
		Method: "POST",
		URL:    w.messagesURL(),
		Headers: map[string]string{
			"Authorization": "Bearer " + w.token,
			"Content-Type":  "application/json",
		},
		Body: body,
	})
	if err != nil {
		return nil, fmt.Errorf("whatsapp: send request: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &DeliveryResult{
			ProviderMessageID: parseMessageID(resp.Body),
			Timestamp:         time.Now(),
		}, nil
	}

	return nil, ClassifyGraphError(w.GetName(), resp.StatusCode, string(resp.Body))
}

// HealthCheck verifies Graph API connectivity by fetching the phone number
// resource.
func (w *WhatsApp) HealthCheck(_ context.Context) error {
	resp, err := w.client.Do(&HTTPRequest{
		Method: "GET",
		URL:    fmt.Sprintf("%s/%s/%s", w.endpoint, w.apiVersion, w.phoneNumberID),
		Headers: map[string]string{
			"Authorization": "Bearer " + w.token,
		},
	})
	if err != nil {
		return fmt.Errorf("whatsapp: health check request: %w", err)
	}

	if resp.StatusCode != 200 {
		return fmt.Errorf("whatsapp: health check returned status %d", resp.StatusCode)
	}
	return nil
}

func (w *WhatsApp) messagesURL() string {
	return fmt.Sprintf("%s/%s/%s/messages", w.endpoint, w.apiVersion, w.phoneNumberID)
}

// waPayload matches the Cloud API /messages JSON schema.
type waPayload struct {
	MessagingProduct string      `json:"messaging_product"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Template         *waTemplate `json:"template,omitempty"`
	Text             *waText     `json:"text,omitempty"`
}

type waTemplate struct {
	Name       string        `json:"name"`
	Language   waLanguage    `json:"language"`
	Components []waComponent `json:"components,omitempty"`
}

type waLanguage struct {
	Code string `json:"code"`
}

type waComponent struct {
	Type       string        `json:"type"`
	Parameters []waParameter `json:"parameters"`
}

type waParameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type waText struct {
	Body string `json:"body"`
}

// waSendResponse matches the Cloud API success response.
type waSendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// parseMessageID extracts the wamid from a success response. Returns an empty
// string when the response carries none.
func parseMessageID(body []byte) string {
	var resp waSendResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return ""
	}
	if len(resp.Messages) == 0 {
		return ""
	}
	return resp.Messages[0].ID
}
