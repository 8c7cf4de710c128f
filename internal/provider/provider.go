package provider

import (
	"context"
	"time"
)

// Provider defines the interface for delivering WhatsApp messages.
type Provider interface {
	// SendTemplate delivers a template message and returns a delivery result.
	SendTemplate(ctx context.Context, msg *TemplateMessage) (*DeliveryResult, error)
	// SendText delivers a free-form text message (session messages, chatbot
	// replies).
	SendText(ctx context.Context, to, body string) (*DeliveryResult, error)
	// GetName returns the provider's identifier (e.g., "whatsapp", "stdout").
	GetName() string
	// HealthCheck verifies the provider is reachable and functional.
	HealthCheck(ctx context.Context) error
}

// HTTPClient abstracts HTTP operations for testability.
type HTTPClient interface {
	Do(req *HTTPRequest) (*HTTPResponse, error)
}

// HTTPRequest represents an outgoing HTTP request.
type HTTPRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// HTTPResponse represents an HTTP response from a provider API.
type HTTPResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// TemplateMessage is one templated outbound message.
type TemplateMessage struct {
	// To is the recipient's phone in digits-only E.164 form.
	To string
	// Template is the approved template name.
	Template string
	// Language is the template language code (e.g., "pt_BR").
	Language string
	// Params are the ordered body placeholder values. Arity must match the
	// template; a mismatch is rejected by the provider, not validated here.
	Params []string
}

// DeliveryResult contains the outcome of a delivery attempt.
type DeliveryResult struct {
	// ProviderMessageID is the provider-assigned id, empty when the provider
	// did not return one.
	ProviderMessageID string
	Timestamp         time.Time
}
