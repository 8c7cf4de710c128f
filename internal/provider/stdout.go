package provider

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Stdout implements the Provider interface by writing messages to standard output.
// Intended for development and debugging; messages are never actually delivered.
type Stdout struct {
	writer io.Writer
}

// NewStdout creates a Stdout provider that prints messages to os.Stdout.
func NewStdout() *Stdout {
	return &Stdout{writer: os.Stdout}
}

func (s *Stdout) GetName() string { return "stdout" }

// SendTemplate prints the template message to stdout and returns a successful result.
func (s *Stdout) SendTemplate(_ context.Context, msg *TemplateMessage) (*DeliveryResult, error) {
	var b strings.Builder
	b.WriteString("--- stdout provider: template message ---\n")
	fmt.Fprintf(&b, "To:       %s\n", msg.To)
	fmt.Fprintf(&b, "Template: %s (%s)\n", msg.Template, msg.Language)
	fmt.Fprintf(&b, "Params:   %s\n", strings.Join(msg.Params, ", "))
	b.WriteString("--- end ---\n")

	if _, err := io.WriteString(s.writer, b.String()); err != nil {
		return nil, fmt.Errorf("stdout: write: %w", err)
	}

	return &DeliveryResult{
		ProviderMessageID: "stdout-" + uuid.New().String(),
		Timestamp:         time.Now(),
	}, nil
}

// SendText prints the text message to stdout and returns a successful result.
func (s *Stdout) SendText(_ context.Context, to, body string) (*DeliveryResult, error) {
	if _, err := fmt.Fprintf(s.writer, "--- stdout provider: text to %s ---\n%s\n--- end ---\n", to, body); err != nil {
		return nil, fmt.Errorf("stdout: write: %w", err)
	}
	return &DeliveryResult{
		ProviderMessageID: "stdout-" + uuid.New().String(),
		Timestamp:         time.Now(),
	}, nil
}

// HealthCheck always returns nil since stdout is always available.
func (s *Stdout) HealthCheck(_ context.Context) error {
	return nil
}
