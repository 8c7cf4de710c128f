package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/brasilfoto/zapcast/internal/provider"
	"github.com/brasilfoto/zapcast/internal/storage"
)

func (m *mockQuerier) ListChatThreads(_ context.Context, _ pgtype.Text) ([]storage.ChatThreadRow, error) {
	return m.threads, nil
}

func (m *mockQuerier) ListChatMessagesByContact(_ context.Context, contactID uuid.UUID) ([]storage.ChatMessage, error) {
	return m.chatLog[contactID], nil
}

func (m *mockQuerier) CreateChatMessage(_ context.Context, arg storage.CreateChatMessageParams) (storage.ChatMessage, error) {
	msg := storage.ChatMessage{
		ID:                uuid.New(),
		ContactID:         arg.ContactID,
		Direction:         arg.Direction,
		Body:              arg.Body,
		ProviderMessageID: arg.ProviderMessageID,
	}
	if m.chatLog == nil {
		m.chatLog = make(map[uuid.UUID][]storage.ChatMessage)
	}
	m.chatLog[arg.ContactID] = append(m.chatLog[arg.ContactID], msg)
	return msg, nil
}

// sendRecorder records SendText calls for the operator-send test.
type sendRecorder struct {
	to     []string
	bodies []string
	err    error
}

func (p *sendRecorder) SendText(_ context.Context, to, body string) (*provider.DeliveryResult, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.to = append(p.to, to)
	p.bodies = append(p.bodies, body)
	return &provider.DeliveryResult{ProviderMessageID: "wamid.OP", Timestamp: time.Now()}, nil
}

func (p *sendRecorder) SendTemplate(_ context.Context, _ *provider.TemplateMessage) (*provider.DeliveryResult, error) {
	return &provider.DeliveryResult{}, nil
}

func (p *sendRecorder) GetName() string                     { return "recorder" }
func (p *sendRecorder) HealthCheck(_ context.Context) error { return nil }

func TestListChatThreadsHandler(t *testing.T) {
	q := newMockQuerier()
	q.threads = []storage.ChatThreadRow{
		{
			ContactID:     uuid.New(),
			Name:          "Maria",
			PhoneE164:     "5511999998888",
			OptIn:         true,
			LastMessage:   pgtype.Text{String: "Oi!", Valid: true},
			LastDirection: pgtype.Text{String: "in", Valid: true},
		},
	}

	rec := httptest.NewRecorder()
	ListChatThreadsHandler(q)(rec, httptest.NewRequest("GET", "/admin/chats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp []chatThreadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if len(resp) != 1 || resp[0].Name != "Maria" {
		t.Errorf("unexpected response %s", rec.Body.String())
	}
	if resp[0].LastMessage == nil || *resp[0].LastMessage != "Oi!" {
		t.Error("expected last message in thread summary")
	}
}

func TestGetChatThreadHandler(t *testing.T) {
	q := newMockQuerier()
	contact := optInContact("Maria", "5511999998888")
	q.contacts[contact.ID] = contact
	q.chatLog = map[uuid.UUID][]storage.ChatMessage{
		contact.ID: {
			{ID: uuid.New(), ContactID: contact.ID, Direction: "in", Body: pgtype.Text{String: "Oi", Valid: true}},
			{ID: uuid.New(), ContactID: contact.ID, Direction: "out", Body: pgtype.Text{String: "Olá!", Valid: true}},
		},
	}

	req := withURLParam(httptest.NewRequest("GET", "/admin/chats/x", nil), "contactID", contact.ID.String())
	rec := httptest.NewRecorder()
	GetChatThreadHandler(q)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Contact  contactResponse       `json:"contact"`
		Messages []chatMessageResponse `json:"messages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp.Contact.Name != "Maria" || len(resp.Messages) != 2 {
		t.Errorf("unexpected response %s", rec.Body.String())
	}
}

func TestGetChatThreadHandler_UnknownContact(t *testing.T) {
	q := newMockQuerier()
	req := withURLParam(httptest.NewRequest("GET", "/admin/chats/x", nil), "contactID", uuid.New().String())
	rec := httptest.NewRecorder()
	GetChatThreadHandler(q)(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSendChatMessageHandler(t *testing.T) {
	q := newMockQuerier()
	contact := optInContact("Maria", "5511999998888")
	q.contacts[contact.ID] = contact
	p := &sendRecorder{}

	req := withURLParam(
		httptest.NewRequest("POST", "/admin/chats/x/messages", strings.NewReader(`{"body":"Suas fotos chegaram!"}`)),
		"contactID", contact.ID.String())
	rec := httptest.NewRecorder()
	SendChatMessageHandler(q, p)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if len(p.to) != 1 || p.to[0] != "5511999998888" {
		t.Errorf("sent to %v, want contact phone", p.to)
	}

	logged := q.chatLog[contact.ID]
	if len(logged) != 1 {
		t.Fatalf("expected one chat log entry, got %d", len(logged))
	}
	if logged[0].Direction != "out" || logged[0].Body.String != "Suas fotos chegaram!" {
		t.Errorf("unexpected chat log entry %+v", logged[0])
	}
	if logged[0].ProviderMessageID.String != "wamid.OP" {
		t.Errorf("provider message id = %q, want wamid.OP", logged[0].ProviderMessageID.String)
	}
}

func TestSendChatMessageHandler_ProviderFailure(t *testing.T) {
	q := newMockQuerier()
	contact := optInContact("Maria", "5511999998888")
	q.contacts[contact.ID] = contact
	p := &sendRecorder{err: &provider.ProviderError{Provider: "whatsapp", StatusCode: 500, Body: "boom"}}

	req := withURLParam(
		httptest.NewRequest("POST", "/admin/chats/x/messages", strings.NewReader(`{"body":"oi"}`)),
		"contactID", contact.ID.String())
	rec := httptest.NewRecorder()
	SendChatMessageHandler(q, p)(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
	if len(q.chatLog[contact.ID]) != 0 {
		t.Error("failed sends must not be logged")
	}
}

func TestSendChatMessageHandler_Validation(t *testing.T) {
	q := newMockQuerier()
	p := &sendRecorder{}

	req := withURLParam(
		httptest.NewRequest("POST", "/admin/chats/x/messages", strings.NewReader(`{"body":""}`)),
		"contactID", uuid.New().String())
	rec := httptest.NewRecorder()
	SendChatMessageHandler(q, p)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for empty body", rec.Code)
	}
	if len(p.to) != 0 {
		t.Error("no send expected for invalid input")
	}
}

func TestSendChatMessageHandler_UnknownContact(t *testing.T) {
	q := newMockQuerier()
	p := &sendRecorder{}

	req := withURLParam(
		httptest.NewRequest("POST", "/admin/chats/x/messages", strings.NewReader(`{"body":"oi"}`)),
		"contactID", uuid.New().String())
	rec := httptest.NewRecorder()
	SendChatMessageHandler(q, p)(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
