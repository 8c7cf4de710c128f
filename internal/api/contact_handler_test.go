package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/brasilfoto/zapcast/internal/storage"
)

func (m *mockQuerier) ListContacts(_ context.Context, arg storage.ListContactsParams) ([]storage.Contact, error) {
	m.lastListParams = arg
	return m.optInList, nil
}

func TestListContactsHandler_Filters(t *testing.T) {
	q := newMockQuerier()
	q.optInList = []storage.Contact{optInContact("Maria", "5511999998888")}

	rec := httptest.NewRecorder()
	ListContactsHandler(q)(rec, httptest.NewRequest("GET", "/admin/contacts?opt_in=true&q=mar", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !q.lastListParams.OptIn.Valid || !q.lastListParams.OptIn.Bool {
		t.Error("expected opt_in filter to be set")
	}
	if q.lastListParams.Search.String != "%mar%" {
		t.Errorf("search = %q, want substring pattern", q.lastListParams.Search.String)
	}
}

func TestListContactsHandler_NoFilters(t *testing.T) {
	q := newMockQuerier()

	rec := httptest.NewRecorder()
	ListContactsHandler(q)(rec, httptest.NewRequest("GET", "/admin/contacts", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if q.lastListParams.OptIn.Valid || q.lastListParams.Search.Valid {
		t.Error("expected null filters when no query parameters are given")
	}
}

func TestListContactsHandler_InvalidCampaignID(t *testing.T) {
	q := newMockQuerier()
	rec := httptest.NewRecorder()
	ListContactsHandler(q)(rec, httptest.NewRequest("GET", "/admin/contacts?campaign_id=nope", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDeleteContactHandler(t *testing.T) {
	q := newMockQuerier()
	id := uuid.New()

	req := withURLParam(httptest.NewRequest("DELETE", "/admin/contacts/x", nil), "id", id.String())
	rec := httptest.NewRecorder()
	DeleteContactHandler(q)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(q.deleted) != 1 || q.deleted[0] != id {
		t.Errorf("deleted = %v, want [%s]", q.deleted, id)
	}
}

func TestDeleteContactHandler_InvalidID(t *testing.T) {
	q := newMockQuerier()
	req := withURLParam(httptest.NewRequest("DELETE", "/admin/contacts/x", nil), "id", "nope")
	rec := httptest.NewRecorder()
	DeleteContactHandler(q)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestResetHandler_WipesMessagesBeforeContacts(t *testing.T) {
	q := newMockQuerier()
	rec := httptest.NewRecorder()
	ResetHandler(q)(rec, httptest.NewRequest("POST", "/admin/reset", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	// The mock errors if contacts are wiped first.
	if !q.messagesWiped || !q.contactsWiped {
		t.Error("expected both messages and contacts to be wiped")
	}
}

func TestContactResponse_NullableFields(t *testing.T) {
	c := storage.Contact{
		ID:        uuid.New(),
		Name:      "Maria",
		PhoneE164: "5511999998888",
		OptIn:     true,
		Source:    pgtype.Text{},
	}

	resp := toContactResponse(c)
	if resp.Source != nil {
		t.Error("expected nil source for NULL column")
	}
	if resp.OptInAt != nil {
		t.Error("expected nil opt_in_at for NULL column")
	}
}
