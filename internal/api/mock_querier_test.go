package api

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/brasilfoto/zapcast/internal/storage"
)

// mockQuerier embeds storage.Querier so each test only implements what it
// exercises; calling anything else panics.
type mockQuerier struct {
	storage.Querier

	contacts     map[uuid.UUID]storage.Contact
	optInList    []storage.Contact
	campaigns    map[uuid.UUID]storage.Campaign
	settings     storage.AppSettings
	settingsErr  error
	enqueued     []storage.EnqueueMessageParams
	enqueueErr   error
	upserted     []storage.UpsertContactParams
	deleted      []uuid.UUID
	statusCounts []storage.CountMessagesByStatusRow

	lastListParams storage.ListContactsParams
	threads        []storage.ChatThreadRow
	chatLog        map[uuid.UUID][]storage.ChatMessage

	messagesWiped bool
	contactsWiped bool
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{
		contacts:  make(map[uuid.UUID]storage.Contact),
		campaigns: make(map[uuid.UUID]storage.Campaign),
	}
}

func (m *mockQuerier) UpsertContact(_ context.Context, arg storage.UpsertContactParams) (storage.Contact, error) {
	m.upserted = append(m.upserted, arg)
	c := storage.Contact{ID: uuid.New(), Name: arg.Name, PhoneE164: arg.PhoneE164, OptIn: true, CouponStatus: "pending", Source: arg.Source}
	m.contacts[c.ID] = c
	return c, nil
}

func (m *mockQuerier) GetContactByID(_ context.Context, id uuid.UUID) (storage.Contact, error) {
	c, ok := m.contacts[id]
	if !ok {
		return storage.Contact{}, pgx.ErrNoRows
	}
	return c, nil
}

func (m *mockQuerier) GetContactPhone(_ context.Context, id uuid.UUID) (string, error) {
	c, ok := m.contacts[id]
	if !ok {
		return "", pgx.ErrNoRows
	}
	return c.PhoneE164, nil
}

func (m *mockQuerier) ListOptInContacts(_ context.Context) ([]storage.Contact, error) {
	return m.optInList, nil
}

func (m *mockQuerier) DeleteContact(_ context.Context, id uuid.UUID) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockQuerier) DeleteAllMessages(_ context.Context) error {
	m.messagesWiped = true
	return nil
}

func (m *mockQuerier) DeleteAllContacts(_ context.Context) error {
	if !m.messagesWiped {
		return errors.New("messages must be wiped before contacts")
	}
	m.contactsWiped = true
	return nil
}

func (m *mockQuerier) CreateCampaign(_ context.Context, arg storage.CreateCampaignParams) (storage.Campaign, error) {
	c := storage.Campaign{ID: uuid.New(), Name: arg.Name, TemplateName: arg.TemplateName, TemplateLang: arg.TemplateLang}
	m.campaigns[c.ID] = c
	return c, nil
}

func (m *mockQuerier) GetCampaignByID(_ context.Context, id uuid.UUID) (storage.Campaign, error) {
	c, ok := m.campaigns[id]
	if !ok {
		return storage.Campaign{}, pgx.ErrNoRows
	}
	return c, nil
}

func (m *mockQuerier) ListCampaigns(_ context.Context) ([]storage.Campaign, error) {
	out := make([]storage.Campaign, 0, len(m.campaigns))
	for _, c := range m.campaigns {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockQuerier) EnqueueMessage(_ context.Context, arg storage.EnqueueMessageParams) (storage.Message, error) {
	if m.enqueueErr != nil {
		return storage.Message{}, m.enqueueErr
	}
	m.enqueued = append(m.enqueued, arg)
	return storage.Message{ID: uuid.New(), ContactID: arg.ContactID, Status: storage.MessageStatusQueued}, nil
}

func (m *mockQuerier) GetAppSettings(_ context.Context) (storage.AppSettings, error) {
	return m.settings, m.settingsErr
}

func (m *mockQuerier) UpdateAppSettings(_ context.Context, arg storage.UpdateAppSettingsParams) (storage.AppSettings, error) {
	m.settings = storage.AppSettings{
		EventName:  arg.EventName,
		CouponCode: arg.CouponCode,
		PhotosLink: arg.PhotosLink,
	}
	return m.settings, nil
}

func (m *mockQuerier) CountMessagesByStatus(_ context.Context) ([]storage.CountMessagesByStatusRow, error) {
	return m.statusCounts, nil
}

func optInContact(name, phone string) storage.Contact {
	return storage.Contact{
		ID:           uuid.New(),
		Name:         name,
		PhoneE164:    phone,
		OptIn:        true,
		CouponStatus: "pending",
		Source:       pgtype.Text{String: "pagina-captura", Valid: true},
	}
}
