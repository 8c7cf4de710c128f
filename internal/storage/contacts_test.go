//go:build integration

package storage_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/brasilfoto/zapcast/internal/storage"
)

func TestUpsertContact_ReoptsIn(t *testing.T) {
	q := setupTestDB(t)
	ctx := context.Background()

	first := seedContact(t, q, "Maria", "5511999998888")

	// Opt the contact out, then re-capture the same phone.
	if _, err := q.SetOptOutByPhones(ctx, []string{"5511999998888"}); err != nil {
		t.Fatalf("SetOptOutByPhones failed: %v", err)
	}

	second, err := q.UpsertContact(ctx, storage.UpsertContactParams{
		Name:      "Maria Silva",
		PhoneE164: "5511999998888",
		Source:    pgtype.Text{String: "instagram", Valid: true},
	})
	if err != nil {
		t.Fatalf("UpsertContact failed: %v", err)
	}

	if second.ID != first.ID {
		t.Error("upsert must reuse the existing row for a known phone")
	}
	if !second.OptIn {
		t.Error("re-captured contact must be opted back in")
	}
	if second.Name != "Maria Silva" {
		t.Errorf("name = %q, want overwritten by lead capture", second.Name)
	}
	if second.Source.String != "instagram" {
		t.Errorf("source = %q, want updated", second.Source.String)
	}
}

func TestUpsertInboundContact_KeepsName(t *testing.T) {
	q := setupTestDB(t)
	ctx := context.Background()

	seedContact(t, q, "Maria", "5511999998888")

	got, err := q.UpsertInboundContact(ctx, storage.UpsertContactParams{
		Name:      "WhatsApp Profile Name",
		PhoneE164: "5511999998888",
		Source:    pgtype.Text{String: "whatsapp", Valid: true},
	})
	if err != nil {
		t.Fatalf("UpsertInboundContact failed: %v", err)
	}
	if got.Name != "Maria" {
		t.Errorf("name = %q, want existing name preserved", got.Name)
	}
}

func TestSetOptOutByPhones_MatchesAnyCandidate(t *testing.T) {
	q := setupTestDB(t)
	ctx := context.Background()

	seedContact(t, q, "Maria", "5511999998888")

	// Webhook reported the twelve-digit form; both candidates are passed.
	n, err := q.SetOptOutByPhones(ctx, []string{"551199998888", "5511999998888"})
	if err != nil {
		t.Fatalf("SetOptOutByPhones failed: %v", err)
	}
	if n != 1 {
		t.Errorf("opted out %d contacts, want 1", n)
	}

	contacts, err := q.ListOptInContacts(ctx)
	if err != nil {
		t.Fatalf("ListOptInContacts failed: %v", err)
	}
	if len(contacts) != 0 {
		t.Errorf("expected no opted-in contacts, got %d", len(contacts))
	}
}

func TestAcceptCouponByPhones(t *testing.T) {
	q := setupTestDB(t)
	ctx := context.Background()

	seedContact(t, q, "Maria", "5511999998888")

	contact, err := q.AcceptCouponByPhones(ctx, []string{"5511999998888"})
	if err != nil {
		t.Fatalf("AcceptCouponByPhones failed: %v", err)
	}
	if contact.CouponStatus != "accepted" {
		t.Errorf("coupon_status = %q, want accepted", contact.CouponStatus)
	}
}

func TestTouchContactInbound(t *testing.T) {
	q := setupTestDB(t)
	ctx := context.Background()

	c := seedContact(t, q, "Maria", "5511999998888")
	if c.FirstInboundAt.Valid {
		t.Fatal("fresh contact must not have inbound timestamps")
	}

	if err := q.TouchContactInbound(ctx, c.ID); err != nil {
		t.Fatalf("TouchContactInbound failed: %v", err)
	}

	got, err := q.GetContactByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetContactByID failed: %v", err)
	}
	if !got.FirstInboundAt.Valid || !got.LastInboundAt.Valid {
		t.Error("expected inbound timestamps stamped")
	}
	firstAt := got.FirstInboundAt.Time

	if err := q.TouchContactInbound(ctx, c.ID); err != nil {
		t.Fatalf("second TouchContactInbound failed: %v", err)
	}
	got, err = q.GetContactByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetContactByID failed: %v", err)
	}
	if !got.FirstInboundAt.Time.Equal(firstAt) {
		t.Error("first_inbound_at must not change on later touches")
	}
}

func TestAppSettings_SingletonLifecycle(t *testing.T) {
	q := setupTestDB(t)
	ctx := context.Background()

	if err := q.EnsureAppSettings(ctx); err != nil {
		t.Fatalf("EnsureAppSettings failed: %v", err)
	}
	// Idempotent.
	if err := q.EnsureAppSettings(ctx); err != nil {
		t.Fatalf("second EnsureAppSettings failed: %v", err)
	}

	updated, err := q.UpdateAppSettings(ctx, storage.UpdateAppSettingsParams{
		EventName:  pgtype.Text{String: "Festa Junina", Valid: true},
		CouponCode: pgtype.Text{String: "FOTOS10", Valid: true},
		PhotosLink: pgtype.Text{},
	})
	if err != nil {
		t.Fatalf("UpdateAppSettings failed: %v", err)
	}
	if updated.EventName.String != "Festa Junina" {
		t.Errorf("event_name = %q, want Festa Junina", updated.EventName.String)
	}

	got, err := q.GetAppSettings(ctx)
	if err != nil {
		t.Fatalf("GetAppSettings failed: %v", err)
	}
	if got.CouponCode.String != "FOTOS10" {
		t.Errorf("coupon_code = %q, want FOTOS10", got.CouponCode.String)
	}
	if got.PhotosLink.Valid {
		t.Error("photos_link must stay NULL until configured")
	}
}
