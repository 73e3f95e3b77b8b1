package core

import (
	"context"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

func TestMemoryActivityLog_ListNewestFirstWithPaging(t *testing.T) {
	log := NewMemoryActivityLog(0)
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for index := 0; index < 5; index++ {
		status := ActivityStatusOK
		if index%2 == 1 {
			status = ActivityStatusFailed
		}
		if err := log.Record(context.Background(), ActivityEntry{
			IdentityKey: "pk_test",
			Action:      ActivityCredentialDelivered,
			RequestID:   string(rune('a' + index)),
			Status:      status,
			CreatedAt:   base.Add(time.Duration(index) * time.Minute),
		}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	page, err := log.List(context.Background(), ActivityFilter{PerPage: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 5 || !page.HasNext || len(page.Items) != 2 {
		t.Fatalf("unexpected first page %#v", page)
	}
	if page.Items[0].RequestID != "e" || page.Items[1].RequestID != "d" {
		t.Fatalf("expected newest first, got %s,%s", page.Items[0].RequestID, page.Items[1].RequestID)
	}

	page, err = log.List(context.Background(), ActivityFilter{Page: 3, PerPage: 2})
	if err != nil {
		t.Fatalf("list page 3: %v", err)
	}
	if len(page.Items) != 1 || page.HasNext {
		t.Fatalf("unexpected last page %#v", page)
	}

	page, err = log.List(context.Background(), ActivityFilter{Status: ActivityStatusFailed})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("expected 2 failed entries, got %d", page.Total)
	}

	from := base.Add(3 * time.Minute)
	page, err = log.List(context.Background(), ActivityFilter{From: &from})
	if err != nil {
		t.Fatalf("list from: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("expected 2 entries since from, got %d", page.Total)
	}
}

func TestMemoryActivityLog_LimitKeepsNewest(t *testing.T) {
	log := NewMemoryActivityLog(2)
	for _, id := range []string{"a", "b", "c"} {
		_ = log.Record(context.Background(), ActivityEntry{RequestID: id})
	}
	entries := log.Entries()
	if len(entries) != 2 || entries[0].RequestID != "b" || entries[1].RequestID != "c" {
		t.Fatalf("expected [b c], got %#v", entries)
	}
}

func TestMemoryActivityLog_CopiesMetadata(t *testing.T) {
	log := NewMemoryActivityLog(0)
	metadata := map[string]any{"brand": "visa"}
	_ = log.Record(context.Background(), ActivityEntry{Metadata: metadata})
	metadata["brand"] = "amex"

	entries := log.Entries()
	entries[0].Metadata["brand"] = "discover"
	if got := log.Entries()[0].Metadata["brand"]; got != "visa" {
		t.Fatalf("expected stored metadata isolated from callers, got %v", got)
	}
}

func TestMemoryActivityLog_LatestSelection(t *testing.T) {
	log := NewMemoryActivityLog(0)
	ctx := context.Background()
	for _, entry := range []ActivityEntry{
		{IdentityKey: "pk_a", Action: ActivitySelectionChanged, Metadata: map[string]any{"brand": "visa"}},
		{IdentityKey: "pk_b", Action: ActivitySelectionChanged, Metadata: map[string]any{"brand": "amex"}},
		{IdentityKey: "pk_a", Action: ActivityCredentialDelivered},
		{IdentityKey: "pk_a", Action: ActivitySelectionChanged, Metadata: map[string]any{"brand": "mastercard"}},
	} {
		if err := log.Record(ctx, entry); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	selection, err := log.LatestSelection(ctx, "pk_a")
	if err != nil {
		t.Fatalf("latest selection: %v", err)
	}
	if selection.Brand() != "mastercard" {
		t.Fatalf("expected newest selection for pk_a, got %#v", selection)
	}

	_, err = log.LatestSelection(ctx, "pk_missing")
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.TextCode != BridgeErrorSelectionNotFound {
		t.Fatalf("expected selection not found envelope, got %v", err)
	}
}
