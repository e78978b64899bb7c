package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/doloni/support-bot/internal/domain"
)

func TestAppendTranscript_OrderAndRoles(t *testing.T) {
	db := newTicketDB(t)
	ctx := context.Background()

	tk, err := CreateTicket(ctx, db, 1, "ISEE")
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	texts := []string{"hello", "any news?", "checking now", "thanks"}
	roles := []domain.TranscriptRole{domain.RoleClient, domain.RoleClient, domain.RoleOperator, domain.RoleClient}
	for i := range texts {
		if _, err := AppendTranscript(ctx, db, tk.ID, roles[i], texts[i]); err != nil {
			t.Fatalf("AppendTranscript(%d): %v", i, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	entries, err := ListTranscript(ctx, db, tk.ID)
	if err != nil {
		t.Fatalf("ListTranscript: %v", err)
	}
	if len(entries) != len(texts) {
		t.Fatalf("entries = %d, want %d", len(entries), len(texts))
	}
	for i, e := range entries {
		if e.Text != texts[i] || e.Role != roles[i] {
			t.Errorf("entry %d = (%q,%q), want (%q,%q)", i, e.Role, e.Text, roles[i], texts[i])
		}
		if e.TicketID != tk.ID {
			t.Errorf("entry %d ticket = %q, want %q", i, e.TicketID, tk.ID)
		}
		if e.ID == "" {
			t.Errorf("entry %d has no ID", i)
		}
	}

	total, err := CountTranscript(ctx, db, tk.ID)
	if err != nil {
		t.Fatalf("CountTranscript: %v", err)
	}
	if total != int64(len(texts)) {
		t.Fatalf("count = %d, want %d", total, len(texts))
	}
}

func TestListTranscript_EmptyTicket(t *testing.T) {
	db := newTicketDB(t)
	ctx := context.Background()

	tk, err := CreateTicket(ctx, db, 1, "730")
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	entries, err := ListTranscript(ctx, db, tk.ID)
	if err != nil {
		t.Fatalf("ListTranscript: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("entries = %d, want 0", len(entries))
	}
}

func TestAppendTranscript_ManyMessagesSameTicket(t *testing.T) {
	db := newTicketDB(t)
	ctx := context.Background()

	tk, err := CreateTicket(ctx, db, 5, "ADI")
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	const n = 10
	for i := 0; i < n; i++ {
		if _, err := AppendTranscript(ctx, db, tk.ID, domain.RoleClient, fmt.Sprintf("msg %d", i)); err != nil {
			t.Fatalf("AppendTranscript: %v", err)
		}
	}
	entries, err := ListTranscript(ctx, db, tk.ID)
	if err != nil {
		t.Fatalf("ListTranscript: %v", err)
	}
	if len(entries) != n {
		t.Fatalf("entries = %d, want %d", len(entries), n)
	}
	for i, e := range entries {
		if e.Text != fmt.Sprintf("msg %d", i) {
			t.Fatalf("entry %d out of order: %q", i, e.Text)
		}
	}
}
