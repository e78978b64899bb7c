package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/doloni/support-bot/internal/domain"
	"github.com/doloni/support-bot/internal/repo"
)

// ----- Fake repos -----

type fakeTicketRepo struct {
	open    *domain.Ticket
	openErr error

	created     *domain.Ticket
	createErr   error
	createCalls int

	get    *domain.Ticket
	getErr error

	claim    *domain.Ticket
	claimErr error
	claimOp  int64

	closeErr  error
	closed    []string
	touched   []string
	touchErr  error
	countN    int64
	countErr  error
	page      []domain.Ticket
	pageErr   error
	gotOffset int
	gotLimit  int
}

func (r *fakeTicketRepo) CreateTicket(ctx context.Context, db *gorm.DB, userID int64, service string) (*domain.Ticket, error) {
	r.createCalls++
	if r.createErr != nil {
		return nil, r.createErr
	}
	if r.created != nil {
		return r.created, nil
	}
	return &domain.Ticket{ID: "DD-2026-000001", UserID: userID, Service: service, Status: domain.StatusNew}, nil
}

func (r *fakeTicketRepo) GetTicket(ctx context.Context, db *gorm.DB, id string) (*domain.Ticket, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.get, nil
}

func (r *fakeTicketRepo) OpenTicketForUser(ctx context.Context, db *gorm.DB, userID int64) (*domain.Ticket, error) {
	if r.openErr != nil {
		return nil, r.openErr
	}
	return r.open, nil
}

func (r *fakeTicketRepo) ClaimTicket(ctx context.Context, db *gorm.DB, id string, operatorID int64) (*domain.Ticket, error) {
	r.claimOp = operatorID
	return r.claim, r.claimErr
}

func (r *fakeTicketRepo) CloseTicket(ctx context.Context, db *gorm.DB, id string) error {
	if r.closeErr != nil {
		return r.closeErr
	}
	r.closed = append(r.closed, id)
	return nil
}

func (r *fakeTicketRepo) TouchTicket(ctx context.Context, db *gorm.DB, id string) error {
	if r.touchErr != nil {
		return r.touchErr
	}
	r.touched = append(r.touched, id)
	return nil
}

func (r *fakeTicketRepo) CountTicketsByStatus(ctx context.Context, db *gorm.DB, status domain.TicketStatus) (int64, error) {
	return r.countN, r.countErr
}

func (r *fakeTicketRepo) ListTicketsByStatusPage(ctx context.Context, db *gorm.DB, status domain.TicketStatus, offset, limit int) ([]domain.Ticket, error) {
	r.gotOffset, r.gotLimit = offset, limit
	return r.page, r.pageErr
}

type fakeTranscriptRepo struct {
	entries []domain.TranscriptEntry
	err     error
}

func (r *fakeTranscriptRepo) AppendTranscript(ctx context.Context, db *gorm.DB, ticketID string, role domain.TranscriptRole, text string) (*domain.TranscriptEntry, error) {
	if r.err != nil {
		return nil, r.err
	}
	e := domain.TranscriptEntry{ID: "e1", TicketID: ticketID, Role: role, Text: text, CreatedAt: time.Now().UTC()}
	r.entries = append(r.entries, e)
	return &e, nil
}

func newTicketService(tr *fakeTicketRepo, ts *fakeTranscriptRepo) *TicketService {
	return NewTicketService(nil, tr, ts)
}

// ----- Tests -----

func TestAppendFromUser_OpensTicketWhenNoneOpen(t *testing.T) {
	tr := &fakeTicketRepo{openErr: gorm.ErrRecordNotFound}
	ts := &fakeTranscriptRepo{}
	svc := newTicketService(tr, ts)

	tk, created, err := svc.AppendFromUser(context.Background(), 7, "ISEE", "  serve aiuto  ")
	if err != nil {
		t.Fatalf("AppendFromUser: %v", err)
	}
	if !created {
		t.Error("expected a freshly created ticket")
	}
	if tk.Service != "ISEE" {
		t.Errorf("service = %q", tk.Service)
	}
	if len(ts.entries) != 1 || ts.entries[0].Role != domain.RoleClient {
		t.Fatalf("transcript entries = %+v", ts.entries)
	}
	if ts.entries[0].Text != "serve aiuto" {
		t.Errorf("text not trimmed: %q", ts.entries[0].Text)
	}
	if len(tr.touched) != 0 {
		t.Error("a new ticket should not be touched again")
	}
}

func TestAppendFromUser_ReusesOpenTicket(t *testing.T) {
	tr := &fakeTicketRepo{open: &domain.Ticket{ID: "DD-2026-000009", UserID: 7, Status: domain.StatusInProgress}}
	ts := &fakeTranscriptRepo{}
	svc := newTicketService(tr, ts)

	tk, created, err := svc.AppendFromUser(context.Background(), 7, "730", "altra domanda")
	if err != nil {
		t.Fatalf("AppendFromUser: %v", err)
	}
	if created {
		t.Error("open ticket should be reused, not recreated")
	}
	if tk.ID != "DD-2026-000009" {
		t.Errorf("ticket = %q", tk.ID)
	}
	if tr.createCalls != 0 {
		t.Error("CreateTicket should not be called")
	}
	if len(tr.touched) != 1 || tr.touched[0] != "DD-2026-000009" {
		t.Errorf("touched = %v", tr.touched)
	}
}

func TestAppendFromUser_EmptyMessage(t *testing.T) {
	svc := newTicketService(&fakeTicketRepo{}, &fakeTranscriptRepo{})
	if _, _, err := svc.AppendFromUser(context.Background(), 7, "", "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("err = %v, want ErrEmptyMessage", err)
	}
}

func TestAppendFromUser_ClipsLongMessages(t *testing.T) {
	tr := &fakeTicketRepo{openErr: gorm.ErrRecordNotFound}
	ts := &fakeTranscriptRepo{}
	svc := newTicketService(tr, ts)
	svc.MaxMessageLen = 10

	long := strings.Repeat("è", 25)
	if _, _, err := svc.AppendFromUser(context.Background(), 7, "", long); err != nil {
		t.Fatalf("AppendFromUser: %v", err)
	}
	if got := ts.entries[0].Text; got != strings.Repeat("è", 10) {
		t.Errorf("clip by runes failed: %q", got)
	}
}

func TestAppendFromOperator(t *testing.T) {
	open := &domain.Ticket{ID: "T1", Status: domain.StatusInProgress}
	tr := &fakeTicketRepo{get: open}
	ts := &fakeTranscriptRepo{}
	svc := newTicketService(tr, ts)

	tk, err := svc.AppendFromOperator(context.Background(), "T1", "risposta")
	if err != nil {
		t.Fatalf("AppendFromOperator: %v", err)
	}
	if tk.ID != "T1" {
		t.Errorf("ticket = %q", tk.ID)
	}
	if len(ts.entries) != 1 || ts.entries[0].Role != domain.RoleOperator {
		t.Fatalf("entries = %+v", ts.entries)
	}
	if len(tr.touched) != 1 {
		t.Errorf("touched = %v", tr.touched)
	}
}

func TestAppendFromOperator_ClosedTicketRejected(t *testing.T) {
	tr := &fakeTicketRepo{get: &domain.Ticket{ID: "T1", Status: domain.StatusClosed}}
	ts := &fakeTranscriptRepo{}
	svc := newTicketService(tr, ts)

	if _, err := svc.AppendFromOperator(context.Background(), "T1", "tardi"); !errors.Is(err, ErrTicketClosed) {
		t.Fatalf("err = %v, want ErrTicketClosed", err)
	}
	if len(ts.entries) != 0 {
		t.Error("closed ticket transcript must stay final")
	}
}

func TestAppendFromOperator_NotFound(t *testing.T) {
	tr := &fakeTicketRepo{getErr: gorm.ErrRecordNotFound}
	svc := newTicketService(tr, &fakeTranscriptRepo{})
	if _, err := svc.AppendFromOperator(context.Background(), "nope", "x"); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("err = %v, want ErrTicketNotFound", err)
	}
}

func TestClaim_ErrorMapping(t *testing.T) {
	other := int64(99)
	taken := &domain.Ticket{ID: "T1", Status: domain.StatusInProgress, AssignedOperatorID: &other}

	cases := []struct {
		name     string
		repo     *fakeTicketRepo
		wantErr  error
		wantTick bool
	}{
		{"won", &fakeTicketRepo{claim: &domain.Ticket{ID: "T1", Status: domain.StatusInProgress}}, nil, true},
		{"missing", &fakeTicketRepo{claimErr: gorm.ErrRecordNotFound}, ErrTicketNotFound, false},
		{"closed", &fakeTicketRepo{claim: &domain.Ticket{ID: "T1", Status: domain.StatusClosed}, claimErr: repo.ErrTicketClosed}, ErrTicketClosed, true},
		{"taken", &fakeTicketRepo{claim: taken, claimErr: repo.ErrTicketTaken}, ErrTicketAssigned, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTicketService(tc.repo, &fakeTranscriptRepo{})
			tk, err := svc.Claim(context.Background(), "T1", 5)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if tc.wantTick && tk == nil {
				t.Fatal("expected the refreshed ticket alongside the error")
			}
			if tc.repo.claimOp != 5 {
				t.Errorf("operator not forwarded: %d", tc.repo.claimOp)
			}
		})
	}
}

func TestClose_PermissionAndTerminality(t *testing.T) {
	me, other := int64(5), int64(99)

	t.Run("own ticket", func(t *testing.T) {
		tr := &fakeTicketRepo{get: &domain.Ticket{ID: "T1", Status: domain.StatusInProgress, AssignedOperatorID: &me}}
		svc := newTicketService(tr, &fakeTranscriptRepo{})
		tk, err := svc.Close(context.Background(), "T1", me)
		if err != nil {
			t.Fatalf("Close: %v", err)
		}
		if tk.Status != domain.StatusClosed {
			t.Errorf("status = %q", tk.Status)
		}
		if len(tr.closed) != 1 {
			t.Errorf("closed = %v", tr.closed)
		}
	})

	t.Run("unassigned ticket", func(t *testing.T) {
		tr := &fakeTicketRepo{get: &domain.Ticket{ID: "T1", Status: domain.StatusNew}}
		svc := newTicketService(tr, &fakeTranscriptRepo{})
		if _, err := svc.Close(context.Background(), "T1", me); err != nil {
			t.Fatalf("unassigned close should be allowed: %v", err)
		}
	})

	t.Run("someone else's ticket", func(t *testing.T) {
		tr := &fakeTicketRepo{get: &domain.Ticket{ID: "T1", Status: domain.StatusInProgress, AssignedOperatorID: &other}}
		svc := newTicketService(tr, &fakeTranscriptRepo{})
		if _, err := svc.Close(context.Background(), "T1", me); !errors.Is(err, ErrNotPermitted) {
			t.Fatalf("err = %v, want ErrNotPermitted", err)
		}
		if len(tr.closed) != 0 {
			t.Error("close must not reach the repo")
		}
	})

	t.Run("already closed", func(t *testing.T) {
		tr := &fakeTicketRepo{get: &domain.Ticket{ID: "T1", Status: domain.StatusClosed}}
		svc := newTicketService(tr, &fakeTranscriptRepo{})
		if _, err := svc.Close(context.Background(), "T1", me); !errors.Is(err, ErrTicketClosed) {
			t.Fatalf("err = %v, want ErrTicketClosed", err)
		}
	})
}

func TestListPage_OffsetsAndDefaults(t *testing.T) {
	tr := &fakeTicketRepo{countN: 31, page: []domain.Ticket{{ID: "a"}, {ID: "b"}}}
	svc := newTicketService(tr, &fakeTranscriptRepo{})

	items, total, err := svc.ListPage(context.Background(), domain.StatusNew, 3, 15)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if total != 31 || len(items) != 2 {
		t.Errorf("total = %d, items = %d", total, len(items))
	}
	if tr.gotOffset != 30 || tr.gotLimit != 15 {
		t.Errorf("offset/limit = %d/%d", tr.gotOffset, tr.gotLimit)
	}

	// Out-of-range page falls back to the first page of 15.
	if _, _, err := svc.ListPage(context.Background(), domain.StatusNew, 0, 0); err != nil {
		t.Fatalf("ListPage defaults: %v", err)
	}
	if tr.gotOffset != 0 || tr.gotLimit != 15 {
		t.Errorf("default offset/limit = %d/%d", tr.gotOffset, tr.gotLimit)
	}
}
