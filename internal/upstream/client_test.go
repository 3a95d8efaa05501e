package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSubmitDispute(t *testing.T) {
	var got Dispute
	var headers http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		headers = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode failed: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"d-1","status":"received"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, "secret", time.Second)
	receipt, err := c.SubmitDispute(context.Background(), Dispute{
		TicketNumber: "ABC12345",
		DefenseCode:  "BROKEN_METER",
		RequestID:    "req-1",
	})
	if err != nil {
		t.Fatalf("SubmitDispute failed: %v", err)
	}

	if receipt.ID != "d-1" {
		t.Errorf("Expected receipt id d-1, got %q", receipt.ID)
	}
	if got.TicketNumber != "ABC12345" || got.DefenseCode != "BROKEN_METER" {
		t.Errorf("Unexpected payload: %+v", got)
	}
	if h := headers.Get("Authorization"); h != "Bearer secret" {
		t.Errorf("Expected bearer auth, got %q", h)
	}
	if h := headers.Get("X-Request-ID"); h != "req-1" {
		t.Errorf("Expected request id req-1, got %q", h)
	}
	if h := headers.Get("User-Agent"); h != UserAgent {
		t.Errorf("Expected user agent %q, got %q", UserAgent, h)
	}
}

func TestSubmitDisputeUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"message":"maintenance window"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, srv.URL, "k", time.Second).SubmitDispute(context.Background(), Dispute{})
	var ue *Error
	if !errors.As(err, &ue) {
		t.Fatalf("Expected *Error, got %v", err)
	}
	if ue.Status != http.StatusServiceUnavailable || ue.Message != "maintenance window" {
		t.Errorf("Unexpected error: %+v", ue)
	}
}

func TestGetStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("ticket_number"); got != "ABC12345" {
			t.Errorf("Expected upper-cased ticket, got %q", got)
		}
		w.Write([]byte(`{"status":"under_review","ticket_number":"ABC12345","decision":{"type":"pending"}}`))
	}))
	defer srv.Close()

	rec, err := NewClient(srv.URL, srv.URL, "k", 0).GetStatus(context.Background(), StatusQuery{TicketNumber: "abc12345"})
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	if rec.Status != "under_review" {
		t.Errorf("Expected under_review, got %q", rec.Status)
	}
	if rec.Decision == nil || rec.Decision.Type != "pending" {
		t.Errorf("Expected decision, got %+v", rec.Decision)
	}
}

func TestGetStatusNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Appeal not found"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, srv.URL, "k", time.Second).GetStatus(context.Background(), StatusQuery{TicketNumber: "ZZZ99999"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	var ue *Error
	if errors.As(err, &ue) {
		t.Error("404 must not be reported as *Error")
	}
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewClient(srv.URL, srv.URL, "k", 50*time.Millisecond).GetStatus(context.Background(), StatusQuery{TicketNumber: "ABC12345"})
	if err == nil {
		t.Fatal("Expected timeout error")
	}
}

func TestMock(t *testing.T) {
	ctx := context.Background()
	m := NewMock()

	if _, err := m.GetStatus(ctx, StatusQuery{TicketNumber: "ABC12345"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound before submit, got %v", err)
	}

	if _, err := m.SubmitDispute(ctx, Dispute{TicketNumber: "abc12345"}); err != nil {
		t.Fatalf("SubmitDispute failed: %v", err)
	}
	m.Link("APPEAL-LX2K9ABC-Q1W2E3", "ABC12345")

	rec, err := m.GetStatus(ctx, StatusQuery{ConfirmationNumber: "APPEAL-LX2K9ABC-Q1W2E3"})
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	if rec.Status != "received" || rec.TicketNumber != "ABC12345" {
		t.Errorf("Unexpected record: %+v", rec)
	}
	if rec.ConfirmationNumber != "APPEAL-LX2K9ABC-Q1W2E3" {
		t.Errorf("Expected linked confirmation, got %q", rec.ConfirmationNumber)
	}

	if _, err := m.GetStatus(ctx, StatusQuery{ConfirmationNumber: "APPEAL-UNKNOWN1"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown confirmation, got %v", err)
	}
}

func TestMockForgetsExpiredDisputes(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	m := NewMock(WithMockClock(func() time.Time { return now }), WithRetention(time.Hour))

	if _, err := m.SubmitDispute(ctx, Dispute{TicketNumber: "ABC12345"}); err != nil {
		t.Fatalf("SubmitDispute failed: %v", err)
	}
	m.Link("APPEAL-LX2K9ABC-Q1W2E3", "ABC12345")

	now = now.Add(2 * time.Hour)
	if _, err := m.GetStatus(ctx, StatusQuery{TicketNumber: "ABC12345"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after retention, got %v", err)
	}

	m.mu.Lock()
	m.sweep(now)
	m.mu.Unlock()
	if m.size() != 0 || len(m.links) != 0 {
		t.Errorf("Expected sweep to drop dispute and links, got %d disputes %d links", m.size(), len(m.links))
	}
}

func TestMockCapacityEvictsOldest(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	m := NewMock(WithMockClock(func() time.Time { return now }), WithCapacity(2))

	for _, ticket := range []string{"AAA11111", "BBB22222", "CCC33333"} {
		if _, err := m.SubmitDispute(ctx, Dispute{TicketNumber: ticket}); err != nil {
			t.Fatalf("SubmitDispute %s failed: %v", ticket, err)
		}
		m.Link("APPEAL-"+ticket, ticket)
		now = now.Add(time.Minute)
	}

	if m.size() != 2 {
		t.Fatalf("Expected 2 disputes held, got %d", m.size())
	}
	if _, err := m.GetStatus(ctx, StatusQuery{ConfirmationNumber: "APPEAL-AAA11111"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected oldest dispute evicted, got %v", err)
	}
	if _, err := m.GetStatus(ctx, StatusQuery{TicketNumber: "CCC33333"}); err != nil {
		t.Errorf("Expected newest dispute kept, got %v", err)
	}
	if len(m.links) != 2 {
		t.Errorf("Expected 2 links, got %d", len(m.links))
	}
}

// size is the number of disputes held, expired ones included until swept.
func (m *Mock) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byTicket)
}
