package upstream

import (
	"context"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultMockRetention is how long the mock remembers a dispute.
	DefaultMockRetention = 24 * time.Hour
	// DefaultMockCapacity bounds the number of disputes the mock holds.
	DefaultMockCapacity = 10000

	mockSweepThreshold = 1024
)

// Mock is an in-memory Backend used when the gateway runs in mock mode.
// Every submission is accepted. Status lookups find only disputes this
// Mock has seen, so unknown identifiers report ErrNotFound. Disputes are
// forgotten after the retention period, and the oldest is evicted once the
// capacity is reached.
type Mock struct {
	mu        sync.Mutex
	now       func() time.Time
	retention time.Duration
	capacity  int
	byTicket  map[string]*mockEntry
	links     map[string]string
}

type mockEntry struct {
	rec        StatusRecord
	recordedAt time.Time
	// confirmations linked to this ticket, newest last
	confirmations []string
}

// MockOption configures a Mock.
type MockOption func(*Mock)

// WithMockClock replaces the wall clock.
func WithMockClock(now func() time.Time) MockOption {
	return func(m *Mock) { m.now = now }
}

// WithRetention sets how long disputes are remembered.
func WithRetention(d time.Duration) MockOption {
	return func(m *Mock) { m.retention = d }
}

// WithCapacity sets the maximum number of disputes held.
func WithCapacity(n int) MockOption {
	return func(m *Mock) { m.capacity = n }
}

// NewMock creates an empty mock backend.
func NewMock(opts ...MockOption) *Mock {
	m := &Mock{
		now:       time.Now,
		retention: DefaultMockRetention,
		capacity:  DefaultMockCapacity,
		byTicket:  make(map[string]*mockEntry),
		links:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.capacity < 1 {
		m.capacity = 1
	}
	return m
}

// SubmitDispute records d as received.
func (m *Mock) SubmitDispute(ctx context.Context, d Dispute) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	ticket := strings.ToUpper(d.TicketNumber)
	if _, ok := m.byTicket[ticket]; !ok {
		if len(m.byTicket) > mockSweepThreshold {
			m.sweep(now)
		}
		if len(m.byTicket) >= m.capacity {
			m.evictOldest()
		}
	}

	var confirmations []string
	if prev, ok := m.byTicket[ticket]; ok {
		confirmations = prev.confirmations
	}
	ts := now.UTC().Format(time.RFC3339)
	m.byTicket[ticket] = &mockEntry{
		confirmations: confirmations,
		rec: StatusRecord{
			Status:        "received",
			TicketNumber:  ticket,
			SubmittedDate: ts,
			LastUpdated:   ts,
		},
		recordedAt: now,
	}
	return &Receipt{ID: d.RequestID, Status: "received"}, nil
}

// Link attaches a gateway confirmation number to a recorded ticket.
func (m *Mock) Link(confirmationNumber, ticketNumber string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ticket := strings.ToUpper(ticketNumber)
	e, ok := m.byTicket[ticket]
	if !ok {
		return
	}
	m.links[confirmationNumber] = ticket
	e.confirmations = append(e.confirmations, confirmationNumber)
	e.rec.ConfirmationNumber = confirmationNumber
}

// GetStatus returns a copy of the recorded status.
func (m *Mock) GetStatus(ctx context.Context, q StatusQuery) (*StatusRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	ticket := strings.ToUpper(q.TicketNumber)
	if q.ConfirmationNumber != "" {
		linked, ok := m.links[q.ConfirmationNumber]
		if !ok {
			return nil, ErrNotFound
		}
		ticket = linked
	}

	e, ok := m.byTicket[ticket]
	if !ok || m.expired(e, m.now()) {
		return nil, ErrNotFound
	}
	out := e.rec
	return &out, nil
}

func (m *Mock) expired(e *mockEntry, now time.Time) bool {
	return now.Sub(e.recordedAt) >= m.retention
}

// sweep must be called with m.mu held.
func (m *Mock) sweep(now time.Time) {
	for ticket, e := range m.byTicket {
		if m.expired(e, now) {
			m.forget(ticket, e)
		}
	}
}

// evictOldest must be called with m.mu held.
func (m *Mock) evictOldest() {
	var (
		oldestTicket string
		oldest       *mockEntry
	)
	for ticket, e := range m.byTicket {
		if oldest == nil || e.recordedAt.Before(oldest.recordedAt) {
			oldestTicket, oldest = ticket, e
		}
	}
	if oldest != nil {
		m.forget(oldestTicket, oldest)
	}
}

func (m *Mock) forget(ticket string, e *mockEntry) {
	delete(m.byTicket, ticket)
	for _, c := range e.confirmations {
		delete(m.links, c)
	}
}

var (
	_ Backend = (*Mock)(nil)
	_ Linker  = (*Mock)(nil)
)
