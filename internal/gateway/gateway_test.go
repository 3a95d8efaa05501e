package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Lawguy81/cnslr-legal-platform/internal/cache"
	"github.com/Lawguy81/cnslr-legal-platform/internal/models"
	"github.com/Lawguy81/cnslr-legal-platform/internal/ratelimit"
	"github.com/Lawguy81/cnslr-legal-platform/internal/upstream"
)

var fixedNow = time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)

func validAppeal() models.Answers {
	return models.Answers{
		"ticketNumber":  "ABC12345",
		"violationDate": "2024-01-15",
		"licensePlate":  "XYZ999",
		"contestReason": "broken_meter",
		"explanation":   "meter was broken",
		"fullName":      "Jane Doe",
		"address":       "1 Main St",
		"phone":         "555-123-4567",
		"email":         "jane@example.com",
	}
}

// recordingBackend counts calls and returns a canned result.
type recordingBackend struct {
	submits  atomic.Int32
	lookups  atomic.Int32
	last     upstream.Dispute
	submitFn func(upstream.Dispute) error
	statusFn func(upstream.StatusQuery) (*upstream.StatusRecord, error)
}

func (b *recordingBackend) SubmitDispute(ctx context.Context, d upstream.Dispute) (*upstream.Receipt, error) {
	b.submits.Add(1)
	b.last = d
	if b.submitFn != nil {
		if err := b.submitFn(d); err != nil {
			return nil, err
		}
	}
	return &upstream.Receipt{}, nil
}

func (b *recordingBackend) GetStatus(ctx context.Context, q upstream.StatusQuery) (*upstream.StatusRecord, error) {
	b.lookups.Add(1)
	if b.statusFn != nil {
		return b.statusFn(q)
	}
	return &upstream.StatusRecord{Status: "under_review", TicketNumber: q.TicketNumber}, nil
}

func newSubmissions(b upstream.Backend, limit int) *Submissions {
	l := ratelimit.New(limit, time.Minute, ratelimit.WithClock(func() time.Time { return fixedNow }))
	return NewSubmissions(l, b, WithRequestID(func() string { return "req-fixed" }))
}

func newStatuses(b upstream.Backend, limit int) *Statuses {
	clock := func() time.Time { return fixedNow }
	l := ratelimit.New(limit, time.Minute, ratelimit.WithClock(clock))
	c := cache.New[*upstream.StatusRecord](DefaultStatusTTL, cache.WithClock(clock))
	return NewStatuses(l, b, c)
}

func TestSubmitAccepted(t *testing.T) {
	b := &recordingBackend{}
	conf, err := newSubmissions(b, 100).Submit(context.Background(), validAppeal(), "1.2.3.4")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if !IsConfirmationNumber(conf.ConfirmationNumber) {
		t.Errorf("Unexpected confirmation number %q", conf.ConfirmationNumber)
	}
	if conf.EchoedFields.DefenseCode != "BROKEN_METER" {
		t.Errorf("Expected BROKEN_METER, got %q", conf.EchoedFields.DefenseCode)
	}
	if !conf.SubmittedAt.Equal(fixedNow) {
		t.Errorf("Expected submittedAt %v, got %v", fixedNow, conf.SubmittedAt)
	}
	if len(conf.NextSteps) != 4 || !strings.Contains(conf.NextSteps[2], conf.ConfirmationNumber) {
		t.Errorf("Unexpected next steps: %v", conf.NextSteps)
	}
	if conf.SupportInfo.TrackingURL != "https://parkingtickets.nyc.gov/status/"+conf.ConfirmationNumber {
		t.Errorf("Unexpected tracking url %q", conf.SupportInfo.TrackingURL)
	}
	if conf.Remaining != 99 {
		t.Errorf("Expected 99 remaining, got %d", conf.Remaining)
	}

	d := b.last
	if d.TicketNumber != "ABC12345" || d.PlateNumber != "XYZ999" || d.State != "NY" {
		t.Errorf("Unexpected dispute identifiers: %+v", d)
	}
	if d.RequestID != "req-fixed" {
		t.Errorf("Expected request id, got %q", d.RequestID)
	}
	if d.SubmissionTimestamp != "2024-01-20T12:00:00.000Z" {
		t.Errorf("Unexpected timestamp %q", d.SubmissionTimestamp)
	}
	if d.Evidence.Included || d.DocumentHTML != nil {
		t.Errorf("Expected no evidence and no document, got %+v", d)
	}
}

func TestSubmitTransformsFields(t *testing.T) {
	b := &recordingBackend{}
	raw := validAppeal()
	raw["ticketNumber"] = "abc12345"
	raw["licensePlate"] = "xyz999"
	raw["contestReason"] = "Missing_Sign"
	raw["plateState"] = "NJ"
	raw["hasEvidence"] = true
	raw["evidenceDescription"] = "photo of sign"
	raw["documentHtml"] = "<p>appeal</p>"

	conf, err := newSubmissions(b, 100).Submit(context.Background(), raw, "1.2.3.4")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	d := b.last
	if d.TicketNumber != "ABC12345" || d.PlateNumber != "XYZ999" {
		t.Errorf("Expected upper-cased identifiers, got %q %q", d.TicketNumber, d.PlateNumber)
	}
	if d.DefenseCode != "MISSING_SIGN" || d.State != "NJ" {
		t.Errorf("Unexpected code/state %q %q", d.DefenseCode, d.State)
	}
	if !d.Evidence.Included || d.Evidence.Description != "photo of sign" {
		t.Errorf("Unexpected evidence %+v", d.Evidence)
	}
	if d.DocumentHTML == nil || *d.DocumentHTML != "<p>appeal</p>" {
		t.Errorf("Expected document html")
	}
	if !conf.EchoedFields.EvidenceIncluded {
		t.Error("Expected evidenceIncluded")
	}
}

func TestSubmitInvalidEmail(t *testing.T) {
	b := &recordingBackend{}
	raw := validAppeal()
	raw["email"] = "not-an-email"

	conf, err := newSubmissions(b, 100).Submit(context.Background(), raw, "1.2.3.4")
	if conf != nil {
		t.Errorf("Expected no confirmation, got %+v", conf)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Expected *ValidationError, got %v", err)
	}
	if len(ve.Messages) != 1 || ve.Messages[0] != "Invalid email format" {
		t.Errorf("Unexpected messages: %v", ve.Messages)
	}
	if b.submits.Load() != 0 {
		t.Error("Invalid appeals must not reach the agency")
	}
}

func TestValidateSubmissionIsExhaustive(t *testing.T) {
	msgs := ValidateSubmission(models.Answers{
		"ticketNumber":  "ab",
		"licensePlate":  "TOO-LONG-PLATE",
		"contestReason": "aliens",
		"violationDate": "01/15/2024",
		"phone":         "12345",
		"email":         "   ",
	})

	want := []string{
		"Missing required field: explanation",
		"Missing required field: fullName",
		"Missing required field: address",
		"Missing required field: email",
		"Invalid phone number format",
		"Invalid ticket number format",
		"Invalid license plate format",
		"Invalid contest reason. Must be one of: not_driver, broken_meter, missing_sign, wrong_plate, stolen_vehicle, other",
		"Violation date must be in YYYY-MM-DD format",
	}
	if len(msgs) != len(want) {
		t.Fatalf("Expected %d messages, got %d: %v", len(want), len(msgs), msgs)
	}
	for i := range want {
		if msgs[i] != want[i] {
			t.Errorf("Message %d: expected %q, got %q", i, want[i], msgs[i])
		}
	}
}

func TestSubmitRateLimited(t *testing.T) {
	b := &recordingBackend{}
	s := newSubmissions(b, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := s.Submit(ctx, validAppeal(), "9.9.9.9"); err != nil {
			t.Fatalf("Submit %d failed: %v", i, err)
		}
	}

	_, err := s.Submit(ctx, models.Answers{}, "9.9.9.9")
	var rl *RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("Expected *RateLimitedError, got %v", err)
	}
	if rl.RetryAfterSeconds() != 60 || rl.Remaining != 0 {
		t.Errorf("Unexpected rate limit error %+v", rl)
	}
	if b.submits.Load() != 2 {
		t.Errorf("Expected 2 upstream calls, got %d", b.submits.Load())
	}
}

func TestSubmitJSONChargesQuotaBeforeDecoding(t *testing.T) {
	b := &recordingBackend{}
	s := newSubmissions(b, 1)
	ctx := context.Background()

	_, err := s.SubmitJSON(ctx, strings.NewReader("{bad json"), "9.9.9.9")
	if !errors.Is(err, ErrInvalidJSON) {
		t.Fatalf("Expected ErrInvalidJSON, got %v", err)
	}

	_, err = s.SubmitJSON(ctx, strings.NewReader("{bad json"), "9.9.9.9")
	var rl *RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("Expected *RateLimitedError, got %v", err)
	}
	if b.submits.Load() != 0 {
		t.Errorf("Expected no upstream calls, got %d", b.submits.Load())
	}
}

func TestSubmitUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"message":"dof unavailable"}`))
	}))
	defer srv.Close()

	client := upstream.NewClient(srv.URL, srv.URL, "key", time.Second)
	_, err := newSubmissions(client, 100).Submit(context.Background(), validAppeal(), "1.2.3.4")

	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("Expected *UpstreamError, got %v", err)
	}
	if ue.Status != http.StatusBadGateway || ue.Message != "dof unavailable" {
		t.Errorf("Unexpected upstream error %+v", ue)
	}
}

func TestConfirmationNumbersAreUnique(t *testing.T) {
	seen := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		n := NewConfirmationNumber(fixedNow)
		if !IsConfirmationNumber(n) {
			t.Fatalf("Bad format: %q", n)
		}
		if seen[n] {
			t.Fatalf("Duplicate confirmation number %q after %d samples", n, i)
		}
		seen[n] = true
	}
}

func TestIssuedNumbersPassLookupValidation(t *testing.T) {
	n := NewConfirmationNumber(fixedNow)
	if msgs := ValidateQuery(Query{ConfirmationNumber: n}); len(msgs) != 0 {
		t.Errorf("Issued number %q rejected: %v", n, msgs)
	}
}

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"empty", Query{}, []string{"Either confirmationNumber or ticketNumber is required"}},
		{"ticket", Query{TicketNumber: "abc12345"}, nil},
		{"short ticket", Query{TicketNumber: "ABC"}, []string{"Invalid ticket number format"}},
		{"confirmation", Query{ConfirmationNumber: "APPEAL-12345678"}, nil},
		{"bad confirmation", Query{ConfirmationNumber: "APPEAL-1"}, []string{"Invalid confirmation number format"}},
		{"both bad", Query{ConfirmationNumber: "X", TicketNumber: "Y"}, []string{"Invalid confirmation number format", "Invalid ticket number format"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ValidateQuery(tc.q)
			if len(got) != len(tc.want) {
				t.Fatalf("Expected %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("Expected %q, got %q", tc.want[i], got[i])
				}
			}
		})
	}
}

func TestLookupCachesResults(t *testing.T) {
	b := &recordingBackend{}
	s := newStatuses(b, 200)
	ctx := context.Background()

	first, err := s.Lookup(ctx, Query{TicketNumber: "abc12345"}, "1.2.3.4")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if first.FromCache {
		t.Error("First lookup must be a miss")
	}
	if first.Status != UnderReview || first.IsResolved {
		t.Errorf("Unexpected view %+v", first)
	}

	second, err := s.Lookup(ctx, Query{TicketNumber: "ABC12345"}, "1.2.3.4")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !second.FromCache {
		t.Error("Second lookup must be a hit")
	}
	if b.lookups.Load() != 1 {
		t.Errorf("Expected 1 upstream lookup, got %d", b.lookups.Load())
	}
	if second.Remaining != 198 {
		t.Errorf("Expected 198 remaining, got %d", second.Remaining)
	}
}

func TestLookupUnknownTicketIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := upstream.NewClient(srv.URL, srv.URL, "key", time.Second)
	_, err := newStatuses(client, 200).Lookup(context.Background(), Query{TicketNumber: "ZZZ99999"}, "1.2.3.4")

	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		t.Error("NotFound must not be an UpstreamError")
	}
}

func TestLookupUpstreamFailureNotCached(t *testing.T) {
	fail := true
	b := &recordingBackend{statusFn: func(q upstream.StatusQuery) (*upstream.StatusRecord, error) {
		if fail {
			return nil, &upstream.Error{Status: 500, Message: "boom"}
		}
		return &upstream.StatusRecord{Status: "approved"}, nil
	}}
	s := newStatuses(b, 200)
	ctx := context.Background()

	_, err := s.Lookup(ctx, Query{ConfirmationNumber: "APPEAL-12345678"}, "1.2.3.4")
	var ue *UpstreamError
	if !errors.As(err, &ue) || ue.Status != 500 {
		t.Fatalf("Expected upstream 500, got %v", err)
	}

	fail = false
	view, err := s.Lookup(ctx, Query{ConfirmationNumber: "APPEAL-12345678"}, "1.2.3.4")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if view.FromCache || view.Status != Approved || !view.IsResolved {
		t.Errorf("Unexpected view %+v", view)
	}
}

func TestLookupRateLimitIsSeparate(t *testing.T) {
	b := &recordingBackend{}
	s := newStatuses(b, 1)
	ctx := context.Background()

	if _, err := s.Lookup(ctx, Query{TicketNumber: "ABC12345"}, "1.2.3.4"); err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	_, err := s.Lookup(ctx, Query{TicketNumber: "ABC12345"}, "1.2.3.4")
	var rl *RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("Expected *RateLimitedError, got %v", err)
	}
}

func TestLifecycleTable(t *testing.T) {
	for _, l := range allLifecycles() {
		if l.Description() == "" || len(l.NextSteps()) == 0 {
			t.Errorf("%s is missing text", l)
		}
	}
	if ParseLifecycle("escalated") != Submitted {
		t.Error("Unknown states must map to submitted")
	}

	resolved := 0
	for _, l := range allLifecycles() {
		if l.Resolved() {
			resolved++
		}
	}
	if resolved != 4 {
		t.Errorf("Expected 4 resolved states, got %d", resolved)
	}
}

func TestMockRoundTrip(t *testing.T) {
	mock := upstream.NewMock()
	ctx := context.Background()

	conf, err := newSubmissions(mock, 100).Submit(ctx, validAppeal(), "1.2.3.4")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	view, err := newStatuses(mock, 200).Lookup(ctx, Query{ConfirmationNumber: conf.ConfirmationNumber}, "1.2.3.4")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if view.Status != Received || view.TicketNumber != "ABC12345" {
		t.Errorf("Unexpected view %+v", view)
	}
}
