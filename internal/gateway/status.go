package gateway

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/Lawguy81/cnslr-legal-platform/internal/cache"
	"github.com/Lawguy81/cnslr-legal-platform/internal/ratelimit"
	"github.com/Lawguy81/cnslr-legal-platform/internal/upstream"
)

// DefaultStatusTTL is how long a status stays cached.
const DefaultStatusTTL = 5 * time.Minute

// lookupPattern accepts confirmation numbers typed by hand as well as the
// APPEAL-<stamp>-<suffix> form this gateway issues.
var lookupPattern = regexp.MustCompile(`^APPEAL-[A-Z0-9][A-Z0-9-]{7,}$`)

// Query identifies one appeal. When both fields are set the confirmation
// number is used for the lookup.
type Query struct {
	ConfirmationNumber string
	TicketNumber       string
}

func (q Query) cacheKey() string {
	if q.ConfirmationNumber != "" {
		return "confirmation|" + q.ConfirmationNumber
	}
	return "ticket|" + strings.ToUpper(q.TicketNumber)
}

// DecisionView is the agency's ruling.
type DecisionView struct {
	Type   string `json:"type"`
	Reason string `json:"reason,omitempty"`
	Date   string `json:"date,omitempty"`
}

// ViolationView describes the citation.
type ViolationView struct {
	ViolationCode string   `json:"violationCode,omitempty"`
	Description   string   `json:"description,omitempty"`
	FineAmount    *float64 `json:"fineAmount,omitempty"`
	Location      string   `json:"location,omitempty"`
}

// StatusSupport is contact information shown with every status.
type StatusSupport struct {
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Website string `json:"website"`
}

// StatusView is what a client sees for a lookup.
type StatusView struct {
	Status             Lifecycle      `json:"status"`
	Description        string         `json:"description"`
	IsResolved         bool           `json:"isResolved"`
	TicketNumber       string         `json:"ticketNumber,omitempty"`
	ConfirmationNumber string         `json:"confirmationNumber,omitempty"`
	SubmittedDate      string         `json:"submittedDate,omitempty"`
	LastUpdated        string         `json:"lastUpdated,omitempty"`
	Decision           *DecisionView  `json:"decision,omitempty"`
	ViolationInfo      *ViolationView `json:"violationInfo,omitempty"`
	NextSteps          []string       `json:"nextSteps"`
	Support            StatusSupport  `json:"support"`
	FromCache          bool           `json:"sourceIsCache"`

	Remaining int `json:"-"`
}

// Statuses answers status lookups through a read-through cache.
type Statuses struct {
	limiter *ratelimit.Limiter
	backend upstream.Backend
	cache   *cache.Cache[*upstream.StatusRecord]
	opts    options
}

// NewStatuses creates the status gateway. The limiter must not be shared
// with the submission gateway.
func NewStatuses(limiter *ratelimit.Limiter, backend upstream.Backend, c *cache.Cache[*upstream.StatusRecord], opts ...Option) *Statuses {
	return &Statuses{limiter: limiter, backend: backend, cache: c, opts: buildOptions(opts)}
}

// ValidateQuery returns every problem with q.
func ValidateQuery(q Query) []string {
	var msgs []string
	if q.ConfirmationNumber == "" && q.TicketNumber == "" {
		msgs = append(msgs, "Either confirmationNumber or ticketNumber is required")
	}
	if q.ConfirmationNumber != "" && !lookupPattern.MatchString(q.ConfirmationNumber) {
		msgs = append(msgs, "Invalid confirmation number format")
	}
	if q.TicketNumber != "" && !ticketPattern.MatchString(strings.ToUpper(q.TicketNumber)) {
		msgs = append(msgs, "Invalid ticket number format")
	}
	return msgs
}

// Lookup rate limits, validates, and resolves q.
func (s *Statuses) Lookup(ctx context.Context, q Query, clientAddr string) (*StatusView, error) {
	decision := s.limiter.Allow(clientAddr)
	if !decision.Allowed {
		return nil, &RateLimitedError{
			RetryAfter: decision.RetryAfter(s.limiter.Now()),
			Remaining:  decision.Remaining,
			ResetAt:    decision.ResetAt,
		}
	}

	q.ConfirmationNumber = strings.TrimSpace(q.ConfirmationNumber)
	q.TicketNumber = strings.TrimSpace(q.TicketNumber)
	if msgs := ValidateQuery(q); len(msgs) > 0 {
		return nil, &ValidationError{Messages: msgs}
	}

	uq := upstream.StatusQuery{ConfirmationNumber: q.ConfirmationNumber}
	if uq.ConfirmationNumber == "" {
		uq.TicketNumber = strings.ToUpper(q.TicketNumber)
	}

	rec, hit, err := s.cache.GetOrLoad(ctx, q.cacheKey(), func(ctx context.Context) (*upstream.StatusRecord, error) {
		return s.backend.GetStatus(ctx, uq)
	})
	if err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			return nil, ErrNotFound
		}
		s.opts.logger.Printf("gateway: status lookup %s failed: %v", q.cacheKey(), err)
		return nil, toUpstreamError("get status", err)
	}

	view := newStatusView(rec, hit)
	view.Remaining = decision.Remaining
	return view, nil
}

func newStatusView(rec *upstream.StatusRecord, fromCache bool) *StatusView {
	state := ParseLifecycle(rec.Status)
	v := &StatusView{
		Status:             state,
		Description:        state.Description(),
		IsResolved:         state.Resolved(),
		TicketNumber:       rec.TicketNumber,
		ConfirmationNumber: rec.ConfirmationNumber,
		SubmittedDate:      rec.SubmittedDate,
		LastUpdated:        rec.LastUpdated,
		NextSteps:          state.NextSteps(),
		Support: StatusSupport{
			Email:   SupportEmail,
			Phone:   SupportPhone,
			Website: SupportWebsite,
		},
		FromCache: fromCache,
	}
	if d := rec.Decision; d != nil {
		v.Decision = &DecisionView{Type: d.Type, Reason: d.Reason, Date: d.Date}
	}
	if vi := rec.ViolationInfo; vi != nil {
		v.ViolationInfo = &ViolationView{
			ViolationCode: vi.Code,
			Description:   vi.Description,
			FineAmount:    vi.FineAmount,
			Location:      vi.Location,
		}
	}
	return v
}
