// Package gateway validates parking-ticket appeals and status lookups,
// rate limits them per client, and relays them to the agency API.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Lawguy81/cnslr-legal-platform/internal/models"
	"github.com/Lawguy81/cnslr-legal-platform/internal/ratelimit"
	"github.com/Lawguy81/cnslr-legal-platform/internal/upstream"
)

// DefaultState is used when a submission names no plate state.
const DefaultState = "NY"

// DefenseCodes maps contest reasons to the agency's defense codes.
var DefenseCodes = map[string]string{
	"not_driver":     "NOT_DRIVER",
	"broken_meter":   "BROKEN_METER",
	"missing_sign":   "MISSING_SIGN",
	"wrong_plate":    "WRONG_PLATE",
	"stolen_vehicle": "STOLEN_VEHICLE",
	"other":          "OTHER",
}

// contestReasons lists DefenseCodes keys in a stable order for messages.
var contestReasons = []string{"not_driver", "broken_meter", "missing_sign", "wrong_plate", "stolen_vehicle", "other"}

var requiredSubmissionFields = []string{
	"ticketNumber",
	"violationDate",
	"licensePlate",
	"contestReason",
	"explanation",
	"fullName",
	"address",
	"phone",
	"email",
}

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern  = regexp.MustCompile(`^[\d\s\-()]{10,}$`)
	ticketPattern = regexp.MustCompile(`^[A-Z0-9]{8,10}$`)
	platePattern  = regexp.MustCompile(`^[A-Z0-9]{2,8}$`)
	datePattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Support contact details returned with confirmations and status views.
const (
	SupportEmail   = "disputes@nycgov.parks.com"
	SupportPhone   = "1-888-NYC-TICK"
	SupportWebsite = "https://parkingtickets.nyc.gov"
	trackingURL    = SupportWebsite + "/status/"
)

// EchoedFields repeats what was filed so the client can show it.
type EchoedFields struct {
	TicketNumber     string `json:"ticketNumber"`
	LicensePlate     string `json:"licensePlate"`
	Email            string `json:"email"`
	DefenseCode      string `json:"defenseCode"`
	ViolationDate    string `json:"violationDate"`
	EvidenceIncluded bool   `json:"evidenceIncluded"`
}

// SupportInfo tells the filer where to follow up.
type SupportInfo struct {
	TrackingURL  string `json:"trackingUrl"`
	SupportEmail string `json:"supportEmail"`
	SupportPhone string `json:"supportPhone"`
}

// Confirmation is the result of an accepted appeal.
type Confirmation struct {
	ConfirmationNumber string       `json:"confirmationNumber"`
	SubmittedAt        time.Time    `json:"submittedAt"`
	EchoedFields       EchoedFields `json:"echoedFields"`
	NextSteps          []string     `json:"nextSteps"`
	SupportInfo        SupportInfo  `json:"supportInfo"`

	// Remaining is the caller's quota left in the current window.
	Remaining int `json:"-"`
}

// Option configures a gateway.
type Option func(*options)

type options struct {
	logger    *log.Logger
	requestID func() string
}

// WithLogger sets the logger for upstream failures.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRequestID replaces the correlation id generator.
func WithRequestID(fn func() string) Option {
	return func(o *options) { o.requestID = fn }
}

func buildOptions(opts []Option) options {
	o := options{
		logger:    log.New(io.Discard, "", 0),
		requestID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Submissions files parking-ticket appeals. It keeps no record of what it
// files; the confirmation number is the only link back.
type Submissions struct {
	limiter *ratelimit.Limiter
	backend upstream.Backend
	opts    options
}

// NewSubmissions creates the submission gateway.
func NewSubmissions(limiter *ratelimit.Limiter, backend upstream.Backend, opts ...Option) *Submissions {
	return &Submissions{limiter: limiter, backend: backend, opts: buildOptions(opts)}
}

// Submit rate limits, validates, and forwards one appeal.
func (s *Submissions) Submit(ctx context.Context, raw models.Answers, clientAddr string) (*Confirmation, error) {
	decision, err := s.admit(clientAddr)
	if err != nil {
		return nil, err
	}
	return s.file(ctx, raw, decision)
}

// SubmitJSON is Submit for an undecoded request body. The quota is charged
// before the body is read, so malformed bodies count against it too.
func (s *Submissions) SubmitJSON(ctx context.Context, body io.Reader, clientAddr string) (*Confirmation, error) {
	decision, err := s.admit(clientAddr)
	if err != nil {
		return nil, err
	}
	var raw models.Answers
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return s.file(ctx, raw, decision)
}

func (s *Submissions) admit(clientAddr string) (ratelimit.Decision, error) {
	decision := s.limiter.Allow(clientAddr)
	if !decision.Allowed {
		return decision, &RateLimitedError{
			RetryAfter: decision.RetryAfter(s.limiter.Now()),
			Remaining:  decision.Remaining,
			ResetAt:    decision.ResetAt,
		}
	}
	return decision, nil
}

func (s *Submissions) file(ctx context.Context, raw models.Answers, decision ratelimit.Decision) (*Confirmation, error) {
	if msgs := ValidateSubmission(raw); len(msgs) > 0 {
		return nil, &ValidationError{Messages: msgs}
	}

	now := s.limiter.Now().UTC()
	dispute := toDispute(raw, now, s.opts.requestID())

	if _, err := s.backend.SubmitDispute(ctx, dispute); err != nil {
		ue := toUpstreamError("submit dispute", err)
		s.opts.logger.Printf("gateway: submit %s failed: %v", dispute.TicketNumber, err)
		return nil, ue
	}

	number := NewConfirmationNumber(now)
	if l, ok := s.backend.(upstream.Linker); ok {
		l.Link(number, dispute.TicketNumber)
	}

	email := raw.String("email")
	return &Confirmation{
		ConfirmationNumber: number,
		SubmittedAt:        now,
		EchoedFields: EchoedFields{
			TicketNumber:     raw.String("ticketNumber"),
			LicensePlate:     raw.String("licensePlate"),
			Email:            email,
			DefenseCode:      dispute.DefenseCode,
			ViolationDate:    dispute.ViolationDate,
			EvidenceIncluded: dispute.Evidence.Included,
		},
		NextSteps: []string{
			"A confirmation email will be sent to " + email,
			"Your appeal will be reviewed by NYC Department of Finance",
			"You can track your appeal status using confirmation number: " + number,
			"Typical review time is 30-45 days",
		},
		SupportInfo: SupportInfo{
			TrackingURL:  trackingURL + number,
			SupportEmail: SupportEmail,
			SupportPhone: SupportPhone,
		},
		Remaining: decision.Remaining,
	}, nil
}

// ValidateSubmission returns every problem with raw. An empty result means
// the appeal can be filed.
func ValidateSubmission(raw models.Answers) []string {
	var msgs []string
	for _, name := range requiredSubmissionFields {
		if !raw.Has(name) {
			msgs = append(msgs, "Missing required field: "+name)
		}
	}

	if v := raw.String("email"); v != "" && !emailPattern.MatchString(v) {
		msgs = append(msgs, "Invalid email format")
	}
	if v := raw.String("phone"); v != "" && !phonePattern.MatchString(v) {
		msgs = append(msgs, "Invalid phone number format")
	}
	if v := raw.String("ticketNumber"); v != "" && !ticketPattern.MatchString(strings.ToUpper(v)) {
		msgs = append(msgs, "Invalid ticket number format")
	}
	if v := raw.String("licensePlate"); v != "" && !platePattern.MatchString(strings.ToUpper(v)) {
		msgs = append(msgs, "Invalid license plate format")
	}
	if v := raw.String("contestReason"); v != "" {
		if _, ok := DefenseCodes[strings.ToLower(v)]; !ok {
			msgs = append(msgs, "Invalid contest reason. Must be one of: "+strings.Join(contestReasons, ", "))
		}
	}
	if v := raw.String("violationDate"); v != "" && !datePattern.MatchString(v) {
		msgs = append(msgs, "Violation date must be in YYYY-MM-DD format")
	}
	return msgs
}

func toDispute(raw models.Answers, now time.Time, requestID string) upstream.Dispute {
	state := raw.String("plateState")
	if state == "" {
		state = DefaultState
	}

	evidence := upstream.Evidence{Included: raw.Bool("hasEvidence")}
	if evidence.Included {
		evidence.Description = raw.String("evidenceDescription")
	}

	var documentHTML *string
	if html, ok := raw["documentHtml"].(string); ok && html != "" {
		documentHTML = &html
	}

	return upstream.Dispute{
		TicketNumber:  strings.ToUpper(raw.String("ticketNumber")),
		PlateNumber:   strings.ToUpper(raw.String("licensePlate")),
		State:         state,
		ViolationDate: raw.String("violationDate"),
		DefenseCode:   DefenseCodes[strings.ToLower(raw.String("contestReason"))],
		Statement:     raw.String("explanation"),
		ContactInfo: upstream.ContactInfo{
			Name:    raw.String("fullName"),
			Address: raw.String("address"),
			Phone:   raw.String("phone"),
			Email:   raw.String("email"),
		},
		Evidence:            evidence,
		DocumentHTML:        documentHTML,
		SubmissionTimestamp: now.Format("2006-01-02T15:04:05.000Z07:00"),
		RequestID:           requestID,
	}
}

func toUpstreamError(op string, err error) *UpstreamError {
	var ae *upstream.Error
	switch {
	case errors.As(err, &ae):
		return &UpstreamError{Op: op, Status: ae.Status, Message: ae.Message, Err: err}
	case errors.Is(err, upstream.ErrNotFound):
		return &UpstreamError{Op: op, Status: 404, Message: "Not Found", Err: err}
	default:
		return &UpstreamError{Op: op, Message: err.Error(), Err: err}
	}
}

