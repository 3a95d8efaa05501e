// Package upstream talks to the agency disputes API that parking-ticket
// appeals are filed with.
package upstream

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when the agency has no record for a lookup.
var ErrNotFound = errors.New("upstream: not found")

// Error is a non-success response from the agency API.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream error (%d)", e.Status)
	}
	return fmt.Sprintf("upstream error (%d): %s", e.Status, e.Message)
}

// ContactInfo identifies the person filing the dispute.
type ContactInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

// Evidence describes supporting material attached to a dispute.
type Evidence struct {
	Included    bool   `json:"included"`
	Description string `json:"description,omitempty"`
}

// Dispute is the agency's submission schema.
type Dispute struct {
	TicketNumber        string      `json:"ticket_number"`
	PlateNumber         string      `json:"plate_number"`
	State               string      `json:"state"`
	ViolationDate       string      `json:"violation_date"`
	DefenseCode         string      `json:"defense_code"`
	Statement           string      `json:"statement"`
	ContactInfo         ContactInfo `json:"contact_info"`
	Evidence            Evidence    `json:"evidence"`
	DocumentHTML        *string     `json:"document_html"`
	SubmissionTimestamp string      `json:"submission_timestamp"`
	RequestID           string      `json:"request_id"`
}

// Receipt is what the agency returns for an accepted dispute. Fields are
// optional; the gateway issues its own confirmation number.
type Receipt struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status,omitempty"`
}

// Decision is the outcome of a resolved dispute.
type Decision struct {
	Type   string `json:"type"`
	Reason string `json:"reason,omitempty"`
	Date   string `json:"date,omitempty"`
}

// ViolationInfo describes the original citation.
type ViolationInfo struct {
	Code        string   `json:"code,omitempty"`
	Description string   `json:"description,omitempty"`
	FineAmount  *float64 `json:"fine_amount,omitempty"`
	Location    string   `json:"location,omitempty"`
}

// StatusRecord is the agency's status schema.
type StatusRecord struct {
	Status             string         `json:"status"`
	TicketNumber       string         `json:"ticket_number,omitempty"`
	ConfirmationNumber string         `json:"confirmation_number,omitempty"`
	SubmittedDate      string         `json:"submitted_date,omitempty"`
	LastUpdated        string         `json:"last_updated,omitempty"`
	Decision           *Decision      `json:"decision,omitempty"`
	ViolationInfo      *ViolationInfo `json:"violation_info,omitempty"`
}

// StatusQuery selects a dispute by confirmation number or ticket number.
// When both are set the confirmation number wins.
type StatusQuery struct {
	ConfirmationNumber string
	TicketNumber       string
}

// Backend is the agency API as seen by the gateways.
type Backend interface {
	SubmitDispute(ctx context.Context, d Dispute) (*Receipt, error)
	GetStatus(ctx context.Context, q StatusQuery) (*StatusRecord, error)
}

// Linker is implemented by backends that need to learn which confirmation
// number the gateway issued for a ticket.
type Linker interface {
	Link(confirmationNumber, ticketNumber string)
}
