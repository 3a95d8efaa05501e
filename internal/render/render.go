// Package render turns wizard answers into legal documents.
//
// Every task type has one template producing a backend-neutral Document.
// The HTML, PDF and DOCX backends lay that document out; they never decide
// content. Rendering is deterministic for a fixed date.
package render

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Lawguy81/cnslr-legal-platform/internal/catalog"
	"github.com/Lawguy81/cnslr-legal-platform/internal/models"
)

var (
	ErrUnknownFormat = errors.New("unknown document format")
	ErrUnknownTask   = errors.New("unknown task type")
)

// TemplateError reports answers a template could not use. No output is
// produced when it is returned.
type TemplateError struct {
	TaskID string
	Field  string
	Err    error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("render %s: field %s: %v", e.TaskID, e.Field, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// Format is a document encoding.
type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// ParseFormat validates a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
	return f, nil
}

func (f Format) Valid() bool {
	switch f {
	case FormatHTML, FormatPDF, FormatDOCX:
		return true
	}
	return false
}

// ContentType is the MIME type of the encoding.
func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/octet-stream"
}

// Output is a rendered document.
type Output struct {
	Body        []byte
	Filename    string
	ContentType string
	Format      Format
}

// Renderer selects templates and encodes documents.
type Renderer struct {
	// Now supplies the document date. Defaults to time.Now.
	Now func() time.Time
	// Strict rejects task ids without a dedicated template instead of
	// falling back to the generic field listing.
	Strict bool
}

// New returns a lenient renderer using the wall clock.
func New() *Renderer {
	return &Renderer{Now: time.Now}
}

func (r *Renderer) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// Document builds the semantic document for a task.
func (r *Renderer) Document(taskID string, answers models.Answers) (*Document, error) {
	return r.build(taskID, answers, r.now())
}

func (r *Renderer) build(taskID string, answers models.Answers, on time.Time) (*Document, error) {
	if answers == nil {
		answers = models.Answers{}
	}

	tt, known := catalog.ParseTaskType(taskID)
	if !known {
		if r.Strict {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTask, taskID)
		}
		return genericDocument(taskID, answers, on), nil
	}

	f := &filler{answers: answers}
	doc := templateFor(tt)(f, on)
	if f.err != nil {
		var te *TemplateError
		if errors.As(f.err, &te) {
			te.TaskID = taskID
		}
		return nil, f.err
	}
	return doc, nil
}

// Render produces the document for taskID in the requested format.
func (r *Renderer) Render(taskID string, answers models.Answers, format Format) (*Output, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	on := r.now()
	doc, err := r.build(taskID, answers, on)
	if err != nil {
		return nil, err
	}

	var body []byte
	switch format {
	case FormatHTML:
		body, err = encodeHTML(doc)
	case FormatPDF:
		body, err = encodePDF(doc, on)
	case FormatDOCX:
		body, err = encodeDOCX(doc, on)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}

	return &Output{
		Body:        body,
		Filename:    Filename(taskID, answers, format),
		ContentType: format.ContentType(),
		Format:      format,
	}, nil
}

type filenameRule struct {
	prefix string
	fields []string // joined with spaces before sanitizing
}

var filenameRules = map[catalog.TaskType]filenameRule{
	catalog.ParkingTicket:   {"parking-appeal", []string{"ticketNumber"}},
	catalog.SmallClaims:     {"small-claims", []string{"plaintiffName"}},
	catalog.DemandLetter:    {"demand-letter", []string{"recipientName"}},
	catalog.NameChange:      {"name-change-petition", []string{"currentFirstName", "currentLastName"}},
	catalog.LandlordDispute: {"landlord-letter", []string{"landlordName"}},
}

var (
	whitespace = regexp.MustCompile(`\s+`)
	unsafeChar = regexp.MustCompile(`[^a-z0-9-]`)
	hyphens    = regexp.MustCompile(`-{2,}`)
)

// sanitize lowercases s, turns whitespace runs into hyphens and drops every
// other character outside [a-z0-9-].
func sanitize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = whitespace.ReplaceAllString(s, "-")
	s = unsafeChar.ReplaceAllString(s, "")
	s = hyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Filename derives the download name from the task and its salient answer.
func Filename(taskID string, answers models.Answers, format Format) string {
	prefix := sanitize(taskID)
	if prefix == "" {
		prefix = "document"
	}
	var parts []string
	if tt, ok := catalog.ParseTaskType(taskID); ok {
		rule := filenameRules[tt]
		prefix = rule.prefix
		for _, name := range rule.fields {
			if v := answers.String(name); v != "" {
				parts = append(parts, v)
			}
		}
	}

	token := sanitize(strings.Join(parts, " "))
	if token == "" {
		token = "draft"
	}
	return prefix + "-" + token + "." + string(format)
}
