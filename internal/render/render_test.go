package render

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lawguy81/cnslr-legal-platform/internal/catalog"
	"github.com/Lawguy81/cnslr-legal-platform/internal/models"
)

var generatedOn = time.Date(2024, 3, 1, 15, 4, 5, 0, time.UTC)

func fixedRenderer() *Renderer {
	return &Renderer{Now: func() time.Time { return generatedOn }}
}

func sampleAnswers() map[catalog.TaskType]models.Answers {
	return map[catalog.TaskType]models.Answers{
		catalog.ParkingTicket: {
			"ticketNumber": "ABC12345", "ticketDate": "2024-01-15", "ticketTime": "10:30",
			"fineAmount": 65.0, "vehiclePlate": "xyz999", "location": "1 Main St",
			"violationType": "expired-meter", "circumstances": "Meter was broken.",
			"defenseType": "meter-malfunction", "hasPhotos": "yes", "hasReceipts": "no",
		},
		catalog.SmallClaims: {
			"claimCategory": "unpaid-debt", "plaintiffName": "Jane Doe", "defendantName": "Acme <Corp>",
			"amountOwed": "1200", "additionalCosts": 35.5, "interestClaimed": "no",
			"incidentDate": "2024-02-01", "claimDescription": "They did not pay & ignored me.",
		},
		catalog.DemandLetter: {
			"senderName": "Jane Doe", "recipientName": "John Roe", "demandType": "payment",
			"amountDemanded": 500.0, "deadlineDays": 14.0, "specificDemand": "Pay the invoice.",
		},
		catalog.NameChange: {
			"currentFirstName": "Jane", "currentLastName": "Doe", "newFirstName": "Janet",
			"newLastName": "Smith", "reasonCategory": "marriage", "hasFelony": "no",
		},
		catalog.LandlordDispute: {
			"tenantName": "Jane Doe", "landlordName": "Big Property LLC", "disputeCategory": "repairs",
			"monthlyRent": 2400.0, "previousNotice": "yes-written", "noticeDate": "2024-02-10",
			"unitNumber": "4B",
		},
	}
}

// pieces returns every text fragment a backend must show for d.
func pieces(d *Document) []string {
	var out []string
	for _, b := range d.Blocks {
		if b.Label != "" {
			out = append(out, b.Label)
		}
		if b.Text != "" {
			out = append(out, b.Text)
		}
		out = append(out, b.Items...)
	}
	return out
}

func docxBody(t *testing.T, body []byte) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(data)
	}
	t.Fatal("word/document.xml missing")
	return ""
}

func TestRenderIsDeterministic(t *testing.T) {
	r := fixedRenderer()
	for tt, answers := range sampleAnswers() {
		for _, format := range []Format{FormatHTML, FormatPDF, FormatDOCX} {
			first, err := r.Render(string(tt), answers, format)
			require.NoError(t, err, "%s/%s", tt, format)
			second, err := r.Render(string(tt), answers, format)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(first.Body, second.Body), "%s/%s output differs between runs", tt, format)
			assert.Equal(t, format.ContentType(), first.ContentType)
		}
	}
}

func TestDateChangesOutput(t *testing.T) {
	answers := sampleAnswers()[catalog.DemandLetter]
	a, err := fixedRenderer().Render("demand-letter", answers, FormatPDF)
	require.NoError(t, err)

	later := &Renderer{Now: func() time.Time { return generatedOn.AddDate(0, 0, 1) }}
	b, err := later.Render("demand-letter", answers, FormatPDF)
	require.NoError(t, err)
	assert.False(t, bytes.Equal(a.Body, b.Body))
}

func TestBackendsCarrySameContent(t *testing.T) {
	r := fixedRenderer()
	for tt, answers := range sampleAnswers() {
		doc, err := r.Document(string(tt), answers)
		require.NoError(t, err)

		html, err := r.Render(string(tt), answers, FormatHTML)
		require.NoError(t, err)
		docx, err := r.Render(string(tt), answers, FormatDOCX)
		require.NoError(t, err)
		xmlBody := docxBody(t, docx.Body)

		for _, p := range pieces(doc) {
			assert.Contains(t, string(html.Body), templ.EscapeString(p), "%s html", tt)
			assert.Contains(t, xmlBody, escapeXML(p), "%s docx", tt)
		}
	}
}

func TestPDFOutput(t *testing.T) {
	out, err := fixedRenderer().Render("parking-ticket", sampleAnswers()[catalog.ParkingTicket], FormatPDF)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out.Body, []byte("%PDF-")))
	assert.Equal(t, "parking-appeal-abc12345.pdf", out.Filename)
}

func TestNameChangeKeepsStructureWithSparseAnswers(t *testing.T) {
	answers := models.Answers{"currentFirstName": "Jane", "newFirstName": "Alex"}
	out, err := fixedRenderer().Render("name-change", answers, FormatHTML)
	require.NoError(t, err)
	body := string(out.Body)

	for _, want := range []string{
		"Jane [CURRENT LAST NAME]",
		"Alex [NEW LAST NAME]",
		"[DATE OF BIRTH]",
		"[BIRTH PLACE]",
		"[CURRENT ADDRESS]",
		"[CURRENT CITY], [CURRENT STATE] [CURRENT ZIP]",
		"[YEARS AT ADDRESS]",
		"[REASON CATEGORY]",
		"[REASON EXPLANATION]",
		"VERIFICATION",
		"WHEREFORE",
	} {
		assert.Contains(t, body, want)
	}
	assert.Equal(t, "name-change-petition-jane.html", out.Filename)
}

func TestParkingTicketPlaceholders(t *testing.T) {
	doc, err := fixedRenderer().Document("parking-ticket", nil)
	require.NoError(t, err)
	text := strings.Join(doc.PlainText(), "\n")
	assert.Contains(t, text, "Citation Number: [TICKET NUMBER]")
	assert.Contains(t, text, "Fine Amount: [FINE AMOUNT]")
	assert.Contains(t, text, "REASON FOR APPEAL")
	assert.Contains(t, text, "[DEFENSE TYPE]")
}

func TestDemandLetterDeadline(t *testing.T) {
	doc, err := fixedRenderer().Document("demand-letter", sampleAnswers()[catalog.DemandLetter])
	require.NoError(t, err)
	text := strings.Join(doc.PlainText(), "\n")
	assert.Contains(t, text, "within 14 days")
	assert.Contains(t, text, "no later than March 15, 2024")
	assert.Contains(t, text, "Re: FORMAL DEMAND FOR PAYMENT")
	assert.Contains(t, text, "Amount Demanded: $500.00")
}

func TestSmallClaimsTotal(t *testing.T) {
	doc, err := fixedRenderer().Document("small-claims", sampleAnswers()[catalog.SmallClaims])
	require.NoError(t, err)
	text := strings.Join(doc.PlainText(), "\n")
	assert.Contains(t, text, "TOTAL CLAIM: $1,235.50")
	assert.Contains(t, text, "Date of Incident: February 1, 2024")
}

func TestGenericFallback(t *testing.T) {
	answers := models.Answers{"zeta": "last", "alphaField": "first", "agreed": true}

	doc, err := fixedRenderer().Document("divorce", answers)
	require.NoError(t, err)
	lines := doc.PlainText()
	assert.Equal(t, "LEGAL DOCUMENT", lines[0])
	assert.Equal(t, "Document Type: divorce", lines[1])

	text := strings.Join(lines, "\n")
	assert.Less(t, strings.Index(text, "Agreed: Yes"), strings.Index(text, "Alpha Field: first"))
	assert.Less(t, strings.Index(text, "Alpha Field: first"), strings.Index(text, "Zeta: last"))

	out, err := fixedRenderer().Render("divorce", answers, FormatDOCX)
	require.NoError(t, err)
	assert.Equal(t, "divorce-draft.docx", out.Filename)
}

func TestStrictRejectsUnknownTask(t *testing.T) {
	r := fixedRenderer()
	r.Strict = true
	_, err := r.Render("divorce", models.Answers{}, FormatHTML)
	assert.True(t, errors.Is(err, ErrUnknownTask))
}

func TestUnknownFormatRejected(t *testing.T) {
	_, err := ParseFormat("rtf")
	assert.True(t, errors.Is(err, ErrUnknownFormat))

	f, err := ParseFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)

	_, err = fixedRenderer().Render("parking-ticket", nil, Format("rtf"))
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestTemplateErrorOnMalformedNumber(t *testing.T) {
	out, err := fixedRenderer().Render("small-claims", models.Answers{"amountOwed": "lots"}, FormatPDF)
	assert.Nil(t, out)

	var te *TemplateError
	require.True(t, errors.As(err, &te), "got %v", err)
	assert.Equal(t, "small-claims", te.TaskID)
	assert.Equal(t, "amountOwed", te.Field)
}

func TestTemplateErrorOnMalformedDate(t *testing.T) {
	_, err := fixedRenderer().Document("landlord-dispute", models.Answers{"leaseStartDate": "last spring"})
	var te *TemplateError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "leaseStartDate", te.Field)
}

func TestFilename(t *testing.T) {
	tests := []struct {
		task    string
		answers models.Answers
		format  Format
		want    string
	}{
		{"parking-ticket", models.Answers{"ticketNumber": "ABC 123/45"}, FormatPDF, "parking-appeal-abc-12345.pdf"},
		{"parking-ticket", models.Answers{}, FormatHTML, "parking-appeal-draft.html"},
		{"small-claims", models.Answers{"plaintiffName": "  Jane   Doe "}, FormatDOCX, "small-claims-jane-doe.docx"},
		{"demand-letter", models.Answers{"recipientName": "José O'Neil"}, FormatPDF, "demand-letter-jos-oneil.pdf"},
		{"name-change", models.Answers{"currentFirstName": "Jane", "currentLastName": "Doe"}, FormatPDF, "name-change-petition-jane-doe.pdf"},
		{"landlord-dispute", models.Answers{"landlordName": "Big Property LLC"}, FormatPDF, "landlord-letter-big-property-llc.pdf"},
		{"Custom Task!", models.Answers{}, FormatPDF, "custom-task-draft.pdf"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Filename(tc.task, tc.answers, tc.format))
	}
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$0.00", formatMoney(0))
	assert.Equal(t, "$65.00", formatMoney(65))
	assert.Equal(t, "$1,234.50", formatMoney(1234.5))
	assert.Equal(t, "$1,000,000.00", formatMoney(1e6))
}

func TestHTMLEscapesAnswers(t *testing.T) {
	out, err := fixedRenderer().Render("small-claims", sampleAnswers()[catalog.SmallClaims], FormatHTML)
	require.NoError(t, err)
	assert.NotContains(t, string(out.Body), "Acme <Corp>")
	assert.Contains(t, string(out.Body), "Acme &lt;Corp&gt;")
}

func TestHTMLBlockMarkup(t *testing.T) {
	d := newDocument("Petition <Draft>")
	d.title("PETITION")
	d.add(Block{Kind: BlockField, Label: "Name", Text: "Jane", Align: AlignCenter, Indent: true})
	d.add(Block{Kind: BlockList, Items: []string{"first", "second"}})
	d.add(Block{Kind: BlockSignature, Items: []string{"Petitioner"}})
	d.add(Block{Kind: BlockFooter, Text: "Generated"})

	body, err := encodeHTML(d)
	require.NoError(t, err)
	html := string(body)

	assert.True(t, strings.HasPrefix(html, "<!doctype html>"), "got %.40q", html)
	assert.Contains(t, html, "<title>Petition &lt;Draft&gt;</title>")
	assert.Contains(t, html, "<h1>PETITION</h1>")
	assert.Contains(t, html, `<p class="center indent"><span class="label">Name:</span> Jane</p>`)
	assert.Contains(t, html, "<ol><li>first</li><li>second</li></ol>")
	assert.Contains(t, html, `<div class="signature"><p>`+signatureLine+`</p><p>Petitioner</p></div>`)
	assert.Contains(t, html, "<footer>Generated</footer>")
}

func TestBlockClass(t *testing.T) {
	assert.Equal(t, "", blockClass(Block{}))
	assert.Equal(t, "justify indent bold", blockClass(Block{Align: AlignJustify, Indent: true, Bold: true}))
}
