package render

import (
	"bytes"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	margin     = 72.0 // one inch in points
	lineHeight = 15.0
)

// encodePDF lays d out on Letter pages. Document dates are pinned to on and
// the catalog is sorted so identical input gives identical bytes.
func encodePDF(d *Document, on time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetCreationDate(on)
	pdf.SetModificationDate(on)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(d.Title, true)
	pdf.SetCreator("CNSLR Legal Platform", true)
	pdf.AliasNbPages("")

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-margin / 2)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(102, 102, 102)
		pdf.CellFormat(0, 10, "Page "+strconv.Itoa(pdf.PageNo())+" of {nb}", "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})

	pdf.AddPage()
	for _, b := range d.Blocks {
		writePDFBlock(pdf, tr, b)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func pdfAlign(a Align) string {
	switch a {
	case AlignCenter:
		return "C"
	case AlignRight:
		return "R"
	case AlignJustify:
		return "J"
	}
	return "L"
}

func writePDFBlock(pdf *fpdf.Fpdf, tr func(string) string, b Block) {
	style := ""
	if b.Bold {
		style = "B"
	}

	switch b.Kind {
	case BlockTitle:
		pdf.SetFont("Helvetica", "B", 20)
		pdf.MultiCell(0, 24, tr(b.Text), "", "C", false)
		pdf.Ln(4)
	case BlockSubtitle:
		pdf.SetFont("Helvetica", "", 12)
		pdf.MultiCell(0, lineHeight, tr(b.Text), "", "C", false)
		pdf.Ln(lineHeight * 1.5)
	case BlockHeading:
		pdf.Ln(lineHeight / 2)
		pdf.SetFont("Helvetica", "BU", 11)
		pdf.MultiCell(0, lineHeight, tr(b.Text), "", "L", false)
		pdf.Ln(3)
	case BlockParagraph:
		pdf.SetFont("Times", style, 11)
		if b.Indent {
			left, _, _, _ := pdf.GetMargins()
			pdf.SetLeftMargin(left + 36)
			pdf.SetX(left + 36)
			pdf.MultiCell(0, lineHeight, tr(b.Text), "", pdfAlign(b.Align), false)
			pdf.SetLeftMargin(left)
		} else {
			pdf.MultiCell(0, lineHeight, tr(b.Text), "", pdfAlign(b.Align), false)
		}
		pdf.Ln(lineHeight / 2)
	case BlockField:
		pdf.SetFont("Times", "B", 11)
		pdf.Write(lineHeight, tr(b.Label+": "))
		pdf.SetFont("Times", style, 11)
		pdf.Write(lineHeight, tr(b.Text))
		pdf.Ln(lineHeight)
	case BlockList:
		pdf.SetFont("Times", "", 11)
		for _, item := range b.Items {
			pdf.MultiCell(0, lineHeight, tr(item), "", "L", false)
		}
		pdf.Ln(lineHeight / 2)
	case BlockRule:
		left, _, right, _ := pdf.GetMargins()
		w, _ := pdf.GetPageSize()
		y := pdf.GetY() + 4
		pdf.Line(left, y, w-right, y)
		pdf.Ln(10)
	case BlockSignature:
		pdf.Ln(lineHeight * 2)
		pdf.SetFont("Times", "", 11)
		pdf.MultiCell(0, lineHeight, signatureLine, "", "L", false)
		for _, caption := range b.Items {
			pdf.MultiCell(0, lineHeight, tr(caption), "", "L", false)
		}
		pdf.Ln(lineHeight / 2)
	case BlockFooter:
		pdf.Ln(lineHeight)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(102, 102, 102)
		pdf.MultiCell(0, 10, tr(b.Text), "", "C", false)
		pdf.SetTextColor(0, 0, 0)
	}
}
