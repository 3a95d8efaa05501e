package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>` +
	`</Types>`

const packageRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>` +
	`</Relationships>`

// Half-point sizes.
const (
	sizeTitle    = 40
	sizeSubtitle = 24
	sizeHeading  = 24
	sizeBody     = 22
	sizeFooter   = 16
)

// encodeDOCX writes d as a WordprocessingML package. Zip entries carry on as
// their modification time so output is stable.
func encodeDOCX(d *Document, on time.Time) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	parts := []struct {
		name string
		body string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", packageRelsXML},
		{"docProps/core.xml", coreXML(d.Title, on)},
		{"word/document.xml", documentXML(d)},
	}
	for _, p := range parts {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     p.name,
			Method:   zip.Deflate,
			Modified: on.UTC(),
		})
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", p.name, err)
		}
		if _, err := w.Write([]byte(p.body)); err != nil {
			return nil, fmt.Errorf("write %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func escapeXML(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func coreXML(title string, on time.Time) string {
	stamp := on.UTC().Format(time.RFC3339)
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" ` +
		`xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" ` +
		`xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
		`<dc:title>` + escapeXML(title) + `</dc:title>` +
		`<dc:creator>CNSLR Legal Platform</dc:creator>` +
		`<dcterms:created xsi:type="dcterms:W3CDTF">` + stamp + `</dcterms:created>` +
		`<dcterms:modified xsi:type="dcterms:W3CDTF">` + stamp + `</dcterms:modified>` +
		`</cp:coreProperties>`
}

type run struct {
	text      string
	bold      bool
	underline bool
	size      int
	color     string
}

func (r run) xml() string {
	var props strings.Builder
	props.WriteString(`<w:rFonts w:ascii="Times New Roman" w:hAnsi="Times New Roman"/>`)
	if r.bold {
		props.WriteString(`<w:b/>`)
	}
	if r.underline {
		props.WriteString(`<w:u w:val="single"/>`)
	}
	if r.color != "" {
		props.WriteString(`<w:color w:val="` + r.color + `"/>`)
	}
	size := r.size
	if size == 0 {
		size = sizeBody
	}
	fmt.Fprintf(&props, `<w:sz w:val="%d"/>`, size)
	return `<w:r><w:rPr>` + props.String() + `</w:rPr><w:t xml:space="preserve">` + escapeXML(r.text) + `</w:t></w:r>`
}

type paragraph struct {
	align  Align
	indent bool
	after  int // spacing after, twentieths of a point
	runs   []run
}

func (p paragraph) xml() string {
	var props strings.Builder
	switch p.align {
	case AlignCenter:
		props.WriteString(`<w:jc w:val="center"/>`)
	case AlignRight:
		props.WriteString(`<w:jc w:val="right"/>`)
	case AlignJustify:
		props.WriteString(`<w:jc w:val="both"/>`)
	}
	if p.indent {
		props.WriteString(`<w:ind w:left="720"/>`)
	}
	fmt.Fprintf(&props, `<w:spacing w:after="%d"/>`, p.after)

	var b strings.Builder
	b.WriteString(`<w:p><w:pPr>` + props.String() + `</w:pPr>`)
	for _, r := range p.runs {
		b.WriteString(r.xml())
	}
	b.WriteString(`</w:p>`)
	return b.String()
}

func docxParagraphs(b Block) []paragraph {
	switch b.Kind {
	case BlockTitle:
		return []paragraph{{align: AlignCenter, after: 120, runs: []run{{text: b.Text, bold: true, size: sizeTitle}}}}
	case BlockSubtitle:
		return []paragraph{{align: AlignCenter, after: 480, runs: []run{{text: b.Text, size: sizeSubtitle}}}}
	case BlockHeading:
		return []paragraph{{after: 120, runs: []run{{text: b.Text, bold: true, underline: true, size: sizeHeading}}}}
	case BlockParagraph:
		return []paragraph{{align: b.Align, indent: b.Indent, after: 200, runs: []run{{text: b.Text, bold: b.Bold}}}}
	case BlockField:
		return []paragraph{{after: 60, runs: []run{{text: b.Label + ": ", bold: true}, {text: b.Text, bold: b.Bold}}}}
	case BlockList:
		out := make([]paragraph, 0, len(b.Items))
		for _, item := range b.Items {
			out = append(out, paragraph{after: 60, runs: []run{{text: item}}})
		}
		return out
	case BlockRule:
		return []paragraph{{after: 200}}
	case BlockSignature:
		out := []paragraph{{after: 0, runs: []run{{text: signatureLine}}}}
		for _, caption := range b.Items {
			out = append(out, paragraph{after: 0, runs: []run{{text: caption}}})
		}
		out[len(out)-1].after = 240
		return out
	case BlockFooter:
		return []paragraph{{align: AlignCenter, after: 0, runs: []run{{text: b.Text, size: sizeFooter, color: "666666"}}}}
	}
	return nil
}

func documentXML(d *Document) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, block := range d.Blocks {
		for _, p := range docxParagraphs(block) {
			b.WriteString(p.xml())
		}
	}
	// Letter, one-inch margins.
	b.WriteString(`<w:sectPr><w:pgSz w:w="12240" w:h="15840"/>` +
		`<w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440" w:header="720" w:footer="720" w:gutter="0"/>` +
		`</w:sectPr></w:body></w:document>`)
	return b.String()
}
