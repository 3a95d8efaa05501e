package render

import (
	"bytes"
	"context"
	"strings"
)

//go:generate templ generate -f document.templ

// blockClass lists the CSS classes for a paragraph or field block.
func blockClass(b Block) string {
	var classes []string
	switch b.Align {
	case AlignCenter:
		classes = append(classes, "center")
	case AlignRight:
		classes = append(classes, "right")
	case AlignJustify:
		classes = append(classes, "justify")
	}
	if b.Indent {
		classes = append(classes, "indent")
	}
	if b.Bold {
		classes = append(classes, "bold")
	}
	return strings.Join(classes, " ")
}

func encodeHTML(d *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := documentPage(d).Render(context.Background(), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
