package render

// BlockKind is the semantic role of a document block. Backends map each kind
// onto their own layout primitives.
type BlockKind int

const (
	BlockTitle BlockKind = iota
	BlockSubtitle
	BlockHeading
	BlockParagraph
	BlockField
	BlockList
	BlockRule
	BlockSignature
	BlockFooter
)

// Align is the horizontal alignment of a block.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
	AlignJustify
)

// Block is one element of a Document.
type Block struct {
	Kind   BlockKind
	Text   string
	Label  string   // BlockField only
	Items  []string // BlockList items, BlockSignature caption lines
	Align  Align
	Bold   bool
	Indent bool
}

// Document is the backend-neutral content of a rendered legal document.
type Document struct {
	Title  string
	Blocks []Block
}

func newDocument(title string) *Document {
	return &Document{Title: title}
}

func (d *Document) add(b Block) *Document {
	d.Blocks = append(d.Blocks, b)
	return d
}

func (d *Document) title(text string) *Document {
	return d.add(Block{Kind: BlockTitle, Text: text, Align: AlignCenter, Bold: true})
}

func (d *Document) subtitle(text string) *Document {
	return d.add(Block{Kind: BlockSubtitle, Text: text, Align: AlignCenter})
}

func (d *Document) heading(text string) *Document {
	return d.add(Block{Kind: BlockHeading, Text: text, Bold: true})
}

func (d *Document) para(text string) *Document {
	return d.add(Block{Kind: BlockParagraph, Text: text})
}

func (d *Document) justified(text string) *Document {
	return d.add(Block{Kind: BlockParagraph, Text: text, Align: AlignJustify})
}

func (d *Document) indented(text string) *Document {
	return d.add(Block{Kind: BlockParagraph, Text: text, Align: AlignJustify, Indent: true})
}

func (d *Document) aligned(text string, a Align) *Document {
	return d.add(Block{Kind: BlockParagraph, Text: text, Align: a})
}

func (d *Document) bold(text string) *Document {
	return d.add(Block{Kind: BlockParagraph, Text: text, Bold: true})
}

func (d *Document) field(label, value string) *Document {
	return d.add(Block{Kind: BlockField, Label: label, Text: value})
}

func (d *Document) list(items ...string) *Document {
	return d.add(Block{Kind: BlockList, Items: items})
}

func (d *Document) rule() *Document {
	return d.add(Block{Kind: BlockRule})
}

func (d *Document) signature(captions ...string) *Document {
	return d.add(Block{Kind: BlockSignature, Items: captions})
}

func (d *Document) footer(text string) *Document {
	return d.add(Block{Kind: BlockFooter, Text: text, Align: AlignCenter})
}

// PlainText flattens the document into lines, one per block or list item.
// It is the content every backend must reproduce.
func (d *Document) PlainText() []string {
	var lines []string
	for _, b := range d.Blocks {
		switch b.Kind {
		case BlockField:
			lines = append(lines, b.Label+": "+b.Text)
		case BlockList:
			lines = append(lines, b.Items...)
		case BlockSignature:
			lines = append(lines, signatureLine)
			lines = append(lines, b.Items...)
		case BlockRule:
		default:
			lines = append(lines, b.Text)
		}
	}
	return lines
}

const signatureLine = "_________________________________"
