package pdf

import (
	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))

// markdownWriter walks a goldmark AST and writes it into the current fpdf page
type markdownWriter struct {
	doc       *document
	source    []byte
	size      float64
	bold      bool
	italic    bool
	listLevel int
}

// writeMarkdown renders narrative markdown at the current position
func (d *document) writeMarkdown(src string) error {
	source := []byte(src)
	root := markdown.Parser().Parse(text.NewReader(source))

	w := &markdownWriter{doc: d, source: source, size: bodySize}
	if err := ast.Walk(root, w.walk); err != nil {
		return err
	}
	d.setFont("", bodySize)
	return nil
}

func (w *markdownWriter) pdf() *fpdf.Fpdf {
	return w.doc.pdf
}

func (w *markdownWriter) updateFont() {
	style := ""
	if w.bold {
		style += "B"
	}
	if w.italic {
		style += "I"
	}
	w.doc.setFont(style, w.size)
}

func (w *markdownWriter) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n.Kind() {
	case ast.KindHeading:
		return w.heading(n.(*ast.Heading), entering)
	case ast.KindParagraph:
		if !entering {
			w.pdf().Ln(7)
		}
	case ast.KindText:
		if entering {
			t := n.(*ast.Text)
			w.doc.write(5, string(t.Segment.Value(w.source)))
			if t.SoftLineBreak() {
				w.doc.write(5, " ")
			}
			if t.HardLineBreak() {
				w.pdf().Ln(5)
			}
		}
	case ast.KindString:
		if entering {
			w.doc.write(5, string(n.(*ast.String).Value))
		}
	case ast.KindEmphasis:
		if n.(*ast.Emphasis).Level == 2 {
			w.bold = entering
		} else {
			w.italic = entering
		}
		w.updateFont()
	case ast.KindCodeSpan:
		if entering {
			w.doc.write(5, string(n.Text(w.source)))
		}
		return ast.WalkSkipChildren, nil
	case ast.KindFencedCodeBlock, ast.KindCodeBlock:
		if entering {
			w.codeBlock(n.Lines())
		}
		return ast.WalkSkipChildren, nil
	case ast.KindList:
		if entering {
			w.listLevel++
		} else {
			w.listLevel--
			if w.listLevel == 0 {
				w.pdf().Ln(2)
			}
		}
	case ast.KindListItem:
		if entering {
			w.pdf().Ln(5)
			w.pdf().SetX(pageMargin + 5 + float64(w.listLevel)*5)
			w.doc.write(5, "- ")
		}
	case ast.KindThematicBreak:
		if entering {
			w.pdf().Ln(2)
			w.pdf().Line(pageMargin, w.pdf().GetY(), pageMargin+contentWidth, w.pdf().GetY())
			w.pdf().Ln(2)
		}
	case extast.KindTable:
		if entering {
			w.doc.table(tableRows(n.(*extast.Table), w.source), nil)
		}
		return ast.WalkSkipChildren, nil
	}
	return ast.WalkContinue, nil
}

func (w *markdownWriter) heading(n *ast.Heading, entering bool) (ast.WalkStatus, error) {
	if entering {
		w.pdf().Ln(6)
		size := 10.0
		switch n.Level {
		case 1:
			size = 14
		case 2:
			size = 12
		case 3:
			size = 11
		}
		w.doc.setFont("B", size)
	} else {
		w.pdf().Ln(6)
		w.updateFont()
	}
	return ast.WalkContinue, nil
}

func (w *markdownWriter) codeBlock(lines *text.Segments) {
	w.pdf().Ln(2)
	w.pdf().SetFillColor(245, 245, 245)
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		w.pdf().MultiCell(0, 5, w.doc.tr(string(line.Value(w.source))), "", "L", true)
	}
	w.pdf().SetFillColor(255, 255, 255)
	w.pdf().Ln(2)
}

// tableRows flattens a goldmark table (header first) into cell text
func tableRows(n *extast.Table, source []byte) [][]string {
	var rows [][]string
	var collect func(node ast.Node)
	collect = func(node ast.Node) {
		for child := node.FirstChild(); child != nil; child = child.NextSibling() {
			switch child.(type) {
			case *extast.TableHeader, *extast.TableRow:
				var row []string
				for cell := child.FirstChild(); cell != nil; cell = cell.NextSibling() {
					row = append(row, string(cell.Text(source)))
				}
				rows = append(rows, row)
			}
		}
	}
	collect(n)
	return rows
}
