package pdf

import (
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/ternarybob/narro/internal/common"
)

const (
	pageMargin   = 15.0
	pageHeight   = 297.0
	contentWidth = 210.0 - 2*pageMargin
	bodySize     = 10.0
	coreFamily   = "Helvetica"
	utf8Family   = "narro"
)

// document wraps an fpdf page stream with the report's font and text handling.
// With a UTF-8 font text is written as is; with the core font it is folded to Latin-1.
type document struct {
	pdf    *fpdf.Fpdf
	family string
	tr     func(string) string
}

func newDocument(fontPath string) (*document, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)

	d := &document{pdf: pdf, family: coreFamily}

	if fontPath != "" {
		for _, style := range []string{"", "B", "I", "BI"} {
			pdf.AddUTF8Font(utf8Family, style, fontPath)
		}
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("failed to load font %s: %w", fontPath, err)
		}
		d.family = utf8Family
		d.tr = func(s string) string { return s }
	} else {
		latin1 := pdf.UnicodeTranslatorFromDescriptor("")
		d.tr = func(s string) string { return latin1(common.FoldDiacritics(s)) }
	}

	pdf.AddPage()
	d.setFont("", bodySize)
	return d, nil
}

func (d *document) setFont(style string, size float64) {
	d.pdf.SetFont(d.family, style, size)
}

func (d *document) write(h float64, s string) {
	d.pdf.Write(h, d.tr(s))
}

func (d *document) title(s string) {
	d.setFont("B", 18)
	d.pdf.CellFormat(0, 12, d.tr(s), "", 1, "C", false, 0, "")
	d.setFont("", bodySize)
}

func (d *document) heading(s string, level int) {
	size := 14.0
	if level > 1 {
		size = 12
	}
	d.pdf.Ln(4)
	d.setFont("B", size)
	d.pdf.MultiCell(0, 7, d.tr(s), "", "L", false)
	d.setFont("", bodySize)
	d.pdf.Ln(1)
}

func (d *document) paragraph(s string) {
	d.pdf.MultiCell(0, 5, d.tr(s), "", "L", false)
	d.pdf.Ln(1)
}

func (d *document) bullet(s string) {
	d.pdf.SetX(pageMargin + 4)
	d.pdf.MultiCell(contentWidth-4, 5, d.tr("- "+s), "", "L", false)
}

// image places a PNG at full content width, breaking the page first if it would not fit
func (d *document) image(path string, aspect float64, caption string) {
	h := contentWidth * aspect
	if d.pdf.GetY()+h+10 > pageHeight-pageMargin {
		d.pdf.AddPage()
	}
	d.pdf.ImageOptions(path, pageMargin, d.pdf.GetY(), contentWidth, h, true, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	if caption != "" {
		d.setFont("I", 9)
		d.pdf.CellFormat(0, 6, d.tr(caption), "", 1, "C", false, 0, "")
		d.setFont("", bodySize)
	}
	d.pdf.Ln(3)
}

// table renders rows (header first) with word-wrapped cells.
// Column widths are measured from the content unless widths is given.
func (d *document) table(rows [][]string, widths []float64) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}

	const (
		fontSize   = 8.0
		lineHeight = 4.0
		maxLines   = 8
	)

	numCols := len(rows[0])
	translated := make([][]string, len(rows))
	for i, row := range rows {
		translated[i] = make([]string, len(row))
		for j, cell := range row {
			translated[i][j] = d.tr(cell)
		}
	}
	if len(widths) != numCols {
		widths = d.columnWidths(translated, numCols, fontSize)
	}

	d.pdf.Ln(2)
	startX := pageMargin

	for i, row := range translated {
		if i == 0 {
			d.setFont("B", fontSize)
		} else {
			d.setFont("", fontSize)
		}

		lines := 1
		for j := 0; j < numCols && j < len(row); j++ {
			lines = max(lines, len(d.wrap(row[j], widths[j]-2)))
		}
		lines = min(lines, maxLines)

		rowHeight := float64(lines)*lineHeight + 2
		startY := d.pdf.GetY()
		if startY+rowHeight > pageHeight-pageMargin {
			d.pdf.AddPage()
			startY = d.pdf.GetY()
		}

		x := startX
		for j := 0; j < numCols; j++ {
			if i == 0 {
				d.pdf.SetFillColor(230, 230, 230)
				d.pdf.Rect(x, startY, widths[j], rowHeight, "FD")
			} else {
				d.pdf.Rect(x, startY, widths[j], rowHeight, "D")
			}

			if j < len(row) {
				wrapped := d.wrap(row[j], widths[j]-2)
				if len(wrapped) > lines {
					wrapped = wrapped[:lines]
					wrapped[lines-1] = d.ellipsis(wrapped[lines-1], widths[j]-2)
				}
				for k, line := range wrapped {
					d.pdf.SetXY(x+1, startY+1+float64(k)*lineHeight)
					d.pdf.CellFormat(widths[j]-2, lineHeight, line, "", 0, "L", false, 0, "")
				}
			}
			x += widths[j]
		}

		d.pdf.SetXY(startX, startY+rowHeight)
	}

	d.pdf.SetFillColor(255, 255, 255)
	d.pdf.Ln(3)
	d.setFont("", bodySize)
}

// columnWidths sizes columns from their widest cell, then scales to the content width
func (d *document) columnWidths(rows [][]string, numCols int, fontSize float64) []float64 {
	widths := make([]float64, numCols)

	for i, row := range rows {
		style := ""
		if i == 0 {
			style = "B"
		}
		d.setFont(style, fontSize)
		for j := 0; j < numCols && j < len(row); j++ {
			widths[j] = max(widths[j], d.pdf.GetStringWidth(row[j])+4)
		}
	}

	const minWidth = 12.0
	maxWidth := contentWidth / 2
	total := 0.0
	for j := range widths {
		widths[j] = min(max(widths[j], minWidth), maxWidth)
		total += widths[j]
	}

	scale := contentWidth / total
	if total < contentWidth {
		scale = min(scale, 1.5)
	}
	for j := range widths {
		widths[j] *= scale
	}
	return widths
}

// wrap splits s into lines no wider than width at the current font
func (d *document) wrap(s string, width float64) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if d.pdf.GetStringWidth(current+" "+word) <= width {
			current += " " + word
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}

func (d *document) ellipsis(line string, width float64) string {
	for d.pdf.GetStringWidth(line+"...") > width && len(line) > 3 {
		line = line[:len(line)-1]
	}
	return line + "..."
}
