package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	marginLeft   = 14.0
	marginTop    = 15.0
	marginBottom = 15.0
	cellPadding  = 1.5
	ptToMM       = 0.352778

	cjkFamily      = "NotoSansTC"
	fallbackFamily = "Helvetica"
)

var errFont = errors.New("font could not be registered")

// renderer is a vertical cursor over an fpdf document. Automatic page breaks are off; the
// renderer decides where pages end.
type renderer struct {
	pdf     *fpdf.Fpdf
	family  string
	unicode bool
	y       float64
}

// render lays blocks out on A4 pages. A nil font renders with the core Helvetica font.
func render(blocks []Block, font []byte) ([]byte, int, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginLeft, marginTop, marginLeft)
	pdf.SetAutoPageBreak(false, marginBottom)

	r := &renderer{pdf: pdf, family: fallbackFamily}
	if font != nil {
		if err := registerFont(pdf, font); err != nil {
			return nil, 0, err
		}
		r.family = cjkFamily
		r.unicode = true
	}

	r.newPage()
	for _, block := range blocks {
		r.draw(block)
	}
	if err := pdf.Error(); err != nil {
		return nil, 0, fmt.Errorf("render report: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, 0, fmt.Errorf("write report: %w", err)
	}
	return buf.Bytes(), pdf.PageCount(), nil
}

func registerFont(pdf *fpdf.Fpdf, font []byte) (err error) {
	if !isTrueType(font) {
		return fmt.Errorf("%w: not a TrueType file", errFont)
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", errFont, rec)
		}
	}()
	pdf.AddUTF8FontFromBytes(cjkFamily, "", font)
	if pdf.Err() {
		return fmt.Errorf("%w: %v", errFont, pdf.Error())
	}
	return nil
}

func isTrueType(font []byte) bool {
	if len(font) < 12 {
		return false
	}
	magic := string(font[:4])
	return magic == "\x00\x01\x00\x00" || magic == "true"
}

func (r *renderer) draw(block Block) {
	switch b := block.(type) {
	case Heading:
		r.heading(b)
	case Text:
		r.text(b)
	case Signatures:
		r.signatures(b)
	case Table:
		r.table(b)
	case Spacer:
		r.y += b.Height
	case PageBreakHint:
		if r.y > b.Threshold {
			r.newPage()
			r.y = b.Top
			return
		}
		r.y += b.Gap
	}
}

func (r *renderer) newPage() {
	r.pdf.AddPage()
	r.y = marginTop
}

// ensure starts a new page when h more millimetres would cross the bottom margin.
func (r *renderer) ensure(h float64) bool {
	if r.y+h <= pageHeight-marginBottom {
		return false
	}
	r.newPage()
	return true
}

func (r *renderer) setFont(size float64, bold bool) {
	style := ""
	if bold && !r.unicode {
		style = "B"
	}
	r.pdf.SetFont(r.family, style, size)
}

func lineHeight(size float64) float64 {
	return size * ptToMM * 1.3
}

func (r *renderer) heading(h Heading) {
	r.setFont(h.Size, true)
	lh := lineHeight(h.Size)
	align := "L"
	if h.Centered {
		align = "C"
	}
	width := pageWidth - 2*marginLeft
	for _, line := range r.split(h.Text, width) {
		r.ensure(lh)
		r.pdf.SetXY(marginLeft, r.y)
		r.pdf.CellFormat(width, lh, line, "", 0, align, false, 0, "")
		r.y += lh
	}
	r.y += 1
}

func (r *renderer) text(t Text) {
	size := t.Size
	if size == 0 {
		size = bodySize
	}
	r.setFont(size, false)
	lh := lineHeight(size) + 1.5
	width := pageWidth - marginLeft - t.X
	for _, line := range r.split(t.Content, width) {
		r.ensure(lh)
		r.pdf.SetXY(t.X, r.y)
		r.pdf.CellFormat(width, lh, line, "", 0, "L", false, 0, "")
		r.y += lh
	}
}

func (r *renderer) signatures(s Signatures) {
	r.setFont(bodySize, false)
	lh := lineHeight(bodySize) + 1.5
	r.ensure(lh)
	r.pdf.SetXY(marginLeft, r.y)
	r.pdf.CellFormat(90, lh, r.clean(s.Left), "", 0, "L", false, 0, "")
	r.pdf.SetXY(110, r.y)
	r.pdf.CellFormat(pageWidth-marginLeft-110, lh, r.clean(s.Right), "", 0, "L", false, 0, "")
	r.y += lh
}

func (r *renderer) table(t Table) {
	size := t.FontSize
	if size == 0 {
		size = bodySize
	}
	var head []Cell
	for _, title := range t.Head {
		head = append(head, Cell{Text: title, Bold: true, Fill: true})
	}

	drawHead := func() {
		if head != nil {
			r.row(head, t.Widths, size, "C", r.rowHeight(head, t.Widths, size))
		}
	}

	if head != nil {
		r.ensure(r.rowHeight(head, t.Widths, size))
	}
	drawHead()
	for _, cells := range t.Rows {
		h := r.rowHeight(cells, t.Widths, size)
		if r.ensure(h) {
			drawHead()
		}
		r.row(cells, t.Widths, size, "L", h)
	}
}

// span returns the width of a cell starting at column col.
func span(widths []float64, col, n int) float64 {
	if n < 1 {
		n = 1
	}
	w := 0.0
	for i := col; i < col+n && i < len(widths); i++ {
		w += widths[i]
	}
	return w
}

func cellSize(c Cell, tableSize float64) float64 {
	if c.Size > 0 {
		return c.Size
	}
	return tableSize
}

func (r *renderer) rowHeight(cells []Cell, widths []float64, size float64) float64 {
	maxH := 0.0
	col := 0
	for _, c := range cells {
		w := span(widths, col, c.Span)
		col += max(c.Span, 1)
		cs := cellSize(c, size)
		r.setFont(cs, c.Bold)
		h := float64(len(r.split(c.Text, w-2*cellPadding)))*lineHeight(cs) + 2*cellPadding
		if h > maxH {
			maxH = h
		}
	}
	return maxH
}

func (r *renderer) row(cells []Cell, widths []float64, size float64, align string, h float64) {
	r.pdf.SetDrawColor(0, 0, 0)
	r.pdf.SetLineWidth(0.1)
	x := marginLeft
	col := 0
	for _, c := range cells {
		w := span(widths, col, c.Span)
		col += max(c.Span, 1)

		style := "D"
		if c.Fill {
			r.pdf.SetFillColor(240, 240, 240)
			style = "FD"
		}
		r.pdf.Rect(x, r.y, w, h, style)

		cs := cellSize(c, size)
		r.setFont(cs, c.Bold)
		lh := lineHeight(cs)
		for i, line := range r.split(c.Text, w-2*cellPadding) {
			r.pdf.SetXY(x+cellPadding, r.y+cellPadding+float64(i)*lh)
			r.pdf.CellFormat(w-2*cellPadding, lh, line, "", 0, align, false, 0, "")
		}
		x += w
	}
	r.y += h
}

// split wraps text to width using the current font; explicit newlines are kept.
func (r *renderer) split(text string, width float64) []string {
	text = r.clean(text)
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		if para == "" {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, r.wrap(para, width)...)
	}
	return lines
}

// wrap breaks one paragraph into lines no wider than width. Lines break at spaces, which are
// dropped, or next to a CJK character, which is kept. A word wider than a line is cut between
// runes.
func (r *renderer) wrap(para string, width float64) []string {
	if width <= 0 {
		return []string{para}
	}

	var lines []string
	var line strings.Builder
	lineWidth := 0.0
	flush := func() {
		lines = append(lines, strings.TrimRight(line.String(), " "))
		line.Reset()
		lineWidth = 0
	}
	put := func(s string, w float64) {
		line.WriteString(s)
		lineWidth += w
	}

	for _, tok := range tokenize(para) {
		w := r.pdf.GetStringWidth(tok)
		if lineWidth+w <= width {
			put(tok, w)
			continue
		}
		if strings.TrimLeft(tok, " ") == "" {
			if line.Len() > 0 {
				flush()
			}
			continue
		}
		if line.Len() > 0 {
			flush()
		}
		if w <= width {
			put(tok, w)
			continue
		}
		for _, c := range tok {
			cw := r.pdf.GetStringWidth(string(c))
			if lineWidth+cw > width && line.Len() > 0 {
				flush()
			}
			put(string(c), cw)
		}
	}
	if line.Len() > 0 || len(lines) == 0 {
		flush()
	}
	return lines
}

// tokenize splits text into runs of spaces, runs of other narrow runes and single wide runes.
func tokenize(text string) []string {
	var tokens []string
	start := -1
	kind := 0
	for i, c := range text {
		k := runeKind(c)
		if start >= 0 && (k != kind || k == kindWide) {
			tokens = append(tokens, text[start:i])
			start = -1
		}
		if start < 0 {
			start, kind = i, k
		}
	}
	if start >= 0 {
		tokens = append(tokens, text[start:])
	}
	return tokens
}

const (
	kindWord = iota
	kindSpace
	kindWide
)

func runeKind(c rune) int {
	switch {
	case c == ' ':
		return kindSpace
	case c >= 0x2E80:
		return kindWide
	}
	return kindWord
}

// clean drops runes the active font cannot measure.
func (r *renderer) clean(text string) string {
	limit := rune(0x7E)
	if r.unicode {
		limit = 0xFFFF
	}
	return strings.Map(func(c rune) rune {
		if c == '\n' {
			return c
		}
		if c < 0x20 {
			return ' '
		}
		if c > limit {
			return '?'
		}
		return c
	}, text)
}
