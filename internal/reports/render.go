package reports

import (
	"io"
	"time"

	"github.com/phpdave11/gofpdf"
)

const (
	margin     = 72.0
	lineHeight = 14.0
	fontFamily = "Helvetica"
)

// document draws tables on letter pages, reprinting the header block on every
// page. y is the baseline of the next line measured from the top edge.
type document struct {
	pdf       *gofpdf.Fpdf
	tr        func(string) string
	height    float64
	y         float64
	title     string
	generated string
	filters   string
}

func newDocument(title string, generated time.Time, filters string) *document {
	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	_, height := pdf.GetPageSize()
	d := &document{
		pdf:       pdf,
		tr:        pdf.UnicodeTranslatorFromDescriptor(""),
		height:    height,
		title:     title,
		generated: generated.Format(time.RFC3339),
		filters:   filters,
	}
	d.startPage()
	return d
}

func (d *document) startPage() {
	d.pdf.AddPage()
	d.y = margin
	d.pdf.SetFont(fontFamily, "B", 14)
	d.text(margin, "Reporte: "+d.title, alignLeft)
	d.y += 18
	d.pdf.SetFont(fontFamily, "", 10)
	d.text(margin, "Generado: "+d.generated, alignLeft)
	d.y += 14
	d.text(margin, "Filtros: "+d.filters, alignLeft)
	d.y += 24
}

// ensureSpace starts a new page when lines more rows would cross the bottom
// margin.
func (d *document) ensureSpace(lines int) {
	if d.y+lineHeight*float64(lines) > d.height-margin {
		d.startPage()
	}
}

func (d *document) text(x float64, s string, a align) {
	s = d.tr(s)
	if a == alignRight {
		x -= d.pdf.GetStringWidth(s)
	}
	d.pdf.Text(x, d.y, s)
}

func (d *document) table(t Table) {
	d.ensureSpace(2)
	d.pdf.SetFont(fontFamily, "B", 11)
	for _, col := range t.Columns {
		d.text(margin+col.Offset, col.Label, col.Align)
	}
	d.y += 16
	d.pdf.SetFont(fontFamily, "", 10)

	if len(t.Rows) == 0 {
		d.ensureSpace(1)
		d.text(margin, noRowsText, alignLeft)
		d.y += lineHeight
	}
	for _, row := range t.Rows {
		d.ensureSpace(1)
		for i, col := range t.Columns {
			if i < len(row) {
				d.text(margin+col.Offset, row[i], col.Align)
			}
		}
		d.y += lineHeight
	}

	if len(t.Summary) > 0 {
		d.ensureSpace(len(t.Summary))
		d.pdf.SetFont(fontFamily, "B", 10)
		for _, line := range t.Summary {
			d.text(margin, line, alignLeft)
			d.y += lineHeight
		}
		d.pdf.SetFont(fontFamily, "", 10)
	}
}

func (d *document) pages() int {
	return d.pdf.PageNo()
}

func (d *document) write(w io.Writer) error {
	return d.pdf.Output(w)
}
