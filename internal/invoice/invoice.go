package invoice

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// Data holds the booking fields printed on an invoice.
type Data struct {
	BookingID       string
	ClientName      string
	ProviderName    string
	SessionStart    time.Time
	DurationMinutes int
	Amount          int
	Currency        string
	IssuedAt        time.Time
}

// Renderer turns booking data into a document. Implementations must not
// have side effects.
type Renderer interface {
	Render(d Data) ([]byte, error)
	ContentType() string
}

type PDFRenderer struct {
	location *time.Location
}

func NewPDFRenderer(loc *time.Location) *PDFRenderer {
	if loc == nil {
		loc = time.UTC
	}
	return &PDFRenderer{location: loc}
}

func (r *PDFRenderer) ContentType() string { return "application/pdf" }

func FileName(bookingID string) string {
	return fmt.Sprintf("invoices/%s.pdf", bookingID)
}

func (r *PDFRenderer) Render(d Data) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCatalogSort(true)
	pdf.SetTitle("Session Invoice", false)
	pdf.SetAuthor("SpeakBook", false)
	pdf.SetCreationDate(d.IssuedAt)
	pdf.SetModificationDate(d.IssuedAt)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 12, "Session Invoice")
	pdf.Ln(16)

	pdf.SetFont("Helvetica", "", 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	lines := [][2]string{
		{"Booking ID", d.BookingID},
		{"Client", d.ClientName},
		{"Provider", d.ProviderName},
		{"Session Time", d.SessionStart.In(r.location).Format("Jan 2, 2006 at 3:04 PM MST")},
		{"Duration", fmt.Sprintf("%d minutes", d.DurationMinutes)},
		{"Amount Paid", fmt.Sprintf("%s %d", d.Currency, d.Amount)},
	}
	for _, l := range lines {
		pdf.CellFormat(45, 9, l[0]+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 9, tr(l[1]), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", d.BookingID, err)
	}
	return buf.Bytes(), nil
}
