package appointment

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/healflow/healflow/pkg/calendar"
)

// SummaryFilename is the download name of an appointment's visit summary.
func SummaryFilename(a *Appointment) string {
	return fmt.Sprintf("visit-summary-%s.pdf", a.Date)
}

// RenderSummary lays out the one-page visit summary of a completed
// appointment.
func RenderSummary(a *Appointment, generatedAt time.Time) ([]byte, error) {
	if a.Treatment == nil {
		return nil, ErrNotCompleted
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetTitle("Visit summary", true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(0, 102, 153)
	pdf.CellFormat(0, 10, "HealFlow Hospital", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(90, 90, 90)
	pdf.CellFormat(0, 6, "Visit Summary", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetTextColor(0, 0, 0)
	section(pdf, "Appointment")
	detailRow(pdf, tr, "Patient", a.PatientName)
	detailRow(pdf, tr, "Doctor", "Dr. "+a.DoctorName)
	detailRow(pdf, tr, "Department", a.DepartmentName)
	detailRow(pdf, tr, "Date", calendar.HumanDate(a.Date))
	detailRow(pdf, tr, "Time", calendar.HumanClock(a.Time))
	if a.Reason != "" {
		detailRow(pdf, tr, "Reason", a.Reason)
	}
	pdf.Ln(4)

	section(pdf, "Treatment")
	detailRow(pdf, tr, "Diagnosis", a.Treatment.Diagnosis)
	detailRow(pdf, tr, "Prescription", orDash(a.Treatment.Prescription))
	detailRow(pdf, tr, "Notes", orDash(a.Treatment.Notes))

	pdf.Ln(10)
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated %s. This is a computer generated document.",
		generatedAt.UTC().Format("2006-01-02 15:04 MST")), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render visit summary: %w", err)
	}
	return buf.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Arial", "B", 12)
	pdf.SetFillColor(230, 240, 245)
	pdf.CellFormat(0, 9, title, "1", 1, "L", true, 0, "")
}

// detailRow writes a label cell and a value that wraps onto more lines
// when it is long.
func detailRow(pdf *gofpdf.Fpdf, tr func(string) string, label, value string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(40, 8, label, "1", 0, "", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 8, tr(value), "1", "L", false)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
