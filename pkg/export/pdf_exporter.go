package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// LogbookEntry is one rendered weekly log in a report.
type LogbookEntry struct {
	Week     int
	Date     string
	Title    string
	Status   string
	Content  string
	Feedback string
}

// LogbookReport holds everything needed to render a student logbook PDF.
type LogbookReport struct {
	StudentName string
	School      string
	Department  string
	Supervisor  string
	Summary     string
	Evaluation  string
	Entries     []LogbookEntry
}

// PDFExporter renders logbook reports into PDF documents.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document for the provided logbook report.
func (e *PDFExporter) Render(report LogbookReport) ([]byte, error) {
	if report.StudentName == "" {
		return nil, fmt.Errorf("pdf requires a student name")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "INDUSTRIAL TRAINING LOGBOOK", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	writeField := func(label, value string) {
		if value == "" {
			return
		}
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(35, 6, label, "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 6, value, "", "", false)
	}
	writeField("Student", report.StudentName)
	writeField("School", report.School)
	writeField("Department", report.Department)
	writeField("Supervisor", report.Supervisor)
	pdf.Ln(4)

	for _, entry := range report.Entries {
		pdf.SetFont("Arial", "B", 11)
		header := fmt.Sprintf("Week %d - %s (%s)", entry.Week, entry.Title, entry.Status)
		pdf.CellFormat(0, 8, header, "B", 1, "", false, 0, "")
		if entry.Date != "" {
			pdf.SetFont("Arial", "I", 9)
			pdf.CellFormat(0, 5, entry.Date, "", 1, "", false, 0, "")
		}
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 5, entry.Content, "", "", false)
		if entry.Feedback != "" {
			pdf.SetFont("Arial", "I", 9)
			pdf.MultiCell(0, 5, "Supervisor feedback: "+entry.Feedback, "", "", false)
		}
		pdf.Ln(3)
	}

	if report.Summary != "" {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 8, "Final Summary", "B", 1, "", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 5, report.Summary, "", "", false)
		pdf.Ln(2)
	}
	if report.Evaluation != "" {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 8, "Supervisor Evaluation", "B", 1, "", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 5, report.Evaluation, "", "", false)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
