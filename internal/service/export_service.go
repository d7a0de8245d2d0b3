package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/it-logbook-api/internal/models"
	appErrors "github.com/noah-isme/it-logbook-api/pkg/errors"
	"github.com/noah-isme/it-logbook-api/pkg/export"
)

type reportStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

type downloadSigner interface {
	Generate(exportID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (exportID, relPath string, expiresAt time.Time, err error)
}

type exportLogLister interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.LogEntry, error)
}

// ReportFormat selects the rendered output type.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// GeneratedReport describes a stored report and its signed download token.
type GeneratedReport struct {
	ExportID  string    `json:"export_id"`
	Filename  string    `json:"filename"`
	Format    string    `json:"format"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExportService renders a student's logbook into CSV or PDF, stores the file
// and hands out signed download tokens.
type ExportService struct {
	users   userGetter
	logs    exportLogLister
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	storage reportStorage
	signer  downloadSigner
	logger  *zap.Logger
}

// NewExportService constructs the service.
func NewExportService(users userGetter, logs exportLogLister, storage reportStorage, signer downloadSigner, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		users:   users,
		logs:    logs,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		storage: storage,
		signer:  signer,
		logger:  logger,
	}
}

// Generate renders the student's full logbook, saves it and returns a signed
// download token.
func (s *ExportService) Generate(ctx context.Context, studentID string, format ReportFormat) (*GeneratedReport, error) {
	student, logs, err := s.load(ctx, studentID)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch format {
	case ReportFormatCSV:
		payload, err = s.renderCSV(logs)
	case ReportFormatPDF:
		payload, err = s.renderPDF(student, logs)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	exportID := uuid.NewString()
	filename := fmt.Sprintf("%s/logbook-%s.%s", student.ID, exportID, format)
	if _, err := s.storage.Save(filename, payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store report")
	}

	token, expiresAt, err := s.signer.Generate(exportID, filename)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}

	s.logger.Info("logbook report generated",
		zap.String("student_id", student.ID),
		zap.String("format", string(format)))

	return &GeneratedReport{
		ExportID:  exportID,
		Filename:  filename,
		Format:    string(format),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Resolve validates a download token and opens the stored report for
// streaming. The caller closes the file.
func (s *ExportService) Resolve(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired download token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report no longer available")
	}
	return file, contentTypeFor(relPath), nil
}

func (s *ExportService) load(ctx context.Context, studentID string) (*models.User, []models.LogEntry, error) {
	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	logs, err := s.logs.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list logs")
	}
	return student, logs, nil
}

func (s *ExportService) renderCSV(logs []models.LogEntry) ([]byte, error) {
	dataset := export.Dataset{
		Headers: []string{"week", "date", "title", "status", "content", "feedback"},
	}
	for _, log := range logs {
		feedback := ""
		if log.Feedback != nil {
			feedback = *log.Feedback
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"week":     fmt.Sprintf("%d", log.Week),
			"date":     log.Date.Format("2006-01-02"),
			"title":    log.Title,
			"status":   string(log.Status),
			"content":  log.Content,
			"feedback": feedback,
		})
	}
	return s.csv.Render(dataset)
}

func (s *ExportService) renderPDF(student *models.User, logs []models.LogEntry) ([]byte, error) {
	report := export.LogbookReport{
		StudentName: student.FullName(),
	}
	if student.School != nil {
		report.School = *student.School
	}
	if student.Department != nil {
		report.Department = *student.Department
	}
	if student.FinalSummary != nil {
		report.Summary = *student.FinalSummary
	}
	if student.SupervisorEvaluation != nil {
		report.Evaluation = *student.SupervisorEvaluation
	}
	for _, log := range logs {
		entry := export.LogbookEntry{
			Week:    log.Week,
			Date:    log.Date.Format("2 January 2006"),
			Title:   log.Title,
			Status:  string(log.Status),
			Content: log.Content,
		}
		if log.Feedback != nil {
			entry.Feedback = *log.Feedback
		}
		report.Entries = append(report.Entries, entry)
	}
	return s.pdf.Render(report)
}

func contentTypeFor(path string) string {
	if strings.HasSuffix(path, ".pdf") {
		return "application/pdf"
	}
	return "text/csv"
}
