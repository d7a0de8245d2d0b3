package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/it-logbook-api/internal/models"
	appErrors "github.com/noah-isme/it-logbook-api/pkg/errors"
	"github.com/noah-isme/it-logbook-api/pkg/storage"
)

type stubLogLister struct {
	logs []models.LogEntry
}

func (s *stubLogLister) ListByStudent(_ context.Context, _ string) ([]models.LogEntry, error) {
	return s.logs, nil
}

func exportFixture(t *testing.T, logs []models.LogEntry) *ExportService {
	t.Helper()
	school := "Federal Polytechnic"
	student := &models.User{
		ID:        "student-1",
		FirstName: "Ada",
		Surname:   "Okafor",
		Role:      models.RoleStudent,
		School:    &school,
	}
	users := &mockUserDirectory{users: map[string]*models.User{"student-1": student}}

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)

	return NewExportService(users, &stubLogLister{logs: logs}, store, signer, zap.NewNop())
}

func exportTestLogs() []models.LogEntry {
	feedback := "Solid work"
	return []models.LogEntry{
		{
			ID:        "log-1",
			StudentID: "student-1",
			Week:      1,
			Date:      time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
			Title:     "Orientation",
			Content:   "Toured the facility and set up workstation access.",
			Status:    models.LogStatusApproved,
			Feedback:  &feedback,
		},
		{
			ID:        "log-2",
			StudentID: "student-1",
			Week:      2,
			Date:      time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC),
			Title:     "Cabling",
			Content:   "Terminated patch panels on the second floor.",
			Status:    models.LogStatusApproved,
		},
	}
}

func TestExportServiceGenerateCSVRoundTrip(t *testing.T) {
	svc := exportFixture(t, exportTestLogs())

	report, err := svc.Generate(context.Background(), "student-1", ReportFormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "csv", report.Format)
	assert.NotEmpty(t, report.Token)
	assert.True(t, strings.HasSuffix(report.Filename, ".csv"))

	file, contentType, err := svc.Resolve(report.Token)
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck

	assert.Equal(t, "text/csv", contentType)

	data, err := io.ReadAll(file)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "week,date,title,status,content,feedback", lines[0])
	assert.Contains(t, lines[1], "Orientation")
	assert.Contains(t, lines[1], "2026-01-05")
	assert.Contains(t, lines[1], "Solid work")
}

func TestExportServiceGeneratePDF(t *testing.T) {
	svc := exportFixture(t, exportTestLogs())

	report, err := svc.Generate(context.Background(), "student-1", ReportFormatPDF)
	require.NoError(t, err)

	assert.Equal(t, "pdf", report.Format)
	assert.True(t, strings.HasSuffix(report.Filename, ".pdf"))

	file, contentType, err := svc.Resolve(report.Token)
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck

	assert.Equal(t, "application/pdf", contentType)

	header := make([]byte, 5)
	_, err = io.ReadFull(file, header)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(header))
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc := exportFixture(t, nil)

	_, err := svc.Generate(context.Background(), "student-1", ReportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServiceUnknownStudent(t *testing.T) {
	svc := exportFixture(t, nil)

	_, err := svc.Generate(context.Background(), "ghost", ReportFormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportServiceResolveRejectsTamperedToken(t *testing.T) {
	svc := exportFixture(t, exportTestLogs())

	report, err := svc.Generate(context.Background(), "student-1", ReportFormatCSV)
	require.NoError(t, err)

	_, _, err = svc.Resolve(report.Token + "0")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
