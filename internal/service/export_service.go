package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mathschool/sync-core/internal/models"
	"github.com/mathschool/sync-core/pkg/export"
)

// RosterFormat selects the export encoding.
type RosterFormat string

const (
	RosterCSV RosterFormat = "csv"
	RosterPDF RosterFormat = "pdf"
)

type approvedLister interface {
	ListApproved(sortBy models.ApprovedSort) []models.StudentRecord
}

// ExportService renders the approved-student roster to disk. Read-only over
// the entity store.
type ExportService struct {
	registrations approvedLister
	dir           string
	logger        *zap.Logger
}

// NewExportService ensures the output directory exists and returns a handle.
func NewExportService(registrations approvedLister, dir string, logger *zap.Logger) (*ExportService, error) {
	if dir == "" {
		dir = "./data/exports"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{registrations: registrations, dir: dir, logger: logger}, nil
}

// ExportRoster writes the approved roster in the requested format and
// returns the written file path.
func (s *ExportService) ExportRoster(ctx context.Context, format RosterFormat, sortBy models.ApprovedSort) (string, error) {
	students := s.registrations.ListApproved(sortBy)
	dataset := rosterDataset(students)

	var (
		raw []byte
		err error
	)
	switch format {
	case RosterPDF:
		raw, err = export.RenderPDF(dataset, "Approved students")
	case RosterCSV, "":
		format = RosterCSV
		raw, err = export.RenderCSV(dataset)
	default:
		return "", fmt.Errorf("unsupported roster format %q", format)
	}
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("roster-%s.%s", time.Now().UTC().Format("20060102-150405"), format)
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write roster file: %w", err)
	}
	s.logger.Info("roster exported", zap.String("path", path), zap.Int("students", len(students)))
	return path, nil
}

func rosterDataset(students []models.StudentRecord) export.Dataset {
	headers := []string{"Student ID", "Full name", "Grade", "Math level", "Test score", "Enrolled"}
	rows := make([]map[string]string, 0, len(students))
	for _, st := range students {
		score := ""
		if st.PlacementTestScore != nil {
			score = strconv.Itoa(*st.PlacementTestScore)
		}
		rows = append(rows, map[string]string{
			"Student ID": st.StudentID,
			"Full name":  st.FullName,
			"Grade":      strconv.Itoa(st.GradeLevel),
			"Math level": st.MathLevel,
			"Test score": score,
			"Enrolled":   st.EnrollmentDate.Format("2006-01-02"),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
