package service

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mathschool/sync-core/internal/models"
)

type rosterStub struct {
	students []models.StudentRecord
}

func (r *rosterStub) ListApproved(sortBy models.ApprovedSort) []models.StudentRecord {
	return r.students
}

func TestExportRosterCSV(t *testing.T) {
	score := 88
	roster := &rosterStub{students: []models.StudentRecord{{
		StudentID:          "S-1001",
		FullName:           "Citra Ayu",
		GradeLevel:         7,
		MathLevel:          "intermediate",
		PlacementTestScore: &score,
		RegistrationStatus: models.RegistrationApproved,
		EnrollmentDate:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}}}

	svc, err := NewExportService(roster, t.TempDir(), nil)
	require.NoError(t, err)

	path, err := svc.ExportRoster(context.Background(), RosterCSV, models.SortByName)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(raw)
	require.True(t, strings.HasPrefix(content, "Student ID,"))
	require.Contains(t, content, "S-1001")
	require.Contains(t, content, "Citra Ayu")
	require.Contains(t, content, "88")
	require.Contains(t, content, "2026-03-01")
}

func TestExportRosterPDF(t *testing.T) {
	roster := &rosterStub{students: []models.StudentRecord{{
		StudentID:      "S-1001",
		FullName:       "Citra Ayu",
		GradeLevel:     7,
		EnrollmentDate: time.Now().UTC(),
	}}}

	svc, err := NewExportService(roster, t.TempDir(), nil)
	require.NoError(t, err)

	path, err := svc.ExportRoster(context.Background(), RosterPDF, models.SortByName)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(raw), "%PDF"))
}

func TestExportRosterRejectsUnknownFormat(t *testing.T) {
	svc, err := NewExportService(&rosterStub{}, t.TempDir(), nil)
	require.NoError(t, err)

	_, err = svc.ExportRoster(context.Background(), RosterFormat("xlsx"), models.SortByName)
	require.Error(t, err)
}
