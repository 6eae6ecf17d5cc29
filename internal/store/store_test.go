package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mathschool/sync-core/internal/models"
)

func pendingRequest(id, studentID string) models.RegistrationRequest {
	return models.RegistrationRequest{
		ID:          id,
		RequestDate: time.Now().UTC(),
		Priority:    models.PriorityMedium,
		Student: models.StudentRecord{
			ID:                 "rec-" + id,
			StudentID:          studentID,
			FullName:           "Test Student",
			GradeLevel:         8,
			RegistrationStatus: models.RegistrationPending,
		},
	}
}

func TestResolveRequestRemovesAndAppends(t *testing.T) {
	s := New()
	s.PutRequest(pendingRequest("r1", "S-1001"))

	student := models.StudentRecord{StudentID: "S-1001", RegistrationStatus: models.RegistrationApproved}
	require.True(t, s.ResolveRequest("r1", student))

	_, ok := s.Request("r1")
	require.False(t, ok)
	require.Len(t, s.Students(), 1)
	require.Equal(t, models.RegistrationApproved, s.Students()[0].RegistrationStatus)

	// Second resolution of the same id finds nothing and changes nothing.
	require.False(t, s.ResolveRequest("r1", student))
	require.Len(t, s.Students(), 1)
}

func TestResolveRequestNeverDuplicatesStudents(t *testing.T) {
	s := New()
	s.PutRequest(pendingRequest("r1", "S-1001"))
	s.PutRequest(pendingRequest("r2", "S-1001"))

	student := models.StudentRecord{StudentID: "S-1001", RegistrationStatus: models.RegistrationApproved}
	require.True(t, s.ResolveRequest("r1", student))
	require.True(t, s.ResolveRequest("r2", student))

	require.Len(t, s.Students(), 1)
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := New()
	s.PutRequest(pendingRequest("r2", "S-2002"))
	s.PutRequest(pendingRequest("r1", "S-1001"))
	require.True(t, s.ResolveRequest("r1", models.StudentRecord{
		StudentID:          "S-1001",
		RegistrationStatus: models.RegistrationApproved,
	}))

	state := s.RegistrationSnapshot()

	restored := New()
	restored.LoadRegistrations(state)
	require.Equal(t, state, restored.RegistrationSnapshot())
}

func TestReadsReturnCopies(t *testing.T) {
	s := New()
	s.ReplaceMaterials([]models.LearningMaterial{{ID: "m1", Title: "Fractions"}})

	materials := s.Materials()
	materials[0].Title = "tampered"

	fresh, ok := s.Material("m1")
	require.True(t, ok)
	require.Equal(t, "Fractions", fresh.Title)
}

func TestPendingOpsKeepEnqueueOrder(t *testing.T) {
	s := New()
	s.AppendPendingOp(models.PendingOp{ID: "a", Kind: models.OpCreate})
	s.AppendPendingOp(models.PendingOp{ID: "b", Kind: models.OpUpdate})
	s.AppendPendingOp(models.PendingOp{ID: "c", Kind: models.OpDelete})

	s.RemovePendingOp("b")

	ops := s.PendingOps()
	require.Len(t, ops, 2)
	require.Equal(t, "a", ops[0].ID)
	require.Equal(t, "c", ops[1].ID)
}
