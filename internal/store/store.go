package store

import (
	"sort"
	"sync"

	"github.com/mathschool/sync-core/internal/models"
)

// Store is the in-memory authoritative collection of domain entities for one
// client session. It is mutated only by the workflow and sync engines;
// observers get copies, never internal slices.
type Store struct {
	mu        sync.RWMutex
	requests  map[string]models.RegistrationRequest
	students  map[string]models.StudentRecord
	materials map[string]models.LearningMaterial
	pending   []models.PendingOp
}

// New constructs an empty store.
func New() *Store {
	return &Store{
		requests:  make(map[string]models.RegistrationRequest),
		students:  make(map[string]models.StudentRecord),
		materials: make(map[string]models.LearningMaterial),
	}
}

// RegistrationState bundles the registration collections for snapshotting.
type RegistrationState struct {
	Requests []models.RegistrationRequest `json:"requests"`
	Students []models.StudentRecord       `json:"students"`
}

// LoadRegistrations replaces the registration collections, used at startup
// when restoring from the persistent cache.
func (s *Store) LoadRegistrations(state RegistrationState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = make(map[string]models.RegistrationRequest, len(state.Requests))
	for _, r := range state.Requests {
		s.requests[r.ID] = r
	}
	s.students = make(map[string]models.StudentRecord, len(state.Students))
	for _, st := range state.Students {
		s.students[st.StudentID] = st
	}
}

// RegistrationSnapshot returns the current registration collections in a
// deterministic order suitable for persistence.
func (s *Store) RegistrationSnapshot() RegistrationState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state := RegistrationState{
		Requests: make([]models.RegistrationRequest, 0, len(s.requests)),
		Students: make([]models.StudentRecord, 0, len(s.students)),
	}
	for _, r := range s.requests {
		state.Requests = append(state.Requests, r)
	}
	for _, st := range s.students {
		state.Students = append(state.Students, st)
	}
	sort.Slice(state.Requests, func(i, j int) bool { return state.Requests[i].ID < state.Requests[j].ID })
	sort.Slice(state.Students, func(i, j int) bool { return state.Students[i].StudentID < state.Students[j].StudentID })
	return state
}

// Requests returns a copy of all pending registration requests.
func (s *Store) Requests() []models.RegistrationRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.RegistrationRequest, 0, len(s.requests))
	for _, r := range s.requests {
		out = append(out, r)
	}
	return out
}

// Request looks up a pending request by id.
func (s *Store) Request(id string) (models.RegistrationRequest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	return r, ok
}

// PutRequest inserts or replaces a pending request.
func (s *Store) PutRequest(r models.RegistrationRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[r.ID] = r
}

// HasStudent reports whether a record already exists for the student number.
func (s *Store) HasStudent(studentID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.students[studentID]
	return ok
}

// ResolveRequest atomically removes the request and appends the resolved
// student record. Returns false when the request id is absent, in which case
// nothing changes.
func (s *Store) ResolveRequest(id string, student models.StudentRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[id]; !ok {
		return false
	}
	delete(s.requests, id)
	s.students[student.StudentID] = student
	return true
}

// Students returns a copy of all resolved student records.
func (s *Store) Students() []models.StudentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.StudentRecord, 0, len(s.students))
	for _, st := range s.students {
		out = append(out, st)
	}
	return out
}

// Materials returns a copy of the cached material set.
func (s *Store) Materials() []models.LearningMaterial {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.LearningMaterial, 0, len(s.materials))
	for _, m := range s.materials {
		out = append(out, m)
	}
	return out
}

// Material looks up a material by id.
func (s *Store) Material(id string) (models.LearningMaterial, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.materials[id]
	return m, ok
}

// ReplaceMaterials swaps the whole material set, last-writer-wins.
func (s *Store) ReplaceMaterials(materials []models.LearningMaterial) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.materials = make(map[string]models.LearningMaterial, len(materials))
	for _, m := range materials {
		s.materials[m.ID] = m
	}
}

// UpsertMaterial inserts or replaces one material.
func (s *Store) UpsertMaterial(m models.LearningMaterial) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.materials[m.ID] = m
}

// RemoveMaterial deletes a material, reporting whether it existed.
func (s *Store) RemoveMaterial(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.materials[id]; !ok {
		return false
	}
	delete(s.materials, id)
	return true
}

// PendingOps returns a copy of queued offline writes in enqueue order.
func (s *Store) PendingOps() []models.PendingOp {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.PendingOp, len(s.pending))
	copy(out, s.pending)
	return out
}

// AppendPendingOp queues an offline write for later reconciliation.
func (s *Store) AppendPendingOp(op models.PendingOp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, op)
}

// HasPendingOp reports whether the offline write is still queued.
func (s *Store) HasPendingOp(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, op := range s.pending {
		if op.ID == id {
			return true
		}
	}
	return false
}

// RemovePendingOp drops a reconciled (or abandoned) offline write.
func (s *Store) RemovePendingOp(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, op := range s.pending {
		if op.ID == id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}

// LoadPendingOps replaces the offline write queue, used at startup.
func (s *Store) LoadPendingOps(ops []models.PendingOp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = make([]models.PendingOp, len(ops))
	copy(s.pending, ops)
}

// Counts reports collection sizes for statistics without copying.
func (s *Store) Counts() (requests, students int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.requests), len(s.students)
}
