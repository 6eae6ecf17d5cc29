package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mathschool/sync-core/internal/cache"
	"github.com/mathschool/sync-core/internal/guard"
	"github.com/mathschool/sync-core/internal/models"
	"github.com/mathschool/sync-core/internal/store"
	"github.com/mathschool/sync-core/pkg/metrics"
)

var studentNumberPattern = regexp.MustCompile(`^[A-Z]{1,3}-?\d{3,}$`)

// SubmitRegistrationRequest holds payload for submitting a registration.
type SubmitRegistrationRequest struct {
	StudentID      string          `json:"student_id" validate:"required,student_number"`
	FullName       string          `json:"full_name" validate:"required"`
	GradeLevel     int             `json:"grade_level" validate:"required,gte=1,lte=12"`
	MathLevel      string          `json:"math_level"`
	RequestedClass string          `json:"requested_class" validate:"required"`
	Priority       models.Priority `json:"priority" validate:"required,oneof=high medium low"`
	ParentName     string          `json:"parent_name" validate:"required"`
	ParentEmail    string          `json:"parent_email" validate:"required,email"`
	ParentPhone    string          `json:"parent_phone"`
	Reason         string          `json:"reason"`
}

// RegistrationService is the lifecycle manager for registration requests.
// Every state-changing operation checks the permission guard first and runs
// under a single mutation lock so concurrent resolutions of the same request
// linearize: the second caller observes NotFound.
type RegistrationService struct {
	store     *store.Store
	snapshots cache.Snapshots
	guard     guard.Guard
	bus       *store.Bus
	validator *validator.Validate
	metrics   *metrics.Metrics
	logger    *zap.Logger

	mu sync.Mutex
}

// NewRegistrationService constructs the service with defaults.
func NewRegistrationService(st *store.Store, snapshots cache.Snapshots, g guard.Guard, bus *store.Bus, validate *validator.Validate, m *metrics.Metrics, logger *zap.Logger) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	_ = validate.RegisterValidation("student_number", func(fl validator.FieldLevel) bool {
		return studentNumberPattern.MatchString(fl.Field().String())
	})
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{
		store:     st,
		snapshots: snapshots,
		guard:     g,
		bus:       bus,
		validator: validate,
		metrics:   m,
		logger:    logger,
	}
}

// Load restores the registration collections from the persistent cache.
// A missing or corrupt snapshot leaves the store empty.
func (s *RegistrationService) Load(ctx context.Context) {
	var state store.RegistrationState
	hit, err := s.snapshots.Restore(ctx, models.CollectionRegistrations, &state)
	if err != nil {
		s.metrics.RecordSnapshotFailure()
		s.logger.Warn("registration snapshot restore failed", zap.Error(err))
	}
	s.metrics.RecordCacheRestore(hit)
	if hit {
		s.store.LoadRegistrations(state)
	}
}

// ListPending returns pending requests ordered by priority descending, ties
// broken by request date descending, then id for full determinism.
func (s *RegistrationService) ListPending() []models.RegistrationRequest {
	requests := s.store.Requests()
	sort.SliceStable(requests, func(i, j int) bool {
		if a, b := requests[i].Priority.Rank(), requests[j].Priority.Rank(); a != b {
			return a > b
		}
		if !requests[i].RequestDate.Equal(requests[j].RequestDate) {
			return requests[i].RequestDate.After(requests[j].RequestDate)
		}
		return requests[i].ID < requests[j].ID
	})
	return requests
}

// ListApproved returns approved students in the requested order.
func (s *RegistrationService) ListApproved(sortBy models.ApprovedSort) []models.StudentRecord {
	students := s.store.Students()
	approved := students[:0]
	for _, st := range students {
		if st.RegistrationStatus == models.RegistrationApproved {
			approved = append(approved, st)
		}
	}
	switch sortBy {
	case models.SortByGrade:
		sort.SliceStable(approved, func(i, j int) bool {
			if approved[i].GradeLevel != approved[j].GradeLevel {
				return approved[i].GradeLevel < approved[j].GradeLevel
			}
			return approved[i].StudentID < approved[j].StudentID
		})
	case models.SortByDate:
		sort.SliceStable(approved, func(i, j int) bool {
			if !approved[i].EnrollmentDate.Equal(approved[j].EnrollmentDate) {
				return approved[i].EnrollmentDate.After(approved[j].EnrollmentDate)
			}
			return approved[i].StudentID < approved[j].StudentID
		})
	default:
		sort.SliceStable(approved, func(i, j int) bool {
			a := strings.ToLower(approved[i].FullName)
			b := strings.ToLower(approved[j].FullName)
			if a != b {
				return a < b
			}
			return approved[i].StudentID < approved[j].StudentID
		})
	}
	return approved
}

// Submit validates and queues a new registration request.
func (s *RegistrationService) Submit(ctx context.Context, req SubmitRegistrationRequest) models.Result {
	if !s.guard.HasCapability(models.CapStudentsRegister) {
		return models.Result{Success: false, Message: "not allowed to submit registrations"}
	}
	if err := s.validator.Struct(req); err != nil {
		return models.Result{Success: false, Message: fmt.Sprintf("invalid registration: %v", firstValidationError(err))}
	}

	result := s.submitLocked(ctx, req)
	if result.Success {
		s.bus.Notify()
	}
	return result
}

func (s *RegistrationService) submitLocked(ctx context.Context, req SubmitRegistrationRequest) models.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store.HasStudent(req.StudentID) {
		return models.Result{Success: false, Message: "student is already registered"}
	}

	request := models.RegistrationRequest{
		ID:             uuid.NewString(),
		RequestDate:    time.Now().UTC(),
		RequestedClass: req.RequestedClass,
		Priority:       req.Priority,
		Reason:         req.Reason,
		Student: models.StudentRecord{
			ID:                 uuid.NewString(),
			StudentID:          req.StudentID,
			FullName:           req.FullName,
			GradeLevel:         req.GradeLevel,
			MathLevel:          req.MathLevel,
			RegistrationStatus: models.RegistrationPending,
			ParentName:         req.ParentName,
			ParentEmail:        req.ParentEmail,
			ParentPhone:        req.ParentPhone,
		},
	}
	s.store.PutRequest(request)
	s.persist(ctx)
	return models.Result{Success: true, Message: "registration request submitted"}
}

// Accept resolves a pending request into an approved student record.
func (s *RegistrationService) Accept(ctx context.Context, requestID string) models.Result {
	return s.resolve(ctx, requestID, models.RegistrationApproved, "")
}

// Reject resolves a pending request into a rejected student record; the
// reason, when given, is carried on the record notes.
func (s *RegistrationService) Reject(ctx context.Context, requestID, reason string) models.Result {
	return s.resolve(ctx, requestID, models.RegistrationRejected, reason)
}

func (s *RegistrationService) resolve(ctx context.Context, requestID string, status models.RegistrationStatus, reason string) models.Result {
	if !s.guard.HasCapability(models.CapStudentsManage) {
		return models.Result{Success: false, Message: "not allowed to manage registrations"}
	}

	// Observers may call back into the service, so notification happens
	// only after the mutation lock is released.
	result := s.resolveLocked(ctx, requestID, status, reason)
	if result.Success {
		s.bus.Notify()
	}
	return result
}

func (s *RegistrationService) resolveLocked(ctx context.Context, requestID string, status models.RegistrationStatus, reason string) models.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, ok := s.store.Request(requestID)
	if !ok {
		return models.Result{Success: false, Message: "registration request not found"}
	}

	student := request.Student
	student.RegistrationStatus = status
	student.EnrollmentDate = time.Now().UTC()
	if reason != "" {
		student.Notes = reason
	}
	if !s.store.ResolveRequest(requestID, student) {
		return models.Result{Success: false, Message: "registration request not found"}
	}

	s.persist(ctx)

	verb := "approved"
	if status == models.RegistrationRejected {
		verb = "rejected"
	}
	s.logger.Info("registration resolved",
		zap.String("request_id", requestID),
		zap.String("student_id", student.StudentID),
		zap.String("status", string(status)))
	return models.Result{Success: true, Message: fmt.Sprintf("registration %s for %s", verb, student.FullName)}
}

// Statistics derives read-only aggregates from the current store contents.
func (s *RegistrationService) Statistics() models.RegistrationStatistics {
	pending, _ := s.store.Counts()
	students := s.store.Students()

	grades := make(map[int]struct{})
	var scoreSum, approved int
	for _, st := range students {
		if st.RegistrationStatus != models.RegistrationApproved {
			continue
		}
		approved++
		grades[st.GradeLevel] = struct{}{}
		if st.PlacementTestScore != nil {
			scoreSum += *st.PlacementTestScore
		}
	}

	avg := 0
	if approved > 0 {
		avg = int(math.Round(float64(scoreSum) / float64(approved)))
	}
	return models.RegistrationStatistics{
		TotalStudents:    len(students),
		PendingRequests:  pending,
		GradeLevels:      len(grades),
		AverageTestScore: avg,
	}
}

// persist writes the registration snapshot. Best effort: failure is logged
// and counted, the in-memory transition stands.
func (s *RegistrationService) persist(ctx context.Context) {
	start := time.Now()
	err := s.snapshots.Backup(ctx, models.CollectionRegistrations, s.store.RegistrationSnapshot())
	s.metrics.ObserveSnapshotWrite(time.Since(start))
	if err != nil {
		s.metrics.RecordSnapshotFailure()
		s.logger.Warn("registration snapshot write failed", zap.Error(err))
	}
}

func firstValidationError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Sprintf("field %s failed on %s", verrs[0].Field(), verrs[0].Tag())
	}
	return err.Error()
}
