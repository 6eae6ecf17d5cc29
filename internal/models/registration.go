package models

import "time"

// Priority orders pending registration requests.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank maps a priority onto a sortable weight, higher first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// RegistrationStatus is the lifecycle state carried by a student record.
type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationApproved RegistrationStatus = "approved"
	RegistrationRejected RegistrationStatus = "rejected"
)

// StudentRecord represents a learner registered in the institution.
type StudentRecord struct {
	ID                 string             `json:"id"`
	StudentID          string             `json:"student_id"`
	FullName           string             `json:"full_name"`
	GradeLevel         int                `json:"grade_level"`
	MathLevel          string             `json:"math_level"`
	PlacementTestScore *int               `json:"placement_test_score,omitempty"`
	RegistrationStatus RegistrationStatus `json:"registration_status"`
	EnrollmentDate     time.Time          `json:"enrollment_date"`
	ParentName         string             `json:"parent_name"`
	ParentEmail        string             `json:"parent_email"`
	ParentPhone        string             `json:"parent_phone"`
	Notes              string             `json:"notes,omitempty"`
}

// RegistrationRequest is a pending registration awaiting review. It exists
// only while pending; resolution deletes it and appends a student record.
type RegistrationRequest struct {
	ID             string        `json:"id"`
	Student        StudentRecord `json:"student"`
	RequestDate    time.Time     `json:"request_date"`
	RequestedClass string        `json:"requested_class"`
	Priority       Priority      `json:"priority"`
	Reason         string        `json:"reason,omitempty"`
}

// ApprovedSort selects the ordering for approved student listings.
type ApprovedSort string

const (
	SortByName  ApprovedSort = "name"
	SortByGrade ApprovedSort = "grade"
	SortByDate  ApprovedSort = "date"
)

// RegistrationStatistics is a read-only aggregate over the entity store.
type RegistrationStatistics struct {
	TotalStudents    int `json:"total_students"`
	PendingRequests  int `json:"pending_requests"`
	GradeLevels      int `json:"grade_levels"`
	AverageTestScore int `json:"average_test_score"`
}

// Result is the caller-facing outcome of a workflow mutation.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
