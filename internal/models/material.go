package models

import "time"

// Attachment is a file reference carried by a learning material.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size,omitempty"`
}

// LearningMaterial is a catalog entry whose source of truth is the remote
// materials API. PendingSync marks a locally applied write that has not been
// confirmed by the remote store yet.
type LearningMaterial struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Type        string       `json:"type"`
	Subject     string       `json:"subject,omitempty"`
	GradeLevel  int          `json:"grade_level,omitempty"`
	Difficulty  string       `json:"difficulty,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	IsPublished bool         `json:"is_published"`
	IsPublic    bool         `json:"is_public"`
	PendingSync bool         `json:"pending_sync,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// MaterialFilter encapsulates allowed search parameters for listing materials.
type MaterialFilter struct {
	Type       string
	Subject    string
	GradeLevel int
	Difficulty string
	Search     string
	IsPublic   *bool
}

// PendingOpKind distinguishes queued offline mutations.
type PendingOpKind string

const (
	OpCreate PendingOpKind = "create"
	OpUpdate PendingOpKind = "update"
	OpDelete PendingOpKind = "delete"
)

// PendingOp is the reconciliation marker for an optimistic local write made
// while the remote store was unreachable.
type PendingOp struct {
	ID         string           `json:"id"`
	Kind       PendingOpKind    `json:"kind"`
	MaterialID string           `json:"material_id"`
	Material   LearningMaterial `json:"material"`
	QueuedAt   time.Time        `json:"queued_at"`
}
