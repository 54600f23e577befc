package models

import "time"

// AssignmentStatus tracks the lifecycle of a judge-project assignment.
// Assignments are soft-deleted by moving to Reassigned, never removed.
type AssignmentStatus string

const (
	AssignmentActive     AssignmentStatus = "Active"
	AssignmentCompleted  AssignmentStatus = "Completed"
	AssignmentReassigned AssignmentStatus = "Reassigned"
)

// JudgeAssignment is the persisted record binding a judge to one scoring
// section of one project. At most one Active row may exist per
// (judge, project, section).
type JudgeAssignment struct {
	ID         string           `db:"id" json:"id"`
	JudgeID    string           `db:"judge_id" json:"judge_id"`
	ProjectID  string           `db:"project_id" json:"project_id"`
	Section    Section          `db:"section" json:"section"`
	AssignedBy string           `db:"assigned_by" json:"assigned_by"`
	Status     AssignmentStatus `db:"status" json:"status"`
	Notes      *string          `db:"notes" json:"notes,omitempty"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updated_at"`
}

// JudgeAssignmentDetail joins assignment rows with judge and project
// summaries for admin listings.
type JudgeAssignmentDetail struct {
	JudgeAssignment
	JudgeName       string           `db:"judge_name" json:"judge_name"`
	JudgeEmail      string           `db:"judge_email" json:"judge_email"`
	ProjectTitle    string           `db:"project_title" json:"project_title"`
	ProjectCategory string           `db:"project_category" json:"project_category"`
	ProjectLevel    CompetitionLevel `db:"project_level" json:"project_level"`
	ProjectStatus   ProjectStatus    `db:"project_status" json:"project_status"`
	AssignedByName  string           `db:"assigned_by_name" json:"assigned_by_name"`
}

// AssignmentResult reports the outcome of a single assignment attempt.
type AssignmentResult struct {
	Success      bool    `json:"success"`
	Message      string  `json:"message"`
	AssignmentID string  `json:"assignment_id,omitempty"`
	JudgeID      string  `json:"judge_id,omitempty"`
	Section      Section `json:"section,omitempty"`
}

// SectionCount aggregates assignments per section.
type SectionCount struct {
	Section Section `db:"section" json:"section"`
	Count   int     `db:"count" json:"count"`
}

// StatusCount aggregates assignments per status.
type StatusCount struct {
	Status AssignmentStatus `db:"status" json:"status"`
	Count  int              `db:"count" json:"count"`
}

// AssignmentStats summarises the assignment table for admin dashboards.
type AssignmentStats struct {
	Total     int            `json:"total_assignments"`
	BySection []SectionCount `json:"by_section"`
	ByStatus  []StatusCount  `json:"by_status"`
}
