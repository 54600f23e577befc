package models

import (
	"time"

	"github.com/lib/pq"
)

// CompetitionLevel is one of the four ordered tiers a project progresses
// through. Promotion advances a project one tier; National is terminal.
type CompetitionLevel string

const (
	LevelSubCounty CompetitionLevel = "Sub-County"
	LevelCounty    CompetitionLevel = "County"
	LevelRegional  CompetitionLevel = "Regional"
	LevelNational  CompetitionLevel = "National"
)

var levelOrder = []CompetitionLevel{LevelSubCounty, LevelCounty, LevelRegional, LevelNational}

// Valid reports whether the level is one of the four known tiers.
func (l CompetitionLevel) Valid() bool {
	for _, level := range levelOrder {
		if level == l {
			return true
		}
	}
	return false
}

// Next returns the following tier. ok is false at National.
func (l CompetitionLevel) Next() (CompetitionLevel, bool) {
	for i, level := range levelOrder {
		if level == l && i < len(levelOrder)-1 {
			return levelOrder[i+1], true
		}
	}
	return l, false
}

// Levels returns the tier sequence in promotion order.
func Levels() []CompetitionLevel {
	out := make([]CompetitionLevel, len(levelOrder))
	copy(out, levelOrder)
	return out
}

// ProjectStatus tracks where a project sits within its current level.
type ProjectStatus string

const (
	StatusQualified ProjectStatus = "Qualified"
	StatusJudging   ProjectStatus = "Judging"
	StatusCompleted ProjectStatus = "Completed"
	StatusConflict  ProjectStatus = "Conflict"
)

// ConflictType distinguishes conflict routes.
type ConflictType string

const (
	ConflictSchool           ConflictType = "School"
	ConflictScoreDiscrepancy ConflictType = "ScoreDiscrepancy"
)

// ConflictStatus tracks coordinator resolution.
type ConflictStatus string

const (
	ConflictPending  ConflictStatus = "Pending"
	ConflictResolved ConflictStatus = "Resolved"
)

// Project represents a registered science fair project.
type Project struct {
	ID         string           `db:"id" json:"id"`
	PatronID   string           `db:"patron_id" json:"patron_id"`
	Title      string           `db:"title" json:"title"`
	Category   string           `db:"category" json:"category"`
	RegNo      string           `db:"reg_no" json:"reg_no"`
	Presenters pq.StringArray   `db:"presenters" json:"presenters"`
	School     string           `db:"school" json:"school"`
	Zone       *string          `db:"zone" json:"zone,omitempty"`
	SubCounty  string           `db:"sub_county" json:"sub_county"`
	County     string           `db:"county" json:"county"`
	Region     string           `db:"region" json:"region"`
	Status     ProjectStatus    `db:"status" json:"status"`
	Level      CompetitionLevel `db:"level" json:"level"`

	ConflictType   *ConflictType   `db:"conflict_type" json:"conflict_type,omitempty"`
	ConflictStatus *ConflictStatus `db:"conflict_status" json:"conflict_status,omitempty"`
	CoordinatorID  *string         `db:"coordinator_id" json:"coordinator_id,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ProjectFilter captures list filtering criteria.
type ProjectFilter struct {
	Category  string
	Level     CompetitionLevel
	Status    ProjectStatus
	Region    string
	County    string
	SubCounty string
	School    string
	PatronID  string
	Search    string
	Page      int
	PageSize  int
}

// PromotionStatus is the outcome of ranking a completed cohort.
type PromotionStatus string

const (
	Promoted       PromotionStatus = "Promoted"
	NotPromoted    PromotionStatus = "Not Promoted"
	PendingRanking PromotionStatus = "Pending Ranking"
)

// PromotionDecision records the ranked outcome for one project.
type PromotionDecision struct {
	ProjectID string          `json:"project_id"`
	Status    PromotionStatus `json:"status"`
	Rank      int             `json:"rank,omitempty"`
	Score     float64         `json:"score,omitempty"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
