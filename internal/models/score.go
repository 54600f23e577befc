package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// CriterionScores maps criterion IDs to awarded marks, persisted as JSONB.
type CriterionScores map[string]float64

// Value implements driver.Valuer.
func (s CriterionScores) Value() (driver.Value, error) {
	if s == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal criterion scores: %w", err)
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (s *CriterionScores) Scan(src interface{}) error {
	if src == nil {
		*s = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported criterion scores type %T", src)
	}
	return json.Unmarshal(raw, s)
}

// ScoreSheet is one judge's submitted marks for one section of one project.
// Part totals are derived at submission time and stored alongside the raw
// criterion marks.
type ScoreSheet struct {
	ID        string          `db:"id" json:"id"`
	ProjectID string          `db:"project_id" json:"project_id"`
	JudgeID   string          `db:"judge_id" json:"judge_id"`
	Section   Section         `db:"section" json:"section"`
	Scores    CriterionScores `db:"scores" json:"scores"`

	Strengths       string `db:"strengths" json:"strengths"`
	Recommendations string `db:"recommendations" json:"recommendations"`

	TotalA float64 `db:"total_a" json:"total_a"`
	TotalB float64 `db:"total_b" json:"total_b"`
	TotalC float64 `db:"total_c" json:"total_c"`
	Total  float64 `db:"total" json:"total"`

	SubmittedAt time.Time `db:"submitted_at" json:"submitted_at"`
}

// JudgeScoreBreakdown exposes one judge's totals for report display.
type JudgeScoreBreakdown struct {
	JudgeID         string          `json:"judge_id"`
	JudgeName       string          `json:"judge_name"`
	Section         Section         `json:"section"`
	Scores          CriterionScores `json:"scores"`
	Strengths       string          `json:"strengths"`
	Recommendations string          `json:"recommendations"`
	TotalA          float64         `json:"total_a"`
	TotalB          float64         `json:"total_b"`
	TotalC          float64         `json:"total_c"`
	Total           float64         `json:"total"`
}

// ProjectScoreSummary is the aggregate of all four judge score sheets.
type ProjectScoreSummary struct {
	ProjectID       string                `json:"project_id"`
	Breakdowns      []JudgeScoreBreakdown `json:"individual_scores"`
	AverageScoreA   float64               `json:"average_score_a"`
	AverageScoreB   float64               `json:"average_score_b"`
	AverageScoreC   float64               `json:"average_score_c"`
	FinalTotalScore float64               `json:"final_total_score"`
}

// JudgeSlotStatus reports whether an assigned judge has submitted a sheet.
type JudgeSlotStatus struct {
	JudgeID   string `json:"judge_id"`
	JudgeName string `json:"judge_name"`
	HasScored bool   `json:"has_scored"`
}

// ProjectJudgingStatus summarises a project's judging progress.
type ProjectJudgingStatus struct {
	ProjectID    string            `json:"project_id"`
	Title        string            `json:"title"`
	Status       ProjectStatus     `json:"status"`
	JudgesA      []JudgeSlotStatus `json:"judges_a"`
	JudgesBC     []JudgeSlotStatus `json:"judges_bc"`
	SheetsScored int               `json:"sheets_scored"`
	SheetsNeeded int               `json:"sheets_needed"`
}

// CategoryJudgingStatus groups project progress per category for dashboards.
type CategoryJudgingStatus struct {
	Category          string                 `json:"category"`
	TotalProjects     int                    `json:"total_projects"`
	CompletedProjects int                    `json:"completed_projects"`
	Projects          []ProjectJudgingStatus `json:"projects"`
}
