package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ExportType enumerates supported asynchronous export categories.
type ExportType string

const (
	ExportTypeRanking  ExportType = "ranking"
	ExportTypeProjects ExportType = "projects"
)

// ExportJobStatus captures background job lifecycle states.
type ExportJobStatus string

const (
	ExportStatusQueued     ExportJobStatus = "QUEUED"
	ExportStatusProcessing ExportJobStatus = "PROCESSING"
	ExportStatusFinished   ExportJobStatus = "FINISHED"
	ExportStatusFailed     ExportJobStatus = "FAILED"
)

// ExportJob persisted background export metadata.
type ExportJob struct {
	ID           string          `db:"id" json:"id"`
	Type         ExportType      `db:"type" json:"type"`
	Params       ExportJobParams `db:"params" json:"params"`
	Status       ExportJobStatus `db:"status" json:"status"`
	Progress     int             `db:"progress" json:"progress"`
	ResultURL    *string         `db:"result_url" json:"result_url,omitempty"`
	CreatedBy    string          `db:"created_by" json:"created_by"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time      `db:"finished_at" json:"finished_at,omitempty"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
}

// ExportJobParams stores request-scoped options persisted as JSONB. The
// creator's scope is frozen at submission time so the rendered file matches
// what the requester was allowed to see.
type ExportJobParams struct {
	Level    CompetitionLevel `json:"level,omitempty"`
	Tier     string           `json:"tier,omitempty"`
	Category string           `json:"category,omitempty"`
	Status   ProjectStatus    `json:"status,omitempty"`
	Format   string           `json:"format"`
	Scope    ExportScope      `json:"scope"`
}

// ExportScope is the persisted snapshot of the creator's visibility.
type ExportScope struct {
	UserID    string   `json:"user_id"`
	Role      UserRole `json:"role"`
	Region    string   `json:"region,omitempty"`
	County    string   `json:"county,omitempty"`
	SubCounty string   `json:"sub_county,omitempty"`
}

// ToScope rebuilds the service-layer scope from the snapshot.
func (s ExportScope) ToScope() Scope {
	return Scope{UserID: s.UserID, Role: s.Role, Region: s.Region, County: s.County, SubCounty: s.SubCounty}
}

// SnapshotScope freezes a live scope into persistable form.
func SnapshotScope(scope Scope) ExportScope {
	return ExportScope{UserID: scope.UserID, Role: scope.Role, Region: scope.Region, County: scope.County, SubCounty: scope.SubCounty}
}

// Value marshals params to JSON for persistence.
func (p ExportJobParams) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal export job params: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the params struct.
func (p *ExportJobParams) Scan(value interface{}) error {
	if value == nil {
		*p = ExportJobParams{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported export job params type %T", value)
	}
	if len(data) == 0 {
		*p = ExportJobParams{}
		return nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("unmarshal export job params: %w", err)
	}
	return nil
}
