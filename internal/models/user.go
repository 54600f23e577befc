package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// UserRole represents the administrative hierarchy of the fair.
type UserRole string

const (
	RoleSuperAdmin     UserRole = "SUPERADMIN"
	RoleNationalAdmin  UserRole = "NATIONAL_ADMIN"
	RoleRegionalAdmin  UserRole = "REGIONAL_ADMIN"
	RoleCountyAdmin    UserRole = "COUNTY_ADMIN"
	RoleSubCountyAdmin UserRole = "SUBCOUNTY_ADMIN"
	RoleJudge          UserRole = "JUDGE"
	RoleCoordinator    UserRole = "COORDINATOR"
	RolePatron         UserRole = "PATRON"
)

// Admin reports whether the role sits in the administrative hierarchy.
func (r UserRole) Admin() bool {
	switch r {
	case RoleSuperAdmin, RoleNationalAdmin, RoleRegionalAdmin, RoleCountyAdmin, RoleSubCountyAdmin:
		return true
	default:
		return false
	}
}

// ScopeField names a geographic field a role must carry.
type ScopeField string

const (
	ScopeRegion    ScopeField = "assigned_region"
	ScopeCounty    ScopeField = "assigned_county"
	ScopeSubCounty ScopeField = "assigned_sub_county"
)

// roleScopeFields is the single source of truth for which geographic fields
// are mandatory per role. Validation and eligibility both consult it.
var roleScopeFields = map[UserRole][]ScopeField{
	RoleRegionalAdmin:  {ScopeRegion},
	RoleCountyAdmin:    {ScopeRegion, ScopeCounty},
	RoleSubCountyAdmin: {ScopeRegion, ScopeCounty, ScopeSubCounty},
}

// RequiredScopeFields returns the geographic fields a role must populate.
// Roles without a scoped assignment (judges may be national) return nil.
func RequiredScopeFields(role UserRole) []ScopeField {
	return roleScopeFields[role]
}

// Section identifies a scoring section. Section A covers the written report;
// Section BC covers the oral presentation and scientific merit combined.
type Section string

const (
	SectionA  Section = "A"
	SectionBC Section = "BC"
)

// Valid reports whether the section is known.
func (s Section) Valid() bool {
	return s == SectionA || s == SectionBC
}

// JudgeSectionAssignment declares which category and section a judge may
// score. A judge holds at most one assignment per (category, section).
type JudgeSectionAssignment struct {
	Category string  `json:"category"`
	Section  Section `json:"section"`
}

// JudgeSectionAssignments is persisted as a JSONB column.
type JudgeSectionAssignments []JudgeSectionAssignment

// Value implements driver.Valuer.
func (a JudgeSectionAssignments) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal judge assignments: %w", err)
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (a *JudgeSectionAssignments) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported judge assignments type %T", src)
	}
	return json.Unmarshal(raw, a)
}

// Matches reports whether any held assignment covers the category/section.
func (a JudgeSectionAssignments) Matches(category string, section Section) bool {
	for _, assignment := range a {
		if assignment.Category == category && assignment.Section == section {
			return true
		}
	}
	return false
}

// User represents any participant in the judging hierarchy.
type User struct {
	ID           string   `db:"id" json:"id"`
	Email        string   `db:"email" json:"email"`
	PasswordHash string   `db:"password_hash" json:"-"`
	FullName     string   `db:"full_name" json:"full_name"`
	Role         UserRole `db:"role" json:"role"`
	Active       bool     `db:"active" json:"active"`

	IDNumber    *string `db:"id_number" json:"id_number,omitempty"`
	TSCNumber   *string `db:"tsc_number" json:"tsc_number,omitempty"`
	School      *string `db:"school" json:"school,omitempty"`
	PhoneNumber *string `db:"phone_number" json:"phone_number,omitempty"`

	// Judge-specific.
	Assignments JudgeSectionAssignments `db:"assignments" json:"assignments,omitempty"`
	// Coordinator-specific.
	CoordinatorCategory *string `db:"coordinator_category" json:"coordinator_category,omitempty"`
	// Admin/judge geographic scope. A judge with no assigned region is a
	// national judge.
	AssignedRegion    *string `db:"assigned_region" json:"assigned_region,omitempty"`
	AssignedCounty    *string `db:"assigned_county" json:"assigned_county,omitempty"`
	AssignedSubCounty *string `db:"assigned_sub_county" json:"assigned_sub_county,omitempty"`

	LastLogin *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// SchoolName returns the judge's school or empty when unset.
func (u *User) SchoolName() string {
	if u.School == nil {
		return ""
	}
	return *u.School
}

// National reports whether the user carries national geographic scope:
// either an explicit "National" region or no region at all.
func (u *User) National() bool {
	return u.AssignedRegion == nil || *u.AssignedRegion == "" || *u.AssignedRegion == "National"
}

// MissingScopeFields returns the mandatory geographic fields the user has not
// populated for their role.
func (u *User) MissingScopeFields() []ScopeField {
	var missing []ScopeField
	for _, field := range RequiredScopeFields(u.Role) {
		var set bool
		switch field {
		case ScopeRegion:
			set = u.AssignedRegion != nil && *u.AssignedRegion != ""
		case ScopeCounty:
			set = u.AssignedCounty != nil && *u.AssignedCounty != ""
		case ScopeSubCounty:
			set = u.AssignedSubCounty != nil && *u.AssignedSubCounty != ""
		}
		if !set {
			missing = append(missing, field)
		}
	}
	return missing
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role     UserRole
	Active   *bool
	Region   string
	County   string
	School   string
	Search   string
	Page     int
	PageSize int
}

// Scope is the acting user's explicit authority, passed to every scoped
// operation instead of reading an ambient session.
type Scope struct {
	UserID    string
	Role      UserRole
	Region    string
	County    string
	SubCounty string
}

// ScopeFromUser builds a Scope from a loaded user record.
func ScopeFromUser(u *User) Scope {
	scope := Scope{UserID: u.ID, Role: u.Role}
	if u.AssignedRegion != nil {
		scope.Region = *u.AssignedRegion
	}
	if u.AssignedCounty != nil {
		scope.County = *u.AssignedCounty
	}
	if u.AssignedSubCounty != nil {
		scope.SubCounty = *u.AssignedSubCounty
	}
	return scope
}
