package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ksef-kenya/judging-api/internal/models"
	"github.com/ksef-kenya/judging-api/internal/reference"
	appErrors "github.com/ksef-kenya/judging-api/pkg/errors"
)

type userRepo interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
}

// CreateUserRequest registers a user in the hierarchy.
type CreateUserRequest struct {
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required,min=6"`
	FullName string          `json:"full_name" validate:"required"`
	Role     models.UserRole `json:"role" validate:"required"`

	IDNumber    *string `json:"id_number,omitempty"`
	TSCNumber   *string `json:"tsc_number,omitempty"`
	School      *string `json:"school,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`

	Assignments         models.JudgeSectionAssignments `json:"assignments,omitempty"`
	CoordinatorCategory *string                        `json:"coordinator_category,omitempty"`
	AssignedRegion      *string                        `json:"assigned_region,omitempty"`
	AssignedCounty      *string                        `json:"assigned_county,omitempty"`
	AssignedSubCounty   *string                        `json:"assigned_sub_county,omitempty"`
}

// UpdateUserRequest mutates profile, scope or judging assignments.
type UpdateUserRequest struct {
	FullName *string `json:"full_name,omitempty"`
	Active   *bool   `json:"active,omitempty"`

	School      *string `json:"school,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`

	Assignments         models.JudgeSectionAssignments `json:"assignments,omitempty"`
	CoordinatorCategory *string                        `json:"coordinator_category,omitempty"`
	AssignedRegion      *string                        `json:"assigned_region,omitempty"`
	AssignedCounty      *string                        `json:"assigned_county,omitempty"`
	AssignedSubCounty   *string                        `json:"assigned_sub_county,omitempty"`
}

// UserService manages accounts across the eight-role hierarchy.
type UserService struct {
	users     userRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(users userRepo, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, validator: validate, logger: logger}
}

// Create registers a new account. Roles carrying mandatory geographic scope
// must populate every required field; judge section assignments must name
// known categories and must not repeat a (category, section) pair.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email is already registered")
	}

	user := &models.User{
		Email:               strings.ToLower(strings.TrimSpace(req.Email)),
		FullName:            strings.TrimSpace(req.FullName),
		Role:                req.Role,
		Active:              true,
		IDNumber:            req.IDNumber,
		TSCNumber:           req.TSCNumber,
		School:              req.School,
		PhoneNumber:         req.PhoneNumber,
		Assignments:         req.Assignments,
		CoordinatorCategory: req.CoordinatorCategory,
		AssignedRegion:      req.AssignedRegion,
		AssignedCounty:      req.AssignedCounty,
		AssignedSubCounty:   req.AssignedSubCounty,
	}
	if err := validateRoleFields(user); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	user.PasswordHash = string(hash)

	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// validateRoleFields checks the role's mandatory scope fields and the
// role-specific attachments.
func validateRoleFields(user *models.User) error {
	if missing := user.MissingScopeFields(); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, field := range missing {
			names[i] = string(field)
		}
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("role %s requires %s", user.Role, strings.Join(names, ", ")))
	}

	if user.AssignedRegion != nil && *user.AssignedRegion != "" && *user.AssignedRegion != "National" {
		if _, ok := reference.FindRegion(*user.AssignedRegion); !ok {
			return appErrors.Clone(appErrors.ErrValidation, "unknown region")
		}
	}

	switch user.Role {
	case models.RoleJudge:
		if len(user.Assignments) == 0 {
			return appErrors.Clone(appErrors.ErrValidation, "judge requires at least one category/section assignment")
		}
		seen := make(map[string]bool, len(user.Assignments))
		for _, assignment := range user.Assignments {
			if !reference.ValidCategory(assignment.Category) {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown category %q", assignment.Category))
			}
			if !assignment.Section.Valid() {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown section %q", assignment.Section))
			}
			key := assignment.Category + "|" + string(assignment.Section)
			if seen[key] {
				return appErrors.Clone(appErrors.ErrValidation,
					fmt.Sprintf("duplicate assignment for %s section %s", assignment.Category, assignment.Section))
			}
			seen[key] = true
		}
	case models.RoleCoordinator:
		if user.CoordinatorCategory == nil || *user.CoordinatorCategory == "" {
			return appErrors.Clone(appErrors.ErrValidation, "coordinator requires an assigned category")
		}
		if !reference.ValidCategory(*user.CoordinatorCategory) {
			return appErrors.Clone(appErrors.ErrValidation, "unknown coordinator category")
		}
	}
	return nil
}

// Get loads one user.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "user not found", "failed to load user")
	}
	return user, nil
}

// List returns users narrowed to the requester's scope.
func (s *UserService) List(ctx context.Context, scope models.Scope, filter models.UserFilter) ([]models.User, error) {
	switch scope.Role {
	case models.RoleRegionalAdmin:
		filter.Region = scope.Region
	case models.RoleCountyAdmin:
		filter.Region = scope.Region
		filter.County = scope.County
	}
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, nil
}

// Update applies a partial mutation and revalidates role invariants.
func (s *UserService) Update(ctx context.Context, id string, req UpdateUserRequest) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "user not found", "failed to load user")
	}

	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Active != nil {
		user.Active = *req.Active
	}
	if req.School != nil {
		user.School = req.School
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = req.PhoneNumber
	}
	if req.Assignments != nil {
		user.Assignments = req.Assignments
	}
	if req.CoordinatorCategory != nil {
		user.CoordinatorCategory = req.CoordinatorCategory
	}
	if req.AssignedRegion != nil {
		user.AssignedRegion = req.AssignedRegion
	}
	if req.AssignedCounty != nil {
		user.AssignedCounty = req.AssignedCounty
	}
	if req.AssignedSubCounty != nil {
		user.AssignedSubCounty = req.AssignedSubCounty
	}
	user.UpdatedAt = time.Now().UTC()

	if err := validateRoleFields(user); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	return user, nil
}
