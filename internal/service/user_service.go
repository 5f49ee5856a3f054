package service

import (
	"context"
	"errors"
	"time"

	"go-fuelstation-pos/internal/model"
	"go-fuelstation-pos/internal/repository"
	"go-fuelstation-pos/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrEmailExists = errors.New("email already exists")
)

type UserService interface {
	CreateUser(ctx context.Context, actor Actor, req *CreateUserRequest) (*model.User, error)
	UpdateUser(ctx context.Context, actor Actor, userID uuid.UUID, req *UpdateUserRequest) (*model.User, error)
	DeleteUser(ctx context.Context, actor Actor, userID uuid.UUID) error
	UpdateUserPrivileges(ctx context.Context, actor Actor, userID uuid.UUID, privilegeCodes []string) (*model.User, error)
	GetAllUsers(ctx context.Context, actor Actor) ([]model.UserResponse, error)
	GetUserByID(ctx context.Context, actor Actor, id uuid.UUID) (*model.UserResponse, error)
}

type CreateUserRequest struct {
	Email       string     `json:"email" validate:"required,email"`
	Password    string     `json:"password" validate:"required,min=6"`
	FullName    string     `json:"full_name" validate:"required"`
	PhoneNumber string     `json:"phone_number"`
	BirthDate   *string    `json:"birth_date"` // Format: YYYY-MM-DD
	RoleID      uint       `json:"role_id" validate:"required"`
	StationID   *uuid.UUID `json:"station_id"` // required for MANAGER and STAFF
}

type UpdateUserRequest struct {
	Email       string     `json:"email" validate:"required,email"`
	Password    *string    `json:"password,omitempty" validate:"omitempty,min=6"`
	FullName    string     `json:"full_name" validate:"required"`
	PhoneNumber string     `json:"phone_number"`
	BirthDate   *string    `json:"birth_date"`
	RoleID      uint       `json:"role_id" validate:"required"`
	StationID   *uuid.UUID `json:"station_id"`
	IsActive    *bool      `json:"is_active"`
}

type userService struct {
	db            *gorm.DB
	userRepo      repository.UserRepository
	privilegeRepo repository.PrivilegeRepository
	roleRepo      repository.RoleRepository
	auditRepo     repository.AuditRepository
	log           *zap.Logger
}

func NewUserService(db *gorm.DB, userRepo repository.UserRepository, privilegeRepo repository.PrivilegeRepository,
	roleRepo repository.RoleRepository, auditRepo repository.AuditRepository, log *zap.Logger) UserService {
	return &userService{
		db:            db,
		userRepo:      userRepo,
		privilegeRepo: privilegeRepo,
		roleRepo:      roleRepo,
		auditRepo:     auditRepo,
		log:           log.Named("user"),
	}
}

func parseBirthDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	parsed, err := time.Parse(model.DateLayout, *s)
	if err != nil {
		return nil, invalid("invalid birth_date format, use YYYY-MM-DD")
	}
	return &parsed, nil
}

// checkStation enforces that every non-admin account belongs to a station
func (s *userService) checkStation(ctx context.Context, role *model.Role, stationID *uuid.UUID) error {
	if role.Code == model.RoleAdmin {
		return nil
	}
	if stationID == nil || *stationID == uuid.Nil {
		return invalid("%s users must be assigned to a station", role.Code)
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Station{}).Where("id = ?", *stationID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return notFound("station", gorm.ErrRecordNotFound)
	}
	return nil
}

func (s *userService) CreateUser(ctx context.Context, actor Actor, req *CreateUserRequest) (*model.User, error) {
	if err := validationError(validator.ValidateStruct(req)); err != nil {
		return nil, err
	}

	existing, _ := s.userRepo.FindByEmail(ctx, req.Email)
	if existing != nil {
		return nil, ErrEmailExists
	}

	role, err := s.roleRepo.FindByID(ctx, req.RoleID)
	if err != nil {
		return nil, notFound("role", err)
	}
	if err := s.checkStation(ctx, role, req.StationID); err != nil {
		return nil, err
	}
	birthDate, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:       req.Email,
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		BirthDate:   birthDate,
		RoleID:      &req.RoleID,
		IsActive:    true,
		Privileges:  role.Privileges,
	}
	if role.Code != model.RoleAdmin {
		user.StationID = req.StationID
	}
	user.CreatedBy = actor.ID()
	user.UpdatedBy = actor.ID()
	if err := user.SetPassword(req.Password); err != nil {
		return nil, errors.New("failed to hash password")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewUserRepo(tx).Create(ctx, user); err != nil {
			return err
		}
		return appendAudit(tx, s.auditRepo, actor, model.AuditUserCreate, "user", user.ID.String(), nil, user.ToResponse())
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user created", zap.String("user_id", user.ID.String()), zap.String("role", role.Code))
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, actor Actor, userID uuid.UUID, req *UpdateUserRequest) (*model.User, error) {
	if err := validationError(validator.ValidateStruct(req)); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	before := user.ToResponse()

	if req.Email != user.Email {
		existing, _ := s.userRepo.FindByEmail(ctx, req.Email)
		if existing != nil {
			return nil, ErrEmailExists
		}
	}

	role, err := s.roleRepo.FindByID(ctx, req.RoleID)
	if err != nil {
		return nil, notFound("role", err)
	}
	if err := s.checkStation(ctx, role, req.StationID); err != nil {
		return nil, err
	}
	birthDate, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return nil, err
	}

	user.Email = req.Email
	user.FullName = req.FullName
	user.PhoneNumber = req.PhoneNumber
	user.BirthDate = birthDate
	user.RoleID = &req.RoleID
	user.Role = role
	user.StationID = nil
	if role.Code != model.RoleAdmin {
		user.StationID = req.StationID
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	user.UpdatedBy = actor.ID()
	if req.Password != nil && *req.Password != "" {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, errors.New("failed to hash password")
		}
	}
	user.Privileges = role.Privileges

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := repository.NewUserRepo(tx)
		if err := users.Update(ctx, user); err != nil {
			return err
		}
		if err := users.ReplacePrivileges(ctx, user.ID, role.Privileges); err != nil {
			return err
		}
		return appendAudit(tx, s.auditRepo, actor, model.AuditUserUpdate, "user", user.ID.String(), before, user.ToResponse())
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user updated", zap.String("user_id", userID.String()))
	return s.userRepo.FindByID(ctx, userID)
}

func (s *userService) DeleteUser(ctx context.Context, actor Actor, userID uuid.UUID) error {
	if actor.UserID == userID {
		return invalid("you cannot delete your own account")
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return ErrUserNotFound
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewUserRepo(tx).Delete(ctx, userID, actor.ID()); err != nil {
			return err
		}
		return appendAudit(tx, s.auditRepo, actor, model.AuditUserDelete, "user", userID.String(), user.ToResponse(), nil)
	})
	if err != nil {
		return err
	}
	s.log.Info("user deleted", zap.String("user_id", userID.String()))
	return nil
}

func (s *userService) UpdateUserPrivileges(ctx context.Context, actor Actor, userID uuid.UUID, privilegeCodes []string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	before := user.GetPrivilegeCodes()

	privileges, err := s.privilegeRepo.FindByCodes(ctx, privilegeCodes)
	if err != nil {
		return nil, errors.New("failed to find privileges")
	}
	if len(privileges) != len(privilegeCodes) {
		return nil, invalid("unknown privilege code in %v", privilegeCodes)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewUserRepo(tx).ReplacePrivileges(ctx, userID, privileges); err != nil {
			return err
		}
		if err := tx.Model(&model.User{}).Where("id = ?", userID).Update("updated_by", actor.ID()).Error; err != nil {
			return err
		}
		return appendAudit(tx, s.auditRepo, actor, model.AuditUserPrivileges, "user", userID.String(), before, privilegeCodes)
	})
	if err != nil {
		return nil, err
	}

	return s.userRepo.FindByID(ctx, userID)
}

// GetAllUsers lists every user for admins and the station's users for managers
func (s *userService) GetAllUsers(ctx context.Context, actor Actor) ([]model.UserResponse, error) {
	scope, err := actor.scopeStation(nil)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.List(ctx, scope)
	if err != nil {
		return nil, err
	}

	responses := make([]model.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses, nil
}

func (s *userService) GetUserByID(ctx context.Context, actor Actor, id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !actor.IsAdmin() && actor.UserID != id {
		if user.StationID == nil || !actor.CanAccess(*user.StationID) {
			return nil, ErrUserNotFound
		}
	}
	response := user.ToResponse()
	return &response, nil
}
