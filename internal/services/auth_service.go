package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"event_staffing_backend/internal/models"
	"event_staffing_backend/internal/repositories"
	"event_staffing_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// --- Custom Service Errors ---
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameExists     = fmt.Errorf("%w: username or email already exists", ErrStateConflict)
	ErrRoleNotFound       = fmt.Errorf("%w: specified role not found", ErrValidation)
	ErrUserNotFound       = fmt.Errorf("%w: user", ErrNotFound)
)

// --- Data Transfer Objects (DTOs) ---

// LoginRequest DTO
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CreateUserRequest DTO
type CreateUserRequest struct {
	Username string  `json:"username" binding:"required"`
	Password string  `json:"password" binding:"required,min=8"`
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
	RoleName string  `json:"role_name"` // "Admin" or "Staff"; defaults to Staff
}

// AuthResponse DTO
type AuthResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
}

// --- AuthService Interface ---
type AuthService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error)
	LoginUser(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	GetUserProfile(ctx context.Context, userID int64) (*models.User, error)
}

type authService struct {
	authRepo repositories.AuthRepository
	db       *sql.DB
}

// NewAuthService creates a new instance of AuthService. Tokens are signed
// with the key set through utils.ConfigureJWT.
func NewAuthService(authRepo repositories.AuthRepository, db *sql.DB) AuthService {
	return &authService{authRepo: authRepo, db: db}
}

func (s *authService) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	if utils.IsEmpty(req.Username) {
		return nil, validationError("username is required")
	}
	if len(req.Password) < 8 {
		return nil, validationError("password must be at least 8 characters")
	}
	roleName := req.RoleName
	if roleName == "" {
		roleName = models.RoleStaff
	}

	role, err := s.authRepo.FindRoleByName(ctx, s.db, roleName)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: '%s'", ErrRoleNotFound, roleName)
		}
		return nil, fmt.Errorf("failed to resolve role: %w", err)
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Username: strings.TrimSpace(req.Username),
		Email:    req.Email,
		FullName: req.FullName,
		RoleID:   &role.ID,
	}
	createdUserID, err := s.authRepo.CreateUser(ctx, s.db, &user, string(hashedPasswordBytes))
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrUsernameExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	created, err := s.authRepo.FindUserByID(ctx, createdUserID)
	if err != nil {
		return nil, fmt.Errorf("user created but failed to retrieve full details: %w", err)
	}
	return created, nil
}

// LoginUser handles user login and token generation.
func (s *authService) LoginUser(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, storedHashedPassword, err := s.authRepo.FindUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login attempt failed: %w", err)
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(storedHashedPassword), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	roleName := ""
	if user.Role != nil {
		roleName = user.Role.Name
	}
	accessToken, err := utils.GenerateAccessToken(user.ID, user.Username, roleName)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &AuthResponse{User: user, AccessToken: accessToken}, nil
}

// GetUserProfile retrieves a user's profile by their ID.
func (s *authService) GetUserProfile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.authRepo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user profile: %w", err)
	}
	return user, nil
}
