package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"event_staffing_backend/internal/models"
)

// AuthRepository defines the interface for authentication-related database operations.
type AuthRepository interface {
	CreateUser(ctx context.Context, executor SQLExecutor, user *models.User, hashedPassword string) (int64, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, string, error) // Returns User, HashedPassword, Error
	FindUserByID(ctx context.Context, userID int64) (*models.User, error)
	FindRoleByName(ctx context.Context, executor SQLExecutor, name string) (*models.Role, error)
}

type authRepository struct {
	db *sql.DB
}

// NewAuthRepository creates a new instance of AuthRepository.
func NewAuthRepository(db *sql.DB) AuthRepository {
	return &authRepository{db: db}
}

// CreateUser inserts a new user. IsActive is forced to true.
func (r *authRepository) CreateUser(ctx context.Context, executor SQLExecutor, user *models.User, hashedPassword string) (int64, error) {
	query := `INSERT INTO users (username, password_hash, email, full_name, role_id, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`

	currentTime := time.Now().UTC().Truncate(time.Second)

	var userID int64
	err := executor.QueryRowContext(ctx,
		query,
		user.Username,
		hashedPassword,
		user.Email,
		user.FullName,
		nullInt64(user.RoleID),
		true,
		currentTime,
		currentTime,
	).Scan(&userID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: username or email already taken %s", ErrDuplicateKey, constraintName(err))
		}
		if isForeignKeyViolation(err) {
			return 0, fmt.Errorf("%w: role", ErrForeignKey)
		}
		return 0, fmt.Errorf("%w: creating user: %v", ErrDatabaseError, err)
	}
	user.ID = userID
	user.IsActive = true
	user.CreatedAt = currentTime
	user.UpdatedAt = currentTime
	return userID, nil
}

const selectUser = `
		SELECT u.id, u.username, u.password_hash, u.email, u.full_name, u.role_id, u.is_active, u.created_at, u.updated_at,
		       ro.name
		FROM users u
		LEFT JOIN roles ro ON u.role_id = ro.id`

func scanUser(row scanner) (*models.User, string, error) {
	user := &models.User{}
	var hashedPassword string
	var roleName sql.NullString
	var roleID sql.NullInt64

	err := row.Scan(
		&user.ID, &user.Username, &hashedPassword, &user.Email, &user.FullName,
		&roleID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
		&roleName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("%w: scanning user: %v", ErrDatabaseError, err)
	}

	user.RoleID = int64Ptr(roleID)
	if roleID.Valid && roleName.Valid {
		user.Role = &models.Role{ID: roleID.Int64, Name: roleName.String}
	}
	return user, hashedPassword, nil
}

// FindUserByUsername retrieves a user by their username.
// It returns the user model, their hashed password, and an error if any.
func (r *authRepository) FindUserByUsername(ctx context.Context, username string) (*models.User, string, error) {
	return scanUser(r.db.QueryRowContext(ctx, selectUser+` WHERE u.username = $1`, username))
}

// FindUserByID retrieves a user by their ID. The password hash is not returned.
func (r *authRepository) FindUserByID(ctx context.Context, userID int64) (*models.User, error) {
	user, _, err := scanUser(r.db.QueryRowContext(ctx, selectUser+` WHERE u.id = $1`, userID))
	return user, err
}

func (r *authRepository) FindRoleByName(ctx context.Context, executor SQLExecutor, name string) (*models.Role, error) {
	var role models.Role
	err := executor.QueryRowContext(ctx, `SELECT id, name FROM roles WHERE name = $1`, name).Scan(&role.ID, &role.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding role %s: %v", ErrDatabaseError, name, err)
	}
	return &role, nil
}
