package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type userService struct {
	pool *pgxpool.Pool
}

// NewUserService constructs a UserService backed by PostgreSQL.
func NewUserService(pool *pgxpool.Pool) UserService {
	return &userService{pool: pool}
}

const userColumns = `id, name, employee_code, email, password_hash, role, is_active, created_at`

func scanUser(row pgx.Row) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.Name, &u.EmployeeCode, &u.Email, &u.PasswordHash,
		&u.Role, &u.IsActive, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *userService) Create(ctx context.Context, name, email, employeeCode, password string, role Role) (*User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &ValidationError{Field: "name", Msg: "is required"}
	}
	if strings.TrimSpace(email) == "" {
		return nil, &ValidationError{Field: "email", Msg: "is required"}
	}
	if len(password) < 6 {
		return nil, &ValidationError{Field: "password", Msg: "must be at least 6 characters"}
	}
	if role == "" {
		role = RoleFactory
	}
	if !role.Valid() {
		return nil, &ValidationError{Field: "role", Msg: fmt.Sprintf("unknown role %q", role)}
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)", email).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, &ValidationError{Field: "email", Msg: "already exists"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u, err := scanUser(s.pool.QueryRow(ctx, `
		INSERT INTO users (name, employee_code, email, password_hash, role, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, true, NOW())
		RETURNING `+userColumns,
		name, employeeCode, email, string(hash), role))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = $1 AND is_active = true", email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Resource: "user", Ref: email}
		}
		return nil, fmt.Errorf("failed to fetch user %s: %w", email, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, &ValidationError{Field: "password", Msg: "invalid credentials"}
	}
	return u, nil
}

func (s *userService) GetByID(ctx context.Context, userID int) (*User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Resource: "user", Ref: strconv.Itoa(userID)}
		}
		return nil, fmt.Errorf("failed to fetch user %d: %w", userID, err)
	}
	return u, nil
}

func (s *userService) ListWorkers(ctx context.Context) ([]User, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+userColumns+" FROM users WHERE role <> 'admin' AND is_active = true ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query workers: %w", err)
	}
	defer rows.Close()

	var workers []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan worker: %w", err)
		}
		workers = append(workers, *u)
	}
	return workers, rows.Err()
}

// Delete soft-deactivates a user so work-order history keeps resolving. Open
// orders stay assigned; only new issuance is blocked.
func (s *userService) Delete(ctx context.Context, userID, actingUserID int) error {
	if userID == actingUserID {
		return &ValidationError{Field: "user_id", Msg: "cannot delete yourself"}
	}
	tag, err := s.pool.Exec(ctx, "UPDATE users SET is_active = false WHERE id = $1", userID)
	if err != nil {
		return fmt.Errorf("failed to delete user %d: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Resource: "user", Ref: strconv.Itoa(userID)}
	}
	return nil
}
