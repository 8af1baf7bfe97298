package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"notebookService/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, email, password_hash, role, privileges, picture, created_at, updated_at`

// Create inserts a new user. Missing id, role, privileges and picture take their
// defaults. A taken username or email yields ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if u == nil {
		return nil, errors.New("user is nil")
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = models.DefaultRole
	}
	if len(u.Privileges) == 0 {
		u.Privileges = append([]string(nil), models.DefaultPrivileges...)
	}
	if u.Picture == "" {
		u.Picture = models.DefaultPicture
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = models.Now()
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}
	privileges, err := encodeList(u.Privileges)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	_, err = r.db.ExecContext(ctx, `INSERT INTO users (`+userColumns+`) VALUES (?,?,?,?,?,?,?,?,?)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Role, privileges, u.Picture, formatTime(u.CreatedAt), formatTime(u.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create user %q: %w", u.Username, ErrDuplicate)
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// Update persists the mutable profile fields of u and stamps updated_at.
func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	if u == nil {
		return errors.New("user is nil")
	}
	u.UpdatedAt = models.Now()
	privileges, err := encodeList(u.Privileges)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	_, err = r.db.ExecContext(ctx, `UPDATE users SET email = ?, password_hash = ?, role = ?, privileges = ?, picture = ?, updated_at = ? WHERE id = ?`,
		u.Email, u.PasswordHash, u.Role, privileges, u.Picture, formatTime(u.UpdatedAt), u.ID)
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("update user %q: %w", u.Username, ErrDuplicate)
	}
	return err
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var privileges, created, updated string
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &privileges, &u.Picture, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if u.Privileges, err = decodeList(privileges); err != nil {
		return nil, err
	}
	if u.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &u, nil
}
