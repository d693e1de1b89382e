package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"victoweb/domain"
)

const userColumns = "id, username, full_name, first_name, last_name, phone, admin_role, is_staff, password_hash, created_at"

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User
	var role string
	err := row.Scan(&u.ID, &u.Username, &u.FullName, &u.FirstName, &u.LastName, &u.Phone, &role, &u.IsStaff, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	u.AdminRole = domain.NormalizeRole(role)
	return u, nil
}

// CreateUser persists a new account. The role is normalized before write.
func (s *Store) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	u.Username = strings.TrimSpace(u.Username)
	u.AdminRole = domain.NormalizeRole(string(u.AdminRole))
	u.CreatedAt = time.Now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, full_name, first_name, last_name, phone, admin_role, is_staff, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.FullName, u.FirstName, u.LastName, u.Phone, string(u.AdminRole), u.IsStaff, u.PasswordHash, u.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return domain.User{}, ErrUsernameTaken
		}
		return domain.User{}, err
	}
	u.ID, err = res.LastInsertId()
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (s *Store) UserByID(ctx context.Context, id int64) (domain.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

func (s *Store) UserByUsername(ctx context.Context, username string) (domain.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE username = ?", strings.TrimSpace(username))
	return scanUser(row)
}

// StaffUsers lists staff accounts ordered by display fields, for the
// assignment dropdown in the admin hub.
func (s *Store) StaffUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE is_staff = 1 ORDER BY full_name, username")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

// DeleteUser removes an account. A user still referenced as a task creator
// cannot be deleted; task assignments are cleared instead of blocking, and
// the user's chat messages cascade away.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	var created int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chat_tasks WHERE created_by = ?", id).Scan(&created); err != nil {
		return err
	}
	if created > 0 {
		return ErrCreatorReferenced
	}
	if _, err := s.db.ExecContext(ctx, "UPDATE chat_tasks SET assigned_to = NULL WHERE assigned_to = ?", id); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
