package store

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const userColumns = `id, email, full_name, password_hash, email_confirmed, created_at, updated_at`

func (s *Store) CreateUser(email, fullName, passwordHash string, confirmed bool) (*User, error) {
	now := formatTime(time.Now())
	id := uuid.NewString()
	_, err := s.exec(
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, normalizeEmail(email), fullName, passwordHash, boolToInt(confirmed), now, now,
	)
	if err != nil {
		return nil, wrap("create user", err)
	}
	return s.GetUser(id)
}

func (s *Store) GetUser(id string) (*User, error) {
	u, err := scanUser(s.queryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return nil, wrap("get user", err)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(email string) (*User, error) {
	u, err := scanUser(s.queryRow(`SELECT `+userColumns+` FROM users WHERE email = ?`, normalizeEmail(email)))
	if err != nil {
		return nil, wrap("get user by email", err)
	}
	return u, nil
}

func (s *Store) UpdateProfile(id, fullName, email string) (*User, error) {
	res, err := s.exec(
		`UPDATE users SET full_name = ?, email = ?, updated_at = ? WHERE id = ?`,
		fullName, normalizeEmail(email), formatTime(time.Now()), id,
	)
	if err := checkAffected("update profile", res, err); err != nil {
		return nil, err
	}
	return s.GetUser(id)
}

func (s *Store) UpdatePasswordHash(id, hash string) error {
	res, err := s.exec(
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, formatTime(time.Now()), id,
	)
	return checkAffected("update password", res, err)
}

func (s *Store) ConfirmEmail(email string) error {
	res, err := s.exec(
		`UPDATE users SET email_confirmed = 1, updated_at = ? WHERE email = ?`,
		formatTime(time.Now()), normalizeEmail(email),
	)
	return checkAffected("confirm email", res, err)
}

// DeleteUser removes the user and every row they own.
func (s *Store) DeleteUser(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return wrap("delete user", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"journal_entries", "events", "user_settings"} {
		if _, err := tx.Exec(s.rebind(`DELETE FROM `+table+` WHERE user_id = ?`), id); err != nil {
			return wrap("delete user", err)
		}
	}
	res, err := tx.Exec(s.rebind(`DELETE FROM users WHERE id = ?`), id)
	if err := checkAffected("delete user", res, err); err != nil {
		return err
	}
	return wrap("delete user", tx.Commit())
}

func scanUser(row scanner) (*User, error) {
	u := &User{}
	var confirmed int64
	var createdAt, updatedAt string
	if err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &confirmed, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	u.EmailConfirmed = confirmed != 0
	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkAffected(op string, res interface{ RowsAffected() (int64, error) }, err error) error {
	if err != nil {
		return wrap(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap(op, err)
	}
	if n == 0 {
		return wrap(op, ErrNotFound)
	}
	return nil
}
