package store

import (
	"context"
	"time"
)

// AdminCredential is a stored admin login. PasswordHash never leaves the
// server.
type AdminCredential struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// InsertAdmin creates an admin unless the username is taken. created reports
// whether a row was written.
func (s *Store) InsertAdmin(ctx context.Context, username, passwordHash string) (created bool, err error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO admins (username, password_hash, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (username) DO NOTHING`),
		username, passwordHash, now(),
	)
	if err != nil {
		return false, unavailable("insert admin", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, unavailable("insert admin", err)
	}
	return n == 1, nil
}

// AdminByUsername looks up an admin. It returns ErrNotFound when absent.
func (s *Store) AdminByUsername(ctx context.Context, username string) (AdminCredential, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var a AdminCredential
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT id, username, password_hash, created_at FROM admins WHERE username = ?`), username).
		Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		return AdminCredential{}, unavailable("admin by username", err)
	}
	return a, nil
}
