package store

import (
	"context"
	"time"
)

// SaveSession writes the encoded values of session id, replacing any
// previous record. One statement, so a session is never half written.
func (s *Store) SaveSession(ctx context.Context, id, data string, expiresAt time.Time) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO sessions (id, data, expires_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at`),
		id, data, expiresAt.UTC(),
	)
	return unavailable("save session", err)
}

// LoadSession returns the encoded values of an unexpired session, or
// ErrNotFound.
func (s *Store) LoadSession(ctx context.Context, id string) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var data string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT data FROM sessions WHERE id = ? AND expires_at > ?`), id, time.Now().UTC()).
		Scan(&data)
	if err != nil {
		return "", unavailable("load session", err)
	}
	return data, nil
}

// DeleteSession removes a session. Deleting a missing session is not an error.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM sessions WHERE id = ?`), id)
	return unavailable("delete session", err)
}

// DeleteExpiredSessions removes sessions that expired before now and returns
// how many were removed.
func (s *Store) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM sessions WHERE expires_at <= ?`), time.Now().UTC())
	if err != nil {
		return 0, unavailable("delete expired sessions", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, unavailable("delete expired sessions", err)
	}
	return n, nil
}

// StartCleanupScheduler deletes expired sessions every interval until the
// returned stop function is called. Errors are passed to onErr.
func (s *Store) StartCleanupScheduler(interval time.Duration, onErr func(error)) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				if _, err := s.DeleteExpiredSessions(context.Background()); err != nil && onErr != nil {
					onErr(err)
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() { close(done) }
}
