package store

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// Visitor is a person who submitted the registration form.
type Visitor struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	IP        string    `json:"ip,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// InsertVisitor stores v and returns its id. A zero CreatedAt is replaced by
// the current time.
func (s *Store) InsertVisitor(ctx context.Context, v Visitor) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	createdAt := v.CreatedAt.UTC().Truncate(time.Second)
	if v.CreatedAt.IsZero() {
		createdAt = now()
	}
	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO visitors (name, email, phone, user_agent, ip, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`),
		v.Name, v.Email, nullString(v.Phone), nullString(v.UserAgent), nullString(v.IP), createdAt,
	).Scan(&id)
	if err != nil {
		return 0, unavailable("insert visitor", err)
	}
	return id, nil
}

// SearchVisitors returns at most limit visitors, newest first. A non-empty
// query keeps rows whose name, email or phone contains it, ignoring case.
func (s *Store) SearchVisitors(ctx context.Context, query string, limit int) ([]Visitor, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	q := `SELECT id, name, email, phone, user_agent, ip, created_at FROM visitors`
	var args []any
	if query != "" {
		pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
		q += ` WHERE lower(name) LIKE ? ESCAPE '\'
			OR lower(email) LIKE ? ESCAPE '\'
			OR lower(coalesce(phone, '')) LIKE ? ESCAPE '\'`
		args = append(args, pattern, pattern, pattern)
	}
	q += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, s.rebind(q), args...)
	if err != nil {
		return nil, unavailable("search visitors", err)
	}
	defer rows.Close()

	visitors := []Visitor{}
	for rows.Next() {
		var v Visitor
		var phone, agent, ip sql.NullString
		if err := rows.Scan(&v.ID, &v.Name, &v.Email, &phone, &agent, &ip, &v.CreatedAt); err != nil {
			return nil, unavailable("scan visitor", err)
		}
		v.Phone, v.UserAgent, v.IP = phone.String, agent.String, ip.String
		v.CreatedAt = v.CreatedAt.UTC()
		visitors = append(visitors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("search visitors", err)
	}
	return visitors, nil
}

// CountVisitors counts visitors created at or after since. A zero since
// counts every row.
func (s *Store) CountVisitors(ctx context.Context, since time.Time) (int, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		n   int
		err error
	)
	if since.IsZero() {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM visitors`).Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM visitors WHERE created_at >= ?`), since.UTC()).Scan(&n)
	}
	if err != nil {
		return 0, unavailable("count visitors", err)
	}
	return n, nil
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
