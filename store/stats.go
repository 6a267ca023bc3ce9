package store

import (
	"context"
	"strings"
	"time"
)

// DailyCount is the number of registrations on one UTC calendar day.
type DailyCount struct {
	Date  string `json:"d"` // YYYY-MM-DD
	Count int    `json:"c"`
}

// AgentCount is the number of visitors whose user agent falls in a category.
type AgentCount struct {
	Agent string `json:"agent"`
	Count int    `json:"count"`
}

// Agent categories.
const (
	AgentEdge    = "Edge"
	AgentChrome  = "Chrome"
	AgentFirefox = "Firefox"
	AgentSafari  = "Safari"
	AgentOther   = "Other"
)

// agentRules are checked in order against the lowercased user agent; the
// first token found wins. Edge sends both "Edg" and "Chrome", Chrome sends
// "Safari", so the order is load-bearing.
var agentRules = []struct {
	token string
	agent string
}{
	{"edg", AgentEdge},
	{"chrome", AgentChrome},
	{"firefox", AgentFirefox},
	{"safari", AgentSafari},
}

// CategorizeAgent maps a user agent string to its browser category. It is
// the Go form of the CASE expression used by AgentCounts.
func CategorizeAgent(ua string) string {
	ua = strings.ToLower(ua)
	for _, r := range agentRules {
		if strings.Contains(ua, r.token) {
			return r.agent
		}
	}
	return AgentOther
}

func agentCaseSQL() string {
	var b strings.Builder
	b.WriteString("CASE")
	for _, r := range agentRules {
		b.WriteString(" WHEN lower(coalesce(user_agent, '')) LIKE '%" + r.token + "%' THEN '" + r.agent + "'")
	}
	b.WriteString(" ELSE '" + AgentOther + "' END")
	return b.String()
}

// dayExpr renders created_at as a UTC YYYY-MM-DD string.
func (s *Store) dayExpr() string {
	if s.dialect == DialectPostgres {
		return `to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD')`
	}
	return `strftime('%Y-%m-%d', created_at)`
}

// DailyCounts groups visitors created at or after since by UTC day, oldest
// first. Days without registrations are absent.
func (s *Store) DailyCounts(ctx context.Context, since time.Time) ([]DailyCount, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT `+s.dayExpr()+` AS d, COUNT(*) AS c
		FROM visitors
		WHERE created_at >= ?
		GROUP BY 1
		ORDER BY 1 ASC`), since.UTC())
	if err != nil {
		return nil, unavailable("daily counts", err)
	}
	defer rows.Close()

	result := []DailyCount{}
	for rows.Next() {
		var dc DailyCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, unavailable("scan daily count", err)
		}
		result = append(result, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("daily counts", err)
	}
	return result, nil
}

// AgentCounts groups all visitors by browser category, largest first.
func (s *Store) AgentCounts(ctx context.Context) ([]AgentCount, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+agentCaseSQL()+` AS agent, COUNT(*) AS n
		FROM visitors
		GROUP BY 1
		ORDER BY 2 DESC, 1 ASC`)
	if err != nil {
		return nil, unavailable("agent counts", err)
	}
	defer rows.Close()

	result := []AgentCount{}
	for rows.Next() {
		var ac AgentCount
		if err := rows.Scan(&ac.Agent, &ac.Count); err != nil {
			return nil, unavailable("scan agent count", err)
		}
		result = append(result, ac)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("agent counts", err)
	}
	return result, nil
}
