package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eringen/portfoliogate/store"
)

// Source is the persistence the service reads from. *store.Store satisfies it.
type Source interface {
	SearchVisitors(ctx context.Context, query string, limit int) ([]store.Visitor, error)
	CountVisitors(ctx context.Context, since time.Time) (int, error)
	DailyCounts(ctx context.Context, since time.Time) ([]store.DailyCount, error)
	AgentCounts(ctx context.Context) ([]store.AgentCount, error)
}

// Service answers the admin dashboard queries.
type Service struct {
	src Source
	now func() time.Time
}

// NewService creates a Service reading from src.
func NewService(src Source) *Service {
	return &Service{src: src, now: time.Now}
}

// Search returns up to PageSize visitors, newest first, filtered by a
// case-insensitive substring of name, email or phone when query is not blank.
func (s *Service) Search(ctx context.Context, query string) ([]store.Visitor, error) {
	return s.src.SearchVisitors(ctx, strings.TrimSpace(query), PageSize)
}

// Summary counts all visitors and those of the trailing 7 and 30 days. The
// three counts run concurrently and are not a consistent snapshot.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	now := s.now().UTC()
	var sum Summary

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.src.CountVisitors(ctx, time.Time{})
		if err != nil {
			return fmt.Errorf("count total: %w", err)
		}
		sum.Total = n
		return nil
	})
	g.Go(func() error {
		n, err := s.src.CountVisitors(ctx, now.AddDate(0, 0, -7))
		if err != nil {
			return fmt.Errorf("count last 7 days: %w", err)
		}
		sum.Last7 = n
		return nil
	})
	g.Go(func() error {
		n, err := s.src.CountVisitors(ctx, now.AddDate(0, 0, -30))
		if err != nil {
			return fmt.Errorf("count last 30 days: %w", err)
		}
		sum.Last30 = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return sum, nil
}

// Daily returns registrations per UTC day, ascending, for the window that
// starts at midnight days days ago (clamped to [1, MaxDays]). With fill, days
// without registrations appear with a zero count; otherwise they are absent.
func (s *Service) Daily(ctx context.Context, days int, fill bool) ([]store.DailyCount, error) {
	now := s.now().UTC()
	from := dailyWindowStart(now, ClampDays(days))

	counts, err := s.src.DailyCounts(ctx, from)
	if err != nil {
		return nil, err
	}
	if fill {
		return fillDaily(counts, from, now), nil
	}
	return counts, nil
}

// Agents returns visitor counts per browser category, largest first.
func (s *Service) Agents(ctx context.Context) ([]store.AgentCount, error) {
	return s.src.AgentCounts(ctx)
}
