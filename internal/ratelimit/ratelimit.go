package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/sync/errgroup"
)

// Counter records verification attempts and counts them over sliding windows.
// Frequency rules read these counts through the evaluation context.
type Counter interface {
	Record(ctx context.Context, userID, businessType string, at time.Time) error
	Count(ctx context.Context, userID, businessType string, window time.Duration, now time.Time) (int, error)
}

// Counts returns the attempt count for each window (in seconds), keyed the way
// frequency rules look them up. Windows are counted concurrently and the first
// failure cancels the rest.
func Counts(ctx context.Context, c Counter, userID, businessType string, windows []int, now time.Time) (map[int]int, error) {
	g, ctx := errgroup.WithContext(ctx)

	results := make([]int, len(windows))
	for i, w := range windows {
		if w <= 0 {
			continue
		}
		g.Go(func() error {
			n, err := c.Count(ctx, userID, businessType, time.Duration(w)*time.Second, now)
			if err != nil {
				return err
			}
			results[i] = n
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	counts := make(map[int]int, len(windows))
	for i, w := range windows {
		if w > 0 {
			counts[w] = results[i]
		}
	}
	return counts, nil
}

// DB interface for database operations
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// PGCounter keeps one row per attempt in attempt_events.
type PGCounter struct {
	db        DB
	retention time.Duration
}

// NewPGCounter creates a postgres counter. Events older than retention are
// removed by Cleanup.
func NewPGCounter(db DB, retention time.Duration) *PGCounter {
	return &PGCounter{
		db:        db,
		retention: retention,
	}
}

func (c *PGCounter) Record(ctx context.Context, userID, businessType string, at time.Time) error {
	query := `INSERT INTO attempt_events (user_id, business_type, occurred_at) VALUES ($1, $2, $3)`

	if _, err := c.db.Exec(ctx, query, userID, businessType, at); err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

func (c *PGCounter) Count(ctx context.Context, userID, businessType string, window time.Duration, now time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM attempt_events
		WHERE user_id = $1 AND business_type = $2 AND occurred_at > $3 AND occurred_at <= $4
	`

	var count int
	err := c.db.QueryRow(ctx, query, userID, businessType, now.Add(-window), now).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}

	return count, nil
}

// Cleanup removes events past the retention period (run by the sweep worker)
func (c *PGCounter) Cleanup(ctx context.Context, now time.Time) (int64, error) {
	if c.retention <= 0 {
		return 0, nil
	}

	query := `DELETE FROM attempt_events WHERE occurred_at < $1`
	result, err := c.db.Exec(ctx, query, now.Add(-c.retention))
	if err != nil {
		return 0, fmt.Errorf("cleanup attempts: %w", err)
	}
	return result.RowsAffected(), nil
}
