//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/JakeFAU/openwax/internal/score"
)

// TestScoreStoreAgainstPostgres runs the store against a real server.
// Run with: go test -tags integration ./internal/storage/postgres/...
func TestScoreStoreAgainstPostgres(t *testing.T) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("openwax"),
		tcpostgres.WithUsername("openwax"),
		tcpostgres.WithPassword("openwax"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := NewScoreStore(ctx, Config{DSN: dsn})
	require.NoError(t, err)
	defer store.Close() //nolint:errcheck // pool close never fails

	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.EnsureSchema(ctx))
	require.NoError(t, store.EnsureSchema(ctx))

	clock := &stepClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	svc := score.NewService(store, clock, nil)

	for _, sub := range []score.Submission{
		score.NewSubmission("http://example.com/a", "4", "A"),
		score.NewSubmission("http://example.com/b", "7", "B"),
		score.NewSubmission("http://example.com/a", "5", "A2"),
		score.NewSubmission("http://other.org/", "1", "O"),
	} {
		_, err := svc.Record(ctx, sub)
		require.NoError(t, err)
	}

	rec, err := store.FindByURL(ctx, "http://example.com/a")
	require.NoError(t, err)
	require.Equal(t, int64(2), rec.Times)
	require.Equal(t, int64(5), rec.Score)
	require.Equal(t, "A2", rec.Title)

	recent, err := svc.Recent(ctx)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	require.Equal(t, "http://other.org/", recent[0].URL)

	res, err := svc.Search(ctx, "example.com")
	require.NoError(t, err)
	require.Equal(t, 2, res.Count)
	require.InDelta(t, 6.0, res.Avg, 1e-9)
}

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}
