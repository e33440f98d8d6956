package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/foldline/boxoffice/internal/domain"
	"github.com/foldline/boxoffice/internal/testutil"
)

func TestExportRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewExportRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	seedJob := func(ctx context.Context, eventID, id string) {
		if err := repo.Create(ctx, domain.ExportJob{
			ID:        id,
			EventID:   eventID,
			Format:    domain.ExportFormatOrdersCSV,
			Status:    domain.ExportStatusQueued,
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			t.Fatalf("create export job: %v", err)
		}
	}

	t.Run("ClaimNext marks the job running with a start time", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		organizerID := testutil.InsertOrganizerWithToken(t, ctx, pool, "acme", "secret-1")
		eventID := testutil.InsertEvent(t, ctx, pool, organizerID, "democon")
		seedJob(ctx, eventID, "00000000-0000-0000-0000-0000000000e1")

		// Postgres stores timestamps with microsecond precision.
		now := time.Now().UTC().Truncate(time.Microsecond)
		j, err := repo.ClaimNext(ctx, now)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if j == nil || j.Status != domain.ExportStatusRunning {
			t.Fatalf("expected a running job, got %+v", j)
		}
		if j.StartedAt == nil || !j.StartedAt.Equal(now) {
			t.Fatalf("expected start time recorded, got %+v", j.StartedAt)
		}

		again, err := repo.ClaimNext(ctx, now)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if again != nil {
			t.Fatalf("expected an empty queue, got %+v", again)
		}
	})

	t.Run("RequeueStale returns abandoned jobs to the queue", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		organizerID := testutil.InsertOrganizerWithToken(t, ctx, pool, "acme", "secret-1")
		eventID := testutil.InsertEvent(t, ctx, pool, organizerID, "democon")
		seedJob(ctx, eventID, "00000000-0000-0000-0000-0000000000e2")

		claimedAt := time.Now().UTC().Add(-10 * time.Minute)
		if _, err := repo.ClaimNext(ctx, claimedAt); err != nil {
			t.Fatalf("claim: %v", err)
		}

		if err := repo.RequeueStale(ctx, time.Now().UTC().Add(-5*time.Minute)); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		j, err := repo.Get(ctx, eventID, "00000000-0000-0000-0000-0000000000e2")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if j.Status != domain.ExportStatusQueued {
			t.Fatalf("expected the job requeued, got %s", j.Status)
		}
		if j.StartedAt != nil {
			t.Fatalf("expected the start time cleared, got %+v", j.StartedAt)
		}
	})

	t.Run("RequeueStale keeps live jobs running", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		organizerID := testutil.InsertOrganizerWithToken(t, ctx, pool, "acme", "secret-1")
		eventID := testutil.InsertEvent(t, ctx, pool, organizerID, "democon")
		seedJob(ctx, eventID, "00000000-0000-0000-0000-0000000000e3")

		if _, err := repo.ClaimNext(ctx, time.Now().UTC()); err != nil {
			t.Fatalf("claim: %v", err)
		}

		if err := repo.RequeueStale(ctx, time.Now().UTC().Add(-5*time.Minute)); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		j, err := repo.Get(ctx, eventID, "00000000-0000-0000-0000-0000000000e3")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if j.Status != domain.ExportStatusRunning {
			t.Fatalf("expected the job still running, got %s", j.Status)
		}
	})
}
