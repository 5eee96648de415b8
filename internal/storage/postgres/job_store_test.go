package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/crawler"
	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/storage"
)

func TestJobStoreCreate(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewJobStoreWithPool(mock)
	require.NoError(t, err)

	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO jobs").
		WithArgs("job-1", "https://gems.example", "queued", "", 0, 0, 0, 0, 0, createdAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = store.Create(context.Background(), storage.Job{
		ID:        "job-1",
		URL:       "https://gems.example",
		CreatedAt: createdAt,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStoreGetNotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewJobStoreWithPool(mock)
	require.NoError(t, err)

	mock.ExpectQuery("FROM jobs WHERE id = \\$1").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "url", "status", "error_message",
			"pages_crawled", "products_found", "products_stored", "images_downloaded", "errors",
			"created_at", "started_at", "finished_at",
		}))

	_, err = store.Get(context.Background(), "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStoreGet(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewJobStoreWithPool(mock)
	require.NoError(t, err)

	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	startedAt := createdAt.Add(time.Second)
	finishedAt := createdAt.Add(time.Minute)
	mock.ExpectQuery("FROM jobs WHERE id = \\$1").
		WithArgs("job-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "url", "status", "error_message",
			"pages_crawled", "products_found", "products_stored", "images_downloaded", "errors",
			"created_at", "started_at", "finished_at",
		}).AddRow(
			"job-1", "https://gems.example", "success", "",
			20, 6, 5, 18, 1,
			createdAt, &startedAt, &finishedAt,
		))

	job, err := store.Get(context.Background(), "job-1")
	require.NoError(t, err)
	require.Equal(t, storage.JobStatusSuccess, job.Status)
	require.Equal(t, crawler.RunStats{
		PagesCrawled:     20,
		ProductsFound:    6,
		ProductsStored:   5,
		ImagesDownloaded: 18,
		Errors:           1,
	}, job.Stats)
	require.NotNil(t, job.StartedAt)
	require.NotNil(t, job.FinishedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStoreMarkRunning(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewJobStoreWithPool(mock)
	require.NoError(t, err)

	at := time.Date(2026, 3, 1, 9, 0, 1, 0, time.UTC)
	mock.ExpectExec("UPDATE jobs SET status = \\$1, started_at = \\$2").
		WithArgs("running", at, "job-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, store.MarkRunning(context.Background(), "job-1", at))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStoreMarkRunningNotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewJobStoreWithPool(mock)
	require.NoError(t, err)

	mock.ExpectExec("UPDATE jobs SET status = \\$1, started_at = \\$2").
		WithArgs("running", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = store.MarkRunning(context.Background(), "missing", time.Now())
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStoreComplete(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewJobStoreWithPool(mock)
	require.NoError(t, err)

	at := time.Date(2026, 3, 1, 9, 1, 0, 0, time.UTC)
	stats := crawler.RunStats{PagesCrawled: 9, ProductsFound: 2, Errors: 3}
	mock.ExpectExec("UPDATE jobs SET").
		WithArgs("failed", "browser pool exhausted", 9, 2, 0, 0, 3, at, "job-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = store.Complete(context.Background(), "job-1", storage.JobStatusFailed, "browser pool exhausted", stats, at)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStoreList(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewJobStoreWithPool(mock)
	require.NoError(t, err)

	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM jobs ORDER BY created_at DESC").
		WithArgs(2).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "url", "status", "error_message",
			"pages_crawled", "products_found", "products_stored", "images_downloaded", "errors",
			"created_at", "started_at", "finished_at",
		}).
			AddRow("job-2", "https://gems.example", "running", "", 3, 1, 0, 0, 0, createdAt.Add(time.Minute), (*time.Time)(nil), (*time.Time)(nil)).
			AddRow("job-1", "https://gems.example", "success", "", 20, 6, 5, 18, 1, createdAt, (*time.Time)(nil), (*time.Time)(nil)))

	jobs, err := store.List(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	require.Equal(t, "job-2", jobs[0].ID)
	require.Equal(t, storage.JobStatusRunning, jobs[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}
