package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/crawler"
	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/storage"
)

func TestProductStoreDuplicateSourceURL(t *testing.T) {
	t.Parallel()

	store := NewProductStore()
	ctx := context.Background()

	id, err := store.Insert(ctx, storage.Product{SourceURL: "https://gems.example/ring-1", Name: "Halo Ring"})
	require.NoError(t, err)
	require.Equal(t, int64(1), id)

	exists, err := store.ExistsBySourceURL(ctx, "https://gems.example/ring-1")
	require.NoError(t, err)
	require.True(t, exists)

	_, err = store.Insert(ctx, storage.Product{SourceURL: "https://gems.example/ring-1", Name: "Halo Ring Again"})
	require.ErrorIs(t, err, storage.ErrDuplicate)

	exists, err = store.ExistsBySourceURL(ctx, "https://gems.example/ring-2")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestProductStoreListFiltersAndPaginates(t *testing.T) {
	t.Parallel()

	store := NewProductStore()
	ctx := context.Background()

	seed := []storage.Product{
		{SourceURL: "u1", Name: "Ring A", JewelType: "ring", Metal: "18kt gold", Vibe: "engagement"},
		{SourceURL: "u2", Name: "Ring B", JewelType: "ring", Metal: "silver", Vibe: "casual"},
		{SourceURL: "u3", Name: "Necklace A", JewelType: "necklace", Metal: "18kt gold", Vibe: "festive"},
		{SourceURL: "u4", Name: "Ring C", JewelType: "ring", Metal: "18kt gold", Vibe: "casual"},
	}
	for _, p := range seed {
		_, err := store.Insert(ctx, p)
		require.NoError(t, err)
	}

	rings, err := store.List(ctx, storage.ProductFilter{JewelType: "ring"})
	require.NoError(t, err)
	require.Len(t, rings, 3)
	// Newest first.
	require.Equal(t, "Ring C", rings[0].Name)

	goldRings, err := store.List(ctx, storage.ProductFilter{JewelType: "ring", Metal: "18kt gold"})
	require.NoError(t, err)
	require.Len(t, goldRings, 2)

	page, err := store.List(ctx, storage.ProductFilter{JewelType: "ring", Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "Ring B", page[0].Name)

	n, err := store.Count(ctx, storage.ProductFilter{JewelType: "ring", Limit: 1})
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestProductStoreFilterValues(t *testing.T) {
	t.Parallel()

	store := NewProductStore()
	ctx := context.Background()

	seed := []storage.Product{
		{SourceURL: "u1", JewelType: "ring", Metal: "18kt gold", Gemstone: "diamond", Vibe: "engagement"},
		{SourceURL: "u2", JewelType: "ring", Metal: "silver", Gemstone: "", Vibe: "casual"},
		{SourceURL: "u3", JewelType: "necklace", Metal: "18kt gold", Gemstone: "pearl", Vibe: "casual"},
	}
	for _, p := range seed {
		_, err := store.Insert(ctx, p)
		require.NoError(t, err)
	}

	fv, err := store.FilterValues(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"ring": 2, "necklace": 1}, fv.JewelTypes)
	require.Equal(t, map[string]int{"18kt gold": 2, "silver": 1}, fv.Metals)
	// Empty values are not counted as a facet bucket.
	require.Equal(t, map[string]int{"diamond": 1, "pearl": 1}, fv.Gemstones)
	require.Equal(t, map[string]int{"casual": 2, "engagement": 1}, fv.Vibes)
}

func TestJobStoreLifecycle(t *testing.T) {
	t.Parallel()

	store := NewJobStore()
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	err := store.Create(ctx, storage.Job{ID: "job-1", URL: "https://gems.example", CreatedAt: created})
	require.NoError(t, err)

	job, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	require.Equal(t, storage.JobStatusQueued, job.Status)
	require.Nil(t, job.StartedAt)

	started := created.Add(time.Second)
	require.NoError(t, store.MarkRunning(ctx, "job-1", started))

	job, err = store.Get(ctx, "job-1")
	require.NoError(t, err)
	require.Equal(t, storage.JobStatusRunning, job.Status)
	require.NotNil(t, job.StartedAt)
	require.Equal(t, started, *job.StartedAt)

	stats := crawler.RunStats{PagesCrawled: 12, ProductsFound: 4, ProductsStored: 3}
	finished := started.Add(time.Minute)
	require.NoError(t, store.Complete(ctx, "job-1", storage.JobStatusSuccess, "", stats, finished))

	job, err = store.Get(ctx, "job-1")
	require.NoError(t, err)
	require.Equal(t, storage.JobStatusSuccess, job.Status)
	require.Equal(t, stats, job.Stats)
	require.NotNil(t, job.FinishedAt)
	require.Equal(t, finished, *job.FinishedAt)
}

func TestJobStoreFailurePreservesPartialStats(t *testing.T) {
	t.Parallel()

	store := NewJobStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, storage.Job{ID: "job-2", URL: "https://gems.example"}))
	require.NoError(t, store.MarkRunning(ctx, "job-2", time.Now().UTC()))

	partial := crawler.RunStats{PagesCrawled: 5, Errors: 2}
	require.NoError(t, store.Complete(ctx, "job-2", storage.JobStatusFailed, "render budget exhausted", partial, time.Now().UTC()))

	job, err := store.Get(ctx, "job-2")
	require.NoError(t, err)
	require.Equal(t, storage.JobStatusFailed, job.Status)
	require.Equal(t, "render budget exhausted", job.Error)
	require.Equal(t, partial, job.Stats)
}

func TestJobStoreNotFoundAndList(t *testing.T) {
	t.Parallel()

	store := NewJobStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.ErrorIs(t, store.MarkRunning(ctx, "missing", time.Now()), storage.ErrNotFound)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"job-a", "job-b", "job-c"} {
		require.NoError(t, store.Create(ctx, storage.Job{
			ID:        id,
			URL:       "https://gems.example",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	jobs, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	require.Equal(t, "job-c", jobs[0].ID)
	require.Equal(t, "job-b", jobs[1].ID)
}
