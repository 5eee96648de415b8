package pipeline

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/crawler"
	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/enrich"
	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/notify"
	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/storage"
	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/storage/memory"
)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type sequentialIDs struct {
	mu sync.Mutex
	n  int
}

func (g *sequentialIDs) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("job-%d", g.n), nil
}

type fakeHarvester struct {
	result crawler.Result
	err    error
	gotURL string
}

func (h *fakeHarvester) Run(_ context.Context, baseURL string) (crawler.Result, error) {
	h.gotURL = baseURL
	return h.result, h.err
}

type capturingNotifier struct {
	mu       sync.Mutex
	messages []notify.Message
}

func (n *capturingNotifier) Notify(_ context.Context, msg notify.Message) error {
	n.mu.Lock()
	n.messages = append(n.messages, msg)
	n.mu.Unlock()
	return nil
}

func newTestRunner(t *testing.T, harvester Harvester, jobs storage.JobStore, notifier notify.Notifier) *Runner {
	t.Helper()
	processor, err := NewProcessor(ProcessorConfig{Concurrency: 2}, memory.NewProductStore(), nil, enrich.New(nil, nil), nil)
	require.NoError(t, err)
	clock := &fixedClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	runner, err := NewRunner(harvester, processor, jobs, notifier, clock, &sequentialIDs{}, nil)
	require.NoError(t, err)
	return runner
}

func TestRunnerCompletesSuccessfulJob(t *testing.T) {
	t.Parallel()

	harvester := &fakeHarvester{result: crawler.Result{
		Products: []crawler.RawProduct{candidate(1)},
		Stats:    crawler.RunStats{PagesCrawled: 8, ProductsFound: 1},
	}}
	jobs := memory.NewJobStore()
	notifier := &capturingNotifier{}
	runner := newTestRunner(t, harvester, jobs, notifier)

	job, err := runner.Submit(context.Background(), "HTTPS://Gems.Example/")
	require.NoError(t, err)
	require.Equal(t, "job-1", job.ID)
	require.Equal(t, storage.JobStatusQueued, job.Status)
	require.Equal(t, "https://gems.example/", job.URL)

	runner.Wait()
	require.Equal(t, "https://gems.example/", harvester.gotURL)

	final, err := jobs.Get(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, storage.JobStatusSuccess, final.Status)
	require.Empty(t, final.Error)
	require.Equal(t, 8, final.Stats.PagesCrawled)
	require.Equal(t, 1, final.Stats.ProductsFound)
	require.Equal(t, 1, final.Stats.ProductsStored)
	require.NotNil(t, final.StartedAt)
	require.NotNil(t, final.FinishedAt)

	require.Len(t, notifier.messages, 1)
	require.Equal(t, job.ID, notifier.messages[0].JobID)
	require.Equal(t, storage.JobStatusSuccess, notifier.messages[0].Status)
	require.Equal(t, 1, notifier.messages[0].Stats.ProductsStored)
}

func TestRunnerPreservesPartialStatsOnCrawlFailure(t *testing.T) {
	t.Parallel()

	harvester := &fakeHarvester{
		result: crawler.Result{Stats: crawler.RunStats{PagesCrawled: 3, Errors: 2}},
		err:    fmt.Errorf("browser pool exhausted"),
	}
	jobs := memory.NewJobStore()
	notifier := &capturingNotifier{}
	runner := newTestRunner(t, harvester, jobs, notifier)

	job, err := runner.Submit(context.Background(), "https://gems.example")
	require.NoError(t, err)
	runner.Wait()

	final, err := jobs.Get(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, storage.JobStatusFailed, final.Status)
	require.Equal(t, "browser pool exhausted", final.Error)
	require.Equal(t, 3, final.Stats.PagesCrawled)
	require.Equal(t, 2, final.Stats.Errors)
	// No products processed when the crawl itself fails.
	require.Zero(t, final.Stats.ProductsStored)

	require.Len(t, notifier.messages, 1)
	require.Equal(t, storage.JobStatusFailed, notifier.messages[0].Status)
}

func TestRunnerRejectsInvalidURL(t *testing.T) {
	t.Parallel()

	runner := newTestRunner(t, &fakeHarvester{}, memory.NewJobStore(), &capturingNotifier{})

	_, err := runner.Submit(context.Background(), "gems.example/no-scheme")
	require.Error(t, err)

	_, err = runner.Submit(context.Background(), "ftp://gems.example")
	require.Error(t, err)
}
