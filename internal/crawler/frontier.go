package crawler

import (
	"sort"
	"sync"
)

// Frontier owns the priority queue of pending crawl tasks, the visited set,
// and the crawl-phase run counters. All mutation happens behind one mutex;
// MarkVisited combines the "already visited" read with the write so two
// workers can never claim the same URL.
type Frontier struct {
	mu      sync.Mutex
	tasks   []CrawlTask
	queued  map[string]struct{}
	visited map[string]struct{}
	budget  int
	nextSeq int
	stats   RunStats
}

// NewFrontier creates a Frontier limited to budget fetched pages.
func NewFrontier(budget int) *Frontier {
	return &Frontier{
		queued:  make(map[string]struct{}),
		visited: make(map[string]struct{}),
		budget:  budget,
	}
}

// Seed pushes the initial task set and sorts the queue.
func (f *Frontier) Seed(tasks []CrawlTask) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range tasks {
		f.pushLocked(t.URL, t.Priority, t.Expected)
	}
	f.sortLocked()
}

// Push enqueues a discovered URL. Tasks whose URL is already visited, already
// queued, or on the static skip-list are dropped without a fetch. The queue
// is not re-sorted here; Merge sorts once per batch.
func (f *Frontier) Push(url string, priority int, expected PageType) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushLocked(url, priority, expected)
}

// Merge enqueues every task discovered by a completed batch, then re-sorts
// the queue so the next batch pops in non-increasing priority order.
func (f *Frontier) Merge(tasks []CrawlTask) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range tasks {
		f.pushLocked(t.URL, t.Priority, t.Expected)
	}
	f.sortLocked()
}

func (f *Frontier) pushLocked(url string, priority int, expected PageType) {
	normalized, err := NormalizeURL(url)
	if err != nil || normalized == "" {
		return
	}
	if ShouldSkip(normalized) {
		return
	}
	if _, seen := f.visited[normalized]; seen {
		return
	}
	if _, seen := f.queued[normalized]; seen {
		return
	}
	f.queued[normalized] = struct{}{}
	f.tasks = append(f.tasks, CrawlTask{
		URL:      normalized,
		Priority: priority,
		Expected: expected,
		seq:      f.nextSeq,
	})
	f.nextSeq++
}

func (f *Frontier) sortLocked() {
	sort.SliceStable(f.tasks, func(i, j int) bool {
		if f.tasks[i].Priority != f.tasks[j].Priority {
			return f.tasks[i].Priority > f.tasks[j].Priority
		}
		return f.tasks[i].seq < f.tasks[j].seq
	})
}

// PopBatch removes and returns up to n tasks from the head of the queue.
func (f *Frontier) PopBatch(n int) []CrawlTask {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n <= 0 || len(f.tasks) == 0 {
		return nil
	}
	if n > len(f.tasks) {
		n = len(f.tasks)
	}
	batch := make([]CrawlTask, n)
	copy(batch, f.tasks[:n])
	f.tasks = f.tasks[n:]
	for _, t := range batch {
		delete(f.queued, t.URL)
	}
	return batch
}

// MarkVisited atomically checks and records a URL in the visited set. It
// returns false when the URL was already visited or the page budget is
// exhausted; the caller must then skip the fetch.
func (f *Frontier) MarkVisited(url string) bool {
	normalized, err := NormalizeURL(url)
	if err != nil {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.visited) >= f.budget {
		return false
	}
	if _, seen := f.visited[normalized]; seen {
		return false
	}
	f.visited[normalized] = struct{}{}
	return true
}

// Len returns the number of queued tasks.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}

// VisitedCount returns how many URLs have been claimed for fetching.
func (f *Frontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}

// Remaining returns how many fetches the page budget still allows.
func (f *Frontier) Remaining() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	left := f.budget - len(f.visited)
	if left < 0 {
		return 0
	}
	return left
}

// RecordPageCrawled increments the crawl counter under the frontier lock.
func (f *Frontier) RecordPageCrawled() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats.PagesCrawled++
}

// RecordProductFound increments the discovery counter.
func (f *Frontier) RecordProductFound() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats.ProductsFound++
}

// RecordError increments the error counter.
func (f *Frontier) RecordError() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats.Errors++
}

// Stats returns a snapshot of the crawl-phase counters.
func (f *Frontier) Stats() RunStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}
