// Package notify delivers job-completion notifications.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/crawler"
	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/storage"
)

// Message summarizes a finished harvest job.
type Message struct {
	JobID      string            `json:"job_id"`
	URL        string            `json:"url"`
	Status     storage.JobStatus `json:"status"`
	Error      string            `json:"error,omitempty"`
	Stats      crawler.RunStats  `json:"stats"`
	FinishedAt time.Time         `json:"finished_at"`
}

// Notifier delivers a job-completion message. Delivery failures must not
// affect the job outcome; callers treat notification as best effort.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// LogNotifier records completions in the application log. It is the
// default notifier when no external channel is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier returns a notifier that writes to the given logger.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs the completion summary.
func (n *LogNotifier) Notify(_ context.Context, msg Message) error {
	n.logger.Info("harvest job finished",
		zap.String("job_id", msg.JobID),
		zap.String("url", msg.URL),
		zap.String("status", string(msg.Status)),
		zap.String("error", msg.Error),
		zap.Int("pages_crawled", msg.Stats.PagesCrawled),
		zap.Int("products_found", msg.Stats.ProductsFound),
		zap.Int("products_stored", msg.Stats.ProductsStored),
		zap.Int("images_downloaded", msg.Stats.ImagesDownloaded),
		zap.Int("errors", msg.Stats.Errors),
	)
	return nil
}

// Fanout delivers to every configured notifier, logging failures and
// continuing. It never returns an error.
type Fanout struct {
	notifiers []Notifier
	logger    *zap.Logger
}

// NewFanout combines notifiers into one. Nil entries are skipped.
func NewFanout(logger *zap.Logger, notifiers ...Notifier) *Fanout {
	if logger == nil {
		logger = zap.NewNop()
	}
	kept := make([]Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			kept = append(kept, n)
		}
	}
	return &Fanout{notifiers: kept, logger: logger}
}

// Notify delivers the message to each notifier in order.
func (f *Fanout) Notify(ctx context.Context, msg Message) error {
	for _, n := range f.notifiers {
		if err := n.Notify(ctx, msg); err != nil {
			f.logger.Warn("notification delivery failed",
				zap.String("job_id", msg.JobID),
				zap.Error(err),
			)
		}
	}
	return nil
}
