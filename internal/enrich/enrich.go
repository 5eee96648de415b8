// Package enrich produces the AI-inferred attributes of a product: jewelry
// type, gemstone, colors, a short summary, and a vibe classification. When
// the model is unavailable or fails repeatedly, a deterministic rule-based
// fallback takes over; a "not a specific product" verdict from the model
// skips the candidate instead.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Vibes is the closed vibe vocabulary. DefaultVibe applies when neither the
// model nor the rules produce a match.
var Vibes = []string{"wedding", "engagement", "casual", "festive", "formal", "date-night", "everyday", "party"}

// DefaultVibe is the neutral vibe classification.
const DefaultVibe = "casual"

// Request carries the extracted context the model grounds its answer on.
type Request struct {
	Name        string
	Metal       string
	Gemstone    string
	JewelType   string
	PriceAmount float64
	HasPrice    bool
	ImageURL    string
}

// Enrichment is the combined inference result.
type Enrichment struct {
	JewelryType   string
	Gemstone      string
	GemstoneColor string
	MetalColor    string
	Summary       string
	Vibe          string
}

// SkipError marks a candidate the model judged to be a category page or
// otherwise not a specific product. The orchestrator skips such candidates.
type SkipError struct {
	Reason string
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("not a specific product: %s", e.Reason)
}

// Client is the model boundary: one combined vision+text call.
type Client interface {
	Infer(ctx context.Context, req Request) (string, error)
}

// Enricher wraps a Client with bounded retry and the rule-based fallback.
type Enricher struct {
	client      Client
	maxAttempts int
	baseDelay   time.Duration
	logger      *zap.Logger
}

// New builds an Enricher. A nil client means every candidate goes through
// the fallback rules.
func New(client Client, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{
		client:      client,
		maxAttempts: 3,
		baseDelay:   250 * time.Millisecond,
		logger:      logger,
	}
}

// Enrich runs the combined inference call with up to three attempts. A
// SkipError propagates to the caller; any other persistent failure degrades
// to the rule-based fallback so enrichment never aborts a candidate.
func (e *Enricher) Enrich(ctx context.Context, req Request) (Enrichment, error) {
	if e.client == nil || req.ImageURL == "" {
		return Fallback(req), nil
	}

	var lastErr error
	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Fallback(req), nil
			case <-time.After(e.baseDelay << uint(attempt-1)):
			}
		}
		raw, err := e.client.Infer(ctx, req)
		if err != nil {
			lastErr = err
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				break
			}
			continue
		}
		enrichment, err := ParseResponse(raw)
		if err != nil {
			var skip *SkipError
			if errors.As(err, &skip) {
				return Enrichment{}, err
			}
			lastErr = err
			continue
		}
		return enrichment, nil
	}

	e.logger.Warn("enrichment degraded to rule-based fallback", zap.Error(lastErr))
	return Fallback(req), nil
}
