package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/domgest/internal/fetch"
	"github.com/dgallion1/domgest/internal/parser"
	"github.com/dustin/go-humanize"
)

// Fetcher retrieves a raw HTTP response.
type Fetcher interface {
	Get(ctx context.Context, url string) (*fetch.Response, error)
}

// Worker processes a single fetch job.
type Worker struct {
	fetcher   Fetcher
	log       *slog.Logger
	parseOpts parser.Options
	backoff   func(attempt int) time.Duration
}

func NewWorker(fetcher Fetcher, log *slog.Logger, parseOpts parser.Options) *Worker {
	return &Worker{
		fetcher:   fetcher,
		log:       log,
		parseOpts: parseOpts,
		backoff:   Backoff,
	}
}

// Process fetches the job's URL and parses the body into a tree.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "url", job.URL)
	start := time.Now()

	// Phase 1: Fetch
	job.SetStatus(StatusFetching, "fetching")
	resp, err := w.fetchWithRetry(ctx, log, job)
	if err != nil {
		log.Error("fetch failed", "error", err, "attempts", job.Attempts)
		job.AddError(fmt.Sprintf("fetch: %s", err))
		job.SetStatus(StatusFailed, "fetching")
		return
	}
	log.Info("fetched",
		"status", resp.StatusCode,
		"size", humanize.Bytes(uint64(len(resp.Body))),
		"chunked", parser.IsChunked(resp.Header),
		"content_encoding", resp.Header.Get("Content-Encoding"),
	)

	// Phase 2: Parse
	job.SetStatus(StatusParsing, "parsing")
	tree, err := parser.ParseHTTP(resp.Body, resp.Header, w.parseOpts)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	job.SetResult(tree, len(resp.Body))
	job.SetStatus(StatusCompleted, "done")
	log.Info("parsed",
		"nodes", tree.Len(),
		"max_depth", tree.MaxDepth(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func (w *Worker) fetchWithRetry(ctx context.Context, log *slog.Logger, job *Job) (*fetch.Response, error) {
	var lastErr error
	for attempt := range MaxRetries {
		job.IncrAttempts()
		resp, err := w.fetcher.Get(ctx, job.URL)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !fetch.IsRetryable(err) || attempt == MaxRetries-1 {
			break
		}
		log.Warn("retryable fetch error", "attempt", attempt, "error", err)
		if err := wait(ctx, w.backoff(attempt)); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}
