package downloader

import (
	"context"
	"sort"

	"boorudl/pkg/booru"
	"boorudl/pkg/logger"
	"boorudl/pkg/metrics"
	"boorudl/pkg/storage"
)

// DefaultParallel is the number of concurrent downloads per page
const DefaultParallel = 5

// Options configures a Downloader
type Options struct {
	OutputDir string
	Parallel  int
}

// Downloader saves the files of one page of posts into the output directory
type Downloader struct {
	fetcher   Fetcher
	outputDir string
	parallel  int
	metrics   *metrics.Metrics
	logger    logger.Logger
}

// New creates a Downloader
func New(fetcher Fetcher, opts Options, m *metrics.Metrics, log logger.Logger) *Downloader {
	if opts.Parallel < 1 {
		opts.Parallel = DefaultParallel
	}
	if log == nil {
		log = logger.GetLogger()
	}

	logger.LogComponentStart(log, "downloader", map[string]interface{}{
		"output_dir": opts.OutputDir,
		"parallel":   opts.Parallel,
	})

	return &Downloader{
		fetcher:   fetcher,
		outputDir: opts.OutputDir,
		parallel:  opts.Parallel,
		metrics:   m,
		logger:    log.WithField("component", "downloader"),
	}
}

// DownloadPage creates the output directory if needed and downloads every post with
// at most Parallel fetches in flight. It returns the number of posts processed, which
// is always len(posts), plus one result per post in input order. Individual failures
// are logged and reported in the results; only a failure to create the output
// directory is returned as an error.
func (d *Downloader) DownloadPage(ctx context.Context, posts []booru.Post) (int, []DownloadResult, error) {
	store, err := storage.NewManager(d.outputDir)
	if err != nil {
		return 0, nil, err
	}

	if len(posts) == 0 {
		return 0, nil, nil
	}

	workers := d.parallel
	if workers > len(posts) {
		workers = len(posts)
	}

	pool := NewWorkerPool(workers, d.fetcher, store, d.metrics, d.logger)
	pool.Start(ctx)

	results := make([]DownloadResult, 0, len(posts))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for result := range pool.Results() {
			results = append(results, result)
		}
	}()

	var unsubmitted []DownloadResult
	for i, post := range posts {
		job := DownloadJob{Index: i, Post: post}
		if err := pool.Submit(job); err != nil {
			for j := i; j < len(posts); j++ {
				unsubmitted = append(unsubmitted, DownloadResult{
					Job:   DownloadJob{Index: j, Post: posts[j]},
					Error: err,
				})
			}
			d.logger.WarnWithFields("Page download interrupted", map[string]interface{}{
				"remaining": len(posts) - i,
				"error":     err.Error(),
			})
			break
		}
	}

	pool.Stop()
	<-done

	results = append(results, unsubmitted...)
	sort.Slice(results, func(a, b int) bool {
		return results[a].Job.Index < results[b].Job.Index
	})

	return len(posts), results, nil
}

// CountSuccessful returns the number of successful results
func CountSuccessful(results []DownloadResult) int {
	n := 0
	for _, r := range results {
		if r.Success {
			n++
		}
	}
	return n
}
