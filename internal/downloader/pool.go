package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"boorudl/pkg/booru"
	errs "boorudl/pkg/errors"
	"boorudl/pkg/logger"
	"boorudl/pkg/metrics"
)

// DownloadJob represents a single download task
type DownloadJob struct {
	Index int
	Post  booru.Post
}

// DownloadResult represents the result of a download job
type DownloadResult struct {
	Job        DownloadJob
	Success    bool
	Error      error
	StatusCode int
	Path       string
	Size       int64
	Duration   time.Duration
}

// FileStorage stores a downloaded body under a filename
type FileStorage interface {
	Save(r io.Reader, filename string) (string, int64, error)
}

// WorkerPool manages concurrent download workers
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan DownloadJob
	resultQueue chan DownloadResult
	group       *errgroup.Group
	ctx         context.Context
	fetcher     Fetcher
	storage     FileStorage
	metrics     *metrics.Metrics
	logger      logger.Logger
}

// NewWorkerPool creates a new download worker pool
func NewWorkerPool(
	numWorkers int,
	fetcher Fetcher,
	storage FileStorage,
	m *metrics.Metrics,
	log logger.Logger,
) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan DownloadJob, numWorkers*2), // Buffer size = 2x workers
		resultQueue: make(chan DownloadResult, numWorkers),
		fetcher:     fetcher,
		storage:     storage,
		metrics:     m,
		logger:      log,
	}
}

// Start launches the workers. Cancelling ctx makes pending fetches fail fast; every
// submitted job still produces a result.
func (wp *WorkerPool) Start(ctx context.Context) {
	wp.logger.DebugWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	wp.group, wp.ctx = errgroup.WithContext(ctx)
	for i := 0; i < wp.numWorkers; i++ {
		id := i
		wp.group.Go(func() error {
			wp.worker(id)
			return nil
		})
	}
}

// Stop waits for queued jobs to finish and closes the result channel
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	_ = wp.group.Wait()
	close(wp.resultQueue)

	wp.logger.Debug("Worker pool stopped")
}

// Submit adds a new download job to the queue
func (wp *WorkerPool) Submit(job DownloadJob) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", wp.ctx.Err())
	}
}

// Results returns the result channel for consuming download results
func (wp *WorkerPool) Results() <-chan DownloadResult {
	return wp.resultQueue
}

// worker is the main worker routine
func (wp *WorkerPool) worker(id int) {
	for job := range wp.jobQueue {
		wp.resultQueue <- wp.processJob(job, id)
	}
}

// processJob fetches one file and stores it. Failures are logged and reported in the
// result, never returned, so one bad post cannot affect its siblings.
func (wp *WorkerPool) processJob(job DownloadJob, workerID int) DownloadResult {
	start := time.Now()
	result := DownloadResult{Job: job}
	post := job.Post

	defer func() {
		result.Duration = time.Since(start)
		wp.metrics.ObserveDownload(result.Success, result.Size, result.Duration)
	}()

	wp.logger.DebugWithFields("Worker processing job", map[string]interface{}{
		"worker_id": workerID,
		"post_id":   post.ID,
		"url":       post.FileURL,
	})

	if post.FileURL == "" {
		result.Error = errs.New(errs.ErrorTypeAPI, fmt.Sprintf("post %d has no file URL", post.ID))
		wp.logger.WarnWithFields("Skipping post without file URL", map[string]interface{}{
			"post_id": post.ID,
		})
		return result
	}

	body, status, err := wp.fetcher.Fetch(wp.ctx, post.FileURL)
	result.StatusCode = status
	if err != nil {
		result.Error = err
		wp.logFailure(post, status, err, time.Since(start))
		return result
	}
	defer body.Close()

	path, size, err := wp.storage.Save(body, post.Filename)
	if err != nil {
		result.Error = fmt.Errorf("save %s: %w", post.Filename, err)
		wp.logFailure(post, status, result.Error, time.Since(start))
		return result
	}

	result.Success = true
	result.Path = path
	result.Size = size
	logger.LogDownload(wp.logger, post.FileURL, path, int(size), time.Since(start), nil)

	return result
}

// logFailure logs a skipped download; a non-success status is logged with its reason
func (wp *WorkerPool) logFailure(post booru.Post, status int, err error, duration time.Duration) {
	var typed *errs.Error
	if errors.As(err, &typed) && typed.Type == errs.ErrorTypeHTTPStatus {
		wp.logger.WarnWithFields("Download skipped", map[string]interface{}{
			"url":         post.FileURL,
			"status_code": status,
			"reason":      typed.Message,
		})
		return
	}

	logger.LogDownload(wp.logger, post.FileURL, "", 0, duration, err)
}
