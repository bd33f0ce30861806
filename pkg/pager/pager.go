package pager

import (
	"context"
	"fmt"

	"boorudl/internal/downloader"
	"boorudl/pkg/booru"
	"boorudl/pkg/logger"
	"boorudl/pkg/metrics"
)

// Summary totals a run. Pages counts only pages that returned posts.
type Summary struct {
	StartPage int
	Pages     int
	Posts     int
	Succeeded int
	Failed    int
}

// PageReport describes one downloaded page
type PageReport struct {
	Page      int
	Posts     int
	Succeeded int
	Failed    int
}

// ProgressFunc is called after each page has been downloaded
type ProgressFunc func(PageReport)

// Pager walks search result pages until one comes back empty, handing each page to
// the downloader before asking for the next
type Pager struct {
	searcher   PostSearcher
	downloader PageDownloader
	metrics    *metrics.Metrics
	logger     logger.Logger
	progress   ProgressFunc
}

// New creates a Pager
func New(searcher PostSearcher, dl PageDownloader, m *metrics.Metrics, log logger.Logger) *Pager {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Pager{
		searcher:   searcher,
		downloader: dl,
		metrics:    m,
		logger:     log.WithField("component", "pager"),
	}
}

// SetProgress registers a callback invoked after every non-empty page
func (p *Pager) SetProgress(fn ProgressFunc) {
	p.progress = fn
}

// Run searches req.Page, req.Page+1, ... and downloads every page's posts until a
// page yields no posts. A search or output directory failure stops the run and is
// returned together with the totals so far; individual download failures do not.
func (p *Pager) Run(ctx context.Context, req booru.SearchRequest) (Summary, error) {
	if req.Limit <= 0 {
		req.Limit = booru.DefaultLimit
	}
	if req.Page < 0 {
		req.Page = 0
	}

	summary := Summary{StartPage: req.Page}

	p.logger.InfoWithFields("Starting search", map[string]interface{}{
		"tags":       req.QueryTags(),
		"start_page": req.Page,
		"limit":      req.Limit,
	})

	for page := req.Page; ; page++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		pageReq := req
		pageReq.Page = page

		p.logger.DebugWithFields("Fetching page", map[string]interface{}{
			"page": page,
		})

		result, err := p.searcher.SearchPosts(ctx, pageReq)
		if err != nil {
			p.logger.WithError(err).WithField("page", page).Error("Search failed")
			return summary, fmt.Errorf("search page %d: %w", page, err)
		}

		posts := result.Posts()
		p.metrics.ObservePage(len(posts))

		if len(posts) == 0 {
			p.logger.InfoWithFields("No more results", map[string]interface{}{
				"page": page,
			})
			return summary, nil
		}

		processed, results, err := p.downloader.DownloadPage(ctx, posts)
		if err != nil {
			p.logger.WithError(err).WithField("page", page).Error("Download failed")
			return summary, fmt.Errorf("download page %d: %w", page, err)
		}

		succeeded := downloader.CountSuccessful(results)
		report := PageReport{
			Page:      page,
			Posts:     processed,
			Succeeded: succeeded,
			Failed:    processed - succeeded,
		}

		summary.Pages++
		summary.Posts += report.Posts
		summary.Succeeded += report.Succeeded
		summary.Failed += report.Failed

		logger.LogPage(p.logger, page, report.Posts, report.Succeeded, report.Failed)
		if p.progress != nil {
			p.progress(report)
		}
	}
}
