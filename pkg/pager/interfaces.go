package pager

import (
	"context"

	"boorudl/internal/downloader"
	"boorudl/pkg/booru"
)

// PostSearcher fetches one page of search results
type PostSearcher interface {
	SearchPosts(ctx context.Context, req booru.SearchRequest) (booru.SearchResult, error)
}

// PageDownloader downloads the files of one page of posts
type PageDownloader interface {
	DownloadPage(ctx context.Context, posts []booru.Post) (int, []downloader.DownloadResult, error)
}
