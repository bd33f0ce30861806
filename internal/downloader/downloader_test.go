package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boorudl/pkg/booru"
	"boorudl/pkg/logger"
	"boorudl/pkg/metrics"
)

// mockFetcher serves fixed bodies and tracks call counts and peak concurrency
type mockFetcher struct {
	delay    time.Duration
	failURLs map[string]error

	calls    int32
	inFlight int32
	peak     int32

	mu   sync.Mutex
	seen []string
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, int, error) {
	atomic.AddInt32(&m.calls, 1)
	n := atomic.AddInt32(&m.inFlight, 1)
	defer atomic.AddInt32(&m.inFlight, -1)
	for {
		p := atomic.LoadInt32(&m.peak)
		if n <= p || atomic.CompareAndSwapInt32(&m.peak, p, n) {
			break
		}
	}

	m.mu.Lock()
	m.seen = append(m.seen, url)
	m.mu.Unlock()

	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if err := m.failURLs[url]; err != nil {
		return nil, 0, err
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	return io.NopCloser(strings.NewReader("data:" + url)), http.StatusOK, nil
}

func makePosts(n int) []booru.Post {
	posts := make([]booru.Post, n)
	for i := range posts {
		name := fmt.Sprintf("file%d.jpg", i)
		posts[i] = booru.Post{
			ID:       i + 1,
			FileURL:  "https://img.example.com/images/" + name,
			Filename: name,
		}
	}
	return posts
}

// fileServer serves /files/<name> with a body derived from the name and 404 for /missing/
func fileServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("contents of " + filepath.Base(r.URL.Path)))
	})
	mux.HandleFunc("/missing/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestDownloadPageSavesFiles(t *testing.T) {
	server := fileServer(t)
	outputDir := filepath.Join(t.TempDir(), "nested", "out")

	d := New(NewHTTPFetcher(server.Client(), ""), Options{OutputDir: outputDir, Parallel: 2}, nil, logger.NewNopLogger())

	posts := []booru.Post{
		{ID: 1, FileURL: server.URL + "/files/a.jpg", Filename: "a.jpg"},
		{ID: 2, FileURL: server.URL + "/files/b.png", Filename: "b.png"},
		{ID: 3, FileURL: server.URL + "/files/c.gif", Filename: "c.gif"},
	}

	count, results, err := d.DownloadPage(context.Background(), posts)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	require.Len(t, results, 3)
	assert.Equal(t, 3, CountSuccessful(results))

	for i, post := range posts {
		assert.Equal(t, i, results[i].Job.Index, "results are in input order")

		data, err := os.ReadFile(filepath.Join(outputDir, post.Filename))
		require.NoError(t, err)
		assert.Equal(t, "contents of "+post.Filename, string(data))
		assert.Equal(t, int64(len(data)), results[i].Size)
	}
}

func TestDownloadPageSkipsNonSuccessStatus(t *testing.T) {
	server := fileServer(t)
	outputDir := t.TempDir()
	testLog := logger.NewTestLogger()

	d := New(NewHTTPFetcher(server.Client(), ""), Options{OutputDir: outputDir, Parallel: 5}, nil, testLog)

	posts := []booru.Post{
		{ID: 1, FileURL: server.URL + "/files/ok.jpg", Filename: "ok.jpg"},
		{ID: 2, FileURL: server.URL + "/missing/gone.jpg", Filename: "gone.jpg"},
	}

	count, results, err := d.DownloadPage(context.Background(), posts)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "count is posts processed, not posts saved")
	assert.Equal(t, 1, CountSuccessful(results))

	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Equal(t, http.StatusNotFound, results[1].StatusCode)

	_, err = os.Stat(filepath.Join(outputDir, "ok.jpg"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(outputDir, "gone.jpg"))
	assert.True(t, os.IsNotExist(err), "no file is written for a non-success status")

	warnings := testLog.GetMessagesByLevel("WARN")
	require.Len(t, warnings, 1)
	assert.Equal(t, "Download skipped", warnings[0].Message)
	assert.Equal(t, server.URL+"/missing/gone.jpg", warnings[0].Fields["url"])
	assert.Equal(t, http.StatusNotFound, warnings[0].Fields["status_code"])
	assert.Equal(t, "Not Found", warnings[0].Fields["reason"])
}

func TestDownloadPageOverwritesExistingFile(t *testing.T) {
	server := fileServer(t)
	outputDir := t.TempDir()
	existing := filepath.Join(outputDir, "same.jpg")
	require.NoError(t, os.WriteFile(existing, []byte("stale contents that are longer"), 0644))

	d := New(NewHTTPFetcher(server.Client(), ""), Options{OutputDir: outputDir}, nil, logger.NewNopLogger())

	_, results, err := d.DownloadPage(context.Background(), []booru.Post{
		{ID: 1, FileURL: server.URL + "/files/same.jpg", Filename: "same.jpg"},
	})
	require.NoError(t, err)
	require.True(t, results[0].Success)

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "contents of same.jpg", string(data))
}

func TestDownloadPageFetchesEachPostOnceAtAnyWidth(t *testing.T) {
	for _, width := range []int{1, 2, 5, 20} {
		t.Run(fmt.Sprintf("parallel=%d", width), func(t *testing.T) {
			fetcher := &mockFetcher{delay: 5 * time.Millisecond}
			d := New(fetcher, Options{OutputDir: t.TempDir(), Parallel: width}, nil, logger.NewNopLogger())

			posts := makePosts(7)
			count, results, err := d.DownloadPage(context.Background(), posts)
			require.NoError(t, err)

			assert.Equal(t, 7, count)
			assert.Len(t, results, 7)
			assert.Equal(t, int32(7), atomic.LoadInt32(&fetcher.calls))
			assert.LessOrEqual(t, atomic.LoadInt32(&fetcher.peak), int32(width))

			seen := make(map[string]int)
			for _, url := range fetcher.seen {
				seen[url]++
			}
			for _, post := range posts {
				assert.Equal(t, 1, seen[post.FileURL], "each post fetched exactly once")
			}
		})
	}
}

func TestDownloadPageRunsConcurrently(t *testing.T) {
	fetcher := &mockFetcher{delay: 50 * time.Millisecond}
	d := New(fetcher, Options{OutputDir: t.TempDir(), Parallel: 5}, nil, logger.NewNopLogger())

	start := time.Now()
	_, _, err := d.DownloadPage(context.Background(), makePosts(10))
	require.NoError(t, err)
	elapsed := time.Since(start)

	// 10 jobs at 50ms each on 5 workers take about 100ms, not 500ms
	assert.Less(t, elapsed, 400*time.Millisecond)
	assert.Greater(t, atomic.LoadInt32(&fetcher.peak), int32(1))
}

func TestDownloadPageFailureIsolation(t *testing.T) {
	posts := makePosts(5)
	fetcher := &mockFetcher{
		failURLs: map[string]error{
			posts[2].FileURL: errors.New("connection reset by peer"),
		},
	}
	outputDir := t.TempDir()
	testLog := logger.NewTestLogger()
	m := metrics.New()

	d := New(fetcher, Options{OutputDir: outputDir, Parallel: 3}, m, testLog)

	count, results, err := d.DownloadPage(context.Background(), posts)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.Equal(t, 4, CountSuccessful(results))
	assert.False(t, results[2].Success)
	assert.Error(t, results[2].Error)

	for i, post := range posts {
		_, statErr := os.Stat(filepath.Join(outputDir, post.Filename))
		if i == 2 {
			assert.True(t, os.IsNotExist(statErr))
		} else {
			assert.NoError(t, statErr)
		}
	}

	assert.True(t, testLog.HasMessage("Download failed"))
	assert.Len(t, testLog.GetMessagesByLevel("ERROR"), 1)
}

func TestDownloadPageNetworkErrorIsSkipped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	outputDir := t.TempDir()
	d := New(NewHTTPFetcher(nil, ""), Options{OutputDir: outputDir}, nil, logger.NewNopLogger())

	count, results, err := d.DownloadPage(context.Background(), []booru.Post{
		{ID: 1, FileURL: addr + "/a.jpg", Filename: "a.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.False(t, results[0].Success)

	entries, err := os.ReadDir(outputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDownloadPageEmptyCreatesDirectory(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "a", "b")
	fetcher := &mockFetcher{}
	d := New(fetcher, Options{OutputDir: outputDir}, nil, logger.NewNopLogger())

	count, results, err := d.DownloadPage(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Empty(t, results)
	assert.Equal(t, int32(0), fetcher.calls)

	info, err := os.Stat(outputDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestDownloadPageOutputDirError(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	d := New(&mockFetcher{}, Options{OutputDir: filepath.Join(file, "sub")}, nil, logger.NewNopLogger())

	_, _, err := d.DownloadPage(context.Background(), makePosts(1))
	assert.Error(t, err)
}

func TestDownloadPageCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outputDir := t.TempDir()
	d := New(&mockFetcher{}, Options{OutputDir: outputDir, Parallel: 2}, nil, logger.NewNopLogger())

	posts := makePosts(6)
	count, results, err := d.DownloadPage(ctx, posts)
	require.NoError(t, err)
	assert.Equal(t, 6, count)
	require.Len(t, results, 6)
	assert.Equal(t, 0, CountSuccessful(results))

	entries, err := os.ReadDir(outputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDownloadPageSkipsPostWithoutURL(t *testing.T) {
	fetcher := &mockFetcher{}
	d := New(fetcher, Options{OutputDir: t.TempDir()}, nil, logger.NewNopLogger())

	count, results, err := d.DownloadPage(context.Background(), []booru.Post{{ID: 9, Filename: "x.jpg"}})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.False(t, results[0].Success)
	assert.Equal(t, int32(0), fetcher.calls)
}

func TestNewDefaults(t *testing.T) {
	d := New(&mockFetcher{}, Options{OutputDir: "out"}, nil, nil)
	assert.Equal(t, DefaultParallel, d.parallel)
	assert.NotNil(t, d.logger)
}

func TestNewLogsComponentStart(t *testing.T) {
	testLog := logger.NewTestLogger()
	New(&mockFetcher{}, Options{OutputDir: "out", Parallel: 3}, nil, testLog)

	infos := testLog.GetMessagesByLevel("INFO")
	require.Len(t, infos, 1)
	assert.Equal(t, "Component started", infos[0].Message)
	assert.Equal(t, "downloader", infos[0].Fields["component"])
	assert.Equal(t, "out", infos[0].Fields["output_dir"])
	assert.Equal(t, 3, infos[0].Fields["parallel"])
}
