package crawl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/outreachkit/prospector/internal/metrics"
	"github.com/outreachkit/prospector/internal/pipeline"
)

func TestMain(m *testing.M) {
	metrics.Init()
	os.Exit(m.Run())
}

type fakeFetcher struct {
	mu      sync.Mutex
	pages   map[string]FetchResult
	errs    map[string]error
	fetched []string
	delay   time.Duration
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages: make(map[string]FetchResult),
		errs:  make(map[string]error),
	}
}

func (f *fakeFetcher) addPage(url string, body string) {
	f.pages[url] = FetchResult{URL: url, FinalURL: url, StatusCode: 200, Body: []byte(body)}
}

func (f *fakeFetcher) Fetch(ctx context.Context, rawURL string) (FetchResult, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, rawURL)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return FetchResult{}, ctx.Err()
		}
	}
	if err, ok := f.errs[rawURL]; ok {
		return FetchResult{URL: rawURL}, err
	}
	if res, ok := f.pages[rawURL]; ok {
		return res, nil
	}
	return FetchResult{URL: rawURL, StatusCode: 404}, nil
}

func (f *fakeFetcher) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetched)
}

func testConfig() Config {
	return Config{
		MaxDepth:       1,
		MaxPages:       10,
		RequestTimeout: time.Second,
		LinkKeywords:   []string{"contact", "about"},
	}
}

func pageURLs(pages []pipeline.Page) []string {
	urls := make([]string, 0, len(pages))
	for _, p := range pages {
		urls = append(urls, p.URL)
	}
	return urls
}

func TestCrawlSeedAndDeepLink(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.addPage("https://jane.example/", `<html><body>
		hello <a href="/contact">Contact</a>
	</body></html>`)
	fetcher.addPage("https://jane.example/contact", `<html><body>
		write to jane.doe@examplemail.com
	</body></html>`)

	crawler := New(testConfig(), fetcher, nil, nil, zap.NewNop())
	pages := crawler.Crawl(context.Background(), []string{"https://jane.example/"})

	require.Len(t, pages, 2)
	assert.Equal(t, 0, pages[0].Depth)
	assert.Equal(t, 1, pages[1].Depth)
	assert.Equal(t, "https://jane.example/contact", pages[1].URL)
	assert.Contains(t, pages[1].Text, "jane.doe@examplemail.com")
}

func TestCrawlDepthLimit(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.addPage("https://jane.example/", `<a href="/contact">Contact</a>`)
	fetcher.addPage("https://jane.example/contact", `<a href="/contact/deeper">Contact deeper</a>`)
	fetcher.addPage("https://jane.example/contact/deeper", `too deep`)

	crawler := New(testConfig(), fetcher, nil, nil, zap.NewNop())
	pages := crawler.Crawl(context.Background(), []string{"https://jane.example/"})

	assert.Equal(t, []string{
		"https://jane.example/",
		"https://jane.example/contact",
	}, pageURLs(pages))
}

func TestCrawlMaxPages(t *testing.T) {
	fetcher := newFakeFetcher()
	var anchors string
	for i := 0; i < 10; i++ {
		url := fmt.Sprintf("https://jane.example/contact-%d", i)
		anchors += fmt.Sprintf(`<a href=%q>Contact %d</a>`, url, i)
		fetcher.addPage(url, "page")
	}
	fetcher.addPage("https://jane.example/", anchors)

	cfg := testConfig()
	cfg.MaxPages = 3
	crawler := New(cfg, fetcher, nil, nil, zap.NewNop())
	pages := crawler.Crawl(context.Background(), []string{"https://jane.example/"})

	assert.Len(t, pages, 3)
}

func TestCrawlSkipsFailedPages(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.errs["https://down.example/"] = errors.New("connection refused")
	fetcher.addPage("https://jane.example/", "fine")

	crawler := New(testConfig(), fetcher, nil, nil, zap.NewNop())
	pages := crawler.Crawl(context.Background(), []string{
		"https://down.example/",
		"https://jane.example/",
	})

	assert.Equal(t, []string{"https://jane.example/"}, pageURLs(pages))
}

func TestCrawlSkipsNonSuccessStatus(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.pages["https://gone.example/"] = FetchResult{
		URL: "https://gone.example/", FinalURL: "https://gone.example/", StatusCode: 404,
	}

	crawler := New(testConfig(), fetcher, nil, nil, zap.NewNop())
	pages := crawler.Crawl(context.Background(), []string{"https://gone.example/"})

	assert.Empty(t, pages)
}

func TestCrawlDedupesVisited(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.addPage("https://jane.example/", `<a href="https://jane.example/#top">Contact top</a>`)

	crawler := New(testConfig(), fetcher, nil, nil, zap.NewNop())
	pages := crawler.Crawl(context.Background(), []string{
		"https://jane.example/",
		"https://jane.example",
	})

	assert.Len(t, pages, 1)
	assert.Equal(t, 1, fetcher.fetchCount())
}

func TestCrawlSkipDomains(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.addPage("https://jane.example/", `<a href="https://linktr.ee/jane">Contact links</a>`)
	fetcher.addPage("https://linktr.ee/jane", "aggregator")

	cfg := testConfig()
	cfg.SkipDomains = []string{"linktr.ee"}
	crawler := New(cfg, fetcher, nil, nil, zap.NewNop())
	pages := crawler.Crawl(context.Background(), []string{"https://jane.example/"})

	assert.Equal(t, []string{"https://jane.example/"}, pageURLs(pages))
}

func TestCrawlSeedOnSkippedDomainStillFetched(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.addPage("https://linktr.ee/jane", "declared by the user")

	cfg := testConfig()
	cfg.SkipDomains = []string{"linktr.ee"}
	crawler := New(cfg, fetcher, nil, nil, zap.NewNop())
	pages := crawler.Crawl(context.Background(), []string{"https://linktr.ee/jane"})

	assert.Len(t, pages, 1)
}

func TestCrawlCanceledContextReturnsPartial(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.addPage("https://jane.example/", `<a href="/contact">Contact</a>`)
	fetcher.addPage("https://jane.example/contact", "more")

	ctx, cancel := context.WithCancel(context.Background())
	crawler := New(testConfig(), fetcher, nil, nil, zap.NewNop())

	// Cancel after the first page by wrapping the fetcher.
	pages := crawler.Crawl(ctx, []string{"https://jane.example/"})
	require.Len(t, pages, 2)

	cancel()
	pages = crawler.Crawl(ctx, []string{"https://jane.example/"})
	assert.Empty(t, pages)
}

func TestCrawlTimeoutSeedYieldsNothing(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.addPage("https://slow.example/", "eventually")
	fetcher.delay = 200 * time.Millisecond

	cfg := testConfig()
	cfg.RequestTimeout = 10 * time.Millisecond
	crawler := New(cfg, fetcher, nil, nil, zap.NewNop())
	pages := crawler.Crawl(context.Background(), []string{"https://slow.example/"})

	assert.Empty(t, pages)
}

func TestCrawlHeadlessEscalation(t *testing.T) {
	shell := `<div id="root"></div>`
	fetcher := newFakeFetcher()
	fetcher.addPage("https://spa.example/", shell)

	headless := newFakeFetcher()
	headless.addPage("https://spa.example/", `<html><body>rendered jane@spa.example</body></html>`)

	crawler := New(testConfig(), fetcher, nil, nil, zap.NewNop())
	crawler.SetHeadless(headless, NewHeadlessDetector(0, []string{`id="root"`}))

	pages := crawler.Crawl(context.Background(), []string{"https://spa.example/"})
	require.Len(t, pages, 1)
	assert.Contains(t, pages[0].Text, "jane@spa.example")
	assert.Equal(t, 1, headless.fetchCount())
}

func TestCrawlHeadlessFailureFallsBackToStatic(t *testing.T) {
	shell := `<div id="root">static@spa.example</div>`
	fetcher := newFakeFetcher()
	fetcher.addPage("https://spa.example/", shell)

	headless := newFakeFetcher()
	headless.errs["https://spa.example/"] = errors.New("chrome crashed")

	crawler := New(testConfig(), fetcher, nil, nil, zap.NewNop())
	crawler.SetHeadless(headless, NewHeadlessDetector(0, []string{`id="root"`}))

	pages := crawler.Crawl(context.Background(), []string{"https://spa.example/"})
	require.Len(t, pages, 1)
	assert.Contains(t, pages[0].Text, "static@spa.example")
}

type memArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (a *memArchive) Put(_ context.Context, name, _ string, body []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.objects == nil {
		a.objects = make(map[string][]byte)
	}
	a.objects[name] = append([]byte{}, body...)
	return name, nil
}

func TestCrawlArchivesPages(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.addPage("https://jane.example/", "hello")

	cfg := testConfig()
	cfg.ArchivePages = true
	archive := &memArchive{}
	crawler := New(cfg, fetcher, nil, nil, zap.NewNop())
	crawler.SetArchive(archive)

	pages := crawler.Crawl(context.Background(), []string{"https://jane.example/"})
	require.Len(t, pages, 1)
	assert.Len(t, archive.objects, 1)
}
