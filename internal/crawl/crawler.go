package crawl

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/url"
	"path"

	"go.uber.org/zap"

	"github.com/outreachkit/prospector/internal/metrics"
	"github.com/outreachkit/prospector/internal/pipeline"
	"github.com/outreachkit/prospector/internal/quota"
	"github.com/outreachkit/prospector/internal/ratelimit"
)

// Crawler walks a user's declared links breadth-first and hands back the
// text of every page that fetched successfully. Individual page failures are
// logged and skipped; they never abort the crawl of sibling URLs.
type Crawler struct {
	cfg      Config
	fetcher  Fetcher
	headless Fetcher
	detector *HeadlessDetector
	limiter  *ratelimit.Limiter
	quota    *quota.Quota
	archive  pipeline.Archive
	skip     *hostSkipList
	logger   *zap.Logger
}

// New builds a Crawler. Limiter and quota may be nil in tests.
func New(cfg Config, fetcher Fetcher, limiter *ratelimit.Limiter, q *quota.Quota, logger *zap.Logger) *Crawler {
	return &Crawler{
		cfg:     cfg,
		fetcher: fetcher,
		limiter: limiter,
		quota:   q,
		skip:    newHostSkipList(cfg.SkipDomains),
		logger:  logger,
	}
}

// SetHeadless enables headless escalation for pages the detector flags.
func (c *Crawler) SetHeadless(fetcher Fetcher, detector *HeadlessDetector) {
	c.headless = fetcher
	c.detector = detector
}

// SetArchive enables raw-body archiving of fetched pages.
func (c *Crawler) SetArchive(archive pipeline.Archive) {
	c.archive = archive
}

type queueItem struct {
	url   string
	depth int
}

// Crawl fetches seeds at depth 0 and qualifying deep links up to MaxDepth,
// bounded by MaxPages. A canceled context stops the walk after the in-flight
// fetch; pages gathered so far are still returned.
func (c *Crawler) Crawl(ctx context.Context, seeds []string) []pipeline.Page {
	queue := make([]queueItem, 0, len(seeds))
	for _, seed := range seeds {
		queue = append(queue, queueItem{url: seed, depth: 0})
	}

	visited := make(map[string]struct{})
	fetched := 0
	var pages []pipeline.Page

	for len(queue) > 0 {
		if ctx.Err() != nil {
			break
		}
		item := queue[0]
		queue = queue[1:]

		canonical, parsedURL, err := canonicalizeURL(item.url)
		if err != nil {
			c.logger.Warn("unparseable url skipped", zap.String("url", item.url), zap.Error(err))
			continue
		}
		if _, seen := visited[canonical]; seen {
			continue
		}
		visited[canonical] = struct{}{}

		if c.cfg.MaxPages > 0 && fetched >= c.cfg.MaxPages {
			break
		}

		result, err := c.fetchPage(ctx, canonical)
		if err != nil || result.StatusCode < 200 || result.StatusCode >= 300 {
			metrics.ObservePage(canonical, "failed")
			c.logger.Warn("page fetch failed",
				zap.String("url", canonical),
				zap.Int("depth", item.depth),
				zap.Int("status_code", result.StatusCode),
				zap.Error(err),
			)
			continue
		}
		fetched++
		metrics.ObservePage(canonical, "fetched")

		c.archiveBody(ctx, result)

		base := parsedURL
		if final, perr := url.Parse(result.FinalURL); perr == nil {
			base = final
		}
		page, perr := parsePage(result.Body, base, c.cfg.LinkKeywords)
		if perr != nil {
			c.logger.Warn("page parse failed", zap.String("url", canonical), zap.Error(perr))
			continue
		}

		pages = append(pages, pipeline.Page{
			URL:   result.FinalURL,
			Depth: item.depth,
			Text:  page.text,
		})

		if item.depth >= c.cfg.MaxDepth {
			continue
		}
		for _, link := range page.links {
			target, err := url.Parse(link)
			if err != nil {
				continue
			}
			if c.skip.Skipped(target.Hostname()) {
				continue
			}
			queue = append(queue, queueItem{url: link, depth: item.depth + 1})
		}
	}
	return pages
}

// fetchPage applies politeness and quota before the fetch and escalates to
// headless rendering when the probe result looks like a JS shell.
func (c *Crawler) fetchPage(ctx context.Context, rawURL string) (FetchResult, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, rawURL); err != nil {
			return FetchResult{}, err
		}
	}
	if c.quota != nil {
		if err := c.quota.Acquire(ctx); err != nil {
			return FetchResult{}, err
		}
		defer c.quota.Release()
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	result, err := c.fetcher.Fetch(reqCtx, rawURL)
	if err != nil {
		return result, fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	if c.headless != nil && c.detector.NeedsJS(result.Body) {
		rendered, rerr := c.headless.Fetch(reqCtx, rawURL)
		if rerr != nil {
			c.logger.Warn("headless escalation failed", zap.String("url", rawURL), zap.Error(rerr))
			return result, nil
		}
		return rendered, nil
	}
	return result, nil
}

func (c *Crawler) archiveBody(ctx context.Context, result FetchResult) {
	if c.archive == nil || !c.cfg.ArchivePages || len(result.Body) == 0 {
		return
	}
	name := path.Join("pages", fmt.Sprintf("%x.html", sha256.Sum256([]byte(result.FinalURL))))
	if _, err := c.archive.Put(ctx, name, "text/html; charset=utf-8", result.Body); err != nil {
		c.logger.Warn("page archive failed", zap.String("url", result.FinalURL), zap.Error(err))
	}
}

// canonicalizeURL normalizes scheme and fragment so the visited set catches
// trivially equal URLs.
func canonicalizeURL(raw string) (string, *url.URL, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", nil, err
	}
	if parsed.Scheme == "" {
		parsed.Scheme = "https"
	}
	if parsed.Host == "" {
		return "", nil, fmt.Errorf("url %q has no host", raw)
	}
	parsed.Fragment = ""
	if parsed.Path == "" {
		parsed.Path = "/"
	}
	return parsed.String(), parsed, nil
}
