// Package crawl fetches a user's declared links plus one hop of qualifying
// deep links, within hard page, depth, and time budgets.
package crawl

import "time"

// FetchResult is a raw page fetch outcome.
type FetchResult struct {
	URL        string
	FinalURL   string
	StatusCode int
	Body       []byte
}

// Config captures every knob that influences one crawl.
type Config struct {
	MaxDepth       int
	MaxPages       int
	RequestTimeout time.Duration
	MaxPageBytes   int64
	UserAgent      string
	// LinkKeywords filter which in-page anchors qualify as deep links; an
	// anchor is followed only when its text or URL contains one of these.
	LinkKeywords []string
	// SkipDomains are never followed as deep links (link aggregators, social
	// platforms). Exact hosts or *.suffix patterns.
	SkipDomains []string
	ArchivePages bool
}
