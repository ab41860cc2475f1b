package crawl

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// Fetcher fetches a single URL and returns the body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (FetchResult, error)
}

// CollyFetcher implements Fetcher using the Colly collector.
type CollyFetcher struct {
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// NewCollyFetcher constructs a configured Colly-based Fetcher.
func NewCollyFetcher(cfg Config, logger *zap.Logger) *CollyFetcher {
	base := colly.NewCollector(
		colly.Async(true),
		colly.UserAgent(cfg.UserAgent),
	)
	base.AllowURLRevisit = true
	if cfg.MaxPageBytes > 0 {
		base.MaxBodySize = int(cfg.MaxPageBytes)
	}
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.RequestTimeout,
		ForceAttemptHTTP2:     true,
	})
	base.SetRequestTimeout(cfg.RequestTimeout)

	return &CollyFetcher{
		baseCollector: base,
		logger:        logger,
	}
}

// Fetch retrieves one page via a clone of the base collector. Failures and
// non-success statuses surface as errors; the caller decides whether they
// abort anything.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string) (FetchResult, error) {
	collector := f.baseCollector.Clone()
	resultCh := make(chan fetchOutcome, 1)
	var once sync.Once
	send := func(res fetchOutcome) {
		once.Do(func() {
			resultCh <- res
		})
	}

	collector.OnResponse(func(r *colly.Response) {
		send(fetchOutcome{result: FetchResult{
			URL:        rawURL,
			FinalURL:   r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte{}, r.Body...),
		}})
	})

	collector.OnError(func(r *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		send(fetchOutcome{result: FetchResult{URL: rawURL, StatusCode: status}, err: err})
	})

	if err := collector.Visit(rawURL); err != nil {
		return FetchResult{}, err
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		if err := ctx.Err(); err != nil {
			return FetchResult{}, err
		}
		return res.result, res.err
	default:
		return FetchResult{}, errors.New("colly fetch produced no result")
	}
}

type fetchOutcome struct {
	result FetchResult
	err    error
}
