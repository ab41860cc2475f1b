package pipeline

import (
	"context"
	"time"
)

// Extractor scans free text for candidate addresses. Implementations must be
// pure and safe for concurrent use.
type Extractor interface {
	Extract(text string, source SourceKind, sourceURL string, depth int) []RawCandidate
}

// Crawler fetches a user's declared links plus qualifying deep links and
// returns the text of every page that fetched successfully.
type Crawler interface {
	Crawl(ctx context.Context, seeds []string) []Page
}

// Merger combines one user's candidates into a ranked list, highest first.
type Merger interface {
	Merge(candidates []RawCandidate) []ScoredCandidate
}

// Verifier classifies the deliverability of a single address.
type Verifier interface {
	Verify(ctx context.Context, address string) VerificationResult
}

// RecordStore persists best-email records keyed by user.
type RecordStore interface {
	Upsert(ctx context.Context, record BestEmailRecord) error
	Get(ctx context.Context, userID string) (BestEmailRecord, error)
	List(ctx context.Context) ([]BestEmailRecord, error)
}

// Publisher hands completed records to the downstream mailer.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Archive stores raw fetched page bodies for offline re-extraction.
type Archive interface {
	Put(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
