// Package pipeline defines core types shared across the email discovery stages.
package pipeline

import "time"

// SourceKind identifies where a candidate address was found.
type SourceKind string

// Candidate sources, ordered by trust.
const (
	SourceBioText     SourceKind = "bio_text"
	SourceProfileLink SourceKind = "profile_link"
	SourceDeepLink    SourceKind = "deep_link"
	SourceGuessed     SourceKind = "guessed"
)

// Verdict classifies the deliverability of an address.
type Verdict string

// Verdict values attached to the chosen best candidate.
const (
	VerdictVerified Verdict = "verified"
	VerdictRejected Verdict = "rejected"
	VerdictUnknown  Verdict = "unknown"
)

// UserRecord is the per-person input unit produced by the upstream collector.
// The pipeline reads it and never mutates it.
type UserRecord struct {
	UserID        string   `json:"user_id"`
	FullName      string   `json:"full_name,omitempty"`
	BioText       string   `json:"bio_text"`
	DeclaredLinks []string `json:"declared_links"`
}

// RawCandidate is a single email-like match, immutable once created.
type RawCandidate struct {
	Address      string     `json:"address"`
	Source       SourceKind `json:"source"`
	SourceURL    string     `json:"source_url,omitempty"`
	FoundAtDepth int        `json:"found_at_depth"`
}

// ScoredCandidate is a RawCandidate plus its rank within one user's set.
// The Sources slice lists every distinct source that produced the address.
type ScoredCandidate struct {
	RawCandidate
	Sources []SourceKind `json:"sources"`
	Score   int          `json:"score"`
	Rank    int          `json:"rank"`
}

// VerificationResult records the outcome of the deliverability check.
// SMTPAccepted is nil when the probe was skipped or inconclusive.
type VerificationResult struct {
	Address      string  `json:"address"`
	MXFound      bool    `json:"mx_found"`
	SMTPAccepted *bool   `json:"smtp_accepted,omitempty"`
	Verdict      Verdict `json:"verdict"`
	Detail       string  `json:"detail,omitempty"`
}

// BestEmailRecord is the pipeline output, one per user. Reruns for the same
// user overwrite the previous record.
type BestEmailRecord struct {
	UserID      string     `json:"user_id"`
	Address     string     `json:"address"`
	Verdict     Verdict    `json:"verdict"`
	Source      SourceKind `json:"source"`
	ProcessedAt time.Time  `json:"processed_at"`
}

// Page is one successfully fetched page handed back by the crawler.
type Page struct {
	URL   string
	Depth int
	Text  string
}

// RunCounters tracks aggregate progress across one pipeline run.
type RunCounters struct {
	UsersProcessed int `json:"users_processed"`
	UsersNoEmail   int `json:"users_no_email"`
	PagesFetched   int `json:"pages_fetched"`
	PagesFailed    int `json:"pages_failed"`
	Verified       int `json:"verified"`
	Rejected       int `json:"rejected"`
	Unknown        int `json:"unknown"`
}
