package pipeline

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/outreachkit/prospector/internal/metrics"
)

// GuessFunc synthesizes pattern-based candidates from a person's name and a
// domain that already produced a found candidate.
type GuessFunc func(fullName, domain string) []RawCandidate

// RunnerConfig holds the per-run knobs the stages do not own themselves.
type RunnerConfig struct {
	// GuessEnabled turns on pattern-based candidate synthesis for domains
	// that yielded at least one found candidate.
	GuessEnabled bool
}

// Runner composes the per-user stages strictly in sequence:
// extract(bio) -> crawl(links) -> extract(pages) -> merge -> verify(best).
type Runner struct {
	cfg       RunnerConfig
	extractor Extractor
	crawler   Crawler
	merger    Merger
	verifier  Verifier
	guess     GuessFunc
	clock     Clock
	logger    *zap.Logger
}

// NewRunner assembles a Runner from its stage implementations.
func NewRunner(
	cfg RunnerConfig,
	extractor Extractor,
	crawler Crawler,
	merger Merger,
	verifier Verifier,
	clock Clock,
	logger *zap.Logger,
) *Runner {
	return &Runner{
		cfg:       cfg,
		extractor: extractor,
		crawler:   crawler,
		merger:    merger,
		verifier:  verifier,
		clock:     clock,
		logger:    logger,
	}
}

// SetGuesser wires the optional candidate synthesis stage.
func (r *Runner) SetGuesser(fn GuessFunc) {
	r.guess = fn
}

// Process runs one user through the pipeline. The second return value is
// false when the user produced zero candidates; no record is emitted then.
//
// Cancellation is cooperative: a canceled context lets the in-flight network
// call finish, skips the remaining effectful stages, and still emits a record
// built from the candidates gathered so far with verdict UNKNOWN.
func (r *Runner) Process(ctx context.Context, user UserRecord) (BestEmailRecord, bool) {
	candidates := r.extractor.Extract(user.BioText, SourceBioText, "", 0)
	metrics.ObserveCandidates(string(SourceBioText), len(candidates))

	if ctx.Err() == nil && len(user.DeclaredLinks) > 0 {
		pages := r.crawler.Crawl(ctx, user.DeclaredLinks)
		for _, page := range pages {
			source := SourceProfileLink
			if page.Depth > 0 {
				source = SourceDeepLink
			}
			found := r.extractor.Extract(page.Text, source, page.URL, page.Depth)
			metrics.ObserveCandidates(string(source), len(found))
			candidates = append(candidates, found...)
		}
	}

	if r.cfg.GuessEnabled && r.guess != nil && user.FullName != "" {
		candidates = append(candidates, r.guessCandidates(user.FullName, candidates)...)
	}

	if len(candidates) == 0 {
		metrics.ObserveUser("no_email")
		r.logger.Debug("no candidates for user", zap.String("user_id", user.UserID))
		return BestEmailRecord{}, false
	}

	ranked := r.merger.Merge(candidates)
	best := ranked[0]

	verdict := VerdictUnknown
	if ctx.Err() == nil {
		result := r.verifier.Verify(ctx, best.Address)
		verdict = result.Verdict
	} else {
		r.logger.Info("verification skipped on cancellation",
			zap.String("user_id", user.UserID),
			zap.String("address", best.Address),
		)
	}
	metrics.ObserveVerdict(string(verdict))
	metrics.ObserveUser("ok")

	return BestEmailRecord{
		UserID:      user.UserID,
		Address:     best.Address,
		Verdict:     verdict,
		Source:      best.Source,
		ProcessedAt: r.now(),
	}, true
}

// guessCandidates synthesizes guessed candidates for every distinct domain
// that already yielded a found (non-guessed) candidate.
func (r *Runner) guessCandidates(fullName string, found []RawCandidate) []RawCandidate {
	domains := make(map[string]struct{})
	var guessed []RawCandidate
	for _, c := range found {
		at := strings.LastIndexByte(c.Address, '@')
		if at < 0 {
			continue
		}
		domain := c.Address[at+1:]
		if _, seen := domains[domain]; seen {
			continue
		}
		domains[domain] = struct{}{}
		guessed = append(guessed, r.guess(fullName, domain)...)
	}
	metrics.ObserveCandidates(string(SourceGuessed), len(guessed))
	return guessed
}

func (r *Runner) now() time.Time {
	if r.clock == nil {
		return time.Now().UTC()
	}
	return r.clock.Now()
}
