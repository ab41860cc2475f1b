// Package verify classifies the deliverability of an address with a DNS
// existence check and an optional single-shot SMTP handshake probe. It never
// sends mail and never retries an exchanger; ambiguity is reported as
// unknown rather than guessed away.
package verify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/outreachkit/prospector/internal/metrics"
	"github.com/outreachkit/prospector/internal/pipeline"
	"github.com/outreachkit/prospector/internal/quota"
)

// Config controls verification behavior.
type Config struct {
	ProbeEnabled bool
	Timeout      time.Duration
	Port         int
	HELODomain   string
	MailFrom     string
}

// Verifier implements pipeline.Verifier. No DNS or SMTP results are cached
// across calls; callers may layer caching externally.
type Verifier struct {
	resolver Resolver
	prober   Prober
	quota    *quota.Quota
	logger   *zap.Logger
	cfg      Config
}

// New builds a Verifier. The quota may be nil in tests; production wiring
// always passes the shared outbound connection quota.
func New(resolver Resolver, prober Prober, q *quota.Quota, logger *zap.Logger, cfg Config) *Verifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if cfg.HELODomain == "" {
		cfg.HELODomain = "example.com"
	}
	if cfg.MailFrom == "" {
		cfg.MailFrom = "noreply@" + cfg.HELODomain
	}
	return &Verifier{
		resolver: resolver,
		prober:   prober,
		quota:    q,
		logger:   logger,
		cfg:      cfg,
	}
}

// Verify runs the per-address state machine: MX resolution, then an optional
// handshake probe against the most preferred exchanger. Every branch is
// terminal after one attempt. Transient failures yield VerdictUnknown, never
// VerdictRejected.
func (v *Verifier) Verify(ctx context.Context, address string) pipeline.VerificationResult {
	result := pipeline.VerificationResult{Address: address, Verdict: pipeline.VerdictUnknown}

	at := strings.LastIndex(address, "@")
	if at <= 0 || at == len(address)-1 {
		result.Detail = "malformed address"
		return result
	}
	domain := strings.ToLower(address[at+1:])

	exchanger, state := v.resolveExchanger(ctx, domain)
	switch state {
	case dnsAbsent:
		result.Verdict = pipeline.VerdictRejected
		result.Detail = "no mx or address records"
		return result
	case dnsAmbiguous:
		result.Detail = "dns lookup inconclusive"
		return result
	}

	result.MXFound = true
	if !v.cfg.ProbeEnabled {
		result.Detail = "smtp probe disabled"
		return result
	}

	if err := v.acquire(ctx); err != nil {
		result.Detail = "outbound quota unavailable"
		return result
	}
	start := time.Now()
	probeCtx, cancel := context.WithTimeout(ctx, v.cfg.Timeout)
	probe := v.prober.Probe(probeCtx, exchanger, address)
	cancel()
	v.release()
	metrics.ObserveVerifyPhase("smtp", time.Since(start))

	result.Detail = probe.Detail
	switch probe.Outcome {
	case ProbeAccepted:
		accepted := true
		result.SMTPAccepted = &accepted
		result.Verdict = pipeline.VerdictVerified
	case ProbeRejected:
		accepted := false
		result.SMTPAccepted = &accepted
		result.Verdict = pipeline.VerdictRejected
	case ProbeCatchAll, ProbeAmbiguous:
		result.Verdict = pipeline.VerdictUnknown
	}

	v.logger.Debug("smtp probe finished",
		zap.String("address", address),
		zap.String("exchanger", exchanger),
		zap.String("verdict", string(result.Verdict)),
		zap.String("detail", result.Detail),
	)
	return result
}

type dnsState int

const (
	dnsFound dnsState = iota
	dnsAbsent
	dnsAmbiguous
)

// resolveExchanger returns the most preferred exchanger for the domain. A
// domain with no MX but a resolvable A/AAAA record is treated as its own
// implicit exchanger per RFC 5321.
func (v *Verifier) resolveExchanger(ctx context.Context, domain string) (string, dnsState) {
	if err := v.acquire(ctx); err != nil {
		return "", dnsAmbiguous
	}
	defer v.release()

	start := time.Now()
	defer func() { metrics.ObserveVerifyPhase("dns", time.Since(start)) }()

	lookupCtx, cancel := context.WithTimeout(ctx, v.cfg.Timeout)
	defer cancel()

	records, err := v.resolver.LookupMX(lookupCtx, domain)
	if err == nil && len(records) > 0 {
		sorted := make([]*net.MX, len(records))
		copy(sorted, records)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Pref < sorted[j].Pref })
		return strings.TrimSuffix(sorted[0].Host, "."), dnsFound
	}
	if err != nil && !isNotFound(err) {
		v.logger.Debug("mx lookup failed", zap.String("domain", domain), zap.Error(err))
		return "", dnsAmbiguous
	}

	hosts, err := v.resolver.LookupHost(lookupCtx, domain)
	if err == nil && len(hosts) > 0 {
		return domain, dnsFound
	}
	if err != nil && !isNotFound(err) {
		v.logger.Debug("host lookup failed", zap.String("domain", domain), zap.Error(err))
		return "", dnsAmbiguous
	}
	return "", dnsAbsent
}

func (v *Verifier) acquire(ctx context.Context) error {
	if v.quota == nil {
		return nil
	}
	if err := v.quota.Acquire(ctx); err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	return nil
}

func (v *Verifier) release() {
	if v.quota != nil {
		v.quota.Release()
	}
}

// isNotFound reports a definitive DNS "does not exist" answer, as opposed to
// a timeout or server failure.
func isNotFound(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsNotFound
	}
	return false
}
