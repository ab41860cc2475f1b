// Package extract finds candidate email addresses in free text while
// suppressing the placeholder and asset-path matches that litter profile
// bios and page boilerplate.
package extract

import (
	"regexp"
	"strings"

	"github.com/outreachkit/prospector/internal/pipeline"
)

// Address grammar: restricted local part, dot-separated domain labels, final
// label 2-24 alphabetic characters. Deliberately narrower than RFC 5321 to
// keep false positives out of scoring.
var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@(?:[A-Za-z0-9-]+\.)+[A-Za-z]{2,24}`)

// Spelled-out obfuscations commonly used in bios to dodge scrapers.
var (
	bracketAt  = regexp.MustCompile(`(?i)\s*\[\s*at\s*\]\s*|\s*\(\s*at\s*\)\s*`)
	bracketDot = regexp.MustCompile(`(?i)\s*\[\s*dot\s*\]\s*|\s*\(\s*dot\s*\)\s*`)
	bareAt     = regexp.MustCompile(`(?i)\s+at\s+`)
	bareDot    = regexp.MustCompile(`(?i)\s+dot\s+`)
)

// Config controls extraction behavior. All fields are optional.
type Config struct {
	DenyDomains    []string
	DenyLocalParts []string
	Deobfuscate    bool
}

// Extractor is a pure text scanner. Safe for concurrent use.
type Extractor struct {
	denyDomains *domainDenyList
	denyLocals  map[string]struct{}
	deobfuscate bool
}

// New builds an Extractor from the given configuration.
func New(cfg Config) *Extractor {
	locals := make(map[string]struct{}, len(cfg.DenyLocalParts))
	for _, lp := range cfg.DenyLocalParts {
		lp = strings.TrimSpace(strings.ToLower(lp))
		if lp != "" {
			locals[lp] = struct{}{}
		}
	}
	return &Extractor{
		denyDomains: newDomainDenyList(cfg.DenyDomains),
		denyLocals:  locals,
		deobfuscate: cfg.Deobfuscate,
	}
}

// Extract returns every address in text that passes the grammar and the deny
// lists, classified by source. Exact repeats within one call are collapsed;
// the same address from a different call keeps its own provenance.
func (e *Extractor) Extract(text string, source pipeline.SourceKind, sourceURL string, depth int) []pipeline.RawCandidate {
	if text == "" {
		return nil
	}
	if e.deobfuscate {
		text = deobfuscate(text)
	}

	seen := make(map[string]struct{})
	var out []pipeline.RawCandidate
	for _, match := range emailPattern.FindAllString(text, -1) {
		address, ok := e.normalize(match)
		if !ok {
			continue
		}
		if _, dup := seen[address]; dup {
			continue
		}
		seen[address] = struct{}{}
		out = append(out, pipeline.RawCandidate{
			Address:      address,
			Source:       source,
			SourceURL:    sourceURL,
			FoundAtDepth: depth,
		})
	}
	return out
}

// normalize lowercases the domain, preserves local-part case, strips stray
// punctuation, and applies both deny lists.
func (e *Extractor) normalize(match string) (string, bool) {
	match = strings.Trim(match, ".-_")
	at := strings.LastIndex(match, "@")
	if at <= 0 || at == len(match)-1 {
		return "", false
	}
	local := match[:at]
	domain := strings.ToLower(match[at+1:])

	if e.denyDomains.IsDenied(domain) {
		return "", false
	}
	if _, denied := e.denyLocals[strings.ToLower(local)]; denied {
		return "", false
	}
	return local + "@" + domain, true
}

// deobfuscate rewrites "[at]"/"(at)" to "@" and the dot equivalents, so
// spelled-out addresses reach the grammar matcher. The bare " at "/" dot "
// form is only trusted when the text carries no literal "@" at all;
// otherwise "reach me at jane@site.com" would be mangled into a bogus match.
func deobfuscate(text string) string {
	out := bracketAt.ReplaceAllString(text, "@")
	out = bracketDot.ReplaceAllString(out, ".")
	if !strings.Contains(out, "@") {
		out = bareAt.ReplaceAllString(out, "@")
		out = bareDot.ReplaceAllString(out, ".")
	}
	return out
}
