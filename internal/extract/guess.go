package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/outreachkit/prospector/internal/pipeline"
)

var nonNameChars = regexp.MustCompile(`[^a-zA-Z\s]`)

// Guess synthesizes likely addresses for a person at a domain from their full
// name. Callers should only invoke this for domains that already yielded at
// least one real candidate; guessed addresses carry SourceGuessed and rank
// below every found source.
func Guess(fullName, domain string) []pipeline.RawCandidate {
	domain = strings.TrimSpace(strings.ToLower(domain))
	name := strings.TrimSpace(strings.ToLower(nonNameChars.ReplaceAllString(fullName, "")))
	if domain == "" || name == "" {
		return nil
	}

	parts := strings.Fields(name)
	first := parts[0]
	last := ""
	if len(parts) > 1 {
		last = parts[len(parts)-1]
	}

	bases := map[string]struct{}{first: {}}
	if last != "" {
		for _, b := range []string{
			first + "." + last,
			first + last,
			first[:1] + last,
			first + last[:1],
			first + "_" + last,
			first + "-" + last,
		} {
			bases[b] = struct{}{}
		}
	}

	ordered := make([]string, 0, len(bases))
	for b := range bases {
		ordered = append(ordered, b)
	}
	sort.Strings(ordered)

	out := make([]pipeline.RawCandidate, 0, len(ordered))
	for _, b := range ordered {
		out = append(out, pipeline.RawCandidate{
			Address:   b + "@" + domain,
			Source:    pipeline.SourceGuessed,
			SourceURL: "https://" + domain,
		})
	}
	return out
}
