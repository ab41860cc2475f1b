// Package score merges one user's raw candidates into a deterministically
// ranked list. Reruns on identical input produce bit-identical output, which
// downstream callers rely on when picking the best address.
package score

import (
	"sort"
	"strings"

	"github.com/outreachkit/prospector/internal/pipeline"
)

// Base score by source. Direct declarations are trusted more than crawled
// pages; synthesized guesses rank below everything found.
var baseScore = map[pipeline.SourceKind]int{
	pipeline.SourceBioText:     3,
	pipeline.SourceProfileLink: 2,
	pipeline.SourceDeepLink:    1,
	pipeline.SourceGuessed:     0,
}

// sourceOrder fixes the trust ordering used for representative selection and
// the Sources listing.
var sourceOrder = []pipeline.SourceKind{
	pipeline.SourceBioText,
	pipeline.SourceProfileLink,
	pipeline.SourceDeepLink,
	pipeline.SourceGuessed,
}

// Merger implements pipeline.Merger.
type Merger struct{}

// New returns a Merger.
func New() Merger {
	return Merger{}
}

// Merge groups candidates by address, scores each group, and returns the full
// ranked list, highest score first. Nothing is discarded; callers decide how
// many entries to verify.
//
// Score = base of the most trusted source, +1 if the address was corroborated
// by more than one distinct source (capped at +1). Ties break by shortest
// local part, then lexicographic order of the full address.
func (Merger) Merge(candidates []pipeline.RawCandidate) []pipeline.ScoredCandidate {
	if len(candidates) == 0 {
		return nil
	}

	type group struct {
		representative pipeline.RawCandidate
		sources        map[pipeline.SourceKind]struct{}
	}
	groups := make(map[string]*group)
	for _, c := range candidates {
		g, ok := groups[c.Address]
		if !ok {
			g = &group{representative: c, sources: make(map[pipeline.SourceKind]struct{})}
			groups[c.Address] = g
		}
		g.sources[c.Source] = struct{}{}
		if betterRepresentative(c, g.representative) {
			g.representative = c
		}
	}

	out := make([]pipeline.ScoredCandidate, 0, len(groups))
	for _, g := range groups {
		var sources []pipeline.SourceKind
		for _, s := range sourceOrder {
			if _, ok := g.sources[s]; ok {
				sources = append(sources, s)
			}
		}
		scored := pipeline.ScoredCandidate{
			RawCandidate: g.representative,
			Sources:      sources,
			Score:        baseScore[sources[0]],
		}
		scored.Source = sources[0]
		if len(sources) > 1 {
			scored.Score++
		}
		out = append(out, scored)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		li, lj := localPartLen(out[i].Address), localPartLen(out[j].Address)
		if li != lj {
			return li < lj
		}
		return out[i].Address < out[j].Address
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// betterRepresentative prefers the candidate from the most trusted source,
// then the shallowest depth, then the lexicographically smallest source URL.
func betterRepresentative(a, b pipeline.RawCandidate) bool {
	pa, pb := sourcePriority(a.Source), sourcePriority(b.Source)
	if pa != pb {
		return pa < pb
	}
	if a.FoundAtDepth != b.FoundAtDepth {
		return a.FoundAtDepth < b.FoundAtDepth
	}
	return a.SourceURL < b.SourceURL
}

func sourcePriority(s pipeline.SourceKind) int {
	for i, k := range sourceOrder {
		if k == s {
			return i
		}
	}
	return len(sourceOrder)
}

func localPartLen(address string) int {
	at := strings.LastIndex(address, "@")
	if at < 0 {
		return len(address)
	}
	return at
}
