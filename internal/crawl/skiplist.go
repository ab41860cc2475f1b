package crawl

import "strings"

// hostSkipList holds hosts the crawler never follows as deep links: link
// aggregators and social platforms whose pages only yield platform noise.
// Entries are exact hosts or *.suffix patterns.
type hostSkipList struct {
	exact    map[string]struct{}
	suffixes []string
}

func newHostSkipList(patterns []string) *hostSkipList {
	matcher := &hostSkipList{exact: make(map[string]struct{})}
	for _, raw := range patterns {
		value := strings.TrimSpace(strings.ToLower(raw))
		if value == "" {
			continue
		}
		if strings.HasPrefix(value, "*.") || strings.HasPrefix(value, ".") {
			suffix := strings.TrimLeft(value, "*.")
			if suffix != "" {
				matcher.suffixes = append(matcher.suffixes, suffix)
			}
			continue
		}
		matcher.exact[value] = struct{}{}
	}
	return matcher
}

func (s *hostSkipList) Skipped(host string) bool {
	if s == nil {
		return false
	}
	host = strings.TrimSpace(strings.ToLower(host))
	if host == "" {
		return false
	}
	if _, ok := s.exact[host]; ok {
		return true
	}
	// www.linktr.ee should match a bare linktr.ee entry.
	if trimmed := strings.TrimPrefix(host, "www."); trimmed != host {
		if _, ok := s.exact[trimmed]; ok {
			return true
		}
	}
	for _, suffix := range s.suffixes {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return true
		}
	}
	return false
}
