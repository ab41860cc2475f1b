package extract

import "strings"

// domainDenyList stores exact hosts and suffix wildcards derived from configuration.
// Patterns of the form "*.png" or ".png" match any domain ending in that suffix.
type domainDenyList struct {
	exact    map[string]struct{}
	suffixes []string
}

func newDomainDenyList(patterns []string) *domainDenyList {
	matcher := &domainDenyList{
		exact: make(map[string]struct{}),
	}
	for _, raw := range patterns {
		value := strings.TrimSpace(strings.ToLower(raw))
		if value == "" {
			continue
		}
		switch {
		case strings.HasPrefix(value, "*."):
			suffix := strings.TrimPrefix(value, "*.")
			if suffix != "" {
				matcher.addSuffix(suffix)
			}
		case strings.HasPrefix(value, "."):
			suffix := strings.TrimPrefix(value, ".")
			if suffix != "" {
				matcher.addSuffix(suffix)
			}
		default:
			matcher.exact[value] = struct{}{}
		}
	}
	if len(matcher.exact) == 0 && len(matcher.suffixes) == 0 {
		return nil
	}
	return matcher
}

func (d *domainDenyList) addSuffix(suffix string) {
	for _, existing := range d.suffixes {
		if existing == suffix {
			return
		}
	}
	d.suffixes = append(d.suffixes, suffix)
}

// IsDenied reports whether the domain matches an exact entry or suffix pattern.
func (d *domainDenyList) IsDenied(domain string) bool {
	if d == nil {
		return false
	}
	domain = strings.TrimSpace(strings.ToLower(domain))
	if domain == "" {
		return false
	}
	if _, exact := d.exact[domain]; exact {
		return true
	}
	for _, suffix := range d.suffixes {
		if domain == suffix || strings.HasSuffix(domain, "."+suffix) {
			return true
		}
	}
	return false
}
