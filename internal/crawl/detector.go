package crawl

import (
	"bytes"
	"strings"
)

// HeadlessDetector decides whether a fetched page is a JavaScript shell that
// warrants a headless re-fetch. Link-in-bio and portfolio builders often
// serve an empty div plus a bundle.
type HeadlessDetector struct {
	minHTMLBytes int
	markers      [][]byte
}

// NewHeadlessDetector constructs a detector with the configured thresholds.
func NewHeadlessDetector(minBytes int, markers []string) *HeadlessDetector {
	lowered := make([][]byte, 0, len(markers))
	for _, m := range markers {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		lowered = append(lowered, bytes.ToLower([]byte(m)))
	}
	return &HeadlessDetector{
		minHTMLBytes: minBytes,
		markers:      lowered,
	}
}

// NeedsJS inspects the body for signals that static fetching was not enough.
func (d *HeadlessDetector) NeedsJS(body []byte) bool {
	if d == nil {
		return false
	}
	if d.minHTMLBytes > 0 && len(body) < d.minHTMLBytes {
		return true
	}
	if len(body) == 0 || len(d.markers) == 0 {
		return false
	}
	lowered := bytes.ToLower(body)
	for _, m := range d.markers {
		if bytes.Contains(lowered, m) {
			return true
		}
	}
	return false
}
