package crawl

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// parsedPage is the crawl-relevant content of one HTML document.
type parsedPage struct {
	// text approximates the visible text plus meta content plus raw mailto
	// hrefs, so the extractor sees everything a human or a mail client would.
	text string
	// links are absolute candidate URLs for the next hop.
	links []string
}

// parsePage extracts text and qualifying anchors from an HTML body.
// Script, style, and noscript content is dropped before text extraction.
func parsePage(body []byte, base *url.URL, keywords []string) (parsedPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return parsedPage{}, err
	}

	doc.Find("script, style, noscript").Remove()

	var b strings.Builder
	b.WriteString(doc.Text())

	doc.Find("meta[content]").Each(func(_ int, s *goquery.Selection) {
		if content, ok := s.Attr("content"); ok && content != "" {
			b.WriteString(" ")
			b.WriteString(content)
		}
	})

	var links []string
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		switch {
		case href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:"):
			return
		case strings.HasPrefix(strings.ToLower(href), "mailto:"):
			// Feed the address to the extractor; never follow it.
			addr := href[len("mailto:"):]
			if q := strings.IndexByte(addr, '?'); q >= 0 {
				addr = addr[:q]
			}
			b.WriteString(" ")
			b.WriteString(addr)
			return
		}

		if !anchorQualifies(s.Text(), href, keywords) {
			return
		}
		resolved := resolveLink(base, href)
		if resolved == "" {
			return
		}
		if _, dup := seen[resolved]; dup {
			return
		}
		seen[resolved] = struct{}{}
		links = append(links, resolved)
	})

	return parsedPage{text: collapseSpace(b.String()), links: links}, nil
}

// anchorQualifies applies the deep-link heuristic: without keywords nothing
// qualifies; with keywords, either the anchor text or the URL must mention one.
func anchorQualifies(anchorText, href string, keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}
	text := strings.ToLower(anchorText)
	target := strings.ToLower(href)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(text, kw) || strings.Contains(target, kw) {
			return true
		}
	}
	return false
}

func resolveLink(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := ref
	if base != nil {
		resolved = base.ResolveReference(ref)
	}
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	return resolved.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
