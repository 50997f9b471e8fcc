package checker

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Mixed content severities, worst first.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityInfo     = "info"
)

// maxMixedContentURLs caps the URLs listed in a report; counts stay exact.
const maxMixedContentURLs = 20

var cssImportPattern = regexp.MustCompile(`(?i)@import\s+(?:url\()?\s*['"]?(http://[^'"\s)]+)`)

// MixedContentReport lists plain-HTTP subresources referenced by an HTTPS page.
type MixedContentReport struct {
	HasMixedContent bool     `json:"hasMixedContent"`
	Severity        string   `json:"severity"`
	URLs            []string `json:"urls"`
	InsecureScripts int      `json:"insecureScripts"`
	InsecureStyles  int      `json:"insecureStyles"`
	InsecureImages  int      `json:"insecureImages"`
	InsecureMedia   int      `json:"insecureMedia"`
	InsecureIframes int      `json:"insecureIframes"`
}

// CheckMixedContent scans an HTML body for http:// subresources. It returns
// nil unless pageURL is HTTPS.
func CheckMixedContent(body []byte, pageURL string) *MixedContentReport {
	if !strings.HasPrefix(strings.ToLower(pageURL), "https://") {
		return nil
	}

	report := &MixedContentReport{Severity: SeverityInfo, URLs: []string{}}
	seen := make(map[string]bool)
	add := func(raw string, counter *int) {
		raw = strings.TrimSpace(raw)
		if !strings.HasPrefix(strings.ToLower(raw), "http://") {
			return
		}
		*counter++
		if !seen[raw] && len(report.URLs) < maxMixedContentURLs {
			seen[raw] = true
			report.URLs = append(report.URLs, raw)
		}
	}

	z := html.NewTokenizer(bytes.NewReader(body))
	inStyle := false
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.Data {
			case "script":
				add(attr(tok, "src"), &report.InsecureScripts)
			case "img":
				add(attr(tok, "src"), &report.InsecureImages)
			case "iframe":
				add(attr(tok, "src"), &report.InsecureIframes)
			case "video", "audio", "source":
				add(attr(tok, "src"), &report.InsecureMedia)
			case "link":
				if strings.Contains(strings.ToLower(attr(tok, "rel")), "stylesheet") {
					add(attr(tok, "href"), &report.InsecureStyles)
				}
			case "style":
				inStyle = tt == html.StartTagToken
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); string(name) == "style" {
				inStyle = false
			}
		case html.TextToken:
			if inStyle {
				for _, m := range cssImportPattern.FindAllSubmatch(z.Text(), -1) {
					add(string(m[1]), &report.InsecureStyles)
				}
			}
		}
	}

	switch {
	case report.InsecureScripts > 0 || report.InsecureIframes > 0:
		report.Severity = SeverityCritical
	case report.InsecureStyles > 0:
		report.Severity = SeverityHigh
	case report.InsecureMedia > 0 || report.InsecureImages > 0:
		report.Severity = SeverityMedium
	}
	report.HasMixedContent = report.InsecureScripts+report.InsecureIframes+report.InsecureStyles+
		report.InsecureMedia+report.InsecureImages > 0
	return report
}

func attr(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
