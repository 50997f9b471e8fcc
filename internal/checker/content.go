package checker

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

const (
	defaultEncoding = "identity"
	defaultCharset  = "utf-8"
	maxTitleLength  = 256
)

var charsetPattern = regexp.MustCompile(`(?i)charset=([^\s;]+)`)

// bodyTypes maps a content-type fragment to the reported body type,
// checked in order.
var bodyTypes = []struct {
	fragment string
	kind     string
}{
	{"application/json", "json"},
	{"text/html", "html"},
	{"text/xml", "xml"},
	{"application/xml", "xml"},
	{"text/plain", "text"},
	{"text/css", "css"},
	{"application/javascript", "javascript"},
	{"text/javascript", "javascript"},
	{"image/", "image"},
	{"video/", "video"},
	{"audio/", "audio"},
	{"application/pdf", "pdf"},
	{"application/octet-stream", "binary"},
}

// ContentReport is the content section of an analysis report.
type ContentReport struct {
	ResponseSize          int     `json:"responseSize"`
	ResponseSizeFormatted string  `json:"responseSizeFormatted"`
	Encoding              *string `json:"encoding"`
	Charset               *string `json:"charset"`
	DetectedBodyType      string  `json:"detectedBodyType"`
	IsBodyEmpty           bool    `json:"isBodyEmpty"`
	ContentType           *string `json:"contentType"`
	Title                 string  `json:"title,omitempty"`
	Truncated             bool    `json:"truncated,omitempty"`

	MixedContent *MixedContentReport `json:"mixedContent,omitempty"`
}

// EmptyContent is the content section for an endpoint that returned no body
// because it could not be reached.
func EmptyContent() ContentReport {
	return ContentReport{
		ResponseSize:          0,
		ResponseSizeFormatted: "0 B",
		DetectedBodyType:      "empty",
		IsBodyEmpty:           true,
	}
}

// AnalyzeContent describes a fetched body using the response headers.
func AnalyzeContent(headers http.Header, body []byte, truncated bool) ContentReport {
	rawType := headers.Get("Content-Type")
	contentType := strings.ToLower(rawType)

	encoding := headers.Get("Content-Encoding")
	if encoding == "" {
		encoding = defaultEncoding
	}
	charset := defaultCharset
	if m := charsetPattern.FindStringSubmatch(rawType); m != nil {
		charset = strings.Trim(m[1], `"'`)
	}

	report := ContentReport{
		ResponseSize:          len(body),
		ResponseSizeFormatted: FormatBytes(int64(len(body))),
		Encoding:              &encoding,
		Charset:               &charset,
		DetectedBodyType:      detectBodyType(contentType, len(body)),
		IsBodyEmpty:           len(body) == 0,
		Truncated:             truncated,
	}
	if rawType != "" {
		report.ContentType = &rawType
	}
	if report.DetectedBodyType == "html" {
		report.Title = extractTitle(body)
	}
	return report
}

func detectBodyType(contentType string, size int) string {
	if contentType == "" {
		if size == 0 {
			return "empty"
		}
		return "unknown"
	}
	for _, bt := range bodyTypes {
		if strings.Contains(contentType, bt.fragment) {
			return bt.kind
		}
	}
	return "other"
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// extractTitle returns the text of the first <title> element.
func extractTitle(body []byte) string {
	z := html.NewTokenizer(bytes.NewReader(body))
	inTitle := false
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			name, _ := z.TagName()
			inTitle = string(name) == "title"
		case html.TextToken:
			if inTitle {
				title := strings.Join(strings.Fields(string(z.Text())), " ")
				return truncateUTF8(title, maxTitleLength)
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) == "title" {
				return ""
			}
		}
	}
}

// FormatBytes renders a byte count with a binary unit, e.g. "1.50 KB".
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB"}
	i := int(math.Floor(math.Log(float64(n)) / math.Log(1024)))
	if i >= len(units) {
		i = len(units) - 1
	}
	return fmt.Sprintf("%.2f %s", float64(n)/math.Pow(1024, float64(i)), units[i])
}
