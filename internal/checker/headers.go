package checker

import (
	"net/http"
	"strconv"
	"strings"
)

// HeadersReport is the headers section of an analysis report.
type HeadersReport struct {
	Server        *string         `json:"server"`
	ContentType   *string         `json:"contentType"`
	ContentLength *int64          `json:"contentLength"`
	CacheControl  *string         `json:"cacheControl"`
	PoweredBy     *string         `json:"poweredBy"`
	Security      SecurityHeaders `json:"security"`
	Cookies       []CookieFinding `json:"cookies,omitempty"`
}

// SecurityHeaders partitions the configured security headers into those the
// response carried and those it did not.
type SecurityHeaders struct {
	Detected map[string]string `json:"detected"`
	Missing  []string          `json:"missing"`
	// Findings lists weaknesses of detected headers, keyed like Detected.
	Findings map[string][]string `json:"findings,omitempty"`
	Warnings []string            `json:"warnings,omitempty"`
}

// AnalyzeHeaders summarizes response headers. required holds the security
// header names to look for; matching is case-insensitive and an empty value
// counts as missing. A nil header set reports every required header missing.
func AnalyzeHeaders(headers http.Header, required []string) HeadersReport {
	report := HeadersReport{
		Server:       headerValue(headers, "Server"),
		ContentType:  headerValue(headers, "Content-Type"),
		CacheControl: headerValue(headers, "Cache-Control"),
		PoweredBy:    headerValue(headers, "X-Powered-By"),
		Security: SecurityHeaders{
			Detected: make(map[string]string),
			Missing:  []string{},
		},
	}

	if cl := headerValue(headers, "Content-Length"); cl != nil {
		if n, err := strconv.ParseInt(*cl, 10, 64); err == nil {
			report.ContentLength = &n
		}
	}

	for _, name := range required {
		key := strings.ToLower(name)
		value := headerValue(headers, name)
		if value == nil {
			report.Security.Missing = append(report.Security.Missing, key)
			continue
		}
		report.Security.Detected[key] = *value

		check, ok := headerChecks[key]
		if !ok {
			continue
		}
		if issues := check(*value); len(issues) > 0 {
			if report.Security.Findings == nil {
				report.Security.Findings = make(map[string][]string)
			}
			report.Security.Findings[key] = issues
		}
	}

	if headers != nil {
		report.Cookies = AnalyzeCookies(headers)
		if warnings := headerWarnings(headers); len(warnings) > 0 {
			report.Security.Warnings = warnings
		}
	}

	return report
}

// headerValue returns all values of name joined by ", ", or nil when the
// header is absent or empty.
func headerValue(headers http.Header, name string) *string {
	if headers == nil {
		return nil
	}
	values := headers.Values(name)
	if len(values) == 0 {
		return nil
	}
	joined := strings.Join(values, ", ")
	if joined == "" {
		return nil
	}
	return &joined
}
