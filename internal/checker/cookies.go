package checker

import (
	"net/http"
)

// CookieFinding flags a Set-Cookie header missing protective attributes.
type CookieFinding struct {
	Name            string `json:"name"`
	MissingSecure   bool   `json:"missingSecure"`
	MissingHTTPOnly bool   `json:"missingHttpOnly"`
	MissingSameSite bool   `json:"missingSameSite"`
}

// AnalyzeCookies inspects Set-Cookie headers for missing Secure, HttpOnly
// and SameSite attributes. Cookies with all three are omitted.
func AnalyzeCookies(headers http.Header) []CookieFinding {
	if len(headers.Values("Set-Cookie")) == 0 {
		return nil
	}

	resp := &http.Response{Header: headers}
	var findings []CookieFinding
	for _, cookie := range resp.Cookies() {
		finding := CookieFinding{
			Name:            cookie.Name,
			MissingSecure:   !cookie.Secure,
			MissingHTTPOnly: !cookie.HttpOnly,
			MissingSameSite: cookie.SameSite == http.SameSiteDefaultMode,
		}
		if finding.MissingSecure || finding.MissingHTTPOnly || finding.MissingSameSite {
			findings = append(findings, finding)
		}
	}
	return findings
}
