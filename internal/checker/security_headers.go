package checker

import (
	"net/http"
	"strings"
)

// headerCheck inspects a present header value and returns its weaknesses.
type headerCheck func(value string) []string

// headerChecks is keyed by lower-case header name.
var headerChecks = map[string]headerCheck{
	"strict-transport-security":    checkHSTS,
	"content-security-policy":      checkCSP,
	"x-frame-options":              checkXFrameOptions,
	"x-content-type-options":       checkXContentTypeOptions,
	"referrer-policy":              checkReferrerPolicy,
	"cross-origin-opener-policy":   checkCOOP,
	"cross-origin-embedder-policy": checkCOEP,
}

// informationDisclosureHeaders lists headers that should be removed/obfuscated
var informationDisclosureHeaders = []string{
	"Server",
	"X-Powered-By",
	"X-AspNet-Version",
	"X-AspNetMvc-Version",
}

// checkHSTS validates the Strict-Transport-Security header
func checkHSTS(value string) []string {
	issues := []string{}
	value = strings.ToLower(value)

	if !strings.Contains(value, "max-age=") {
		issues = append(issues, "Missing 'max-age' directive")
	} else if strings.Contains(value, "max-age=0") {
		issues = append(issues, "max-age is set to 0 (HSTS disabled)")
	} else if !strings.Contains(value, "max-age=31536000") && !strings.Contains(value, "max-age=63072000") {
		issues = append(issues, "Consider increasing max-age to at least 31536000 (1 year)")
	}

	if !strings.Contains(value, "includesubdomains") {
		issues = append(issues, "Missing 'includeSubDomains' directive")
	}
	if !strings.Contains(value, "preload") {
		issues = append(issues, "Missing 'preload' directive (optional but recommended)")
	}
	return issues
}

// checkCSP validates the Content-Security-Policy header
func checkCSP(value string) []string {
	issues := []string{}
	value = strings.ToLower(value)
	directives := parseCSPDirectives(value)

	if strings.Contains(value, "'unsafe-inline'") {
		issues = append(issues, "Contains 'unsafe-inline' which weakens CSP protection")
	}
	if strings.Contains(value, "'unsafe-eval'") {
		issues = append(issues, "Contains 'unsafe-eval' which allows eval() and similar functions")
	}
	if strings.Contains(value, "*") {
		issues = append(issues, "Contains wildcard (*) which is too permissive")
	}
	if _, ok := directives["default-src"]; !ok {
		issues = append(issues, "Missing 'default-src' directive (recommended fallback)")
	}

	for _, token := range directives["script-src"] {
		switch token {
		case "data:", "blob:", "filesystem:":
			issues = append(issues, "Script sources allow "+token+" URLs which may enable CSP bypasses")
		}
		if strings.HasPrefix(token, "http:") {
			issues = append(issues, "Script sources allow insecure http scheme")
		}
	}
	return issues
}

func parseCSPDirectives(value string) map[string][]string {
	result := make(map[string][]string)
	for _, part := range strings.Split(value, ";") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		result[fields[0]] = fields[1:]
	}
	return result
}

// checkXFrameOptions validates the X-Frame-Options header
func checkXFrameOptions(value string) []string {
	value = strings.ToUpper(strings.TrimSpace(value))
	switch {
	case value == "DENY" || value == "SAMEORIGIN":
		return nil
	case strings.HasPrefix(value, "ALLOW-FROM"):
		return []string{"ALLOW-FROM is deprecated and not supported by modern browsers"}
	default:
		return []string{"Invalid X-Frame-Options value"}
	}
}

// checkXContentTypeOptions validates the X-Content-Type-Options header
func checkXContentTypeOptions(value string) []string {
	if strings.EqualFold(strings.TrimSpace(value), "nosniff") {
		return nil
	}
	return []string{"Invalid value, should be 'nosniff'"}
}

// checkReferrerPolicy validates the Referrer-Policy header
func checkReferrerPolicy(value string) []string {
	value = strings.ToLower(value)
	for _, policy := range []string{"no-referrer", "strict-origin", "same-origin"} {
		if strings.Contains(value, policy) {
			return nil
		}
	}
	if strings.Contains(value, "unsafe-url") || strings.Contains(value, "origin-when-cross-origin") {
		return []string{"Policy may leak sensitive information in referrer"}
	}
	return []string{"Unusual or weak referrer policy"}
}

// checkCOOP validates the Cross-Origin-Opener-Policy header
func checkCOOP(value string) []string {
	switch strings.ToLower(value) {
	case "same-origin", "same-origin-allow-popups":
		return nil
	case "unsafe-none":
		return []string{"COOP is set to 'unsafe-none' which provides no protection"}
	default:
		return []string{"Invalid COOP value"}
	}
}

// checkCOEP validates the Cross-Origin-Embedder-Policy header
func checkCOEP(value string) []string {
	switch strings.ToLower(value) {
	case "require-corp", "credentialless":
		return nil
	case "unsafe-none":
		return []string{"COEP is set to 'unsafe-none' which provides no protection"}
	default:
		return []string{"Invalid COEP value"}
	}
}

// headerWarnings reports deprecated headers and headers that disclose
// server internals.
func headerWarnings(headers http.Header) []string {
	warnings := []string{}

	if xss := headers.Get("X-XSS-Protection"); xss != "" && xss != "0" {
		warnings = append(warnings,
			"X-XSS-Protection is deprecated and may introduce vulnerabilities. Set to '0' or remove it.")
	}
	if headers.Get("Expect-CT") != "" {
		warnings = append(warnings, "Expect-CT is deprecated. Remove this header.")
	}
	if headers.Get("Public-Key-Pins") != "" {
		warnings = append(warnings,
			"Public-Key-Pins (HPKP) is deprecated and dangerous. Remove this header immediately.")
	}

	if headers.Get("Access-Control-Allow-Origin") == "*" {
		warnings = append(warnings, "CORS allows any origin (*)")
		if headers.Get("Access-Control-Allow-Credentials") == "true" {
			warnings = append(warnings, "Credentials allowed with wildcard origin (disallowed by browsers)")
		}
	}

	for _, headerName := range informationDisclosureHeaders {
		if value := headers.Get(headerName); value != "" {
			warnings = append(warnings,
				headerName+" header exposes server information: '"+value+"'. Consider removing or obfuscating.")
		}
	}
	return warnings
}
