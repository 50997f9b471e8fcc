package checker

import (
	"net/http"
	"testing"
)

func TestCheckHSTS_Perfect(t *testing.T) {
	if issues := checkHSTS("max-age=31536000; includeSubDomains; preload"); len(issues) != 0 {
		t.Errorf("Expected no issues for perfect HSTS, got %d: %v", len(issues), issues)
	}
}

func TestCheckHSTS_MissingIncludeSubDomains(t *testing.T) {
	if issues := checkHSTS("max-age=31536000; preload"); len(issues) != 1 {
		t.Errorf("Expected one issue without includeSubDomains, got %v", issues)
	}
}

func TestCheckHSTS_Disabled(t *testing.T) {
	issues := checkHSTS("max-age=0")
	if len(issues) == 0 || issues[0] != "max-age is set to 0 (HSTS disabled)" {
		t.Errorf("Expected disabled HSTS issue first, got %v", issues)
	}
}

func TestCheckCSP(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		issues int
	}{
		{"strict", "default-src 'self'; script-src 'self'", 0},
		{"unsafe inline", "default-src 'self'; script-src 'self' 'unsafe-inline'", 1},
		{"unsafe eval", "default-src 'self'; script-src 'unsafe-eval'", 1},
		{"wildcard", "default-src *", 1},
		{"no default-src", "script-src 'self'", 1},
		{"data scripts", "default-src 'self'; script-src data:", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if issues := checkCSP(tt.value); len(issues) != tt.issues {
				t.Errorf("Expected %d issues, got %d: %v", tt.issues, len(issues), issues)
			}
		})
	}
}

func TestCheckXFrameOptions(t *testing.T) {
	for _, value := range []string{"DENY", "sameorigin"} {
		if issues := checkXFrameOptions(value); len(issues) != 0 {
			t.Errorf("Expected no issues for %s, got %v", value, issues)
		}
	}
	if issues := checkXFrameOptions("ALLOW-FROM https://example.com"); len(issues) != 1 {
		t.Errorf("Expected deprecation issue for ALLOW-FROM, got %v", issues)
	}
}

func TestCheckXContentTypeOptions(t *testing.T) {
	if issues := checkXContentTypeOptions("nosniff"); len(issues) != 0 {
		t.Errorf("Expected no issues, got %v", issues)
	}
	if issues := checkXContentTypeOptions("sniff"); len(issues) != 1 {
		t.Errorf("Expected one issue, got %v", issues)
	}
}

func TestCheckReferrerPolicy(t *testing.T) {
	if issues := checkReferrerPolicy("strict-origin-when-cross-origin"); len(issues) != 0 {
		t.Errorf("Expected no issues, got %v", issues)
	}
	if issues := checkReferrerPolicy("unsafe-url"); len(issues) != 1 {
		t.Errorf("Expected leak issue, got %v", issues)
	}
}

func TestCheckCOOPAndCOEP(t *testing.T) {
	if issues := checkCOOP("same-origin"); len(issues) != 0 {
		t.Errorf("Expected no COOP issues, got %v", issues)
	}
	if issues := checkCOOP("unsafe-none"); len(issues) != 1 {
		t.Errorf("Expected COOP issue, got %v", issues)
	}
	if issues := checkCOEP("require-corp"); len(issues) != 0 {
		t.Errorf("Expected no COEP issues, got %v", issues)
	}
}

func TestHeaderWarnings(t *testing.T) {
	headers := http.Header{}
	headers.Set("X-XSS-Protection", "1; mode=block")
	headers.Set("Expect-CT", "max-age=0")
	headers.Set("Server", "Apache/2.4.1")

	warnings := headerWarnings(headers)
	if len(warnings) != 3 {
		t.Errorf("Expected 3 warnings, got %d: %v", len(warnings), warnings)
	}

	headers = http.Header{}
	headers.Set("X-XSS-Protection", "0")
	if warnings := headerWarnings(headers); len(warnings) != 0 {
		t.Errorf("Expected X-XSS-Protection: 0 to be accepted, got %v", warnings)
	}
}
