package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/tidwall/gjson"

	"github.com/khanhnv2901/endpoint-analyzer/internal/analyzer"
	"github.com/khanhnv2901/endpoint-analyzer/internal/checker"
	"github.com/khanhnv2901/endpoint-analyzer/internal/scoring"
)

func sampleReport() *analyzer.Report {
	status := 200
	proto := "HTTP/1.1"
	ip := "93.184.216.34"
	valid := true
	issuer := "Let's Encrypt - R3"
	days := 42
	version := "TLSv1.3"
	expires := time.Date(2025, 4, 12, 0, 0, 0, 0, time.UTC)
	contentType := "text/html; charset=utf-8"
	encoding := "identity"
	charset := "utf-8"

	return &analyzer.Report{
		Success:    true,
		URL:        "https://example.com",
		AnalyzedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Network: analyzer.NetworkReport{
			Reachable:      true,
			HTTPStatusCode: &status,
			FinalURL:       "https://www.example.com/",
			RedirectCount:  1,
			RedirectChain: []checker.RedirectHop{
				{StatusCode: 301, From: "https://example.com", To: "https://www.example.com/"},
			},
			TotalResponseTimeMs: 123.45,
			DNSLookupTimeMs:     4.5,
			Protocol:            &proto,
			ResolvedIP:          &ip,
		},
		Headers: checker.HeadersReport{
			Security: checker.SecurityHeaders{
				Detected: map[string]string{"x-frame-options": "DENY"},
				Missing:  []string{"content-security-policy"},
				Warnings: []string{"CORS allows any origin (*)"},
			},
			Cookies: []checker.CookieFinding{{Name: "sid", MissingSecure: true, MissingSameSite: true}},
		},
		TLS: checker.TLSReport{
			IsHTTPS:               true,
			CertificateValid:      &valid,
			CertificateIssuer:     &issuer,
			CertificateExpiration: &expires,
			DaysUntilExpiration:   &days,
			TLSVersion:            &version,
		},
		Content: checker.ContentReport{
			ResponseSize:          1536,
			ResponseSizeFormatted: "1.50 KB",
			Encoding:              &encoding,
			Charset:               &charset,
			DetectedBodyType:      "html",
			ContentType:           &contentType,
			Title:                 "Example Domain",
			MixedContent: &checker.MixedContentReport{
				HasMixedContent: true,
				Severity:        checker.SeverityMedium,
				URLs:            []string{"http://img.example.com/logo.png"},
				InsecureImages:  1,
			},
		},
		Scores: scoring.Scores{Performance: 100, Security: 45, Reliability: 90, Total: 77},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(Opts{Writer: &buf})

	if err := p.Print(sampleReport(), FormatJSON); err != nil {
		t.Fatalf("Print returned error: %v", err)
	}

	out := buf.String()
	if !gjson.Valid(out) {
		t.Fatalf("expected valid JSON, got %s", out)
	}
	if got := gjson.Get(out, "network.redirectChain.0.statusCode").Int(); got != 301 {
		t.Errorf("expected redirect status 301, got %d", got)
	}
	if got := gjson.Get(out, "scores.total").Int(); got != 77 {
		t.Errorf("expected total 77, got %d", got)
	}
	if !strings.Contains(out, "\n  \"success\": true") {
		t.Errorf("expected two-space indentation: %s", out)
	}
}

func TestPrintJSONColor(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(Opts{Writer: &buf, Color: true})

	if err := p.Print(sampleReport(), FormatJSON); err != nil {
		t.Fatalf("Print returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "https://www.example.com/") {
		t.Errorf("expected final URL in output: %s", buf.String())
	}
}

func TestPrintYAML(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(Opts{Writer: &buf})

	if err := p.Print(sampleReport(), FormatYAML); err != nil {
		t.Fatalf("Print returned error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"success: true", "url: https://example.com", "total: 77", "finalUrl: https://www.example.com/"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in YAML output:\n%s", want, out)
		}
	}
}

func TestPrintText(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(Opts{Writer: &buf})

	if err := p.Print(sampleReport(), FormatText); err != nil {
		t.Fatalf("Print returned error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Endpoint analysis https://example.com",
		"Status: REACHABLE",
		"301 https://example.com -> https://www.example.com/",
		"123.45 ms",
		"Let's Encrypt - R3",
		"2025-04-12 (42 days)",
		"+ x-frame-options: DENY",
		"- content-security-policy",
		"! CORS allows any origin (*)",
		"cookie sid lacks Secure, SameSite",
		"Example Domain",
		"medium (1 insecure references)",
		"! http://img.example.com/logo.png",
		"77/100",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in text output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("expected no ANSI codes without color")
	}
}

func TestPrintTextUnreachable(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(Opts{Writer: &buf})
	report := &analyzer.Report{
		URL:     "https://nope.invalid",
		Error:   &checker.ProbeError{Code: checker.CodeDNS, Message: "DNS lookup failed: no such host"},
		Content: checker.EmptyContent(),
		TLS:     checker.TLSReport{IsHTTPS: true},
	}

	if err := p.Print(report, FormatText); err != nil {
		t.Fatalf("Print returned error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "UNREACHABLE (DNS_ERROR: DNS lookup failed: no such host)") {
		t.Errorf("expected error summary, got:\n%s", out)
	}
	if !strings.Contains(out, "HTTP status:         -") {
		t.Errorf("expected dash for missing status, got:\n%s", out)
	}
}

func TestScoreColor(t *testing.T) {
	if scoreColor(80) != green || scoreColor(79) != yellow || scoreColor(50) != yellow || scoreColor(49) != red {
		t.Error("unexpected score color boundaries")
	}
}
