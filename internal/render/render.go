// Package render prints analysis reports for the terminal as text, JSON or
// YAML.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/ghodss/yaml"
	"github.com/nwidger/jsoncolor"

	"github.com/khanhnv2901/endpoint-analyzer/internal/analyzer"
	"github.com/khanhnv2901/endpoint-analyzer/internal/checker"
)

// Format selects the output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts text, json, yaml and yml, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want text, json or yaml)", s)
	}
}

type Printer struct {
	writer io.Writer
	color  bool
}

type Opts struct {
	Writer io.Writer
	// Color enables ANSI colors for text and JSON output.
	Color bool
}

func NewPrinter(opts Opts) Printer {
	return Printer{writer: opts.Writer, color: opts.Color}
}

// Print writes r in the given format.
func (p Printer) Print(r *analyzer.Report, format Format) error {
	switch format {
	case FormatJSON:
		return p.printJSON(r)
	case FormatYAML:
		return p.printYAML(r)
	case FormatText, "":
		return p.printText(r)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func (p Printer) printJSON(r *analyzer.Report) error {
	var (
		out []byte
		err error
	)
	if p.color {
		out, err = jsoncolor.MarshalIndentWithFormatter(r, "", "  ", p.formatter())
	} else {
		out, err = json.MarshalIndent(r, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = fmt.Fprintln(p.writer, string(out))
	return err
}

func (p Printer) printYAML(r *analyzer.Report) error {
	out, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = p.writer.Write(out)
	return err
}

type colorPrinter interface {
	SprintfFunc() func(format string, a ...interface{}) string
}

type noColor struct{}

func (noColor) SprintfFunc() func(format string, a ...interface{}) string {
	return fmt.Sprintf
}

var (
	white  = color.New(color.FgWhite)
	cyan   = color.New(color.FgCyan, color.Bold)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
	blue   = color.New(color.FgBlue)
	grey   = color.New(color.FgBlack, color.Bold)
)

func (p Printer) colorFor(c *color.Color) colorPrinter {
	if !p.color {
		return noColor{}
	}
	return c
}

func (p Printer) formatter() *jsoncolor.Formatter {
	f := jsoncolor.NewFormatter()
	whiteP := p.colorFor(white)

	f.ObjectColor = whiteP
	f.ArrayColor = whiteP
	f.FieldQuoteColor = whiteP
	f.CommaColor = whiteP
	f.StringQuoteColor = whiteP
	f.ColonColor = whiteP
	f.SpaceColor = whiteP

	f.FieldColor = p.colorFor(blue)
	f.NullColor = p.colorFor(grey)
	f.StringColor = p.colorFor(green)
	f.TrueColor = p.colorFor(yellow)
	f.FalseColor = p.colorFor(yellow)
	f.NumberColor = p.colorFor(blue)
	return f
}

// scoreColor grades a 0-100 score: green from 80, yellow from 50, red below.
func scoreColor(score int) *color.Color {
	switch {
	case score >= 80:
		return green
	case score >= 50:
		return yellow
	default:
		return red
	}
}

func (p Printer) printText(r *analyzer.Report) error {
	var b strings.Builder
	heading := p.colorFor(cyan).SprintfFunc()
	label := func(name string, value interface{}) {
		fmt.Fprintf(&b, "  %-20s %v\n", name+":", value)
	}

	fmt.Fprintf(&b, "%s %s\n", heading("Endpoint analysis"), r.URL)
	fmt.Fprintf(&b, "Analyzed at: %s\n", r.AnalyzedAt.Format("2006-01-02T15:04:05.000Z07:00"))
	if r.Success {
		fmt.Fprintf(&b, "Status: %s\n", p.colorFor(green).SprintfFunc()("REACHABLE"))
	} else {
		status := p.colorFor(red).SprintfFunc()("UNREACHABLE")
		if r.Error != nil {
			status += fmt.Sprintf(" (%s: %s)", r.Error.Code, r.Error.Message)
		}
		fmt.Fprintf(&b, "Status: %s\n", status)
	}

	n := r.Network
	fmt.Fprintf(&b, "\n%s\n", heading("Network"))
	label("HTTP status", orDash(n.HTTPStatusCode))
	label("Final URL", n.FinalURL)
	label("Redirects", n.RedirectCount)
	for _, hop := range n.RedirectChain {
		fmt.Fprintf(&b, "    %d %s -> %s\n", hop.StatusCode, hop.From, hop.To)
	}
	label("Protocol", orDash(n.Protocol))
	label("Resolved IP", orDash(n.ResolvedIP))
	label("DNS lookup", fmt.Sprintf("%.2f ms", n.DNSLookupTimeMs))
	if n.TLSHandshakeTimeMs != nil {
		label("TLS handshake", fmt.Sprintf("%.2f ms", *n.TLSHandshakeTimeMs))
	}
	label("Total response", fmt.Sprintf("%.2f ms", n.TotalResponseTimeMs))
	if n.BodyTruncated {
		label("Body", "truncated")
	}

	p.writeTLS(&b, heading, label, r.TLS)
	p.writeHeaders(&b, heading, r.Headers)

	c := r.Content
	fmt.Fprintf(&b, "\n%s\n", heading("Content"))
	label("Body type", c.DetectedBodyType)
	label("Content type", orDash(c.ContentType))
	label("Size", c.ResponseSizeFormatted)
	label("Encoding", orDash(c.Encoding))
	label("Charset", orDash(c.Charset))
	if c.Title != "" {
		label("Title", c.Title)
	}
	if mc := c.MixedContent; mc != nil {
		if mc.HasMixedContent {
			insecure := mc.InsecureScripts + mc.InsecureStyles + mc.InsecureImages + mc.InsecureMedia + mc.InsecureIframes
			label("Mixed content", p.colorFor(red).SprintfFunc()("%s (%d insecure references)", mc.Severity, insecure))
			for _, u := range mc.URLs {
				fmt.Fprintf(&b, "    ! %s\n", u)
			}
		} else {
			label("Mixed content", "none")
		}
	}

	fmt.Fprintf(&b, "\n%s\n", heading("Scores"))
	for _, s := range []struct {
		name  string
		value int
	}{
		{"Performance", r.Scores.Performance},
		{"Security", r.Scores.Security},
		{"Reliability", r.Scores.Reliability},
		{"Total", r.Scores.Total},
	} {
		label(s.name, p.colorFor(scoreColor(s.value)).SprintfFunc()("%d/100", s.value))
	}

	_, err := io.WriteString(p.writer, b.String())
	return err
}

func (p Printer) writeTLS(b *strings.Builder, heading func(string, ...interface{}) string, label func(string, interface{}), t checker.TLSReport) {
	fmt.Fprintf(b, "\n%s\n", heading("TLS"))
	label("HTTPS", yesNo(t.IsHTTPS))
	if !t.IsHTTPS {
		return
	}
	if t.CertificateValid != nil {
		valid := p.colorFor(green).SprintfFunc()("yes")
		if !*t.CertificateValid {
			valid = p.colorFor(red).SprintfFunc()("no")
		}
		label("Certificate valid", valid)
	}
	if t.Error != "" {
		label("Error", t.Error)
		return
	}
	label("Issuer", orDash(t.CertificateIssuer))
	label("Subject", orDash(t.CertificateSubject))
	if t.CertificateExpiration != nil && t.DaysUntilExpiration != nil {
		label("Expires", fmt.Sprintf("%s (%d days)", t.CertificateExpiration.Format("2006-01-02"), *t.DaysUntilExpiration))
	}
	label("TLS version", orDash(t.TLSVersion))
	if t.CipherSuite != "" {
		label("Cipher suite", t.CipherSuite)
	}
	if t.KeySize > 0 {
		label("Public key", fmt.Sprintf("%s %d bits", t.PublicKeyAlgorithm, t.KeySize))
	}
	if t.SelfSigned {
		label("Self-signed", "yes")
	}
}

func (p Printer) writeHeaders(b *strings.Builder, heading func(string, ...interface{}) string, h checker.HeadersReport) {
	fmt.Fprintf(b, "\n%s\n", heading("Security headers"))
	ok := p.colorFor(green).SprintfFunc()
	bad := p.colorFor(red).SprintfFunc()
	warn := p.colorFor(yellow).SprintfFunc()

	names := make([]string, 0, len(h.Security.Detected))
	for name := range h.Security.Detected {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(b, "  %s %s: %s\n", ok("+"), name, h.Security.Detected[name])
		for _, issue := range h.Security.Findings[name] {
			fmt.Fprintf(b, "      %s\n", warn(issue))
		}
	}
	for _, name := range h.Security.Missing {
		fmt.Fprintf(b, "  %s %s\n", bad("-"), name)
	}
	for _, w := range h.Security.Warnings {
		fmt.Fprintf(b, "  %s %s\n", warn("!"), w)
	}
	for _, c := range h.Cookies {
		var missing []string
		if c.MissingSecure {
			missing = append(missing, "Secure")
		}
		if c.MissingHTTPOnly {
			missing = append(missing, "HttpOnly")
		}
		if c.MissingSameSite {
			missing = append(missing, "SameSite")
		}
		fmt.Fprintf(b, "  %s cookie %s lacks %s\n", warn("!"), c.Name, strings.Join(missing, ", "))
	}
}

func orDash[T any](v *T) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
