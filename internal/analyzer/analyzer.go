// Package analyzer runs an endpoint analysis: DNS timing, the
// redirect-following fetch, header and TLS inspection, content analysis and
// scoring, assembled into a Report.
package analyzer

import (
	"context"
	"crypto/x509"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"github.com/khanhnv2901/endpoint-analyzer/internal/checker"
	"github.com/khanhnv2901/endpoint-analyzer/internal/scoring"
	"github.com/khanhnv2901/endpoint-analyzer/internal/shared/clock"
	sharedErrors "github.com/khanhnv2901/endpoint-analyzer/internal/shared/errors"
)

// Resolver times a hostname lookup.
type Resolver interface {
	Resolve(ctx context.Context, host string) checker.DNSResult
}

// Fetcher retrieves a URL, following redirects.
type Fetcher interface {
	Fetch(ctx context.Context, target string) checker.FetchResult
}

// Inspector reports on the certificate served for a URL.
type Inspector interface {
	InspectURL(ctx context.Context, target string) checker.TLSReport
}

// Options configures the probes built by New. Zero values select defaults;
// a negative MaxRedirects disables redirect following.
type Options struct {
	Timeout      time.Duration
	DNSTimeout   time.Duration
	NameServers  []string
	MaxRedirects int
	MaxBodyBytes int64
	UserAgent    string
	VerifyTLS    bool
	BlockPrivate bool // refuse private addresses on every hop
	RootCAs      *x509.CertPool
	Scoring      scoring.Config
	Clock        clock.Clock
	Logger       *zap.Logger
}

// Analyzer orchestrates one probe per Analyze call. It holds no per-probe
// state and is safe for concurrent use.
type Analyzer struct {
	DNS     Resolver
	HTTP    Fetcher
	TLS     Inspector
	Scoring scoring.Config
	Clock   clock.Clock
	Logger  *zap.Logger
}

// New wires the checker probes from opts.
func New(opts Options) *Analyzer {
	fetcher := checker.NewFetcher()
	if opts.Timeout > 0 {
		fetcher.Timeout = opts.Timeout
	}
	switch {
	case opts.MaxRedirects > 0:
		fetcher.MaxRedirects = opts.MaxRedirects
	case opts.MaxRedirects < 0:
		fetcher.MaxRedirects = 0
	}
	if opts.MaxBodyBytes > 0 {
		fetcher.MaxBodyBytes = opts.MaxBodyBytes
	}
	if opts.UserAgent != "" {
		fetcher.UserAgent = opts.UserAgent
	}
	fetcher.VerifyTLS = opts.VerifyTLS
	fetcher.BlockPrivate = opts.BlockPrivate
	fetcher.RootCAs = opts.RootCAs
	fetcher.Clock = opts.Clock

	cfg := opts.Scoring.WithDefaults()
	if err := cfg.Validate(); err != nil {
		if opts.Logger != nil {
			opts.Logger.Warn("scoring_config_rejected", zap.Error(err))
		}
		cfg = scoring.DefaultConfig()
	}

	return &Analyzer{
		DNS: &checker.DNSTimer{
			Timeout:     opts.DNSTimeout,
			NameServers: opts.NameServers,
			Clock:       opts.Clock,
		},
		HTTP: fetcher,
		TLS: &checker.TLSInspector{
			Timeout: fetcher.Timeout,
			RootCAs: opts.RootCAs,
			Clock:   opts.Clock,
		},
		Scoring: cfg,
		Clock:   opts.Clock,
		Logger:  opts.Logger,
	}
}

// Analyze probes target, which must already be a validated absolute URL.
// Unreachable endpoints produce a degraded Report with Success false; the
// error return is reserved for internal failures and wraps ErrInternal.
func (a *Analyzer) Analyze(ctx context.Context, target string) (*Report, error) {
	clk := clock.OrReal(a.Clock)
	started := clk.Now()
	log := a.logger()

	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %q: %v", sharedErrors.ErrInternal, target, err)
	}

	dns := a.DNS.Resolve(ctx, u.Hostname())
	if dns.Err != nil {
		log.Debug("dns_failed", zap.String("url", target), zap.String("code", string(dns.Err.Code)), zap.String("error", dns.Err.Message))
		report := a.degraded(target, started, u, dns, durationMs(dns.Duration), dns.Err)
		a.logComplete(report, started)
		return report, nil
	}

	fetched := a.HTTP.Fetch(ctx, target)
	if !fetched.Success {
		log.Debug("fetch_failed", zap.String("url", target), zap.String("code", string(fetched.Err.Code)), zap.String("error", fetched.Err.Message))
		report := a.degraded(target, started, u, dns, durationMs(fetched.Elapsed+dns.Duration), fetched.Err)
		a.logComplete(report, started)
		return report, nil
	}

	var headers checker.HeadersReport
	var tlsReport checker.TLSReport
	var wg conc.WaitGroup
	wg.Go(func() {
		headers = checker.AnalyzeHeaders(fetched.Headers, a.Scoring.SecurityHeaders)
	})
	wg.Go(func() {
		tlsReport = a.TLS.InspectURL(ctx, fetched.FinalURL)
	})
	if recovered := wg.WaitAndRecover(); recovered != nil {
		log.Error("analysis_panic", zap.String("url", target), zap.Error(recovered.AsError()))
		return nil, fmt.Errorf("%w: %v", sharedErrors.ErrInternal, recovered.AsError())
	}

	content := checker.AnalyzeContent(fetched.Headers, fetched.Body, fetched.Truncated)
	if content.DetectedBodyType == "html" {
		content.MixedContent = checker.CheckMixedContent(fetched.Body, fetched.FinalURL)
	}

	network := NetworkReport{
		Reachable:           true,
		HTTPStatusCode:      &fetched.StatusCode,
		FinalURL:            fetched.FinalURL,
		RedirectCount:       fetched.RedirectCount(),
		RedirectChain:       fetched.RedirectChain,
		TotalResponseTimeMs: durationMs(fetched.Elapsed + dns.Duration),
		DNSLookupTimeMs:     durationMs(dns.Duration),
		Protocol:            &fetched.HTTPVersion,
		ResolvedIP:          optional(dns.ResolvedIP),
		BodyTruncated:       fetched.Truncated,
	}
	if fetched.TLSHandshake != nil {
		ms := durationMs(*fetched.TLSHandshake)
		network.TLSHandshakeTimeMs = &ms
	}

	report := &Report{
		Success:    true,
		URL:        target,
		AnalyzedAt: started.UTC(),
		Network:    network,
		Headers:    headers,
		TLS:        tlsReport,
		Content:    content,
		Scores:     a.Scoring.Calculate(scoringNetwork(network), scoringTLS(tlsReport), headers.Security.Detected),
	}
	a.logComplete(report, started)
	return report, nil
}

// degraded assembles the report for an endpoint that could not be reached.
func (a *Analyzer) degraded(target string, started time.Time, u *url.URL, dns checker.DNSResult, totalMs float64, probeErr *checker.ProbeError) *Report {
	network := NetworkReport{
		Reachable:           false,
		FinalURL:            target,
		TotalResponseTimeMs: totalMs,
		DNSLookupTimeMs:     durationMs(dns.Duration),
		ResolvedIP:          optional(dns.ResolvedIP),
	}
	tlsReport := checker.TLSReport{IsHTTPS: strings.EqualFold(u.Scheme, "https")}
	headers := checker.AnalyzeHeaders(nil, a.Scoring.SecurityHeaders)

	return &Report{
		Success:    false,
		URL:        target,
		AnalyzedAt: started.UTC(),
		Network:    network,
		Error:      probeErr,
		Headers:    headers,
		TLS:        tlsReport,
		Content:    checker.EmptyContent(),
		Scores:     a.Scoring.Calculate(scoringNetwork(network), scoringTLS(tlsReport), headers.Security.Detected),
	}
}

func (a *Analyzer) logComplete(report *Report, started time.Time) {
	a.logger().Info("analysis_complete",
		zap.String("url", report.URL),
		zap.Bool("success", report.Success),
		zap.Int("total_score", report.Scores.Total),
		zap.Float64("response_time_ms", report.Network.TotalResponseTimeMs),
		zap.Duration("duration", clock.Since(clock.OrReal(a.Clock), started)),
	)
}

func (a *Analyzer) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

func scoringNetwork(n NetworkReport) scoring.Network {
	sn := scoring.Network{
		Reachable:           n.Reachable,
		TotalResponseTimeMs: n.TotalResponseTimeMs,
		DNSLookupTimeMs:     n.DNSLookupTimeMs,
		RedirectCount:       n.RedirectCount,
	}
	if n.HTTPStatusCode != nil {
		sn.StatusCode = *n.HTTPStatusCode
	}
	return sn
}

func scoringTLS(t checker.TLSReport) scoring.TLS {
	st := scoring.TLS{
		IsHTTPS:             t.IsHTTPS,
		CertificateValid:    t.CertificateValid,
		DaysUntilExpiration: t.DaysUntilExpiration,
	}
	if t.Expired != nil {
		st.Expired = *t.Expired
	}
	return st
}

// durationMs converts d to milliseconds rounded to two decimals.
func durationMs(d time.Duration) float64 {
	ms := float64(d) / float64(time.Millisecond)
	return math.Floor(ms*100+0.5) / 100
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
