// Package scoring turns probe measurements into performance, security and
// reliability sub-scores and a weighted total, each an integer in [0,100].
// Every function is pure.
package scoring

import (
	"math"
	"strings"
)

const (
	hstsHeader = "strict-transport-security"
	cspHeader  = "content-security-policy"
)

// Network holds the measurements the performance and reliability scores use.
type Network struct {
	Reachable           bool
	TotalResponseTimeMs float64
	DNSLookupTimeMs     float64
	RedirectCount       int
	StatusCode          int
}

// TLS holds the certificate facts the security and reliability scores use.
// Nil pointers mean the value is unknown.
type TLS struct {
	IsHTTPS             bool
	CertificateValid    *bool
	DaysUntilExpiration *int
	Expired             bool
}

// Scores is the scores section of an analysis report.
type Scores struct {
	Performance int `json:"performance"`
	Security    int `json:"security"`
	Reliability int `json:"reliability"`
	Total       int `json:"total"`
}

// Calculate computes all sub-scores and the total. detected maps the
// security headers present in the response, keyed by lower-case name.
func (c Config) Calculate(n Network, t TLS, detected map[string]string) Scores {
	s := Scores{
		Performance: c.Performance(n),
		Security:    c.Security(t, detected),
		Reliability: c.Reliability(n, t),
	}
	s.Total = c.Total(s.Performance, s.Security, s.Reliability)
	return s
}

// Performance scores total response time against the thresholds, less
// penalties for long redirect chains and error statuses.
func (c Config) Performance(n Network) int {
	if !n.Reachable {
		return 0
	}

	th := c.Thresholds
	ms := n.TotalResponseTimeMs
	var score float64

	switch {
	case ms <= th.ExcellentMs:
		score = 100
	case ms <= th.GoodMs:
		score = 90 - (ms-th.ExcellentMs)/(th.GoodMs-th.ExcellentMs)*15
	case ms <= th.AcceptableMs:
		score = 75 - (ms-th.GoodMs)/(th.AcceptableMs-th.GoodMs)*25
	case ms <= th.SlowMs:
		score = 50 - (ms-th.AcceptableMs)/(th.SlowMs-th.AcceptableMs)*30
	default:
		score = math.Max(5, 20-(ms-th.SlowMs)/500)
	}

	if n.RedirectCount > 3 {
		score -= float64(n.RedirectCount-3) * 5
	}
	if n.StatusCode >= 400 {
		score -= 20
	}

	return Clamp(round(score), 0, 100)
}

// Security is additive: HTTPS, a trusted certificate, expiry headroom and
// the share of configured security headers present. HSTS and CSP earn a
// bonus on top of their share.
func (c Config) Security(t TLS, detected map[string]string) int {
	var score float64

	if t.IsHTTPS {
		score += 30
	}
	if t.CertificateValid != nil && *t.CertificateValid {
		score += 15
	}
	if t.DaysUntilExpiration != nil {
		switch days := *t.DaysUntilExpiration; {
		case days > 30:
			score += 5
		case days > 0:
			score += 2
		}
	}

	if total := len(c.SecurityHeaders); total > 0 {
		present := 0
		for _, name := range c.SecurityHeaders {
			if _, ok := detected[strings.ToLower(name)]; ok {
				present++
			}
		}
		score += float64(present) / float64(total) * 40
	}

	if _, ok := detected[hstsHeader]; ok {
		score += 5
	}
	if _, ok := detected[cspHeader]; ok {
		score += 5
	}

	return Clamp(round(score), 0, 100)
}

// Reliability starts at 100 and subtracts independent, stacking penalties.
func (c Config) Reliability(n Network, t TLS) int {
	if !n.Reachable {
		return 0
	}

	score := 100

	switch status := n.StatusCode; {
	case status >= 500:
		score -= 50
	case status >= 400:
		score -= 25
	case status >= 300:
		score -= 5
	}

	switch {
	case n.RedirectCount > 5:
		score -= 15
	case n.RedirectCount > 2:
		score -= 5
	}

	switch {
	case n.DNSLookupTimeMs > 1000:
		score -= 10
	case n.DNSLookupTimeMs > 500:
		score -= 5
	}

	if t.IsHTTPS && (t.CertificateValid == nil || !*t.CertificateValid) {
		score -= 20
	}
	if t.Expired {
		score -= 15
	}
	if t.DaysUntilExpiration != nil && *t.DaysUntilExpiration < 7 {
		score -= 10
	}

	return Clamp(score, 0, 100)
}

// Total combines the sub-scores by the configured weights.
func (c Config) Total(performance, security, reliability int) int {
	w := c.Weights
	total := float64(performance)*w.Performance +
		float64(security)*w.Security +
		float64(reliability)*w.Reliability
	return Clamp(round(total), 0, 100)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// round rounds half up, so -2.5 becomes -2.
func round(v float64) int {
	return int(math.Floor(v + 0.5))
}
