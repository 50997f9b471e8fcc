package analyzer

import (
	"time"

	"github.com/khanhnv2901/endpoint-analyzer/internal/checker"
	"github.com/khanhnv2901/endpoint-analyzer/internal/scoring"
)

// Report is the assembled result of one endpoint analysis. Success reports
// reachability, not score quality.
type Report struct {
	Success    bool                  `json:"success"`
	URL        string                `json:"url"`
	AnalyzedAt time.Time             `json:"analyzedAt"`
	Network    NetworkReport         `json:"network"`
	Error      *checker.ProbeError   `json:"error,omitempty"`
	Headers    checker.HeadersReport `json:"headers"`
	TLS        checker.TLSReport     `json:"tls"`
	Content    checker.ContentReport `json:"content"`
	Scores     scoring.Scores        `json:"scores"`
}

// NetworkReport is the network section of a Report. Times are milliseconds
// rounded to two decimals.
type NetworkReport struct {
	Reachable           bool                  `json:"reachable"`
	HTTPStatusCode      *int                  `json:"httpStatusCode"`
	FinalURL            string                `json:"finalUrl"`
	RedirectCount       int                   `json:"redirectCount"`
	RedirectChain       []checker.RedirectHop `json:"redirectChain,omitempty"`
	TotalResponseTimeMs float64               `json:"totalResponseTimeMs"`
	DNSLookupTimeMs     float64               `json:"dnsLookupTimeMs"`
	TLSHandshakeTimeMs  *float64              `json:"tlsHandshakeTimeMs"`
	Protocol            *string               `json:"protocol"`
	ResolvedIP          *string               `json:"resolvedIp"`
	BodyTruncated       bool                  `json:"bodyTruncated,omitempty"`
}
