package constants

import (
	"io/fs"
	"time"
)

const (
	// DefaultDirPerm is the default permission used when creating directories.
	DefaultDirPerm fs.FileMode = 0o755
	// DefaultFilePerm is the default permission used when creating files.
	DefaultFilePerm fs.FileMode = 0o644
)

const (
	// RequestTimeout bounds every single HTTP hop and the TLS inspection handshake.
	RequestTimeout = 15 * time.Second
	// DNSTimeout bounds the standalone DNS lookup that precedes the fetch.
	DNSTimeout = 5 * time.Second
	// MaxRedirects is the default redirect budget of one probe.
	MaxRedirects = 10
	// MaxResponseBytes caps how much of the terminal response body is kept in memory.
	MaxResponseBytes = 10 * 1024 * 1024
	// MaxURLLength is the longest URL accepted by the validator.
	MaxURLLength = 2048
	// MaxRequestBodyBytes caps API request payloads.
	MaxRequestBodyBytes = 1 << 20
)

// UserAgent identifies the prober to remote servers.
const UserAgent = "Endpoint-Analyzer/1.0"

// ServiceName is reported by the health endpoint and the CLI banner.
const ServiceName = "Endpoint Analyzer"

// Performance thresholds in milliseconds.
const (
	ThresholdExcellentMs  = 200
	ThresholdGoodMs       = 500
	ThresholdAcceptableMs = 1000
	ThresholdSlowMs       = 3000
)

// Score weights for the composite total.
const (
	WeightPerformance = 0.30
	WeightSecurity    = 0.35
	WeightReliability = 0.35
)

// SecurityHeaders returns the lower-case names of the headers counted by the security score.
func SecurityHeaders() []string {
	return []string{
		"strict-transport-security",
		"content-security-policy",
		"x-frame-options",
		"x-content-type-options",
	}
}
