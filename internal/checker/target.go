package checker

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/khanhnv2901/endpoint-analyzer/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/endpoint-analyzer/internal/shared/errors"
)

// ValidateURL checks that raw is an absolute http(s) URL suitable for
// probing and returns it trimmed. Loopback, private and link-local hosts are
// rejected unless allowPrivate is set.
func ValidateURL(raw string, allowPrivate bool) (string, error) {
	if raw == "" {
		return "", sharedErrors.ErrEmptyURL
	}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", sharedErrors.ErrBlankURL
	}
	if len(trimmed) > constants.MaxURLLength {
		return "", fmt.Errorf("%w of %d characters", sharedErrors.ErrURLTooLong, constants.MaxURLLength)
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" {
		return "", sharedErrors.ErrInvalidURL
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", sharedErrors.ErrUnsupportedScheme
	}

	host := parsed.Hostname()
	if host == "" {
		return "", sharedErrors.ErrMissingHost
	}

	if !allowPrivate && IsPrivateHost(host) {
		return "", sharedErrors.ErrPrivateHost
	}

	return trimmed, nil
}

// IsPrivateHost reports whether host names localhost or is a loopback,
// private, link-local or unspecified IP literal. Hostnames are not resolved.
func IsPrivateHost(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	if ip4 := ip.To4(); ip4 != nil && ip4[0] == 0 {
		return true
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
}
