package checker

import (
	"context"
	"crypto/x509"
	"errors"
	"net"
	"syscall"

	sharedErrors "github.com/khanhnv2901/endpoint-analyzer/internal/shared/errors"
)

// ErrorCode is the stable failure category reported for an unreachable endpoint.
type ErrorCode string

const (
	CodeDNS                ErrorCode = "DNS_ERROR"
	CodeTimeout            ErrorCode = "TIMEOUT"
	CodeConnectionRefused  ErrorCode = "CONNECTION_REFUSED"
	CodeConnectionReset    ErrorCode = "CONNECTION_RESET"
	CodeCertificateExpired ErrorCode = "CERTIFICATE_EXPIRED"
	CodeCertificateInvalid ErrorCode = "CERTIFICATE_INVALID"
	CodeConnection         ErrorCode = "CONNECTION_ERROR"
	CodeResponse           ErrorCode = "RESPONSE_ERROR"
)

// ProbeError describes why a probe could not complete.
type ProbeError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	// Cause carries the low-level reason (errno text) for generic connection failures.
	Cause string `json:"cause,omitempty"`
}

func (e *ProbeError) Error() string {
	if e == nil {
		return ""
	}
	return string(e.Code) + ": " + e.Message
}

// Classify maps a transport error onto the failure taxonomy.
// Certificate failures are checked first because they arrive wrapped
// in the same url.Error as connection failures.
func Classify(err error) *ProbeError {
	if err == nil {
		return nil
	}
	pe := &ProbeError{Message: err.Error()}

	var invalid x509.CertificateInvalidError
	var unknownAuthority x509.UnknownAuthorityError
	var hostname x509.HostnameError
	var dnsErr *net.DNSError
	var netErr net.Error
	var errno syscall.Errno

	switch {
	case errors.As(err, &invalid) && invalid.Reason == x509.Expired:
		pe.Code = CodeCertificateExpired
	case errors.As(err, &invalid), errors.As(err, &unknownAuthority), errors.As(err, &hostname):
		pe.Code = CodeCertificateInvalid
	case errors.As(err, &dnsErr):
		pe.Code = CodeDNS
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		pe.Code = CodeTimeout
	case errors.Is(err, syscall.ECONNREFUSED):
		pe.Code = CodeConnectionRefused
	case errors.Is(err, syscall.ECONNRESET):
		pe.Code = CodeConnectionReset
	case errors.Is(err, sharedErrors.ErrPrivateHost):
		pe.Code = CodeConnection
		pe.Cause = "private address blocked"
	default:
		pe.Code = CodeConnection
		if errors.As(err, &errno) {
			pe.Cause = errno.Error()
		}
	}
	return pe
}
