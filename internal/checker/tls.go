package checker

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"math"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/khanhnv2901/endpoint-analyzer/internal/shared/clock"
	"github.com/khanhnv2901/endpoint-analyzer/internal/shared/constants"
)

// versionSSL30 mirrors the deprecated tls.VersionSSL30 symbol.
const versionSSL30 = 0x0300

// CertificateInfo is what a dedicated TLS session reveals about a host's
// leaf certificate. When Available is false only Reason is set.
type CertificateInfo struct {
	Available bool
	Reason    string

	Valid               bool // chain accepted by the trust store for this host
	Issuer              string
	Subject             string
	ValidFrom           time.Time
	ValidTo             time.Time
	DaysUntilExpiration int
	Expired             bool
	SerialNumber        string
	Fingerprint         string
	TLSVersion          string
	CipherSuite         string
	SubjectAltNames     []string
	SignatureAlgorithm  string
	PublicKeyAlgorithm  string
	KeySize             int
	SelfSigned          bool
}

// TLSReport is the tls section of an analysis report.
type TLSReport struct {
	IsHTTPS               bool       `json:"isHttps"`
	CertificateValid      *bool      `json:"certificateValid"`
	CertificateIssuer     *string    `json:"certificateIssuer"`
	CertificateSubject    *string    `json:"certificateSubject,omitempty"`
	CertificateValidFrom  *time.Time `json:"certificateValidFrom,omitempty"`
	CertificateExpiration *time.Time `json:"certificateExpiration"`
	DaysUntilExpiration   *int       `json:"daysUntilExpiration"`
	Expired               *bool      `json:"expired,omitempty"`
	TLSVersion            *string    `json:"tlsVersion"`
	CipherSuite           string     `json:"cipherSuite,omitempty"`
	SerialNumber          string     `json:"serialNumber,omitempty"`
	Fingerprint           string     `json:"fingerprint,omitempty"`
	SubjectAltNames       []string   `json:"subjectAltNames,omitempty"`
	SignatureAlgorithm    string     `json:"signatureAlgorithm,omitempty"`
	PublicKeyAlgorithm    string     `json:"publicKeyAlgorithm,omitempty"`
	KeySize               int        `json:"keySize,omitempty"`
	SelfSigned            bool       `json:"selfSigned,omitempty"`
	Error                 string     `json:"error,omitempty"`
}

// TLSInspector opens its own TLS session to a host, independent of any HTTP
// fetch, and reports on the presented certificate without rejecting it.
type TLSInspector struct {
	Timeout time.Duration
	// RootCAs replaces the system trust store when judging validity.
	RootCAs *x509.CertPool
	Clock   clock.Clock
}

// InspectURL inspects the certificate served for target. Non-HTTPS targets
// yield a report with IsHTTPS false and every certificate field nil.
func (i *TLSInspector) InspectURL(ctx context.Context, target string) TLSReport {
	u, err := url.Parse(target)
	if err != nil || !strings.EqualFold(u.Scheme, "https") {
		return TLSReport{}
	}

	port := u.Port()
	if port == "" {
		port = "443"
	}
	return NewTLSReport(i.Inspect(ctx, u.Hostname(), port))
}

// Inspect performs the handshake against host:port. Failures are reported
// through CertificateInfo.Reason, never as an error.
func (i *TLSInspector) Inspect(ctx context.Context, host, port string) CertificateInfo {
	timeout := i.Timeout
	if timeout <= 0 {
		timeout = constants.RequestTimeout
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: timeout},
		Config: &tls.Config{
			ServerName:         host,
			InsecureSkipVerify: true, // #nosec G402 -- validity is computed below
		},
	}

	conn, err := dialer.DialContext(dialCtx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		reason := err.Error()
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) && netErr.Timeout() {
			reason = "TLS connection timed out"
		}
		return CertificateInfo{Reason: reason}
	}
	defer conn.Close()

	state := conn.(*tls.Conn).ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return CertificateInfo{Reason: "No certificate found"}
	}

	now := clock.OrReal(i.Clock).Now()
	info := analyzeCertificate(state.PeerCertificates[0], now)
	info.Valid = i.verify(state.PeerCertificates, host, now)
	info.TLSVersion = tlsVersionString(state.Version)
	info.CipherSuite = cipherSuiteString(state.CipherSuite)
	return info
}

func (i *TLSInspector) verify(chain []*x509.Certificate, host string, now time.Time) bool {
	intermediates := x509.NewCertPool()
	for _, cert := range chain[1:] {
		intermediates.AddCert(cert)
	}
	_, err := chain[0].Verify(x509.VerifyOptions{
		DNSName:       host,
		Roots:         i.RootCAs,
		Intermediates: intermediates,
		CurrentTime:   now,
	})
	return err == nil
}

// analyzeCertificate extracts certificate information
func analyzeCertificate(cert *x509.Certificate, now time.Time) CertificateInfo {
	days := int(math.Floor(cert.NotAfter.Sub(now).Hours() / 24))

	return CertificateInfo{
		Available:           true,
		Issuer:              issuerName(cert),
		Subject:             cert.Subject.CommonName,
		ValidFrom:           cert.NotBefore.UTC(),
		ValidTo:             cert.NotAfter.UTC(),
		DaysUntilExpiration: days,
		Expired:             days <= 0,
		SerialNumber:        fmt.Sprintf("%X", cert.SerialNumber),
		Fingerprint:         fingerprint(cert.Raw),
		SubjectAltNames:     subjectAltNames(cert),
		SignatureAlgorithm:  cert.SignatureAlgorithm.String(),
		PublicKeyAlgorithm:  cert.PublicKeyAlgorithm.String(),
		KeySize:             keySize(cert.PublicKey),
		SelfSigned:          cert.Subject.String() == cert.Issuer.String(),
	}
}

// NewTLSReport converts inspector output into the report shape for an
// HTTPS target.
func NewTLSReport(info CertificateInfo) TLSReport {
	report := TLSReport{IsHTTPS: true}
	if !info.Available {
		report.CertificateValid = ptr(false)
		report.Error = info.Reason
		return report
	}

	report.CertificateValid = ptr(info.Valid)
	report.CertificateIssuer = ptr(info.Issuer)
	if info.Subject != "" {
		report.CertificateSubject = ptr(info.Subject)
	}
	report.CertificateValidFrom = ptr(info.ValidFrom)
	report.CertificateExpiration = ptr(info.ValidTo)
	report.DaysUntilExpiration = ptr(info.DaysUntilExpiration)
	report.Expired = ptr(info.Expired)
	report.TLSVersion = ptr(info.TLSVersion)
	report.CipherSuite = info.CipherSuite
	report.SerialNumber = info.SerialNumber
	report.Fingerprint = info.Fingerprint
	report.SubjectAltNames = info.SubjectAltNames
	report.SignatureAlgorithm = info.SignatureAlgorithm
	report.PublicKeyAlgorithm = info.PublicKeyAlgorithm
	report.KeySize = info.KeySize
	report.SelfSigned = info.SelfSigned
	return report
}

// issuerName joins the issuer organization and common name, e.g.
// "Let's Encrypt - R3".
func issuerName(cert *x509.Certificate) string {
	parts := make([]string, 0, 2)
	if len(cert.Issuer.Organization) > 0 && cert.Issuer.Organization[0] != "" {
		parts = append(parts, cert.Issuer.Organization[0])
	}
	if cert.Issuer.CommonName != "" {
		parts = append(parts, cert.Issuer.CommonName)
	}
	if len(parts) == 0 {
		return cert.Issuer.String()
	}
	return strings.Join(parts, " - ")
}

func fingerprint(raw []byte) string {
	sum := sha256.Sum256(raw)
	hexParts := make([]string, len(sum))
	for idx, b := range sum {
		hexParts[idx] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(hexParts, ":")
}

func subjectAltNames(cert *x509.Certificate) []string {
	names := make([]string, 0, len(cert.DNSNames)+len(cert.IPAddresses))
	for _, name := range cert.DNSNames {
		names = append(names, "DNS:"+name)
	}
	for _, ip := range cert.IPAddresses {
		names = append(names, "IP Address:"+ip.String())
	}
	for _, email := range cert.EmailAddresses {
		names = append(names, "email:"+email)
	}
	for _, uri := range cert.URIs {
		names = append(names, "URI:"+uri.String())
	}
	return names
}

// keySize returns the public key size in bits.
func keySize(pub interface{}) int {
	switch key := pub.(type) {
	case *rsa.PublicKey:
		return key.N.BitLen()
	case *ecdsa.PublicKey:
		return key.Curve.Params().BitSize
	case ed25519.PublicKey:
		return 256
	default:
		return 0
	}
}

// tlsVersionString converts TLS version constant to string
func tlsVersionString(version uint16) string {
	switch version {
	case versionSSL30:
		return "SSLv3"
	case tls.VersionTLS10:
		return "TLSv1"
	case tls.VersionTLS11:
		return "TLSv1.1"
	case tls.VersionTLS12:
		return "TLSv1.2"
	case tls.VersionTLS13:
		return "TLSv1.3"
	default:
		return fmt.Sprintf("Unknown (0x%04x)", version)
	}
}

// cipherSuiteString converts cipher suite constant to string
func cipherSuiteString(suite uint16) string {
	if name := tls.CipherSuiteName(suite); name != "" {
		return name
	}
	return fmt.Sprintf("Unknown (0x%04x)", suite)
}

func ptr[T any](v T) *T {
	return &v
}
