package checker

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/khanhnv2901/endpoint-analyzer/internal/shared/clock"
	"github.com/khanhnv2901/endpoint-analyzer/internal/shared/constants"
)

// DNSTimer resolves a hostname and measures how long resolution took.
type DNSTimer struct {
	Timeout     time.Duration
	NameServers []string // host:port, tried in order when a dial fails

	// Resolver overrides the resolver built from NameServers.
	Resolver *net.Resolver
	Clock    clock.Clock
}

// DNSResult is the outcome of a single resolution.
type DNSResult struct {
	ResolvedIP string
	Duration   time.Duration
	Err        *ProbeError
}

// Resolve looks up host and returns its first address. The duration is
// reported for failures as well as successes.
func (d *DNSTimer) Resolve(ctx context.Context, host string) DNSResult {
	clk := clock.OrReal(d.Clock)
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = constants.DNSTimeout
	}

	lookupCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := clk.Now()
	addrs, err := d.resolver(timeout).LookupIPAddr(lookupCtx, host)
	result := DNSResult{Duration: clock.Since(clk, start)}

	if err != nil {
		result.Err = &ProbeError{Code: CodeDNS, Message: fmt.Sprintf("DNS lookup failed: %v", err)}
		return result
	}
	if len(addrs) == 0 {
		result.Err = &ProbeError{Code: CodeDNS, Message: fmt.Sprintf("DNS lookup failed: no addresses found for %s", host)}
		return result
	}

	result.ResolvedIP = addrs[0].IP.String()
	return result
}

func (d *DNSTimer) resolver(timeout time.Duration) *net.Resolver {
	if d.Resolver != nil {
		return d.Resolver
	}
	if len(d.NameServers) == 0 {
		return net.DefaultResolver
	}

	dialer := &net.Dialer{Timeout: timeout}
	return &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
			var lastErr error
			for _, server := range d.NameServers {
				conn, err := dialer.DialContext(ctx, network, server)
				if err == nil {
					return conn, nil
				}
				lastErr = err
				if ctx.Err() != nil {
					break
				}
			}
			return nil, lastErr
		},
	}
}
