package checker

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"sync"
	"syscall"
	"time"

	"github.com/khanhnv2901/endpoint-analyzer/internal/shared/clock"
	"github.com/khanhnv2901/endpoint-analyzer/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/endpoint-analyzer/internal/shared/errors"
)

// RedirectHop records one followed redirect.
type RedirectHop struct {
	StatusCode int    `json:"statusCode"`
	From       string `json:"from"`
	To         string `json:"to"`
}

// FetchResult is the outcome of following a URL to its final response.
type FetchResult struct {
	Success       bool
	FinalURL      string
	StatusCode    int
	RedirectChain []RedirectHop
	Headers       http.Header
	Body          []byte
	Truncated     bool
	Elapsed       time.Duration
	// TLSHandshake is measured on the final hop only; nil for plain HTTP.
	TLSHandshake *time.Duration
	HTTPVersion  string
	Err          *ProbeError
}

// RedirectCount is the number of redirects followed.
func (r FetchResult) RedirectCount() int {
	return len(r.RedirectChain)
}

// Fetcher issues GET requests and follows redirects manually so every hop
// is recorded. The zero value follows no redirects; NewFetcher applies the
// default limits.
type Fetcher struct {
	Timeout      time.Duration // per hop
	MaxRedirects int
	MaxBodyBytes int64
	UserAgent    string
	// VerifyTLS makes the fetch itself reject untrusted certificates.
	// Certificate trust is otherwise judged by TLSInspector.
	VerifyTLS bool
	// BlockPrivate refuses to connect to loopback, private and link-local
	// addresses on every hop, redirects included.
	BlockPrivate bool
	RootCAs      *x509.CertPool
	Clock        clock.Clock

	blocked func(host string) bool // defaults to IsPrivateHost
}

// NewFetcher returns a Fetcher with default limits.
func NewFetcher() *Fetcher {
	return &Fetcher{
		Timeout:      constants.RequestTimeout,
		MaxRedirects: constants.MaxRedirects,
		MaxBodyBytes: constants.MaxResponseBytes,
		UserAgent:    constants.UserAgent,
	}
}

var redirectStatuses = map[int]bool{
	http.StatusMovedPermanently:  true,
	http.StatusFound:             true,
	http.StatusSeeOther:          true,
	http.StatusTemporaryRedirect: true,
	http.StatusPermanentRedirect: true,
}

// Fetch retrieves target, following at most MaxRedirects redirects. Once the
// budget is spent the next redirect response is returned as final.
func (f *Fetcher) Fetch(ctx context.Context, target string) FetchResult {
	clk := clock.OrReal(f.Clock)
	client := f.newClient()
	defer client.CloseIdleConnections()

	chain := []RedirectHop{}
	current := target
	remaining := f.MaxRedirects
	start := clk.Now()

	for {
		h, err := f.hop(ctx, client, clk, current)
		if err != nil {
			return FetchResult{
				FinalURL:      current,
				RedirectChain: chain,
				Elapsed:       clock.Since(clk, start),
				Err:           Classify(err),
			}
		}

		if next, ok := nextLocation(h.resp, current); ok && remaining > 0 {
			chain = append(chain, RedirectHop{StatusCode: h.resp.StatusCode, From: current, To: next})
			h.discard()
			current = next
			remaining--
			continue
		}

		body, truncated, readErr := readBody(h.resp.Body, f.maxBodyBytes())
		h.discard()
		elapsed := clock.Since(clk, start)

		if readErr != nil {
			return FetchResult{
				FinalURL:      current,
				RedirectChain: chain,
				Elapsed:       elapsed,
				Err:           &ProbeError{Code: CodeResponse, Message: readErr.Error()},
			}
		}

		return FetchResult{
			Success:       true,
			FinalURL:      current,
			StatusCode:    h.resp.StatusCode,
			RedirectChain: chain,
			Headers:       h.resp.Header,
			Body:          body,
			Truncated:     truncated,
			Elapsed:       elapsed,
			TLSHandshake:  h.timing.handshake(),
			HTTPVersion:   h.resp.Proto,
		}
	}
}

type hopResponse struct {
	resp   *http.Response
	timing *hopTiming
	cancel context.CancelFunc
}

func (h *hopResponse) discard() {
	_, _ = io.Copy(io.Discard, io.LimitReader(h.resp.Body, 4096))
	_ = h.resp.Body.Close()
	h.cancel()
}

func (f *Fetcher) hop(ctx context.Context, client *http.Client, clk clock.Clock, target string) (*hopResponse, error) {
	hopCtx, cancel := context.WithTimeout(ctx, f.timeout())

	timing := &hopTiming{}
	if u, err := url.Parse(target); err == nil && u.Scheme == "https" {
		hopCtx = httptrace.WithClientTrace(hopCtx, timing.trace(clk))
	}

	req, err := http.NewRequestWithContext(hopCtx, http.MethodGet, target, nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent())
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := client.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}
	return &hopResponse{resp: resp, timing: timing, cancel: cancel}, nil
}

func (f *Fetcher) newClient() *http.Client {
	transport := &http.Transport{
		Proxy:       nil,
		DialContext: f.dialer().DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: !f.VerifyTLS, // #nosec G402 -- trust is reported by TLSInspector
			RootCAs:            f.RootCAs,
		},
		TLSHandshakeTimeout: f.timeout(),
		DisableKeepAlives:   true,
		DisableCompression:  true,
		ForceAttemptHTTP2:   true,
	}

	return &http.Client{
		Transport: transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (f *Fetcher) dialer() *net.Dialer {
	d := &net.Dialer{Timeout: f.timeout()}
	if !f.BlockPrivate {
		return d
	}
	blocked := f.blocked
	if blocked == nil {
		blocked = IsPrivateHost
	}
	// Control runs after name resolution, so it sees the address actually dialed.
	d.Control = func(_, address string, _ syscall.RawConn) error {
		host, _, err := net.SplitHostPort(address)
		if err != nil {
			host = address
		}
		if blocked(host) {
			return fmt.Errorf("%w: %s", sharedErrors.ErrPrivateHost, host)
		}
		return nil
	}
	return d
}

// nextLocation resolves the Location of a redirect response against the
// current URL. A redirect without a usable Location is treated as final.
func nextLocation(resp *http.Response, current string) (string, bool) {
	if !redirectStatuses[resp.StatusCode] {
		return "", false
	}
	loc := resp.Header.Get("Location")
	if loc == "" {
		return "", false
	}
	base, err := url.Parse(current)
	if err != nil {
		return "", false
	}
	ref, err := url.Parse(loc)
	if err != nil {
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}

// readBody reads up to limit bytes and reports whether more were available.
func readBody(r io.Reader, limit int64) ([]byte, bool, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(body)) > limit {
		return body[:limit], true, nil
	}
	return body, false, nil
}

func (f *Fetcher) timeout() time.Duration {
	if f.Timeout <= 0 {
		return constants.RequestTimeout
	}
	return f.Timeout
}

func (f *Fetcher) maxBodyBytes() int64 {
	if f.MaxBodyBytes <= 0 {
		return constants.MaxResponseBytes
	}
	return f.MaxBodyBytes
}

func (f *Fetcher) userAgent() string {
	if f.UserAgent == "" {
		return constants.UserAgent
	}
	return f.UserAgent
}

// hopTiming captures connection start and TLS completion for one hop.
// Dial attempts may race (happy eyeballs), hence the mutex.
type hopTiming struct {
	mu           sync.Mutex
	connectStart time.Time
	tlsDone      time.Time
}

func (t *hopTiming) trace(clk clock.Clock) *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		ConnectStart: func(string, string) {
			t.mu.Lock()
			defer t.mu.Unlock()
			if t.connectStart.IsZero() {
				t.connectStart = clk.Now()
			}
		},
		TLSHandshakeDone: func(_ tls.ConnectionState, err error) {
			if err != nil {
				return
			}
			t.mu.Lock()
			defer t.mu.Unlock()
			t.tlsDone = clk.Now()
		},
	}
}

func (t *hopTiming) handshake() *time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.connectStart.IsZero() || t.tlsDone.IsZero() {
		return nil
	}
	d := t.tlsDone.Sub(t.connectStart)
	return &d
}

