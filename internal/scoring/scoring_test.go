package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func reachable(ms float64) Network {
	return Network{Reachable: true, TotalResponseTimeMs: ms, StatusCode: 200}
}

func boolPtr(v bool) *bool { return &v }
func intPtr(v int) *int    { return &v }

func allHeaders() map[string]string {
	return map[string]string{
		"strict-transport-security": "max-age=31536000",
		"content-security-policy":   "default-src 'self'",
		"x-frame-options":           "DENY",
		"x-content-type-options":    "nosniff",
	}
}

func TestPerformance(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		net  Network
		want int
	}{
		{"unreachable", Network{TotalResponseTimeMs: 10}, 0},
		{"excellent", reachable(150), 100},
		{"at excellent threshold", reachable(200), 100},
		{"just over excellent", reachable(350), 83},
		{"at good threshold", reachable(500), 75},
		{"acceptable midpoint", reachable(750), 63},
		{"at acceptable threshold", reachable(1000), 50},
		{"slow midpoint", reachable(2000), 35},
		{"at slow threshold", reachable(3000), 20},
		{"beyond slow", reachable(4000), 18},
		{"floor at five", reachable(20000), 5},
		{"redirect penalty", Network{Reachable: true, TotalResponseTimeMs: 100, RedirectCount: 5, StatusCode: 200}, 90},
		{"error status penalty", Network{Reachable: true, TotalResponseTimeMs: 100, StatusCode: 404}, 80},
		{"clamped at zero", Network{Reachable: true, TotalResponseTimeMs: 20000, RedirectCount: 10, StatusCode: 500}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, cfg.Performance(tt.net))
		})
	}
}

func TestSecurity(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("perfect https", func(t *testing.T) {
		tls := TLS{IsHTTPS: true, CertificateValid: boolPtr(true), DaysUntilExpiration: intPtr(60)}
		require.Equal(t, 100, cfg.Security(tls, allHeaders()))
	})

	t.Run("plain http without headers", func(t *testing.T) {
		require.Equal(t, 0, cfg.Security(TLS{}, nil))
	})

	t.Run("plain http with all headers", func(t *testing.T) {
		require.Equal(t, 50, cfg.Security(TLS{}, allHeaders()))
	})

	t.Run("https with unavailable certificate", func(t *testing.T) {
		tls := TLS{IsHTTPS: true, CertificateValid: boolPtr(false)}
		require.Equal(t, 30, cfg.Security(tls, map[string]string{}))
	})

	t.Run("expiring soon", func(t *testing.T) {
		tls := TLS{IsHTTPS: true, CertificateValid: boolPtr(true), DaysUntilExpiration: intPtr(10)}
		require.Equal(t, 47, cfg.Security(tls, nil))
	})

	t.Run("expired certificate scores lower", func(t *testing.T) {
		valid := TLS{IsHTTPS: true, CertificateValid: boolPtr(true), DaysUntilExpiration: intPtr(10)}
		expired := TLS{IsHTTPS: true, CertificateValid: boolPtr(false), DaysUntilExpiration: intPtr(-3), Expired: true}
		require.Less(t, cfg.Security(expired, nil), cfg.Security(valid, nil))
		require.Equal(t, 30, cfg.Security(expired, nil))
	})

	t.Run("partial headers are proportional", func(t *testing.T) {
		detected := map[string]string{"x-frame-options": "DENY"}
		require.Equal(t, 10, cfg.Security(TLS{}, detected))
	})

	t.Run("hsts counts twice", func(t *testing.T) {
		detected := map[string]string{"strict-transport-security": "max-age=1"}
		require.Equal(t, 15, cfg.Security(TLS{}, detected))
	})
}

func TestReliability(t *testing.T) {
	cfg := DefaultConfig()
	trusted := TLS{IsHTTPS: true, CertificateValid: boolPtr(true), DaysUntilExpiration: intPtr(90)}

	tests := []struct {
		name string
		net  Network
		tls  TLS
		want int
	}{
		{"unreachable", Network{}, TLS{}, 0},
		{"healthy http", reachable(100), TLS{}, 100},
		{"healthy https", reachable(100), trusted, 100},
		{"server error", Network{Reachable: true, StatusCode: 503}, TLS{}, 50},
		{"client error", Network{Reachable: true, StatusCode: 404}, TLS{}, 75},
		{"redirect status", Network{Reachable: true, StatusCode: 302}, TLS{}, 95},
		{"three redirects", Network{Reachable: true, StatusCode: 200, RedirectCount: 3}, TLS{}, 95},
		{"six redirects", Network{Reachable: true, StatusCode: 200, RedirectCount: 6}, TLS{}, 85},
		{"slow dns", Network{Reachable: true, StatusCode: 200, DNSLookupTimeMs: 700}, TLS{}, 95},
		{"very slow dns", Network{Reachable: true, StatusCode: 200, DNSLookupTimeMs: 1500}, TLS{}, 90},
		{"untrusted certificate", reachable(100), TLS{IsHTTPS: true, CertificateValid: boolPtr(false), DaysUntilExpiration: intPtr(90)}, 80},
		{"unknown certificate", reachable(100), TLS{IsHTTPS: true}, 80},
		{"expiring in five days", reachable(100), TLS{IsHTTPS: true, CertificateValid: boolPtr(true), DaysUntilExpiration: intPtr(5)}, 90},
		{"expired stacks", reachable(100), TLS{IsHTTPS: true, CertificateValid: boolPtr(false), DaysUntilExpiration: intPtr(-1), Expired: true}, 55},
		{"everything wrong clamps", Network{Reachable: true, StatusCode: 500, RedirectCount: 8, DNSLookupTimeMs: 2000},
			TLS{IsHTTPS: true, CertificateValid: boolPtr(false), DaysUntilExpiration: intPtr(-10), Expired: true}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, cfg.Reliability(tt.net, tt.tls))
		})
	}
}

func TestTotalMatchesWeightedFormula(t *testing.T) {
	cfg := DefaultConfig()

	for p := 0; p <= 100; p += 7 {
		for s := 0; s <= 100; s += 9 {
			for r := 0; r <= 100; r += 11 {
				want := Clamp(int(math.Floor(0.30*float64(p)+0.35*float64(s)+0.35*float64(r)+0.5)), 0, 100)
				got := cfg.Total(p, s, r)
				require.Equal(t, want, got, "p=%d s=%d r=%d", p, s, r)
				require.GreaterOrEqual(t, got, 0)
				require.LessOrEqual(t, got, 100)
			}
		}
	}

	require.Equal(t, 100, cfg.Total(100, 100, 100))
	require.Equal(t, 0, cfg.Total(0, 0, 0))
}

func TestCalculate_UnreachableEndpoint(t *testing.T) {
	cfg := DefaultConfig()

	scores := cfg.Calculate(Network{DNSLookupTimeMs: 20}, TLS{IsHTTPS: true}, nil)
	require.Equal(t, 0, scores.Performance)
	require.Equal(t, 0, scores.Reliability)
	require.Equal(t, 30, scores.Security)
	require.Equal(t, 11, scores.Total)
}

func TestCalculate_CustomHeaderSet(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SecurityHeaders = []string{"X-Frame-Options", "Referrer-Policy"}

	detected := map[string]string{"x-frame-options": "DENY"}
	require.Equal(t, 20, cfg.Security(TLS{}, detected))
}

func TestClamp(t *testing.T) {
	require.Equal(t, 0, Clamp(-5, 0, 100))
	require.Equal(t, 100, Clamp(120, 0, 100))
	require.Equal(t, 42, Clamp(42, 0, 100))
}
