package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/khanhnv2901/endpoint-analyzer/internal/scoring"
	consts "github.com/khanhnv2901/endpoint-analyzer/internal/shared/constants"
)

const (
	envPrefix = "EPA"

	defaultServeAddr       = "127.0.0.1:3000"
	defaultRateLimit       = 10
	defaultRateBurst       = 20
	defaultShutdownTimeout = 30 * time.Second
)

// CLIConfig captures runtime configuration shared across commands.
type CLIConfig struct {
	Analyze AnalyzeConfig
	Serve   ServeConfig
	Scoring scoring.Config
}

// AnalyzeConfig holds the probe settings used by analyze and serve.
type AnalyzeConfig struct {
	TimeoutMs    int
	DNSTimeoutMs int
	MaxRedirects int // 0 disables redirect following
	MaxBodyBytes int64
	UserAgent    string
	VerifyTLS    bool
	AllowPrivate bool
	NameServers  []string
}

// ServeConfig holds the API server settings.
type ServeConfig struct {
	Addr            string
	AuthToken       string
	CORSOrigins     []string
	RateLimit       int
	RateBurst       int
	TrustForwarded  bool
	ShutdownTimeout time.Duration
	LogFile         string
	LogLevel        string
	LogFormat       string
}

func newCLIConfig() *CLIConfig {
	return &CLIConfig{
		Analyze: AnalyzeConfig{
			TimeoutMs:    int(consts.RequestTimeout / time.Millisecond),
			DNSTimeoutMs: int(consts.DNSTimeout / time.Millisecond),
			MaxRedirects: consts.MaxRedirects,
			MaxBodyBytes: consts.MaxResponseBytes,
			UserAgent:    consts.UserAgent,
		},
		Serve: ServeConfig{
			Addr:            defaultServeAddr,
			RateLimit:       defaultRateLimit,
			RateBurst:       defaultRateBurst,
			ShutdownTimeout: defaultShutdownTimeout,
			LogLevel:        "info",
			LogFormat:       "json",
		},
		Scoring: scoring.DefaultConfig(),
	}
}

// configureViper enables EPA_* environment overrides, e.g.
// EPA_ANALYZE_TIMEOUT_MS for analyze.timeout_ms.
func configureViper(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// loadCLIConfig layers config-file and environment values over the defaults.
func loadCLIConfig(v *viper.Viper) (*CLIConfig, error) {
	cfg := newCLIConfig()

	a := &cfg.Analyze
	if v.IsSet("analyze.timeout_ms") {
		a.TimeoutMs = v.GetInt("analyze.timeout_ms")
	}
	if v.IsSet("analyze.dns_timeout_ms") {
		a.DNSTimeoutMs = v.GetInt("analyze.dns_timeout_ms")
	}
	if v.IsSet("analyze.max_redirects") {
		a.MaxRedirects = v.GetInt("analyze.max_redirects")
	}
	if v.IsSet("analyze.max_body_bytes") {
		a.MaxBodyBytes = v.GetInt64("analyze.max_body_bytes")
	}
	if v.IsSet("analyze.user_agent") {
		a.UserAgent = v.GetString("analyze.user_agent")
	}
	if v.IsSet("analyze.verify_tls") {
		a.VerifyTLS = v.GetBool("analyze.verify_tls")
	}
	if v.IsSet("analyze.allow_private") {
		a.AllowPrivate = v.GetBool("analyze.allow_private")
	}
	if v.IsSet("analyze.nameservers") {
		a.NameServers = v.GetStringSlice("analyze.nameservers")
	}

	s := &cfg.Serve
	if v.IsSet("serve.addr") {
		s.Addr = v.GetString("serve.addr")
	} else if port := os.Getenv("PORT"); port != "" {
		s.Addr = ":" + port
	}
	if v.IsSet("serve.auth_token") {
		s.AuthToken = v.GetString("serve.auth_token")
	}
	if v.IsSet("serve.cors_origins") {
		s.CORSOrigins = v.GetStringSlice("serve.cors_origins")
	}
	if v.IsSet("serve.rate_limit") {
		s.RateLimit = v.GetInt("serve.rate_limit")
	}
	if v.IsSet("serve.rate_burst") {
		s.RateBurst = v.GetInt("serve.rate_burst")
	}
	if v.IsSet("serve.trust_forwarded") {
		s.TrustForwarded = v.GetBool("serve.trust_forwarded")
	}
	if v.IsSet("serve.shutdown_timeout") {
		s.ShutdownTimeout = v.GetDuration("serve.shutdown_timeout")
	}
	if v.IsSet("serve.log_file") {
		s.LogFile = v.GetString("serve.log_file")
	}
	if v.IsSet("serve.log_level") {
		s.LogLevel = v.GetString("serve.log_level")
	}
	if v.IsSet("serve.log_format") {
		s.LogFormat = v.GetString("serve.log_format")
	}

	if v.IsSet("scoring") {
		if v.IsSet("scoring.security_headers") {
			// replace rather than merge into the default list
			cfg.Scoring.SecurityHeaders = nil
		}
		if err := v.UnmarshalKey("scoring", &cfg.Scoring); err != nil {
			return nil, fmt.Errorf("parse scoring config: %w", err)
		}
		for i, name := range cfg.Scoring.SecurityHeaders {
			cfg.Scoring.SecurityHeaders[i] = strings.ToLower(strings.TrimSpace(name))
		}
	}
	if err := cfg.Scoring.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveAnalyzeConfig starts from the analyze flags and lets config values
// win wherever the user did not explicitly set the flag.
func resolveAnalyzeConfig(flags *pflag.FlagSet, defaults AnalyzeConfig) AnalyzeConfig {
	out := AnalyzeConfig{NameServers: defaults.NameServers}
	out.TimeoutMs, _ = flags.GetInt("timeout-ms")
	out.DNSTimeoutMs, _ = flags.GetInt("dns-timeout-ms")
	out.MaxRedirects, _ = flags.GetInt("max-redirects")
	out.MaxBodyBytes, _ = flags.GetInt64("max-body-bytes")
	out.UserAgent, _ = flags.GetString("user-agent")
	out.VerifyTLS, _ = flags.GetBool("verify-tls")
	out.AllowPrivate, _ = flags.GetBool("allow-private")

	applyIntDefault(flags, "timeout-ms", defaults.TimeoutMs, func(v int) { out.TimeoutMs = v })
	applyIntDefault(flags, "dns-timeout-ms", defaults.DNSTimeoutMs, func(v int) { out.DNSTimeoutMs = v })
	applyIntDefault(flags, "max-redirects", defaults.MaxRedirects, func(v int) { out.MaxRedirects = v })
	applyInt64Default(flags, "max-body-bytes", defaults.MaxBodyBytes, func(v int64) { out.MaxBodyBytes = v })
	setStringFlagIfUnset(flags, "user-agent", defaults.UserAgent)
	out.UserAgent, _ = flags.GetString("user-agent")
	applyBoolDefault(flags, "verify-tls", defaults.VerifyTLS, func(v bool) { out.VerifyTLS = v })
	applyBoolDefault(flags, "allow-private", defaults.AllowPrivate, func(v bool) { out.AllowPrivate = v })
	return out
}

// resolveServeConfig is resolveAnalyzeConfig for the serve flags.
func resolveServeConfig(flags *pflag.FlagSet, defaults ServeConfig) ServeConfig {
	out := ServeConfig{LogFormat: defaults.LogFormat}
	out.Addr, _ = flags.GetString("addr")
	out.AuthToken, _ = flags.GetString("auth-token")
	out.CORSOrigins, _ = flags.GetStringSlice("cors-origins")
	out.RateLimit, _ = flags.GetInt("rate-limit")
	out.RateBurst, _ = flags.GetInt("rate-burst")
	out.TrustForwarded, _ = flags.GetBool("trust-forwarded")
	out.ShutdownTimeout, _ = flags.GetDuration("shutdown-timeout")
	out.LogFile, _ = flags.GetString("log-file")
	out.LogLevel, _ = flags.GetString("log-level")

	setStringFlagIfUnset(flags, "addr", defaults.Addr)
	out.Addr, _ = flags.GetString("addr")
	setStringFlagIfUnset(flags, "auth-token", defaults.AuthToken)
	out.AuthToken, _ = flags.GetString("auth-token")
	if f := flags.Lookup("cors-origins"); f == nil || !f.Changed {
		out.CORSOrigins = defaults.CORSOrigins
	}
	applyIntDefault(flags, "rate-limit", defaults.RateLimit, func(v int) { out.RateLimit = v })
	applyIntDefault(flags, "rate-burst", defaults.RateBurst, func(v int) { out.RateBurst = v })
	applyBoolDefault(flags, "trust-forwarded", defaults.TrustForwarded, func(v bool) { out.TrustForwarded = v })
	if f := flags.Lookup("shutdown-timeout"); f == nil || !f.Changed {
		out.ShutdownTimeout = defaults.ShutdownTimeout
	}
	setStringFlagIfUnset(flags, "log-file", defaults.LogFile)
	out.LogFile, _ = flags.GetString("log-file")
	setStringFlagIfUnset(flags, "log-level", defaults.LogLevel)
	out.LogLevel, _ = flags.GetString("log-level")
	return out
}

func applyIntDefault(flags *pflag.FlagSet, name string, value int, setter func(int)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func applyInt64Default(flags *pflag.FlagSet, name string, value int64, setter func(int64)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func applyBoolDefault(flags *pflag.FlagSet, name string, value bool, setter func(bool)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func setStringFlagIfUnset(flags *pflag.FlagSet, name, value string) {
	if flags == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag == nil || flag.Changed {
		return
	}
	_ = flag.Value.Set(value)
}
