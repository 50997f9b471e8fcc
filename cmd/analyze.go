package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/khanhnv2901/endpoint-analyzer/internal/analyzer"
	"github.com/khanhnv2901/endpoint-analyzer/internal/checker"
	"github.com/khanhnv2901/endpoint-analyzer/internal/render"
	"github.com/khanhnv2901/endpoint-analyzer/internal/scoring"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <url>",
	Short: "Probe an endpoint and print its health report",
	Long: `Probe an HTTP(S) endpoint once: DNS timing, the redirect-following fetch,
TLS certificate inspection, header and content analysis, and the composite
performance/security/reliability score.

Exit status is 0 on completion (even for unreachable endpoints), 1 on invalid
input or internal failure, and 2 when --fail-under is set and the total score
is below it.`,
	Example: `  epa analyze https://example.com
  epa analyze https://example.com -o json
  epa analyze http://localhost:8080 --allow-private --fail-under 70`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	appCtx := getAppContext(cmd)
	flags := cmd.Flags()

	settings := resolveAnalyzeConfig(flags, appCtx.Config.Analyze)
	output, _ := flags.GetString("output")
	failUnder, _ := flags.GetInt("fail-under")
	noColor, _ := flags.GetBool("no-color")

	format, err := render.ParseFormat(output)
	if err != nil {
		return err
	}
	if failUnder < 0 || failUnder > 100 {
		return fmt.Errorf("--fail-under must be between 0 and 100, got %d", failUnder)
	}

	target, err := checker.ValidateURL(args[0], settings.AllowPrivate)
	if err != nil {
		return &ValidationError{URL: args[0], Err: err}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := analyzer.New(analyzerOptions(settings, appCtx.Config.Scoring, appCtx.Logger.Desugar()))
	report, err := a.Analyze(ctx, target)
	if err != nil {
		return fmt.Errorf("analysis of %s failed: %w", target, err)
	}

	printer := render.NewPrinter(render.Opts{
		Writer: cmd.OutOrStdout(),
		Color:  !noColor && !color.NoColor,
	})
	if err := printer.Print(report, format); err != nil {
		return err
	}

	if failUnder > 0 && report.Scores.Total < failUnder {
		return &ScoreBelowThresholdError{URL: target, Score: report.Scores.Total, Threshold: failUnder}
	}
	return nil
}

// analyzerOptions converts CLI settings to analyzer options. A zero
// MaxRedirects setting disables redirect following.
func analyzerOptions(settings AnalyzeConfig, scoringCfg scoring.Config, logger *zap.Logger) analyzer.Options {
	maxRedirects := settings.MaxRedirects
	if maxRedirects == 0 {
		maxRedirects = -1
	}
	return analyzer.Options{
		Timeout:      time.Duration(settings.TimeoutMs) * time.Millisecond,
		DNSTimeout:   time.Duration(settings.DNSTimeoutMs) * time.Millisecond,
		NameServers:  settings.NameServers,
		MaxRedirects: maxRedirects,
		MaxBodyBytes: settings.MaxBodyBytes,
		UserAgent:    settings.UserAgent,
		VerifyTLS:    settings.VerifyTLS,
		BlockPrivate: !settings.AllowPrivate,
		Scoring:      scoringCfg,
		Logger:       logger,
	}
}

// addProbeFlags registers the probe settings shared by analyze and serve.
func addProbeFlags(fs *pflag.FlagSet) {
	probe := newCLIConfig().Analyze
	fs.Int("timeout-ms", probe.TimeoutMs, "Per-hop request timeout in milliseconds")
	fs.Int("dns-timeout-ms", probe.DNSTimeoutMs, "DNS lookup timeout in milliseconds")
	fs.Int("max-redirects", probe.MaxRedirects, "Maximum redirects to follow (0 = do not follow)")
	fs.Int64("max-body-bytes", probe.MaxBodyBytes, "Maximum response body bytes to read")
	fs.String("user-agent", probe.UserAgent, "User-Agent header sent with each request")
	fs.Bool("verify-tls", false, "Fail the fetch on untrusted certificates instead of only reporting them")
	fs.Bool("allow-private", false, "Allow loopback and private network targets")
}

func addAnalyzeFlags(fs *pflag.FlagSet) {
	fs.StringP("output", "o", "text", "Output format: text, json or yaml")
	fs.Int("fail-under", 0, "Exit with status 2 when the total score is below this value (0 = disabled)")
	fs.Bool("no-color", false, "Disable colored output")
	addProbeFlags(fs)
}

func init() {
	addAnalyzeFlags(analyzeCmd.Flags())
}
