package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	consts "github.com/khanhnv2901/endpoint-analyzer/internal/shared/constants"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show system information, data paths and effective settings",
	Long: `Display epa configuration information including:
  - Data directory and log locations
  - Configuration file in use
  - Effective probe, scoring and server settings
  - Platform information`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)

		dataDir := appCtx.DataDir
		if dataDir == "" {
			var err error
			if dataDir, err = getDataDir(); err != nil {
				return fmt.Errorf("failed to get data directory: %w", err)
			}
		}

		configFile := appCtx.ConfigFile
		if configFile == "" {
			configFile = findConfigFile(dataDir)
		}
		configLine := formatPresence(false, "using defaults")
		if configFile != "" {
			configLine = configFile + " " + formatPresence(true, "")
		}

		logDir := filepath.Join(dataDir, logDirName)
		_, statErr := os.Stat(logDir)

		cfg := appCtx.Config
		probe := cfg.Analyze
		sc := cfg.Scoring

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, colorInfo(consts.ServiceName+" System Information"))
		fmt.Fprintln(out, "=================================")
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Platform:          %s/%s\n", runtime.GOOS, runtime.GOARCH)
		fmt.Fprintf(out, "Version:           %s\n", Version)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Data Locations:")
		fmt.Fprintf(out, "  Data Directory:     %s\n", dataDir)
		fmt.Fprintf(out, "  Log Directory:      %s %s\n", logDir, formatPresence(statErr == nil, "not created yet"))
		fmt.Fprintf(out, "  Configuration File: %s\n", configLine)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Probe Defaults:")
		fmt.Fprintf(out, "  Request Timeout:    %d ms\n", probe.TimeoutMs)
		fmt.Fprintf(out, "  DNS Timeout:        %d ms\n", probe.DNSTimeoutMs)
		fmt.Fprintf(out, "  Max Redirects:      %d\n", probe.MaxRedirects)
		fmt.Fprintf(out, "  Max Body Bytes:     %d\n", probe.MaxBodyBytes)
		fmt.Fprintf(out, "  User-Agent:         %s\n", probe.UserAgent)
		fmt.Fprintf(out, "  Verify TLS:         %t\n", probe.VerifyTLS)
		fmt.Fprintf(out, "  Allow Private:      %t\n", probe.AllowPrivate)
		if len(probe.NameServers) > 0 {
			fmt.Fprintf(out, "  Name Servers:       %s\n", strings.Join(probe.NameServers, ", "))
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Scoring:")
		fmt.Fprintf(out, "  Thresholds (ms):    %g / %g / %g / %g\n",
			sc.Thresholds.ExcellentMs, sc.Thresholds.GoodMs, sc.Thresholds.AcceptableMs, sc.Thresholds.SlowMs)
		fmt.Fprintf(out, "  Weights:            performance %g, security %g, reliability %g\n",
			sc.Weights.Performance, sc.Weights.Security, sc.Weights.Reliability)
		fmt.Fprintf(out, "  Security Headers:   %s\n", strings.Join(sc.SecurityHeaders, ", "))
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Server:")
		fmt.Fprintf(out, "  Listen Address:     %s\n", cfg.Serve.Addr)
		fmt.Fprintf(out, "  Rate Limit:         %d req/s (burst %d)\n", cfg.Serve.RateLimit, cfg.Serve.RateBurst)
		fmt.Fprintln(out)
		fmt.Fprintf(out, "To override settings, create %s or ~/%s, or set %s_* variables.\n",
			filepath.Join(dataDir, dataConfigName), homeConfigName, envPrefix)

		return nil
	},
}
