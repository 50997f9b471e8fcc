package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/khanhnv2901/endpoint-analyzer/internal/logging"
)

var cfgFile string
var verbose bool

// AppContext carries the state every subcommand needs.
type AppContext struct {
	Logger     *zap.SugaredLogger
	Config     *CLIConfig
	DataDir    string
	ConfigFile string // empty when running on defaults

	closeLogger func()
}

type appContextKey struct{}

var globalAppContext *AppContext

var rootCmd = &cobra.Command{
	Use:           "epa",
	Short:         "Endpoint analyzer: probe HTTP(S) endpoints for reachability, TLS posture and response quality",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		appCtx, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		storeAppContext(cmd, appCtx)
		appCtx.Logger.Debugw("config_loaded",
			"config_file", appCtx.ConfigFile,
			"data_dir", appCtx.DataDir,
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if appCtx := getAppContext(cmd); appCtx.closeLogger != nil {
			appCtx.closeLogger()
		}
	},
}

// bootstrap reads configuration and builds the CLI logger.
func bootstrap(cmd *cobra.Command) (*AppContext, error) {
	dataDir, err := getDataDir()
	if err != nil {
		return nil, err
	}

	v := viper.GetViper()
	configureViper(v)

	configFile := cfgFile
	if configFile == "" {
		configFile = findConfigFile(dataDir)
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	cfg, err := loadCLIConfig(v)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	logger, closeLogger, err := logging.New(logging.Config{
		Level:  level,
		Format: "console",
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return &AppContext{
		Logger:      logger.Sugar(),
		Config:      cfg,
		DataDir:     dataDir,
		ConfigFile:  configFile,
		closeLogger: closeLogger,
	}, nil
}

func storeAppContext(cmd *cobra.Command, appCtx *AppContext) {
	globalAppContext = appCtx
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, appContextKey{}, appCtx))
}

// getAppContext returns the context stored by the root pre-run, falling back
// to defaults when a command runs without it (e.g. invoked directly).
func getAppContext(cmd *cobra.Command) *AppContext {
	if cmd != nil && cmd.Context() != nil {
		if appCtx, ok := cmd.Context().Value(appContextKey{}).(*AppContext); ok {
			return appCtx
		}
	}
	if globalAppContext != nil {
		return globalAppContext
	}
	return &AppContext{
		Logger: zap.NewNop().Sugar(),
		Config: newCLIConfig(),
	}
}

// Execute runs the root command and exits non-zero on failure: 2 when an
// analysis scored below --fail-under, 1 otherwise.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, colorError("Error:"), err)
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.epa.yaml or <data-dir>/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "enable debug logging on stderr")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(versionCmd)
}
