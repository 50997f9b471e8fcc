package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	consts "github.com/khanhnv2901/endpoint-analyzer/internal/shared/constants"
	"github.com/khanhnv2901/endpoint-analyzer/internal/shared/security"
)

const (
	appDirName    = "endpoint-analyzer"
	dataDirEnvVar = "EPA_DATA_DIR"

	homeConfigName = ".epa.yaml"
	dataConfigName = "config.yaml"
	logDirName     = "logs"
)

// getDataDir returns the appropriate data directory for the current OS
// following XDG Base Directory specification on Linux/Unix. EPA_DATA_DIR
// overrides the platform default.
func getDataDir() (string, error) {
	var baseDir string

	switch {
	case os.Getenv(dataDirEnvVar) != "":
		baseDir = os.Getenv(dataDirEnvVar)

	case runtime.GOOS == "windows":
		// Windows: %LOCALAPPDATA%\endpoint-analyzer
		baseDir = os.Getenv("LOCALAPPDATA")
		if baseDir == "" {
			baseDir = os.Getenv("APPDATA")
		}
		if baseDir == "" {
			return "", fmt.Errorf("could not determine Windows data directory")
		}
		baseDir = filepath.Join(baseDir, appDirName)

	case runtime.GOOS == "darwin":
		// macOS: ~/Library/Application Support/endpoint-analyzer
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, "Library", "Application Support", appDirName)

	default:
		// Priority: $XDG_DATA_HOME/endpoint-analyzer > ~/.local/share/endpoint-analyzer
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			baseDir = filepath.Join(xdgDataHome, appDirName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("could not determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".local", "share", appDirName)
		}
	}

	if err := os.MkdirAll(baseDir, consts.DefaultDirPerm); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	return baseDir, nil
}

// configFileCandidates lists the default config locations in lookup order.
func configFileCandidates(dataDir string) []string {
	var candidates []string
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		candidates = append(candidates, filepath.Join(home, homeConfigName))
	}
	if dataDir != "" {
		candidates = append(candidates, filepath.Join(dataDir, dataConfigName))
	}
	return candidates
}

// findConfigFile returns the first existing default config file, or "".
func findConfigFile(dataDir string) string {
	for _, candidate := range configFileCandidates(dataDir) {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// resolveLogFile places relative log file names under <data-dir>/logs.
func resolveLogFile(dataDir, name string) (string, error) {
	if name == "" {
		return "", nil
	}
	return security.DataFile(filepath.Join(dataDir, logDirName), name)
}
