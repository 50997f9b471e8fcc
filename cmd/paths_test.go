package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/khanhnv2901/endpoint-analyzer/internal/shared/security"
)

func TestGetDataDir(t *testing.T) {
	t.Setenv(dataDirEnvVar, "")
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	dataDir, err := getDataDir()
	if err != nil {
		t.Fatalf("getDataDir() failed: %v", err)
	}

	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		t.Errorf("Data directory was not created: %s", dataDir)
	}
	if !strings.Contains(dataDir, appDirName) {
		t.Errorf("Expected data directory to contain %q, got: %s", appDirName, dataDir)
	}

	switch runtime.GOOS {
	case "windows", "darwin":
	default:
		expected := filepath.Join(os.Getenv("XDG_DATA_HOME"), appDirName)
		if dataDir != expected {
			t.Errorf("Linux: expected %s, got: %s", expected, dataDir)
		}
	}
}

func TestGetDataDir_EnvOverride(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	t.Setenv(dataDirEnvVar, dir)

	got, err := getDataDir()
	if err != nil {
		t.Fatalf("getDataDir() failed: %v", err)
	}
	if got != dir {
		t.Fatalf("expected %s, got %s", dir, got)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected override directory to be created")
	}
}

func TestFindConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	dataDir := t.TempDir()

	if got := findConfigFile(dataDir); got != "" {
		t.Fatalf("expected no config file, got %s", got)
	}

	dataConfig := filepath.Join(dataDir, dataConfigName)
	if err := os.WriteFile(dataConfig, []byte("analyze: {}\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if got := findConfigFile(dataDir); got != dataConfig {
		t.Fatalf("expected %s, got %s", dataConfig, got)
	}

	homeConfig := filepath.Join(home, homeConfigName)
	if err := os.WriteFile(homeConfig, []byte("analyze: {}\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if got := findConfigFile(dataDir); got != homeConfig {
		t.Fatalf("expected home config to take precedence, got %s", got)
	}
}

func TestFindConfigFile_IgnoresDirectories(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dataDir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dataDir, dataConfigName), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if got := findConfigFile(dataDir); got != "" {
		t.Fatalf("expected directory to be skipped, got %s", got)
	}
}

func TestResolveLogFile(t *testing.T) {
	dataDir := t.TempDir()

	got, err := resolveLogFile(dataDir, "")
	if err != nil || got != "" {
		t.Fatalf("expected empty name to disable file logging, got %q, %v", got, err)
	}

	got, err = resolveLogFile(dataDir, "server.log")
	if err != nil {
		t.Fatalf("resolveLogFile failed: %v", err)
	}
	if want := filepath.Join(dataDir, logDirName, "server.log"); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}

	abs := filepath.Join(t.TempDir(), "elsewhere.log")
	got, err = resolveLogFile(dataDir, abs)
	if err != nil || got != abs {
		t.Errorf("expected absolute path to be kept, got %q, %v", got, err)
	}

	if _, err := resolveLogFile(dataDir, "../../escape.log"); !errors.Is(err, security.ErrPathEscape) {
		t.Errorf("expected ErrPathEscape, got %v", err)
	}
}
