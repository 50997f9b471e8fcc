package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func useTempDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(dataDirEnvVar, dir)
	return dir
}

func disableColor(t *testing.T) {
	t.Helper()
	original := color.NoColor
	color.NoColor = true
	t.Cleanup(func() {
		color.NoColor = original
	})
}

func runInfo(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	infoCmd.SetOut(&buf)
	infoCmd.SetErr(&buf)
	t.Cleanup(func() {
		infoCmd.SetOut(nil)
		infoCmd.SetErr(nil)
	})

	if err := infoCmd.RunE(infoCmd, []string{}); err != nil {
		t.Fatalf("info command failed: %v", err)
	}
	return buf.String()
}

func TestInfoCommand(t *testing.T) {
	disableColor(t)
	useTempDataDir(t)
	defer setupTestAppContext(t)()

	output := runInfo(t)

	expectedSections := []string{
		"Endpoint Analyzer System Information",
		"Platform:",
		"Data Locations:",
		"Data Directory:",
		"Log Directory:",
		"Configuration File:",
		"Probe Defaults:",
		"Scoring:",
		"Server:",
	}
	for _, section := range expectedSections {
		if !strings.Contains(output, section) {
			t.Errorf("Expected output to contain '%s', got:\n%s", section, output)
		}
	}

	expectedPlatform := runtime.GOOS + "/" + runtime.GOARCH
	if !strings.Contains(output, expectedPlatform) {
		t.Errorf("Expected platform '%s' in output, got:\n%s", expectedPlatform, output)
	}
}

func TestInfoCommand_ShowsDataDirectory(t *testing.T) {
	disableColor(t)
	useTempDataDir(t)
	defer setupTestAppContext(t)()

	output := runInfo(t)

	dataDir := globalAppContext.DataDir
	if !strings.Contains(output, dataDir) {
		t.Errorf("Expected data directory %s in output, got:\n%s", dataDir, output)
	}
	logDir := filepath.Join(dataDir, logDirName)
	if !strings.Contains(output, logDir+" ✗ (not created yet)") {
		t.Errorf("Expected missing log directory marker, got:\n%s", output)
	}
}

func TestInfoCommand_ShowsFileExistence(t *testing.T) {
	disableColor(t)
	useTempDataDir(t)
	t.Setenv("HOME", t.TempDir())
	defer setupTestAppContext(t)()

	output := runInfo(t)
	if !strings.Contains(output, "✗ (using defaults)") {
		t.Errorf("Expected defaults marker without a config file, got:\n%s", output)
	}

	dataDir := globalAppContext.DataDir
	if err := os.MkdirAll(filepath.Join(dataDir, logDirName), 0o755); err != nil {
		t.Fatalf("mkdir logs: %v", err)
	}
	configPath := filepath.Join(dataDir, dataConfigName)
	if err := os.WriteFile(configPath, []byte("analyze: {}\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	output = runInfo(t)
	if !strings.Contains(output, configPath+" ✓ (exists)") {
		t.Errorf("Expected config file marker, got:\n%s", output)
	}
	if strings.Contains(output, "not created yet") {
		t.Errorf("Expected log directory to be reported as existing, got:\n%s", output)
	}
}

func TestInfoCommand_ShowsEffectiveSettings(t *testing.T) {
	disableColor(t)
	useTempDataDir(t)
	defer setupTestAppContext(t)()

	cfg := globalAppContext.Config
	cfg.Analyze.TimeoutMs = 1234
	cfg.Analyze.NameServers = []string{"1.1.1.1:53", "8.8.8.8:53"}
	cfg.Scoring.SecurityHeaders = []string{"strict-transport-security"}
	cfg.Serve.Addr = ":8080"

	output := runInfo(t)

	for _, want := range []string{
		"Request Timeout:    1234 ms",
		"Name Servers:       1.1.1.1:53, 8.8.8.8:53",
		"Security Headers:   strict-transport-security",
		"Thresholds (ms):    200 / 500 / 1000 / 3000",
		"Listen Address:     :8080",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in output, got:\n%s", want, output)
		}
	}
}

func TestInfoCommand_ShowsOverrideInstructions(t *testing.T) {
	disableColor(t)
	useTempDataDir(t)
	defer setupTestAppContext(t)()

	output := runInfo(t)
	if !strings.Contains(output, "EPA_* variables") {
		t.Errorf("Expected env override hint, got:\n%s", output)
	}
	if !strings.Contains(output, homeConfigName) {
		t.Errorf("Expected home config name in output, got:\n%s", output)
	}
}
