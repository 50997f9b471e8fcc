package cmd

import (
	"bytes"
	"runtime"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	originalVerbose := verbose
	originalVersion := Version
	t.Cleanup(func() {
		verbose = originalVerbose
		Version = originalVersion
		versionCmd.SetOut(nil)
	})
	Version = "1.2.3"

	var buf bytes.Buffer
	versionCmd.SetOut(&buf)

	verbose = false
	versionCmd.Run(versionCmd, nil)
	if got := buf.String(); got != "epa version 1.2.3\n" {
		t.Fatalf("unexpected short version output %q", got)
	}

	buf.Reset()
	verbose = true
	versionCmd.Run(versionCmd, nil)
	out := buf.String()
	for _, want := range []string{"Endpoint Analyzer Version Information:", "Version:    1.2.3", runtime.Version(), runtime.GOOS + "/" + runtime.GOARCH} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in verbose output, got:\n%s", want, out)
		}
	}
}
