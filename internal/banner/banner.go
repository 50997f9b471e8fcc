package banner

import (
	"fmt"
	"io"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
)

const title = "EPA"

// Render returns the ASCII-art title.
func Render() string {
	return figure.NewFigure(title, "doom", true).String()
}

// Print writes the startup banner for the API server.
func Print(w io.Writer, service, version, addr string) {
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)

	_, _ = cyan.Fprint(w, Render())
	_, _ = cyan.Fprintln(w, "════════════════════════════════════════════════")
	_, _ = green.Fprintf(w, "    %s %s | listening on %s\n", service, version, addr)
	_, _ = cyan.Fprintln(w, "════════════════════════════════════════════════")
	_, _ = fmt.Fprintln(w)
}
