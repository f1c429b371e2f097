package main

import (
	"fmt"
	"io"
)

// printUsage prints the usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdpreview [file.md] [flags]")
	fmt.Fprintln(w, "       mdpreview doctor [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Preview a Markdown file in the browser, updating on every save.")
	fmt.Fprintln(w, "Without a file, opens an in-browser editor.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server:")
	fmt.Fprintln(w, "      --host <s>        Interface to listen on (default localhost)")
	fmt.Fprintln(w, "  -p, --port <n>        Port to listen on (default 3000)")
	fmt.Fprintln(w, "      --no-open         Do not open a browser")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Watching:")
	fmt.Fprintln(w, "      --poll            Poll the file instead of using OS notifications")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "General:")
	fmt.Fprintln(w, "  -c, --config <name>   Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet           Only show errors")
	fmt.Fprintln(w, "  -v, --verbose         Show debug logs")
	fmt.Fprintln(w, "      --version         Print version")
	fmt.Fprintln(w, "  -h, --help            Show this help")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  MDPREVIEW_CONFIG, MDPREVIEW_HOST, MDPREVIEW_PORT, MDPREVIEW_POLL,")
	fmt.Fprintln(w, "  MDPREVIEW_EXPORT_TIMEOUT, MDPREVIEW_SETTLE_DELAY, MDPREVIEW_LOG_FORMAT")
	fmt.Fprintln(w, "  ROD_BROWSER_BIN, ROD_NO_SANDBOX (PDF export)")
}
