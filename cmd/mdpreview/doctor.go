package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/launcher"

	"github.com/alnah/go-mdpreview/internal/config"
	"github.com/alnah/go-mdpreview/internal/fileutil"
	"github.com/alnah/go-mdpreview/internal/hints"
)

// Check outcomes.
const (
	checkOK    = "ok"
	checkWarn  = "warn"
	checkError = "error"
)

// Overall doctor status.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// chromeVersionTimeout bounds "chrome --version".
const chromeVersionTimeout = 5 * time.Second

// check is one diagnostic line.
type check struct {
	Section string `json:"section"`
	Name    string `json:"name"`
	Status  string `json:"status"`
	Detail  string `json:"detail,omitempty"`
}

// doctorReport is the full diagnostic, also printed with --json.
type doctorReport struct {
	Status   string  `json:"status"`
	Platform string  `json:"platform"`
	Checks   []check `json:"checks"`
}

// probe gathers facts about the host. Fields are replaced in tests.
type probe struct {
	host          hints.Host
	lookChrome    func() (string, bool)
	exists        func(string) bool
	chromeVersion func(path string) (string, error)
	writeTemp     func() error
	listen        func(addr string) error
	addr          string
}

func systemProbe() *probe {
	return &probe{
		host:          hints.CurrentHost(),
		lookChrome:    launcher.LookPath,
		exists:        fileutil.FileExists,
		chromeVersion: chromeVersion,
		writeTemp:     writeTemp,
		listen:        listenOnce,
		addr:          config.DefaultConfig().Server.Addr(),
	}
}

// runDoctorCmd checks that previews can be served and exported.
// Exit codes: 0 when ready (warnings included), 1 on errors.
func runDoctorCmd(args []string, env *Environment) int {
	return runDoctorWith(args, env, systemProbe())
}

func runDoctorWith(args []string, env *Environment, p *probe) int {
	asJSON := false
	for _, arg := range args {
		switch arg {
		case "--json":
			asJSON = true
		case "-h", "--help":
			printUsage(env.Stdout)
			return ExitSuccess
		default:
			fmt.Fprintf(env.Stderr, "error: unknown doctor argument %q\n", arg)
			return ExitUsage
		}
	}

	report := p.run()
	if asJSON {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(report)
	} else {
		printReport(env.Stdout, report)
	}

	if report.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

func (p *probe) run() *doctorReport {
	var checks []check
	checks = append(checks, p.checkBrowser()...)
	checks = append(checks, p.checkHost()...)
	checks = append(checks, p.checkSystem()...)

	r := &doctorReport{
		Status:   statusReady,
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
		Checks:   checks,
	}
	for _, c := range checks {
		switch c.Status {
		case checkError:
			r.Status = statusErrors
		case checkWarn:
			if r.Status == statusReady {
				r.Status = statusWarnings
			}
		}
	}
	return r
}

// checkBrowser locates Chrome. Without it only PDF export fails, so a
// missing browser is a warning.
func (p *probe) checkBrowser() []check {
	const section = "Browser"

	path := p.host.BrowserBin
	if path == "" {
		found, ok := p.lookChrome()
		if !ok {
			return []check{{section, "chrome", checkWarn, "not found; PDF export will fail. Install Chrome or set ROD_BROWSER_BIN"}}
		}
		path = found
	}
	if !p.exists(path) {
		return []check{{section, "chrome", checkWarn, "no binary at " + path + "; PDF export will fail"}}
	}

	checks := []check{{section, "chrome", checkOK, path}}
	if v, err := p.chromeVersion(path); err != nil {
		checks = append(checks, check{section, "version", checkWarn, err.Error()})
	} else {
		checks = append(checks, check{section, "version", checkOK, v})
	}

	sandbox := "enabled"
	if p.host.NoSandbox {
		sandbox = "disabled (ROD_NO_SANDBOX=1)"
	}
	return append(checks, check{section, "sandbox", checkOK, sandbox})
}

// checkHost reports container and CI detection.
func (p *probe) checkHost() []check {
	const section = "Environment"

	var checks []check
	if p.host.Container {
		checks = append(checks, check{section, "container", checkOK, "detected (" + p.host.Signal + ")"})
	}
	if p.host.CI {
		checks = append(checks, check{section, "ci", checkOK, "detected"})
	}
	if p.host.NeedsNoSandbox() {
		checks = append(checks, check{section, "sandbox", checkWarn, "container or CI without ROD_NO_SANDBOX=1; Chrome may not start"})
	}
	return checks
}

// checkSystem verifies the temp directory and the default listen address.
func (p *probe) checkSystem() []check {
	const section = "System"

	checks := make([]check, 0, 2)
	if err := p.writeTemp(); err != nil {
		checks = append(checks, check{section, "temp", checkError, "not writable: " + err.Error()})
	} else {
		checks = append(checks, check{section, "temp", checkOK, "writable"})
	}

	if err := p.listen(p.addr); err != nil {
		checks = append(checks, check{section, "address", checkWarn, p.addr + " in use; start with --port"})
	} else {
		checks = append(checks, check{section, "address", checkOK, p.addr + " available"})
	}
	return checks
}

func chromeVersion(path string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), chromeVersionTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, "--version").Output() // #nosec G204 -- path from rod lookup or ROD_BROWSER_BIN
	if err != nil {
		return "", fmt.Errorf("could not read version: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

func writeTemp() error {
	_, cleanup, err := fileutil.WriteTempFile("doctor", "html")
	if err != nil {
		return fmt.Errorf("%s: %w", os.TempDir(), err)
	}
	cleanup()
	return nil
}

func listenOnce(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return ln.Close()
}

var checkLabels = map[string]string{
	checkOK:    "[OK]   ",
	checkWarn:  "[WARN] ",
	checkError: "[ERROR]",
}

// printReport writes checks grouped by section, in order.
func printReport(w io.Writer, r *doctorReport) {
	fmt.Fprintf(w, "mdpreview doctor (%s)\n", r.Platform)

	section := ""
	for _, c := range r.Checks {
		if c.Section != section {
			section = c.Section
			fmt.Fprintf(w, "\n%s\n", section)
		}
		fmt.Fprintf(w, "  %s %s: %s\n", checkLabels[c.Status], c.Name, c.Detail)
	}
	fmt.Fprintln(w)

	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: ready to preview and export")
	case statusWarnings:
		fmt.Fprintln(w, "Status: ready with warnings")
	default:
		fmt.Fprintln(w, "Status: not ready (see errors above)")
	}
}
