// Package hints suggests fixes for failures the user can act on.
// Every hint renders as "\n  hint: <text>" so it can be appended to an error.
package hints

import (
	"os"
	"strconv"
	"strings"

	"github.com/alnah/go-mdpreview/internal/fileutil"
)

// ciVars are set by common CI runners.
var ciVars = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}

// Host describes the parts of the environment that affect launching Chrome.
type Host struct {
	CI         bool
	Container  bool
	Signal     string // what revealed the container, empty otherwise
	NoSandbox  bool   // ROD_NO_SANDBOX=1
	BrowserBin string // ROD_BROWSER_BIN
}

// DetectHost inspects the environment through getenv and exists.
// MDPREVIEW_CONTAINER=1 forces container mode when autodetection misses it.
func DetectHost(getenv func(string) string, exists func(string) bool) Host {
	h := Host{
		NoSandbox:  getenv("ROD_NO_SANDBOX") == "1",
		BrowserBin: getenv("ROD_BROWSER_BIN"),
	}
	for _, v := range ciVars {
		if getenv(v) != "" {
			h.CI = true
			break
		}
	}

	switch {
	case getenv("MDPREVIEW_CONTAINER") == "1":
		h.Signal = "MDPREVIEW_CONTAINER=1"
	case exists("/.dockerenv"):
		h.Signal = "/.dockerenv"
	case getenv("container") != "":
		h.Signal = "container=" + getenv("container")
	case getenv("KUBERNETES_SERVICE_HOST") != "":
		h.Signal = "KUBERNETES_SERVICE_HOST"
	}
	h.Container = h.Signal != ""
	return h
}

// CurrentHost is DetectHost on the running process.
func CurrentHost() Host {
	return DetectHost(os.Getenv, fileutil.FileExists)
}

// NeedsNoSandbox reports whether Chrome will likely refuse to start with its
// sandbox on this host.
func (h Host) NeedsNoSandbox() bool {
	return (h.CI || h.Container) && !h.NoSandbox
}

// ForBrowserConnect suggests the rod variables that usually fix a browser
// that will not start.
func ForBrowserConnect(h Host) string {
	var parts []string
	if h.NeedsNoSandbox() {
		parts = append(parts, "set ROD_NO_SANDBOX=1 in containers and CI")
	}
	if h.BrowserBin == "" {
		parts = append(parts, "set ROD_BROWSER_BIN to pick a Chrome binary")
	}
	return format(strings.Join(parts, "; "))
}

// ForExportTimeout suggests raising the export timeout.
func ForExportTimeout() string {
	return format("for large documents, raise export.timeout or MDPREVIEW_EXPORT_TIMEOUT")
}

// ForConfigNotFound points at --config, or at the per-user file among the
// searched paths.
func ForConfigNotFound(searched []string) string {
	hint := "use --config /path/to/file.yaml"
	for _, p := range searched {
		if strings.Contains(p, ".config/mdpreview") {
			return format(hint + " or create " + p)
		}
	}
	return format(hint)
}

// ForPortInUse suggests the next port when binding fails.
func ForPortInUse(port int) string {
	return format("port " + strconv.Itoa(port) + " is busy; try --port " + strconv.Itoa(port+1) + " or --port 0")
}

// ForNotMarkdown explains which files can be previewed.
func ForNotMarkdown() string {
	return format("only .md and .markdown files can be previewed; run without a file for the editor")
}

// ForFileNotFound reminds how relative paths resolve.
func ForFileNotFound() string {
	return format("check the path; relative paths resolve from the current directory")
}

// ForStyleNotFound lists the valid highlight styles.
func ForStyleNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}
