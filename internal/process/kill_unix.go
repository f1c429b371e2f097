//go:build !windows

package process

import "syscall"

// KillProcessGroup sends SIGKILL to the process group led by pid so that
// Chrome's renderer and GPU helpers exit with the browser.
// Non-positive pids are ignored: -0 would target our own group.
func KillProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	// Best-effort; launcher.Kill() already ran.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
