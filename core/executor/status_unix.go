//go:build !windows

package executor

import (
	"os"
	"syscall"
)

// signalStatus reports 128+N for a process terminated by signal N.
func signalStatus(ps *os.ProcessState) (int, bool) {
	ws, ok := ps.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return 0, false
	}
	return StatusSignalBase + int(ws.Signal()), true
}
