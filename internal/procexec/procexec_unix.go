//go:build !windows

package procexec

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setNewProcessGroup starts cmd as the leader of its own process group
// so the whole subtree can be killed at once on timeout.
func setNewProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// killProcessGroup sends SIGKILL to the negative pid, i.e. the whole
// process group rooted at cmd's process.
func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	_ = cmd.Process.Kill()
}
