//go:build windows

package runner

import (
	"os/exec"

	"github.com/shirou/gopsutil/v4/process"
)

func shellCommand(command string) *exec.Cmd {
	return exec.Command("cmd", "/C", command)
}

// terminateGroup walks the process tree bottom-up so shells started via
// "cmd /C" take their npm and node children down with them.
func terminateGroup(pid int) error {
	return signalTree(pid, func(p *process.Process) error { return p.Terminate() })
}

func killGroup(pid int) error {
	return signalTree(pid, func(p *process.Process) error { return p.Kill() })
}

func signalTree(pid int, signal func(*process.Process) error) error {
	root, err := process.NewProcess(int32(pid))
	if err != nil {
		return err
	}
	if children, err := root.Children(); err == nil {
		for _, child := range children {
			_ = signalTree(int(child.Pid), signal)
		}
	}
	return signal(root)
}
