package monitor

import (
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// ProcessInfo is the subset of a process the matcher looks at
type ProcessInfo struct {
	PID     int32
	Name    string
	Exe     string
	Cmdline string
}

// ProcessChecker reports whether a local process matching a substring is
// running. Name, executable path and command line are all considered.
type ProcessChecker struct {
	match string
	list  func() ([]ProcessInfo, error)
}

// NewProcessChecker matches processes case-insensitively against match
func NewProcessChecker(match string) *ProcessChecker {
	return &ProcessChecker{
		match: strings.ToLower(match),
		list:  listProcesses,
	}
}

// IsAppRunning scans the process table once
func (pc *ProcessChecker) IsAppRunning() (bool, error) {
	_, ok, err := pc.Find()
	return ok, err
}

// Find returns the first matching process
func (pc *ProcessChecker) Find() (ProcessInfo, bool, error) {
	if pc.match == "" {
		return ProcessInfo{}, true, nil
	}

	procs, err := pc.list()
	if err != nil {
		return ProcessInfo{}, false, fmt.Errorf("failed to list processes: %w", err)
	}

	for _, p := range procs {
		if pc.matches(p) {
			return p, true, nil
		}
	}
	return ProcessInfo{}, false, nil
}

func (pc *ProcessChecker) matches(p ProcessInfo) bool {
	for _, field := range []string{p.Name, p.Exe, p.Cmdline} {
		if field != "" && strings.Contains(strings.ToLower(field), pc.match) {
			return true
		}
	}
	return false
}

func listProcesses() ([]ProcessInfo, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}

	infos := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		// Processes can exit or deny access between listing and reading
		info := ProcessInfo{PID: p.Pid}
		info.Name, _ = p.Name()
		info.Exe, _ = p.Exe()
		info.Cmdline, _ = p.Cmdline()
		infos = append(infos, info)
	}
	return infos, nil
}
