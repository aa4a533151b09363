package adb

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// FindADB attempts to locate the ADB executable
func FindADB(preferredPath string) (string, error) {
	// Try preferred path first; it may be the binary or its directory
	if preferredPath != "" {
		candidates := []string{preferredPath, filepath.Join(preferredPath, adbBinary())}
		for _, candidate := range candidates {
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}
	}

	if path, err := exec.LookPath(adbBinary()); err == nil {
		return path, nil
	}

	home, _ := os.UserHomeDir()
	commonPaths := []string{
		"/usr/bin/adb",
		"/usr/local/bin/adb",
		"/opt/homebrew/bin/adb",
		filepath.Join(home, "Android", "Sdk", "platform-tools", "adb"),
		filepath.Join(home, "Library", "Android", "sdk", "platform-tools", "adb"),
	}
	if runtime.GOOS == "windows" {
		commonPaths = []string{
			`C:\Android\sdk\platform-tools\adb.exe`,
			filepath.Join(os.Getenv("LOCALAPPDATA"), "Android", "Sdk", "platform-tools", "adb.exe"),
			`C:\Program Files\BlueStacks_nxt\HD-Adb.exe`,
			`C:\Program Files\Netease\MuMuPlayer-12.0\shell\adb.exe`,
		}
	}

	for _, path := range commonPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("adb not found, please specify path in config")
}

func adbBinary() string {
	if runtime.GOOS == "windows" {
		return "adb.exe"
	}
	return "adb"
}

// parseDevices returns the serials `adb devices` lists in the "device"
// state, skipping offline and unauthorized entries
func parseDevices(output string) []string {
	var serials []string
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] == "List" {
			continue
		}
		if fields[1] == "device" {
			serials = append(serials, fields[0])
		}
	}
	return serials
}

// ConnectADB finds adb, picks the device and connects. An empty serial
// selects the first attached device.
func ConnectADB(adbPath, serial, pkg string) (*Controller, error) {
	path, err := FindADB(adbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to find ADB: %w", err)
	}

	ctrl := NewController(path, serial, pkg)

	if serial == "" {
		ctx, cancel := context.WithTimeout(context.Background(), ctrl.timeout)
		output, err := ctrl.run(ctx, "devices")
		cancel()
		if err != nil {
			return nil, fmt.Errorf("failed to list devices: %w", err)
		}
		serials := parseDevices(string(output))
		if len(serials) == 0 {
			return nil, fmt.Errorf("no adb device attached")
		}
		ctrl.serial = serials[0]
	}

	if err := ctrl.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to device: %w", err)
	}

	return ctrl, nil
}
