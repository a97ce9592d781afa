// Package service manages the watchpostd systemd service unit.
package service

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const unitName = "watchpostd.service"

// UnitDir is where the unit file is installed.
var UnitDir = "/etc/systemd/system"

// UnitContents returns the systemd unit file contents for the given
// binary and config paths. Type=notify matches the agent's sd_notify
// readiness signal.
func UnitContents(binaryPath, configPath string) string {
	return fmt.Sprintf(`[Unit]
Description=Watchpost agent — host metrics and log forwarding
Documentation=https://github.com/modoterra/watchpost
After=network-online.target

[Service]
Type=notify
ExecStart=%s --config %s
Restart=on-failure
RestartSec=5

[Install]
WantedBy=multi-user.target
`, binaryPath, configPath)
}

// UnitPath returns the path of the installed unit file.
func UnitPath() string {
	return filepath.Join(UnitDir, unitName)
}

// Install writes the unit file, reloads systemd, and enables+starts
// the service.
func Install(configPath string) error {
	binaryPath, err := exec.LookPath("watchpostd")
	if err != nil {
		return fmt.Errorf("watchpostd not found in PATH: %w", err)
	}
	binaryPath, err = filepath.Abs(binaryPath)
	if err != nil {
		return fmt.Errorf("cannot resolve watchpostd path: %w", err)
	}

	contents := UnitContents(binaryPath, configPath)
	if err := os.WriteFile(UnitPath(), []byte(contents), 0o644); err != nil {
		return fmt.Errorf("cannot write unit file: %w", err)
	}

	if err := systemctl("daemon-reload"); err != nil {
		return err
	}
	return systemctl("enable", "--now", unitName)
}

// Uninstall stops+disables the service, removes the unit file, and
// reloads systemd.
func Uninstall() error {
	// Best-effort stop and disable; ignore errors if not running.
	_ = systemctl("stop", unitName)
	_ = systemctl("disable", unitName)

	if err := os.Remove(UnitPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cannot remove unit file: %w", err)
	}

	return systemctl("daemon-reload")
}

func systemctl(args ...string) error {
	cmd := exec.Command("systemctl", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("systemctl %s: %w", strings.Join(args, " "), err)
	}
	return nil
}
