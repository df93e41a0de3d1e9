// pkg/installer/installer.go - runs downloaded installers elevated and cleans up after them

package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/windowsadmins/appbundle/pkg/config"
	"github.com/windowsadmins/appbundle/pkg/logging"
)

// Exit codes Windows installers use to report success.
const (
	ExitSuccess             = 0
	ExitSuccessRebootInit   = 1641
	ExitSuccessRebootNeeded = 3010
)

// IsSuccessExitCode reports whether code means the install worked.
func IsSuccessExitCode(code int) bool {
	switch code {
	case ExitSuccess, ExitSuccessRebootInit, ExitSuccessRebootNeeded:
		return true
	}
	return false
}

// RebootRequired reports whether a successful exit code asks for a restart.
func RebootRequired(code int) bool {
	return code == ExitSuccessRebootInit || code == ExitSuccessRebootNeeded
}

// ExecutionError reports an installer that could not start (Err set) or
// exited with a failure code.
type ExecutionError struct {
	Path     string
	ExitCode int
	Err      error
}

func (e *ExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("installer %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("installer %s exited with code %d", e.Path, e.ExitCode)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Launcher starts path with args, waits for it and returns its exit code.
// A non-nil error means the process could not be started or was stopped
// before it exited.
type Launcher func(ctx context.Context, path, args string) (int, error)

// Runner launches installers.
type Runner struct {
	launch      Launcher
	defaultArgs string
	timeout     time.Duration
}

// New returns a Runner using the platform launcher.
func New(cfg *config.Configuration) *Runner {
	return NewWithLauncher(cfg, Launch)
}

// NewWithLauncher returns a Runner that starts processes through launch.
func NewWithLauncher(cfg *config.Configuration, launch Launcher) *Runner {
	if cfg == nil {
		cfg = config.GetDefaultConfig()
	}
	args := cfg.DefaultInstallArgs
	if strings.TrimSpace(args) == "" {
		args = config.DefaultInstallArgs
	}
	return &Runner{
		launch:      launch,
		defaultArgs: args,
		timeout:     cfg.InstallerTimeout(),
	}
}

// Run executes the installer at artifactPath and removes the file
// afterwards, whatever the outcome. Empty args use the configured default.
func (r *Runner) Run(ctx context.Context, artifactPath, args string) (int, error) {
	defer RemoveArtifact(artifactPath)

	if strings.TrimSpace(args) == "" {
		args = r.defaultArgs
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	logging.Info("Launching installer", "path", artifactPath, "args", args)
	start := time.Now()
	code, err := r.launch(ctx, artifactPath, args)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", r.timeout, err)
		}
		logging.Error("Installer did not complete", "path", artifactPath, "error", err)
		return -1, &ExecutionError{Path: artifactPath, ExitCode: -1, Err: err}
	}

	logging.Info("Installer exited", "path", artifactPath, "exit_code", code, "duration", time.Since(start).Round(time.Second))
	if !IsSuccessExitCode(code) {
		return code, &ExecutionError{Path: artifactPath, ExitCode: code}
	}
	return code, nil
}

// RemoveArtifact deletes a downloaded installer. Failures are logged and
// ignored.
func RemoveArtifact(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logging.Debug("Failed to remove installer artifact", "path", path, "error", err)
	}
}
