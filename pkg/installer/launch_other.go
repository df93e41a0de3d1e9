//go:build !windows

package installer

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/kballard/go-shellquote"
)

// Launch runs the installer directly. There is no elevation prompt off
// Windows; the process inherits the caller's privileges.
func Launch(ctx context.Context, path, args string) (int, error) {
	argv, err := shellquote.Split(args)
	if err != nil {
		return 0, fmt.Errorf("parsing installer arguments %q: %w", args, err)
	}

	cmd := exec.CommandContext(ctx, path, argv...)
	err = cmd.Run()
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 0, err
}
