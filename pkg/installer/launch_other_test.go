//go:build !windows

package installer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func script(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "setup.sh")
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return p
}

func TestLaunchReportsExitCode(t *testing.T) {
	// POSIX exit statuses are 8 bits wide, so 1641/3010 cannot round-trip here.
	code, err := Launch(context.Background(), script(t, `[ "$1" = "/S" ] && [ "$2" = "two words" ] && exit 42; exit 1`), `/S "two words"`)
	require.NoError(t, err)
	assert.Equal(t, 42, code)
}

func TestLaunchMissingBinary(t *testing.T) {
	_, err := Launch(context.Background(), filepath.Join(t.TempDir(), "nope"), "")
	assert.Error(t, err)
}

func TestLaunchBadArgs(t *testing.T) {
	_, err := Launch(context.Background(), script(t, "exit 0"), `"unterminated`)
	assert.Error(t, err)
}

func TestLaunchCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := Launch(ctx, script(t, "sleep 5"), "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
