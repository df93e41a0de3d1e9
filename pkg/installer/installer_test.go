package installer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windowsadmins/appbundle/pkg/config"
)

type fakeLaunch struct {
	code int
	err  error
	path string
	args string
}

func (f *fakeLaunch) launch(_ context.Context, path, args string) (int, error) {
	f.path, f.args = path, args
	return f.code, f.err
}

func artifact(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "AppBundle_test_setup.exe")
	require.NoError(t, os.WriteFile(p, []byte("MZ"), 0644))
	return p
}

func TestExitCodeClassification(t *testing.T) {
	for _, code := range []int{0, 1641, 3010} {
		assert.True(t, IsSuccessExitCode(code), code)
	}
	for _, code := range []int{1, 2, 1602, 1603, -1} {
		assert.False(t, IsSuccessExitCode(code), code)
	}
	assert.False(t, RebootRequired(0))
	assert.True(t, RebootRequired(1641))
	assert.True(t, RebootRequired(3010))
}

func TestRunSuccessCodes(t *testing.T) {
	for _, code := range []int{0, 1641, 3010} {
		f := &fakeLaunch{code: code}
		r := NewWithLauncher(config.GetDefaultConfig(), f.launch)
		path := artifact(t)

		got, err := r.Run(context.Background(), path, "/silent /install")
		require.NoError(t, err)
		assert.Equal(t, code, got)
		assert.Equal(t, "/silent /install", f.args)
		assert.NoFileExists(t, path)
	}
}

func TestRunFailureCode(t *testing.T) {
	f := &fakeLaunch{code: 1603}
	r := NewWithLauncher(config.GetDefaultConfig(), f.launch)
	path := artifact(t)

	code, err := r.Run(context.Background(), path, "")
	require.Error(t, err)
	assert.Equal(t, 1603, code)

	var ee *ExecutionError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, 1603, ee.ExitCode)
	assert.Contains(t, err.Error(), "1603")
	assert.NoFileExists(t, path)
}

func TestRunStartFailure(t *testing.T) {
	f := &fakeLaunch{err: errors.New("The operation was canceled by the user.")}
	r := NewWithLauncher(config.GetDefaultConfig(), f.launch)
	path := artifact(t)

	_, err := r.Run(context.Background(), path, "")
	var ee *ExecutionError
	require.True(t, errors.As(err, &ee))
	assert.Error(t, ee.Err)
	assert.NoFileExists(t, path)
}

func TestRunDefaultArgs(t *testing.T) {
	f := &fakeLaunch{}
	_, err := NewWithLauncher(config.GetDefaultConfig(), f.launch).Run(context.Background(), artifact(t), "  ")
	require.NoError(t, err)
	assert.Equal(t, "/S", f.args)

	cfg := config.GetDefaultConfig()
	cfg.DefaultInstallArgs = "/quiet"
	_, err = NewWithLauncher(cfg, f.launch).Run(context.Background(), artifact(t), "")
	require.NoError(t, err)
	assert.Equal(t, "/quiet", f.args)
}

func TestRunAppliesTimeout(t *testing.T) {
	cfg := config.GetDefaultConfig()
	r := NewWithLauncher(cfg, func(ctx context.Context, _, _ string) (int, error) {
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(cfg.InstallerTimeout()), deadline, time.Minute)
		return 0, nil
	})
	_, err := r.Run(context.Background(), artifact(t), "")
	assert.NoError(t, err)
}

func TestRemoveArtifactMissingFile(t *testing.T) {
	assert.NotPanics(t, func() {
		RemoveArtifact(filepath.Join(t.TempDir(), "gone.exe"))
		RemoveArtifact("")
	})
}
