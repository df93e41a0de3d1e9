//go:build windows

package utils

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatchWindowsArgsRebuildsArgs(t *testing.T) {
	saved := os.Args
	defer func() { os.Args = saved }()

	os.Args = []string{"stale"}
	PatchWindowsArgs()

	require.NotEmpty(t, os.Args)
	assert.NotEqual(t, []string{"stale"}, os.Args)
}
