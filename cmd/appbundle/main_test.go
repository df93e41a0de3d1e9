package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/windowsadmins/appbundle/pkg/config"
)

func TestApplyVerbosity(t *testing.T) {
	cases := []struct {
		configured string
		verbosity  int
		want       string
		verbose    bool
		debug      bool
	}{
		{"ERROR", 0, "ERROR", false, false},
		{"ERROR", 1, "WARN", true, false},
		{"ERROR", 2, "INFO", true, false},
		{"ERROR", 3, "DEBUG", true, true},
		{"DEBUG", 0, "DEBUG", false, false},
		{"INFO", 1, "INFO", true, false},
		{"WARN", 2, "INFO", true, false},
	}
	for _, tc := range cases {
		cfg := config.GetDefaultConfig()
		cfg.LogLevel = tc.configured

		applyVerbosity(cfg, tc.verbosity)
		assert.Equal(t, tc.want, cfg.LogLevel, "%s -v%d", tc.configured, tc.verbosity)
		assert.Equal(t, tc.verbose, cfg.Verbose, "%s -v%d", tc.configured, tc.verbosity)
		assert.Equal(t, tc.debug, cfg.Debug, "%s -v%d", tc.configured, tc.verbosity)
	}
}
