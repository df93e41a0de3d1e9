package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoDownload is reported when resolution produced nothing to fetch.
var ErrNoDownload = errors.New("no download available")

// IntegrityError reports a downloaded file whose SHA-256 does not match the
// published digest, or a download that had no digest while unverified
// installs are disallowed (Expected empty).
type IntegrityError struct {
	URL      string
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	if e.Expected == "" {
		return fmt.Sprintf("integrity check failed for %s: no digest published and unverified installs are disabled", e.URL)
	}
	return fmt.Sprintf("integrity check failed for %s: expected sha256 %s, got %s", e.URL, e.Expected, e.Actual)
}

// BlockingError reports applications that must be closed before installing.
type BlockingError struct {
	Apps []string
}

func (e *BlockingError) Error() string {
	return "blocking applications are running: " + strings.Join(e.Apps, ", ")
}
