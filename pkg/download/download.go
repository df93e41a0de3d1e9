// pkg/download/download.go - streams installers to uniquely named temp files

package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/windowsadmins/appbundle/pkg/config"
	"github.com/windowsadmins/appbundle/pkg/logging"
	"github.com/windowsadmins/appbundle/pkg/progress"
	"github.com/windowsadmins/appbundle/pkg/utils"
)

// TempPrefix starts every artifact file name.
const TempPrefix = "AppBundle_"

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// TransferError reports a failed download. StatusCode is set for non-2xx
// responses, Err for transport and stream failures.
type TransferError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransferError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download %s: unexpected HTTP status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// Retryable is true for transport failures only. HTTP status errors and
// cancellation are final.
func (e *TransferError) Retryable() bool {
	if e.StatusCode != 0 || e.Err == nil {
		return false
	}
	if errors.Is(e.Err, context.Canceled) || errors.Is(e.Err, ErrInsufficientSpace) {
		return false
	}
	return true
}

// ErrInsufficientSpace is wrapped when the target volume cannot hold the file.
var ErrInsufficientSpace = errors.New("insufficient disk space")

// FreeSpaceFunc reports free bytes on the volume holding dir.
type FreeSpaceFunc func(dir string) (uint64, error)

// Downloader fetches installers into the temp directory.
type Downloader struct {
	client    *http.Client
	userAgent string
	tempDir   string
	reporter  utils.Reporter
	freeSpace FreeSpaceFunc
}

// New builds a Downloader from configuration.
func New(cfg *config.Configuration, reporter utils.Reporter) *Downloader {
	if cfg == nil {
		cfg = config.GetDefaultConfig()
	}
	if reporter == nil {
		reporter = utils.NewNoOpReporter()
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = config.DefaultUserAgent
	}
	return &Downloader{
		client:    &http.Client{Timeout: cfg.DownloadTimeout()},
		userAgent: ua,
		tempDir:   cfg.TempDir(),
		reporter:  reporter,
		freeSpace: volumeFree,
	}
}

// SetFreeSpaceFunc overrides the free space probe.
func (d *Downloader) SetFreeSpaceFunc(fn FreeSpaceFunc) {
	d.freeSpace = fn
}

func volumeFree(dir string) (uint64, error) {
	usage, err := disk.Usage(dir)
	if err != nil {
		return 0, err
	}
	return usage.Free, nil
}

// TempFileName returns AppBundle_<uuid>_<base> for a download URL.
func TempFileName(rawURL string) string {
	return TempPrefix + uuid.NewString() + "_" + baseName(rawURL)
}

func baseName(rawURL string) string {
	var p string
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	} else {
		p = rawURL
	}
	base := path.Base(p)
	if base == "." || base == "/" {
		base = ""
	}
	base = unsafeChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, ".")
	if base == "" {
		return "download"
	}
	return base
}

// Download fetches rawURL and returns the path of the written file. Partial
// files are removed on error.
func (d *Downloader) Download(ctx context.Context, rawURL string) (string, error) {
	if err := os.MkdirAll(d.tempDir, 0755); err != nil {
		return "", &TransferError{URL: rawURL, Err: fmt.Errorf("creating temp dir: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &TransferError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", d.userAgent)

	logging.Info("Starting download", "url", rawURL)
	resp, err := d.client.Do(req)
	if err != nil {
		return "", &TransferError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &TransferError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	if resp.ContentLength > 0 && d.freeSpace != nil {
		free, err := d.freeSpace(d.tempDir)
		if err != nil {
			logging.Debug("Free space check failed", "dir", d.tempDir, "error", err)
		} else if free < uint64(resp.ContentLength) {
			return "", &TransferError{URL: rawURL, Err: fmt.Errorf("%w: need %s, have %s",
				ErrInsufficientSpace, humanize.Bytes(uint64(resp.ContentLength)), humanize.Bytes(free))}
		}
	}

	// Name the file after the redirect target so it keeps the installer's
	// extension (download.aspx -> OfficeSetup.exe).
	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	dest := filepath.Join(d.tempDir, TempFileName(finalURL))
	logging.Debug("Resolved download destination", "url", finalURL, "destination", dest)

	out, err := os.Create(dest)
	if err != nil {
		return "", &TransferError{URL: rawURL, Err: fmt.Errorf("creating %s: %w", dest, err)}
	}

	body := progress.NewReader(resp.Body, resp.ContentLength, baseName(finalURL), d.reporter)
	_, copyErr := io.Copy(out, body)
	closeErr := out.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		if rmErr := os.Remove(dest); rmErr != nil && !os.IsNotExist(rmErr) {
			logging.Debug("Failed to remove partial download", "file", dest, "error", rmErr)
		}
		return "", &TransferError{URL: rawURL, Err: copyErr}
	}

	logging.Info("Download completed successfully", "file", dest, "size", humanize.Bytes(uint64(body.BytesRead())))
	return dest, nil
}
