// pkg/progress/progress.go - progress tracking for installer downloads

package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/windowsadmins/appbundle/pkg/logging"
	"github.com/windowsadmins/appbundle/pkg/utils"
)

// Reader wraps an io.Reader and reports throttled progress to a Reporter.
type Reader struct {
	reader         io.Reader
	total          int64 // <= 0 when unknown
	read           int64
	name           string
	reporter       utils.Reporter
	lastUpdate     time.Time
	updateInterval time.Duration
	now            func() time.Time

	nextMilestone int
	onMilestone   func(name string, pct int)
}

// milestoneStep is the percent interval at which download events are logged.
const milestoneStep = 25

// NewReader creates a progress tracking reader.
func NewReader(reader io.Reader, total int64, name string, reporter utils.Reporter) *Reader {
	if reporter == nil {
		reporter = utils.NewNoOpReporter()
	}
	return &Reader{
		reader:         reader,
		total:          total,
		name:           name,
		reporter:       reporter,
		updateInterval: 500 * time.Millisecond,
		now:            time.Now,
		nextMilestone:  milestoneStep,
		onMilestone:    logging.LogDownloadProgress,
	}
}

// Read implements io.Reader with progress tracking
func (pr *Reader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.read += int64(n)
		pr.update(false)
	}
	if err == io.EOF {
		pr.update(true)
	}
	return n, err
}

// BytesRead returns the number of bytes consumed so far.
func (pr *Reader) BytesRead() int64 {
	return pr.read
}

func (pr *Reader) update(final bool) {
	now := pr.now()
	if !final && now.Sub(pr.lastUpdate) < pr.updateInterval {
		return
	}
	pr.lastUpdate = now

	if pr.total > 0 {
		pct := int(pr.read * 100 / pr.total)
		if pct > 100 {
			pct = 100
		}
		pr.reporter.Percent(pct)
		pr.milestone(pct)
		pr.reporter.Detail(fmt.Sprintf("Downloading %s: %s / %s (%d%%)",
			pr.name, humanize.Bytes(uint64(pr.read)), humanize.Bytes(uint64(pr.total)), pct))
		return
	}

	pr.reporter.Percent(-1)
	pr.reporter.Detail(fmt.Sprintf("Downloading %s: %s", pr.name, humanize.Bytes(uint64(pr.read))))
}

// milestone emits one event per crossed 25% step.
func (pr *Reader) milestone(pct int) {
	if pr.nextMilestone > 100 || pct < pr.nextMilestone {
		return
	}
	pr.onMilestone(pr.name, pct)
	for pr.nextMilestone <= pct {
		pr.nextMilestone += milestoneStep
	}
}
