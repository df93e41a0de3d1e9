// pkg/pipeline/orchestrator.go - sequential resolve, download, verify and install of planned tasks

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/windowsadmins/appbundle/pkg/blocking"
	"github.com/windowsadmins/appbundle/pkg/catalog"
	"github.com/windowsadmins/appbundle/pkg/config"
	"github.com/windowsadmins/appbundle/pkg/download"
	"github.com/windowsadmins/appbundle/pkg/installer"
	"github.com/windowsadmins/appbundle/pkg/logging"
	"github.com/windowsadmins/appbundle/pkg/resolver"
	"github.com/windowsadmins/appbundle/pkg/retry"
	"github.com/windowsadmins/appbundle/pkg/status"
	"github.com/windowsadmins/appbundle/pkg/utils"
)

// Phase messages shown while a task runs.
const (
	MsgResolving   = "Resolving download URL..."
	MsgDownloading = "Downloading..."
	MsgVerifying   = "Verifying..."
	MsgInstalling  = "Installing..."
	MsgInstalled   = "Installed successfully"
	MsgReboot      = " (reboot required)"
	MsgCancelled   = "Cancelled"
)

// Resolver finds the download for an item; nil means none.
type Resolver interface {
	Resolve(ctx context.Context, item catalog.Item) *resolver.ResolvedDownload
}

// Downloader fetches a URL to a local file.
type Downloader interface {
	Download(ctx context.Context, url string) (string, error)
}

// Runner executes an installer and removes it.
type Runner interface {
	Run(ctx context.Context, artifactPath, args string) (int, error)
}

// BlockingChecker lists an item's blocking applications that are running.
type BlockingChecker interface {
	BlockingApplicationsRunning(item catalog.Item) []string
}

// Dependencies are the collaborators of an Orchestrator. Nil fields get the
// production implementation built from configuration.
type Dependencies struct {
	Resolver   Resolver
	Downloader Downloader
	Runner     Runner
	Blocking   BlockingChecker
	Reporter   utils.Reporter
}

// Summary counts final task states after a run.
type Summary struct {
	Done           int
	Failed         int
	Skipped        int
	RebootRequired bool
}

// Orchestrator drives tasks through the pipeline one at a time.
type Orchestrator struct {
	resolver        Resolver
	downloader      Downloader
	runner          Runner
	blocking        BlockingChecker
	reporter        utils.Reporter
	retry           retry.RetryConfig
	allowUnverified bool

	// OnStatus, when set, is called after every status change.
	OnStatus func(task *Task)
}

// New wires an orchestrator.
func New(cfg *config.Configuration, deps Dependencies) *Orchestrator {
	if cfg == nil {
		cfg = config.GetDefaultConfig()
	}
	if deps.Reporter == nil {
		deps.Reporter = utils.NewNoOpReporter()
	}
	if deps.Resolver == nil {
		deps.Resolver = resolver.New(cfg, nil)
	}
	if deps.Downloader == nil {
		deps.Downloader = download.New(cfg, deps.Reporter)
	}
	if deps.Runner == nil {
		deps.Runner = installer.New(cfg)
	}
	if deps.Blocking == nil {
		deps.Blocking = blocking.NewChecker(nil)
	}
	return &Orchestrator{
		resolver:        deps.Resolver,
		downloader:      deps.Downloader,
		runner:          deps.Runner,
		blocking:        deps.Blocking,
		reporter:        deps.Reporter,
		retry:           retry.DefaultConfig(cfg.DownloadAttempts),
		allowUnverified: cfg.AllowUnverified,
	}
}

// SetRetryConfig overrides the download retry policy.
func (o *Orchestrator) SetRetryConfig(rc retry.RetryConfig) {
	o.retry = rc
}

// Run processes tasks in order. Tasks already in a terminal state are passed
// over. When ctx is cancelled the remaining NotStarted tasks are Skipped.
func (o *Orchestrator) Run(ctx context.Context, tasks []*Task) Summary {
	var summary Summary

	for i, task := range tasks {
		if ctx.Err() != nil {
			o.cancelRemaining(tasks[i:])
			break
		}
		if task.Outcome.Status().Terminal() {
			continue
		}
		if o.runTask(ctx, task) {
			summary.RebootRequired = true
		}
	}

	for _, task := range tasks {
		switch task.Outcome.Status() {
		case status.Done:
			summary.Done++
		case status.Failed:
			summary.Failed++
		case status.Skipped:
			summary.Skipped++
		}
	}
	logging.Info("Run complete", "done", summary.Done, "failed", summary.Failed,
		"skipped", summary.Skipped, "reboot_required", summary.RebootRequired)
	return summary
}

func (o *Orchestrator) cancelRemaining(tasks []*Task) {
	for _, task := range tasks {
		if task.Outcome.Status() == status.NotStarted {
			o.transition(task, status.Skipped, MsgCancelled)
			logging.LogInstallSkipped(task.App.ID, MsgCancelled)
		}
	}
}

// runTask takes one task to Done or Failed and reports whether the
// installer asked for a reboot.
func (o *Orchestrator) runTask(ctx context.Context, task *Task) (reboot bool) {
	item := task.App
	start := time.Now()
	var artifact, version string

	defer func() {
		if p := recover(); p != nil {
			logging.Error("Install panicked", "item", item.ID, "panic", fmt.Sprint(p))
			o.fail(task, version, fmt.Errorf("internal error: %v", p))
			reboot = false
		}
		installer.RemoveArtifact(artifact)
	}()

	logging.LogInstallStart(item.ID, "")
	o.transition(task, status.Downloading, MsgResolving)

	rd := o.resolver.Resolve(ctx, item)
	if err := ctx.Err(); err != nil {
		o.fail(task, version, err)
		return false
	}
	if rd == nil {
		o.fail(task, version, ErrNoDownload)
		return false
	}
	version = rd.Version

	o.transition(task, status.Downloading, MsgDownloading)
	err := retry.Retry(ctx, o.retry, func() error {
		path, err := o.downloader.Download(ctx, rd.URL)
		if err != nil {
			return err
		}
		artifact = path
		return nil
	})
	if err != nil {
		o.fail(task, version, err)
		return false
	}

	if err := o.verify(task, artifact, rd); err != nil {
		o.fail(task, version, err)
		return false
	}

	if running := o.blocking.BlockingApplicationsRunning(item); len(running) > 0 {
		o.fail(task, version, &BlockingError{Apps: running})
		return false
	}

	o.transition(task, status.Installing, MsgInstalling)
	code, err := o.runner.Run(ctx, artifact, item.Args)
	artifact = ""
	if err != nil {
		o.fail(task, version, err)
		return false
	}

	msg := MsgInstalled
	if installer.RebootRequired(code) {
		msg += MsgReboot
		reboot = true
	}
	o.transition(task, status.Done, msg)
	logging.LogInstallComplete(item.ID, version, time.Since(start))
	return reboot
}

func (o *Orchestrator) verify(task *Task, artifact string, rd *resolver.ResolvedDownload) error {
	if rd.Digest == "" {
		if !o.allowUnverified {
			return &IntegrityError{URL: rd.URL}
		}
		logging.Warn("No digest published, installing unverified", "item", task.App.ID, "url", rd.URL)
		return nil
	}

	o.transition(task, status.Downloading, MsgVerifying)
	if utils.Verify(artifact, rd.Digest) {
		logging.Debug("Digest verified", "item", task.App.ID, "sha256", utils.NormalizeDigest(rd.Digest))
		return nil
	}
	actual, err := utils.FileSHA256(artifact)
	if err != nil {
		actual = "unreadable"
	}
	return &IntegrityError{URL: rd.URL, Expected: utils.NormalizeDigest(rd.Digest), Actual: actual}
}

func (o *Orchestrator) transition(task *Task, to status.Status, msg string) {
	if err := task.Outcome.Transition(to, msg); err != nil {
		logging.Warn("Ignoring status change", "item", task.App.ID, "to", to.String(), "error", err)
		return
	}
	o.reporter.Message(fmt.Sprintf("%s: %s", task.App.DisplayName(), msg))
	if to == status.Downloading || to == status.Installing {
		logging.LogInstallProgress(task.App.ID, msg)
	}
	if o.OnStatus != nil {
		o.OnStatus(task)
	}
}

func (o *Orchestrator) fail(task *Task, version string, err error) {
	o.transition(task, status.Failed, "Failed: "+err.Error())
	logging.LogInstallFailed(task.App.ID, version, err)
}
