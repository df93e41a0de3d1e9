// pkg/pipeline/plan.go - builds the task list for a run

package pipeline

import (
	"fmt"
	"strings"

	"github.com/windowsadmins/appbundle/pkg/catalog"
	"github.com/windowsadmins/appbundle/pkg/logging"
	"github.com/windowsadmins/appbundle/pkg/status"
)

// Task pairs a catalog item with its outcome for one run.
type Task struct {
	App     catalog.Item
	Outcome *status.Outcome
}

// NewTask returns a NotStarted task for item.
func NewTask(item catalog.Item) *Task {
	return &Task{App: item, Outcome: status.NewOutcome()}
}

// PlanOptions selects which catalog items a run attempts. IDs match
// case-insensitively.
type PlanOptions struct {
	Only    []string
	Exclude []string
	Force   bool // install even when the detect key is present
}

func idSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		for _, part := range strings.Split(id, ",") {
			if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
				set[part] = true
			}
		}
	}
	return set
}

// Plan creates one task per item in order and marks the ones the run
// should pass over as Skipped. A nil detector skips the host checks.
func Plan(items []catalog.Item, opts PlanOptions, det status.Detector) []*Task {
	only := idSet(opts.Only)
	exclude := idSet(opts.Exclude)

	var sysArch string
	if det != nil {
		sysArch = det.SystemArchitecture()
	}

	tasks := make([]*Task, 0, len(items))
	for _, item := range items {
		task := NewTask(item)
		tasks = append(tasks, task)

		id := strings.ToLower(item.ID)
		var reason string
		switch {
		case len(only) > 0 && !only[id]:
			reason = "Not selected"
		case exclude[id]:
			reason = "Excluded"
		case det != nil && !status.SupportsArchitecture(item, sysArch):
			reason = fmt.Sprintf("Unsupported architecture (%s)", sysArch)
		case det != nil && !opts.Force && installed(det, item):
			reason = "Already installed"
		}

		if reason != "" {
			_ = task.Outcome.Transition(status.Skipped, reason)
			logging.LogInstallSkipped(item.ID, reason)
		}
	}
	return tasks
}

func installed(det status.Detector, item catalog.Item) bool {
	ok, err := det.IsInstalled(item.Detect)
	if err != nil {
		logging.Warn("Install detection failed", "item", item.ID, "detect", item.Detect, "error", err)
		return false
	}
	return ok
}
