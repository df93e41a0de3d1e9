// pkg/logging/events.go - structured install events for external monitoring tools

package logging

import (
	"fmt"
	"time"
)

// LogEvent is attached to an events.jsonl entry for pipeline milestones.
type LogEvent struct {
	EventType string                 `json:"event_type"` // install, resolve, download
	Package   string                 `json:"package,omitempty"`
	Version   string                 `json:"version,omitempty"`
	Action    string                 `json:"action"`
	Status    string                 `json:"status"` // started, progress, completed, failed, skipped
	Duration  *time.Duration         `json:"duration,omitempty"`
	Progress  *int                   `json:"progress,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
}

// EventOption allows customizing log events
type EventOption func(*LogEvent)

// WithPackage sets the package name for the event
func WithPackage(name, version string) EventOption {
	return func(e *LogEvent) {
		e.Package = name
		e.Version = version
	}
}

// WithProgress sets the progress percentage for the event
func WithProgress(progress int) EventOption {
	return func(e *LogEvent) {
		e.Progress = &progress
	}
}

// WithDuration sets the duration for the event
func WithDuration(duration time.Duration) EventOption {
	return func(e *LogEvent) {
		e.Duration = &duration
	}
}

// WithError sets the error message for the event
func WithError(err error) EventOption {
	return func(e *LogEvent) {
		if err != nil {
			e.Error = err.Error()
		}
	}
}

// WithContext adds context information to the event
func WithContext(key string, value interface{}) EventOption {
	return func(e *LogEvent) {
		if e.Context == nil {
			e.Context = make(map[string]interface{})
		}
		e.Context[key] = value
	}
}

// Event writes a structured event. Without an initialized logger the event
// is reduced to a plain message.
func Event(level LogLevel, eventType, action, status, message string, opts ...EventOption) {
	event := LogEvent{
		EventType: eventType,
		Action:    action,
		Status:    status,
	}
	for _, opt := range opts {
		opt(&event)
	}

	if instance == nil {
		logAt(level, message, "event", eventType, "status", status)
		return
	}
	instance.logMessage(level, message, &event, "package", event.Package, "status", status)
}

// LogInstallStart logs the start of a package installation
func LogInstallStart(packageName, version string) {
	Event(LevelInfo, "install", "start", "started",
		fmt.Sprintf("Starting installation of %s", packageName),
		WithPackage(packageName, version))
}

// LogInstallProgress logs a phase change within an installation
func LogInstallProgress(packageName, phase string) {
	Event(LevelDebug, "install", "progress", "running", phase,
		WithPackage(packageName, ""),
		WithContext("phase", phase))
}

// LogInstallComplete logs successful completion of installation
func LogInstallComplete(packageName, version string, duration time.Duration) {
	Event(LevelInfo, "install", "complete", "completed",
		fmt.Sprintf("Successfully installed %s", packageName),
		WithPackage(packageName, version),
		WithDuration(duration))
}

// LogInstallFailed logs failed installation
func LogInstallFailed(packageName, version string, err error) {
	Event(LevelError, "install", "complete", "failed",
		fmt.Sprintf("Failed to install %s", packageName),
		WithPackage(packageName, version),
		WithError(err))
}

// LogInstallSkipped logs an item excluded before the pipeline ran
func LogInstallSkipped(packageName, reason string) {
	Event(LevelInfo, "install", "plan", "skipped",
		fmt.Sprintf("Skipping %s: %s", packageName, reason),
		WithPackage(packageName, ""),
		WithContext("reason", reason))
}

// LogDownloadProgress records a download milestone for an installer file
func LogDownloadProgress(fileName string, percent int) {
	Event(LevelInfo, "download", "progress", "running",
		fmt.Sprintf("Downloading %s: %d%%", fileName, percent),
		WithPackage(fileName, ""),
		WithProgress(percent))
}
