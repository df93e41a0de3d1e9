// cmd/appbundle/main.go

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/windowsadmins/appbundle/pkg/catalog"
	"github.com/windowsadmins/appbundle/pkg/config"
	"github.com/windowsadmins/appbundle/pkg/logging"
	"github.com/windowsadmins/appbundle/pkg/pipeline"
	"github.com/windowsadmins/appbundle/pkg/resolver"
	"github.com/windowsadmins/appbundle/pkg/status"
	"github.com/windowsadmins/appbundle/pkg/utils"
	"github.com/windowsadmins/appbundle/pkg/version"
)

var logger *logging.ConsoleLogger

// consoleReporter prints pipeline phases; download details only when verbose.
type consoleReporter struct {
	verbose bool
}

func (r consoleReporter) Message(txt string) { logger.Printf("%s", txt) }
func (r consoleReporter) Detail(txt string) {
	if r.verbose {
		logger.Debug("%s", txt)
	}
}
func (r consoleReporter) Percent(int) {}

func main() {
	utils.PatchWindowsArgs()
	enableANSIConsole()

	configPath := pflag.String("config", config.ConfigPath, "Path to the configuration file.")
	catalogPath := pflag.String("catalog", "", "Path to a catalog file (defaults to the built-in catalog).")
	only := pflag.StringSlice("only", nil, "Install only these application IDs.")
	exclude := pflag.StringSlice("exclude", nil, "Skip these application IDs.")
	list := pflag.Bool("list", false, "List catalog applications and exit.")
	checkOnly := pflag.Bool("checkonly", false, "Resolve downloads without installing anything.")
	force := pflag.Bool("force", false, "Install even when an application is already present.")
	allowUnverified := pflag.Bool("allow-unverified", true, "Install downloads that have no published digest.")
	showConfig := pflag.Bool("show-config", false, "Display the current configuration and exit.")
	versionFlag := pflag.Bool("version", false, "Print the version and exit.")

	var verbosity int
	pflag.CountVarP(&verbosity, "verbose", "v", "Increase verbosity (e.g. -v, -vv, -vvv)")
	pflag.Parse()

	if *versionFlag {
		version.PrintFull(os.Stdout)
		os.Exit(0)
	}

	logger = logging.New(verbosity > 0)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration: %v", err)
	}

	applyVerbosity(cfg, verbosity)
	if pflag.CommandLine.Changed("allow-unverified") {
		cfg.AllowUnverified = *allowUnverified
	}
	if *catalogPath != "" {
		cfg.CatalogPath = *catalogPath
	}

	if *showConfig {
		if cfgYaml, err := yaml.Marshal(cfg); err == nil {
			logger.Printf("Current configuration:\n%s", string(cfgYaml))
		}
		os.Exit(0)
	}

	if err := logging.Init(cfg); err != nil {
		logger.Fatal("Error initializing logger: %v", err)
	}
	defer logging.CloseLogger()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Error("Failed to load catalog: %v", err)
		os.Exit(1)
	}

	if *list {
		listCatalog(cat)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-signalChan
		logger.Warning("Signal received, cancelling remaining installs: %s", sig.String())
		cancel()
	}()

	tasks := pipeline.Plan(cat.Apps, pipeline.PlanOptions{
		Only:    *only,
		Exclude: *exclude,
		Force:   *force,
	}, status.NewHostDetector())

	if *checkOnly {
		os.Exit(checkDownloads(ctx, cfg, tasks))
	}

	orchestrator := pipeline.New(cfg, pipeline.Dependencies{
		Reporter: consoleReporter{verbose: verbosity > 0},
	})
	summary := orchestrator.Run(ctx, tasks)

	printResults(tasks, summary)
	if dir := logging.GetCurrentLogDir(); dir != "" {
		logger.Printf("Logs written to %s", dir)
	}
	if summary.Failed > 0 {
		os.Exit(1)
	}
}

// applyVerbosity raises the configured log level from -v flags:
// 0 => ERROR, 1 => WARN, 2 => INFO, 3+ => DEBUG. A more verbose LogLevel
// from Config.yaml or policy is kept.
func applyVerbosity(cfg *config.Configuration, verbosity int) {
	var flagLevel string
	switch verbosity {
	case 0:
		flagLevel = "ERROR"
	case 1:
		flagLevel = "WARN"
	case 2:
		flagLevel = "INFO"
	default:
		flagLevel = "DEBUG"
	}
	if logging.ParseLevel(flagLevel) > logging.ParseLevel(cfg.LogLevel) {
		cfg.LogLevel = flagLevel
	}
	if verbosity > 0 {
		cfg.Verbose = true
	}
	if verbosity >= 3 {
		cfg.Debug = true
	}
}

func listCatalog(cat *catalog.Catalog) {
	for _, app := range cat.Apps {
		arch := app.Arch
		if arch == "" {
			arch = "any"
		}
		logger.Printf("%-10s %-28s source=%-9s arch=%s", app.ID, app.DisplayName(), app.Source, arch)
	}
}

// checkDownloads resolves every pending task and reports what would be
// fetched.
func checkDownloads(ctx context.Context, cfg *config.Configuration, tasks []*pipeline.Task) int {
	r := resolver.New(cfg, nil)
	exit := 0
	for _, task := range tasks {
		if st, msg := task.Outcome.Snapshot(); st.Terminal() {
			logger.Printf("%-28s %s", task.App.DisplayName(), msg)
			continue
		}
		rd := r.Resolve(ctx, task.App)
		if rd == nil {
			logger.Error("%-28s no download available", task.App.DisplayName())
			exit = 1
			continue
		}
		verified := "unverified"
		if rd.Digest != "" {
			verified = "sha256 " + rd.Digest
		}
		ver := rd.Version
		if ver == "" {
			ver = "unknown version"
		}
		logger.Success("%-28s %s (%s, %s)", task.App.DisplayName(), rd.URL, ver, verified)
	}
	return exit
}

func printResults(tasks []*pipeline.Task, summary pipeline.Summary) {
	for _, task := range tasks {
		st, msg := task.Outcome.Snapshot()
		line := fmt.Sprintf("%-28s %s", task.App.DisplayName(), msg)
		switch st {
		case status.Done:
			logger.Success("%s", line)
		case status.Failed:
			logger.Error("%s", line)
		default:
			logger.Warning("%s", line)
		}
	}

	parts := []string{
		fmt.Sprintf("%d installed", summary.Done),
		fmt.Sprintf("%d failed", summary.Failed),
		fmt.Sprintf("%d skipped", summary.Skipped),
	}
	logger.Printf("Summary: %s", strings.Join(parts, ", "))
	if summary.RebootRequired {
		logger.Warning("A restart is required to complete installation.")
	}
}
