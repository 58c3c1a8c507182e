package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/linuxmatters/voxrisk/internal/cli"
	"github.com/linuxmatters/voxrisk/internal/config"
	"github.com/linuxmatters/voxrisk/internal/features"
	"github.com/linuxmatters/voxrisk/internal/logging"
	"github.com/linuxmatters/voxrisk/internal/mains"
	"github.com/linuxmatters/voxrisk/internal/pipeline"
	"github.com/linuxmatters/voxrisk/internal/store"
	"github.com/linuxmatters/voxrisk/internal/training"
)

var (
	version = "0.0.1"
)

// Exit codes
const (
	exitOK       = 0
	exitError    = 1
	exitBadInput = 2
	exitNoModel  = 3
)

// CLI defines the command-line interface
type CLI struct {
	Version bool   `short:"v" help:"Show version information"`
	Config  string `short:"c" type:"path" help:"Path to TOML config file (optional)"`
	Debug   bool   `help:"Write a debug log to voxrisk-debug.log"`
	Verbose bool   `help:"Log progress to stderr when the terminal UI is off"`

	Analyze AnalyzeCmd `cmd:"" default:"withargs" help:"Screen recordings for Parkinsonian speech patterns"`
	Train   TrainCmd   `cmd:"" help:"Train a model and store it"`
	Model   ModelCmd   `cmd:"" help:"Show the stored model"`
}

// App holds the wiring shared by every command
type App struct {
	Config    *config.Config
	Store     store.Store
	Trainer   *training.Trainer
	Handle    *pipeline.Handle
	Extractor *features.Extractor
	MainsHz   int
	Logger    zerolog.Logger

	interactive bool
	verbose     bool
	closeLog    func() error
}

func main() {
	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("voxrisk"),
		kong.Description("Speech-based Parkinsonian risk screening"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	if cliArgs.Version {
		cli.PrintVersion(version)
		os.Exit(exitOK)
	}

	app, err := newApp(cliArgs)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(exitError)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx.BindTo(runCtx, (*context.Context)(nil))
	err = ctx.Run(app)
	stop()
	app.Close()

	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(exitCode(err))
	}
}

// newApp loads configuration, installs the logger and opens the model store
func newApp(c *CLI) (*App, error) {
	cfg, cfgPath, found, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}

	interactive := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	logOpts := logging.Options{Path: cfg.Logging.DebugLog, Level: cfg.Logging.Level}
	if c.Debug {
		logOpts.Level = zerolog.DebugLevel.String()
		if logOpts.Path == "" {
			logOpts.Path = logging.DefaultDebugLog
		}
	}
	if c.Verbose {
		logOpts.Console = os.Stderr
	}
	closeLog, err := logging.Init(logOpts)
	if err != nil {
		return nil, err
	}

	logger := logging.WithComponent("main")
	if found {
		logger.Debug().Str("path", cfgPath).Msg("loaded config")
	}

	st, err := store.Open(cfg.StoreOptions(), logging.WithComponent("store"))
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("open model store: %w", err)
	}

	trainer, err := training.NewTrainer(cfg.TrainingConfig(), st, logging.WithComponent("training"))
	if err != nil {
		st.Close()
		closeLog()
		return nil, err
	}

	extractor, err := features.New(cfg.FeatureConfig())
	if err != nil {
		st.Close()
		closeLog()
		return nil, err
	}

	grid := mains.Resolve(cfg.Extract.MainsHz)
	logger.Debug().
		Int("mains_hz", grid.Hz).
		Str("mains_source", string(grid.Source)).
		Str("timezone", grid.Timezone).
		Str("country", grid.Country).
		Str("backend", cfg.Store.Backend).
		Msg("configured")

	return &App{
		Config:      cfg,
		Store:       st,
		Trainer:     trainer,
		Handle:      pipeline.NewHandle(st, trainer, cfg.SyntheticSource(), logging.WithComponent("pipeline")),
		Extractor:   extractor,
		MainsHz:     grid.Hz,
		Logger:      logger,
		interactive: interactive,
		verbose:     c.Verbose,
		closeLog:    closeLog,
	}, nil
}

// Close releases the store and the debug log
func (a *App) Close() {
	if err := a.Store.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("closing model store")
	}
	if err := a.closeLog(); err != nil {
		fmt.Fprintf(os.Stderr, "closing debug log: %v\n", err)
	}
}

// useTUI reports whether a command should draw the terminal UI. Console
// logging and structured output both need a plain stdout.
func (a *App) useTUI(plain bool, format string) bool {
	return a.interactive && !a.verbose && !plain && format == formatText
}

// dehum reports whether the mains notch runs before extraction, for both
// analysis and directory training
func (a *App) dehum(flag bool) bool {
	return flag || a.Config.Extract.RemoveHum
}

// exitCode maps a command error to the process exit status
func exitCode(err error) int {
	if errors.Is(err, context.Canceled) {
		return exitError
	}
	switch pipeline.KindOf(err) {
	case pipeline.KindBadInput:
		return exitBadInput
	case pipeline.KindNoModel:
		return exitNoModel
	}
	return exitError
}
