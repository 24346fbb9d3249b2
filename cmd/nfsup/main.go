package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"github.com/desertwitch/nfsup/internal/config"
	"github.com/desertwitch/nfsup/internal/deps"
	"github.com/desertwitch/nfsup/internal/exports"
	"github.com/desertwitch/nfsup/internal/logging"
	"github.com/desertwitch/nfsup/internal/mounter"
	"github.com/desertwitch/nfsup/internal/scan"
	"github.com/desertwitch/nfsup/internal/schema"
	"github.com/desertwitch/nfsup/internal/status"
	"github.com/desertwitch/nfsup/internal/ui"
	"github.com/spf13/cobra"
)

const (
	stackTraceBufMax = 1 << 24
)

//nolint:gochecknoglobals
var (
	ExitCode = 0
	Version  = "dev"
)

func setupSignalHandlers(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		<-sigChan
		cancel()
	}()

	sigChan2 := make(chan os.Signal, 1)
	signal.Notify(sigChan2, syscall.SIGUSR1)
	go func() {
		for range sigChan2 {
			buf := make([]byte, stackTraceBufMax)
			stacklen := runtime.Stack(buf, true)
			os.Stderr.Write(buf[:stacklen])
		}
	}()
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func startApp(ctx context.Context, wg *sync.WaitGroup, app *App, logManager *logging.Manager, level slog.Level) {
	defer wg.Done()

	if app.uiHandler != nil {
		slog.Info("Waiting for UI...")
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if app.uiHandler.Ready.Load() || app.uiHandler.Failed.Load() {
				break
			}
		}

		if app.uiHandler.Ready.Load() {
			// The alternate screen owns the terminal now; console records
			// are rerouted into the UI's log panel until it exits.
			logManager.RemoveHandler(logging.HandlerConsole)
			logManager.AddHandler(logging.HandlerUI,
				logging.NewFileHandler(app.uiHandler.LogWriter, level))
		}
	}

	if err := app.Launch(ctx); err != nil {
		ExitCode = 1
	}
}

func startUI(wg *sync.WaitGroup, app *App, logManager *logging.Manager, level slog.Level) {
	defer wg.Done()

	if app.uiHandler != nil {
		defer func() {
			logManager.RemoveHandler(logging.HandlerUI)
			logManager.AddHandler(logging.HandlerConsole,
				logging.NewConsoleHandler(os.Stdout, level))
		}()

		if err := app.LaunchUI(); err != nil {
			slog.Error("UI failure: falling back to terminal.", "err", err)
		}
	}
}

// newRootCmd returns the root cobra command for nfsup.
func newRootCmd() *cobra.Command {
	var envFile string
	var uiEnabled bool
	var logLevel string

	cmd := &cobra.Command{
		Use:           "nfsup",
		Short:         "Scan a subnet for NFS servers and mount their exports",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runApp(envFile, uiEnabled, parseLogLevel(logLevel))
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "env file to read configuration from")
	cmd.Flags().BoolVar(&uiEnabled, "ui", false, "enable the UI")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(Version)
		},
	}
}

func runApp(envFile string, uiEnabled bool, level slog.Level) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	setupSignalHandlers(cancel)

	logManager := logging.NewManager()

	// The console destination stays up until the configured destinations are
	// known, so configuration failures are always visible.
	logManager.AddHandler(logging.HandlerConsole, logging.NewConsoleHandler(os.Stdout, level))
	logManager.AddHandler(logging.HandlerErrors, logging.NewErrorHandler(os.Stderr))
	slog.SetDefault(slog.New(logManager))

	configHandler := config.NewHandler(&config.GodotenvProvider{}, &schema.OS{})

	cfg, err := configHandler.Load(envFile, os.Args[0])
	if err != nil {
		slog.Error("Failed to establish configuration.",
			"err", err,
		)

		return err
	}

	fileActive := false

	if cfg.LogDest != config.LogDestStdout {
		if logFile, err := logging.OpenLogFile(cfg.LogFile); err != nil {
			// An unopenable log file never stops the run; console output
			// remains as the fallback destination.
			slog.Warn("Failed to open log file, continuing without.",
				"path", cfg.LogFile,
				"err", err,
			)
		} else {
			defer logFile.Close()
			logManager.AddHandler(logging.HandlerFile, logging.NewFileHandler(logFile, level))
			fileActive = true
		}
	}

	if cfg.LogDest == config.LogDestFile && fileActive {
		logManager.RemoveHandler(logging.HandlerConsole)
	}

	osProvider := &schema.OS{}
	unixProvider := &schema.Unix{}
	execProvider := &schema.Exec{}

	tracker := status.NewTracker()

	var uiHandler *ui.Handler
	if uiEnabled {
		uiHandler = ui.NewHandler(ctx, cancel, tracker)
	}

	depsHandler := deps.NewHandler(execProvider)
	scanHandler := scan.NewHandler(execProvider)
	exportsHandler := exports.NewHandler(execProvider)

	mountHandler := mounter.NewHandler(osProvider, unixProvider, execProvider, tracker,
		mounter.Options{
			Base:          cfg.MountBase,
			MountOptions:  cfg.MountOptions,
			WorldWritable: cfg.WorldWritable,
			WriteProbe:    cfg.WriteProbe,
		})

	var wg sync.WaitGroup
	app := NewApp(cfg, depsHandler, scanHandler, exportsHandler, mountHandler, tracker, uiHandler)

	wg.Add(1)
	go startUI(&wg, app, logManager, level)

	wg.Add(1)
	go startApp(ctx, &wg, app, logManager, level)

	wg.Wait()

	return nil
}

func main() {
	defer func() {
		os.Exit(ExitCode)
	}()

	if err := newRootCmd().Execute(); err != nil {
		ExitCode = 1
	}
}
