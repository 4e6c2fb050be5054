package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/wingops/debrief/internal/config"
	"github.com/wingops/debrief/internal/database"
	"github.com/wingops/debrief/internal/logging"
	intOtel "github.com/wingops/debrief/internal/otel"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"
)

// global variables
var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager = logging.NewSlogManager()

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger = SlogManager.Logger()

	// DBLogger is handed to the database manager and the influx publisher
	DBLogger zerolog.Logger = zerolog.Nop()

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	SessionStartTime time.Time = time.Now()

	logFile      *os.File
	graylogClose io.Closer
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		Logger.Error("Command failed", "error", err)
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configDir, logLevel string
	var cmdRoot = &cobra.Command{
		Use:           "debrief",
		Short:         "Squadron debrief kill ledger and mission summaries",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(configDir, logLevel)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return teardown(cmd.Context())
		},
	}
	cmdRoot.PersistentFlags().StringVarP(&configDir, "config-dir", "c", ".", "directory holding "+config.FileName)
	cmdRoot.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")

	cmdRoot.AddCommand(cmdMigrate())
	cmdRoot.AddCommand(cmdBackup())
	cmdRoot.AddCommand(cmdCatalog())
	cmdRoot.AddCommand(cmdPool())
	cmdRoot.AddCommand(cmdKills())
	cmdRoot.AddCommand(cmdSummary())
	cmdRoot.AddCommand(cmdVersion())
	return cmdRoot
}

// setup loads config and brings up logging the same way for every command.
func setup(configDir, levelOverride string) error {
	if err := config.Load(configDir); err != nil {
		Logger.Debug("Failed to load config, using defaults", "error", err)
	}
	logCfg := config.GetLoggingConfig()
	if levelOverride != "" {
		logCfg.Level = levelOverride
	}

	if _, err := os.Stat(logCfg.Dir); os.IsNotExist(err) {
		if err := os.MkdirAll(logCfg.Dir, 0755); err != nil {
			return fmt.Errorf("creating logs dir: %w", err)
		}
	}
	logPath := logging.LogFilePath(logCfg.Dir, logging.ServiceName, SessionStartTime)
	var err error
	logFile, err = os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		OTelProvider, err = intOtel.New(intOtel.FromConfig(otelCfg, logFile))
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
		}
	}
	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}

	var extra []slog.Handler
	if logCfg.Graylog.Enabled {
		h, closer, err := logging.NewGraylogHandler(logCfg.Graylog.Address, logCfg.Level)
		if err != nil {
			Logger.Warn("Failed to connect to Graylog", "address", logCfg.Graylog.Address, "error", err)
		} else {
			extra = append(extra, h)
			graylogClose = closer
		}
	}

	SlogManager.Setup(logFile, logCfg.Level, otelLogProvider, extra...)
	Logger = SlogManager.Logger()
	Logger.Debug("Logging to file", "path", logPath)

	level, err := zerolog.ParseLevel(logCfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	DBLogger = zerolog.New(zerolog.MultiLevelWriter(
		zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		},
		zerolog.ConsoleWriter{
			Out:        logFile,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		},
	)).Level(level).With().Timestamp().Logger()
	return nil
}

func teardown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := SlogManager.Flush(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "flushing logs:", err)
	}
	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "shutting down OTel:", err)
		}
	}
	if graylogClose != nil {
		graylogClose.Close()
	}
	if logFile != nil {
		return logFile.Close()
	}
	return nil
}

func cmdVersion() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "debrief %s (built %s)\n", CurrentVersion, BuildDate)
			return nil
		},
	}
}

func cmdMigrate() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", a.db.Backend)
			return nil
		},
	}
}

func cmdBackup() *cobra.Command {
	return &cobra.Command{
		Use:   "backup <file>",
		Short: "Copy the SQLite database to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if a.db.Backend != database.BackendSQLite {
				return fmt.Errorf("backup needs the sqlite backend, have %s", a.db.Backend)
			}
			if err := a.db.DumpMemoryToDisk(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "database written to %s\n", args[0])
			return nil
		},
	}
}

// backupPath is where influx points go when the server is unreachable.
func backupPath() string {
	return filepath.Join(config.GetLoggingConfig().Dir, fmt.Sprintf("influx_backup_%s.log.gz", SessionStartTime.Format("20060102_150405")))
}
