// Command taskdeck is a single-user task list backed by a local SQLite
// database.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mlemos/taskdeck/internal/config"
	"github.com/mlemos/taskdeck/internal/store"
	"github.com/mlemos/taskdeck/internal/view"
)

var (
	cfg    *config.Config
	logger *log.Logger

	flagDBPath  string
	flagLogFile string
)

var rootCmd = &cobra.Command{
	Use:   "taskdeck",
	Short: "A local task list backed by SQLite",
	Long: `taskdeck keeps a single task list in a local SQLite database.

Every mutation is written through to the database and the visible list is
re-read from it, so what you see is always what is stored.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		if flagDBPath != "" {
			cfg.DBPath = flagDBPath
		}
		if flagLogFile != "" {
			cfg.LogFile = flagLogFile
		}

		logger = newLogger(cfg.LogFile)
		return nil
	},
}

// newLogger writes to stderr, or to a size-rotated file when configured.
func newLogger(logFile string) *log.Logger {
	var out io.Writer = os.Stderr
	if logFile != "" {
		out = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
	}
	return log.New(out, "[taskdeck] ", log.LstdFlags)
}

// openStore opens the configured database. Any failure is reported once
// and mapped to a nil store, so commands keep running against an empty,
// read-only list instead of aborting.
func openStore() *store.Store {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Printf("Durable storage unavailable: %v", err)
		return nil
	}
	return st
}

// setup opens the store and brings the view manager to a definitive
// state. The returned cleanup closes the store; it is safe to call when
// the store is nil.
func setup(ctx context.Context) (*view.Manager, func()) {
	st := openStore()
	cleanup := func() {
		if st != nil {
			_ = st.Close()
		}
	}

	mgr := view.New(st, logger)
	switch mgr.Initialize(ctx) {
	case view.StateUnavailable:
		fmt.Fprintf(os.Stderr, "Warning: no durable storage; the list is empty and read-only\n")
	case view.StateError:
		fmt.Fprintf(os.Stderr, "Warning: store setup failed; operations will not persist\n")
	}

	return mgr, cleanup
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "log to a rotated file instead of stderr")
}
