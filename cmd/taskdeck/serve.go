package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mlemos/taskdeck/internal/dashboard"
	"github.com/mlemos/taskdeck/internal/ui"
	"github.com/mlemos/taskdeck/internal/watch"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Watch the store and broadcast changes over WebSocket",
	Long: `Run the taskdeck daemon.

The daemon keeps the projection in sync with the database file (so edits
made by other taskdeck processes are picked up) and broadcasts every
refreshed snapshot to WebSocket clients on /ws. The latest snapshot is
also served as JSON on /tasks.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		mgr, cleanup := setup(ctx)
		defer cleanup()

		addr := cfg.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}

		srv := dashboard.NewServer(&dashboard.Config{
			Addr:   addr,
			Logger: logger,
		})
		mgr.Subscribe(srv.PublishSnapshot)

		if err := srv.Start(); err != nil {
			return err
		}
		defer func() {
			if err := srv.Stop(); err != nil {
				logger.Printf("Error stopping server: %v", err)
			}
		}()

		// Push the startup snapshot to anything already connected.
		srv.PublishSnapshot(mgr.Projection())

		fmt.Printf("%s taskdeck daemon listening on %s\n", ui.RenderAccent("🚀"), srv.Addr())
		if cfg.DBPath != "" {
			fmt.Printf("   Store: %s\n", cfg.DBPath)
		}
		fmt.Printf("\nPress Ctrl+C to stop\n\n")

		if cfg.DBPath == "" {
			// Nothing to watch; serve the empty projection until stopped.
			<-ctx.Done()
			return nil
		}

		w, err := watch.New(cfg.DBPath, mgr.Refresh, &watch.Config{
			DebounceInterval: cfg.Debounce,
			Logger:           logger,
		})
		if err != nil {
			return err
		}

		return w.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
