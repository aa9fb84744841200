package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grovetools/scribe/cli"
	"github.com/grovetools/scribe/config"
	"github.com/grovetools/scribe/internal/daemon/events"
	"github.com/grovetools/scribe/internal/daemon/pidfile"
	"github.com/grovetools/scribe/internal/daemon/server"
	"github.com/grovetools/scribe/internal/daemon/watcher"
	"github.com/grovetools/scribe/logging"
	"github.com/grovetools/scribe/pkg/commands"
	"github.com/grovetools/scribe/pkg/daemon"
	"github.com/grovetools/scribe/pkg/paths"
	"github.com/grovetools/scribe/pkg/process"
	"github.com/grovetools/scribe/state"
	"github.com/grovetools/scribe/util/pathutil"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewServeCmd returns the daemon command with subcommands.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scribe command daemon",
		Long: `Serves the command registry over a unix socket so the editor front-end
and other processes share one view of the stores.

Examples:
  # Run in the foreground
  scribe serve start

  # Also listen on loopback TCP for web views
  scribe serve start --listen 127.0.0.1:7420

  # Stop the running daemon
  scribe serve stop`,
	}

	cmd.AddCommand(newServeStartCmd())
	cmd.AddCommand(newServeStopCmd())
	cmd.AddCommand(newServeStatusCmd())

	return cmd
}

// socketPath returns the configured socket, or the default one.
func socketPath(cfg *config.Config) string {
	if cfg != nil && cfg.Server.Socket != "" {
		if expanded, err := pathutil.Expand(cfg.Server.Socket); err == nil {
			return expanded
		}
		return cfg.Server.Socket
	}
	return paths.SocketPath()
}

// newRegistry builds the command registry for cfg over the default stores.
func newRegistry(cfg *config.Config) *commands.Registry {
	return commands.NewWithServices(commands.NewServices(state.DefaultManager(), cfg))
}

func newServeStartCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewLogger("scribed")
			opts := cli.GetOptions(cmd)

			cfg, err := cli.LoadConfig(opts)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Server.Listen = listen
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			pidPath := paths.PidFilePath()
			sockPath := socketPath(cfg)

			// 1. Acquire Lock
			if err := pidfile.Acquire(pidPath); err != nil {
				return fmt.Errorf("failed to start: %w", err)
			}
			defer func() {
				if err := pidfile.Release(pidPath); err != nil {
					logger.Errorf("Failed to release pidfile: %v", err)
				}
			}()

			// 2. Setup hub and server
			hub := events.NewHub()
			defer hub.Close()

			srv := server.New(logger, newRegistry(cfg), hub, server.Options{
				Listen:         cfg.Server.Listen,
				AllowedOrigins: cfg.Server.AllowedOrigins,
				Websocket:      cfg.Server.Websocket != nil && *cfg.Server.Websocket,
			})

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			// 3. Watch the config dir for external edits
			if cfg.Server.WatchStores == nil || *cfg.Server.WatchStores {
				debounce := time.Duration(cfg.Server.WatchDebounceMs) * time.Millisecond
				w, err := watcher.New(paths.ConfigDir(), debounce, hub)
				if err != nil {
					logger.WithError(err).Warn("Store watcher disabled")
				} else {
					srv.SetSuppressor(w)
					go w.Start(ctx)
				}
			}

			if opts.ConfigFile == "" {
				go reloadOnConfigChange(ctx, hub, srv, logger)
			}

			// 4. Handle Signals
			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(stop)

			go func() {
				select {
				case <-stop:
				case <-ctx.Done():
					return
				}
				logger.Info("Received stop signal")
				cancel()

				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Errorf("Server shutdown error: %v", err)
				}
			}()

			// 5. Start Server (Blocking)
			logger.WithFields(logrus.Fields{
				"pid":    os.Getpid(),
				"socket": sockPath,
			}).Info("Starting daemon")
			if err := srv.ListenAndServe(sockPath); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Also listen on this loopback TCP address")
	return cmd
}

// reloadOnConfigChange rebuilds the registry whenever the config file in
// the config dir changes. A config that fails to load keeps the old one.
func reloadOnConfigChange(ctx context.Context, hub *events.Hub, srv *server.Server, logger *logrus.Entry) {
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			if e.Type != events.ConfigReload {
				continue
			}
			cfg, err := config.LoadDefault()
			if err == nil {
				err = cfg.Validate()
			}
			if err != nil {
				logger.WithError(err).WithField("file", e.Name).Warn("Ignoring invalid config change")
				continue
			}
			srv.SetRegistry(newRegistry(cfg))
			logger.WithField("file", e.Name).Info("Configuration reloaded")
		}
	}
}

func newServeStopCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			pidPath := paths.PidFilePath()

			running, pid, err := pidfile.IsRunning(pidPath)
			if err != nil {
				return fmt.Errorf("error checking status: %w", err)
			}

			pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
			if !running {
				pretty.Warn("Daemon is not running")
				return nil
			}

			if err := process.Terminate(pid); err != nil {
				return fmt.Errorf("failed to send stop signal: %w", err)
			}

			if wait > 0 && !process.WaitForExit(pid, wait) {
				return fmt.Errorf("daemon (PID %d) did not exit within %s", pid, wait)
			}
			pretty.Success(fmt.Sprintf("Stopped daemon (PID %d)", pid))
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 5*time.Second, "How long to wait for the daemon to exit (0: don't wait)")
	return cmd
}

// DaemonStatus is the output of 'serve status --json'.
type DaemonStatus struct {
	Running    bool   `json:"running"`
	PID        int    `json:"pid,omitempty"`
	Socket     string `json:"socket"`
	Responding bool   `json:"responding"`
}

func newServeStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)
			cfg, err := cli.LoadConfig(opts)
			if err != nil {
				return err
			}

			running, pid, err := pidfile.IsRunning(paths.PidFilePath())
			if err != nil {
				return fmt.Errorf("error: %w", err)
			}

			status := DaemonStatus{Running: running, Socket: socketPath(cfg)}
			if running {
				status.PID = pid
				if client, err := daemon.NewRemoteClient(status.Socket); err == nil {
					status.Responding = client.IsRunning()
					client.Close()
				}
			}

			if opts.JSONOutput {
				if err := cli.PrintJSON(cmd.OutOrStdout(), status); err != nil {
					return err
				}
			} else if running {
				pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
				pretty.Success("Running")
				pretty.Field("PID", pid)
				pretty.Path("Socket", status.Socket)
				pretty.Field("Responding", status.Responding)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Stopped")
			}

			if !running {
				// Non-zero for stopped state (useful for scripts)
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}
