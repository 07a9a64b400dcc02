package app

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cedarline-systems/nixhand/internal/config"
	"github.com/cedarline-systems/nixhand/internal/nix"
	"github.com/cedarline-systems/nixhand/internal/snapshots"
	"github.com/cedarline-systems/nixhand/internal/store"
	"github.com/cedarline-systems/nixhand/internal/watcher"
)

var (
	watchDaemon      bool
	watchDaemonChild bool
	watchPIDFile     string
	watchLogFile     string
	watchStop        bool
	watchNoSnapshot  bool

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Monitor the profiles directory for generation changes",
		Long: `Watch the Nix profiles directory and record every generation change,
including ones made by other tools (nix-env, nixos-rebuild, home-manager).

Each observed change is recorded as a generation event and, unless
--no-snapshot is given, a snapshot is captured so the pre-change state
stays recoverable.

Watch modes:
  • Foreground (default): Run in current terminal with Ctrl+C to stop
  • Daemon: Run as background process
  • Stop: Stop a running daemon`,
		Example: `  # Run in foreground (Ctrl+C to stop)
  nixhand watch

  # Run as background daemon
  nixhand watch --daemon

  # Stop running daemon
  nixhand watch --stop

  # Use custom PID and log files
  nixhand watch --daemon --pid-file /tmp/watch.pid --log-file /tmp/watch.log`,
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "run as background daemon")
	watchCmd.Flags().BoolVar(&watchDaemonChild, "daemon-child", false, "internal flag for daemon child process")
	watchCmd.Flags().StringVar(&watchPIDFile, "pid-file", "", "PID file path (default: ~/.local/share/nixhand/watch.pid)")
	watchCmd.Flags().StringVar(&watchLogFile, "log-file", "", "log file path (default: ~/.local/share/nixhand/watch.log)")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "stop running daemon")
	watchCmd.Flags().BoolVar(&watchNoSnapshot, "no-snapshot", false, "record events without capturing snapshots")

	// Hide the internal daemon-child flag from help
	watchCmd.Flags().MarkHidden("daemon-child")

	RootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchPIDFile == "" {
		defaultPID, err := getDefaultPIDFile()
		if err != nil {
			return fmt.Errorf("failed to get default PID file path: %w", err)
		}
		watchPIDFile = defaultPID
	}

	if watchLogFile == "" {
		defaultLog, err := getDefaultLogFile()
		if err != nil {
			return fmt.Errorf("failed to get default log file path: %w", err)
		}
		watchLogFile = defaultLog
	}

	if watchStop {
		if err := watcher.StopDaemon(watchPIDFile); err != nil {
			return err
		}
		fmt.Println("Watcher daemon stopped.")
		return nil
	}

	w, cleanup, err := buildWatcher()
	if err != nil {
		return err
	}
	defer cleanup()

	if watchDaemon {
		if err := w.StartDaemon(watchPIDFile, watchLogFile); err != nil {
			return err
		}
		fmt.Println("Watcher daemon started.")
		fmt.Printf("  PID file: %s\n", watchPIDFile)
		fmt.Printf("  Log file: %s\n", watchLogFile)
		return nil
	}

	if watchDaemonChild {
		// Record our own PID; the parent recorded the child it forked, but
		// writing again keeps the file correct if the child was re-execed.
		os.WriteFile(watchPIDFile, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644)
		return w.RunDaemon(watchPIDFile)
	}

	// Foreground mode
	if err := w.Start(); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	fmt.Println("Watching for generation changes. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nStopping watcher...")
	return w.Stop()
}

// buildWatcher assembles a watcher over the configured profiles directory.
// The returned cleanup closes the database.
func buildWatcher() (*watcher.Watcher, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := st.CreateSchema(); err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	var snaps *snapshots.Manager
	if !watchNoSnapshot {
		snaps = snapshots.New(st, nix.NewRunner(), cfg.SnapshotDir)
	}

	w, err := watcher.New(st, snaps, cfg.ProfilesDir)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return w, func() { st.Close() }, nil
}

// getDefaultPIDFile returns the default PID file path
func getDefaultPIDFile() (string, error) {
	dir, err := config.DataDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve data directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return filepath.Join(dir, "watch.pid"), nil
}

// getDefaultLogFile returns the default log file path
func getDefaultLogFile() (string, error) {
	dir, err := config.DataDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve data directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return filepath.Join(dir, "watch.log"), nil
}
