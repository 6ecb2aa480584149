// Command deco is the entrypoint for both the command-line surface and the
// loopback HTTP server: `deco serve` starts the API, every other subcommand
// talks to storage directly.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/deco-run/deco-core/internal/appconfig"
	"github.com/deco-run/deco-core/internal/cli"
	"github.com/deco-run/deco-core/internal/events"
	"github.com/deco-run/deco-core/internal/httpapi"
	"github.com/deco-run/deco-core/internal/logging"
	"github.com/deco-run/deco-core/internal/secrets"
	"github.com/deco-run/deco-core/internal/storage"
	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root := cli.NewRootCmd()
	root.AddCommand(newServeCmd())

	root.SetArgs(os.Args[1:])
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

const clipModelFilename = "clip-vit-b32.onnx"
const serverPoolSize = 8

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the loopback HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "port to listen on (default: config.json apiPort, falling back to 7890)")
	return cmd
}

func runServer(ctx context.Context, port int) error {
	debugLogPath := ""
	if dir, err := appconfig.Dir(); err == nil {
		debugLogPath = filepath.Join(dir, "debug.log")
	}
	logFile, err := logging.Setup(debugLogPath, os.Getenv("DECO_DEBUG") == "1")
	if err != nil {
		slog.Warn("failed to open debug log file, logging to stderr only", "error", err)
	} else if logFile != nil {
		defer logFile.Close()
	}

	cfg, err := appconfig.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if port == 0 {
		port = cfg.APIPort
		if port == 0 {
			port = appconfig.DefaultAPIPort
		}
	}

	modelPath := filepath.Join(cfg.ModelsFolder, clipModelFilename)
	store := storage.New(modelPath, serverPoolSize)
	defer store.Close()

	secretStore, err := secrets.Open()
	if err != nil {
		return fmt.Errorf("open secrets store: %w", err)
	}

	server := httpapi.New(store, secretStore, events.New())

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(port)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
		return server.Shutdown()
	case err := <-errCh:
		return err
	}
}
