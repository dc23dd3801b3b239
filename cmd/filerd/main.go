// Command filerd serves the upload routes listed in a YAML config file. The
// file is watched, and SIGHUP also reloads it.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/robbyt/go-filer/internal/config"
	"github.com/robbyt/go-filer/runnables/httpserver"
	"github.com/robbyt/go-filer/supervisor"
)

func main() {
	configPath := flag.String("config", "filerd.yaml", "path to config file")
	flag.Parse()

	if err := run(context.Background(), *configPath, os.Stdout); err != nil {
		slog.Error("filerd failed", "error", err)
		os.Exit(1)
	}
}

// run starts the upload server and the config watcher and blocks until a stop
// signal arrives or ctx is canceled.
func run(ctx context.Context, configPath string, logOutput io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logHandler := cfg.Logging.NewLogHandler(logOutput)
	slog.SetDefault(slog.New(logHandler))
	slog.Info("Starting filerd", "listen", cfg.ListenAddr, "uploads", len(cfg.Uploads))

	source := newConfigSource(configPath, cfg, logHandler)

	runner, err := httpserver.NewRunner(
		httpserver.WithName("filerd"),
		httpserver.WithConfigCallback(source.serverConfig),
		httpserver.WithLogHandler(logHandler),
	)
	if err != nil {
		return fmt.Errorf("failed to create HTTP server runner: %w", err)
	}

	sv, err := supervisor.New(
		supervisor.WithContext(ctx),
		supervisor.WithLogHandler(logHandler),
		supervisor.WithRunnables(runner, source),
	)
	if err != nil {
		return fmt.Errorf("failed to create supervisor: %w", err)
	}

	return sv.Run()
}
