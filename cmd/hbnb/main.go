// Command hbnb manages HBNB objects from the shell on the configured storage engine.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hbnb/hbnb/internal/config"
	"github.com/hbnb/hbnb/internal/console"
	"github.com/hbnb/hbnb/internal/models"
	"github.com/hbnb/hbnb/internal/persistence"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run(context.Background(), os.Stdout, os.Stderr, os.Args[1:]))
}

func run(ctx context.Context, out, errOut io.Writer, args []string) int {
	flags := flag.NewFlagSet("hbnb", flag.ContinueOnError)
	flags.SetInterspersed(false)
	flags.SetOutput(errOut)

	storageType := flags.StringP("storage", "s", "", "storage engine: file, db or kv (overrides configuration)")
	verbose := flags.BoolP("verbose", "v", false, "log storage activity to stderr")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	cfg, err := config.New()
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	if *storageType != "" {
		cfg.Storage.Type = *storageType
	}

	logger := zap.NewNop()
	if *verbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			fmt.Fprintln(errOut, "error:", err)
			return 1
		}
	}
	defer func() { _ = logger.Sync() }()

	registry := models.DefaultRegistry()

	handle, err := persistence.New(ctx, config.Persistence(cfg), registry, logger)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	defer func() {
		if shutdownErr := handle.Shutdown(ctx); shutdownErr != nil {
			fmt.Fprintln(errOut, "error:", shutdownErr)
		}
	}()

	if reloadErr := handle.Engine.Reload(ctx); reloadErr != nil {
		fmt.Fprintln(errOut, "error:", reloadErr)
		return 1
	}

	return console.New(handle.Engine, registry).Run(ctx, out, errOut, flags.Args())
}
