package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/dmitrijs2005/keyvault/internal/logging"
	"github.com/dmitrijs2005/keyvault/internal/server"
	"github.com/dmitrijs2005/keyvault/internal/server/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if errors.Is(err, pflag.ErrHelp) {
		fmt.Fprint(os.Stderr, config.FlagUsage())
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	logger := logging.NewJSON(os.Stdout, cfg.Debug)
	ctx := context.Background()

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "init failed", "error", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "app stopped with error", "error", err)
		os.Exit(1)
	}
}
