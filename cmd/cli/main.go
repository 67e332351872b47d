package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/dmitrijs2005/keyvault/internal/client/cli"
	"github.com/dmitrijs2005/keyvault/internal/client/config"
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

	app, err := cli.NewApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	if err := app.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
