// Package flagx holds command-line helpers shared by the server and CLI.
package flagx

import (
	"io"

	"github.com/spf13/pflag"
)

// ConfigFile extracts the config file path given with -c/--config, ignoring
// every other flag so the caller can parse its own set afterwards.
// An empty string means no file was requested.
func ConfigFile(args []string) string {
	var config string

	fs := pflag.NewFlagSet("config", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.ParseErrorsAllowlist.UnknownFlags = true
	fs.StringVarP(&config, "config", "c", "", "path to config file (JSON or YAML)")
	_ = fs.Parse(args)

	return config
}
