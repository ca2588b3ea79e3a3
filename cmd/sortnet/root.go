package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cyberinferno/sortnet/config"
	"github.com/cyberinferno/sortnet/logger"
)

// app holds the global flags shared by every subcommand.
type app struct {
	cfgFile  string
	envFile  string
	logLevel string
}

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	okColor     = color.New(color.FgGreen)
	warnColor   = color.New(color.FgYellow)
	errColor    = color.New(color.FgRed)
)

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "sortnet",
		Short: "sortnet - sort whitespace separated values locally or over TCP",
		Long: `sortnet sorts integers, floats and words. It can:
- sort lines typed on the keyboard
- sort a file to the screen, to another file, or in place
- run a TCP server that sorts every request it receives
- send a request to a running server

Examples:
  sortnet keyboard
  sortnet file numbers.txt sorted.txt
  sortnet file-inplace data.txt
  sortnet server 8080
  sortnet client '3 1 4 1 5 9 2 6' localhost 8080`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "TOML config file")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before SORTNET_* variables")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newServerCmd(a),
		newClientCmd(a),
		newKeyboardCmd(a),
		newFileCmd(a),
		newFileInPlaceCmd(a),
		newSelftestCmd(a),
	)

	return root
}

// loadConfig layers the config file, env file and environment, then applies
// the --log-level flag.
func (a *app) loadConfig() (config.Config, error) {
	cfg := config.Default()

	if a.cfgFile != "" {
		if err := cfg.LoadFile(a.cfgFile); err != nil {
			return config.Config{}, err
		}
	}

	if err := cfg.LoadEnv(a.envFile); err != nil {
		return config.Config{}, err
	}

	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	return cfg, nil
}

func newLogger(cfg config.Log, out io.Writer) (logger.Logger, error) {
	level, err := logger.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	return logger.New(logger.Options{
		Service: cfg.Service,
		Level:   level,
		Dir:     cfg.Dir,
		Console: true,
		Out:     out,
	})
}

func parsePort(arg string) (int, error) {
	port, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: %w", arg, err)
	}
	return port, nil
}
