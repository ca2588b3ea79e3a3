package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cyberinferno/sortnet/tcpclient"
)

func newClientCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "client <data> [host] [port]",
		Short: "Send data to a sorting server",
		Long: `Check that the server is reachable, send data as one request and print the
response. Host and port default to localhost and 8080. Request failures are
printed, not reported through the exit status.`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}

			if len(args) > 1 {
				cfg.Client.Host = args[1]
			}
			if len(args) > 2 {
				if cfg.Client.Port, err = parsePort(args[2]); err != nil {
					return err
				}
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			log, err := newLogger(cfg.Log, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer log.Close()

			out := cmd.OutOrStdout()
			data := args[0]

			clientCfg := tcpclient.DefaultConfig(cfg.Client.Host, cfg.Client.Port)
			clientCfg.Logger = log
			client := tcpclient.New(clientCfg)

			headerColor.Fprintf(out, "=== Network Client Mode (%s:%d) ===\n", cfg.Client.Host, cfg.Client.Port)

			if !client.TestConnection() {
				errColor.Fprintf(out, "Cannot connect to server at %s:%d\n", cfg.Client.Host, cfg.Client.Port)
				fmt.Fprintln(out, "Make sure the server is running first.")
				return nil
			}

			fmt.Fprintf(out, "Sending data: %s\n", data)
			res := client.Send(data, cfg.Client.Timeout)
			if res.Err != nil {
				errColor.Fprintf(out, "Server response: %s\n", res.Text())
				return nil
			}

			okColor.Fprintf(out, "Server response: %s\n", res.Response)
			return nil
		},
	}
}
