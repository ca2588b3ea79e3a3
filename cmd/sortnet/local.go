package main

import (
	"github.com/spf13/cobra"

	"github.com/cyberinferno/sortnet/sortio"
)

func newRunner(a *app, cmd *cobra.Command, reverse bool) (*sortio.Runner, func(), error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	log, err := newLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}

	r := sortio.NewRunner(cmd.InOrStdin(), cmd.OutOrStdout(), log)
	r.Reverse = reverse
	return r, func() { _ = log.Close() }, nil
}

func newKeyboardCmd(a *app) *cobra.Command {
	var reverse bool

	cmd := &cobra.Command{
		Use:   "keyboard",
		Short: "Sort values typed on the keyboard",
		Long:  `Read lines from standard input and print each one sorted. Enter q or an empty line to quit.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, done, err := newRunner(a, cmd, reverse)
			if err != nil {
				return err
			}
			defer done()

			return r.Keyboard()
		},
	}

	cmd.Flags().BoolVar(&reverse, "reverse", false, "sort in descending order")
	return cmd
}

func newFileCmd(a *app) *cobra.Command {
	var reverse bool

	cmd := &cobra.Command{
		Use:   "file <input> [output]",
		Short: "Sort the values in a file",
		Long:  `Sort the values in input and print them. When output is given the sorted values are also written there.`,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, done, err := newRunner(a, cmd, reverse)
			if err != nil {
				return err
			}
			defer done()

			output := ""
			if len(args) > 1 {
				output = args[1]
			}
			return r.File(args[0], output)
		},
	}

	cmd.Flags().BoolVar(&reverse, "reverse", false, "sort in descending order")
	return cmd
}

func newFileInPlaceCmd(a *app) *cobra.Command {
	var reverse bool

	cmd := &cobra.Command{
		Use:     "file-inplace <file>",
		Aliases: []string{"file_inplace"},
		Short:   "Sort the values in a file and write them back",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, done, err := newRunner(a, cmd, reverse)
			if err != nil {
				return err
			}
			defer done()

			return r.FileInPlace(args[0])
		},
	}

	cmd.Flags().BoolVar(&reverse, "reverse", false, "sort in descending order")
	return cmd
}
