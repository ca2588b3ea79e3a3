package main

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/cyberinferno/sortnet/handler"
	"github.com/cyberinferno/sortnet/logger"
	"github.com/cyberinferno/sortnet/perfmonitor"
	"github.com/cyberinferno/sortnet/tcpclient"
	"github.com/cyberinferno/sortnet/tcpserver"
	"github.com/cyberinferno/sortnet/value"
)

type check struct {
	name string
	run  func(log logger.Logger) error
}

func newSelftestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "selftest",
		Short: "Run the built-in sorting, parsing and loopback network checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}

			log, err := newLogger(cfg.Log, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer log.Close()

			return runChecks(cmd.OutOrStdout(), log, selfChecks())
		},
	}
}

func runChecks(out io.Writer, log logger.Logger, checks []check) error {
	headerColor.Fprintln(out, "=== Running Self Test ===")

	failed := 0
	pm := perfmonitor.NewPerformanceMonitor()
	for i, c := range checks {
		pm.Reset()
		pm.Start()
		err := c.run(log)
		pm.Stop()

		if err != nil {
			failed++
			errColor.Fprintf(out, "%d. %-28s FAIL %v\n", i+1, c.name, err)
			continue
		}
		okColor.Fprintf(out, "%d. %-28s ok   (%.2fms)\n", i+1, c.name, pm.ElapsedMilliseconds())
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(checks))
	}

	headerColor.Fprintln(out, "=== All Checks Passed ===")
	return nil
}

func expectSorted(in []value.Value, reverse bool, want string) error {
	got, err := value.Sort(in, reverse)
	if err != nil {
		return err
	}
	if !value.IsSorted(got, reverse) {
		return fmt.Errorf("result %q is not ordered", value.Join(got))
	}
	if value.Join(got) != want {
		return fmt.Errorf("got %q, want %q", value.Join(got), want)
	}
	return nil
}

func selfChecks() []check {
	return []check{
		{"sort integers", func(logger.Logger) error {
			return expectSorted(value.Parse("64 34 25 12 22 11 90"), false, "11 12 22 25 34 64 90")
		}},
		{"sort words", func(logger.Logger) error {
			return expectSorted(value.Parse("zebra apple banana cherry"), false, "apple banana cherry zebra")
		}},
		{"sort descending", func(logger.Logger) error {
			return expectSorted(value.Parse("1 2.5 -3"), true, "2.5 1 -3")
		}},
		{"mixed types keep order", func(logger.Logger) error {
			in := value.Parse("3.14 42 apple 1.41")
			got, err := value.Sort(in, false)
			if !errors.Is(err, value.ErrIncomparable) {
				return fmt.Errorf("expected incomparable error, got %v", err)
			}
			if value.Join(got) != "3.14 42 apple 1.41" {
				return fmt.Errorf("order changed to %q", value.Join(got))
			}
			return nil
		}},
		{"parse kinds", func(logger.Logger) error {
			want := []value.Kind{value.Integer, value.Float, value.Text, value.Integer, value.Text}
			got := value.Parse("42 3.14 apple 99 zebra")
			if len(got) != len(want) {
				return fmt.Errorf("parsed %d values, want %d", len(got), len(want))
			}
			for i, v := range got {
				if v.Kind() != want[i] {
					return fmt.Errorf("token %d parsed as %s, want %s", i, v.Kind(), want[i])
				}
			}
			return nil
		}},
		{"loopback round trip", loopbackCheck},
		{"unreachable server", unreachableCheck},
	}
}

func loopbackCheck(log logger.Logger) error {
	srv := tcpserver.New(tcpserver.Config{Name: "selftest", Host: "127.0.0.1", Logger: log})
	if err := srv.SetHandler(handler.Timed(handler.DefaultSorting(log), log)); err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}
	defer srv.Stop()

	port := srv.Addr().(*net.TCPAddr).Port
	client := tcpclient.New(tcpclient.Config{Host: "127.0.0.1", Port: port, Logger: log})
	if !client.TestConnection() {
		return errors.New("server not reachable")
	}

	res := client.Send("3 1 4 1 5 9 2 6", 2*time.Second)
	if res.Err != nil {
		return res.Err
	}
	if res.Response != "1 1 2 3 4 5 6 9" {
		return fmt.Errorf("unexpected response %q", res.Response)
	}
	return nil
}

func unreachableCheck(log logger.Logger) error {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return err
	}
	_, portStr, _ := net.SplitHostPort(ln.Addr().String())
	_ = ln.Close()

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return err
	}

	client := tcpclient.New(tcpclient.Config{Host: "127.0.0.1", Port: port, Logger: log})
	if client.TestConnection() {
		return errors.New("probe succeeded against a closed port")
	}

	res := client.Send("test data", time.Second)
	if !errors.Is(res.Err, tcpclient.ErrConnectionRefused) {
		return fmt.Errorf("expected connection refused, got %v", res.Err)
	}
	return nil
}
