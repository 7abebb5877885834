// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/statseq/services/statseq/script"
)

const prompt = "statseq> "

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "statseq",
		Short:         "Run scripts against an ordered int sequence with O(1) statistics",
		Long:          `statseq holds ordered, duplicate-permitting int sequences and answers min, max, median, mode and random queries in constant time.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "YAML or JSON config file")
	pf.StringVar(&flags.logLevel, "log-level", "info", "debug, info, warn or error")
	pf.Uint64Var(&flags.seed, "seed", 0, "seed for random (default: clock)")
	pf.StringVar(&flags.metricsAddr, "metrics-addr", "", "serve Prometheus /metrics on this address")
	pf.StringVar(&flags.traceExporter, "trace-exporter", "none", "none, stdout or otlp")

	root.AddCommand(
		newRunCmd(flags),
		newReplCmd(flags),
		newVersionCmd(),
	)
	return root
}

func newRunCmd(flags *globalFlags) *cobra.Command {
	var keepGoing bool

	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Execute a script file, or stdin when no file is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			var r io.Reader = cmd.InOrStdin()
			name := "stdin"
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open script: %w", err)
				}
				defer f.Close()
				r, name = f, args[0]
			}

			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := a.close(); err == nil {
					err = cerr
				}
			}()

			return a.serve(cmd.Context(), func(ctx context.Context) error {
				in := a.interpreter(script.ContinueOnError(keepGoing))
				defer in.Close()

				a.logger.Info("running script", "source", name)
				if err := in.Run(ctx, r, cmd.OutOrStdout()); err != nil {
					return err
				}
				a.logger.Info("script finished", "source", name)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&keepGoing, "keep-going", "k", false, "continue after a failing line")
	return cmd
}

func newReplCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Read commands interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := a.close(); err == nil {
					err = cerr
				}
			}()

			return a.serve(cmd.Context(), func(ctx context.Context) error {
				in := a.interpreter()
				defer in.Close()
				return repl(ctx, in, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), isTerminal(cmd.InOrStdin()))
			})
		},
	}
}

// repl executes lines until EOF, "quit" or "exit". Failed lines are
// reported on errOut and do not end the session.
func repl(ctx context.Context, in *script.Interpreter, r io.Reader, out, errOut io.Writer, interactive bool) error {
	scanner := bufio.NewScanner(r)
	for {
		if interactive {
			fmt.Fprint(out, prompt)
		}
		if !scanner.Scan() {
			if interactive {
				fmt.Fprintln(out)
			}
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "quit", "exit":
			return nil
		}
		if err := in.Exec(ctx, line, out); err != nil {
			fmt.Fprintln(errOut, "error:", err)
		}
	}
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "statseq %s\n", version)
		},
	}
}
