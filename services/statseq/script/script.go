// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package script runs line-oriented statseq command scripts.
//
// One command per line; tokens are separated by whitespace; everything
// after '#' is a comment. Queries print one line, and an undefined result
// (a statistic of an empty sequence, a missing position) prints
// "undefined". Mutations print nothing unless they report a count or a
// missing value.
//
//	push_back 3 1 2
//	push_front 5
//	print        # 5 3 1 2
//	median       # 2.5
//	split 2      # right part goes to register "right"
//	use right
//	print        # 1 2
//
// Several sequences can be held at once in named registers. "main" is
// current at start; "use NAME" switches (creating NAME if needed).
package script

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/statseq/pkg/logging"
	"github.com/AleutianAI/statseq/services/statseq/store"
	"github.com/AleutianAI/statseq/services/statseq/telemetry"
)

// DefaultRegister is the register current when an Interpreter starts.
const DefaultRegister = "main"

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithStoreOptions is applied to every store the interpreter creates.
func WithStoreOptions(opts ...store.Option) Option {
	return func(in *Interpreter) {
		in.storeOpts = append(in.storeOpts, opts...)
	}
}

// WithLogger sets the logger for rejected lines. Default: logging.Nop().
func WithLogger(l *logging.Logger) Option {
	return func(in *Interpreter) {
		if l != nil {
			in.logger = l
		}
	}
}

// ContinueOnError keeps running after a failed line. The failure is
// printed as "error: ..." and the first one is returned at the end.
func ContinueOnError(on bool) Option {
	return func(in *Interpreter) {
		in.continueOnError = on
	}
}

// Interpreter executes commands against named stores.
//
// Thread Safety: NOT safe for concurrent use. The stores it holds are.
type Interpreter struct {
	regs            map[string]*store.Store
	current         string
	storeOpts       []store.Option
	logger          *logging.Logger
	continueOnError bool
}

// New creates an Interpreter with an empty "main" register.
func New(opts ...Option) *Interpreter {
	in := &Interpreter{
		regs:    make(map[string]*store.Store),
		current: DefaultRegister,
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(in)
	}
	in.storeOpts = append([]store.Option{store.WithLogger(in.logger)}, in.storeOpts...)
	in.regs[DefaultRegister] = in.newStore()
	return in
}

func (in *Interpreter) newStore() *store.Store {
	return store.New(in.storeOpts...)
}

// Current returns the name of the current register.
func (in *Interpreter) Current() string {
	return in.current
}

// Store returns the store held in register name.
func (in *Interpreter) Store(name string) (*store.Store, bool) {
	s, ok := in.regs[name]
	return s, ok
}

// Registers returns the register names in sorted order.
func (in *Interpreter) Registers() []string {
	return slices.Sorted(maps.Keys(in.regs))
}

// Run executes every line read from r, writing output to w.
//
// Description:
//
//	Stops at the first failing line unless ContinueOnError is set. A
//	canceled ctx stops the run between lines and is returned as is.
//
// Outputs:
//   - error: *ParseError for a failed line, ctx.Err(), or a read error.
func (in *Interpreter) Run(ctx context.Context, r io.Reader, w io.Writer) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "statseq.script", "script.Interpreter.Run")
	lineNo := 0
	defer func() {
		span.SetAttributes(attribute.Int("script.lines", lineNo))
		if err != nil {
			telemetry.RecordError(span, err)
		} else {
			telemetry.SetSpanOK(span)
		}
		span.End()
	}()

	scanner := bufio.NewScanner(r)
	var first error
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return err
		}
		err := in.exec(ctx, lineNo, scanner.Text(), w)
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if !in.continueOnError {
			return err
		}
		fmt.Fprintf(w, "error: %v\n", err)
		if first == nil {
			first = err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	return first
}

// Exec runs a single line. Used by the interactive shell.
func (in *Interpreter) Exec(ctx context.Context, line string, w io.Writer) error {
	return in.exec(ctx, 0, line, w)
}

func (in *Interpreter) exec(ctx context.Context, lineNo int, line string, w io.Writer) error {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	cmd, ok := commandTable[name]
	if !ok {
		return in.reject(lineNo, name, ErrUnknownCommand)
	}
	if len(args) < cmd.minArgs || (cmd.maxArgs >= 0 && len(args) > cmd.maxArgs) {
		return in.reject(lineNo, name, fmt.Errorf("%w: usage: %s", ErrBadArgs, cmd.usage))
	}
	if err := cmd.run(ctx, in, args, w); err != nil {
		return in.reject(lineNo, name, err)
	}
	return nil
}

func (in *Interpreter) reject(lineNo int, name string, err error) error {
	in.logger.Warn("script line rejected", "line", lineNo, "cmd", name, "error", err)
	return &ParseError{Line: lineNo, Cmd: name, Err: err}
}

// cur returns the current store, creating it when missing.
func (in *Interpreter) cur() *store.Store {
	s, ok := in.regs[in.current]
	if !ok {
		s = in.newStore()
		in.regs[in.current] = s
	}
	return s
}

// Close closes every store.
func (in *Interpreter) Close() error {
	var errs []error
	for _, s := range in.regs {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
