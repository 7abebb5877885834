// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package script

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/AleutianAI/statseq/pkg/logging"
	"github.com/AleutianAI/statseq/pkg/statseq"
	"github.com/AleutianAI/statseq/services/statseq/store"
)

func newInterp(t *testing.T, opts ...Option) *Interpreter {
	t.Helper()
	opts = append([]Option{WithStoreOptions(
		store.WithCheckInvariants(true),
		store.WithSequenceOptions(statseq.WithSeed(1)),
	)}, opts...)
	in := New(opts...)
	t.Cleanup(func() { _ = in.Close() })
	return in
}

func run(t *testing.T, in *Interpreter, src string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := in.Run(context.Background(), strings.NewReader(src), &out)
	return out.String(), err
}

// TestRun_Walkthrough replays the canonical usage session end to end.
func TestRun_Walkthrough(t *testing.T) {
	src := `
# build 5 3 1 2
push_back 3 1 2
push_front 5
print
min
max
median
mode

sort
print
next_perm
print

delete 2
print
update 5 7
print
unique

split 2
print
use right
print
registers
`
	want := strings.Join([]string{
		"5 3 1 2",
		"1",
		"5",
		"2.5",
		"1",
		"1 2 3 5",
		"true",
		"1 2 5 3",
		"1 5 3",
		"1 7 3",
		"1 3 7",
		"1 7",
		"3",
		"main *right",
	}, "\n") + "\n"

	in := newInterp(t)
	got, err := run(t, in, src)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, "right", in.Current())
}

func TestRun_UndefinedResults(t *testing.T) {
	src := "min\nmax\nmedian\nmode\nrandom\npop_back\npop_front\nfront\nback\nkth 0\ndelete 1\nupdate 1 2\nprint\nsize\nstats\n"
	got, err := run(t, newInterp(t), src)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	require.Len(t, lines, 15)
	for i := 0; i < 12; i++ {
		assert.Equal(t, "undefined", lines[i], "line %d", i+1)
	}
	assert.Equal(t, "", lines[12])
	assert.Equal(t, "0", lines[13])
	assert.True(t, strings.HasPrefix(lines[14], "len=0"))
}

func TestRun_Commands(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"sort desc", "push_back 2 9 4\nsort desc\nprint", "9 4 2\n"},
		{"prev perm wraps", "push_back 1 2 3\nprev_perm\nprint", "false\n3 2 1\n"},
		{"dedup", "push_back 3 1 3 2 1\ndedup\nprint", "2\n3 1 2\n"},
		{"delete_all", "push_back 4 1 4 4\ndelete_all 4\nprint", "3\n1\n"},
		{"contains and freq", "push_back 4 4\ncontains 4\ncontains 5\nfreq 4", "true\nfalse\n2\n"},
		{"kth", "push_back 10 20 30\nkth 1\nkth 3", "20\nundefined\n"},
		{"reverse rotate", "push_back 1 2 3 4\nreverse\nrotate 1\nprint\nrotate -1\nprint", "1 4 3 2\n4 3 2 1\n"},
		{"pops", "pushb 1 2 3\npop_front\npop_back\nprint\ntop", "1\n3\n2\n2\n"},
		{"push_front order", "push_back 9\npush_front 1 2\nprint", "1 2 9\n"},
		{"median odd", "push_back 5 1 3\nmedian", "3\n"},
		{"stats", "push_back 2 2 8\nstats", "len=3 distinct=2 min=2 max=8 median=2 mode=2 mode_count=2\n"},
		{"clear", "push_back 1\nclear\nsize", "0\n"},
		{"comment and case", "PUSH_BACK 1 # trailing\n   \nprint", "1\n"},
		{"split named", "push_back 1 2 3\nsplit 1 as tail\nuse tail\nprint", "2 3\n"},
		{"merge", "push_back 1 2 3\nsplit 1\nmerge right\nprint\nuse right\nsize", "1 2 3\n0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := run(t, newInterp(t), tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
		cmd  string
		want error
	}{
		{"unknown command", "push_back 1\nfrobnicate", 2, "frobnicate", ErrUnknownCommand},
		{"non integer", "push_back 1 x", 1, "push_back", ErrBadArgs},
		{"missing args", "\n\nkth", 3, "kth", ErrBadArgs},
		{"too many args", "min 1", 1, "min", ErrBadArgs},
		{"bad sort", "sort sideways", 1, "sort", ErrBadArgs},
		{"bad split", "split 1 into x", 1, "split", ErrBadArgs},
		{"split onto current", "split 1 as main", 1, "split", ErrBadArgs},
		{"unknown register", "merge ghost", 1, "merge", ErrUnknownRegister},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, newInterp(t), tt.src)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.line, pe.Line)
			assert.Equal(t, tt.cmd, pe.Cmd)
		})
	}
}

func TestRun_ContinueOnError(t *testing.T) {
	exp := logging.NewBufferedExporter()
	logger := logging.New(logging.Config{Quiet: true, Level: logging.LevelWarn, Exporter: exp})
	in := newInterp(t, ContinueOnError(true), WithLogger(logger))

	got, err := run(t, in, "push_back 1\nbogus\npush_back 2\nprint")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownCommand)
	assert.Equal(t, "error: line 2: bogus: unknown command\n1 2\n", got)

	require.Eventually(t, func() bool { return exp.Len() == 1 }, 2*time.Second, 5*time.Millisecond)
	entry := exp.Entries()[0]
	assert.Equal(t, "script line rejected", entry.Message)
	assert.Equal(t, logging.LevelWarn, entry.Level)
}

func TestRun_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := newInterp(t, ContinueOnError(true))
	var out bytes.Buffer
	err := in.Run(ctx, strings.NewReader("push_back 1\n"), &out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}

func TestExec(t *testing.T) {
	in := newInterp(t)
	var out bytes.Buffer
	ctx := context.Background()

	require.NoError(t, in.Exec(ctx, "push_back 4 2", &out))
	require.NoError(t, in.Exec(ctx, "median", &out))
	assert.Equal(t, "3\n", out.String())

	err := in.Exec(ctx, "nope", &out)
	assert.EqualError(t, err, "nope: unknown command")

	s, ok := in.Store(DefaultRegister)
	require.True(t, ok)
	assert.Equal(t, 2, s.Len())
}

func TestHelp(t *testing.T) {
	got, err := run(t, newInterp(t), "help")
	require.NoError(t, err)
	assert.Contains(t, got, "push_back v...")
	assert.Contains(t, got, "split k [as NAME]")
	assert.NotContains(t, got, "pushb")
}

func TestRun_Span(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, err := run(t, newInterp(t), "push_back 1 2\nmedian\n")
	require.NoError(t, err)
	_, err = run(t, newInterp(t), "bogus\n")
	require.Error(t, err)

	var runs []sdktrace.ReadOnlySpan
	for _, s := range rec.Ended() {
		if s.Name() == "script.Interpreter.Run" {
			runs = append(runs, s)
		}
	}
	require.Len(t, runs, 2)
	assert.Equal(t, codes.Ok, runs[0].Status().Code)
	assert.Contains(t, runs[0].Attributes(), attribute.Int("script.lines", 2))
	assert.Equal(t, codes.Error, runs[1].Status().Code)
}

func TestAdoptSplit_KeepsRightPartOnError(t *testing.T) {
	ctx := context.Background()
	in := newInterp(t)

	right := store.New()
	require.NoError(t, right.PushBack(ctx, 7, 8))
	err := in.adoptSplit("tail", right, &statseq.OpError{Op: "split", Err: statseq.ErrInvariantViolated})
	assert.ErrorIs(t, err, statseq.ErrInvariantViolated)

	got, ok := in.Store("tail")
	require.True(t, ok)
	assert.Same(t, right, got)
	assert.Equal(t, 2, got.Len())

	err = in.adoptSplit("lost", nil, context.Canceled)
	assert.ErrorIs(t, err, context.Canceled)
	_, ok = in.Store("lost")
	assert.False(t, ok)
}
