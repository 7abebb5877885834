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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/statseq/services/statseq/script"
)

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestRunCmd_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.txt")
	require.NoError(t, os.WriteFile(path, []byte("push_back 3 1 2\npush_front 5\nprint\nmedian\n"), 0600))

	out, _, err := execute(t, "", "run", "--log-level", "error", path)
	require.NoError(t, err)
	assert.Equal(t, "5 3 1 2\n2.5\n", out)
}

func TestRunCmd_Stdin(t *testing.T) {
	out, _, err := execute(t, "push_back 4 4 1\nmode\nrandom\n", "run", "--seed", "3", "--log-level", "error")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "4", lines[0])
	assert.Contains(t, []string{"4", "1"}, lines[1])
}

func TestRunCmd_SeedIsReproducible(t *testing.T) {
	src := strings.Repeat("push_back 1 2 3 4 5 6 7 8 9\n", 1) + strings.Repeat("random\n", 10)
	first, _, err := execute(t, src, "run", "--seed", "42", "--log-level", "error")
	require.NoError(t, err)
	second, _, err := execute(t, src, "run", "--seed", "42", "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRunCmd_FailingLine(t *testing.T) {
	_, _, err := execute(t, "push_back 1\nwhat\nprint\n", "run", "--log-level", "error")
	require.Error(t, err)
	assert.ErrorIs(t, err, script.ErrUnknownCommand)

	out, _, err := execute(t, "push_back 1\nwhat\nprint\n", "run", "-k", "--log-level", "error")
	require.Error(t, err)
	assert.Equal(t, "error: line 2: what: unknown command\n1\n", out)
}

func TestRunCmd_MissingFile(t *testing.T) {
	_, _, err := execute(t, "", "run", filepath.Join(t.TempDir(), "absent.txt"))
	assert.ErrorContains(t, err, "open script")
}

func TestRunCmd_InvalidFlags(t *testing.T) {
	_, _, err := execute(t, "", "run", "--log-level", "chatty")
	assert.ErrorContains(t, err, "logging.level")

	_, _, err = execute(t, "", "run", "--trace-exporter", "zipkin")
	assert.ErrorContains(t, err, "trace_exporter")
}

func TestRunCmd_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statseq.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sequence:\n  check_invariants: true\nlogging:\n  level: error\n"), 0600))

	out, _, err := execute(t, "push_back 2 9\nmax\n", "run", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "9\n", out)
}

func TestReplCmd(t *testing.T) {
	out, errOut, err := execute(t, "push_back 1 3\nmedian\nbogus\nsize\nquit\nsize\n", "repl", "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, "2\n2\n", out, "no prompt when stdin is not a terminal; quit stops reading")
	assert.Contains(t, errOut, "error: bogus: unknown command")
}

func TestRepl_InteractivePrompt(t *testing.T) {
	in := script.New()
	defer in.Close()

	var out, errOut bytes.Buffer
	err := repl(context.Background(), in, strings.NewReader("push_back 7\nmax\n"), &out, &errOut, true)
	require.NoError(t, err)
	assert.Equal(t, prompt+prompt+"7\n"+prompt+"\n", out.String())
}

func TestVersionCmd(t *testing.T) {
	out, _, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "statseq dev\n", out)
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, isTerminal(strings.NewReader("")))

	f, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, isTerminal(f))
}
