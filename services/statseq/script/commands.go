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
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/AleutianAI/statseq/pkg/statseq"
	"github.com/AleutianAI/statseq/services/statseq/store"
)

// =============================================================================
// Command table
// =============================================================================

type command struct {
	minArgs int
	maxArgs int // -1 for variadic
	usage   string
	help    string
	run     func(ctx context.Context, in *Interpreter, args []string, w io.Writer) error
}

var commandTable map[string]command

func init() {
	commandTable = map[string]command{
		"push_back":  {1, -1, "push_back v...", "append values", cmdPushBack},
		"push_front": {1, -1, "push_front v...", "prepend values, keeping their order", cmdPushFront},
		"pop_back":   {0, 0, "pop_back", "remove and print the last value", intQuery((*store.Store).PopBack)},
		"pop_front":  {0, 0, "pop_front", "remove and print the first value", intQuery((*store.Store).PopFront)},
		"front":      {0, 0, "front", "print the first value", intQuery((*store.Store).Front)},
		"back":       {0, 0, "back", "print the last value", intQuery((*store.Store).Back)},
		"top":        {0, 0, "top", "alias of back", intQuery((*store.Store).Back)},
		"kth":        {1, 1, "kth k", "print the value at 0-indexed position k", cmdKth},
		"contains":   {1, 1, "contains v", "print true if v is present", cmdContains},
		"freq":       {1, 1, "freq v", "print the number of occurrences of v", cmdFreq},
		"min":        {0, 0, "min", "print the smallest value", intQuery((*store.Store).Min)},
		"max":        {0, 0, "max", "print the largest value", intQuery((*store.Store).Max)},
		"median":     {0, 0, "median", "print the median", cmdMedian},
		"mode":       {0, 0, "mode", "print the most frequent value", intQuery((*store.Store).Mode)},
		"random":     {0, 0, "random", "print a uniformly chosen value", intQuery((*store.Store).Random)},
		"delete":     {1, 1, "delete v", "remove one occurrence of v", cmdDelete},
		"delete_all": {1, 1, "delete_all v", "remove every occurrence of v and print the count", cmdDeleteAll},
		"update":     {2, 2, "update old new", "rewrite one occurrence of old to new in place", cmdUpdate},
		"sort":       {0, 1, "sort [asc|desc]", "sort the values", cmdSort},
		"next_perm":  {0, 0, "next_perm", "advance to the next permutation; prints false on wrap", boolMutation((*store.Store).NextPermutation)},
		"prev_perm":  {0, 0, "prev_perm", "step to the previous permutation; prints false on wrap", boolMutation((*store.Store).PrevPermutation)},
		"dedup":      {0, 0, "dedup", "keep first occurrences only and print the count removed", cmdDedup},
		"unique":     {0, 0, "unique", "print the distinct values in ascending order", cmdUnique},
		"reverse":    {0, 0, "reverse", "reverse the order", cmdReverse},
		"rotate":     {1, 1, "rotate k", "rotate right by k (negative rotates left)", cmdRotate},
		"split":      {1, 3, "split k [as NAME]", "keep the first k values; the rest go to NAME (default right)", cmdSplit},
		"merge":      {1, 1, "merge NAME", "append register NAME and leave it empty", cmdMerge},
		"use":        {1, 1, "use NAME", "switch to register NAME, creating it if needed", cmdUse},
		"registers":  {0, 0, "registers", "list register names", cmdRegisters},
		"print":      {0, 0, "print", "print the values front to back", cmdPrint},
		"stats":      {0, 0, "stats", "print every statistic on one line", cmdStats},
		"size":       {0, 0, "size", "print the number of values", cmdSize},
		"clear":      {0, 0, "clear", "remove every value", cmdClear},
		"help":       {0, 0, "help", "list commands", cmdHelp},
	}
	commandTable["pushb"] = commandTable["push_back"]
	commandTable["pushf"] = commandTable["push_front"]
	commandTable["unique_elements"] = commandTable["unique"]
}

// =============================================================================
// Helpers
// =============================================================================

const undefined = "undefined"

func parseInts(args []string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrBadArgs, a)
		}
		out[i] = v
	}
	return out, nil
}

func parseInt(arg string) (int, error) {
	vals, err := parseInts([]string{arg})
	if err != nil {
		return 0, err
	}
	return vals[0], nil
}

// isAbsent reports whether err is an undefined result rather than a failure.
func isAbsent(err error) bool {
	return errors.Is(err, statseq.ErrEmpty) ||
		errors.Is(err, statseq.ErrOutOfRange) ||
		errors.Is(err, statseq.ErrNotFound)
}

func printInt(w io.Writer, v int, err error) error {
	if isAbsent(err) {
		_, werr := fmt.Fprintln(w, undefined)
		return werr
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, v)
	return err
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func joinInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " ")
}

func intQuery(fn func(*store.Store, context.Context) (int, error)) func(context.Context, *Interpreter, []string, io.Writer) error {
	return func(ctx context.Context, in *Interpreter, _ []string, w io.Writer) error {
		v, err := fn(in.cur(), ctx)
		return printInt(w, v, err)
	}
}

func boolMutation(fn func(*store.Store, context.Context) (bool, error)) func(context.Context, *Interpreter, []string, io.Writer) error {
	return func(ctx context.Context, in *Interpreter, _ []string, w io.Writer) error {
		ok, err := fn(in.cur(), ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, ok)
		return err
	}
}

// =============================================================================
// Commands
// =============================================================================

func cmdPushBack(ctx context.Context, in *Interpreter, args []string, _ io.Writer) error {
	vals, err := parseInts(args)
	if err != nil {
		return err
	}
	return in.cur().PushBack(ctx, vals...)
}

func cmdPushFront(ctx context.Context, in *Interpreter, args []string, _ io.Writer) error {
	vals, err := parseInts(args)
	if err != nil {
		return err
	}
	return in.cur().PushFront(ctx, vals...)
}

func cmdKth(ctx context.Context, in *Interpreter, args []string, w io.Writer) error {
	k, err := parseInt(args[0])
	if err != nil {
		return err
	}
	v, err := in.cur().Kth(ctx, k)
	return printInt(w, v, err)
}

func cmdContains(ctx context.Context, in *Interpreter, args []string, w io.Writer) error {
	v, err := parseInt(args[0])
	if err != nil {
		return err
	}
	ok, err := in.cur().Contains(ctx, v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, ok)
	return err
}

func cmdFreq(ctx context.Context, in *Interpreter, args []string, w io.Writer) error {
	v, err := parseInt(args[0])
	if err != nil {
		return err
	}
	n, err := in.cur().Frequency(ctx, v)
	return printInt(w, n, err)
}

func cmdMedian(ctx context.Context, in *Interpreter, _ []string, w io.Writer) error {
	m, err := in.cur().Median(ctx)
	if isAbsent(err) {
		_, err = fmt.Fprintln(w, undefined)
		return err
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, formatFloat(m))
	return err
}

func cmdDelete(ctx context.Context, in *Interpreter, args []string, w io.Writer) error {
	v, err := parseInt(args[0])
	if err != nil {
		return err
	}
	err = in.cur().Delete(ctx, v)
	if isAbsent(err) {
		_, err = fmt.Fprintln(w, undefined)
	}
	return err
}

func cmdDeleteAll(ctx context.Context, in *Interpreter, args []string, w io.Writer) error {
	v, err := parseInt(args[0])
	if err != nil {
		return err
	}
	n, err := in.cur().DeleteAll(ctx, v)
	return printInt(w, n, err)
}

func cmdUpdate(ctx context.Context, in *Interpreter, args []string, w io.Writer) error {
	vals, err := parseInts(args)
	if err != nil {
		return err
	}
	err = in.cur().Update(ctx, vals[0], vals[1])
	if isAbsent(err) {
		_, err = fmt.Fprintln(w, undefined)
	}
	return err
}

func cmdSort(ctx context.Context, in *Interpreter, args []string, _ io.Writer) error {
	dir := "asc"
	if len(args) == 1 {
		dir = strings.ToLower(args[0])
	}
	switch dir {
	case "asc", "ascending":
		return in.cur().SortAscending(ctx)
	case "desc", "descending":
		return in.cur().SortDescending(ctx)
	default:
		return fmt.Errorf("%w: sort direction must be asc or desc, got %q", ErrBadArgs, args[0])
	}
}

func cmdDedup(ctx context.Context, in *Interpreter, _ []string, w io.Writer) error {
	n, err := in.cur().RemoveDuplicates(ctx)
	return printInt(w, n, err)
}

func cmdUnique(ctx context.Context, in *Interpreter, _ []string, w io.Writer) error {
	vals, err := in.cur().Unique(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, joinInts(vals))
	return err
}

func cmdReverse(ctx context.Context, in *Interpreter, _ []string, _ io.Writer) error {
	return in.cur().Reverse(ctx)
}

func cmdRotate(ctx context.Context, in *Interpreter, args []string, _ io.Writer) error {
	k, err := parseInt(args[0])
	if err != nil {
		return err
	}
	return in.cur().Rotate(ctx, k)
}

func cmdSplit(ctx context.Context, in *Interpreter, args []string, _ io.Writer) error {
	k, err := parseInt(args[0])
	if err != nil {
		return err
	}
	target := "right"
	switch len(args) {
	case 1:
	case 3:
		if strings.ToLower(args[1]) != "as" {
			return fmt.Errorf("%w: usage: split k [as NAME]", ErrBadArgs)
		}
		target = args[2]
	default:
		return fmt.Errorf("%w: usage: split k [as NAME]", ErrBadArgs)
	}
	if target == in.current {
		return fmt.Errorf("%w: split target %q is the current register", ErrBadArgs, target)
	}

	right, err := in.cur().Split(ctx, k)
	return in.adoptSplit(target, right, err)
}

// adoptSplit installs right under target. right is kept even when err
// reports a failed invariant check; its elements have already left the
// current register.
func (in *Interpreter) adoptSplit(target string, right *store.Store, err error) error {
	if right == nil {
		return err
	}
	if old, ok := in.regs[target]; ok {
		_ = old.Close()
	}
	in.regs[target] = right
	return err
}

func cmdMerge(ctx context.Context, in *Interpreter, args []string, _ io.Writer) error {
	other, ok := in.regs[args[0]]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRegister, args[0])
	}
	return in.cur().Merge(ctx, other)
}

func cmdUse(_ context.Context, in *Interpreter, args []string, _ io.Writer) error {
	in.current = args[0]
	in.cur()
	return nil
}

func cmdRegisters(_ context.Context, in *Interpreter, _ []string, w io.Writer) error {
	names := in.Registers()
	for i, n := range names {
		if n == in.current {
			names[i] = "*" + n
		}
	}
	_, err := fmt.Fprintln(w, strings.Join(names, " "))
	return err
}

func cmdPrint(ctx context.Context, in *Interpreter, _ []string, w io.Writer) error {
	vals, err := in.cur().Values(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, joinInts(vals))
	return err
}

func cmdStats(ctx context.Context, in *Interpreter, _ []string, w io.Writer) error {
	snap, err := in.cur().Stats(ctx)
	if err != nil {
		return err
	}
	if !snap.HasStats {
		_, err = fmt.Fprintf(w, "len=0 distinct=0 min=%s max=%s median=%s mode=%s\n",
			undefined, undefined, undefined, undefined)
		return err
	}
	_, err = fmt.Fprintf(w, "len=%d distinct=%d min=%d max=%d median=%s mode=%d mode_count=%d\n",
		snap.Len, snap.Distinct, snap.Min, snap.Max, formatFloat(snap.Median), snap.Mode, snap.ModeCount)
	return err
}

func cmdSize(_ context.Context, in *Interpreter, _ []string, w io.Writer) error {
	_, err := fmt.Fprintln(w, in.cur().Len())
	return err
}

func cmdClear(ctx context.Context, in *Interpreter, _ []string, _ io.Writer) error {
	return in.cur().Clear(ctx)
}

func cmdHelp(_ context.Context, _ *Interpreter, _ []string, w io.Writer) error {
	for _, name := range slices.Sorted(maps.Keys(commandTable)) {
		cmd := commandTable[name]
		if !strings.HasPrefix(cmd.usage, name) {
			continue // alias
		}
		if _, err := fmt.Fprintf(w, "  %-20s %s\n", cmd.usage, cmd.help); err != nil {
			return err
		}
	}
	return nil
}
