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
	"errors"
	"fmt"
)

var (
	// ErrUnknownCommand is returned for a command name not in the table.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrBadArgs is returned for a wrong argument count or a non-integer
	// argument.
	ErrBadArgs = errors.New("bad arguments")

	// ErrUnknownRegister is returned when merge names a register that does
	// not exist.
	ErrUnknownRegister = errors.New("unknown register")
)

// ParseError reports a failed script line.
type ParseError struct {
	// Line is 1-based. Zero for lines executed through Exec.
	Line int
	Cmd  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %v", e.Cmd, e.Err)
	}
	return fmt.Sprintf("line %d: %s: %v", e.Line, e.Cmd, e.Err)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *ParseError) Unwrap() error {
	return e.Err
}
