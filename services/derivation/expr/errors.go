// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package expr

import (
	"errors"
	"fmt"
)

// Sentinel errors for expression handling.
var (
	// ErrMalformedExpression is returned when an expression cannot be split,
	// e.g. its brackets are unbalanced or a term between delimiters is empty.
	ErrMalformedExpression = errors.New("malformed expression")

	// ErrEmptyDelimiter is returned when Split is called with an empty delimiter.
	ErrEmptyDelimiter = errors.New("delimiter must not be empty")
)

// MalformedExpressionError provides details about an expression that could
// not be split.
type MalformedExpressionError struct {
	// Expression is the input as given to Split.
	Expression string

	// Offset is the rune offset at which the problem was detected.
	Offset int

	// Reason is a short description of the problem.
	Reason string
}

// Error implements the error interface.
func (e *MalformedExpressionError) Error() string {
	return fmt.Sprintf("malformed expression %q at offset %d: %s", e.Expression, e.Offset, e.Reason)
}

// Unwrap returns the sentinel error.
func (e *MalformedExpressionError) Unwrap() error {
	return ErrMalformedExpression
}

func malformed(expression string, offset int, reason string) error {
	return &MalformedExpressionError{Expression: expression, Offset: offset, Reason: reason}
}
