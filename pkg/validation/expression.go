// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation checks untrusted proposition text before it reaches
// the derivation graph.
//
// Expressions arrive from HTTP bodies and command lines and end up in
// logs, span attributes and metric-bearing code paths, so they are bounded
// in size and restricted to printable text.
package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxExpressionLength bounds an expression in bytes.
const MaxExpressionLength = 4096

var (
	// ErrEmptyExpression is returned for empty or all-whitespace input.
	ErrEmptyExpression = errors.New("expression cannot be empty")

	// ErrInvalidExpression is returned for oversized or non-printable input.
	ErrInvalidExpression = errors.New("invalid expression")
)

// ValidateExpression checks a proposition supplied by a user.
//
// Valid expressions:
//   - contain at least one non-space character
//   - are at most MaxExpressionLength bytes
//   - are valid UTF-8
//   - contain no control characters other than tab and newline
//
// Parenthesis balance is not checked here; expr.Split reports it with an
// offset.
//
// Example:
//
//	if err := validation.ValidateExpression(req.From); err != nil {
//	    return fmt.Errorf("from: %w", err)
//	}
func ValidateExpression(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmptyExpression
	}
	if len(s) > MaxExpressionLength {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrInvalidExpression, len(s), MaxExpressionLength)
	}
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: not valid UTF-8", ErrInvalidExpression)
	}
	for i, r := range s {
		if unicode.IsControl(r) && r != '\t' && r != '\n' {
			return fmt.Errorf("%w: control character %U at byte %d", ErrInvalidExpression, r, i)
		}
	}
	return nil
}

// ValidateExpressions validates several expressions, naming each failure.
func ValidateExpressions(named map[string]string) error {
	var errs []error
	for _, name := range sortedKeys(named) {
		if err := ValidateExpression(named[name]); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
