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
	"strings"
)

// Connectives recognised in signatures.
const (
	// Arrow separates the arguments of a curried signature.
	Arrow = "→"

	// Conjunction joins propositions into a tuple-like pair.
	Conjunction = "∧"
)

// Split decomposes an expression into its top-level terms.
//
// # Description
//
// Scans the expression rune by rune, tracking bracket depth. Whenever the
// last len(delimiter) runes equal the delimiter and every bracket opened so
// far has been closed, the text accumulated since the previous split point
// becomes a term. The remaining text at the end of input is the final term.
// Terms are trimmed of surrounding whitespace.
//
// # Inputs
//
//   - expression: The expression to split.
//   - delimiter: The separator, e.g. Arrow or Conjunction. Must not be empty.
//
// # Outputs
//
//   - []string: The terms in left-to-right order. Never empty on success.
//   - error: ErrEmptyDelimiter, or a *MalformedExpressionError when the
//     expression is empty, its brackets do not balance, or a term is empty.
//
// # Examples
//
//	Split("p → q → r", Arrow)        // ["p", "q", "r"]
//	Split("(p → q) ∧ r", Arrow)      // ["(p → q) ∧ r"]
//	Split("  p  ", Arrow)            // ["p"]
//
// # Limitations
//
//   - Bracket kinds are not matched against each other: "(]" balances.
func Split(expression, delimiter string) ([]string, error) {
	delim := []rune(delimiter)
	if len(delim) == 0 {
		return nil, ErrEmptyDelimiter
	}
	if strings.TrimSpace(expression) == "" {
		return nil, malformed(expression, 0, "empty expression")
	}

	runes := []rune(expression)
	terms := make([]string, 0, 4)
	current := make([]rune, 0, len(runes))
	window := make([]rune, 0, len(delim))
	depth := 0

	for i, r := range runes {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth < 0 {
				return nil, malformed(expression, i, "closing bracket without opener")
			}
		}

		window = append(window, r)
		if len(window) > len(delim) {
			window = window[1:]
		}

		if depth == 0 && equalRunes(window, delim) {
			// The delimiter's leading runes were accumulated before the match.
			term := strings.TrimSpace(string(current[:len(current)-(len(delim)-1)]))
			if term == "" {
				return nil, malformed(expression, i, "empty term")
			}
			terms = append(terms, term)
			current = current[:0]
			window = window[:0]
			continue
		}

		current = append(current, r)
	}

	if depth != 0 {
		return nil, malformed(expression, len(runes), "unbalanced brackets")
	}

	last := strings.TrimSpace(string(current))
	if last == "" {
		return nil, malformed(expression, len(runes), "empty term")
	}
	return append(terms, last), nil
}

// Terms canonicalizes an expression and splits it on the arrow.
func Terms(expression string) ([]string, error) {
	return Split(Canonical(expression), Arrow)
}

// Canonical returns the canonical form used for node identity.
//
// Every run of whitespace, newlines included, collapses to a single space and
// leading and trailing whitespace is removed. No other normalization is
// applied; "(p)" and "p" stay distinct.
func Canonical(expression string) string {
	return strings.Join(strings.Fields(expression), " ")
}

// JoinArrow re-assembles terms into a curried chain.
func JoinArrow(terms []string) string {
	return strings.Join(terms, " "+Arrow+" ")
}

// JoinConjunction joins terms into a right-nested conjunction.
//
// # Description
//
// A term that is itself a top-level conjunction or implication is wrapped in
// parentheses, so that splitting the result on Conjunction yields exactly the
// input terms again.
//
// # Outputs
//
//   - string: The joined expression.
//   - error: Non-nil if a term is malformed.
func JoinConjunction(terms []string) (string, error) {
	parts := make([]string, len(terms))
	for i, term := range terms {
		grouped, err := group(term)
		if err != nil {
			return "", err
		}
		parts[i] = grouped
	}
	return strings.Join(parts, " "+Conjunction+" "), nil
}

// group parenthesizes a term that would not survive as a conjunction operand.
func group(term string) (string, error) {
	for _, delim := range []string{Conjunction, Arrow} {
		parts, err := Split(term, delim)
		if err != nil {
			return "", err
		}
		if len(parts) > 1 {
			return "(" + term + ")", nil
		}
	}
	return term, nil
}

func equalRunes(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
