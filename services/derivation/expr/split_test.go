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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		delimiter  string
		want       []string
	}{
		{"single term", "p", Arrow, []string{"p"}},
		{"trimmed single term", "  p ∧ q  ", Arrow, []string{"p ∧ q"}},
		{"two terms", "p → q", Arrow, []string{"p", "q"}},
		{"curried chain", "p → q → p ∧ q", Arrow, []string{"p", "q", "p ∧ q"}},
		{"parenthesized argument", "(p → q) → r", Arrow, []string{"(p → q)", "r"}},
		{"nested groups", "f (g [a → b] {c → d}) → e", Arrow, []string{"f (g [a → b] {c → d})", "e"}},
		{"conjunction", "p ∧ (q ∧ r) ∧ s", Conjunction, []string{"p", "(q ∧ r)", "s"}},
		{"multi-rune delimiter", "a -> (b -> c) -> d", "->", []string{"a", "(b -> c)", "d"}},
		{"no spaces", "p→q", Arrow, []string{"p", "q"}},
		{"binder type", "∀ (n : Nat), n + 0 = n", Arrow, []string{"∀ (n : Nat), n + 0 = n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Split(tt.expression, tt.delimiter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplit_SingleTermIsIdempotent(t *testing.T) {
	inputs := []string{"p", "  Nat  ", "(a → b)", "List (Nat → Nat)", "x ∧ y"}
	for _, in := range inputs {
		got, err := Split(in, Arrow)
		require.NoError(t, err, in)
		require.Len(t, got, 1, in)

		again, err := Split(got[0], Arrow)
		require.NoError(t, err)
		assert.Equal(t, got, again)
	}
}

func TestSplit_DelimiterOnlyInsideBrackets(t *testing.T) {
	inputs := []string{"(p → q)", "[p → q → r]", "{a → (b → c)}", "f (x → y) [z → w]"}
	for _, in := range inputs {
		got, err := Split(in, Arrow)
		require.NoError(t, err, in)
		assert.Equal(t, []string{in}, got)
	}
}

func TestSplit_Malformed(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		reason     string
	}{
		{"empty", "", "empty expression"},
		{"blank", "   \n ", "empty expression"},
		{"unclosed bracket", "(p → q", "unbalanced brackets"},
		{"stray closer", "p) → (q", "closing bracket without opener"},
		{"leading delimiter", "→ p", "empty term"},
		{"trailing delimiter", "p →", "empty term"},
		{"doubled delimiter", "p → → q", "empty term"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split(tt.expression, Arrow)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedExpression))

			var malformedErr *MalformedExpressionError
			require.True(t, errors.As(err, &malformedErr))
			assert.Equal(t, tt.reason, malformedErr.Reason)
			assert.Equal(t, tt.expression, malformedErr.Expression)
		})
	}
}

func TestSplit_EmptyDelimiter(t *testing.T) {
	_, err := Split("p → q", "")
	assert.ErrorIs(t, err, ErrEmptyDelimiter)
}

func TestTerms_Canonicalizes(t *testing.T) {
	got, err := Terms("p   →\n  q\t→ r")
	require.NoError(t, err)
	assert.Equal(t, []string{"p", "q", "r"}, got)
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "p → q", Canonical("  p \n→\t q "))
	assert.Equal(t, "(p)", Canonical("(p)"))
	assert.Equal(t, "", Canonical("   "))
}

func TestJoinArrow(t *testing.T) {
	assert.Equal(t, "q → j → k", JoinArrow([]string{"q", "j", "k"}))
	assert.Equal(t, "k", JoinArrow([]string{"k"}))
}

func TestJoinConjunction(t *testing.T) {
	got, err := JoinConjunction([]string{"p", "q", "j"})
	require.NoError(t, err)
	assert.Equal(t, "p ∧ q ∧ j", got)

	got, err = JoinConjunction([]string{"x ∧ y", "(a → b)", "c"})
	require.NoError(t, err)
	assert.Equal(t, "(x ∧ y) ∧ (a → b) ∧ c", got)

	parts, err := Split(got, Conjunction)
	require.NoError(t, err)
	assert.Equal(t, []string{"(x ∧ y)", "(a → b)", "c"}, parts)
}

func TestJoinConjunction_Malformed(t *testing.T) {
	_, err := JoinConjunction([]string{"p", "(q"})
	assert.ErrorIs(t, err, ErrMalformedExpression)
}
