// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package expr splits and assembles proposition expressions.
//
// An expression is the canonical string form of a proposition or type built
// from atomic identifiers with two binary connectives: the arrow (→,
// implication, right-associative) and the conjunction (∧, pairing). Nothing in
// this package interprets an expression beyond its bracket structure; two
// expressions name the same proposition only when their canonical strings are
// byte-identical.
//
// # Splitting
//
// Split decomposes an expression into its top-level terms along a delimiter,
// ignoring delimiters that appear inside (), [] or {} groups:
//
//	Split("p → (q → r) → s", Arrow)  // ["p", "(q → r)", "s"]
//
// # Thread Safety
//
// All functions are pure and safe for concurrent use.
package expr
