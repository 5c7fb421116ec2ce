// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph builds and searches derivation graphs.
//
// A derivation graph is a simple directed graph whose nodes are propositions
// (canonical expression strings, see package expr) and whose edges are typed
// objects: an edge P → Q labelled F says that applying F to a proof of P
// yields a proof of Q. A path from P to Q is therefore a composition chain.
//
// # Architecture
//
//	┌─────────────┐    ┌─────────────┐    ┌─────────────┐    ┌─────────────┐
//	│   Records   │───▶│   Builder   │───▶│  Augmenter  │───▶│  FindPath   │
//	│ (name, sig, │    │ base graph  │    │ + conjunct- │    │ shortest    │
//	│  location)  │    │             │    │   ion edges │    │ derivation  │
//	└─────────────┘    └─────────────┘    └─────────────┘    └─────────────┘
//
// The builder peels only the first argument off each object, so a record
// "A → B → C" yields one edge A → (B → C). The augmenter then exposes
// multi-argument consumption as extra edges from conjunctions, e.g.
// A ∧ B → C.
//
// # Node Identity
//
// Nodes are compared by exact canonical string. Logically equivalent but
// syntactically different propositions are distinct nodes.
//
// # Thread Safety
//
// A Graph is NOT safe for concurrent mutation. Builder and Augmenter return
// frozen graphs, which are read-only and may be shared across goroutines.
// Augment never mutates its input.
package graph
