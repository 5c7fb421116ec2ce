// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	base := build(t,
		rec("a", "p → q → r", "import1"),
		rec("b", "r → s", "import2"),
		rec("c", "lonely", "import3"),
	).Graph
	g := augment(t, base).Graph

	data, err := EncodeSnapshot(g)
	require.NoError(t, err)

	restored, err := DecodeSnapshot(data)
	require.NoError(t, err)

	assert.True(t, restored.IsFrozen())
	assert.True(t, restored.Equal(g))
	assert.Equal(t, g.Nodes(), restored.Nodes())
	assert.Equal(t, g.Edges(), restored.Edges())

	want, err := FindPath(context.Background(), g, "p ∧ q", "s")
	require.NoError(t, err)
	got, err := FindPath(context.Background(), restored, "p ∧ q", "s")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSnapshot_JSONFieldNames(t *testing.T) {
	g := frozen(Edge{From: "p", To: "q", ObjectName: "a", Location: "L"})

	data, err := EncodeSnapshot(g)
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"version":1,"nodes":["p","q"],"edges":[{"from":"p","to":"q","object_name":"a","location":"L"}]}`,
		string(data),
	)
}

func TestFromSnapshot_Invalid(t *testing.T) {
	tests := []struct {
		name string
		snap *Snapshot
	}{
		{"nil", nil},
		{"wrong version", &Snapshot{Version: 99}},
		{"duplicate node", &Snapshot{Version: SnapshotVersion, Nodes: []string{"p", "p"}}},
		{"empty node", &Snapshot{Version: SnapshotVersion, Nodes: []string{""}}},
		{"dangling edge", &Snapshot{
			Version: SnapshotVersion,
			Nodes:   []string{"p"},
			Edges:   []Edge{{From: "p", To: "q", ObjectName: "a"}},
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromSnapshot(tc.snap)
			assert.ErrorIs(t, err, ErrInvalidSnapshot)
		})
	}
}

func TestDecodeSnapshot_BadJSON(t *testing.T) {
	_, err := DecodeSnapshot([]byte("{not json"))
	assert.ErrorIs(t, err, ErrInvalidSnapshot)
}

func TestEncodeSnapshot_NilGraph(t *testing.T) {
	_, err := EncodeSnapshot(nil)
	assert.ErrorIs(t, err, ErrNilGraph)
}
