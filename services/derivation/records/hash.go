// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package records

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/AleutianAI/TheoremMap/services/derivation/expr"
)

// Hash returns a stable identifier for an ordered record list.
//
// # Description
//
// Produces the SHA-256 hex digest of the records in order. Each field is
// length-prefixed so that no two distinct lists share an encoding.
// Signatures are canonicalized first, so lists differing only in signature
// whitespace hash equally (they build equal graphs).
//
// # Outputs
//
//   - string: 64 hex characters.
func Hash(recs []Record) string {
	h := sha256.New()
	for _, r := range recs {
		writeField(h, r.Name)
		writeField(h, expr.Canonical(r.Signature))
		writeField(h, r.Location)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeField(w io.Writer, s string) {
	fmt.Fprintf(w, "%d:%s;", len(s), s)
}
