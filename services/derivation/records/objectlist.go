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
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// objectListFile is the on-disk layout of an object list:
//
//	{"objectList": [["name", "signature", "location"], ...]}
type objectListFile struct {
	ObjectList *[][]string `json:"objectList"`
}

// ParseObjectList decodes object-list JSON into records.
//
// # Description
//
// Every entry must be a list of exactly three strings: name, signature and
// location. Entries are returned in file order and validated.
//
// # Outputs
//
//   - []Record: The decoded records. Empty, not nil, for an empty list.
//   - error: Wraps ErrInvalidObjectList or ErrInvalidRecord.
func ParseObjectList(data []byte) ([]Record, error) {
	var file objectListFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidObjectList, err)
	}
	if file.ObjectList == nil {
		return nil, fmt.Errorf("%w: missing \"objectList\" key", ErrInvalidObjectList)
	}

	entries := *file.ObjectList
	recs := make([]Record, 0, len(entries))
	for i, entry := range entries {
		if len(entry) != 3 {
			return nil, fmt.Errorf("%w: entry %d has %d fields, want 3", ErrInvalidObjectList, i, len(entry))
		}
		recs = append(recs, Record{Name: entry[0], Signature: entry[1], Location: entry[2]})
	}

	if err := Validate(recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// LoadObjectList reads and decodes an object-list file.
func LoadObjectList(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read object list %s: %w", path, err)
	}
	recs, err := ParseObjectList(data)
	if err != nil {
		return nil, fmt.Errorf("object list %s: %w", path, err)
	}
	return recs, nil
}

// MarshalObjectList encodes records in the object-list layout.
func MarshalObjectList(recs []Record) ([]byte, error) {
	entries := make([][]string, len(recs))
	for i, r := range recs {
		entries[i] = []string{r.Name, r.Signature, r.Location}
	}
	return json.MarshalIndent(objectListFile{ObjectList: &entries}, "", "\t")
}

// SaveObjectList writes records to path, creating parent directories.
func SaveObjectList(path string, recs []Record) error {
	data, err := MarshalObjectList(recs)
	if err != nil {
		return fmt.Errorf("encode object list: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0640); err != nil {
		return fmt.Errorf("write object list %s: %w", path, err)
	}
	return nil
}

// LoadAll reads several object-list files concurrently.
//
// # Description
//
// Files are decoded in parallel; the result concatenates their records in
// argument order, so the output does not depend on scheduling.
//
// # Inputs
//
//   - ctx: Cancels outstanding reads when one file fails.
//   - paths: Object-list files.
//
// # Outputs
//
//   - []Record: All records, ordered by file then by entry.
//   - error: The first failure encountered.
func LoadAll(ctx context.Context, paths []string) ([]Record, error) {
	lists := make([][]Record, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			recs, err := LoadObjectList(path)
			if err != nil {
				return err
			}
			lists[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, l := range lists {
		total += len(l)
	}
	all := make([]Record, 0, total)
	for _, l := range lists {
		all = append(all, l...)
	}
	return all, nil
}
