// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package records defines the typed-object records that seed a derivation
// graph and reads them from object-list files.
//
// A record names a function or theorem, gives its full curried signature and
// an opaque location (the import path needed to reference it later). Records
// are produced by an external extraction step and are read-only here.
package records

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Sentinel errors for record handling.
var (
	// ErrInvalidRecord is returned when a record fails validation.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrInvalidObjectList is returned when an object-list file cannot be
	// decoded into records.
	ErrInvalidObjectList = errors.New("invalid object list")
)

// recordValidate is shared; validator.Validate caches struct metadata and is
// safe for concurrent use.
var recordValidate = validator.New(validator.WithRequiredStructEnabled())

// Record describes one typed object.
//
// # Fields
//
//   - Name: Fully qualified object name, e.g. "Nat.add_comm".
//   - Signature: Curried type or proposition, e.g. "p → q → p ∧ q".
//   - Location: Import path of the defining module, e.g. "Init.Data.Nat".
type Record struct {
	Name      string `json:"name" yaml:"name" validate:"required"`
	Signature string `json:"signature" yaml:"signature" validate:"required"`
	Location  string `json:"location" yaml:"location"`
}

// Validate checks the record's required fields.
func (r Record) Validate() error {
	if err := recordValidate.Struct(r); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidRecord, r.Name, err)
	}
	return nil
}

// Validate checks every record, reporting the first failure with its index.
func Validate(recs []Record) error {
	for i, r := range recs {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return nil
}
