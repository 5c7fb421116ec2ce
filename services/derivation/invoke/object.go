// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package invoke

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/AleutianAI/TheoremMap/services/derivation/expr"
)

// Object is a named, typed object bound to its behavior.
type Object struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Imports []string `json:"imports,omitempty"`

	invoker Invoker
}

// NewObject binds an invoker to an object.
func NewObject(name, typ string, imports []string, invoker Invoker) *Object {
	return &Object{Name: name, Type: typ, Imports: imports, invoker: invoker}
}

// Call applies the object to args.
func (o *Object) Call(ctx context.Context, args ...Value) (Value, error) {
	return o.invoker.Invoke(ctx, args...)
}

// SplitTermsName is the name of the built-in term splitter object.
const SplitTermsName = "split_terms"

// SplitTerms returns the term splitter as a locally computed object.
//
// It takes an expression and a delimiter, both Strings, and returns the
// top-level terms as a List String.
func SplitTerms() *Object {
	return NewObject(SplitTermsName, "String → String → List String", nil, NewLocal(2, splitTerms))
}

func splitTerms(_ context.Context, args []Value) (Value, error) {
	expression, ok := args[0].Data.(string)
	if !ok {
		return Value{}, fmt.Errorf("%w: expression is %T", ErrArgumentType, args[0].Data)
	}
	delimiter, ok := args[1].Data.(string)
	if !ok {
		return Value{}, fmt.Errorf("%w: delimiter is %T", ErrArgumentType, args[1].Data)
	}

	terms, err := expr.Split(expr.Canonical(expression), delimiter)
	if err != nil {
		return Value{}, err
	}
	return Strings(terms), nil
}

// Registry maps object names to objects.
//
// Thread Safety: Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	objects map[string]*Object
}

// NewRegistry creates a registry holding the built-in objects.
func NewRegistry() *Registry {
	r := &Registry{objects: make(map[string]*Object)}
	r.Register(SplitTerms())
	return r
}

// Register adds or replaces an object.
func (r *Registry) Register(o *Object) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects[o.Name] = o
}

// Lookup returns the named object.
func (r *Registry) Lookup(name string) (*Object, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.objects[name]
	return o, ok
}

// Names returns registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.objects))
	for name := range r.objects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
