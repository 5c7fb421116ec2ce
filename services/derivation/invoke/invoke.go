// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package invoke models the behavior of a typed object as a capability.
//
// An object's transformation is either computed locally by a Go function
// or delegated to an external evaluator such as a proof checker. The
// choice is made when the object is constructed and never changes.
package invoke

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrArity is returned when an object is called with the wrong number
	// of arguments.
	ErrArity = errors.New("wrong number of arguments")

	// ErrNoEvaluator is returned by a Delegate constructed without an
	// evaluator.
	ErrNoEvaluator = errors.New("no evaluator configured")

	// ErrArgumentType is returned when an argument's Go type does not fit.
	ErrArgumentType = errors.New("unexpected argument type")
)

// Value is a typed argument or result.
type Value struct {
	// Type is the value's type expression, e.g. "String" or "List String".
	Type string `json:"type"`

	// Data is the Go representation of the value.
	Data any `json:"data"`
}

// String returns a String value.
func String(s string) Value {
	return Value{Type: "String", Data: s}
}

// Strings returns a List String value.
func Strings(ss []string) Value {
	return Value{Type: "List String", Data: ss}
}

// Invoker applies an object's behavior to arguments.
type Invoker interface {
	Invoke(ctx context.Context, args ...Value) (Value, error)
}

// LocalFunc computes an object's result in process.
type LocalFunc func(ctx context.Context, args []Value) (Value, error)

// Local is an Invoker backed by a Go function.
type Local struct {
	arity int
	fn    LocalFunc
}

// NewLocal creates a local invoker. A negative arity accepts any number of
// arguments.
func NewLocal(arity int, fn LocalFunc) *Local {
	return &Local{arity: arity, fn: fn}
}

// Invoke checks the arity and calls the function.
func (l *Local) Invoke(ctx context.Context, args ...Value) (Value, error) {
	if l.arity >= 0 && len(args) != l.arity {
		return Value{}, fmt.Errorf("%w: got %d, want %d", ErrArity, len(args), l.arity)
	}
	return l.fn(ctx, args)
}

// Request is what a Delegate sends to its Evaluator.
type Request struct {
	// Object is the fully qualified object name.
	Object string `json:"object"`

	// Imports are the modules that must be loaded to resolve Object.
	Imports []string `json:"imports"`

	// Args are the arguments in application order.
	Args []Value `json:"args"`
}

// Evaluator runs objects outside the process, e.g. in a proof checker.
type Evaluator interface {
	Evaluate(ctx context.Context, req Request) (Value, error)
}

// Delegate is an Invoker that forwards to an Evaluator.
type Delegate struct {
	object    string
	imports   []string
	evaluator Evaluator
}

// NewDelegate creates a delegating invoker for the named object.
func NewDelegate(object string, imports []string, evaluator Evaluator) *Delegate {
	return &Delegate{
		object:    object,
		imports:   append([]string(nil), imports...),
		evaluator: evaluator,
	}
}

// Invoke sends the call to the evaluator.
func (d *Delegate) Invoke(ctx context.Context, args ...Value) (Value, error) {
	if d.evaluator == nil {
		return Value{}, fmt.Errorf("%s: %w", d.object, ErrNoEvaluator)
	}
	v, err := d.evaluator.Evaluate(ctx, Request{
		Object:  d.object,
		Imports: append([]string(nil), d.imports...),
		Args:    args,
	})
	if err != nil {
		return Value{}, fmt.Errorf("evaluate %s: %w", d.object, err)
	}
	return v, nil
}
