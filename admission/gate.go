// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package admission

import "github.com/gogama/fanout/request"

// A Gate decides whether the next attempt may be dispatched now.
//
// Admit is called on the scheduler goroutine with the execution about
// to be dispatched. A true result commits the gate to the dispatch;
// gates which count dispatches should count it then.
//
// Implementations of Gate must be safe for concurrent use by multiple
// goroutines, since a gate may be shared by several schedulers.
type Gate interface {
	Admit(e *request.Execution) bool
}

// The GateFunc type is an adapter to allow the use of ordinary
// functions as gates.
type GateFunc func(e *request.Execution) bool

// Admit calls f(e).
func (f GateFunc) Admit(e *request.Execution) bool {
	return f(e)
}

// Open is a gate that admits every attempt.
var Open Gate = open{}

type open struct{}

func (_ open) Admit(_ *request.Execution) bool {
	return true
}

// All composes gates into one which admits an attempt only if every
// gate admits it. The gates are consulted in order and consultation
// stops at the first refusal, so gates after a refusing gate do not
// count the attempt.
func All(gates ...Gate) Gate {
	for _, g := range gates {
		if g == nil {
			panic("fanout/admission: nil gate")
		}
	}
	gs := make([]Gate, len(gates))
	copy(gs, gates)
	return all(gs)
}

type all []Gate

func (gs all) Admit(e *request.Execution) bool {
	for _, g := range gs {
		if !g.Admit(e) {
			return false
		}
	}
	return true
}
