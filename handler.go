// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fanout

import (
	"fmt"

	"github.com/gogama/fanout/request"
)

// A Handler reacts to a scheduler Event. Handlers run on the scheduler
// goroutine while no lock is held, so they may read the execution
// freely but should return quickly.
type Handler interface {
	Handle(Event, *request.Execution)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(Event, *request.Execution)

// Handle calls f(evt, e).
func (f HandlerFunc) Handle(evt Event, e *request.Execution) {
	f(evt, e)
}

// A HandlerGroup holds one ordered chain of handlers per Event. The
// zero value is empty and ready to use. Install it in Config.Handlers
// before the run starts; a group must not change while a run uses it.
type HandlerGroup struct {
	chains [numEvents][]Handler
}

// PushBack appends h to the chain for evt. It panics if h is nil or
// evt is not one of the values returned by Events.
func (g *HandlerGroup) PushBack(evt Event, h Handler) {
	if h == nil {
		panic("fanout: nil handler")
	}
	if !evt.valid() {
		panic(fmt.Sprintf("fanout: invalid event %d", int(evt)))
	}
	g.chains[evt] = append(g.chains[evt], h)
}

// Len returns the number of handlers chained for evt.
func (g *HandlerGroup) Len(evt Event) int {
	if g == nil || !evt.valid() {
		return 0
	}
	return len(g.chains[evt])
}

func (g *HandlerGroup) fire(evt Event, e *request.Execution) {
	if g == nil {
		return
	}
	for _, h := range g.chains[evt] {
		h.Handle(evt, e)
	}
}
