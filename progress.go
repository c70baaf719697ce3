// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fanout

import (
	"github.com/gogama/fanout/request"
)

// Progress is a snapshot of a run.
type Progress struct {
	// Total is the number of descriptors in the run.
	Total int
	// Completed counts the descriptors in a terminal state, whether
	// they succeeded or failed.
	Completed int
	// Succeeded and Failed split Completed by outcome.
	Succeeded int
	Failed    int
	// Active, Pending and Retrying count the descriptors in each of
	// those states.
	Active   int
	Pending  int
	Retrying int
	// Details has one entry per descriptor, in submission order.
	Details []Detail
}

// Detail is the progress of one descriptor.
type Detail struct {
	Index    int
	Method   string
	URL      string
	Priority int
	State    request.State
	Attempts int
	Transfer request.Progress
}

// snapshot derives a Progress from executions in submission order. The
// caller must hold the scheduler lock.
func snapshot(execs []*request.Execution) Progress {
	p := Progress{
		Total:   len(execs),
		Details: make([]Detail, len(execs)),
	}
	for i, e := range execs {
		switch e.State {
		case request.Pending:
			p.Pending++
		case request.Active:
			p.Active++
		case request.Retrying:
			p.Retrying++
		case request.Completed:
			p.Succeeded++
		case request.Failed:
			p.Failed++
		}
		d := e.Descriptor
		p.Details[i] = Detail{
			Index:    e.Index,
			Method:   d.Method(),
			URL:      d.URL().String(),
			Priority: d.Priority(),
			State:    e.State,
			Attempts: e.Attempts,
			Transfer: e.Transfer,
		}
	}
	p.Completed = p.Succeeded + p.Failed
	return p
}
