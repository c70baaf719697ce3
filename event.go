// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fanout

import "strconv"

// An Event names a moment in a descriptor's life at which the
// scheduler calls the Handlers installed for it. Handlers are the
// place for metrics, tracing and audit logs that span every
// descriptor in a run.
//
// Events fire on the scheduler goroutine, one at a time. The handlers
// for a moment run before the descriptor's own hook for it.
type Event int

const (
	// BeforeExecutionStart fires once per descriptor, just before its
	// first attempt. Start is set and Attempts is still zero.
	BeforeExecutionStart Event = iota
	// BeforeAttempt fires for every attempt, retries included. The
	// execution is Active, Attempts counts the new attempt and the
	// attempt already holds a concurrency slot. OnStart runs after
	// these handlers.
	BeforeAttempt
	// AttemptProgress fires when the transport reports byte progress.
	// Transfer holds the new totals. Reports are coalesced, so the
	// number of events says nothing about the number of bytes.
	AttemptProgress
	// AfterAttemptTimeout fires after an attempt failed by timing out.
	// Err holds the timeout and AttemptTimeouts has been incremented.
	AfterAttemptTimeout
	// AfterAttempt fires when any attempt concludes. The state is
	// already Completed, Retrying or Failed and the concurrency slot
	// has been released. OnFinish runs after these handlers.
	AfterAttempt
	// AfterExecutionEnd fires once per descriptor after it reached a
	// terminal state. Only End differs from the final AfterAttempt.
	AfterExecutionEnd

	eventSentinel
	numEvents = int(eventSentinel)
)

var eventNames = [numEvents]string{
	BeforeExecutionStart: "BeforeExecutionStart",
	BeforeAttempt:        "BeforeAttempt",
	AttemptProgress:      "AttemptProgress",
	AfterAttemptTimeout:  "AfterAttemptTimeout",
	AfterAttempt:         "AfterAttempt",
	AfterExecutionEnd:    "AfterExecutionEnd",
}

// Events lists every Event in the order they occur for one descriptor.
func Events() []Event {
	evts := make([]Event, numEvents)
	for i := range evts {
		evts[i] = Event(i)
	}
	return evts
}

func (evt Event) valid() bool {
	return evt >= 0 && evt < eventSentinel
}

// Name returns the event's identifier, or "Event(n)" for a value
// outside the defined set.
func (evt Event) Name() string {
	if !evt.valid() {
		return "Event(" + strconv.Itoa(int(evt)) + ")"
	}
	return eventNames[evt]
}

func (evt Event) String() string {
	return evt.Name()
}
