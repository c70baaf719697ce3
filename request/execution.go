// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"net/http"
	"time"

	"github.com/gogama/fanout/transient"
)

// A State is the position of a descriptor in the transfer state
// machine of one run.
//
//	Pending → Active → Completed
//	                 → Retrying → Active → ...
//	                 → Failed
//
// Completed and Failed are terminal.
type State int

const (
	// Pending means the descriptor is waiting for its first dispatch.
	Pending State = iota
	// Active means an attempt is in flight.
	Active
	// Retrying means an attempt failed and the descriptor is waiting
	// in the retry queue for its next dispatch.
	Retrying
	// Completed means an attempt succeeded.
	Completed
	// Failed means the descriptor exhausted its attempts.
	Failed
)

var stateNames = []string{
	"Pending",
	"Active",
	"Retrying",
	"Completed",
	"Failed",
}

// String returns the name of the state.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "State(?)"
	}
	return stateNames[s]
}

// Terminal reports whether s is Completed or Failed.
func (s State) Terminal() bool {
	return s == Completed || s == Failed
}

// Progress is the byte-level progress of one attempt. A total is zero
// when unknown.
type Progress struct {
	BytesDownloaded int64
	TotalDownload   int64
	BytesUploaded   int64
	TotalUpload     int64
}

// An Execution represents the state of one Descriptor during one
// scheduler run.
//
// The scheduler creates an Execution per submitted descriptor when the
// run starts and updates it as attempts are dispatched and conclude.
// Hooks, event handlers and retry and timeout policies all receive the
// Execution. They may store their own data using SetValue and Value,
// but should treat the exported fields as read-only.
type Execution struct {
	// Descriptor is the descriptor being executed. It is never nil.
	Descriptor *Descriptor

	// Index is the descriptor's submission index.
	Index int

	// State is the current transfer state.
	State State

	// Attempts is the number of attempts dispatched so far. It is one
	// during the first attempt and never exceeds the descriptor's
	// MaxAttempts.
	Attempts int

	// AttemptTimeouts counts the attempts which ended in a timeout.
	AttemptTimeouts int

	// Start is the time the first attempt was dispatched, and End the
	// time the execution reached a terminal state.
	Start time.Time
	End   time.Time

	// AttemptStart is the dispatch time of the most recent attempt.
	AttemptStart time.Time

	// StatusCode and Header come from the response to the most recent
	// attempt. StatusCode is zero if there was no response.
	StatusCode int
	Header     http.Header

	// Body is the response body of the most recent attempt. The
	// scheduler keeps it only for a successful attempt; the bodies of
	// failed attempts are closed and the field set to nil.
	Body *Body

	// Err is the *TransferError of the most recent attempt, or nil if
	// it succeeded or is in flight.
	Err error

	// Transfer is the byte progress of the most recent attempt.
	Transfer Progress

	values map[interface{}]interface{}
}

// Duration is End minus Start once the execution has ended, the time
// since Start while it runs, and zero before it starts.
func (e *Execution) Duration() time.Duration {
	switch {
	case !e.Started():
		return 0
	case e.Ended():
		return e.End.Sub(e.Start)
	default:
		return time.Since(e.Start)
	}
}

// Started reports whether the first attempt has been dispatched.
func (e *Execution) Started() bool {
	return !e.Start.IsZero()
}

// Ended reports whether the execution reached a terminal state.
func (e *Execution) Ended() bool {
	return !e.End.IsZero()
}

// Timeout reports whether the most recent attempt failed by timing
// out.
func (e *Execution) Timeout() bool {
	return transient.Categorize(e.Err) == transient.Timeout
}

// SetValue attaches a value to the execution for later retrieval with
// Value. Hooks and handlers use it to carry their own state between
// events. Keys must be comparable and should be of an unexported type
// so independent handlers cannot collide. SetValue panics on a nil
// key.
func (e *Execution) SetValue(key, value interface{}) {
	if key == nil {
		panic("fanout/request: nil key")
	}
	if e.values == nil {
		e.values = make(map[interface{}]interface{})
	}
	e.values[key] = value
}

// Value returns the value stored under key, or nil.
func (e *Execution) Value(key interface{}) interface{} {
	return e.values[key]
}
