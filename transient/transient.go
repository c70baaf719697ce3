// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"errors"
	"io"
	"syscall"

	"golang.org/x/net/http2"
)

// A Category says why a failed attempt might succeed if dispatched
// again. Not means a repeat dispatch is unlikely to help. Every other
// Category names a failure mode that is known to heal.
type Category int

const (
	// Not covers nil and every error no other Category claims.
	Not Category = iota
	// Timeout is an attempt that ran out of time, either because some
	// error in the chain reports Timeout() true or because the chain
	// contains syscall.ETIMEDOUT. Context deadlines fall here too.
	Timeout
	// ConnRefused is syscall.ECONNREFUSED. Hosts refuse connections
	// while a service restarts, so it is worth another try.
	ConnRefused
	// ConnReset is syscall.ECONNRESET, typically a load balancer or a
	// draining server dropping an active connection.
	ConnReset
	// Truncated is io.ErrUnexpectedEOF: the response stopped arriving
	// before its declared end.
	Truncated
	// StreamRefused is an HTTP/2 RST_STREAM with REFUSED_STREAM. The
	// server promises it did no work on the stream, so even
	// non-idempotent requests may be sent again.
	StreamRefused
	// GoAway is an HTTP/2 GOAWAY frame arriving while the attempt's
	// stream was open. The next attempt will dial a fresh connection.
	GoAway
)

var categoryNames = [...]string{
	Not:           "Not",
	Timeout:       "Timeout",
	ConnRefused:   "ConnRefused",
	ConnReset:     "ConnReset",
	Truncated:     "Truncated",
	StreamRefused: "StreamRefused",
	GoAway:        "GoAway",
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "Category(?)"
	}
	return categoryNames[c]
}

// rules are checked in order and the first match wins, so a timed out
// reset is a Timeout and never a ConnReset.
var rules = []struct {
	cat   Category
	match func(error) bool
}{
	{Timeout, isTimeout},
	{ConnRefused, isErrno(syscall.ECONNREFUSED)},
	{ConnReset, isErrno(syscall.ECONNRESET)},
	{StreamRefused, isRefusedStream},
	{GoAway, isGoAway},
	{Truncated, func(err error) bool { return errors.Is(err, io.ErrUnexpectedEOF) }},
}

// Categorize walks err's wrap chain and reports the first Category it
// recognises. It ignores Temporary(), whose meaning varies too much
// between packages to be useful.
func Categorize(err error) Category {
	if err == nil {
		return Not
	}
	for _, r := range rules {
		if r.match(err) {
			return r.cat
		}
	}
	return Not
}

// Transient reports whether Categorize(err) != Not.
func Transient(err error) bool {
	return Categorize(err) != Not
}

type timeouter interface {
	Timeout() bool
}

func isTimeout(err error) bool {
	var t timeouter
	if errors.As(err, &t) && t.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ETIMEDOUT)
}

func isErrno(want syscall.Errno) func(error) bool {
	return func(err error) bool {
		var errno syscall.Errno
		return errors.As(err, &errno) && errno == want
	}
}

func isRefusedStream(err error) bool {
	var se http2.StreamError
	if errors.As(err, &se) {
		return se.Code == http2.ErrCodeRefusedStream
	}
	var pse *http2.StreamError
	return errors.As(err, &pse) && pse != nil && pse.Code == http2.ErrCodeRefusedStream
}

func isGoAway(err error) bool {
	var ga http2.GoAwayError
	if errors.As(err, &ga) {
		return true
	}
	var pga *http2.GoAwayError
	return errors.As(err, &pga) && pga != nil
}
