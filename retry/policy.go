// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"

	"github.com/gogama/fanout/request"
)

// A Policy is consulted after every failed attempt whose descriptor
// still has attempts left. Its Decider may veto the retry and its
// Waiter may stretch the delay before it.
//
// A Policy may be called from several runs at once.
type Policy interface {
	Decider
	Waiter
}

// DefaultPolicy retries until MaxAttempts, waiting RetryDelay between
// attempts.
var DefaultPolicy Policy = NewPolicy(DefaultDecider, DefaultWaiter)

// Never vetoes every retry, so each descriptor gets one attempt
// whatever its MaxAttempts says.
var Never Policy = NewPolicy(Times(0), DefaultWaiter)

// NewPolicy pairs d and w. It panics if either is nil.
func NewPolicy(d Decider, w Waiter) Policy {
	if d == nil {
		panic("fanout/retry: nil decider")
	}
	if w == nil {
		panic("fanout/retry: nil waiter")
	}
	return &policy{d, w}
}

// Only pairs d with DefaultWaiter.
func Only(d Decider) Policy {
	return NewPolicy(d, DefaultWaiter)
}

type policy struct {
	decider Decider
	waiter  Waiter
}

func (p *policy) Decide(e *request.Execution) bool {
	return p.decider.Decide(e)
}

func (p *policy) Wait(e *request.Execution) time.Duration {
	return p.waiter.Wait(e)
}
