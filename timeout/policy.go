// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"math"
	"time"

	"github.com/gogama/fanout/request"
)

// A Policy chooses the timeout of the attempt about to be dispatched.
// It sees the execution as the previous attempt left it: Attempts
// counts only finished attempts and Err holds the previous failure.
// A zero or negative answer means the attempt never times out.
//
// One Policy may serve several schedulers at once.
type Policy interface {
	Timeout(e *request.Execution) time.Duration
}

// PolicyFunc adapts a plain function to the Policy interface.
type PolicyFunc func(e *request.Execution) time.Duration

// Timeout calls f(e).
func (f PolicyFunc) Timeout(e *request.Execution) time.Duration {
	return f(e)
}

var (
	// DefaultPolicy gives every attempt 30 seconds, enough for large
	// bodies on slow links.
	DefaultPolicy Policy = Fixed(30 * time.Second)

	// Infinite never times out.
	Infinite Policy = Fixed(math.MaxInt64)
)

// Fixed gives every attempt d.
func Fixed(d time.Duration) Policy {
	return ladder{d}
}

// Adaptive gives an attempt usual unless the previous attempt timed
// out. After the nth timeout of an execution the next attempt gets
// after[n-1], and the last step repeats once after runs out:
//
//	Adaptive(200*time.Millisecond, time.Second, 10*time.Second)
//
// waits 200ms normally, 1s after the first timeout and 10s after any
// later one.
func Adaptive(usual time.Duration, after ...time.Duration) Policy {
	return append(ladder{usual}, after...)
}

// ladder[0] is the usual timeout and ladder[n] the timeout after the
// nth attempt timeout.
type ladder []time.Duration

func (l ladder) Timeout(e *request.Execution) time.Duration {
	if !e.Timeout() {
		return l[0]
	}
	step := e.AttemptTimeouts
	if step >= len(l) {
		step = len(l) - 1
	}
	return l[step]
}

// Budget caps the timeouts of p so that all attempts of one execution,
// including retry waits, fit in total. Once the budget is spent each
// further attempt gets one nanosecond and so times out at once. Budget
// panics if p is nil or total is not positive.
func Budget(p Policy, total time.Duration) Policy {
	if p == nil {
		panic("fanout/timeout: nil policy")
	}
	if total <= 0 {
		panic("fanout/timeout: budget must be positive")
	}
	return PolicyFunc(func(e *request.Execution) time.Duration {
		left := total - e.Duration()
		if left <= 0 {
			return time.Nanosecond
		}
		if t := p.Timeout(e); t > 0 && t < left {
			return t
		}
		return left
	})
}
