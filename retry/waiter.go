// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"math/bits"
	"math/rand"
	"sync"
	"time"

	"github.com/gogama/fanout/request"
)

// A Waiter says how long a failed attempt should sit in the retry
// queue before it is dispatched again. The scheduler asks only after
// the Decider allowed the retry, and it raises any answer below the
// descriptor's RetryDelay to that delay. Waiting never blocks the
// scheduler, which keeps dispatching other descriptors meanwhile.
//
// A Waiter may be called from several runs at once.
type Waiter interface {
	Wait(e *request.Execution) time.Duration
}

// WaiterFunc adapts a plain function to the Waiter interface.
type WaiterFunc func(e *request.Execution) time.Duration

// Wait calls f(e).
func (f WaiterFunc) Wait(e *request.Execution) time.Duration {
	return f(e)
}

// DefaultWaiter waits exactly the descriptor's RetryDelay.
var DefaultWaiter Waiter = WaiterFunc(retryDelay)

func retryDelay(e *request.Execution) time.Duration {
	if e.Descriptor == nil {
		return request.DefaultRetryDelay
	}
	return e.Descriptor.RetryDelay()
}

// NewFixedWaiter returns a Waiter that always answers d. Answers below
// a descriptor's RetryDelay are still raised by the scheduler.
func NewFixedWaiter(d time.Duration) Waiter {
	return WaiterFunc(func(_ *request.Execution) time.Duration { return d })
}

// NewBackoff returns a Waiter that doubles the wait after every failed
// attempt, starting from base and never exceeding max:
//
//	ceil := min(base << (Attempts-1), max)
//
// A zero base starts from each descriptor's own RetryDelay, so
// descriptors with different delays back off at their own pace.
//
// If rng is nil the Waiter answers ceil. Otherwise it answers a
// uniformly random duration between the descriptor's RetryDelay and
// ceil. The jitter stays above RetryDelay because the scheduler would
// raise anything lower anyway. The Waiter serialises its use of rng.
//
// NewBackoff panics if base is negative or max is not positive.
func NewBackoff(base, max time.Duration, rng *rand.Rand) Waiter {
	if base < 0 {
		panic("fanout/retry: base may not be negative")
	}
	if max <= 0 {
		panic("fanout/retry: max must be positive")
	}
	return &backoff{base: base, max: max, rng: rng}
}

type backoff struct {
	base time.Duration
	max  time.Duration

	lock sync.Mutex
	rng  *rand.Rand
}

func (b *backoff) Wait(e *request.Execution) time.Duration {
	floor := retryDelay(e)
	start := b.base
	if start == 0 {
		start = floor
	}
	ceil := b.ceil(start, e.Attempts)
	if b.rng == nil || ceil <= floor {
		return ceil
	}
	b.lock.Lock()
	defer b.lock.Unlock()
	return floor + time.Duration(b.rng.Int63n(int64(ceil-floor)+1))
}

// ceil computes min(start << (attempts-1), max) without overflowing.
func (b *backoff) ceil(start time.Duration, attempts int) time.Duration {
	if start <= 0 {
		return 0
	}
	shift := attempts - 1
	if shift < 0 {
		shift = 0
	}
	if shift >= bits.LeadingZeros64(uint64(start))-1 {
		return b.max
	}
	if c := start << uint(shift); c < b.max {
		return c
	}
	return b.max
}
