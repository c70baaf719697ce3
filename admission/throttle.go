// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package admission

import (
	"sync"
	"time"

	"github.com/gogama/fanout/request"
)

// A Limit specifies the maximum number of attempts dispatched in any
// window of length Period.
type Limit struct {
	MaxAttempts int
	Period      time.Duration
}

// NewThrottle constructs a gate which refuses an attempt if admitting it
// would break any of the limits.
//
// For example, the following gate refuses to dispatch more than 10
// attempts in any half second, or more than 15 in any second:
//
//	g := admission.NewThrottle(
//		admission.Limit{MaxAttempts: 10, Period: 500*time.Millisecond},
//		admission.Limit{MaxAttempts: 15, Period: 1*time.Second})
//
// An attempt is only counted against the limits when it is admitted.
// NewThrottle panics if a limit has a negative Period or a MaxAttempts
// less than 1, since such a limit would refuse every attempt forever.
func NewThrottle(limits ...Limit) Gate {
	th := &throttle{
		limits: make([]limitQueue, len(limits)),
		now:    time.Now,
	}
	for i, l := range limits {
		if l.MaxAttempts < 1 {
			panic("fanout/admission: MaxAttempts must be at least 1")
		}
		if l.Period < 0 {
			panic("fanout/admission: negative limit")
		}
		th.limits[i] = newLimitQueue(l.Period, l.MaxAttempts)
	}
	return th
}

type throttle struct {
	limits []limitQueue
	now    func() time.Time
	lock   sync.Mutex
}

func (th *throttle) Admit(_ *request.Execution) bool {
	th.lock.Lock()
	defer th.lock.Unlock()
	now := th.now()
	for i := range th.limits {
		if !th.limits[i].room(&now) {
			return false
		}
	}
	for i := range th.limits {
		th.limits[i].push(&now)
	}
	return true
}

type limitQueue struct {
	antiPeriod time.Duration
	a          []time.Time
	start, len int
}

func newLimitQueue(period time.Duration, cap int) limitQueue {
	return limitQueue{
		antiPeriod: -period,
		a:          make([]time.Time, cap),
	}
}

// room expires samples at or before the window cutoff and reports
// whether another sample fits.
func (q *limitQueue) room(t *time.Time) bool {
	cutoff := t.Add(q.antiPeriod)
	for q.len > 0 && !cutoff.Before(q.a[q.start]) {
		q.start = (q.start + 1) % len(q.a)
		q.len--
	}
	return q.len < len(q.a)
}

// push records a sample. The caller must have checked room first.
func (q *limitQueue) push(t *time.Time) {
	i := (q.start + q.len) % len(q.a)
	q.a[i] = *t
	q.len++
}
