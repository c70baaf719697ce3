// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package admission provides gates that pace how fast a scheduler
dispatches transfer attempts, on top of its concurrency limit.

Before each dispatch, the scheduler asks its Gate whether the next
attempt in dispatch order may start now. If the gate refuses, the
scheduler stops dispatching until its next poll, and then asks again
about the same attempt, so a gate can delay dispatch but never reorder
it. Retries pass through the gate like fresh attempts.

The default gate is Open, which admits everything. Use NewThrottle to
cap the number of dispatches in one or more sliding time windows, and
NewRate to pace dispatches with a token bucket from
golang.org/x/time/rate. Use All to require several gates to agree:

	gate := admission.All(
		admission.NewThrottle(admission.Limit{MaxAttempts: 50, Period: time.Second}),
		admission.NewRate(rate.NewLimiter(rate.Limit(20), 5)),
	)
*/
package admission
