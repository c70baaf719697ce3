// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package retry provides policies that refine how a scheduler retries
// failed transfer attempts.
//
// Whether an attempt failed is not up to the policy: an attempt fails
// when the transport reports an error or the server answers with a
// status code of 500 or more. Nor may a policy lift the limit set by the
// descriptor's MaxAttempts. Within those bounds, a Policy may veto a
// retry (Decider) and may lengthen the wait before it (Waiter). The
// scheduler never waits less than the descriptor's RetryDelay.
//
// NewPolicy pairs a Decider with a Waiter:
//
//	decider := retry.Before(5 * time.Second).
//	               And(retry.ServerError.Or(retry.TransientErr))
//	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
//	policy := retry.NewPolicy(decider, retry.NewBackoff(0, 2*time.Second, rng))
//
// A backoff with a zero base doubles each descriptor's own RetryDelay.
// DeciderFunc and WaiterFunc turn plain functions into the parts.
package retry
