// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package timeout defines policies for setting the timeout of each
// individual transfer attempt, including retries. The scheduler asks
// its Policy for a timeout just before dispatching an attempt and hands
// it to the transport; an attempt that runs out of time fails like any
// other transport error and feeds the retry logic.
//
// Fixed and Adaptive bound single attempts. Wrap either in Budget to
// also bound the whole execution, retries and their waits included.
package timeout
