// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package admission

import (
	"github.com/gogama/fanout/request"
	"golang.org/x/time/rate"
)

// NewRate constructs a gate which admits an attempt when limiter has a
// token available, consuming the token. The gate never waits on the
// limiter; a refused attempt is asked about again on the scheduler's
// next poll.
func NewRate(limiter *rate.Limiter) Gate {
	if limiter == nil {
		panic("fanout/admission: nil limiter")
	}
	return rateGate{limiter}
}

type rateGate struct {
	limiter *rate.Limiter
}

func (g rateGate) Admit(_ *request.Execution) bool {
	return g.limiter.Allow()
}
