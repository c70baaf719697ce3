// Copyright 2021 The fanout Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package admission

import (
	"fmt"
	"testing"
	"time"

	"github.com/gogama/fanout/request"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewThrottle(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		th := newThrottle(t)
		assert.Len(t, th.limits, 0)
		e := &request.Execution{}
		for i := 0; i < 20; i++ {
			e.Attempts = i
			assert.True(t, th.Admit(e))
		}
	})
	t.Run("Negative", func(t *testing.T) {
		assert.PanicsWithValue(t, "fanout/admission: negative limit", func() {
			NewThrottle(Limit{MaxAttempts: 1, Period: -time.Second})
		})
	})
	t.Run("No Attempts", func(t *testing.T) {
		for _, n := range []int{0, -1} {
			assert.PanicsWithValue(t, "fanout/admission: MaxAttempts must be at least 1", func() {
				NewThrottle(Limit{MaxAttempts: 1, Period: time.Second}, Limit{MaxAttempts: n, Period: time.Second})
			}, "MaxAttempts=%d", n)
		}
		assert.PanicsWithValue(t, "fanout/admission: MaxAttempts must be at least 1", func() {
			NewThrottle(Limit{})
		})
	})
	t.Run("One Limit", func(t *testing.T) {
		th, clock := newClockedThrottle(t, Limit{Period: 100 * time.Millisecond, MaxAttempts: 2})
		assert.True(t, th.Admit(&request.Execution{}))
		assert.True(t, th.Admit(&request.Execution{}))
		assert.False(t, th.Admit(&request.Execution{}))
		clock.advance(105 * time.Millisecond)
		assert.True(t, th.Admit(&request.Execution{}))
		assert.True(t, th.Admit(&request.Execution{}))
		assert.False(t, th.Admit(&request.Execution{}))
	})
	t.Run("Two Limits", func(t *testing.T) {
		th, clock := newClockedThrottle(t,
			Limit{Period: 25 * time.Millisecond, MaxAttempts: 1},
			Limit{Period: 50 * time.Millisecond, MaxAttempts: 2})
		assert.True(t, th.Admit(&request.Execution{}))
		assert.False(t, th.Admit(&request.Execution{}))
		clock.advance(30 * time.Millisecond)
		assert.True(t, th.Admit(&request.Execution{}))
		assert.False(t, th.Admit(&request.Execution{}))
		assert.False(t, th.Admit(&request.Execution{}))
		clock.advance(30 * time.Millisecond)
		assert.True(t, th.Admit(&request.Execution{}))
		assert.False(t, th.Admit(&request.Execution{}))
	})
	t.Run("Refusal Not Counted", func(t *testing.T) {
		th, clock := newClockedThrottle(t,
			Limit{Period: 10 * time.Millisecond, MaxAttempts: 1},
			Limit{Period: time.Second, MaxAttempts: 3})
		for i := 0; i < 3; i++ {
			assert.True(t, th.Admit(&request.Execution{}), "attempt %d", i)
			// Refused by the first limit, so must not count against the
			// second.
			assert.False(t, th.Admit(&request.Execution{}))
			clock.advance(11 * time.Millisecond)
		}
		assert.False(t, th.Admit(&request.Execution{}))
	})
	t.Run("Wall Clock", func(t *testing.T) {
		t.Parallel()
		th := newThrottle(t, Limit{Period: 50 * time.Millisecond, MaxAttempts: 1})
		assert.True(t, th.Admit(&request.Execution{}))
		assert.False(t, th.Admit(&request.Execution{}))
		time.Sleep(55 * time.Millisecond)
		assert.True(t, th.Admit(&request.Execution{}))
	})
}

func TestLimitQueue(t *testing.T) {
	t.Run("Period=0", func(t *testing.T) {
		q := newLimitQueue(0, 1)
		x := time.Time{}
		for i := 0; i < 3; i++ {
			require.True(t, q.room(&x), "sample %d", i)
			q.push(&x)
		}
		y := x.Add(-time.Second)
		assert.False(t, q.room(&y))
		assert.True(t, q.room(&x))
	})
	t.Run("FillUp", func(t *testing.T) {
		for i := 1; i <= 3; i++ {
			t.Run(fmt.Sprintf("Len=%d", i), func(t *testing.T) {
				q := newLimitQueue(1*time.Hour, i)
				x := time.Time{}
				for j := 0; j < i; j++ {
					require.True(t, q.room(&x))
					q.push(&x)
				}
				assert.False(t, q.room(&x))
				assert.Equal(t, i, q.len)
			})
		}
	})
	t.Run("FillEmptyFill", func(t *testing.T) {
		for i := 1; i <= 3; i++ {
			t.Run(fmt.Sprintf("Len=%d", i), func(t *testing.T) {
				q := newLimitQueue(2*time.Second, i)
				assert.Equal(t, 0, q.len)
				x := time.Time{}
				for j := 1; j <= 2; j++ {
					t.Run(fmt.Sprintf("Repeat=%d", j), func(t *testing.T) {
						for k := 1; k <= i; k++ {
							require.True(t, q.room(&x))
							q.push(&x)
							assert.Equal(t, k, q.len)
						}
						assert.False(t, q.room(&x))
						assert.Equal(t, i, q.len)
						// Mid-window: nothing has expired yet.
						x = x.Add(time.Second)
						assert.False(t, q.room(&x))
						assert.Equal(t, i, q.len)
						// End of window: everything has expired.
						x = x.Add(time.Second)
						assert.True(t, q.room(&x))
						assert.Equal(t, 0, q.len)
						q.push(&x)
						assert.Equal(t, 1, q.len)
						x = x.Add(2 * time.Second)
					})
				}
			})
		}
	})
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newThrottle(t *testing.T, limits ...Limit) *throttle {
	g := NewThrottle(limits...)
	require.IsType(t, &throttle{}, g)
	return g.(*throttle)
}

func newClockedThrottle(t *testing.T, limits ...Limit) (*throttle, *fakeClock) {
	th := newThrottle(t, limits...)
	clock := &fakeClock{t: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)}
	th.now = clock.now
	return th, clock
}
