// FILE: scheduler_test.go
package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, min, sec int) time.Time {
	return time.Date(2024, 3, 15, hour, min, sec, 0, time.UTC)
}

func TestTriggerFiresOncePerWindow(t *testing.T) {
	var fired int
	s := NewScheduler()
	s.Add("test", func(now time.Time) bool { return now.Minute() == 0 }, func(context.Context, time.Time) {
		fired++
	})

	ctx := context.Background()
	// predicate holds for three consecutive ticks
	s.Tick(ctx, at(10, 0, 0))
	s.Tick(ctx, at(10, 0, 1))
	s.Tick(ctx, at(10, 0, 2))
	assert.Equal(t, 1, fired)

	// boundary exit re-arms
	s.Tick(ctx, at(10, 1, 0))
	assert.Equal(t, 1, fired)

	// next matching boundary fires again
	s.Tick(ctx, at(11, 0, 0))
	assert.Equal(t, 2, fired)
}

func TestTriggersAreIndependent(t *testing.T) {
	var a, b int
	s := NewScheduler()
	s.Add("a", EveryNMinutes(5), func(context.Context, time.Time) { a++ })
	s.Add("b", DailyAt(10, 5), func(context.Context, time.Time) { b++ })

	ctx := context.Background()
	s.Tick(ctx, at(10, 5, 0))
	s.Tick(ctx, at(10, 5, 30))
	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)

	s.Tick(ctx, at(10, 6, 0))
	s.Tick(ctx, at(10, 10, 0))
	assert.Equal(t, 2, a) // minute 10 matches every-5
	assert.Equal(t, 1, b) // daily boundary has passed
}

func TestLatchSetBeforeInvocation(t *testing.T) {
	// a re-entrant tick from inside the action must not re-fire the trigger
	var fired int
	s := NewScheduler()
	s.Add("reentrant", func(now time.Time) bool { return true }, func(ctx context.Context, now time.Time) {
		fired++
		if fired == 1 {
			s.Tick(ctx, now)
		}
	})
	s.Tick(context.Background(), at(9, 0, 0))
	assert.Equal(t, 1, fired)
}

func TestPredicates(t *testing.T) {
	assert.True(t, EveryNMinutes(5)(at(8, 0, 12)))
	assert.True(t, EveryNMinutes(5)(at(8, 55, 0)))
	assert.False(t, EveryNMinutes(5)(at(8, 56, 0)))

	assert.True(t, EveryNHours(4)(at(8, 0, 0)))
	assert.False(t, EveryNHours(4)(at(8, 1, 0)))
	assert.False(t, EveryNHours(4)(at(9, 0, 0)))

	assert.True(t, DailyAt(17, 30)(at(17, 30, 59)))
	assert.False(t, DailyAt(17, 30)(at(17, 31, 0)))

	assert.True(t, AtMinutes(13, 43)(at(2, 13, 0)))
	assert.True(t, AtMinutes(13, 43)(at(2, 43, 7)))
	assert.False(t, AtMinutes(13, 43)(at(2, 14, 0)))
}
