// FILE: scheduler.go
// Package main – Wall-clock trigger scheduling with per-trigger latches.
//
// A single 1-second tick drives every trigger. Each trigger is a small
// state machine: ARMED → FIRED when its predicate matches and the latch is
// clear, FIRED → ARMED when the predicate stops matching. The latch is set
// BEFORE the action runs, so a crash mid-cycle cannot cause a retry storm
// inside the same boundary — the next matching boundary is the retry.
//
// Tick(now) is the whole engine; Run just feeds it the real clock. Tests
// drive Tick directly with synthetic times.

package main

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// TriggerPredicate reports whether now falls on the trigger's boundary.
type TriggerPredicate func(now time.Time) bool

// TriggerAction is the work fired once per matching boundary. Errors are
// the action's own to log; the guard state does not depend on the outcome.
type TriggerAction func(ctx context.Context, now time.Time)

type trigger struct {
	name  string
	when  TriggerPredicate
	do    TriggerAction
	fired bool
}

// Scheduler owns all triggers and the shared clock tick. Actions run
// sequentially within a tick, in registration order.
type Scheduler struct {
	triggers []*trigger
}

func NewScheduler() *Scheduler { return &Scheduler{} }

// Add registers a named trigger. Not safe to call after Run has started.
func (s *Scheduler) Add(name string, when TriggerPredicate, do TriggerAction) {
	s.triggers = append(s.triggers, &trigger{name: name, when: when, do: do})
}

// Tick evaluates every trigger against now, firing each at most once per
// matching window.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	for _, t := range s.triggers {
		if !t.when(now) {
			t.fired = false
			continue
		}
		if t.fired {
			continue
		}
		t.fired = true // latch before invoking
		log.Infof("[SCHED] %s triggered at %s", t.name, now.Format(time.RFC3339))
		t.do(ctx, now)
	}
}

// Run feeds Tick from the real clock until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("[SCHED] shutdown")
			return
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}

// ---- predicate helpers ----

// EveryNMinutes matches the top of every n-th minute.
func EveryNMinutes(n int) TriggerPredicate {
	return func(now time.Time) bool { return now.Minute()%n == 0 }
}

// EveryNHours matches the top of every n-th hour.
func EveryNHours(n int) TriggerPredicate {
	return func(now time.Time) bool { return now.Hour()%n == 0 && now.Minute() == 0 }
}

// DailyAt matches one hh:mm boundary per day.
func DailyAt(hour, minute int) TriggerPredicate {
	return func(now time.Time) bool { return now.Hour() == hour && now.Minute() == minute }
}

// AtMinutes matches when the current minute equals any of the given values.
func AtMinutes(minutes ...int) TriggerPredicate {
	return func(now time.Time) bool {
		for _, m := range minutes {
			if now.Minute() == m {
				return true
			}
		}
		return false
	}
}
