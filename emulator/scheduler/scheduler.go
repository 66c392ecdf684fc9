/*
Copyright (c) 2021-2022 The jx86pc authors

This software is provided 'as-is', without any express or implied
warranty. In no event will the authors be held liable for any damages
arising from the use of this software.

Permission is granted to anyone to use this software for any purpose,
including commercial applications, and to alter it and redistribute it
freely, subject to the following restrictions:

1. The origin of this software must not be misrepresented; you must not
   claim that you wrote the original software. If you use this software
   in a product, an acknowledgment in the product documentation would be
   appreciated but is not required.
2. Altered source versions must be plainly marked as such, and must not be
   misrepresented as being the original software.
3. This notice may not be removed or altered from any source distribution.
*/

// Package scheduler keeps the simulation clock and the queue of
// pending device events.
//
// Time is counted in ticks of 1/ClockRate second. The CPU advances the
// clock as it burns cycles; devices schedule timers against it. The
// scheduler itself never looks at the wall clock.
package scheduler

import (
	"container/heap"
	"math"
)

// ClockRate is the number of scheduler ticks per simulated second.
const ClockRate = 1000000000

// Clock is the view of the scheduler the CPU needs: an upper bound on
// how long it may run, and a way to report elapsed simulated time.
type Clock interface {
	TimeToNextEvent() int64
	AdvanceTime(ticks int64)
}

// A Timer fires a callback at a scheduled point in simulated time.
// Timers are single-shot; the callback may rearm itself.
type Timer struct {
	fire  func(now int64)
	when  int64
	index int
}

type Scheduler struct {
	now   int64
	queue timerQueue
}

func New() *Scheduler {
	return &Scheduler{}
}

// NewTimer creates an unarmed timer owned by this scheduler.
func (s *Scheduler) NewTimer(fire func(now int64)) *Timer {
	return &Timer{fire: fire, index: -1}
}

// Now returns the current simulation time in ticks.
func (s *Scheduler) Now() int64 {
	return s.now
}

// TimeToNextEvent returns the number of ticks until the earliest
// scheduled timer, or a very large value if nothing is pending.
func (s *Scheduler) TimeToNextEvent() int64 {
	if len(s.queue) == 0 {
		return math.MaxInt64
	}
	if d := s.queue[0].when - s.now; d > 0 {
		return d
	}
	return 0
}

// AdvanceTime moves the simulation clock forward. Due timers are not
// fired here; the machine loop calls Dispatch between CPU timeslices.
func (s *Scheduler) AdvanceTime(ticks int64) {
	s.now += ticks
}

// Schedule arms t to fire delay ticks from now, replacing any earlier
// deadline.
func (s *Scheduler) Schedule(t *Timer, delay int64) {
	t.when = s.now + delay
	if t.index >= 0 {
		heap.Fix(&s.queue, t.index)
		return
	}
	heap.Push(&s.queue, t)
}

// Cancel disarms t if it is scheduled.
func (s *Scheduler) Cancel(t *Timer) {
	if t.index >= 0 {
		heap.Remove(&s.queue, t.index)
	}
}

// Dispatch fires every timer whose deadline has been reached.
func (s *Scheduler) Dispatch() {
	for len(s.queue) > 0 && s.queue[0].when <= s.now {
		t := heap.Pop(&s.queue).(*Timer)
		t.fire(s.now)
	}
}

type timerQueue []*Timer

func (q timerQueue) Len() int            { return len(q) }
func (q timerQueue) Less(i, j int) bool  { return q[i].when < q[j].when }
func (q timerQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i]; q[i].index = i; q[j].index = j }
func (q *timerQueue) Push(x interface{}) { t := x.(*Timer); t.index = len(*q); *q = append(*q, t) }
func (q *timerQueue) Pop() interface{} {
	old := *q
	n := len(old) - 1
	t := old[n]
	t.index = -1
	old[n] = nil
	*q = old[:n]
	return t
}
