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

package scheduler

import (
	"math"
	"testing"

	"github.com/matryer/is"
)

func TestEmptySchedulerHasNoDeadline(t *testing.T) {
	is := is.New(t)
	s := New()
	is.Equal(s.TimeToNextEvent(), int64(math.MaxInt64))
}

func TestTimersFireInOrder(t *testing.T) {
	is := is.New(t)
	s := New()

	var order []int
	t1 := s.NewTimer(func(now int64) { order = append(order, 1) })
	t2 := s.NewTimer(func(now int64) { order = append(order, 2) })
	t3 := s.NewTimer(func(now int64) { order = append(order, 3) })

	s.Schedule(t2, 200)
	s.Schedule(t1, 100)
	s.Schedule(t3, 300)
	is.Equal(s.TimeToNextEvent(), int64(100))

	s.AdvanceTime(250)
	s.Dispatch()
	is.Equal(order, []int{1, 2})
	is.Equal(s.TimeToNextEvent(), int64(50))

	s.AdvanceTime(50)
	s.Dispatch()
	is.Equal(order, []int{1, 2, 3})
}

func TestRescheduleMovesDeadline(t *testing.T) {
	is := is.New(t)
	s := New()

	fired := 0
	tm := s.NewTimer(func(now int64) { fired++ })
	s.Schedule(tm, 100)
	s.Schedule(tm, 500) // replaces the earlier deadline
	is.Equal(s.TimeToNextEvent(), int64(500))

	s.AdvanceTime(200)
	s.Dispatch()
	is.Equal(fired, 0)

	s.AdvanceTime(300)
	s.Dispatch()
	is.Equal(fired, 1)
}

func TestCancelRemovesTimer(t *testing.T) {
	is := is.New(t)
	s := New()

	fired := false
	tm := s.NewTimer(func(now int64) { fired = true })
	s.Schedule(tm, 100)
	s.Cancel(tm)

	s.AdvanceTime(1000)
	s.Dispatch()
	is.Equal(fired, false)
	is.Equal(s.TimeToNextEvent(), int64(math.MaxInt64))
}

func TestTimerCanRearmItself(t *testing.T) {
	is := is.New(t)
	s := New()

	count := 0
	var tm *Timer
	tm = s.NewTimer(func(now int64) {
		count++
		if count < 3 {
			s.Schedule(tm, 100)
		}
	})
	s.Schedule(tm, 100)

	for i := 0; i < 5; i++ {
		s.AdvanceTime(100)
		s.Dispatch()
	}
	is.Equal(count, 3)
}

func TestDeadlineClampsAtZero(t *testing.T) {
	is := is.New(t)
	s := New()

	tm := s.NewTimer(func(now int64) {})
	s.Schedule(tm, 100)
	s.AdvanceTime(500)
	is.Equal(s.TimeToNextEvent(), int64(0))
}
