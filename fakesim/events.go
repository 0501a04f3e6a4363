// Copyright (c) 2020-2023, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package fakesim

import (
	"container/heap"
	"math"

	"github.com/simonlingoogle/go-simplelogger"
)

// Ever is the timestamp of an event that never happens.
const Ever uint64 = math.MaxUint64

type event struct {
	Timestamp uint64 // simulated time in us
	seq       uint64
	fn        func()

	index int
}

type eventQueue []*event

func (eq eventQueue) Len() int {
	return len(eq)
}

// Less orders events by timestamp, then by insertion order.
func (eq eventQueue) Less(i, j int) bool {
	if eq[i].Timestamp != eq[j].Timestamp {
		return eq[i].Timestamp < eq[j].Timestamp
	}
	return eq[i].seq < eq[j].seq
}

func (eq eventQueue) Swap(i, j int) {
	a, b := eq[i], eq[j]
	if a.index != i && b.index != j {
		simplelogger.Panicf("wrong index")
	}

	eq[i], eq[j] = b, a             // swap the elements
	eq[i].index, eq[j].index = i, j // fix the indexes
}

func (eq *eventQueue) Push(x interface{}) {
	e := x.(*event)
	*eq = append(*eq, e)
	e.index = len(*eq) - 1
}

func (eq *eventQueue) Pop() (elem interface{}) {
	eqlen := len(*eq)
	e := (*eq)[eqlen-1]
	e.index = -1
	*eq = (*eq)[:eqlen-1]
	return e
}

// eventMgr holds the pending timed events of the simulation.
type eventMgr struct {
	q   eventQueue
	seq uint64
}

func newEventMgr() *eventMgr {
	em := &eventMgr{
		q: eventQueue{},
	}

	heap.Init(&em.q)
	return em
}

// Add schedules fn to run at timestamp.
func (em *eventMgr) Add(timestamp uint64, fn func()) *event {
	em.seq++
	e := &event{
		Timestamp: timestamp,
		seq:       em.seq,
		fn:        fn,
	}
	heap.Push(&em.q, e)
	return e
}

// Cancel removes e if it is still pending. A nil e is ignored.
func (em *eventMgr) Cancel(e *event) {
	if e == nil || e.index < 0 {
		return
	}
	heap.Remove(&em.q, e.index)
}

func (em *eventMgr) NextTimestamp() uint64 {
	if len(em.q) == 0 {
		return Ever
	}

	return em.q[0].Timestamp
}

// PopDue removes and returns the next event at or before timestamp, or nil.
func (em *eventMgr) PopDue(timestamp uint64) *event {
	if len(em.q) == 0 || em.q[0].Timestamp > timestamp {
		return nil
	}
	return heap.Pop(&em.q).(*event)
}

func (em *eventMgr) Len() int {
	return len(em.q)
}
