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
	"github.com/simonlingoogle/go-simplelogger"
)

type FailTime struct {
	FailDuration uint64 // unit: us
	FailInterval uint64 // unit: us
}

var (
	NonFailTime = FailTime{0, 0}
)

func (ft FailTime) CanFail() bool {
	return ft.FailDuration > 0
}

// failureCtrl lets the radio of a node fail for FailDuration at a random moment of every FailInterval.
type failureCtrl struct {
	owner    *node
	failTime FailTime
	remainTm uint64 // unit: us; time that remains in this fail cycle after failure has ended.
	pending  *event
}

func newFailureCtrl(owner *node) *failureCtrl {
	return &failureCtrl{
		owner:    owner,
		failTime: NonFailTime,
	}
}

func (fc *failureCtrl) SetFailTime(failTime FailTime) {
	sim := fc.owner.sim
	fc.failTime = failTime
	fc.remainTm = 0
	sim.events.Cancel(fc.pending)
	fc.pending = nil

	if !failTime.CanFail() {
		if fc.owner.radio.Failed && !fc.owner.radioOff {
			fc.owner.setRadioFailed(false)
		}
		return
	}
	fc.scheduleFail()
}

func (fc *failureCtrl) stop() {
	fc.owner.sim.events.Cancel(fc.pending)
	fc.pending = nil
}

func (fc *failureCtrl) scheduleFail() {
	sim := fc.owner.sim
	simplelogger.AssertTrue(fc.failTime.FailDuration > 0 && fc.failTime.FailInterval > fc.failTime.FailDuration)
	failStartTimeMax := int(fc.failTime.FailInterval - fc.failTime.FailDuration)
	failTsRel := sim.prng.NewFailTime(failStartTimeMax)
	failTs := failTsRel + sim.curTime + fc.remainTm
	fc.remainTm = fc.failTime.FailInterval - fc.failTime.FailDuration - failTsRel
	simplelogger.AssertTrue(fc.remainTm < fc.failTime.FailInterval)
	fc.pending = sim.events.Add(failTs, fc.onFail)
}

func (fc *failureCtrl) onFail() {
	sim := fc.owner.sim
	fc.owner.setRadioFailed(true)
	fc.pending = sim.events.Add(sim.curTime+fc.failTime.FailDuration, fc.onRecover)
}

func (fc *failureCtrl) onRecover() {
	if !fc.owner.radioOff {
		fc.owner.setRadioFailed(false)
	}
	fc.scheduleFail()
}
