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

// Package radiomodel decides which simulated nodes can hear each other.
package radiomodel

import (
	"math"

	. "github.com/openthread/otns-client/types"
)

// DbValue is a power level in dBm, or a power ratio in dB.
type DbValue = float64

const (
	RssiInvalid       = 127
	RssiMax           = 126
	RssiMin           = -126
	RssiMinusInfinity = -127

	defaultTxPowerDbm       DbValue = 0
	defaultRxSensitivityDbm DbValue = -100
	// TimeUsPerBit is the air time of one bit at 250 kbps.
	TimeUsPerBit = 4
)

// RadioNode is the radio state of one node, as seen by a radio model.
type RadioNode struct {
	Id NodeId

	// RadioRange is the radio range in grid units.
	RadioRange float64
	// Failed is true while the radio is off or failing.
	Failed bool

	TxPower       DbValue
	RxSensitivity DbValue

	// Node position in grid units.
	X, Y float64
}

func NewRadioNode(id NodeId, x, y, radioRange int) *RadioNode {
	return &RadioNode{
		Id:            id,
		RadioRange:    float64(radioRange),
		TxPower:       defaultTxPowerDbm,
		RxSensitivity: defaultRxSensitivityDbm,
		X:             float64(x),
		Y:             float64(y),
	}
}

func (rn *RadioNode) SetNodePos(x, y int) {
	rn.X, rn.Y = float64(x), float64(y)
}

// GetDistanceTo gets the distance to another RadioNode (in grid units).
func (rn *RadioNode) GetDistanceTo(other *RadioNode) float64 {
	dx := other.X - rn.X
	dy := other.Y - rn.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// RadioModel decides frame reception between radio nodes.
type RadioModel interface {
	// GetName gets the display name of this RadioModel.
	GetName() string

	// GetTxRssi returns the RSSI at dst of a frame sent by src.
	GetTxRssi(src, dst *RadioNode) DbValue

	// CheckRadioReachable returns true if dst can receive frames from src at all.
	CheckRadioReachable(src, dst *RadioNode) bool

	// FrameSuccessRate returns the probability (0 to 1) that a frame of frameBytes sent by src
	// is received intact by dst.
	FrameSuccessRate(src, dst *RadioNode, frameBytes int) float64
}

// Create creates a new RadioModel with given name, or nil if model not found.
func Create(modelName string) RadioModel {
	switch modelName {
	case "Ideal", "I", "1":
		return &radioModelIdeal{
			name:      "Ideal",
			fixedRssi: -60,
		}
	case "Ideal_Rssi", "IR", "2":
		params := newRadioModelParams()
		setIndoorModelParamsItu(params)
		return &radioModelIdeal{
			name:            "Ideal_Rssi",
			useVariableRssi: true,
			params:          params,
		}
	case "MutualInterference", "MI", "M", "3", "default":
		params := newRadioModelParams()
		setIndoorModelParams3gpp(params)
		params.IsDiscLimit = true
		return &radioModelPathloss{name: "MutualInterference", params: params}
	case "Outdoor", "O", "4":
		params := newRadioModelParams()
		setOutdoorModelParams(params)
		return &radioModelPathloss{name: "Outdoor", params: params}
	default:
		return nil
	}
}

// radioModelIdeal delivers every frame within the radio range of the sender.
type radioModelIdeal struct {
	name            string
	fixedRssi       DbValue
	useVariableRssi bool
	params          *RadioModelParams
}

func (rm *radioModelIdeal) GetName() string {
	return rm.name
}

func (rm *radioModelIdeal) GetTxRssi(src, dst *RadioNode) DbValue {
	// in the most ideal case, always assume a good RSSI up until the max range.
	if !rm.useVariableRssi {
		return rm.fixedRssi
	}
	return clipRssi(computeIndoorRssiItu(src.GetDistanceTo(dst), src.TxPower, rm.params))
}

func (rm *radioModelIdeal) CheckRadioReachable(src, dst *RadioNode) bool {
	if src == dst || src.Failed || dst.Failed {
		return false
	}
	return src.GetDistanceTo(dst) <= src.RadioRange
}

func (rm *radioModelIdeal) FrameSuccessRate(src, dst *RadioNode, frameBytes int) float64 {
	if !rm.CheckRadioReachable(src, dst) {
		return 0
	}
	return 1
}

// radioModelPathloss computes the RSSI from a path loss model, and frame errors from the
// resulting SNR.
type radioModelPathloss struct {
	name   string
	params *RadioModelParams
}

func (rm *radioModelPathloss) GetName() string {
	return rm.name
}

func (rm *radioModelPathloss) GetTxRssi(src, dst *RadioNode) DbValue {
	return clipRssi(computeIndoorRssi3gpp(src.GetDistanceTo(dst), src.TxPower, rm.params))
}

func (rm *radioModelPathloss) CheckRadioReachable(src, dst *RadioNode) bool {
	if src == dst || src.Failed || dst.Failed {
		return false
	}
	if rm.params.IsDiscLimit && src.GetDistanceTo(dst) > src.RadioRange {
		return false
	}
	rssi := rm.GetTxRssi(src, dst)
	return rssi >= RssiMin && rssi >= dst.RxSensitivity
}

func (rm *radioModelPathloss) FrameSuccessRate(src, dst *RadioNode, frameBytes int) float64 {
	if !rm.CheckRadioReachable(src, dst) {
		return 0
	}
	snrDb := rm.GetTxRssi(src, dst) - rm.params.NoiseFloorDbm
	if snrDb >= 6.0 {
		return 1
	}
	psuc, _ := computePacketSuccessRate(snrDb, uint64(frameBytes*8*TimeUsPerBit))
	return psuc
}

// clipRssi clips the RSSI value (in dBm) to the int8 range reported to OT nodes.
func clipRssi(rssi DbValue) DbValue {
	if rssi > RssiMax {
		return RssiMax
	} else if rssi < RssiMin {
		return RssiMinusInfinity
	}
	return math.Round(rssi)
}
