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
	"github.com/openthread/otns-client/pcap"
)

type Config struct {
	Speed             float64
	AutoGo            bool
	Real              bool
	ReadOnly          bool
	DumpPackets       bool
	RandomSeed        int64
	PcapFrameType     pcap.FrameType
	PcapFile          string
	DefaultWatchOn    bool
	DefaultWatchLevel string
	RadioModel        string
	OutputDir         string
	SimulationId      int
}

func DefaultConfig() *Config {
	return &Config{
		Speed:         1,
		AutoGo:        true,
		PcapFrameType: pcap.FrameTypeWpanTap,
		PcapFile:      "current.pcap",
		RadioModel:    "MutualInterference",
		OutputDir:     ".",
	}
}

type VisualizationOptions struct {
	BroadcastMessage bool
	UnicastMessage   bool
	AckMessage       bool
	RouterTable      bool
	ChildTable       bool
}

func defaultVisualizationOptions() VisualizationOptions {
	return VisualizationOptions{
		BroadcastMessage: true,
		UnicastMessage:   true,
		AckMessage:       false,
		RouterTable:      true,
		ChildTable:       true,
	}
}

type TitleInfo struct {
	Title    string
	X        int
	Y        int
	FontSize int
}

func DefaultTitleInfo() TitleInfo {
	return TitleInfo{
		X:        0,
		Y:        20,
		FontSize: 20,
	}
}

type NetworkInfo struct {
	Real    bool
	Version string
	Commit  string
}

// Counters are the event counters of the simulation, listed by the `counters` command in field order.
type Counters struct {
	// Event counters
	AlarmEvents      uint64
	RadioEvents      uint64
	StatusPushEvents uint64
	UartWriteEvents  uint64
	// Packet dispatching counters
	DispatchByExtAddrSucc   uint64
	DispatchByExtAddrFail   uint64
	DispatchByShortAddrSucc uint64
	DispatchByShortAddrFail uint64
	DispatchAllInRange      uint64
}
