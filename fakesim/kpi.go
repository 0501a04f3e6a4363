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
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/simonlingoogle/go-simplelogger"

	. "github.com/openthread/otns-client/types"
)

type ChannelId = int

type KpiTimeUs struct {
	StartTimeUs uint64 `json:"start"`
	EndTimeUs   uint64 `json:"end"`
	PeriodUs    uint64 `json:"duration"`
}

type KpiTimeSec struct {
	StartTimeSec float64 `json:"start"`
	EndTimeSec   float64 `json:"end"`
	PeriodSec    float64 `json:"duration"`
}

type KpiChannel struct {
	TxTimeUs     uint64  `json:"tx_time_us"`
	TxPercentage float64 `json:"tx_percent"`
	NumFrames    uint64  `json:"tx_frames"`
	AvgFps       float64 `json:"tx_avg_fps"`
}

type KpiMac struct {
	NoAckPercentage map[NodeId]float64 `json:"noack_percent"`
}

type KpiCoapUri struct {
	Count     uint64  `json:"tx"`
	CountLost uint64  `json:"tx_lost"`
	LatencyMs float64 `json:"avg_latency_ms"`

	received       uint64
	totalLatencyUs uint64
}

type KpiCoap struct {
	Uri map[string]*KpiCoapUri `json:"uri"`
}

// Kpi is the content of a KPI JSON file.
type Kpi struct {
	FileTime string                   `json:"created"`
	Status   string                   `json:"status"`
	TimeUs   KpiTimeUs                `json:"time_us"`
	TimeSec  KpiTimeSec               `json:"time_sec"`
	Channels map[ChannelId]KpiChannel `json:"channels"`
	Mac      KpiMac                   `json:"mac"`
	Counters map[NodeId]NodeCounters  `json:"counters"`
	Coap     KpiCoap                  `json:"coap"`
}

type channelStats struct {
	txTimeUs  uint64
	numFrames uint64
}

type NodeCountersStore map[NodeId]NodeCounters

// KpiManager keeps the KPIs of a simulation between `kpi start` and `kpi stop`.
type KpiManager struct {
	sim           *Simulation
	data          *Kpi
	startCounters NodeCountersStore
	curCounters   NodeCountersStore
	channels      map[ChannelId]*channelStats
	isRunning     bool
}

func NewKpiManager(sim *Simulation) *KpiManager {
	return &KpiManager{
		sim:           sim,
		data:          newKpi(),
		startCounters: NodeCountersStore{},
		curCounters:   NodeCountersStore{},
		channels:      map[ChannelId]*channelStats{},
	}
}

func newKpi() *Kpi {
	return &Kpi{
		Status:   "ok",
		Channels: map[ChannelId]KpiChannel{},
		Mac:      KpiMac{NoAckPercentage: map[NodeId]float64{}},
		Counters: map[NodeId]NodeCounters{},
		Coap:     KpiCoap{Uri: map[string]*KpiCoapUri{}},
	}
}

func (km *KpiManager) Start() error {
	km.data = newKpi()
	km.startCounters = km.retrieveNodeCounters()
	km.data.TimeUs.StartTimeUs = km.sim.curTime
	km.channels = map[ChannelId]*channelStats{}
	km.isRunning = true
	return km.SaveFile(km.getDefaultSaveFileName())
}

func (km *KpiManager) Stop() {
	if km.isRunning {
		km.curCounters = km.retrieveNodeCounters()
		km.isRunning = false
		km.calculateKpis()
		if err := km.SaveDefaultFile(); err != nil {
			simplelogger.Errorf("%v", err)
		}
	}
}

func (km *KpiManager) IsRunning() bool {
	return km.isRunning
}

func (km *KpiManager) SaveDefaultFile() error {
	return km.SaveFile(km.getDefaultSaveFileName())
}

func (km *KpiManager) SaveFile(fn string) error {
	if km.isRunning {
		km.curCounters = km.retrieveNodeCounters()
		km.calculateKpis()
	}

	km.data.FileTime = time.Now().Format(time.RFC3339)
	data, err := json.MarshalIndent(km.data, "", "    ")
	if err != nil {
		return errors.Wrapf(err, "marshal KPI data")
	}

	if err = os.WriteFile(fn, data, 0644); err != nil {
		return errors.Wrapf(err, "write KPI file %s", fn)
	}
	return nil
}

func (km *KpiManager) stopNode(nodeid NodeId) {
	// deleted nodes are left out of the node-specific KPIs
	delete(km.startCounters, nodeid)
	delete(km.curCounters, nodeid)
}

func (km *KpiManager) onFrame(ch ChannelId, txTimeUs uint64) {
	if !km.isRunning {
		return
	}
	st := km.channels[ch]
	if st == nil {
		st = &channelStats{}
		km.channels[ch] = st
	}
	st.txTimeUs += txTimeUs
	st.numFrames++
}

func (km *KpiManager) coapUri(uri string) *KpiCoapUri {
	k := km.data.Coap.Uri[uri]
	if k == nil {
		k = &KpiCoapUri{}
		km.data.Coap.Uri[uri] = k
	}
	return k
}

func (km *KpiManager) onCoapSend(uri string) {
	if km.isRunning {
		km.coapUri(uri).Count++
	}
}

func (km *KpiManager) onCoapRecv(uri string, latencyUs uint64) {
	if km.isRunning {
		k := km.coapUri(uri)
		k.received++
		k.totalLatencyUs += latencyUs
	}
}

func (km *KpiManager) retrieveNodeCounters() NodeCountersStore {
	store := make(NodeCountersStore, len(km.sim.nodes))
	for nodeid, n := range km.sim.nodes {
		store[nodeid] = n.counters.Copy()
	}
	return store
}

func getCountersDiff(curCtr NodeCounters, startCtr NodeCounters) NodeCounters {
	ret := NodeCounters{}
	for k, v := range curCtr {
		// nodes created during the KPI period start from 0
		ret[k] = v - startCtr[k]
	}
	return ret
}

func (km *KpiManager) calculateKpis() {
	// time
	km.data.TimeUs.EndTimeUs = km.sim.curTime
	km.data.TimeUs.PeriodUs = km.data.TimeUs.EndTimeUs - km.data.TimeUs.StartTimeUs
	km.data.TimeSec.StartTimeSec = float64(km.data.TimeUs.StartTimeUs) / 1e6
	km.data.TimeSec.EndTimeSec = float64(km.data.TimeUs.EndTimeUs) / 1e6
	km.data.TimeSec.PeriodSec = float64(km.data.TimeUs.PeriodUs) / 1e6

	// channels
	km.data.Channels = map[ChannelId]KpiChannel{}
	if passedTime := km.data.TimeUs.PeriodUs; passedTime > 0 {
		for ch, st := range km.channels {
			km.data.Channels[ch] = KpiChannel{
				TxTimeUs:     st.txTimeUs,
				TxPercentage: 100.0 * float64(st.txTimeUs) / float64(passedTime),
				NumFrames:    st.numFrames,
				AvgFps:       1.0e6 * float64(st.numFrames) / float64(passedTime),
			}
		}
	}

	// counters
	km.data.Mac.NoAckPercentage = make(map[NodeId]float64)
	km.data.Counters = make(map[NodeId]NodeCounters)
	for nodeid, ctr := range km.curCounters {
		counters := getCountersDiff(ctr, km.startCounters[nodeid])
		noAckPercent := 100.0 - 100.0*float64(counters["mac.TxAcked"])/float64(counters["mac.TxAckRequested"])
		if math.IsNaN(noAckPercent) {
			noAckPercent = 0.0
		}
		km.data.Mac.NoAckPercentage[nodeid] = noAckPercent
		km.data.Counters[nodeid] = counters
	}

	// coap
	for _, k := range km.data.Coap.Uri {
		k.CountLost = 0
		if k.Count > k.received {
			k.CountLost = k.Count - k.received
		}
		k.LatencyMs = 0
		if k.received > 0 {
			k.LatencyMs = float64(k.totalLatencyUs) / float64(k.received) / 1000
		}
	}
}

func (km *KpiManager) getDefaultSaveFileName() string {
	return fmt.Sprintf("%s/%d_kpi.json", km.sim.cfg.OutputDir, km.sim.cfg.SimulationId)
}
