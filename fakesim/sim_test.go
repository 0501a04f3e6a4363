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
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openthread/otns-client/pcap"
	. "github.com/openthread/otns-client/types"
)

func newTestSim(t *testing.T) *Simulation {
	cfg := DefaultConfig()
	cfg.AutoGo = false
	cfg.RadioModel = "Ideal"
	cfg.PcapFrameType = pcap.FrameTypeOff
	cfg.OutputDir = t.TempDir()
	cfg.RandomSeed = 1

	sim, err := NewSimulation(cfg)
	require.NoError(t, err)
	t.Cleanup(sim.Stop)
	return sim
}

func addTestNode(t *testing.T, sim *Simulation, typ string, x, y int) *node {
	cfg := DefaultNodeConfig()
	cfg.Type = typ
	cfg.X, cfg.Y = x, y
	cfg.IsAutoPlaced = false
	n, err := sim.AddNode(&cfg)
	require.NoError(t, err)
	return n
}

func TestEventOrder(t *testing.T) {
	em := newEventMgr()
	var order []int
	em.Add(20, func() { order = append(order, 3) })
	em.Add(10, func() { order = append(order, 1) })
	e := em.Add(15, func() { order = append(order, 99) })
	em.Add(10, func() { order = append(order, 2) })
	em.Cancel(e)
	em.Cancel(e)
	em.Cancel(nil)

	assert.Equal(t, 3, em.Len())
	assert.Equal(t, uint64(10), em.NextTimestamp())
	assert.Nil(t, em.PopDue(9))

	for ev := em.PopDue(20); ev != nil; ev = em.PopDue(20) {
		ev.fn()
	}
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.Equal(t, Ever, em.NextTimestamp())
}

func TestNewSimulationBadRadioModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RadioModel = "NoSuchModel"
	_, err := NewSimulation(cfg)
	assert.Error(t, err)
}

func TestPcapWrittenOnStop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoGo = false
	cfg.RadioModel = "Ideal"
	cfg.OutputDir = t.TempDir()
	sim, err := NewSimulation(cfg)
	require.NoError(t, err)

	addTestNode(t, sim, ROUTER, 100, 100)
	addTestNode(t, sim, ROUTER, 150, 100)
	require.NoError(t, sim.Go(context.Background(), 10*time.Second, MaxSimulateSpeed))
	sim.Ping(sim.nodes[1], sim.nodes[2].mleid()[0], 10, 1, 1, 64)
	require.NoError(t, sim.Go(context.Background(), time.Second, MaxSimulateSpeed))
	sim.Stop()

	hdr, err := pcap.ReadFileHeader(filepath.Join(cfg.OutputDir, cfg.PcapFile))
	require.NoError(t, err)
	assert.Equal(t, pcap.FrameTypeWpanTap, hdr.FrameType())
}

func TestFailTime(t *testing.T) {
	sim := newTestSim(t)
	n := addTestNode(t, sim, ROUTER, 100, 100)

	ft := FailTime{FailDuration: 1000000, FailInterval: 10000000}
	require.NoError(t, sim.SetNodeFailTime(n.id, ft))

	failedUs := uint64(0)
	for i := 0; i < 100000; i++ {
		sim.advanceTo(sim.curTime + 1000)
		if n.radio.Failed {
			failedUs += 1000
		}
	}
	// 100s simulated, failing 10% of the time
	assert.InDelta(t, 10000000, float64(failedUs), 1100000)

	require.NoError(t, sim.SetNodeFailTime(n.id, NonFailTime))
	assert.False(t, n.radio.Failed)
	assert.Error(t, sim.SetNodeFailTime(99, ft))
}

func TestVersionOfExecutable(t *testing.T) {
	assert.Equal(t, "v12", versionOfExecutable("ot-cli-ftd_v12"))
	assert.Equal(t, "", versionOfExecutable("ot-cli-ftd"))

	cfg := DefaultNodeConfig()
	assert.Equal(t, "ot-cli-ftd", cfg.executableName())
	cfg.Type = MED
	assert.Equal(t, "ot-cli-mtd", cfg.executableName())
	cfg.ExecutablePath = "/some/path/ot-cli-ftd_v11"
	assert.Equal(t, "ot-cli-ftd_v11", cfg.executableName())
}

func TestTopologyRoles(t *testing.T) {
	sim := newTestSim(t)
	r1 := addTestNode(t, sim, ROUTER, 100, 100)
	r2 := addTestNode(t, sim, ROUTER, 300, 100)
	c := addTestNode(t, sim, SED, 290, 120)
	far := addTestNode(t, sim, ROUTER, 2000, 2000)

	assert.Equal(t, OtDeviceRoleDetached, r1.role)
	sim.advanceTo(attachDelayUs)

	assert.Equal(t, OtDeviceRoleLeader, r1.role)
	assert.Equal(t, OtDeviceRoleRouter, r2.role)
	assert.Equal(t, OtDeviceRoleChild, c.role)
	assert.Equal(t, r2.id, c.parent)
	assert.Equal(t, r2.rloc16|1, c.rloc16)
	assert.Equal(t, OtDeviceRoleLeader, far.role)
	assert.NotEqual(t, r1.partitionId, far.partitionId)
	assert.Len(t, sim.Partitions(), 2)

	// a partition keeps its id when a router leaves
	parid := r1.partitionId
	require.NoError(t, sim.SetNodeFailed(r2.id, true))
	assert.Equal(t, parid, r1.partitionId)
	assert.Equal(t, OtDeviceRoleDetached, r2.role)
	assert.Equal(t, r1.id, c.parent)

	// different network keys do not link
	require.NoError(t, sim.SetNodeFailed(r2.id, false))
	r2.threadStop()
	r2.networkKey = "ffeeddccbbaa99887766554433221100"
	r2.threadStart()
	sim.advanceTo(sim.curTime + attachDelayUs)
	assert.Len(t, sim.Partitions(), 3)

	require.NoError(t, sim.DeleteNode(r1.id))
	assert.Error(t, sim.DeleteNode(r1.id))
}

func TestBorderRouterPublishesPrefix(t *testing.T) {
	sim := newTestSim(t)
	br := addTestNode(t, sim, BR, 100, 100)
	r := addTestNode(t, sim, ROUTER, 150, 100)
	sim.advanceTo(attachDelayUs)

	addrs := r.slaac()
	require.Len(t, addrs, 1)
	assert.Contains(t, addrs[0], "fd00:f00d:cafe:0:")
	assert.Len(t, br.slaac(), 1)
}

func TestSetSpeedAndPlrClamped(t *testing.T) {
	sim := newTestSim(t)
	sim.SetSpeed(-1)
	assert.Equal(t, float64(PauseSimulateSpeed), sim.Speed())
	sim.SetSpeed(MaxSimulateSpeed * 2)
	assert.Equal(t, float64(MaxSimulateSpeed), sim.Speed())
	sim.SetPacketLossRatio(math.Inf(1))
	assert.Equal(t, 1.0, sim.PacketLossRatio())
	sim.SetPacketLossRatio(-0.5)
	assert.Equal(t, 0.0, sim.PacketLossRatio())
}

func TestGoInterrupted(t *testing.T) {
	sim := newTestSim(t)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	err := sim.Go(ctx, time.Hour, 1)
	assert.Equal(t, CommandInterruptedError, err)
	assert.Less(t, sim.CurTime(), uint64(10000000))
}

func TestCrc16(t *testing.T) {
	// CRC-16/KERMIT check value
	assert.Equal(t, uint16(0x2189), crc16([]byte("123456789")))
}

func TestTopologyFile(t *testing.T) {
	sim := newTestSim(t)
	fn := filepath.Join(t.TempDir(), "topo.yaml")
	require.NoError(t, os.WriteFile(fn, []byte(testYamlFile), 0644))

	require.NoError(t, sim.LoadTopology(fn))
	require.Equal(t, []NodeId{11, 12, 13, 14}, sim.GetNodes())
	n := sim.nodes[12]
	assert.Equal(t, 150+10, int(n.radio.X))
	assert.Equal(t, 100+20, int(n.radio.Y))
	assert.Equal(t, "v11", n.version)
	assert.Equal(t, 300, int(n.radio.RadioRange))
	assert.Equal(t, 200, int(sim.nodes[11].radio.RadioRange))
	assert.Equal(t, MED, sim.nodes[14].typ)

	out := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, sim.SaveTopology(out))
	sim2 := newTestSim(t)
	require.NoError(t, sim2.LoadTopology(out))
	assert.Equal(t, sim.GetNodes(), sim2.GetNodes())
	assert.Equal(t, "v12", sim2.nodes[13].version)
	assert.Equal(t, 160, int(sim2.nodes[12].radio.X))

	assert.Error(t, sim2.LoadTopology(filepath.Join(t.TempDir(), "missing.yaml")))
}

const testYamlFile = `
network:
    pos-shift: [10, 20, 0]
    radio-range: 200
    base-id: 10
nodes:
    - id: 1
      type: router
      pos: [100, 100, 0]
    - id: 2
      type: router
      version: v11
      pos: [150, 100, 0]
      rr: 300
    - id: 3
      type: fed
      version: v12
      pos: [100, 150, 0]
    - id: 4
      type: med
      pos: [150, 150, 0]
`
