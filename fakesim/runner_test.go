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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openthread/otns-client/pcap"
	"github.com/openthread/otns-client/progctx"
	. "github.com/openthread/otns-client/types"
)

type testRunner struct {
	t        *testing.T
	rt       *CmdRunner
	exitCode *int
}

func newTestRunner(t *testing.T) *testRunner {
	cfg := DefaultConfig()
	cfg.AutoGo = false
	cfg.Speed = MaxSimulateSpeed
	cfg.RadioModel = "Ideal"
	cfg.PcapFrameType = pcap.FrameTypeOff
	cfg.OutputDir = t.TempDir()
	cfg.RandomSeed = 42

	sim, err := NewSimulation(cfg)
	require.NoError(t, err)
	ctx := progctx.New(context.Background())
	t.Cleanup(func() {
		sim.Stop()
		ctx.Cancel(nil)
	})

	tr := &testRunner{t: t, rt: NewCmdRunner(ctx, sim)}
	tr.rt.exit = func(code int) {
		tr.exitCode = &code
	}
	return tr
}

// run executes cmd and returns the output lines without the final Done or Error line, and the
// final line itself.
func (tr *testRunner) run(cmd string) ([]string, string) {
	var buf bytes.Buffer
	_ = tr.rt.RunCommand(cmd, &buf)
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.NotEmpty(tr.t, lines)
	return lines[:len(lines)-1], lines[len(lines)-1]
}

// mustRun executes cmd, requires it to succeed and returns its output lines.
func (tr *testRunner) mustRun(cmd string) []string {
	output, last := tr.run(cmd)
	require.Equal(tr.t, "Done", last, "command %q: %v", cmd, output)
	return output
}

func (tr *testRunner) state(nodeid int) string {
	output := tr.mustRun("node " + strconv.Itoa(nodeid) + " \"state\"")
	require.Len(tr.t, output, 1)
	return output[0]
}

func TestAddAndListNodes(t *testing.T) {
	tr := newTestRunner(t)

	assert.Equal(t, []string{"1"}, tr.mustRun("add router x 100 y 100"))
	assert.Equal(t, []string{"5"}, tr.mustRun("add fed x 150 y 100 id 5"))
	// the lowest free id is reused
	assert.Equal(t, []string{"2"}, tr.mustRun("add med"))

	_, last := tr.run("add router id 5")
	assert.Equal(t, "Error: node 5 already exists", last)

	nodes := tr.mustRun("nodes")
	require.Len(t, nodes, 3)
	assert.True(t, strings.HasPrefix(nodes[0], "id=1\textaddr="))
	assert.Contains(t, nodes[0], "\tx=100\ty=100\tstate=detached\tfailed=false\texe=")
	assert.True(t, strings.HasPrefix(nodes[1], "id=2\t"))
	assert.True(t, strings.HasPrefix(nodes[2], "id=5\t"))
	assert.Equal(t, []string{"3"}, tr.mustRun("add sed"))

	tr.mustRun("del 5 7")
	assert.Len(t, tr.mustRun("nodes"), 3)
}

func TestFormPartition(t *testing.T) {
	tr := newTestRunner(t)

	tr.mustRun("add router x 100 y 100")
	tr.mustRun("add router x 200 y 100")
	tr.mustRun("add fed x 150 y 150")
	tr.mustRun("go 10")

	assert.Equal(t, "leader", tr.state(1))
	assert.Equal(t, "router", tr.state(2))
	assert.Equal(t, "child", tr.state(3))

	pars := tr.mustRun("partitions")
	require.Len(t, pars, 1)
	assert.True(t, strings.HasSuffix(pars[0], "\tnodes=1,2,3"))

	// moving a router out of range splits the partition
	tr.mustRun("move 2 1000 1000")
	tr.mustRun("go 1")
	assert.Len(t, tr.mustRun("partitions"), 2)
	assert.Equal(t, "leader", tr.state(2))
}

func TestGoAndTime(t *testing.T) {
	tr := newTestRunner(t)

	assert.Equal(t, []string{"0"}, tr.mustRun("time"))
	tr.mustRun("go 1.5")
	assert.Equal(t, []string{"1500000"}, tr.mustRun("time"))
	tr.mustRun("go 100ms")
	assert.Equal(t, []string{"1600000"}, tr.mustRun("time"))

	_, last := tr.run("go 1 speed 0")
	assert.Equal(t, "Done", last)
	assert.Equal(t, []string{"2600000"}, tr.mustRun("time"))
}

func TestSpeedAndSettings(t *testing.T) {
	tr := newTestRunner(t)

	assert.Equal(t, []string{"1e+06"}, tr.mustRun("speed"))
	tr.mustRun("speed 5")
	assert.Equal(t, []string{"5"}, tr.mustRun("speed"))
	tr.mustRun("speed 1e9")
	assert.Equal(t, []string{"1e+06"}, tr.mustRun("speed"))

	assert.Equal(t, []string{"0"}, tr.mustRun("autogo"))
	assert.Equal(t, []string{"0.5"}, tr.mustRun("plr 0.5"))
	assert.Equal(t, []string{"1"}, tr.mustRun("plr 3"))
	assert.Equal(t, []string{"Ideal"}, tr.mustRun("radiomodel"))
	assert.Equal(t, []string{"MutualInterference"}, tr.mustRun("radiomodel MI"))

	_, last := tr.run("radiomodel Foo")
	assert.Equal(t, "Error: radiomodel 'Foo' is not defined", last)

	cv := tr.mustRun("cv bro off")
	assert.Equal(t, []string{"bro=off", "uni=on", "ack=off", "rtb=on", "ctb=on"}, cv)

	tr.mustRun("title \"Test\" x 10")
	assert.Equal(t, "Test", tr.rt.sim.title.Title)
	assert.Equal(t, 10, tr.rt.sim.title.X)

	tr.mustRun("netinfo version \"v1\" commit \"abc\" real y")
	assert.Equal(t, NetworkInfo{Real: true, Version: "v1", Commit: "abc"}, tr.rt.sim.netInfo)

	counters := tr.mustRun("counters")
	assert.True(t, strings.HasPrefix(counters[0], "AlarmEvents"))
}

func TestDebugCommands(t *testing.T) {
	tr := newTestRunner(t)

	assert.Equal(t, []string{"hello"}, tr.mustRun("debug echo \"hello\""))

	_, last := tr.run("debug fail")
	assert.Equal(t, "Error: debug failed", last)

	_, last = tr.run("debug interrupt")
	assert.Equal(t, "Error: command interrupted", last)

	tr.run("debug crash 3")
	require.NotNil(t, tr.exitCode)
	assert.Equal(t, 3, *tr.exitCode)

	_, last = tr.run("nosuchcommand")
	assert.True(t, strings.HasPrefix(last, "Error: "))
}

func TestNodeCommand(t *testing.T) {
	tr := newTestRunner(t)

	tr.mustRun("add router")
	tr.mustRun("go 10")

	assert.Equal(t, []string{"0xface"}, tr.mustRun("node 1 \"panid\""))
	assert.Equal(t, []string{"11"}, tr.mustRun("node 1 \"channel\""))

	_, last := tr.run("node 1 \"channel 12\"")
	assert.Equal(t, "Error: Error 13: InvalidState", last)

	_, last = tr.run("node 1 \"nosuchcmd\"")
	assert.Equal(t, "Error: Error 35: InvalidCommand", last)

	_, last = tr.run("node 2 \"state\"")
	assert.Equal(t, "Error: node 2 not found", last)

	assert.Empty(t, tr.mustRun("node 1"))

	addrs := tr.mustRun("node 1 \"ipaddr mleid\"")
	require.Len(t, addrs, 1)
	assert.True(t, strings.HasPrefix(addrs[0], "fdde:ad00:beef:0:"))
}

func TestPingAndCollectPings(t *testing.T) {
	tr := newTestRunner(t)

	tr.mustRun("add router x 100 y 100")
	tr.mustRun("add router x 200 y 100")
	tr.mustRun("go 10")

	tr.mustRun("ping 1 2")
	tr.mustRun("ping 1 2 datasize 2")
	tr.mustRun("ping 1 2 datasize 32 count 2 interval 1")
	tr.mustRun("go 5")

	pings := tr.mustRun("pings")
	require.Len(t, pings, 3)
	assert.True(t, strings.HasPrefix(pings[0], "node=1    dst=fdde:ad00:beef:0:"))
	assert.Contains(t, pings[0], "datasize=4 ")
	assert.Contains(t, pings[1], "datasize=32 ")
	assert.Empty(t, tr.mustRun("pings"))

	_, last := tr.run("ping 3 1")
	assert.Equal(t, "Error: src node not found", last)
}

func TestJoin(t *testing.T) {
	tr := newTestRunner(t)

	tr.mustRun("add router x 100 y 100")
	tr.mustRun("add fed x 150 y 100")
	tr.mustRun("go 10")

	tr.mustRun("node 2 \"thread stop\"")
	tr.mustRun("node 2 \"networkkey 00112233445566778899aabbccddee00\"")
	tr.mustRun("node 1 \"commissioner start\"")
	tr.mustRun("node 1 \"commissioner joiner add * J01NME\"")
	tr.mustRun("node 2 \"joiner start J01NME\"")
	assert.Equal(t, []string{"Discover"}, tr.mustRun("node 2 \"joiner state\""))
	tr.mustRun("go 10")

	joins := tr.mustRun("joins")
	require.Len(t, joins, 1)
	assert.Equal(t, "node=2    join=3.000s session=4.000s", joins[0])
	assert.Equal(t, []string{"00112233445566778899aabbccddeeff"}, tr.mustRun("node 2 \"networkkey\""))

	_, last := tr.run("node 1 \"commissioner joiner add * ABC\"")
	assert.Equal(t, "Error: Error 7: InvalidArgs", last)
}

func TestCoaps(t *testing.T) {
	tr := newTestRunner(t)

	tr.mustRun("add router x 100 y 100")
	tr.mustRun("add router x 200 y 100")
	tr.mustRun("go 10")
	tr.mustRun("coaps enable")
	tr.mustRun("node 1 \"coap start\"")
	assert.Equal(t, []string{"Coap service started: Done"}, tr.mustRun("node 2 \"coap start\""))

	addr := tr.mustRun("node 2 \"ipaddr mleid\"")[0]
	tr.mustRun("node 1 \"coap post " + addr + " test con\"")
	tr.mustRun("go 1")

	msgs := tr.mustRun("coaps")
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0], "uri: test")
	assert.Contains(t, msgs[0], "receivers: [{")
	assert.Contains(t, msgs[1], "type: 2")

	assert.Equal(t, []string{"[]"}, tr.mustRun("coaps"))
}

func TestKpi(t *testing.T) {
	tr := newTestRunner(t)

	assert.Equal(t, []string{"off"}, tr.mustRun("kpi"))
	tr.mustRun("add router")
	tr.mustRun("kpi start")
	assert.Equal(t, []string{"on"}, tr.mustRun("kpi"))
	tr.mustRun("go 10")
	tr.mustRun("kpi stop")

	fn := filepath.Join(tr.rt.sim.cfg.OutputDir, "0_kpi.json")
	data, err := os.ReadFile(fn)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\"duration\": 10")

	fn2 := filepath.Join(t.TempDir(), "my.json")
	tr.mustRun("kpi save \"" + fn2 + "\"")
	assert.FileExists(t, fn2)
}

func TestWatch(t *testing.T) {
	tr := newTestRunner(t)

	tr.mustRun("add router")
	tr.mustRun("add router")
	assert.Equal(t, []string{""}, tr.mustRun("watch"))
	tr.mustRun("watch 1 2 info")
	assert.Equal(t, []string{"1 2"}, tr.mustRun("watch"))
	tr.mustRun("unwatch 1")
	assert.Equal(t, []string{"2"}, tr.mustRun("watch"))
	tr.mustRun("unwatch")
	assert.Equal(t, []string{""}, tr.mustRun("watch"))

	assert.Equal(t, []string{"default"}, tr.mustRun("watch default"))
	tr.mustRun("watch default note")
	assert.Equal(t, []string{"note"}, tr.mustRun("watch default"))
	tr.mustRun("add router")
	assert.Equal(t, []string{"3"}, tr.mustRun("watch"))
}

func TestSaveAndLoad(t *testing.T) {
	tr := newTestRunner(t)

	tr.mustRun("add router x 100 y 100")
	tr.mustRun("add med x 150 y 100 rr 100")
	fn := filepath.Join(t.TempDir(), "topo.yaml")
	tr.mustRun("save \"" + fn + "\"")

	tr2 := newTestRunner(t)
	tr2.mustRun("load \"" + fn + "\"")
	nodes := tr2.mustRun("nodes")
	require.Len(t, nodes, 2)
	assert.Contains(t, nodes[1], "\tx=150\ty=100\t")
	assert.Equal(t, 100, int(tr2.rt.sim.nodes[2].radio.RadioRange))

	// loading again fails, the node ids are taken
	_, last := tr2.run("load \"" + fn + "\"")
	assert.Equal(t, "Error: not all nodes could be imported", last)
}

func TestExit(t *testing.T) {
	tr := newTestRunner(t)

	_, last := tr.run("exit")
	assert.Equal(t, "Done", last)
	assert.True(t, tr.rt.sim.IsStopped())

	var buf bytes.Buffer
	assert.Error(t, tr.rt.RunCommand("time", &buf))
	assert.Empty(t, buf.String())
}

func TestHelp(t *testing.T) {
	tr := newTestRunner(t)

	output := tr.mustRun("help")
	assert.NotEmpty(t, output)
	output = tr.mustRun("help ping")
	assert.NotEmpty(t, output)
}
