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

package otnstester

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/simonlingoogle/go-simplelogger"
	"github.com/stretchr/testify/assert"

	"github.com/openthread/otns-client/fakesim"
	"github.com/openthread/otns-client/otns"
	. "github.com/openthread/otns-client/types"
)

var otnsTestSingleton *OtnsTest = nil

// OtnsTest runs scenario tests against one simulator session that is shared by the tests of a
// package. Every failed expectation fails the current test immediately.
type OtnsTest struct {
	*testing.T

	session *otns.Session
	dir     string
}

func (ot *OtnsTest) Session() *otns.Session {
	return ot.session
}

func (ot *OtnsTest) Go(duration time.Duration) {
	ot.ExpectNoError(ot.session.Go(duration))
}

func (ot *OtnsTest) AddNode(role string, x int, y int) NodeId {
	id, err := ot.session.Add(otns.AddConfig{Type: role, X: otns.Int(x), Y: otns.Int(y)})
	ot.ExpectNoError(err)
	return id
}

// AddNode with radio-range (rr)
func (ot *OtnsTest) AddNodeRr(role string, x int, y int, rr int) NodeId {
	id, err := ot.session.Add(otns.AddConfig{Type: role, X: otns.Int(x), Y: otns.Int(y), RadioRange: otns.Int(rr)})
	ot.ExpectNoError(err)
	return id
}

// Shutdown ends the shared session. The next Instance call starts a new one.
func (ot *OtnsTest) Shutdown() {
	if err := ot.session.Close(); err != nil {
		simplelogger.Warnf("close session: %v", err)
	}
	_ = os.RemoveAll(ot.dir)
	if otnsTestSingleton == ot {
		otnsTestSingleton = nil
	}
}

func (ot *OtnsTest) SetSpeed(speed float64) {
	ot.ExpectNoError(ot.session.SetSpeed(speed))
}

func (ot *OtnsTest) Start(testFunc string) {
	ot.Reset()
	simplelogger.Infof("Go test Start(): %v", testFunc)
}

func (ot *OtnsTest) Reset() {
	ot.SetSpeed(MaxSimulateSpeed)
	ot.SetPacketLossRatio(0)
	ot.Command("radiomodel Ideal")
	ot.RemoveAllNodes()
	ot.Go(time.Second)
}

func (ot *OtnsTest) SetPacketLossRatio(ratio float64) {
	ot.ExpectNoError(ot.session.SetPacketLossRatio(ratio))
}

func (ot *OtnsTest) RemoveAllNodes() {
	nodes := ot.ListNodes()
	simplelogger.Infof("Remove all nodes: %+v", nodes)
	ids := make([]NodeId, 0, len(nodes))
	for nodeid := range nodes {
		ids = append(ids, nodeid)
	}
	ot.DeleteNode(ids...)
}

func (ot *OtnsTest) ListNodes() map[NodeId]*otns.NodeRecord {
	nodes, err := ot.session.Nodes()
	ot.ExpectNoError(err)
	return nodes
}

func (ot *OtnsTest) ListPartitions() otns.Partitions {
	partitions, err := ot.session.Partitions()
	ot.ExpectNoError(err)
	return partitions
}

func (ot *OtnsTest) ExpectNoError(err error) {
	ot.Helper()
	if !assert.NoError(ot, err, "unexpected error") {
		ot.FailNow()
	}
}

func (ot *OtnsTest) ExpectTrue(value bool, msgAndArgs ...interface{}) {
	ot.Helper()
	if !assert.True(ot, value, msgAndArgs...) {
		ot.FailNow()
	}
}

func (ot *OtnsTest) ExpectEqual(expected interface{}, actual interface{}, msgAndArgs ...interface{}) {
	ot.Helper()
	if !assert.Equal(ot, expected, actual, msgAndArgs...) {
		ot.FailNow()
	}
}

// ExpectConverged expects all nodes to be in one partition.
func (ot *OtnsTest) ExpectConverged() {
	ot.Helper()
	ot.ExpectNoError(otns.CheckConverged(ot.ListPartitions()))
}

func (ot *OtnsTest) DeleteNode(ids ...NodeId) {
	ot.ExpectNoError(ot.session.Delete(ids...))
}

func (ot *OtnsTest) GetNodeState(id NodeId) string {
	state, err := ot.session.GetState(id)
	ot.ExpectNoError(err)
	return state
}

// NodeCommand runs an OT CLI command on a node and expects it to succeed.
func (ot *OtnsTest) NodeCommand(id NodeId, cmd string) []string {
	output, err := ot.session.NodeCmd(id, cmd)
	ot.ExpectNoError(err)
	return output
}

func (ot *OtnsTest) Command(cmd string) []string {
	simplelogger.Infof("> %s", cmd)
	output, err := ot.session.Command(cmd)
	ot.ExpectNoError(err)
	return output
}

func (ot *OtnsTest) Commandf(format string, args ...interface{}) []string {
	return ot.Command(fmt.Sprintf(format, args...))
}

// Instance returns the session shared by the tests of the package, bound to the current test.
func Instance(t *testing.T) *OtnsTest {
	if otnsTestSingleton == nil {
		otnsTestSingleton = NewOtnsTest(t)
	}
	otnsTestSingleton.T = t
	return otnsTestSingleton
}

// Options returns the session options of NewOtnsTest. The simulator in $OTNS is used if set,
// otherwise the test binary itself runs the simulator, which requires the package's TestMain
// to call fakesim.MainIfHelper.
func Options(dir string) *otns.Options {
	opts := otns.DefaultOptions()
	if os.Getenv(otns.EnvOtnsPath) == "" {
		opts.Path = os.Args[0]
		opts.Env = []string{fakesim.HelperEnv + "=1"}
	}
	opts.Dir = dir
	opts.Launch = otns.LaunchArgs{
		LogLevel: "warn",
		Seed:     1,
		Speed:    MaxSimulateSpeed,
		NoPcap:   true,
	}
	opts.CommandTimeout = time.Minute
	return opts
}

func NewOtnsTest(t *testing.T) *OtnsTest {
	dir, err := os.MkdirTemp("", "otnstester")
	simplelogger.PanicIfError(err)

	session, err := otns.New(Options(dir))
	if err != nil {
		_ = os.RemoveAll(dir)
		t.Fatalf("start otns: %v", err)
	}

	return &OtnsTest{
		T:       t,
		session: session,
		dir:     dir,
	}
}
