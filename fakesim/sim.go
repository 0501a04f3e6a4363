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
	"fmt"
	"net/netip"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/simonlingoogle/go-simplelogger"

	"github.com/openthread/otns-client/logger"
	"github.com/openthread/otns-client/pcap"
	"github.com/openthread/otns-client/prng"
	"github.com/openthread/otns-client/radiomodel"
	. "github.com/openthread/otns-client/types"
)

const (
	// attachDelayUs is the time a node needs after `thread start` before it can attach.
	attachDelayUs uint64 = 5 * 1000000
	// maxPingDelayUs is the delay reported for a ping that got no reply.
	maxPingDelayUs uint64 = 10 * 1000000
	hopDelayUs     uint64 = 2000
	// frameOverheadBytes covers the MAC, 6LoWPAN, IPv6 and ICMPv6 headers of a ping frame.
	frameOverheadBytes = 31
)

// CommandInterruptedError is returned when a running command was stopped by a signal.
var CommandInterruptedError = errors.Errorf("command interrupted")

// Simulation is the state of a simulated Thread network. It is not safe for concurrent use; the
// command runner owns it.
type Simulation struct {
	cfg        *Config
	nodes      map[NodeId]*node
	curTime    uint64
	speed      float64
	plr        float64
	autoGo     bool
	lastWall   time.Time
	logLevel   logger.Level
	radioModel radiomodel.RadioModel
	watching   map[NodeId]logger.Level
	visOptions VisualizationOptions
	title      TitleInfo
	netInfo    NetworkInfo
	counters   Counters
	coaps      *coapsHandler
	kpi        *KpiManager
	pcap       *pcap.File
	prng       *prng.Generator
	events     *eventMgr
	netdata    map[uint32][]prefixEntry
	autoPlacer *NodeAutoPlacer
	frameSeq   byte
	stopped    bool
}

func NewSimulation(cfg *Config) (*Simulation, error) {
	rm := radiomodel.Create(cfg.RadioModel)
	if rm == nil {
		return nil, errors.Errorf("radiomodel '%v' is not defined", cfg.RadioModel)
	}

	s := &Simulation{
		cfg:        cfg,
		nodes:      map[NodeId]*node{},
		speed:      cfg.Speed,
		autoGo:     cfg.AutoGo,
		lastWall:   time.Now(),
		logLevel:   logger.GetLevel(),
		radioModel: rm,
		watching:   map[NodeId]logger.Level{},
		visOptions: defaultVisualizationOptions(),
		title:      DefaultTitleInfo(),
		netInfo:    NetworkInfo{Real: cfg.Real},
		coaps:      newCoapsHandler(),
		prng:       prng.New(cfg.RandomSeed),
		events:     newEventMgr(),
		netdata:    map[uint32][]prefixEntry{},
		autoPlacer: NewNodeAutoPlacer(),
	}
	s.kpi = NewKpiManager(s)

	if cfg.PcapFrameType != pcap.FrameTypeOff {
		fn := cfg.PcapFile
		if !filepath.IsAbs(fn) {
			fn = filepath.Join(cfg.OutputDir, fn)
		}
		pf, err := pcap.NewFile(fn, cfg.PcapFrameType, true)
		if err != nil {
			return nil, errors.Wrapf(err, "create pcap file")
		}
		s.pcap = pf
	}

	simplelogger.Infof("simulation started: seed=%d radiomodel=%s", s.prng.Seed(), rm.GetName())
	return s, nil
}

// Stop ends the simulation: the KPI collection is stopped and the capture file closed. It is
// effective only once.
func (s *Simulation) Stop() {
	if s.stopped {
		return
	}
	s.stopped = true
	s.kpi.Stop()
	if s.pcap != nil {
		if err := s.pcap.Sync(); err != nil {
			simplelogger.Errorf("pcap sync failed: %v", err)
		}
		if err := s.pcap.Close(); err != nil {
			simplelogger.Errorf("pcap close failed: %v", err)
		}
		s.pcap = nil
	}
	simplelogger.Infof("simulation stopped at %dus", s.curTime)
}

func (s *Simulation) IsStopped() bool {
	return s.stopped
}

func (s *Simulation) CurTime() uint64 {
	return s.curTime
}

func (s *Simulation) Speed() float64 {
	return s.speed
}

func (s *Simulation) SetSpeed(speed float64) {
	if speed < PauseSimulateSpeed {
		speed = PauseSimulateSpeed
	} else if speed > MaxSimulateSpeed {
		speed = MaxSimulateSpeed
	}
	s.speed = speed
}

func (s *Simulation) AutoGo() bool {
	return s.autoGo
}

func (s *Simulation) SetAutoGo(autoGo bool) {
	s.catchUp()
	s.autoGo = autoGo
}

func (s *Simulation) PacketLossRatio() float64 {
	return s.plr
}

func (s *Simulation) SetPacketLossRatio(plr float64) {
	if plr < 0 {
		plr = 0
	} else if plr > 1 {
		plr = 1
	}
	s.plr = plr
}

func (s *Simulation) RadioModel() radiomodel.RadioModel {
	return s.radioModel
}

func (s *Simulation) SetRadioModel(rm radiomodel.RadioModel) {
	simplelogger.AssertNotNil(rm)
	s.radioModel = rm
	s.updateTopology()
}

func (s *Simulation) LogLevel() logger.Level {
	return s.logLevel
}

func (s *Simulation) SetLogLevel(level logger.Level) {
	s.logLevel = level
	logger.SetLevel(level)
	simplelogger.SetLevel(simpleloggerLevel(level))
}

// GetNodes returns the sorted ids of all nodes.
func (s *Simulation) GetNodes() []NodeId {
	ids := make([]NodeId, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (s *Simulation) genNodeId() NodeId {
	nodeid := 1
	for s.nodes[nodeid] != nil {
		nodeid++
	}
	return nodeid
}

func (s *Simulation) AddNode(cfg *NodeConfig) (*node, error) {
	nodeid := cfg.ID
	if nodeid <= 0 {
		nodeid = s.genNodeId()
	}
	if nodeid > MaxNodeId {
		return nil, errors.Errorf("node id %d out of range", nodeid)
	}
	if s.nodes[nodeid] != nil {
		return nil, errors.Errorf("node %d already exists", nodeid)
	}
	if !IsValidNodeType(cfg.Type) {
		return nil, errors.Errorf("invalid node type: %s", cfg.Type)
	}

	if cfg.IsAutoPlaced {
		cfg.X, cfg.Y = s.autoPlacer.NextNodePosition(!isRouterType(cfg.Type))
	} else {
		s.autoPlacer.UpdateReference(cfg.X, cfg.Y)
	}
	if len(cfg.Version) == 0 && len(cfg.ExecutablePath) > 0 {
		cfg.Version = versionOfExecutable(filepath.Base(cfg.ExecutablePath))
	}
	if cfg.RadioRange <= 0 {
		cfg.RadioRange = DefaultRadioRange
	}

	n := newNode(s, nodeid, cfg)
	s.nodes[nodeid] = n
	if s.cfg.DefaultWatchOn {
		s.watchNode(nodeid, s.cfg.DefaultWatchLevel)
	}
	if cfg.Restore {
		simplelogger.Infof("%v restored from persisted state", n)
	}
	n.enable()
	simplelogger.Debugf("%v added: type=%s exe=%s pos=(%d,%d)", n, n.typ, n.exe, cfg.X, cfg.Y)
	return n, nil
}

func isRouterType(typ string) bool {
	switch typ {
	case ROUTER, REED, BR, FTD:
		return true
	default:
		return false
	}
}

func (s *Simulation) DeleteNode(nodeid NodeId) error {
	n := s.nodes[nodeid]
	if n == nil {
		return errors.Errorf("node %d not found", nodeid)
	}
	n.failure.stop()
	s.events.Cancel(n.joinerEvt)
	s.events.Cancel(n.readyEvt)
	delete(s.nodes, nodeid)
	delete(s.watching, nodeid)
	s.kpi.stopNode(nodeid)
	s.updateTopology()
	simplelogger.Debugf("%v deleted", n)
	return nil
}

func (s *Simulation) MoveNodeTo(nodeid NodeId, x, y int) error {
	n := s.nodes[nodeid]
	if n == nil {
		return errors.Errorf("node %d not found", nodeid)
	}
	n.radio.SetNodePos(x, y)
	s.updateTopology()
	return nil
}

// SetNodeFailed turns the radio of a node off (failed) or on.
func (s *Simulation) SetNodeFailed(nodeid NodeId, failed bool) error {
	n := s.nodes[nodeid]
	if n == nil {
		return errors.Errorf("node %d not found", nodeid)
	}
	n.radioOff = failed
	n.setRadioFailed(failed)
	return nil
}

func (s *Simulation) SetNodeFailTime(nodeid NodeId, ft FailTime) error {
	n := s.nodes[nodeid]
	if n == nil {
		return errors.Errorf("node %d not found", nodeid)
	}
	n.failure.SetFailTime(ft)
	return nil
}

// advanceTo runs all events up to and including ts, then sets the time to ts.
func (s *Simulation) advanceTo(ts uint64) {
	for {
		e := s.events.PopDue(ts)
		if e == nil {
			break
		}
		if e.Timestamp > s.curTime {
			s.curTime = e.Timestamp
		}
		s.counters.AlarmEvents++
		e.fn()
	}
	if ts > s.curTime {
		s.curTime = ts
	}
}

// catchUp advances the time by the wall time passed since the last call, while auto-go is on.
func (s *Simulation) catchUp() {
	now := time.Now()
	elapsed := now.Sub(s.lastWall)
	s.lastWall = now
	if !s.autoGo || s.speed <= PauseSimulateSpeed || elapsed <= 0 {
		return
	}
	s.advanceTo(s.curTime + uint64(float64(elapsed.Microseconds())*s.speed))
}

// Go advances the simulated time by d at the given speed. Simulated time is paced against the
// wall clock unless speed is the maximum. A cancelled ctx stops it with CommandInterruptedError.
func (s *Simulation) Go(ctx context.Context, d time.Duration, speed float64) error {
	s.catchUp()
	if speed <= PauseSimulateSpeed || speed >= MaxSimulateSpeed {
		speed = MaxSimulateSpeed
	}
	simStart := s.curTime
	wallStart := time.Now()
	target := simStart + uint64(d/time.Microsecond)

	for {
		if ctx.Err() != nil {
			return CommandInterruptedError
		}
		next := s.events.NextTimestamp()
		if next > target {
			next = target
		}
		if speed < MaxSimulateSpeed {
			wallDue := wallStart.Add(time.Duration(float64(next-simStart)/speed) * time.Microsecond)
			if err := sleepUntil(ctx, wallDue); err != nil {
				return err
			}
		}
		s.advanceTo(next)
		if next == target {
			break
		}
	}
	s.lastWall = time.Now()
	if s.pcap != nil {
		if err := s.pcap.Sync(); err != nil {
			simplelogger.Warnf("pcap sync failed: %v", err)
		}
	}
	return nil
}

func sleepUntil(ctx context.Context, t time.Time) error {
	d := time.Until(t)
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return CommandInterruptedError
	case <-timer.C:
		return nil
	}
}

// linked returns true if both nodes hear each other and share the network credentials.
func (s *Simulation) linked(a, b *node) bool {
	return a.panid == b.panid && a.channel == b.channel && a.networkKey == b.networkKey &&
		s.radioModel.CheckRadioReachable(a.radio, b.radio) &&
		s.radioModel.CheckRadioReachable(b.radio, a.radio)
}

type attachState struct {
	role        OtDeviceRole
	partitionId uint32
	rloc16      uint16
	parent      NodeId
}

// updateTopology recomputes the roles and partitions of all nodes. Routers that hear each other
// form a partition led by the lowest node id; other nodes attach as children to the closest
// router they hear.
func (s *Simulation) updateTopology() {
	ids := s.GetNodes()
	var routers []*node
	for _, id := range ids {
		n := s.nodes[id]
		if n.isReady() && n.isRouterEligible() {
			routers = append(routers, n)
		}
	}

	result := map[NodeId]attachState{}
	inComponent := map[NodeId]bool{}
	usedPartitions := map[uint32]bool{}
	for _, r := range routers {
		if inComponent[r.id] {
			continue
		}
		comp := []*node{r}
		inComponent[r.id] = true
		for i := 0; i < len(comp); i++ {
			for _, o := range routers {
				if !inComponent[o.id] && s.linked(comp[i], o) {
					inComponent[o.id] = true
					comp = append(comp, o)
				}
			}
		}
		sort.Slice(comp, func(i, j int) bool { return comp[i].id < comp[j].id })

		// a merged partition keeps the highest existing partition id of its members
		var parid uint32
		for _, m := range comp {
			if m.partitionId > parid && !usedPartitions[m.partitionId] {
				parid = m.partitionId
			}
		}
		for parid == PartitionIdNone || usedPartitions[parid] {
			parid = s.prng.NewPartitionId()
		}
		usedPartitions[parid] = true

		for idx, m := range comp {
			role := OtDeviceRoleRouter
			if idx == 0 {
				role = OtDeviceRoleLeader
			}
			result[m.id] = attachState{role, parid, uint16(idx) << 10, InvalidNodeId}
		}
	}

	childCount := map[NodeId]int{}
	for _, id := range ids {
		n := s.nodes[id]
		if !n.isReady() || n.isRouterEligible() {
			continue
		}
		var parent *node
		for _, r := range routers {
			if !s.linked(n, r) {
				continue
			}
			if parent == nil || n.radio.GetDistanceTo(r.radio) < n.radio.GetDistanceTo(parent.radio) {
				parent = r
			}
		}
		if parent == nil {
			continue
		}
		childCount[parent.id]++
		ps := result[parent.id]
		result[id] = attachState{OtDeviceRoleChild, ps.partitionId, ps.rloc16 | uint16(childCount[parent.id]), parent.id}
	}

	for _, id := range ids {
		n := s.nodes[id]
		if a, ok := result[id]; ok {
			n.setRole(a.role, a.partitionId, a.rloc16, a.parent)
		} else if n.isEnabled() {
			n.setRole(OtDeviceRoleDetached, PartitionIdNone, invalidRloc16, InvalidNodeId)
		} else {
			n.setRole(OtDeviceRoleDisabled, PartitionIdNone, invalidRloc16, InvalidNodeId)
		}
	}

	for parid := range s.netdata {
		if !usedPartitions[parid] {
			delete(s.netdata, parid)
		}
	}
	for _, id := range ids {
		n := s.nodes[id]
		if n.typ == BR && n.isAttached() {
			omr := prefixEntry{prefix: netip.MustParsePrefix(omrPrefix), flags: "paros", preference: "med"}
			s.publishPrefix(n.partitionId, omr)
		}
	}
}

// publishPrefix adds a prefix to the network data of a partition, replacing an entry for the
// same prefix.
func (s *Simulation) publishPrefix(parid uint32, p prefixEntry) {
	entries := s.netdata[parid]
	for i, e := range entries {
		if e.prefix == p.prefix {
			entries[i] = p
			return
		}
	}
	s.netdata[parid] = append(entries, p)
}

func (s *Simulation) unpublishPrefix(parid uint32, p prefixEntry) {
	entries := s.netdata[parid]
	for i, e := range entries {
		if e.prefix == p.prefix {
			s.netdata[parid] = append(entries[:i], entries[i+1:]...)
			return
		}
	}
}

// Partitions groups the node ids by partition id. Detached and disabled nodes are listed
// under partition 0.
func (s *Simulation) Partitions() map[uint32][]NodeId {
	pars := map[uint32][]NodeId{}
	for _, id := range s.GetNodes() {
		parid := s.nodes[id].partitionId
		pars[parid] = append(pars[parid], id)
	}
	return pars
}

// watchNode shows the log messages of a node up to levelStr, or the default level if empty. The
// log output is opened up to that level as well.
func (s *Simulation) watchNode(nodeid NodeId, levelStr string) {
	level := logger.DefaultLevel
	if len(levelStr) > 0 {
		if lv, err := logger.ParseLevelString(levelStr); err == nil {
			level = lv
		}
	}
	if level == logger.OffLevel {
		delete(s.watching, nodeid)
		return
	}
	s.watching[nodeid] = level
	if logger.GetLevel() < level {
		logger.SetLevel(level)
	}
}

func (s *Simulation) unwatchNode(nodeid NodeId) {
	delete(s.watching, nodeid)
}

func (s *Simulation) watchingNodes() []NodeId {
	var ids []NodeId
	for id := range s.watching {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (s *Simulation) isWatching(nodeid NodeId) bool {
	_, ok := s.watching[nodeid]
	return ok
}

// watchLogf logs a message of a watched node at level, prefixed with the simulated time.
func (s *Simulation) watchLogf(nodeid NodeId, level logger.Level, format string, args ...interface{}) {
	watchLevel, ok := s.watching[nodeid]
	if !ok || level > watchLevel {
		return
	}
	msg := fmt.Sprintf(format, args...)
	logger.Logf(level, "%11.6f Node<%d> %s", []interface{}{float64(s.curTime) / 1e6, nodeid, msg})
}

// simpleloggerLevel maps a log level to the closest level of the simulator diagnostics.
func simpleloggerLevel(level logger.Level) simplelogger.Level {
	switch {
	case level >= logger.DebugLevel:
		return simplelogger.DebugLevel
	case level >= logger.NoteLevel:
		return simplelogger.InfoLevel
	case level == logger.WarnLevel:
		return simplelogger.WarnLevel
	case level == logger.ErrorLevel:
		return simplelogger.ErrorLevel
	default:
		return simplelogger.PanicLevel
	}
}
