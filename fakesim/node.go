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
	"fmt"
	"net/netip"
	"sort"

	"github.com/openthread/otns-client/logger"
	"github.com/openthread/otns-client/radiomodel"
	. "github.com/openthread/otns-client/types"
)

const (
	defaultNetworkName = "OTSIM"
	defaultPanid       = 0xface
	defaultNetworkKey  = "00112233445566778899aabbccddeeff"
	defaultChannel     = 11
	invalidRloc16      = 0xfffe
	leaderAloc16       = 0xfc00
)

// meshLocalPrefix is fdde:ad00:beef:0::/64 as 16-bit groups.
var meshLocalPrefix = [4]uint16{0xfdde, 0xad00, 0xbeef, 0}

type PingResult struct {
	Dst      string
	DataSize int
	Delay    uint64 // unit: us
}

type JoinResult struct {
	JoinDuration    uint64 // unit: us
	SessionDuration uint64 // unit: us
}

// NodeCounters are the MAC, MLE and IP counters of a node, keyed like `mac.TxTotal`.
type NodeCounters map[string]uint64

func (nc NodeCounters) Add(other NodeCounters) {
	for k, v := range other {
		nc[k] += v
	}
}

func (nc NodeCounters) Copy() NodeCounters {
	c := make(NodeCounters, len(nc))
	c.Add(nc)
	return c
}

type joinerEntry struct {
	eui    string // "*" allows any joiner
	pwd    string
	expiry uint64
}

type prefixEntry struct {
	prefix     netip.Prefix
	flags      string
	preference string
}

func (p prefixEntry) slaac() bool {
	for _, f := range p.flags {
		if f == 'a' {
			return true
		}
	}
	return false
}

// node is the simulated state of one Thread node.
type node struct {
	sim     *Simulation
	id      NodeId
	typ     string
	version string
	exe     string
	extAddr uint64

	radio    *radiomodel.RadioNode
	radioOff bool
	failure  *failureCtrl

	ifUp     bool
	threadUp bool
	// the node can attach from readyAt on; Ever while it is disabled
	readyAt  uint64
	readyEvt *event

	role        OtDeviceRole
	partitionId uint32
	rloc16      uint16
	parent      NodeId

	networkName string
	panid       uint16
	networkKey  string
	channel     int

	commissioner   bool
	commissionerTs uint64
	joiners        []joinerEntry
	joinerEvt      *event
	coapStarted    bool
	coapMsgId      int
	prefixes       []prefixEntry
	counters       NodeCounters

	pings []*PingResult
	joins []*JoinResult
}

func newNode(sim *Simulation, id NodeId, cfg *NodeConfig) *node {
	n := &node{
		sim:         sim,
		id:          id,
		typ:         cfg.Type,
		version:     cfg.Version,
		exe:         cfg.executableName(),
		extAddr:     sim.prng.NewExtAddr(),
		radio:       radiomodel.NewRadioNode(id, cfg.X, cfg.Y, cfg.RadioRange),
		readyAt:     Ever,
		role:        OtDeviceRoleDisabled,
		rloc16:      invalidRloc16,
		networkName: defaultNetworkName,
		panid:       defaultPanid,
		networkKey:  defaultNetworkKey,
		channel:     defaultChannel,
		counters:    NodeCounters{},
		// CoAP message ids start at a random value
		coapMsgId: int(sim.prng.NewUnitRandom() * 0xffff),
	}
	n.failure = newFailureCtrl(n)
	return n
}

func (n *node) String() string {
	return fmt.Sprintf("Node<%d>", n.id)
}

func (n *node) isRouterEligible() bool {
	return isRouterType(n.typ)
}

func (n *node) isAttached() bool {
	return n.role >= OtDeviceRoleChild
}

func (n *node) isEnabled() bool {
	return n.ifUp && n.threadUp
}

// enable brings the interface and the Thread stack up, as the simulator does for new nodes.
func (n *node) enable() {
	n.ifUp = true
	n.threadStart()
}

func (n *node) threadStart() {
	if n.threadUp {
		return
	}
	n.threadUp = true
	n.scheduleReady()
}

func (n *node) threadStop() {
	n.threadUp = false
	n.disable()
}

func (n *node) ifconfigDown() {
	n.ifUp = false
	n.threadUp = false
	n.disable()
}

func (n *node) scheduleReady() {
	if !n.isEnabled() {
		return
	}
	sim := n.sim
	n.readyAt = sim.curTime + attachDelayUs
	sim.events.Cancel(n.readyEvt)
	n.readyEvt = sim.events.Add(n.readyAt, sim.updateTopology)
	sim.updateTopology()
}

func (n *node) disable() {
	n.sim.events.Cancel(n.readyEvt)
	n.readyEvt = nil
	n.readyAt = Ever
	n.commissioner = false
	n.sim.updateTopology()
}

func (n *node) setRadioFailed(failed bool) {
	if n.radio.Failed == failed {
		return
	}
	n.radio.Failed = failed
	n.sim.updateTopology()
}

func (n *node) isReady() bool {
	return n.isEnabled() && !n.radio.Failed && n.readyAt <= n.sim.curTime
}

// setRole updates the attach state computed by the topology, and reports role changes.
func (n *node) setRole(role OtDeviceRole, partitionId uint32, rloc16 uint16, parent NodeId) {
	if n.role != role {
		n.sim.counters.StatusPushEvents++
		if n.sim.isWatching(n.id) {
			n.sim.watchLogf(n.id, logger.NoteLevel, "role changed: %s -> %s", n.role, role)
		}
		n.counters[roleCounter(role)]++
	}
	n.role = role
	n.partitionId = partitionId
	n.rloc16 = rloc16
	n.parent = parent
}

func roleCounter(role OtDeviceRole) string {
	switch role {
	case OtDeviceRoleDisabled:
		return "mle.DisabledRole"
	case OtDeviceRoleDetached:
		return "mle.DetachedRole"
	case OtDeviceRoleChild:
		return "mle.ChildRole"
	case OtDeviceRoleRouter:
		return "mle.RouterRole"
	default:
		return "mle.LeaderRole"
	}
}

// iid returns the interface identifier of the node, derived from its extended address.
func (n *node) iid() [4]uint16 {
	return [4]uint16{uint16(n.extAddr >> 48), uint16(n.extAddr >> 32), uint16(n.extAddr >> 16), uint16(n.extAddr)}
}

// formatAddr formats an IPv6 address the way the OT CLI does: 8 groups, no zero compression.
func formatAddr(prefix [4]uint16, iid [4]uint16) string {
	return fmt.Sprintf("%x:%x:%x:%x:%x:%x:%x:%x", prefix[0], prefix[1], prefix[2], prefix[3],
		iid[0], iid[1], iid[2], iid[3])
}

func locatorIid(rloc16 uint16) [4]uint16 {
	return [4]uint16{0, 0xff, 0xfe00, rloc16}
}

func (n *node) mleid() []string {
	if !n.ifUp {
		return nil
	}
	return []string{formatAddr(meshLocalPrefix, n.iid())}
}

func (n *node) linkLocal() []string {
	if !n.ifUp {
		return nil
	}
	iid := n.iid()
	iid[0] ^= 0x0200
	return []string{formatAddr([4]uint16{0xfe80, 0, 0, 0}, iid)}
}

func (n *node) rloc() []string {
	if !n.isAttached() {
		return nil
	}
	return []string{formatAddr(meshLocalPrefix, locatorIid(n.rloc16))}
}

func (n *node) aloc() []string {
	if n.role != OtDeviceRoleLeader {
		return nil
	}
	return []string{formatAddr(meshLocalPrefix, locatorIid(leaderAloc16))}
}

// slaac returns the addresses the node configured from the SLAAC prefixes of its partition.
func (n *node) slaac() []string {
	if !n.isAttached() {
		return nil
	}
	var addrs []string
	for _, p := range n.sim.netdata[n.partitionId] {
		if !p.slaac() {
			continue
		}
		b := p.prefix.Addr().As16()
		var prefix [4]uint16
		for i := range prefix {
			prefix[i] = uint16(b[2*i])<<8 | uint16(b[2*i+1])
		}
		addrs = append(addrs, formatAddr(prefix, n.iid()))
	}
	return addrs
}

// ipAddrs lists the unicast addresses in the order of the OT `ipaddr` command.
func (n *node) ipAddrs() []string {
	var addrs []string
	addrs = append(addrs, n.aloc()...)
	addrs = append(addrs, n.slaac()...)
	addrs = append(addrs, n.rloc()...)
	addrs = append(addrs, n.mleid()...)
	addrs = append(addrs, n.linkLocal()...)
	return addrs
}

// addrsOfType picks the ping destination addresses of the node: the mesh-local EID, then the
// RLOC, then the link-local address, unless addrType selects one of them.
func (n *node) addrsOfType(addrType AddrType) []string {
	anyAddr := addrType == "" || addrType == AddrTypeAny
	if anyAddr || addrType == AddrTypeMleid {
		if addrs := n.mleid(); len(addrs) > 0 {
			return addrs
		}
	}
	if anyAddr || addrType == AddrTypeRloc {
		if addrs := n.rloc(); len(addrs) > 0 {
			return addrs
		}
	}
	if addrType == AddrTypeAloc {
		return n.aloc()
	}
	if anyAddr || addrType == AddrTypeLinkLocal {
		return n.linkLocal()
	}
	return nil
}

func (n *node) hasAddr(addr netip.Addr) bool {
	for _, s := range n.ipAddrs() {
		if a, err := netip.ParseAddr(s); err == nil && a == addr {
			return true
		}
	}
	return false
}

func (n *node) collectPings() []*PingResult {
	pings := n.pings
	n.pings = nil
	return pings
}

func (n *node) collectJoins() []*JoinResult {
	joins := n.joins
	n.joins = nil
	return joins
}

func (n *node) sortedCounters(prefix string) []string {
	var keys []string
	for k := range n.counters {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// eui64 is the factory EUI-64 of a simulated node.
func (n *node) eui64() string {
	return fmt.Sprintf("%016x", uint64(0x18b4300000000000)+uint64(n.id))
}

// acceptsJoiner returns true if the commissioner n has an unexpired entry for the joiner.
func (n *node) acceptsJoiner(eui string, pwd string, now uint64) bool {
	for _, j := range n.joiners {
		if (j.eui == "*" || j.eui == eui) && j.pwd == pwd && j.expiry >= now {
			return true
		}
	}
	return false
}
