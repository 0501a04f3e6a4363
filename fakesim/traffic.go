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
	"encoding/binary"
	"net/netip"

	"github.com/simonlingoogle/go-simplelogger"

	"github.com/openthread/otns-client/logger"
	"github.com/openthread/otns-client/pcap"
	. "github.com/openthread/otns-client/types"
)

const (
	maxFrameBytes = 127
	// joinDurationUs is the time a successful joiner needs to obtain the credentials.
	joinDurationUs     uint64 = 3 * 1000000
	joinSessionExtraUs uint64 = 1 * 1000000
	// coapResponseTimeoutUs ends a confirmable exchange without acknowledgement.
	coapResponseTimeoutUs   uint64 = 10 * 1000000
	coapPort                       = 5683
	defaultJoinerTimeoutSec        = 120
)

// findNodeByAddr returns the node owning the unicast address addr, or nil.
func (s *Simulation) findNodeByAddr(addr netip.Addr) *node {
	for _, id := range s.GetNodes() {
		if n := s.nodes[id]; n.hasAddr(addr) {
			return n
		}
	}
	return nil
}

// neighbors returns the nodes a frame of n can be forwarded to inside its partition.
func (s *Simulation) neighbors(n *node) []*node {
	if n.role == OtDeviceRoleChild {
		if p := s.nodes[n.parent]; p != nil {
			return []*node{p}
		}
		return nil
	}
	var nbs []*node
	for _, id := range s.GetNodes() {
		o := s.nodes[id]
		if o == n || o.partitionId != n.partitionId || !o.isAttached() {
			continue
		}
		if o.role == OtDeviceRoleChild {
			if o.parent == n.id {
				nbs = append(nbs, o)
			}
		} else if s.linked(n, o) {
			nbs = append(nbs, o)
		}
	}
	return nbs
}

// route returns the shortest path of nodes from src to dst, both included, or nil if dst is not
// reachable. Link-local destinations must be direct neighbors.
func (s *Simulation) route(src, dst *node, dstAddr netip.Addr) []*node {
	if src == nil || dst == nil || !src.ifUp || !dst.ifUp {
		return nil
	}
	if src == dst {
		return []*node{src}
	}
	if dstAddr.IsLinkLocalUnicast() {
		if s.radioModel.CheckRadioReachable(src.radio, dst.radio) && s.radioModel.CheckRadioReachable(dst.radio, src.radio) {
			return []*node{src, dst}
		}
		return nil
	}
	if !src.isAttached() || !dst.isAttached() || src.partitionId != dst.partitionId {
		return nil
	}

	prev := map[NodeId]*node{src.id: nil}
	queue := []*node{src}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == dst {
			var path []*node
			for n := dst; n != nil; n = prev[n.id] {
				path = append([]*node{n}, path...)
			}
			return path
		}
		for _, nb := range s.neighbors(cur) {
			if _, seen := prev[nb.id]; !seen {
				prev[nb.id] = cur
				queue = append(queue, nb)
			}
		}
	}
	return nil
}

// transmit sends one unicast frame of frameBytes from src to dst and returns whether it was
// received. The frame is counted and captured either way.
func (s *Simulation) transmit(src, dst *node, frameBytes int) bool {
	s.counters.RadioEvents++
	src.counters["mac.TxTotal"]++
	src.counters["mac.TxUnicast"]++
	src.counters["mac.TxAckRequested"]++
	s.kpi.onFrame(src.channel, uint64(frameBytes*8*4))
	s.capture(src, dst, frameBytes)

	psuc := (1 - s.plr) * s.radioModel.FrameSuccessRate(src.radio, dst.radio, frameBytes)
	if psuc <= 0 || s.prng.NewUnitRandom() >= psuc {
		src.counters["mac.TxErrAbort"]++
		s.counters.DispatchByShortAddrFail++
		return false
	}
	src.counters["mac.TxAcked"]++
	dst.counters["mac.RxTotal"]++
	dst.counters["mac.RxUnicast"]++
	s.counters.DispatchByShortAddrSucc++
	return true
}

// sendAlong transmits a frame hop by hop over path and returns whether it reached the end.
func (s *Simulation) sendAlong(path []*node, frameBytes int) bool {
	if len(path) == 0 {
		return false
	}
	path[0].counters["ip.TxSuccess"]++
	for i := 0; i+1 < len(path); i++ {
		if !s.transmit(path[i], path[i+1], frameBytes) {
			path[0].counters["ip.TxFailure"]++
			return false
		}
	}
	path[len(path)-1].counters["ip.RxSuccess"]++
	return true
}

func pathDelayUs(path []*node, frameBytes int) uint64 {
	hops := uint64(len(path) - 1)
	return hops * (hopDelayUs + uint64(frameBytes*8*4))
}

func reversed(path []*node) []*node {
	r := make([]*node, len(path))
	for i, n := range path {
		r[len(path)-1-i] = n
	}
	return r
}

// capture appends a data frame from src to dst to the pcap file.
func (s *Simulation) capture(src, dst *node, frameBytes int) {
	if s.pcap == nil {
		return
	}
	if frameBytes > maxFrameBytes {
		frameBytes = maxFrameBytes
	}
	s.frameSeq++
	data := make([]byte, frameBytes)
	// data frame, ack request, PAN id compression, short addresses
	data[0], data[1] = 0x61, 0x88
	data[2] = s.frameSeq
	binary.LittleEndian.PutUint16(data[3:5], src.panid)
	binary.LittleEndian.PutUint16(data[5:7], dst.rloc16)
	binary.LittleEndian.PutUint16(data[7:9], src.rloc16)
	binary.LittleEndian.PutUint16(data[frameBytes-2:], crc16(data[:frameBytes-2]))

	err := s.pcap.AppendFrame(pcap.Frame{
		Timestamp: s.curTime,
		Data:      data,
		Channel:   src.channel,
		Rssi:      float32(s.radioModel.GetTxRssi(src.radio, dst.radio)),
	})
	if err != nil {
		simplelogger.Errorf("write pcap frame failed: %v", err)
	}
}

// crc16 is the ITU-T CRC of the 802.15.4 frame check sequence.
func crc16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ 0x8408
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

// Ping schedules count echo requests from src to dstAddr, interval seconds apart.
func (s *Simulation) Ping(src *node, dstAddr string, datasize, count, interval, hopLimit int) {
	srcId := src.id
	for i := 0; i < count; i++ {
		ts := s.curTime + uint64(i)*uint64(interval)*1000000
		s.events.Add(ts, func() {
			s.sendPing(srcId, dstAddr, datasize, hopLimit)
		})
	}
}

func (s *Simulation) sendPing(srcId NodeId, dstAddr string, datasize, hopLimit int) {
	src := s.nodes[srcId]
	if src == nil {
		return
	}
	frameBytes := datasize + frameOverheadBytes
	delay := maxPingDelayUs

	addr, err := netip.ParseAddr(dstAddr)
	if err == nil {
		dst := s.findNodeByAddr(addr)
		path := s.route(src, dst, addr)
		if path != nil && len(path)-1 <= hopLimit &&
			s.sendAlong(path, frameBytes) && s.sendAlong(reversed(path), frameBytes) {
			delay = 2 * pathDelayUs(path, frameBytes)
		}
	}
	if s.isWatching(srcId) {
		s.watchLogf(srcId, logger.InfoLevel, "ping %s datasize %d: delay %dus", dstAddr, datasize, delay)
	}
	if datasize < 4 {
		return
	}
	s.events.Add(s.curTime+delay, func() {
		if n := s.nodes[srcId]; n != nil {
			n.pings = append(n.pings, &PingResult{Dst: dstAddr, DataSize: datasize, Delay: delay})
		}
	})
}

// joinerStart lets n try to join a network with pwd. The outcome is decided after
// joinDurationUs.
func (s *Simulation) joinerStart(n *node, pwd string) {
	startTs := s.curTime
	nodeid := n.id
	n.joinerEvt = s.events.Add(startTs+joinDurationUs, func() {
		if n := s.nodes[nodeid]; n != nil {
			n.joinerEvt = nil
			s.completeJoin(n, pwd, startTs)
		}
	})
}

func (s *Simulation) completeJoin(n *node, pwd string, startTs uint64) {
	eui := n.eui64()
	for _, id := range s.GetNodes() {
		c := s.nodes[id]
		if !c.commissioner || !c.isAttached() || !c.acceptsJoiner(eui, pwd, s.curTime) {
			continue
		}
		if !s.hasJoinerRouter(n, c.partitionId) {
			continue
		}
		n.networkName = c.networkName
		n.panid = c.panid
		n.channel = c.channel
		n.networkKey = c.networkKey
		joinDuration := s.curTime - startTs
		n.joins = append(n.joins, &JoinResult{
			JoinDuration:    joinDuration,
			SessionDuration: joinDuration + joinSessionExtraUs,
		})
		if s.isWatching(n.id) {
			s.watchLogf(n.id, logger.NoteLevel, "Join success")
		}
		return
	}
	if s.isWatching(n.id) {
		s.watchLogf(n.id, logger.WarnLevel, "Join failed [NotFound]")
	}
}

// hasJoinerRouter returns true if a node of partition parid is in radio range of the joiner.
func (s *Simulation) hasJoinerRouter(joiner *node, parid uint32) bool {
	for _, id := range s.GetNodes() {
		r := s.nodes[id]
		if r == joiner || r.partitionId != parid || !r.isAttached() {
			continue
		}
		if s.radioModel.CheckRadioReachable(r.radio, joiner.radio) && s.radioModel.CheckRadioReachable(joiner.radio, r.radio) {
			return true
		}
	}
	return false
}

// coapSend sends a CoAP request from src. Confirmable requests are acknowledged by the
// receiver, or time out with a send error.
func (s *Simulation) coapSend(src *node, dstAddr string, uri string, coapType CoapType, code CoapCode) error {
	addr, err := netip.ParseAddr(dstAddr)
	if err != nil {
		return err
	}
	src.coapMsgId = (src.coapMsgId + 1) & 0xffff
	msgId := src.coapMsgId
	srcAddr := ""
	if addrs := src.mleid(); len(addrs) > 0 {
		srcAddr = addrs[0]
	}
	frameBytes := frameOverheadBytes + len(uri) + 4
	s.coaps.OnSend(s.curTime, src.id, msgId, coapType, code, uri, dstAddr, coapPort, srcAddr, coapPort)
	s.kpi.onCoapSend(uri)

	dst := s.findNodeByAddr(addr)
	path := s.route(src, dst, addr)
	delivered := path != nil && dst.coapStarted && s.sendAlong(path, frameBytes)
	srcId := src.id
	if delivered {
		delay := pathDelayUs(path, frameBytes)
		dstId := dst.id
		sendTs := s.curTime
		s.events.Add(sendTs+delay, func() {
			s.coaps.OnRecv(s.curTime, dstId, msgId, coapType, code, uri, srcAddr, coapPort)
			s.kpi.onCoapRecv(uri, s.curTime-sendTs)
			if coapType == CoapTypeConfirmable {
				s.coapAck(dstId, srcId, msgId, dstAddr, srcAddr, path)
			}
		})
	} else if coapType == CoapTypeConfirmable {
		s.events.Add(s.curTime+coapResponseTimeoutUs, func() {
			s.coaps.OnSendError(srcId, msgId, coapType, code, uri, dstAddr, coapPort, "ResponseTimeout")
		})
	}
	return nil
}

func (s *Simulation) coapAck(fromId, toId NodeId, msgId int, fromAddr, toAddr string, path []*node) {
	from := s.nodes[fromId]
	if from == nil {
		return
	}
	s.coaps.OnSend(s.curTime, fromId, msgId, CoapTypeAcknowledgment, coapCodeChanged, "", toAddr, coapPort, fromAddr, coapPort)
	back := reversed(path)
	frameBytes := frameOverheadBytes + 4
	if !s.sendAlong(back, frameBytes) {
		return
	}
	s.events.Add(s.curTime+pathDelayUs(back, frameBytes), func() {
		s.coaps.OnRecv(s.curTime, toId, msgId, CoapTypeAcknowledgment, coapCodeChanged, "", fromAddr, coapPort)
	})
}
