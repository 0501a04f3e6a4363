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

package otns

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	. "github.com/openthread/otns-client/types"
)

func expectLine(output []string) (string, error) {
	if len(output) != 1 {
		return "", protocolErrorf(output, "expected 1 line, got %d", len(output))
	}
	return output[0], nil
}

func expectInt(output []string) (int, error) {
	line, err := expectLine(output)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return 0, protocolErrorf(output, "not an integer")
	}
	return v, nil
}

func expectHex(output []string) (uint64, error) {
	line, err := expectLine(output)
	if err != nil {
		return 0, err
	}
	v, err := parseHex(strings.TrimSpace(line), 64)
	if err != nil {
		return 0, protocolErrorf(output, "not a hex integer")
	}
	return v, nil
}

func expectFloat(output []string) (float64, error) {
	line, err := expectLine(output)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(line), 64)
	if err != nil {
		return 0, protocolErrorf(output, "not a number")
	}
	return v, nil
}

func expectString(output []string) (string, error) {
	line, err := expectLine(output)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func parseHex(s string, bitSize int) (uint64, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
	}
	return strconv.ParseUint(s, 16, bitSize)
}

type keyValue struct {
	key, value string
}

// splitKeyValues tokenizes a `key=value` record. Tokens are tab separated when the line has tabs,
// whitespace separated otherwise.
func splitKeyValues(line string) ([]keyValue, bool) {
	var tokens []string
	if strings.Contains(line, "\t") {
		tokens = strings.Split(line, "\t")
	} else {
		tokens = strings.Fields(line)
	}

	kvs := make([]keyValue, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		idx := strings.IndexByte(tok, '=')
		if idx <= 0 {
			return nil, false
		}
		kvs = append(kvs, keyValue{tok[:idx], tok[idx+1:]})
	}
	return kvs, true
}

// NodeRecord is one line of the `nodes` command.
type NodeRecord struct {
	Id         NodeId
	X, Y       int
	ExtAddr    uint64
	Rloc16     uint16
	State      string
	Failed     bool
	CtInterval float64
	CtDelay    float64
	// Fields holds every reported key with its raw value, including keys without a field above.
	Fields map[string]string
}

// Role parses the State field.
func (n *NodeRecord) Role() (OtDeviceRole, error) {
	return ParseDeviceRole(n.State)
}

func decodeNodes(output []string) (map[NodeId]*NodeRecord, error) {
	nodes := map[NodeId]*NodeRecord{}
	for _, line := range output {
		node, err := decodeNode(line)
		if err != nil {
			return nil, err
		}
		nodes[node.Id] = node
	}
	return nodes, nil
}

func decodeNode(line string) (*NodeRecord, error) {
	kvs, ok := splitKeyValues(line)
	if !ok {
		return nil, protocolErrorf([]string{line}, "malformed key=value record")
	}

	node := &NodeRecord{Fields: make(map[string]string, len(kvs))}
	hasId := false
	for _, kv := range kvs {
		var err error
		node.Fields[kv.key] = kv.value
		switch kv.key {
		case "id":
			node.Id, err = strconv.Atoi(kv.value)
			hasId = err == nil
		case "x":
			node.X, err = strconv.Atoi(kv.value)
		case "y":
			node.Y, err = strconv.Atoi(kv.value)
		case "extaddr":
			node.ExtAddr, err = parseHex(kv.value, 64)
		case "rloc16":
			var v uint64
			v, err = parseHex(kv.value, 16)
			node.Rloc16 = uint16(v)
		case "failed":
			switch kv.value {
			case "true":
				node.Failed = true
			case "false":
				node.Failed = false
			default:
				err = errors.Errorf("not a bool: %s", kv.value)
			}
		case "state":
			node.State = kv.value
		case "ct_interval":
			node.CtInterval, err = strconv.ParseFloat(kv.value, 64)
		case "ct_delay":
			node.CtDelay, err = strconv.ParseFloat(kv.value, 64)
		}
		if err != nil {
			return nil, protocolErrorf([]string{line}, "bad value for %s", kv.key)
		}
	}
	if !hasId {
		return nil, protocolErrorf([]string{line}, "node record without id")
	}
	return node, nil
}

// Partitions maps partition ids to the ids of their nodes.
type Partitions map[uint32][]NodeId

// Converged returns true if all nodes are in one partition that is not PartitionIdNone.
func (p Partitions) Converged() bool {
	if len(p) != 1 {
		return false
	}
	_, detached := p[PartitionIdNone]
	return !detached
}

func decodePartitions(output []string) (Partitions, error) {
	partitions := Partitions{}
	for _, line := range output {
		kvs, ok := splitKeyValues(line)
		if !ok || len(kvs) < 2 || kvs[0].key != "partition" || kvs[1].key != "nodes" {
			return nil, protocolErrorf([]string{line}, "malformed partition record")
		}
		parid, err := parseHex(kvs[0].value, 32)
		if err != nil {
			return nil, protocolErrorf([]string{line}, "bad partition id")
		}
		nodeids := []NodeId{}
		for _, s := range strings.Split(kvs[1].value, ",") {
			if s == "" {
				continue
			}
			id, err := strconv.Atoi(s)
			if err != nil {
				return nil, protocolErrorf([]string{line}, "bad node id %q", s)
			}
			nodeids = append(nodeids, id)
		}
		partitions[uint32(parid)] = nodeids
	}
	return partitions, nil
}

// PingResult is one finished ping. Delay is the round trip time in milliseconds.
type PingResult struct {
	Src      NodeId
	Dst      string
	DataSize int
	Delay    float64
}

// fieldValues returns the values of the first n `key=value` fields of line, ignoring the keys.
func fieldValues(line string, n int) ([]string, bool) {
	fields := strings.Fields(line)
	if len(fields) < n {
		return nil, false
	}
	values := make([]string, n)
	for i := 0; i < n; i++ {
		idx := strings.IndexByte(fields[i], '=')
		if idx < 0 {
			return nil, false
		}
		values[i] = fields[i][idx+1:]
	}
	return values, true
}

func decodePings(output []string) ([]PingResult, error) {
	pings := make([]PingResult, 0, len(output))
	for _, line := range output {
		v, ok := fieldValues(line, 4)
		if !ok {
			return nil, protocolErrorf([]string{line}, "malformed ping record")
		}
		src, err1 := strconv.Atoi(v[0])
		size, err2 := strconv.Atoi(v[2])
		delay, err3 := strconv.ParseFloat(strings.TrimSuffix(v[3], "ms"), 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, protocolErrorf([]string{line}, "malformed ping record")
		}
		pings = append(pings, PingResult{Src: src, Dst: v[1], DataSize: size, Delay: delay})
	}
	return pings, nil
}

// JoinResult is one finished join. Times are in seconds.
type JoinResult struct {
	Node        NodeId
	JoinTime    float64
	SessionTime float64
}

func decodeJoins(output []string) ([]JoinResult, error) {
	joins := make([]JoinResult, 0, len(output))
	for _, line := range output {
		v, ok := fieldValues(line, 3)
		if !ok {
			return nil, protocolErrorf([]string{line}, "malformed join record")
		}
		id, err1 := strconv.Atoi(v[0])
		joinTime, err2 := strconv.ParseFloat(strings.TrimSuffix(v[1], "s"), 64)
		sessionTime, err3 := strconv.ParseFloat(strings.TrimSuffix(v[2], "s"), 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, protocolErrorf([]string{line}, "malformed join record")
		}
		joins = append(joins, JoinResult{Node: id, JoinTime: joinTime, SessionTime: sessionTime})
	}
	return joins, nil
}

func decodeCounters(output []string) (map[string]uint64, error) {
	counters := make(map[string]uint64, len(output))
	for _, line := range output {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, protocolErrorf([]string{line}, "malformed counter")
		}
		v, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return nil, protocolErrorf([]string{line}, "malformed counter")
		}
		counters[fields[0]] = v
	}
	return counters, nil
}

// VisualizationOptions are the message and table toggles of the visualizer.
type VisualizationOptions struct {
	BroadcastMessage bool
	UnicastMessage   bool
	AckMessage       bool
	RouterTable      bool
	ChildTable       bool
}

var cvKeys = []string{"bro", "uni", "ack", "rtb", "ctb"}

func (vo *VisualizationOptions) field(key string) *bool {
	switch key {
	case "bro":
		return &vo.BroadcastMessage
	case "uni":
		return &vo.UnicastMessage
	case "ack":
		return &vo.AckMessage
	case "rtb":
		return &vo.RouterTable
	case "ctb":
		return &vo.ChildTable
	default:
		return nil
	}
}

func decodeVisualizationOptions(output []string) (VisualizationOptions, error) {
	var vo VisualizationOptions
	seen := map[string]bool{}
	for _, line := range output {
		kv := strings.Split(strings.TrimSpace(line), "=")
		if len(kv) != 2 || (kv[1] != "on" && kv[1] != "off") {
			return vo, protocolErrorf([]string{line}, "malformed visualization option")
		}
		if f := vo.field(kv[0]); f != nil {
			*f = kv[1] == "on"
			seen[kv[0]] = true
		}
	}
	for _, key := range cvKeys {
		if !seen[key] {
			return vo, protocolErrorf(output, "missing visualization option %s", key)
		}
	}
	return vo, nil
}
