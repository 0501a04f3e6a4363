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
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	. "github.com/openthread/otns-client/types"
)

// AddConfig configures a node added by Add. Nil and empty fields are left to the simulator.
type AddConfig struct {
	Type       string // router, reed, fed, med, sed, ssed, br, mtd or ftd
	X, Y       *int
	ID         *NodeId
	RadioRange *int
	// Executable overrides the node executable of the simulator.
	Executable string
	// Restore starts the node from its persisted state.
	Restore bool
	// Version selects the Thread version of the node executable: v11, v12 or v13.
	Version string
}

// Int returns a pointer to v, for the optional fields of AddConfig.
func Int(v int) *int {
	return &v
}

// Command returns the `add` command for cfg.
func (cfg AddConfig) Command() (string, error) {
	if !IsValidNodeType(cfg.Type) {
		return "", errors.Errorf("invalid node type: %q", cfg.Type)
	}
	if cfg.Version != "" && !IsValidThreadVersion(cfg.Version) {
		return "", errors.Errorf("invalid thread version: %q", cfg.Version)
	}

	cmd := "add " + cfg.Type
	if cfg.X != nil {
		cmd += fmt.Sprintf(" x %d", *cfg.X)
	}
	if cfg.Y != nil {
		cmd += fmt.Sprintf(" y %d", *cfg.Y)
	}
	if cfg.ID != nil {
		cmd += fmt.Sprintf(" id %d", *cfg.ID)
	}
	if cfg.RadioRange != nil {
		cmd += fmt.Sprintf(" rr %d", *cfg.RadioRange)
	}
	if cfg.Restore {
		cmd += " restore"
	}
	if cfg.Version != "" {
		cmd += " " + cfg.Version
	}
	if cfg.Executable != "" {
		cmd += " exe " + strconv.Quote(cfg.Executable)
	}
	return cmd, nil
}

// Add adds a node and returns its id.
func (s *Session) Add(cfg AddConfig) (NodeId, error) {
	cmd, err := cfg.Command()
	if err != nil {
		return InvalidNodeId, err
	}
	return query(s, cmd, expectInt)
}

// Delete removes nodes from the simulation.
func (s *Session) Delete(ids ...NodeId) error {
	if len(ids) == 0 {
		return nil
	}
	return s.do("del " + joinIds(ids))
}

// Move moves a node to a new position.
func (s *Session) Move(id NodeId, x, y int) error {
	return s.do(fmt.Sprintf("move %d %d %d", id, x, y))
}

// Nodes returns all nodes of the simulation by id.
func (s *Session) Nodes() (map[NodeId]*NodeRecord, error) {
	return query(s, "nodes", decodeNodes)
}

// Partitions returns the node ids of every partition.
func (s *Session) Partitions() (Partitions, error) {
	return query(s, "partitions", decodePartitions)
}

// CheckConverged returns an error unless all nodes are in one joined partition.
func CheckConverged(partitions Partitions) error {
	if partitions.Converged() {
		return nil
	}
	if nodes, ok := partitions[PartitionIdNone]; ok {
		return errors.Errorf("nodes %v did not join any partition", nodes)
	}
	return errors.Errorf("%d partitions: %v", len(partitions), map[uint32][]NodeId(partitions))
}

func (s *Session) RadioOn(ids ...NodeId) error {
	return s.do(fmt.Sprintf("radio %s on", joinIds(ids)))
}

func (s *Session) RadioOff(ids ...NodeId) error {
	return s.do(fmt.Sprintf("radio %s off", joinIds(ids)))
}

// RadioSetFailTime lets the radio of the nodes fail for failDuration seconds in every period
// of failInterval seconds.
func (s *Session) RadioSetFailTime(failDuration, failInterval float64, ids ...NodeId) error {
	return s.do(fmt.Sprintf("radio %s ft %s %s", joinIds(ids), formatFloat(failDuration), formatFloat(failInterval)))
}

// PingConfig configures a ping started by Ping. The destination is either a node, using the address
// of type AddrType, or the IPv6 address DstAddr. Zero values of the other fields leave the
// simulator defaults: 4 bytes of data, a single ping, 10s interval and hop limit 64.
type PingConfig struct {
	Src      NodeId
	Dst      NodeId
	AddrType AddrType
	DstAddr  string
	DataSize int
	Count    int
	Interval int // unit: s
	HopLimit int
}

func (cfg PingConfig) Command() string {
	var dst string
	if cfg.DstAddr != "" {
		// the address type only applies to node destinations
		dst = strconv.Quote(cfg.DstAddr)
	} else {
		dst = strconv.Itoa(cfg.Dst)
		if cfg.AddrType != "" {
			dst += " " + string(cfg.AddrType)
		}
	}
	cmd := fmt.Sprintf("ping %d %s", cfg.Src, dst)
	if cfg.DataSize > 0 {
		cmd += fmt.Sprintf(" datasize %d", cfg.DataSize)
	}
	if cfg.Count > 0 {
		cmd += fmt.Sprintf(" count %d", cfg.Count)
	}
	if cfg.Interval > 0 {
		cmd += fmt.Sprintf(" interval %d", cfg.Interval)
	}
	if cfg.HopLimit > 0 {
		cmd += fmt.Sprintf(" hoplimit %d", cfg.HopLimit)
	}
	return cmd
}

// Ping sends a ping. Results are collected with Pings once it completes.
func (s *Session) Ping(cfg PingConfig) error {
	return s.do(cfg.Command())
}

// Pings returns the ping results since the last call.
func (s *Session) Pings() ([]PingResult, error) {
	return query(s, "pings", decodePings)
}

// Joins returns the join results since the last call.
func (s *Session) Joins() ([]JoinResult, error) {
	return query(s, "joins", decodeJoins)
}

// escapeWhitespace escapes backslashes and whitespace of an argument of a node command.
func escapeWhitespace(s string) string {
	var sb strings.Builder
	for _, c := range s {
		if strings.ContainsRune("\\ \t\r\n", c) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(c)
	}
	return sb.String()
}
