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

// NodeCmd runs an OpenThread CLI command on a node and returns its output.
func (s *Session) NodeCmd(id NodeId, cmd string) ([]string, error) {
	return s.Command(fmt.Sprintf("node %d %s", id, strconv.Quote(cmd)))
}

func (s *Session) nodeDo(id NodeId, cmd string) error {
	_, err := s.NodeCmd(id, cmd)
	return err
}

func nodeQuery[T any](s *Session, id NodeId, cmd string, decode func([]string) (T, error)) (T, error) {
	return query(s, fmt.Sprintf("node %d %s", id, strconv.Quote(cmd)), decode)
}

// GetState returns the device role of a node, e.g. "leader".
func (s *Session) GetState(id NodeId) (string, error) {
	return nodeQuery(s, id, "state", expectString)
}

// GetRole returns the parsed device role of a node.
func (s *Session) GetRole(id NodeId) (OtDeviceRole, error) {
	state, err := s.GetState(id)
	if err != nil {
		return OtDeviceRoleDisabled, err
	}
	return ParseDeviceRole(state)
}

// GetIpAddrs returns the IPv6 addresses of a node, filtered by addrType unless it is empty or any.
func (s *Session) GetIpAddrs(id NodeId, addrType AddrType) ([]string, error) {
	cmd := "ipaddr"
	if addrType != "" && addrType != AddrTypeAny {
		cmd += " " + string(addrType)
	}
	return s.NodeCmd(id, cmd)
}

// GetMleid returns the mesh-local EID of a node.
func (s *Session) GetMleid(id NodeId) (string, error) {
	return nodeQuery(s, id, "ipaddr mleid", expectString)
}

func (s *Session) SetNetworkName(id NodeId, name string) error {
	return s.nodeDo(id, "networkname "+escapeWhitespace(name))
}

func (s *Session) GetNetworkName(id NodeId) (string, error) {
	return nodeQuery(s, id, "networkname", expectString)
}

func (s *Session) SetPanid(id NodeId, panid uint16) error {
	return s.nodeDo(id, fmt.Sprintf("panid 0x%04x", panid))
}

func (s *Session) GetPanid(id NodeId) (uint16, error) {
	panid, err := nodeQuery(s, id, "panid", expectHex)
	if err == nil && panid > 0xffff {
		err = &ProtocolError{Cmd: "panid", Msg: "panid out of range", Lines: []string{strconv.FormatUint(panid, 16)}}
	}
	return uint16(panid), err
}

// GetMasterKey returns the network key of a node as a hex string.
func (s *Session) GetMasterKey(id NodeId) (string, error) {
	return nodeQuery(s, id, "masterkey", expectString)
}

func (s *Session) SetMasterKey(id NodeId, key string) error {
	return s.nodeDo(id, "masterkey "+key)
}

func (s *Session) GetChannel(id NodeId) (int, error) {
	return nodeQuery(s, id, "channel", expectInt)
}

func (s *Session) IfconfigUp(id NodeId) error {
	return s.nodeDo(id, "ifconfig up")
}

func (s *Session) IfconfigDown(id NodeId) error {
	return s.nodeDo(id, "ifconfig down")
}

func (s *Session) ThreadStart(id NodeId) error {
	return s.nodeDo(id, "thread start")
}

func (s *Session) ThreadStop(id NodeId) error {
	return s.nodeDo(id, "thread stop")
}

func (s *Session) CommissionerStart(id NodeId) error {
	return s.nodeDo(id, "commissioner start")
}

// CommissionerJoinerAdd allows a joiner on the commissioner node. A zero timeout (seconds) uses the
// default of the node.
func (s *Session) CommissionerJoinerAdd(id NodeId, usr, pwd string, timeout int) error {
	cmd := fmt.Sprintf("commissioner joiner add %s %s", usr, pwd)
	if timeout > 0 {
		cmd += fmt.Sprintf(" %d", timeout)
	}
	return s.nodeDo(id, cmd)
}

func (s *Session) JoinerStart(id NodeId, pwd string) error {
	return s.nodeDo(id, "joiner start "+pwd)
}

// Prefix preferences.
const (
	PrefixPreferenceHigh = "high"
	PrefixPreferenceMed  = "med"
	PrefixPreferenceLow  = "low"
)

// PrefixConfig is an on-mesh prefix added by PrefixAdd.
type PrefixConfig struct {
	Prefix       string
	Preferred    bool
	Slaac        bool
	Dhcp         bool
	DhcpOther    bool
	DefaultRoute bool
	OnMesh       bool
	Stable       bool
	Preference   string // high, med or low; empty is med
}

// DefaultPrefixConfig returns a preferred, stable on-mesh SLAAC prefix with a default route.
func DefaultPrefixConfig(prefix string) PrefixConfig {
	return PrefixConfig{
		Prefix:       prefix,
		Preferred:    true,
		Slaac:        true,
		DefaultRoute: true,
		OnMesh:       true,
		Stable:       true,
		Preference:   PrefixPreferenceMed,
	}
}

// Command returns the node command adding the prefix.
func (cfg PrefixConfig) Command() (string, error) {
	var flags strings.Builder
	for _, f := range []struct {
		set  bool
		flag byte
	}{
		{cfg.Preferred, 'p'},
		{cfg.Slaac, 'a'},
		{cfg.Dhcp, 'd'},
		{cfg.DhcpOther, 'c'},
		{cfg.DefaultRoute, 'r'},
		{cfg.OnMesh, 'o'},
		{cfg.Stable, 's'},
	} {
		if f.set {
			flags.WriteByte(f.flag)
		}
	}
	if flags.Len() == 0 {
		return "", errors.Errorf("prefix %s: no flags set", cfg.Prefix)
	}

	prf := cfg.Preference
	if prf == "" {
		prf = PrefixPreferenceMed
	}
	switch prf {
	case PrefixPreferenceHigh, PrefixPreferenceMed, PrefixPreferenceLow:
	default:
		return "", errors.Errorf("prefix %s: invalid preference %q", cfg.Prefix, prf)
	}
	return fmt.Sprintf("prefix add %s %s %s", cfg.Prefix, flags.String(), prf), nil
}

// PrefixAdd adds an on-mesh prefix on a node and registers it with the leader.
func (s *Session) PrefixAdd(id NodeId, cfg PrefixConfig) error {
	cmd, err := cfg.Command()
	if err != nil {
		return err
	}
	if err = s.nodeDo(id, cmd); err != nil {
		return err
	}
	return s.nodeDo(id, "netdataregister")
}
