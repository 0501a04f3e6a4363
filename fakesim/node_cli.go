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
	"encoding/hex"
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/openthread/otns-client/logger"
	. "github.com/openthread/otns-client/types"
)

// OtError is an error of an OT CLI command, printed like `Error 35: InvalidCommand`.
type OtError struct {
	Code int
	Name string
}

func (e *OtError) Error() string {
	return fmt.Sprintf("Error %d: %s", e.Code, e.Name)
}

var (
	errBusy           = &OtError{5, "Busy"}
	errParse          = &OtError{6, "Parse"}
	errInvalidArgs    = &OtError{7, "InvalidArgs"}
	errInvalidState   = &OtError{13, "InvalidState"}
	errNotFound       = &OtError{23, "NotFound"}
	errAlready        = &OtError{24, "Already"}
	errInvalidCommand = &OtError{35, "InvalidCommand"}
)

// splitCliArgs splits a node command line at whitespace. A backslash escapes the next character.
func splitCliArgs(line string) []string {
	var args []string
	var cur strings.Builder
	inArg, escaped := false, false
	for _, c := range line {
		switch {
		case escaped:
			cur.WriteRune(c)
			escaped = false
		case c == '\\':
			escaped, inArg = true, true
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(c)
			inArg = true
		}
	}
	if inArg {
		args = append(args, cur.String())
	}
	return args
}

// command runs an OT CLI command on the node and returns its output lines.
func (n *node) command(line string) ([]string, error) {
	args := splitCliArgs(line)
	if len(args) == 0 {
		return nil, nil
	}
	if n.sim.isWatching(n.id) {
		n.sim.watchLogf(n.id, logger.DebugLevel, "cli: %s", line)
	}

	cmd, args := args[0], args[1:]
	switch cmd {
	case "state":
		return []string{n.role.String()}, nil
	case "extaddr":
		return []string{fmt.Sprintf("%016x", n.extAddr)}, nil
	case "eui64":
		return []string{n.eui64()}, nil
	case "rloc16":
		return []string{fmt.Sprintf("%04x", n.rloc16)}, nil
	case "partitionid":
		return []string{strconv.FormatUint(uint64(n.partitionId), 10)}, nil
	case "version":
		return []string{fmt.Sprintf("OPENTHREAD/%s; SIMULATION", n.exe)}, nil
	case "ipaddr":
		return n.cmdIpaddr(args)
	case "networkname":
		return n.cmdNetworkName(args)
	case "panid":
		return n.cmdPanid(args)
	case "masterkey", "networkkey":
		return n.cmdNetworkKey(args)
	case "channel":
		return n.cmdChannel(args)
	case "ifconfig":
		return n.cmdIfconfig(args)
	case "thread":
		return n.cmdThread(args)
	case "commissioner":
		return n.cmdCommissioner(args)
	case "joiner":
		return n.cmdJoiner(args)
	case "prefix":
		return n.cmdPrefix(args)
	case "netdataregister":
		return n.cmdNetdataRegister()
	case "coap":
		return n.cmdCoap(args)
	case "counters":
		return n.cmdCounters(args)
	default:
		return nil, errInvalidCommand
	}
}

func (n *node) cmdIpaddr(args []string) ([]string, error) {
	if len(args) == 0 {
		return n.ipAddrs(), nil
	}
	switch AddrType(args[0]) {
	case AddrTypeMleid:
		return n.mleid(), nil
	case AddrTypeRloc:
		return n.rloc(), nil
	case AddrTypeLinkLocal:
		return n.linkLocal(), nil
	case AddrTypeAloc:
		return n.aloc(), nil
	default:
		return nil, errInvalidArgs
	}
}

func (n *node) cmdNetworkName(args []string) ([]string, error) {
	if len(args) == 0 {
		return []string{n.networkName}, nil
	}
	name := strings.Join(args, " ")
	if len(name) > 16 {
		return nil, errInvalidArgs
	}
	if n.threadUp {
		return nil, errInvalidState
	}
	n.networkName = name
	return nil, nil
}

func (n *node) cmdPanid(args []string) ([]string, error) {
	if len(args) == 0 {
		return []string{fmt.Sprintf("0x%04x", n.panid)}, nil
	}
	v, err := strconv.ParseUint(args[0], 0, 16)
	if err != nil {
		return nil, errInvalidArgs
	}
	if n.threadUp {
		return nil, errInvalidState
	}
	n.panid = uint16(v)
	return nil, nil
}

func (n *node) cmdNetworkKey(args []string) ([]string, error) {
	if len(args) == 0 {
		return []string{n.networkKey}, nil
	}
	key := strings.ToLower(args[0])
	if b, err := hex.DecodeString(key); err != nil || len(b) != 16 {
		return nil, errInvalidArgs
	}
	if n.threadUp {
		return nil, errInvalidState
	}
	n.networkKey = key
	return nil, nil
}

func (n *node) cmdChannel(args []string) ([]string, error) {
	if len(args) == 0 {
		return []string{strconv.Itoa(n.channel)}, nil
	}
	ch, err := strconv.Atoi(args[0])
	if err != nil {
		return nil, errParse
	}
	if ch < 11 || ch > 26 {
		return nil, errInvalidArgs
	}
	if n.threadUp {
		return nil, errInvalidState
	}
	n.channel = ch
	return nil, nil
}

func (n *node) cmdIfconfig(args []string) ([]string, error) {
	if len(args) == 0 {
		if n.ifUp {
			return []string{"up"}, nil
		}
		return []string{"down"}, nil
	}
	switch args[0] {
	case "up":
		n.ifUp = true
	case "down":
		if n.ifUp {
			n.ifconfigDown()
		}
	default:
		return nil, errInvalidArgs
	}
	return nil, nil
}

func (n *node) cmdThread(args []string) ([]string, error) {
	if len(args) != 1 {
		return nil, errInvalidArgs
	}
	switch args[0] {
	case "start":
		if !n.ifUp {
			return nil, errInvalidState
		}
		n.threadStart()
	case "stop":
		if n.threadUp {
			n.threadStop()
		}
	default:
		return nil, errInvalidArgs
	}
	return nil, nil
}

func (n *node) cmdCommissioner(args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, errInvalidCommand
	}
	switch args[0] {
	case "start":
		if !n.isAttached() {
			return nil, errInvalidState
		}
		if n.commissioner {
			return nil, errAlready
		}
		n.commissioner = true
		n.commissionerTs = n.sim.curTime
		n.joiners = nil
		return nil, nil
	case "stop":
		if !n.commissioner {
			return nil, errAlready
		}
		n.commissioner = false
		n.joiners = nil
		return nil, nil
	case "state":
		if n.commissioner {
			return []string{"active"}, nil
		}
		return []string{"disabled"}, nil
	case "joiner":
		return n.cmdCommissionerJoiner(args[1:])
	default:
		return nil, errInvalidCommand
	}
}

// validJoinerPwd checks the joiner credential: 6 to 32 characters, uppercase alphanumeric
// without I, O, Q and Z.
func validJoinerPwd(pwd string) bool {
	if len(pwd) < 6 || len(pwd) > 32 {
		return false
	}
	for _, c := range pwd {
		if !(c >= '0' && c <= '9' || c >= 'A' && c <= 'Z') || strings.ContainsRune("IOQZ", c) {
			return false
		}
	}
	return true
}

func (n *node) cmdCommissionerJoiner(args []string) ([]string, error) {
	if !n.commissioner {
		return nil, errInvalidState
	}
	if len(args) < 2 {
		return nil, errInvalidArgs
	}
	eui := strings.ToLower(args[1])
	switch args[0] {
	case "add":
		if len(args) < 3 || !validJoinerPwd(args[2]) {
			return nil, errInvalidArgs
		}
		timeout := defaultJoinerTimeoutSec
		if len(args) > 3 {
			t, err := strconv.Atoi(args[3])
			if err != nil || t <= 0 {
				return nil, errInvalidArgs
			}
			timeout = t
		}
		n.joiners = append(n.joiners, joinerEntry{
			eui:    eui,
			pwd:    args[2],
			expiry: n.sim.curTime + uint64(timeout)*1000000,
		})
		return nil, nil
	case "remove":
		for i, j := range n.joiners {
			if j.eui == eui {
				n.joiners = append(n.joiners[:i], n.joiners[i+1:]...)
				return nil, nil
			}
		}
		return nil, errNotFound
	default:
		return nil, errInvalidCommand
	}
}

func (n *node) cmdJoiner(args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, errInvalidCommand
	}
	switch args[0] {
	case "start":
		if len(args) < 2 || !validJoinerPwd(args[1]) {
			return nil, errInvalidArgs
		}
		if !n.ifUp || n.threadUp {
			return nil, errInvalidState
		}
		if n.joinerEvt != nil {
			return nil, errBusy
		}
		n.sim.joinerStart(n, args[1])
		return nil, nil
	case "stop":
		n.sim.events.Cancel(n.joinerEvt)
		n.joinerEvt = nil
		return nil, nil
	case "id":
		return []string{n.eui64()}, nil
	case "state":
		if n.joinerEvt != nil {
			return []string{"Discover"}, nil
		}
		return []string{"Idle"}, nil
	default:
		return nil, errInvalidCommand
	}
}

func (n *node) cmdPrefix(args []string) ([]string, error) {
	if len(args) == 0 {
		var lines []string
		for _, p := range n.prefixes {
			lines = append(lines, fmt.Sprintf("%s %s %s", p.prefix, p.flags, p.preference))
		}
		return lines, nil
	}
	if len(args) < 2 {
		return nil, errInvalidArgs
	}
	prefix, err := netip.ParsePrefix(args[1])
	if err != nil || !prefix.Addr().Is6() {
		return nil, errInvalidArgs
	}
	switch args[0] {
	case "add":
		entry := prefixEntry{prefix: prefix.Masked(), flags: "", preference: "med"}
		for _, a := range args[2:] {
			switch a {
			case "high", "med", "low":
				entry.preference = a
			default:
				if strings.Trim(a, "padcrosn") != "" {
					return nil, errInvalidArgs
				}
				entry.flags = a
			}
		}
		for i, p := range n.prefixes {
			if p.prefix == entry.prefix {
				n.prefixes[i] = entry
				return nil, nil
			}
		}
		n.prefixes = append(n.prefixes, entry)
		return nil, nil
	case "remove":
		for i, p := range n.prefixes {
			if p.prefix == prefix.Masked() {
				n.prefixes = append(n.prefixes[:i], n.prefixes[i+1:]...)
				if n.isAttached() {
					n.sim.unpublishPrefix(n.partitionId, p)
				}
				return nil, nil
			}
		}
		return nil, errNotFound
	default:
		return nil, errInvalidCommand
	}
}

func (n *node) cmdNetdataRegister() ([]string, error) {
	if !n.isAttached() {
		return nil, errInvalidState
	}
	for _, p := range n.prefixes {
		n.sim.publishPrefix(n.partitionId, p)
	}
	return nil, nil
}

func (n *node) cmdCoap(args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, errInvalidCommand
	}
	var code CoapCode
	switch args[0] {
	case "start":
		if n.coapStarted {
			return nil, errAlready
		}
		n.coapStarted = true
		return []string{"Coap service started: Done"}, nil
	case "stop":
		n.coapStarted = false
		return []string{"Coap service stopped: Done"}, nil
	case "resource":
		return nil, nil
	case "get":
		code = coapCodeGet
	case "post":
		code = coapCodePost
	case "put":
		code = coapCodePut
	case "delete":
		code = coapCodeDelete
	default:
		return nil, errInvalidCommand
	}

	if !n.coapStarted {
		return nil, errInvalidState
	}
	if len(args) < 3 {
		return nil, errInvalidArgs
	}
	coapType := CoapTypeNonConfirmable
	if len(args) > 3 {
		switch args[3] {
		case "con":
			coapType = CoapTypeConfirmable
		case "non-con", "non":
		default:
			return nil, errInvalidArgs
		}
	}
	if err := n.sim.coapSend(n, args[1], args[2], coapType, code); err != nil {
		return nil, errInvalidArgs
	}
	return nil, nil
}

func (n *node) cmdCounters(args []string) ([]string, error) {
	if len(args) == 0 {
		return []string{"mac", "mle", "ip"}, nil
	}
	switch args[0] {
	case "mac", "mle", "ip":
	default:
		return nil, errInvalidArgs
	}
	prefix := args[0] + "."
	var lines []string
	for _, k := range n.sortedCounters(prefix) {
		lines = append(lines, fmt.Sprintf("%s: %d", k[len(prefix):], n.counters[k]))
	}
	return lines, nil
}
