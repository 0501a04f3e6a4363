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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func runMain(t *testing.T, input string, extraArgs ...string) (int, string) {
	args := append([]string{"-no-pcap", "-autogo=false", "-speed", "max", "-web=false", "-output", t.TempDir()}, extraArgs...)
	var stdout bytes.Buffer
	code := Main(args, strings.NewReader(input), &stdout)
	return code, stdout.String()
}

func TestMainSession(t *testing.T) {
	code, output := runMain(t, "add router\n\ngo 10\nnode 1 \"state\"\nexit\ntime\n")
	assert.Equal(t, 0, code)
	assert.Equal(t, "1\nDone\nDone\nleader\nDone\nDone\n", output)
}

func TestMainEndOfInput(t *testing.T) {
	code, output := runMain(t, "speed\n", "-speed", "max")
	assert.Equal(t, 0, code)
	assert.Equal(t, "1e+06\nDone\n", output)
}

func TestMainBadArgs(t *testing.T) {
	code, output := runMain(t, "", "-no-such-flag")
	assert.Equal(t, 2, code)
	assert.Empty(t, output)

	code, _ = runMain(t, "", "-speed", "fast")
	assert.Equal(t, 1, code)

	code, _ = runMain(t, "", "-log", "loud")
	assert.Equal(t, 2, code)
}

func TestSplitCliArgs(t *testing.T) {
	assert.Equal(t, []string{"networkname", "my net"}, splitCliArgs("networkname my\\ net"))
	assert.Equal(t, []string{"a", "b"}, splitCliArgs("  a\tb  "))
	assert.Nil(t, splitCliArgs("   "))
}

func TestValidJoinerPwd(t *testing.T) {
	assert.True(t, validJoinerPwd("J01NME"))
	assert.False(t, validJoinerPwd("J01NM"))
	assert.False(t, validJoinerPwd("j01nme"))
	assert.False(t, validJoinerPwd("J01NMEQ"))
	assert.False(t, validJoinerPwd(strings.Repeat("A", 33)))
}
