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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/openthread/otns-client/types"
)

func TestAddConfigCommand(t *testing.T) {
	cmd, err := AddConfig{Type: ROUTER}.Command()
	require.NoError(t, err)
	assert.Equal(t, "add router", cmd)

	cmd, err = AddConfig{
		Type:       FED,
		X:          Int(10),
		Y:          Int(0),
		ID:         Int(5),
		RadioRange: Int(120),
		Restore:    true,
		Version:    V12,
		Executable: "/opt/ot cli",
	}.Command()
	require.NoError(t, err)
	assert.Equal(t, `add fed x 10 y 0 id 5 rr 120 restore v12 exe "/opt/ot cli"`, cmd)

	_, err = AddConfig{Type: "Router"}.Command()
	assert.Error(t, err)
	_, err = AddConfig{Type: ROUTER, Version: "v99"}.Command()
	assert.Error(t, err)
}

func TestPingConfigCommand(t *testing.T) {
	assert.Equal(t, "ping 1 2", PingConfig{Src: 1, Dst: 2}.Command())
	assert.Equal(t, "ping 1 2 rloc datasize 32 count 3 interval 2 hoplimit 10",
		PingConfig{Src: 1, Dst: 2, AddrType: AddrTypeRloc, DataSize: 32, Count: 3, Interval: 2, HopLimit: 10}.Command())
	assert.Equal(t, `ping 1 "fd00::1" datasize 8`,
		PingConfig{Src: 1, DstAddr: "fd00::1", AddrType: AddrTypeMleid, DataSize: 8}.Command())
}

func TestPrefixConfigCommand(t *testing.T) {
	cmd, err := DefaultPrefixConfig("fd00:1::/64").Command()
	require.NoError(t, err)
	assert.Equal(t, "prefix add fd00:1::/64 paros med", cmd)

	cmd, err = PrefixConfig{Prefix: "fd00:2::/64", Dhcp: true, DhcpOther: true, Preference: PrefixPreferenceHigh}.Command()
	require.NoError(t, err)
	assert.Equal(t, "prefix add fd00:2::/64 dc high", cmd)

	_, err = PrefixConfig{Prefix: "fd00:3::/64"}.Command()
	assert.Error(t, err)
	_, err = PrefixConfig{Prefix: "fd00:3::/64", OnMesh: true, Preference: "urgent"}.Command()
	assert.Error(t, err)
}

func TestGoCommand(t *testing.T) {
	d := 1500 * time.Millisecond
	speed := 2.5
	assert.Equal(t, "go 1.5", goCommand(&d, nil))
	assert.Equal(t, "go 1.5 speed 2.5", goCommand(&d, &speed))
	assert.Equal(t, "go ever", goCommand(nil, nil))
	assert.Equal(t, "go ever speed 2.5", goCommand(nil, &speed))

	d = 10 * time.Microsecond
	assert.Equal(t, "go 0.00001", goCommand(&d, nil))
}

func TestClampSpeed(t *testing.T) {
	assert.Equal(t, PauseSimulateSpeed, clampSpeed(-1))
	assert.Equal(t, PauseSimulateSpeed, clampSpeed(0))
	assert.Equal(t, 0.5, clampSpeed(0.5))
	assert.Equal(t, MaxSimulateSpeed, clampSpeed(MaxSimulateSpeed))
	assert.Equal(t, MaxSimulateSpeed, clampSpeed(1e9))
}

func TestEscapeWhitespace(t *testing.T) {
	assert.Equal(t, "plain", escapeWhitespace("plain"))
	assert.Equal(t, `my\ net`, escapeWhitespace("my net"))
	assert.Equal(t, "a\\\\b\\\tc", escapeWhitespace("a\\b\tc"))
}

func TestVisualizationCommandsBuild(t *testing.T) {
	assert.Equal(t, "cv", VisualizationPatch{}.Command())
	assert.Equal(t, "cv bro off uni on ctb off", VisualizationPatch{
		BroadcastMessage: Bool(false),
		UnicastMessage:   Bool(true),
		ChildTable:       Bool(false),
	}.Command())

	assert.Equal(t, `title "demo"`, TitleConfig{Title: "demo"}.Command())
	assert.Equal(t, `title "a \"b\"" x 1 y 2 fs 20`, TitleConfig{Title: `a "b"`, X: Int(1), Y: Int(2), FontSize: Int(20)}.Command())

	version := "v1.0"
	assert.Equal(t, "netinfo", NetworkInfo{}.Command())
	assert.Equal(t, `netinfo version "v1.0" real 1`, NetworkInfo{Version: &version, Real: Bool(true)}.Command())
}

func TestLaunchArgs(t *testing.T) {
	assert.Empty(t, LaunchArgs{}.Args())
	assert.Equal(t, []string{
		"-log", "debug", "-pcap", "wpan", "-seed", "7", "-speed", "1e+06", "-watch", "info",
		"-ot-cli", "/opt/ot-cli", "-raw", "-no-pcap",
	}, LaunchArgs{
		LogLevel:  "debug",
		Pcap:      "wpan",
		Seed:      7,
		Speed:     MaxSimulateSpeed,
		Watch:     "info",
		OtCliPath: "/opt/ot-cli",
		Raw:       true,
		NoPcap:    true,
	}.Args())

	assert.NoError(t, LaunchArgs{}.Validate())
	assert.NoError(t, LaunchArgs{LogLevel: "warn", Watch: "off", Pcap: "wpan-tap", Speed: 2}.Validate())
	assert.Error(t, LaunchArgs{LogLevel: "loud"}.Validate())
	assert.Error(t, LaunchArgs{Watch: "loud"}.Validate())
	assert.Error(t, LaunchArgs{Pcap: "ether"}.Validate())
	assert.Error(t, LaunchArgs{Speed: -1}.Validate())
}

func TestCommandLine(t *testing.T) {
	t.Setenv(EnvOtnsArgs, "-listen localhost:9100")
	opts := &Options{Launch: LaunchArgs{Seed: 3}, ExtraArgs: []string{"-real"}}
	assert.Equal(t, []string{"-seed", "3", "-listen", "localhost:9100", "-real", "-autogo=false", "-web=false"},
		opts.commandLine())
}

func TestResolvePath(t *testing.T) {
	opts := &Options{Path: "/opt/otns"}
	p, err := opts.resolvePath()
	require.NoError(t, err)
	assert.Equal(t, "/opt/otns", p)

	t.Setenv(EnvOtnsPath, "/usr/local/bin/otns")
	p, err = (&Options{}).resolvePath()
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/otns", p)

	t.Setenv(EnvOtnsPath, "")
	t.Setenv("PATH", t.TempDir())
	_, err = (&Options{}).resolvePath()
	var launchErr *LaunchError
	assert.ErrorAs(t, err, &launchErr)
}

func TestLoadOptionsFile(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "otns.yaml")
	require.NoError(t, os.WriteFile(fn, []byte(`
path: /opt/otns
launch:
  log: info
  seed: 12
  speed: 100
  no-pcap: true
args: ["-listen", "localhost:9100"]
env: ["FOO=bar"]
command-timeout: 30s
`), 0o644))

	opts, err := LoadOptionsFile(fn)
	require.NoError(t, err)
	assert.Equal(t, "/opt/otns", opts.Path)
	assert.Equal(t, LaunchArgs{LogLevel: "info", Seed: 12, Speed: 100, NoPcap: true}, opts.Launch)
	assert.Equal(t, []string{"-listen", "localhost:9100"}, opts.ExtraArgs)
	assert.Equal(t, []string{"FOO=bar"}, opts.Env)
	assert.Equal(t, 30*time.Second, opts.CommandTimeout)
	assert.Equal(t, DefaultPcapFile, opts.PcapFile)

	_, err = LoadOptionsFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(fn, []byte("launch: [1, 2"), 0o644))
	_, err = LoadOptionsFile(fn)
	assert.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(fn, []byte("OTNS_TEST_PATH=/opt/otns\nOTNS_TEST_KEPT=new\n"), 0o644))

	t.Setenv("OTNS_TEST_PATH", "")
	require.NoError(t, os.Unsetenv("OTNS_TEST_PATH"))
	t.Setenv("OTNS_TEST_KEPT", "old")

	require.NoError(t, LoadEnv(filepath.Join(dir, "missing.env"), fn))
	assert.Equal(t, "/opt/otns", os.Getenv("OTNS_TEST_PATH"))
	assert.Equal(t, "old", os.Getenv("OTNS_TEST_KEPT"))
}

func TestValidate(t *testing.T) {
	for _, cmd := range []string{
		"nodes",
		"add router x 10 y 20",
		`node 1 "state"`,
		"go 1.5 speed 2",
		`ping 1 2 datasize 32`,
		"cv bro off",
	} {
		assert.NoError(t, Validate(cmd), cmd)
	}

	for _, cmd := range []string{"nodez", "add toaster", "time\nexit", "go"} {
		assert.ErrorIs(t, Validate(cmd), ErrInvalidCommand, cmd)
	}
}
