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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openthread/otns-client/fakesim"
	. "github.com/openthread/otns-client/types"
)

// The test binary doubles as the simulator: sessions re-execute it with fakesim.HelperEnv set.
func TestMain(m *testing.M) {
	fakesim.MainIfHelper()
	os.Exit(m.Run())
}

func testOptions(t *testing.T) *Options {
	opts := DefaultOptions()
	opts.Path = os.Args[0]
	opts.Env = []string{fakesim.HelperEnv + "=1"}
	opts.Dir = t.TempDir()
	opts.Launch = LaunchArgs{
		LogLevel: "warn",
		Seed:     1,
		Speed:    MaxSimulateSpeed,
		NoPcap:   true,
	}
	return opts
}

func newTestSessionWith(t *testing.T, opts *Options) *Session {
	s, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func newTestSession(t *testing.T) *Session {
	return newTestSessionWith(t, testOptions(t))
}

// addRouters adds routers in radio range of each other and lets them form one partition.
func addRouters(t *testing.T, s *Session, n int) []NodeId {
	ids := make([]NodeId, n)
	for i := range ids {
		id, err := s.Add(AddConfig{Type: ROUTER, X: Int(100 + 50*i), Y: Int(100)})
		require.NoError(t, err)
		ids[i] = id
	}
	require.NoError(t, s.Go(30*time.Second))
	return ids
}
