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
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, m *Metrics, verb, result string) float64 {
	t.Helper()
	return testutil.ToFloat64(m.commands.WithLabelValues(verb, result))
}

func TestMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	m.observe(`node 1 "state"`, nil, time.Millisecond)
	m.observe(`node 2 "state"`, &CliError{Msg: "node 2 not found"}, time.Millisecond)
	m.observe("go 10", &CommandInterruptedError{}, time.Second)
	m.observe("time", &ExitedError{ExitCode: 1}, 0)
	m.observe("time", errors.New("context deadline exceeded"), 0)

	assert.Equal(t, 1.0, counterValue(t, m, "node", resultOk))
	assert.Equal(t, 1.0, counterValue(t, m, "node", resultCliError))
	assert.Equal(t, 1.0, counterValue(t, m, "go", resultInterrupted))
	assert.Equal(t, 1.0, counterValue(t, m, "time", resultExited))
	assert.Equal(t, 1.0, counterValue(t, m, "time", resultError))
	assert.Equal(t, 3, testutil.CollectAndCount(m.latency))

	// registering twice fails
	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.observe("time", nil, time.Millisecond)
	})
}

func TestCommandVerb(t *testing.T) {
	assert.Equal(t, "", commandVerb("  "))
	assert.Equal(t, "nodes", commandVerb("nodes"))
	assert.Equal(t, "node", commandVerb(`node 1 "ipaddr mleid"`))
}
