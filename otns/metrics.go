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
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Command outcomes recorded by Metrics.
const (
	resultOk          = "ok"
	resultCliError    = "cli_error"
	resultExited      = "exited"
	resultInterrupted = "interrupted"
	resultError       = "error"
)

// Metrics holds Prometheus metrics for the command exchanges of a Session.
// A nil *Metrics records nothing.
type Metrics struct {
	commands *prometheus.CounterVec   // Exchanges by command verb and outcome
	latency  *prometheus.HistogramVec // Exchange wall time by command verb
}

// NewMetrics creates the client metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "otns",
			Subsystem: "client",
			Name:      "commands_total",
			Help:      "Total number of command exchanges with the simulator",
		}, []string{"command", "result"}),

		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "otns",
			Subsystem: "client",
			Name:      "command_duration_seconds",
			Help:      "Wall time of command exchanges with the simulator",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"command"}),
	}

	if reg != nil {
		if err := reg.Register(m.commands); err != nil {
			return nil, errors.Wrap(err, "register commands_total")
		}
		if err := reg.Register(m.latency); err != nil {
			return nil, errors.Wrap(err, "register command_duration_seconds")
		}
	}
	return m, nil
}

func (m *Metrics) observe(cmd string, err error, d time.Duration) {
	if m == nil {
		return
	}
	verb := commandVerb(cmd)
	m.commands.WithLabelValues(verb, resultOf(err)).Inc()
	m.latency.WithLabelValues(verb).Observe(d.Seconds())
}

func resultOf(err error) string {
	var interrupted *CommandInterruptedError
	switch {
	case err == nil:
		return resultOk
	case errors.As(err, &interrupted):
		return resultInterrupted
	case IsCliError(err):
		return resultCliError
	default:
		if _, ok := IsExited(err); ok {
			return resultExited
		}
		return resultError
	}
}

// commandVerb keeps label cardinality bounded: `node 3 "state"` is recorded as `node`.
func commandVerb(cmd string) string {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
