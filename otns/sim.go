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
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/openthread/otns-client/logger"
	. "github.com/openthread/otns-client/types"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatDuration formats d as the fractional seconds accepted by `go`.
func formatDuration(d time.Duration) string {
	return formatFloat(d.Seconds())
}

func goCommand(d *time.Duration, speed *float64) string {
	cmd := "go ever"
	if d != nil {
		cmd = "go " + formatDuration(*d)
	}
	if speed != nil {
		cmd += " speed " + formatFloat(*speed)
	}
	return cmd
}

// Go advances the simulation by d of simulated time at the current speed.
func (s *Session) Go(d time.Duration) error {
	return s.do(goCommand(&d, nil))
}

// GoAtSpeed advances the simulation by d of simulated time at the given speed.
func (s *Session) GoAtSpeed(d time.Duration, speed float64) error {
	return s.do(goCommand(&d, &speed))
}

// GoForever runs the simulation until the simulator is stopped. A nil speed keeps the current speed.
func (s *Session) GoForever(speed *float64) error {
	return s.do(goCommand(nil, speed))
}

// GoContext advances the simulation by d, giving up when ctx ends. Giving up terminates the simulator.
func (s *Session) GoContext(ctx context.Context, d time.Duration) error {
	_, err := s.CommandContext(ctx, goCommand(&d, nil))
	return err
}

func clampSpeed(speed float64) float64 {
	if speed >= MaxSimulateSpeed {
		return MaxSimulateSpeed
	} else if speed <= PauseSimulateSpeed {
		return PauseSimulateSpeed
	}
	return speed
}

// Speed returns the simulating speed, clamped to [PauseSimulateSpeed, MaxSimulateSpeed].
func (s *Session) Speed() (float64, error) {
	speed, err := query(s, "speed", expectFloat)
	if err != nil {
		return 0, err
	}
	return clampSpeed(speed), nil
}

// SetSpeed sets the simulating speed. Values at or below zero pause the simulation and values at or
// above MaxSimulateSpeed run it at maximum speed.
func (s *Session) SetSpeed(speed float64) error {
	return s.do("speed " + formatFloat(clampSpeed(speed)))
}

// PacketLossRatio returns the drop ratio of a 128 byte frame (0 to 1).
func (s *Session) PacketLossRatio() (float64, error) {
	return query(s, "plr", expectFloat)
}

// SetPacketLossRatio sets the drop ratio of a 128 byte frame. The simulator clamps it to [0, 1].
func (s *Session) SetPacketLossRatio(ratio float64) error {
	return s.do("plr " + formatFloat(ratio))
}

// Time returns the simulated time in microseconds.
func (s *Session) Time() (uint64, error) {
	return query(s, "time", func(output []string) (uint64, error) {
		line, err := expectString(output)
		if err != nil {
			return 0, err
		}
		us, err := strconv.ParseUint(line, 10, 64)
		if err != nil {
			return 0, protocolErrorf(output, "not a time")
		}
		return us, nil
	})
}

// AutoGo returns true if the simulator advances time by itself.
func (s *Session) AutoGo() (bool, error) {
	v, err := query(s, "autogo", expectInt)
	return v != 0, err
}

func (s *Session) SetAutoGo(enabled bool) error {
	if enabled {
		return s.do("autogo 1")
	}
	return s.do("autogo 0")
}

// RadioModel returns the name of the active radio model.
func (s *Session) RadioModel() (string, error) {
	return query(s, "radiomodel", expectString)
}

func (s *Session) SetRadioModel(name string) error {
	return s.do("radiomodel " + name)
}

// LogLevel returns the log level of the simulator.
func (s *Session) LogLevel() (string, error) {
	return query(s, "log", expectString)
}

func (s *Session) SetLogLevel(level string) error {
	if _, err := logger.ParseLevelString(level); err != nil {
		return err
	}
	return s.do("log " + level)
}

// Exit stops the simulator and waits for it to exit. A clean exit returns nil; every later call
// on the Session returns an *ExitedError with exit code 0.
func (s *Session) Exit() error {
	err := s.do("exit")
	if err == nil {
		err = s.proc.eof()
	}
	if code, ok := IsExited(err); ok && code == 0 {
		return nil
	}
	return err
}

// CountDown shows a count down of the given duration in the visualizer. An empty text uses the
// simulator's default.
func (s *Session) CountDown(d time.Duration, text string) error {
	cmd := fmt.Sprintf("countdown %d", int(d.Seconds()))
	if text != "" {
		cmd += " " + strconv.Quote(text)
	}
	return s.do(cmd)
}

// Web opens the web visualization.
func (s *Session) Web() error {
	return s.do("web")
}

// Counters returns the simulator event counters. Counters only increase during a simulation.
func (s *Session) Counters() (map[string]uint64, error) {
	return query(s, "counters", decodeCounters)
}

// Coaps returns the CoAP messages collected since the last call. Collection is enabled with CoapsEnable.
func (s *Session) Coaps() ([]*CoapEvent, error) {
	return query(s, "coaps", decodeCoaps)
}

func (s *Session) CoapsEnable() error {
	return s.do("coaps enable")
}

// KpiStart starts a KPI collection period.
func (s *Session) KpiStart() error {
	return s.do("kpi start")
}

// KpiStop ends the KPI collection period and writes the KPI file of the simulator.
func (s *Session) KpiStop() error {
	return s.do("kpi stop")
}

// KpiSave writes the current KPIs to filename. An empty filename uses the simulator's default.
func (s *Session) KpiSave(filename string) error {
	if filename == "" {
		return s.do("kpi save")
	}
	return s.do("kpi save " + strconv.Quote(filename))
}

// Save writes the node topology to a YAML file.
func (s *Session) Save(filename string) error {
	return s.do("save " + strconv.Quote(filename))
}

// Load adds the nodes of a topology file to the simulation.
func (s *Session) Load(filename string) error {
	return s.do("load " + strconv.Quote(filename))
}

func joinIds(ids []NodeId) string {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = strconv.Itoa(id)
	}
	return strings.Join(strs, " ")
}

// Watch enables log display of the given nodes. An empty level uses the default watch level.
func (s *Session) Watch(level string, ids ...NodeId) error {
	cmd := "watch"
	if len(ids) == 0 {
		cmd += " all"
	} else {
		cmd += " " + joinIds(ids)
	}
	if level != "" {
		cmd += " " + level
	}
	return s.do(cmd)
}

// Watched returns the ids of the watched nodes.
func (s *Session) Watched() ([]NodeId, error) {
	return query(s, "watch", func(output []string) ([]NodeId, error) {
		ids := []NodeId{}
		for _, line := range output {
			for _, f := range strings.Fields(line) {
				id, err := strconv.Atoi(f)
				if err != nil {
					return nil, protocolErrorf(output, "bad node id %q", f)
				}
				ids = append(ids, id)
			}
		}
		return ids, nil
	})
}

// Unwatch disables log display of the given nodes, or of all nodes if none are given.
func (s *Session) Unwatch(ids ...NodeId) error {
	if len(ids) == 0 {
		return s.do("unwatch all")
	}
	return s.do("unwatch " + joinIds(ids))
}

// WatchDefault sets the watch level of nodes added later.
func (s *Session) WatchDefault(level string) error {
	return s.do("watch default " + level)
}
