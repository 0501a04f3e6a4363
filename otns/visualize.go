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
)

// VisualizationPatch selects the visualization toggles changed by ConfigVisualization. Nil fields
// are left unchanged.
type VisualizationPatch struct {
	BroadcastMessage *bool
	UnicastMessage   *bool
	AckMessage       *bool
	RouterTable      *bool
	ChildTable       *bool
}

// Bool returns a pointer to v, for optional boolean fields.
func Bool(v bool) *bool {
	return &v
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func (p VisualizationPatch) Command() string {
	cmd := "cv"
	for _, f := range []struct {
		key string
		val *bool
	}{
		{"bro", p.BroadcastMessage},
		{"uni", p.UnicastMessage},
		{"ack", p.AckMessage},
		{"rtb", p.RouterTable},
		{"ctb", p.ChildTable},
	} {
		if f.val != nil {
			cmd += " " + f.key + " " + onOff(*f.val)
		}
	}
	return cmd
}

// ConfigVisualization applies patch and returns the resulting visualization options.
func (s *Session) ConfigVisualization(patch VisualizationPatch) (VisualizationOptions, error) {
	return query(s, patch.Command(), decodeVisualizationOptions)
}

// TitleConfig is the title shown by the visualizer.
type TitleConfig struct {
	Title    string
	X, Y     *int
	FontSize *int
}

func (cfg TitleConfig) Command() string {
	cmd := "title " + strconv.Quote(cfg.Title)
	if cfg.X != nil {
		cmd += fmt.Sprintf(" x %d", *cfg.X)
	}
	if cfg.Y != nil {
		cmd += fmt.Sprintf(" y %d", *cfg.Y)
	}
	if cfg.FontSize != nil {
		cmd += fmt.Sprintf(" fs %d", *cfg.FontSize)
	}
	return cmd
}

func (s *Session) SetTitle(cfg TitleConfig) error {
	return s.do(cfg.Command())
}

// NetworkInfo describes the simulated network to the visualizer. Nil fields are left unchanged.
type NetworkInfo struct {
	Version *string
	Commit  *string
	Real    *bool
}

func (ni NetworkInfo) Command() string {
	cmd := "netinfo"
	if ni.Version != nil {
		cmd += " version " + strconv.Quote(*ni.Version)
	}
	if ni.Commit != nil {
		cmd += " commit " + strconv.Quote(*ni.Commit)
	}
	if ni.Real != nil {
		if *ni.Real {
			cmd += " real 1"
		} else {
			cmd += " real 0"
		}
	}
	return cmd
}

func (s *Session) SetNetworkInfo(ni NetworkInfo) error {
	return s.do(ni.Command())
}
