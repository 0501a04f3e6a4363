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
	"os"

	"github.com/pkg/errors"
	"github.com/simonlingoogle/go-simplelogger"
	"gopkg.in/yaml.v3"

	. "github.com/openthread/otns-client/types"
)

// YamlConfigFile is the topology file written by `save` and read by `load`.
type YamlConfigFile struct {
	NetworkConfig YamlNetworkConfig `yaml:"network"`
	NodesList     []YamlNodeConfig  `yaml:"nodes"`
}

type YamlNetworkConfig struct {
	Position   [3]int `yaml:"pos-shift,flow"` // provides an optional 3D position shift of all nodes.
	RadioRange *int   `yaml:"radio-range,omitempty"`
	BaseId     *int   `yaml:"base-id,omitempty"`
}

type YamlNodeConfig struct {
	ID         int     `yaml:"id"`
	Type       string  `yaml:"type"`
	Version    *string `yaml:"version,omitempty"`
	Position   [3]int  `yaml:"pos,flow"`
	RadioRange *int    `yaml:"rr,omitempty"`
}

// ExportNetwork exports the network settings. Exported positions are never shifted.
func (s *Simulation) ExportNetwork() YamlNetworkConfig {
	return YamlNetworkConfig{
		Position: [3]int{0, 0, 0},
	}
}

// ExportNodes exports the position and config of all nodes.
func (s *Simulation) ExportNodes(nwConfig *YamlNetworkConfig) []YamlNodeConfig {
	res := make([]YamlNodeConfig, 0, len(s.nodes))
	defaultRr := DefaultRadioRange
	if nwConfig.RadioRange != nil {
		defaultRr = *nwConfig.RadioRange
	}

	for _, nodeid := range s.GetNodes() {
		n := s.nodes[nodeid]
		var rr *int
		var ver *string

		// radio range and version only when not the default
		if nodeRr := int(n.radio.RadioRange); nodeRr != defaultRr {
			rr = &nodeRr
		}
		if len(n.version) > 0 {
			v := n.version
			ver = &v
		}

		res = append(res, YamlNodeConfig{
			ID:         nodeid,
			Type:       n.typ,
			Position:   [3]int{int(n.radio.X), int(n.radio.Y), 0},
			RadioRange: rr,
			Version:    ver,
		})
	}
	return res
}

// ImportNodes adds the nodes of a topology, shifted by the network position and base id. It
// continues after a failed node and reports the failure at the end.
func (s *Simulation) ImportNodes(nwConfig YamlNetworkConfig, nodes []YamlNodeConfig) error {
	allOk := true
	rr := DefaultRadioRange
	if nwConfig.RadioRange != nil {
		rr = *nwConfig.RadioRange
	}
	posOffset := nwConfig.Position
	nodeIdOffset := 0
	if nwConfig.BaseId != nil {
		nodeIdOffset = *nwConfig.BaseId
	}

	for _, yn := range nodes {
		cfg := DefaultNodeConfig()
		cfg.ID = yn.ID + nodeIdOffset
		cfg.RadioRange = rr
		if yn.RadioRange != nil {
			cfg.RadioRange = *yn.RadioRange
		}
		cfg.IsAutoPlaced = false
		cfg.X = yn.Position[0] + posOffset[0]
		cfg.Y = yn.Position[1] + posOffset[1]
		cfg.Type = yn.Type
		if yn.Version != nil {
			cfg.Version = *yn.Version
		}

		if _, err := s.AddNode(&cfg); err != nil {
			simplelogger.Warnf("import node %d: %v", cfg.ID, err)
			allOk = false
		}
	}

	if !allOk {
		return errors.Errorf("not all nodes could be imported")
	}
	return nil
}

// SaveTopology writes the topology of the simulation to a YAML file.
func (s *Simulation) SaveTopology(filename string) error {
	network := s.ExportNetwork()
	cfgFile := YamlConfigFile{
		NetworkConfig: network,
		NodesList:     s.ExportNodes(&network),
	}
	data, err := yaml.Marshal(&cfgFile)
	if err != nil {
		return errors.Wrapf(err, "marshal topology")
	}
	return errors.Wrapf(os.WriteFile(filename, data, 0644), "save %s", filename)
}

// LoadTopology adds the nodes of a YAML topology file to the simulation.
func (s *Simulation) LoadTopology(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return errors.Wrapf(err, "load %s", filename)
	}
	cfgFile := YamlConfigFile{}
	if err = yaml.Unmarshal(data, &cfgFile); err != nil {
		return errors.Wrapf(err, "parse %s", filename)
	}
	return s.ImportNodes(cfgFile.NetworkConfig, cfgFile.NodesList)
}
