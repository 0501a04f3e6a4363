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
	"path/filepath"
	"strings"

	. "github.com/openthread/otns-client/types"
)

const (
	versionLatestTag = "v14"
	// omrPrefix is the prefix a border router publishes in the network data of its partition.
	omrPrefix = "fd00:f00d:cafe::/64"
)

// NodeConfig configures a node added to the simulation.
type NodeConfig struct {
	ID             NodeId // <= 0 picks the next free id
	Type           string
	Version        string
	X, Y           int
	IsAutoPlaced   bool
	RadioRange     int
	ExecutablePath string
	Restore        bool
}

func DefaultNodeConfig() NodeConfig {
	return NodeConfig{
		ID:           -1,
		Type:         ROUTER,
		IsAutoPlaced: true,
		RadioRange:   DefaultRadioRange,
	}
}

type ExecutableConfig struct {
	Ftd string
	Mtd string
	Br  string
}

var DefaultExecutableConfig = ExecutableConfig{
	Ftd: "ot-cli-ftd",
	Mtd: "ot-cli-mtd",
	Br:  "ot-cli-ftd_br",
}

// executableName gets the name of the node executable, as listed by the `nodes` command.
func (cfg *NodeConfig) executableName() string {
	if len(cfg.ExecutablePath) > 0 {
		return filepath.Base(cfg.ExecutablePath)
	}
	exeName := DefaultExecutableConfig.Ftd
	if IsMtdType(cfg.Type) {
		exeName = DefaultExecutableConfig.Mtd
	}
	if cfg.Type == BR {
		// BR is currently not adapted to versions.
		return DefaultExecutableConfig.Br
	}
	if len(cfg.Version) > 0 && cfg.Version != versionLatestTag {
		exeName += "_" + cfg.Version
	}
	return exeName
}

// versionOfExecutable derives the Thread version tag from a versioned executable name.
func versionOfExecutable(exe string) string {
	idx := strings.LastIndex(exe, "_v1")
	if idx < 0 {
		return ""
	}
	return exe[idx+1:]
}

type NodeAutoPlacer struct {
	X, Y            int
	Xref, Yref      int
	Xmax            int
	NodeDeltaCoarse int
	NodeDeltaFine   int
	fineCount       int
	isReset         bool
}

func NewNodeAutoPlacer() *NodeAutoPlacer {
	return &NodeAutoPlacer{
		Xref:            100,
		Yref:            100,
		Xmax:            1450,
		X:               100,
		Y:               100,
		NodeDeltaCoarse: 100,
		NodeDeltaFine:   40,
		isReset:         true,
	}
}

// UpdateReference updates the reference position of the NodeAutoPlacer to 'x', 'y'. It starts placing from there.
func (nap *NodeAutoPlacer) UpdateReference(x, y int) {
	nap.Xref = x
	nap.X = x
	nap.Yref = y
	nap.Y = y
	nap.isReset = false
}

// NextNodePosition lets the autoplacer pick the next position for a new node to be placed. Children
// are placed in rows below the last placed router.
func (nap *NodeAutoPlacer) NextNodePosition(isBelowParent bool) (int, int) {
	var x, y int

	if isBelowParent {
		fineCountCol := nap.fineCount % 16
		fineCountRow := nap.fineCount / 16
		y = nap.Y + (nap.NodeDeltaCoarse/2)*(fineCountRow+1)
		x = nap.X + (fineCountCol*nap.NodeDeltaFine - nap.NodeDeltaFine)
		nap.fineCount++
	} else {
		if !nap.isReset {
			nap.X += nap.NodeDeltaCoarse
			if nap.X > nap.Xmax {
				nap.X = nap.Xref
				nap.Y += nap.NodeDeltaCoarse
			}
		}
		nap.isReset = false
		nap.fineCount = 0
		x = nap.X
		y = nap.Y
	}
	return x, y
}
