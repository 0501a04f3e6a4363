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

package prng

import (
	"math/rand"
	"time"
)

type RandomSeed int64

// Generator derives independent pseudo-random streams from one root seed, so a simulation
// run with a fixed seed is reproducible.
type Generator struct {
	seed     int64
	extAddr  *rand.Rand
	failTime *rand.Rand
	unit     *rand.Rand
	ids      *rand.Rand
}

// New creates a Generator, either with a fixed PRNG seed (rootSeed != 0) or a 'random' time-based PRNG
// seed (if rootSeed == 0).
func New(rootSeed int64) *Generator {
	if rootSeed == 0 {
		rootSeed = time.Now().UnixNano()
	}
	root := rand.New(rand.NewSource(rootSeed))
	sub := func() *rand.Rand {
		return rand.New(rand.NewSource(rootSeed + root.Int63n(1e10)))
	}
	return &Generator{
		seed:     rootSeed,
		extAddr:  sub(),
		failTime: sub(),
		unit:     sub(),
		ids:      sub(),
	}
}

func (g *Generator) Seed() RandomSeed {
	return RandomSeed(g.seed)
}

// NewExtAddr generates a random 64-bit extended address that is never zero.
func (g *Generator) NewExtAddr() uint64 {
	for {
		if v := g.extAddr.Uint64(); v != 0 {
			return v
		}
	}
}

// NewPartitionId generates a random non-zero Thread partition id.
func (g *Generator) NewPartitionId() uint32 {
	for {
		if v := g.ids.Uint32(); v != 0 {
			return v
		}
	}
}

// NewFailTime generates a random new failure-start time between 0 and failStartTimeMax.
func (g *Generator) NewFailTime(failStartTimeMax int) uint64 {
	if failStartTimeMax <= 0 {
		return 0
	}
	return uint64(g.failTime.Intn(failStartTimeMax))
}

// NewUnitRandom generates a new random unit [0, 1) float, which can be used as a random probability.
func (g *Generator) NewUnitRandom() float64 {
	return g.unit.Float64()
}
