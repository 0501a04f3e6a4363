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

package types

// Node types accepted by the `add` command.
const (
	ROUTER = "router"
	REED   = "reed"
	FED    = "fed"
	MED    = "med"
	SED    = "sed"
	SSED   = "ssed"
	BR     = "br"
	MTD    = "mtd"
	FTD    = "ftd"
)

// Thread version tags accepted by the `add` command.
const (
	V11 = "v11"
	V12 = "v12"
	V13 = "v13"
)

var allNodeTypes = []string{ROUTER, REED, FED, MED, SED, SSED, BR, MTD, FTD}

// IsValidNodeType returns true if t is a node type the simulator can add.
func IsValidNodeType(t string) bool {
	for _, nt := range allNodeTypes {
		if nt == t {
			return true
		}
	}
	return false
}

// IsMtdType returns true for the node types that run a minimal thread device build.
func IsMtdType(t string) bool {
	switch t {
	case MED, SED, SSED, MTD:
		return true
	default:
		return false
	}
}

// IsValidThreadVersion returns true for "" (the default version) and the known version tags.
func IsValidThreadVersion(v string) bool {
	switch v {
	case "", V11, V12, V13:
		return true
	default:
		return false
	}
}
