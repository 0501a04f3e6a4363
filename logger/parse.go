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

package logger

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

const (
	OffLevelString     = "off"
	NoneLevelString    = "none"
	DefaultLevelString = "default"
)

// levelNames holds the canonical name of each level first, followed by its aliases.
var levelNames = []struct {
	level Level
	names []string
}{
	{MicroLevel, []string{"micro"}},
	{TraceLevel, []string{"trace", "T"}},
	{DebugLevel, []string{"debug", "D"}},
	{InfoLevel, []string{"info", "I"}},
	{NoteLevel, []string{"note", "N"}},
	{WarnLevel, []string{"warn", "warning", "W"}},
	{ErrorLevel, []string{"crit", "critical", "error", "err", "C", "E"}},
	{OffLevel, []string{OffLevelString, NoneLevelString}},
}

// ParseLevelString accepts a level name or one of its aliases. "default" and "def" map to DefaultLevel.
func ParseLevelString(level string) (Level, error) {
	if level == DefaultLevelString || level == "def" {
		return DefaultLevel, nil
	}
	for _, ln := range levelNames {
		for _, name := range ln.names {
			if name == level {
				return ln.level, nil
			}
		}
	}
	return DefaultLevel, errors.Errorf("invalid log level string: %s", level)
}

func GetLevelString(level Level) string {
	for _, ln := range levelNames {
		if ln.level == level {
			return ln.names[0]
		}
	}
	return fmt.Sprintf("level(%d)", level)
}

// LevelNames lists the canonical names of all levels, comma separated.
func LevelNames() string {
	names := make([]string, 0, len(levelNames))
	for _, ln := range levelNames {
		names = append(names, ln.names[0])
	}
	return strings.Join(names, ", ")
}
