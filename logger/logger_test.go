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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevelString(t *testing.T) {
	for _, lv := range []Level{MicroLevel, TraceLevel, DebugLevel, InfoLevel, NoteLevel, WarnLevel, ErrorLevel, OffLevel} {
		parsed, err := ParseLevelString(GetLevelString(lv))
		assert.Nil(t, err)
		assert.Equal(t, lv, parsed)
	}

	lv, err := ParseLevelString("E")
	assert.Nil(t, err)
	assert.Equal(t, ErrorLevel, lv)

	lv, err = ParseLevelString("def")
	assert.Nil(t, err)
	assert.Equal(t, DefaultLevel, lv)

	_, err = ParseLevelString("loud")
	assert.NotNil(t, err)

	lv, err = ParseLevelString("none")
	assert.Nil(t, err)
	assert.Equal(t, OffLevel, lv)
	assert.Equal(t, "crit", GetLevelString(ErrorLevel))
	assert.Equal(t, "level(-1)", GetLevelString(FatalLevel))
	assert.Equal(t, "micro, trace, debug, info, note, warn, crit, off", LevelNames())
}

func TestSetOutput(t *testing.T) {
	prevLevel := GetLevel()
	defer SetLevel(prevLevel)

	logFile := filepath.Join(t.TempDir(), "client.log")
	require.Nil(t, SetOutput([]string{logFile}))
	defer func() {
		_ = SetOutput([]string{"stderr"})
	}()

	SetLevel(InfoLevel)
	Infof("hello %s", "log")
	Debugf("filtered")

	data, err := os.ReadFile(logFile)
	require.Nil(t, err)
	assert.Contains(t, string(data), "hello log")
	assert.NotContains(t, string(data), "filtered")
}

func TestSetOutputInvalidPath(t *testing.T) {
	err := SetOutput([]string{filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	assert.NotNil(t, err)
	Warnf("logger still usable")
}
