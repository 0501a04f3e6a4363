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
	"bytes"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	lock sync.Mutex
	buf  bytes.Buffer
}

func (sb *syncBuffer) Write(p []byte) (int, error) {
	sb.lock.Lock()
	defer sb.lock.Unlock()
	return sb.buf.Write(p)
}

func (sb *syncBuffer) String() string {
	sb.lock.Lock()
	defer sb.lock.Unlock()
	return sb.buf.String()
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	require.NotNil(t, done)
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("console did not stop")
	}
}

func TestInteractiveEndOfInput(t *testing.T) {
	s := newTestSession(t)
	assert.Nil(t, s.InteractiveDone())

	var stdout syncBuffer
	require.True(t, s.StartInteractive(ConsoleOptions{
		Stdin:  strings.NewReader("add router\ntime\nnode 9 \"state\"\n"),
		Stdout: &stdout,
	}))
	waitDone(t, s.InteractiveDone())

	out := stdout.String()
	assert.Contains(t, out, "1\nDone\n")
	assert.Contains(t, out, "0\nDone\n")
	assert.Contains(t, out, "Error: node 9 not found\n")

	// the console ended, the session goes on
	nodes, err := s.Nodes()
	require.NoError(t, err)
	assert.Len(t, nodes, 1)

	// a new console can be started once the previous one stopped
	require.True(t, s.StartInteractive(ConsoleOptions{Stdin: strings.NewReader(""), Stdout: io.Discard}))
	waitDone(t, s.InteractiveDone())
}

func TestInteractiveExit(t *testing.T) {
	s := newTestSession(t)

	var stdout syncBuffer
	require.True(t, s.StartInteractive(ConsoleOptions{
		Stdin:     strings.NewReader("exit\ntime\n"),
		Stdout:    &stdout,
		EchoInput: true,
	}))
	waitDone(t, s.InteractiveDone())
	assert.Contains(t, stdout.String(), "exit\n")

	_, err := s.Time()
	_, ok := IsExited(err)
	assert.True(t, ok, "%v", err)
}

func TestInteractiveStoppedByClose(t *testing.T) {
	s := newTestSession(t)

	stdinR, stdinW, err := os.Pipe()
	require.NoError(t, err)
	defer stdinW.Close()

	var stdout syncBuffer
	require.True(t, s.StartInteractive(ConsoleOptions{Stdin: stdinR, Stdout: &stdout}))
	assert.False(t, s.StartInteractive(ConsoleOptions{Stdin: strings.NewReader(""), Stdout: io.Discard}))

	_, err = stdinW.WriteString("time\n")
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "Done")
	}, 10*time.Second, 10*time.Millisecond)

	done := s.InteractiveDone()
	require.NoError(t, s.Close())
	waitDone(t, done)
	assert.False(t, s.StartInteractive(ConsoleOptions{}))
}
