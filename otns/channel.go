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
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/openthread/otns-client/logger"
)

type ioKind int

const (
	writeOK ioKind = iota
	writeBrokenPipe
	readLine
	readEOF
)

func (k ioKind) String() string {
	switch k {
	case writeOK:
		return "write-ok"
	case writeBrokenPipe:
		return "write-broken-pipe"
	case readLine:
		return "read-line"
	case readEOF:
		return "read-eof"
	default:
		return "invalid"
	}
}

// ioOutcome is the result of one pipe operation.
type ioOutcome struct {
	kind ioKind
	line string
	err  error
}

// commandChannel runs command/response exchanges over the simulator pipes. The guard admits one
// exchange at a time, since responses are matched to requests only by their order.
type commandChannel struct {
	proc    *simProcess
	lines   <-chan string
	guard   chan struct{}
	metrics *Metrics
}

func newCommandChannel(proc *simProcess, lines <-chan string, metrics *Metrics) *commandChannel {
	return &commandChannel{
		proc:    proc,
		lines:   lines,
		guard:   make(chan struct{}, 1),
		metrics: metrics,
	}
}

func (ch *commandChannel) lock(ctx context.Context) error {
	select {
	case ch.guard <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (ch *commandChannel) unlock() {
	<-ch.guard
}

// execute sends cmd and returns the response body lines.
func (ch *commandChannel) execute(ctx context.Context, cmd string) ([]string, error) {
	if strings.ContainsAny(cmd, "\r\n") {
		return nil, errors.Wrapf(ErrInvalidCommand, "%q contains a line break", cmd)
	}

	if err := ch.lock(ctx); err != nil {
		return nil, errors.Wrapf(err, "waiting to send %q", cmd)
	}
	defer ch.unlock()

	start := time.Now()
	output, err := ch.exchange(ctx, cmd)
	ch.metrics.observe(cmd, err, time.Since(start))
	return output, err
}

func (ch *commandChannel) exchange(ctx context.Context, cmd string) ([]string, error) {
	logger.Debugf("OTNS <<< %s", cmd)

	switch out := ch.write(ctx, cmd); out.kind {
	case writeOK:
	case writeBrokenPipe:
		if errors.Is(out.err, os.ErrDeadlineExceeded) {
			return nil, ch.desync(cmd, ctx.Err())
		}
		logger.Debugf("otns stdin: %v", out.err)
		return nil, ch.proc.eof()
	}

	var output []string
	for {
		out, err := ch.read(ctx)
		if err != nil {
			return nil, ch.desync(cmd, err)
		}

		switch out.kind {
		case readEOF:
			return nil, ch.proc.eof()
		case readLine:
			logger.Debugf("OTNS >>> %s", out.line)
			if out.line == doneLine {
				return output, nil
			} else if strings.HasPrefix(out.line, errorPrefix) {
				return nil, newCliError(out.line)
			}
			output = append(output, out.line)
		}
	}
}

func (ch *commandChannel) write(ctx context.Context, cmd string) ioOutcome {
	if deadline, ok := ctx.Deadline(); ok {
		_ = ch.proc.stdin.SetWriteDeadline(deadline)
		defer func() {
			_ = ch.proc.stdin.SetWriteDeadline(time.Time{})
		}()
	}

	_, err := ch.proc.stdin.Write([]byte(cmd + "\n"))
	if err == nil {
		return ioOutcome{kind: writeOK}
	}
	if !errors.Is(err, unix.EPIPE) && !errors.Is(err, os.ErrClosed) && !errors.Is(err, os.ErrDeadlineExceeded) {
		logger.Warnf("otns stdin write failed: %v", err)
	}
	return ioOutcome{kind: writeBrokenPipe, err: err}
}

// read returns the next outcome, or the context error if ctx ends first.
func (ch *commandChannel) read(ctx context.Context) (ioOutcome, error) {
	select {
	case line, ok := <-ch.lines:
		if !ok {
			return ioOutcome{kind: readEOF}, nil
		}
		return ioOutcome{kind: readLine, line: line}, nil
	case <-ctx.Done():
		return ioOutcome{}, ctx.Err()
	}
}

// desync gives up on the current exchange. The rest of the response can not be told apart from
// the next one, so the simulator is terminated.
func (ch *commandChannel) desync(cmd string, reason error) error {
	if reason == nil {
		reason = context.DeadlineExceeded
	}
	logger.Warnf("command %q abandoned: %v, terminating otns", cmd, reason)
	ch.proc.terminate()
	return errors.Wrapf(reason, "command %q", cmd)
}
