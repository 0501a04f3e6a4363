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
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/openthread/otns-client/cli"
	"github.com/openthread/otns-client/logger"
	"github.com/openthread/otns-client/pcap"
	"github.com/openthread/otns-client/progctx"
)

// Session drives one simulator process over its stdin/stdout command line interface.
// All methods are safe for concurrent use; command exchanges are serialized.
type Session struct {
	opts *Options
	path string
	args []string

	proc *simProcess
	ch   *commandChannel
	ctx  *progctx.ProgCtx

	closed atomic.Bool

	mu          sync.Mutex
	interactive *interactiveWorker
}

// New launches the simulator described by opts. A nil opts is DefaultOptions().
func New(opts *Options) (*Session, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	if err := opts.Launch.Validate(); err != nil {
		return nil, &LaunchError{Err: err}
	}

	path, err := opts.resolvePath()
	if err != nil {
		return nil, err
	}
	logger.Infof("otns found: %s", path)

	args := opts.commandLine()
	proc, err := spawn(path, args, opts.Env, opts.Dir)
	if err != nil {
		return nil, err
	}

	s := &Session{
		opts: opts,
		path: path,
		args: args,
		proc: proc,
		ctx:  progctx.New(context.Background()),
	}

	lines := make(chan string, 64)
	proc.readLines(s.ctx, lines)
	s.ch = newCommandChannel(proc, lines, opts.Metrics)
	_ = s.ctx.Defer(proc.terminate)
	return s, nil
}

// Close stops the interactive console, if running, and terminates the simulator. A console
// command in flight completes before the simulator is terminated. Calling Close more than once
// has no effect.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.stopInteractive()
	s.ctx.Cancel("session closed")
	s.ctx.Wait()
	return nil
}

// Closed returns true once Close was called.
func (s *Session) Closed() bool {
	return s.closed.Load()
}

// Path returns the simulator executable in use.
func (s *Session) Path() string {
	return s.path
}

// Args returns the arguments the simulator was launched with.
func (s *Session) Args() []string {
	return append([]string(nil), s.args...)
}

// Command executes cmd and returns the response body. It is bounded by Options.CommandTimeout if set.
func (s *Session) Command(cmd string) ([]string, error) {
	ctx := context.Background()
	if s.opts.CommandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.CommandTimeout)
		defer cancel()
	}
	return s.ch.execute(ctx, cmd)
}

// CommandContext executes cmd, giving up when ctx ends. If ctx ends after the command was sent,
// the simulator is terminated and later calls return an *ExitedError.
func (s *Session) CommandContext(ctx context.Context, cmd string) ([]string, error) {
	return s.ch.execute(ctx, cmd)
}

// Validate checks cmd against the simulator command grammar without sending it.
func Validate(cmd string) error {
	if strings.ContainsAny(cmd, "\r\n") {
		return errors.Wrapf(ErrInvalidCommand, "%q contains a line break", cmd)
	}
	if _, err := cli.Parse(cmd); err != nil {
		return errors.Wrapf(ErrInvalidCommand, "%q: %v", cmd, err)
	}
	return nil
}

// Cmd is Command for commands built by hand: cmd is validated first and an invalid command is
// never sent to the simulator.
func (s *Session) Cmd(cmd string) ([]string, error) {
	if err := Validate(cmd); err != nil {
		return nil, err
	}
	return s.Command(cmd)
}

// do executes cmd when only success matters.
func (s *Session) do(cmd string) error {
	_, err := s.Command(cmd)
	return err
}

// query executes cmd and decodes its response.
func query[T any](s *Session, cmd string, decode func([]string) (T, error)) (T, error) {
	output, err := s.Command(cmd)
	if err != nil {
		var zero T
		return zero, err
	}

	v, err := decode(output)
	var perr *ProtocolError
	if errors.As(err, &perr) && perr.Cmd == "" {
		perr.Cmd = cmd
	}
	return v, err
}

// Pid returns the process id of the simulator.
func (s *Session) Pid() int {
	return s.proc.pid()
}

// ProcessStats returns the current resource usage of the simulator process.
func (s *Session) ProcessStats() (ProcessStats, error) {
	return s.proc.stats()
}

// SavePcap copies the capture file of the simulator to dst. The capture is only complete once the
// simulator exited, so SavePcap must be called after Close.
func (s *Session) SavePcap(dst string) error {
	if !s.Closed() {
		return errors.New("save pcap: session is not closed")
	}

	src := filepath.Join(s.opts.Dir, s.opts.pcapFile())
	if _, err := pcap.ReadFileHeader(src); err != nil {
		return errors.Wrapf(err, "save pcap %s", src)
	}

	if info, err := os.Stat(dst); err == nil && info.IsDir() {
		dst = filepath.Join(dst, filepath.Base(src))
	}
	return copyFile(src, dst)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		return errors.Wrapf(err, "copy %s to %s", src, dst)
	}
	return out.Close()
}
