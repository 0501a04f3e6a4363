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
	"bufio"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/process"
	"golang.org/x/sys/unix"

	"github.com/openthread/otns-client/logger"
	"github.com/openthread/otns-client/progctx"
)

// killGracePeriod is how long terminate waits after SIGTERM before killing the process.
const killGracePeriod = 10 * time.Second

// simProcess supervises the simulator process and owns both ends of its stdin/stdout pipes.
type simProcess struct {
	cmd    *exec.Cmd
	stdin  *os.File
	stdout *os.File

	waitOnce sync.Once
	exitCode int
	termOnce sync.Once
}

// spawn starts the simulator with stdin/stdout connected to pipes. Stderr is inherited.
func spawn(path string, args []string, env []string, dir string) (*simProcess, error) {
	logger.Infof("launching otns: %s %s", path, strings.Join(args, " "))

	cmd := exec.Command(path, args...)
	cmd.Stderr = os.Stderr
	cmd.Dir = dir
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}

	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		return nil, &LaunchError{Path: path, Err: err}
	}
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		_ = stdinR.Close()
		_ = stdinW.Close()
		return nil, &LaunchError{Path: path, Err: err}
	}
	cmd.Stdin = stdinR
	cmd.Stdout = stdoutW

	err = cmd.Start()
	// the child owns its ends now
	_ = stdinR.Close()
	_ = stdoutW.Close()
	if err != nil {
		_ = stdinW.Close()
		_ = stdoutR.Close()
		return nil, &LaunchError{Path: path, Err: err}
	}

	logger.Infof("otns process launched: pid %d", cmd.Process.Pid)
	return &simProcess{
		cmd:    cmd,
		stdin:  stdinW,
		stdout: stdoutR,
	}, nil
}

// readLines feeds every stdout line into lines and closes it at end-of-stream.
func (p *simProcess) readLines(ctx *progctx.ProgCtx, lines chan<- string) {
	ctx.Go("otns-stdout", func() {
		defer close(lines)

		reader := bufio.NewReader(p.stdout)
		for {
			line, err := reader.ReadString('\n')
			if len(line) > 0 {
				select {
				case lines <- strings.TrimRight(line, "\r\n"):
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if err != io.EOF {
					logger.Debugf("otns stdout: %v", err)
				}
				return
			}
		}
	})
}

// wait waits for the process to exit and returns its exit code. A process killed by a signal
// reports the negated signal number.
func (p *simProcess) wait() int {
	p.waitOnce.Do(func() {
		err := p.cmd.Wait()
		p.exitCode = exitCodeOf(p.cmd.ProcessState, err)
		_ = p.stdin.Close()
	})
	return p.exitCode
}

// eof is called when the process output ended or its input broke. It always returns an ExitedError.
func (p *simProcess) eof() *ExitedError {
	code := p.wait()
	logger.Warnf("otns exited: code = %d", code)
	return &ExitedError{ExitCode: code}
}

// terminate sends SIGTERM and waits for the process to exit. Only the first call has an effect.
func (p *simProcess) terminate() {
	p.termOnce.Do(func() {
		logger.Infof("waiting for otns to close ...")
		if err := p.cmd.Process.Signal(unix.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
			logger.Warnf("signal otns: %v", err)
		}
		_ = p.stdin.Close()

		exited := make(chan struct{})
		go func() {
			p.wait()
			close(exited)
		}()
		select {
		case <-exited:
		case <-time.After(killGracePeriod):
			logger.Warnf("otns did not exit within %v, killing it", killGracePeriod)
			_ = p.cmd.Process.Kill()
			<-exited
		}
		_ = p.stdout.Close()
	})
}

func (p *simProcess) pid() int {
	return p.cmd.Process.Pid
}

func exitCodeOf(state *os.ProcessState, err error) int {
	if state == nil {
		logger.Warnf("otns wait: %v", err)
		return -1
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return -int(ws.Signal())
	}
	return state.ExitCode()
}

// ProcessStats is a snapshot of the resource usage of the simulator process.
type ProcessStats struct {
	Pid        int
	RSS        uint64
	CPUPercent float64
	NumThreads int32
	// Children counts the node processes the simulator spawned.
	Children int
}

func (p *simProcess) stats() (ProcessStats, error) {
	stats := ProcessStats{Pid: p.pid()}
	proc, err := process.NewProcess(int32(stats.Pid))
	if err != nil {
		return stats, errors.Wrapf(err, "process %d", stats.Pid)
	}
	mem, err := proc.MemoryInfo()
	if err != nil {
		return stats, errors.Wrap(err, "memory info")
	}
	stats.RSS = mem.RSS
	if stats.CPUPercent, err = proc.CPUPercent(); err != nil {
		return stats, errors.Wrap(err, "cpu percent")
	}
	if stats.NumThreads, err = proc.NumThreads(); err != nil {
		return stats, errors.Wrap(err, "num threads")
	}
	if stats.Children, err = countChildren(proc.Pid); err != nil {
		return stats, errors.Wrap(err, "children")
	}
	return stats, nil
}

// countChildren counts the processes whose parent is ppid. Process.Children is not used since
// it fails when pgrep finds no children.
func countChildren(ppid int32) (int, error) {
	procs, err := process.Processes()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, p := range procs {
		// processes may exit while being listed
		if parent, err := p.Ppid(); err == nil && parent == ppid {
			n++
		}
	}
	return n, nil
}
