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
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/openthread/otns-client/cli"
	"github.com/openthread/otns-client/logger"
)

const exitCommand = "exit"

// ConsoleOptions configure the interactive console. Nil Stdin/Stdout use the process stdio.
type ConsoleOptions struct {
	Prompt    string
	Stdin     io.Reader
	Stdout    io.Writer
	EchoInput bool
}

type consoleReply struct {
	output []string
	err    error
}

type consoleRequest struct {
	cmd   string
	reply chan consoleReply
}

// interactiveWorker executes the commands typed on the console. The console goroutine queues
// requests and the worker goroutine runs them through the Session's command channel, so console
// commands are serialized with all other commands.
type interactiveWorker struct {
	s       *Session
	console *cli.Console
	prompt  string

	queue    chan consoleRequest
	done     chan struct{} // closed by the Session to stop the worker
	doneOnce sync.Once
	stopped  chan struct{} // closed once console and worker ended
}

// StartInteractive runs an interactive console on the Session in the background. It returns false
// if a console is already running or the Session is closed.
func (s *Session) StartInteractive(opts ConsoleOptions) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Closed() {
		return false
	}
	if w := s.interactive; w != nil {
		select {
		case <-w.stopped:
		default:
			return false
		}
	}

	prompt := opts.Prompt
	if prompt == "" {
		prompt = "> "
	}
	w := &interactiveWorker{
		s: s,
		console: cli.NewConsole(&cli.ConsoleOptions{
			EchoInput: opts.EchoInput,
			Stdin:     opts.Stdin,
			Stdout:    opts.Stdout,
		}),
		prompt:  prompt,
		queue:   make(chan consoleRequest),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	s.interactive = w
	w.start()
	return true
}

// InteractiveDone returns a channel closed when the interactive console stopped, or nil if no
// console was started.
func (s *Session) InteractiveDone() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.interactive == nil {
		return nil
	}
	return s.interactive.stopped
}

// stopInteractive stops the console, if running, and waits until it stopped.
func (s *Session) stopInteractive() {
	s.mu.Lock()
	w := s.interactive
	s.mu.Unlock()

	if w != nil {
		w.stop()
	}
}

func (w *interactiveWorker) start() {
	logger.SetStdoutCallback(w.console)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer w.signalDone()
		if err := w.console.Run(w); err != nil {
			logger.Warnf("console: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		w.run()
	}()
	go func() {
		wg.Wait()
		logger.SetStdoutCallback(nil)
		close(w.stopped)
	}()
}

func (w *interactiveWorker) signalDone() {
	w.doneOnce.Do(func() {
		close(w.done)
	})
}

// stop ends the console and waits until the worker finished its current command.
func (w *interactiveWorker) stop() {
	w.signalDone()
	w.console.Stop()
	<-w.stopped
}

func (w *interactiveWorker) run() {
	for {
		select {
		case req := <-w.queue:
			output, err := w.s.Command(req.cmd)
			req.reply <- consoleReply{output: output, err: err}
		case <-w.done:
			return
		}
	}
}

func (w *interactiveWorker) GetPrompt() string {
	return w.prompt
}

// HandleCommand is called on the console goroutine for every entered line.
func (w *interactiveWorker) HandleCommand(cmd string, output io.Writer) error {
	req := consoleRequest{cmd: cmd, reply: make(chan consoleReply, 1)}
	select {
	case w.queue <- req:
	case <-w.done:
		return cli.ErrExit
	}

	reply := <-req.reply
	for _, line := range reply.output {
		if _, err := fmt.Fprintln(output, line); err != nil {
			return err
		}
	}

	var exited *ExitedError
	switch {
	case reply.err == nil:
		_, _ = fmt.Fprintln(output, doneLine)
	case errors.As(reply.err, &exited):
		_, _ = fmt.Fprintf(output, "%s%v\n", errorPrefix, reply.err)
		return cli.ErrExit
	default:
		_, _ = fmt.Fprintf(output, "%s%v\n", errorPrefix, reply.err)
	}

	if strings.TrimSpace(cmd) == exitCommand {
		return cli.ErrExit
	}
	return nil
}
