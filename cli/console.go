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

package cli

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/openthread/otns-client/logger"
)

// ErrExit is returned by a Handler to end the console after the current command.
var ErrExit = errors.New("exit console")

// Handler executes the command lines entered on a Console.
type Handler interface {
	HandleCommand(cmd string, output io.Writer) error
	GetPrompt() string
}

type ConsoleOptions struct {
	EchoInput bool
	Stdin     io.Reader
	Stdout    io.Writer
}

func DefaultConsoleOptions() *ConsoleOptions {
	return &ConsoleOptions{
		EchoInput: false,
		Stdin:     nil,
		Stdout:    nil,
	}
}

func getConsoleOptions(options *ConsoleOptions) *ConsoleOptions {
	if options == nil {
		options = DefaultConsoleOptions()
	}
	if options.Stdin == nil {
		options.Stdin = os.Stdin
	}
	if options.Stdout == nil {
		options.Stdout = os.Stdout
	}
	return options
}

// Console reads command lines with readline and passes them to a Handler.
type Console struct {
	Started chan struct{}
	Options *ConsoleOptions

	input            *readline.CancelableStdin
	inputR           *io.PipeReader
	inputW           *io.PipeWriter
	readlineInstance *readline.Instance
	lock             sync.Mutex
	stopOnce         sync.Once
	waitClosed       chan struct{}
}

func NewConsole(options *ConsoleOptions) *Console {
	options = getConsoleOptions(options)
	inputR, inputW := io.Pipe()
	return &Console{
		Started:    make(chan struct{}),
		Options:    options,
		input:      readline.NewCancelableStdin(options.Stdin),
		inputR:     inputR,
		inputW:     inputW,
		waitClosed: make(chan struct{}),
	}
}

// RestorePrompt redraws the prompt after other output was written to stdout.
func (c *Console) RestorePrompt() {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.readlineInstance != nil {
		c.readlineInstance.Refresh()
	}
}

// OnStdout is called by the logger after it wrote to stdout.
func (c *Console) OnStdout() {
	c.RestorePrompt()
}

// Stop ends a running console and waits until Run returned. It can be called from any goroutine.
func (c *Console) Stop() {
	c.stopOnce.Do(func() {
		<-c.Started
		// readline.Instance.Close() can block while readline waits for input, so the console is
		// stopped through its input: ETX (Ctrl-C) makes the pending Readline() return.
		_, _ = c.inputW.Write([]byte{readline.CharInterrupt, '\n'})
		_ = c.inputW.Close()
		_ = c.input.Close()
		logger.Tracef("Waiting for console to stop ...")
		<-c.waitClosed
		logger.Tracef("Console wait-for-stop done.")
	})
}

// Done is closed once Run returned.
func (c *Console) Done() <-chan struct{} {
	return c.waitClosed
}

// pumpInput copies the console input into the pipe read by readline, so that Stop can inject
// an interrupt regardless of the kind of input.
func (c *Console) pumpInput() {
	_, err := io.Copy(c.inputW, c.input)
	if err != nil && !errors.Is(err, io.ErrClosedPipe) {
		logger.Debugf("console input: %v", err)
	}
	_ = c.inputW.Close()
}

func restoreTerminal(f interface{}) func() {
	file, ok := f.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return func() {}
	}
	state, err := term.GetState(int(file.Fd()))
	if err != nil {
		logger.Warnf("get terminal state: %v", err)
		return func() {}
	}
	return func() {
		_ = term.Restore(int(file.Fd()), state)
	}
}

func isTerminal(f interface{}) bool {
	file, ok := f.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// Run reads and handles command lines until the input ends, the operator interrupts, the handler
// returns ErrExit or Stop is called.
func (c *Console) Run(handler Handler) error {
	defer logger.Debugf("Console exit.")
	defer close(c.waitClosed)
	defer func() {
		_ = c.inputR.Close()
	}()

	options := c.Options
	defer restoreTerminal(options.Stdin)()
	defer restoreTerminal(options.Stdout)()

	interactive := isTerminal(options.Stdin) && isTerminal(options.Stdout)
	readlineConfig := &readline.Config{
		Prompt:          handler.GetPrompt(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold: true,
		FuncFilterInputRune: func(r rune) (rune, bool) {
			switch r {
			// block CtrlZ feature
			case readline.CharCtrlZ:
				return r, false
			}
			return r, true
		},
		FuncIsTerminal: func() bool {
			return interactive
		},
		Stdin:  c.inputR,
		Stdout: options.Stdout,
	}

	l, err := readline.NewEx(readlineConfig)
	if err != nil {
		close(c.Started)
		return err
	}
	defer func() {
		_ = l.Close()
	}()

	c.lock.Lock()
	c.readlineInstance = l
	c.lock.Unlock()
	defer func() {
		c.lock.Lock()
		c.readlineInstance = nil
		c.lock.Unlock()
	}()

	go c.pumpInput()
	close(c.Started)

	stdout := options.Stdout
	for {
		// update the prompt and read a line
		l.SetPrompt(handler.GetPrompt())
		line, err := l.Readline()

		if len(line) > 0 && line[0] == readline.CharInterrupt {
			return nil
		} else if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return nil
			} else {
				continue // Ctrl-C in midline edit only cancels the present cmd line.
			}
		} else if err == io.EOF { // typical way to close the console
			return nil
		} else if err != nil {
			return err
		}

		if options.EchoInput {
			if _, err := io.WriteString(stdout, line+"\n"); err != nil {
				return err
			}
		}

		cmd := strings.TrimSpace(line)
		if len(cmd) == 0 {
			continue
		}

		if err = handler.HandleCommand(cmd, l.Stdout()); err != nil {
			if errors.Is(err, ErrExit) {
				return nil
			}
			return err
		}
	}
}
