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
	"strings"

	"github.com/pkg/errors"
)

const (
	doneLine              = "Done"
	errorPrefix           = "Error: "
	commandInterruptedMsg = "command interrupted"
)

// CliError is returned when the simulator rejected a command. The Session remains usable.
type CliError struct {
	Msg string
}

func (e *CliError) Error() string {
	return e.Msg
}

// ExitedError is returned once the simulator process has exited. It is returned by every
// later call on the same Session.
type ExitedError struct {
	ExitCode int
}

func (e *ExitedError) Error() string {
	return fmt.Sprintf("exited: %d", e.ExitCode)
}

// CommandInterruptedError is returned when a command could not complete because the simulator
// was shutting down. It unwraps to an ExitedError with exit code 0.
type CommandInterruptedError struct{}

func (e *CommandInterruptedError) Error() string {
	return commandInterruptedMsg
}

func (e *CommandInterruptedError) Unwrap() error {
	return &ExitedError{ExitCode: 0}
}

// LaunchError is returned by New when the simulator executable can not be found or started.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("launch otns: %v", e.Err)
	}
	return fmt.Sprintf("launch otns %s: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// ProtocolError reports a response that does not have the shape a decoder expects. It means the
// client and the simulator disagree about the wire format and is never a CliError.
type ProtocolError struct {
	Cmd   string
	Msg   string
	Lines []string
}

func (e *ProtocolError) Error() string {
	if e.Cmd == "" {
		return fmt.Sprintf("protocol error: %s: %q", e.Msg, e.Lines)
	}
	return fmt.Sprintf("protocol error: %s: %s: %q", e.Cmd, e.Msg, e.Lines)
}

// ErrInvalidCommand is returned for command strings that can not be sent as a single line.
var ErrInvalidCommand = errors.New("invalid command")

// newCliError builds the error for an `Error: ` terminated response line.
func newCliError(line string) error {
	if strings.HasPrefix(line, errorPrefix+commandInterruptedMsg) {
		return &CommandInterruptedError{}
	}
	if strings.HasPrefix(line, errorPrefix) {
		return &CliError{Msg: line[len(errorPrefix):]}
	}
	return &CliError{Msg: line}
}

// IsExited returns the exit code if err is, or wraps, an ExitedError.
func IsExited(err error) (int, bool) {
	var exited *ExitedError
	if errors.As(err, &exited) {
		return exited.ExitCode, true
	}
	return 0, false
}

// IsCliError returns true if err is, or wraps, a CliError.
func IsCliError(err error) bool {
	var cliErr *CliError
	return errors.As(err, &cliErr)
}

func protocolErrorf(lines []string, format string, args ...interface{}) *ProtocolError {
	return &ProtocolError{Msg: fmt.Sprintf(format, args...), Lines: lines}
}
