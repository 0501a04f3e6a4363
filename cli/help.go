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
	"bufio"
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/mitchellh/go-wordwrap"
	"golang.org/x/term"
)

//go:embed README.md
var cliHelpFile string

var (
	cmdHeaderPattern  = regexp.MustCompile(`^###\s+(\S.*)$`)
	linkTargetPattern = regexp.MustCompile(`\(#[a-z]+\)`)
)

// fenceLabels maps a code fence opener in README.md to the label shown in the help text.
var fenceLabels = map[string]string{
	"```shell": "Definition:",
	"```bash":  "Example:",
}

const (
	minHelpWidth  = 10
	helpIndent    = "  "
	unknownCmdMsg = "(Non-existent command.)"
)

// helpSection is the documentation of a single command.
type helpSection struct {
	summary string
	body    strings.Builder
}

// Help renders the command reference embedded from README.md.
type Help struct {
	width    uint
	sections map[string]*helpSection
}

func NewHelp() *Help {
	h := &Help{
		width:    80,
		sections: parseHelpSections(cliHelpFile),
	}
	h.updateWidth()
	return h
}

func (help *Help) updateWidth() {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return
	}
	if width, _, err := term.GetSize(fd); err == nil && width > minHelpWidth {
		help.width = uint(width)
	}
}

// Commands returns the documented commands in sorted order.
func (help *Help) Commands() []string {
	cmds := make([]string, 0, len(help.sections))
	for name := range help.sections {
		cmds = append(cmds, name)
	}
	sort.Strings(cmds)
	return cmds
}

// GeneralHelp lists every command with the first sentence of its description.
func (help *Help) GeneralHelp() string {
	var sb strings.Builder
	for _, name := range help.Commands() {
		fmt.Fprintf(&sb, "%-15s %s\n", name, help.sections[name].summary)
	}
	sb.WriteString(wordwrap.WrapString("\nFor detailed help per command, use: 'help <command>'\n", help.width))
	return sb.String()
}

func (help *Help) CommandHelp(command string) string {
	help.updateWidth()
	text := unknownCmdMsg
	if sec, ok := help.sections[command]; ok {
		text = command + "\n" + sec.body.String()
	}

	var sb strings.Builder
	for i, line := range strings.Split(wordwrap.WrapString(text, help.width-minHelpWidth-1), "\n") {
		if i > 0 || line == unknownCmdMsg {
			sb.WriteString(helpIndent)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

// parseHelpSections splits the markdown command reference into one section per "###" header.
func parseHelpSections(md string) map[string]*helpSection {
	sections := make(map[string]*helpSection)
	var cur *helpSection
	indent := ""

	scanner := bufio.NewScanner(strings.NewReader(md))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if m := cmdHeaderPattern.FindStringSubmatch(line); m != nil {
			cur = &helpSection{}
			sections[strings.TrimSpace(m[1])] = cur
			indent = ""
			continue
		}
		if cur == nil {
			continue
		}

		if label, ok := fenceLabels[line]; ok {
			line = "\n" + label
			indent = helpIndent
		} else if strings.HasPrefix(line, "```") {
			line = ""
			indent = ""
		} else if cur.summary == "" {
			cur.summary = firstSentence(markdownUnquote(line))
		}
		cur.body.WriteString(indent + markdownUnquote(line) + "\n")
	}
	return sections
}

func firstSentence(line string) string {
	if idx := strings.Index(line, "."); idx > 0 {
		return line[:idx+1]
	}
	return line
}

func markdownUnquote(md string) string {
	md = strings.ReplaceAll(md, "\\", "")
	return linkTargetPattern.ReplaceAllString(md, "")
}
