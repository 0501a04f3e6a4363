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

// Package cli holds the simulator command grammar and the interactive console.
package cli

import (
	"strconv"

	"github.com/alecthomas/participle"

	. "github.com/openthread/otns-client/types"
)

// noinspection GoStructTag
type Command struct {
	Add                 *AddCmd                 `  @@` //nolint
	AutoGo              *AutoGoCmd              `| @@` //nolint
	Coaps               *CoapsCmd               `| @@` //nolint
	ConfigVisualization *ConfigVisualizationCmd `| @@` //nolint
	CountDown           *CountDownCmd           `| @@` //nolint
	Counters            *CountersCmd            `| @@` //nolint
	Debug               *DebugCmd               `| @@` //nolint
	Del                 *DelCmd                 `| @@` //nolint
	Exit                *ExitCmd                `| @@` //nolint
	Go                  *GoCmd                  `| @@` //nolint
	Help                *HelpCmd                `| @@` //nolint
	Joins               *JoinsCmd               `| @@` //nolint
	Kpi                 *KpiCmd                 `| @@` //nolint
	Load                *LoadCmd                `| @@` //nolint
	LogLevel            *LogLevelCmd            `| @@` //nolint
	Move                *MoveCmd                `| @@` //nolint
	NetInfo             *NetInfoCmd             `| @@` //nolint
	Node                *NodeCmd                `| @@` //nolint
	Nodes               *NodesCmd               `| @@` //nolint
	Partitions          *PartitionsCmd          `| @@` //nolint
	Ping                *PingCmd                `| @@` //nolint
	Pings               *PingsCmd               `| @@` //nolint
	Plr                 *PlrCmd                 `| @@` //nolint
	Radio               *RadioCmd               `| @@` //nolint
	RadioModel          *RadioModelCmd          `| @@` //nolint
	Save                *SaveCmd                `| @@` //nolint
	Speed               *SpeedCmd               `| @@` //nolint
	Time                *TimeCmd                `| @@` //nolint
	Title               *TitleCmd               `| @@` //nolint
	Unwatch             *UnwatchCmd             `| @@` //nolint
	Watch               *WatchCmd               `| @@` //nolint
	Web                 *WebCmd                 `| @@` //nolint
}

// noinspection GoStructTag
type DebugCmd struct {
	Cmd       struct{} `"debug"`          //nolint
	Fail      *string  `[ @"fail"`        //nolint
	Echo      *string  `| "echo" @String` //nolint
	Interrupt *string  `| @"interrupt"`   //nolint
	Crash     *int     `| "crash" @Int ]` //nolint
}

// noinspection GoStructTag
type GoCmd struct {
	Cmd   struct{}  `"go"`                                     //nolint
	Time  string    `( @((Int|Float)["h"|"us"|"m"|"ms"|"s"]) ` //nolint
	Ever  *EverFlag `| @@ )`                                   //nolint
	Speed *float64  `[ "speed" (@Int|@Float) ]`                //nolint
}

// noinspection GoStructTag
type NodeSelector struct {
	Id int `@Int` //nolint
}

func (ns *NodeSelector) String() string {
	return strconv.Itoa(ns.Id)
}

// noinspection GoStructTag
type Ipv6Address struct {
	Addr string `@String` //nolint
}

// noinspection GoStructTag
type AddrTypeFlag struct {
	Type AddrType `@( "any" | "mleid" | "rloc" | "aloc" | "linklocal" )` //nolint
}

// PingOption is one of the ping settings, named by its long or short keyword.
// noinspection GoStructTag
type PingOption struct {
	Name string `@( "datasize" | "ds" | "count" | "c" | "interval" | "itv" | "hoplimit" | "hl" )` //nolint
	Val  int    `@Int`                                                                            //nolint
}

// Key returns the long keyword of the option.
func (o PingOption) Key() string {
	switch o.Name {
	case "ds":
		return "datasize"
	case "c":
		return "count"
	case "itv":
		return "interval"
	case "hl":
		return "hoplimit"
	}
	return o.Name
}

// noinspection GoStructTag
type PingCmd struct {
	Cmd      struct{}      `"ping"`   //nolint
	Src      NodeSelector  `@@`       //nolint
	Dst      *NodeSelector `( @@`     //nolint
	AddrType *AddrTypeFlag `  [ @@ ]` //nolint
	DstAddr  *Ipv6Address  `| @@)`    //nolint
	Options  []PingOption  `( @@ )*`  //nolint
}

// noinspection GoStructTag
type NetInfoCmd struct {
	Cmd     struct{}     `"netinfo" (`         //nolint
	Version *string      `  "version" @String` //nolint
	Commit  *string      `| "commit" @String`  //nolint
	Real    *YesOrNoFlag `| "real" @@ )+`      //nolint
}

// noinspection GoStructTag
type NodeCmd struct {
	Cmd     struct{}     `"node"`      //nolint
	Node    NodeSelector `@@`          //nolint
	Command *string      `[ @String ]` //nolint
}

// noinspection GoStructTag
type ConfigVisualizationCmd struct {
	Cmd     struct{}   `"cv"`     //nolint
	Toggles []CVToggle `( @@ )*` //nolint
}

// CVToggle turns one visualization of bro, uni, ack, rtb or ctb on or off.
// noinspection GoStructTag
type CVToggle struct {
	Name  string `@( "bro" | "uni" | "ack" | "rtb" | "ctb" )` //nolint
	State string `@( "on" | "off" )`                          //nolint
}

// noinspection GoStructTag
type CountDownCmd struct {
	Cmd     struct{} `"countdown"` //nolint
	Seconds int      `@Int`        //nolint
	Text    *string  `[ @String ]` //nolint
}

// noinspection GoStructTag
type SpeedCmd struct {
	Cmd   struct{}      `"speed"`               //nolint
	Max   *MaxSpeedFlag `( @@`                  //nolint
	Speed *float64      `| [ (@Int|@Float) ] )` //nolint
}

// noinspection GoStructTag
type TimeCmd struct {
	Cmd struct{} `"time"` //nolint
}

// noinspection GoStructTag
type TitleCmd struct {
	Cmd      struct{} `"title"`              //nolint
	Title    string   `@String`              //nolint
	X        *int     `( "x" (@Int|@Float) ` //nolint
	Y        *int     `| "y" (@Int|@Float) ` //nolint
	FontSize *int     `| "fs" @Int )*`       //nolint
}

// noinspection GoStructTag
type AddCmd struct {
	Cmd        struct{}        `"add"`                //nolint
	Type       NodeTypeOrRole  `@@`                   //nolint
	X          *int            `( "x" (@Int|@Float) ` //nolint
	Y          *int            `| "y" (@Int|@Float) ` //nolint
	Id         *AddNodeId      `| @@`                 //nolint
	RadioRange *RadioRangeFlag `| @@`                 //nolint
	Restore    *RestoreFlag    `| @@`                 //nolint
	Version    *ThreadVersion  `| @@`                 //nolint
	Executable *ExecutableFlag `| @@ )*`              //nolint
}

// noinspection GoStructTag
type NodeTypeOrRole struct {
	Val string `@("router"|"reed"|"fed"|"med"|"sed"|"ssed"|"br"|"mtd"|"ftd")` //nolint
}

// noinspection GoStructTag
type AddNodeId struct {
	Val int `"id" @Int` //nolint
}

// noinspection GoStructTag
type RadioRangeFlag struct {
	Val int `"rr" @Int` //nolint
}

// noinspection GoStructTag
type RestoreFlag struct {
	Dummy struct{} `"restore"` //nolint
}

// noinspection GoStructTag
type ThreadVersion struct {
	Val string `@("v11"|"v12"|"v13")` //nolint
}

// noinspection GoStructTag
type ExecutableFlag struct {
	Dummy struct{} `"exe"`   //nolint
	Path  string   `@String` //nolint
}

// noinspection GoStructTag
type MaxSpeedFlag struct {
	Dummy struct{} `( "max" | "inf")` //nolint
}

// noinspection GoStructTag
type AutoGoCmd struct {
	Cmd   struct{}     `"autogo"` //nolint
	Value *YesOrNoFlag `[ @@ ]`   //nolint
}

// noinspection GoStructTag
type CoapsCmd struct {
	Cmd    struct{}    `"coaps"` //nolint
	Enable *EnableFlag `@@ ?`    //nolint
}

// noinspection GoStructTag
type EnableFlag struct {
	Dummy struct{} `"enable"` //nolint
}

// noinspection GoStructTag
type KpiCmd struct {
	Cmd      struct{} `"kpi"`           //nolint
	Start    *string  `[ @"start"`      //nolint
	Stop     *string  `| @"stop"`       //nolint
	Save     *string  `| @"save"`       //nolint
	Filename *string  `  [ @String ] ]` //nolint
}

// noinspection GoStructTag
type SaveCmd struct {
	Cmd      struct{} `"save"`  //nolint
	Filename string   `@String` //nolint
}

// noinspection GoStructTag
type LoadCmd struct {
	Cmd      struct{} `"load"`  //nolint
	Filename string   `@String` //nolint
}

// noinspection GoStructTag
type DelCmd struct {
	Cmd   struct{}       `"del"`   //nolint
	Nodes []NodeSelector `( @@ )+` //nolint
}

// noinspection GoStructTag
type EverFlag struct {
	Dummy struct{} `"ever"` //nolint
}

// noinspection GoStructTag
type ExitCmd struct {
	Cmd struct{} `"exit"` //nolint
}

// noinspection GoStructTag
type WebCmd struct {
	Cmd struct{} `"web"` //nolint
}

// RadioCmd powers the radios of the selected nodes on or off, or sets their fail time.
// noinspection GoStructTag
type RadioCmd struct {
	Cmd      struct{}        `"radio"`            //nolint
	Nodes    []NodeSelector  `( @@ )+`            //nolint
	State    string          `( @( "on" | "off" )` //nolint
	FailTime *FailTimeParams `| @@ )`              //nolint
}

// noinspection GoStructTag
type YesFlag struct {
	Dummy struct{} `("y"|"yes"|"true"|"1")` //nolint
}

// noinspection GoStructTag
type NoFlag struct {
	Dummy struct{} `("n"|"no"|"false"|"0")` //nolint
}

// noinspection GoStructTag
type YesOrNoFlag struct {
	Yes *YesFlag `( @@`   //nolint
	No  *NoFlag  `| @@ )` //nolint
}

// noinspection GoStructTag
type MoveCmd struct {
	Cmd    struct{}     `"move"` //nolint
	Target NodeSelector `@@`     //nolint
	X      int          `@Int`   //nolint
	Y      int          `@Int`   //nolint
}

// noinspection GoStructTag
type NodesCmd struct {
	Cmd struct{} `"nodes"` //nolint
}

// noinspection GoStructTag
type PartitionsCmd struct {
	Cmd struct{} `( "partitions" | "pts")` //nolint
}

// noinspection GoStructTag
type PingsCmd struct {
	Cmd struct{} `"pings"` //nolint
}

// noinspection GoStructTag
type JoinsCmd struct {
	Cmd struct{} `"joins"` //nolint
}

// noinspection GoStructTag
type CountersCmd struct {
	Cmd struct{} `"counters"` //nolint
}

// noinspection GoStructTag
type PlrCmd struct {
	Cmd struct{} `"plr"`             //nolint
	Val *float64 `[ (@Int|@Float) ]` //nolint
}

// noinspection GoStructTag
type RadioModelCmd struct {
	Cmd   struct{} `"radiomodel"`    //nolint
	Model string   `[(@Ident|@Int)]` //nolint
}

// noinspection GoStructTag
type LogLevelCmd struct {
	Cmd   struct{} `"log"`                                                                                        //nolint
	Level string   `[@( "micro"|"trace"|"debug"|"info"|"note"|"warn"|"error"|"crit"|"off"|"D"|"I"|"N"|"W"|"C"|"E" )]` //nolint
}

// noinspection GoStructTag
type WatchCmd struct {
	Cmd     struct{}       `"watch"`                                                                                             //nolint
	Default string         `[ @("default"|"def")`                                                                               //nolint
	All     string         `| @"all"`                                                                                            //nolint
	Nodes   []NodeSelector `| ( @@ )+ ]`                                                                                         //nolint
	Level   string         `[@( "trace"|"debug"|"info"|"note"|"warn"|"error"|"crit"|"off"|"none"|"T"|"D"|"I"|"N"|"W"|"E"|"C" )]` //nolint
}

// noinspection GoStructTag
type UnwatchCmd struct {
	Cmd   struct{}       `"unwatch"`   //nolint
	All   *string        `[ @"all"`    //nolint
	Nodes []NodeSelector `| ( @@ )+ ]` //nolint
}

// noinspection GoStructTag
type HelpCmd struct {
	Cmd       struct{} `"help"`       //nolint
	HelpTopic string   `[ (@Ident) ]` //nolint
}

// noinspection GoStructTag
type FailTimeParams struct {
	Dummy        struct{} `"ft"`          //nolint
	FailDuration float64  `(@Int|@Float)` //nolint
	FailInterval float64  `(@Int|@Float)` //nolint
}

var (
	commandParser = participle.MustBuild(&Command{})
)

func ParseBytes(b []byte, cmd *Command) error {
	err := commandParser.ParseBytes(b, cmd)
	return err
}

// Parse parses one command line.
func Parse(line string) (*Command, error) {
	cmd := &Command{}
	if err := ParseBytes([]byte(line), cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}
