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

package fakesim

import (
	"context"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/simonlingoogle/go-simplelogger"
	"gopkg.in/yaml.v3"

	"github.com/openthread/otns-client/cli"
	"github.com/openthread/otns-client/logger"
	"github.com/openthread/otns-client/progctx"
	"github.com/openthread/otns-client/radiomodel"
	. "github.com/openthread/otns-client/types"
)

type CommandContext struct {
	context.Context
	*cli.Command
	rt     *CmdRunner
	err    error
	output io.Writer
}

func (cc *CommandContext) outputStr(msg string) {
	_, _ = fmt.Fprint(cc.output, msg)
}

func (cc *CommandContext) outputf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cc.output, format, args...)
}

func (cc *CommandContext) errorf(format string, args ...interface{}) {
	cc.error(errors.Errorf(format, args...))
}

func (cc *CommandContext) error(err error) {
	if err != nil {
		if cc.err != nil { // if previous error, print it now and keep the last.
			cc.outputf("Error: %s\n", cc.err)
		}
		cc.err = err
	}
}

// Err returns the last error that occurred during command execution.
func (cc *CommandContext) Err() error {
	return cc.err
}

func (cc *CommandContext) outputItemsAsYaml(items interface{}) {
	var itemsYaml yaml.Node

	err := itemsYaml.Encode(items)
	simplelogger.PanicIfError(err)

	for _, content := range itemsYaml.Content {
		content.Style = yaml.FlowStyle
	}

	data, err := yaml.Marshal(&itemsYaml)
	simplelogger.PanicIfError(err)

	_, err = cc.output.Write(data)
	simplelogger.PanicIfError(err)
}

// CmdRunner executes the commands of the simulator protocol against a Simulation.
type CmdRunner struct {
	sim  *Simulation
	ctx  *progctx.ProgCtx
	help *cli.Help
	// exit terminates the process for `debug crash`.
	exit func(code int)
}

func NewCmdRunner(ctx *progctx.ProgCtx, sim *Simulation) *CmdRunner {
	return &CmdRunner{
		ctx:  ctx,
		sim:  sim,
		help: cli.NewHelp(),
		exit: os.Exit,
	}
}

// RunCommand executes one command line and writes its output, ending with `Done` or
// `Error: <msg>`. It returns the context error once the runner is done.
func (rt *CmdRunner) RunCommand(cmdline string, output io.Writer) error {
	if rt.ctx.Err() == nil {
		cmd, err := cli.Parse(cmdline)
		if err != nil {
			if _, err := fmt.Fprintf(output, "Error: %v\n", err); err != nil {
				return err
			}
		} else {
			rt.execute(cmd, output)
		}
	}
	return rt.ctx.Err()
}

func (rt *CmdRunner) execute(cmd *cli.Command, output io.Writer) {
	cc := &CommandContext{
		Context: rt.ctx,
		Command: cmd,
		rt:      rt,
		output:  output,
	}

	defer func() {
		if cc.Err() != nil {
			cc.outputf("Error: %v\n", cc.Err())
		} else {
			cc.outputf("Done\n")
		}
	}()

	defer func() {
		rerr := recover()

		if rerr != nil {
			if err, ok := rerr.(error); ok {
				cc.err = errors.Wrapf(err, "panic: %v", err)
			} else {
				cc.err = errors.Errorf("panic: %v", rerr)
			}
		}
	}()

	if cmd.Go == nil {
		rt.sim.catchUp()
	}

	if cmd.Move != nil {
		rt.executeMoveNode(cc, cc.Move)
	} else if cmd.Radio != nil {
		rt.executeRadio(cc, cc.Radio)
	} else if cmd.Go != nil {
		rt.executeGo(cc, cmd.Go)
	} else if cmd.Nodes != nil {
		rt.executeLsNodes(cc, cc.Nodes)
	} else if cmd.Partitions != nil {
		rt.executeLsPartitions(cc)
	} else if cmd.Add != nil {
		rt.executeAddNode(cc, cmd.Add)
	} else if cmd.Del != nil {
		rt.executeDelNode(cc, cmd.Del)
	} else if cmd.Ping != nil {
		rt.executePing(cc, cmd.Ping)
	} else if cmd.Node != nil {
		rt.executeNode(cc, cmd.Node)
	} else if cmd.CountDown != nil {
		rt.executeCountDown(cc, cmd.CountDown)
	} else if cmd.Speed != nil {
		rt.executeSpeed(cc, cmd.Speed)
	} else if cmd.AutoGo != nil {
		rt.executeAutoGo(cc, cmd.AutoGo)
	} else if cmd.Plr != nil {
		rt.executePlr(cc, cc.Plr)
	} else if cmd.Pings != nil {
		rt.executeCollectPings(cc, cc.Pings)
	} else if cmd.Counters != nil {
		rt.executeCounters(cc, cc.Counters)
	} else if cmd.Joins != nil {
		rt.executeCollectJoins(cc, cc.Joins)
	} else if cmd.Coaps != nil {
		rt.executeCoaps(cc, cc.Coaps)
	} else if cmd.ConfigVisualization != nil {
		rt.executeConfigVisualization(cc, cc.ConfigVisualization)
	} else if cmd.Debug != nil {
		rt.executeDebug(cc, cmd.Debug)
	} else if cmd.Title != nil {
		rt.executeTitle(cc, cmd.Title)
	} else if cmd.Exit != nil {
		rt.executeExit(cc, cmd.Exit)
	} else if cmd.Web != nil {
		rt.executeWeb(cc, cc.Web)
	} else if cmd.NetInfo != nil {
		rt.executeNetInfo(cc, cc.NetInfo)
	} else if cmd.RadioModel != nil {
		rt.executeRadioModel(cc, cc.RadioModel)
	} else if cmd.LogLevel != nil {
		rt.executeLogLevel(cc, cc.LogLevel)
	} else if cmd.Watch != nil {
		rt.executeWatch(cc, cmd.Watch)
	} else if cmd.Unwatch != nil {
		rt.executeUnwatch(cc, cmd.Unwatch)
	} else if cmd.Time != nil {
		rt.executeTime(cc, cmd.Time)
	} else if cmd.Help != nil {
		rt.executeHelp(cc, cmd.Help)
	} else if cmd.Kpi != nil {
		rt.executeKpi(cc, cmd.Kpi)
	} else if cmd.Save != nil {
		cc.error(rt.sim.SaveTopology(cmd.Save.Filename))
	} else if cmd.Load != nil {
		cc.error(rt.sim.LoadTopology(cmd.Load.Filename))
	} else {
		simplelogger.Panicf("unimplemented command: %#v", cmd)
	}
}

func (rt *CmdRunner) executeGo(cc *CommandContext, cmd *cli.GoCmd) {
	// determine duration and desired speed of the Go simulation period.
	timeDurToGo, err := time.ParseDuration(cmd.Time)
	if cmd.Ever == nil && err != nil {
		timeDurToGo, err = time.ParseDuration(cmd.Time + "s") // try parsing as seconds
		if err != nil {
			cc.errorf("could not parse time duration: %s", cmd.Time)
			return
		}
	}
	speed := rt.sim.Speed()
	if cmd.Speed != nil {
		speed = *cmd.Speed
	} else if rt.sim.AutoGo() {
		// with auto-go on, 'go' jumps time.
		speed = MaxSimulateSpeed
	}
	if speed == 0 { // when paused, 'go' jumps time.
		speed = MaxSimulateSpeed
	}

	if cmd.Ever == nil {
		cc.error(rt.sim.Go(rt.ctx, timeDurToGo, speed))
		return
	}
	if cmd.Speed != nil {
		rt.sim.SetSpeed(speed) // permanent speed update
	}
	for cc.err == nil { // run until interrupted
		cc.error(rt.sim.Go(rt.ctx, time.Hour, speed))
	}
}

func (rt *CmdRunner) executeSpeed(cc *CommandContext, cmd *cli.SpeedCmd) {
	if cmd.Speed == nil && cmd.Max == nil {
		cc.outputf("%v\n", rt.sim.Speed())
	} else if cmd.Max != nil {
		rt.sim.SetSpeed(MaxSimulateSpeed)
	} else {
		rt.sim.SetSpeed(*cmd.Speed)
	}
}

func (rt *CmdRunner) executeAutoGo(cc *CommandContext, cmd *cli.AutoGoCmd) {
	if cmd.Value == nil {
		if rt.sim.AutoGo() {
			cc.outputf("1\n")
		} else {
			cc.outputf("0\n")
		}
		return
	}
	rt.sim.SetAutoGo(cmd.Value.Yes != nil)
}

func (rt *CmdRunner) executeAddNode(cc *CommandContext, cmd *cli.AddCmd) {
	simplelogger.Debugf("Add: %#v", *cmd)
	cfg := DefaultNodeConfig()

	if cmd.X != nil {
		cfg.X = *cmd.X
		cfg.IsAutoPlaced = false
	}
	if cmd.Y != nil {
		cfg.Y = *cmd.Y
		cfg.IsAutoPlaced = false
	}
	cfg.Type = cmd.Type.Val
	if cmd.Id != nil {
		cfg.ID = cmd.Id.Val
	}
	if cmd.RadioRange != nil {
		cfg.RadioRange = cmd.RadioRange.Val
	}
	if cmd.Version != nil {
		cfg.Version = cmd.Version.Val
	}
	if cmd.Executable != nil {
		cfg.ExecutablePath = cmd.Executable.Path
	}
	cfg.Restore = cmd.Restore != nil

	n, err := rt.sim.AddNode(&cfg)
	if err != nil {
		cc.error(err)
		return
	}
	cc.outputf("%d\n", n.id)
}

func (rt *CmdRunner) executeDelNode(cc *CommandContext, cmd *cli.DelCmd) {
	for _, sel := range cmd.Nodes {
		if rt.getNode(sel) == nil {
			cc.outputf("Warn: node %d not found, skipping\n", sel.Id)
			continue
		}
		if err := rt.sim.DeleteNode(sel.Id); err != nil {
			cc.errorf("node %d, %+v", sel.Id, err)
		}
	}
}

func (rt *CmdRunner) executeExit(cc *CommandContext, cmd *cli.ExitCmd) {
	rt.sim.Stop()
	rt.ctx.Cancel("exit")
}

func (rt *CmdRunner) executePing(cc *CommandContext, cmd *cli.PingCmd) {
	simplelogger.Debugf("ping %#v", cmd)
	src := rt.getNode(cmd.Src)
	if src == nil {
		cc.errorf("src node not found")
		return
	}

	var dstaddr string
	if cmd.Dst != nil {
		dst := rt.getNode(*cmd.Dst)
		if dst == nil {
			cc.errorf("dst node not found")
			return
		}
		var addrType AddrType
		if cmd.AddrType != nil {
			addrType = cmd.AddrType.Type
		}
		dstaddrs := dst.addrsOfType(addrType)
		if len(dstaddrs) <= 0 {
			cc.errorf("dst addr not found")
			return
		}
		dstaddr = dstaddrs[0]
	} else {
		dstaddr = cmd.DstAddr.Addr
	}

	datasize := 4 // smaller pings are left out of the statistics
	count := 1
	interval := 10
	hopLimit := 64

	for _, opt := range cmd.Options {
		switch opt.Key() {
		case "datasize":
			datasize = opt.Val
			if datasize < 4 {
				simplelogger.Warnf("Ping with datasize < 4 is ignored by the statistics.")
			}
		case "count":
			count = opt.Val
		case "interval":
			interval = opt.Val
		case "hoplimit":
			hopLimit = opt.Val
		}
	}

	rt.sim.Ping(src, dstaddr, datasize, count, interval, hopLimit)
}

func (rt *CmdRunner) getNode(sel cli.NodeSelector) *node {
	if sel.Id > 0 {
		return rt.sim.nodes[sel.Id]
	}
	return nil
}

func (rt *CmdRunner) executeDebug(cc *CommandContext, cmd *cli.DebugCmd) {
	simplelogger.Infof("debug %#v", *cmd)

	if cmd.Echo != nil {
		cc.outputf("%s\n", *cmd.Echo)
	}
	if cmd.Fail != nil {
		cc.errorf("debug failed")
	}
	if cmd.Interrupt != nil {
		cc.error(CommandInterruptedError)
	}
	if cmd.Crash != nil {
		rt.exit(*cmd.Crash)
	}
}

func (rt *CmdRunner) executeNode(cc *CommandContext, cmd *cli.NodeCmd) {
	n := rt.getNode(cmd.Node)
	if n == nil {
		cc.errorf("node %d not found", cmd.Node.Id)
		return
	}
	if cmd.Command == nil {
		return
	}

	output, err := n.command(*cmd.Command)
	for _, line := range output {
		cc.outputf("%s\n", line)
	}
	cc.error(err)
}

func (rt *CmdRunner) executeCountDown(cc *CommandContext, cmd *cli.CountDownCmd) {
	title := "%v"
	if cmd.Text != nil {
		title = *cmd.Text
	}
	simplelogger.Infof("countdown %ds: %s", cmd.Seconds, title)
}

func (rt *CmdRunner) executeRadio(cc *CommandContext, radio *cli.RadioCmd) {
	for _, sel := range radio.Nodes {
		if rt.getNode(sel) == nil {
			cc.errorf("node %d not found", sel.Id)
			continue
		}

		if radio.State != "" {
			cc.error(rt.sim.SetNodeFailed(sel.Id, radio.State == "off"))
		} else if radio.FailTime != nil {
			if radio.FailTime.FailDuration > 0 && radio.FailTime.FailInterval > radio.FailTime.FailDuration {
				cc.error(rt.sim.SetNodeFailTime(sel.Id, FailTime{
					FailDuration: uint64(radio.FailTime.FailDuration * 1000000),
					FailInterval: uint64(radio.FailTime.FailInterval * 1000000),
				}))
			} else if radio.FailTime.FailDuration > 0 {
				cc.errorf("ft parameter: fail-duration must be < fail-interval")
			} else {
				cc.error(rt.sim.SetNodeFailTime(sel.Id, NonFailTime))
			}
		}
	}
}

func (rt *CmdRunner) executeMoveNode(cc *CommandContext, cmd *cli.MoveCmd) {
	cc.error(rt.sim.MoveNodeTo(cmd.Target.Id, cmd.X, cmd.Y))
}

func (rt *CmdRunner) executeLsNodes(cc *CommandContext, cmd *cli.NodesCmd) {
	for _, nodeid := range rt.sim.GetNodes() {
		n := rt.sim.nodes[nodeid]
		var line strings.Builder
		line.WriteString(fmt.Sprintf("id=%d\textaddr=%016x\trloc16=%04x\tx=%d\ty=%d\tstate=%s\tfailed=%v", nodeid, n.extAddr, n.rloc16,
			int(n.radio.X), int(n.radio.Y), n.role, n.radio.Failed))
		line.WriteString(fmt.Sprintf("\texe=%s", n.exe))
		cc.outputf("%s\n", line.String())
	}
}

func (rt *CmdRunner) executeLsPartitions(cc *CommandContext) {
	pars := rt.sim.Partitions()
	parids := make([]uint32, 0, len(pars))
	for parid := range pars {
		parids = append(parids, parid)
	}
	sort.Slice(parids, func(i, j int) bool { return parids[i] < parids[j] })

	for _, parid := range parids {
		cc.outputf("partition=%08x\tnodes=", parid)
		for i, nodeid := range pars[parid] {
			if i > 0 {
				cc.outputf(",")
			}
			cc.outputf("%d", nodeid)
		}
		cc.outputf("\n")
	}
}

func (rt *CmdRunner) executeCollectPings(cc *CommandContext, pings *cli.PingsCmd) {
	for _, nodeid := range rt.sim.GetNodes() {
		for _, ping := range rt.sim.nodes[nodeid].collectPings() {
			cc.outputf("node=%-4d dst=%-40s datasize=%-3d delay=%.3fms\n", nodeid, ping.Dst, ping.DataSize, float64(ping.Delay)/1000)
		}
	}
}

func (rt *CmdRunner) executeCollectJoins(cc *CommandContext, joins *cli.JoinsCmd) {
	for _, nodeid := range rt.sim.GetNodes() {
		for _, join := range rt.sim.nodes[nodeid].collectJoins() {
			cc.outputf("node=%-4d join=%.3fs session=%.3fs\n", nodeid, float64(join.JoinDuration)/1000000, float64(join.SessionDuration)/1000000)
		}
	}
}

func (rt *CmdRunner) executeCounters(cc *CommandContext, counters *cli.CountersCmd) {
	countersVal := reflect.ValueOf(rt.sim.counters)
	countersTyp := reflect.TypeOf(rt.sim.counters)
	for i := 0; i < countersVal.NumField(); i++ {
		fname := countersTyp.Field(i).Name
		fval := countersVal.Field(i)
		cc.outputf("%-40s %v\n", fname, fval.Uint())
	}
}

func (rt *CmdRunner) executeWeb(cc *CommandContext, webcmd *cli.WebCmd) {
	simplelogger.Infof("web visualization is not served by this simulator")
}

func (rt *CmdRunner) executeRadioModel(cc *CommandContext, cmd *cli.RadioModelCmd) {
	if len(cmd.Model) == 0 {
		cc.outputf("%v\n", rt.sim.RadioModel().GetName())
		return
	}
	model := radiomodel.Create(cmd.Model)
	if model == nil {
		cc.errorf("radiomodel '%v' is not defined", cmd.Model)
		return
	}
	rt.sim.SetRadioModel(model)
	cc.outputf("%v\n", model.GetName())
}

func (rt *CmdRunner) executeLogLevel(cc *CommandContext, cmd *cli.LogLevelCmd) {
	if cmd.Level == "" {
		cc.outputf("%v\n", logger.GetLevelString(rt.sim.LogLevel()))
		return
	}
	level, err := logger.ParseLevelString(cmd.Level)
	if err != nil {
		cc.error(err)
		return
	}
	rt.sim.SetLogLevel(level)
}

func (rt *CmdRunner) executeWatch(cc *CommandContext, cmd *cli.WatchCmd) {
	sim := rt.sim
	nodesToWatch := cmd.Nodes

	if len(cmd.Nodes) == 0 && len(cmd.All) == 0 && len(cmd.Default) == 0 && len(cmd.Level) == 0 {
		// variant: 'watch'
		watchedList := strings.Trim(fmt.Sprintf("%v", sim.watchingNodes()), "[]")
		cc.outputf("%v\n", watchedList)
		return
	} else if len(cmd.Nodes) == 0 && len(cmd.All) == 0 && len(cmd.Default) > 0 && len(cmd.Level) > 0 {
		// variant: 'watch default <level>'
		sim.cfg.DefaultWatchOn = cmd.Level != logger.OffLevelString && cmd.Level != logger.NoneLevelString
		sim.cfg.DefaultWatchLevel = cmd.Level
		return
	} else if len(cmd.Nodes) == 0 && len(cmd.All) == 0 && len(cmd.Default) > 0 && len(cmd.Level) == 0 {
		// variant: 'watch default'
		watchLevelDefault := logger.DefaultLevelString
		if sim.cfg.DefaultWatchOn {
			watchLevelDefault = sim.cfg.DefaultWatchLevel
		}
		cc.outputf("%s\n", watchLevelDefault)
		return
	} else if len(cmd.Nodes) == 0 && len(cmd.All) > 0 && len(cmd.Default) == 0 {
		// variant: 'watch all [<level>]'
		for _, nodeid := range sim.GetNodes() {
			nodesToWatch = append(nodesToWatch, cli.NodeSelector{Id: nodeid})
		}
	} else if len(cmd.Nodes) > 0 && len(cmd.All) == 0 && len(cmd.Default) == 0 {
		// variant: 'watch <nodeid> [<nodeid> ...] [<level>]'
	} else if len(cmd.Nodes) == 0 && len(cmd.All) == 0 && len(cmd.Default) == 0 && len(cmd.Level) > 0 {
		// variant: 'watch <level>' watches nothing new
	} else {
		cc.errorf("watch: unsupported combination of command options")
		return
	}

	for _, sel := range nodesToWatch {
		if rt.getNode(sel) == nil {
			cc.errorf("node %d not found", sel.Id)
			continue
		}
		sim.watchNode(sel.Id, cmd.Level)
	}
}

func (rt *CmdRunner) executeUnwatch(cc *CommandContext, cmd *cli.UnwatchCmd) {
	// if no node-number(s) given, unwatch all.
	if len(cmd.Nodes) == 0 {
		for _, n := range rt.sim.watchingNodes() {
			rt.sim.unwatchNode(n)
		}
		return
	}
	for _, sel := range cmd.Nodes {
		if rt.getNode(sel) == nil {
			cc.outputf("Warn: node %d not found, skipping\n", sel.Id)
			continue
		}
		rt.sim.unwatchNode(sel.Id)
	}
}

func (rt *CmdRunner) executePlr(cc *CommandContext, cmd *cli.PlrCmd) {
	if cmd.Val == nil {
		cc.outputf("%v\n", rt.sim.PacketLossRatio())
		return
	}
	rt.sim.SetPacketLossRatio(*cmd.Val)
	cc.outputf("%v\n", rt.sim.PacketLossRatio())
}

func (rt *CmdRunner) executeConfigVisualization(cc *CommandContext, cmd *cli.ConfigVisualizationCmd) {
	opts := rt.sim.visOptions

	for _, toggle := range cmd.Toggles {
		on := toggle.State == "on"
		switch toggle.Name {
		case "bro":
			opts.BroadcastMessage = on
		case "uni":
			opts.UnicastMessage = on
		case "ack":
			opts.AckMessage = on
		case "rtb":
			opts.RouterTable = on
		case "ctb":
			opts.ChildTable = on
		}
	}
	rt.sim.visOptions = opts

	onOff := func(on bool) string {
		if on {
			return "on"
		}
		return "off"
	}
	cc.outputf("bro=%s\n", onOff(opts.BroadcastMessage))
	cc.outputf("uni=%s\n", onOff(opts.UnicastMessage))
	cc.outputf("ack=%s\n", onOff(opts.AckMessage))
	cc.outputf("rtb=%s\n", onOff(opts.RouterTable))
	cc.outputf("ctb=%s\n", onOff(opts.ChildTable))
}

func (rt *CmdRunner) executeTitle(cc *CommandContext, cmd *cli.TitleCmd) {
	titleInfo := DefaultTitleInfo()

	titleInfo.Title = cmd.Title
	if cmd.X != nil {
		titleInfo.X = *cmd.X
	}
	if cmd.Y != nil {
		titleInfo.Y = *cmd.Y
	}
	if cmd.FontSize != nil {
		titleInfo.FontSize = *cmd.FontSize
	}
	rt.sim.title = titleInfo
}

func (rt *CmdRunner) executeTime(cc *CommandContext, cmd *cli.TimeCmd) {
	cc.outputf("%d\n", rt.sim.CurTime())
}

func (rt *CmdRunner) executeNetInfo(cc *CommandContext, cmd *cli.NetInfoCmd) {
	netinfo := rt.sim.netInfo
	if cmd.Version != nil {
		netinfo.Version = *cmd.Version
	}
	if cmd.Commit != nil {
		netinfo.Commit = *cmd.Commit
	}
	if cmd.Real != nil {
		netinfo.Real = cmd.Real.Yes != nil
	}
	rt.sim.netInfo = netinfo
}

func (rt *CmdRunner) executeCoaps(cc *CommandContext, cmd *cli.CoapsCmd) {
	if cmd.Enable != nil {
		rt.sim.coaps.Enable()
		return
	}
	cc.outputItemsAsYaml(rt.sim.coaps.DumpMessages(true))
}

func (rt *CmdRunner) executeKpi(cc *CommandContext, cmd *cli.KpiCmd) {
	km := rt.sim.kpi
	switch {
	case cmd.Start != nil:
		cc.error(km.Start())
	case cmd.Stop != nil:
		km.Stop()
	case cmd.Save != nil:
		if cmd.Filename != nil {
			cc.error(km.SaveFile(*cmd.Filename))
		} else {
			cc.error(km.SaveDefaultFile())
		}
	default:
		if km.IsRunning() {
			cc.outputf("on\n")
		} else {
			cc.outputf("off\n")
		}
	}
}

func (rt *CmdRunner) executeHelp(cc *CommandContext, cmd *cli.HelpCmd) {
	if len(cmd.HelpTopic) > 0 {
		cc.outputStr(rt.help.CommandHelp(cmd.HelpTopic))
	} else {
		cc.outputStr(rt.help.GeneralHelp())
	}
}
