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
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/simonlingoogle/go-simplelogger"

	"github.com/openthread/otns-client/logger"
	"github.com/openthread/otns-client/pcap"
	"github.com/openthread/otns-client/progctx"
	. "github.com/openthread/otns-client/types"
)

// HelperEnv is the environment variable that makes MainIfHelper run the simulator. Tests use it
// to re-execute their own binary as a simulator process.
const HelperEnv = "OTNS_FAKESIM_HELPER"

const defaultListenPort = 9000

type MainArgs struct {
	Speed       string
	OtCliPath   string
	AutoGo      bool
	ReadOnly    bool
	LogLevel    string
	LogFile     string
	WatchLevel  string
	OpenWeb     bool
	RawMode     bool
	Real        bool
	ListenAddr  string
	DumpPackets bool
	NoPcap      bool
	NoReplay    bool
	PcapType    string
	Seed        int64
	OutputDir   string
}

func parseArgs(argv []string) (*MainArgs, error) {
	args := &MainArgs{}
	fs := flag.NewFlagSet("otns", flag.ContinueOnError)

	fs.StringVar(&args.Speed, "speed", "1", "set simulating speed")
	fs.StringVar(&args.OtCliPath, "ot-cli", DefaultExecutableConfig.Ftd, "specify the OT CLI executable of new FTD nodes.")
	fs.BoolVar(&args.AutoGo, "autogo", true, "auto go (runs the simulation at given speed, without issuing 'go' commands.)")
	fs.BoolVar(&args.ReadOnly, "readonly", false, "readonly simulation can not be manipulated")
	fs.StringVar(&args.LogLevel, "log", "warn", "set logging level: "+logger.LevelNames())
	fs.StringVar(&args.LogFile, "logfile", "", "also write the log to this file")
	fs.StringVar(&args.WatchLevel, "watch", "off", "set default watch level for all new nodes: off, trace, debug, info, note, warn, error.")
	fs.BoolVar(&args.OpenWeb, "web", true, "open web visualization")
	fs.BoolVar(&args.RawMode, "raw", false, "use raw mode (skips OT node init by script)")
	fs.BoolVar(&args.Real, "real", false, "use real mode (for real devices)")
	fs.StringVar(&args.ListenAddr, "listen", fmt.Sprintf("localhost:%d", defaultListenPort), "specify UDP listen address and port")
	fs.BoolVar(&args.DumpPackets, "dump-packets", false, "dump packets")
	fs.BoolVar(&args.NoPcap, "no-pcap", false, "do not generate PCAP file (named \"current.pcap\")")
	fs.BoolVar(&args.NoReplay, "no-replay", false, "do not generate Replay file")
	fs.StringVar(&args.PcapType, "pcap", pcap.FrameTypeWpanTapStr, "PCAP file type: 'wpan' or 'wpan-tap' (default, includes channel)")
	fs.Int64Var(&args.Seed, "seed", 0, "set the random seed; 0 picks one")
	fs.StringVar(&args.OutputDir, "output", ".", "directory for the PCAP and KPI files")

	if err := fs.Parse(argv); err != nil {
		return nil, err
	}
	return args, nil
}

func parseSpeed(s string) (float64, error) {
	s = strings.ToLower(s)
	if s == "max" {
		return MaxSimulateSpeed, nil
	}
	speed, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid speed %s", s)
	}
	return speed, nil
}

func createSimulation(args *MainArgs) (*Simulation, error) {
	speed, err := parseSpeed(args.Speed)
	if err != nil {
		return nil, err
	}

	simcfg := DefaultConfig()
	simcfg.Speed = speed
	simcfg.AutoGo = args.AutoGo
	simcfg.ReadOnly = args.ReadOnly
	simcfg.Real = args.Real
	simcfg.DumpPackets = args.DumpPackets
	simcfg.RandomSeed = args.Seed
	simcfg.OutputDir = args.OutputDir
	simcfg.DefaultWatchOn = args.WatchLevel != logger.OffLevelString && args.WatchLevel != logger.NoneLevelString
	simcfg.DefaultWatchLevel = args.WatchLevel
	simcfg.PcapFrameType = pcap.ParseFrameTypeStr(args.PcapType)
	if args.NoPcap {
		simcfg.PcapFrameType = pcap.FrameTypeOff
	}

	sim, err := NewSimulation(simcfg)
	if err != nil {
		return nil, err
	}
	sim.SetLogLevel(logger.GetLevel())
	DefaultExecutableConfig.Ftd = args.OtCliPath
	return sim, nil
}

func handleSignals(ctx *progctx.ProgCtx) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGHUP)
	signal.Ignore(syscall.SIGALRM)

	ctx.Go("handleSignals", func() {
		defer signal.Stop(c)
		defer logger.Debugf("handleSignals exit.")

		select {
		case sig := <-c:
			logger.Infof("signal received: %v", sig)
			ctx.Cancel(nil)
		case <-ctx.Done():
		}
	})
}

// readCommands feeds the lines read from stdin into a channel, which is closed at end of input.
func readCommands(ctx *progctx.ProgCtx, stdin io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(stdin)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			logger.Warnf("read stdin failed: %v", err)
		}
	}()
	return lines
}

// Main runs the simulator on the given stdin and stdout until `exit`, end of input or a signal,
// and returns the process exit code.
func Main(argv []string, stdin io.Reader, stdout io.Writer) int {
	args, err := parseArgs(argv)
	if err != nil {
		return 2
	}

	level, err := logger.ParseLevelString(args.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}
	logger.SetLevel(level)
	if args.LogFile != "" {
		if err = logger.SetOutput([]string{"stderr", args.LogFile}); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 2
		}
	}
	simplelogger.SetLevel(simpleloggerLevel(level))

	ctx := progctx.New(context.Background())
	handleSignals(ctx)

	sim, err := createSimulation(args)
	if err != nil {
		logger.Errorf("create simulation failed: %v", err)
		ctx.Cancel(err)
		ctx.Wait()
		return 1
	}

	rt := NewCmdRunner(ctx, sim)
	out := bufio.NewWriter(stdout)
	lines := readCommands(ctx, stdin)

	exitCode := 0
	rt.exit = func(code int) {
		_ = out.Flush()
		sim.Stop()
		os.Exit(code)
	}

loop:
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				logger.Debugf("stdin closed")
				break loop
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			err := rt.RunCommand(line, out)
			if ferr := out.Flush(); ferr != nil {
				logger.Warnf("write stdout failed: %v", ferr)
				exitCode = 1
				break loop
			}
			if err != nil {
				break loop
			}
		case <-ctx.Done():
			break loop
		}
	}

	sim.Stop()
	ctx.Cancel("main exit")
	waitTimeout(ctx, time.Second)
	return exitCode
}

func waitTimeout(ctx *progctx.ProgCtx, d time.Duration) {
	done := make(chan struct{})
	go func() {
		ctx.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		logger.Warnf("goroutines still running after %v", d)
	}
}

// MainIfHelper runs the simulator and exits if HelperEnv is set. It is called first thing in
// TestMain of packages that drive the simulator through a real process.
func MainIfHelper() {
	if os.Getenv(HelperEnv) == "" {
		return
	}
	os.Exit(Main(os.Args[1:], os.Stdin, os.Stdout))
}
