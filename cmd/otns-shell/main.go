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

// Command otns-shell launches an OTNS simulator and attaches an interactive console to it.
// Arguments after the flags are passed on to the simulator.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openthread/otns-client/logger"
	"github.com/openthread/otns-client/otns"
)

var args struct {
	ConfigFile  string
	EnvFile     string
	OtnsPath    string
	LogLevel    string
	Prompt      string
	Timeout     time.Duration
	MetricsAddr string
	SavePcap    string
}

func parseArgs() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [-- otns args]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  Launches the OTNS simulator and runs an interactive console on it.\n")
		flag.PrintDefaults()
	}
	flag.StringVar(&args.ConfigFile, "config", "", "YAML options file")
	flag.StringVar(&args.EnvFile, "env", ".env", "env file providing OTNS and OTNS_ARGS")
	flag.StringVar(&args.OtnsPath, "otns", "", "simulator executable (default: $OTNS, then otns on $PATH)")
	flag.StringVar(&args.LogLevel, "log", "warn", "client log level: "+logger.LevelNames())
	flag.StringVar(&args.Prompt, "prompt", "> ", "console prompt")
	flag.DurationVar(&args.Timeout, "timeout", 0, "timeout of each command; 0 waits forever")
	flag.StringVar(&args.MetricsAddr, "metrics", "", "serve Prometheus metrics on this address, e.g. :9090")
	flag.StringVar(&args.SavePcap, "save-pcap", "", "copy the capture file here when the simulator exits")
	flag.Parse()
}

func loadOptions() (*otns.Options, error) {
	if err := otns.LoadEnv(args.EnvFile); err != nil {
		return nil, err
	}

	opts := otns.DefaultOptions()
	if args.ConfigFile != "" {
		var err error
		if opts, err = otns.LoadOptionsFile(args.ConfigFile); err != nil {
			return nil, err
		}
	}
	if args.OtnsPath != "" {
		opts.Path = args.OtnsPath
	}
	if args.Timeout > 0 {
		opts.CommandTimeout = args.Timeout
	}
	opts.ExtraArgs = append(opts.ExtraArgs, flag.Args()...)
	return opts, nil
}

func serveMetrics(addr string) (*otns.Metrics, error) {
	reg := prometheus.NewRegistry()
	metrics, err := otns.NewMetrics(reg)
	if err != nil {
		return nil, err
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		err := http.ListenAndServe(addr, mux)
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("metrics server quit: %v", err)
		}
	}()
	return metrics, nil
}

func run() int {
	parseArgs()

	level, err := logger.ParseLevelString(args.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}
	logger.SetLevel(level)

	opts, err := loadOptions()
	if err != nil {
		logger.Errorf("%v", err)
		return 2
	}
	if args.MetricsAddr != "" {
		if opts.Metrics, err = serveMetrics(args.MetricsAddr); err != nil {
			logger.Errorf("%v", err)
			return 1
		}
	}

	session, err := otns.New(opts)
	if err != nil {
		logger.Errorf("%v", err)
		return 1
	}

	if !session.StartInteractive(otns.ConsoleOptions{Prompt: args.Prompt}) {
		logger.Errorf("console could not be started")
		_ = session.Close()
		return 1
	}
	<-session.InteractiveDone()

	exitCode := 0
	if _, err = session.Time(); err != nil {
		if code, ok := otns.IsExited(err); ok && code > 0 {
			exitCode = code
		} else if !ok || code < 0 {
			exitCode = 1
		}
	}
	_ = session.Close()

	if args.SavePcap != "" {
		if err = session.SavePcap(args.SavePcap); err != nil {
			logger.Errorf("%v", err)
			return 1
		}
	}
	return exitCode
}

func main() {
	os.Exit(run())
}
