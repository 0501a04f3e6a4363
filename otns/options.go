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
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/openthread/otns-client/logger"
	"github.com/openthread/otns-client/pcap"
)

const (
	// EnvOtnsPath names the environment variable holding the simulator executable path.
	EnvOtnsPath = "OTNS"
	// EnvOtnsArgs names the environment variable holding extra simulator arguments.
	EnvOtnsArgs = "OTNS_ARGS"

	defaultExecutable = "otns"
	// DefaultPcapFile is the capture file the simulator writes into its working directory.
	DefaultPcapFile = "current.pcap"
)

// Launch flags the client always appends: time only advances on `go` and the web UI stays off.
var fixedLaunchArgs = []string{"-autogo=false", "-web=false"}

// LaunchArgs are the simulator flags the client knows about. Zero values are not passed on.
type LaunchArgs struct {
	LogLevel  string  `yaml:"log"`
	LogFile   string  `yaml:"logfile"`
	Pcap      string  `yaml:"pcap"`
	Seed      int64   `yaml:"seed"`
	Speed     float64 `yaml:"speed"`
	Watch     string  `yaml:"watch"`
	Listen    string  `yaml:"listen"`
	Raw       bool    `yaml:"raw"`
	Real      bool    `yaml:"real"`
	NoPcap    bool    `yaml:"no-pcap"`
	NoReplay  bool    `yaml:"no-replay"`
	OtCliPath string  `yaml:"ot-cli"`
}

// Args returns the command line flags for the non-default fields.
func (la LaunchArgs) Args() []string {
	var args []string
	add := func(name, value string) {
		args = append(args, "-"+name, value)
	}
	if la.LogLevel != "" {
		add("log", la.LogLevel)
	}
	if la.LogFile != "" {
		add("logfile", la.LogFile)
	}
	if la.Pcap != "" {
		add("pcap", la.Pcap)
	}
	if la.Seed != 0 {
		add("seed", strconv.FormatInt(la.Seed, 10))
	}
	if la.Speed != 0 {
		add("speed", strconv.FormatFloat(la.Speed, 'g', -1, 64))
	}
	if la.Watch != "" {
		add("watch", la.Watch)
	}
	if la.Listen != "" {
		add("listen", la.Listen)
	}
	if la.OtCliPath != "" {
		add("ot-cli", la.OtCliPath)
	}
	if la.Raw {
		args = append(args, "-raw")
	}
	if la.Real {
		args = append(args, "-real")
	}
	if la.NoPcap {
		args = append(args, "-no-pcap")
	}
	if la.NoReplay {
		args = append(args, "-no-replay")
	}
	return args
}

// Validate checks the flag values the simulator would reject at startup.
func (la LaunchArgs) Validate() error {
	if la.LogLevel != "" {
		if _, err := logger.ParseLevelString(la.LogLevel); err != nil {
			return errors.Wrap(err, "log")
		}
	}
	if la.Watch != "" {
		if _, err := logger.ParseLevelString(la.Watch); err != nil {
			return errors.Wrap(err, "watch")
		}
	}
	switch la.Pcap {
	case "", pcap.FrameTypeOffStr, pcap.FrameTypeWpanStr, pcap.FrameTypeWpanTapStr:
	default:
		return errors.Errorf("invalid pcap type: %s", la.Pcap)
	}
	if la.Speed < 0 {
		return errors.Errorf("invalid speed: %v", la.Speed)
	}
	return nil
}

// Options configure a Session.
type Options struct {
	// Path of the simulator executable. If empty, $OTNS and then `otns` on $PATH are used.
	Path string `yaml:"path"`
	// Launch holds the known simulator flags.
	Launch LaunchArgs `yaml:"launch"`
	// ExtraArgs are appended verbatim after the Launch flags.
	ExtraArgs []string `yaml:"args"`
	// Env is added to the environment of the simulator process.
	Env []string `yaml:"env"`
	// Dir is the working directory of the simulator process, where it writes its artifacts.
	Dir string `yaml:"dir"`
	// PcapFile is the capture file name inside Dir, used by SavePcap.
	PcapFile string `yaml:"pcap-file"`
	// CommandTimeout bounds each command issued without an explicit context. Zero means no timeout.
	CommandTimeout time.Duration `yaml:"command-timeout"`
	// Metrics receives per-command observations, if set.
	Metrics *Metrics `yaml:"-"`
}

// DefaultOptions returns options that launch the simulator found through $OTNS or $PATH.
func DefaultOptions() *Options {
	return &Options{
		PcapFile: DefaultPcapFile,
	}
}

// LoadOptionsFile reads Options from a YAML file.
func LoadOptionsFile(filename string) (*Options, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "read options %s", filename)
	}

	opts := DefaultOptions()
	if err = yaml.Unmarshal(data, opts); err != nil {
		return nil, errors.Wrapf(err, "parse options %s", filename)
	}
	return opts, nil
}

// LoadEnv loads .env files into the process environment, so that $OTNS and $OTNS_ARGS can
// be kept next to a script. Missing files are skipped. Variables already set are kept.
func LoadEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, f := range filenames {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Wrapf(err, "load env %s", f)
		}
	}
	return nil
}

// resolvePath finds the simulator executable: explicit path, then $OTNS, then `otns` on $PATH.
func (o *Options) resolvePath() (string, error) {
	if o.Path != "" {
		return o.Path, nil
	}
	if p := os.Getenv(EnvOtnsPath); p != "" {
		return p, nil
	}
	p, err := exec.LookPath(defaultExecutable)
	if err != nil {
		return "", &LaunchError{Err: errors.Wrap(err, "otns not found in $OTNS and $PATH")}
	}
	return p, nil
}

// commandLine returns the arguments passed to the simulator.
func (o *Options) commandLine() []string {
	args := o.Launch.Args()
	if envArgs := os.Getenv(EnvOtnsArgs); envArgs != "" {
		args = append(args, strings.Fields(envArgs)...)
	}
	args = append(args, o.ExtraArgs...)
	return append(args, fixedLaunchArgs...)
}

func (o *Options) pcapFile() string {
	if o.PcapFile == "" {
		return DefaultPcapFile
	}
	return o.PcapFile
}
