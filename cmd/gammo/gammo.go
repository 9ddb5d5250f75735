package main

import (
	"flag"
	"os"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/forrestjgq/gammo/config"
	"github.com/forrestjgq/gammo/internal/ammo"
)

func run() error {
	variables := ""
	cfg := ""
	output := ""
	verify := ""
	capture := ""
	perf := false
	gmport := 0
	flag.StringVar(&variables, "e", "", "predefined variables k=v, seperated by space if define multiple variables, referenced as $(k) in configs")
	flag.StringVar(&cfg, "config", "", "config file path, could be a .json, or .list, or a directory")
	flag.StringVar(&output, "o", "", "ammo output file path, all configs are written into it, default to each config's Output")
	flag.StringVar(&verify, "verify", "", "ammo file path to be verified")
	flag.StringVar(&capture, "capture", "", "config file path for capture server")
	flag.BoolVar(&perf, "perf", false, "start pprof server")
	flag.IntVar(&gmport, "gm", 0, "gomark HTTP server port, 0 to disable")
	flag.Parse()

	opt := &config.GOptions{
		Configs:    []string{},
		Output:     output,
		Verify:     verify,
		CaptureCfg: capture,
		GoMarkPort: gmport,
		Perf:       perf,
	}

	var err error
	opt.Vars, err = ammo.ParseVariables(variables)
	if err != nil {
		return errors.Wrapf(err, "parse variables")
	}

	if len(cfg) > 0 {
		opt.Configs = append(opt.Configs, cfg)
	} else {
		opt.Configs = flag.Args()
	}

	return ammo.Execute(opt)
}
func main() {
	err := run()
	glog.Flush()
	if err != nil {
		glog.Errorf("run failure, error: %+v", err)
		glog.Flush()
		os.Exit(1)
	}
}
