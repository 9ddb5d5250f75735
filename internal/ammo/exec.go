package ammo

import (
	"bufio"
	"encoding/json"
	"io/ioutil"
	"net"
	"net/http"
	_ "net/http/pprof" // pprof handlers for -perf
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/forrestjgq/gomark"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/forrestjgq/gammo/config"
)

var monitor bool

func monitoring() bool {
	return monitor
}

// Generate writes all blocks cfg defines into w, returns block count.
func Generate(cfg *config.Ammo, w *Writer) (int, error) {
	if err := cfg.Check(); err != nil {
		return 0, err
	}
	cnt := 0
	err := makeComposer(cfg).compose(func(req *Request) error {
		if err := w.Write(req); err != nil {
			return err
		}
		cnt++
		return nil
	})
	return cnt, err
}

// GenerateFile writes cfg into its own Output, or stdout if Output is empty.
func GenerateFile(cfg *config.Ammo) (int, error) {
	path := cfg.Output
	if len(path) > 0 && !filepath.IsAbs(path) {
		path = filepath.Join(cfg.Options[config.OptionCfgPath], path)
	}
	out, err := openOutput(path)
	if err != nil {
		return 0, err
	}

	w := NewWriter(out.f)
	if monitoring() {
		w.setMarker(gomark.NewAdder("ammo_" + cfg.Name))
		defer w.release()
	}
	cnt, err := Generate(cfg, w)
	if e := out.close(); e != nil && err == nil {
		err = errors.Wrapf(e, "close %s", path)
	}
	return cnt, err
}

// VerifyFile reads an ammo file and checks every block in it.
func VerifyFile(path string) (int, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return 0, errors.Wrapf(err, "open %s", path)
	}
	defer func() {
		_ = f.Close()
	}()
	return Verify(f)
}

// Execute runs gammo with command line options:
//   - verify an existing ammo file if required;
//   - start capture server if required, and wait until it is closed;
//   - generate ammo for each config, or the default request if neither
//     config, verifying nor capturing is required.
func Execute(opt *config.GOptions) error {
	if opt.Perf {
		p, err := startPerf(0)
		if err != nil {
			glog.Errorf("pprof server fail: %v", err)
		} else {
			defer p.stop()
		}
	}

	if opt.GoMarkPort != 0 {
		gomark.StartHTTPServer(opt.GoMarkPort)
		monitor = true
	}

	if len(opt.Verify) > 0 {
		n, err := VerifyFile(opt.Verify)
		if err != nil {
			return errors.Wrapf(err, "verify %s", opt.Verify)
		}
		glog.Infof("%s: %d blocks verified", opt.Verify, n)
	}

	var capture *CaptureServer
	if len(opt.CaptureCfg) > 0 {
		var err error
		capture, err = StartCaptureFile(opt.CaptureCfg, opt.Vars)
		if err != nil {
			return errors.Wrapf(err, "capture server start")
		}
	}

	// shared output from command line overrides each config's Output
	var shared *Writer
	if len(opt.Output) > 0 {
		out, err := openOutput(opt.Output)
		if err != nil {
			if capture != nil {
				_ = capture.Close()
			}
			return err
		}
		defer func() {
			_ = out.close()
		}()
		shared = NewWriter(out.f)
	}

	executor := func(path string) error {
		c, err := loadConfig(path, opt.Vars)
		if err != nil {
			return errors.Wrapf(err, "load config %s", path)
		}
		if c.Options == nil {
			c.Options = make(map[config.Option]string)
		}
		c.Options[config.OptionCfgPath], err = filepath.Abs(filepath.Dir(path))
		if err != nil {
			return errors.Wrapf(err, "get abs config path %s", path)
		}
		return run(c, shared)
	}

	doSingle := func(path string) error {
		if strings.HasSuffix(path, ".list") {
			return readList(path, executor)
		} else if strings.HasSuffix(path, ".json") {
			return executor(path)
		} else {
			fi, err := os.Stat(path)
			if err != nil {
				return errors.Wrapf(err, "Stat file %s", path)
			}
			if !fi.IsDir() {
				return errors.Errorf("%s is not a directory", path)
			}
			return walk(path, executor)
		}
	}

	if len(opt.Configs) > 0 {
		for _, c := range opt.Configs {
			if err := doSingle(c); err != nil {
				if capture != nil {
					_ = capture.Close()
				}
				return errors.Wrapf(err, "do %s", c)
			}
		}
	} else if capture == nil && len(opt.Verify) == 0 {
		if err := run(config.Default(), shared); err != nil {
			return err
		}
	}

	if capture != nil {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sig)
		select {
		case s := <-sig:
			glog.Infof("capture server stops on signal %v, %d blocks captured", s, capture.Writer().Blocks())
		case <-capture.Done():
		}
		return capture.Close()
	}
	return nil
}

func run(c *config.Ammo, shared *Writer) error {
	var (
		n   int
		err error
	)
	if shared != nil {
		n, err = Generate(c, shared)
	} else {
		n, err = GenerateFile(c)
	}
	if err != nil {
		return errors.Wrapf(err, "generate %s", c.Name)
	}
	glog.Infof("ammo %s: %d blocks generated", c.Name, n)
	return nil
}

// StartCaptureFile starts capture server from a json config file.
func StartCaptureFile(path string, vars map[string]string) (*CaptureServer, error) {
	b, err := readConfigFile(path, vars)
	if err != nil {
		return nil, err
	}

	var c config.Capture
	err = json.Unmarshal(b, &c)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal json")
	}
	if len(c.Output) > 0 && !filepath.IsAbs(c.Output) {
		dir, err := filepath.Abs(filepath.Dir(path))
		if err != nil {
			return nil, errors.Wrapf(err, "absolute path of %s", path)
		}
		c.Output = filepath.Join(dir, c.Output)
	}
	return StartCapture(&c)
}

func readConfigFile(path string, vars map[string]string) ([]byte, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}
	b, err = expandVariables(b, vars)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return b, nil
}

func loadConfig(path string, vars map[string]string) (*config.Ammo, error) {
	b, err := readConfigFile(path, vars)
	if err != nil {
		return nil, err
	}

	var cfg config.Ammo
	err = json.Unmarshal(b, &cfg)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal json")
	}
	if len(cfg.Name) == 0 {
		cfg.Name = strings.TrimSuffix(filepath.Base(path), ".json")
	}

	return &cfg, nil
}

// readList executes each json file listed in path, one file a line, '#'
// starts a comment.
func readList(path string, executor func(s string) error) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() {
		_ = f.Close()
	}()

	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return errors.Wrapf(err, "abs of file path %s", path)
	}
	scan := bufio.NewScanner(f)

	for scan.Scan() {
		t := scan.Text()
		n := strings.Index(t, "#")
		if n >= 0 {
			t = t[0:n]
		}
		t = strings.TrimSpace(t)
		if len(t) == 0 {
			continue
		}
		if !strings.HasSuffix(t, ".json") {
			continue
		}

		if !filepath.IsAbs(t) {
			t = filepath.Clean(filepath.Join(dir, t))
		}
		err = executor(t)
		if err != nil {
			return errors.Wrapf(err, "list %s file(%s) execute", path, t)
		}
	}
	return scan.Err()
}

// walk executes json files under root in lexical order.
func walk(root string, executor func(s string) error) error {
	return filepath.Walk(root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return errors.Wrapf(err, "walk %s", path)
		}
		if fi.IsDir() || !strings.HasSuffix(fi.Name(), ".json") {
			return nil
		}
		if err = executor(path); err != nil {
			return errors.Wrapf(err, "walk to %s", fi.Name())
		}
		return nil
	})
}

// perfServer serves pprof on a loopback port.
type perfServer struct {
	l    net.Listener
	port int
}

func startPerf(port int) (*perfServer, error) {
	l, err := net.Listen("tcp", "127.0.0.1:"+strconv.Itoa(port))
	if err != nil {
		return nil, errors.Wrap(err, "listen pprof")
	}
	p := &perfServer{l: l, port: l.Addr().(*net.TCPAddr).Port}
	go func() {
		_ = http.Serve(l, nil)
	}()
	glog.Infof("pprof at http://127.0.0.1:%d/debug/pprof", p.port)
	return p, nil
}

func (p *perfServer) stop() {
	glog.Infof("stop pprof server at port %d", p.port)
	_ = p.l.Close()
}
