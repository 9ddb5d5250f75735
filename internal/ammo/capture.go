package ammo

import (
	"io/ioutil"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/forrestjgq/gomark"
	"github.com/forrestjgq/gomark/gmi"
	"github.com/golang/glog"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/forrestjgq/gammo/config"
)

// CaptureServer is an HTTP server writing each request it receives into
// ammo.
type CaptureServer struct {
	cfg   *config.Capture
	port  int
	s     *http.Server
	out   *output
	w     *Writer
	strip map[string]bool
	lr    gmi.Marker
	done  chan struct{}
}

func (c *CaptureServer) record(r *http.Request) (*Request, error) {
	b, err := ioutil.ReadAll(r.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}

	req := &Request{
		Method: r.Method,
		Path:   r.RequestURI,
		Proto:  r.Proto,
		Body:   string(b),
		Tag:    c.cfg.Tag,
	}
	if len(req.Path) == 0 {
		req.Path = r.URL.RequestURI()
	}

	// Host is removed from r.Header by net/http
	if len(r.Host) > 0 && !c.strip["host"] {
		req.Headers = append(req.Headers, Header{Name: "Host", Value: r.Host})
	}

	// net/http decodes chunked body and drops Transfer-Encoding, a replayed
	// body needs its length
	header := r.Header
	if len(b) > 0 {
		header = r.Header.Clone()
		header.Set(headerContentLength, strconv.Itoa(len(b)))
	}

	names := make([]string, 0, len(header))
	for k := range header {
		if !c.strip[strings.ToLower(k)] || k == headerContentLength && len(b) > 0 {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	for _, k := range names {
		for _, v := range header[k] {
			req.Headers = append(req.Headers, Header{Name: k, Value: v})
		}
	}
	return req, nil
}

func (c *CaptureServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var latency *gomark.Latency
	if c.lr != nil {
		latency = gomark.NewLatency(c.lr)
	}

	req, err := c.record(r)
	if err == nil {
		err = c.w.Write(req)
	}
	if err != nil {
		glog.Errorf("capture %s %s fail: %v", r.Method, r.RequestURI, err)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(err.Error()))
		return
	}

	if latency != nil {
		latency.Mark()
	}

	status := c.cfg.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(c.cfg.Response) > 0 {
		_, _ = w.Write([]byte(c.cfg.Response))
	}
}

// Port returns the port server is listening on.
func (c *CaptureServer) Port() int {
	return c.port
}

// Writer returns writer of captured ammo.
func (c *CaptureServer) Writer() *Writer {
	return c.w
}

// Done is closed after server stops serving.
func (c *CaptureServer) Done() <-chan struct{} {
	return c.done
}

// Close stops server and closes ammo output.
func (c *CaptureServer) Close() error {
	err := c.s.Close()
	<-c.done
	if c.lr != nil {
		c.lr.Cancel()
	}
	c.w.release()
	if e := c.out.close(); e != nil && err == nil {
		err = e
	}
	return err
}

// StartCapture starts a capture server, it returns after server is listening.
func StartCapture(cfg *config.Capture) (*CaptureServer, error) {
	if cfg.Status != 0 && (cfg.Status < 100 || cfg.Status > 999) {
		return nil, errors.Errorf("invalid capture status %d", cfg.Status)
	}

	c := &CaptureServer{
		cfg:   cfg,
		strip: make(map[string]bool),
		done:  make(chan struct{}),
	}
	for _, s := range cfg.Strip {
		c.strip[strings.ToLower(s)] = true
	}

	var err error
	c.out, err = openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}
	c.w = NewWriter(c.out.f)

	if monitoring() {
		c.lr = gomark.NewLatencyRecorder("capture")
		c.w.setMarker(gomark.NewAdder("capture_blocks"))
	}

	r := mux.NewRouter()
	r.PathPrefix("/").Handler(c)

	addr := cfg.Address
	if len(addr) == 0 {
		addr = ":0"
	}
	l, err := net.Listen("tcp", addr)
	if err != nil {
		_ = c.out.close()
		return nil, errors.Wrapf(err, "listen %s", addr)
	}
	c.port = l.Addr().(*net.TCPAddr).Port

	c.s = &http.Server{
		Handler: r,
	}
	go func() {
		_ = c.s.Serve(l)
		close(c.done)
	}()

	glog.Infof("Start capture server at port %d", c.port)
	return c, nil
}
