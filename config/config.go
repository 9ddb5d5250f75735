package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Target is where generated requests are aimed at. It is never connected to,
// it only decides the Host header.
type Target struct {
	Scheme string // "http" or "https", default "http"
	Host   string // domain or ip, required
	Port   string // decimal port, empty for scheme default
}

func (t *Target) Check() error {
	if len(t.Scheme) == 0 {
		t.Scheme = "http"
	}
	if t.Scheme != "http" && t.Scheme != "https" {
		return errors.Errorf("invalid scheme: %s", t.Scheme)
	}

	matched, matchErr := regexp.MatchString("^[A-Za-z0-9._\\-]+$", t.Host)
	if matchErr != nil {
		panic(fmt.Sprintf("host match regexp fail, error: %v", matchErr))
	}
	if !matched {
		return errors.Errorf("host invalid: %s", t.Host)
	}

	if len(t.Port) > 0 {
		p, err := strconv.Atoi(t.Port)
		if err != nil || p <= 0 || p > 65535 {
			return errors.Errorf("port invalid: %s", t.Port)
		}
	}
	return nil
}

// Authority returns host[:port], port is omitted if it is the default one of scheme.
func (t *Target) Authority() string {
	if len(t.Port) == 0 {
		return t.Host
	}
	if (t.Scheme == "http" || t.Scheme == "") && t.Port == "80" {
		return t.Host
	}
	if t.Scheme == "https" && t.Port == "443" {
		return t.Host
	}
	return t.Host + ":" + t.Port
}

// Header is a single header line, headers are kept in slices so that the
// order written in config is the order written into ammo.
type Header struct {
	Name  string
	Value string
}

// Param is a query parameter appended to request path.
type Param struct {
	Key   string
	Value string
}

type Request struct {
	Method  string   // default to be GET
	Path    string   // /path/to/target, may carry a query string
	Params  []Param  // appended to Path as ?key=value&key=value..
	Headers []Header // request headers, override Ammo.Headers with same name
	Body    string   // request body, written verbatim
	Tag     string   // optional ammo tag written after block size
	Count   int      // how many blocks this request generates, 0 or 1 for once
}

func (r *Request) Check() error {
	if len(r.Method) == 0 {
		r.Method = "GET"
	}
	r.Method = strings.ToUpper(r.Method)

	if len(r.Path) == 0 {
		return errors.New("empty path")
	}
	if r.Path[0] != '/' && r.Path != "*" {
		return errors.Errorf("invalid path: %s", r.Path)
	}
	if r.Count < 0 {
		return errors.Errorf("request %s %s: negative count %d", r.Method, r.Path, r.Count)
	}
	if strings.ContainsAny(r.Tag, "\r\n") {
		return errors.Errorf("request %s %s: tag contains line break", r.Method, r.Path)
	}
	for i, h := range r.Headers {
		if len(h.Name) == 0 {
			return errors.Errorf("request %s %s: header[%d] has no name", r.Method, r.Path, i)
		}
	}
	return nil
}

type Option string

const (
	OptionContentLength Option = "ContentLength" // true or false, add Content-Length for non-empty body, default false
	OptionHostHeader    Option = "HostHeader"    // true or false, add Host header from Target, default false
	OptionRequestID     Option = "RequestID"     // true or false, add X-Request-Id with a fresh uuid per block
	OptionCfgPath       Option = "ConfigPath"    // path to config file, set by gammo
)

type Ammo struct {
	Name     string     // Everyone has a name
	Target   Target     // where requests go
	Headers  []Header   // headers shared by all requests, written before request headers
	Requests []*Request // requests, written in order

	// Output file path, relative to config file if not absolute.
	// Empty for standard output.
	Output  string
	Options map[Option]string // options globally
}

func (a *Ammo) Check() error {
	if err := a.Target.Check(); err != nil {
		return errors.Wrapf(err, "ammo %s target", a.Name)
	}
	if len(a.Requests) == 0 {
		return errors.Errorf("ammo %s defines no request", a.Name)
	}
	for i, h := range a.Headers {
		if len(h.Name) == 0 {
			return errors.Errorf("ammo %s: header[%d] has no name", a.Name, i)
		}
	}
	for i, r := range a.Requests {
		if r == nil {
			return errors.Errorf("ammo %s: request[%d] is null", a.Name, i)
		}
		if err := r.Check(); err != nil {
			return errors.Wrapf(err, "ammo %s request[%d]", a.Name, i)
		}
	}
	return nil
}

// IsOptionSet tells if a boolean option is turned on.
func (a *Ammo) IsOptionSet(name Option) bool {
	v, ok := a.Options[name]
	return ok && (v == "true" || v == "TRUE" || v == "1")
}

func (a *Ammo) AddHeader(name, value string) {
	a.Headers = append(a.Headers, Header{Name: name, Value: value})
}
func (a *Ammo) AddRequest(req *Request) {
	a.Requests = append(a.Requests, req)
}
func (a *Ammo) AddOption(name Option, value string) {
	if a.Options == nil {
		a.Options = make(map[Option]string)
	}
	a.Options[name] = value
}

// Default creates the canned request this tool has always generated: a
// player joining map "town" of the game server.
func Default() *Ammo {
	a := &Ammo{
		Name: "join",
		Target: Target{
			Scheme: "https",
			Host:   "cppserver",
			Port:   "8080",
		},
	}
	a.AddRequest(&Request{
		Method: "POST",
		Path:   "/api/v1/game/join",
		Headers: []Header{
			{Name: "Content-Type", Value: "application/json"},
		},
		Body: "{\"userName\":\"Scooby Doo\", \"mapId\":\"town\"}",
	})
	a.AddOption(OptionContentLength, "true")
	return a
}
