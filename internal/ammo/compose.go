package ammo

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/huandu/go-clone"
	uuid "github.com/satori/go.uuid"

	"github.com/forrestjgq/gammo/config"
)

const (
	headerHost          = "Host"
	headerContentLength = "Content-Length"
	headerRequestID     = "X-Request-Id"
)

// composer turns an ammo configuration into requests ready to be framed.
type composer struct {
	cfg           *config.Ammo
	host          string
	contentLength bool
	requestID     bool
}

func makeComposer(cfg *config.Ammo) *composer {
	c := &composer{
		cfg:           cfg,
		contentLength: cfg.IsOptionSet(config.OptionContentLength),
		requestID:     cfg.IsOptionSet(config.OptionRequestID),
	}
	if cfg.IsOptionSet(config.OptionHostHeader) {
		c.host = cfg.Target.Authority()
	}
	return c
}

func appendParams(path string, params []config.Param) string {
	if len(params) == 0 {
		return path
	}
	var sb strings.Builder
	sb.WriteString(path)
	if strings.IndexByte(path, '?') >= 0 {
		sb.WriteByte('&')
	} else {
		sb.WriteByte('?')
	}
	for i, p := range params {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.Key))
		if len(p.Value) > 0 {
			sb.WriteByte('=')
			sb.WriteString(url.QueryEscape(p.Value))
		}
	}
	return sb.String()
}

// mergeHeaders puts defaults first, a header in overrides replaces a default
// with a same name in place, each default is replaced at most once. The
// others, including repeated names, are appended in order.
func mergeHeaders(defaults, overrides []config.Header) []Header {
	var merged []config.Header
	if len(defaults) > 0 {
		merged = clone.Clone(defaults).([]config.Header)
	}
	replaced := make([]bool, len(merged))
	for _, o := range overrides {
		i := 0
		for ; i < len(replaced); i++ {
			if !replaced[i] && strings.EqualFold(merged[i].Name, o.Name) {
				break
			}
		}
		if i < len(replaced) {
			merged[i].Value = o.Value
			replaced[i] = true
		} else {
			merged = append(merged, o)
		}
	}

	ret := make([]Header, 0, len(merged)+3)
	for _, h := range merged {
		ret = append(ret, Header{Name: h.Name, Value: h.Value})
	}
	return ret
}

// template creates request r would generate, without per block headers.
func (c *composer) template(r *config.Request) *Request {
	req := &Request{
		Method: r.Method,
		Path:   appendParams(r.Path, r.Params),
		Body:   r.Body,
		Tag:    r.Tag,
	}

	var headers []Header
	if len(c.host) > 0 && !hasConfigHeader(r.Headers, headerHost) && !hasConfigHeader(c.cfg.Headers, headerHost) {
		headers = append(headers, Header{Name: headerHost, Value: c.host})
	}
	headers = append(headers, mergeHeaders(c.cfg.Headers, r.Headers)...)
	req.Headers = headers

	if c.contentLength && len(req.Body) > 0 && !req.HasHeader(headerContentLength) {
		req.Headers = append(req.Headers, Header{Name: headerContentLength, Value: strconv.Itoa(len(req.Body))})
	}
	return req
}

func hasConfigHeader(headers []config.Header, name string) bool {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return true
		}
	}
	return false
}

// compose calls f with each request in config order, requests with Count
// larger than 1 are repeated. Every call gets its own copy.
func (c *composer) compose(f func(req *Request) error) error {
	for _, r := range c.cfg.Requests {
		t := c.template(r)
		cnt := r.Count
		if cnt < 1 {
			cnt = 1
		}
		for i := 0; i < cnt; i++ {
			req := t
			if i > 0 || c.requestID {
				req = clone.Clone(t).(*Request)
			}
			if c.requestID && !t.HasHeader(headerRequestID) {
				req.Headers = append(req.Headers, Header{Name: headerRequestID, Value: uuid.NewV4().String()})
			}
			if err := f(req); err != nil {
				return err
			}
		}
	}
	return nil
}

// Compose creates all requests a configuration defines.
func Compose(cfg *config.Ammo) ([]*Request, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	var reqs []*Request
	err := makeComposer(cfg).compose(func(req *Request) error {
		reqs = append(reqs, req)
		return nil
	})
	return reqs, err
}
