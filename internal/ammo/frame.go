package ammo

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/http/httpguts"
)

const (
	DefaultProto = "HTTP/1.1"

	crlf = "\r\n"
)

// ErrInvalidArgument is the cause of every error reported by Request.Check.
var ErrInvalidArgument = errors.New("invalid argument")

type Header struct {
	Name  string
	Value string
}

// Request describes a single HTTP request before it is written as ammo.
// Headers is a slice so header order is the caller's order.
type Request struct {
	Method  string
	Path    string // absolute path with optional query string
	Proto   string // default to be HTTP/1.1
	Headers []Header
	Body    string
	Tag     string // optional, written after block size
}

func (r *Request) proto() string {
	if len(r.Proto) == 0 {
		return DefaultProto
	}
	return r.Proto
}

// HasHeader tells if a header named name exists, names are case insensitive.
func (r *Request) HasHeader(name string) bool {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return true
		}
	}
	return false
}

// Check validates request fields, Frame does not require it.
func (r *Request) Check() error {
	if len(r.Method) == 0 {
		return errors.Wrap(ErrInvalidArgument, "empty method")
	}
	for i := 0; i < len(r.Method); i++ {
		if !httpguts.IsTokenRune(rune(r.Method[i])) {
			return errors.Wrapf(ErrInvalidArgument, "method %q", r.Method)
		}
	}
	if len(r.Path) == 0 {
		return errors.Wrap(ErrInvalidArgument, "empty path")
	}
	if (r.Path[0] != '/' && r.Path != "*") || strings.ContainsAny(r.Path, " \r\n") {
		return errors.Wrapf(ErrInvalidArgument, "path %q", r.Path)
	}
	if strings.ContainsAny(r.Tag, "\r\n") {
		return errors.Wrapf(ErrInvalidArgument, "tag %q", r.Tag)
	}
	for _, h := range r.Headers {
		if !httpguts.ValidHeaderFieldName(h.Name) {
			return errors.Wrapf(ErrInvalidArgument, "header name %q", h.Name)
		}
		if !httpguts.ValidHeaderFieldValue(h.Value) {
			return errors.Wrapf(ErrInvalidArgument, "header %s value %q", h.Name, h.Value)
		}
	}
	return nil
}

// IsInvalidArgument tells if err is caused by ErrInvalidArgument.
func IsInvalidArgument(err error) bool {
	return err != nil && errors.Cause(err) == ErrInvalidArgument
}

// RequestText returns the request as it goes on the wire: request line,
// headers, an empty line and body.
func RequestText(r *Request) string {
	var sb strings.Builder
	sb.WriteString(r.Method)
	sb.WriteByte(' ')
	sb.WriteString(r.Path)
	sb.WriteByte(' ')
	sb.WriteString(r.proto())
	sb.WriteString(crlf)
	for _, h := range r.Headers {
		sb.WriteString(h.Name)
		sb.WriteString(": ")
		sb.WriteString(h.Value)
		sb.WriteString(crlf)
	}
	sb.WriteString(crlf)
	sb.WriteString(r.Body)
	return sb.String()
}

// Frame builds an ammo block:
//     <size>[ <tag>]\n<request text>\r\n
// size is the byte length of request text, excluding itself and the
// trailing \r\n.
func Frame(r *Request) string {
	text := RequestText(r)
	size := strconv.Itoa(len(text))
	if len(r.Tag) > 0 {
		size += " " + r.Tag
	}
	return size + "\n" + text + crlf
}
