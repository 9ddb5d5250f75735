package ammo

import (
	"bytes"
	"io"
	"io/ioutil"
	"strings"
	"testing"
)

func TestDecoderRoundTrip(t *testing.T) {
	reqs := []*Request{
		{
			Method:  "POST",
			Path:    "/api/v1/game/join",
			Headers: []Header{{Name: "Content-Type", Value: "application/json"}, {Name: "Content-Length", Value: "41"}},
			Body:    joinBody,
		},
		{Method: "GET", Path: "/api/v1/maps", Tag: "maps"},
		{Method: "GET", Path: "/api/v1/maps/map1?full=1", Headers: []Header{{Name: "Host", Value: "cppserver:8080"}}},
	}

	buf := &bytes.Buffer{}
	w := NewWriter(buf)
	for _, r := range reqs {
		if err := w.Write(r); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if w.Blocks() != len(reqs) {
		t.Fatalf("blocks %d", w.Blocks())
	}
	if w.Bytes() != int64(buf.Len()) {
		t.Fatalf("bytes %d, buffer %d", w.Bytes(), buf.Len())
	}

	d := NewDecoder(bytes.NewReader(buf.Bytes()))
	for i, r := range reqs {
		b, err := d.Next()
		if err != nil {
			t.Fatalf("block %d: %v", i, err)
		}
		if string(b.Raw) != RequestText(r) {
			t.Fatalf("block %d: %q != %q", i, b.Raw, RequestText(r))
		}
		if b.Size != len(b.Raw) || b.Tag != r.Tag {
			t.Fatalf("block %d: size %d tag %q", i, b.Size, b.Tag)
		}

		req, err := b.Request()
		if err != nil {
			t.Fatalf("block %d: %v", i, err)
		}
		if req.Method != r.Method || req.URL.RequestURI() != r.Path {
			t.Fatalf("block %d: %s %s", i, req.Method, req.URL.RequestURI())
		}
		if req.ContentLength > 0 {
			body, _ := ioutil.ReadAll(req.Body)
			if string(body) != r.Body {
				t.Fatalf("block %d: body %q", i, body)
			}
		}
	}
	if _, err := d.Next(); err != io.EOF {
		t.Fatalf("expect EOF, get %v", err)
	}

	n, err := Verify(bytes.NewReader(buf.Bytes()))
	if err != nil || n != len(reqs) {
		t.Fatalf("verify %d blocks, err %v", n, err)
	}
}

func TestDecoderLF(t *testing.T) {
	s := "18\nGET / HTTP/1.1\r\n\r\n\n\n18 tag\nGET / HTTP/1.1\r\n\r\n\n"
	d := NewDecoder(strings.NewReader(s))
	for i := 0; i < 2; i++ {
		if _, err := d.Next(); err != nil {
			t.Fatalf("block %d: %v", i, err)
		}
	}
	if _, err := d.Next(); err != io.EOF {
		t.Fatalf("expect EOF, get %v", err)
	}
}

func TestDecoderError(t *testing.T) {
	cases := []string{
		"abc\nGET / HTTP/1.1\r\n\r\n\r\n",
		"-1\nGET / HTTP/1.1\r\n\r\n\r\n",
		"100\nGET / HTTP/1.1\r\n\r\n\r\n",
		"3\nGET / HTTP/1.1\r\n\r\n\r\n",
		"18\nGET / HTTP/1.1\r\n\r\n",
		"9999999999999999\nGET / HTTP/1.1\r\n\r\n\r\n",
		"99999999999999999999\nGET / HTTP/1.1\r\n\r\n\r\n",
	}
	for i, c := range cases {
		_, err := NewDecoder(strings.NewReader(c)).Next()
		if err == nil || err == io.EOF {
			t.Fatalf("case %d: expect error, get %v", i, err)
		}
		if _, err = Verify(strings.NewReader(c)); err == nil {
			t.Fatalf("case %d: expect verify fail", i)
		}
	}

	// well framed but not a request
	bad := "5\nhello\r\n"
	if _, err := Verify(strings.NewReader(bad)); err == nil {
		t.Fatalf("expect verify fail")
	}
}

func TestVerifyBody(t *testing.T) {
	join := func(headers ...Header) string {
		return Frame(&Request{Method: "POST", Path: "/api/v1/game/join", Headers: headers, Body: joinBody})
	}

	valid := []string{
		join(Header{Name: "Content-Length", Value: "41"}),
		join(Header{Name: "Content-Type", Value: "application/json"}, Header{Name: "Content-Length", Value: "41"}),
		Frame(&Request{
			Method:  "POST",
			Path:    "/a",
			Headers: []Header{{Name: "Transfer-Encoding", Value: "chunked"}},
			Body:    "5\r\nhello\r\n0\r\n\r\n",
		}),
		Frame(&Request{Method: "GET", Path: "/"}),
	}
	for i, s := range valid {
		if n, err := Verify(strings.NewReader(s)); err != nil || n != 1 {
			t.Fatalf("case %d: verify %d blocks, err %v", i, n, err)
		}
	}

	invalid := []string{
		// body without length becomes another request on the wire
		join(),
		join(Header{Name: "Content-Length", Value: "10"}),
		join(Header{Name: "Content-Length", Value: "100"}),
		Frame(&Request{Method: "GET", Path: "/", Body: "x"}),
	}
	for i, s := range invalid {
		if _, err := Verify(strings.NewReader(s)); err == nil {
			t.Fatalf("case %d: expect verify fail", i)
		}
	}

	// a broken block stops verifying, blocks before it are counted
	n, err := Verify(strings.NewReader(valid[0] + invalid[0] + valid[1]))
	if err == nil || n != 2 {
		t.Fatalf("verify %d blocks, err %v", n, err)
	}
}
