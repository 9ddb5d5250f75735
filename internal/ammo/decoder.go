package ammo

import (
	"bufio"
	"bytes"
	"io"
	"io/ioutil"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Block is a single ammo block read back from an ammo file.
type Block struct {
	Size int
	Tag  string
	Raw  []byte // request text, Size bytes
}

// Request parses block content as an HTTP request.
func (b *Block) Request() (*http.Request, error) {
	req, err := http.ReadRequest(bufio.NewReader(bytes.NewReader(b.Raw)))
	if err != nil {
		return nil, errors.Wrap(err, "parse request")
	}
	req.RequestURI = ""
	return req, nil
}

// Decoder reads ammo blocks one by one.
type Decoder struct {
	r   *bufio.Reader
	seq int
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

func decodeSizeLine(line string) (int, string, error) {
	sizeStr, tag := line, ""
	if n := strings.IndexByte(line, ' '); n >= 0 {
		sizeStr, tag = line[:n], line[n+1:]
	}
	size, err := strconv.Atoi(sizeStr)
	if err != nil || size < 0 {
		return 0, "", errors.Errorf("invalid block size line `%s`, expect `%%d[ %%s]`", line)
	}
	return size, tag, nil
}

// Next returns next block, or io.EOF if no more blocks.
func (d *Decoder) Next() (*Block, error) {
	var line string
	for {
		s, err := d.r.ReadString('\n')
		if err == io.EOF && len(s) == 0 {
			return nil, io.EOF
		}
		if err != nil && err != io.EOF {
			return nil, errors.Wrapf(err, "block %d read size line", d.seq)
		}
		line = strings.TrimRight(s, "\r\n")
		if len(line) > 0 {
			break
		}
		if err == io.EOF {
			return nil, io.EOF
		}
	}

	size, tag, err := decodeSizeLine(line)
	if err != nil {
		return nil, errors.Wrapf(err, "block %d", d.seq)
	}

	// size is not trusted, buffer grows only with bytes actually read
	var raw bytes.Buffer
	if n, err := io.CopyN(&raw, d.r, int64(size)); err != nil {
		return nil, errors.Wrapf(err, "block %d read %d bytes, get %d", d.seq, size, n)
	}

	// block terminator, \r\n or \n
	c, err := d.r.ReadByte()
	if err == nil && c == '\r' {
		c, err = d.r.ReadByte()
	}
	if err != nil || c != '\n' {
		return nil, errors.Errorf("block %d: missing terminator after %d bytes", d.seq, size)
	}

	d.seq++
	return &Block{Size: size, Tag: tag, Raw: raw.Bytes()}, nil
}

// check makes sure block holds exactly one HTTP request: the body declared by
// headers is complete and nothing follows it.
func (b *Block) check() error {
	rd := bytes.NewReader(b.Raw)
	br := bufio.NewReader(rd)
	req, err := http.ReadRequest(br)
	if err != nil {
		return errors.Wrap(err, "parse request")
	}
	_, err = io.Copy(ioutil.Discard, req.Body)
	_ = req.Body.Close()
	if err != nil {
		return errors.Wrap(err, "read body")
	}
	if left := br.Buffered() + rd.Len(); left > 0 {
		return errors.Errorf("%d undeclared trailing bytes", left)
	}
	return nil
}

// Verify reads all blocks from r and makes sure each one is a valid HTTP
// request, it returns number of blocks.
func Verify(r io.Reader) (int, error) {
	d := NewDecoder(r)
	for {
		b, err := d.Next()
		if err == io.EOF {
			return d.seq, nil
		}
		if err != nil {
			return d.seq, err
		}
		if err = b.check(); err != nil {
			return d.seq, errors.Wrapf(err, "block %d", d.seq-1)
		}
	}
}
