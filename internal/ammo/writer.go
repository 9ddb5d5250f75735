package ammo

import (
	"io"
	"sync"

	"github.com/forrestjgq/gomark/gmi"
	"github.com/pkg/errors"
)

// Writer writes framed requests into an io.Writer one block a time. It is
// safe to be used by multiple goroutines.
type Writer struct {
	mtx    sync.Mutex
	w      io.Writer
	blocks int
	bytes  int64
	lr     gmi.Marker // count written blocks if not nil
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write checks r and writes it as one ammo block.
func (w *Writer) Write(r *Request) error {
	if r == nil {
		return errors.Wrap(ErrInvalidArgument, "null request")
	}
	if err := r.Check(); err != nil {
		return errors.Wrapf(err, "request %s %s", r.Method, r.Path)
	}

	s := Frame(r)

	w.mtx.Lock()
	defer w.mtx.Unlock()

	n, err := io.WriteString(w.w, s)
	w.bytes += int64(n)
	if err != nil {
		return errors.Wrap(err, "write ammo")
	}
	w.blocks++
	if w.lr != nil {
		w.lr.Mark(1)
	}
	return nil
}

// Blocks returns how many blocks are written.
func (w *Writer) Blocks() int {
	w.mtx.Lock()
	defer w.mtx.Unlock()
	return w.blocks
}

// Bytes returns how many bytes are written.
func (w *Writer) Bytes() int64 {
	w.mtx.Lock()
	defer w.mtx.Unlock()
	return w.bytes
}

func (w *Writer) setMarker(lr gmi.Marker) {
	w.mtx.Lock()
	w.lr = lr
	w.mtx.Unlock()
}

func (w *Writer) release() {
	w.mtx.Lock()
	if w.lr != nil {
		w.lr.Cancel()
		w.lr = nil
	}
	w.mtx.Unlock()
}
