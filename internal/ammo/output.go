package ammo

import (
	"io"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

type output struct {
	f        io.WriteCloser
	closable bool // if f is stdout, it can not be closed
}

func (o *output) close() error {
	if o.closable {
		return o.f.Close()
	}
	return nil
}

// openOutput creates file at path for writing, parent directory is created
// if not exist. Empty path is for stdout.
func openOutput(path string) (*output, error) {
	if len(path) == 0 {
		return &output{f: os.Stdout}, nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, errors.Wrapf(err, "mkdir %s", dir)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s", path)
	}
	glog.Infof("ammo will be written to %s", path)
	return &output{f: f, closable: true}, nil
}
