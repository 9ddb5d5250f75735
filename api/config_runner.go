package api

import (
	"io"

	"github.com/forrestjgq/gammo/config"
	"github.com/forrestjgq/gammo/internal/ammo"
)

// Run gammo from programmatic api instead of command line
func Run(options *config.GOptions) error {
	return ammo.Execute(options)
}

// Generate writes ammo defined by cfg into w and returns how many blocks are written.
func Generate(cfg *config.Ammo, w io.Writer) (int, error) {
	return ammo.Generate(cfg, ammo.NewWriter(w))
}
