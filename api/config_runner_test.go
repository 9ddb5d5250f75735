package api

import (
	"bytes"
	"strings"
	"testing"

	"github.com/forrestjgq/gammo/config"
)

func TestGenerate(t *testing.T) {
	cfg := config.Default()
	cfg.AddRequest(&config.Request{Method: "GET", Path: "/api/v1/maps", Count: 2})

	buf := &bytes.Buffer{}
	n, err := Generate(cfg, buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("expect 3 blocks, get %d", n)
	}
	if !strings.HasPrefix(buf.String(), "128\nPOST /api/v1/game/join HTTP/1.1\r\n") {
		t.Fatalf("unexpected ammo %q", buf.String())
	}
	if strings.Count(buf.String(), "GET /api/v1/maps HTTP/1.1\r\n") != 2 {
		t.Fatalf("unexpected ammo %q", buf.String())
	}
}
