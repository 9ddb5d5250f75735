package main

import (
	"encoding/json"
	"os"

	"github.com/forrestjgq/gammo/config"
)

func main() {
	cfg := config.Default()
	cfg.Name = "sample"
	cfg.Output = "ammo.txt"
	cfg.AddHeader("User-Agent", "gammo")
	cfg.AddRequest(&config.Request{
		Method: "GET",
		Path:   "/api/v1/maps",
		Tag:    "maps",
		Count:  10,
	})
	cfg.AddRequest(&config.Request{
		Method: "GET",
		Path:   "/api/v1/game/state",
		Headers: []config.Header{
			{Name: "Authorization", Value: "Bearer 6516861d89ebfff147bf2eb2b5153ae1"},
		},
		Tag: "state",
	})
	cfg.AddOption(config.OptionHostHeader, "true")

	b, e := json.MarshalIndent(cfg, "", "    ")
	if e != nil {
		panic(e)
	}

	f, e := os.Create("./sample.json")
	if e != nil {
		panic(e)
	}

	_, _ = f.Write(b)
	_ = f.Close()
}
