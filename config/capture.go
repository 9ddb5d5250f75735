package config

// Capture defines an HTTP server recording every request it receives as an
// ammo block, so real traffic can be replayed later.
//
// Any method on any path is accepted. Headers are written sorted by name since
// the order on the wire is lost by the time a request reaches the handler.
// The server replies every request with Status and Response.
type Capture struct {
	Address  string   // ":0" or ":port" or "ip:port"
	Output   string   // ammo file path, empty for standard output
	Status   int      // response status code, default 200
	Response string   // response body, default empty
	Tag      string   // optional tag written into each captured block
	Strip    []string // header names not recorded, like "Connection"
}
