package config

// GOptions is used to package gammo parameters. Parameters being replaces is commented after each members.
type GOptions struct {
	Vars       map[string]string // "-e"
	Configs    []string          // "-config" or configuration list
	Output     string            // "-o"
	Verify     string            // "-verify"
	CaptureCfg string            // "-capture"
	GoMarkPort int               // "-gm"
	Perf       bool              // "-perf"
}
