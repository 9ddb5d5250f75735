package ammo

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var (
	varPattern = regexp.MustCompile(`\$\(([A-Za-z_][A-Za-z0-9_.]*)\)`)
	varName    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
)

// ParseVariables parses variable definitions like "HOST=cppserver PORT=8080".
func ParseVariables(s string) (map[string]string, error) {
	if len(s) == 0 {
		return nil, nil
	}
	m := make(map[string]string)
	for _, c := range strings.Fields(s) {
		kvs := strings.SplitN(c, "=", 2)
		if len(kvs) != 2 || !varName.MatchString(kvs[0]) {
			return nil, errors.Errorf("invalid variable definition: %s", c)
		}
		m[kvs[0]] = kvs[1]
	}
	return m, nil
}

// expandVariables replaces each $(NAME) in a json config with value of NAME.
// Values are json escaped so they can be used inside json strings.
func expandVariables(b []byte, vars map[string]string) ([]byte, error) {
	var err error
	ret := varPattern.ReplaceAllFunc(b, func(m []byte) []byte {
		name := string(m[2 : len(m)-1])
		v, ok := vars[name]
		if !ok {
			if err == nil {
				err = errors.Errorf("variable %s is not defined", name)
			}
			return m
		}
		q, _ := json.Marshal(v)
		return q[1 : len(q)-1]
	})
	return ret, err
}
