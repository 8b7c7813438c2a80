package cmd

import (
	"errors"
	"io/fs"
	"os"

	"github.com/vippsas/pgapigen"
)

// LoadConfig reads the naming-override configuration. An explicit --config
// path must exist; the implicit ./pgapigen.yaml is optional.
func LoadConfig() (pgapigen.Config, error) {
	path := configFile
	implicit := false
	if path == "" {
		path = "pgapigen.yaml"
		implicit = true
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if implicit && errors.Is(err, fs.ErrNotExist) {
			return pgapigen.Config{}, nil
		}
		return pgapigen.Config{}, err
	}
	return pgapigen.ParseConfig(data)
}
