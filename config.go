package pgapigen

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vippsas/pgapigen/pygen"
)

// Config carries the naming overrides read from pgapigen.yaml. English
// singularization is a heuristic; anything it gets wrong can be pinned
// down here.
type Config struct {
	// Singulars maps a plural word to the singular to use, e.g.
	// `schemata: schema`.
	Singulars map[string]string `yaml:"singulars"`
	// ClassNames maps a SQL table or composite type name (unqualified) to
	// the exact dataclass name to emit for it.
	ClassNames map[string]string `yaml:"class_names"`
}

// ParseConfig parses the YAML configuration document.
func ParseConfig(data []byte) (Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Namer builds the name deriver backing this configuration.
func (c Config) Namer() *pygen.Namer {
	n := &pygen.Namer{
		ClassNames: make(map[string]string, len(c.ClassNames)),
		Singulars:  make(map[string]string, len(c.Singulars)),
	}
	for k, v := range c.ClassNames {
		n.ClassNames[strings.ToLower(k)] = v
	}
	for k, v := range c.Singulars {
		n.Singulars[strings.ToLower(k)] = v
	}
	return n
}
