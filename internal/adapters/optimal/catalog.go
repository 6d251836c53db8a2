// Package optimal holds best known costs for benchmark instances so runs can
// report their gap.
package optimal

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed optimal_solutions.yaml
var builtin []byte

// Solution is one catalog entry.
type Solution struct {
	Cost     float64 `yaml:"optimal_cost"`
	Vehicles int     `yaml:"optimal_vehicles"`
	Source   string  `yaml:"source,omitempty"`
}

// Catalog maps instance names to their best known solution.
type Catalog struct {
	entries map[string]Solution
}

// Default returns the catalog shipped with the binary.
func Default() *Catalog {
	c, err := Parse(builtin)
	if err != nil {
		panic(fmt.Sprintf("optimal: embedded catalog: %v", err))
	}
	return c
}

func Parse(data []byte) (*Catalog, error) {
	entries := map[string]Solution{}
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("optimal catalog: decode: %w", err)
	}
	for name, s := range entries {
		if s.Cost <= 0 {
			return nil, fmt.Errorf("optimal catalog: %s: optimal_cost must be positive", name)
		}
	}
	return &Catalog{entries: entries}, nil
}

// Load reads a catalog file and layers it over the built-in entries.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("optimal catalog: read %q: %w", path, err)
	}
	extra, err := Parse(data)
	if err != nil {
		return nil, err
	}
	c := Default()
	for name, s := range extra.entries {
		c.entries[name] = s
	}
	return c, nil
}

// Lookup accepts an instance name or a file path such as
// "data/A-n32-k5.vrp".
func (c *Catalog) Lookup(name string) (Solution, bool) {
	name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	s, ok := c.entries[name]
	return s, ok
}

// Gap is the percentage by which cost exceeds the best known cost.
func (c *Catalog) Gap(name string, cost float64) (float64, bool) {
	s, ok := c.Lookup(name)
	if !ok {
		return 0, false
	}
	return Gap(cost, s.Cost), true
}

func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.entries))
	for n := range c.entries {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Gap is (cost - optimum) / optimum in percent.
func Gap(cost, optimum float64) float64 {
	return (cost - optimum) / optimum * 100
}
