// Package config loads the description of an array, its layout and its
// connection table, from YAML.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/aiesim/aie"
	"github.com/sarchlab/aiesim/geo"
)

// ErrSyntax is returned for port addresses that cannot be parsed.
var ErrSyntax = errors.New("invalid port syntax")

// Ports sets the number of switch ports of every tile.
type Ports struct {
	In  int `yaml:"in"`
	Out int `yaml:"out"`
}

// A Link is one entry of the connection table.
type Link struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Config describes an array.
type Config struct {
	Name           string        `yaml:"name"`
	Layout         string        `yaml:"layout"`
	Width          int           `yaml:"width"`
	Height         int           `yaml:"height"`
	Ports          Ports         `yaml:"ports"`
	DeadlockReport time.Duration `yaml:"deadlock_report"`
	Connections    []Link        `yaml:"connections"`
}

// Load reads a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, errors.WithMessage(err, path)
	}

	return c, nil
}

// Parse decodes a configuration and checks that its layout is valid. Missing
// fields take the defaults of a single tile array with aie.DefaultNumPorts
// ports.
func Parse(data []byte) (*Config, error) {
	c := &Config{
		Name:   "Array",
		Layout: "one_pe",
		Ports:  Ports{In: aie.DefaultNumPorts, Out: aie.DefaultNumPorts},
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.Wrap(err, "failed to decode configuration")
	}

	if _, err := c.Geography(); err != nil {
		return nil, err
	}

	if c.Ports.In < 0 || c.Ports.Out < 0 {
		return nil, errors.Errorf("invalid number of ports %d/%d",
			c.Ports.In, c.Ports.Out)
	}

	for i, l := range c.Connections {
		if _, err := ParsePort(l.From); err != nil {
			return nil, errors.WithMessagef(err, "connection %d", i)
		}

		if _, err := ParsePort(l.To); err != nil {
			return nil, errors.WithMessagef(err, "connection %d", i)
		}
	}

	return c, nil
}

var portPattern = regexp.MustCompile(
	`^\s*(tile|shim)\s*\(\s*(-?\d+)\s*,\s*(-?\d+)\s*,\s*(-?\d+)\s*\)\s*$`)

// ParsePort parses a port address written as "tile(x,y,index)" or
// "shim(x,y,index)".
func ParsePort(s string) (aie.Port, error) {
	m := portPattern.FindStringSubmatch(s)
	if m == nil {
		return nil, errors.Wrapf(ErrSyntax, "%q", s)
	}

	var v [3]int
	for i := range v {
		n, err := strconv.Atoi(m[i+2])
		if err != nil {
			return nil, errors.Wrapf(ErrSyntax, "%q: %v", s, err)
		}

		v[i] = n
	}

	if m[1] == "tile" {
		return aie.TilePort{X: v[0], Y: v[1], Index: v[2]}, nil
	}

	return aie.ShimPort{X: v[0], Y: v[1], Index: v[2]}, nil
}

// Geography resolves the layout of the array.
func (c *Config) Geography() (geo.Geography, error) {
	g, err := geo.Lookup(c.Layout, c.Width, c.Height)
	if err != nil {
		return geo.Geography{}, errors.Wrap(err, "invalid layout")
	}

	return g, nil
}

// Builder returns an array builder set up with the layout, the number of
// ports and the deadlock report interval of the configuration.
func (c *Config) Builder() aie.Builder {
	g, err := c.Geography()
	if err != nil {
		panic(fmt.Sprintf("config %s: %v", c.Name, err))
	}

	b := aie.MakeBuilder().
		WithGeography(g).
		WithNumPorts(c.Ports.In, c.Ports.Out)

	if c.DeadlockReport > 0 {
		b = b.WithDeadlockReport(c.DeadlockReport, nil)
	}

	return b
}

// Connect adds all the connections of the configuration to the array, in
// order. It stops at the first failure.
func (c *Config) Connect(a *aie.Array) error {
	for i, l := range c.Connections {
		src, err := ParsePort(l.From)
		if err != nil {
			return errors.WithMessagef(err, "connection %d", i)
		}

		dst, err := ParsePort(l.To)
		if err != nil {
			return errors.WithMessagef(err, "connection %d", i)
		}

		if err := a.Connect(src, dst); err != nil {
			return errors.WithMessagef(err, "connection %d", i)
		}
	}

	return nil
}
