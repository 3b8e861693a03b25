package aie

import (
	"fmt"
	"time"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/aiesim/cascade"
	"github.com/sarchlab/aiesim/geo"
	"github.com/sarchlab/aiesim/pipe"
	"github.com/sarchlab/aiesim/stream"
)

// DefaultNumPorts is the number of input and output ports of a tile switch
// unless configured otherwise.
const DefaultNumPorts = 8

// Builder can create new arrays.
type Builder struct {
	geo            geo.Geography
	programFactory func(x, y int) Program
	numIn, numOut  int
	hooks          []sim.Hook
	reportInterval time.Duration
	reportHandler  func(Report)
}

// MakeBuilder creates a builder for a single tile array.
func MakeBuilder() Builder {
	return Builder{
		geo:    geo.OnePE,
		numIn:  DefaultNumPorts,
		numOut: DefaultNumPorts,
	}
}

// WithGeography sets the shape of the array.
func (b Builder) WithGeography(g geo.Geography) Builder {
	b.geo = g
	return b
}

// WithProgram sets the program that every tile runs.
func (b Builder) WithProgram(p Program) Builder {
	b.programFactory = func(int, int) Program { return p }
	return b
}

// WithProgramFactory sets a function that picks the program of each tile.
// Returning nil leaves the tile idle.
func (b Builder) WithProgramFactory(f func(x, y int) Program) Builder {
	b.programFactory = f
	return b
}

// WithNumPorts sets the number of input and output ports of the switches.
func (b Builder) WithNumPorts(numIn, numOut int) Builder {
	if numIn < 0 || numOut < 0 {
		panic(fmt.Sprintf("invalid number of ports %d/%d", numIn, numOut))
	}

	b.numIn = numIn
	b.numOut = numOut

	return b
}

// WithHook attaches a hook to every channel of the array.
func (b Builder) WithHook(hook sim.Hook) Builder {
	hooks := make([]sim.Hook, 0, len(b.hooks)+1)
	hooks = append(hooks, b.hooks...)
	b.hooks = append(hooks, hook)

	return b
}

// WithDeadlockReport enables the watchdog that reports when all the running
// tiles are blocked and no data moves for an interval. The handler is
// optional. The watchdog only reports and never interrupts the tiles. Its
// goroutine stops in Wait, so an array that is never waited for, such as one
// left deadlocked, keeps the watchdog ticking.
func (b Builder) WithDeadlockReport(
	interval time.Duration,
	handler func(Report),
) Builder {
	b.reportInterval = interval
	b.reportHandler = handler

	return b
}

// Build creates an array.
func (b Builder) Build(name string) *Array {
	a := &Array{
		name:    name,
		geo:     b.geo,
		cascade: cascade.New(b.geo),
		toArray: make(map[ShimPort]*pipe.Channel),
		toHost:  make(map[ShimPort]*pipe.Channel),
	}

	a.hooks = append(a.hooks, b.hooks...)
	if b.reportInterval > 0 {
		a.watchdog = newWatchdog(b.reportInterval, b.reportHandler)
		a.hooks = append(a.hooks, a.watchdog)
	}

	for _, h := range a.hooks {
		a.cascade.AcceptHook(h)
	}

	b.buildTiles(a)

	return a
}

func (b Builder) buildTiles(a *Array) {
	a.tiles = make([]*Tile, b.geo.Size())

	for id := range a.tiles {
		x := b.geo.CascadeLinearX(id)
		y := b.geo.CascadeLinearY(id)

		t := &Tile{
			x:     x,
			y:     y,
			array: a,
			sw: stream.NewSwitch(
				fmt.Sprintf("%s.Tile_%d_%d.Switch", a.name, x, y),
				b.numIn, b.numOut),
			program: NopProgram{},
		}

		if b.programFactory != nil {
			if p := b.programFactory(x, y); p != nil {
				t.program = p
			}
		}

		a.tiles[id] = t
	}
}
