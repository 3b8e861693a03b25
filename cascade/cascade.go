// Package cascade provides the cascade stream network, a chain of channels
// that goes through every tile of the array in serpentine order.
package cascade

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/aiesim/geo"
	"github.com/sarchlab/aiesim/pipe"
)

// ErrUnconnectedEnd is reported when the input of the first tile or the output
// of the last tile of the cascade is requested.
var ErrUnconnectedEnd = errors.New("unconnected cascade end")

// A Network holds the cascade channels of an array. There is one spare channel
// on each side of the tile chain, so a grid of N tiles uses N+1 channels.
type Network struct {
	geo   geo.Geography
	pipes []*pipe.Channel
}

// New creates the cascade network of the given geography.
func New(g geo.Geography) *Network {
	n := &Network{
		geo:   g,
		pipes: make([]*pipe.Channel, g.Size()+1),
	}

	for i := range n.pipes {
		n.pipes[i] = pipe.New(fmt.Sprintf("Cascade[%d]", i))
	}

	return n
}

// Geography returns the geography the network is built for.
func (n *Network) Geography() geo.Geography {
	return n.geo
}

// Len returns the number of channels in the network.
func (n *Network) Len() int {
	return len(n.pipes)
}

// Channel returns the i-th channel of the network.
func (n *Network) Channel(i int) *pipe.Channel {
	return n.pipes[i]
}

// AcceptHook attaches a hook to every channel of the network.
func (n *Network) AcceptHook(hook sim.Hook) {
	for _, p := range n.pipes {
		p.AcceptHook(hook)
	}
}

// HasInput checks if the tile reads from a connected cascade channel.
func (n *Network) HasInput(x, y int) bool {
	return !n.geo.IsCascadeStart(x, y)
}

// HasOutput checks if the tile writes to a connected cascade channel.
func (n *Network) HasOutput(x, y int) bool {
	return !n.geo.IsCascadeEnd(x, y)
}

// Input returns the channel the tile reads its cascade stream from. On odd
// rows the stream flows from XMax to XMin, so the column is mirrored.
func (n *Network) Input(x, y int) *pipe.Channel {
	if !n.HasInput(x, y) {
		panic(errors.Wrapf(ErrUnconnectedEnd,
			"tile (%d, %d) has no cascade input", x, y))
	}

	return n.pipes[n.index(x, y)]
}

// Output returns the channel the tile writes its cascade stream to.
func (n *Network) Output(x, y int) *pipe.Channel {
	if !n.HasOutput(x, y) {
		panic(errors.Wrapf(ErrUnconnectedEnd,
			"tile (%d, %d) has no cascade output", x, y))
	}

	return n.pipes[n.index(x, y)+1]
}

func (n *Network) index(x, y int) int {
	row := y - n.geo.YMin
	if row&1 == 1 {
		return n.geo.XSize()*row + n.geo.XMax - x
	}

	return n.geo.XSize()*row + x - n.geo.XMin
}
