// Package stream provides the per-tile stream switch that routes numbered
// ports to the channels of the array.
package stream

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/sarchlab/aiesim/pipe"
)

// ErrConfiguration is the root of all the topology configuration errors.
var ErrConfiguration = errors.New("configuration error")

// Configuration errors reported by the switch.
var (
	ErrUnbound      = errors.Wrap(ErrConfiguration, "port not bound")
	ErrAlreadyBound = errors.Wrap(ErrConfiguration, "port already bound")
	ErrPortRange    = errors.Wrap(ErrConfiguration, "port out of range")
	ErrFrozen       = errors.Wrap(ErrConfiguration, "switch already frozen")
)

// Direction tells the input namespace from the output namespace of a switch.
type Direction int

const (
	// Input ports carry data into the tile.
	Input Direction = iota

	// Output ports carry data out of the tile.
	Output
)

func (d Direction) String() string {
	if d == Input {
		return "in"
	}

	return "out"
}

// A Switch maps port indices to channels. It never buffers data itself.
type Switch struct {
	lock sync.RWMutex

	name   string
	numIn  int
	numOut int
	in     map[int]*pipe.Channel
	out    map[int]*pipe.Channel
	frozen bool
}

// NewSwitch creates an empty switch with numIn input ports and numOut output
// ports.
func NewSwitch(name string, numIn, numOut int) *Switch {
	return &Switch{
		name:   name,
		numIn:  numIn,
		numOut: numOut,
		in:     make(map[int]*pipe.Channel),
		out:    make(map[int]*pipe.Channel),
	}
}

// Name returns the name of the switch.
func (s *Switch) Name() string {
	return s.name
}

// NumPorts returns the number of ports in the given direction.
func (s *Switch) NumPorts(dir Direction) int {
	if dir == Input {
		return s.numIn
	}

	return s.numOut
}

// BindInput connects an input port to a channel.
func (s *Switch) BindInput(port int, ch *pipe.Channel) error {
	return s.bind(Input, port, ch)
}

// BindOutput connects an output port to a channel.
func (s *Switch) BindOutput(port int, ch *pipe.Channel) error {
	return s.bind(Output, port, ch)
}

// IsBound checks if a port is connected to a channel.
func (s *Switch) IsBound(dir Direction, port int) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()

	_, found := s.table(dir)[port]

	return found
}

// In returns the channel bound to an input port.
func (s *Switch) In(port int) (*pipe.Channel, error) {
	return s.lookup(Input, port)
}

// Out returns the channel bound to an output port.
func (s *Switch) Out(port int) (*pipe.Channel, error) {
	return s.lookup(Output, port)
}

// InputPorts returns the bound input ports in ascending order.
func (s *Switch) InputPorts() []int {
	return s.ports(Input)
}

// OutputPorts returns the bound output ports in ascending order.
func (s *Switch) OutputPorts() []int {
	return s.ports(Output)
}

// Freeze rejects any later binding.
func (s *Switch) Freeze() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.frozen = true
}

func (s *Switch) bind(dir Direction, port int, ch *pipe.Channel) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.frozen {
		return errors.Wrapf(ErrFrozen, "%s: cannot bind %s[%d]",
			s.name, dir, port)
	}

	if port < 0 || port >= s.NumPorts(dir) {
		return errors.Wrapf(ErrPortRange, "%s: %s[%d] not in [0, %d)",
			s.name, dir, port, s.NumPorts(dir))
	}

	table := s.table(dir)
	if prev, found := table[port]; found {
		return errors.Wrapf(ErrAlreadyBound, "%s: %s[%d] bound to %s",
			s.name, dir, port, prev.Name())
	}

	table[port] = ch

	return nil
}

func (s *Switch) lookup(dir Direction, port int) (*pipe.Channel, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	ch, found := s.table(dir)[port]
	if !found {
		return nil, errors.Wrapf(ErrUnbound, "%s: %s[%d]", s.name, dir, port)
	}

	return ch, nil
}

func (s *Switch) ports(dir Direction) []int {
	s.lock.RLock()
	defer s.lock.RUnlock()

	ports := make([]int, 0, len(s.table(dir)))
	for p := range s.table(dir) {
		ports = append(ports, p)
	}
	sort.Ints(ports)

	return ports
}

func (s *Switch) table(dir Direction) map[int]*pipe.Channel {
	if dir == Input {
		return s.in
	}

	return s.out
}
