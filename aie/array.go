package aie

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/aiesim/cascade"
	"github.com/sarchlab/aiesim/geo"
	"github.com/sarchlab/aiesim/pipe"
	"github.com/sarchlab/aiesim/stream"
)

// An Array is a grid of tiles together with the cascade network and the
// connection table that link them.
type Array struct {
	name    string
	geo     geo.Geography
	tiles   []*Tile
	cascade *cascade.Network
	hooks   []sim.Hook

	lock    sync.Mutex
	conns   []Connection
	toArray map[ShimPort]*pipe.Channel
	toHost  map[ShimPort]*pipe.Channel
	started bool
	errs    []error

	wg       sync.WaitGroup
	running  atomic.Int32
	watchdog *watchdog
}

// Name returns the name of the array.
func (a *Array) Name() string {
	return a.name
}

// Geography returns the geography of the array.
func (a *Array) Geography() geo.Geography {
	return a.geo
}

// Cascade returns the cascade network of the array.
func (a *Array) Cascade() *cascade.Network {
	return a.cascade
}

// Tile returns the tile at (x, y).
func (a *Array) Tile(x, y int) *Tile {
	return a.tiles[a.geo.CascadeLinearID(x, y)]
}

// Tiles returns all the tiles in cascade order.
func (a *Array) Tiles() []*Tile {
	tiles := make([]*Tile, len(a.tiles))
	copy(tiles, a.tiles)

	return tiles
}

// Connections returns a copy of the connection table.
func (a *Array) Connections() []Connection {
	a.lock.Lock()
	defer a.lock.Unlock()

	conns := make([]Connection, len(a.conns))
	copy(conns, a.conns)

	return conns
}

// Connect links the src port to the dst port with a new channel. A tile source
// is an output port of the tile switch and a tile destination is an input
// port. A shim source is fed by the host and a shim destination is drained by
// the host. Connect must be called before Run.
func (a *Array) Connect(src, dst Port) error {
	a.lock.Lock()
	defer a.lock.Unlock()

	if a.started {
		return errors.Wrapf(ErrRunStarted, "cannot connect %s -> %s", src, dst)
	}

	if err := a.sourceMustBeFree(src); err != nil {
		return err
	}

	if err := a.destinationMustBeFree(dst); err != nil {
		return err
	}

	conn := Connection{Src: src, Dst: dst}
	conn.Channel = conn.String()
	ch := pipe.NewLabeled(
		fmt.Sprintf("Conn[%d]", len(a.conns)), conn.Channel)
	for _, h := range a.hooks {
		ch.AcceptHook(h)
	}

	if err := a.bindSource(src, ch); err != nil {
		return err
	}

	if err := a.bindDestination(dst, ch); err != nil {
		return err
	}

	a.conns = append(a.conns, conn)

	slog.Debug("Connect",
		"Array", a.name,
		"Src", src.String(),
		"Dst", dst.String(),
	)

	return nil
}

func (a *Array) sourceMustBeFree(src Port) error {
	switch p := src.(type) {
	case TilePort:
		return a.tilePortMustBeFree(p, stream.Output)
	case ShimPort:
		return a.shimPortMustBeFree(p, a.toArray)
	default:
		return errors.Wrapf(ErrInvalidPort, "unknown port %v", src)
	}
}

func (a *Array) destinationMustBeFree(dst Port) error {
	switch p := dst.(type) {
	case TilePort:
		return a.tilePortMustBeFree(p, stream.Input)
	case ShimPort:
		return a.shimPortMustBeFree(p, a.toHost)
	default:
		return errors.Wrapf(ErrInvalidPort, "unknown port %v", dst)
	}
}

func (a *Array) tilePortMustBeFree(p TilePort, dir stream.Direction) error {
	if !a.geo.IsValid(p.X, p.Y) {
		return errors.Wrapf(ErrInvalidPort, "%s is out of %s", p, a.geo)
	}

	sw := a.Tile(p.X, p.Y).sw
	if p.Index < 0 || p.Index >= sw.NumPorts(dir) {
		return errors.Wrapf(stream.ErrPortRange, "%s: %s[%d] not in [0, %d)",
			p, dir, p.Index, sw.NumPorts(dir))
	}

	if sw.IsBound(dir, p.Index) {
		return errors.Wrapf(ErrAlreadyBound, "%s: %s[%d]", p, dir, p.Index)
	}

	return nil
}

func (a *Array) shimPortMustBeFree(
	p ShimPort,
	table map[ShimPort]*pipe.Channel,
) error {
	if p.X < a.geo.XMin || p.X > a.geo.XMax || p.Y < 0 || p.Index < 0 {
		return errors.Wrapf(ErrInvalidPort, "%s is out of the %s edge",
			p, a.geo)
	}

	if ch, found := table[p]; found {
		return errors.Wrapf(ErrAlreadyBound, "%s: bound to %s", p, ch.Name())
	}

	return nil
}

func (a *Array) bindSource(src Port, ch *pipe.Channel) error {
	switch p := src.(type) {
	case TilePort:
		return a.Tile(p.X, p.Y).sw.BindOutput(p.Index, ch)
	case ShimPort:
		a.toArray[p] = ch
	}

	return nil
}

func (a *Array) bindDestination(dst Port, ch *pipe.Channel) error {
	switch p := dst.(type) {
	case TilePort:
		return a.Tile(p.X, p.Y).sw.BindInput(p.Index, ch)
	case ShimPort:
		a.toHost[p] = ch
	}

	return nil
}

// Run starts one goroutine per tile. Each goroutine runs the program of its
// tile once. The connection table is frozen from then on.
func (a *Array) Run() {
	a.lock.Lock()
	if a.started {
		a.lock.Unlock()
		panic(fmt.Sprintf("array %s is already running", a.name))
	}
	a.started = true
	for _, t := range a.tiles {
		t.sw.Freeze()
	}
	a.lock.Unlock()

	slog.Debug("Run",
		"Array", a.name,
		"Tiles", len(a.tiles),
		"Connections", len(a.conns),
	)

	a.running.Store(int32(len(a.tiles)))
	if a.watchdog != nil {
		go a.watchdog.watch(a)
	}

	a.wg.Add(len(a.tiles))
	for _, t := range a.tiles {
		go a.runTile(t)
	}
}

func (a *Array) runTile(t *Tile) {
	defer a.wg.Done()
	defer a.running.Add(-1)

	t.setStatus(StatusRunning)
	Trace("Tile", "Behavior", "Start", "X", t.x, "Y", t.y)

	err := t.run()
	if err != nil {
		t.setStatus(StatusFailed)
		a.recordError(errors.WithMessage(err, t.String()))
		Trace("Tile", "Behavior", "Fail", "X", t.x, "Y", t.y, "Error", err)

		return
	}

	t.setStatus(StatusDone)
	Trace("Tile", "Behavior", "Finish", "X", t.x, "Y", t.y)
}

func (a *Array) recordError(err error) {
	a.lock.Lock()
	defer a.lock.Unlock()

	a.errs = append(a.errs, err)
}

// Wait blocks until the programs of all the tiles have returned. It returns
// the errors of the failed tiles. Wait can be called any number of times.
func (a *Array) Wait() error {
	a.wg.Wait()

	if a.watchdog != nil {
		a.watchdog.stop()
	}

	a.lock.Lock()
	defer a.lock.Unlock()

	return stderrors.Join(a.errs...)
}

// IsRunning checks if Run has been called.
func (a *Array) IsRunning() bool {
	a.lock.Lock()
	defer a.lock.Unlock()

	return a.started
}

// NumRunning returns the number of tiles whose program has not returned yet.
func (a *Array) NumRunning() int {
	return int(a.running.Load())
}

func (a *Array) shimChannel(
	table map[ShimPort]*pipe.Channel,
	p ShimPort,
) (*pipe.Channel, error) {
	a.lock.Lock()
	defer a.lock.Unlock()

	ch, found := table[p]
	if !found {
		return nil, errors.Wrapf(ErrUnbound, "%s", p)
	}

	return ch, nil
}

// ShimOut returns a writer the host uses to send data into the array through
// a shim port used as a connection source.
func ShimOut[T any](
	a *Array,
	p ShimPort,
	mode pipe.Mode,
) (pipe.Writer[T], error) {
	ch, err := a.shimChannel(a.toArray, p)
	if err != nil {
		return pipe.Writer[T]{}, err
	}

	return pipe.NewWriter[T](ch, mode)
}

// ShimIn returns a reader the host uses to receive data from the array through
// a shim port used as a connection destination.
func ShimIn[T any](
	a *Array,
	p ShimPort,
	mode pipe.Mode,
) (pipe.Reader[T], error) {
	ch, err := a.shimChannel(a.toHost, p)
	if err != nil {
		return pipe.Reader[T]{}, err
	}

	return pipe.NewReader[T](ch, mode)
}
