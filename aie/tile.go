package aie

import (
	"fmt"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/sarchlab/aiesim/cascade"
	"github.com/sarchlab/aiesim/pipe"
	"github.com/sarchlab/aiesim/stream"
)

// Status is the execution state of a tile.
type Status int32

// Tile states.
const (
	StatusIdle Status = iota
	StatusRunning
	StatusDone
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int32(s))
	}
}

// A Tile is one compute unit of the array. It owns a stream switch and runs
// its program on its own goroutine.
type Tile struct {
	x, y    int
	array   *Array
	sw      *stream.Switch
	program Program
	status  atomic.Int32
}

// Position returns the coordinate of the tile.
func (t *Tile) Position() (x, y int) {
	return t.x, t.y
}

// X returns the column of the tile.
func (t *Tile) X() int {
	return t.x
}

// Y returns the row of the tile.
func (t *Tile) Y() int {
	return t.y
}

// LinearID returns the position of the tile along the cascade stream.
func (t *Tile) LinearID() int {
	return t.array.geo.CascadeLinearID(t.x, t.y)
}

// IsCascadeStart checks if the tile is the first of the cascade stream.
func (t *Tile) IsCascadeStart() bool {
	return t.array.geo.IsCascadeStart(t.x, t.y)
}

// IsCascadeEnd checks if the tile is the last of the cascade stream.
func (t *Tile) IsCascadeEnd() bool {
	return t.array.geo.IsCascadeEnd(t.x, t.y)
}

// Switch returns the stream switch of the tile.
func (t *Tile) Switch() *stream.Switch {
	return t.sw
}

// Array returns the array that owns the tile.
func (t *Tile) Array() *Array {
	return t.array
}

// Status returns the execution state of the tile.
func (t *Tile) Status() Status {
	return Status(t.status.Load())
}

func (t *Tile) String() string {
	return fmt.Sprintf("Tile(%d, %d)", t.x, t.y)
}

func (t *Tile) setStatus(s Status) {
	t.status.Store(int32(s))
}

func (t *Tile) run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = errors.WithMessage(e, "panic")
				return
			}

			err = errors.Errorf("panic: %v", r)
		}
	}()

	return t.program.Run(t)
}

// In returns a reader over an input port of the tile switch.
func In[T any](t *Tile, port int, mode pipe.Mode) (pipe.Reader[T], error) {
	ch, err := t.sw.In(port)
	if err != nil {
		return pipe.Reader[T]{}, err
	}

	return tileReader[T](t, ch, mode)
}

// Out returns a writer over an output port of the tile switch.
func Out[T any](t *Tile, port int, mode pipe.Mode) (pipe.Writer[T], error) {
	ch, err := t.sw.Out(port)
	if err != nil {
		return pipe.Writer[T]{}, err
	}

	return tileWriter[T](t, ch, mode)
}

// CascadeIn returns a reader over the cascade stream coming from the previous
// tile. The first tile of the cascade has no such stream.
func CascadeIn[T any](t *Tile, mode pipe.Mode) (pipe.Reader[T], error) {
	net := t.array.cascade
	if !net.HasInput(t.x, t.y) {
		return pipe.Reader[T]{}, errors.Wrapf(cascade.ErrUnconnectedEnd,
			"%s has no cascade input", t)
	}

	return tileReader[T](t, net.Input(t.x, t.y), mode)
}

// CascadeOut returns a writer over the cascade stream going to the next tile.
// The last tile of the cascade has no such stream.
func CascadeOut[T any](t *Tile, mode pipe.Mode) (pipe.Writer[T], error) {
	net := t.array.cascade
	if !net.HasOutput(t.x, t.y) {
		return pipe.Writer[T]{}, errors.Wrapf(cascade.ErrUnconnectedEnd,
			"%s has no cascade output", t)
	}

	return tileWriter[T](t, net.Output(t.x, t.y), mode)
}

// tileReader tags the waits of the reader with the tile, so that the watchdog
// can tell blocked tiles from blocked host goroutines.
func tileReader[T any](
	t *Tile,
	ch *pipe.Channel,
	mode pipe.Mode,
) (pipe.Reader[T], error) {
	r, err := pipe.NewReader[T](ch, mode)
	if err != nil {
		return r, err
	}

	return r.WithCaller(t), nil
}

func tileWriter[T any](
	t *Tile,
	ch *pipe.Channel,
	mode pipe.Mode,
) (pipe.Writer[T], error) {
	w, err := pipe.NewWriter[T](ch, mode)
	if err != nil {
		return w, err
	}

	return w.WithCaller(t), nil
}
