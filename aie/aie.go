// Package aie models an AI Engine array: a grid of tiles, each running its own
// goroutine, that exchange data over stream switch connections and over the
// cascade stream.
//
// A typical simulation builds an Array, connects ports, starts the tiles with
// Run, and waits for all of them with Wait:
//
//	a := aie.MakeBuilder().
//		WithGeography(geo.Size(3, 2)).
//		WithProgram(aie.ProgramFunc(kernel)).
//		Build("Array")
//
//	err := a.Connect(aie.ShimPort{}, aie.TilePort{})
//	a.Run()
//	err = a.Wait()
package aie

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/sarchlab/aiesim/stream"
)

// LevelTrace is the log level of the per-tile execution traces.
const LevelTrace slog.Level = slog.LevelDebug - 4

// Trace logs a tile execution event.
func Trace(msg string, args ...any) {
	slog.Log(context.Background(), LevelTrace, msg, args...)
}

// Configuration errors of the array. They all match ErrConfiguration with
// errors.Is.
var (
	ErrConfiguration = stream.ErrConfiguration
	ErrUnbound       = stream.ErrUnbound
	ErrAlreadyBound  = stream.ErrAlreadyBound
	ErrRunStarted    = errors.Wrap(ErrConfiguration, "array already running")
	ErrInvalidPort   = errors.Wrap(ErrConfiguration, "invalid port")
)

// A Port is one end of a connection.
type Port interface {
	fmt.Stringer

	isPort()
}

// TilePort is a port of the stream switch of the tile at (X, Y).
type TilePort struct {
	X, Y, Index int
}

func (TilePort) isPort() {}

func (p TilePort) String() string {
	return fmt.Sprintf("tile(%d,%d,%d)", p.X, p.Y, p.Index)
}

// ShimPort is a port of the array edge interface toward the host or the
// network-on-chip. X is the column of the shim tile, Y selects the shim
// interface and Index the port in that interface.
type ShimPort struct {
	X, Y, Index int
}

func (ShimPort) isPort() {}

func (p ShimPort) String() string {
	return fmt.Sprintf("shim(%d,%d,%d)", p.X, p.Y, p.Index)
}

// A Connection is an entry of the connection table of an array.
type Connection struct {
	Src, Dst Port
	Channel  string
}

func (c Connection) String() string {
	return fmt.Sprintf("%s -> %s", c.Src, c.Dst)
}
