// Package geo defines the geography of an AI Engine array, i.e., the
// rectangular bounds of the tile grid and the serpentine addressing of the
// cascade stream that visits every tile once.
package geo

import (
	"fmt"

	"github.com/pkg/errors"
)

// An AddressError is raised (as a panic value) when a coordinate or a cascade
// id falls outside of a Geography.
type AddressError struct {
	Geo   Geography
	X, Y  int
	ID    int
	IsID  bool
	Query string
}

func (e *AddressError) Error() string {
	if e.IsID {
		return fmt.Sprintf("%s: cascade id %d out of range [0, %d) in %s",
			e.Query, e.ID, e.Geo.Size(), e.Geo)
	}

	return fmt.Sprintf("%s: tile (%d, %d) out of %s",
		e.Query, e.X, e.Y, e.Geo)
}

// Geography holds the inclusive bounds of a tile grid.
type Geography struct {
	XMin, XMax int
	YMin, YMax int
}

// New creates a geography from inclusive bounds.
func New(xMin, xMax, yMin, yMax int) (Geography, error) {
	if xMax < xMin || yMax < yMin {
		return Geography{}, errors.Errorf(
			"invalid geography bounds x[%d..%d] y[%d..%d]",
			xMin, xMax, yMin, yMax)
	}

	return Geography{XMin: xMin, XMax: xMax, YMin: yMin, YMax: yMax}, nil
}

// XSize returns the number of columns.
func (g Geography) XSize() int {
	return g.XMax - g.XMin + 1
}

// YSize returns the number of rows.
func (g Geography) YSize() int {
	return g.YMax - g.YMin + 1
}

// Size returns the number of tiles.
func (g Geography) Size() int {
	return g.XSize() * g.YSize()
}

// IsValid checks if (x, y) is a tile of the geography.
func (g Geography) IsValid(x, y int) bool {
	return x >= g.XMin && x <= g.XMax && y >= g.YMin && y <= g.YMax
}

// CascadeLinearID returns the position of the tile along the cascade stream.
// Even rows (counted from YMin) flow toward XMax, odd rows flow back toward
// XMin.
func (g Geography) CascadeLinearID(x, y int) int {
	g.mustBeValid("CascadeLinearID", x, y)

	row := y - g.YMin

	return g.XSize()*row + g.column(x, row)
}

// CascadeLinearX returns the x coordinate of the tile with the given cascade
// id.
func (g Geography) CascadeLinearX(id int) int {
	g.mustBeValidID("CascadeLinearX", id)

	row := id / g.XSize()
	offset := id % g.XSize()
	if row&1 == 1 {
		return g.XMax - offset
	}

	return g.XMin + offset
}

// CascadeLinearY returns the y coordinate of the tile with the given cascade
// id.
func (g Geography) CascadeLinearY(id int) int {
	g.mustBeValidID("CascadeLinearY", id)

	return g.YMin + id/g.XSize()
}

// IsCascadeStart checks if the tile is the first one on the cascade stream.
func (g Geography) IsCascadeStart(x, y int) bool {
	return g.CascadeLinearID(x, y) == 0
}

// IsCascadeEnd checks if the tile is the last one on the cascade stream.
func (g Geography) IsCascadeEnd(x, y int) bool {
	return g.CascadeLinearID(x, y) == g.Size()-1
}

func (g Geography) String() string {
	return fmt.Sprintf("Geography[%d..%d, %d..%d]",
		g.XMin, g.XMax, g.YMin, g.YMax)
}

func (g Geography) column(x, row int) int {
	if row&1 == 1 {
		return g.XMax - x
	}

	return x - g.XMin
}

func (g Geography) mustBeValid(query string, x, y int) {
	if !g.IsValid(x, y) {
		panic(&AddressError{Geo: g, X: x, Y: y, Query: query})
	}
}

func (g Geography) mustBeValidID(query string, id int) {
	if id < 0 || id >= g.Size() {
		panic(&AddressError{Geo: g, ID: id, IsID: true, Query: query})
	}
}
