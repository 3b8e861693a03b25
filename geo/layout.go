package geo

import (
	"fmt"

	"github.com/pkg/errors"
)

// Predefined layouts.
var (
	// OnePE is an array with a single tile.
	OnePE = Geography{XMin: 0, XMax: 0, YMin: 0, YMax: 0}

	// Small is a 4x2 array, handy for tests.
	Small = Geography{XMin: 0, XMax: 3, YMin: 0, YMax: 1}

	// Full is the complete 50x8 array of the device.
	Full = Geography{XMin: 0, XMax: 49, YMin: 0, YMax: 7}
)

// Size returns a width x height geography with the origin at (0, 0).
func Size(width, height int) Geography {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("invalid array size %dx%d", width, height))
	}

	return Geography{XMax: width - 1, YMax: height - 1}
}

// Lookup resolves a layout by name. The width and height are only used by the
// "size" layout.
func Lookup(name string, width, height int) (Geography, error) {
	switch name {
	case "one_pe":
		return OnePE, nil
	case "small":
		return Small, nil
	case "full":
		return Full, nil
	case "size":
		if width <= 0 || height <= 0 {
			return Geography{}, errors.Errorf(
				"layout size needs a positive width and height, got %dx%d",
				width, height)
		}

		return Size(width, height), nil
	default:
		return Geography{}, errors.Errorf("unknown layout %q", name)
	}
}
