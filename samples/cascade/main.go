package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/aiesim/aie"
	"github.com/sarchlab/aiesim/geo"
	"github.com/sarchlab/aiesim/pipe"
)

// cascadeStream makes every tile except the first read the stamp of the
// previous tile, and every tile except the last send its own stamp,
// x*0x1000 + y, to the next tile.
func cascadeStream(t *aie.Tile) error {
	if !t.IsCascadeStart() {
		in, err := aie.CascadeIn[int](t, pipe.Blocking)
		if err != nil {
			return err
		}

		v, _ := in.Read()
		slog.Info("Received",
			"Tile", t.String(),
			"ID", t.LinearID(),
			"Value", fmt.Sprintf("%#x", v))
	}

	if !t.IsCascadeEnd() {
		out, err := aie.CascadeOut[int](t, pipe.Blocking)
		if err != nil {
			return err
		}

		out.Write(t.X()*0x1000 + t.Y())
	}

	return nil
}

func main() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})

	slog.SetDefault(slog.New(handler))

	array := aie.MakeBuilder().
		WithGeography(geo.Small).
		WithProgram(aie.ProgramFunc(cascadeStream)).
		Build("Cascade")

	array.Run()

	if err := array.Wait(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	array.Dump(os.Stdout)

	atexit.Exit(0)
}
