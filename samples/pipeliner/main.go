package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/aiesim/aie"
	"github.com/sarchlab/aiesim/api"
	"github.com/sarchlab/aiesim/config"
	"github.com/sarchlab/aiesim/pipe"
)

//go:embed pipeliner.yaml
var pipelinerConfig []byte

const length = 16

// stage applies f to the values that flow through the tile. The first tile
// reads from the shim and the last one writes back to it.
func stage[I, O any](f func(I) O) aie.Program {
	return aie.ProgramFunc(func(t *aie.Tile) error {
		var (
			in  pipe.Reader[I]
			out pipe.Writer[O]
			err error
		)

		if t.IsCascadeStart() {
			in, err = aie.In[I](t, 0, pipe.Blocking)
		} else {
			in, err = aie.CascadeIn[I](t, pipe.Blocking)
		}
		if err != nil {
			return err
		}

		if t.IsCascadeEnd() {
			out, err = aie.Out[O](t, 0, pipe.Blocking)
		} else {
			out, err = aie.CascadeOut[O](t, pipe.Blocking)
		}
		if err != nil {
			return err
		}

		for i := 0; i < length; i++ {
			v, _ := in.Read()
			out.Write(f(v))
			aie.Trace("Stage", "Tile", t.String(), "In", v)
		}

		return nil
	})
}

func program(id int) aie.Program {
	switch id {
	case 0:
		return stage(func(x int) int { return x + 3 })
	case 1:
		return stage(func(x int) int { return x * 7 })
	case 2:
		return stage(func(x int) int { return x * x })
	case 3:
		return stage(func(x int) float64 { return float64(x) / 42 })
	default:
		return stage(func(x float64) float64 { return x })
	}
}

func pipeliner(c *config.Config) error {
	g, err := c.Geography()
	if err != nil {
		return err
	}

	array := c.Builder().
		WithProgramFactory(func(x, y int) aie.Program {
			return program(g.CascadeLinearID(x, y))
		}).
		Build(c.Name)

	if err := c.Connect(array); err != nil {
		return err
	}

	src := make([]int, length)
	dst := make([]float64, length)

	for i := range src {
		src[i] = i
	}

	driver := api.NewDriver(array)

	if err := api.FeedIn(driver, aie.ShimPort{}, src); err != nil {
		return err
	}

	if err := api.Collect(driver, aie.ShimPort{}, dst); err != nil {
		return err
	}

	if err := driver.Run(); err != nil {
		return err
	}

	fmt.Println(src)
	fmt.Println(dst)

	return nil
}

func main() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})

	slog.SetDefault(slog.New(handler))

	c, err := config.Parse(pipelinerConfig)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	if err := pipeliner(c); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
