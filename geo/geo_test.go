package geo_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"

	"github.com/sarchlab/aiesim/geo"
)

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func allTiles(g geo.Geography) [][2]int {
	tiles := [][2]int{}
	for y := g.YMin; y <= g.YMax; y++ {
		for x := g.XMin; x <= g.XMax; x++ {
			tiles = append(tiles, [2]int{x, y})
		}
	}

	return tiles
}

// endByRowParity locates the last cascade tile from the parity of the last
// row, the way hand-written tile programs usually do.
func endByRowParity(g geo.Geography, x, y int) bool {
	lastX := g.XMax
	if (y-g.YMin)&1 == 1 {
		lastX = g.XMin
	}

	return x == lastX && y == g.YMax
}

var shapes = []geo.Geography{
	geo.OnePE,
	geo.Small,
	geo.Full,
	geo.Size(1, 5),
	geo.Size(5, 1),
	geo.Size(3, 2),
	geo.Size(2, 3),
	geo.Size(7, 7),
	{XMin: 2, XMax: 4, YMin: 1, YMax: 3},
	{XMin: -1, XMax: 1, YMin: 3, YMax: 4},
}

var _ = Describe("Geography", func() {
	It("should compute sizes", func() {
		g := geo.Size(3, 2)

		Expect(g.XSize()).To(Equal(3))
		Expect(g.YSize()).To(Equal(2))
		Expect(g.Size()).To(Equal(6))
		Expect(g.String()).To(Equal("Geography[0..2, 0..1]"))
	})

	It("should reject inverted bounds", func() {
		_, err := geo.New(3, 2, 0, 0)
		Expect(err).To(HaveOccurred())
		_, traced := err.(stackTracer)
		Expect(traced).To(BeTrue())

		g, err := geo.New(1, 2, 3, 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(g.Size()).To(Equal(4))
	})

	It("should check bounds", func() {
		g := geo.Small

		Expect(g.IsValid(0, 0)).To(BeTrue())
		Expect(g.IsValid(3, 1)).To(BeTrue())
		Expect(g.IsValid(4, 1)).To(BeFalse())
		Expect(g.IsValid(0, -1)).To(BeFalse())
	})

	It("should follow a serpentine order", func() {
		g := geo.Size(3, 3)

		order := []int{}
		for id := 0; id < g.Size(); id++ {
			order = append(order,
				g.CascadeLinearX(id)*10+g.CascadeLinearY(id))
		}

		Expect(order).To(Equal([]int{
			0, 10, 20,
			21, 11, 1,
			2, 12, 22,
		}))
	})

	for _, shape := range shapes {
		g := shape

		Context(g.String(), func() {
			It("should start at the minimum corner", func() {
				Expect(g.CascadeLinearID(g.XMin, g.YMin)).To(Equal(0))
				Expect(g.IsCascadeStart(g.XMin, g.YMin)).To(BeTrue())
			})

			It("should assign every id exactly once", func() {
				seen := map[int]bool{}
				for _, t := range allTiles(g) {
					id := g.CascadeLinearID(t[0], t[1])
					Expect(id).To(BeNumerically(">=", 0))
					Expect(id).To(BeNumerically("<", g.Size()))
					Expect(seen).NotTo(HaveKey(id))
					seen[id] = true
				}

				Expect(seen).To(HaveLen(g.Size()))
			})

			It("should invert the linear id", func() {
				for _, t := range allTiles(g) {
					id := g.CascadeLinearID(t[0], t[1])
					Expect(g.CascadeLinearX(id)).To(Equal(t[0]))
					Expect(g.CascadeLinearY(id)).To(Equal(t[1]))
				}
			})

			It("should link neighbors only", func() {
				for id := 0; id < g.Size()-1; id++ {
					dx := g.CascadeLinearX(id+1) - g.CascadeLinearX(id)
					dy := g.CascadeLinearY(id+1) - g.CascadeLinearY(id)
					Expect(dx*dx + dy*dy).To(Equal(1))
				}
			})

			It("should agree with the row parity end formula", func() {
				ends := 0
				for _, t := range allTiles(g) {
					Expect(g.IsCascadeEnd(t[0], t[1])).
						To(Equal(endByRowParity(g, t[0], t[1])))
					if g.IsCascadeEnd(t[0], t[1]) {
						ends++
					}
				}

				Expect(ends).To(Equal(1))
			})
		})
	}

	It("should agree with the row parity formula on every small shape", func() {
		for w := 1; w <= 8; w++ {
			for h := 1; h <= 8; h++ {
				g := geo.Size(w, h)
				for _, t := range allTiles(g) {
					Expect(g.IsCascadeEnd(t[0], t[1])).
						To(Equal(endByRowParity(g, t[0], t[1])),
							"%s tile (%d, %d)", g, t[0], t[1])
				}
			}
		}
	})

	It("should not rely on absolute row parity", func() {
		g := geo.Geography{XMin: 0, XMax: 2, YMin: 1, YMax: 1}

		Expect(g.IsCascadeEnd(2, 1)).To(BeTrue())
		Expect(g.IsCascadeEnd(0, 1)).To(BeFalse())
		Expect(g.IsCascadeStart(0, 1)).To(BeTrue())
	})

	It("should panic on out of bounds coordinates", func() {
		g := geo.Small

		Expect(func() { g.CascadeLinearID(4, 0) }).
			To(PanicWith(BeAssignableToTypeOf(&geo.AddressError{})))
		Expect(func() { g.IsCascadeEnd(0, 2) }).To(Panic())
		Expect(func() { g.IsCascadeStart(-1, 0) }).To(Panic())
	})

	It("should panic on out of range ids", func() {
		g := geo.Small

		Expect(func() { g.CascadeLinearX(8) }).
			To(PanicWith(MatchError(ContainSubstring("cascade id 8"))))
		Expect(func() { g.CascadeLinearY(-1) }).To(Panic())
	})
})

var _ = Describe("Layout", func() {
	It("should define the predefined layouts", func() {
		Expect(geo.OnePE.Size()).To(Equal(1))
		Expect(geo.Small.Size()).To(Equal(8))
		Expect(geo.Full.Size()).To(Equal(400))
	})

	It("should look up layouts by name", func() {
		g, err := geo.Lookup("size", 3, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(g).To(Equal(geo.Size(3, 2)))

		g, err = geo.Lookup("one_pe", 0, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(g).To(Equal(geo.OnePE))

		_, err = geo.Lookup("size", 0, 2)
		Expect(err).To(HaveOccurred())

		_, err = geo.Lookup("torus", 1, 1)
		Expect(err).To(MatchError(ContainSubstring("unknown layout")))
		_, traced := err.(stackTracer)
		Expect(traced).To(BeTrue())
	})

	It("should panic on empty sizes", func() {
		Expect(func() { geo.Size(0, 1) }).To(Panic())
	})
})
