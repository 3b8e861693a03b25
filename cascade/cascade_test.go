package cascade_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/aiesim/cascade"
	"github.com/sarchlab/aiesim/geo"
)

var _ = Describe("Network", func() {
	shapes := []geo.Geography{
		geo.OnePE,
		geo.Small,
		geo.Full,
		geo.Size(1, 4),
		geo.Size(4, 1),
		geo.Size(3, 2),
		geo.Size(3, 3),
		{XMin: 1, XMax: 3, YMin: 1, YMax: 3},
	}

	for _, shape := range shapes {
		g := shape

		Context(g.String(), func() {
			var n *cascade.Network

			BeforeEach(func() {
				n = cascade.New(g)
			})

			It("should have one spare channel", func() {
				Expect(n.Len()).To(Equal(g.Size() + 1))
				Expect(n.Geography()).To(Equal(g))
			})

			It("should chain every tile to the next one", func() {
				for id := 0; id < g.Size()-1; id++ {
					x, y := g.CascadeLinearX(id), g.CascadeLinearY(id)
					nx, ny := g.CascadeLinearX(id+1), g.CascadeLinearY(id+1)

					Expect(n.Output(x, y)).To(BeIdenticalTo(n.Input(nx, ny)))
				}
			})

			It("should use a distinct input for every tile", func() {
				seen := map[string]bool{}
				for id := 1; id < g.Size(); id++ {
					name := n.Input(g.CascadeLinearX(id), g.CascadeLinearY(id)).Name()
					Expect(seen).NotTo(HaveKey(name))
					seen[name] = true
				}
			})

			It("should leave the ends unconnected", func() {
				sx, sy := g.XMin, g.YMin
				ex, ey := g.CascadeLinearX(g.Size()-1), g.CascadeLinearY(g.Size()-1)

				Expect(n.HasInput(sx, sy)).To(BeFalse())
				Expect(n.HasOutput(ex, ey)).To(BeFalse())
				Expect(func() { n.Input(sx, sy) }).
					To(PanicWith(MatchError(cascade.ErrUnconnectedEnd)))
				Expect(func() { n.Output(ex, ey) }).
					To(PanicWith(MatchError(cascade.ErrUnconnectedEnd)))
			})
		})
	}

	It("should index the channels with the row parity", func() {
		n := cascade.New(geo.Size(3, 2))

		Expect(n.Output(0, 0)).To(BeIdenticalTo(n.Channel(1)))
		Expect(n.Output(2, 0)).To(BeIdenticalTo(n.Channel(3)))
		Expect(n.Input(2, 1)).To(BeIdenticalTo(n.Channel(3)))
		Expect(n.Output(2, 1)).To(BeIdenticalTo(n.Channel(4)))
		Expect(n.Input(0, 1)).To(BeIdenticalTo(n.Channel(5)))
	})

	It("should move data along the chain", func() {
		n := cascade.New(geo.Size(2, 1))

		n.Output(0, 0).Write(42)

		Expect(n.Input(1, 0).Read()).To(Equal(42))
	})

	It("should panic on tiles out of the grid", func() {
		n := cascade.New(geo.Small)

		Expect(func() { n.Input(9, 0) }).To(PanicWith(BeAssignableToTypeOf(&geo.AddressError{})))
	})
})
