package api

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/aiesim/aie"
	"github.com/sarchlab/aiesim/pipe"
)

var _ = Describe("Driver", func() {
	var (
		array  *aie.Array
		driver *Driver
	)

	BeforeEach(func() {
		array = aie.MakeBuilder().Build("Array")
		Expect(array.Connect(aie.ShimPort{}, aie.TilePort{})).To(Succeed())
		Expect(array.Connect(aie.TilePort{}, aie.ShimPort{})).To(Succeed())

		driver = NewDriver(array)
	})

	It("should handle FeedIn API", func() {
		data := []uint32{1, 2, 3, 4, 5, 6}

		Expect(FeedIn(driver, aie.ShimPort{}, data)).To(Succeed())

		Expect(driver.feedInTasks).To(HaveLen(1))
		Expect(driver.feedInTasks[0].port).To(Equal(aie.ShimPort{}))
		Expect(driver.feedInTasks[0].size).To(Equal(6))
		Expect(driver.feedInTasks[0].round).To(Equal(0))
	})

	It("should do feed in", func() {
		data := []uint32{1, 2, 3, 4, 5, 6}
		Expect(FeedIn(driver, aie.ShimPort{}, data)).To(Succeed())

		in, err := aie.In[uint32](array.Tile(0, 0), 0, pipe.NonBlocking)
		Expect(err).NotTo(HaveOccurred())

		Expect(driver.Tick()).To(BeTrue())
		Expect(driver.feedInTasks[0].round).To(Equal(pipe.Capacity))
		Expect(driver.Tick()).To(BeFalse())

		for _, want := range data[:2] {
			v, ok := in.Read()
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(want))
		}

		Expect(driver.Tick()).To(BeTrue())
		Expect(driver.feedInTasks).To(BeEmpty())

		for _, want := range data[2:] {
			v, _ := in.Read()
			Expect(v).To(Equal(want))
		}
	})

	It("should do collect", func() {
		dst := make([]uint32, 3)
		Expect(Collect(driver, aie.ShimPort{}, dst)).To(Succeed())

		out, err := aie.Out[uint32](array.Tile(0, 0), 0, pipe.NonBlocking)
		Expect(err).NotTo(HaveOccurred())

		Expect(driver.Tick()).To(BeFalse())

		out.Write(7)
		out.Write(8)
		Expect(driver.Tick()).To(BeTrue())
		Expect(driver.collectTasks[0].round).To(Equal(2))

		out.Write(9)
		Expect(driver.Tick()).To(BeTrue())
		Expect(driver.collectTasks).To(BeEmpty())
		Expect(dst).To(Equal([]uint32{7, 8, 9}))
	})

	It("should drop empty tasks", func() {
		Expect(FeedIn(driver, aie.ShimPort{}, []uint32{})).To(Succeed())
		Expect(Collect(driver, aie.ShimPort{}, []uint32{})).To(Succeed())

		Expect(driver.hasTasks()).To(BeTrue())
		Expect(driver.Tick()).To(BeFalse())
		Expect(driver.hasTasks()).To(BeFalse())
	})
})
