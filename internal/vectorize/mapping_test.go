package vectorize_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/matdyn/internal/symbolic"
	"github.com/san-kum/matdyn/internal/vectorize"
)

var (
	x = symbolic.NewSymbol("x")
	y = symbolic.NewSymbol("y")
	z = symbolic.NewSymbol("z")
)

func grid(rows [][]symbolic.Expr) *symbolic.Matrix {
	m, err := symbolic.FromRows(rows)
	Expect(err).NotTo(HaveOccurred())
	return m
}

var _ = Describe("Mapping", func() {
	It("deduplicates in row-major first-seen order", func() {
		m := vectorize.Of(grid([][]symbolic.Expr{{y, x}, {x, z}}))
		Expect(m.Len()).To(Equal(3))
		Expect(m.Unique()).To(Equal([]symbolic.Expr{y, x, z}))
		Expect(m.Index(0, 1)).To(Equal(m.Index(1, 0)))
		Expect(m.Index(1, 1)).To(Equal(2))
	})

	It("keeps symbols whose names contain separators distinct", func() {
		plain := symbolic.NewSymbol("x|d")
		dynamic := symbolic.NewDynamicSymbol("x")
		m := vectorize.Of(grid([][]symbolic.Expr{{plain, dynamic}}))
		Expect(m.Len()).To(Equal(2))
		Expect(m.Index(0, 0)).NotTo(Equal(m.Index(0, 1)))
	})

	It("treats zero entries as structural", func() {
		m := vectorize.Of(symbolic.Diag(x, y))
		Expect(m.Len()).To(Equal(2))
		Expect(m.Index(0, 1)).To(Equal(vectorize.Zero))
	})

	It("looks up entries and reports missing ones", func() {
		m := vectorize.Of(grid([][]symbolic.Expr{{x, y}}))
		idx, err := m.IndexOf(y)
		Expect(err).NotTo(HaveOccurred())
		Expect(idx).To(Equal(1))

		_, err = m.IndexOf(z)
		Expect(err).To(MatchError(vectorize.ErrLookup))
	})

	It("relates a supplied unique sequence to a raveled matrix", func() {
		m, err := vectorize.New([]symbolic.Expr{z, x, y}, grid([][]symbolic.Expr{{x, y}, {y, z}}))
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Index(0, 0)).To(Equal(1))
		Expect(m.Index(1, 0)).To(Equal(2))
		Expect(m.Index(1, 1)).To(Equal(0))
	})

	It("fails when a raveled entry is absent from the unique sequence", func() {
		_, err := vectorize.New([]symbolic.Expr{x}, grid([][]symbolic.Expr{{x, y}}))
		Expect(err).To(MatchError(vectorize.ErrLookup))
	})
})

var _ = Describe("Layout", func() {
	var layout vectorize.Layout

	BeforeEach(func() {
		layout = vectorize.Of(grid([][]symbolic.Expr{{x, y}, {y, symbolic.Zero()}})).Layout()
	})

	It("keeps names and the index grid", func() {
		Expect(layout.Names).To(Equal([]string{"x", "y"}))
		Expect(layout.Index).To(Equal([]int{0, 1, 1, vectorize.Zero}))
		Expect(layout.Validate()).To(Succeed())
	})

	It("scatters vector values back into aliased positions", func() {
		d := layout.Dense([]float64{3, 7})
		Expect(mat.Equal(d, mat.NewDense(2, 2, []float64{3, 7, 7, 0}))).To(BeTrue())
	})

	It("gathers a numeric matrix into vector form", func() {
		vec, err := layout.Gather(mat.NewDense(2, 2, []float64{1, 2, 2, 9}))
		Expect(err).NotTo(HaveOccurred())
		Expect(vec).To(Equal([]float64{1, 2}))

		_, err = layout.Gather(mat.NewDense(1, 2, nil))
		Expect(err).To(MatchError(symbolic.ErrDimensionMismatch))
	})

	It("lists the positions reading an entry", func() {
		Expect(layout.Positions(1)).To(Equal([][2]int{{0, 1}, {1, 0}}))
	})

	It("rejects out-of-range indices", func() {
		layout.Index[0] = 5
		Expect(layout.Validate()).To(MatchError(vectorize.ErrLookup))
	})
})
