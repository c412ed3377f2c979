package matrices_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/matdyn/internal/matrices"
	"github.com/san-kum/matdyn/internal/symbolic"
)

func scalar(name string) *symbolic.Matrix {
	return symbolic.Diag(symbolic.NewSymbol(name))
}

var _ = Describe("Block", func() {
	It("joins a 2x2 grid of scalars", func() {
		out, err := matrices.Block([][]*symbolic.Matrix{
			{scalar("a"), scalar("b")},
			{scalar("c"), scalar("d")},
		})
		Expect(err).NotTo(HaveOccurred())

		want, err := symbolic.FromRows([][]symbolic.Expr{
			{symbolic.NewSymbol("a"), symbolic.NewSymbol("b")},
			{symbolic.NewSymbol("c"), symbolic.NewSymbol("d")},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Equal(want)).To(BeTrue())
	})

	It("composes mixed block sizes", func() {
		p, err := matrices.Explicit("p", 2, 2, matrices.Symmetric())
		Expect(err).NotTo(HaveOccurred())
		out, err := matrices.Block([][]*symbolic.Matrix{
			{p.Matrix(), symbolic.Zeros(2, 1)},
			{symbolic.Zeros(1, 2), scalar("s")},
		})
		Expect(err).NotTo(HaveOccurred())
		r, c := out.Dims()
		Expect([]int{r, c}).To(Equal([]int{3, 3}))
		Expect(out.At(2, 2)).To(Equal(symbolic.Expr(symbolic.NewSymbol("s"))))
		Expect(out.At(1, 0)).To(Equal(p.At(0, 1)))
	})

	It("surfaces row count mismatches within a row", func() {
		_, err := matrices.Block([][]*symbolic.Matrix{{scalar("a"), symbolic.Zeros(2, 1)}})
		Expect(err).To(MatchError(matrices.ErrDimensionMismatch))
	})

	It("surfaces column count mismatches across rows", func() {
		_, err := matrices.Block([][]*symbolic.Matrix{
			{scalar("a"), scalar("b")},
			{scalar("c")},
		})
		Expect(err).To(MatchError(matrices.ErrDimensionMismatch))
	})

	It("rejects an empty grid", func() {
		_, err := matrices.Block(nil)
		Expect(err).To(MatchError(matrices.ErrDimensionMismatch))
	})
})
