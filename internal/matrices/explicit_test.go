package matrices_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/matdyn/internal/matrices"
	"github.com/san-kum/matdyn/internal/symbolic"
)

func distinctSymbols(m *symbolic.Matrix) map[symbolic.Symbol]struct{} {
	out := make(map[symbolic.Symbol]struct{})
	for _, e := range m.Flatten() {
		if s, ok := e.(symbolic.Symbol); ok {
			out[s] = struct{}{}
		}
	}
	return out
}

var _ = Describe("Explicit", func() {
	It("names entries name_<row><col> from 1", func() {
		s, err := matrices.Explicit("x", 2, 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.At(0, 0)).To(Equal(symbolic.Expr(symbolic.NewSymbol("x_11"))))
		Expect(s.At(1, 2)).To(Equal(symbolic.Expr(symbolic.NewSymbol("x_23"))))
		Expect(distinctSymbols(s.Matrix())).To(HaveLen(6))
	})

	DescribeTable("diagonal matrices",
		func(n int) {
			s, err := matrices.Explicit("d", n, n, matrices.Diagonal())
			Expect(err).NotTo(HaveOccurred())
			m := s.Matrix()
			Expect(distinctSymbols(m)).To(HaveLen(n))
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					if i != j {
						Expect(m.At(i, j).IsZero()).To(BeTrue())
						Expect(s.IndexAt(i, j)).To(Equal(-1))
					}
				}
			}
		},
		Entry("1x1", 1),
		Entry("2x2", 2),
		Entry("4x4", 4),
	)

	DescribeTable("symmetric matrices",
		func(n int) {
			s, err := matrices.Explicit("p", n, n, matrices.Symmetric())
			Expect(err).NotTo(HaveOccurred())
			m := s.Matrix()
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					if i != j {
						Expect(m.At(i, j)).To(BeIdenticalTo(m.At(j, i)))
						Expect(s.IndexAt(i, j)).To(Equal(s.IndexAt(j, i)))
					}
				}
			}
			Expect(distinctSymbols(m)).To(HaveLen(n * (n + 1) / 2))
			Expect(s.Unknowns()).To(HaveLen(n * (n + 1) / 2))
		},
		Entry("2x2", 2),
		Entry("3x3", 3),
		Entry("5x5", 5),
	)

	It("lets diagonal win over symmetric", func() {
		s, err := matrices.Explicit("q", 3, 3, matrices.Symmetric(), matrices.Diagonal())
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Unknowns()).To(HaveLen(3))
		Expect(s.At(0, 1).IsZero()).To(BeTrue())
	})

	DescribeTable("rejects structure on non-square shapes",
		func(opt matrices.Option) {
			_, err := matrices.Explicit("a", 2, 3, opt)
			Expect(err).To(MatchError(matrices.ErrInvalidConfig))
		},
		Entry("symmetric", matrices.Symmetric()),
		Entry("diagonal", matrices.Diagonal()),
	)

	It("creates dynamic symbols on request", func() {
		s, err := matrices.Explicit("p", 2, 2, matrices.Dynamic(), matrices.Symmetric())
		Expect(err).NotTo(HaveOccurred())
		for _, u := range s.Unknowns() {
			Expect(u.Dynamic()).To(BeTrue())
		}
		Expect(s.At(0, 1).String()).To(Equal("p_12(t)"))
	})

	It("forwards assumptions to every symbol", func() {
		s, err := matrices.Explicit("r", 2, 2, matrices.WithAssumptions("real"))
		Expect(err).NotTo(HaveOccurred())
		for _, u := range s.Unknowns() {
			Expect(u.Assumptions()).To(Equal([]string{"real"}))
		}
	})

	It("orders unknowns row-major by first occurrence", func() {
		s, err := matrices.Explicit("p", 2, 2, matrices.Symmetric())
		Expect(err).NotTo(HaveOccurred())
		names := make([]string, 0, 3)
		for _, u := range s.Unknowns() {
			names = append(names, u.Name())
		}
		Expect(names).To(Equal([]string{"p_11", "p_12", "p_22"}))
	})
})
