package matrices_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/matdyn/internal/matrices"
	"github.com/san-kum/matdyn/internal/symbolic"
)

var _ = Describe("Subs", func() {
	var a, b *symbolic.Matrix

	BeforeEach(func() {
		sa, err := matrices.Explicit("a", 2, 3)
		Expect(err).NotTo(HaveOccurred())
		sb, err := matrices.Explicit("b", 2, 3)
		Expect(err).NotTo(HaveOccurred())
		a, b = sa.Matrix(), sb.Matrix()
	})

	It("emits one rule per position for a matrix without zeros", func() {
		rules, err := matrices.Subs(a, b)
		Expect(err).NotTo(HaveOccurred())
		Expect(rules).To(HaveLen(6))
		k := 0
		for i := 0; i < 2; i++ {
			for j := 0; j < 3; j++ {
				Expect(rules[k].From).To(Equal(a.At(i, j)))
				Expect(rules[k].To).To(Equal(b.At(i, j)))
				k++
			}
		}
	})

	It("prunes structural zeros of the source", func() {
		d, err := matrices.Explicit("d", 3, 3, matrices.Diagonal())
		Expect(err).NotTo(HaveOccurred())
		full, err := matrices.Explicit("f", 3, 3)
		Expect(err).NotTo(HaveOccurred())

		rules, err := matrices.Subs(d.Matrix(), full.Matrix())
		Expect(err).NotTo(HaveOccurred())
		Expect(rules).To(HaveLen(3))
	})

	It("concatenates pairs in order", func() {
		rules, err := matrices.SubsPairs(
			matrices.Pair{From: a, To: b},
			matrices.Pair{From: b, To: a},
		)
		Expect(err).NotTo(HaveOccurred())
		Expect(rules).To(HaveLen(12))
		Expect(rules[6].From).To(Equal(b.At(0, 0)))
	})

	It("produces the same correspondence from a keyed map", func() {
		m, err := matrices.SubsMap(map[*symbolic.Matrix]*symbolic.Matrix{a: b})
		Expect(err).NotTo(HaveOccurred())
		rules, err := matrices.Subs(a, b)
		Expect(err).NotTo(HaveOccurred())
		Expect(m).To(Equal(rules.Map()))
	})

	It("rejects pairs with different shapes", func() {
		_, err := matrices.Subs(a, symbolic.Zeros(3, 2))
		Expect(err).To(MatchError(matrices.ErrDimensionMismatch))

		_, err = matrices.SubsMap(map[*symbolic.Matrix]*symbolic.Matrix{a: symbolic.Zeros(1, 1)})
		Expect(err).To(MatchError(matrices.ErrDimensionMismatch))
	})

	It("drives symbolic substitution", func() {
		rules, err := matrices.Subs(a, b)
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Subs(rules).Equal(b)).To(BeTrue())
	})
})
