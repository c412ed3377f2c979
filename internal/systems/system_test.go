package systems_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/matdyn/internal/dynamo"
	"github.com/san-kum/matdyn/internal/integrators"
	"github.com/san-kum/matdyn/internal/matrices"
	"github.com/san-kum/matdyn/internal/symbolic"
	"github.com/san-kum/matdyn/internal/systems"
	"github.com/san-kum/matdyn/internal/vectorize"
)

func explicit(name string, n int, opts ...matrices.Option) *symbolic.Matrix {
	s, err := matrices.Explicit(name, n, n, opts...)
	Expect(err).NotTo(HaveOccurred())
	return s.Matrix()
}

var _ = Describe("FromMatrixDE", func() {
	It("deduplicates a symmetric state", func() {
		p := explicit("p", 2, matrices.Symmetric(), matrices.Dynamic())
		sys, err := systems.FromMatrixDE(p, p)
		Expect(err).NotTo(HaveOccurred())

		Expect(sys.State).To(HaveLen(3))
		Expect(sys.Derivative).To(HaveLen(3))
		for i := range sys.State {
			Expect(sys.Derivative[i].Equal(sys.State[i])).To(BeTrue())
		}
		Expect(sys.Mapping.Index(0, 1)).To(Equal(sys.Mapping.Index(1, 0)))
	})

	It("round-trips general matrices", func() {
		x := explicit("x", 3)
		sys, err := systems.FromMatrixDE(x, x)
		Expect(err).NotTo(HaveOccurred())
		Expect(sys.State).To(HaveLen(9))
		Expect(sys.Derivative).To(Equal(sys.State))
	})

	It("defaults to no inputs and empty constants", func() {
		x := explicit("x", 2)
		sys, err := systems.FromMatrixDE(x, x)
		Expect(err).NotTo(HaveOccurred())
		Expect(sys.Inputs).To(BeEmpty())
		Expect(sys.Constants).NotTo(BeNil())
		Expect(sys.Constants).To(BeEmpty())
	})

	It("does not share default constants between systems", func() {
		x := explicit("x", 1)
		first, err := systems.FromMatrixDE(x, x)
		Expect(err).NotTo(HaveOccurred())
		first.Constants = append(first.Constants, symbolic.Rule{From: symbolic.NewSymbol("k"), To: symbolic.One()})

		second, err := systems.FromMatrixDE(x, x)
		Expect(err).NotTo(HaveOccurred())
		Expect(second.Constants).To(BeEmpty())
	})

	It("skips structural zeros of a diagonal state", func() {
		d := explicit("d", 3, matrices.Diagonal())
		sys, err := systems.FromMatrixDE(d, d)
		Expect(err).NotTo(HaveOccurred())
		Expect(sys.State).To(HaveLen(3))
		Expect(sys.Mapping.Index(0, 2)).To(Equal(vectorize.Zero))
	})

	Context("with aliased positions that disagree", func() {
		var p, de *symbolic.Matrix

		BeforeEach(func() {
			p = explicit("p", 2, matrices.Symmetric())
			var err error
			de, err = symbolic.FromRows([][]symbolic.Expr{
				{symbolic.One(), symbolic.Const(2)},
				{symbolic.Const(3), symbolic.One()},
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("lets the last position win by default", func() {
			sys, err := systems.FromMatrixDE(de, p)
			Expect(err).NotTo(HaveOccurred())
			idx := sys.Mapping.Index(0, 1)
			Expect(sys.Derivative[idx].Equal(symbolic.Const(3))).To(BeTrue())
		})

		It("fails in strict mode", func() {
			_, err := systems.FromMatrixDE(de, p, systems.Strict())
			Expect(err).To(MatchError(systems.ErrInconsistentAlias))
		})
	})

	It("accepts agreeing aliases in strict mode", func() {
		p := explicit("p", 2, matrices.Symmetric())
		a := explicit("a", 2)
		ap, err := a.Mul(p)
		Expect(err).NotTo(HaveOccurred())
		de, err := ap.Add(ap.T())
		Expect(err).NotTo(HaveOccurred())

		_, err = systems.FromMatrixDE(de, p, systems.Strict())
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects a derivative larger than the state", func() {
		_, err := systems.FromMatrixDE(explicit("x", 3), explicit("y", 2))
		Expect(err).To(MatchError(vectorize.ErrLookup))
	})

	It("rejects a derivative smaller than the state", func() {
		sys, err := systems.FromMatrixDE(explicit("y", 2), explicit("x", 3))
		Expect(err).To(MatchError(vectorize.ErrLookup))
		Expect(sys).To(BeNil())
	})
})

var _ = Describe("Compile", func() {
	It("integrates linear decay", func() {
		x := explicit("x", 1, matrices.Dynamic())
		k := symbolic.NewSymbol("k")
		de := symbolic.Diag(symbolic.Neg(symbolic.Mul(k, x.At(0, 0))))
		sys, err := systems.FromMatrixDE(de, x,
			systems.WithConstants(symbolic.Values(symbolic.Env{k: 2})))
		Expect(err).NotTo(HaveOccurred())

		compiled, err := sys.Compile()
		Expect(err).NotTo(HaveOccurred())
		Expect(compiled.StateDim()).To(Equal(1))
		Expect(compiled.Derive(dynamo.State{3}, nil, 0)).To(Equal(dynamo.State{-6}))
	})

	It("reads inputs and time from their slots", func() {
		x := explicit("x", 1)
		u := symbolic.NewSymbol("u")
		de := symbolic.Diag(symbolic.Add(u, systems.Time))
		sys, err := systems.FromMatrixDE(de, x, systems.WithInputs(u))
		Expect(err).NotTo(HaveOccurred())

		compiled, err := sys.Compile()
		Expect(err).NotTo(HaveOccurred())
		Expect(compiled.ControlDim()).To(Equal(1))
		dx := compiled.Derive(dynamo.State{0}, dynamo.Control{1.5}, 2)
		Expect(dx[0]).To(BeNumerically("~", 3.5, 1e-12))
	})

	It("fails on unbound constants", func() {
		x := explicit("x", 1)
		de := symbolic.Diag(symbolic.Mul(symbolic.NewSymbol("k"), x.At(0, 0)))
		sys, err := systems.FromMatrixDE(de, x)
		Expect(err).NotTo(HaveOccurred())

		_, err = sys.Compile()
		Expect(err).To(MatchError(symbolic.ErrUnbound))
	})

	It("rejects non-symbol state entries", func() {
		a := symbolic.NewSymbol("a")
		state := symbolic.Diag(symbolic.Mul(symbolic.Const(2), a))
		sys, err := systems.FromMatrixDE(state, state)
		Expect(err).NotTo(HaveOccurred())

		_, err = sys.Compile()
		Expect(err).To(MatchError(systems.ErrNotSymbol))
	})

	It("can be simulated", func() {
		x := explicit("x", 1, matrices.Dynamic())
		sys, err := systems.FromMatrixDE(x.Scale(-1), x)
		Expect(err).NotTo(HaveOccurred())
		compiled, err := sys.Compile()
		Expect(err).NotTo(HaveOccurred())

		cfg := dynamo.DefaultConfig()
		cfg.Dt, cfg.Duration = 0.001, 1
		res, err := dynamo.New(compiled, integrators.NewRK4(), nil).Run(context.Background(), dynamo.State{1}, cfg)
		Expect(err).NotTo(HaveOccurred())
		final := res.States[len(res.States)-1][0]
		Expect(final).To(BeNumerically("~", math.Exp(-1), 1e-9))
	})
})
