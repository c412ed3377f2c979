package trajectory_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/matdyn/internal/matrices"
	"github.com/san-kum/matdyn/internal/symbolic"
	"github.com/san-kum/matdyn/internal/trajectory"
	"github.com/san-kum/matdyn/internal/vectorize"
)

var _ = Describe("MatrixCallableFromVectorTrajectory", func() {
	var (
		tt        []float64
		samples   *mat.Dense
		raveled   *symbolic.Matrix
		unraveled []symbolic.Expr
	)

	BeforeEach(func() {
		p, err := matrices.Explicit("p", 2, 2, matrices.Symmetric())
		Expect(err).NotTo(HaveOccurred())
		raveled = p.Matrix()
		unraveled = p.Mapping().Unique()
		Expect(unraveled).To(HaveLen(3))

		tt = []float64{0, 1, 2}
		samples = mat.NewDense(3, 3, []float64{
			1, 0, 0,
			0, 1, 0,
			0, 0, 1,
		})
	})

	It("returns a symmetric matrix for a scalar query", func() {
		f, err := trajectory.MatrixCallableFromVectorTrajectory(tt, samples, unraveled, raveled)
		Expect(err).NotTo(HaveOccurred())

		out, err := f.Eval(0.5)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Shape()).To(Equal([]int{2, 2}))
		Expect(out.At(0, 0)).To(BeNumerically("~", 0.5, 1e-12))
		Expect(out.At(0, 1)).To(BeNumerically("~", 0.5, 1e-12))
		Expect(out.At(1, 0)).To(Equal(out.At(0, 1)))
		Expect(out.At(1, 1)).To(BeNumerically("~", 0, 1e-12))
	})

	It("stacks a batch query", func() {
		f, err := trajectory.MatrixCallableFromVectorTrajectory(tt, samples, unraveled, raveled)
		Expect(err).NotTo(HaveOccurred())

		out, err := f.Eval(0.5, 1.5)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Shape()).To(Equal([]int{2, 2, 2}))
		for k := 0; k < 2; k++ {
			m := out.Slice(k)
			Expect(m.At(0, 1)).To(Equal(m.At(1, 0)))
		}
		Expect(out.At(1, 1, 1)).To(BeNumerically("~", 0.5, 1e-12))
		Expect(mat.Equal(out.Slice(0), f.At(0.5))).To(BeTrue())
	})

	It("is idempotent", func() {
		f, err := trajectory.MatrixCallableFromVectorTrajectory(tt, samples, unraveled, raveled)
		Expect(err).NotTo(HaveOccurred())

		first, err := f.Eval(1.25)
		Expect(err).NotTo(HaveOccurred())
		second, err := f.Eval(1.25)
		Expect(err).NotTo(HaveOccurred())
		Expect(first.Equal(second)).To(BeTrue())
	})

	It("reproduces samples at sample times", func() {
		f, err := trajectory.MatrixCallableFromVectorTrajectory(tt, samples, unraveled, raveled)
		Expect(err).NotTo(HaveOccurred())
		Expect(mat.Equal(f.At(1), mat.NewDense(2, 2, []float64{0, 1, 1, 0}))).To(BeTrue())
	})

	It("clamps outside the sampled range", func() {
		f, err := trajectory.MatrixCallableFromVectorTrajectory(tt, samples, unraveled, raveled)
		Expect(err).NotTo(HaveOccurred())
		Expect(f.At(-1).At(0, 0)).To(BeNumerically("~", 1, 1e-12))
		Expect(f.At(5).At(1, 1)).To(BeNumerically("~", 1, 1e-12))
	})

	It("fails when an entry is missing from the unique sequence", func() {
		_, err := trajectory.MatrixCallableFromVectorTrajectory(tt, samples, unraveled[:2], raveled)
		Expect(err).To(MatchError(vectorize.ErrLookup))
	})

	It("rejects an empty query", func() {
		f, err := trajectory.MatrixCallableFromVectorTrajectory(tt, samples, unraveled, raveled)
		Expect(err).NotTo(HaveOccurred())
		_, err = f.Eval()
		Expect(err).To(MatchError(trajectory.ErrNoQuery))
	})

	It("reconstructs structural zeros", func() {
		d, err := matrices.Explicit("d", 2, 2, matrices.Diagonal())
		Expect(err).NotTo(HaveOccurred())
		x := mat.NewDense(2, 2, []float64{1, 2, 3, 4})

		f, err := trajectory.MatrixCallableFromVectorTrajectory([]float64{0, 1}, x, d.Mapping().Unique(), d.Matrix())
		Expect(err).NotTo(HaveOccurred())
		Expect(mat.Equal(f.At(1), mat.NewDense(2, 2, []float64{3, 0, 0, 4}))).To(BeTrue())
	})

	It("rebuilds from a persisted layout", func() {
		f, err := trajectory.MatrixCallableFromVectorTrajectory(tt, samples, unraveled, raveled)
		Expect(err).NotTo(HaveOccurred())

		g, err := trajectory.FromLayout(tt, samples, f.Layout())
		Expect(err).NotTo(HaveOccurred())
		Expect(mat.Equal(f.At(0.3), g.At(0.3))).To(BeTrue())
	})

	It("rejects samples that do not match the layout", func() {
		f, err := trajectory.MatrixCallableFromVectorTrajectory(tt, samples, unraveled, raveled)
		Expect(err).NotTo(HaveOccurred())
		_, err = trajectory.FromLayout(tt, mat.NewDense(3, 2, nil), f.Layout())
		Expect(err).To(MatchError(trajectory.ErrSampleShape))
	})
})

var _ = Describe("FromTrajectory", func() {
	x := mat.NewDense(4, 1, []float64{0, 1, 4, 9})

	DescribeTable("validates samples",
		func(tt []float64, want error) {
			_, err := trajectory.FromTrajectory(tt, x, trajectory.Linear)
			Expect(err).To(MatchError(want))
		},
		Entry("length mismatch", []float64{0, 1, 2}, trajectory.ErrSampleShape),
		Entry("unsorted", []float64{0, 2, 1, 3}, trajectory.ErrUnsortedTimes),
		Entry("repeated", []float64{0, 1, 1, 3}, trajectory.ErrUnsortedTimes),
	)

	It("needs two samples", func() {
		_, err := trajectory.FromTrajectory([]float64{0}, mat.NewDense(1, 1, nil), trajectory.Linear)
		Expect(err).To(MatchError(trajectory.ErrTooFewSamples))
	})

	It("rejects unknown methods", func() {
		_, err := trajectory.FromTrajectory([]float64{0, 1, 2, 3}, x, trajectory.Method("sinc"))
		Expect(err).To(MatchError(trajectory.ErrUnknownMethod))
	})

	DescribeTable("passes through samples",
		func(method trajectory.Method) {
			v, err := trajectory.FromTrajectory([]float64{0, 1, 2, 3}, x, method)
			Expect(err).NotTo(HaveOccurred())
			Expect(v.At(nil, 2)[0]).To(BeNumerically("~", 4, 1e-9))
		},
		Entry("linear", trajectory.Linear),
		Entry("akima", trajectory.Akima),
		Entry("fritsch-butland", trajectory.FritschButland),
		Entry("cubic", trajectory.Cubic),
	)
})
