package optimize_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"milang/pkg/compiler"
	"milang/pkg/optimize"
	"milang/pkg/tac"
	"milang/pkg/vm"
)

const fibSource = `
int fib(int n) {
	int a;
	int b;
	if (n < 2) { return n; }
	a = fib(n - 1);
	b = fib(n - 2);
	return a + b;
}
int main() {
	return fib(10);
}
`

const shadowSource = `
int x;
int twice(int x) {
	return x * 2;
}
int main() {
	int y;
	x = 5;
	y = twice(x + 1);
	if (y > 10 || x == 0) {
		x = y;
	} else {
		x = 0 - y;
	}
	return x;
}
`

const deadSource = `
int r;
void log(int v) {
	r = v;
}
int main() {
	int unused;
	unused = 3 * 7;
	log(1 + 1);
	if (0) {
		log(99);
	}
	return r;
}
`

const branchySource = `
int a;
int b;
int c;
a = 4;
b = a / 2;
c = 0;
if (a > b) {
	if (!c) {
		c = a % 3;
	} else {
		c = 100;
	}
}
if (c && 1) { b = b + c; }
return a * b + c;
`

const valuelessSource = `
int x;
int f(int p) {
	if (p) { return 1; }
}
int main() {
	x = 5;
	x = f(0);
	return x;
}
`

var _ = Describe("Optimizer", func() {
	DescribeTable("properties on compiled programs",
		func(src string) {
			res, err := compiler.Compile(src)
			Expect(err).NotTo(HaveOccurred())
			raw, optimized := res.Raw, res.Optimized

			By("never growing the code")
			Expect(len(optimized)).To(BeNumerically("<=", len(raw)))

			By("keeping every jump target defined")
			Expect(tac.Validate(optimized)).To(Succeed())

			By("reaching a fixed point")
			Expect(tac.Lines(optimize.Optimize(optimized))).To(Equal(tac.Lines(optimized)))

			By("producing the same externally visible effects")
			rawTrace, err := vm.Execute(raw, res.RunOptions()...)
			Expect(err).NotTo(HaveOccurred())
			optTrace, err := vm.Execute(optimized, res.RunOptions()...)
			Expect(err).NotTo(HaveOccurred())
			Expect(optTrace).To(Equal(rawTrace))
		},
		Entry("recursive fibonacci", fibSource),
		Entry("parameter shadowing a global", shadowSource),
		Entry("dead computations and constant branches", deadSource),
		Entry("top-level control flow", branchySource),
	)

	DescribeTable("any pass subset preserves behaviour",
		func(passes []optimize.Pass) {
			o := optimize.New(optimize.WithPasses(passes...))
			res, err := compiler.Compile(shadowSource, compiler.WithOptimizer(o))
			Expect(err).NotTo(HaveOccurred())

			rawTrace, err := vm.Execute(res.Raw, res.RunOptions()...)
			Expect(err).NotTo(HaveOccurred())
			optTrace, err := vm.Execute(res.Optimized, res.RunOptions()...)
			Expect(err).NotTo(HaveOccurred())
			Expect(optTrace).To(Equal(rawTrace))
		},
		Entry("fold", []optimize.Pass{optimize.Fold}),
		Entry("copyprop", []optimize.Pass{optimize.CopyProp}),
		Entry("coalesce", []optimize.Pass{optimize.Coalesce}),
		Entry("dce", []optimize.Pass{optimize.DCE}),
		Entry("branches and unreachable", []optimize.Pass{optimize.Branches, optimize.Unreachable}),
		Entry("jumps and labels", []optimize.Pass{optimize.Jumps, optimize.Labels}),
		Entry("reversed order", []optimize.Pass{optimize.Labels, optimize.Unreachable, optimize.Jumps, optimize.DCE,
			optimize.Coalesce, optimize.CopyProp, optimize.Branches, optimize.Fold}),
	)

	Context("with calls whose results are unused", func() {
		It("should keep every reachable call", func() {
			res, err := compiler.Compile(deadSource)
			Expect(err).NotTo(HaveOccurred())

			calls := func(code []tac.Instruction) (n int) {
				for _, in := range code {
					if _, ok := in.(tac.Call); ok {
						n++
					}
				}
				return n
			}
			// log(99) sits behind if (0) and is the only call removed.
			Expect(calls(res.Optimized)).To(Equal(calls(res.Raw) - 1))
			Expect(tac.Lines(res.Optimized)).To(ContainElement("t2 = call log, 1"))
		})

		It("should fold away the unused computation but keep the named store", func() {
			res, err := compiler.Compile(deadSource)
			Expect(err).NotTo(HaveOccurred())
			Expect(tac.Lines(res.Optimized)).To(ContainElement("unused = 21"))
		})
	})

	Context("with a callee that can end without a value", func() {
		It("should fault where the raw code faults", func() {
			res, err := compiler.Compile(valuelessSource)
			Expect(err).NotTo(HaveOccurred())
			Expect(tac.Lines(res.Optimized)).To(ContainElement("x = call f, 1"))

			rawTrace, rawErr := vm.Execute(res.Raw, res.RunOptions()...)
			optTrace, optErr := vm.Execute(res.Optimized, res.RunOptions()...)
			Expect(rawErr).To(MatchError(vm.ErrUnset))
			Expect(optErr).To(MatchError(vm.ErrUnset))
			Expect(optTrace).To(Equal(rawTrace))
			Expect(optTrace).NotTo(ContainElement(And(HaveField("Kind", vm.EffectReturn), HaveField("Scope", "main"))))
		})
	})
})
