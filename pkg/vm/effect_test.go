package vm_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"milang/pkg/tac"
	"milang/pkg/vm"
)

var _ = Describe("Effect", func() {
	DescribeTable("String",
		func(e vm.Effect, want string) {
			Expect(e.String()).To(Equal(want))
		},
		Entry("assign", vm.Effect{Kind: vm.EffectAssign, Scope: "f", Name: "x", Value: tac.IntValue(3)}, "assign f.x = 3"),
		Entry("decimal assign", vm.Effect{Kind: vm.EffectAssign, Scope: "global", Name: "y", Value: tac.FloatValue(2)}, "assign global.y = 2.0"),
		Entry("param", vm.Effect{Kind: vm.EffectParam, Value: tac.IntValue(-1)}, "param -1"),
		Entry("call", vm.Effect{Kind: vm.EffectCall, Name: "foo", Argc: 2}, "call foo, 2"),
		Entry("valued return", vm.Effect{Kind: vm.EffectReturn, Scope: "foo", Value: tac.IntValue(7), HasValue: true}, "return 7 from foo"),
		Entry("bare return", vm.Effect{Kind: vm.EffectReturn, Scope: "foo"}, "return from foo"),
	)
})

var _ = Describe("VM", func() {
	var sigs map[string]vm.Signature

	BeforeEach(func() {
		sigs = map[string]vm.Signature{
			"foo": {Params: []string{"a", "b"}},
		}
	})

	Context("when calling a function", func() {
		It("should bind params in push order", func() {
			code := tac.MustParse(`
x = 10
y = 4
param x
param y
t0 = call foo, 2
z = t0
return z
func_foo:
t1 = a - b
return t1
`)
			m, err := vm.New(code, vm.WithSignatures(sigs))
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Run()).To(Succeed())

			v, ok := m.Result()
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(tac.IntValue(6)))
		})

		It("should keep the callee's locals out of globals", func() {
			sigs["foo"] = vm.Signature{Params: []string{"a", "b"}, Locals: []string{"x"}}
			code := tac.MustParse(`
x = 1
param 2
param 3
t0 = call foo, 2
return x
func_foo:
x = 99
return
`)
			m, err := vm.New(code, vm.WithSignatures(sigs))
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Run()).To(Succeed())

			v, _ := m.Result()
			Expect(v).To(Equal(tac.IntValue(1)))
			Expect(m.Trace()).To(ContainElement(vm.Effect{
				Kind: vm.EffectAssign, Scope: "foo", Name: "x", Value: tac.IntValue(99),
			}))
		})

		It("should reject a call whose argument count differs from the signature", func() {
			code := tac.MustParse("param 1\nt0 = call foo, 1\nfunc_foo:\nreturn")
			_, err := vm.Execute(code, vm.WithSignatures(sigs))
			Expect(err).To(MatchError(ContainSubstring("argument count mismatch")))
		})
	})

	Context("with an entry function", func() {
		It("should fail for a function that does not exist", func() {
			_, err := vm.New(tac.MustParse("x = 1"), vm.WithEntry("main"))
			Expect(err).To(MatchError(vm.ErrUnknownFunction))
		})
	})

	Context("when evaluating values", func() {
		It("should treat character literals as their code", func() {
			effects, err := vm.Execute(tac.MustParse("t0 = 'a' + 1\nc = t0"))
			Expect(err).NotTo(HaveOccurred())
			Expect(effects).To(HaveLen(1))
			Expect(effects[0].Value).To(Equal(tac.IntValue(98)))
		})

		It("should mix integers and decimals as decimals", func() {
			effects, err := vm.Execute(tac.MustParse("t0 = 1 + 0.5\nd = t0"))
			Expect(err).NotTo(HaveOccurred())
			Expect(effects[0].Value).To(Equal(tac.FloatValue(1.5)))
		})

		It("should stop on division by zero", func() {
			_, err := vm.Execute(tac.MustParse("z = 0\nt0 = 1 % z"))
			Expect(err).To(MatchError(tac.ErrDivisionByZero))
		})
	})
})
