package compiler

import (
	gomock "github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"milang/pkg/tac"
)

var _ = Describe("Lowering scope cursor", func() {
	var (
		mockCtrl *gomock.Controller
		cursor   *MockScopeCursor
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		cursor = NewMockScopeCursor(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should switch to each function's scope and restore the previous one", func() {
		prog, err := ParseSource("int f() { return 1; }\nvoid g() { }")
		Expect(err).NotTo(HaveOccurred())

		gomock.InOrder(
			cursor.EXPECT().Scope().Return(GlobalScope),
			cursor.EXPECT().SetScope("f"),
			cursor.EXPECT().SetScope(GlobalScope),
			cursor.EXPECT().Scope().Return(GlobalScope),
			cursor.EXPECT().SetScope("g"),
			cursor.EXPECT().SetScope(GlobalScope),
		)

		code := Lower(prog, cursor)
		Expect(tac.Lines(code)).To(Equal([]string{"func_f:", "return 1", "func_g:", "return"}))
	})

	It("should not touch the cursor for top-level statements", func() {
		prog, err := ParseSource("int x;\nx = 1;\nif (x) { x = 2; }")
		Expect(err).NotTo(HaveOccurred())

		Lower(prog, cursor)
	})

	It("should restore the cursor when lowering a function panics", func() {
		prog := &Program{Stmts: []Stmt{&FunctionDecl{
			Name:       "broken",
			ReturnType: INT,
			Body:       &BlockStmt{Stmts: []Stmt{&Assignment{Name: "x"}}},
		}}}

		gomock.InOrder(
			cursor.EXPECT().Scope().Return(GlobalScope),
			cursor.EXPECT().SetScope("broken"),
			cursor.EXPECT().SetScope(GlobalScope),
		)

		Expect(func() { Lower(prog, cursor) }).To(Panic())
	})

	Context("with the checked symbol table", func() {
		It("should leave the table on the global scope", func() {
			prog, err := ParseSource("int f(int a) { return a; }\nint r;\nr = f(1);\nreturn r;")
			Expect(err).NotTo(HaveOccurred())
			syms, diags := Check(prog)
			Expect(diags.HasErrors()).To(BeFalse())

			Lower(prog, syms)
			Expect(syms.Scope()).To(Equal(GlobalScope))
		})
	})
})
