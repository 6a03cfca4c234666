package compiler_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/chronal/compiler"
	"github.com/sarchlab/chronal/isa"
)

var _ = Describe("Pool", func() {
	var p *compiler.Pool

	BeforeEach(func() {
		p = compiler.NewPool()
	})

	It("should intern equal expressions", func() {
		a := p.Binary(compiler.OpAdd, p.Reg(0), p.Reg(1))
		b := p.Binary(compiler.OpAdd, p.Reg(1), p.Reg(0))

		Expect(a).To(BeIdenticalTo(b))
		Expect(p.Binary(compiler.OpGt, p.Reg(0), p.Reg(1))).
			NotTo(BeIdenticalTo(p.Binary(compiler.OpGt, p.Reg(1), p.Reg(0))))
	})

	It("should fold constants", func() {
		e := p.Binary(compiler.OpMul, p.Int(6), p.Int(-7))

		v, ok := e.Int64()
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(int64(-42)))
		Expect(e.String()).To(Equal("-42"))
	})

	It("should compare signed constants", func() {
		e := p.Binary(compiler.OpGt, p.Int(1), p.Int(-1))
		Expect(e.String()).To(Equal("1"))
	})

	DescribeTable("identities",
		func(op compiler.Op, x, y func() *compiler.Expr, want string) {
			Expect(p.Binary(op, x(), y()).String()).To(Equal(want))
		},
		Entry("x + 0", compiler.OpAdd, func() *compiler.Expr { return p.Reg(2) },
			func() *compiler.Expr { return p.Int(0) }, "r2"),
		Entry("x * 1", compiler.OpMul, func() *compiler.Expr { return p.Reg(2) },
			func() *compiler.Expr { return p.Int(1) }, "r2"),
		Entry("x * 0", compiler.OpMul, func() *compiler.Expr { return p.Reg(2) },
			func() *compiler.Expr { return p.Int(0) }, "0"),
		Entry("x & 0", compiler.OpAnd, func() *compiler.Expr { return p.Reg(2) },
			func() *compiler.Expr { return p.Int(0) }, "0"),
		Entry("x & -1", compiler.OpAnd, func() *compiler.Expr { return p.Reg(2) },
			func() *compiler.Expr { return p.Int(-1) }, "r2"),
		Entry("x | 0", compiler.OpOr, func() *compiler.Expr { return p.Reg(2) },
			func() *compiler.Expr { return p.Int(0) }, "r2"),
		Entry("x == x", compiler.OpEq, func() *compiler.Expr { return p.Reg(2) },
			func() *compiler.Expr { return p.Reg(2) }, "1"),
		Entry("x > x", compiler.OpGt, func() *compiler.Expr { return p.Reg(2) },
			func() *compiler.Expr { return p.Reg(2) }, "0"),
		Entry("x & x", compiler.OpAnd, func() *compiler.Expr { return p.Reg(2) },
			func() *compiler.Expr { return p.Reg(2) }, "r2"),
	)

	It("should keep an unknown comparison", func() {
		e := p.Binary(compiler.OpGt, p.Reg(0), p.Int(3))
		Expect(e.String()).To(Equal("(r0 > 3)"))
	})

	Describe("Simplify", func() {
		It("should cancel opposite constants", func() {
			e := p.Binary(compiler.OpAdd, p.Binary(compiler.OpAdd, p.Reg(0), p.Int(5)), p.Int(-5))
			Expect(p.Simplify(e)).To(BeIdenticalTo(p.Reg(0)))
		})

		It("should collect a doubled register", func() {
			e := p.Reg(0)
			for i := 0; i < 3; i++ {
				e = p.Binary(compiler.OpAdd, e, e)
			}

			Expect(p.Simplify(e).String()).To(Equal("(8 * r0)"))
		})

		It("should cancel a difference of products", func() {
			xy := p.Binary(compiler.OpMul, p.Reg(0), p.Reg(1))
			yx := p.Binary(compiler.OpMul, p.Binary(compiler.OpMul, p.Reg(1), p.Int(-1)), p.Reg(0))
			e := p.Binary(compiler.OpAdd, xy, yx)

			Expect(p.Simplify(e).String()).To(Equal("0"))
		})

		It("should simplify inside comparisons", func() {
			sum := p.Binary(compiler.OpAdd, p.Binary(compiler.OpAdd, p.Reg(1), p.Int(2)), p.Int(-2))
			e := p.Binary(compiler.OpEq, sum, p.Reg(1))

			Expect(p.Simplify(e).String()).To(Equal("1"))
		})

		It("should not change values", func() {
			e := p.Binary(compiler.OpMul,
				p.Binary(compiler.OpAdd, p.Reg(0), p.Int(3)),
				p.Binary(compiler.OpAdd, p.Reg(1), p.Binary(compiler.OpGt, p.Reg(0), p.Reg(1))))
			s := p.Simplify(e)

			for _, in := range [][]int64{{0, 0}, {2, -5}, {-7, 4}, {9, 9}} {
				a := isa.FromInt64s(in...)
				b := isa.FromInt64s(in...)
				compiler.NewEvaluator([]*compiler.Expr{e, p.Reg(1)}).Apply(a)
				compiler.NewEvaluator([]*compiler.Expr{s, p.Reg(1)}).Apply(b)

				Expect(b.Equal(a)).To(BeTrue(), "input %v", in)
			}
		})
	})
})

var _ = Describe("Evaluator", func() {
	It("should read every input before writing", func() {
		p := compiler.NewPool()
		ev := compiler.NewEvaluator([]*compiler.Expr{
			p.Reg(1),
			p.Reg(0),
			p.Binary(compiler.OpAdd, p.Reg(0), p.Reg(1)),
		})

		regs := isa.FromInt64s(4, 9, 0)
		ev.Apply(regs)

		Expect(regs.Int64s()).To(Equal([]int64{9, 4, 13}))
	})

	It("should share common subexpressions", func() {
		p := compiler.NewPool()
		sq := p.Binary(compiler.OpMul, p.Reg(0), p.Reg(0))
		ev := compiler.NewEvaluator([]*compiler.Expr{sq, sq})

		Expect(ev.Len()).To(Equal(1))

		regs := isa.FromInt64s(-3, 0)
		ev.Apply(regs)
		Expect(regs.Int64s()).To(Equal([]int64{9, 9}))
	})
})
