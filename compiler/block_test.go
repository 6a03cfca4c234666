package compiler_test

import (
	"math/rand"
	"strconv"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/chronal/compiler"
	"github.com/sarchlab/chronal/isa"
)

func assemble(lines ...string) []isa.Instruction {
	insts := make([]isa.Instruction, len(lines))
	for i, l := range lines {
		f := strings.Fields(l)
		op, ok := isa.ParseMnemonic(f[0])
		Expect(ok).To(BeTrue(), l)

		var v [3]int64
		for j := range v {
			n, err := strconv.ParseInt(f[j+1], 10, 64)
			Expect(err).NotTo(HaveOccurred())
			v[j] = n
		}

		insts[i] = isa.Instruction{Op: op, A: v[0], B: v[1], C: v[2]}
	}

	return insts
}

// machine is a plain interpreter used as the reference for compiled blocks.
type machine struct {
	insts []isa.Instruction
	cfg   compiler.Config
	regs  isa.Registers

	pc       int
	executed int
	halted   bool
	faulted  bool
}

func newMachine(insts []isa.Instruction, cfg compiler.Config, init []int64) *machine {
	m := &machine{insts: insts, cfg: cfg, regs: isa.NewRegisters(cfg.NumRegs)}
	copy(m.regs, isa.FromInt64s(init...))

	if m.hasIP() {
		m.jump()
	}

	return m
}

func (m *machine) hasIP() bool {
	return m.cfg.IPRegister >= 0
}

func (m *machine) fetch() bool {
	if m.pc < 0 || m.pc >= len(m.insts) {
		m.halted = true
		return false
	}

	return true
}

func (m *machine) step() {
	if !m.fetch() {
		return
	}

	ip := m.cfg.IPRegister
	if m.hasIP() {
		isa.SetInt64(&m.regs[ip], int64(m.pc))
	}

	inst := m.insts[m.pc]
	if isa.Validate(inst, len(m.regs)) != nil {
		m.faulted = true
		return
	}

	isa.Execute(inst, m.regs)
	m.executed++

	if !m.hasIP() {
		m.pc++
		return
	}

	if inst.C != int64(ip) {
		isa.SetInt64(&m.regs[ip], int64(m.pc+1))
	} else if m.cfg.IncrementAfterJump {
		var one = isa.FromInt64s(1)
		m.regs[ip].Add(&m.regs[ip], &one[0])
	}

	m.jump()
}

func (m *machine) jump() {
	next, ok := m.regs.Index(m.cfg.IPRegister)
	if !ok {
		m.halted = true
		return
	}
	m.pc = next
}

func (m *machine) blockStep(c *compiler.Compiler) {
	if !m.fetch() {
		return
	}

	b, ok := c.Block(m.pc)
	if !ok {
		m.step()
		return
	}

	b.Apply(m.regs)
	m.executed += b.Folded

	if m.hasIP() {
		m.jump()
	} else {
		m.pc = b.Next
	}
}

func (m *machine) done() bool {
	return m.halted || m.faulted
}

var _ = Describe("Compiler", func() {
	It("should fold straight-line code", func() {
		c := compiler.New(assemble(
			"addi 0 5 0",
			"muli 0 3 0",
			"addr 0 1 1",
			"seti 7 0 2",
		), compiler.Config{NumRegs: 3, IPRegister: isa.NoIP})

		b, ok := c.Block(0)
		Expect(ok).To(BeTrue())
		Expect(b.Folded).To(Equal(4))
		Expect(b.Next).To(Equal(4))
		Expect(b.Outputs[2].String()).To(Equal("7"))

		regs := isa.FromInt64s(1, 10, 0)
		b.Apply(regs)
		Expect(regs.Int64s()).To(Equal([]int64{18, 28, 7}))
	})

	It("should collapse repeated doubling", func() {
		c := compiler.New(assemble(
			"addr 0 0 0",
			"addr 0 0 0",
			"addr 0 0 0",
		), compiler.Config{NumRegs: 1, IPRegister: isa.NoIP})

		b, _ := c.Block(0)
		Expect(b.Outputs[0].String()).To(Equal("(8 * r0)"))
		Expect(b.Ops()).To(Equal(1))
	})

	It("should chain through known jumps", func() {
		c := compiler.New(assemble(
			"seti 5 0 3",
			"addi 0 100 0",
			"addi 0 100 0",
			"addi 0 100 0",
			"addi 0 100 0",
			"addi 0 1 0",
			"addi 3 2 3",
			"addi 0 100 0",
			"muli 0 2 0",
		), compiler.Config{NumRegs: 4, IPRegister: 3})

		b, ok := c.Block(0)
		Expect(ok).To(BeTrue())
		Expect(b.Folded).To(Equal(4))
		Expect(b.Next).To(Equal(9))

		regs := isa.FromInt64s(4, 0, 0, 0)
		b.Apply(regs)
		Expect(regs.Int64s()).To(Equal([]int64{10, 0, 0, 9}))
	})

	It("should chain one past the target when jumps increment", func() {
		c := compiler.New(assemble(
			"seti 4 0 3",
			"addi 0 100 0",
			"addi 0 100 0",
			"addi 0 100 0",
			"addi 0 100 0",
			"addi 0 1 0",
			"addi 3 1 3",
			"addi 0 100 0",
			"muli 0 2 0",
		), compiler.Config{NumRegs: 4, IPRegister: 3, IncrementAfterJump: true})

		b, _ := c.Block(0)
		Expect(b.Folded).To(Equal(4))
		Expect(b.Next).To(Equal(9))

		regs := isa.FromInt64s(4, 0, 0, 0)
		b.Apply(regs)
		Expect(regs.Int64s()).To(Equal([]int64{10, 0, 0, 9}))
	})

	It("should end a block at a computed jump", func() {
		insts := assemble("addr 1 0 1", "seti 0 0 0")

		b, _ := compiler.New(insts, compiler.Config{NumRegs: 2, IPRegister: 1}).Block(0)
		Expect(b.Folded).To(Equal(1))
		Expect(b.Next).To(Equal(-1))
		Expect(b.Outputs[1].String()).To(Equal("r0"))

		b, _ = compiler.New(insts, compiler.Config{
			NumRegs: 2, IPRegister: 1, IncrementAfterJump: true,
		}).Block(0)
		Expect(b.Outputs[1].String()).To(Equal("(1 + r0)"))
	})

	It("should stop before revisiting an instruction", func() {
		c := compiler.New(assemble(
			"addi 0 1 0",
			"seti 0 0 1",
		), compiler.Config{NumRegs: 2, IPRegister: 1})

		b, _ := c.Block(0)
		Expect(b.Folded).To(Equal(2))
		Expect(b.Next).To(Equal(0))

		regs := isa.FromInt64s(0, 0)
		b.Apply(regs)
		b.Apply(regs)
		Expect(regs.Int64s()).To(Equal([]int64{2, 0}))
	})

	It("should stop before a faulting instruction", func() {
		c := compiler.New(assemble(
			"addi 0 1 0",
			"addr 9 0 0",
		), compiler.Config{NumRegs: 2, IPRegister: isa.NoIP})

		b, ok := c.Block(0)
		Expect(ok).To(BeTrue())
		Expect(b.Folded).To(Equal(1))
		Expect(b.Next).To(Equal(1))

		_, ok = c.Block(1)
		Expect(ok).To(BeFalse())
		_, ok = c.Block(1)
		Expect(ok).To(BeFalse())
		Expect(c.Stats().Refusals).To(Equal(1))
	})

	It("should compile each entry once", func() {
		c := compiler.New(assemble("addi 0 1 0", "addi 0 2 0"),
			compiler.Config{NumRegs: 1, IPRegister: isa.NoIP})

		var compiled []int
		c.OnCompile(func(b *compiler.Block) {
			compiled = append(compiled, b.Entry)
		})

		first, _ := c.Block(1)
		second, _ := c.Block(1)
		c.Block(0)

		Expect(second).To(BeIdenticalTo(first))
		Expect(compiled).To(Equal([]int{1, 0}))
		Expect(c.Stats()).To(Equal(compiler.Stats{Blocks: 2, Compilations: 2, Hits: 1}))
		Expect(c.Blocks()[0].Entry).To(Equal(0))
	})

	It("should build the same block whatever state reaches its entry", func() {
		insts := assemble(
			"addi 1 1 1",
			"addi 0 -1 0",
			"eqri 0 0 2",
			"addi 2 4 3",
			"seti 0 0 3",
			"seti 99 0 3",
		)
		cfg := compiler.Config{NumRegs: 4, IPRegister: 3}

		run := func(init ...int64) *compiler.Compiler {
			c := compiler.New(insts, cfg)
			m := newMachine(insts, cfg, init)
			for !m.done() {
				m.blockStep(c)
			}
			Expect(m.halted).To(BeTrue())

			return c
		}

		first := run(5)
		second := run(9, 3, 0, 4)

		Expect(first.Blocks()).To(HaveLen(3))
		Expect(second.Blocks()).To(HaveLen(2))

		for _, b := range second.Blocks() {
			a, ok := first.Block(b.Entry)
			Expect(ok).To(BeTrue())
			Expect(a.Folded).To(Equal(b.Folded))
			Expect(b.Next).To(Equal(a.Next))
			Expect(b.String()).To(Equal(a.String()))

			x := isa.FromInt64s(7, 2, 0, int64(a.Entry))
			y := x.Clone()
			a.Apply(x)
			b.Apply(y)
			Expect(y.Int64s()).To(Equal(x.Int64s()), "entry %d", a.Entry)
		}
	})

	DescribeTable("random programs behave as if interpreted",
		func(increment bool) {
			const numRegs = 4

			halted := 0
			for seed := int64(0); seed < 300; seed++ {
				rng := rand.New(rand.NewSource(seed))
				insts := randomProgram(rng, numRegs)
				cfg := compiler.Config{
					NumRegs:            numRegs,
					IPRegister:         rng.Intn(numRegs),
					IncrementAfterJump: increment,
				}

				init := make([]int64, numRegs)
				for i := range init {
					init[i] = int64(rng.Intn(9) - 2)
				}

				ref := newMachine(insts, cfg, init)
				for !ref.done() && ref.executed < 2000 {
					ref.step()
				}
				if !ref.done() {
					continue
				}
				halted++

				got := newMachine(insts, cfg, init)
				c := compiler.New(insts, cfg)
				for !got.done() && got.executed <= ref.executed {
					got.blockStep(c)
				}

				Expect(got.regs.String()).To(Equal(ref.regs.String()), "seed %d", seed)
				Expect(got.executed).To(Equal(ref.executed), "seed %d", seed)
				Expect(got.halted).To(Equal(ref.halted), "seed %d", seed)
				Expect(got.faulted).To(Equal(ref.faulted), "seed %d", seed)
			}

			Expect(halted).To(BeNumerically(">", 0))
		},
		Entry("without increment", false),
		Entry("with increment", true),
	)
})

func randomProgram(rng *rand.Rand, numRegs int) []isa.Instruction {
	insts := make([]isa.Instruction, 6+rng.Intn(10))
	for i := range insts {
		op := isa.All[rng.Intn(isa.NumMnemonics)]
		ka, kb := op.Operands()

		insts[i] = isa.Instruction{
			Op: op,
			A:  randomOperand(rng, ka, numRegs),
			B:  randomOperand(rng, kb, numRegs),
			C:  int64(rng.Intn(numRegs)),
		}
	}

	return insts
}

func randomOperand(rng *rand.Rand, kind isa.OperandKind, numRegs int) int64 {
	switch {
	case kind == isa.Reg && rng.Intn(50) == 0:
		return int64(numRegs)
	case kind == isa.Reg:
		return int64(rng.Intn(numRegs))
	default:
		return int64(rng.Intn(12) - 3)
	}
}
