package isa

import "github.com/holiman/uint256"

func newDefaultISA() *ISA {
	isa := NewISA("chronal")

	isa.registerNewInst(Addr, "addr", Reg, Reg, instADD)
	isa.registerNewInst(Addi, "addi", Reg, Imm, instADD)
	isa.registerNewInst(Mulr, "mulr", Reg, Reg, instMUL)
	isa.registerNewInst(Muli, "muli", Reg, Imm, instMUL)
	isa.registerNewInst(Banr, "banr", Reg, Reg, instAND)
	isa.registerNewInst(Bani, "bani", Reg, Imm, instAND)
	isa.registerNewInst(Borr, "borr", Reg, Reg, instOR)
	isa.registerNewInst(Bori, "bori", Reg, Imm, instOR)
	isa.registerNewInst(Setr, "setr", Reg, Ignored, instMOV)
	isa.registerNewInst(Seti, "seti", Imm, Ignored, instMOV)
	isa.registerNewInst(Gtir, "gtir", Imm, Reg, instGT)
	isa.registerNewInst(Gtri, "gtri", Reg, Imm, instGT)
	isa.registerNewInst(Gtrr, "gtrr", Reg, Reg, instGT)
	isa.registerNewInst(Eqir, "eqir", Imm, Reg, instEQ)
	isa.registerNewInst(Eqri, "eqri", Reg, Imm, instEQ)
	isa.registerNewInst(Eqrr, "eqrr", Reg, Reg, instEQ)

	return isa
}

func instADD(z, a, b *uint256.Int) {
	z.Add(a, b)
}

func instMUL(z, a, b *uint256.Int) {
	z.Mul(a, b)
}

func instAND(z, a, b *uint256.Int) {
	z.And(a, b)
}

func instOR(z, a, b *uint256.Int) {
	z.Or(a, b)
}

func instMOV(z, a, _ *uint256.Int) {
	z.Set(a)
}

// Comparisons are signed.
func instGT(z, a, b *uint256.Int) {
	if a.Sgt(b) {
		z.SetOne()
		return
	}
	z.Clear()
}

func instEQ(z, a, b *uint256.Int) {
	if a.Eq(b) {
		z.SetOne()
		return
	}
	z.Clear()
}
