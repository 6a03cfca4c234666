package isa

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

// ErrUndecodable is reported for instructions whose opcode did not decode.
var ErrUndecodable = errors.New("undecodable instruction")

// Instruction is a decoded instruction. A and B are operand specifiers whose
// meaning depends on Op; C is always the destination register.
type Instruction struct {
	Op      Mnemonic
	A, B, C int64
}

func (inst Instruction) String() string {
	return fmt.Sprintf("%s %d %d %d", inst.Op, inst.A, inst.B, inst.C)
}

// ReadsRegister reports whether the instruction reads register r.
func (inst Instruction) ReadsRegister(r int) bool {
	a, b := inst.Op.Operands()

	return (a == Reg && inst.A == int64(r)) || (b == Reg && inst.B == int64(r))
}

// Validate checks that every register the instruction touches lies in
// [0, n). Operands the instruction ignores are not checked.
func Validate(inst Instruction, n int) error {
	if !inst.Op.Valid() {
		return ErrUndecodable
	}

	a, b := inst.Op.Operands()
	if a == Reg && !inRange(inst.A, n) {
		return fmt.Errorf("%s: operand a register %d out of range [0, %d)",
			inst, inst.A, n)
	}

	if b == Reg && !inRange(inst.B, n) {
		return fmt.Errorf("%s: operand b register %d out of range [0, %d)",
			inst, inst.B, n)
	}

	if !inRange(inst.C, n) {
		return fmt.Errorf("%s: destination register %d out of range [0, %d)",
			inst, inst.C, n)
	}

	return nil
}

func inRange(v int64, n int) bool {
	return v >= 0 && v < int64(n)
}

// Operand fetches the value of an operand specifier into z.
func Operand(kind OperandKind, spec int64, regs Registers, z *uint256.Int) {
	switch kind {
	case Reg:
		z.Set(&regs[spec])
	case Imm:
		SetInt64(z, spec)
	default:
		z.Clear()
	}
}

// Execute applies inst to regs. The instruction must have passed Validate
// for len(regs).
func Execute(inst Instruction, regs Registers) {
	var a, b uint256.Int

	ka, kb := inst.Op.Operands()
	Operand(ka, inst.A, regs, &a)
	Operand(kb, inst.B, regs, &b)

	inst.Op.Behavior()(&regs[inst.C], &a, &b)
}
