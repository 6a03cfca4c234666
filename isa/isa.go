// Package isa defines the instruction set of the chronal register machine.
package isa

import (
	"fmt"

	"github.com/holiman/uint256"
)

// OperandKind tells how an operand specifier of an instruction is read.
type OperandKind uint8

// Operand kinds.
const (
	Ignored OperandKind = iota
	Reg
	Imm
)

func (k OperandKind) String() string {
	switch k {
	case Reg:
		return "r"
	case Imm:
		return "i"
	default:
		return "-"
	}
}

// Mnemonic names one of the sixteen instructions. The zero value is Invalid
// and marks an instruction that could not be decoded.
type Mnemonic uint8

// The instruction set, in canonical order.
const (
	Invalid Mnemonic = iota
	Addr
	Addi
	Mulr
	Muli
	Banr
	Bani
	Borr
	Bori
	Setr
	Seti
	Gtir
	Gtri
	Gtrr
	Eqir
	Eqri
	Eqrr
)

// NumMnemonics is the size of the instruction set.
const NumMnemonics = 16

// All lists every valid mnemonic in canonical order.
var All = [NumMnemonics]Mnemonic{
	Addr, Addi, Mulr, Muli, Banr, Bani, Borr, Bori,
	Setr, Seti, Gtir, Gtri, Gtrr, Eqir, Eqri, Eqrr,
}

// Behavior computes z from the two fetched operand values.
type Behavior func(z, a, b *uint256.Int)

type instInfo struct {
	name     string
	a, b     OperandKind
	behavior Behavior
}

// ISA is a struct that represents an Instruction Set Architecture.
type ISA struct {
	// name of the ISA.
	isaName string
	// behavior and operand kinds per mnemonic.
	infos [NumMnemonics + 1]instInfo
	// map from instruction name to mnemonic.
	nameToMnemonic map[string]Mnemonic
}

// NewISA creates an empty ISA.
func NewISA(name string) *ISA {
	return &ISA{
		isaName:        name,
		nameToMnemonic: make(map[string]Mnemonic),
	}
}

// Name returns the name of the ISA.
func (isa *ISA) Name() string {
	return isa.isaName
}

func (isa *ISA) registerNewInst(
	m Mnemonic,
	name string,
	a, b OperandKind,
	behavior Behavior,
) {
	if m == Invalid || int(m) > NumMnemonics {
		panic(fmt.Sprintf("cannot register mnemonic %d", m))
	}

	if _, dup := isa.nameToMnemonic[name]; dup {
		panic("instruction " + name + " registered twice")
	}

	isa.infos[m] = instInfo{name: name, a: a, b: b, behavior: behavior}
	isa.nameToMnemonic[name] = m
}

func (isa *ISA) lookup(name string) (Mnemonic, bool) {
	m, ok := isa.nameToMnemonic[name]
	return m, ok
}

var defaultISA = newDefaultISA()

// String returns the lower-case assembly name of the mnemonic.
func (m Mnemonic) String() string {
	if !m.Valid() {
		return "invalid"
	}

	return defaultISA.infos[m].name
}

// Valid reports whether m is one of the sixteen instructions.
func (m Mnemonic) Valid() bool {
	return m != Invalid && int(m) <= NumMnemonics
}

// Operands returns the kinds of the A and B operands.
func (m Mnemonic) Operands() (a, b OperandKind) {
	if !m.Valid() {
		return Ignored, Ignored
	}

	info := defaultISA.infos[m]

	return info.a, info.b
}

// Behavior returns the function computing the destination value.
func (m Mnemonic) Behavior() Behavior {
	if !m.Valid() {
		return nil
	}

	return defaultISA.infos[m].behavior
}

// ParseMnemonic converts an assembly name into a Mnemonic.
func ParseMnemonic(name string) (Mnemonic, bool) {
	return defaultISA.lookup(name)
}

// NoIP marks a program without an instruction pointer register.
const NoIP = -1
