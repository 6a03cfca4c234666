// Package infer discovers which mnemonic each numeric opcode stands for by
// replaying observed before/instruction/after samples.
package infer

import (
	"math/bits"
	"sort"
	"strings"

	"github.com/sarchlab/chronal/isa"
)

// RawInstruction is an instruction whose opcode has not been decoded.
type RawInstruction struct {
	Opcode  int
	A, B, C int64
}

// Sample is one observed execution of a raw instruction.
type Sample struct {
	Before      isa.Registers
	Instruction RawInstruction
	After       isa.Registers
}

// CandidateSet is a set of mnemonics, one bit per mnemonic.
type CandidateSet uint32

// FullSet contains all sixteen mnemonics.
func FullSet() CandidateSet {
	var s CandidateSet
	for _, m := range isa.All {
		s = s.Add(m)
	}

	return s
}

// Has reports whether m is in the set.
func (s CandidateSet) Has(m isa.Mnemonic) bool {
	return s&(1<<m) != 0
}

// Add returns the set with m added.
func (s CandidateSet) Add(m isa.Mnemonic) CandidateSet {
	return s | 1<<m
}

// Remove returns the set without m.
func (s CandidateSet) Remove(m isa.Mnemonic) CandidateSet {
	return s &^ (1 << m)
}

// Len returns the number of mnemonics in the set.
func (s CandidateSet) Len() int {
	return bits.OnesCount32(uint32(s))
}

// Single returns the only member of a singleton set.
func (s CandidateSet) Single() (isa.Mnemonic, bool) {
	if s.Len() != 1 {
		return isa.Invalid, false
	}

	return isa.Mnemonic(bits.TrailingZeros32(uint32(s))), true
}

// Mnemonics lists the members in canonical order.
func (s CandidateSet) Mnemonics() []isa.Mnemonic {
	var out []isa.Mnemonic
	for _, m := range isa.All {
		if s.Has(m) {
			out = append(out, m)
		}
	}

	return out
}

func (s CandidateSet) String() string {
	names := make([]string, 0, s.Len())
	for _, m := range s.Mnemonics() {
		names = append(names, m.String())
	}

	return "{" + strings.Join(names, " ") + "}"
}

// Matches returns the mnemonics that turn the sample's Before state into its
// After state. Instructions that would fault on the sample do not match.
func Matches(s Sample) CandidateSet {
	var set CandidateSet

	if len(s.Before) != len(s.After) {
		return set
	}

	regs := isa.NewRegisters(len(s.Before))
	for _, m := range isa.All {
		inst := isa.Instruction{
			Op: m,
			A:  s.Instruction.A,
			B:  s.Instruction.B,
			C:  s.Instruction.C,
		}
		if isa.Validate(inst, len(regs)) != nil {
			continue
		}

		copy(regs, s.Before)
		isa.Execute(inst, regs)

		if regs.Equal(s.After) {
			set = set.Add(m)
		}
	}

	return set
}

// Candidates intersects the matches of all samples sharing a numeric opcode.
func Candidates(samples []Sample) map[int]CandidateSet {
	cands := make(map[int]CandidateSet)
	for _, s := range samples {
		op := s.Instruction.Opcode

		set, seen := cands[op]
		if !seen {
			set = FullSet()
		}

		cands[op] = set & Matches(s)
	}

	return cands
}

func sortedOpcodes(cands map[int]CandidateSet) []int {
	ops := make([]int, 0, len(cands))
	for op := range cands {
		ops = append(ops, op)
	}
	sort.Ints(ops)

	return ops
}
