package infer_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/chronal/infer"
	"github.com/sarchlab/chronal/isa"
)

// observe produces samples for a hidden opcode assignment by running the real
// instruction set on small random states.
func observe(secret isa.OpcodeTable, perOpcode int, seed int64) []infer.Sample {
	rng := rand.New(rand.NewSource(seed))

	var samples []infer.Sample
	for _, op := range secret.Opcodes() {
		for i := 0; i < perOpcode; i++ {
			before := isa.FromInt64s(
				rng.Int63n(4), rng.Int63n(4), rng.Int63n(4), rng.Int63n(4))
			raw := infer.RawInstruction{
				Opcode: op,
				A:      rng.Int63n(4),
				B:      rng.Int63n(4),
				C:      rng.Int63n(4),
			}

			after := before.Clone()
			isa.Execute(isa.Instruction{Op: secret[op], A: raw.A, B: raw.B, C: raw.C}, after)

			samples = append(samples, infer.Sample{
				Before: before, Instruction: raw, After: after,
			})
		}
	}

	return samples
}

func shuffledTable(seed int64) isa.OpcodeTable {
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(isa.NumMnemonics)

	t := make(isa.OpcodeTable)
	for op, idx := range perm {
		t[op] = isa.All[idx]
	}

	return t
}

var _ = Describe("Matches", func() {
	It("should find the three-way ambiguity of a single sample", func() {
		s := infer.Sample{
			Before:      isa.FromInt64s(3, 2, 1, 1),
			Instruction: infer.RawInstruction{Opcode: 9, A: 2, B: 1, C: 2},
			After:       isa.FromInt64s(3, 2, 2, 1),
		}

		Expect(infer.Matches(s).Mnemonics()).To(ConsistOf(isa.Addi, isa.Mulr, isa.Seti))
		Expect(infer.CountAtLeast([]infer.Sample{s}, 3)).To(Equal(1))
		Expect(infer.CountAtLeast([]infer.Sample{s}, 4)).To(Equal(0))
	})

	It("should not match instructions that would fault", func() {
		s := infer.Sample{
			Before:      isa.FromInt64s(0, 0),
			Instruction: infer.RawInstruction{Opcode: 0, A: 5, B: 5, C: 0},
			After:       isa.FromInt64s(5, 0),
		}

		Expect(infer.Matches(s).Mnemonics()).To(ConsistOf(isa.Seti))
	})

	It("should match nothing when vector lengths differ", func() {
		s := infer.Sample{
			Before: isa.FromInt64s(0, 0),
			After:  isa.FromInt64s(0, 0, 0),
		}

		Expect(infer.Matches(s).Len()).To(BeZero())
	})
})

var _ = Describe("CandidateSet", func() {
	It("should behave as a set", func() {
		s := infer.CandidateSet(0).Add(isa.Addr).Add(isa.Eqrr)
		Expect(s.Len()).To(Equal(2))
		Expect(s.String()).To(Equal("{addr eqrr}"))

		_, single := s.Single()
		Expect(single).To(BeFalse())

		m, single := s.Remove(isa.Addr).Single()
		Expect(single).To(BeTrue())
		Expect(m).To(Equal(isa.Eqrr))
		Expect(infer.FullSet().Len()).To(Equal(isa.NumMnemonics))
	})
})

var _ = Describe("Resolve", func() {
	It("should recover a hidden opcode assignment", func() {
		secret := shuffledTable(7)
		samples := observe(secret, 40, 11)

		table, err := infer.Resolve(samples)
		Expect(err).NotTo(HaveOccurred())
		Expect(table).To(Equal(secret))
		Expect(table.Check()).To(Succeed())
	})

	It("should produce a table that reproduces every sample", func() {
		samples := observe(shuffledTable(3), 40, 5)

		table, err := infer.Resolve(samples)
		Expect(err).NotTo(HaveOccurred())

		for _, s := range samples {
			m, ok := table.Lookup(s.Instruction.Opcode)
			Expect(ok).To(BeTrue())

			regs := s.Before.Clone()
			isa.Execute(isa.Instruction{
				Op: m, A: s.Instruction.A, B: s.Instruction.B, C: s.Instruction.C,
			}, regs)
			Expect(regs.Equal(s.After)).To(BeTrue())
		}
	})

	It("should be deterministic", func() {
		samples := observe(shuffledTable(21), 40, 22)

		first, err := infer.Resolve(samples)
		Expect(err).NotTo(HaveOccurred())
		second, err := infer.Resolve(samples)
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(Equal(first))
	})

	It("should propagate singletons across opcodes", func() {
		cands := map[int]infer.CandidateSet{
			0: infer.CandidateSet(0).Add(isa.Addr),
			1: infer.CandidateSet(0).Add(isa.Addr).Add(isa.Mulr),
			2: infer.CandidateSet(0).Add(isa.Addr).Add(isa.Mulr).Add(isa.Seti),
		}

		infer.Propagate(cands)

		Expect(cands[1].Mnemonics()).To(Equal([]isa.Mnemonic{isa.Mulr}))
		Expect(cands[2].Mnemonics()).To(Equal([]isa.Mnemonic{isa.Seti}))
	})

	It("should report ambiguity instead of guessing", func() {
		s := infer.Sample{
			Before:      isa.FromInt64s(3, 2, 1, 1),
			Instruction: infer.RawInstruction{Opcode: 9, A: 2, B: 1, C: 2},
			After:       isa.FromInt64s(3, 2, 2, 1),
		}

		_, err := infer.Resolve([]infer.Sample{s})

		var ambiguous *infer.AmbiguousOpcodeError
		Expect(err).To(BeAssignableToTypeOf(ambiguous))
		Expect(err.(*infer.AmbiguousOpcodeError).Candidates).
			To(HaveKeyWithValue(9, []isa.Mnemonic{isa.Addi, isa.Mulr, isa.Seti}))
		Expect(err.Error()).To(Equal("ambiguous opcodes: 9: {addi mulr seti}"))
	})

	It("should report an opcode no mnemonic explains", func() {
		s := infer.Sample{
			Before:      isa.FromInt64s(0, 0, 0, 0),
			Instruction: infer.RawInstruction{Opcode: 4, A: 0, B: 0, C: 0},
			After:       isa.FromInt64s(0, 0, 0, 99),
		}

		_, err := infer.Resolve([]infer.Sample{s})

		var inconsistent *infer.InconsistentSampleError
		Expect(err).To(BeAssignableToTypeOf(inconsistent))
		Expect(err.(*infer.InconsistentSampleError).Opcode).To(Equal(4))
	})

	It("should report two opcodes forced onto one mnemonic", func() {
		setTen := func(op int) infer.Sample {
			return infer.Sample{
				Before:      isa.FromInt64s(0, 0, 0, 0),
				Instruction: infer.RawInstruction{Opcode: op, A: 10, B: 0, C: 1},
				After:       isa.FromInt64s(0, 10, 0, 0),
			}
		}

		_, err := infer.Resolve([]infer.Sample{setTen(1), setTen(2)})

		var inconsistent *infer.InconsistentSampleError
		Expect(err).To(BeAssignableToTypeOf(inconsistent))
		Expect(err.Error()).To(ContainSubstring("opcodes 1 and 2 both resolve to seti"))
	})
})
