package infer

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/sarchlab/chronal/isa"
)

// InconsistentSampleError reports a numeric opcode that no mnemonic can
// explain, or two opcodes forced onto the same mnemonic.
type InconsistentSampleError struct {
	Opcode int

	// Conflict is the other opcode claiming Mnemonic, or -1.
	Conflict int
	Mnemonic isa.Mnemonic
}

func (e *InconsistentSampleError) Error() string {
	if e.Conflict >= 0 {
		return fmt.Sprintf("inconsistent samples: opcodes %d and %d both resolve to %s",
			e.Conflict, e.Opcode, e.Mnemonic)
	}

	return fmt.Sprintf("inconsistent samples: no mnemonic reproduces every sample of opcode %d",
		e.Opcode)
}

// AmbiguousOpcodeError reports opcodes left with several candidates once
// propagation stalls.
type AmbiguousOpcodeError struct {
	Candidates map[int][]isa.Mnemonic
}

func (e *AmbiguousOpcodeError) Error() string {
	ops := make([]int, 0, len(e.Candidates))
	for op := range e.Candidates {
		ops = append(ops, op)
	}
	sort.Ints(ops)

	parts := make([]string, 0, len(ops))
	for _, op := range ops {
		names := make([]string, 0, len(e.Candidates[op]))
		for _, m := range e.Candidates[op] {
			names = append(names, m.String())
		}
		parts = append(parts, fmt.Sprintf("%d: {%s}", op, strings.Join(names, " ")))
	}

	return "ambiguous opcodes: " + strings.Join(parts, ", ")
}

// Resolve determines the mnemonic of every numeric opcode seen in the
// samples.
func Resolve(samples []Sample) (isa.OpcodeTable, error) {
	cands := Candidates(samples)
	ops := sortedOpcodes(cands)

	for _, op := range ops {
		if cands[op].Len() == 0 {
			return nil, &InconsistentSampleError{Opcode: op, Conflict: -1}
		}
	}

	passes := Propagate(cands)
	slog.Debug("OpcodeInference",
		"Opcodes", len(ops),
		"Samples", len(samples),
		"Passes", passes,
	)

	table := make(isa.OpcodeTable, len(ops))
	owner := make(map[isa.Mnemonic]int, len(ops))
	ambiguous := make(map[int][]isa.Mnemonic)

	for _, op := range ops {
		m, ok := cands[op].Single()
		if !ok {
			ambiguous[op] = cands[op].Mnemonics()
			continue
		}

		if prev, dup := owner[m]; dup {
			return nil, &InconsistentSampleError{Opcode: op, Conflict: prev, Mnemonic: m}
		}

		owner[m] = op
		table[op] = m
	}

	if len(ambiguous) > 0 {
		return nil, &AmbiguousOpcodeError{Candidates: ambiguous}
	}

	return table, nil
}

// Propagate removes every resolved mnemonic from the other opcodes' ambiguous
// candidate sets until a full pass removes nothing. It returns the number of
// passes made. Sets are only shrunk while they hold more than one member, so
// propagation never empties a set.
func Propagate(cands map[int]CandidateSet) int {
	ops := sortedOpcodes(cands)

	passes := 0
	for {
		passes++
		removed := false

		for _, resolved := range ops {
			m, ok := cands[resolved].Single()
			if !ok {
				continue
			}

			for _, other := range ops {
				set := cands[other]
				if other == resolved || set.Len() < 2 || !set.Has(m) {
					continue
				}

				cands[other] = set.Remove(m)
				removed = true
			}
		}

		if !removed {
			return passes
		}
	}
}

// MatchHistogram counts samples by how many mnemonics reproduce them.
func MatchHistogram(samples []Sample) map[int]int {
	hist := make(map[int]int)
	for _, s := range samples {
		hist[Matches(s).Len()]++
	}

	return hist
}

// CountAtLeast returns how many samples behave like k or more mnemonics.
func CountAtLeast(samples []Sample, k int) int {
	n := 0
	for matches, count := range MatchHistogram(samples) {
		if matches >= k {
			n += count
		}
	}

	return n
}
