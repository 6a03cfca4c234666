package isa

import (
	"fmt"
	"sort"
)

// OpcodeTable maps numeric opcodes to mnemonics.
type OpcodeTable map[int]Mnemonic

// Lookup returns the mnemonic bound to a numeric opcode.
func (t OpcodeTable) Lookup(opcode int) (Mnemonic, bool) {
	m, ok := t[opcode]
	if !ok || !m.Valid() {
		return Invalid, false
	}

	return m, true
}

// Opcodes returns the numeric opcodes in ascending order.
func (t OpcodeTable) Opcodes() []int {
	ops := make([]int, 0, len(t))
	for op := range t {
		ops = append(ops, op)
	}
	sort.Ints(ops)

	return ops
}

// Check verifies that the table is a bijection between its opcodes and the
// mnemonics they resolve to.
func (t OpcodeTable) Check() error {
	owner := make(map[Mnemonic]int, len(t))
	for _, op := range t.Opcodes() {
		m := t[op]
		if !m.Valid() {
			return fmt.Errorf("opcode %d is not resolved", op)
		}

		if prev, dup := owner[m]; dup {
			return fmt.Errorf("opcodes %d and %d both resolve to %s", prev, op, m)
		}
		owner[m] = op
	}

	return nil
}
