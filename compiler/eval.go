package compiler

import (
	"github.com/holiman/uint256"
	"github.com/sarchlab/chronal/isa"
)

type step struct {
	op   Op
	dst  int
	x, y int
}

// Evaluator computes a set of register expressions over concrete register
// values. Common subexpressions are computed once. An Evaluator keeps
// scratch space and must not be used concurrently.
type Evaluator struct {
	numRegs int
	tape    []step

	// outputs[i] is the slot holding the new value of register i.
	outputs []int

	// slots start with the inputs, followed by constants and temporaries.
	slots []uint256.Int
}

// NewEvaluator compiles the expressions, one per register, into an
// evaluator.
func NewEvaluator(outputs []*Expr) *Evaluator {
	ev := &Evaluator{
		numRegs: len(outputs),
		outputs: make([]int, len(outputs)),
		slots:   make([]uint256.Int, len(outputs)),
	}

	memo := make(map[*Expr]int)
	for i, e := range outputs {
		ev.outputs[i] = ev.compile(e, memo)
	}

	return ev
}

func (ev *Evaluator) newSlot() int {
	ev.slots = append(ev.slots, uint256.Int{})
	return len(ev.slots) - 1
}

func (ev *Evaluator) compile(e *Expr, memo map[*Expr]int) int {
	if slot, ok := memo[e]; ok {
		return slot
	}

	var slot int

	switch e.Op {
	case OpReg:
		slot = e.Reg
	case OpConst:
		slot = ev.newSlot()
		ev.slots[slot] = e.Val
	default:
		x := ev.compile(e.X, memo)
		y := ev.compile(e.Y, memo)
		slot = ev.newSlot()
		ev.tape = append(ev.tape, step{op: e.Op, dst: slot, x: x, y: y})
	}

	memo[e] = slot

	return slot
}

// Len returns the number of operations evaluated per application.
func (ev *Evaluator) Len() int {
	return len(ev.tape)
}

// Apply replaces regs with the values of the expressions. Every expression
// reads the values regs held before the call.
func (ev *Evaluator) Apply(regs isa.Registers) {
	copy(ev.slots[:ev.numRegs], regs)

	for _, s := range ev.tape {
		apply(s.op, &ev.slots[s.dst], &ev.slots[s.x], &ev.slots[s.y])
	}

	for i, slot := range ev.outputs {
		if slot != i {
			regs[i] = ev.slots[slot]
		}
	}
}
