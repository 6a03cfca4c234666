package core

import (
	"errors"
	"fmt"

	"github.com/sarchlab/chronal/isa"
)

type coreState struct {
	// PC is the next instruction to run. Without an instruction pointer
	// register it is a free-running counter.
	PC       int
	Regs     isa.Registers
	Code     Code
	Executed uint64
}

// ErrIPRegister is the fault of a program whose instruction pointer register
// lies outside the register file.
var ErrIPRegister = errors.New("instruction pointer register outside the register file")

// RuntimeFault reports an instruction that cannot run. PC is -1 when the
// program as a whole cannot run.
type RuntimeFault struct {
	PC   int
	Inst isa.Instruction
	Err  error
}

func (e *RuntimeFault) Error() string {
	if e.PC < 0 {
		return fmt.Sprintf("runtime fault: %v", e.Err)
	}

	return fmt.Sprintf("runtime fault at %d (%s): %v", e.PC, e.Inst, e.Err)
}

func (e *RuntimeFault) Unwrap() error {
	return e.Err
}

type instEmulator struct {
	// incrementAfterJump advances the pointer past a value written into the
	// instruction pointer register.
	incrementAfterJump bool
}

// RunInst runs the instruction at state.PC. The caller checks that PC is in
// range.
func (i instEmulator) RunInst(state *coreState) error {
	inst := state.Code.Insts[state.PC]

	if state.Code.HasIP() {
		isa.SetInt64(&state.Regs[state.Code.IPRegister], int64(state.PC))
	}

	if err := isa.Validate(inst, len(state.Regs)); err != nil {
		return &RuntimeFault{PC: state.PC, Inst: inst, Err: err}
	}

	isa.Execute(inst, state.Regs)
	state.Executed++

	i.advance(inst, state)

	return nil
}

func (i instEmulator) advance(inst isa.Instruction, state *coreState) {
	if !state.Code.HasIP() {
		state.PC++
		return
	}

	ip := state.Code.IPRegister
	switch {
	case inst.C != int64(ip):
		isa.SetInt64(&state.Regs[ip], int64(state.PC+1))
	case i.incrementAfterJump:
		state.Regs[ip].AddUint64(&state.Regs[ip], 1)
	}

	i.jump(state)
}

// start points PC at the first instruction to run: the value of the
// instruction pointer register, or 0 without one.
func (i instEmulator) start(state *coreState) {
	state.PC = 0
	if state.Code.HasIP() {
		i.jump(state)
	}
}

// jump reloads PC from the instruction pointer register. A value that is
// not a valid index leaves PC out of range, which halts the core.
func (i instEmulator) jump(state *coreState) {
	next, ok := state.Regs.Index(state.Code.IPRegister)
	if !ok {
		next = -1
	}

	state.PC = next
}
