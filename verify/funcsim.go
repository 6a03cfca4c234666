package verify

import (
	"github.com/sarchlab/chronal/core"
	"github.com/sarchlab/chronal/isa"
)

// FunctionalSimulator executes a program one instruction at a time without
// the engine or the block compiler.
type FunctionalSimulator struct {
	code      core.Code
	regs      isa.Registers
	increment bool

	pc       int
	executed uint64
	status   core.Status
	err      error

	// TraceStep, if set, is called after every executed instruction.
	TraceStep func(pc int, inst isa.Instruction, regs isa.Registers)
}

// NewFunctionalSimulator creates a simulator holding a copy of the initial
// registers, zero padded to opts.NumRegs. Execution starts at the
// instruction the pointer register holds.
func NewFunctionalSimulator(code core.Code, initial isa.Registers, opts Options) *FunctionalSimulator {
	regs := isa.NewRegisters(opts.NumRegs)
	copy(regs, initial)

	fs := &FunctionalSimulator{
		code:      code,
		regs:      regs,
		increment: opts.IncrementAfterJump,
		status:    core.Running,
	}

	if ip := code.IPRegister; code.HasIP() && ip >= 0 && ip < len(regs) {
		next, ok := regs.Index(ip)
		if !ok {
			next = -1
		}
		fs.pc = next
	}

	return fs
}

// Run executes at most maxSteps instructions, or without limit when
// maxSteps is zero. It returns the fault that stopped the program, if any.
func (fs *FunctionalSimulator) Run(maxSteps uint64) error {
	for fs.status == core.Running {
		if maxSteps > 0 && fs.executed >= maxSteps {
			fs.status = core.Stopped
			break
		}

		fs.step()
	}

	return fs.err
}

func (fs *FunctionalSimulator) step() {
	if fs.pc < 0 || fs.pc >= fs.code.Len() {
		fs.status = core.Halted
		return
	}

	ip := fs.code.IPRegister
	if fs.code.HasIP() {
		if ip < 0 || ip >= len(fs.regs) {
			fs.fault(isa.Instruction{}, core.ErrIPRegister)
			return
		}

		isa.SetInt64(&fs.regs[ip], int64(fs.pc))
	}

	inst := fs.code.Insts[fs.pc]
	if err := isa.Validate(inst, len(fs.regs)); err != nil {
		fs.fault(inst, err)
		return
	}

	isa.Execute(inst, fs.regs)
	fs.executed++

	if fs.TraceStep != nil {
		fs.TraceStep(fs.pc, inst, fs.regs)
	}

	switch {
	case !fs.code.HasIP():
		fs.pc++
		return
	case inst.C != int64(ip):
		isa.SetInt64(&fs.regs[ip], int64(fs.pc+1))
	case fs.increment:
		fs.regs[ip].AddUint64(&fs.regs[ip], 1)
	}

	next, ok := fs.regs.Index(ip)
	if !ok {
		next = -1
	}
	fs.pc = next
}

func (fs *FunctionalSimulator) fault(inst isa.Instruction, err error) {
	fs.status = core.Faulted
	fs.err = &core.RuntimeFault{PC: fs.pc, Inst: inst, Err: err}
}

// Registers returns a copy of the register file.
func (fs *FunctionalSimulator) Registers() isa.Registers {
	return fs.regs.Clone()
}

// Executed returns the number of instructions executed.
func (fs *FunctionalSimulator) Executed() uint64 {
	return fs.executed
}

// Status returns Running before Run, then Halted, Faulted or Stopped.
func (fs *FunctionalSimulator) Status() core.Status {
	return fs.status
}

// PC returns the pointer of the next instruction.
func (fs *FunctionalSimulator) PC() int {
	return fs.pc
}
