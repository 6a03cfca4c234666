package core

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/chronal/compiler"
	"github.com/sarchlab/chronal/isa"
)

// Status is the run state of a core.
type Status int

// Core states. A core leaves Running exactly once per mapped program.
const (
	Idle Status = iota
	Running
	Halted
	Faulted
	Stopped
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Halted:
		return "halted"
	case Faulted:
		return "faulted"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Tracer receives execution events from a core.
type Tracer interface {
	// OnStep is called after an instruction was interpreted.
	OnStep(pc int, inst isa.Instruction, regs isa.Registers)

	// OnBlock is called after a compiled block was applied.
	OnBlock(b *compiler.Block, regs isa.Registers)

	// OnExit is called once when the core stops running.
	OnExit(status Status, executed uint64)
}

// Core runs one program on one register file.
type Core struct {
	*sim.TickingComponent

	state  coreState
	emu    instEmulator
	status Status
	err    error

	numRegs int
	comp    *compiler.Compiler
	batch   int
	budget  uint64
	tracer  Tracer
}

// MapProgram loads code and the initial registers, resets the block cache
// and schedules the core to run. Missing initial registers are zero. With an
// instruction pointer register, execution starts at the instruction that
// register points to; a value outside the program halts the core at once.
func (c *Core) MapProgram(code Code, initial isa.Registers, optimize bool) error {
	if len(initial) > c.numRegs {
		return fmt.Errorf("%d initial registers given, the core has %d",
			len(initial), c.numRegs)
	}

	if code.HasIP() && (code.IPRegister < 0 || code.IPRegister >= c.numRegs) {
		err := fmt.Errorf("%w: register %d, the core has %d",
			ErrIPRegister, code.IPRegister, c.numRegs)

		return &RuntimeFault{PC: -1, Err: err}
	}

	regs := isa.NewRegisters(c.numRegs)
	copy(regs, initial)

	c.state = coreState{Code: code, Regs: regs}
	c.emu.start(&c.state)
	c.status = Running
	c.err = nil
	c.comp = nil

	if optimize {
		c.comp = compiler.New(code.Insts, compiler.Config{
			NumRegs:            c.numRegs,
			IPRegister:         code.IPRegister,
			IncrementAfterJump: c.emu.incrementAfterJump,
		})
		c.comp.OnCompile(c.logCompile)
	}

	Trace("MapProgram",
		"Core", c.Name(),
		"Instructions", code.Len(),
		"IPRegister", code.IPRegister,
		"Optimize", optimize,
	)

	c.TickNow()

	return nil
}

// Tick runs up to one batch of steps.
func (c *Core) Tick() (madeProgress bool) {
	if c.status != Running {
		return false
	}

	for i := 0; i < c.batch && c.status == Running; i++ {
		c.step()
	}

	Trace("Tick",
		"Time", float64(c.Engine.CurrentTime()*1e9),
		"Core", c.Name(),
		"PC", c.state.PC,
		"Executed", c.state.Executed,
	)

	return true
}

func (c *Core) step() {
	s := &c.state

	if s.PC < 0 || s.PC >= s.Code.Len() {
		c.exit(Halted, nil)
		return
	}

	if c.budget > 0 && s.Executed >= c.budget {
		c.exit(Stopped, nil)
		return
	}

	if c.comp != nil {
		if b, ok := c.comp.Block(s.PC); ok {
			c.runBlock(b)
			return
		}
	}

	pc := s.PC
	if err := c.emu.RunInst(s); err != nil {
		c.exit(Faulted, err)
		return
	}

	if c.tracer != nil {
		c.tracer.OnStep(pc, s.Code.Insts[pc], s.Regs)
	}
}

func (c *Core) runBlock(b *compiler.Block) {
	s := &c.state

	b.Apply(s.Regs)
	s.Executed += uint64(b.Folded)

	if s.Code.HasIP() {
		c.emu.jump(s)
	} else {
		s.PC = b.Next
	}

	if c.tracer != nil {
		c.tracer.OnBlock(b, s.Regs)
	}
}

func (c *Core) exit(status Status, err error) {
	c.status = status
	c.err = err

	Trace("Exit",
		"Core", c.Name(),
		"Status", status,
		"PC", c.state.PC,
		"Executed", c.state.Executed,
	)
	LogState(c)

	if c.tracer != nil {
		c.tracer.OnExit(status, c.state.Executed)
	}
}

func (c *Core) logCompile(b *compiler.Block) {
	Trace("Compile",
		"Core", c.Name(),
		"Entry", b.Entry,
		"Folded", b.Folded,
		"Next", b.Next,
		"Ops", b.Ops(),
	)
}

// Status returns the run state.
func (c *Core) Status() Status {
	return c.status
}

// Err returns the fault that stopped the core, if any.
func (c *Core) Err() error {
	return c.err
}

// PC returns the pointer of the next instruction.
func (c *Core) PC() int {
	return c.state.PC
}

// Executed returns the number of instructions run, folded ones included.
func (c *Core) Executed() uint64 {
	return c.state.Executed
}

// Registers returns a copy of the register file.
func (c *Core) Registers() isa.Registers {
	return c.state.Regs.Clone()
}

// CompilerStats returns the block cache counters. They are zero when the
// core interprets.
func (c *Core) CompilerStats() compiler.Stats {
	if c.comp == nil {
		return compiler.Stats{}
	}

	return c.comp.Stats()
}

// Blocks returns the cached blocks ordered by entry point.
func (c *Core) Blocks() []*compiler.Block {
	if c.comp == nil {
		return nil
	}

	return c.comp.Blocks()
}
