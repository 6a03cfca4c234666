package core

import (
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/chronal/isa"
)

// Builder can create new cores.
type Builder struct {
	engine             sim.Engine
	freq               sim.Freq
	numRegs            int
	batch              int
	budget             uint64
	incrementAfterJump bool
	tracer             Tracer
}

// NewBuilder creates a builder with six registers and a batch of 4096
// steps per tick.
func NewBuilder() Builder {
	return Builder{
		freq:    1 * sim.GHz,
		numRegs: 6,
		batch:   4096,
	}
}

// WithEngine sets the engine.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the core.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithRegisters sets the size of the register file.
func (b Builder) WithRegisters(n int) Builder {
	if n < 1 {
		panic("a core needs at least one register")
	}
	b.numRegs = n
	return b
}

// WithBatch sets how many steps run per tick.
func (b Builder) WithBatch(n int) Builder {
	if n < 1 {
		panic("batch must be positive")
	}
	b.batch = n
	return b
}

// WithBudget stops the core once it has executed n instructions. A compiled
// block may overshoot the budget by its own length. Zero means no limit.
func (b Builder) WithBudget(n uint64) Builder {
	b.budget = n
	return b
}

// WithIncrementAfterJump makes the pointer advance past values written into
// the instruction pointer register.
func (b Builder) WithIncrementAfterJump(on bool) Builder {
	b.incrementAfterJump = on
	return b
}

// WithTracer sets the tracer.
func (b Builder) WithTracer(t Tracer) Builder {
	b.tracer = t
	return b
}

// Build creates a core.
func (b Builder) Build(name string) *Core {
	if b.freq == 0 {
		b.freq = 1 * sim.GHz
	}

	if b.numRegs == 0 {
		b.numRegs = 6
	}

	if b.batch == 0 {
		b.batch = 4096
	}

	c := &Core{
		numRegs: b.numRegs,
		batch:   b.batch,
		budget:  b.budget,
		tracer:  b.tracer,
		emu:     instEmulator{incrementAfterJump: b.incrementAfterJump},
	}

	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)
	c.state.Regs = isa.NewRegisters(b.numRegs)

	return c
}

// NumRegisters returns the size of the register file.
func (c *Core) NumRegisters() int {
	return c.numRegs
}
