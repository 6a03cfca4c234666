package api

import (
	"github.com/sarchlab/akita/v4/monitoring"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/chronal/core"
)

// DriverBuilder creates a new instance of Driver.
type DriverBuilder struct {
	engine  sim.Engine
	monitor *monitoring.Monitor
	core    core.Builder
}

// NewDriverBuilder creates a builder with the default core settings.
func NewDriverBuilder() DriverBuilder {
	return DriverBuilder{core: core.NewBuilder()}
}

// WithEngine sets the engine. A serial engine is created if none is given.
func (b DriverBuilder) WithEngine(engine sim.Engine) DriverBuilder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the core.
func (b DriverBuilder) WithFreq(freq sim.Freq) DriverBuilder {
	b.core = b.core.WithFreq(freq)
	return b
}

// WithRegisters sets the size of the register file.
func (b DriverBuilder) WithRegisters(n int) DriverBuilder {
	b.core = b.core.WithRegisters(n)
	return b
}

// WithBatch sets how many steps the core runs per tick.
func (b DriverBuilder) WithBatch(n int) DriverBuilder {
	b.core = b.core.WithBatch(n)
	return b
}

// WithBudget limits the instructions a run may execute. Zero means no limit.
func (b DriverBuilder) WithBudget(n uint64) DriverBuilder {
	b.core = b.core.WithBudget(n)
	return b
}

// WithIncrementAfterJump makes the pointer advance past values written into
// the instruction pointer register.
func (b DriverBuilder) WithIncrementAfterJump(on bool) DriverBuilder {
	b.core = b.core.WithIncrementAfterJump(on)
	return b
}

// WithTracer sets the tracer of the core.
func (b DriverBuilder) WithTracer(t core.Tracer) DriverBuilder {
	b.core = b.core.WithTracer(t)
	return b
}

// WithMonitor registers the engine and the core with a monitor.
func (b DriverBuilder) WithMonitor(monitor *monitoring.Monitor) DriverBuilder {
	b.monitor = monitor
	return b
}

// Build create a driver.
func (b DriverBuilder) Build(name string) Driver {
	if b.engine == nil {
		b.engine = sim.NewSerialEngine()
	}

	d := &driverImpl{
		engine: b.engine,
		core:   b.core.WithEngine(b.engine).Build(name + ".Core"),
	}

	if b.monitor != nil {
		b.monitor.RegisterEngine(b.engine)
		b.monitor.RegisterComponent(d.core)
	}

	return d
}
