// Package api defines the driver API that loads, decodes and runs chronal
// programs.
package api

import (
	"errors"
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/chronal/compiler"
	"github.com/sarchlab/chronal/core"
	"github.com/sarchlab/chronal/infer"
	"github.com/sarchlab/chronal/isa"
	"github.com/sarchlab/chronal/program"
)

// ErrBudgetExceeded is returned when a run used up its instruction budget
// before the program halted.
var ErrBudgetExceeded = errors.New("instruction budget exceeded")

// ErrNoOpcodeTable is returned when a program with numeric opcodes is run
// without a table to decode them.
var ErrNoOpcodeTable = errors.New("program uses numeric opcodes but no opcode table was given")

// Driver provides the interface to load and run programs.
type Driver interface {
	// Load parses program text.
	Load(text string) (*program.Program, error)

	// InferOpcodes resolves the numeric opcodes seen in the samples.
	InferOpcodes(samples []infer.Sample) (isa.OpcodeTable, error)

	// Run runs a program to completion from the initial registers. Missing
	// initial registers are zero. The table may be nil for programs written
	// with mnemonics. With optimize set the program runs through compiled
	// blocks.
	Run(
		prog *program.Program,
		table isa.OpcodeTable,
		initial isa.Registers,
		optimize bool,
	) (Result, error)
}

// Result is the outcome of a run. It is also returned, partially filled,
// with ErrBudgetExceeded and runtime faults.
type Result struct {
	Registers isa.Registers
	Executed  uint64
	Status    core.Status
	PC        int

	Stats  compiler.Stats
	Blocks []*compiler.Block
}

type driverImpl struct {
	engine sim.Engine
	core   *core.Core
}

func (d *driverImpl) Load(text string) (*program.Program, error) {
	return program.Load(text)
}

func (d *driverImpl) InferOpcodes(samples []infer.Sample) (isa.OpcodeTable, error) {
	table, err := infer.Resolve(samples)
	if err != nil {
		return nil, err
	}

	core.Trace("InferOpcodes",
		"Samples", len(samples),
		"Opcodes", len(table),
		"ThreeOrMore", infer.CountAtLeast(samples, 3),
	)

	return table, nil
}

// Run maps the program onto the driver's core and drains the engine.
func (d *driverImpl) Run(
	prog *program.Program,
	table isa.OpcodeTable,
	initial isa.Registers,
	optimize bool,
) (Result, error) {
	if prog.NeedsTable() {
		if table == nil {
			return Result{}, ErrNoOpcodeTable
		}

		if err := table.Check(); err != nil {
			return Result{}, fmt.Errorf("invalid opcode table: %w", err)
		}
	}

	if err := d.core.MapProgram(prog.Decode(table), initial, optimize); err != nil {
		return Result{}, err
	}

	if err := d.engine.Run(); err != nil {
		return Result{}, fmt.Errorf("engine stopped: %w", err)
	}

	res := Result{
		Registers: d.core.Registers(),
		Executed:  d.core.Executed(),
		Status:    d.core.Status(),
		PC:        d.core.PC(),
		Stats:     d.core.CompilerStats(),
		Blocks:    d.core.Blocks(),
	}

	switch res.Status {
	case core.Faulted:
		return res, d.core.Err()
	case core.Stopped:
		return res, fmt.Errorf("%w after %d instructions", ErrBudgetExceeded, res.Executed)
	}

	return res, nil
}
