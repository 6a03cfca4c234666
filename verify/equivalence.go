package verify

import (
	"errors"
	"fmt"

	"github.com/google/go-cmp/cmp"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/chronal/core"
	"github.com/sarchlab/chronal/isa"
)

// Outcome is the observable result of running a program.
type Outcome struct {
	Name      string
	Registers []string
	Executed  uint64
	Status    string
	FaultPC   int
}

// DivergenceError reports a run whose outcome differs from the reference.
type DivergenceError struct {
	Name string
	Diff string
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("%s diverges from the reference (-want +got):\n%s", e.Name, e.Diff)
}

// Equivalence holds the outcomes of one equivalence check.
type Equivalence struct {
	Reference   Outcome
	Interpreted Outcome
	Compiled    Outcome

	// Conclusive is false when the reference did not finish within the step
	// limit. The core runs are skipped then.
	Conclusive bool
}

// CheckEquivalence runs the code on the functional simulator, on an
// interpreting core and on a compiling core from the same initial registers.
// It returns a *DivergenceError when a core run differs from the reference
// in registers, executed instructions or exit status.
func CheckEquivalence(code core.Code, initial isa.Registers, opts Options) (*Equivalence, error) {
	fs := NewFunctionalSimulator(code, initial, opts)
	_ = fs.Run(opts.MaxSteps)

	eq := &Equivalence{Reference: outcomeOf("reference", fs.Registers(), fs.Executed(), fs.Status(), fs.err)}
	if fs.Status() == core.Stopped {
		return eq, nil
	}
	eq.Conclusive = true

	var err error

	eq.Interpreted, err = runCore("interpreter", code, initial, opts, false)
	if err != nil {
		return eq, err
	}

	eq.Compiled, err = runCore("compiler", code, initial, opts, true)
	if err != nil {
		return eq, err
	}

	for _, got := range []Outcome{eq.Interpreted, eq.Compiled} {
		want := eq.Reference
		want.Name = got.Name

		if diff := cmp.Diff(want, got); diff != "" {
			return eq, &DivergenceError{Name: got.Name, Diff: diff}
		}
	}

	return eq, nil
}

func runCore(
	name string,
	code core.Code,
	initial isa.Registers,
	opts Options,
	optimize bool,
) (Outcome, error) {
	engine := sim.NewSerialEngine()

	budget := opts.MaxSteps
	if budget > 0 {
		budget++
	}

	c := core.NewBuilder().
		WithEngine(engine).
		WithRegisters(opts.NumRegs).
		WithIncrementAfterJump(opts.IncrementAfterJump).
		WithBudget(budget).
		Build("Verify." + name)

	if err := c.MapProgram(code, initial, optimize); err != nil {
		return Outcome{}, err
	}

	if err := engine.Run(); err != nil {
		return Outcome{}, err
	}

	return outcomeOf(name, c.Registers(), c.Executed(), c.Status(), c.Err()), nil
}

func outcomeOf(name string, regs isa.Registers, executed uint64, status core.Status, err error) Outcome {
	o := Outcome{
		Name:      name,
		Registers: make([]string, len(regs)),
		Executed:  executed,
		Status:    status.String(),
		FaultPC:   -1,
	}

	for i := range regs {
		o.Registers[i] = isa.SignedString(&regs[i])
	}

	var fault *core.RuntimeFault
	if errors.As(err, &fault) {
		o.FaultPC = fault.PC
	}

	return o
}
