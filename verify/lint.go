package verify

import (
	"fmt"

	"github.com/sarchlab/chronal/core"
	"github.com/sarchlab/chronal/isa"
)

// RunLint performs static checks on decoded code for the machine opts
// describe. STRUCT issues are problems the core faults on when it
// reaches them. FLOW issues note instructions that end compiled blocks or
// jump out of the program.
func RunLint(code core.Code, opts Options) []Issue {
	var issues []Issue

	numRegs := opts.NumRegs
	ip := code.IPRegister
	if code.HasIP() && (ip < 0 || ip >= numRegs) {
		issues = append(issues, Issue{
			Type:    IssueStruct,
			PC:      -1,
			Message: fmt.Sprintf("instruction pointer register %d outside [0, %d)", ip, numRegs),
			Details: map[string]interface{}{"ip": ip},
		})

		// Every other check depends on the pointer register.
		return issues
	}

	for pc, inst := range code.Insts {
		if err := isa.Validate(inst, numRegs); err != nil {
			issues = append(issues, Issue{
				Type:    IssueStruct,
				PC:      pc,
				Message: err.Error(),
				Details: map[string]interface{}{"inst": inst.String()},
			})

			continue
		}

		if !code.HasIP() || inst.C != int64(ip) {
			continue
		}

		issues = append(issues, lintJump(code, pc, inst, opts.IncrementAfterJump)...)
	}

	return issues
}

func lintJump(code core.Code, pc int, inst isa.Instruction, increment bool) []Issue {
	var target int64

	switch {
	case inst.Op == isa.Seti:
		target = inst.A
	case inst.Op == isa.Addi && inst.A == int64(code.IPRegister):
		target = int64(pc) + inst.B
	default:
		return []Issue{{
			Type:    IssueFlow,
			PC:      pc,
			Message: fmt.Sprintf("computed jump %q ends a compiled block", inst),
			Details: map[string]interface{}{"inst": inst.String()},
		}}
	}

	if increment {
		target++
	}

	if target < 0 || target >= int64(code.Len()) {
		return []Issue{{
			Type:    IssueFlow,
			PC:      pc,
			Message: fmt.Sprintf("jump %q leaves the program and halts it", inst),
			Details: map[string]interface{}{"target": target},
		}}
	}

	return nil
}

// CountIssues returns the number of issues of each type.
func CountIssues(issues []Issue) map[IssueType]int {
	counts := make(map[IssueType]int)
	for _, issue := range issues {
		counts[issue.Type]++
	}

	return counts
}
