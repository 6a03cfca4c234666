// Package verify provides debugging tools for chronal programs.
//
// It implements three complementary checks:
//
// 1. Static Lint (lint.go): structural and control-flow checks
//   - STRUCT checks: undecodable instructions, register operands and the
//     instruction pointer register outside the register file
//   - FLOW notes: jumps the block compiler cannot follow, jumps that leave
//     the program
//
// 2. Functional Simulator (funcsim.go): a plain loop interpreter
//   - Runs the program without the engine, the tick batching or the block
//     compiler
//   - Serves as the reference the core is compared against
//
// 3. Equivalence (equivalence.go): runs the reference, the interpreting core
// and the compiling core from the same state and diffs the outcomes
//
// # Usage Example
//
//	code := prog.Decode(table)
//
//	opts := verify.Options{NumRegs: 6, MaxSteps: 1_000_000}
//
//	issues := verify.RunLint(code, opts)
//	for _, issue := range issues {
//	    log.Printf("[%s] pc=%d: %s", issue.Type, issue.PC, issue.Message)
//	}
//
//	outcome, err := verify.CheckEquivalence(code, initial, opts)
//	var div *verify.DivergenceError
//	if errors.As(err, &div) {
//	    fmt.Println(div.Diff)
//	}
//
// # Limitations
//
// - Programs that do not halt within MaxSteps are reported as inconclusive
// - The compiling core may overshoot an instruction budget by one block, so
// only halted or faulted runs are compared
package verify

// IssueType categorizes lint issues
type IssueType string

const (
	IssueStruct IssueType = "STRUCT" // The program cannot run as written
	IssueFlow   IssueType = "FLOW"   // Control flow worth knowing about
)

// Issue represents a single lint issue
type Issue struct {
	Type    IssueType
	PC      int // Instruction index or -1
	Message string
	Details map[string]interface{}
}

// Options configure the machine programs are checked on.
type Options struct {
	NumRegs            int
	IncrementAfterJump bool

	// MaxSteps bounds the reference run. Zero means no limit.
	MaxSteps uint64
}
