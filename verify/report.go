package verify

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sarchlab/chronal/core"
	"github.com/sarchlab/chronal/isa"
)

// VerificationReport represents a complete verification report
type VerificationReport struct {
	Name         string
	Instructions int
	LintIssues   []Issue
	StructIssues []Issue
	FlowIssues   []Issue
	Equivalence  *Equivalence
	CheckErr     error
}

// GenerateReport runs lint and, when the code is structurally sound, the
// equivalence check.
func GenerateReport(name string, code core.Code, initial isa.Registers, opts Options) *VerificationReport {
	r := &VerificationReport{
		Name:         name,
		Instructions: code.Len(),
		LintIssues:   RunLint(code, opts),
	}

	for _, issue := range r.LintIssues {
		if issue.Type == IssueStruct {
			r.StructIssues = append(r.StructIssues, issue)
		} else {
			r.FlowIssues = append(r.FlowIssues, issue)
		}
	}

	if code.HasIP() && (code.IPRegister < 0 || code.IPRegister >= opts.NumRegs) {
		r.CheckErr = core.ErrIPRegister
		return r
	}

	r.Equivalence, r.CheckErr = CheckEquivalence(code, initial, opts)

	return r
}

// Passed reports whether the compiled and interpreted runs agree with the
// reference.
func (r *VerificationReport) Passed() bool {
	return r.CheckErr == nil
}

// WriteReport writes a formatted report to a writer
func (r *VerificationReport) WriteReport(w io.Writer) {
	separator := strings.Repeat("=", 60)

	fmt.Fprintln(w, separator)
	fmt.Fprintf(w, "VERIFICATION REPORT: %s (%d instructions)\n", r.Name, r.Instructions)
	fmt.Fprintln(w, separator)

	fmt.Fprintln(w, "\nSTAGE 1: STATIC LINT CHECKS")
	if len(r.LintIssues) == 0 {
		fmt.Fprintln(w, "✓ No lint issues found!")
	} else {
		fmt.Fprintf(w, "⚠ Found %d lint issues (%d STRUCT, %d FLOW):\n",
			len(r.LintIssues), len(r.StructIssues), len(r.FlowIssues))

		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.AppendHeader(table.Row{"Type", "PC", "Message"})
		for _, issue := range r.LintIssues {
			t.AppendRow(table.Row{issue.Type, issue.PC, issue.Message})
		}
		t.Render()
	}

	fmt.Fprintln(w, "\nSTAGE 2: EQUIVALENCE")
	r.writeEquivalence(w)

	fmt.Fprintln(w, "\n"+separator)
	if r.Passed() {
		fmt.Fprintln(w, "✓ PROGRAM PASSED ALL CHECKS")
	} else {
		fmt.Fprintf(w, "⚠ FAILED: %v\n", r.CheckErr)
	}
	fmt.Fprintln(w)
}

func (r *VerificationReport) writeEquivalence(w io.Writer) {
	if r.Equivalence == nil {
		fmt.Fprintf(w, "⚠ Not run: %v\n", r.CheckErr)
		return
	}

	if !r.Equivalence.Conclusive {
		fmt.Fprintf(w, "⚠ Inconclusive: the reference did not halt within %d steps\n",
			r.Equivalence.Reference.Executed)
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Run", "Status", "Executed", "Registers"})
	for _, o := range []Outcome{r.Equivalence.Reference, r.Equivalence.Interpreted, r.Equivalence.Compiled} {
		t.AppendRow(table.Row{o.Name, o.Status, o.Executed, "[" + strings.Join(o.Registers, ", ") + "]"})
	}
	t.Render()

	var div *DivergenceError
	if errors.As(r.CheckErr, &div) {
		fmt.Fprintln(w, div.Diff)
	}
}

// SaveReportToFile saves the report to a file
func (r *VerificationReport) SaveReportToFile(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	r.WriteReport(file)
	return nil
}
