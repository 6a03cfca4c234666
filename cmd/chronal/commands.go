package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sarchlab/akita/v4/monitoring"
	"gopkg.in/urfave/cli.v1"

	"github.com/sarchlab/chronal/api"
	"github.com/sarchlab/chronal/config"
	"github.com/sarchlab/chronal/core"
	"github.com/sarchlab/chronal/infer"
	"github.com/sarchlab/chronal/isa"
	"github.com/sarchlab/chronal/program"
	"github.com/sarchlab/chronal/verify"
)

// verifySteps bounds the reference run of verify when no budget is set.
const verifySteps = 10_000_000

var (
	runCommand = cli.Command{
		Action:    runProgram,
		Name:      "run",
		Usage:     "Run a program and print the final registers",
		ArgsUsage: "<program>",
		Flags:     append(machineFlags, noOptimizeFlag, monitorFlag),
	}

	inferCommand = cli.Command{
		Action:    inferOpcodes,
		Name:      "infer",
		Usage:     "Infer the opcode table from a sample file",
		ArgsUsage: "<samples>",
		Flags:     []cli.Flag{logLevelFlag},
	}

	lintCommand = cli.Command{
		Action:    lintProgram,
		Name:      "lint",
		Usage:     "Check a program for instructions that fault or end blocks",
		ArgsUsage: "<program>",
		Flags:     machineFlags,
	}

	verifyCommand = cli.Command{
		Action:    verifyProgram,
		Name:      "verify",
		Usage:     "Check that compiled and interpreted runs agree",
		ArgsUsage: "<program>",
		Flags:     machineFlags,
	}

	blocksCommand = cli.Command{
		Action:    dumpBlocks,
		Name:      "blocks",
		Usage:     "Run a program and print the compiled blocks",
		ArgsUsage: "<program>",
		Flags:     machineFlags,
	}
)

type resolveFunc func([]infer.Sample) (isa.OpcodeTable, error)

// loadProgram reads the configured program. A table is inferred from the
// samples only when the program uses numeric opcodes.
func loadProgram(cfg config.Config, resolve resolveFunc) (*program.Program, isa.OpcodeTable, error) {
	if cfg.Program == "" {
		return nil, nil, errors.New("no program given")
	}

	prog, err := program.LoadFile(cfg.Program)
	if err != nil {
		return nil, nil, err
	}

	if !prog.NeedsTable() {
		return prog, nil, nil
	}

	if cfg.Samples == "" {
		return nil, nil, fmt.Errorf("%w, pass --samples", api.ErrNoOpcodeTable)
	}

	samples, err := program.LoadSamplesFile(cfg.Samples)
	if err != nil {
		return nil, nil, err
	}

	opcodes, err := resolve(samples)
	if err != nil {
		return nil, nil, err
	}

	return prog, opcodes, nil
}

func runProgram(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	builder := cfg.DriverBuilder()

	var monitor *monitoring.Monitor
	if ctx.Bool(monitorFlag.Name) {
		monitor = monitoring.NewMonitor()
		builder = builder.WithMonitor(monitor)
	}

	driver := builder.Build("Driver")

	if monitor != nil {
		monitor.StartServer()
	}

	prog, opcodes, err := loadProgram(cfg, driver.InferOpcodes)
	if err != nil {
		return err
	}

	res, err := driver.Run(prog, opcodes, cfg.InitialRegisters(), cfg.Optimize)
	if res.Registers != nil {
		printResult(os.Stdout, cfg.Program, prog.IPRegister, res)
	}

	return exitStatus(err)
}

func dumpBlocks(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	driver := cfg.DriverBuilder().Build("Driver")

	prog, opcodes, err := loadProgram(cfg, driver.InferOpcodes)
	if err != nil {
		return err
	}

	res, err := driver.Run(prog, opcodes, cfg.InitialRegisters(), true)
	if res.Registers != nil {
		core.PrintBlocks(os.Stdout, res.Blocks)
		fmt.Printf("%d blocks, %d compilations, %d hits, %d refusals\n",
			res.Stats.Blocks, res.Stats.Compilations, res.Stats.Hits, res.Stats.Refusals)
	}

	return exitStatus(err)
}

func inferOpcodes(ctx *cli.Context) error {
	if ctx.IsSet(logLevelFlag.Name) {
		setupLogging(config.Log{Level: ctx.String(logLevelFlag.Name)})
	}

	if ctx.NArg() == 0 {
		return errors.New("no sample file given")
	}

	samples, err := program.LoadSamplesFile(ctx.Args().First())
	if err != nil {
		return err
	}

	fmt.Printf("%d of %d samples behave like three or more opcodes\n",
		infer.CountAtLeast(samples, 3), len(samples))

	cands := infer.Candidates(samples)

	opcodes, err := infer.Resolve(samples)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Opcode table")
	t.AppendHeader(table.Row{"Opcode", "Mnemonic", "Candidates"})
	for _, op := range opcodes.Opcodes() {
		t.AppendRow(table.Row{op, opcodes[op], cands[op]})
	}
	t.Render()

	return nil
}

func lintProgram(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	prog, opcodes, err := loadProgram(cfg, infer.Resolve)
	if err != nil {
		return err
	}

	issues := verify.RunLint(prog.Decode(opcodes), verifyOptions(cfg))
	if len(issues) == 0 {
		fmt.Println("✓ No lint issues found!")
		return nil
	}

	t := tableWriter(os.Stdout)
	t.AppendHeader(table.Row{"Type", "PC", "Message"})
	for _, issue := range issues {
		t.AppendRow(table.Row{issue.Type, issue.PC, issue.Message})
	}
	t.Render()

	if n := verify.CountIssues(issues)[verify.IssueStruct]; n > 0 {
		return &statusError{err: fmt.Errorf("%d instructions cannot run", n), code: 1}
	}

	return nil
}

func verifyProgram(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	prog, opcodes, err := loadProgram(cfg, infer.Resolve)
	if err != nil {
		return err
	}

	r := verify.GenerateReport(cfg.Program, prog.Decode(opcodes), cfg.InitialRegisters(), verifyOptions(cfg))
	r.WriteReport(os.Stdout)

	if !r.Passed() {
		return &statusError{err: r.CheckErr, code: 1}
	}

	return nil
}

func verifyOptions(cfg config.Config) verify.Options {
	opts := verify.Options{
		NumRegs:            cfg.Registers,
		IncrementAfterJump: cfg.IncrementAfterJump,
		MaxSteps:           cfg.Budget,
	}

	if opts.MaxSteps == 0 {
		opts.MaxSteps = verifySteps
	}

	return opts
}

// exitStatus maps run errors to exit codes: 2 for an exhausted budget, 3
// for a runtime fault.
func exitStatus(err error) error {
	var fault *core.RuntimeFault

	switch {
	case err == nil:
		return nil
	case errors.Is(err, api.ErrBudgetExceeded):
		return &statusError{err: err, code: 2}
	case errors.As(err, &fault):
		return &statusError{err: err, code: 3}
	default:
		return err
	}
}

func printResult(w io.Writer, name string, ip int, res api.Result) {
	t := tableWriter(w)
	t.SetTitle(fmt.Sprintf("%s: %s", name, res.Status))
	t.AppendHeader(table.Row{"Register", "Value"})

	for i := range res.Registers {
		reg := fmt.Sprintf("r%d", i)
		if i == ip {
			reg += " (ip)"
		}
		t.AppendRow(table.Row{reg, isa.SignedString(&res.Registers[i])})
	}

	t.AppendSeparator()
	t.AppendRow(table.Row{"PC", res.PC})
	t.AppendRow(table.Row{"Executed", res.Executed})
	if res.Stats.Compilations > 0 {
		t.AppendRow(table.Row{"Blocks", res.Stats.Blocks})
		t.AppendRow(table.Row{"Block hits", res.Stats.Hits})
	}

	t.Render()
}

func tableWriter(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)

	return t
}
