package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sarchlab/chronal/compiler"
	"github.com/sarchlab/chronal/isa"
)

const (
	// LevelTrace sits between info and warn and carries per-tick records.
	LevelTrace slog.Level = slog.LevelInfo + 1
)

// Trace logs msg at LevelTrace with the default logger.
func Trace(msg string, args ...any) {
	slog.Log(context.Background(), LevelTrace, msg, args...)
}

// PrintState writes the run state and the register file of a core as a
// table.
func PrintState(w io.Writer, c *Core) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("%s: %s", c.Name(), c.Status()))

	t.AppendHeader(table.Row{"Register", "Value"})
	for i := range c.state.Regs {
		name := fmt.Sprintf("r%d", i)
		if c.state.Code.HasIP() && i == c.state.Code.IPRegister {
			name += " (ip)"
		}
		t.AppendRow(table.Row{name, isa.SignedString(&c.state.Regs[i])})
	}

	t.AppendSeparator()
	t.AppendRow(table.Row{"PC", c.state.PC})
	t.AppendRow(table.Row{"Executed", c.state.Executed})

	if c.comp != nil {
		stats := c.comp.Stats()
		t.AppendRow(table.Row{"Blocks", stats.Blocks})
		t.AppendRow(table.Row{"Block hits", stats.Hits})
	}

	t.Render()
}

// PrintBlocks writes one table row per register a block changes.
func PrintBlocks(w io.Writer, blocks []*compiler.Block) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Compiled blocks")
	t.AppendHeader(table.Row{"Entry", "Folded", "Next", "Ops", "Register", "Expression"})

	for _, b := range blocks {
		next := "dynamic"
		if b.Next >= 0 {
			next = fmt.Sprint(b.Next)
		}

		first := true
		for i, e := range b.Outputs {
			if e.Op == compiler.OpReg && e.Reg == i {
				continue
			}

			if first {
				t.AppendRow(table.Row{b.Entry, b.Folded, next, b.Ops(), fmt.Sprintf("r%d", i), e})
				first = false
			} else {
				t.AppendRow(table.Row{"", "", "", "", fmt.Sprintf("r%d", i), e})
			}
		}

		if first {
			t.AppendRow(table.Row{b.Entry, b.Folded, next, b.Ops(), "", "unchanged"})
		}
		t.AppendSeparator()
	}

	t.Render()
}

// LogState writes a debug record of the core state.
func LogState(c *Core) {
	slog.Debug("StateCheckpoint",
		"Core", c.Name(),
		"PC", c.state.PC,
		"Status", c.status,
		"Executed", c.state.Executed,
		"Registers", c.state.Regs.String(),
	)
}
