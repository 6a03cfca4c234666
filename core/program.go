package core

import (
	"fmt"
	"strings"

	"github.com/sarchlab/chronal/isa"
)

// Code is a decoded program ready to run on a core.
type Code struct {
	Insts []isa.Instruction

	// IPRegister is the register bound to the instruction pointer, or
	// isa.NoIP when the core keeps a free-running counter instead.
	IPRegister int
}

// HasIP reports whether a register doubles as the instruction pointer.
func (c Code) HasIP() bool {
	return c.IPRegister != isa.NoIP
}

// Len returns the number of instructions.
func (c Code) Len() int {
	return len(c.Insts)
}

func (c Code) String() string {
	var sb strings.Builder

	if c.HasIP() {
		fmt.Fprintf(&sb, "#ip %d\n", c.IPRegister)
	}

	for _, inst := range c.Insts {
		sb.WriteString(inst.String())
		sb.WriteByte('\n')
	}

	return sb.String()
}
