// Package program loads chronal programs and opcode samples from their text
// form.
//
// A program is an optional "#ip <index>" directive followed by one
// instruction per line, either "<mnemonic> a b c" or "<opcode> a b c" when
// the opcodes are numeric and must be resolved through an isa.OpcodeTable.
// Samples come in three-line blocks:
//
//	Before: [3, 2, 1, 1]
//	9 2 1 2
//	After:  [3, 2, 2, 1]
package program

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/chronal/core"
	"github.com/sarchlab/chronal/isa"
)

// Line is one instruction line of a program.
type Line struct {
	// Number is the 1-based line number in the source text.
	Number int

	Numeric  bool
	Opcode   int
	Mnemonic isa.Mnemonic

	A, B, C int64
}

func (l Line) String() string {
	if l.Numeric {
		return fmt.Sprintf("%d %d %d %d", l.Opcode, l.A, l.B, l.C)
	}

	return fmt.Sprintf("%s %d %d %d", l.Mnemonic, l.A, l.B, l.C)
}

// Program is an ordered list of instruction lines. It is not modified after
// loading.
type Program struct {
	Lines []Line

	// IPRegister is the register bound to the instruction pointer, or
	// isa.NoIP.
	IPRegister int
}

// ParseError reports a malformed line.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// Load parses program text. Sample blocks are skipped, so a file holding
// samples followed by a program loads as that program.
func Load(text string) (*Program, error) {
	p := &Program{IPRegister: isa.NoIP}
	sc := newScanner(text)

	for sc.next() {
		line := sc.text()

		switch {
		case line == "":
			continue
		case isBefore(line):
			if _, err := parseSample(sc); err != nil {
				return nil, err
			}
		case strings.HasPrefix(line, "#ip"):
			if err := p.parseDirective(sc); err != nil {
				return nil, err
			}
		default:
			l, err := parseLine(sc)
			if err != nil {
				return nil, err
			}
			p.Lines = append(p.Lines, l)
		}
	}

	return p, nil
}

// LoadFile loads a program from a file.
func LoadFile(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	p, err := Load(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	return p, nil
}

func (p *Program) parseDirective(sc *scanner) error {
	fields := strings.Fields(sc.text())
	if len(fields) != 2 || fields[0] != "#ip" {
		return sc.errorf("malformed directive")
	}

	if p.IPRegister != isa.NoIP {
		return sc.errorf("duplicate #ip directive")
	}

	if len(p.Lines) > 0 {
		return sc.errorf("#ip directive after the first instruction")
	}

	idx, err := strconv.Atoi(fields[1])
	if err != nil || idx < 0 {
		return sc.errorf("invalid instruction pointer register")
	}

	p.IPRegister = idx

	return nil
}

func parseLine(sc *scanner) (Line, error) {
	fields := strings.Fields(sc.text())
	if len(fields) != 4 {
		return Line{}, sc.errorf("expected an opcode and three operands")
	}

	l := Line{Number: sc.lineNo}

	if op, err := strconv.Atoi(fields[0]); err == nil {
		if op < 0 {
			return Line{}, sc.errorf("negative opcode")
		}
		l.Numeric = true
		l.Opcode = op
	} else {
		m, ok := isa.ParseMnemonic(fields[0])
		if !ok {
			return Line{}, sc.errorf("unknown mnemonic %s", fields[0])
		}
		l.Mnemonic = m
	}

	operands, err := parseInts(fields[1:])
	if err != nil {
		return Line{}, sc.errorf("invalid operand")
	}
	l.A, l.B, l.C = operands[0], operands[1], operands[2]

	return l, nil
}

// NeedsTable reports whether the program uses numeric opcodes.
func (p *Program) NeedsTable() bool {
	for _, l := range p.Lines {
		if l.Numeric {
			return true
		}
	}

	return false
}

// Decode turns the program into core code. Numeric opcodes missing from the
// table decode to isa.Invalid; the core faults only if it reaches one.
func (p *Program) Decode(table isa.OpcodeTable) core.Code {
	code := core.Code{
		Insts:      make([]isa.Instruction, len(p.Lines)),
		IPRegister: p.IPRegister,
	}

	for i, l := range p.Lines {
		op := l.Mnemonic
		if l.Numeric {
			op, _ = table.Lookup(l.Opcode)
		}

		code.Insts[i] = isa.Instruction{Op: op, A: l.A, B: l.B, C: l.C}
	}

	return code
}

func (p *Program) String() string {
	var sb strings.Builder

	if p.IPRegister != isa.NoIP {
		fmt.Fprintf(&sb, "#ip %d\n", p.IPRegister)
	}

	for _, l := range p.Lines {
		sb.WriteString(l.String())
		sb.WriteByte('\n')
	}

	return sb.String()
}

func parseInts(fields []string) ([]int64, error) {
	out := make([]int64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseInt(strings.TrimSpace(f), 10, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}

	return out, nil
}
