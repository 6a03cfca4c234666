package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sarchlab/chronal/isa"
)

// Config describes the machine a Compiler targets.
type Config struct {
	NumRegs int

	// IPRegister is the register bound to the instruction pointer, or
	// isa.NoIP.
	IPRegister int

	// IncrementAfterJump makes the pointer advance past the target of an
	// instruction that wrote the instruction pointer register.
	IncrementAfterJump bool
}

// Block is the compiled form of the instructions reachable from one entry
// point without a computed jump.
type Block struct {
	Entry int

	// Folded is the number of instructions the block stands for.
	Folded int

	// Next is the instruction pointer after the block, or -1 when it is only
	// known at run time. It is also the new value of the pointer register.
	Next int

	// Outputs holds the new value of every register in terms of the values
	// on entry.
	Outputs []*Expr

	eval *Evaluator
}

// Apply runs the block on regs.
func (b *Block) Apply(regs isa.Registers) {
	b.eval.Apply(regs)
}

// Ops returns the number of arithmetic operations one application costs.
func (b *Block) Ops() int {
	return b.eval.Len()
}

func (b *Block) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "block %d: %d instructions", b.Entry, b.Folded)
	if b.Next >= 0 {
		fmt.Fprintf(&sb, ", next %d", b.Next)
	}
	sb.WriteByte('\n')

	for i, e := range b.Outputs {
		if e.Op == OpReg && e.Reg == i {
			continue
		}
		fmt.Fprintf(&sb, "  r%d = %s\n", i, e)
	}

	return sb.String()
}

// Stats counts compiler activity.
type Stats struct {
	Blocks       int
	Compilations int
	Hits         int
	Refusals     int
}

// Compiler builds and caches blocks. Blocks are never evicted; the program is
// assumed not to change.
type Compiler struct {
	insts []isa.Instruction
	cfg   Config
	pool  *Pool

	cache     map[int]*Block
	refused   map[int]bool
	stats     Stats
	onCompile func(*Block)
}

// New creates a compiler for the given instructions.
func New(insts []isa.Instruction, cfg Config) *Compiler {
	return &Compiler{
		insts:   insts,
		cfg:     cfg,
		pool:    NewPool(),
		cache:   make(map[int]*Block),
		refused: make(map[int]bool),
	}
}

// OnCompile registers a function called with every newly compiled block.
func (c *Compiler) OnCompile(f func(*Block)) {
	c.onCompile = f
}

// Block returns the block starting at entry, compiling it on first use. It
// returns false when the instruction at entry cannot be folded, which
// happens when it would fault. Such an instruction must be interpreted.
func (c *Compiler) Block(entry int) (*Block, bool) {
	if b, ok := c.cache[entry]; ok {
		c.stats.Hits++
		return b, true
	}

	if c.refused[entry] {
		return nil, false
	}

	b := c.compile(entry)
	if b == nil {
		c.refused[entry] = true
		c.stats.Refusals++

		return nil, false
	}

	c.cache[entry] = b
	c.stats.Compilations++

	if c.onCompile != nil {
		c.onCompile(b)
	}

	return b, true
}

// Stats returns the activity counters.
func (c *Compiler) Stats() Stats {
	s := c.stats
	s.Blocks = len(c.cache)

	return s
}

// Blocks returns the cached blocks ordered by entry point.
func (c *Compiler) Blocks() []*Block {
	blocks := make([]*Block, 0, len(c.cache))
	for _, b := range c.cache {
		blocks = append(blocks, b)
	}

	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].Entry < blocks[j].Entry
	})

	return blocks
}

func (c *Compiler) hasIP() bool {
	return c.cfg.IPRegister >= 0 && c.cfg.IPRegister < c.cfg.NumRegs
}

// compile executes instructions symbolically from entry. Folding stops
// before an instruction that would fault, before leaving the program,
// before revisiting an instruction and after a computed jump. A back edge
// therefore ends the block, so a loop runs one block application per
// iteration, and the block of each entry is compiled once.
func (c *Compiler) compile(entry int) *Block {
	p := c.pool
	ip := c.cfg.IPRegister

	sym := make([]*Expr, c.cfg.NumRegs)
	for i := range sym {
		sym[i] = p.Reg(i)
	}

	visited := make(map[int]bool)
	pc := entry
	folded := 0
	computed := false

	for pc >= 0 && pc < len(c.insts) && !visited[pc] {
		inst := c.insts[pc]
		if isa.Validate(inst, c.cfg.NumRegs) != nil {
			break
		}

		visited[pc] = true
		folded++

		if c.hasIP() {
			sym[ip] = p.Int(int64(pc))
		}

		val := c.symbolic(inst, sym)
		sym[inst.C] = val

		if !c.hasIP() || inst.C != int64(ip) {
			pc++
			continue
		}

		next := val
		if c.cfg.IncrementAfterJump {
			next = p.Binary(OpAdd, val, p.Int(1))
		}

		target, ok := c.chainTarget(inst, next)
		if !ok {
			sym[ip] = next
			computed = true

			break
		}

		pc = target
	}

	if folded == 0 {
		return nil
	}

	b := &Block{Entry: entry, Folded: folded, Next: -1}

	switch {
	case !c.hasIP():
		b.Next = pc
	case !computed:
		sym[ip] = p.Int(int64(pc))
		b.Next = pc
	}

	b.Outputs = p.SimplifyAll(sym)
	b.eval = NewEvaluator(b.Outputs)

	return b
}

// chainTarget recognises the two jumps whose target is known while
// compiling: "seti a _ ip" and "addi ip b ip".
func (c *Compiler) chainTarget(inst isa.Instruction, next *Expr) (int, bool) {
	switch {
	case inst.Op == isa.Seti:
	case inst.Op == isa.Addi && inst.A == int64(c.cfg.IPRegister):
	default:
		return 0, false
	}

	v, ok := next.Int64()
	if !ok || v < 0 || v > int64(len(c.insts)) {
		return 0, false
	}

	return int(v), true
}

func (c *Compiler) symbolic(inst isa.Instruction, sym []*Expr) *Expr {
	ka, kb := inst.Op.Operands()
	a := c.operand(ka, inst.A, sym)

	op, ok := opOf(inst.Op)
	if !ok {
		return a
	}

	return c.pool.Binary(op, a, c.operand(kb, inst.B, sym))
}

func (c *Compiler) operand(kind isa.OperandKind, spec int64, sym []*Expr) *Expr {
	switch kind {
	case isa.Reg:
		return sym[spec]
	case isa.Imm:
		return c.pool.Int(spec)
	default:
		return c.pool.Int(0)
	}
}
