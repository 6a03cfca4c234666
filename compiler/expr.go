// Package compiler folds straight-line runs of instructions into cached
// register transformations by executing them symbolically.
package compiler

import (
	"math"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
	"github.com/sarchlab/chronal/isa"
)

// Op is the operator of an expression node.
type Op uint8

// Expression operators.
const (
	OpConst Op = iota
	OpReg
	OpAdd
	OpMul
	OpAnd
	OpOr
	OpGt
	OpEq
)

var opSymbols = [...]string{
	OpAdd: "+",
	OpMul: "*",
	OpAnd: "&",
	OpOr:  "|",
	OpGt:  ">",
	OpEq:  "==",
}

func (op Op) commutative() bool {
	return op != OpGt
}

// Expr is a node of a register expression. Expressions are interned by a
// Pool: two structurally equal expressions of the same pool are the same
// pointer. They are immutable.
type Expr struct {
	Op   Op
	Val  uint256.Int
	Reg  int
	X, Y *Expr

	id int
}

// IsConst reports whether the expression is a literal.
func (e *Expr) IsConst() bool {
	return e.Op == OpConst
}

// Int64 returns the value of a literal that fits a signed 64-bit integer.
func (e *Expr) Int64() (int64, bool) {
	if e.Op != OpConst {
		return 0, false
	}

	if e.Val.Sign() >= 0 {
		if !e.Val.IsUint64() || e.Val.Uint64() > math.MaxInt64 {
			return 0, false
		}

		return int64(e.Val.Uint64()), true
	}

	var abs uint256.Int
	abs.Neg(&e.Val)
	if !abs.IsUint64() || abs.Uint64() > 1<<63 {
		return 0, false
	}

	return int64(-abs.Uint64()), true
}

const maxStringLen = 4096

func (e *Expr) String() string {
	var sb strings.Builder
	e.write(&sb)

	return sb.String()
}

func (e *Expr) write(sb *strings.Builder) {
	if sb.Len() > maxStringLen {
		sb.WriteString("...")
		return
	}

	switch e.Op {
	case OpConst:
		sb.WriteString(isa.SignedString(&e.Val))
	case OpReg:
		sb.WriteString("r")
		sb.WriteString(strconv.Itoa(e.Reg))
	default:
		sb.WriteByte('(')
		e.X.write(sb)
		sb.WriteByte(' ')
		sb.WriteString(opSymbols[e.Op])
		sb.WriteByte(' ')
		e.Y.write(sb)
		sb.WriteByte(')')
	}
}

type nodeKey struct {
	op   Op
	val  uint256.Int
	reg  int
	x, y int
}

// Pool creates and interns expressions.
type Pool struct {
	nodes map[nodeKey]*Expr
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{nodes: make(map[nodeKey]*Expr)}
}

// Len returns the number of distinct nodes created so far.
func (p *Pool) Len() int {
	return len(p.nodes)
}

func (p *Pool) intern(k nodeKey, x, y *Expr) *Expr {
	if e, ok := p.nodes[k]; ok {
		return e
	}

	e := &Expr{Op: k.op, Val: k.val, Reg: k.reg, X: x, Y: y, id: len(p.nodes) + 1}
	p.nodes[k] = e

	return e
}

// Const returns the literal v.
func (p *Pool) Const(v *uint256.Int) *Expr {
	return p.intern(nodeKey{op: OpConst, val: *v}, nil, nil)
}

// Int returns the literal v.
func (p *Pool) Int(v int64) *Expr {
	var u uint256.Int
	isa.SetInt64(&u, v)

	return p.Const(&u)
}

// Reg returns the input value of register i.
func (p *Pool) Reg(i int) *Expr {
	return p.intern(nodeKey{op: OpReg, reg: i}, nil, nil)
}

// Binary returns x op y after folding constants and trivial identities.
func (p *Pool) Binary(op Op, x, y *Expr) *Expr {
	if x.IsConst() && y.IsConst() {
		var z uint256.Int
		apply(op, &z, &x.Val, &y.Val)

		return p.Const(&z)
	}

	if op.commutative() && (y.IsConst() && !x.IsConst() || x.id > y.id && !x.IsConst()) {
		x, y = y, x
	}

	if e := p.identity(op, x, y); e != nil {
		return e
	}

	return p.intern(nodeKey{op: op, x: x.id, y: y.id}, x, y)
}

// identity applies x op y rewrites. Commutative operands arrive with a
// constant, if any, in x.
func (p *Pool) identity(op Op, x, y *Expr) *Expr {
	var zero, one, ones uint256.Int
	one.SetOne()
	ones.SetAllOne()

	if x == y {
		switch op {
		case OpAnd, OpOr:
			return x
		case OpEq:
			return p.Const(&one)
		case OpGt:
			return p.Const(&zero)
		}
	}

	if !x.IsConst() {
		return nil
	}

	switch {
	case op == OpAdd && x.Val.IsZero():
		return y
	case op == OpMul && x.Val.IsZero():
		return x
	case op == OpMul && x.Val.Eq(&one):
		return y
	case op == OpAnd && x.Val.IsZero():
		return x
	case op == OpAnd && x.Val.Eq(&ones):
		return y
	case op == OpOr && x.Val.IsZero():
		return y
	case op == OpOr && x.Val.Eq(&ones):
		return x
	}

	return nil
}

// apply computes z = x op y on concrete values.
func apply(op Op, z, x, y *uint256.Int) {
	switch op {
	case OpAdd:
		z.Add(x, y)
	case OpMul:
		z.Mul(x, y)
	case OpAnd:
		z.And(x, y)
	case OpOr:
		z.Or(x, y)
	case OpGt:
		if x.Sgt(y) {
			z.SetOne()
		} else {
			z.Clear()
		}
	case OpEq:
		if x.Eq(y) {
			z.SetOne()
		} else {
			z.Clear()
		}
	default:
		panic("not a binary operator")
	}
}

// opOf maps a mnemonic to the operator it computes. Set instructions have no
// operator.
func opOf(m isa.Mnemonic) (Op, bool) {
	switch m {
	case isa.Addr, isa.Addi:
		return OpAdd, true
	case isa.Mulr, isa.Muli:
		return OpMul, true
	case isa.Banr, isa.Bani:
		return OpAnd, true
	case isa.Borr, isa.Bori:
		return OpOr, true
	case isa.Gtir, isa.Gtri, isa.Gtrr:
		return OpGt, true
	case isa.Eqir, isa.Eqri, isa.Eqrr:
		return OpEq, true
	default:
		return 0, false
	}
}
