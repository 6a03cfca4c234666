package compiler

import (
	"sort"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
)

// maxTerms bounds the size of an expanded sum of products. Larger
// expressions keep their tree shape.
const maxTerms = 64

// term is coef * atoms[0] * atoms[1] * ... with atoms ordered by node id.
type term struct {
	coef  uint256.Int
	atoms []*Expr
}

// poly is a sum of terms keyed by their atom list. The constant term has the
// empty key.
type poly map[string]term

func monoKey(atoms []*Expr) string {
	ids := make([]string, len(atoms))
	for i, a := range atoms {
		ids[i] = strconv.Itoa(a.id)
	}

	return strings.Join(ids, ",")
}

func constPoly(v *uint256.Int) poly {
	p := poly{}
	if !v.IsZero() {
		p[""] = term{coef: *v}
	}

	return p
}

func atomPoly(a *Expr) poly {
	t := term{atoms: []*Expr{a}}
	t.coef.SetOne()

	return poly{monoKey(t.atoms): t}
}

func (p poly) add(k string, t term) {
	if old, ok := p[k]; ok {
		old.coef.Add(&old.coef, &t.coef)
		t = old
	}

	if t.coef.IsZero() {
		delete(p, k)
		return
	}

	p[k] = t
}

func addPoly(a, b poly) poly {
	out := make(poly, len(a)+len(b))
	for k, t := range a {
		out[k] = t
	}

	for k, t := range b {
		out.add(k, t)
	}

	return out
}

func mulPoly(a, b poly) (poly, bool) {
	if len(a)*len(b) > maxTerms {
		return nil, false
	}

	out := make(poly, len(a)*len(b))
	for _, ta := range a {
		for _, tb := range b {
			t := term{atoms: mergeAtoms(ta.atoms, tb.atoms)}
			t.coef.Mul(&ta.coef, &tb.coef)
			out.add(monoKey(t.atoms), t)
		}
	}

	return out, true
}

func mergeAtoms(a, b []*Expr) []*Expr {
	out := make([]*Expr, 0, len(a)+len(b))

	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].id <= b[j].id {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}

	out = append(out, a[i:]...)

	return append(out, b[j:]...)
}

type simplifier struct {
	pool  *Pool
	done  map[*Expr]*Expr
	polys map[*Expr]poly
}

// Simplify rewrites e into a canonical form. Sums and products over
// registers and opaque subterms are expanded into a sum of monomials with
// folded coefficients, and constant subterms and trivial identities are
// folded. The result computes the same value as e for every input.
func (p *Pool) Simplify(e *Expr) *Expr {
	s := &simplifier{
		pool:  p,
		done:  make(map[*Expr]*Expr),
		polys: make(map[*Expr]poly),
	}

	return s.simplify(e)
}

// SimplifyAll simplifies several expressions sharing one memo.
func (p *Pool) SimplifyAll(es []*Expr) []*Expr {
	s := &simplifier{
		pool:  p,
		done:  make(map[*Expr]*Expr),
		polys: make(map[*Expr]poly),
	}

	out := make([]*Expr, len(es))
	for i, e := range es {
		out[i] = s.simplify(e)
	}

	return out
}

func (s *simplifier) simplify(e *Expr) *Expr {
	if r, ok := s.done[e]; ok {
		return r
	}

	var r *Expr

	switch e.Op {
	case OpConst, OpReg:
		r = e
	case OpAdd, OpMul:
		if p, ok := s.poly(e); ok {
			r = s.fromPoly(p)
		} else {
			r = s.pool.Binary(e.Op, s.simplify(e.X), s.simplify(e.Y))
		}
	default:
		r = s.pool.Binary(e.Op, s.simplify(e.X), s.simplify(e.Y))
	}

	s.done[e] = r

	return r
}

func (s *simplifier) poly(e *Expr) (poly, bool) {
	if p, ok := s.polys[e]; ok {
		return p, p != nil
	}

	var (
		p  poly
		ok = true
	)

	switch e.Op {
	case OpConst:
		p = constPoly(&e.Val)
	case OpReg:
		p = atomPoly(e)
	case OpAdd, OpMul:
		x, okx := s.poly(e.X)
		y, oky := s.poly(e.Y)

		switch {
		case !okx || !oky:
			ok = false
		case e.Op == OpAdd:
			p = addPoly(x, y)
			ok = len(p) <= maxTerms
		default:
			p, ok = mulPoly(x, y)
		}
	default:
		a := s.simplify(e)

		switch a.Op {
		case OpConst:
			p = constPoly(&a.Val)
		case OpAdd, OpMul:
			p, ok = s.poly(a)
		default:
			p = atomPoly(a)
		}
	}

	if !ok {
		p = nil
	}
	s.polys[e] = p

	return p, ok
}

// fromPoly builds the expression of a sum, highest-degree monomials first and
// the constant term last.
func (s *simplifier) fromPoly(p poly) *Expr {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool {
		ti, tj := p[keys[i]], p[keys[j]]
		if len(ti.atoms) != len(tj.atoms) {
			return len(ti.atoms) > len(tj.atoms)
		}

		return keys[i] < keys[j]
	})

	var sum *Expr
	for _, k := range keys {
		t := p[k]

		var prod *Expr
		for _, a := range t.atoms {
			if prod == nil {
				prod = a
			} else {
				prod = s.pool.Binary(OpMul, prod, a)
			}
		}

		c := t.coef
		switch {
		case prod == nil:
			prod = s.pool.Const(&c)
		case !c.IsUint64() || c.Uint64() != 1:
			prod = s.pool.Binary(OpMul, s.pool.Const(&c), prod)
		}

		if sum == nil {
			sum = prod
		} else {
			sum = s.pool.Binary(OpAdd, sum, prod)
		}
	}

	if sum == nil {
		return s.pool.Int(0)
	}

	return sum
}
