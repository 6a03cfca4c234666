package isa

import (
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// Registers is the register file of a machine. Each register holds a 256-bit
// two's complement signed integer. The length never changes once created.
type Registers []uint256.Int

// NewRegisters creates n zeroed registers.
func NewRegisters(n int) Registers {
	return make(Registers, n)
}

// FromInt64s creates a register file holding the given values.
func FromInt64s(vals ...int64) Registers {
	r := make(Registers, len(vals))
	for i, v := range vals {
		SetInt64(&r[i], v)
	}

	return r
}

// SetInt64 stores the sign-extended value v into z.
func SetInt64(z *uint256.Int, v int64) *uint256.Int {
	if v >= 0 {
		return z.SetUint64(uint64(v))
	}

	z.SetUint64(uint64(-v))

	return z.Neg(z)
}

// Signed converts v into a big.Int honouring the sign bit.
func Signed(v *uint256.Int) *big.Int {
	if v.Sign() >= 0 {
		return v.ToBig()
	}

	var abs uint256.Int
	abs.Neg(v)

	return new(big.Int).Neg(abs.ToBig())
}

// SignedString formats v as a signed decimal number.
func SignedString(v *uint256.Int) string {
	if v.IsUint64() && v.Uint64() <= 1<<62 {
		return big.NewInt(int64(v.Uint64())).String()
	}

	return Signed(v).String()
}

// Clone returns an independent copy.
func (r Registers) Clone() Registers {
	c := make(Registers, len(r))
	copy(c, r)

	return c
}

// Equal reports whether both register files hold the same values.
func (r Registers) Equal(o Registers) bool {
	if len(r) != len(o) {
		return false
	}

	for i := range r {
		if !r[i].Eq(&o[i]) {
			return false
		}
	}

	return true
}

// Int64 returns register i truncated to a signed 64-bit integer.
func (r Registers) Int64(i int) int64 {
	return int64(r[i].Uint64())
}

// Int64s returns all registers truncated to signed 64-bit integers.
func (r Registers) Int64s() []int64 {
	out := make([]int64, len(r))
	for i := range r {
		out[i] = r.Int64(i)
	}

	return out
}

// Index returns the value of register i as a non-negative int, or false if
// it does not fit one.
func (r Registers) Index(i int) (int, bool) {
	if !r[i].IsUint64() {
		return 0, false
	}

	v := r[i].Uint64()
	if v > uint64(maxInt) {
		return 0, false
	}

	return int(v), true
}

const maxInt = int(^uint(0) >> 1)

func (r Registers) String() string {
	var sb strings.Builder

	sb.WriteByte('[')
	for i := range r {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(SignedString(&r[i]))
	}
	sb.WriteByte(']')

	return sb.String()
}
