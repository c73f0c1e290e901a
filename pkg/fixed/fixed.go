// Package fixed provides the fixed-point arithmetic unit shared by
// the dot-product stages: exact 8-bit products and saturating
// accumulation into an accumulator of configurable width.
package fixed

import (
	"fmt"
	"math"
	"math/bits"
)

// Accumulator width limits in bits.
const (
	MinWidth = 16
	MaxWidth = 32
)

// Operand limits of signed 8-bit values.
const (
	Int8Min = math.MinInt8
	Int8Max = math.MaxInt8
)

// Mul returns the exact product of two 8-bit operands.
// The magnitude never exceeds 128*128, so it always fits in 16 bits.
func Mul(a, b int8) int32 {
	return int32(a) * int32(b)
}

// RequiredWidth calculates the accumulator width which guarantees
// no saturation when accumulating n worst-case products: enough
// magnitude bits to hold n*128*128 plus the sign bit, never less
// than MinWidth.
func RequiredWidth(n int) int {
	if n <= 0 {
		n = 1
	}
	bound := uint64(n) * 128 * 128
	if w := bits.Len64(bound) + 1; w > MinWidth {
		return w
	}
	return MinWidth
}

// Accumulator describes a signed accumulator of Width bits.
// Accumulation saturates at the representable bounds instead of wrapping.
type Accumulator struct {
	Width int
}

// NewAccumulator creates an Accumulator after validating the width.
func NewAccumulator(width int) (Accumulator, error) {
	if width < MinWidth || width > MaxWidth {
		return Accumulator{}, fmt.Errorf("accumulator width %d out of range [%d, %d]", width, MinWidth, MaxWidth)
	}
	return Accumulator{Width: width}, nil
}

// Max is the largest representable value.
func (a Accumulator) Max() int32 {
	return int32(int64(1)<<uint(a.Width-1) - 1)
}

// Min is the smallest representable value.
func (a Accumulator) Min() int32 {
	return int32(-(int64(1) << uint(a.Width-1)))
}

// Clamp saturates v into the accumulator range.
func (a Accumulator) Clamp(v int64) int32 {
	if max := int64(a.Max()); v > max {
		return int32(max)
	}
	if min := int64(a.Min()); v < min {
		return int32(min)
	}
	return int32(v)
}

// Saturated reports whether v lies on one of the accumulator bounds.
func (a Accumulator) Saturated(v int32) bool {
	return v == a.Max() || v == a.Min()
}

// Add returns acc+v saturated to the accumulator range.
func (a Accumulator) Add(acc int32, v int32) int32 {
	return a.Clamp(int64(acc) + int64(v))
}

// MulAdd returns acc+x*w saturated to the accumulator range.
func (a Accumulator) MulAdd(acc int32, x, w int8) int32 {
	return a.Clamp(int64(acc) + int64(Mul(x, w)))
}

// SaturateInt8 clamps v into the signed 8-bit range.
func SaturateInt8(v int32) int8 {
	if v > Int8Max {
		return Int8Max
	}
	if v < Int8Min {
		return Int8Min
	}
	return int8(v)
}
