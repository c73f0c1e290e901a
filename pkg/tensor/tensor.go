// Package tensor defines the fixed-length quantized vectors flowing
// through the inference pipeline. Length and bit width of a vector
// are determined by its role and never change at runtime.
package tensor

import (
	"fmt"
	"strconv"
)

// Role identifies what a vector represents in the pipeline.
type Role int

// Roles
const (
	RoleInput Role = iota
	RoleHidden
	RoleAccumulator
	RoleOutput
)

var roleNames = [...]string{"input", "hidden", "accumulator", "output"}

// String implements Stringer.
func (r Role) String() string {
	if r >= 0 && int(r) < len(roleNames) {
		return roleNames[r]
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// Shape is the declared length and element width of a vector.
type Shape struct {
	Role  Role
	Len   int
	Width int
}

// Check validates the actual length against the declared one.
func (s Shape) Check(n int) error {
	if n != s.Len {
		return &ShapeError{Role: s.Role, Expected: s.Len, Actual: n}
	}
	return nil
}

// String implements Stringer.
func (s Shape) String() string {
	return fmt.Sprintf("%s[%d]i%d", s.Role, s.Len, s.Width)
}

// Vec8 is a vector of signed 8-bit values, used for input and
// hidden activations.
type Vec8 []int8

// Vec8FromBytes decodes two's complement bytes as they arrive on the wire.
func Vec8FromBytes(b []byte) Vec8 {
	v := make(Vec8, len(b))
	for i, x := range b {
		v[i] = int8(x)
	}
	return v
}

// Bytes encodes the vector into two's complement bytes.
func (v Vec8) Bytes() []byte {
	b := make([]byte, len(v))
	for i, x := range v {
		b[i] = byte(x)
	}
	return b
}

// Acc is a vector of accumulator values. Values always lie within the
// range of the accumulator width they were produced with.
type Acc []int32

// Dist is the normalized output distribution, each value in [0, SCALE].
type Dist []uint8

// Sum adds up all elements.
func (d Dist) Sum() int {
	var s int
	for _, v := range d {
		s += int(v)
	}
	return s
}

// ArgMax returns the index of the largest element, the first one on ties.
func (d Dist) ArgMax() int {
	idx := -1
	for i, v := range d {
		if idx < 0 || v > d[idx] {
			idx = i
		}
	}
	return idx
}

// Clone copies the distribution.
func (d Dist) Clone() Dist {
	if d == nil {
		return nil
	}
	c := make(Dist, len(d))
	copy(c, d)
	return c
}

// ParseVec8 parses int8 values given as text, padding with zeros up
// to dim.
func ParseVec8(args []string, dim int) (Vec8, error) {
	if len(args) > dim {
		return nil, fmt.Errorf("%d values given, dimension is %d", len(args), dim)
	}
	v := make(Vec8, dim)
	for n, arg := range args {
		val, err := strconv.ParseInt(arg, 0, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", arg, err)
		}
		v[n] = int8(val)
	}
	return v, nil
}
