package tensor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShapeCheck(t *testing.T) {
	s := Shape{Role: RoleInput, Len: 8, Width: 8}
	require.NoError(t, s.Check(8))
	err := s.Check(7)
	var shapeErr *ShapeError
	require.True(t, errors.As(err, &shapeErr))
	require.Equal(t, 8, shapeErr.Expected)
	require.Equal(t, 7, shapeErr.Actual)
	require.Equal(t, "shape error: input expects 8 elements, got 7", err.Error())
	require.Equal(t, "input[8]i8", s.String())
}

func TestVec8Bytes(t *testing.T) {
	v := Vec8{-128, -1, 0, 1, 127}
	b := v.Bytes()
	require.Equal(t, []byte{0x80, 0xff, 0, 1, 0x7f}, b)
	require.Equal(t, v, Vec8FromBytes(b))
}

func TestDist(t *testing.T) {
	d := Dist{10, 200, 45, 200}
	require.Equal(t, 455, d.Sum())
	require.Equal(t, 1, d.ArgMax())
	c := d.Clone()
	c[0] = 0
	require.Equal(t, uint8(10), d[0])
	require.Equal(t, -1, Dist(nil).ArgMax())
}

func TestRoleString(t *testing.T) {
	require.Equal(t, "accumulator", RoleAccumulator.String())
	require.Equal(t, "role(9)", Role(9).String())
}

func TestParseVec8(t *testing.T) {
	testCases := []struct {
		args  []string
		v     Vec8
		valid bool
	}{
		{nil, Vec8{0, 0, 0, 0}, true},
		{[]string{"1", "-2"}, Vec8{1, -2, 0, 0}, true},
		{[]string{"127", "-128", "0x10", "0"}, Vec8{127, -128, 16, 0}, true},
		{[]string{"128"}, nil, false},
		{[]string{"a"}, nil, false},
		{[]string{"1", "2", "3", "4", "5"}, nil, false},
	}
	for _, tc := range testCases {
		v, err := ParseVec8(tc.args, 4)
		if !tc.valid {
			require.Error(t, err, "%v", tc.args)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tc.v, v)
	}
}
