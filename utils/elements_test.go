package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestElementTable(t *testing.T) {
	assert.Equal(t, 2, Line.GetNumNodes())
	assert.Equal(t, 3, Triangle.GetNumNodes())
	assert.Equal(t, 125, Hex125.GetNumNodes())
	assert.Equal(t, 56, Tet56.GetNumNodes())
	assert.Equal(t, 0, Point.GetDimension())
	assert.Equal(t, 3, Hex64.GetDimension())
	assert.Equal(t, 4, Hex125.GetOrder())
	assert.Equal(t, "Triangle6", Triangle6.String())
	assert.Equal(t, "Unknown", Unknown.String())
	assert.Equal(t, "Invalid", ElementType(77).String())
	assert.False(t, ElementType(77).IsKnown())
	assert.Equal(t, -1, ElementType(77).GetDimension())
	assert.Equal(t, 0, ElementType(77).GetNumNodes())
	for et := range elementTable {
		assert.True(t, et.IsKnown())
		assert.Greater(t, et.GetNumNodes(), 0, et.String())
	}
}

func TestParseElementType(t *testing.T) {
	cases := map[string]ElementType{
		"Triangle":                    Triangle,
		"tet10":                       Tet10,
		" HEX ":                       Hex,
		"line_2_node":                 Line,
		"hexahedron_125_node":         Hex125,
		"triangle_9_node_incomplete":  Triangle9,
		"triangle_15_node_incomplete": Triangle15I,
		"triangle_15_node":            Triangle15,
		"edge_4_node":                 Line4,
	}
	for name, want := range cases {
		got, ok := ParseElementType(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
	_, ok := ParseElementType("dodecahedron")
	assert.False(t, ok)
	_, ok = ParseElementType("prism_7_node")
	assert.False(t, ok)
}
