package utils

import "strings"

// ElementType is a Gmsh element type code as it appears in the second column of
// an $Elements record. The translator treats it as an opaque integer; the
// methods below are for callers that care about shape.
type ElementType int

const (
	Unknown ElementType = 0
	// First order
	Line      ElementType = 1 // 2-node line
	Triangle  ElementType = 2 // 3-node triangle
	Quad      ElementType = 3 // 4-node quadrangle
	Tet       ElementType = 4 // 4-node tetrahedron
	Hex       ElementType = 5 // 8-node hexahedron
	Prism     ElementType = 6 // 6-node prism
	Pyramid   ElementType = 7 // 5-node pyramid
	Line3     ElementType = 8
	Triangle6 ElementType = 9
	Quad9     ElementType = 10
	Tet10     ElementType = 11
	Hex27     ElementType = 12
	Prism18   ElementType = 13
	Pyramid14 ElementType = 14
	Point     ElementType = 15 // 1-node point
	Quad8     ElementType = 16
	Hex20     ElementType = 17
	Prism15   ElementType = 18
	Pyramid13 ElementType = 19
	// Incomplete and high order
	Triangle9  ElementType = 20
	Triangle10 ElementType = 21
	Triangle12 ElementType = 22
	Triangle15 ElementType = 23
	// Triangle15I is the fifth order incomplete triangle, not to be confused with
	// the complete fourth order Triangle15
	Triangle15I ElementType = 24
	Triangle21  ElementType = 25
	Line4       ElementType = 26
	Line5       ElementType = 27
	Line6       ElementType = 28
	Tet20       ElementType = 29
	Tet35       ElementType = 30
	Tet56       ElementType = 31
	Hex64       ElementType = 92
	Hex125      ElementType = 93
)

type elementInfo struct {
	name      string
	numNodes  int
	dimension int
	order     int
}

var elementTable = map[ElementType]elementInfo{
	Line:        {"Line", 2, 1, 1},
	Triangle:    {"Triangle", 3, 2, 1},
	Quad:        {"Quad", 4, 2, 1},
	Tet:         {"Tet", 4, 3, 1},
	Hex:         {"Hex", 8, 3, 1},
	Prism:       {"Prism", 6, 3, 1},
	Pyramid:     {"Pyramid", 5, 3, 1},
	Line3:       {"Line3", 3, 1, 2},
	Triangle6:   {"Triangle6", 6, 2, 2},
	Quad9:       {"Quad9", 9, 2, 2},
	Tet10:       {"Tet10", 10, 3, 2},
	Hex27:       {"Hex27", 27, 3, 2},
	Prism18:     {"Prism18", 18, 3, 2},
	Pyramid14:   {"Pyramid14", 14, 3, 2},
	Point:       {"Point", 1, 0, 0},
	Quad8:       {"Quad8", 8, 2, 2},
	Hex20:       {"Hex20", 20, 3, 2},
	Prism15:     {"Prism15", 15, 3, 2},
	Pyramid13:   {"Pyramid13", 13, 3, 2},
	Triangle9:   {"Triangle9", 9, 2, 3},
	Triangle10:  {"Triangle10", 10, 2, 3},
	Triangle12:  {"Triangle12", 12, 2, 4},
	Triangle15:  {"Triangle15", 15, 2, 4},
	Triangle15I: {"Triangle15I", 15, 2, 5},
	Triangle21:  {"Triangle21", 21, 2, 5},
	Line4:       {"Line4", 4, 1, 3},
	Line5:       {"Line5", 5, 1, 4},
	Line6:       {"Line6", 6, 1, 5},
	Tet20:       {"Tet20", 20, 3, 3},
	Tet35:       {"Tet35", 35, 3, 4},
	Tet56:       {"Tet56", 56, 3, 5},
	Hex64:       {"Hex64", 64, 3, 3},
	Hex125:      {"Hex125", 125, 3, 4},
}

// String representation of element types
func (e ElementType) String() string {
	if info, ok := elementTable[e]; ok {
		return info.name
	}
	if e == Unknown {
		return "Unknown"
	}
	return "Invalid"
}

// IsKnown reports whether e is one of the codes in the Gmsh 2 table
func (e ElementType) IsKnown() bool {
	_, ok := elementTable[e]
	return ok
}

// GetDimension returns the spatial dimension of the element, -1 if unknown
func (e ElementType) GetDimension() int {
	if info, ok := elementTable[e]; ok {
		return info.dimension
	}
	return -1
}

// GetNumNodes returns the number of nodes for each element type
func (e ElementType) GetNumNodes() int {
	return elementTable[e].numNodes
}

// GetOrder returns the polynomial order of the element
func (e ElementType) GetOrder() int {
	return elementTable[e].order
}

// ParseElementType accepts either the table name ("Triangle6", case insensitive)
// or the Gmsh spelling ("triangle_6_node", "triangle_9_node_incomplete").
func ParseElementType(name string) (ElementType, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if strings.Contains(key, "_node") {
		key = strings.Replace(key, "_node", "", 1)
		alias, ok := gmshAliases[key]
		return alias, ok
	}
	for et, info := range elementTable {
		if strings.ToLower(info.name) == key {
			return et, true
		}
	}
	return Unknown, false
}

var gmshAliases = map[string]ElementType{
	"line_2":                 Line,
	"triangle_3":             Triangle,
	"quadrangle_4":           Quad,
	"tetrahedron_4":          Tet,
	"hexahedron_8":           Hex,
	"prism_6":                Prism,
	"pyramid_5":              Pyramid,
	"line_3":                 Line3,
	"triangle_6":             Triangle6,
	"quadrangle_9":           Quad9,
	"tetrahedron_10":         Tet10,
	"hexahedron_27":          Hex27,
	"prism_18":               Prism18,
	"pyramid_14":             Pyramid14,
	"point_1":                Point,
	"quadrangle_8":           Quad8,
	"hexahedron_20":          Hex20,
	"prism_15":               Prism15,
	"pyramid_13":             Pyramid13,
	"triangle_9_incomplete":  Triangle9,
	"triangle_10":            Triangle10,
	"triangle_12_incomplete": Triangle12,
	"triangle_15":            Triangle15,
	"triangle_15_incomplete": Triangle15I,
	"triangle_21":            Triangle21,
	"edge_4":                 Line4,
	"edge_5":                 Line5,
	"edge_6":                 Line6,
	"tetrahedron_20":         Tet20,
	"tetrahedron_35":         Tet35,
	"tetrahedron_56":         Tet56,
	"hexahedron_64":          Hex64,
	"hexahedron_125":         Hex125,
}
