package readers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/notargets/gmshtranslate/utils"
)

// Gmsh22Builder assembles Gmsh 2.2 ASCII text. It is used to build test
// inputs, including deliberately broken ones.
type Gmsh22Builder struct {
	physNames    []string
	nodes        []string
	elements     []string
	nodeCount    *int
	elementCount *int
	omitFormat   bool
}

// NewGmsh22Builder creates an empty builder
func NewGmsh22Builder() *Gmsh22Builder {
	return &Gmsh22Builder{}
}

// AddPhysicalName adds an entry to the $PhysicalNames section
func (b *Gmsh22Builder) AddPhysicalName(dim, tag int, name string) *Gmsh22Builder {
	b.physNames = append(b.physNames, fmt.Sprintf("%d %d \"%s\"", dim, tag, name))
	return b
}

// AddNode adds a node line: id x y z
func (b *Gmsh22Builder) AddNode(tag int, x, y, z float64) *Gmsh22Builder {
	b.nodes = append(b.nodes, fmt.Sprintf("%d %s %s %s", tag, ftoa(x), ftoa(y), ftoa(z)))
	return b
}

// AddElement adds an element line: elem-id elem-type num-tags tags... nodes...
func (b *Gmsh22Builder) AddElement(tag int, etype utils.ElementType, tags []int, nodes ...int) *Gmsh22Builder {
	fields := []string{strconv.Itoa(tag), strconv.Itoa(int(etype)), strconv.Itoa(len(tags))}
	for _, t := range tags {
		fields = append(fields, strconv.Itoa(t))
	}
	for _, n := range nodes {
		fields = append(fields, strconv.Itoa(n))
	}
	b.elements = append(b.elements, strings.Join(fields, " "))
	return b
}

// AddRawElement adds an element line verbatim
func (b *Gmsh22Builder) AddRawElement(line string) *Gmsh22Builder {
	b.elements = append(b.elements, line)
	return b
}

// DeclareNodes overrides the node count written after $Nodes
func (b *Gmsh22Builder) DeclareNodes(n int) *Gmsh22Builder {
	b.nodeCount = &n
	return b
}

// DeclareElements overrides the element count written after $Elements
func (b *Gmsh22Builder) DeclareElements(n int) *Gmsh22Builder {
	b.elementCount = &n
	return b
}

// WithoutFormat drops the $MeshFormat header
func (b *Gmsh22Builder) WithoutFormat() *Gmsh22Builder {
	b.omitFormat = true
	return b
}

func (b *Gmsh22Builder) String() string {
	var lines []string
	if !b.omitFormat {
		lines = append(lines, MeshFormat, "2.2 0 8", EndMeshFormat)
	}
	if len(b.physNames) > 0 {
		lines = append(lines, PhysicalNames, strconv.Itoa(len(b.physNames)))
		lines = append(lines, b.physNames...)
		lines = append(lines, EndPhysicalNames)
	}
	nn := len(b.nodes)
	if b.nodeCount != nil {
		nn = *b.nodeCount
	}
	lines = append(lines, Nodes, strconv.Itoa(nn))
	lines = append(lines, b.nodes...)
	lines = append(lines, EndNodes)

	ne := len(b.elements)
	if b.elementCount != nil {
		ne = *b.elementCount
	}
	lines = append(lines, Elements, strconv.Itoa(ne))
	lines = append(lines, b.elements...)
	lines = append(lines, EndElements)
	return strings.Join(lines, "\n") + "\n"
}

// Source returns the built text as a Source
func (b *Gmsh22Builder) Source(name string) Source {
	return StringSource(name, b.String())
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
