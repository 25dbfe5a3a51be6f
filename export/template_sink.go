package export

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/template"

	"github.com/pkg/errors"

	"github.com/notargets/gmshtranslate/utils"
)

// NodeRecord is the data a node format is executed with
type NodeRecord struct {
	Rule    string
	Tag     int
	X, Y, Z float64
}

// ElementRecord is the data an element format is executed with. Type prints
// as the element name, Code is the raw Gmsh number.
type ElementRecord struct {
	Rule  string
	Tag   int
	Type  utils.ElementType
	Code  int
	Group int
	Nodes []int
}

// funcs are available to every format: join renders a node list with a
// separator, inc turns a zero based range index into a one based one.
var funcs = template.FuncMap{
	"join": joinInts,
	"inc":  func(i int) int { return i + 1 },
}

func joinInts(nodes []int, sep string) string {
	s := make([]string, len(nodes))
	for i, n := range nodes {
		s[i] = strconv.Itoa(n)
	}
	return strings.Join(s, sep)
}

// TemplateSink writes one line per record using a text/template per rule.
// Rules without a format fall back to a plain whitespace separated line.
type TemplateSink struct {
	w        *bufio.Writer
	footer   string
	nodes    map[string]*template.Template
	elements map[string]*template.Template
}

// NewTemplateSink writes header to w right away; footer is written by Close
func NewTemplateSink(w io.Writer, header, footer string) (*TemplateSink, error) {
	ts := &TemplateSink{
		w:        bufio.NewWriter(w),
		footer:   footer,
		nodes:    make(map[string]*template.Template),
		elements: make(map[string]*template.Template),
	}
	if err := ts.writeText(header); err != nil {
		return nil, err
	}
	return ts, nil
}

// AddNodeFormat sets the template used for nodes selected by rule
func (ts *TemplateSink) AddNodeFormat(rule, format string) error {
	tmpl, err := parse(rule, format)
	if err != nil {
		return err
	}
	ts.nodes[rule] = tmpl
	return nil
}

// AddElementFormat sets the template used for elements selected by rule
func (ts *TemplateSink) AddElementFormat(rule, format string) error {
	tmpl, err := parse(rule, format)
	if err != nil {
		return err
	}
	ts.elements[rule] = tmpl
	return nil
}

func parse(rule, format string) (*template.Template, error) {
	if !strings.HasSuffix(format, "\n") {
		format += "\n"
	}
	tmpl, err := template.New(rule).Funcs(funcs).Option("missingkey=error").Parse(format)
	return tmpl, errors.Wrapf(err, "format of rule %q", rule)
}

func (ts *TemplateSink) Node(rule string, tag int, x, y, z float64) error {
	tmpl, ok := ts.nodes[rule]
	if !ok {
		_, err := fmt.Fprintf(ts.w, "%d %.16g %.16g %.16g\n", tag, x, y, z)
		return err
	}
	return tmpl.Execute(ts.w, NodeRecord{Rule: rule, Tag: tag, X: x, Y: y, Z: z})
}

func (ts *TemplateSink) Element(rule string, tag int, etype utils.ElementType, group int, nodes []int) error {
	tmpl, ok := ts.elements[rule]
	if !ok {
		_, err := fmt.Fprintf(ts.w, "%d %d %d %s\n", tag, int(etype), group, joinInts(nodes, " "))
		return err
	}
	return tmpl.Execute(ts.w, ElementRecord{
		Rule: rule, Tag: tag, Type: etype, Code: int(etype), Group: group, Nodes: nodes,
	})
}

// Close writes the footer and flushes. It does not close the writer.
func (ts *TemplateSink) Close() error {
	if err := ts.writeText(ts.footer); err != nil {
		return err
	}
	return ts.w.Flush()
}

func (ts *TemplateSink) writeText(s string) error {
	if s == "" {
		return nil
	}
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	_, err := ts.w.WriteString(s)
	return err
}
