package translator

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/notargets/gmshtranslate/readers"
	"github.com/notargets/gmshtranslate/utils"
)

// ParseState tracks a streaming pass
type ParseState uint8

const (
	Start ParseState = iota
	LocatingNodes
	ReadingNodeCount
	StreamingNodes
	LocatingElements
	ReadingElementCount
	StreamingElements
	Done
	Aborted
)

func (s ParseState) String() string {
	names := []string{
		"Start", "LocatingNodes", "ReadingNodeCount", "StreamingNodes",
		"LocatingElements", "ReadingElementCount", "StreamingElements",
		"Done", "Aborted",
	}
	if int(s) < len(names) {
		return names[s]
	}
	return "Invalid"
}

// PhysicalName is an entry of the optional $PhysicalNames section
type PhysicalName struct {
	Dimension int
	Name      string
}

type Option func(*Translator)

// WithDiagnostics replaces the default stdout/stderr sink
func WithDiagnostics(d Diagnostics) Option {
	return func(t *Translator) { t.diag = d }
}

func WithMetrics(m *Metrics) Option {
	return func(t *Translator) { t.metrics = m }
}

// WithStrict makes a malformed element abort Parse instead of being skipped.
// Indexing stays best effort either way.
func WithStrict(strict bool) Option {
	return func(t *Translator) { t.strict = strict }
}

// Translator indexes a Gmsh 2 ASCII mesh once and then streams it through the
// registered rules as many times as Parse is called. It is not safe for
// concurrent use.
type Translator struct {
	Rules

	rd      *readers.Reader
	diag    Diagnostics
	metrics *Metrics
	strict  bool

	formatVersion string
	// declared counts, and the number of records actually found while indexing
	numNodes, numElements   int
	seenNodes, seenElements int

	index     *GroupIndex
	names     map[int]PhysicalName
	nameOrder []int // $PhysicalNames tags in file order
	indexErrs *multierror.Error
	parseErrs *multierror.Error
	state     ParseState
}

type element struct {
	tag   int
	etype utils.ElementType
	group int
	nodes []int
}

// New opens the mesh file at path and builds the physical group index
func New(path string, opts ...Option) (*Translator, error) {
	return NewFromSource(readers.FileSource(path), opts...)
}

// NewFromSource is New for any rewindable source
func NewFromSource(src readers.Source, opts ...Option) (*Translator, error) {
	t := &Translator{
		diag:  StdDiagnostics(),
		names: make(map[int]PhysicalName),
	}
	for _, opt := range opts {
		opt(t)
	}
	rd, err := readers.NewReader(src)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", src.Name())
	}
	t.rd = rd
	t.diag.Infof("Initializing...")
	if err = t.buildIndex(); err != nil {
		rd.Close()
		return nil, err
	}
	return t, nil
}

func (t *Translator) buildIndex() error {
	rd := t.rd
	for {
		marker, err := rd.LocateAny(readers.MeshFormat, readers.PhysicalNames, readers.Nodes)
		if err != nil {
			return err
		}
		if marker == readers.Nodes {
			break
		}
		switch marker {
		case readers.MeshFormat:
			err = t.readMeshFormat()
		case readers.PhysicalNames:
			err = t.readPhysicalNames()
		}
		if err != nil {
			return err
		}
	}

	var err error
	if t.numNodes, err = rd.ReadCount(); err != nil {
		return err
	}
	t.diag.Infof("Mesh has %d nodes.", t.numNodes)
	if t.seenNodes, err = t.countUntil(readers.EndNodes); err != nil {
		return err
	}
	if t.seenNodes != t.numNodes {
		t.diag.Errorf("%s declares %d nodes but holds %d", readers.Nodes, t.numNodes, t.seenNodes)
	}
	// a declared count above what the section holds is already fatal for
	// Parse, so it must not size the bitmaps either
	t.index = NewGroupIndex(min(t.numNodes, t.seenNodes))

	if err = rd.LocateSection(readers.Elements); err != nil {
		return err
	}
	if t.numElements, err = rd.ReadCount(); err != nil {
		return err
	}
	t.diag.Infof("Mesh has %d elements.", t.numElements)
	for {
		line, err := rd.Next()
		if err == io.EOF {
			return &FormatError{Source: rd.Name(), Err: fmt.Errorf("end of input before %s", readers.EndElements)}
		}
		if err != nil {
			return err
		}
		if readers.IsMarker(line, readers.EndElements) {
			break
		}
		t.seenElements++
		t.indexElement(line)
	}
	if t.seenElements != t.numElements {
		t.diag.Errorf("%s declares %d elements but holds %d", readers.Elements, t.numElements, t.seenElements)
	}

	t.diag.Infof("Processed %d lines.", rd.Line())
	t.diag.Infof("There are %d physical groups available: ", len(t.index.order))
	for _, g := range t.index.order {
		if pn, ok := t.names[g]; ok {
			t.diag.Infof("     > %d (%s)", g, pn.Name)
		} else {
			t.diag.Infof("     > %d", g)
		}
	}
	return rd.Release()
}

func (t *Translator) indexElement(line string) {
	el, serr := t.tokenizeElement(line)
	if serr != nil {
		t.structural(passIndex, serr)
		return
	}
	for _, n := range el.nodes {
		if !t.index.Mark(el.group, n) {
			t.structural(passIndex, &StructuralError{
				Line:    t.rd.Line(),
				Element: el.tag,
				Reason:  fmt.Sprintf("node %d outside 1..%d", n, t.index.NumNodes()),
			})
		}
	}
}

func (t *Translator) readMeshFormat() error {
	line, err := t.rd.Next()
	if err == io.EOF {
		return &FormatError{Source: t.rd.Name(), Err: fmt.Errorf("unexpected EOF in %s", readers.MeshFormat)}
	}
	if err != nil {
		return err
	}
	parts := strings.Fields(line)
	if len(parts) < 2 {
		return &FormatError{Source: t.rd.Name(), Line: t.rd.Line(), Err: fmt.Errorf("invalid %s line %q", readers.MeshFormat, line)}
	}
	t.formatVersion = parts[0]
	if !strings.HasPrefix(t.formatVersion, "2") {
		return &FormatError{Source: t.rd.Name(), Line: t.rd.Line(), Err: fmt.Errorf("unsupported Gmsh format version: %s", t.formatVersion)}
	}
	if parts[1] != "0" {
		return &FormatError{Source: t.rd.Name(), Line: t.rd.Line(), Err: fmt.Errorf("binary meshes are not supported")}
	}
	return nil
}

func (t *Translator) readPhysicalNames() error {
	numNames, err := t.rd.ReadCount()
	if err != nil {
		return err
	}
	for i := 0; i < numNames; i++ {
		line, err := t.rd.Next()
		if err == io.EOF {
			return &FormatError{Source: t.rd.Name(), Err: fmt.Errorf("unexpected EOF reading physical names")}
		}
		if err != nil {
			return err
		}
		parts := strings.Fields(line)
		if len(parts) < 3 {
			t.diag.Errorf("line %d: invalid physical name %q", t.rd.Line(), line)
			continue
		}
		dim, err1 := strconv.Atoi(parts[0])
		tag, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			t.diag.Errorf("line %d: invalid physical name %q", t.rd.Line(), line)
			continue
		}
		if _, dup := t.names[tag]; !dup {
			t.nameOrder = append(t.nameOrder, tag)
		}
		t.names[tag] = PhysicalName{
			Dimension: dim,
			Name:      strings.Trim(strings.Join(parts[2:], " "), "\""),
		}
	}
	return nil
}

// countUntil counts lines up to, not including, the one carrying marker
func (t *Translator) countUntil(marker string) (n int, err error) {
	for {
		line, err := t.rd.Next()
		if err == io.EOF {
			return n, &FormatError{Source: t.rd.Name(), Err: fmt.Errorf("end of input before %s", marker)}
		}
		if err != nil {
			return n, err
		}
		if readers.IsMarker(line, marker) {
			return n, nil
		}
		n++
	}
}

// Parse streams the file through the registered rules: every node rule for
// every node, then every element rule for every element, in registration
// order. A count mismatch, a missing marker or a failing action stops the
// pass and is returned. Malformed elements are reported and skipped unless the
// translator is strict; ParseErrors returns them afterwards.
func (t *Translator) Parse() (err error) {
	t.parseErrs = nil
	t.state = Start
	defer func() {
		if rerr := t.rd.Release(); err == nil && rerr != nil {
			err = rerr
		}
		if err != nil {
			t.state = Aborted
		}
		t.metrics.parsed(t.state)
	}()
	if err = t.rd.Rewind(); err != nil {
		return errors.Wrapf(err, "reopen %s", t.rd.Name())
	}

	t.state = LocatingNodes
	if err = t.rd.LocateSection(readers.Nodes); err != nil {
		return err
	}
	t.state = ReadingNodeCount
	n, err := t.rd.ReadCount()
	if err != nil {
		return err
	}
	if err = t.checkCount(readers.Nodes, n, t.numNodes, t.seenNodes); err != nil {
		return err
	}
	t.diag.Infof("Parsing nodes")
	t.state = StreamingNodes
	if err = t.streamNodes(); err != nil {
		return err
	}

	t.state = LocatingElements
	// the line after the last node closes the section, the one after that
	// must open $Elements
	if err = t.rd.Skip(1); err != nil {
		return err
	}
	line, err := t.rd.Next()
	if err == io.EOF || (err == nil && !readers.IsMarker(line, readers.Elements)) {
		return &ConsistencyError{
			Line:    t.rd.Line(),
			Section: readers.Elements,
			Reason:  fmt.Sprintf("expected %s marker after %s", readers.Elements, readers.EndNodes),
		}
	}
	if err != nil {
		return err
	}
	t.diag.Infof("Parsing elements")

	t.state = ReadingElementCount
	if n, err = t.rd.ReadCount(); err != nil {
		return err
	}
	if err = t.checkCount(readers.Elements, n, t.numElements, t.seenElements); err != nil {
		return err
	}
	t.state = StreamingElements
	if err = t.streamElements(); err != nil {
		return err
	}
	t.state = Done
	return nil
}

func (t *Translator) checkCount(section string, have, want, seen int) error {
	if have != want {
		return &ConsistencyError{Line: t.rd.Line(), Section: section, Want: want, Have: have}
	}
	if seen != want {
		return &ConsistencyError{
			Line:    t.rd.Line(),
			Section: section,
			Reason:  fmt.Sprintf("declared %d records but the section holds %d", want, seen),
			Want:    want,
			Have:    seen,
		}
	}
	return nil
}

// nextRecord returns the next record line, failing if the section ends early
func (t *Translator) nextRecord(section, endMarker string, i, total int) (string, error) {
	line, err := t.rd.Next()
	if err == io.EOF || (err == nil && readers.IsMarker(line, endMarker)) {
		return "", &ConsistencyError{
			Line:    t.rd.Line(),
			Section: section,
			Reason:  fmt.Sprintf("section ended after %d of %d records", i, total),
			Want:    total,
			Have:    i,
		}
	}
	return line, err
}

func (t *Translator) streamNodes() error {
	if len(t.nodes) == 0 {
		t.diag.Infof("No rules for nodes... skipping nodes.")
		return t.rd.Skip(t.numNodes)
	}
	for i := 0; i < t.numNodes; i++ {
		line, err := t.nextRecord(readers.Nodes, readers.EndNodes, i, t.numNodes)
		if err != nil {
			return err
		}
		tag, x, y, z, err := parseNode(line)
		if err != nil {
			return &FormatError{Source: t.rd.Name(), Line: t.rd.Line(), Err: err}
		}
		t.metrics.record(sectionNodes)
		groups := t.index.GroupsContaining(tag)
		for k, r := range t.nodes {
			if !r.pred(tag, x, y, z, groups) {
				continue
			}
			t.metrics.action(sectionNodes)
			if err = r.act(tag, x, y, z); err != nil {
				return errors.Wrapf(err, "node %d, rule %d", tag, k)
			}
		}
	}
	return nil
}

func (t *Translator) streamElements() error {
	if len(t.elements) == 0 {
		t.diag.Infof("No rules for elements... skipping elements.")
		return t.rd.Skip(t.numElements)
	}
	for i := 0; i < t.numElements; i++ {
		line, err := t.nextRecord(readers.Elements, readers.EndElements, i, t.numElements)
		if err != nil {
			return err
		}
		t.metrics.record(sectionElements)
		el, serr := t.tokenizeElement(line)
		if serr != nil {
			t.structural(passParse, serr)
			if t.strict {
				return serr
			}
			continue
		}
		for k, r := range t.elements {
			if !r.pred(el.tag, el.etype, el.group, el.nodes) {
				continue
			}
			t.metrics.action(sectionElements)
			if err = r.act(el.tag, el.etype, el.group, el.nodes); err != nil {
				return errors.Wrapf(err, "element %d, rule %d", el.tag, k)
			}
		}
	}
	return nil
}

func parseNode(line string) (tag int, x, y, z float64, err error) {
	parts := strings.Fields(line)
	if len(parts) < 4 {
		err = fmt.Errorf("invalid node line: %q", line)
		return
	}
	if tag, err = strconv.Atoi(parts[0]); err != nil {
		return
	}
	if x, err = strconv.ParseFloat(parts[1], 64); err != nil {
		return
	}
	if y, err = strconv.ParseFloat(parts[2], 64); err != nil {
		return
	}
	z, err = strconv.ParseFloat(parts[3], 64)
	return
}

// tokenizeElement splits "tag type ntags tag_1..tag_ntags node_1..node_k"
func (t *Translator) tokenizeElement(line string) (el element, serr *StructuralError) {
	fail := func(format string, args ...interface{}) (element, *StructuralError) {
		return el, &StructuralError{Line: t.rd.Line(), Element: el.tag, Reason: fmt.Sprintf(format, args...)}
	}
	parts := strings.Fields(line)
	if len(parts) < 3 {
		return fail("malformed element record %q", line)
	}
	var (
		head [3]int
		err  error
	)
	for i := range head {
		if head[i], err = strconv.Atoi(parts[i]); err != nil {
			return fail("malformed element record %q", line)
		}
		if i == 0 {
			el.tag = head[0]
		}
	}
	el.etype = utils.ElementType(head[1])
	ntags := head[2]
	if ntags < 2 {
		return fail("has %d tags, at least 2 required", ntags)
	}
	if ntags > len(parts)-3 {
		return fail("declares %d tags but only %d fields follow", ntags, len(parts)-3)
	}
	if el.group, err = strconv.Atoi(parts[3]); err != nil {
		return fail("invalid physical group %q", parts[3])
	}
	nodeFields := parts[3+ntags:]
	el.nodes = make([]int, len(nodeFields))
	for i, f := range nodeFields {
		if el.nodes[i], err = strconv.Atoi(f); err != nil {
			return fail("invalid node tag %q", f)
		}
	}
	return el, nil
}

func (t *Translator) structural(pass string, serr *StructuralError) {
	t.diag.Errorf("%v", serr)
	t.metrics.structural(pass)
	if pass == passIndex {
		t.indexErrs = multierror.Append(t.indexErrs, serr)
	} else {
		t.parseErrs = multierror.Append(t.parseErrs, serr)
	}
}

// Close releases the input. Parse reopens it if called again.
func (t *Translator) Close() error {
	t.diag.Infof("Ending")
	return t.rd.Close()
}

// NumNodes is the node count declared in the file
func (t *Translator) NumNodes() int { return t.numNodes }

// NumElements is the element count declared in the file
func (t *Translator) NumElements() int { return t.numElements }

// FormatVersion is the $MeshFormat version, empty when the header is absent
func (t *Translator) FormatVersion() string { return t.formatVersion }

func (t *Translator) Name() string { return t.rd.Name() }

func (t *Translator) Index() *GroupIndex { return t.index }

// Groups returns the physical groups in discovery order
func (t *Translator) Groups() []int { return t.index.Groups() }

func (t *Translator) GroupsContaining(node int) []int { return t.index.GroupsContaining(node) }

// GroupName returns the $PhysicalNames name of group, if any
func (t *Translator) GroupName(group int) (string, bool) {
	pn, ok := t.names[group]
	return pn.Name, ok
}

// PhysicalName returns the $PhysicalNames entry of group, if any
func (t *Translator) PhysicalName(group int) (PhysicalName, bool) {
	pn, ok := t.names[group]
	return pn, ok
}

// GroupByName looks a physical group up by its $PhysicalNames name. When
// several entries share the name the first one in the file wins.
func (t *Translator) GroupByName(name string) (int, bool) {
	for _, tag := range t.nameOrder {
		if t.names[tag].Name == name {
			return tag, true
		}
	}
	return 0, false
}

// IndexErrors returns the structural errors found while indexing, or nil
func (t *Translator) IndexErrors() error { return t.indexErrs.ErrorOrNil() }

// ParseErrors returns the structural errors skipped by the last Parse, or nil
func (t *Translator) ParseErrors() error { return t.parseErrs.ErrorOrNil() }

// State is where the last Parse stopped
func (t *Translator) State() ParseState { return t.state }
