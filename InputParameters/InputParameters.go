package InputParameters

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ghodss/yaml"
	"github.com/pkg/errors"

	"github.com/notargets/gmshtranslate/export"
	"github.com/notargets/gmshtranslate/translator"
	"github.com/notargets/gmshtranslate/utils"
)

// NodeRule selects nodes that belong to any of the listed groups. Groups may
// be given by number, by $PhysicalNames entry, or both. A rule without groups
// selects every node.
type NodeRule struct {
	Name       string   `json:"Name" toml:"Name"`
	Groups     []int    `json:"Groups,omitempty" toml:"Groups"`
	GroupNames []string `json:"GroupNames,omitempty" toml:"GroupNames"`
	Format     string   `json:"Format,omitempty" toml:"Format"`
}

// ElementRule selects elements by group and, optionally, by element type
// name, either "Tet" or "tetrahedron_4_node"
type ElementRule struct {
	Name       string   `json:"Name" toml:"Name"`
	Groups     []int    `json:"Groups,omitempty" toml:"Groups"`
	GroupNames []string `json:"GroupNames,omitempty" toml:"GroupNames"`
	Types      []string `json:"Types,omitempty" toml:"Types"`
	Format     string   `json:"Format,omitempty" toml:"Format"`
}

// Rules obtained from a YAML or TOML input file
type RulesFile struct {
	Title        string        `json:"Title" toml:"Title"`
	Header       string        `json:"Header,omitempty" toml:"Header"`
	Footer       string        `json:"Footer,omitempty" toml:"Footer"`
	NodeRules    []NodeRule    `json:"NodeRules,omitempty" toml:"NodeRules"`
	ElementRules []ElementRule `json:"ElementRules,omitempty" toml:"ElementRules"`
}

// Load reads a rules file, the format is chosen by extension
func Load(path string) (rf *RulesFile, err error) {
	var data []byte
	if data, err = os.ReadFile(path); err != nil {
		return nil, err
	}
	rf = &RulesFile{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = rf.ParseTOML(data)
	case ".yaml", ".yml", "":
		err = rf.Parse(data)
	default:
		err = fmt.Errorf("unknown rules file extension %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "rules file %s", path)
	}
	return rf, nil
}

func (rf *RulesFile) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, rf); err != nil {
		return err
	}
	return rf.validate()
}

func (rf *RulesFile) ParseTOML(data []byte) error {
	if _, err := toml.Decode(string(data), rf); err != nil {
		return err
	}
	return rf.validate()
}

func (rf *RulesFile) validate() error {
	seen := make(map[string]bool)
	check := func(kind, name string) error {
		if name == "" {
			return fmt.Errorf("%s rule without a Name", kind)
		}
		if seen[kind+name] {
			return fmt.Errorf("duplicate %s rule %q", kind, name)
		}
		seen[kind+name] = true
		return nil
	}
	for _, r := range rf.NodeRules {
		if err := check("node", r.Name); err != nil {
			return err
		}
	}
	for _, r := range rf.ElementRules {
		if err := check("element", r.Name); err != nil {
			return err
		}
		for _, name := range r.Types {
			if _, ok := utils.ParseElementType(name); !ok {
				return fmt.Errorf("element rule %q: unknown element type %q", r.Name, name)
			}
		}
	}
	return nil
}

func (rf *RulesFile) Print(w io.Writer) {
	fmt.Fprintf(w, "\"%s\"\t\t= Title\n", rf.Title)
	for _, r := range rf.NodeRules {
		fmt.Fprintf(w, "NodeRules[%s]\t= groups %v %v\n", r.Name, r.Groups, r.GroupNames)
	}
	for _, r := range rf.ElementRules {
		fmt.Fprintf(w, "ElementRules[%s]\t= groups %v %v, types %v\n", r.Name, r.Groups, r.GroupNames, r.Types)
	}
}

// TemplateSink builds a sink that writes the file header, every rule's format
// and the footer to w
func (rf *RulesFile) TemplateSink(w io.Writer) (ts *export.TemplateSink, err error) {
	if ts, err = export.NewTemplateSink(w, rf.Header, rf.Footer); err != nil {
		return nil, err
	}
	for _, r := range rf.NodeRules {
		if r.Format == "" {
			continue
		}
		if err = ts.AddNodeFormat(r.Name, r.Format); err != nil {
			return nil, err
		}
	}
	for _, r := range rf.ElementRules {
		if r.Format == "" {
			continue
		}
		if err = ts.AddElementFormat(r.Name, r.Format); err != nil {
			return nil, err
		}
	}
	return ts, nil
}

// Install registers one translator rule per file rule, in file order, each
// forwarding matches to sink. Group names are resolved against the mesh.
func (rf *RulesFile) Install(t *translator.Translator, sink export.Sink) error {
	for _, r := range rf.NodeRules {
		var pred translator.NodePredicate = translator.AnyNode
		if len(r.Groups)+len(r.GroupNames) != 0 {
			groups, err := resolveGroups(t, r.Groups, r.GroupNames)
			if err != nil {
				return errors.Wrapf(err, "node rule %q", r.Name)
			}
			pred = translator.NodeInGroup(groups...)
		}
		name := r.Name
		t.AddNodeRule(pred, func(tag int, x, y, z float64) error {
			return sink.Node(name, tag, x, y, z)
		})
	}
	for _, r := range rf.ElementRules {
		var (
			byGroup translator.ElementPredicate = translator.AnyElement
			byType  translator.ElementPredicate = translator.AnyElement
		)
		if len(r.Groups)+len(r.GroupNames) != 0 {
			groups, err := resolveGroups(t, r.Groups, r.GroupNames)
			if err != nil {
				return errors.Wrapf(err, "element rule %q", r.Name)
			}
			byGroup = translator.ElementInGroup(groups...)
		}
		if len(r.Types) != 0 {
			types := make([]utils.ElementType, len(r.Types))
			for i, name := range r.Types {
				types[i], _ = utils.ParseElementType(name)
			}
			byType = translator.ElementOfType(types...)
		}
		name := r.Name
		t.AddElementRule(
			func(tag int, etype utils.ElementType, group int, nodes []int) bool {
				return byGroup(tag, etype, group, nodes) && byType(tag, etype, group, nodes)
			},
			func(tag int, etype utils.ElementType, group int, nodes []int) error {
				return sink.Element(name, tag, etype, group, nodes)
			})
	}
	return nil
}

func resolveGroups(t *translator.Translator, groups []int, names []string) ([]int, error) {
	out := append([]int(nil), groups...)
	for _, name := range names {
		g, ok := t.GroupByName(name)
		if !ok {
			return nil, fmt.Errorf("no physical group named %q in %s", name, t.Name())
		}
		out = append(out, g)
	}
	return out, nil
}
