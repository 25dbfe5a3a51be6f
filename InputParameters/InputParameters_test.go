package InputParameters

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gmshtranslate/readers"
	"github.com/notargets/gmshtranslate/translator"
	"github.com/notargets/gmshtranslate/utils"
)

var yamlRules = []byte(`
Title: Test Case
Header: "# start"
Footer: "# end"
NodeRules:
  - Name: inlet
    GroupNames: [inlet]
    Format: 'fix {{.Tag}}'
ElementRules:
  - Name: tris
    Groups: [200]
    Types: [triangle_3_node]
    Format: 'tri {{.Tag}} ({{join .Nodes ","}})'
  - Name: all
`)

var tomlRules = []byte(`
Title = "Test Case"

[[NodeRules]]
Name = "wall"
Groups = [100, 7]

[[ElementRules]]
Name = "hexes"
Types = ["Hex", "Hex27"]
Format = "{{.Tag}}"
`)

func mesh() *readers.Gmsh22Builder {
	return readers.NewGmsh22Builder().
		AddPhysicalName(1, 100, "inlet").
		AddPhysicalName(2, 200, "fluid").
		AddNode(1, 0, 0, 0).
		AddNode(2, 1, 0, 0).
		AddNode(3, 1, 1, 0).
		AddNode(4, 0, 1, 0).
		AddElement(1, utils.Line, []int{100, 1}, 1, 2).
		AddElement(2, utils.Triangle, []int{200, 1}, 2, 3, 4)
}

func TestParse(t *testing.T) {
	var rf RulesFile
	require.NoError(t, rf.Parse(yamlRules))
	assert.Equal(t, "Test Case", rf.Title)
	require.Len(t, rf.NodeRules, 1)
	assert.Equal(t, []string{"inlet"}, rf.NodeRules[0].GroupNames)
	require.Len(t, rf.ElementRules, 2)
	assert.Equal(t, []int{200}, rf.ElementRules[0].Groups)
	assert.Equal(t, []string{"triangle_3_node"}, rf.ElementRules[0].Types)
	assert.Empty(t, rf.ElementRules[1].Format)

	var tr RulesFile
	require.NoError(t, tr.ParseTOML(tomlRules))
	assert.Equal(t, []int{100, 7}, tr.NodeRules[0].Groups)
	assert.Equal(t, []string{"Hex", "Hex27"}, tr.ElementRules[0].Types)

	var buf bytes.Buffer
	rf.Print(&buf)
	assert.Contains(t, buf.String(), "\"Test Case\"")
	assert.Contains(t, buf.String(), "ElementRules[tris]")
}

func TestParseInvalid(t *testing.T) {
	for name, input := range map[string]string{
		"no name":      "NodeRules:\n  - Groups: [1]\n",
		"duplicate":    "ElementRules:\n  - Name: a\n  - Name: a\n",
		"unknown type": "ElementRules:\n  - Name: a\n    Types: [Dodecahedron]\n",
		"bad yaml":     "NodeRules: [",
	} {
		var rf RulesFile
		assert.Error(t, rf.Parse([]byte(input)), name)
	}
	// the same name may be used once per section
	var rf RulesFile
	assert.NoError(t, rf.Parse([]byte("NodeRules:\n  - Name: a\nElementRules:\n  - Name: a\n")))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, data, 0644))
		return path
	}
	rf, err := Load(write("rules.yaml", yamlRules))
	require.NoError(t, err)
	assert.Equal(t, "tris", rf.ElementRules[0].Name)

	rf, err = Load(write("rules.TOML", tomlRules))
	require.NoError(t, err)
	assert.Equal(t, "hexes", rf.ElementRules[0].Name)

	_, err = Load(write("rules.json", []byte("{}")))
	assert.Error(t, err)
	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestInstall(t *testing.T) {
	var rf RulesFile
	require.NoError(t, rf.Parse(yamlRules))

	tr, err := translator.NewFromSource(mesh().Source("mesh.msh"),
		translator.WithDiagnostics(translator.Discard))
	require.NoError(t, err)
	defer tr.Close()

	var buf bytes.Buffer
	sink, err := rf.TemplateSink(&buf)
	require.NoError(t, err)
	require.NoError(t, rf.Install(tr, sink))
	assert.Equal(t, 1, tr.NumNodeRules())
	assert.Equal(t, 2, tr.NumElementRules())

	require.NoError(t, tr.Parse())
	require.NoError(t, sink.Close())
	assert.Equal(t, `# start
fix 1
fix 2
1 1 100 1 2
tri 2 (2,3,4)
2 2 200 2 3 4
# end
`, buf.String())
}

func TestInstallUnknownGroupName(t *testing.T) {
	var rf RulesFile
	require.NoError(t, rf.Parse([]byte("NodeRules:\n  - Name: a\n    GroupNames: [outlet]\n")))
	tr, err := translator.NewFromSource(mesh().Source("mesh.msh"),
		translator.WithDiagnostics(translator.Discard))
	require.NoError(t, err)
	defer tr.Close()

	sink, err := rf.TemplateSink(&bytes.Buffer{})
	require.NoError(t, err)
	err = rf.Install(tr, sink)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outlet")
}
