package cmd

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gmshtranslate/readers"
	"github.com/notargets/gmshtranslate/utils"
)

var rulesYAML = `
Title: Test Case
Header: "# start"
Footer: "# end"
NodeRules:
  - Name: inlet
    GroupNames: [inlet]
    Format: 'fix {{.Tag}}'
ElementRules:
  - Name: tris
    Types: [Triangle]
    Format: 'tri {{.Tag}} group {{.Group}}'
`

func writeFile(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))
	return path
}

func testMesh(extraNode bool) string {
	b := readers.NewGmsh22Builder().
		AddPhysicalName(1, 100, "inlet").
		AddPhysicalName(2, 200, "fluid").
		AddNode(1, 0, 0, 0).
		AddNode(2, 1, 0, 0).
		AddNode(3, 1, 1, 0).
		AddNode(4, 0, 1, 0)
	if extraNode {
		b.AddNode(5, 2, 2, 0)
	}
	return b.
		AddElement(1, utils.Line, []int{100, 1}, 1, 2).
		AddElement(2, utils.Triangle, []int{200, 1}, 2, 3, 4).
		String()
}

const wantOutput = "# start\nfix 1\nfix 2\ntri 2 group 200\n# end\n"

func TestGroups(t *testing.T) {
	dir := t.TempDir()
	mesh := writeFile(t, dir, "square.msh", testMesh(false))
	var buf bytes.Buffer
	require.NoError(t, runGroups(&buf, mesh))
	out := buf.String()
	assert.Contains(t, out, "DIMENSION")
	assert.Contains(t, out, "inlet")
	assert.Contains(t, out, "fluid")
	assert.Contains(t, out, "format 2.2, 4 nodes, 2 elements")

	assert.Error(t, runGroups(&buf, filepath.Join(dir, "missing.msh")))
}

func TestTranslate(t *testing.T) {
	dir := t.TempDir()
	mesh := writeFile(t, dir, "square.msh", testMesh(false))
	rules := writeFile(t, dir, "rules.yaml", rulesYAML)

	var stdout bytes.Buffer
	require.NoError(t, runTranslate(context.Background(), &stdout, []string{mesh},
		translateOpts{RulesFile: rules, Jobs: 1}))
	assert.Equal(t, wantOutput, stdout.String())

	out := filepath.Join(dir, "square.txt")
	db := filepath.Join(dir, "square.db")
	require.NoError(t, runTranslate(context.Background(), &stdout, []string{mesh},
		translateOpts{RulesFile: rules, Output: out, SQLite: db, Metrics: true, Perf: true}))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, wantOutput, string(data))

	conn, err := sql.Open("sqlite", db)
	require.NoError(t, err)
	defer conn.Close()
	var n int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM nodes WHERE rule = 'inlet'`).Scan(&n))
	assert.Equal(t, 2, n)
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM elements`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestTranslateMany(t *testing.T) {
	dir := t.TempDir()
	meshes := []string{
		writeFile(t, dir, "a.msh", testMesh(false)),
		writeFile(t, dir, "b.msh", testMesh(true)),
	}
	rules := writeFile(t, dir, "rules.yaml", rulesYAML)

	err := runTranslate(context.Background(), &bytes.Buffer{}, meshes, translateOpts{RulesFile: rules})
	assert.Error(t, err)

	out := filepath.Join(dir, "out")
	require.NoError(t, runTranslate(context.Background(), &bytes.Buffer{}, meshes,
		translateOpts{RulesFile: rules, Output: out, SQLite: filepath.Join(dir, "db"), Jobs: 2}))
	for _, name := range []string{"a", "b"} {
		data, err := os.ReadFile(filepath.Join(out, name+".txt"))
		require.NoError(t, err)
		assert.Equal(t, wantOutput, string(data))
		assert.FileExists(t, filepath.Join(dir, "db", name+".db"))
	}
}

func TestTranslateBadMesh(t *testing.T) {
	dir := t.TempDir()
	mesh := writeFile(t, dir, "bad.msh", readers.NewGmsh22Builder().
		AddNode(1, 0, 0, 0).
		DeclareNodes(2).
		AddElement(1, utils.Point, []int{1, 1}, 1).
		String())
	rules := writeFile(t, dir, "rules.yaml", "NodeRules:\n  - Name: all\n")
	db := filepath.Join(dir, "bad.db")
	err := runTranslate(context.Background(), &bytes.Buffer{}, []string{mesh},
		translateOpts{RulesFile: rules, SQLite: db})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.msh")
}

func TestTarget(t *testing.T) {
	assert.Equal(t, "out.txt", target("out.txt", "dir/a.msh", false, ".txt"))
	assert.Equal(t, filepath.Join("out", "a.db"), target("out", "dir/a.msh", true, ".db"))
}

func TestStartProfile(t *testing.T) {
	assert.Error(t, startProfile("gpu"))
	assert.NoError(t, startProfile(""))
	assert.Nil(t, profiler)
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	mesh := writeFile(t, dir, "square.msh", testMesh(false))
	rules := writeFile(t, dir, "rules.yaml", rulesYAML)
	out := filepath.Join(dir, "square.txt")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runWatch(ctx, mesh, translateOpts{RulesFile: rules, Output: out}, 10*time.Millisecond)
	}()

	read := func() string {
		data, _ := os.ReadFile(out)
		return string(data)
	}
	require.Eventually(t, func() bool { return read() == wantOutput }, 5*time.Second, 20*time.Millisecond)

	writeFile(t, dir, "rules.yaml", rulesYAML+"  - Name: all\n")
	require.Eventually(t, func() bool {
		return read() == "# start\nfix 1\nfix 2\n1 1 100 1 2\ntri 2 group 200\n2 2 200 2 3 4\n# end\n"
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
