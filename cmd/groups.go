package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/gmshtranslate/translator"
)

// GroupsCmd represents the groups command
var GroupsCmd = &cobra.Command{
	Use:   "groups <mesh.msh>",
	Short: "List the physical groups of a mesh",
	Long: `Indexes a Gmsh 2.2 mesh and prints every physical group found in its elements,
in the order they were first seen, with the number of nodes each one holds.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGroups(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(GroupsCmd)
}

// diagnostics keeps stdout free for command output
func diagnostics() translator.Diagnostics {
	return translator.NewLogDiagnostics(os.Stderr, os.Stderr)
}

func runGroups(w io.Writer, path string) error {
	tr, err := translator.New(path,
		translator.WithDiagnostics(diagnostics()),
		translator.WithStrict(viper.GetBool("strict")))
	if err != nil {
		return err
	}
	defer tr.Close()

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"group", "name", "dimension", "nodes"})
	for _, g := range tr.Groups() {
		name, dim := "", ""
		if pn, ok := tr.PhysicalName(g); ok {
			name, dim = pn.Name, strconv.Itoa(pn.Dimension)
		}
		table.Append([]string{strconv.Itoa(g), name, dim, strconv.Itoa(tr.Index().Count(g))})
	}
	table.Render()
	fmt.Fprintf(w, "%s: format %s, %d nodes, %d elements\n",
		tr.Name(), tr.FormatVersion(), tr.NumNodes(), tr.NumElements())
	if ierr := tr.IndexErrors(); ierr != nil {
		fmt.Fprintf(w, "%v\n", ierr)
	}
	return nil
}
