package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/notargets/gmshtranslate/InputParameters"
	"github.com/notargets/gmshtranslate/export"
	"github.com/notargets/gmshtranslate/translator"
	"github.com/notargets/gmshtranslate/utils"
)

type translateOpts struct {
	RulesFile string
	Output    string
	SQLite    string
	Progress  bool
	Perf      bool
	Metrics   bool
	Jobs      int
}

// TranslateCmd represents the translate command
var TranslateCmd = &cobra.Command{
	Use:   "translate -I rules.yaml [mesh.msh...]",
	Short: "Apply a rules file to one or more meshes",
	Long: `Applies the node and element rules of a YAML or TOML rules file to each mesh.
Selected records are written with the rule's format to the output and, optionally,
stored in a SQLite database. With several meshes, -o and --sqlite name directories.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o := translateOpts{Jobs: viper.GetInt("jobs")}
		o.RulesFile, _ = cmd.Flags().GetString("rulesFile")
		o.Output, _ = cmd.Flags().GetString("output")
		o.SQLite, _ = cmd.Flags().GetString("sqlite")
		o.Progress, _ = cmd.Flags().GetBool("progress")
		o.Perf, _ = cmd.Flags().GetBool("perf")
		o.Metrics, _ = cmd.Flags().GetBool("metrics")
		return runTranslate(context.Background(), cmd.OutOrStdout(), args, o)
	},
}

func init() {
	rootCmd.AddCommand(TranslateCmd)
	TranslateCmd.Flags().StringP("rulesFile", "I", "", "YAML or TOML rules file")
	TranslateCmd.Flags().StringP("output", "o", "", "output file (directory with several meshes), default stdout")
	TranslateCmd.Flags().String("sqlite", "", "also store selected records in this SQLite database")
	TranslateCmd.Flags().Bool("progress", false, "show a progress bar per mesh")
	TranslateCmd.Flags().Bool("perf", false, "report CPU instructions spent parsing (linux)")
	TranslateCmd.Flags().Bool("metrics", false, "dump translator metrics when done")
	TranslateCmd.Flags().IntP("jobs", "j", runtime.NumCPU(), "meshes translated concurrently")
	if err := viper.BindPFlag("jobs", TranslateCmd.Flags().Lookup("jobs")); err != nil {
		panic(err)
	}
	_ = TranslateCmd.MarkFlagRequired("rulesFile")
}

func runTranslate(ctx context.Context, stdout io.Writer, meshes []string, o translateOpts) error {
	rf, err := InputParameters.Load(o.RulesFile)
	if err != nil {
		return err
	}
	many := len(meshes) > 1
	if many && o.Output == "" {
		return fmt.Errorf("%d meshes need -o to name an output directory", len(meshes))
	}

	var (
		reg     *prometheus.Registry
		metrics *translator.Metrics
	)
	if o.Metrics {
		reg = prometheus.NewRegistry()
		metrics = translator.NewMetrics(reg)
	}

	g, ctx := errgroup.WithContext(ctx)
	if o.Jobs > 0 {
		g.SetLimit(o.Jobs)
	}
	for _, mesh := range meshes {
		mesh := mesh
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return errors.Wrap(translateMesh(rf, mesh, stdout, many, o, metrics), mesh)
		})
	}
	err = g.Wait()
	if reg != nil {
		if merr := dumpMetrics(os.Stderr, reg); err == nil {
			err = merr
		}
	}
	return err
}

func translateMesh(rf *InputParameters.RulesFile, mesh string, stdout io.Writer, many bool,
	o translateOpts, metrics *translator.Metrics) (err error) {
	tr, err := translator.New(mesh,
		translator.WithDiagnostics(diagnostics()),
		translator.WithStrict(viper.GetBool("strict")),
		translator.WithMetrics(metrics))
	if err != nil {
		return err
	}
	defer tr.Close()

	w := stdout
	if o.Output != "" {
		var f *os.File
		if f, err = createTarget(o.Output, mesh, many, ".txt"); err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	ts, err := rf.TemplateSink(w)
	if err != nil {
		return err
	}
	sinks := []export.Sink{ts}
	var db *export.SQLiteSink
	if o.SQLite != "" {
		var path string
		if path, err = prepareTarget(o.SQLite, mesh, many, ".db"); err != nil {
			return err
		}
		if db, err = export.NewSQLiteSink(path); err != nil {
			return err
		}
		sinks = append(sinks, db)
	}
	sink := export.Multi(sinks...)
	abort := func(err error) error {
		if db != nil {
			db.Rollback()
		}
		return err
	}

	if err = rf.Install(tr, sink); err != nil {
		return abort(err)
	}
	if o.Progress {
		bar := progressbar.NewOptions64(int64(tr.NumElements()),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription(filepath.Base(mesh)),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(50))
		tr.AddElementRule(translator.AnyElement, func(int, utils.ElementType, int, []int) error {
			return bar.Add(1)
		})
		defer bar.Finish()
	}

	parse := tr.Parse
	if o.Perf {
		parse = func() error { return measure(mesh, tr.Parse) }
	}
	if err = parse(); err != nil {
		return abort(err)
	}
	if perr := tr.ParseErrors(); perr != nil {
		logrus.Warnf("%s: %v", mesh, perr)
	}
	return sink.Close()
}

// target names the output of mesh: dest itself for a single mesh, a file
// inside dest otherwise
func target(dest, mesh string, many bool, ext string) string {
	if !many {
		return dest
	}
	base := filepath.Base(mesh)
	return filepath.Join(dest, strings.TrimSuffix(base, filepath.Ext(base))+ext)
}

// prepareTarget is target, creating the directory when there is one
func prepareTarget(dest, mesh string, many bool, ext string) (string, error) {
	if many {
		if err := os.MkdirAll(dest, 0755); err != nil {
			return "", err
		}
	}
	return target(dest, mesh, many, ext), nil
}

func createTarget(dest, mesh string, many bool, ext string) (*os.File, error) {
	path, err := prepareTarget(dest, mesh, many, ext)
	if err != nil {
		return nil, err
	}
	return os.Create(path)
}

func dumpMetrics(w io.Writer, reg *prometheus.Registry) error {
	mfs, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range mfs {
		if _, err = expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
