package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// WatchCmd represents the watch command
var WatchCmd = &cobra.Command{
	Use:   "watch -I rules.yaml -o out <mesh.msh>",
	Short: "Translate a mesh again whenever it or the rules file changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o := translateOpts{}
		o.RulesFile, _ = cmd.Flags().GetString("rulesFile")
		o.Output, _ = cmd.Flags().GetString("output")
		o.SQLite, _ = cmd.Flags().GetString("sqlite")
		delay, _ := cmd.Flags().GetDuration("debounce")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runWatch(ctx, args[0], o, delay)
	},
}

func init() {
	rootCmd.AddCommand(WatchCmd)
	WatchCmd.Flags().StringP("rulesFile", "I", "", "YAML or TOML rules file")
	WatchCmd.Flags().StringP("output", "o", "", "output file")
	WatchCmd.Flags().String("sqlite", "", "also store selected records in this SQLite database")
	WatchCmd.Flags().Duration("debounce", 200*time.Millisecond, "quiet time after a change before translating")
	_ = WatchCmd.MarkFlagRequired("rulesFile")
	_ = WatchCmd.MarkFlagRequired("output")
}

// runWatch translates once, then again after every burst of changes to the
// mesh or the rules file, until ctx is done. Failed translations are logged.
func runWatch(ctx context.Context, mesh string, o translateOpts, delay time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	defer watcher.Close()

	// Editors replace files instead of writing them, so watch the directories
	watched := make(map[string]bool)
	for _, path := range []string{mesh, o.RulesFile} {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		watched[abs] = true
		if err = watcher.Add(filepath.Dir(abs)); err != nil {
			return errors.Wrapf(err, "watch %s", path)
		}
	}

	translate := func() {
		if err := runTranslate(ctx, os.Stdout, []string{mesh}, o); err != nil {
			logrus.Errorf("translate %s: %v", mesh, err)
			return
		}
		logrus.Infof("translated %s into %s", mesh, o.Output)
	}
	translate()

	timer := time.NewTimer(delay)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			abs, _ := filepath.Abs(event.Name)
			if !watched[abs] || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			logrus.Debugf("%s: %s", event.Op, event.Name)
			timer.Reset(delay)
		case <-timer.C:
			translate()
		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			logrus.Errorf("watch: %v", err)
		}
	}
}
