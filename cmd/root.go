package cmd

import (
	"fmt"
	"os"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile  string
	profiler interface{ Stop() }
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gmshtranslate",
	Short: "Translate Gmsh 2.2 meshes into other formats using rules",
	Long: `gmshtranslate reads Gmsh 2.2 ASCII mesh files and streams their nodes and
elements through user rules selected by physical group and element type.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetBool("debug") {
			logrus.SetLevel(logrus.DebugLevel)
		}
		return startProfile(viper.GetString("profile"))
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		stopProfile()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		stopProfile()
		logrus.Errorf("gmshtranslate: %v", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.gmshtranslate.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "turn on debug logging")
	rootCmd.PersistentFlags().Bool("strict", false, "treat malformed element records as fatal")
	rootCmd.PersistentFlags().String("profile", "", "write a profile of the run: cpu, mem or trace")
	for _, key := range []string{"debug", "strict", "profile"} {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key)); err != nil {
			panic(err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			logrus.Warnf("no home directory: %v", err)
		} else {
			// Search config in home directory with name ".gmshtranslate" (without extension).
			viper.AddConfigPath(home)
			viper.SetConfigName(".gmshtranslate")
		}
	}

	viper.SetEnvPrefix("gmshtranslate")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		logrus.Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		logrus.Warnf("reading %s: %v", cfgFile, err)
	}
}

func startProfile(kind string) error {
	var mode func(*profile.Profile)
	switch kind {
	case "":
		return nil
	case "cpu":
		mode = profile.CPUProfile
	case "mem":
		mode = profile.MemProfile
	case "trace":
		mode = profile.TraceProfile
	default:
		return fmt.Errorf("unknown profile %q, want cpu, mem or trace", kind)
	}
	profiler = profile.Start(mode, profile.ProfilePath("."), profile.NoShutdownHook, profile.Quiet)
	return nil
}

func stopProfile() {
	if profiler != nil {
		profiler.Stop()
		profiler = nil
	}
}
