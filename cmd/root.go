// Package cmd provides the command-line interface for mason.
//
// Configuration comes from three places with clear precedence:
// command-line flags, MASON_* environment variables (MASON_JOBS,
// MASON_LOG_LEVEL), and the project.yaml named by --config. The
// standard C/C++ toolchain variables (CC, CXX, CFLAGS, CXXFLAGS,
// CPPFLAGS, LDFLAGS) are not tool settings; they overlay the project
// configuration itself, see internal/config.
package cmd

import (
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/masonbuild/mason/internal/config"
	"github.com/masonbuild/mason/internal/logging"
)

var cfgFile string

// appFs is the filesystem every command operates on. Tests swap it for
// an in-memory filesystem.
var appFs = afero.NewOsFs()

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "mason",
	Short: "A declarative C/C++ project builder and compile database generator",
	Long: `Mason reads a declarative project.yaml describing your compiler,
flags, source groups, and build modes, and turns it into:

  mason generate    compile_commands.json for editor/LSP tooling
  mason build       incremental, parallel compilation and linking
  mason watch       regenerate the compile database on source changes

The standard environment variables CC, CXX, CFLAGS, CXXFLAGS, CPPFLAGS,
and LDFLAGS overlay the configured values: compilers are replaced, flag
variables are appended after the project-mandated flags.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "project.yaml", "project configuration file")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	viper.SetEnvPrefix("MASON")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// loadConfig loads and validates the project configuration named by
// --config.
func loadConfig() (*config.Config, error) {
	return config.Load(appFs, cfgFile)
}

// newLogger builds the logger commands hand to the internals, honoring
// --log-level / MASON_LOG_LEVEL, with verbose forcing debug.
func newLogger(verbose bool) logging.Logger {
	level := logging.ParseLevel(viper.GetString("log-level"))
	if verbose {
		level = logging.LevelDebug
	}

	cfg := logging.DefaultConfig()
	cfg.Level = level

	return logging.NewLogger(cfg)
}
