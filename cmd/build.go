package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/masonbuild/mason/internal/build"
	"github.com/masonbuild/mason/internal/config"
)

var (
	buildMode    string
	buildClean   bool
	buildJobs    int
	buildOutput  string
	buildVerbose bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Compile and link a build mode",
	Long: `Compile every stale source file of the mode's source groups on a
bounded worker pool, then link the binary. A unit is stale when its
object file is missing or older than its source; nothing else triggers
recompilation.

Examples:
  mason build --mode debug            # incremental debug build
  mason build --mode release -j 8     # bounded at 8 parallel compiles
  mason build --clean                 # clean every mode's artifacts
  mason build --clean --mode debug    # clean one mode`,
	RunE: runBuildCommand,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVarP(&buildMode, "mode", "m", "", "build mode to compile")
	buildCmd.Flags().BoolVar(&buildClean, "clean", false, "clean build artifacts instead of building")
	buildCmd.Flags().IntVarP(&buildJobs, "jobs", "j", 0, "parallel compile jobs (default: number of CPUs)")
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "output directory (overrides the mode's output_dir)")
	buildCmd.Flags().BoolVarP(&buildVerbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("jobs", buildCmd.Flags().Lookup("jobs"))
}

func runBuildCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if buildOutput != "" && buildMode != "" {
		if mode, ok := cfg.Build.Modes[buildMode]; ok {
			mode.OutputDir = buildOutput
			cfg.Build.Modes[buildMode] = mode
		}
	}

	eff := config.Overlay(cfg, config.EnvironSnapshot())
	logger := newLogger(buildVerbose)
	orch := build.NewOrchestrator(appFs, eff, build.ExecRunner{}, logger, viper.GetInt("jobs"))

	ctx := context.Background()

	if buildClean {
		removed, err := orch.Clean(ctx, buildMode)
		if err != nil {
			return err
		}
		fmt.Printf("Cleaned %d file(s)\n", removed)

		return nil
	}

	if buildMode == "" {
		return errors.New("--mode is required for building (use --clean to clean build artifacts)")
	}

	fmt.Printf("Building in %s mode...\n", buildMode)

	if buildVerbose {
		printEnvironment(eff)
	}

	report, err := orch.Build(ctx, buildMode)
	reportFailures(report)
	if err != nil {
		return err
	}

	fmt.Printf("Build complete: %s (%d compiled, %d up to date)\n",
		report.Output, report.Compiled, len(report.Units)-report.Stale)

	return nil
}

// printEnvironment echoes the effective toolchain variables, the way
// the overlay resolved them.
func printEnvironment(eff *config.EffectiveConfig) {
	fmt.Println("Effective environment:")
	for _, kv := range eff.OverlayVariables() {
		fmt.Printf("  %s=%s\n", kv[0], kv[1])
	}
}

// reportFailures prints every failed compile unit with its full command
// and captured stderr, so one run gives the complete picture.
func reportFailures(report *build.Report) {
	for _, failure := range report.Failures {
		fmt.Fprintf(os.Stderr, "Error compiling %s:\n", failure.Unit.Source)
		fmt.Fprintf(os.Stderr, "  command: %s\n", strings.Join(failure.Argv, " "))
		if len(failure.Stderr) > 0 {
			fmt.Fprintln(os.Stderr, strings.TrimRight(string(failure.Stderr), "\n"))
		}
	}
}
