package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/masonbuild/mason/internal/compiledb"
	"github.com/masonbuild/mason/internal/config"
)

var (
	generateOutput  string
	generateVerbose bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate compile_commands.json from project.yaml",
	Long: `Generate a compile database for C/C++ language servers.

Every declared source group contributes one entry per discovered file,
using the global and group-level flags only; build modes do not affect
the database.

Examples:
  mason generate                          # project.yaml -> compile_commands.json
  mason generate -o build/compile_commands.json
  mason generate --config other.yaml -v`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "compile_commands.json", "output file")
	generateCmd.Flags().BoolVarP(&generateVerbose, "verbose", "v", false, "verbose output")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if generateVerbose {
		fmt.Printf("Reading configuration from: %s\n", cfgFile)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	eff := config.Overlay(cfg, config.EnvironSnapshot())

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	writer := compiledb.NewWriter(appFs, eff, cwd)

	count, err := writer.Write(generateOutput)
	if err != nil {
		return err
	}

	if count == 0 {
		fmt.Println("Warning: no source files found")
	}
	fmt.Printf("Generated %s with %d entries\n", generateOutput, count)

	if generateVerbose {
		if err := verifyDatabase(generateOutput); err != nil {
			return err
		}
		fmt.Println("Generated file is valid JSON")
	}

	return nil
}

// verifyDatabase re-reads the written database and checks that it
// parses back as JSON.
func verifyDatabase(path string) error {
	data, err := afero.ReadFile(appFs, path)
	if err != nil {
		return fmt.Errorf("reading generated file: %w", err)
	}

	var entries []compiledb.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("generated file is not valid JSON: %w", err)
	}

	return nil
}
