package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/masonbuild/mason/internal/compiledb"
	"github.com/masonbuild/mason/internal/config"
	"github.com/masonbuild/mason/internal/resolver"
	"github.com/masonbuild/mason/internal/watcher"
)

var (
	watchOutput   string
	watchInterval int
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate the compile database when sources change",
	Long: `Watch every declared source and include directory and regenerate
compile_commands.json whenever a source or header changes. The project
file itself is watched too, so config edits take effect on the next
change; a config edit that introduces an error is reported and watching
continues. Runs until interrupted.

Examples:
  mason watch
  mason watch --interval 5 -o build/compile_commands.json`,
	RunE: runWatchCommand,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", "compile_commands.json", "output file")
	watchCmd.Flags().IntVarP(&watchInterval, "interval", "i", 2, "debounce interval in seconds")
}

func runWatchCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(false)

	pw, err := watcher.New(time.Duration(watchInterval)*time.Second, logger)
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer pw.Stop()

	configPath := filepath.Clean(cfgFile)
	dirs := resolver.WatchedDirs(appFs, cfg)
	pw.AddFilter(watchFilter(cfg.Project, configPath, dirs))

	pw.AddHandler(func(events []watcher.ChangeEvent) error {
		fmt.Printf("Change detected (%d file(s)), regenerating...\n", len(events))
		if err := regenerate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}

		return nil
	})

	for _, dir := range dirs {
		if err := pw.AddRecursive(dir); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot watch %s: %v\n", dir, err)
		}
	}
	// The config file's own directory is watched flat; only the config
	// file itself passes the filter from there.
	if err := pw.Add(filepath.Dir(configPath)); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cannot watch %s: %v\n", filepath.Dir(configPath), err)
	}

	// Generate once immediately so the database exists before the
	// first change arrives.
	if err := regenerate(); err != nil {
		return err
	}
	fmt.Printf("Watching %d dir(s)... Ctrl+C to stop\n", len(dirs))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pw.Start(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nWatch stopped.")

	return nil
}

// watchFilter accepts the project file itself, and sources or headers
// located under a declared source or include directory. Sources lying
// outside every declared directory never trigger a regeneration.
func watchFilter(project config.ProjectConfig, configPath string, dirs []string) watcher.FileFilter {
	sourceFilter := watcher.SourceFilter(project)

	return func(path string) bool {
		p := filepath.ToSlash(filepath.Clean(path))
		if p == filepath.ToSlash(configPath) {
			return true
		}
		if !sourceFilter(path) {
			return false
		}

		for _, dir := range dirs {
			d := filepath.ToSlash(filepath.Clean(dir))
			if strings.HasPrefix(p, d+"/") {
				return true
			}
		}

		return false
	}
}

// regenerate reloads the configuration and rewrites the database. The
// reload matters: a config edit between changes must be picked up, and
// one that introduces an error must not kill the watch loop.
func regenerate() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	eff := config.Overlay(cfg, config.EnvironSnapshot())

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	count, err := compiledb.NewWriter(appFs, eff, cwd).Write(watchOutput)
	if err != nil {
		return err
	}

	fmt.Printf("%s updated (%d entries)\n", watchOutput, count)

	return nil
}
