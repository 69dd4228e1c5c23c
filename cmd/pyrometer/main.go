package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sabnock01/pyrometer/internal/config"
	"github.com/Sabnock01/pyrometer/internal/git"
	"github.com/Sabnock01/pyrometer/internal/graph"
	"github.com/Sabnock01/pyrometer/internal/pipeline"
	"github.com/Sabnock01/pyrometer/internal/storage"
)

var (
	rootCmd = &cobra.Command{
		Use:   "pyrometer",
		Short: "Range analysis of contract code over a context graph",
	}
	dbPath     string
	configPath string
	showEdges  bool
	sinceRef   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the snapshot database (SQLite); overrides storage.db")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "pyrometer.yaml", "Path to the YAML configuration")
	analyzeCmd.Flags().StringVar(&sinceRef, "since", "", "Only analyze files changed since this git ref")
	showCmd.Flags().BoolVar(&showEdges, "edges", false, "Also print stored edge counts per file")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(showCmd)
}

// loadConfig loads the configuration, applies the --db flag and installs
// the default logger.
func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if dbPath != "" {
		cfg.Storage.DB = dbPath
	}
	logger, err := cfg.Logger(os.Stderr)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	slog.SetDefault(logger)
	return cfg
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Analyze every function under path and store the snapshot",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		path := cfg.Project.Root
		if len(args) > 0 {
			path = args[0]
		}
		ctx := context.Background()

		// 1. Analyze
		fmt.Printf("📂 Analyzing: %s\n", path)
		start := time.Now()
		p := pipeline.New(cfg.Analysis.Extensions, cfg.Analysis.Workers, slog.Default())
		// With --since, only findings on changed lines are printed. The
		// snapshot still stores every finding of the changed files.
		var changed git.Index
		if sinceRef != "" {
			var err error
			changed, err = changedSince(ctx, path, sinceRef)
			if err != nil {
				log.Fatalf("Failed to get git changes: %v", err)
			}
			fmt.Printf("📝 Detected %d changed files since %s.\n", len(changed), sinceRef)
			p.Include = changed.Has
		}
		results, err := p.Run(ctx, path)
		if err != nil {
			log.Fatalf("Analysis failed: %v", err)
		}

		// 2. Report
		var snaps []storage.FileSnapshot
		var functions, findings, failures int
		for _, r := range results {
			snap, err := r.Snapshot()
			if err != nil {
				log.Fatalf("Failed to render %s: %v", r.Path, err)
			}
			for _, rep := range snap.Reports {
				if changed != nil && !changed.Changed(rep.Path, rep.Line) {
					continue
				}
				fmt.Printf("%s:%d: [%s] %s\n", rep.Path, rep.Line, rep.Function, rep.Message)
			}
			for _, f := range snap.Failures {
				fmt.Printf("⚠️  %s: %s: %s\n", f.Path, orFile(f.Function), f.Message)
			}
			functions += len(r.Functions)
			findings += len(snap.Reports)
			failures += len(snap.Failures)
			snaps = append(snaps, snap)
		}
		fmt.Printf("✅ %d files, %d functions, %d findings, %d failures in %v\n",
			len(results), functions, findings, failures, time.Since(start))

		// 3. Persist
		store, err := storage.NewSQLiteStore(cfg.Storage.DB)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()
		if err := store.SaveSnapshot(ctx, snaps...); err != nil {
			log.Fatalf("Failed to save snapshot: %v", err)
		}
		fmt.Printf("💾 Snapshot saved: %s\n", cfg.Storage.DB)
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored analysis results",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		ctx := context.Background()

		store, err := storage.NewSQLiteStore(cfg.Storage.DB)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer store.Close()

		reports, err := store.Reports(ctx)
		if err != nil {
			log.Fatalf("Failed to load reports: %v", err)
		}
		for _, r := range reports {
			fmt.Printf("%s:%d: [%s] %s (%s)\n", r.Path, r.Line, r.Function, r.Message, r.Array)
		}

		failures, err := store.Failures(ctx)
		if err != nil {
			log.Fatalf("Failed to load failures: %v", err)
		}
		for _, f := range failures {
			fmt.Printf("⚠️  %s: %s: [%s] %s\n", f.Path, orFile(f.Function), f.Kind, f.Message)
		}

		if showEdges {
			files, err := store.Files(ctx)
			if err != nil {
				log.Fatalf("Failed to list files: %v", err)
			}
			for _, path := range files {
				counts, err := store.EdgeCounts(ctx, path)
				if err != nil {
					log.Fatalf("Failed to count edges of %s: %v", path, err)
				}
				printCounts(path, counts)
			}
		}
		fmt.Printf("📊 %d findings, %d failures\n", len(reports), len(failures))
	},
}

// changedSince returns the changes since ref in the repository containing
// path.
func changedSince(ctx context.Context, path, ref string) (git.Index, error) {
	dir := path
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		dir = filepath.Dir(path)
	}
	changes, err := git.ChangedFiles(ctx, dir, ref)
	if err != nil {
		return nil, err
	}
	return git.NewIndex(changes), nil
}

func printCounts(path string, counts map[graph.EdgeKind]int) {
	kinds := make([]graph.EdgeKind, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	fmt.Printf("%s:\n", path)
	for _, k := range kinds {
		fmt.Printf("  %-20s %d\n", k, counts[k])
	}
}

func orFile(function string) string {
	if function == "" {
		return "<file>"
	}
	return function
}
