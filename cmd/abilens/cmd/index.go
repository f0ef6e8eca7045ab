package cmd

import (
	"fmt"
	"time"

	"github.com/abramin/abilens/internal/index"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index every ABI under a project directory",
	Long: `Find ABI and contract class files under a project and store their types.

The index command:
- Discovers JSON files honoring index.include and index.exclude
- Parses them concurrently, recording files that fail validation
- Stores contracts, types, functions and references in SQLite
- Tags functions by entry kind and mutability, and unreferenced types
- Persists results to .abilens/index.db and .abilens/index.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "."
		if len(args) > 0 {
			path = args[0]
		}

		cfg := GetConfig()
		fmt.Printf("Indexing project at: %s\n", path)
		fmt.Printf("Config loaded with %d excluded dirs\n", len(cfg.Index.Exclude.Dirs))

		indexer := index.NewIndexer(cfg, path, GetLogger())
		result, err := indexer.Run(cmd.Context())
		if err != nil {
			return fmt.Errorf("indexing failed: %w", err)
		}

		fmt.Println()
		fmt.Printf("Indexing complete!\n")
		fmt.Printf("  Files:     %s (%s)\n", humanize.Comma(int64(result.FileCount)), humanize.Bytes(uint64(result.Bytes)))
		fmt.Printf("  Contracts: %s\n", humanize.Comma(int64(result.ContractCount)))
		fmt.Printf("  Types:     %s\n", humanize.Comma(int64(result.TypeCount)))
		fmt.Printf("  Functions: %s\n", humanize.Comma(int64(result.FunctionCount)))
		fmt.Printf("  Tags:      %s\n", humanize.Comma(int64(result.TagCount)))
		fmt.Printf("  Duration:  %s\n", result.Duration.Round(time.Millisecond))
		fmt.Printf("  Database:  %s\n", result.DBPath)

		if len(result.FailedFiles) > 0 {
			fmt.Printf("\n%d %s rejected:\n", len(result.FailedFiles), plural(len(result.FailedFiles), "file", "files"))
			for _, f := range result.FailedFiles {
				fmt.Printf("  %s\n", f)
			}
		}
		return nil
	},
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
