package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/abramin/abilens/internal/abi"
	"github.com/abramin/abilens/internal/cairo"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
)

var parseJSON bool

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse and validate a single ABI",
	Long: `Parse an ABI array or a contract class file and report what it defines.

Parsing fails on duplicate names, unknown or cyclic types and on more
than one constructor or l1 handler. With --json the resolved model is
printed instead of the summary.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}

		parsed, err := abi.ParseJSON(data,
			abi.WithLogger(GetLogger()),
			abi.WithTypeOptions(cairo.WithFeltAliases(GetConfig().Types.FeltAliases...)),
		)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", args[0], err)
		}

		// Print the resolved model instead of the summary
		if parseJSON {
			out, err := json.Marshal(parsed)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(pretty.Pretty(out))
			return err
		}

		printSummary(cmd.OutOrStdout(), args[0], int64(len(data)), parsed)
		return nil
	},
}

func printSummary(w io.Writer, path string, size int64, parsed *abi.Abi) {
	fmt.Fprintf(w, "%s (%s)\n", path, humanize.Bytes(uint64(size)))
	fmt.Fprintf(w, "  Structs:    %s\n", humanize.Comma(int64(len(parsed.Structures))))
	fmt.Fprintf(w, "  Enums:      %s\n", humanize.Comma(int64(len(parsed.Enums))))
	fmt.Fprintf(w, "  Events:     %s\n", humanize.Comma(int64(len(parsed.Events))))
	fmt.Fprintf(w, "  Functions:  %s\n", humanize.Comma(int64(len(parsed.Functions))))
	fmt.Fprintf(w, "  Interfaces: %s\n", humanize.Comma(int64(len(parsed.Interfaces))))
	if parsed.Constructor != nil {
		fmt.Fprintf(w, "  Constructor: %d inputs\n", parsed.Constructor.Inputs.Len())
	}
	if parsed.L1Handler != nil {
		fmt.Fprintf(w, "  L1 handler: %s\n", parsed.L1Handler.Name)
	}

	// Interface items keep declaration order
	for _, name := range abi.SortedNames(parsed.Interfaces) {
		iface := parsed.Interfaces[name]
		fmt.Fprintf(w, "\n  %s\n", name)
		for pair := iface.Items.Oldest(); pair != nil; pair = pair.Next() {
			fmt.Fprintf(w, "    %-24s %s\n", pair.Key, pair.Value.StateMutability)
		}
	}
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "print the resolved model as JSON")
}
