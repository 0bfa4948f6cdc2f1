package commands

import (
	"fmt"
	"os"
	"sort"

	"brokerscan/lib/pacing"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(presetsCmd)
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "Prints the built-in pacing presets.",
	Run: func(cmd *cobra.Command, args []string) {
		names := make([]string, 0, len(pacing.Presets))
		for name := range pacing.Presets {
			names = append(names, name)
		}
		sort.Strings(names)

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{
			"Preset", "Search (s)", "Contact (s)", "Decrypt (s)", "Range (s)",
		})
		for _, name := range names {
			preset := pacing.Presets[name]
			t.AppendRow(table.Row{
				name,
				formatBounds(preset.Search),
				formatBounds(preset.Contact),
				formatBounds(preset.Decrypt),
				formatBounds(preset.Range),
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}

func formatBounds(b pacing.Bounds) string {
	return fmt.Sprintf("%g to %g", b.Min, b.Max)
}
