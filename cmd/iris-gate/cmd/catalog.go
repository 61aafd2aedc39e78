package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sentinel-Gate/irisgate/internal/domain/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog <kind>",
	Short: "Print a built-in reference catalog",
	Long: `Print one of the reference catalogs the list_* tools return,
such as IOC types, asset types or case classifications.

Available catalogs: ` + strings.Join(catalog.Default().Names(), ", ") + `

Example:
  iris-gate catalog ioc_types`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := catalog.Default().Lookup(args[0])
		if err != nil {
			return err
		}
		headers, rows := catalogRows(entries)
		if err := writeTable(cmd.OutOrStdout(), headers, rows); err != nil {
			return fmt.Errorf("failed to render catalog: %w", err)
		}
		return nil
	},
}

func catalogRows(entries []catalog.Entry) ([]string, [][]string) {
	cols := catalog.Columns(entries)
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = strings.ToUpper(c)
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = e[c]
		}
		rows = append(rows, row)
	}
	return headers, rows
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}
