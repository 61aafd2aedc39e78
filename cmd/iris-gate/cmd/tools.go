package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Sentinel-Gate/irisgate/internal/adapter/outbound/cel"
	"github.com/Sentinel-Gate/irisgate/internal/config"
	"github.com/Sentinel-Gate/irisgate/internal/domain/exposure"
	"github.com/Sentinel-Gate/irisgate/internal/service"
)

var toolsAll bool

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools the current config exposes",
	Long: `List the MCP tools that tools.expose lets through, with their
category and whether they only read from IRIS.

Example:
  IRIS_GATE_TOOLS_EXPOSE='tool.read_only' iris-gate tools`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var policy exposure.Policy = exposure.AllowAll{}
		if !toolsAll {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			p, err := cel.NewPolicy(cfg.Tools.Expose)
			if err != nil {
				return fmt.Errorf("tools.expose: %w", err)
			}
			policy = p
		}

		tools, err := service.ExposedTools(policy)
		if err != nil {
			return err
		}
		return writeTable(cmd.OutOrStdout(), []string{"NAME", "CATEGORY", "READ-ONLY"}, toolRows(tools))
	},
}

func toolRows(tools []service.Descriptor) [][]string {
	rows := make([][]string, 0, len(tools))
	for _, t := range tools {
		rows = append(rows, []string{t.Name, t.Category, strconv.FormatBool(t.ReadOnly)})
	}
	return rows
}

func init() {
	toolsCmd.Flags().BoolVar(&toolsAll, "all", false, "list every tool, ignoring tools.expose")
	rootCmd.AddCommand(toolsCmd)
}
