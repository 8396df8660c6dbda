package cmd

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"scadtest.dev/pkg/scadtest/internal/domain"
	m "scadtest.dev/pkg/scadtest/internal/model"
)

var batchGridFlag []string
var batchDefineFlag []string
var batchNameFlag string
var batchOutDirFlag string
var batchArgFlag []string
var batchParallelFlag int

// batchCmd represents the batch command.
var batchCmd = newBatchCmd()

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <design>",
		Short: "Render a design over a grid of variable values",
		Long: `Render a design once per combination of the --grid axes. An axis is either
name=from:to[:step] (inclusive) or name=a,b,c. Output names come from --name,
where {var} is replaced by the value of var; existing outputs are skipped.`,
		Example: `  scadtest batch bins.scad --grid gridx=1:3 --grid gridy=1:2 --name "bin_{gridx}x{gridy}.stl"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			grid := make([]domain.GridAxis, 0, len(batchGridFlag))

			for _, text := range batchGridFlag {
				axis, err := domain.ParseGridAxis(text)
				if err != nil {
					return err
				}

				grid = append(grid, axis)
			}

			fixed, err := parseVariables(batchDefineFlag)
			if err != nil {
				return err
			}

			template := batchNameFlag
			if template == "" {
				template = defaultNameTemplate(args[0], grid)
			}

			return workflow.Batch(cmd.Context(), domain.BatchArgs{
				Design:       m.Path(args[0]),
				Grid:         grid,
				Fixed:        fixed,
				NameTemplate: template,
				OutDir:       m.Path(batchOutDirFlag),
				Args:         batchArgFlag,
				Threads:      batchParallelFlag,
			})
		},
	}

	cmd.Flags().StringArrayVar(&batchGridFlag, "grid", nil, "grid axis name=from:to[:step] or name=a,b (repeatable)")
	cobra.CheckErr(cmd.MarkFlagRequired("grid"))
	cmd.Flags().StringArrayVarP(&batchDefineFlag, "define", "D", nil, "fixed variable name=value (repeatable)")
	cmd.Flags().StringVar(&batchNameFlag, "name", "", "output name template (default <design>_<var>{var}....stl)")
	cmd.Flags().StringVar(&batchOutDirFlag, "out-dir", ".", "directory for the rendered files")
	cmd.Flags().StringArrayVar(&batchArgFlag, "arg", nil, "extra renderer argument (repeatable)")
	cmd.Flags().IntVarP(&batchParallelFlag, runParallelFlagName, "p", defaultRunParallel, "number of renders in parallel")

	return cmd
}

func init() {
	rootCmd.AddCommand(batchCmd)
}

// defaultNameTemplate names outputs after the design and every grid variable.
func defaultNameTemplate(design string, grid []domain.GridAxis) string {
	stem := strings.TrimSuffix(filepath.Base(design), filepath.Ext(design))

	var b strings.Builder

	b.WriteString(stem)

	for _, axis := range grid {
		b.WriteString("_" + axis.Name + "{" + axis.Name + "}")
	}

	b.WriteString(m.KindMesh.Extension())

	return b.String()
}
