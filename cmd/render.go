package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"scadtest.dev/pkg/scadtest/internal/domain"
	m "scadtest.dev/pkg/scadtest/internal/model"
)

var renderOutFlag string
var renderDefineFlag []string
var renderParamsFlag string
var renderSetFlag string
var renderCameraFlag string
var renderArgFlag []string

// renderCmd represents the render command.
var renderCmd = newRenderCmd()

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <design>",
		Short: "Render a design once",
		Long: `Render a design file with variable overrides. The output kind follows the
extension of --out: .stl, .svg or .png.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			variables, err := parseVariables(renderDefineFlag)
			if err != nil {
				return err
			}

			camera, err := parseCamera(renderCameraFlag)
			if err != nil {
				return err
			}

			return workflow.Render(cmd.Context(), domain.RenderArgs{
				Design:       m.Path(args[0]),
				Output:       m.Path(renderOutFlag),
				Variables:    variables,
				Parameters:   m.Path(renderParamsFlag),
				ParameterSet: renderSetFlag,
				Camera:       camera,
				Args:         renderArgFlag,
			})
		},
	}

	cmd.Flags().StringVarP(&renderOutFlag, "out", "o", "", "output file")
	cobra.CheckErr(cmd.MarkFlagRequired("out"))
	cmd.Flags().StringArrayVarP(&renderDefineFlag, "define", "D", nil, "variable override name=value (repeatable)")
	cmd.Flags().StringVar(&renderParamsFlag, "params", "", "parameter file")
	cmd.Flags().StringVar(&renderSetFlag, "set", "", "parameter set to apply from --params")
	cmd.Flags().StringVar(&renderCameraFlag, "camera", "", "camera as tx,ty,tz,rx,ry,rz,distance")
	cmd.Flags().StringArrayVar(&renderArgFlag, "arg", nil, "extra renderer argument (repeatable)")
	cmd.MarkFlagsRequiredTogether("params", "set")

	return cmd
}

func init() {
	rootCmd.AddCommand(renderCmd)
}

// parseVariables turns repeated name=value flags into ordered overrides.
func parseVariables(assignments []string) (*m.NamedValues, error) {
	values := m.NewNamedValues()

	for _, assignment := range assignments {
		name, value, err := domain.ParseAssignment(assignment)
		if err != nil {
			return nil, err
		}

		values.Set(name, value)
	}

	return values, nil
}

// parseCamera reads seven comma separated numbers. Empty means no camera.
func parseCamera(text string) (*m.Camera, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	parts := strings.Split(text, ",")
	if len(parts) != 7 {
		return nil, fmt.Errorf("%w: camera %q needs 7 numbers, got %d", m.ErrConfiguration, text, len(parts))
	}

	numbers := make([]float64, len(parts))

	for i, part := range parts {
		n, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: camera %q: %w", m.ErrConfiguration, text, err)
		}

		numbers[i] = n
	}

	return &m.Camera{
		Translate: m.Vec3{numbers[0], numbers[1], numbers[2]},
		Rotate:    m.Vec3{numbers[3], numbers[4], numbers[5]},
		Distance:  numbers[6],
	}, nil
}
