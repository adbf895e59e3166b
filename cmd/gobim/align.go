package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/philipparndt/gobim/internal/config"
	"github.com/philipparndt/gobim/internal/panorama"
	"github.com/philipparndt/gobim/pkg/analysis"
	"github.com/philipparndt/gobim/pkg/geometry"
)

var (
	alignSource      []string
	alignTarget      []string
	alignPlaneHeight float64
	alignOutput      string
)

var alignCmd = &cobra.Command{
	Use:   "align [manifest]",
	Short: "Align a model to a reference plane with two point pairs",
	Long: `Solve the uniform scale, rotation about the vertical axis and planar
translation that map two model points onto two reference points, rest the
model on the reference plane and print the resulting placement.`,
	Example: "  gobim align house.yaml --src 0,0,0 --src 10,0,0 --dst 2,0,3 --dst 2,0,13",
	Args:    cobra.ExactArgs(1),
	RunE:    runAlign,
}

func init() {
	rootCmd.AddCommand(alignCmd)

	alignCmd.Flags().StringArrayVar(&alignSource, "src", nil, "Model point x,y,z (twice)")
	alignCmd.Flags().StringArrayVar(&alignTarget, "dst", nil, "Reference point x,y,z (twice)")
	alignCmd.Flags().Float64Var(&alignPlaneHeight, "plane-height", 0, "Height of the reference plane")
	alignCmd.Flags().StringVarP(&alignOutput, "output", "o", "", "Write a top view of the aligned model")
}

func runAlign(cmd *cobra.Command, args []string) error {
	if len(alignSource) != 2 || len(alignTarget) != 2 {
		return errors.New("exactly two --src and two --dst points are required")
	}
	var points [4]geometry.Vector3
	for i, s := range []string{alignSource[0], alignSource[1], alignTarget[0], alignTarget[1]} {
		p, err := parseVector(s)
		if err != nil {
			return err
		}
		points[i] = p
	}

	s, _, err := openSession(cmd.Context(), args[0], func(cfg *config.Config) {
		if cmd.Flags().Changed("plane-height") {
			cfg.Align.PlaneHeight = alignPlaneHeight
		}
	})
	if err != nil {
		return err
	}
	defer s.Close()

	sim, err := s.SolveAlignment(points[0], points[1], points[2], points[3])
	if err != nil {
		return err
	}
	root, err := s.Root()
	if err != nil {
		return err
	}
	bounds, err := s.WorldBounds()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Alignment:")
	fmt.Fprintf(out, "  Scale: %.6f\n", sim.Scale)
	fmt.Fprintf(out, "  Rotation: %.6f degrees\n", sim.AngleDegrees())
	fmt.Fprintf(out, "  Translation: %s\n\n", analysis.FormatVector(sim.Translation))

	source, target := points[:2], points[2:]
	fmt.Fprintln(out, "Transformed Source Points:")
	for _, p := range source {
		fmt.Fprintf(out, "  %s\n", analysis.FormatVector(sim.Apply(p)))
	}
	fmt.Fprintln(out, "Target Points:")
	for _, p := range target {
		fmt.Fprintf(out, "  %s\n", analysis.FormatVector(p))
	}
	fmt.Fprintf(out, "Residual: %.6e\n\n", sim.Residual(source, target))

	fmt.Fprintln(out, "Model Placement:")
	fmt.Fprintf(out, "  Position: %s\n", analysis.FormatVector(root.Current.Position))
	fmt.Fprintf(out, "  Yaw: %.6f degrees\n", geometry.RadToDeg(root.Current.Rotation.YawAngle()))
	fmt.Fprintf(out, "  Scale: %s\n", analysis.FormatVector(root.Current.Scale))
	fmt.Fprintf(out, "  Bounds: %s - %s\n", analysis.FormatVector(bounds.Min), analysis.FormatVector(bounds.Max))

	if alignOutput != "" {
		s.Camera().Fit(bounds)
		s.Camera().TopView()
		if err := panorama.Save(alignOutput, s.Render(1024, 1024)); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nTop view written to %s\n", alignOutput)
	}
	return nil
}
