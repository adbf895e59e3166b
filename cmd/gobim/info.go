package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/philipparndt/gobim/pkg/analysis"
)

var (
	infoMetrics bool
	infoLargest int
)

var infoCmd = &cobra.Command{
	Use:   "info [manifest]",
	Short: "Display general information about a model",
	Long:  "Show element, category and storey counts, dimensions, surface area, edge statistics and the draw calls saved by batching.",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().BoolVar(&infoMetrics, "metrics", false, "Print collected metrics")
	infoCmd.Flags().IntVarP(&infoLargest, "largest", "n", 0, "List the N elements with the most triangles")
}

func runInfo(cmd *cobra.Command, args []string) error {
	s, m, err := openSession(cmd.Context(), args[0], nil)
	if err != nil {
		return err
	}
	defer s.Close()

	reg, err := s.Registry()
	if err != nil {
		return err
	}
	last, err := s.LastRebuild()
	if err != nil {
		return err
	}
	result := analysis.AnalyzeModel(reg, last.Groups)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Model Information")
	fmt.Fprintln(out, "=================")
	if s.Name() != "" {
		fmt.Fprintf(out, "Name: %s\n", s.Name())
	}
	fmt.Fprintf(out, "File: %s\n\n", args[0])

	fmt.Fprintln(out, "Model Statistics:")
	fmt.Fprintf(out, "  Elements: %d\n", result.ElementCount)
	fmt.Fprintf(out, "  Triangles: %d\n", result.TriangleCount)
	fmt.Fprintf(out, "  Vertices: %d\n", result.VertexCount)
	fmt.Fprintf(out, "  Surface Area: %.6f square units\n\n", result.SurfaceArea)

	fmt.Fprintln(out, "Bounding Box:")
	fmt.Fprintf(out, "  Min: %s\n", analysis.FormatVector(result.BoundingBox.Min))
	fmt.Fprintf(out, "  Max: %s\n", analysis.FormatVector(result.BoundingBox.Max))
	fmt.Fprintf(out, "  Center: %s\n\n", analysis.FormatVector(result.BoundingBox.Center()))

	fmt.Fprintln(out, "Dimensions:")
	fmt.Fprintf(out, "  Width (X): %.6f units\n", result.Dimensions.X)
	fmt.Fprintf(out, "  Height (Y): %.6f units\n", result.Dimensions.Y)
	fmt.Fprintf(out, "  Depth (Z): %.6f units\n", result.Dimensions.Z)
	fmt.Fprintf(out, "  Diagonal: %.6f units\n\n", result.BoundingBox.Diagonal())

	fmt.Fprintln(out, "Edge Lengths:")
	fmt.Fprintf(out, "  Minimum: %.6f units\n", result.MinEdgeLength)
	fmt.Fprintf(out, "  Maximum: %.6f units\n", result.MaxEdgeLength)
	fmt.Fprintf(out, "  Average: %.6f units\n\n", result.AvgEdgeLength)

	fmt.Fprintln(out, "Categories:")
	for _, c := range result.Categories {
		state := "visible"
		if !c.Visible {
			state = "hidden"
		}
		line := fmt.Sprintf("  %-20s %5d elements %8d triangles  %s", c.Name, c.ElementCount, c.TriangleCount, state)
		if c.Override != "" {
			line += "  color " + c.Override
		}
		fmt.Fprintln(out, line)
	}

	if len(result.Storeys) > 0 {
		fmt.Fprintln(out, "\nStoreys:")
		for _, st := range result.Storeys {
			fmt.Fprintf(out, "  %-20s %10.3f  %5d elements\n", st.Name, st.Elevation, st.ElementCount)
		}
	}

	fmt.Fprintln(out, "\nDraw Calls:")
	fmt.Fprintf(out, "  Detailed: %d\n", result.DrawCalls.Detailed)
	fmt.Fprintf(out, "  Batched: %d\n", result.DrawCalls.Batched)
	fmt.Fprintf(out, "  Reduction: %.1f%%\n", result.DrawCalls.Reduction*100)

	if infoLargest > 0 {
		fmt.Fprintf(out, "\nLargest %d Elements:\n", infoLargest)
		for i, e := range analysis.FindLargestElements(result, infoLargest) {
			fmt.Fprintf(out, "  %d. %-20s %-12s %8d triangles  %s\n", i+1, e.ID, e.Category, e.TriangleCount, analysis.FormatMeasurement(e.SurfaceArea, "sq units"))
		}
	}

	if infoMetrics {
		fmt.Fprintln(out, "\nMetrics:")
		return m.Dump(out)
	}
	return nil
}
