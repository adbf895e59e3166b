package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/philipparndt/gobim/internal/batch"
	"github.com/philipparndt/gobim/internal/bim"
)

var (
	batchesHide   []string
	batchesStorey string
	batchesMode   string
	batchesColors map[string]string
)

var batchesCmd = &cobra.Command{
	Use:   "batches [manifest]",
	Short: "List the color batches built for the visible elements",
	Long: `Rebuild the batch groups after applying category visibility, color
overrides and a storey filter, and list one line per group.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatches,
}

func init() {
	rootCmd.AddCommand(batchesCmd)

	batchesCmd.Flags().StringSliceVar(&batchesHide, "hide", nil, "Categories to hide")
	batchesCmd.Flags().StringVar(&batchesStorey, "storey", "", "Only show elements of this storey")
	batchesCmd.Flags().StringVar(&batchesMode, "mode", "", "Render mode: batched or detailed")
	batchesCmd.Flags().StringToStringVar(&batchesColors, "color", nil, "Category color overrides, e.g. wall=#cc3333")
}

func runBatches(cmd *cobra.Command, args []string) error {
	s, _, err := openSession(cmd.Context(), args[0], nil)
	if err != nil {
		return err
	}
	defer s.Close()

	reg, err := s.Registry()
	if err != nil {
		return err
	}
	for _, id := range batchesHide {
		if err := reg.SetCategoryVisible(id, false); err != nil {
			return err
		}
	}
	ids := make([]string, 0, len(batchesColors))
	for id := range batchesColors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		c, err := bim.ParseHex(batchesColors[id])
		if err != nil {
			return err
		}
		if err := reg.SetCategoryColor(id, &c); err != nil {
			return err
		}
	}
	if batchesMode != "" {
		m, err := batch.ParseMode(batchesMode)
		if err != nil {
			return err
		}
		if err := s.SetMode(m); err != nil {
			return err
		}
	}

	result, err := s.SelectStorey(batchesStorey)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Mode: %s\n", s.Mode())
	fmt.Fprintf(out, "Admitted elements: %d\n", result.Admitted)
	fmt.Fprintf(out, "Groups: %d\n\n", len(result.Groups))
	for _, g := range result.Groups {
		fmt.Fprintf(out, "  %-28s %-10s %5d elements %8d triangles\n", g.Key.String(), g.Color.Hex(), len(g.Elements), g.Geometry.TriangleCount())
	}
	if len(result.Skipped) > 0 {
		fmt.Fprintf(out, "\nSkipped: %d\n", len(result.Skipped))
		for _, e := range result.Skipped {
			fmt.Fprintf(out, "  %v\n", e)
		}
	}
	return nil
}
