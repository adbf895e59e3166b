package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/philipparndt/gobim/internal/batch"
	"github.com/philipparndt/gobim/internal/panorama"
)

var (
	renderOutput string
	renderWidth  int
	renderHeight int
	renderTop    bool
	renderMode   string
	renderZoom   float64
)

var renderCmd = &cobra.Command{
	Use:   "render [manifest]",
	Short: "Render a still image of a model",
	Long:  "Render the model from the default orbit view, or from above with --top, to an image file.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "render.png", "Output image (.png, .jpg or .bmp)")
	renderCmd.Flags().IntVar(&renderWidth, "width", 1280, "Image width in pixels")
	renderCmd.Flags().IntVar(&renderHeight, "height", 800, "Image height in pixels")
	renderCmd.Flags().BoolVar(&renderTop, "top", false, "Orthographic view from above")
	renderCmd.Flags().StringVar(&renderMode, "mode", "", "Render mode: batched or detailed")
	renderCmd.Flags().Float64Var(&renderZoom, "zoom", 0, "Zoom ticks; negative moves closer")
}

func runRender(cmd *cobra.Command, args []string) error {
	if renderWidth <= 0 || renderHeight <= 0 {
		return fmt.Errorf("invalid image size %dx%d", renderWidth, renderHeight)
	}
	s, _, err := openSession(cmd.Context(), args[0], nil)
	if err != nil {
		return err
	}
	defer s.Close()

	if renderMode != "" {
		m, err := batch.ParseMode(renderMode)
		if err != nil {
			return err
		}
		if err := s.SetMode(m); err != nil {
			return err
		}
	}
	if renderTop {
		s.Camera().TopView()
	}
	s.Camera().Zoom(renderZoom)

	if err := panorama.Save(renderOutput, s.Render(renderWidth, renderHeight)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Rendered %s (%dx%d, %s)\n", renderOutput, renderWidth, renderHeight, s.Mode())
	return nil
}
