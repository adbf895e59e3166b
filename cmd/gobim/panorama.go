package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/philipparndt/gobim/internal/config"
	"github.com/philipparndt/gobim/internal/panorama"
	"github.com/philipparndt/gobim/pkg/analysis"
	"github.com/philipparndt/gobim/pkg/geometry"
)

var (
	panoramaAt        string
	panoramaYaw       float64
	panoramaEye       bool
	panoramaOutput    string
	panoramaThumbnail int
	panoramaFace      int
	panoramaWidth     int
	panoramaHeight    int
	panoramaStorey    string
)

var panoramaCmd = &cobra.Command{
	Use:   "panorama [manifest]",
	Short: "Capture an equirectangular panorama inside a model",
	Long: `Render six directional views at a point and remap them into a 2:1
equirectangular image. With --eye the point is taken as a floor position
and raised by the configured eye height.`,
	Example: "  gobim panorama house.yaml --at 4,0.2,6 --eye -o hall.jpg --thumbnail 512",
	Args:    cobra.ExactArgs(1),
	RunE:    runPanorama,
}

func init() {
	rootCmd.AddCommand(panoramaCmd)

	panoramaCmd.Flags().StringVar(&panoramaAt, "at", "", "Viewpoint x,y,z")
	panoramaCmd.Flags().Float64Var(&panoramaYaw, "yaw", 0, "Yaw offset in degrees")
	panoramaCmd.Flags().BoolVar(&panoramaEye, "eye", false, "Raise the viewpoint by the configured eye height")
	panoramaCmd.Flags().StringVarP(&panoramaOutput, "output", "o", "panorama.png", "Output image (.png, .jpg or .bmp)")
	panoramaCmd.Flags().IntVar(&panoramaThumbnail, "thumbnail", 0, "Also write a thumbnail of this width")
	panoramaCmd.Flags().IntVar(&panoramaFace, "face", 0, "Face resolution in pixels")
	panoramaCmd.Flags().IntVar(&panoramaWidth, "width", 0, "Panorama width in pixels")
	panoramaCmd.Flags().IntVar(&panoramaHeight, "height", 0, "Panorama height in pixels")
	panoramaCmd.Flags().StringVar(&panoramaStorey, "storey", "", "Only show elements of this storey")
	_ = panoramaCmd.MarkFlagRequired("at")
}

func runPanorama(cmd *cobra.Command, args []string) error {
	point, err := parseVector(panoramaAt)
	if err != nil {
		return err
	}

	s, _, err := openSession(cmd.Context(), args[0], func(cfg *config.Config) {
		if cmd.Flags().Changed("face") {
			cfg.Panorama.FaceResolution = panoramaFace
		}
		if cmd.Flags().Changed("width") {
			cfg.Panorama.Width = panoramaWidth
		}
		if cmd.Flags().Changed("height") {
			cfg.Panorama.Height = panoramaHeight
		}
	})
	if err != nil {
		return err
	}
	defer s.Close()

	if panoramaStorey != "" {
		if _, err := s.SelectStorey(panoramaStorey); err != nil {
			return err
		}
	}
	if panoramaEye {
		point = point.Add(geometry.NewVector3(0, s.Config().Panorama.EyeHeight, 0))
	}

	img, err := s.CapturePanorama(point, geometry.DegToRad(panoramaYaw))
	if err != nil {
		return err
	}
	if err := panorama.Save(panoramaOutput, img); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Viewpoint: %s\n", analysis.FormatVector(point))
	fmt.Fprintf(out, "Panorama: %s (%dx%d)\n", panoramaOutput, img.Bounds().Dx(), img.Bounds().Dy())

	if panoramaThumbnail > 0 {
		path := panorama.ThumbnailPath(panoramaOutput)
		thumb := panorama.Thumbnail(img, panoramaThumbnail)
		if err := panorama.Save(path, thumb); err != nil {
			return err
		}
		fmt.Fprintf(out, "Thumbnail: %s (%dx%d)\n", path, thumb.Bounds().Dx(), thumb.Bounds().Dy())
	}
	return nil
}
