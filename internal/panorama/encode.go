package panorama

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	"golang.org/x/image/bmp"
)

// JPEGQuality is used when saving .jpg and .jpeg files
const JPEGQuality = 90

// Save writes img to path, choosing the format from the extension
// (.png, .jpg, .jpeg or .bmp)
func Save(path string, img image.Image) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return imgio.Save(path, img, imgio.PNGEncoder())
	case ".jpg", ".jpeg":
		return imgio.Save(path, img, imgio.JPEGEncoder(JPEGQuality))
	case ".bmp":
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create file: %w", err)
		}
		if err := bmp.Encode(f, img); err != nil {
			f.Close()
			return fmt.Errorf("failed to encode bmp: %w", err)
		}
		return f.Close()
	}
	return fmt.Errorf("unsupported image format: %s", filepath.Ext(path))
}

// Load reads an image in any format Save writes
func Load(path string) (image.Image, error) {
	if strings.EqualFold(filepath.Ext(path), ".bmp") {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()
		return bmp.Decode(f)
	}
	return imgio.Open(path)
}

// Thumbnail scales img to the given width, keeping the aspect ratio
func Thumbnail(img image.Image, width int) *image.RGBA {
	b := img.Bounds()
	height := max(1, b.Dy()*width/max(1, b.Dx()))
	return transform.Resize(img, width, height, transform.Linear)
}

// ThumbnailPath derives the thumbnail file name from the output path
func ThumbnailPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".thumb" + ext
}
