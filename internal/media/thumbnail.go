package media

import (
	"fmt"

	"github.com/disintegration/imaging"
)

// DefaultThumbnailSize bounds the longest edge of generated thumbnails.
const DefaultThumbnailSize = 480

// Thumbnail writes a downscaled copy of the source image to dst, fitting
// it within maxDim on the longest edge while preserving aspect ratio.
// Images already within bounds are re-encoded at original size. The output
// format follows the dst extension.
func Thumbnail(src, dst string, maxDim int) error {
	if maxDim <= 0 {
		maxDim = DefaultThumbnailSize
	}

	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("opening source image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxDim || bounds.Dy() > maxDim {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}

	if err := imaging.Save(img, dst, imaging.JPEGQuality(85)); err != nil {
		return fmt.Errorf("saving thumbnail: %w", err)
	}
	return nil
}
