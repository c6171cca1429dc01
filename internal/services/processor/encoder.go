package processor

import (
	"image"
	"image/color"
	"image/jpeg"
	"io"

	"github.com/disintegration/imaging"
)

// encodeJPEG writes img as a JPEG. Transparent areas are flattened onto
// white, since JPEG has no alpha channel.
func (p *ImageProcessor) encodeJPEG(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	background := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	flat := imaging.Overlay(background, img, image.Pt(0, 0), 1.0)
	return jpeg.Encode(w, flat, &jpeg.Options{Quality: p.quality})
}
