package loaders

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"

	// registered decoders for the image formats assets may reference
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"
)

/**
 * @brief Decoded pixel data in RGBA8 layout, the only layout textures
 * are uploaded in.
 */
type ImageData struct {
	/** @brief The image width in pixels. */
	Width uint32
	/** @brief The image height in pixels. */
	Height uint32
	/** @brief The number of channels. Always 4 after decoding. */
	ChannelCount uint8
	/** @brief The pixel bytes, row major, Width*Height*ChannelCount long. */
	Pixels []uint8
}

// DecodeImage decodes png, jpeg or webp bytes into RGBA8 pixels.
func DecodeImage(data []byte) (*ImageData, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("loaders: image decode failed: %w", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("loaders: %s image has no pixels", format)
	}

	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}

	return &ImageData{
		Width:        uint32(bounds.Dx()),
		Height:       uint32(bounds.Dy()),
		ChannelCount: 4,
		Pixels:       rgba.Pix,
	}, nil
}

// FlipY mirrors the image vertically in place. Needed for targets that
// address textures bottom-up.
func (d *ImageData) FlipY() {
	rowSize := int(d.Width) * int(d.ChannelCount)
	tmp := make([]uint8, rowSize)
	for y := 0; y < int(d.Height)/2; y++ {
		top := d.Pixels[y*rowSize : (y+1)*rowSize]
		bottom := d.Pixels[(int(d.Height)-1-y)*rowSize : (int(d.Height)-y)*rowSize]
		copy(tmp, top)
		copy(top, bottom)
		copy(bottom, tmp)
	}
}

// Downscale returns the image resized so neither side exceeds maxSize.
// Images already within the limit come back unchanged.
func (d *ImageData) Downscale(maxSize uint32) *ImageData {
	if d.Width <= maxSize && d.Height <= maxSize {
		return d
	}
	width, height := d.Width, d.Height
	if width >= height {
		height = max(height*maxSize/width, 1)
		width = maxSize
	} else {
		width = max(width*maxSize/height, 1)
		height = maxSize
	}
	return d.resizeTo(width, height)
}

// MipChain builds the full mip pyramid, level 0 included, halving each
// side down to 1x1.
func (d *ImageData) MipChain() []*ImageData {
	chain := []*ImageData{d}
	width, height := d.Width, d.Height
	for width > 1 || height > 1 {
		width = max(width/2, 1)
		height = max(height/2, 1)
		chain = append(chain, d.resizeTo(width, height))
	}
	return chain
}

// FullMipLevels returns the number of levels of a complete mip pyramid
// for the given dimensions.
func FullMipLevels(width, height uint32) uint8 {
	levels := uint8(1)
	for width > 1 || height > 1 {
		width = max(width/2, 1)
		height = max(height/2, 1)
		levels++
	}
	return levels
}

func (d *ImageData) resizeTo(width, height uint32) *ImageData {
	src := &image.RGBA{
		Pix:    d.Pixels,
		Stride: int(d.Width) * 4,
		Rect:   image.Rect(0, 0, int(d.Width), int(d.Height)),
	}
	resized := resize.Resize(uint(width), uint(height), src, resize.Bilinear)

	rgba, ok := resized.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
		draw.Draw(rgba, rgba.Bounds(), resized, image.Point{}, draw.Src)
	}
	return &ImageData{
		Width:        width,
		Height:       height,
		ChannelCount: 4,
		Pixels:       rgba.Pix,
	}
}
