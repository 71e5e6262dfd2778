package loaders

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecodeImage(t *testing.T) {
	decoded, err := DecodeImage(encodePNG(t, 4, 2))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Width != 4 || decoded.Height != 2 || decoded.ChannelCount != 4 {
		t.Fatalf("unexpected shape: %+v", decoded)
	}
	if len(decoded.Pixels) != 4*2*4 {
		t.Fatalf("unexpected pixel count: %d", len(decoded.Pixels))
	}

	if _, err := DecodeImage([]byte("not an image")); err == nil {
		t.Fatal("garbage input must fail")
	}
}

func TestFlipY(t *testing.T) {
	decoded, err := DecodeImage(encodePNG(t, 2, 2))
	if err != nil {
		t.Fatal(err)
	}
	topLeftG := decoded.Pixels[1]
	decoded.FlipY()
	if decoded.Pixels[1] == topLeftG {
		t.Fatal("rows should have swapped")
	}
	decoded.FlipY()
	if decoded.Pixels[1] != topLeftG {
		t.Fatal("double flip should restore the image")
	}
}

func TestDownscale(t *testing.T) {
	decoded, err := DecodeImage(encodePNG(t, 8, 4))
	if err != nil {
		t.Fatal(err)
	}

	same := decoded.Downscale(8)
	if same != decoded {
		t.Fatal("images within the limit should come back unchanged")
	}

	smaller := decoded.Downscale(4)
	if smaller.Width != 4 || smaller.Height != 2 {
		t.Fatalf("aspect ratio lost: %dx%d", smaller.Width, smaller.Height)
	}
}

func TestMipChain(t *testing.T) {
	decoded, err := DecodeImage(encodePNG(t, 8, 4))
	if err != nil {
		t.Fatal(err)
	}

	chain := decoded.MipChain()
	want := [][2]uint32{{8, 4}, {4, 2}, {2, 1}, {1, 1}}
	if len(chain) != len(want) {
		t.Fatalf("expected %d levels, got %d", len(want), len(chain))
	}
	for i, level := range chain {
		if level.Width != want[i][0] || level.Height != want[i][1] {
			t.Fatalf("level %d: %dx%d", i, level.Width, level.Height)
		}
	}

	if got := FullMipLevels(8, 4); got != 4 {
		t.Fatalf("full mip levels: %d", got)
	}
	if got := FullMipLevels(1, 1); got != 1 {
		t.Fatalf("1x1 mip levels: %d", got)
	}
}
