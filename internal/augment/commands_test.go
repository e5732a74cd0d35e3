package augment

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

// testImagePNG builds a small gradient test image so every command has
// varied pixel values to work on.
func testImagePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x * 255 / width),
				G: uint8(y * 255 / height),
				B: 128,
				A: 255,
			})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func decodeTestPNG(t *testing.T, data []byte) *image.RGBA {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	return toRGBA(img)
}

func TestNoiseCommandDeterministic(t *testing.T) {
	input := testImagePNG(t, 32, 16)
	params := map[string]any{"amplitude": 12.0, "seed": 99}

	command, err := NewNoiseCommand(params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, err := command.Execute(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := command.Execute(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("expected identical output for identical seed")
	}
	if bytes.Equal(first, input) {
		t.Error("expected noise to change the image")
	}

	result := decodeTestPNG(t, first)
	if result.Bounds().Dx() != 32 || result.Bounds().Dy() != 16 {
		t.Errorf("unexpected dimensions %v", result.Bounds())
	}
}

func TestNoiseCommandRejectsAmplitudeOutOfRange(t *testing.T) {
	if _, err := NewNoiseCommand(map[string]any{"amplitude": 200.0}); err == nil {
		t.Error("expected error for amplitude above 128")
	}
	if _, err := NewNoiseCommand(map[string]any{"amplitude": -1.0}); err == nil {
		t.Error("expected error for negative amplitude")
	}
}

func TestBlurCommandSmoothsImage(t *testing.T) {
	input := testImagePNG(t, 32, 16)

	command, err := NewBlurCommand(map[string]any{"radius": 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := command.Execute(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := decodeTestPNG(t, out)
	if result.Bounds().Dx() != 32 || result.Bounds().Dy() != 16 {
		t.Errorf("unexpected dimensions %v", result.Bounds())
	}

	// A blurred gradient flattens local differences between neighbors.
	src := decodeTestPNG(t, input)
	srcDiff := pixelDiff(src, 5, 8, 6, 8)
	outDiff := pixelDiff(result, 5, 8, 6, 8)
	if outDiff > srcDiff {
		t.Errorf("expected neighbor difference to shrink, got %d > %d", outDiff, srcDiff)
	}
}

func TestBlurCommandZeroRadiusPassthrough(t *testing.T) {
	input := testImagePNG(t, 8, 8)

	command, err := NewBlurCommand(map[string]any{"radius": 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := command.Execute(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(out, input) {
		t.Error("expected passthrough for zero radius")
	}
}

func TestGrayscaleCommandEqualChannels(t *testing.T) {
	input := testImagePNG(t, 16, 16)

	command, err := NewGrayscaleCommand(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := command.Execute(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := decodeTestPNG(t, out)
	bounds := result.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := result.RGBAAt(x, y)
			if c.R != c.G || c.G != c.B {
				t.Fatalf("pixel (%d,%d) not gray: %v", x, y, c)
			}
		}
	}
}

func TestVignetteCommandDarkensCorners(t *testing.T) {
	input := testImagePNG(t, 64, 32)

	command, err := NewVignetteCommand(map[string]any{"strength": 0.8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := command.Execute(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	src := decodeTestPNG(t, input)
	result := decodeTestPNG(t, out)

	srcCorner := src.RGBAAt(63, 31)
	outCorner := result.RGBAAt(63, 31)
	if outCorner.R >= srcCorner.R || outCorner.G >= srcCorner.G {
		t.Errorf("expected darkened corner, got %v vs %v", outCorner, srcCorner)
	}

	srcCenter := src.RGBAAt(32, 16)
	outCenter := result.RGBAAt(32, 16)
	if int(srcCenter.R)-int(outCenter.R) > 2 {
		t.Errorf("expected near-unchanged center, got %v vs %v", outCenter, srcCenter)
	}
}

func TestVignetteCommandRejectsStrengthOutOfRange(t *testing.T) {
	if _, err := NewVignetteCommand(map[string]any{"strength": 1.5}); err == nil {
		t.Error("expected error for strength above 1")
	}
}

func TestScaleCommandResizesToTarget(t *testing.T) {
	input := testImagePNG(t, 64, 32)

	command, err := NewScaleCommand(map[string]any{"width": 32, "height": 16})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := command.Execute(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := decodeTestPNG(t, out)
	if result.Bounds().Dx() != 32 || result.Bounds().Dy() != 16 {
		t.Errorf("unexpected dimensions %v", result.Bounds())
	}
}

func TestPngConverterCommandReencodesJPEG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode test JPEG: %v", err)
	}

	command, err := NewPngConverterCommand(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := command.Execute(buf.Bytes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := decodeTestPNG(t, out)
	if result.Bounds().Dx() != 8 || result.Bounds().Dy() != 8 {
		t.Errorf("unexpected dimensions %v", result.Bounds())
	}
}

func TestScaleCommandRequiresDimensions(t *testing.T) {
	if _, err := NewScaleCommand(map[string]any{"width": 32}); err == nil {
		t.Error("expected error for missing height")
	}
	if _, err := NewScaleCommand(map[string]any{"width": -1, "height": 10}); err == nil {
		t.Error("expected error for non-positive width")
	}
}

func pixelDiff(img *image.RGBA, x0, y0, x1, y1 int) int {
	a := img.RGBAAt(x0, y0)
	b := img.RGBAAt(x1, y1)
	diff := 0
	diff += absInt(int(a.R) - int(b.R))
	diff += absInt(int(a.G) - int(b.G))
	diff += absInt(int(a.B) - int(b.B))
	return diff
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
