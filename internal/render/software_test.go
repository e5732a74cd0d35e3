package render

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"github.com/flopp/go-findfont"

	"github.com/tankstamp/stampgen/internal/scene"
)

func testScene(t *testing.T) *scene.Scene {
	t.Helper()
	fontPath := ""
	for _, name := range []string{"DejaVuSans.ttf", "LiberationSans-Regular.ttf", "Arial.ttf"} {
		if p, err := findfont.Find(name); err == nil && p != "" {
			fontPath = p
			break
		}
	}
	if fontPath == "" {
		t.Skip("no system font available for render test")
	}
	return &scene.Scene{
		Text:    "PROPANE-13KG",
		Variant: "001",
		Cylinder: scene.Cylinder{
			SizeName: "medium", Height: 3.0, Radius: 0.5,
			PaintR: 0.7, PaintG: 0.2, PaintB: 0.2,
			Roughness: 0.4, Metallic: 0.85,
		},
		Camera:         scene.Camera{Distance: 4.5, Elevation: 10, Azimuth: 120, FocalLength: 50},
		Lights:         scene.Lights{Key: 600, Fill: 250, Rim: 400},
		FontPath:       fontPath,
		TextSize:       0.2,
		TextHeightFrac: 0.5,
		DebossDepth:    0.003,
		BackgroundTone: 0.4,
	}
}

func TestRender_ProducesPNGAtRequestedResolution(t *testing.T) {
	sc := testScene(t)
	r := NewSoftware()
	t.Cleanup(func() { _ = r.Close() })

	data, err := r.Render(context.Background(), sc, Options{Width: 512, Height: 256, Samples: 64})
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not valid PNG: %v", err)
	}
	if img.Bounds().Dx() != 512 || img.Bounds().Dy() != 256 {
		t.Errorf("expected 512x256, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestRender_IsDeterministicPerScene(t *testing.T) {
	sc := testScene(t)
	r := NewSoftware()
	t.Cleanup(func() { _ = r.Close() })

	opts := Options{Width: 256, Height: 128, Samples: 32}
	first, err := r.Render(context.Background(), sc, opts)
	if err != nil {
		t.Fatalf("first render error: %v", err)
	}
	second, err := r.Render(context.Background(), sc, opts)
	if err != nil {
		t.Fatalf("second render error: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("expected identical bytes for identical scene")
	}
}

func TestRender_InvalidResolution(t *testing.T) {
	sc := testScene(t)
	r := NewSoftware()
	t.Cleanup(func() { _ = r.Close() })

	if _, err := r.Render(context.Background(), sc, Options{Width: 0, Height: 128, Samples: 8}); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestRender_MissingFontFails(t *testing.T) {
	sc := testScene(t)
	sc.FontPath = "/does/not/exist.ttf"
	r := NewSoftware()
	t.Cleanup(func() { _ = r.Close() })

	if _, err := r.Render(context.Background(), sc, Options{Width: 128, Height: 64, Samples: 8}); err == nil {
		t.Error("expected error for missing font")
	}
}

func TestRender_CancelledContext(t *testing.T) {
	sc := testScene(t)
	r := NewSoftware()
	t.Cleanup(func() { _ = r.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Render(ctx, sc, Options{Width: 128, Height: 64, Samples: 8}); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestComputeLayout_StaysOnCanvas(t *testing.T) {
	sc := testScene(t)
	lo := computeLayout(sc, Options{Width: 512, Height: 256})

	if lo.radiusPx <= 0 || lo.heightPx <= 0 {
		t.Fatalf("degenerate layout: %+v", lo)
	}
	if lo.radiusPx > 512*0.42+1 {
		t.Errorf("radius %v exceeds canvas budget", lo.radiusPx)
	}
	if lo.hlFrac < 0.12 || lo.hlFrac > 0.88 {
		t.Errorf("highlight position %v outside clamp", lo.hlFrac)
	}
}

func TestApplyGrain_HighSampleCountMeansNoGrain(t *testing.T) {
	sc := testScene(t)

	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetRGBA(x, y, rgba(100, 100, 100))
		}
	}
	applyGrain(img, sc, 4096)

	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if c := img.RGBAAt(x, y); c.R != 100 {
				t.Fatalf("grain applied despite high sample count at (%d,%d): %v", x, y, c)
			}
		}
	}
}

func TestGrainSeed_StablePerScene(t *testing.T) {
	sc := testScene(t)
	if grainSeed(sc) != grainSeed(sc) {
		t.Error("grain seed not stable")
	}
	other := *sc
	other.Variant = "002"
	if grainSeed(sc) == grainSeed(&other) {
		t.Error("grain seed should differ across variants")
	}
}
