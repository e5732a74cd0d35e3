package render

import (
	"bytes"
	"fmt"
	"image"
	"os"

	"github.com/gogpu/gg"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/tankstamp/stampgen/internal/scene"
)

// hazardDecalSVG is the built-in fallback decal used when no decal directory
// is configured: a flammable-gas hazard diamond.
const hazardDecalSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="64" height="64" viewBox="0 0 64 64">
  <g transform="rotate(45 32 32)">
    <rect x="12" y="12" width="40" height="40" fill="#d93025" stroke="#7a1410" stroke-width="3"/>
  </g>
  <path d="M32 18 C28 26 24 30 24 37 a8 8 0 0 0 16 0 C40 30 36 26 32 18 Z" fill="#ffffff"/>
  <rect x="28" y="44" width="8" height="3" fill="#ffffff"/>
</svg>`

// drawDecal composites an SVG decal onto the lower half of the cylinder body.
func drawDecal(dc *gg.Context, sc *scene.Scene, lo layout) error {
	data, err := decalData(sc.DecalPath)
	if err != nil {
		return err
	}

	size := int(lo.radiusPx * 1.1)
	if size < 16 {
		return fmt.Errorf("decal area too small (%dpx)", size)
	}

	img, err := rasterizeSVG(data, size, size)
	if err != nil {
		return err
	}

	buf := gg.ImageBufFromImage(img)
	dc.DrawImageEx(buf, gg.DrawImageOptions{
		X:             lo.cx - float64(size)/2,
		Y:             lo.cy + lo.heightPx*0.12,
		Opacity:       0.88,
		Interpolation: gg.InterpBilinear,
		BlendMode:     gg.BlendNormal,
	})
	return nil
}

func decalData(path string) ([]byte, error) {
	if path == scene.BuiltinDecal {
		return []byte(hazardDecalSVG), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read decal %s: %w", path, err)
	}
	return data, nil
}

// rasterizeSVG renders SVG data onto a transparent canvas of the given size.
func rasterizeSVG(svgData []byte, targetW, targetH int) (*image.RGBA, error) {
	if targetW <= 0 || targetH <= 0 {
		return nil, fmt.Errorf("invalid decal dimensions: %dx%d", targetW, targetH)
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgData))
	if err != nil {
		return nil, fmt.Errorf("failed to parse decal SVG: %w", err)
	}

	icon.SetTarget(0, 0, float64(targetW), float64(targetH))

	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	scanner := rasterx.NewScannerGV(targetW, targetH, dst, dst.Bounds())
	dasher := rasterx.NewDasher(targetW, targetH, scanner)
	icon.Draw(dasher, 1.0)

	return dst, nil
}
