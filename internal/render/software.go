package render

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"
	"math"
	"math/rand"
	"sync"

	"github.com/gogpu/gg"
	ggtext "github.com/gogpu/gg/text"

	"github.com/tankstamp/stampgen/internal/scene"
)

// Software renders scenes with a pure-Go 2D pipeline: gradient-shaded
// cylinder, flat-rasterized text wrapped onto the surface column by column,
// deboss relief via paired highlight/shadow passes, and sample-count-driven
// surface grain. Font sources are cached per path and closed via Close.
type Software struct {
	mu      sync.Mutex
	sources map[string]*ggtext.FontSource
}

// NewSoftware creates a software renderer.
func NewSoftware() *Software {
	return &Software{sources: make(map[string]*ggtext.FontSource)}
}

// Close releases all cached font sources.
func (s *Software) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var first error
	for path, source := range s.sources {
		if err := source.Close(); err != nil && first == nil {
			first = fmt.Errorf("failed to close font source %s: %w", path, err)
		}
	}
	s.sources = make(map[string]*ggtext.FontSource)
	return first
}

func (s *Software) source(path string) (*ggtext.FontSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if source, ok := s.sources[path]; ok {
		return source, nil
	}
	source, err := ggtext.NewFontSourceFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load font %s: %w", path, err)
	}
	s.sources[path] = source
	return source, nil
}

// Render produces a PNG frame for the scene. Any failure inside the drawing
// backend is wrapped in *Error so the batch driver can skip the sample.
func (s *Software) Render(ctx context.Context, sc *scene.Scene, opts Options) (out []byte, err error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, &Error{Text: sc.Text, Variant: sc.Variant,
			Err: fmt.Errorf("invalid resolution %dx%d", opts.Width, opts.Height)}
	}
	if cerr := ctx.Err(); cerr != nil {
		return nil, cerr
	}
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &Error{Text: sc.Text, Variant: sc.Variant, Err: fmt.Errorf("renderer panic: %v", r)}
		}
	}()

	lo := computeLayout(sc, opts)

	dc := gg.NewContext(opts.Width, opts.Height)
	defer func() {
		_ = dc.Close()
	}()

	drawBackground(dc, sc, lo, opts)
	drawGroundShadow(dc, lo)
	drawBody(dc, sc, lo)
	drawCaps(dc, sc, lo)
	drawSeams(dc, sc, lo)

	if sc.DecalPath != "" {
		if derr := drawDecal(dc, sc, lo); derr != nil {
			// Decal is cosmetic; a broken decal file must not kill the sample.
			slog.Warn("decal skipped", "decal", sc.DecalPath, "error", derr)
		}
	}

	strip, serr := s.renderTextStrip(sc, lo)
	if serr != nil {
		return nil, &Error{Text: sc.Text, Variant: sc.Variant, Err: serr}
	}

	img := toRGBA(dc.Image())
	wrapStrip(img, strip, sc, lo)
	applyGrain(img, sc, opts.Samples)

	var buf bytes.Buffer
	if perr := png.Encode(&buf, img); perr != nil {
		return nil, &Error{Text: sc.Text, Variant: sc.Variant,
			Err: fmt.Errorf("failed to encode PNG: %w", perr)}
	}
	return buf.Bytes(), nil
}

// layout is the pixel-space geometry of one frame.
type layout struct {
	cx, cy   float64
	radiusPx float64
	heightPx float64
	// capRy is the vertical radius of the cap ellipses, growing with the
	// camera elevation.
	capRy float64
	// hlFrac is the horizontal highlight position across the body in [0,1],
	// derived from the key light / camera azimuth.
	hlFrac float64
	// Normalized light intensities.
	keyN, fillN, rimN float64
}

func computeLayout(sc *scene.Scene, opts Options) layout {
	w := float64(opts.Width)
	h := float64(opts.Height)

	// Focal length and camera distance collapse into a single zoom factor.
	zoom := (sc.Camera.FocalLength / 50.0) * (4.5 / math.Max(sc.Camera.Distance, 0.5))
	zoom = clampF(zoom, 0.45, 1.8)

	heightPx := clampF(h*0.62*zoom, h*0.30, h*1.40)
	radiusPx := sc.Cylinder.Radius / sc.Cylinder.Height * heightPx
	if maxR := w * 0.42; radiusPx > maxR {
		shrink := maxR / radiusPx
		radiusPx = maxR
		heightPx *= shrink
	}

	elev := sc.Camera.Elevation * math.Pi / 180
	az := sc.Camera.Azimuth * math.Pi / 180

	return layout{
		cx:       w / 2,
		cy:       h/2 - math.Sin(elev)*h*0.08,
		radiusPx: radiusPx,
		heightPx: heightPx,
		capRy:    radiusPx * (0.12 + 0.25*math.Abs(math.Sin(elev))),
		hlFrac:   clampF(0.5+0.35*math.Sin(az), 0.12, 0.88),
		keyN:     clampF(sc.Lights.Key/800.0, 0, 1.2),
		fillN:    clampF(sc.Lights.Fill/400.0, 0, 1.2),
		rimN:     clampF(sc.Lights.Rim/600.0, 0, 1.2),
	}
}

func drawBackground(dc *gg.Context, sc *scene.Scene, lo layout, opts Options) {
	top := clampF(sc.BackgroundTone*(0.85+0.35*lo.fillN), 0, 1)
	bottom := clampF(sc.BackgroundTone*0.55, 0, 1)

	grad := gg.NewLinearGradientBrush(0, 0, 0, float64(opts.Height))
	grad.AddColorStop(0, gg.RGB(top, top, top))
	grad.AddColorStop(1, gg.RGB(bottom, bottom, bottom))

	dc.SetFillBrush(grad)
	dc.DrawRectangle(0, 0, float64(opts.Width), float64(opts.Height))
	if err := dc.Fill(); err != nil {
		slog.Debug("background fill failed", "error", err)
	}
}

func drawGroundShadow(dc *gg.Context, lo layout) {
	dc.SetRGBA(0, 0, 0, 0.30)
	dc.DrawEllipse(lo.cx, lo.cy+lo.heightPx/2+lo.capRy*1.4, lo.radiusPx*1.25, lo.capRy*0.9)
	if err := dc.Fill(); err != nil {
		slog.Debug("shadow fill failed", "error", err)
	}
}

func drawBody(dc *gg.Context, sc *scene.Scene, lo layout) {
	paint := gg.RGB(sc.Cylinder.PaintR, sc.Cylinder.PaintG, sc.Cylinder.PaintB)

	// Rough paint flattens the highlight, metallic paint whitens it.
	hiStrength := (0.35 + 0.45*lo.keyN) * (1 - 0.5*sc.Cylinder.Roughness) * (0.4 + 0.6*sc.Cylinder.Metallic)
	edge := scaleRGB(paint, 0.30+0.12*lo.fillN)
	hi := lerpRGB(paint, gg.White, clampF(hiStrength, 0, 0.9))
	rimEdge := lerpRGB(edge, gg.White, clampF(0.28*lo.rimN, 0, 0.6))

	grad := gg.NewLinearGradientBrush(lo.cx-lo.radiusPx, 0, lo.cx+lo.radiusPx, 0)
	grad.AddColorStop(0, edge)
	grad.AddColorStop(lo.hlFrac, hi)
	grad.AddColorStop(1, rimEdge)

	dc.SetFillBrush(grad)
	dc.DrawRectangle(lo.cx-lo.radiusPx, lo.cy-lo.heightPx/2, lo.radiusPx*2, lo.heightPx)
	if err := dc.Fill(); err != nil {
		slog.Debug("body fill failed", "error", err)
	}

	// Bottom rim closes the silhouette with the same shading.
	dc.SetFillBrush(grad)
	dc.DrawEllipse(lo.cx, lo.cy+lo.heightPx/2, lo.radiusPx, lo.capRy)
	if err := dc.Fill(); err != nil {
		slog.Debug("bottom rim fill failed", "error", err)
	}
}

func drawCaps(dc *gg.Context, sc *scene.Scene, lo layout) {
	paint := gg.RGB(sc.Cylinder.PaintR, sc.Cylinder.PaintG, sc.Cylinder.PaintB)
	topY := lo.cy - lo.heightPx/2

	// Shoulder cap seen from above.
	dc.SetColor(scaleRGB(paint, 0.55+0.20*lo.keyN).Color())
	dc.DrawEllipse(lo.cx, topY, lo.radiusPx, lo.capRy)
	if err := dc.Fill(); err != nil {
		slog.Debug("top cap fill failed", "error", err)
	}

	// Valve collar and knob.
	collarW := lo.radiusPx * 0.28
	collarH := lo.heightPx * 0.05
	dc.SetColor(gg.RGB(0.35, 0.35, 0.38).Color())
	dc.DrawRoundedRectangle(lo.cx-collarW/2, topY-collarH-lo.capRy*0.4, collarW, collarH, collarW*0.15)
	if err := dc.Fill(); err != nil {
		slog.Debug("valve collar fill failed", "error", err)
	}
	dc.SetColor(gg.RGB(0.55, 0.55, 0.58).Color())
	dc.DrawCircle(lo.cx, topY-collarH-lo.capRy*0.4, collarW*0.30)
	if err := dc.Fill(); err != nil {
		slog.Debug("valve knob fill failed", "error", err)
	}
}

func drawSeams(dc *gg.Context, sc *scene.Scene, lo layout) {
	alpha := 0.08 + 0.10*sc.Cylinder.Roughness
	dc.SetRGBA(0, 0, 0, alpha)
	dc.SetLineWidth(1.5)
	for _, frac := range []float64{0.25, 0.75} {
		y := lo.cy - lo.heightPx/2 + lo.heightPx*frac
		dc.DrawLine(lo.cx-lo.radiusPx, y, lo.cx+lo.radiusPx, y)
		if err := dc.Stroke(); err != nil {
			slog.Debug("seam stroke failed", "error", err)
		}
	}
}

// renderTextStrip rasterizes the stamped text flat, with deboss relief:
// a light pass offset against the key light, a dark pass offset toward it,
// and the recessed core on top. The strip background stays transparent so
// wrapStrip can composite it.
func (s *Software) renderTextStrip(sc *scene.Scene, lo layout) (*image.RGBA, error) {
	source, err := s.source(sc.FontPath)
	if err != nil {
		return nil, err
	}

	fontPx := math.Max(sc.TextSize*lo.heightPx, 10)
	arcCap := lo.radiusPx * 2.4

	meas := gg.NewContext(1, 1)
	defer func() {
		_ = meas.Close()
	}()

	var textW float64
	for {
		meas.SetFont(source.Face(fontPx))
		textW, _ = meas.MeasureString(sc.Text)
		if textW <= arcCap || fontPx <= 10 {
			break
		}
		fontPx *= 0.92
	}

	stripW := int(textW + fontPx)
	stripH := int(fontPx * 1.8)
	if stripW < 1 || stripH < 1 {
		return nil, fmt.Errorf("degenerate text strip for %q", sc.Text)
	}

	dc := gg.NewContext(stripW, stripH)
	defer func() {
		_ = dc.Close()
	}()
	dc.SetFont(source.Face(fontPx))

	cx := float64(stripW) / 2
	cy := float64(stripH) / 2

	depthPx := 1.0 + sc.DebossDepth*600
	az := sc.Camera.Azimuth * math.Pi / 180
	ox := math.Cos(az) * depthPx
	oy := 0.4*depthPx + math.Abs(math.Sin(az))*depthPx*0.6

	paint := gg.RGB(sc.Cylinder.PaintR, sc.Cylinder.PaintG, sc.Cylinder.PaintB)
	hi := lerpRGB(paint, gg.White, clampF(0.35+0.35*lo.keyN, 0, 1))
	shadow := scaleRGB(paint, 0.16)
	core := scaleRGB(paint, 0.42)

	dc.SetColor(hi.Color())
	dc.DrawStringAnchored(sc.Text, cx-ox, cy-oy, 0.5, 0.5)
	dc.SetColor(shadow.Color())
	dc.DrawStringAnchored(sc.Text, cx+ox, cy+oy, 0.5, 0.5)
	dc.SetColor(core.Color())
	dc.DrawStringAnchored(sc.Text, cx, cy, 0.5, 0.5)

	return toRGBA(dc.Image()), nil
}

// wrapStrip maps the flat text strip onto the cylinder. For each destination
// column the surface angle is recovered from the horizontal offset, the strip
// is sampled at the corresponding arc length, and the sample is shaded by the
// surface inclination. Columns past ~80 degrees fall off the visible surface.
func wrapStrip(dst *image.RGBA, strip *image.RGBA, sc *scene.Scene, lo layout) {
	bounds := dst.Bounds()
	sb := strip.Bounds()
	sw := sb.Dx()
	sh := sb.Dy()

	bandCenter := lo.cy - lo.heightPx/2 + sc.TextHeightFrac*lo.heightPx
	topY := int(bandCenter) - sh/2

	x0 := int(lo.cx - lo.radiusPx)
	x1 := int(lo.cx + lo.radiusPx)

	for x := x0; x <= x1; x++ {
		if x < bounds.Min.X || x >= bounds.Max.X {
			continue
		}
		norm := (float64(x) - lo.cx) / lo.radiusPx
		if norm <= -0.985 || norm >= 0.985 {
			continue
		}
		theta := math.Asin(norm)
		srcX := sw/2 + int(theta*lo.radiusPx)
		if srcX < 0 || srcX >= sw {
			continue
		}
		shade := 0.55 + 0.45*math.Cos(theta)

		for dy := 0; dy < sh; dy++ {
			y := topY + dy
			if y < bounds.Min.Y || y >= bounds.Max.Y {
				continue
			}
			src := strip.RGBAAt(srcX+sb.Min.X, dy+sb.Min.Y)
			if src.A == 0 {
				continue
			}
			a := float64(src.A) / 255
			prev := dst.RGBAAt(x, y)
			blend := func(s, d uint8) uint8 {
				v := float64(s)*shade*a + float64(d)*(1-a)
				return uint8(clampF(v, 0, 255))
			}
			dst.SetRGBA(x, y, rgba(blend(src.R, prev.R), blend(src.G, prev.G), blend(src.B, prev.B)))
		}
	}
}

// applyGrain adds deterministic per-pixel noise; the amplitude falls off with
// the configured sample count the way path-tracing noise would.
func applyGrain(img *image.RGBA, sc *scene.Scene, samples int) {
	if samples < 1 {
		samples = 1
	}
	amp := 26.0 / math.Sqrt(float64(samples))
	if amp < 0.75 {
		return
	}

	rnd := rand.New(rand.NewSource(grainSeed(sc)))
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			n := (rnd.Float64()*2 - 1) * amp
			c := img.RGBAAt(x, y)
			c.R = addClamped(c.R, n)
			c.G = addClamped(c.G, n)
			c.B = addClamped(c.B, n)
			img.SetRGBA(x, y, c)
		}
	}
}

// grainSeed derives a stable per-sample seed from the scene identity so the
// same run configuration reproduces identical frames.
func grainSeed(sc *scene.Scene) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(sc.Text))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(sc.Variant))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(sc.FontPath))
	return int64(h.Sum64())
}

func toRGBA(img image.Image) *image.RGBA {
	if rgbaImg, ok := img.(*image.RGBA); ok {
		return rgbaImg
	}
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)
	return out
}

func rgba(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func addClamped(v uint8, n float64) uint8 {
	return uint8(clampF(float64(v)+n, 0, 255))
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func scaleRGB(c gg.RGBA, f float64) gg.RGBA {
	return gg.RGBA{R: clampF(c.R*f, 0, 1), G: clampF(c.G*f, 0, 1), B: clampF(c.B*f, 0, 1), A: c.A}
}

func lerpRGB(a, b gg.RGBA, t float64) gg.RGBA {
	t = clampF(t, 0, 1)
	return gg.RGBA{
		R: a.R + (b.R-a.R)*t,
		G: a.G + (b.G-a.G)*t,
		B: a.B + (b.B-a.B)*t,
		A: 1,
	}
}
