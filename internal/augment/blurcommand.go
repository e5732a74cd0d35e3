package augment

import (
	"fmt"
	"image"
	"log/slog"
)

// BlurParams represents typed parameters for the blur command
type BlurParams struct {
	Radius int
}

// NewBlurParamsFromMap creates BlurParams from a generic map
func NewBlurParamsFromMap(params map[string]any) (*BlurParams, error) {
	radius := GetIntParam(params, "radius", 1)

	if radius < 0 || radius > 32 {
		return nil, fmt.Errorf("radius must be in [0, 32], got %d", radius)
	}

	return &BlurParams{Radius: radius}, nil
}

// BlurCommand applies a separable box blur
type BlurCommand struct {
	name   string
	params *BlurParams
}

// NewBlurCommand creates a new blur command from configuration parameters
func NewBlurCommand(params map[string]any) (Command, error) {
	typedParams, err := NewBlurParamsFromMap(params)
	if err != nil {
		return nil, err
	}

	return &BlurCommand{
		name:   "BlurCommand",
		params: typedParams,
	}, nil
}

// Name returns the command name
func (c *BlurCommand) Name() string {
	return c.name
}

// Execute blurs the image with a box kernel of the configured radius
func (c *BlurCommand) Execute(imageData []byte) ([]byte, error) {
	slog.Debug("BlurCommand: decoding image",
		"input_size_bytes", len(imageData))

	img, err := decodeImage(imageData)
	if err != nil {
		slog.Error("BlurCommand: failed to decode image", "error", err)
		return nil, err
	}

	if c.params.Radius == 0 {
		slog.Debug("BlurCommand: zero radius, skipping")
		return imageData, nil
	}

	rgbaImg := toRGBA(img)
	blurred := boxBlur(rgbaImg, c.params.Radius)

	out, err := encodePNG(blurred)
	if err != nil {
		slog.Error("BlurCommand: failed to encode image", "error", err)
		return nil, err
	}

	slog.Debug("BlurCommand: complete",
		"radius", c.params.Radius,
		"output_size_bytes", len(out))
	return out, nil
}

// GetParams returns the typed parameters
func (c *BlurCommand) GetParams() *BlurParams {
	return c.params
}

// boxBlur runs a horizontal then a vertical box pass. Two passes over a
// running sum keep the cost linear in the radius.
func boxBlur(src *image.RGBA, radius int) *image.RGBA {
	horizontal := blurAxis(src, radius, true)
	return blurAxis(horizontal, radius, false)
}

func blurAxis(src *image.RGBA, radius int, horizontal bool) *image.RGBA {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	dst := image.NewRGBA(bounds)

	outer, inner := h, w
	if !horizontal {
		outer, inner = w, h
	}

	at := func(line, pos int) (int, int) {
		if horizontal {
			return bounds.Min.X + pos, bounds.Min.Y + line
		}
		return bounds.Min.X + line, bounds.Min.Y + pos
	}

	for line := 0; line < outer; line++ {
		for pos := 0; pos < inner; pos++ {
			var sumR, sumG, sumB, sumA, n int
			for k := pos - radius; k <= pos+radius; k++ {
				if k < 0 || k >= inner {
					continue
				}
				x, y := at(line, k)
				i := src.PixOffset(x, y)
				sumR += int(src.Pix[i+0])
				sumG += int(src.Pix[i+1])
				sumB += int(src.Pix[i+2])
				sumA += int(src.Pix[i+3])
				n++
			}
			x, y := at(line, pos)
			i := dst.PixOffset(x, y)
			dst.Pix[i+0] = uint8(sumR / n)
			dst.Pix[i+1] = uint8(sumG / n)
			dst.Pix[i+2] = uint8(sumB / n)
			dst.Pix[i+3] = uint8(sumA / n)
		}
	}
	return dst
}

func init() {
	if err := DefaultRegistry.Register("BlurCommand", NewBlurCommand); err != nil {
		panic(fmt.Sprintf("failed to register BlurCommand: %v", err))
	}
}
