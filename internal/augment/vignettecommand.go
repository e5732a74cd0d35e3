package augment

import (
	"fmt"
	"log/slog"
	"math"
)

// VignetteParams represents typed parameters for the vignette command
type VignetteParams struct {
	Strength float64
}

// NewVignetteParamsFromMap creates VignetteParams from a generic map
func NewVignetteParamsFromMap(params map[string]any) (*VignetteParams, error) {
	strength := GetFloatParam(params, "strength", 0.4)

	if strength < 0 || strength > 1 {
		return nil, fmt.Errorf("strength must be in [0, 1], got %v", strength)
	}

	return &VignetteParams{Strength: strength}, nil
}

// VignetteCommand darkens pixels towards the image corners
type VignetteCommand struct {
	name   string
	params *VignetteParams
}

// NewVignetteCommand creates a new vignette command from configuration
// parameters
func NewVignetteCommand(params map[string]any) (Command, error) {
	typedParams, err := NewVignetteParamsFromMap(params)
	if err != nil {
		return nil, err
	}

	return &VignetteCommand{
		name:   "VignetteCommand",
		params: typedParams,
	}, nil
}

// Name returns the command name
func (c *VignetteCommand) Name() string {
	return c.name
}

// Execute applies a radial falloff scaled by the configured strength
func (c *VignetteCommand) Execute(imageData []byte) ([]byte, error) {
	slog.Debug("VignetteCommand: decoding image",
		"input_size_bytes", len(imageData))

	img, err := decodeImage(imageData)
	if err != nil {
		slog.Error("VignetteCommand: failed to decode image", "error", err)
		return nil, err
	}

	if c.params.Strength == 0 {
		slog.Debug("VignetteCommand: zero strength, skipping")
		return imageData, nil
	}

	rgbaImg := toRGBA(img)
	bounds := rgbaImg.Bounds()
	cx := float64(bounds.Min.X+bounds.Max.X) / 2
	cy := float64(bounds.Min.Y+bounds.Max.Y) / 2
	maxDist := math.Hypot(float64(bounds.Dx())/2, float64(bounds.Dy())/2)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			dist := math.Hypot(float64(x)-cx, float64(y)-cy) / maxDist
			// Quadratic falloff keeps the image center untouched.
			factor := 1 - c.params.Strength*dist*dist
			i := rgbaImg.PixOffset(x, y)
			rgbaImg.Pix[i+0] = clampU8(float64(rgbaImg.Pix[i+0]) * factor)
			rgbaImg.Pix[i+1] = clampU8(float64(rgbaImg.Pix[i+1]) * factor)
			rgbaImg.Pix[i+2] = clampU8(float64(rgbaImg.Pix[i+2]) * factor)
		}
	}

	out, err := encodePNG(rgbaImg)
	if err != nil {
		slog.Error("VignetteCommand: failed to encode image", "error", err)
		return nil, err
	}

	slog.Debug("VignetteCommand: complete",
		"strength", c.params.Strength,
		"output_size_bytes", len(out))
	return out, nil
}

// GetParams returns the typed parameters
func (c *VignetteCommand) GetParams() *VignetteParams {
	return c.params
}

func init() {
	if err := DefaultRegistry.Register("VignetteCommand", NewVignetteCommand); err != nil {
		panic(fmt.Sprintf("failed to register VignetteCommand: %v", err))
	}
}
