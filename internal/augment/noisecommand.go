package augment

import (
	"fmt"
	"log/slog"
	"math/rand"
)

// NoiseParams represents typed parameters for the noise command
type NoiseParams struct {
	Amplitude float64
	Seed      int64
}

// NewNoiseParamsFromMap creates NoiseParams from a generic map
func NewNoiseParamsFromMap(params map[string]any) (*NoiseParams, error) {
	amplitude := GetFloatParam(params, "amplitude", 8.0)
	seed := int64(GetIntParam(params, "seed", 1))

	if amplitude < 0 || amplitude > 128 {
		return nil, fmt.Errorf("amplitude must be in [0, 128], got %v", amplitude)
	}

	return &NoiseParams{
		Amplitude: amplitude,
		Seed:      seed,
	}, nil
}

// NoiseCommand adds uniform per-pixel luminance noise. The noise stream is
// derived from the configured seed so repeated runs produce the same bytes.
type NoiseCommand struct {
	name   string
	params *NoiseParams
}

// NewNoiseCommand creates a new noise command from configuration parameters
func NewNoiseCommand(params map[string]any) (Command, error) {
	typedParams, err := NewNoiseParamsFromMap(params)
	if err != nil {
		return nil, err
	}

	return &NoiseCommand{
		name:   "NoiseCommand",
		params: typedParams,
	}, nil
}

// Name returns the command name
func (c *NoiseCommand) Name() string {
	return c.name
}

// Execute adds seeded noise to every pixel
func (c *NoiseCommand) Execute(imageData []byte) ([]byte, error) {
	slog.Debug("NoiseCommand: decoding image",
		"input_size_bytes", len(imageData))

	img, err := decodeImage(imageData)
	if err != nil {
		slog.Error("NoiseCommand: failed to decode image", "error", err)
		return nil, err
	}

	if c.params.Amplitude == 0 {
		slog.Debug("NoiseCommand: zero amplitude, skipping")
		return imageData, nil
	}

	rgbaImg := toRGBA(img)
	bounds := rgbaImg.Bounds()
	rnd := rand.New(rand.NewSource(c.params.Seed))
	amp := c.params.Amplitude

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			// One draw per pixel keeps the stream independent of amplitude.
			n := (rnd.Float64()*2 - 1) * amp
			i := rgbaImg.PixOffset(x, y)
			rgbaImg.Pix[i+0] = clampU8(float64(rgbaImg.Pix[i+0]) + n)
			rgbaImg.Pix[i+1] = clampU8(float64(rgbaImg.Pix[i+1]) + n)
			rgbaImg.Pix[i+2] = clampU8(float64(rgbaImg.Pix[i+2]) + n)
		}
	}

	out, err := encodePNG(rgbaImg)
	if err != nil {
		slog.Error("NoiseCommand: failed to encode image", "error", err)
		return nil, err
	}

	slog.Debug("NoiseCommand: complete",
		"output_size_bytes", len(out))
	return out, nil
}

// GetParams returns the typed parameters
func (c *NoiseCommand) GetParams() *NoiseParams {
	return c.params
}

func init() {
	if err := DefaultRegistry.Register("NoiseCommand", NewNoiseCommand); err != nil {
		panic(fmt.Sprintf("failed to register NoiseCommand: %v", err))
	}
}
