package augment

import (
	"fmt"
	"image"
	"log/slog"

	"golang.org/x/image/draw"
)

// ScaleParams represents typed parameters for the scale command
type ScaleParams struct {
	Height int
	Width  int
}

// NewScaleParamsFromMap creates ScaleParams from a generic map
func NewScaleParamsFromMap(params map[string]any) (*ScaleParams, error) {
	if err := ValidateRequiredParams(params, []string{"height", "width"}); err != nil {
		return nil, err
	}

	height := GetIntParam(params, "height", 0)
	width := GetIntParam(params, "width", 0)

	if height <= 0 {
		return nil, fmt.Errorf("height must be positive, got %d", height)
	}
	if width <= 0 {
		return nil, fmt.Errorf("width must be positive, got %d", width)
	}

	return &ScaleParams{
		Height: height,
		Width:  width,
	}, nil
}

// ScaleCommand resamples the image to exact target dimensions
type ScaleCommand struct {
	name   string
	params *ScaleParams
}

// NewScaleCommand creates a new scale command from configuration parameters
func NewScaleCommand(params map[string]any) (Command, error) {
	typedParams, err := NewScaleParamsFromMap(params)
	if err != nil {
		return nil, err
	}

	return &ScaleCommand{
		name:   "ScaleCommand",
		params: typedParams,
	}, nil
}

// Name returns the command name
func (c *ScaleCommand) Name() string {
	return c.name
}

// Execute scales the image to the configured width and height. The target
// dimensions are exact; the label text is position-independent so the aspect
// ratio does not need preserving here.
func (c *ScaleCommand) Execute(imageData []byte) ([]byte, error) {
	slog.Debug("ScaleCommand: decoding image",
		"input_size_bytes", len(imageData))

	img, err := decodeImage(imageData)
	if err != nil {
		slog.Error("ScaleCommand: failed to decode image", "error", err)
		return nil, err
	}

	bounds := img.Bounds()
	if bounds.Dx() == c.params.Width && bounds.Dy() == c.params.Height {
		slog.Debug("ScaleCommand: target dimensions equal original, skipping")
		return imageData, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, c.params.Width, c.params.Height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)

	out, err := encodePNG(dst)
	if err != nil {
		slog.Error("ScaleCommand: failed to encode image", "error", err)
		return nil, err
	}

	slog.Debug("ScaleCommand: complete",
		"target_width", c.params.Width,
		"target_height", c.params.Height,
		"output_size_bytes", len(out))
	return out, nil
}

// GetParams returns the typed parameters
func (c *ScaleCommand) GetParams() *ScaleParams {
	return c.params
}

func init() {
	if err := DefaultRegistry.Register("ScaleCommand", NewScaleCommand); err != nil {
		panic(fmt.Sprintf("failed to register ScaleCommand: %v", err))
	}
}
