package augment

import (
	"fmt"
	"log/slog"
)

// GrayscaleCommand converts the image to grayscale using Rec. 709 luma
// weights while keeping the RGBA pixel layout.
type GrayscaleCommand struct {
	name string
}

// NewGrayscaleCommand creates a new grayscale command from configuration
// parameters. The command takes no parameters.
func NewGrayscaleCommand(params map[string]any) (Command, error) {
	return &GrayscaleCommand{name: "GrayscaleCommand"}, nil
}

// Name returns the command name
func (c *GrayscaleCommand) Name() string {
	return c.name
}

// Execute converts every pixel to its luminance
func (c *GrayscaleCommand) Execute(imageData []byte) ([]byte, error) {
	slog.Debug("GrayscaleCommand: decoding image",
		"input_size_bytes", len(imageData))

	img, err := decodeImage(imageData)
	if err != nil {
		slog.Error("GrayscaleCommand: failed to decode image", "error", err)
		return nil, err
	}

	rgbaImg := toRGBA(img)
	bounds := rgbaImg.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			i := rgbaImg.PixOffset(x, y)
			r := float64(rgbaImg.Pix[i+0])
			g := float64(rgbaImg.Pix[i+1])
			b := float64(rgbaImg.Pix[i+2])
			luma := clampU8(0.2126*r + 0.7152*g + 0.0722*b)
			rgbaImg.Pix[i+0] = luma
			rgbaImg.Pix[i+1] = luma
			rgbaImg.Pix[i+2] = luma
		}
	}

	out, err := encodePNG(rgbaImg)
	if err != nil {
		slog.Error("GrayscaleCommand: failed to encode image", "error", err)
		return nil, err
	}

	slog.Debug("GrayscaleCommand: complete",
		"output_size_bytes", len(out))
	return out, nil
}

func init() {
	if err := DefaultRegistry.Register("GrayscaleCommand", NewGrayscaleCommand); err != nil {
		panic(fmt.Sprintf("failed to register GrayscaleCommand: %v", err))
	}
}
