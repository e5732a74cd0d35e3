package augment

import (
	"fmt"
	"log/slog"
)

// PngConverterCommand re-encodes the image as PNG. Useful as the first stage
// when source frames arrive in another format (JPEG, BMP, TIFF, WebP).
type PngConverterCommand struct {
	name string
}

// NewPngConverterCommand creates a new PNG converter command from
// configuration parameters. The command takes no parameters.
func NewPngConverterCommand(params map[string]any) (Command, error) {
	return &PngConverterCommand{name: "PngConverterCommand"}, nil
}

// Name returns the command name
func (c *PngConverterCommand) Name() string {
	return c.name
}

// Execute decodes the input in any registered format and encodes it as PNG
func (c *PngConverterCommand) Execute(imageData []byte) ([]byte, error) {
	slog.Debug("PngConverterCommand: decoding image",
		"input_size_bytes", len(imageData))

	img, err := decodeImage(imageData)
	if err != nil {
		slog.Error("PngConverterCommand: failed to decode image", "error", err)
		return nil, err
	}

	out, err := encodePNG(img)
	if err != nil {
		slog.Error("PngConverterCommand: failed to encode image", "error", err)
		return nil, err
	}

	slog.Debug("PngConverterCommand: complete",
		"output_size_bytes", len(out))
	return out, nil
}

func init() {
	if err := DefaultRegistry.Register("PngConverterCommand", NewPngConverterCommand); err != nil {
		panic(fmt.Sprintf("failed to register PngConverterCommand: %v", err))
	}
}
