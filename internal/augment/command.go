// Package augment post-processes rendered frames through a configurable
// command pipeline (noise, blur, grayscale, vignette, scale, PNG
// conversion). Commands are
// registered by name and instantiated from configuration parameters.
package augment

// Command defines the interface for all augmentation commands.
type Command interface {
	Name() string
	Execute(imageData []byte) ([]byte, error)
}

// CommandFactory is a function type that creates a command from configuration
// parameters.
type CommandFactory func(params map[string]any) (Command, error)

// CommandConfig represents a command configuration with name and parameters.
type CommandConfig struct {
	Name   string
	Params map[string]any
}
