package core

import (
	"fmt"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"
)

// Range is a closed numeric interval a randomized parameter is drawn from.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Pick draws a uniformly distributed value from the range.
func (r Range) Pick(rnd *rand.Rand) float64 {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rnd.Float64()*(r.Max-r.Min)
}

func (r Range) validate(name string) error {
	if r.Max < r.Min {
		return fmt.Errorf("range %s: max (%v) is below min (%v)", name, r.Max, r.Min)
	}
	return nil
}

// SizeClass describes one cylinder size preset (proportions in scene units).
type SizeClass struct {
	Name   string  `yaml:"name"`
	Height float64 `yaml:"height"`
	Radius float64 `yaml:"radius"`
}

// PaintColor is an RGB triple in [0,1] from the industrial palette.
type PaintColor struct {
	R float64 `yaml:"r"`
	G float64 `yaml:"g"`
	B float64 `yaml:"b"`
}

// CylinderConfig holds the cylinder geometry and material randomization space.
type CylinderConfig struct {
	Sizes     []SizeClass  `yaml:"sizes"`
	Colors    []PaintColor `yaml:"colors"`
	Roughness Range        `yaml:"roughness"`
	Metallic  Range        `yaml:"metallic"`
}

// TextConfig holds stamping parameters. Size is relative to cylinder height,
// depth is the deboss depth in scene units.
type TextConfig struct {
	Size  Range `yaml:"size"`
	Depth Range `yaml:"depth"`
}

// CameraConfig holds the camera randomization ranges. Angles are in degrees.
type CameraConfig struct {
	Distance    Range `yaml:"distance"`
	Elevation   Range `yaml:"elevation"`
	Azimuth     Range `yaml:"azimuth"`
	FocalLength Range `yaml:"focalLength"`
}

// LightingConfig holds three-point light intensity ranges (arbitrary units,
// normalized by the renderer).
type LightingConfig struct {
	Key  Range `yaml:"key"`
	Fill Range `yaml:"fill"`
	Rim  Range `yaml:"rim"`
}

// DecalConfig controls optional SVG decal overlays (hazard labels etc.).
type DecalConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Probability float64 `yaml:"probability"`
	Dir         string  `yaml:"dir"`
}

// CommandConfig represents a generic augmentation command configuration.
type CommandConfig struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:",inline"`
}

// Database holds the manifest database settings.
type Database struct {
	Type             string `yaml:"type"`
	ConnectionString string `yaml:"connectionString"`
}

// GalleryConfig holds the inspection server settings.
type GalleryConfig struct {
	Port int `yaml:"port"`
}

// Resolution is the output image size in pixels.
type Resolution struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// ServiceConfig is the full stampgen configuration. Every numeric
// randomization range lives here rather than in code; the defaults mirror the
// values the generator has historically used.
type ServiceConfig struct {
	Count      int        `yaml:"count"`
	Dictionary string     `yaml:"dictionary"`
	Output     string     `yaml:"output"`
	Resolution Resolution `yaml:"resolution"`
	Samples    int        `yaml:"samples"`
	FontDir    string     `yaml:"fontDir"`
	FontStyle  string     `yaml:"fontStyle"`
	Pick       string     `yaml:"pick"`

	Cylinder CylinderConfig  `yaml:"cylinder"`
	Text     TextConfig      `yaml:"text"`
	Camera   CameraConfig    `yaml:"camera"`
	Lighting LightingConfig  `yaml:"lighting"`
	Decals   DecalConfig     `yaml:"decals"`
	Augment  []CommandConfig `yaml:"augment"`

	Database Database      `yaml:"database"`
	Gallery  GalleryConfig `yaml:"gallery"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *ServiceConfig {
	return &ServiceConfig{
		Count:      100,
		Dictionary: "data/dict.txt",
		Output:     "output/",
		Resolution: Resolution{Width: 512, Height: 256},
		Samples:    64,
		FontDir:    "fonts/",
		FontStyle:  "industrial",
		Pick:       "random",
		Cylinder: CylinderConfig{
			Sizes: []SizeClass{
				{Name: "small", Height: 2.0, Radius: 0.4},
				{Name: "medium", Height: 3.0, Radius: 0.5},
				{Name: "large", Height: 4.0, Radius: 0.6},
				{Name: "industrial", Height: 5.0, Radius: 0.7},
			},
			Colors: []PaintColor{
				{R: 0.2, G: 0.4, B: 0.8},
				{R: 0.3, G: 0.5, B: 0.3},
				{R: 0.6, G: 0.6, B: 0.6},
				{R: 0.7, G: 0.2, B: 0.2},
				{R: 0.8, G: 0.8, B: 0.2},
				{R: 0.4, G: 0.4, B: 0.4},
				{R: 0.8, G: 0.4, B: 0.0},
			},
			Roughness: Range{Min: 0.2, Max: 0.8},
			Metallic:  Range{Min: 0.7, Max: 1.0},
		},
		Text: TextConfig{
			Size:  Range{Min: 0.15, Max: 0.25},
			Depth: Range{Min: 0.001, Max: 0.005},
		},
		Camera: CameraConfig{
			Distance:    Range{Min: 3.0, Max: 6.0},
			Elevation:   Range{Min: -30, Max: 30},
			Azimuth:     Range{Min: 0, Max: 360},
			FocalLength: Range{Min: 35, Max: 85},
		},
		Lighting: LightingConfig{
			Key:  Range{Min: 300, Max: 800},
			Fill: Range{Min: 150, Max: 400},
			Rim:  Range{Min: 200, Max: 600},
		},
		Decals: DecalConfig{
			Enabled:     true,
			Probability: 0.3,
		},
		Database: Database{
			Type:             "sqlite",
			ConnectionString: "stampgen.db",
		},
		Gallery: GalleryConfig{Port: 8080},
	}
}

// LoadConfig loads configuration from the specified YAML file, overlaying it
// onto the defaults.
func LoadConfig(configPath string) (*ServiceConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", configPath, err)
	}

	return config, nil
}

// Validate checks the configuration for internal consistency.
func (c *ServiceConfig) Validate() error {
	if c.Count < 0 {
		return fmt.Errorf("count must not be negative, got %d", c.Count)
	}
	if c.Resolution.Width <= 0 || c.Resolution.Height <= 0 {
		return fmt.Errorf("resolution must be positive, got %dx%d", c.Resolution.Width, c.Resolution.Height)
	}
	if c.Samples <= 0 {
		return fmt.Errorf("samples must be positive, got %d", c.Samples)
	}
	if len(c.Cylinder.Sizes) == 0 {
		return fmt.Errorf("at least one cylinder size class is required")
	}
	for i, size := range c.Cylinder.Sizes {
		if size.Height <= 0 || size.Radius <= 0 {
			return fmt.Errorf("cylinder size %d (%s) has non-positive dimensions", i, size.Name)
		}
	}
	if len(c.Cylinder.Colors) == 0 {
		return fmt.Errorf("at least one paint color is required")
	}
	if c.Decals.Probability < 0 || c.Decals.Probability > 1 {
		return fmt.Errorf("decal probability must be within [0,1], got %v", c.Decals.Probability)
	}

	ranges := map[string]Range{
		"cylinder.roughness": c.Cylinder.Roughness,
		"cylinder.metallic":  c.Cylinder.Metallic,
		"text.size":          c.Text.Size,
		"text.depth":         c.Text.Depth,
		"camera.distance":    c.Camera.Distance,
		"camera.elevation":   c.Camera.Elevation,
		"camera.azimuth":     c.Camera.Azimuth,
		"camera.focalLength": c.Camera.FocalLength,
		"lighting.key":       c.Lighting.Key,
		"lighting.fill":      c.Lighting.Fill,
		"lighting.rim":       c.Lighting.Rim,
	}
	for name, r := range ranges {
		if err := r.validate(name); err != nil {
			return err
		}
	}

	return validateCommands(c.Augment)
}

// validateCommands ensures all command configurations have required fields.
func validateCommands(commands []CommandConfig) error {
	seenNames := make(map[string]bool)

	for i, cmd := range commands {
		if cmd.Name == "" {
			return fmt.Errorf("augment command at index %d has empty name", i)
		}
		if seenNames[cmd.Name] {
			return fmt.Errorf("duplicate augment command name: %s", cmd.Name)
		}
		seenNames[cmd.Name] = true
	}

	return nil
}
