package scene

import (
	"io/fs"
	"log/slog"
	"math/rand"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tankstamp/stampgen/internal/core"
	"github.com/tankstamp/stampgen/internal/fonts"
)

// Randomizer composes scenes from the configured parameter ranges. All draws
// come from a single rand.Rand in a fixed order, so a fixed seed reproduces
// the exact parameter stream across runs. Changing the draw order is a
// breaking change for reproducibility.
type Randomizer struct {
	cfg    *core.ServiceConfig
	fonts  *fonts.Catalog
	rnd    *rand.Rand
	decals []string
}

// NewRandomizer creates a randomizer over the given configuration, font
// catalog, and rand source. Decal files are listed once at construction.
func NewRandomizer(cfg *core.ServiceConfig, catalog *fonts.Catalog, rnd *rand.Rand) *Randomizer {
	r := &Randomizer{
		cfg:   cfg,
		fonts: catalog,
		rnd:   rnd,
	}
	if cfg.Decals.Enabled && cfg.Decals.Dir != "" {
		r.decals = listDecals(cfg.Decals.Dir)
		slog.Debug("decal files discovered", "dir", cfg.Decals.Dir, "count", len(r.decals))
	}
	return r
}

// Compose builds a fully resolved scene for one sample. Draw order is fixed:
// size class, paint color, roughness, metallic, font, text size, vertical
// placement, deboss depth, decal, camera (distance, elevation, azimuth,
// focal length), lights (key, fill, rim), background tone.
func (r *Randomizer) Compose(text, variant string) *Scene {
	size := r.cfg.Cylinder.Sizes[r.rnd.Intn(len(r.cfg.Cylinder.Sizes))]
	paint := r.cfg.Cylinder.Colors[r.rnd.Intn(len(r.cfg.Cylinder.Colors))]

	sc := &Scene{
		Text:    text,
		Variant: variant,
		Cylinder: Cylinder{
			SizeName:  size.Name,
			Height:    size.Height,
			Radius:    size.Radius,
			PaintR:    paint.R,
			PaintG:    paint.G,
			PaintB:    paint.B,
			Roughness: r.cfg.Cylinder.Roughness.Pick(r.rnd),
			Metallic:  r.cfg.Cylinder.Metallic.Pick(r.rnd),
		},
	}

	sc.FontPath = r.fonts.Pick(r.rnd)
	sc.TextSize = r.cfg.Text.Size.Pick(r.rnd)
	// Middle 60% of the cylinder height, matching the historical placement
	// band.
	sc.TextHeightFrac = 0.2 + r.rnd.Float64()*0.6
	sc.DebossDepth = r.cfg.Text.Depth.Pick(r.rnd)

	sc.DecalPath = r.pickDecal()

	sc.Camera = Camera{
		Distance:    r.cfg.Camera.Distance.Pick(r.rnd),
		Elevation:   r.cfg.Camera.Elevation.Pick(r.rnd),
		Azimuth:     r.cfg.Camera.Azimuth.Pick(r.rnd),
		FocalLength: r.cfg.Camera.FocalLength.Pick(r.rnd),
	}
	sc.Lights = Lights{
		Key:  r.cfg.Lighting.Key.Pick(r.rnd),
		Fill: r.cfg.Lighting.Fill.Pick(r.rnd),
		Rim:  r.cfg.Lighting.Rim.Pick(r.rnd),
	}
	sc.BackgroundTone = 0.15 + r.rnd.Float64()*0.55

	slog.Debug("scene composed",
		"text", text,
		"variant", variant,
		"size", sc.Cylinder.SizeName,
		"font", filepath.Base(sc.FontPath),
		"camera_azimuth", sc.Camera.Azimuth,
		"camera_elevation", sc.Camera.Elevation)

	return sc
}

// pickDecal consumes exactly one draw when decals are enabled so the stream
// stays aligned whether or not a decal lands.
func (r *Randomizer) pickDecal() string {
	if !r.cfg.Decals.Enabled {
		return ""
	}
	roll := r.rnd.Float64()
	if roll >= r.cfg.Decals.Probability {
		return ""
	}
	if len(r.decals) == 0 {
		// Built-in decal; signaled by the reserved name.
		return BuiltinDecal
	}
	return r.decals[r.rnd.Intn(len(r.decals))]
}

// BuiltinDecal selects the embedded hazard decal instead of a file.
const BuiltinDecal = "builtin:hazard"

func listDecals(dir string) []string {
	var found []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".svg") {
			found = append(found, path)
		}
		return nil
	})
	sort.Strings(found)
	return found
}
