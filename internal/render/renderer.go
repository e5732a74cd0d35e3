// Package render turns composed scenes into PNG frames. The Renderer
// interface isolates the drawing backend; Software is the pure-Go
// implementation.
package render

import (
	"context"
	"fmt"

	"github.com/tankstamp/stampgen/internal/scene"
)

// Options carries the per-run render settings.
type Options struct {
	Width  int
	Height int
	// Samples is the render quality knob. The software backend maps it to
	// surface grain: more samples, less noise.
	Samples int
}

// Renderer renders one scene to PNG bytes. Implementations must not retain
// state between calls; everything a frame needs is in the Scene.
type Renderer interface {
	Render(ctx context.Context, sc *scene.Scene, opts Options) ([]byte, error)
}

// Error wraps a failure inside the rendering backend. The batch driver treats
// it as skippable: the sample is reported and the batch continues.
type Error struct {
	Text    string
	Variant string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("render failed for %q (variant %s): %v", e.Text, e.Variant, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
