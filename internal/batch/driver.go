// Package batch runs the generation loop: pick a text, compose a scene,
// render, augment, write the image/label pair. Individual sample failures do
// not abort the batch.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tankstamp/stampgen/internal/augment"
	"github.com/tankstamp/stampgen/internal/dictionary"
	"github.com/tankstamp/stampgen/internal/manifest"
	"github.com/tankstamp/stampgen/internal/output"
	"github.com/tankstamp/stampgen/internal/render"
	"github.com/tankstamp/stampgen/internal/scene"
)

// Failure describes one sample that could not be produced.
type Failure struct {
	Text    string
	Variant string
	Err     error
}

// Result summarizes a completed batch run.
type Result struct {
	Generated int
	Failed    int
	Failures  []Failure
}

// Driver owns the per-run wiring. The manifest is optional; pass nil to skip
// run bookkeeping.
type Driver struct {
	selector   *dictionary.Selector
	randomizer *scene.Randomizer
	renderer   render.Renderer
	augment    []augment.CommandConfig
	writer     *output.Writer
	manifest   manifest.ManifestService
	opts       render.Options
	seed       int64
}

func NewDriver(
	selector *dictionary.Selector,
	randomizer *scene.Randomizer,
	renderer render.Renderer,
	augmentConfigs []augment.CommandConfig,
	writer *output.Writer,
	ms manifest.ManifestService,
	opts render.Options,
	seed int64,
) (*Driver, error) {
	if selector == nil {
		return nil, fmt.Errorf("selector must not be nil")
	}
	if randomizer == nil {
		return nil, fmt.Errorf("randomizer must not be nil")
	}
	if renderer == nil {
		return nil, fmt.Errorf("renderer must not be nil")
	}
	if writer == nil {
		return nil, fmt.Errorf("writer must not be nil")
	}

	return &Driver{
		selector:   selector,
		randomizer: randomizer,
		renderer:   renderer,
		augment:    augmentConfigs,
		writer:     writer,
		manifest:   ms,
		opts:       opts,
		seed:       seed,
	}, nil
}

// Run produces count samples. A sample that fails to render or write is
// logged, recorded and skipped; the run only aborts on context cancellation.
func (d *Driver) Run(ctx context.Context, count int) (*Result, error) {
	if count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", count)
	}

	start := time.Now()
	slog.Info("starting batch run",
		"count", count,
		"dictionary_entries", d.selector.Len(),
		"seed", d.seed,
		"width", d.opts.Width,
		"height", d.opts.Height,
		"samples", d.opts.Samples)

	result := &Result{}
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("batch cancelled after %d samples: %w", i, err)
		}

		text := d.selector.Next()
		variant := fmt.Sprintf("%03d", i+1)

		if err := d.produceSample(ctx, text, variant); err != nil {
			result.Failed++
			result.Failures = append(result.Failures, Failure{Text: text, Variant: variant, Err: err})
			slog.Error("sample failed, continuing batch",
				"text", text,
				"variant", variant,
				"error", err)
			d.recordSample(text, variant, output.Pair{}, err)
			continue
		}
		result.Generated++

		if (i+1)%10 == 0 || i+1 == count {
			slog.Info("batch progress",
				"done", i+1,
				"total", count,
				"failed", result.Failed)
		}
	}

	slog.Info("batch run complete",
		"generated", result.Generated,
		"failed", result.Failed,
		"duration", time.Since(start))
	return result, nil
}

func (d *Driver) produceSample(ctx context.Context, text, variant string) error {
	sc := d.randomizer.Compose(text, variant)

	imageData, err := d.renderer.Render(ctx, sc, d.opts)
	if err != nil {
		return err
	}

	imageData, err = augment.ExecuteCommands(imageData, d.augment)
	if err != nil {
		return fmt.Errorf("augmentation failed: %w", err)
	}

	pair, err := d.writer.WritePair(text, variant, imageData)
	if err != nil {
		return err
	}

	d.recordSample(text, variant, pair, nil)
	return nil
}

// recordSample writes the manifest row. Manifest errors are logged and
// swallowed so bookkeeping never sinks a sample that was already written.
func (d *Driver) recordSample(text, variant string, pair output.Pair, sampleErr error) {
	if d.manifest == nil {
		return
	}

	sample := &manifest.Sample{
		Seed:      d.seed,
		Text:      text,
		Variant:   variant,
		ImagePath: pair.ImagePath,
		LabelPath: pair.LabelPath,
		Status:    manifest.StatusGenerated,
	}
	if sampleErr != nil {
		sample.Status = manifest.StatusFailed
		sample.Error = sampleErr.Error()
		sample.ImagePath = ""
		sample.LabelPath = ""
	}

	if _, err := d.manifest.RecordSample(sample); err != nil {
		slog.Warn("failed to record sample in manifest",
			"text", text,
			"variant", variant,
			"error", err)
	}
}
