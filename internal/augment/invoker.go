package augment

import (
	"fmt"
	"log/slog"
	"time"
)

// ExecuteCommands applies a sequence of augmentation commands to an image in
// order. An empty command list returns the input unchanged.
func ExecuteCommands(imageData []byte, configs []CommandConfig) ([]byte, error) {
	start := time.Now()

	if len(configs) == 0 {
		slog.Debug("no augmentation commands configured, returning original image")
		return imageData, nil
	}

	slog.Debug("starting augmentation pipeline",
		"command_count", len(configs),
		"input_size_bytes", len(imageData))

	currentData := imageData
	for i, config := range configs {
		commandStart := time.Now()

		command, err := DefaultRegistry.Create(config.Name, config.Params)
		if err != nil {
			slog.Error("failed to create augmentation command",
				"index", i,
				"command_name", config.Name,
				"error", err)
			return nil, fmt.Errorf("failed to create command at index %d (%s): %w", i, config.Name, err)
		}

		currentData, err = command.Execute(currentData)
		if err != nil {
			slog.Error("augmentation command failed",
				"index", i,
				"command_name", config.Name,
				"error", err)
			return nil, fmt.Errorf("command %s at index %d failed: %w", config.Name, i, err)
		}

		slog.Debug("augmentation command complete",
			"index", i,
			"command_name", config.Name,
			"duration", time.Since(commandStart),
			"output_size_bytes", len(currentData))
	}

	slog.Debug("augmentation pipeline complete",
		"duration", time.Since(start),
		"output_size_bytes", len(currentData))
	return currentData, nil
}
