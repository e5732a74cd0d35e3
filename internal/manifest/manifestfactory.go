package manifest

import (
	"fmt"
	"log/slog"
)

func NewManifest(manifestType, connectionString string) (manifest ManifestService, err error) {
	switch manifestType {
	case "sqlite":
		manifest, err = NewSQLiteManifest(connectionString)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported manifest driver: %s", manifestType)
	}

	// Schema creation is idempotent, important for in-memory SQLite
	slog.Info("initializing manifest schema", "type", manifestType)
	if _, err = manifest.CreateSchema(); err != nil {
		return nil, fmt.Errorf("failed to create manifest schema: %w", err)
	}

	return manifest, nil
}
