// Package manifest persists a record per generated sample so a run can be
// inspected afterwards without re-reading the output directory.
package manifest

import "database/sql"

const (
	StatusGenerated = "generated"
	StatusFailed    = "failed"
)

// Sample is one row of the run manifest.
type Sample struct {
	ID        string `db:"id"`
	Seed      int64  `db:"seed"`
	Text      string `db:"text"`
	Variant   string `db:"variant"`
	ImagePath string `db:"image_path"`
	LabelPath string `db:"label_path"`
	Status    string `db:"status"` // generated or failed
	Error     string `db:"error"`  // empty unless status is failed
	CreatedAt string `db:"created_at"`
}

type ManifestService interface {
	CreateSchema() (*sql.DB, error)
	IsReachable() bool
	Close() error

	// RecordSample inserts a manifest row and returns its generated ID.
	RecordSample(sample *Sample) (string, error)
	GetAllSamples() ([]*Sample, error)
	GetSampleByID(id string) (*Sample, error)
	DeleteSample(id string) error
}
