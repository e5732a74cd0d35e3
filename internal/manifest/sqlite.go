package manifest

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteManifest struct {
	db               *sql.DB
	connectionString string
}

func NewSQLiteManifest(connectionString string) (ManifestService, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, err
	}

	return &SQLiteManifest{
		db:               db,
		connectionString: connectionString,
	}, nil
}

func (s *SQLiteManifest) CreateSchema() (*sql.DB, error) {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS samples (
		id TEXT PRIMARY KEY,
		seed INTEGER,
		text TEXT,
		variant TEXT,
		image_path TEXT,
		label_path TEXT,
		status TEXT,
		error TEXT,
		created_at TEXT
	)`)
	if err != nil {
		return nil, err
	}

	return s.db, nil
}

func (s *SQLiteManifest) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteManifest) IsReachable() bool {
	// The SQLite file is created on connect, so a successful ping is enough.
	err := s.db.Ping()
	return err == nil
}

func (s *SQLiteManifest) RecordSample(sample *Sample) (string, error) {
	id, err := generateID()
	if err != nil {
		return "", err
	}

	createdAt := sample.CreatedAt
	if createdAt == "" {
		createdAt = time.Now().UTC().Format(time.RFC3339)
	}

	_, err = s.db.Exec(
		"INSERT INTO samples (id, seed, text, variant, image_path, label_path, status, error, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		id, sample.Seed, sample.Text, sample.Variant, sample.ImagePath, sample.LabelPath, sample.Status, sample.Error, createdAt)
	if err != nil {
		return "", err
	}

	return id, nil
}

func (s *SQLiteManifest) GetAllSamples() ([]*Sample, error) {
	rows, err := s.db.Query("SELECT id, seed, text, variant, image_path, label_path, status, error, created_at FROM samples ORDER BY created_at, id")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close() // Explicitly ignore error as we're already returning an error from the function
	}()

	var samples []*Sample
	for rows.Next() {
		var sample Sample
		if err := rows.Scan(&sample.ID, &sample.Seed, &sample.Text, &sample.Variant, &sample.ImagePath,
			&sample.LabelPath, &sample.Status, &sample.Error, &sample.CreatedAt); err != nil {
			return nil, err
		}
		samples = append(samples, &sample)
	}
	return samples, rows.Err()
}

func (s *SQLiteManifest) GetSampleByID(id string) (*Sample, error) {
	row := s.db.QueryRow("SELECT id, seed, text, variant, image_path, label_path, status, error, created_at FROM samples WHERE id = ?", id)
	var sample Sample
	if err := row.Scan(&sample.ID, &sample.Seed, &sample.Text, &sample.Variant, &sample.ImagePath,
		&sample.LabelPath, &sample.Status, &sample.Error, &sample.CreatedAt); err != nil {
		return nil, err
	}
	return &sample, nil
}

func (s *SQLiteManifest) DeleteSample(id string) error {
	_, err := s.db.Exec("DELETE FROM samples WHERE id = ?", id)
	return err
}
