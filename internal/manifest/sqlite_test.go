package manifest

import (
	"database/sql"
	"errors"
	"testing"
)

func newTestManifest(t *testing.T) ManifestService {
	t.Helper()

	ms, err := NewSQLiteManifest(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteManifest error: %v", err)
	}
	_, err = ms.CreateSchema()
	if err != nil {
		t.Fatalf("CreateSchema error: %v", err)
	}
	t.Cleanup(func() { _ = ms.Close() })
	return ms
}

func TestSQLite_IsReachable(t *testing.T) {
	ms := newTestManifest(t)
	if !ms.IsReachable() {
		t.Fatalf("expected IsReachable to return true")
	}
}

func TestSQLite_RecordAndGetSample(t *testing.T) {
	ms := newTestManifest(t)

	id, err := ms.RecordSample(&Sample{
		Seed:      1234,
		Text:      "PROPANE-13KG",
		Variant:   "001",
		ImagePath: "out/images/PROPANE-13KG_001.png",
		LabelPath: "out/labels/PROPANE-13KG_001.txt",
		Status:    StatusGenerated,
	})
	if err != nil {
		t.Fatalf("RecordSample error: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty sample ID")
	}

	got, err := ms.GetSampleByID(id)
	if err != nil {
		t.Fatalf("GetSampleByID error: %v", err)
	}
	if got.Text != "PROPANE-13KG" || got.Variant != "001" {
		t.Errorf("unexpected sample %+v", got)
	}
	if got.Seed != 1234 {
		t.Errorf("expected seed 1234, got %d", got.Seed)
	}
	if got.Status != StatusGenerated {
		t.Errorf("expected status %q, got %q", StatusGenerated, got.Status)
	}
	if got.CreatedAt == "" {
		t.Error("expected CreatedAt to be filled in")
	}
}

func TestSQLite_RecordFailedSampleKeepsError(t *testing.T) {
	ms := newTestManifest(t)

	id, err := ms.RecordSample(&Sample{
		Seed:    7,
		Text:    "BUTANE 5KG",
		Variant: "003",
		Status:  StatusFailed,
		Error:   "render failed: font not found",
	})
	if err != nil {
		t.Fatalf("RecordSample error: %v", err)
	}

	got, err := ms.GetSampleByID(id)
	if err != nil {
		t.Fatalf("GetSampleByID error: %v", err)
	}
	if got.Status != StatusFailed {
		t.Errorf("expected status %q, got %q", StatusFailed, got.Status)
	}
	if got.Error == "" {
		t.Error("expected error message to be stored")
	}
}

func TestSQLite_GetAllSamples(t *testing.T) {
	ms := newTestManifest(t)

	for i := 0; i < 3; i++ {
		_, err := ms.RecordSample(&Sample{
			Seed:    int64(i),
			Text:    "OXYGEN 10L",
			Variant: "00" + string(rune('1'+i)),
			Status:  StatusGenerated,
		})
		if err != nil {
			t.Fatalf("RecordSample #%d error: %v", i, err)
		}
	}

	samples, err := ms.GetAllSamples()
	if err != nil {
		t.Fatalf("GetAllSamples error: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}
}

func TestSQLite_DeleteSample(t *testing.T) {
	ms := newTestManifest(t)

	id, err := ms.RecordSample(&Sample{Text: "ACETYLENE", Variant: "001", Status: StatusGenerated})
	if err != nil {
		t.Fatalf("RecordSample error: %v", err)
	}

	if err := ms.DeleteSample(id); err != nil {
		t.Fatalf("DeleteSample error: %v", err)
	}

	_, err = ms.GetSampleByID(id)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows after delete, got %v", err)
	}
}

func TestNewManifest_UnsupportedDriver(t *testing.T) {
	if _, err := NewManifest("postgres", ""); err == nil {
		t.Fatal("expected error for unsupported manifest driver")
	}
}

func TestNewManifest_SQLiteInMemory(t *testing.T) {
	ms, err := NewManifest("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("NewManifest error: %v", err)
	}
	t.Cleanup(func() { _ = ms.Close() })

	if !ms.IsReachable() {
		t.Fatal("expected manifest to be reachable")
	}
}
