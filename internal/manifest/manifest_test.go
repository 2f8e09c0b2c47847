package manifest_test

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/KaramelBytes/pdclinical/internal/analysis"
	"github.com/KaramelBytes/pdclinical/internal/manifest"
)

func TestSaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	m := manifest.New("patients.xlsx", manifest.Settings{VolumeSchema: "single", JoinPolicy: "exclude", TieCorrection: true, OutputMode: "file"})
	if _, err := uuid.Parse(m.ID); err != nil {
		t.Fatalf("run id is not a uuid: %v", err)
	}
	m.Record(manifest.Outcome{
		RankSum:   analysis.RankSumResult{Statistic: 0, PValue: 1, N1: 3, N2: 3, TieCorrected: true},
		Paired:    3,
		RightOnly: []string{"7"},
	}, "wilcoxon_test_out.txt", "co_relations.png")

	path, err := m.Save(dir)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Base(path) != manifest.FileName {
		t.Fatalf("unexpected manifest path %s", path)
	}

	got, err := manifest.Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.ID != m.ID || got.Input != "patients.xlsx" {
		t.Fatalf("identity mismatch: %+v", got)
	}
	if got.Outcome == nil || got.Outcome.RankSum.PValue != 1 || got.Outcome.Paired != 3 {
		t.Fatalf("outcome not persisted: %+v", got.Outcome)
	}
	if len(got.Artifacts) != 2 || got.CompletedAt == nil {
		t.Fatalf("artifacts or completion missing: %+v", got)
	}
	if !got.Settings.TieCorrection || got.Settings.VolumeSchema != "single" {
		t.Fatalf("settings not persisted: %+v", got.Settings)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := manifest.Load(t.TempDir())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
