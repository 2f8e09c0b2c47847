// Package manifest persists a JSON record of one analysis run next to its artifacts.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/pdclinical/internal/analysis"
	"github.com/KaramelBytes/pdclinical/internal/utils"
)

// FileName is the manifest written into the output directory.
const FileName = "run_manifest.json"

// Manifest describes one run: its input, settings, outcome and artifacts.
type Manifest struct {
	ID          string     `json:"id"`
	Input       string     `json:"input"`
	Settings    Settings   `json:"settings"`
	Outcome     *Outcome   `json:"outcome,omitempty"`
	Artifacts   []string   `json:"artifacts"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Settings are the options the run was made with.
type Settings struct {
	VolumeSchema  string `json:"volume_schema"`
	JoinPolicy    string `json:"join_policy"`
	TieCorrection bool   `json:"tie_correction"`
	OutputMode    string `json:"output_mode"`
}

// Outcome is the statistical result of a run.
type Outcome struct {
	RankSum     analysis.RankSumResult      `json:"rank_sum"`
	MannWhitney *analysis.MannWhitneyResult `json:"mann_whitney,omitempty"`
	Paired      int                         `json:"paired"`
	LeftOnly    []string                    `json:"left_only,omitempty"`
	RightOnly   []string                    `json:"right_only,omitempty"`
	LeftPoints  int                         `json:"left_points"`
	RightPoints int                         `json:"right_points"`
}

// New starts a manifest for the given input workbook. Call Save() to persist.
func New(input string, settings Settings) *Manifest {
	return &Manifest{
		ID:        uuid.NewString(),
		Input:     input,
		Settings:  settings,
		Artifacts: []string{},
		StartedAt: time.Now().UTC(),
	}
}

// Record stores the outcome and the artifacts written, and marks the run complete.
func (m *Manifest) Record(o Outcome, artifacts ...string) {
	m.Outcome = &o
	m.Artifacts = append(m.Artifacts, artifacts...)
	now := time.Now().UTC()
	m.CompletedAt = &now
}

// Save writes run_manifest.json into dir using atomic write and returns its path.
func (m *Manifest) Save(dir string) (string, error) {
	if m == nil {
		return "", errors.New("manifest is nil")
	}
	if err := utils.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("ensure dir: %w", err)
	}
	data, err := utils.PrettyJSON(m)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName)
	if err := utils.SafeWriteFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// Load reads run_manifest.json from dir.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("manifest not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}
