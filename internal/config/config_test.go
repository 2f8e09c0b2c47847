package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "LSTN_activation", c.LeftSheet)
	assert.Equal(t, "dvSTN_activation", c.VolumeSheet)
	assert.Equal(t, "RSTN_activation", c.RightSheet)
	assert.Equal(t, "Voltage [V]", c.MotorColumns.Voltage)
	assert.Equal(t, "single", c.VolumeSchema)
	assert.Equal(t, JoinExclude, c.JoinPolicy)
	assert.True(t, c.TieCorrection)
	assert.True(t, c.Validate)
	assert.True(t, c.Manifest)
	assert.Equal(t, "wilcoxon_test_out.txt", c.ReportName)
	assert.Equal(t, "co_relations.png", c.PlotName)
	assert.Equal(t, "Parkinsons Patient Data", c.Plot.Title)
	assert.Equal(t, 6.4, c.Plot.WidthInches)
	assert.NoError(t, c.Check())
}

func TestLoadFromFileAndEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := "volume_schema: Summed\njoin_policy: keep\nmotor_columns:\n  voltage: Volts\nplot:\n  title: Cohort A\n"
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
	t.Setenv("PDCLINICAL_REPORT_NAME", "ranks.txt")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "summed", c.VolumeSchema)
	assert.Equal(t, JoinKeep, c.JoinPolicy)
	assert.Equal(t, "Volts", c.MotorColumns.Voltage)
	assert.Equal(t, "Patient", c.MotorColumns.Patient)
	assert.Equal(t, "Cohort A", c.Plot.Title)
	assert.Equal(t, "ranks.txt", c.ReportName)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	c, err := Load("")
	require.NoError(t, err)
	c.JoinPolicy = JoinKeep
	c.Plot.LeftColor = "#000000"
	require.NoError(t, Save(c, ""))
	assert.FileExists(t, filepath.Join(home, ".pdclinical", "config.yaml"))

	again, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, JoinKeep, again.JoinPolicy)
	assert.Equal(t, "#000000", again.Plot.LeftColor)
}

func TestCheck(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Global)
	}{
		{"schema", func(c *Global) { c.VolumeSchema = "auto" }},
		{"join", func(c *Global) { c.JoinPolicy = "pad" }},
		{"mode", func(c *Global) { c.OutputMode = "window" }},
		{"report name", func(c *Global) { c.ReportName = "" }},
		{"plot name", func(c *Global) { c.PlotName = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *base
			tt.mutate(&c)
			assert.Error(t, c.Check())
		})
	}

	interactive := *base
	interactive.OutputMode = OutputInteractive
	interactive.PlotName = ""
	assert.NoError(t, interactive.Check())
}
