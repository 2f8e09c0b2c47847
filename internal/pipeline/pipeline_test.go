package pipeline_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/pdclinical/internal/analysis"
	"github.com/KaramelBytes/pdclinical/internal/config"
	"github.com/KaramelBytes/pdclinical/internal/manifest"
	"github.com/KaramelBytes/pdclinical/internal/metrics"
	"github.com/KaramelBytes/pdclinical/internal/pipeline"
	"github.com/KaramelBytes/pdclinical/internal/report"
	"github.com/KaramelBytes/pdclinical/internal/testkit"
	"github.com/KaramelBytes/pdclinical/internal/workbook"
)

func scenarioOptions(t *testing.T, sheets ...testkit.Sheet) pipeline.Options {
	t.Helper()
	if len(sheets) == 0 {
		sheets = testkit.ScenarioSheets()
	}
	opts := pipeline.DefaultOptions(testkit.WriteWorkbook(t, "patients.xlsx", sheets...))
	opts.OutDir = t.TempDir()
	return opts
}

func TestRunScenario(t *testing.T) {
	opts := scenarioOptions(t)
	opts.SummaryName = "summary.md"

	res, err := pipeline.Run(opts)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{1.0, 3.0, 0.25}, metrics.Values(res.LeftImprovement), 1e-12)
	assert.InDeltaSlice(t, []float64{1.0, 3.0, 0.25}, metrics.Values(res.RightImprovement), 1e-12)
	assert.InDeltaSlice(t, []float64{40, 50, 10}, metrics.Values(res.LeftActivation), 1e-9)
	assert.InDeltaSlice(t, []float64{25, 75, 25}, metrics.Values(res.RightActivation), 1e-9)
	assert.Equal(t, 0.0, res.RankSum.Statistic)
	assert.Equal(t, 1.0, res.RankSum.PValue)
	assert.Len(t, res.LeftPoints, 3)
	assert.Len(t, res.RightPoints, 3)

	b, err := os.ReadFile(filepath.Join(opts.OutDir, "wilcoxon_test_out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Wilcoxon_p-values:\nRanksumsResult(statistic=0.0, pvalue=1.0)", string(b))
	assert.FileExists(t, filepath.Join(opts.OutDir, "co_relations.png"))

	summary, err := os.ReadFile(res.SummaryPath)
	require.NoError(t, err)
	assert.Contains(t, string(summary), "[RANK-SUM TEST]")

	m, err := manifest.Load(opts.OutDir)
	require.NoError(t, err)
	assert.Equal(t, res.RunID, m.ID)
	assert.Equal(t, []string{"wilcoxon_test_out.txt", "co_relations.png", "summary.md"}, m.Artifacts)
	assert.Equal(t, 3, m.Outcome.Paired)
}

func TestRunJoinPolicies(t *testing.T) {
	sheets := testkit.ScenarioSheets()
	sheets[2] = testkit.MotorSheet("RSTN_activation", "R",
		[4]float64{1, 10, 20, 2},
		[4]float64{2, 5, 15, 1},
		[4]float64{4, 2, 8, 1},
	)

	exclude := scenarioOptions(t, sheets...)
	exclude.Manifest = false
	res, err := pipeline.Run(exclude)
	require.NoError(t, err)
	assert.Equal(t, 2, res.RankSum.N1)
	assert.Equal(t, 2, res.RankSum.N2)
	assert.Equal(t, []string{"3"}, res.Sides.OnlyA)
	assert.Equal(t, []string{"4"}, res.Sides.OnlyB)
	assert.Empty(t, res.RunID)
	assert.NoFileExists(t, filepath.Join(exclude.OutDir, manifest.FileName))

	keep := scenarioOptions(t, sheets...)
	keep.JoinPolicy = config.JoinKeep
	res, err = pipeline.Run(keep)
	require.NoError(t, err)
	assert.Equal(t, 3, res.RankSum.N1)
	assert.Equal(t, 3, res.RankSum.N2)
	// patient 4 has no volume row and is left off the plot
	assert.Len(t, res.RightPoints, 2)
}

func TestRunSummedSchema(t *testing.T) {
	sheets := testkit.ScenarioSheets()
	sheets[1] = testkit.Sheet{Name: "dvSTN_activation", Rows: [][]any{
		testkit.SummedVolumeHeader,
		{1, 60, 40, 20, 10, 50, 50, 5, 5},
		{2, 50, 50, 25, 25, 40, 40, 20, 20},
		{3, 70, 30, 10, 0, 60, 40, 10, 15},
	}}

	opts := scenarioOptions(t, sheets...)
	_, err := pipeline.Run(opts)
	require.ErrorIs(t, err, metrics.ErrMalformedRecord)

	opts.Schema = metrics.SummedSchema
	res, err := pipeline.Run(opts)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{30, 50, 10}, metrics.Values(res.LeftActivation), 1e-9)
	assert.InDeltaSlice(t, []float64{10, 50, 25}, metrics.Values(res.RightActivation), 1e-9)
}

func TestRunErrors(t *testing.T) {
	all := testkit.ScenarioSheets()

	t.Run("missing sheet", func(t *testing.T) {
		opts := scenarioOptions(t, all[0], all[1])
		_, err := pipeline.Run(opts)
		assert.ErrorIs(t, err, workbook.ErrMissingSheet)
		assert.NoFileExists(t, filepath.Join(opts.OutDir, "wilcoxon_test_out.txt"))
	})
	t.Run("missing sheet without validation", func(t *testing.T) {
		opts := scenarioOptions(t, all[0], all[1])
		opts.Validate = false
		_, err := pipeline.Run(opts)
		require.ErrorIs(t, err, workbook.ErrMissingSheet)
		var ms *workbook.MissingSheetError
		require.ErrorAs(t, err, &ms)
		assert.Equal(t, []string{"RSTN_activation"}, ms.Missing)
		assert.Equal(t, []string{"LSTN_activation", "dvSTN_activation", "RSTN_activation"}, ms.Required)
	})
	t.Run("input not found", func(t *testing.T) {
		opts := pipeline.DefaultOptions(filepath.Join(t.TempDir(), "absent.xlsx"))
		_, err := pipeline.Run(opts)
		assert.ErrorIs(t, err, workbook.ErrInputNotFound)
	})
	t.Run("malformed motor row", func(t *testing.T) {
		sheets := testkit.ScenarioSheets()
		sheets[0] = testkit.MotorSheet("LSTN_activation", "L", [4]float64{1, 0, 20, 2})
		_, err := pipeline.Run(scenarioOptions(t, sheets...))
		assert.ErrorIs(t, err, metrics.ErrMalformedRecord)
	})
	t.Run("no shared patients", func(t *testing.T) {
		sheets := testkit.ScenarioSheets()
		sheets[2] = testkit.MotorSheet("RSTN_activation", "R", [4]float64{9, 10, 20, 2})
		_, err := pipeline.Run(scenarioOptions(t, sheets...))
		assert.ErrorIs(t, err, analysis.ErrInsufficientData)
	})
	t.Run("unwritable output", func(t *testing.T) {
		opts := scenarioOptions(t)
		blocker := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
		opts.OutDir = blocker
		_, err := pipeline.Run(opts)
		assert.True(t, errors.Is(err, report.ErrIOFailure), "got %v", err)
	})
	t.Run("bad join policy", func(t *testing.T) {
		opts := scenarioOptions(t)
		opts.JoinPolicy = "pad"
		_, err := pipeline.Run(opts)
		assert.ErrorIs(t, err, pipeline.ErrUsage)
	})
}

func TestRunInteractive(t *testing.T) {
	var shown string
	orig := report.Display
	report.Display = func(path string) error {
		shown = path
		return nil
	}
	t.Cleanup(func() { report.Display = orig })

	opts := scenarioOptions(t)
	opts.OutputMode = config.OutputInteractive
	res, err := pipeline.Run(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Remove(shown) })

	assert.NotEmpty(t, shown)
	assert.Empty(t, res.PlotPath)
	assert.NoFileExists(t, filepath.Join(opts.OutDir, "co_relations.png"))
	assert.FileExists(t, res.ReportPath)
}

func TestFromConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := config.Load("")
	require.NoError(t, err)
	c.VolumeSchema = "summed"
	c.TieCorrection = false

	opts, err := pipeline.FromConfig(c, "in.xlsx")
	require.NoError(t, err)
	assert.Equal(t, metrics.SummedSchema, opts.Schema)
	assert.False(t, opts.RankSum.TieCorrection)
	assert.Equal(t, "in.xlsx", opts.Input)

	c.JoinPolicy = "nope"
	_, err = pipeline.FromConfig(c, "in.xlsx")
	assert.Error(t, err)
}
