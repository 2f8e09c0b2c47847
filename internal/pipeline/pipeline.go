// Package pipeline runs the clinical outcome analysis end to end: load the
// workbook, derive per-patient metrics, compare sides, write the artifacts.
package pipeline

import (
	"errors"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/KaramelBytes/pdclinical/internal/analysis"
	"github.com/KaramelBytes/pdclinical/internal/config"
	"github.com/KaramelBytes/pdclinical/internal/logging"
	"github.com/KaramelBytes/pdclinical/internal/manifest"
	"github.com/KaramelBytes/pdclinical/internal/metrics"
	"github.com/KaramelBytes/pdclinical/internal/report"
	"github.com/KaramelBytes/pdclinical/internal/workbook"
)

// ErrUsage indicates the run was configured inconsistently.
var ErrUsage = errors.New("invalid usage")

// Result is everything one run produced.
type Result struct {
	RunID string

	LeftImprovement  []metrics.Score
	RightImprovement []metrics.Score
	LeftActivation   []metrics.Score
	RightActivation  []metrics.Score

	// Sides joins left and right improvement scores on patient id.
	Sides       metrics.Join
	LeftPoints  []metrics.Point
	RightPoints []metrics.Point

	RankSum     analysis.RankSumResult
	MannWhitney *analysis.MannWhitneyResult
	Summary     *analysis.Summary

	ReportPath   string
	PlotPath     string
	SummaryPath  string
	ManifestPath string
}

// Run executes the analysis described by opts.
func Run(opts Options) (*Result, error) {
	if err := opts.check(); err != nil {
		return nil, err
	}
	log := logging.OrNop(opts.Logger)
	var m *manifest.Manifest
	if opts.Manifest {
		m = manifest.New(opts.Input, manifest.Settings{
			VolumeSchema:  opts.Schema.Name,
			JoinPolicy:    opts.JoinPolicy,
			TieCorrection: opts.RankSum.TieCorrection,
			OutputMode:    opts.OutputMode,
		})
		log = log.With(zap.String("run", m.ID))
	}

	wb, err := workbook.Load(opts.Input, workbook.Options{
		Validate: opts.Validate,
		Required: []string{opts.LeftSheet, opts.VolumeSheet, opts.RightSheet},
		Logger:   log,
	})
	if err != nil {
		return nil, err
	}
	log.Info("workbook loaded", zap.String("path", opts.Input), zap.Int("sheets", len(wb.Order)))

	res := &Result{}
	if m != nil {
		res.RunID = m.ID
	}
	if err := derive(wb, opts, res); err != nil {
		return nil, err
	}
	log.Info("metrics derived",
		zap.Int("left_scores", len(res.LeftImprovement)),
		zap.Int("right_scores", len(res.RightImprovement)),
		zap.String("volume_schema", opts.Schema.Name))

	res.Sides = metrics.JoinScores(res.LeftImprovement, res.RightImprovement)
	x, y := res.Sides.AValues(), res.Sides.BValues()
	if opts.JoinPolicy == config.JoinKeep {
		x, y = metrics.Values(res.LeftImprovement), metrics.Values(res.RightImprovement)
	}
	if n := res.Sides.Unmatched(); n > 0 {
		log.Warn("patients present on one side only",
			zap.Strings("left_only", res.Sides.OnlyA),
			zap.Strings("right_only", res.Sides.OnlyB),
			zap.String("join_policy", opts.JoinPolicy))
	}

	res.RankSum, err = analysis.RankSum(x, y, opts.RankSum)
	if err != nil {
		return nil, err
	}
	log.Info("rank-sum test", zap.Float64("statistic", res.RankSum.Statistic), zap.Float64("pvalue", res.RankSum.PValue))
	if mw, err := analysis.MannWhitney(x, y); err != nil {
		log.Warn("mann-whitney cross-check skipped", zap.Error(err))
	} else {
		res.MannWhitney = &mw
	}

	var leftJoin, rightJoin metrics.Join
	res.LeftPoints, leftJoin = metrics.Points(res.LeftActivation, res.LeftImprovement)
	res.RightPoints, rightJoin = metrics.Points(res.RightActivation, res.RightImprovement)
	res.Summary = analysis.Summarize(analysis.SummaryInput{
		Workbook:     wb.Name,
		VolumeSchema: opts.Schema.Name,
		JoinPolicy:   opts.JoinPolicy,
		Left:         sideInput(metrics.Left, res.LeftImprovement, res.LeftActivation, res.LeftPoints, leftJoin),
		Right:        sideInput(metrics.Right, res.RightImprovement, res.RightActivation, res.RightPoints, rightJoin),
		Sides:        res.Sides,
		RankSum:      res.RankSum,
		MannWhitney:  res.MannWhitney,
	})

	if err := writeArtifacts(opts, res, log); err != nil {
		return nil, err
	}

	if m != nil {
		m.Record(manifest.Outcome{
			RankSum:     res.RankSum,
			MannWhitney: res.MannWhitney,
			Paired:      len(res.Sides.Pairs),
			LeftOnly:    res.Sides.OnlyA,
			RightOnly:   res.Sides.OnlyB,
			LeftPoints:  len(res.LeftPoints),
			RightPoints: len(res.RightPoints),
		}, artifactNames(res)...)
		path, err := m.Save(opts.OutDir)
		if err != nil {
			return nil, errors.Join(report.ErrIOFailure, err)
		}
		res.ManifestPath = path
		log.Debug("manifest saved", zap.String("path", path))
	}
	return res, nil
}

func derive(wb *workbook.Workbook, opts Options, res *Result) error {
	if err := wb.Require(opts.LeftSheet, opts.VolumeSheet, opts.RightSheet); err != nil {
		return err
	}
	left, err := wb.Sheet(opts.LeftSheet)
	if err != nil {
		return err
	}
	right, err := wb.Sheet(opts.RightSheet)
	if err != nil {
		return err
	}
	volume, err := wb.Sheet(opts.VolumeSheet)
	if err != nil {
		return err
	}

	if res.LeftImprovement, err = metrics.ImprovementScore(left, opts.MotorColumns); err != nil {
		return err
	}
	if res.RightImprovement, err = metrics.ImprovementScore(right, opts.MotorColumns); err != nil {
		return err
	}
	if res.LeftActivation, err = metrics.PercentActivation(volume, opts.VolumePatientColumn, metrics.Left, opts.Schema); err != nil {
		return err
	}
	if res.RightActivation, err = metrics.PercentActivation(volume, opts.VolumePatientColumn, metrics.Right, opts.Schema); err != nil {
		return err
	}
	return nil
}

func sideInput(side metrics.Side, imp, act []metrics.Score, pts []metrics.Point, j metrics.Join) analysis.SideInput {
	unplotted := append(append([]string{}, j.OnlyA...), j.OnlyB...)
	metrics.SortPatientIDs(unplotted)
	return analysis.SideInput{Side: side, Improvement: imp, Activation: act, Points: pts, Unplotted: unplotted}
}

func writeArtifacts(opts Options, res *Result, log *zap.Logger) error {
	res.ReportPath = filepath.Join(opts.OutDir, opts.ReportName)
	if err := report.WriteReport(res.RankSum, res.ReportPath); err != nil {
		return err
	}
	log.Debug("report written", zap.String("path", res.ReportPath))

	target := ""
	if opts.OutputMode == config.OutputFile {
		target = filepath.Join(opts.OutDir, opts.PlotName)
	}
	if err := report.RenderScatter(res.LeftPoints, res.RightPoints, target, opts.Style); err != nil {
		return err
	}
	res.PlotPath = target
	log.Debug("plot rendered", zap.String("mode", opts.OutputMode), zap.String("path", target))

	if opts.SummaryName != "" {
		res.SummaryPath = filepath.Join(opts.OutDir, opts.SummaryName)
		if err := report.WriteSummary(res.Summary, res.SummaryPath); err != nil {
			return err
		}
		log.Debug("summary written", zap.String("path", res.SummaryPath))
	}
	return nil
}

func artifactNames(res *Result) []string {
	var out []string
	for _, p := range []string{res.ReportPath, res.PlotPath, res.SummaryPath} {
		if p != "" {
			out = append(out, filepath.Base(p))
		}
	}
	return out
}
