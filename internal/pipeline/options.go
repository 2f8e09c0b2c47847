package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/KaramelBytes/pdclinical/internal/analysis"
	"github.com/KaramelBytes/pdclinical/internal/config"
	"github.com/KaramelBytes/pdclinical/internal/metrics"
	"github.com/KaramelBytes/pdclinical/internal/report"
	"github.com/KaramelBytes/pdclinical/internal/workbook"
)

// Options configures one run.
type Options struct {
	Input    string
	Validate bool

	LeftSheet           string
	VolumeSheet         string
	RightSheet          string
	MotorColumns        metrics.MotorColumns
	VolumePatientColumn string

	Schema     metrics.VolumeSchema
	JoinPolicy string
	RankSum    analysis.RankSumOptions

	OutputMode  string
	OutDir      string
	ReportName  string
	PlotName    string
	SummaryName string
	Style       report.Style
	Manifest    bool

	Logger *zap.Logger
}

// DefaultOptions returns the settings of the clinical outcome analysis for input.
func DefaultOptions(input string) Options {
	return Options{
		Input:               input,
		Validate:            true,
		LeftSheet:           workbook.SheetLeftMotor,
		VolumeSheet:         workbook.SheetVolume,
		RightSheet:          workbook.SheetRightMotor,
		MotorColumns:        metrics.DefaultMotorColumns(),
		VolumePatientColumn: metrics.DefaultMotorColumns().Patient,
		Schema:              metrics.SingleSchema,
		JoinPolicy:          config.JoinExclude,
		RankSum:             analysis.DefaultRankSumOptions(),
		OutputMode:          config.OutputFile,
		OutDir:              ".",
		ReportName:          "wilcoxon_test_out.txt",
		PlotName:            "co_relations.png",
		Style:               report.DefaultStyle(),
		Manifest:            true,
	}
}

// FromConfig maps loaded configuration onto run options.
func FromConfig(c *config.Global, input string) (Options, error) {
	if c == nil {
		return DefaultOptions(input), nil
	}
	if err := c.Check(); err != nil {
		return Options{}, err
	}
	schema, err := metrics.SchemaByName(c.VolumeSchema)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Input:               input,
		Validate:            c.Validate,
		LeftSheet:           c.LeftSheet,
		VolumeSheet:         c.VolumeSheet,
		RightSheet:          c.RightSheet,
		MotorColumns:        c.MotorColumns,
		VolumePatientColumn: c.VolumePatientColumn,
		Schema:              schema,
		JoinPolicy:          c.JoinPolicy,
		RankSum:             analysis.RankSumOptions{TieCorrection: c.TieCorrection},
		OutputMode:          c.OutputMode,
		OutDir:              c.OutDir,
		ReportName:          c.ReportName,
		PlotName:            c.PlotName,
		SummaryName:         c.SummaryName,
		Style:               c.Plot,
		Manifest:            c.Manifest,
	}, nil
}

func (o Options) check() error {
	if o.Input == "" {
		return fmt.Errorf("%w: no input workbook given", ErrUsage)
	}
	switch o.JoinPolicy {
	case config.JoinExclude, config.JoinKeep:
	default:
		return fmt.Errorf("%w: unknown join policy %q", ErrUsage, o.JoinPolicy)
	}
	switch o.OutputMode {
	case config.OutputFile, config.OutputInteractive:
	default:
		return fmt.Errorf("%w: unknown output mode %q", ErrUsage, o.OutputMode)
	}
	return nil
}
