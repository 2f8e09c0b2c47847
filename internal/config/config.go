package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/pdclinical/internal/metrics"
	"github.com/KaramelBytes/pdclinical/internal/report"
)

// Output modes for the scatter plot.
const (
	OutputFile        = "file"
	OutputInteractive = "interactive"
)

// Join policies for patients listed on one side only.
const (
	JoinExclude = "exclude"
	JoinKeep    = "keep"
)

// Global configuration structure.
type Global struct {
	// Workbook layout
	LeftSheet           string               `mapstructure:"left_sheet" yaml:"left_sheet"`
	VolumeSheet         string               `mapstructure:"volume_sheet" yaml:"volume_sheet"`
	RightSheet          string               `mapstructure:"right_sheet" yaml:"right_sheet"`
	MotorColumns        metrics.MotorColumns `mapstructure:"motor_columns" yaml:"motor_columns"`
	VolumePatientColumn string               `mapstructure:"volume_patient_column" yaml:"volume_patient_column"`

	// Analysis
	VolumeSchema  string `mapstructure:"volume_schema" yaml:"volume_schema"`
	JoinPolicy    string `mapstructure:"join_policy" yaml:"join_policy"`
	TieCorrection bool   `mapstructure:"tie_correction" yaml:"tie_correction"`
	Validate      bool   `mapstructure:"validate" yaml:"validate"`

	// Artifacts
	OutputMode  string `mapstructure:"output_mode" yaml:"output_mode"`
	OutDir      string `mapstructure:"out_dir" yaml:"out_dir"`
	ReportName  string `mapstructure:"report_name" yaml:"report_name"`
	PlotName    string `mapstructure:"plot_name" yaml:"plot_name"`
	SummaryName string `mapstructure:"summary_name" yaml:"summary_name"`
	Manifest    bool   `mapstructure:"manifest" yaml:"manifest"`

	Plot report.Style `mapstructure:"plot" yaml:"plot"`
}

// Check validates the enumerated settings.
func (c *Global) Check() error {
	if _, err := metrics.SchemaByName(c.VolumeSchema); err != nil {
		return err
	}
	switch c.JoinPolicy {
	case JoinExclude, JoinKeep:
	default:
		return fmt.Errorf("invalid join_policy: %s (use %s or %s)", c.JoinPolicy, JoinExclude, JoinKeep)
	}
	switch c.OutputMode {
	case OutputFile, OutputInteractive:
	default:
		return fmt.Errorf("invalid output_mode: %s (use %s or %s)", c.OutputMode, OutputFile, OutputInteractive)
	}
	if c.ReportName == "" {
		return fmt.Errorf("report_name must not be empty")
	}
	if c.OutputMode == OutputFile && c.PlotName == "" {
		return fmt.Errorf("plot_name must not be empty in %s mode", OutputFile)
	}
	return nil
}

// Dir returns ~/.pdclinical.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".pdclinical"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.pdclinical/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("PDCLINICAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("left_sheet", "LSTN_activation")
	v.SetDefault("volume_sheet", "dvSTN_activation")
	v.SetDefault("right_sheet", "RSTN_activation")
	cols := metrics.DefaultMotorColumns()
	v.SetDefault("motor_columns.patient", cols.Patient)
	v.SetDefault("motor_columns.side", cols.Side)
	v.SetDefault("motor_columns.on_stim", cols.OnStim)
	v.SetDefault("motor_columns.off_stim", cols.OffStim)
	v.SetDefault("motor_columns.voltage", cols.Voltage)
	v.SetDefault("volume_patient_column", cols.Patient)

	v.SetDefault("volume_schema", metrics.SingleSchema.Name)
	v.SetDefault("join_policy", JoinExclude)
	v.SetDefault("tie_correction", true)
	v.SetDefault("validate", true)

	v.SetDefault("output_mode", OutputFile)
	v.SetDefault("out_dir", ".")
	v.SetDefault("report_name", "wilcoxon_test_out.txt")
	v.SetDefault("plot_name", "co_relations.png")
	v.SetDefault("summary_name", "")
	v.SetDefault("manifest", true)

	// Plot style
	style := report.DefaultStyle()
	v.SetDefault("plot.title", style.Title)
	v.SetDefault("plot.x_label", style.XLabel)
	v.SetDefault("plot.y_label", style.YLabel)
	v.SetDefault("plot.left_label", style.LeftLabel)
	v.SetDefault("plot.right_label", style.RightLabel)
	v.SetDefault("plot.left_color", style.LeftColor)
	v.SetDefault("plot.right_color", style.RightColor)
	v.SetDefault("plot.radius", style.Radius)
	v.SetDefault("plot.width_inches", style.WidthInches)
	v.SetDefault("plot.height_inches", style.HeightInches)
	v.SetDefault("plot.grid", style.Grid)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.VolumeSchema = strings.ToLower(strings.TrimSpace(c.VolumeSchema))
	c.JoinPolicy = strings.ToLower(strings.TrimSpace(c.JoinPolicy))
	c.OutputMode = strings.ToLower(strings.TrimSpace(c.OutputMode))
	return &c, nil
}
