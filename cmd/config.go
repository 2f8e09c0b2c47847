package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/pdclinical/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set pdclinical configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		fmt.Fprintf(out, "left_sheet: %s\n", cfg.LeftSheet)
		fmt.Fprintf(out, "volume_sheet: %s\n", cfg.VolumeSheet)
		fmt.Fprintf(out, "right_sheet: %s\n", cfg.RightSheet)
		fmt.Fprintf(out, "motor_columns.patient: %s\n", cfg.MotorColumns.Patient)
		fmt.Fprintf(out, "motor_columns.side: %s\n", cfg.MotorColumns.Side)
		fmt.Fprintf(out, "motor_columns.on_stim: %s\n", cfg.MotorColumns.OnStim)
		fmt.Fprintf(out, "motor_columns.off_stim: %s\n", cfg.MotorColumns.OffStim)
		fmt.Fprintf(out, "motor_columns.voltage: %s\n", cfg.MotorColumns.Voltage)
		fmt.Fprintf(out, "volume_patient_column: %s\n", cfg.VolumePatientColumn)
		fmt.Fprintf(out, "volume_schema: %s\n", cfg.VolumeSchema)
		fmt.Fprintf(out, "join_policy: %s\n", cfg.JoinPolicy)
		fmt.Fprintf(out, "tie_correction: %t\n", cfg.TieCorrection)
		fmt.Fprintf(out, "validate: %t\n", cfg.Validate)
		fmt.Fprintf(out, "output_mode: %s\n", cfg.OutputMode)
		fmt.Fprintf(out, "out_dir: %s\n", cfg.OutDir)
		fmt.Fprintf(out, "report_name: %s\n", cfg.ReportName)
		fmt.Fprintf(out, "plot_name: %s\n", cfg.PlotName)
		if cfg.SummaryName != "" {
			fmt.Fprintf(out, "summary_name: %s\n", cfg.SummaryName)
		}
		fmt.Fprintf(out, "manifest: %t\n", cfg.Manifest)
		fmt.Fprintf(out, "plot.title: %s\n", cfg.Plot.Title)
		fmt.Fprintf(out, "plot.colors: %s / %s\n", cfg.Plot.LeftColor, cfg.Plot.RightColor)
		fmt.Fprintf(out, "plot.size: %.1fx%.1f in\n", cfg.Plot.WidthInches, cfg.Plot.HeightInches)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		if err := setKey(cfg, key, val); err != nil {
			return err
		}
		if err := cfg.Check(); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func setKey(c *cfgpkg.Global, key, val string) error {
	switch key {
	case "left_sheet":
		c.LeftSheet = val
	case "volume_sheet":
		c.VolumeSheet = val
	case "right_sheet":
		c.RightSheet = val
	case "motor_columns.patient":
		c.MotorColumns.Patient = val
	case "motor_columns.side":
		c.MotorColumns.Side = val
	case "motor_columns.on_stim":
		c.MotorColumns.OnStim = val
	case "motor_columns.off_stim":
		c.MotorColumns.OffStim = val
	case "motor_columns.voltage":
		c.MotorColumns.Voltage = val
	case "volume_patient_column":
		c.VolumePatientColumn = val
	case "volume_schema":
		c.VolumeSchema = strings.ToLower(val)
	case "join_policy":
		c.JoinPolicy = strings.ToLower(val)
	case "output_mode":
		c.OutputMode = strings.ToLower(val)
	case "tie_correction", "validate", "manifest", "plot.grid":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for %s: %v", key, val)
		}
		switch key {
		case "tie_correction":
			c.TieCorrection = b
		case "validate":
			c.Validate = b
		case "manifest":
			c.Manifest = b
		default:
			c.Plot.Grid = b
		}
	case "out_dir":
		c.OutDir = val
	case "report_name":
		c.ReportName = val
	case "plot_name":
		c.PlotName = val
	case "summary_name":
		c.SummaryName = val
	case "plot.title":
		c.Plot.Title = val
	case "plot.x_label":
		c.Plot.XLabel = val
	case "plot.y_label":
		c.Plot.YLabel = val
	case "plot.left_label":
		c.Plot.LeftLabel = val
	case "plot.right_label":
		c.Plot.RightLabel = val
	case "plot.left_color":
		c.Plot.LeftColor = val
	case "plot.right_color":
		c.Plot.RightColor = val
	case "plot.radius", "plot.width_inches", "plot.height_inches":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("invalid float for %s: %v", key, val)
		}
		switch key {
		case "plot.radius":
			c.Plot.Radius = f
		case "plot.width_inches":
			c.Plot.WidthInches = f
		default:
			c.Plot.HeightInches = f
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}
