package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/pdclinical/internal/config"
	"github.com/KaramelBytes/pdclinical/internal/logging"
	"github.com/KaramelBytes/pdclinical/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Analysis flags (override config if set)
	flagInput         string
	flagOutDir        string
	flagReportName    string
	flagPlotName      string
	flagSummaryName   string
	flagOutputMode    string
	flagVolumeSchema  string
	flagJoinPolicy    string
	flagValidate      bool
	flagTieCorrection bool
	flagNoManifest    bool

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "pdclinical",
	Short: "Compare left and right STN stimulation outcomes of Parkinson's patients",
	Long: `pdclinical reads a clinical outcome workbook (LSTN_activation, dvSTN_activation,
RSTN_activation), derives a voltage-normalized motor improvement score and the
percent STN activation per patient and side, compares the two sides with a
Wilcoxon rank-sum test and plots activation against improvement.`,
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runAnalysis,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(ExitCode(err))
	}
}

func init() {
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.pdclinical/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")

	f := rootCmd.Flags()
	f.StringVarP(&flagInput, "csv_data_file", "c", "", "path to the clinical outcome workbook (.xlsx)")
	f.StringVar(&flagOutDir, "out-dir", ".", "directory for the report, plot and manifest")
	f.StringVar(&flagReportName, "report-name", "wilcoxon_test_out.txt", "rank-sum report file name")
	f.StringVar(&flagPlotName, "plot-name", "co_relations.png", "scatter plot file name; the extension picks the format")
	f.StringVar(&flagSummaryName, "summary-name", "", "also save the diagnostic summary under this name")
	f.StringVar(&flagOutputMode, "output-mode", cfgpkg.OutputFile, "plot output: file or interactive")
	f.StringVar(&flagVolumeSchema, "volume-schema", "single", "STN volume columns: single or summed")
	f.StringVar(&flagJoinPolicy, "join-policy", cfgpkg.JoinExclude, "patients on one side only: exclude or keep")
	f.BoolVar(&flagValidate, "validate", true, "check the workbook and its required sheets before analysis")
	f.BoolVar(&flagTieCorrection, "tie-correction", true, "tie-adjust the rank-sum variance")
	f.BoolVar(&flagNoManifest, "no-manifest", false, "do not write run_manifest.json")
	_ = rootCmd.MarkFlagRequired("csv_data_file")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c
}

// applyFlagOverrides copies explicitly set analysis flags onto c.
func applyFlagOverrides(cmd *cobra.Command, c *cfgpkg.Global) {
	f := cmd.Flags()
	if f.Changed("out-dir") {
		c.OutDir = flagOutDir
	}
	if f.Changed("report-name") {
		c.ReportName = flagReportName
	}
	if f.Changed("plot-name") {
		c.PlotName = flagPlotName
	}
	if f.Changed("summary-name") {
		c.SummaryName = flagSummaryName
	}
	if f.Changed("output-mode") {
		c.OutputMode = flagOutputMode
	}
	if f.Changed("volume-schema") {
		c.VolumeSchema = flagVolumeSchema
	}
	if f.Changed("join-policy") {
		c.JoinPolicy = flagJoinPolicy
	}
	if f.Changed("validate") {
		c.Validate = flagValidate
	}
	if f.Changed("tie-correction") {
		c.TieCorrection = flagTieCorrection
	}
	if f.Changed("no-manifest") {
		c.Manifest = !flagNoManifest
	}
}

func runAnalysis(cmd *cobra.Command, args []string) error {
	if cfg == nil {
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = c
	}
	run := *cfg
	applyFlagOverrides(cmd, &run)

	opts, err := pipeline.FromConfig(&run, flagInput)
	if err != nil {
		return fmt.Errorf("%w: %v", pipeline.ErrUsage, err)
	}
	logger, err := logging.New(debug)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	opts.Logger = logger

	res, err := pipeline.Run(opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, res.Summary.Markdown())
	fmt.Fprintf(out, "✓ Wrote report to %s\n", res.ReportPath)
	if res.PlotPath != "" {
		fmt.Fprintf(out, "✓ Wrote plot to %s\n", res.PlotPath)
	} else {
		fmt.Fprintln(out, "✓ Opened plot in viewer")
	}
	if res.SummaryPath != "" {
		fmt.Fprintf(out, "✓ Wrote summary to %s\n", res.SummaryPath)
	}
	if res.ManifestPath != "" {
		fmt.Fprintf(out, "✓ Wrote manifest to %s (run %s)\n", res.ManifestPath, res.RunID)
	}
	return nil
}
