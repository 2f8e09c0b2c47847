package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/pdclinical/internal/analysis"
	"github.com/KaramelBytes/pdclinical/internal/manifest"
	"github.com/KaramelBytes/pdclinical/internal/metrics"
	"github.com/KaramelBytes/pdclinical/internal/pipeline"
	"github.com/KaramelBytes/pdclinical/internal/report"
	"github.com/KaramelBytes/pdclinical/internal/testkit"
	"github.com/KaramelBytes/pdclinical/internal/workbook"
	"github.com/spf13/pflag"
)

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// Reset sticky flags that may persist Changed state across invocations
	rootCmd.Flags().VisitAll(func(fl *pflag.Flag) {
		_ = fl.Value.Set(fl.DefValue)
		fl.Changed = false
	})
	cfgFile = ""
	debug = false
	cfg = nil

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestCLI_AnalyzeScenario(t *testing.T) {
	isolateHome(t)
	input := testkit.WriteWorkbook(t, "patients.xlsx", testkit.ScenarioSheets()...)
	outDir := t.TempDir()

	out := runCmd(t, "-c", input, "--out-dir", outDir, "--summary-name", "summary.md")

	b, err := os.ReadFile(filepath.Join(outDir, "wilcoxon_test_out.txt"))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if got := string(b); got != "Wilcoxon_p-values:\nRanksumsResult(statistic=0.0, pvalue=1.0)" {
		t.Fatalf("unexpected report %q", got)
	}
	for _, name := range []string{"co_relations.png", "summary.md", manifest.FileName} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("missing artifact %s: %v", name, err)
		}
	}
	for _, want := range []string{"[RANK-SUM TEST]", "✓ Wrote report to", "✓ Wrote plot to", "✓ Wrote manifest to"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCLI_FlagsOverrideConfig(t *testing.T) {
	home := isolateHome(t)
	input := testkit.WriteWorkbook(t, "patients.xlsx", testkit.ScenarioSheets()...)
	outDir := t.TempDir()

	runCmd(t, "config", "set", "report_name", "from_config.txt")
	if _, err := os.Stat(filepath.Join(home, ".pdclinical", "config.yaml")); err != nil {
		t.Fatalf("config not saved: %v", err)
	}

	runCmd(t, "-c", input, "--out-dir", outDir, "--no-manifest")
	if _, err := os.Stat(filepath.Join(outDir, "from_config.txt")); err != nil {
		t.Fatalf("config report name not used: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, manifest.FileName)); !os.IsNotExist(err) {
		t.Fatalf("manifest written despite --no-manifest")
	}

	runCmd(t, "-c", input, "--out-dir", outDir, "--report-name", "from_flag.txt", "--tie-correction=false")
	if _, err := os.Stat(filepath.Join(outDir, "from_flag.txt")); err != nil {
		t.Fatalf("flag report name not used: %v", err)
	}
	m, err := manifest.Load(outDir)
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	if m.Settings.TieCorrection {
		t.Fatalf("--tie-correction=false not applied")
	}
}

func TestCLI_ConfigShowAndSet(t *testing.T) {
	isolateHome(t)
	runCmd(t, "config", "set", "volume_schema", "Summed")
	runCmd(t, "config", "set", "plot.width_inches", "8")

	out := runCmd(t, "config", "show")
	for _, want := range []string{"volume_schema: summed", "plot.size: 8.0x4.8 in", "report_name: wilcoxon_test_out.txt"} {
		if !strings.Contains(out, want) {
			t.Fatalf("show output missing %q:\n%s", want, out)
		}
	}

	for _, args := range [][]string{
		{"config", "set", "join_policy", "pad"},
		{"config", "set", "tie_correction", "maybe"},
		{"config", "set", "nope", "1"},
	} {
		if _, err := execute(t, args...); err == nil {
			t.Fatalf("expected %v to fail", args)
		}
	}
}

func TestCLI_ExitCodes(t *testing.T) {
	isolateHome(t)
	all := testkit.ScenarioSheets()
	partial := testkit.WriteWorkbook(t, "partial.xlsx", all[0], all[1])
	empty := filepath.Join(t.TempDir(), "empty.xlsx")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	good := testkit.WriteWorkbook(t, "patients.xlsx", all...)
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"missing sheet", []string{"-c", partial, "--out-dir", t.TempDir()}, ExitInvalidData},
		{"empty input", []string{"-c", empty, "--out-dir", t.TempDir()}, ExitInvalidData},
		{"input not found", []string{"-c", filepath.Join(t.TempDir(), "absent.xlsx")}, ExitIO},
		{"unwritable out dir", []string{"-c", good, "--out-dir", blocker}, ExitIO},
		{"bad schema flag", []string{"-c", good, "--volume-schema", "auto"}, ExitInvalidData},
		{"missing required flag", []string{}, ExitInvalidData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil {
				t.Fatalf("expected an error")
			}
			if got := ExitCode(err); got != tt.code {
				t.Fatalf("exit code %d, want %d (err: %v)", got, tt.code, err)
			}
		})
	}
}

func TestExitCodeMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{nil, ExitOK},
		{fmt.Errorf("load: %w", workbook.ErrInputNotFound), ExitIO},
		{fmt.Errorf("%w: disk full", report.ErrIOFailure), ExitIO},
		{&workbook.MissingSheetError{Missing: []string{"RSTN_activation"}}, ExitInvalidData},
		{fmt.Errorf("%w", metrics.ErrMalformedRecord), ExitInvalidData},
		{analysis.ErrInsufficientData, ExitInvalidData},
		{workbook.ErrEmptyInput, ExitInvalidData},
		{workbook.ErrInvalidFormat, ExitInvalidData},
		{pipeline.ErrUsage, ExitInvalidData},
		{errors.New("unknown flag: --nope"), ExitInvalidData},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.code {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.code)
		}
	}
}
