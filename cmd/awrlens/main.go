// awrlens — Oracle AWR/ASH HTML report analyzer.
//
// Parses workload repository reports from any supported Oracle version
// into a canonical JSON model and runs diagnostic rules over it,
// producing severity-ranked findings. Pure file analysis, no database
// connection required.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/spf13/cobra"

	diffpkg "github.com/dmitriimaksimovdevelop/awrlens/internal/diff"
	"github.com/dmitriimaksimovdevelop/awrlens/internal/engine"
	"github.com/dmitriimaksimovdevelop/awrlens/internal/model"
	"github.com/dmitriimaksimovdevelop/awrlens/internal/output"
	"github.com/dmitriimaksimovdevelop/awrlens/internal/ruleconf"
	"github.com/dmitriimaksimovdevelop/awrlens/internal/sniff"
)

var (
	version = "0.1.0"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "awrlens",
		Short: "Oracle AWR/ASH report analyzer",
		Long: `awrlens — single Go binary for Oracle AWR/ASH report analysis.

Reads AWR or ASH HTML reports exported from any supported Oracle
version (10g through 19c+), normalizes them into one canonical JSON
model, and runs diagnostic rules to produce severity-ranked findings.

Everything is derived from the report file itself; awrlens never
connects to a database.`,
		Version: version,
	}

	// --- analyze command ---
	var (
		analyzeOutput     string
		analyzeFormat     string
		analyzeThresholds string
		analyzeMaxSize    int64
		analyzeQuiet      bool
	)

	analyzeCmd := &cobra.Command{
		Use:   "analyze <report.html>",
		Short: "Analyze an AWR/ASH report",
		Long:  "Parse a report into the canonical model, run the diagnostic rules, and write the analysis.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(args[0], analyzeOutput, analyzeFormat, analyzeThresholds, analyzeMaxSize, analyzeQuiet)
		},
	}
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "-", "Output file path (- for stdout)")
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "json", "Output format: json, text")
	analyzeCmd.Flags().StringVarP(&analyzeThresholds, "thresholds", "t", "", "YAML file with rule threshold overrides")
	analyzeCmd.Flags().Int64Var(&analyzeMaxSize, "max-size", 0, "Max report size in bytes (0 = default 100 MiB)")
	analyzeCmd.Flags().BoolVarP(&analyzeQuiet, "quiet", "q", false, "Suppress progress output")

	// --- validate command ---
	var validateMaxSize int64

	validateCmd := &cobra.Command{
		Use:   "validate <report.html>",
		Short: "Check whether a file is an acceptable AWR/ASH report",
		Long:  "Run only the acceptance checks (size, encoding, content safety, AWR markers) and print the verdict.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args[0], validateMaxSize)
		},
	}
	validateCmd.Flags().Int64Var(&validateMaxSize, "max-size", 0, "Max report size in bytes (0 = default 100 MiB)")

	// --- rules command ---
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "List the diagnostic rules and their thresholds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRules()
		},
	}

	// --- diff command ---
	var diffOutput string

	diffCmd := &cobra.Command{
		Use:   "diff <baseline.json> <current.json>",
		Short: "Compare two awrlens analyses",
		Long:  "Produce a diff showing workload deltas, latency changes, and new or resolved findings between two analysis files.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(args[0], args[1], diffOutput)
		},
	}
	diffCmd.Flags().StringVarP(&diffOutput, "output", "o", "-", "Output diff file path")

	rootCmd.AddCommand(analyzeCmd, validateCmd, rulesCmd, diffCmd, mcpCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildEngineConfig assembles the analysis configuration from the CLI
// flags, loading threshold overrides when a YAML path is given.
func buildEngineConfig(thresholdsPath string, maxSize int64) (engine.Config, error) {
	cfg := engine.Config{MaxBytes: maxSize}

	if thresholdsPath != "" {
		data, err := os.ReadFile(thresholdsPath)
		if err != nil {
			return cfg, fmt.Errorf("read thresholds: %w", err)
		}
		overrides, err := ruleconf.Load(data)
		if err != nil {
			return cfg, fmt.Errorf("parse thresholds: %w", err)
		}
		rules, err := overrides.Apply(model.DefaultRules())
		if err != nil {
			return cfg, fmt.Errorf("apply thresholds: %w", err)
		}
		cfg.Rules = rules
	}
	return cfg, nil
}

// runAnalyze handles the `analyze` command.
func runAnalyze(reportPath, outputPath, format, thresholdsPath string, maxSize int64, quiet bool) error {
	if format != "json" && format != "text" {
		return fmt.Errorf("unknown format %q (want json or text)", format)
	}

	progress := output.NewProgress(!quiet)

	cfg, err := buildEngineConfig(thresholdsPath, maxSize)
	if err != nil {
		return err
	}

	progress.Log("Reading %s", reportPath)
	data, err := os.ReadFile(reportPath)
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}

	progress.Log("Analyzing report (%d bytes)", len(data))
	analysis, err := engine.Analyze(data, cfg)
	if err != nil {
		return err
	}

	progress.Log("Extracted %d sections (completeness %d%%), %d findings",
		len(analysis.Report.Sections), analysis.Report.CompletenessScore, len(analysis.Findings))

	if format == "text" {
		if outputPath == "-" {
			return output.WriteText(os.Stdout, analysis)
		}
		f, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		return output.WriteText(f, analysis)
	}
	return output.WriteJSON(analysis, outputPath)
}

// runValidate handles the `validate` command. A rejected report is a
// normal verdict, not a command failure, so the exit code stays zero
// unless the file cannot be read at all.
func runValidate(reportPath string, maxSize int64) error {
	data, err := os.ReadFile(reportPath)
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}

	raw, err := sniff.Sniff(data, sniff.Config{MaxBytes: maxSize})
	if err != nil {
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			fmt.Printf("REJECTED (%s): %s\n", ve.Kind, ve.Reason)
			return nil
		}
		return err
	}

	fmt.Printf("OK: class=%s encoding=%s hash=%s\n", raw.Class, raw.Encoding, raw.FileHash)
	return nil
}

// runRules handles the `rules` command.
func runRules() error {
	fmt.Printf("%-28s %-10s %-10s %-10s %s\n", "RULE", "CATEGORY", "WARNING", "CRITICAL", "DIRECTION")
	for _, r := range model.DefaultRules() {
		critical := "-"
		if !math.IsInf(r.Critical, 0) {
			critical = fmt.Sprintf("%g", r.Critical)
		}
		direction := "above"
		if r.Below {
			direction = "below"
		}
		fmt.Printf("%-28s %-10s %-10g %-10s %s\n", r.Name, r.Category, r.Warning, critical, direction)
	}
	return nil
}

// runDiff handles the `diff` command.
func runDiff(baselinePath, currentPath, outputPath string) error {
	baseline, err := diffpkg.LoadAnalysis(baselinePath)
	if err != nil {
		return fmt.Errorf("load baseline: %w", err)
	}
	current, err := diffpkg.LoadAnalysis(currentPath)
	if err != nil {
		return fmt.Errorf("load current: %w", err)
	}

	result := diffpkg.Compare(baseline, current)

	if outputPath == "-" {
		fmt.Print(diffpkg.FormatDiff(result))
		return nil
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, data, 0644)
}
