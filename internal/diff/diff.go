// Package diff compares two analyzed reports and highlights regressions
// and improvements between snapshot windows. Comparison is pure: both
// inputs are already-parsed analysis documents.
package diff

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/dmitriimaksimovdevelop/awrlens/internal/model"
)

// Report contains the comparison between two analyses.
type Report struct {
	Baseline          string         `json:"baseline"`
	Current           string         `json:"current"`
	Changes           []MetricChange `json:"changes"`
	NewFindings       []string       `json:"new_findings"`
	ResolvedFindings  []string       `json:"resolved_findings"`
	Regressions       int            `json:"regressions"`
	Improvements      int            `json:"improvements"`
	HealthDelta       int            `json:"health_delta"` // positive = improved
	CompletenessDelta int            `json:"completeness_delta"`
}

// MetricChange represents a single metric difference between reports.
type MetricChange struct {
	Category     string  `json:"category"`
	Metric       string  `json:"metric"`
	OldValue     float64 `json:"old_value"`
	NewValue     float64 `json:"new_value"`
	Delta        float64 `json:"delta"`
	DeltaPct     float64 `json:"delta_pct"`
	Direction    string  `json:"direction"`    // "regression", "improvement", "unchanged"
	Significance string  `json:"significance"` // "high", "medium", "low"
}

// LoadAnalysis reads a serialized analysis document from disk.
func LoadAnalysis(path string) (*model.Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var analysis model.Analysis
	if err := json.Unmarshal(data, &analysis); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if analysis.Report == nil {
		return nil, fmt.Errorf("parse %s: no report in document", path)
	}
	return &analysis, nil
}

// Compare computes differences between two analyses.
func Compare(baseline, current *model.Analysis) *Report {
	diff := &Report{
		Baseline:          describe(baseline.Report),
		Current:           describe(current.Report),
		NewFindings:       []string{},
		ResolvedFindings:  []string{},
		HealthDelta:       current.HealthScore - baseline.HealthScore,
		CompletenessDelta: current.Report.CompletenessScore - baseline.Report.CompletenessScore,
	}

	compareMetrics(diff, "load_profile",
		perSecondMetrics(baseline.Report), perSecondMetrics(current.Report), true)
	compareMetrics(diff, "efficiency",
		efficiencyMetrics(baseline.Report), efficiencyMetrics(current.Report), false)
	compareMetrics(diff, "wait_latency",
		waitLatencies(baseline.Report), waitLatencies(current.Report), true)

	compareFindings(diff, baseline.Findings, current.Findings)

	for _, c := range diff.Changes {
		switch c.Direction {
		case "regression":
			diff.Regressions++
		case "improvement":
			diff.Improvements++
		}
	}
	return diff
}

func describe(r *model.ParsedReport) string {
	name := r.DBInfo.DBName
	if name == "" {
		name = "unknown"
	}
	if r.SnapshotInfo.BeginSnapID != nil && r.SnapshotInfo.EndSnapID != nil {
		return fmt.Sprintf("%s snap %d-%d", name, *r.SnapshotInfo.BeginSnapID, *r.SnapshotInfo.EndSnapID)
	}
	return name
}

// perSecondMetrics flattens the load profile to name -> per-second value.
func perSecondMetrics(r *model.ParsedReport) map[string]float64 {
	out := make(map[string]float64)
	for _, m := range r.SectionMetrics(model.LoadProfile) {
		if m.Value != nil && m.Unit != model.UnitPerTxn {
			out[m.MetricName] = *m.Value
		}
	}
	return out
}

func efficiencyMetrics(r *model.ParsedReport) map[string]float64 {
	out := make(map[string]float64)
	for _, m := range r.SectionMetrics(model.InstanceEfficiency) {
		if m.Value != nil {
			out[m.MetricName] = *m.Value
		}
	}
	return out
}

func waitLatencies(r *model.ParsedReport) map[string]float64 {
	out := make(map[string]float64)
	for _, e := range r.WaitEventList() {
		if e.AvgWaitMs != nil {
			out[e.EventName] = *e.AvgWaitMs
		}
	}
	return out
}

// compareMetrics emits changes for metrics present on both sides, in
// sorted name order so output is deterministic.
func compareMetrics(diff *Report, category string, old, new map[string]float64, higherIsWorse bool) {
	names := make([]string, 0, len(new))
	for name := range new {
		if _, ok := old[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		addChange(diff, category, name, old[name], new[name], higherIsWorse)
	}
}

func compareFindings(diff *Report, old, new []model.DiagnosticFinding) {
	oldRules := make(map[string]bool, len(old))
	for _, f := range old {
		oldRules[f.RuleName] = true
	}
	newRules := make(map[string]bool, len(new))
	for _, f := range new {
		newRules[f.RuleName] = true
		if !oldRules[f.RuleName] {
			diff.NewFindings = append(diff.NewFindings, f.RuleName)
		}
	}
	for _, f := range old {
		if !newRules[f.RuleName] {
			diff.ResolvedFindings = append(diff.ResolvedFindings, f.RuleName)
		}
	}
	sort.Strings(diff.NewFindings)
	sort.Strings(diff.ResolvedFindings)
}

func addChange(diff *Report, category, metric string, oldVal, newVal float64, higherIsWorse bool) {
	delta := newVal - oldVal
	deltaPct := 0.0
	if oldVal != 0 {
		deltaPct = (delta / math.Abs(oldVal)) * 100
	}

	// Skip negligible changes
	if math.Abs(deltaPct) < 1.0 && math.Abs(delta) < 0.1 {
		return
	}

	direction := "unchanged"
	if higherIsWorse {
		if deltaPct > 5 {
			direction = "regression"
		} else if deltaPct < -5 {
			direction = "improvement"
		}
	} else {
		if deltaPct < -5 {
			direction = "regression"
		} else if deltaPct > 5 {
			direction = "improvement"
		}
	}

	significance := "low"
	absPct := math.Abs(deltaPct)
	if absPct >= 50 {
		significance = "high"
	} else if absPct >= 20 {
		significance = "medium"
	}

	diff.Changes = append(diff.Changes, MetricChange{
		Category:     category,
		Metric:       metric,
		OldValue:     oldVal,
		NewValue:     newVal,
		Delta:        delta,
		DeltaPct:     deltaPct,
		Direction:    direction,
		Significance: significance,
	})
}

// FormatDiff returns a human-readable diff summary.
func FormatDiff(d *Report) string {
	var sb strings.Builder

	sb.WriteString("=== Analysis Diff ===\n")
	sb.WriteString(fmt.Sprintf("Baseline: %s\n", d.Baseline))
	sb.WriteString(fmt.Sprintf("Current:  %s\n\n", d.Current))

	sb.WriteString(fmt.Sprintf("Health Score: %+d\n", d.HealthDelta))
	if d.CompletenessDelta != 0 {
		sb.WriteString(fmt.Sprintf("Completeness: %+d\n", d.CompletenessDelta))
	}
	sb.WriteString(fmt.Sprintf("Regressions: %d, Improvements: %d\n\n", d.Regressions, d.Improvements))

	if len(d.NewFindings) > 0 {
		sb.WriteString(fmt.Sprintf("New findings: %s\n", strings.Join(d.NewFindings, ", ")))
	}
	if len(d.ResolvedFindings) > 0 {
		sb.WriteString(fmt.Sprintf("Resolved findings: %s\n", strings.Join(d.ResolvedFindings, ", ")))
	}

	if d.Regressions > 0 {
		sb.WriteString("\nRegressions:\n")
		for _, c := range d.Changes {
			if c.Direction == "regression" {
				sb.WriteString(formatChange(c))
			}
		}
	}
	if d.Improvements > 0 {
		sb.WriteString("\nImprovements:\n")
		for _, c := range d.Changes {
			if c.Direction == "improvement" {
				sb.WriteString(formatChange(c))
			}
		}
	}
	return sb.String()
}

func formatChange(c MetricChange) string {
	return fmt.Sprintf("  [%s] %s/%s: %.2f -> %.2f (%+.1f%%)\n",
		strings.ToUpper(c.Significance), c.Category, c.Metric,
		c.OldValue, c.NewValue, c.DeltaPct)
}
