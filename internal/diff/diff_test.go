package diff

import (
	"strings"
	"testing"

	"github.com/dmitriimaksimovdevelop/awrlens/internal/model"
)

func f64(v float64) *float64 { return &v }

func analysisWith(health int, hardParses, bufferHit, lfsMs float64, findings ...string) *model.Analysis {
	var fs []model.DiagnosticFinding
	for _, name := range findings {
		fs = append(fs, model.DiagnosticFinding{RuleName: name, Severity: model.SeverityWarning})
	}
	return &model.Analysis{
		Report: &model.ParsedReport{
			DBInfo: model.DBInfo{DBName: "PROD"},
			Sections: map[model.SectionKind]model.SectionRecords{
				model.LoadProfile: {Metrics: []model.MetricRecord{
					{MetricName: "Hard parses (SQL)", Value: f64(hardParses), Unit: model.UnitPerSec},
				}},
				model.InstanceEfficiency: {Metrics: []model.MetricRecord{
					{MetricName: "Buffer Hit %", Value: f64(bufferHit), Unit: model.UnitPercent},
				}},
				model.WaitEvents: {WaitEvents: []model.WaitEventRecord{
					{EventName: "log file sync", AvgWaitMs: f64(lfsMs)},
				}},
			},
			CompletenessScore: 100,
		},
		Findings:    fs,
		HealthScore: health,
	}
}

func TestCompareAnalyses(t *testing.T) {
	baseline := analysisWith(90, 10, 97, 3, "hard_parse_rate")
	current := analysisWith(70, 45, 86, 12, "hard_parse_rate", "log_file_sync_waits")

	diff := Compare(baseline, current)

	if diff.HealthDelta != -20 {
		t.Errorf("health delta = %d, want -20", diff.HealthDelta)
	}
	if diff.Regressions == 0 {
		t.Fatal("expected regressions")
	}

	byMetric := make(map[string]MetricChange)
	for _, c := range diff.Changes {
		byMetric[c.Category+"/"+c.Metric] = c
	}

	hp, ok := byMetric["load_profile/Hard parses (SQL)"]
	if !ok {
		t.Fatalf("hard parse change missing: %v", diff.Changes)
	}
	if hp.Direction != "regression" || hp.Significance != "high" {
		t.Errorf("hard parses = %+v, want high regression (350%%)", hp)
	}

	// buffer hit dropped; efficiency metrics regress when they fall
	bh := byMetric["efficiency/Buffer Hit %"]
	if bh.Direction != "regression" {
		t.Errorf("buffer hit direction = %q, want regression", bh.Direction)
	}

	lfs := byMetric["wait_latency/log file sync"]
	if lfs.Direction != "regression" {
		t.Errorf("log file sync direction = %q, want regression", lfs.Direction)
	}

	if len(diff.NewFindings) != 1 || diff.NewFindings[0] != "log_file_sync_waits" {
		t.Errorf("new findings = %v", diff.NewFindings)
	}
	if len(diff.ResolvedFindings) != 0 {
		t.Errorf("resolved findings = %v", diff.ResolvedFindings)
	}
}

func TestCompareImprovement(t *testing.T) {
	baseline := analysisWith(70, 45, 86, 12, "hard_parse_rate")
	current := analysisWith(95, 10, 97, 3)

	diff := Compare(baseline, current)
	if diff.HealthDelta != 25 {
		t.Errorf("health delta = %d, want +25", diff.HealthDelta)
	}
	if diff.Improvements == 0 {
		t.Error("expected improvements")
	}
	if len(diff.ResolvedFindings) != 1 || diff.ResolvedFindings[0] != "hard_parse_rate" {
		t.Errorf("resolved = %v", diff.ResolvedFindings)
	}
}

func TestFormatDiff(t *testing.T) {
	baseline := analysisWith(90, 10, 97, 3)
	current := analysisWith(70, 45, 86, 12, "log_file_sync_waits")

	out := FormatDiff(Compare(baseline, current))
	for _, frag := range []string{
		"Health Score: -20",
		"Regressions:",
		"New findings: log_file_sync_waits",
		"load_profile/Hard parses (SQL)",
	} {
		if !strings.Contains(out, frag) {
			t.Errorf("formatted diff missing %q:\n%s", frag, out)
		}
	}
}

// TestCompareSkipsOneSidedMetrics verifies metrics absent from either side
// never produce changes.
func TestCompareSkipsOneSidedMetrics(t *testing.T) {
	baseline := analysisWith(90, 10, 97, 3)
	current := analysisWith(90, 10, 97, 3)
	current.Report.Sections[model.LoadProfile] = model.SectionRecords{Metrics: []model.MetricRecord{
		{MetricName: "Logical reads", Value: f64(25000), Unit: model.UnitPerSec},
	}}

	diff := Compare(baseline, current)
	for _, c := range diff.Changes {
		if c.Metric == "Logical reads" || c.Metric == "Hard parses (SQL)" {
			t.Errorf("one-sided metric produced a change: %+v", c)
		}
	}
}
