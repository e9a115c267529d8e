package output

import (
	"strings"
	"testing"

	"github.com/dmitriimaksimovdevelop/awrlens/internal/model"
)

func TestWriteTextSummary(t *testing.T) {
	begin, end := int64(1044), int64(1045)
	elapsed := 59.85
	analysis := &model.Analysis{
		Report: &model.ParsedReport{
			FormatSignature: model.FormatSignature{OracleVersion: model.Oracle19c, Topology: model.TopologySingle},
			DBInfo:          model.DBInfo{DBName: "PROD", InstanceName: "prod1"},
			SnapshotInfo: model.SnapshotInfo{
				BeginSnapID: &begin, EndSnapID: &end, ElapsedMinutes: &elapsed,
			},
			CompletenessScore: 89,
			SectionErrors: []model.SectionError{
				{Kind: model.SegmentStats, Type: model.SectionMissing},
			},
		},
		Findings: []model.DiagnosticFinding{
			{
				Severity: model.SeverityCritical, RuleName: "buffer_cache_hit_ratio",
				Description:    "Buffer cache hit ratio at 84.2%",
				Recommendation: "Review db_cache_size",
				PriorityScore:  79,
			},
		},
		HealthScore: 76,
	}

	var sb strings.Builder
	if err := WriteText(&sb, analysis); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	out := sb.String()

	for _, frag := range []string{
		"PROD (prod1)",
		"Oracle 19c",
		"snap 1044 -> 1045",
		"Completeness: 89%",
		"Health: 76/100",
		"segment_stats: section_missing",
		"[CRITICAL] buffer_cache_hit_ratio",
		"priority 79",
	} {
		if !strings.Contains(out, frag) {
			t.Errorf("summary missing %q:\n%s", frag, out)
		}
	}
}

func TestWriteTextNoFindings(t *testing.T) {
	analysis := &model.Analysis{
		Report:      &model.ParsedReport{CompletenessScore: 100},
		HealthScore: 100,
	}
	var sb strings.Builder
	if err := WriteText(&sb, analysis); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if !strings.Contains(sb.String(), "No findings.") {
		t.Errorf("summary = %s", sb.String())
	}
}
