package engine

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/dmitriimaksimovdevelop/awrlens/internal/model"
)

// fullReport is a minimal but structurally faithful 19c AWR document
// covering every non-RAC section.
const fullReport = `<html><head><title>AWR Report for DB: PROD</title></head><body>
<h1>WORKLOAD REPOSITORY report for</h1>
<p>Oracle Database 19c Enterprise Edition Release 19.3.0.0.0</p>
<table>
<tr><th>DB Name</th><th>DB Id</th><th>Instance</th><th>Host Name</th></tr>
<tr><td>PROD</td><td>123456789</td><td>prod1</td><td>dbhost01</td></tr>
</table>
<table>
<tr><th></th><th>Snap Id</th><th>Snap Time</th></tr>
<tr><td>Begin Snap:</td><td>1044</td><td>21-Aug-26 09:00:11</td></tr>
<tr><td>End Snap:</td><td>1045</td><td>21-Aug-26 10:00:02</td></tr>
<tr><td>Elapsed:</td><td>59.85 (mins)</td></tr>
<tr><td>DB Time:</td><td>148.42 (mins)</td></tr>
</table>
<h2>Load Profile</h2>
<table>
<tr><th>Metric</th><th>Per Second</th><th>Per Transaction</th></tr>
<tr><td>DB Time(s):</td><td>2.5</td><td>0.1</td></tr>
<tr><td>Hard parses (SQL):</td><td>35.2</td><td>1.4</td></tr>
</table>
<h2>Instance Efficiency Percentages (Target 100%)</h2>
<table>
<tr><td>Buffer Hit %:</td><td>84.20</td><td>Soft Parse %:</td><td>94.02</td></tr>
</table>
<h2>Top 10 Foreground Events by Total Wait Time</h2>
<table>
<tr><th>Event</th><th>Waits</th><th>Total Wait Time (sec)</th><th>Avg wait (ms)</th><th>% DB time</th><th>Wait Class</th></tr>
<tr><td>log file sync</td><td>120,000</td><td>360</td><td>3.00</td><td>24.1</td><td>Commit</td></tr>
<tr><td>DB CPU</td><td></td><td>980</td><td></td><td>65.3</td><td></td></tr>
</table>
<h2>Time Model Statistics</h2>
<table>
<tr><th>Statistic Name</th><th>Time (s)</th><th>% of DB Time</th></tr>
<tr><td>sql execute elapsed time</td><td>7,120.5</td><td>79.9</td></tr>
</table>
<h2>SQL ordered by Elapsed Time</h2>
<table>
<tr><th>Elapsed Time (s)</th><th>Executions</th><th>SQL Id</th></tr>
<tr><td>612.4</td><td>1,042</td><td>7kfq2z0aqd1sb</td></tr>
<tr><td>99.5</td><td>18</td><td>4yc29c5dmkbdz</td></tr>
</table>
<h2>IOStat by Function summary</h2>
<table>
<tr><th>Function Name</th><th>Reads: Data</th><th>Reqs per sec</th></tr>
<tr><td>Buffer Cache Reads</td><td>4.5G</td><td>312.44</td></tr>
</table>
<h2>Key Instance Activity Stats</h2>
<table>
<tr><th>Statistic</th><th>Total</th><th>per Second</th></tr>
<tr><td>execute count</td><td>9,000,212</td><td>2,500.3</td></tr>
</table>
<h2>Memory Dynamic Components</h2>
<table>
<tr><th>Component</th><th>Begin Snap Size (Mb)</th><th>Current Size (Mb)</th></tr>
<tr><td>shared pool</td><td>4,096.00</td><td>4,352.00</td></tr>
</table>
<h2>Segments by Logical Reads</h2>
<table>
<tr><th>Owner</th><th>Object Name</th><th>Logical Reads</th><th>%Total</th></tr>
<tr><td>APP</td><td>ORDERS_PK</td><td>81,220,144</td><td>31.02</td></tr>
</table>
</body></html>`

func TestParseFullReport(t *testing.T) {
	report, err := Parse([]byte(fullReport), Config{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if report.FormatSignature.OracleVersion != model.Oracle19c {
		t.Errorf("version = %q, want 19c", report.FormatSignature.OracleVersion)
	}
	if report.FormatSignature.Topology != model.TopologySingle {
		t.Errorf("topology = %q, want single", report.FormatSignature.Topology)
	}
	if report.DBInfo.DBName != "PROD" || report.DBInfo.InstanceName != "prod1" {
		t.Errorf("db info = %+v", report.DBInfo)
	}
	if report.SnapshotInfo.BeginSnapID == nil || *report.SnapshotInfo.BeginSnapID != 1044 {
		t.Errorf("snapshot = %+v", report.SnapshotInfo)
	}
	if report.CompletenessScore != 100 {
		t.Errorf("completeness = %d, want 100 (errors: %v)", report.CompletenessScore, report.SectionErrors)
	}
	if len(report.SectionErrors) != 0 {
		t.Errorf("section errors = %v, want none", report.SectionErrors)
	}
	if len(report.Sections) != 9 {
		t.Errorf("sections = %d, want all 9 non-RAC kinds", len(report.Sections))
	}
	if v, ok := report.MetricValue(model.InstanceEfficiency, "buffer hit"); !ok || v != 84.2 {
		t.Errorf("buffer hit = %v, %v", v, ok)
	}
	if len(report.FileHash) != 64 {
		t.Errorf("file hash = %q", report.FileHash)
	}
}

// TestMissingSectionDegrades verifies a report without wait events still
// parses, reports the gap, and loses completeness proportionally.
func TestMissingSectionDegrades(t *testing.T) {
	doc := `<html><body><h1>WORKLOAD REPOSITORY report for</h1>
	<h2>Load Profile</h2>
	<table><tr><th>Metric</th><th>Per Second</th></tr><tr><td>DB Time(s):</td><td>2.5</td></tr></table>
	</body></html>`

	report, err := Parse([]byte(doc), Config{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if report.CompletenessScore != 11 {
		t.Errorf("completeness = %d, want round(100*1/9) = 11", report.CompletenessScore)
	}
	var missing []model.SectionKind
	for _, se := range report.SectionErrors {
		if se.Type != model.SectionMissing {
			t.Errorf("unexpected error type %q for %s", se.Type, se.Kind)
		}
		missing = append(missing, se.Kind)
	}
	if len(missing) != 8 {
		t.Errorf("missing sections = %v, want 8", missing)
	}
	found := false
	for _, k := range missing {
		if k == model.WaitEvents {
			found = true
		}
	}
	if !found {
		t.Error("wait_events not reported missing")
	}
}

// TestUnrecognizedStructure verifies a located section whose tables have
// no usable shape degrades to unrecognized_structure, not a parse abort.
func TestUnrecognizedStructure(t *testing.T) {
	doc := `<html><body><h1>WORKLOAD REPOSITORY report for</h1>
	<h2>SQL ordered by Elapsed Time</h2>
	<table><tr><th>Module</th><th>Notes</th></tr><tr><td>batch</td><td>n/a</td></tr></table>
	</body></html>`

	report, err := Parse([]byte(doc), Config{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var got *model.SectionError
	for i := range report.SectionErrors {
		if report.SectionErrors[i].Kind == model.SqlStats {
			got = &report.SectionErrors[i]
		}
	}
	if got == nil || got.Type != model.UnrecognizedStructure {
		t.Fatalf("sql_stats error = %+v, want unrecognized_structure", got)
	}
}

// TestDeterministicOutput verifies two runs over the same bytes serialize
// byte-identically, findings included.
func TestDeterministicOutput(t *testing.T) {
	first, err := Analyze([]byte(fullReport), Config{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	second, err := Analyze([]byte(fullReport), Config{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if !bytes.Equal(a, b) {
		t.Error("identical input produced different serialized output")
	}
}

// TestAnalyzeFindingsRanked verifies the end-to-end diagnosis on the full
// report: buffer hit 84.2 is critical and sorts before any warning.
func TestAnalyzeFindingsRanked(t *testing.T) {
	analysis, err := Analyze([]byte(fullReport), Config{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(analysis.Findings) == 0 {
		t.Fatal("no findings on a report with buffer hit 84.2 and 35 hard parses/s")
	}
	if analysis.Findings[0].RuleName != "buffer_cache_hit_ratio" {
		t.Errorf("top finding = %q, want the critical buffer_cache_hit_ratio", analysis.Findings[0].RuleName)
	}
	if analysis.Findings[0].Severity != model.SeverityCritical {
		t.Errorf("top severity = %q", analysis.Findings[0].Severity)
	}
	for i := 1; i < len(analysis.Findings); i++ {
		prev, cur := analysis.Findings[i-1], analysis.Findings[i]
		if model.SeverityRank(prev.Severity) > model.SeverityRank(cur.Severity) {
			t.Fatalf("findings out of severity order at %d: %v", i, analysis.Findings)
		}
	}
	if analysis.HealthScore >= 100 {
		t.Errorf("health score = %d, want deductions applied", analysis.HealthScore)
	}
}

// TestRACAttemptsGlobalCache verifies global_cache joins the attempted
// set only for RAC reports.
func TestRACAttemptsGlobalCache(t *testing.T) {
	doc := `<html><body><h1>WORKLOAD REPOSITORY report for Real Application Clusters</h1>
	<h2>Global Cache Load Profile</h2>
	<table><tr><th>Metric</th><th>Per Second</th></tr><tr><td>GC CR blocks received:</td><td>120.5</td></tr></table>
	</body></html>`

	report, err := Parse([]byte(doc), Config{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if report.FormatSignature.Topology != model.TopologyRAC {
		t.Fatalf("topology = %q, want rac", report.FormatSignature.Topology)
	}
	if _, ok := report.Sections[model.GlobalCache]; !ok {
		t.Error("global_cache not extracted from a RAC report")
	}
	if v, ok := report.MetricValue(model.GlobalCache, "gc cr blocks received"); !ok || v != 120.5 {
		t.Errorf("gc metric = %v, %v", v, ok)
	}
}

// TestValidationFailuresAreFatal verifies the pipeline stops at sniffing
// for invalid documents.
func TestValidationFailuresAreFatal(t *testing.T) {
	if _, err := Parse([]byte("<html><body>nothing oracle here</body></html>"), Config{}); !model.IsValidation(err, model.NotAWRLike) {
		t.Errorf("err = %v, want not_awr_like", err)
	}
	if _, err := Parse([]byte("x"), Config{MaxBytes: 0}); err == nil {
		t.Error("junk input parsed without error")
	}
}
