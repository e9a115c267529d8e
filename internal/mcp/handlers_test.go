package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dmitriimaksimovdevelop/awrlens/internal/model"
)

func callWith(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	}
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("expected TextContent")
	}
	return tc.Text
}

// --- getArgs / stringArg helpers ---

func TestGetArgs_NilArguments(t *testing.T) {
	args := getArgs(mcp.CallToolRequest{})
	if args == nil || len(args) != 0 {
		t.Fatalf("expected empty map, got %v", args)
	}
}

func TestGetArgs_WrongType(t *testing.T) {
	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: "not a map"},
	}
	if args := getArgs(req); len(args) != 0 {
		t.Fatalf("expected empty map for wrong type, got %v", args)
	}
}

func TestStringArg(t *testing.T) {
	args := map[string]interface{}{"name": "hello", "empty": "", "wrong": 42, "nil": nil}
	if got := stringArg(args, "name", "default"); got != "hello" {
		t.Errorf("present key = %q", got)
	}
	for _, key := range []string{"empty", "wrong", "nil", "missing"} {
		if got := stringArg(args, key, "default"); got != "default" {
			t.Errorf("key %q = %q, want default", key, got)
		}
	}
}

// --- handleAnalyzeReport ---

const sampleReport = `<html><body><h1>WORKLOAD REPOSITORY report for</h1>
<p>Oracle Database 19c Enterprise Edition Release 19.3.0.0.0</p>
<h2>Instance Efficiency Percentages</h2>
<table><tr><td>Buffer Hit %:</td><td>84.20</td><td>Soft Parse %:</td><td>94.02</td></tr></table>
</body></html>`

func TestHandleAnalyzeReport(t *testing.T) {
	res, err := handleAnalyzeReport(context.Background(), callWith(map[string]interface{}{"html": sampleReport}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IsError {
		t.Fatalf("expected success, got: %s", textOf(t, res))
	}

	var analysis model.Analysis
	if err := json.Unmarshal([]byte(textOf(t, res)), &analysis); err != nil {
		t.Fatalf("response is not a valid analysis document: %v", err)
	}
	if analysis.Report.FormatSignature.OracleVersion != model.Oracle19c {
		t.Errorf("version = %q", analysis.Report.FormatSignature.OracleVersion)
	}
	if len(analysis.Findings) == 0 || analysis.Findings[0].RuleName != "buffer_cache_hit_ratio" {
		t.Errorf("findings = %v, want buffer_cache_hit_ratio first", analysis.Findings)
	}
}

func TestHandleAnalyzeReport_Rejection(t *testing.T) {
	res, err := handleAnalyzeReport(context.Background(), callWith(map[string]interface{}{
		"html": "<html><body>nothing relevant</body></html>",
	}))
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected IsError for non-AWR content")
	}
	if !strings.Contains(textOf(t, res), "not_awr_like") {
		t.Errorf("error text = %s, want the rejection kind", textOf(t, res))
	}
}

func TestHandleAnalyzeReport_MissingArgument(t *testing.T) {
	res, err := handleAnalyzeReport(context.Background(), callWith(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	if !res.IsError || !strings.Contains(textOf(t, res), "html is required") {
		t.Errorf("result = %s", textOf(t, res))
	}
}

// --- handleValidateReport ---

func TestHandleValidateReport(t *testing.T) {
	res, err := handleValidateReport(context.Background(), callWith(map[string]interface{}{"html": sampleReport}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IsError {
		t.Fatalf("expected success, got: %s", textOf(t, res))
	}

	var verdict map[string]interface{}
	if err := json.Unmarshal([]byte(textOf(t, res)), &verdict); err != nil {
		t.Fatalf("verdict not JSON: %v", err)
	}
	if verdict["valid"] != true || verdict["class"] != "awr" {
		t.Errorf("verdict = %v", verdict)
	}
}

func TestHandleValidateReport_InvalidIsNotToolError(t *testing.T) {
	res, err := handleValidateReport(context.Background(), callWith(map[string]interface{}{
		"html": "<html><script>x</script>oracle workload repository report</html>",
	}))
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	if res.IsError {
		t.Fatal("a rejected document is a verdict, not a tool error")
	}
	var verdict map[string]interface{}
	if err := json.Unmarshal([]byte(textOf(t, res)), &verdict); err != nil {
		t.Fatalf("verdict not JSON: %v", err)
	}
	if verdict["valid"] != false || verdict["error_kind"] != "unsafe_content" {
		t.Errorf("verdict = %v", verdict)
	}
}

// --- handleListRules ---

func TestHandleListRules(t *testing.T) {
	res, err := handleListRules(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var entries []struct {
		Name     string   `json:"name"`
		Category string   `json:"category"`
		Warning  float64  `json:"warning"`
		Critical *float64 `json:"critical"`
	}
	if err := json.Unmarshal([]byte(textOf(t, res)), &entries); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if len(entries) != len(model.DefaultRules()) {
		t.Errorf("entries = %d, want %d", len(entries), len(model.DefaultRules()))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Category < entries[i-1].Category {
			t.Error("entries not sorted by category")
		}
	}
	for _, e := range entries {
		if e.Name == "cpu_bound_instance" && e.Critical != nil {
			t.Error("warning-only rule must serialize critical as null, not infinity")
		}
	}
}

// --- handleExplainRule ---

func TestHandleExplainRule(t *testing.T) {
	res, err := handleExplainRule(context.Background(), callWith(map[string]interface{}{
		"rule_name": "log_file_sync_waits",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(textOf(t, res), "Commit") {
		t.Errorf("explanation = %s", textOf(t, res))
	}
}

func TestHandleExplainRule_Unknown(t *testing.T) {
	res, err := handleExplainRule(context.Background(), callWith(map[string]interface{}{
		"rule_name": "unknown_rule_xyz",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IsError {
		t.Fatal("unknown rule should fall back, not error")
	}
	if !strings.Contains(textOf(t, res), "unknown_rule_xyz") {
		t.Errorf("fallback = %s", textOf(t, res))
	}
}

// TestRuleExplanations_CoverAllRules keeps the catalog and the rule set in
// sync.
func TestRuleExplanations_CoverAllRules(t *testing.T) {
	for _, r := range model.DefaultRules() {
		desc, ok := ruleExplanations[r.Name]
		if !ok {
			t.Errorf("rule %q has no explanation", r.Name)
			continue
		}
		if !strings.Contains(desc, "Remediation") {
			t.Errorf("rule %q explanation lacks remediation section", r.Name)
		}
	}
}

// --- Server creation ---

func TestNewServer(t *testing.T) {
	srv := NewServer("1.0.0-test")
	if srv == nil || srv.mcpServer == nil {
		t.Fatal("NewServer did not build a server")
	}
}
