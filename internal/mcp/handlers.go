package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dmitriimaksimovdevelop/awrlens/internal/engine"
	"github.com/dmitriimaksimovdevelop/awrlens/internal/model"
	"github.com/dmitriimaksimovdevelop/awrlens/internal/sniff"
)

// handleAnalyzeReport runs the full pipeline over inline report HTML.
func handleAnalyzeReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	html := stringArg(args, "html", "")
	if html == "" {
		return errResult("html is required"), nil
	}

	analysis, err := engine.Analyze([]byte(html), engine.Config{})
	if err != nil {
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			return errResult(fmt.Sprintf("report rejected (%s): %s", ve.Kind, ve.Reason)), nil
		}
		return errResult(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	jsonData, err := json.Marshal(analysis)
	if err != nil {
		return errResult(fmt.Sprintf("json marshal failed: %v", err)), nil
	}
	return newTextResult(string(jsonData)), nil
}

// handleValidateReport runs only the sniffing stage and reports the
// verdict. Rejections are a normal result here, not a tool error.
func handleValidateReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	html := stringArg(args, "html", "")
	if html == "" {
		return errResult("html is required"), nil
	}

	verdict := map[string]interface{}{"valid": true}
	raw, err := sniff.Sniff([]byte(html), sniff.Config{})
	if err != nil {
		var ve *model.ValidationError
		if !errors.As(err, &ve) {
			return errResult(fmt.Sprintf("validation failed: %v", err)), nil
		}
		verdict["valid"] = false
		verdict["error_kind"] = string(ve.Kind)
		verdict["reason"] = ve.Reason
	} else {
		verdict["class"] = string(raw.Class)
		verdict["encoding"] = raw.Encoding
		verdict["file_hash"] = raw.FileHash
	}

	jsonData, err := json.MarshalIndent(verdict, "", "  ")
	if err != nil {
		return errResult(fmt.Sprintf("json marshal failed: %v", err)), nil
	}
	return newTextResult(string(jsonData)), nil
}

// handleListRules returns the rule catalog sorted by category then name.
func handleListRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type entry struct {
		Name     string   `json:"name"`
		Category string   `json:"category"`
		Warning  float64  `json:"warning"`
		Critical *float64 `json:"critical"`
		Below    bool     `json:"below,omitempty"`
		Unit     string   `json:"unit,omitempty"`
		Title    string   `json:"title"`
	}

	var entries []entry
	for _, r := range model.DefaultRules() {
		e := entry{
			Name:     r.Name,
			Category: r.Category,
			Warning:  r.Warning,
			Below:    r.Below,
			Unit:     r.Unit,
			Title:    r.Title,
		}
		if !math.IsInf(r.Critical, 0) {
			crit := r.Critical
			e.Critical = &crit
		}
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Category != entries[j].Category {
			return entries[i].Category < entries[j].Category
		}
		return entries[i].Name < entries[j].Name
	})

	jsonData, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errResult(fmt.Sprintf("json marshal failed: %v", err)), nil
	}
	return newTextResult(string(jsonData)), nil
}

// handleExplainRule provides remediation detail for one rule.
func handleExplainRule(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	ruleName := stringArg(args, "rule_name", "")
	if ruleName == "" {
		return errResult("rule_name is required"), nil
	}

	desc, ok := ruleExplanations[ruleName]
	if !ok {
		return newTextResult(fmt.Sprintf(
			"No specific explanation for rule '%s'. "+
				"General guidance: re-run analyze_report and inspect the finding's evidence values, "+
				"then drill into the matching AWR section (wait events, SQL statistics, efficiency ratios).",
			ruleName,
		)), nil
	}
	return newTextResult(desc), nil
}

// getArgs safely extracts the arguments map from a CallToolRequest.
// Returns an empty map if Arguments is nil or not a map.
func getArgs(request mcp.CallToolRequest) map[string]interface{} {
	if request.Params.Arguments == nil {
		return map[string]interface{}{}
	}
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}
	return args
}

// stringArg extracts a string argument with a default value.
func stringArg(args map[string]interface{}, key, defaultVal string) string {
	val, ok := args[key]
	if !ok || val == nil {
		return defaultVal
	}
	s, ok := val.(string)
	if !ok || s == "" {
		return defaultVal
	}
	return s
}

// newTextResult creates a successful MCP tool result with text content.
func newTextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: text,
			},
		},
	}
}

// errResult creates an MCP tool error result (IsError=true).
// This is returned as a tool-level error, not a transport-level JSON-RPC error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: msg,
			},
		},
	}
}

var ruleExplanations = map[string]string{
	"buffer_cache_hit_ratio": `**Low Buffer Cache Hit Ratio**
Too many logical reads miss the buffer cache and go to disk.
**Root Causes:**
- db_cache_size too small for the working set
- Large full table scans flushing hot blocks
- Unselective indexes causing excess block visits
**Remediation:**
- Check the Buffer Pool Advisory section for sizing guidance.
- Identify scan-heavy SQL in "SQL ordered by Gets" and tune access paths.
- Consider the KEEP pool for small hot segments.`,

	"library_cache_hit_ratio": `**Low Library Cache Hit Ratio**
Cursors are reloaded instead of shared, burning CPU and latches.
**Root Causes:**
- Shared pool too small
- Literal SQL defeating cursor sharing
- Frequent DDL invalidating cursors
**Remediation:**
- Review shared_pool_size and the Shared Pool Advisory.
- Convert literal SQL to bind variables.
- Avoid DDL during peak hours.`,

	"soft_parse_ratio": `**Low Soft Parse Ratio**
A large share of parses are hard parses, the most expensive kind.
**Root Causes:**
- Application builds SQL with literals
- cursor_sharing=EXACT with non-reusable statements
- Undersized shared pool aging cursors out
**Remediation:**
- Use bind variables in the application.
- Verify session_cached_cursors is set (50+ typical).
- As a stopgap only, consider cursor_sharing=FORCE.`,

	"log_file_sync_waits": `**Slow Commit Latency (log file sync)**
Sessions wait on redo write confirmation at commit.
**Root Causes:**
- Slow redo log storage (shared or saturated devices)
- Commit-per-row application patterns
- LGWR CPU starvation on a busy host
**Remediation:**
- Move redo logs to dedicated low-latency storage.
- Batch commits in the application where business rules allow.
- Compare "log file parallel write" latency to isolate storage vs LGWR.`,

	"sequential_read_latency": `**Slow Single-Block Reads (db file sequential read)**
Index access pays high per-block storage latency.
**Root Causes:**
- Storage-side latency (overloaded array, long I/O queues)
- Hot datafiles on slow media
- Undersized buffer cache pushing reads to disk
**Remediation:**
- Check the File IO Stats section for the slow datafiles.
- Work with storage admins on array-side latency.
- Consider moving hot segments to faster media.`,

	"single_event_dominance": `**Single Wait Event Dominates DB Time**
One bottleneck defines the instance's performance profile.
**Root Causes:**
- Depends entirely on which event dominates
**Remediation:**
- Read the dominant event's wait class and drill into its section.
- Find the SQL most associated with the event before changing parameters.
- Re-run analysis after the fix; a new dominant event often appears.`,

	"cpu_bound_instance": `**Instance Is CPU Bound**
DB CPU dominates DB time; the workload computes more than it waits.
**Root Causes:**
- Excessive logical reads (missing indexes, bad plans)
- Hard parse storms
- Genuinely compute-heavy workload on too few CPUs
**Remediation:**
- Tune the top statements in "SQL ordered by CPU Time".
- Check logical reads per execution for plan regressions.
- Only then consider adding CPU capacity.`,

	"hard_parse_rate": `**High Hard Parse Rate**
The shared pool churns through new cursors.
**Root Causes:**
- Literal SQL from the application
- Dynamic SQL generation per call
- Shared pool too small to keep cursors
**Remediation:**
- Introduce bind variables at the application layer.
- Check V$SQL for statement families differing only in literals.
- cursor_sharing=FORCE masks the symptom while code is fixed.`,

	"top_sql_dominance": `**One SQL Statement Dominates Elapsed Time**
A single statement defines the workload's response time.
**Root Causes:**
- Plan regression on a core statement
- Missing index or stale statistics
- A statement that should not run in the measured window (batch in peak)
**Remediation:**
- Tune the top statement first; nothing else matters until it shrinks.
- Compare its plan hash across snapshots for regressions.
- Consider SQL Plan Baselines once a good plan is found.`,

	"gc_block_latency": `**Slow Global Cache Block Transfers (RAC)**
Cross-instance block shipping is slower than a healthy interconnect allows.
**Root Causes:**
- Interconnect saturation or misconfiguration (public network in use)
- LMS processes starved for CPU on the serving instance
- Excessive cross-instance traffic from poor workload partitioning
**Remediation:**
- Verify the private interconnect carries the traffic and has headroom.
- Check LMS CPU on all instances.
- Partition the workload by instance affinity to cut block shipping.`,
}
