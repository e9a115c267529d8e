package model

import (
	"fmt"
	"math"
	"sort"
)

// Rule defines one diagnostic check over a parsed report.
// Warning and Critical are compared strictly (value must cross, not meet,
// the bound). Below inverts the comparison for hit-ratio style metrics
// where low is bad. A rule with an infinite Critical only ever warns.
type Rule struct {
	Name      string
	Category  string
	Warning   float64
	Critical  float64
	Below     bool
	Unit      string
	Disabled  bool
	Evaluator func(r *ParsedReport) (float64, bool)
	Title     string
	Describe  func(value float64) string
	Recommend string
}

// DefaultRules returns the built-in diagnostic rules. Thresholds follow
// the classic Oracle tuning guidance for AWR triage.
func DefaultRules() []Rule {
	return []Rule{
		// Cache efficiency
		{
			Name: "buffer_cache_hit_ratio", Category: "memory",
			Warning: 90, Critical: 85, Below: true, Unit: UnitPercent,
			Evaluator: func(r *ParsedReport) (float64, bool) {
				return r.MetricValue(InstanceEfficiency, "buffer hit")
			},
			Title: "Low buffer cache hit ratio",
			Describe: func(v float64) string {
				return fmt.Sprintf("Buffer cache hit ratio at %.1f%%: too many logical reads miss the cache and fall through to disk", v)
			},
			Recommend: "Review db_cache_size and the buffer cache advisory; check for large full table scans evicting hot blocks",
		},
		{
			Name: "library_cache_hit_ratio", Category: "memory",
			Warning: 95, Critical: 90, Below: true, Unit: UnitPercent,
			Evaluator: func(r *ParsedReport) (float64, bool) {
				return r.MetricValue(InstanceEfficiency, "library hit")
			},
			Title: "Low library cache hit ratio",
			Describe: func(v float64) string {
				return fmt.Sprintf("Library cache hit ratio at %.1f%%: cursors are being reloaded instead of shared", v)
			},
			Recommend: "Increase shared_pool_size or reduce hard parsing with bind variables and cursor_sharing",
		},
		{
			Name: "soft_parse_ratio", Category: "parsing",
			Warning: 80, Critical: 60, Below: true, Unit: UnitPercent,
			Evaluator: func(r *ParsedReport) (float64, bool) {
				return r.MetricValue(InstanceEfficiency, "soft parse")
			},
			Title: "Low soft parse ratio",
			Describe: func(v float64) string {
				return fmt.Sprintf("Soft parse ratio at %.1f%%: a large share of parses are hard parses", v)
			},
			Recommend: "Use bind variables in application SQL; verify session_cached_cursors and cursor_sharing settings",
		},
		// Wait latencies
		{
			Name: "log_file_sync_waits", Category: "io",
			Warning: 10, Critical: 20, Unit: UnitMs,
			Evaluator: func(r *ParsedReport) (float64, bool) {
				return r.WaitAvgMs("log file sync")
			},
			Title: "Slow commit latency",
			Describe: func(v float64) string {
				return fmt.Sprintf("Average log file sync wait is %.1fms: commits are stalling on redo writes", v)
			},
			Recommend: "Check redo log placement and storage write latency; look for commit-per-row application patterns",
		},
		{
			Name: "sequential_read_latency", Category: "io",
			Warning: 10, Critical: 20, Unit: UnitMs,
			Evaluator: func(r *ParsedReport) (float64, bool) {
				return r.WaitAvgMs("db file sequential read")
			},
			Title: "Slow single-block reads",
			Describe: func(v float64) string {
				return fmt.Sprintf("Average db file sequential read is %.1fms: index access is paying high storage latency", v)
			},
			Recommend: "Investigate storage-side latency and hot datafiles; consider moving hot segments to faster media",
		},
		// Workload shape
		{
			Name: "single_event_dominance", Category: "workload",
			Warning: 30, Critical: 50, Unit: UnitPercent,
			Evaluator: func(r *ParsedReport) (float64, bool) {
				var max float64
				found := false
				for _, e := range r.WaitEventList() {
					if e.PercentDBTime == nil || isCPUEvent(e.EventName) {
						continue
					}
					if *e.PercentDBTime > max {
						max = *e.PercentDBTime
					}
					found = true
				}
				return max, found
			},
			Title: "Single wait event dominates DB time",
			Describe: func(v float64) string {
				return fmt.Sprintf("One wait event accounts for %.1f%% of DB time: the instance has a single dominant bottleneck", v)
			},
			Recommend: "Drill into the top wait event's class and associated SQL before tuning anything else",
		},
		{
			Name: "cpu_bound_instance", Category: "cpu",
			Warning: 90, Critical: math.Inf(1), Unit: UnitPercent,
			Evaluator: func(r *ParsedReport) (float64, bool) {
				for _, e := range r.WaitEventList() {
					if e.PercentDBTime != nil && isCPUEvent(e.EventName) {
						return *e.PercentDBTime, true
					}
				}
				return 0, false
			},
			Title: "Instance is CPU bound",
			Describe: func(v float64) string {
				return fmt.Sprintf("DB CPU accounts for %.1f%% of DB time: the workload is compute bound rather than wait bound", v)
			},
			Recommend: "Identify the top CPU-consuming SQL; check for excessive logical reads and missing indexes",
		},
		{
			Name: "hard_parse_rate", Category: "parsing",
			Warning: 20, Critical: 100, Unit: UnitPerSec,
			Evaluator: func(r *ParsedReport) (float64, bool) {
				return r.LoadValue("hard parses")
			},
			Title: "High hard parse rate",
			Describe: func(v float64) string {
				return fmt.Sprintf("%.1f hard parses per second: the shared pool is churning through new cursors", v)
			},
			Recommend: "Eliminate literal SQL with bind variables; as a stopgap consider cursor_sharing=FORCE",
		},
		{
			Name: "top_sql_dominance", Category: "workload",
			Warning: 50, Critical: math.Inf(1), Unit: UnitPercent,
			Evaluator: func(r *ParsedReport) (float64, bool) {
				var top, total float64
				for _, s := range r.SQLStatList() {
					if s.ElapsedTimeSeconds == nil {
						continue
					}
					total += *s.ElapsedTimeSeconds
					if *s.ElapsedTimeSeconds > top {
						top = *s.ElapsedTimeSeconds
					}
				}
				if total <= 0 {
					return 0, false
				}
				return top / total * 100, true
			},
			Title: "One SQL statement dominates elapsed time",
			Describe: func(v float64) string {
				return fmt.Sprintf("The top SQL statement accounts for %.1f%% of captured elapsed time", v)
			},
			Recommend: "Tune the top statement first: its plan, its execution count, and whether it belongs in the critical path at all",
		},
		// RAC
		{
			Name: "gc_block_latency", Category: "cluster",
			Warning: 4, Critical: 8, Unit: UnitMs,
			Evaluator: func(r *ParsedReport) (float64, bool) {
				if r.FormatSignature.Topology != TopologyRAC {
					return 0, false
				}
				var max float64
				found := false
				for _, frag := range []string{"gc cr block receive", "gc current block receive"} {
					if v, ok := r.WaitAvgMs(frag); ok {
						found = true
						if v > max {
							max = v
						}
					}
				}
				if !found {
					for _, frag := range []string{"gc cr block receive", "gc current block receive"} {
						if v, ok := r.MetricValue(GlobalCache, frag); ok {
							found = true
							if v > max {
								max = v
							}
						}
					}
				}
				return max, found
			},
			Title: "Slow global cache block transfers",
			Describe: func(v float64) string {
				return fmt.Sprintf("Global cache block receive latency at %.1fms: interconnect or remote LMS is a bottleneck", v)
			},
			Recommend: "Check the cluster interconnect for saturation or misconfiguration; review LMS process CPU on the serving instances",
		},
	}
}

// isCPUEvent reports whether a wait-event row is actually the DB CPU line
// that AWR folds into the top-events table.
func isCPUEvent(name string) bool {
	n := normalizeName(name)
	return n == "db cpu" || n == "cpu time"
}

// ruleSeverity classifies a measured value against a rule's bounds.
// Comparisons are strict: a value exactly on a bound does not cross it.
func ruleSeverity(rule Rule, value float64) (Severity, bool) {
	if rule.Below {
		switch {
		case value < rule.Critical:
			return SeverityCritical, true
		case value < rule.Warning:
			return SeverityWarning, true
		}
		return "", false
	}
	switch {
	case value > rule.Critical:
		return SeverityCritical, true
	case value > rule.Warning:
		return SeverityWarning, true
	}
	return "", false
}

// priorityScore maps how far the value is past its bound onto 0..100.
// Warnings score 40..74, criticals 75..100, so the score never reorders
// findings across severities.
func priorityScore(rule Rule, value float64, sev Severity) int {
	span := math.Abs(rule.Critical - rule.Warning)
	if span == 0 || math.IsInf(span, 0) {
		span = math.Max(math.Abs(rule.Warning), 1)
	}
	var frac float64
	if sev == SeverityCritical {
		if rule.Below {
			frac = (rule.Critical - value) / span
		} else {
			frac = (value - rule.Critical) / span
		}
		return 75 + int(math.Round(25*clamp01(frac)))
	}
	if rule.Below {
		frac = (rule.Warning - value) / span
	} else {
		frac = (value - rule.Warning) / span
	}
	return 40 + int(math.Round(34*clamp01(frac)))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Diagnose runs every rule against the report and returns the findings in
// deterministic order: severity first, then priority score descending,
// then rule name. A rule whose evaluator cannot find its inputs, or
// panics, abstains; it never fails the run.
func Diagnose(report *ParsedReport, rules []Rule) []DiagnosticFinding {
	findings := []DiagnosticFinding{}

	for _, rule := range rules {
		if rule.Disabled {
			continue
		}
		value, found := evalRule(rule, report)
		if !found {
			continue
		}
		sev, fired := ruleSeverity(rule, value)
		if !fired {
			continue
		}

		evidence := map[string]string{
			"value":   fmt.Sprintf("%.2f", value),
			"warning": formatBound(rule.Warning),
		}
		if !math.IsInf(rule.Critical, 0) {
			evidence["critical"] = formatBound(rule.Critical)
		}
		if rule.Unit != "" {
			evidence["unit"] = rule.Unit
		}

		findings = append(findings, DiagnosticFinding{
			Severity:       sev,
			Category:       rule.Category,
			RuleName:       rule.Name,
			Title:          rule.Title,
			Description:    rule.Describe(value),
			Recommendation: rule.Recommend,
			Evidence:       evidence,
			PriorityScore:  priorityScore(rule, value, sev),
		})
	}

	SortFindings(findings)
	return findings
}

// evalRule shields the run from a panicking evaluator: a rule that blows
// up on partial data abstains instead of killing the whole diagnosis.
func evalRule(rule Rule, report *ParsedReport) (value float64, found bool) {
	defer func() {
		if recover() != nil {
			value, found = 0, false
		}
	}()
	return rule.Evaluator(report)
}

func formatBound(v float64) string {
	return fmt.Sprintf("%g", v)
}

// SortFindings orders findings by severity rank, then priority score
// descending, then rule name. The order is total, so equal inputs always
// serialize identically.
func SortFindings(findings []DiagnosticFinding) {
	sort.SliceStable(findings, func(i, j int) bool {
		ri, rj := SeverityRank(findings[i].Severity), SeverityRank(findings[j].Severity)
		if ri != rj {
			return ri < rj
		}
		if findings[i].PriorityScore != findings[j].PriorityScore {
			return findings[i].PriorityScore > findings[j].PriorityScore
		}
		return findings[i].RuleName < findings[j].RuleName
	})
}
