package model

import "strings"

// normalizeName lowercases, collapses internal whitespace and strips the
// trailing "%" or ":" that Oracle appends to some metric labels.
func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, ":")
	s = strings.TrimSuffix(s, "%")
	return strings.Join(strings.Fields(s), " ")
}

// SectionMetrics returns the metric records of a section, or nil when the
// section was not extracted.
func (r *ParsedReport) SectionMetrics(kind SectionKind) []MetricRecord {
	sec, ok := r.Sections[kind]
	if !ok {
		return nil
	}
	return sec.Metrics
}

// WaitEventList returns the wait-event rows, or nil when the section was
// not extracted.
func (r *ParsedReport) WaitEventList() []WaitEventRecord {
	sec, ok := r.Sections[WaitEvents]
	if !ok {
		return nil
	}
	return sec.WaitEvents
}

// SQLStatList returns the SQL statistic rows, or nil when the section was
// not extracted.
func (r *ParsedReport) SQLStatList() []SqlStatRecord {
	sec, ok := r.Sections[SqlStats]
	if !ok {
		return nil
	}
	return sec.SQLStats
}

// MetricValue looks up a named metric in a section. The name is matched
// after normalization, first by equality, then by substring, so
// "buffer hit" finds "Buffer Hit %:". Records with null values are skipped.
func (r *ParsedReport) MetricValue(kind SectionKind, name string) (float64, bool) {
	metrics := r.SectionMetrics(kind)
	want := normalizeName(name)
	for _, m := range metrics {
		if m.Value != nil && normalizeName(m.MetricName) == want {
			return *m.Value, true
		}
	}
	for _, m := range metrics {
		if m.Value != nil && strings.Contains(normalizeName(m.MetricName), want) {
			return *m.Value, true
		}
	}
	return 0, false
}

// LoadValue looks up a per-second load-profile metric. Load-profile rows
// carry both per-second and per-transaction records under the same name;
// only the per-second one answers here.
func (r *ParsedReport) LoadValue(name string) (float64, bool) {
	want := normalizeName(name)
	for _, m := range r.SectionMetrics(LoadProfile) {
		if m.Value == nil || m.Unit == UnitPerTxn {
			continue
		}
		if normalizeName(m.MetricName) == want {
			return *m.Value, true
		}
	}
	for _, m := range r.SectionMetrics(LoadProfile) {
		if m.Value == nil || m.Unit == UnitPerTxn {
			continue
		}
		if strings.Contains(normalizeName(m.MetricName), want) {
			return *m.Value, true
		}
	}
	return 0, false
}

// WaitAvgMs returns the average wait latency of the first event whose name
// contains the given fragment (case-insensitive).
func (r *ParsedReport) WaitAvgMs(fragment string) (float64, bool) {
	want := normalizeName(fragment)
	for _, e := range r.WaitEventList() {
		if e.AvgWaitMs != nil && strings.Contains(normalizeName(e.EventName), want) {
			return *e.AvgWaitMs, true
		}
	}
	return 0, false
}
