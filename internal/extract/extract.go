package extract

import (
	"strings"

	"github.com/dmitriimaksimovdevelop/awrlens/internal/htmldoc"
	"github.com/dmitriimaksimovdevelop/awrlens/internal/model"
	"github.com/dmitriimaksimovdevelop/awrlens/internal/section"
)

// Result is one section's extraction outcome.
type Result struct {
	Records  model.SectionRecords
	Warnings []model.FieldWarning
}

// Section dispatches to the extractor for the span's kind. A nil result
// with ok=false means no table in the span had a recognizable structure.
func Section(span section.Span) (Result, bool) {
	switch span.Kind {
	case model.WaitEvents:
		return waitEvents(span)
	case model.SqlStats:
		return sqlStats(span)
	case model.LoadProfile, model.GlobalCache:
		return loadStyleMetrics(span)
	case model.InstanceEfficiency:
		return efficiency(span)
	default:
		return namedMetrics(span)
	}
}

// loadStyleMetrics handles load-profile shaped sections, which appear in
// three layouts: a row-wise table with Per Second / Per Transaction
// columns, a transposed table whose headers are the metric labels, and a
// plain key-value table.
func loadStyleMetrics(span section.Span) (Result, bool) {
	for _, t := range span.Tables {
		if res, ok := rowWiseLoad(span.Kind, t); ok {
			return res, true
		}
	}
	for _, t := range span.Tables {
		if res, ok := transposedLoad(span.Kind, t); ok {
			return res, true
		}
	}
	for _, t := range span.Tables {
		if res, ok := keyValueMetrics(span.Kind, t, ""); ok {
			return res, true
		}
	}
	return Result{}, false
}

func rowWiseLoad(kind model.SectionKind, t *htmldoc.Table) (Result, bool) {
	headers := t.Header()
	if headers == nil {
		return Result{}, false
	}
	perSec, ok := findColumn(headers, "per second", "per sec")
	if !ok {
		return Result{}, false
	}
	perTxn, hasTxn := findColumn(headers, "per transaction", "per txn", "per trans")

	var res Result
	for _, row := range t.Body() {
		name := metricLabel(cell(row, 0))
		if name == "" {
			continue
		}
		res.appendMetric(kind, name, model.UnitPerSec, cell(row, perSec), headers[perSec])
		if hasTxn {
			res.appendMetric(kind, name, model.UnitPerTxn, cell(row, perTxn), headers[perTxn])
		}
	}
	return res.ensureMetrics(), len(res.Records.Metrics) > 0
}

// transposedLoad handles the layout where each metric is a column: the
// header row holds the labels and the first body row holds the values.
func transposedLoad(kind model.SectionKind, t *htmldoc.Table) (Result, bool) {
	headers := t.Header()
	body := t.Body()
	if headers == nil || len(body) == 0 {
		return Result{}, false
	}
	values := body[0]
	var res Result
	for i, h := range headers {
		name := metricLabel(h)
		if name == "" || i >= len(values) {
			continue
		}
		res.appendMetric(kind, name, transposedUnit(name), values[i], name)
	}
	return res.ensureMetrics(), len(res.Records.Metrics) > 0
}

// transposedUnit derives the unit from a transposed-layout label suffix,
// so "DB Time(s)" is seconds rather than a rate. Labels without a unit
// suffix keep per_sec, the dominant denomination in this layout.
func transposedUnit(label string) string {
	lower := strings.ToLower(label)
	switch {
	case strings.HasSuffix(lower, "(s)"):
		return model.UnitSeconds
	case strings.HasSuffix(lower, "(ms)"):
		return model.UnitMs
	case strings.HasSuffix(lower, "(mb)"):
		return model.UnitMB
	}
	return model.UnitPerSec
}

func keyValueMetrics(kind model.SectionKind, t *htmldoc.Table, unit string) (Result, bool) {
	if !t.IsKeyValue() {
		return Result{}, false
	}
	var res Result
	for _, row := range t.Rows {
		if len(row) != 2 {
			continue
		}
		name := metricLabel(row[0])
		if name == "" {
			continue
		}
		res.appendMetric(kind, name, unit, row[1], name)
	}
	return res.ensureMetrics(), len(res.Records.Metrics) > 0
}

// efficiency handles the Instance Efficiency block. Oracle renders it as
// two label/value pairs per row, so cells are walked pairwise instead of
// by column.
func efficiency(span section.Span) (Result, bool) {
	for _, t := range span.Tables {
		var res Result
		for _, row := range t.Rows {
			for i := 0; i+1 < len(row); i += 2 {
				name := metricLabel(row[i])
				if name == "" || looksLikeValue(name) {
					continue
				}
				res.appendMetric(span.Kind, name, model.UnitPercent, row[i+1], name)
			}
		}
		if len(res.Records.Metrics) > 0 {
			return res.ensureMetrics(), true
		}
	}
	return Result{}, false
}

func looksLikeValue(s string) bool {
	_, ok, _ := parseFloat(s)
	return ok
}

// namedMetrics is the generic extractor for statistic tables: a name
// column plus a preferred value column found by header synonyms, falling
// back to the last column.
func namedMetrics(span section.Span) (Result, bool) {
	nameSyns, valueSyns, unit := metricColumns(span.Kind)
	for _, t := range span.Tables {
		headers := t.Header()
		if headers == nil {
			continue
		}
		nameCol := 0
		if len(nameSyns) > 0 {
			if idx, ok := findColumn(headers, nameSyns...); ok {
				nameCol = idx
			}
		}
		valueCol, ok := findColumn(headers, valueSyns...)
		valueUnit := unit
		if ok {
			h := normalizeHeader(headers[valueCol])
			switch {
			case strings.Contains(h, "per second"):
				valueUnit = model.UnitPerSec
			case strings.Contains(h, "per trans"):
				valueUnit = model.UnitPerTxn
			case span.Kind == model.InstanceActivity && strings.Contains(h, "total"):
				valueUnit = ""
			}
		} else {
			valueCol = len(headers) - 1
			valueUnit = ""
		}
		if valueCol == nameCol {
			continue
		}

		var res Result
		for _, row := range t.Body() {
			name := metricLabel(cell(row, nameCol))
			if name == "" {
				continue
			}
			res.appendMetric(span.Kind, name, valueUnit, cell(row, valueCol), headers[valueCol])
		}
		if len(res.Records.Metrics) > 0 {
			return res.ensureMetrics(), true
		}
	}
	for _, t := range span.Tables {
		if res, ok := keyValueMetrics(span.Kind, t, unit); ok {
			return res, true
		}
	}
	return Result{}, false
}

// metricColumns returns the column synonyms for the generic sections.
func metricColumns(kind model.SectionKind) (name, value []string, unit string) {
	switch kind {
	case model.TimeModel:
		return []string{"statistic name"}, []string{"time (s)", "time(s)"}, model.UnitSeconds
	case model.InstanceActivity:
		return []string{"statistic"}, []string{"per second", "total"}, model.UnitPerSec
	case model.MemoryStats:
		return []string{"component", "name", "sga regions"}, []string{"end (mb)", "current size (mb)", "end size (mb)", "size (mb)", "end value"}, model.UnitMB
	case model.SegmentStats:
		return []string{"object name"}, []string{"logical reads", "physical reads", "row lock waits", "% of capture"}, ""
	case model.IoStats:
		return []string{"function name", "filetype name", "tablespace", "function"}, []string{"reqs per sec", "read reqs", "reads: data", "total reqs", "av rd(ms)"}, ""
	}
	return nil, nil, ""
}

func (r *Result) appendMetric(kind model.SectionKind, name, unit, raw, field string) {
	v, ok, benign := parseFloat(raw)
	var value *float64
	if ok {
		value = &v
	} else if !benign {
		r.Warnings = append(r.Warnings, model.FieldWarning{Kind: kind, Field: field, Raw: strings.TrimSpace(raw)})
	}
	r.Records.Metrics = append(r.Records.Metrics, model.MetricRecord{
		MetricName: name,
		Value:      value,
		Unit:       unit,
	})
}

// ensureMetrics pins the metrics slice so an extracted-but-empty section
// still serializes as [].
func (r Result) ensureMetrics() Result {
	if r.Records.Metrics == nil {
		r.Records.Metrics = []model.MetricRecord{}
	}
	return r
}
