package extract

import (
	"strings"

	"github.com/dmitriimaksimovdevelop/awrlens/internal/htmldoc"
	"github.com/dmitriimaksimovdevelop/awrlens/internal/model"
	"github.com/dmitriimaksimovdevelop/awrlens/internal/section"
)

// waitEvents extracts the top-events table. The first table with an event
// column wins; summary rows are skipped; a missing avg-wait column is
// reconstructed from total time and wait count.
func waitEvents(span section.Span) (Result, bool) {
	for _, t := range span.Tables {
		if res, ok := waitEventTable(span.Kind, t); ok {
			return res, true
		}
	}
	return Result{}, false
}

func waitEventTable(kind model.SectionKind, t *htmldoc.Table) (Result, bool) {
	headers := t.Header()
	if headers == nil {
		return Result{}, false
	}
	eventCol, ok := findColumn(headers, "event")
	if !ok {
		return Result{}, false
	}
	waitsCol, hasWaits := findColumn(headers, "waits")
	timeCol, hasTime := findColumn(headers, "total wait time (sec)", "total wait time", "time waited (s)", "time(s)", "wait time")
	avgCol, hasAvg := findColumn(headers, "avg wait (ms)", "avg wait", "average wait (ms)", "avg(ms)")
	pctCol, hasPct := findColumn(headers, "% db time", "%db time", "pct of db time", "% total call time", "% total")
	classCol, hasClass := findColumn(headers, "wait class")

	var res Result
	for _, row := range t.Body() {
		name := strings.TrimSpace(cell(row, eventCol))
		if name == "" || isSummaryRow(name) {
			continue
		}
		rec := model.WaitEventRecord{EventName: name}
		if hasWaits {
			rec.Waits = res.intField(kind, headers[waitsCol], cell(row, waitsCol))
		}
		if hasTime {
			rec.TimeWaitedSeconds = res.floatField(kind, headers[timeCol], cell(row, timeCol))
		}
		if hasAvg {
			rec.AvgWaitMs = res.floatField(kind, headers[avgCol], cell(row, avgCol))
			if rec.AvgWaitMs != nil && avgInSeconds(headers[avgCol]) {
				ms := *rec.AvgWaitMs * 1000
				rec.AvgWaitMs = &ms
			}
		}
		if rec.AvgWaitMs == nil && rec.TimeWaitedSeconds != nil && rec.Waits != nil && *rec.Waits > 0 {
			ms := *rec.TimeWaitedSeconds / float64(*rec.Waits) * 1000
			rec.AvgWaitMs = &ms
		}
		if hasPct {
			rec.PercentDBTime = res.floatField(kind, headers[pctCol], cell(row, pctCol))
		}
		if hasClass {
			rec.WaitClass = strings.TrimSpace(cell(row, classCol))
		}
		res.Records.WaitEvents = append(res.Records.WaitEvents, rec)
	}
	if res.Records.WaitEvents == nil {
		res.Records.WaitEvents = []model.WaitEventRecord{}
	}
	return res, len(res.Records.WaitEvents) > 0 || len(t.Body()) == 0
}

// isSummaryRow filters the aggregate lines AWR appends to event tables.
func isSummaryRow(name string) bool {
	lower := strings.ToLower(name)
	return lower == "total" || strings.HasPrefix(lower, "total ") ||
		lower == "other" || strings.HasPrefix(lower, "sum of")
}

// avgInSeconds reports whether the avg-wait column is labeled in seconds
// rather than milliseconds.
func avgInSeconds(header string) bool {
	h := normalizeHeader(header)
	return strings.Contains(h, "(s)") && !strings.Contains(h, "(ms)")
}

func (r *Result) floatField(kind model.SectionKind, field, raw string) *float64 {
	v, ok, benign := parseFloat(raw)
	if ok {
		return &v
	}
	if !benign {
		r.Warnings = append(r.Warnings, model.FieldWarning{Kind: kind, Field: field, Raw: strings.TrimSpace(raw)})
	}
	return nil
}

func (r *Result) intField(kind model.SectionKind, field, raw string) *int64 {
	v, ok, benign := parseInt(raw)
	if ok {
		return &v
	}
	if !benign {
		r.Warnings = append(r.Warnings, model.FieldWarning{Kind: kind, Field: field, Raw: strings.TrimSpace(raw)})
	}
	return nil
}
