package extract

import (
	"strings"

	"github.com/dmitriimaksimovdevelop/awrlens/internal/htmldoc"
	"github.com/dmitriimaksimovdevelop/awrlens/internal/model"
	"github.com/dmitriimaksimovdevelop/awrlens/internal/section"
)

// sqlStats extracts a SQL-ordered-by table. The sql_id column is the only
// hard requirement; every numeric column is optional.
func sqlStats(span section.Span) (Result, bool) {
	for _, t := range span.Tables {
		if res, ok := sqlStatTable(span.Kind, t); ok {
			return res, true
		}
	}
	return Result{}, false
}

func sqlStatTable(kind model.SectionKind, t *htmldoc.Table) (Result, bool) {
	headers := t.Header()
	if headers == nil {
		return Result{}, false
	}
	idCol, ok := findColumn(headers, "sql id", "sql_id", "sqlid")
	if !ok {
		return Result{}, false
	}
	execCol, hasExec := findColumn(headers, "executions", "execs")
	cpuCol, hasCPU := findColumn(headers, "cpu time (s)", "cpu time(s)", "cpu (s)", "cpu time")
	elaCol, hasEla := findColumn(headers, "elapsed time (s)", "elapsed time(s)", "elapsed (s)", "elapsed time")
	getsCol, hasGets := findColumn(headers, "buffer gets", "gets")
	readsCol, hasReads := findColumn(headers, "physical reads", "disk reads", "reads")
	rowsCol, hasRows := findColumn(headers, "rows processed", "rows")

	var res Result
	for _, row := range t.Body() {
		id := strings.TrimSpace(cell(row, idCol))
		if id == "" {
			continue
		}
		rec := model.SqlStatRecord{SQLID: id}
		if hasExec {
			rec.Executions = res.intField(kind, headers[execCol], cell(row, execCol))
		}
		if hasCPU {
			rec.CPUTimeSeconds = res.floatField(kind, headers[cpuCol], cell(row, cpuCol))
		}
		if hasEla {
			rec.ElapsedTimeSeconds = res.floatField(kind, headers[elaCol], cell(row, elaCol))
		}
		if hasGets {
			rec.BufferGets = res.intField(kind, headers[getsCol], cell(row, getsCol))
		}
		if hasReads {
			rec.DiskReads = res.intField(kind, headers[readsCol], cell(row, readsCol))
		}
		if hasRows {
			rec.RowsProcessed = res.intField(kind, headers[rowsCol], cell(row, rowsCol))
		}
		res.Records.SQLStats = append(res.Records.SQLStats, rec)
	}
	if res.Records.SQLStats == nil {
		res.Records.SQLStats = []model.SqlStatRecord{}
	}
	return res, len(res.Records.SQLStats) > 0 || len(t.Body()) == 0
}
