package extract

import (
	"strings"

	"github.com/dmitriimaksimovdevelop/awrlens/internal/htmldoc"
	"github.com/dmitriimaksimovdevelop/awrlens/internal/model"
)

// Preamble pulls database identity and snapshot interval out of the
// summary tables at the top of the report. Both renderings are handled:
// the header-row table AWR writes and the key-value table sqlplus text
// conversions produce. Missing fields stay zero; the preamble is never a
// parse failure.
func Preamble(doc *htmldoc.Document) (model.DBInfo, model.SnapshotInfo) {
	var db model.DBInfo
	var snap model.SnapshotInfo

	for _, t := range doc.Tables() {
		if db.DBName == "" {
			fillDBInfo(&db, t)
		}
		if snap.BeginSnapID == nil {
			fillSnapshot(&snap, t)
		}
		if db.DBName != "" && snap.BeginSnapID != nil {
			break
		}
	}
	return db, snap
}

func fillDBInfo(db *model.DBInfo, t *htmldoc.Table) {
	headers := t.Header()
	if headers != nil {
		nameCol, ok := findColumn(headers, "db name")
		if !ok {
			return
		}
		body := t.Body()
		if len(body) == 0 {
			return
		}
		row := body[0]
		db.DBName = strings.TrimSpace(cell(row, nameCol))
		if idx, ok := findColumn(headers, "db id"); ok {
			db.DBID = strings.TrimSpace(cell(row, idx))
		}
		if idx, ok := findColumn(headers, "instance"); ok {
			db.InstanceName = strings.TrimSpace(cell(row, idx))
		}
		if idx, ok := findColumn(headers, "host name", "host"); ok {
			db.HostName = strings.TrimSpace(cell(row, idx))
		}
		if idx, ok := findColumn(headers, "platform"); ok {
			db.Platform = strings.TrimSpace(cell(row, idx))
		}
		if idx, ok := findColumn(headers, "release"); ok {
			db.Release = strings.TrimSpace(cell(row, idx))
		}
		if idx, ok := findColumn(headers, "startup time"); ok {
			db.StartupTime = strings.TrimSpace(cell(row, idx))
		}
		if idx, ok := findColumn(headers, "container name", "pdb name"); ok {
			db.ContainerName = strings.TrimSpace(cell(row, idx))
		}
		return
	}

	if !t.IsKeyValue() {
		return
	}
	kv := t.KeyValues()
	lookup := func(keys ...string) string {
		for _, want := range keys {
			for k, v := range kv {
				if normalizeHeader(k) == want {
					return v
				}
			}
		}
		return ""
	}
	if name := lookup("db name"); name != "" {
		db.DBName = name
		db.DBID = lookup("db id")
		db.InstanceName = lookup("instance", "instance name")
		db.HostName = lookup("host name", "host")
		db.Platform = lookup("platform")
		db.Release = lookup("release")
		db.StartupTime = lookup("startup time")
		db.ContainerName = lookup("container name", "pdb name")
	}
}

// fillSnapshot reads the Begin Snap / End Snap / Elapsed / DB Time rows.
// The table's first column is the row label, the second the snap id, the
// third the snap time.
func fillSnapshot(snap *model.SnapshotInfo, t *htmldoc.Table) {
	for _, row := range t.Rows {
		if len(row) < 2 {
			continue
		}
		label := normalizeHeader(row[0])
		switch {
		case strings.HasPrefix(label, "begin snap"):
			if v, ok, _ := parseInt(row[1]); ok {
				snap.BeginSnapID = &v
			}
			if len(row) > 2 {
				snap.BeginTime = strings.TrimSpace(row[2])
			}
		case strings.HasPrefix(label, "end snap"):
			if v, ok, _ := parseInt(row[1]); ok {
				snap.EndSnapID = &v
			}
			if len(row) > 2 {
				snap.EndTime = strings.TrimSpace(row[2])
			}
		case strings.HasPrefix(label, "elapsed"):
			if v, ok, _ := parseFloat(row[1]); ok {
				snap.ElapsedMinutes = &v
			}
		case strings.HasPrefix(label, "db time"):
			if v, ok, _ := parseFloat(row[1]); ok {
				snap.DBTimeMinutes = &v
			}
		}
	}
}
