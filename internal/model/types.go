// Package model defines the canonical, version-independent data types for
// parsed AWR/ASH reports and diagnostic findings. These types are serialized
// to JSON and consumed by downstream storage/UI layers.
// Schema version: 1.0.0
package model

import "encoding/json"

// OracleVersion is the detected Oracle major version.
type OracleVersion string

const (
	Oracle11g      OracleVersion = "11g"
	Oracle12c      OracleVersion = "12c"
	Oracle19c      OracleVersion = "19c"
	Oracle21c      OracleVersion = "21c"
	VersionUnknown OracleVersion = "unknown"
)

// Topology is the detected database topology.
type Topology string

const (
	TopologySingle  Topology = "single"
	TopologyRAC     Topology = "rac"
	TopologyCDB     Topology = "cdb_pdb"
	TopologyUnknown Topology = "unknown"
)

// FormatSignature identifies the report's version/topology variant.
// Derived once per parse run, immutable afterwards.
type FormatSignature struct {
	OracleVersion OracleVersion `json:"oracle_version"`
	Topology      Topology      `json:"topology"`
}

// SectionKind names a logical report section, independent of the heading
// text any particular Oracle version uses for it.
type SectionKind string

const (
	LoadProfile        SectionKind = "load_profile"
	WaitEvents         SectionKind = "wait_events"
	SqlStats           SectionKind = "sql_stats"
	IoStats            SectionKind = "io_stats"
	InstanceActivity   SectionKind = "instance_activity"
	MemoryStats        SectionKind = "memory_stats"
	TimeModel          SectionKind = "time_model"
	SegmentStats       SectionKind = "segment_stats"
	InstanceEfficiency SectionKind = "instance_efficiency"
	GlobalCache        SectionKind = "global_cache"
)

// AllKinds lists every section kind in a fixed order.
func AllKinds() []SectionKind {
	return []SectionKind{
		LoadProfile, WaitEvents, SqlStats, IoStats, InstanceActivity,
		MemoryStats, TimeModel, SegmentStats, InstanceEfficiency, GlobalCache,
	}
}

// AttemptedKinds returns the kinds relevant to the given topology.
// RAC-only kinds are not attempted for non-RAC reports, so their absence
// does not count against completeness.
func AttemptedKinds(t Topology) []SectionKind {
	var kinds []SectionKind
	for _, k := range AllKinds() {
		if k == GlobalCache && t != TopologyRAC {
			continue
		}
		kinds = append(kinds, k)
	}
	return kinds
}

// Canonical unit tags used on MetricRecord.
const (
	UnitPerSec  = "per_sec"
	UnitPerTxn  = "per_txn"
	UnitPercent = "pct"
	UnitMs      = "ms"
	UnitSeconds = "sec"
	UnitMB      = "mb"
)

// MetricRecord is the common currency produced by generic field extractors:
// one named, unit-tagged value. InstanceLabel distinguishes per-instance
// rows in RAC reports.
type MetricRecord struct {
	MetricName    string   `json:"metric_name"`
	Value         *float64 `json:"value"`
	Unit          string   `json:"unit,omitempty"`
	InstanceLabel string   `json:"instance_label,omitempty"`
}

// WaitEventRecord is one row of a wait-event table. Numeric fields are
// pointers: a cell that could not be parsed stays null.
type WaitEventRecord struct {
	EventName         string   `json:"event_name"`
	Waits             *int64   `json:"waits"`
	TimeWaitedSeconds *float64 `json:"time_waited_seconds"`
	AvgWaitMs         *float64 `json:"avg_wait_ms"`
	PercentDBTime     *float64 `json:"percent_db_time"`
	WaitClass         string   `json:"wait_class,omitempty"`
}

// SqlStatRecord is one row of a SQL statistics table.
type SqlStatRecord struct {
	SQLID              string   `json:"sql_id"`
	Executions         *int64   `json:"executions"`
	CPUTimeSeconds     *float64 `json:"cpu_time_seconds"`
	ElapsedTimeSeconds *float64 `json:"elapsed_time_seconds"`
	BufferGets         *int64   `json:"buffer_gets"`
	DiskReads          *int64   `json:"disk_reads"`
	RowsProcessed      *int64   `json:"rows_processed"`
}

// SectionRecords holds the rows extracted for one section. Exactly one of
// the slices is populated, depending on the section kind; it serializes as
// a bare JSON array so the wire shape is sections[kind] = [...records].
type SectionRecords struct {
	Metrics    []MetricRecord    `json:"-"`
	WaitEvents []WaitEventRecord `json:"-"`
	SQLStats   []SqlStatRecord   `json:"-"`
}

// MarshalJSON emits whichever record slice this section carries, as a plain
// array. An extracted-but-empty section serializes as [].
func (s SectionRecords) MarshalJSON() ([]byte, error) {
	switch {
	case s.WaitEvents != nil:
		return json.Marshal(s.WaitEvents)
	case s.SQLStats != nil:
		return json.Marshal(s.SQLStats)
	case s.Metrics != nil:
		return json.Marshal(s.Metrics)
	}
	return []byte("[]"), nil
}

// UnmarshalJSON restores a section from its wire form. The record shape is
// recovered from the fields present on the first element.
func (s *SectionRecords) UnmarshalJSON(data []byte) error {
	var probe []map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if len(probe) == 0 {
		s.Metrics = []MetricRecord{}
		return nil
	}
	switch {
	case probe[0]["event_name"] != nil:
		return json.Unmarshal(data, &s.WaitEvents)
	case probe[0]["sql_id"] != nil:
		return json.Unmarshal(data, &s.SQLStats)
	}
	return json.Unmarshal(data, &s.Metrics)
}

// DBInfo carries the database identity read from the report preamble.
// Fields missing from the document are empty strings.
type DBInfo struct {
	DBName        string `json:"db_name"`
	DBID          string `json:"db_id,omitempty"`
	InstanceName  string `json:"instance_name"`
	HostName      string `json:"host_name,omitempty"`
	Platform      string `json:"platform,omitempty"`
	Release       string `json:"release,omitempty"`
	StartupTime   string `json:"startup_time,omitempty"`
	ContainerName string `json:"container_name,omitempty"`
}

// SnapshotInfo covers the begin/end snapshot interval of the report.
type SnapshotInfo struct {
	BeginSnapID    *int64   `json:"begin_snap_id"`
	EndSnapID      *int64   `json:"end_snap_id"`
	BeginTime      string   `json:"begin_time,omitempty"`
	EndTime        string   `json:"end_time,omitempty"`
	ElapsedMinutes *float64 `json:"elapsed_minutes"`
	DBTimeMinutes  *float64 `json:"db_time_minutes"`
}

// SectionErrorType discriminates local, non-fatal section failures.
type SectionErrorType string

const (
	SectionMissing        SectionErrorType = "section_missing"
	UnrecognizedStructure SectionErrorType = "unrecognized_structure"
)

// SectionError records one section that could not be extracted. Never fatal.
type SectionError struct {
	Kind SectionKind      `json:"kind"`
	Type SectionErrorType `json:"type"`
}

// FieldWarning records one cell that could not be converted to its
// canonical type. The field stays null; the row and section survive.
type FieldWarning struct {
	Kind  SectionKind `json:"kind"`
	Field string      `json:"field"`
	Raw   string      `json:"raw"`
}

// ParsedReport is the assembler's output: everything extracted from one
// document, plus a record of what could not be. Owned exclusively by the
// caller once returned; the parser keeps no reference.
type ParsedReport struct {
	FormatSignature   FormatSignature                `json:"format_signature"`
	DBInfo            DBInfo                         `json:"db_info"`
	SnapshotInfo      SnapshotInfo                   `json:"snapshot_info"`
	Sections          map[SectionKind]SectionRecords `json:"sections"`
	CompletenessScore int                            `json:"completeness_score"`
	SectionErrors     []SectionError                 `json:"section_errors"`
	FieldWarnings     []FieldWarning                 `json:"field_warnings,omitempty"`
	FileHash          string                         `json:"file_hash,omitempty"`
	Encoding          string                         `json:"encoding,omitempty"`
}

// Severity orders diagnostic findings. Critical sorts first.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// SeverityRank maps a severity to its sort rank.
func SeverityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	case SeverityInfo:
		return 2
	}
	return 3
}

// DiagnosticFinding is one rule's verdict. Produced fresh per run, never
// mutated after creation.
type DiagnosticFinding struct {
	Severity       Severity          `json:"severity"`
	Category       string            `json:"category"`
	RuleName       string            `json:"rule_name"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Recommendation string            `json:"recommendation"`
	Evidence       map[string]string `json:"evidence"`
	PriorityScore  int               `json:"priority_score"`
}

// Analysis is the full CLI/MCP output envelope: the canonical model plus
// the ranked findings produced from it.
type Analysis struct {
	Report      *ParsedReport       `json:"report"`
	Findings    []DiagnosticFinding `json:"findings"`
	HealthScore int                 `json:"health_score"`
}
