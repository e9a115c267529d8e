package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dmitriimaksimovdevelop/awrlens/internal/model"
)

// WriteText renders a terminal-friendly summary of the analysis: report
// identity, parse quality, then findings in their ranked order.
func WriteText(w io.Writer, analysis *model.Analysis) error {
	var sb strings.Builder
	r := analysis.Report

	sb.WriteString(fmt.Sprintf("Report: %s", orUnknown(r.DBInfo.DBName)))
	if r.DBInfo.InstanceName != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", r.DBInfo.InstanceName))
	}
	sb.WriteString(fmt.Sprintf(", Oracle %s, topology %s\n",
		r.FormatSignature.OracleVersion, r.FormatSignature.Topology))

	if r.SnapshotInfo.BeginSnapID != nil && r.SnapshotInfo.EndSnapID != nil {
		sb.WriteString(fmt.Sprintf("Window: snap %d -> %d", *r.SnapshotInfo.BeginSnapID, *r.SnapshotInfo.EndSnapID))
		if r.SnapshotInfo.ElapsedMinutes != nil {
			sb.WriteString(fmt.Sprintf(", %.1f min elapsed", *r.SnapshotInfo.ElapsedMinutes))
		}
		if r.SnapshotInfo.DBTimeMinutes != nil {
			sb.WriteString(fmt.Sprintf(", %.1f min DB time", *r.SnapshotInfo.DBTimeMinutes))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("Completeness: %d%%, Health: %d/100\n",
		r.CompletenessScore, analysis.HealthScore))

	if len(r.SectionErrors) > 0 {
		sb.WriteString(fmt.Sprintf("\nUnparsed sections (%d):\n", len(r.SectionErrors)))
		for _, se := range r.SectionErrors {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", se.Kind, se.Type))
		}
	}
	if n := len(r.FieldWarnings); n > 0 {
		sb.WriteString(fmt.Sprintf("Field warnings: %d\n", n))
	}

	if len(analysis.Findings) == 0 {
		sb.WriteString("\nNo findings.\n")
	} else {
		sb.WriteString(fmt.Sprintf("\nFindings (%d):\n", len(analysis.Findings)))
		for _, f := range analysis.Findings {
			sb.WriteString(fmt.Sprintf("  [%s] %s: %s (priority %d)\n",
				strings.ToUpper(string(f.Severity)), f.RuleName, f.Description, f.PriorityScore))
			sb.WriteString(fmt.Sprintf("      -> %s\n", f.Recommendation))
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func orUnknown(s string) string {
	if s == "" {
		return "(unknown)"
	}
	return s
}
