// Package section locates canonical report sections inside the parsed
// document stream. Each section kind carries the heading and anchor
// variants different Oracle versions use for it; a span runs from a
// recognized heading to the next recognized heading of any kind.
package section

import (
	"strings"

	"github.com/dmitriimaksimovdevelop/awrlens/internal/htmldoc"
	"github.com/dmitriimaksimovdevelop/awrlens/internal/model"
)

// Span is one located section: its matched heading text and every table
// between it and the next recognized section.
type Span struct {
	Kind    model.SectionKind
	Heading string
	Tables  []*htmldoc.Table
}

// variants lists, per kind, the lowercased heading fragments that identify
// it. Order within a kind is preference order; order across kinds is the
// classification priority (global cache before load profile, so "Global
// Cache Load Profile" never claims the load_profile slot).
var variants = []struct {
	kind      model.SectionKind
	fragments []string
	anchors   []string
}{
	{model.GlobalCache, []string{
		"global cache load profile",
		"global cache efficiency percentages",
		"global cache and enqueue services",
	}, []string{"globalcache", "gcload"}},
	{model.InstanceEfficiency, []string{
		"instance efficiency percentages",
		"instance efficiency",
	}, []string{"instanceefficiency", "efficiency"}},
	{model.TimeModel, []string{
		"time model statistics",
		"time model system stats",
	}, []string{"timemodel"}},
	{model.WaitEvents, []string{
		"top 10 foreground events by total wait time",
		"top 10 foreground events",
		"top 5 timed foreground events",
		"top 5 timed events",
		"foreground wait events",
		"wait events statistics",
	}, []string{"topevents", "waitevents", "top10fg", "top5timed"}},
	{model.LoadProfile, []string{
		"load profile",
	}, []string{"loadprofile"}},
	{model.SqlStats, []string{
		"sql ordered by elapsed time",
		"sql ordered by cpu time",
		"sql ordered by gets",
		"sql statistics",
		"top sql with top events",
	}, []string{"sqlelapsed", "sqlcpu", "sqlstatistics", "topsql"}},
	{model.IoStats, []string{
		"iostat by function summary",
		"iostat by filetype summary",
		"tablespace io stats",
		"file io stats",
		"io profile",
	}, []string{"iostat", "tablespaceio", "fileio", "ioprofile"}},
	{model.InstanceActivity, []string{
		"key instance activity stats",
		"instance activity stats",
	}, []string{"instanceactivity", "sysstat"}},
	{model.MemoryStats, []string{
		"memory dynamic components",
		"sga memory summary",
		"pga aggr summary",
		"memory statistics",
	}, []string{"memorystats", "sgasummary", "pgaaggr"}},
	{model.SegmentStats, []string{
		"segments by logical reads",
		"segments by physical reads",
		"segments by row lock waits",
		"segment statistics",
	}, []string{"segmentstats", "toplogical", "topphysical"}},
}

// classifyHeading maps a heading text to the first kind it matches.
func classifyHeading(text string) (model.SectionKind, bool) {
	lower := strings.ToLower(text)
	for _, v := range variants {
		for _, frag := range v.fragments {
			if strings.Contains(lower, frag) {
				return v.kind, true
			}
		}
	}
	return "", false
}

// classifyAnchor maps an anchor name to a kind after stripping everything
// but letters and digits, so "LoadProfile_main" still matches.
func classifyAnchor(name string) (model.SectionKind, bool) {
	flat := flatten(name)
	if flat == "" {
		return "", false
	}
	for _, v := range variants {
		for _, a := range v.anchors {
			if strings.Contains(flat, a) {
				return v.kind, true
			}
		}
	}
	// Fallback for anchor names that drift between report vintages,
	// e.g. a truncated "loadprof" still hitting "loadprofile".
	for _, v := range variants {
		for _, a := range v.anchors {
			if fuzzyAnchor(flat, a) {
				return v.kind, true
			}
		}
	}
	return "", false
}

// fuzzyAnchor matches when the candidate carries most of the variant's
// prefix. At least five characters must line up so short variants never
// match on noise.
func fuzzyAnchor(name, variant string) bool {
	n := len(variant) - 2
	if n < 5 {
		return false
	}
	return strings.Contains(name, variant[:n])
}

func flatten(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

type mark struct {
	index   int
	kind    model.SectionKind
	heading string
}

// Locate finds every recognizable section in the document. The first
// occurrence of a kind wins, and a span ends at the next recognized mark
// of any kind, duplicates included. Kinds with no recognized heading or
// anchor are simply absent from the result.
func Locate(doc *htmldoc.Document) map[model.SectionKind]Span {
	var marks []mark
	for i, it := range doc.Items {
		switch {
		case it.Heading != nil:
			if kind, ok := classifyHeading(it.Heading.Text); ok {
				marks = append(marks, mark{i, kind, it.Heading.Text})
			}
		case it.Anchor != "":
			if kind, ok := classifyAnchor(it.Anchor); ok {
				marks = append(marks, mark{i, kind, it.Anchor})
			}
		}
	}

	// An anchor immediately labeling its own heading yields two marks for
	// one section. Merge same-kind marks with no table between them so
	// the heading does not truncate the anchor's span to nothing.
	var merged []mark
	for _, m := range marks {
		if n := len(merged); n > 0 && merged[n-1].kind == m.kind && !tablesBetween(doc, merged[n-1].index, m.index) {
			continue
		}
		merged = append(merged, m)
	}

	spans := make(map[model.SectionKind]Span)
	for mi, m := range merged {
		if _, claimed := spans[m.kind]; claimed {
			continue
		}
		end := len(doc.Items)
		if mi+1 < len(merged) {
			end = merged[mi+1].index
		}
		span := Span{Kind: m.kind, Heading: m.heading}
		for _, it := range doc.Items[m.index:end] {
			if it.Table != nil {
				span.Tables = append(span.Tables, it.Table)
			}
		}
		spans[m.kind] = span
	}
	return spans
}

func tablesBetween(doc *htmldoc.Document, from, to int) bool {
	for _, it := range doc.Items[from+1 : to] {
		if it.Table != nil {
			return true
		}
	}
	return false
}
