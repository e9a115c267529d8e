// Package engine runs the whole ingestion pipeline: validate, decode,
// detect, locate, extract, assemble, diagnose. Parse and Analyze are pure
// functions over the input bytes; they do no I/O and hold no state, so
// identical input always produces an identical result.
package engine

import (
	"math"

	"github.com/dmitriimaksimovdevelop/awrlens/internal/detect"
	"github.com/dmitriimaksimovdevelop/awrlens/internal/extract"
	"github.com/dmitriimaksimovdevelop/awrlens/internal/htmldoc"
	"github.com/dmitriimaksimovdevelop/awrlens/internal/model"
	"github.com/dmitriimaksimovdevelop/awrlens/internal/section"
	"github.com/dmitriimaksimovdevelop/awrlens/internal/sniff"
)

// Config tunes a parse run. The zero value is fully usable.
type Config struct {
	// MaxBytes caps the accepted document size; 0 means the default.
	MaxBytes int64
	// Rules overrides the diagnostic rule set; nil means DefaultRules.
	Rules []model.Rule
}

// Parse validates and parses one report document into the canonical
// model. The only error it returns is *model.ValidationError; every
// section- or field-level problem is recorded on the report instead.
func Parse(data []byte, cfg Config) (*model.ParsedReport, error) {
	raw, err := sniff.Sniff(data, sniff.Config{MaxBytes: cfg.MaxBytes})
	if err != nil {
		return nil, err
	}

	doc, err := htmldoc.Parse(raw.Text)
	if err != nil {
		return nil, &model.ValidationError{Kind: model.NotAWRLike, Reason: "document is not parseable as HTML"}
	}

	report := &model.ParsedReport{
		FormatSignature: detect.Signature(raw.Text),
		Sections:        make(map[model.SectionKind]model.SectionRecords),
		SectionErrors:   []model.SectionError{},
		FileHash:        raw.FileHash,
		Encoding:        raw.Encoding,
	}
	report.DBInfo, report.SnapshotInfo = extract.Preamble(doc)

	spans := section.Locate(doc)
	attempted := model.AttemptedKinds(report.FormatSignature.Topology)
	extracted := 0
	for _, kind := range attempted {
		span, ok := spans[kind]
		if !ok {
			report.SectionErrors = append(report.SectionErrors, model.SectionError{
				Kind: kind, Type: model.SectionMissing,
			})
			continue
		}
		res, ok := extract.Section(span)
		if !ok {
			report.SectionErrors = append(report.SectionErrors, model.SectionError{
				Kind: kind, Type: model.UnrecognizedStructure,
			})
			continue
		}
		report.Sections[kind] = res.Records
		report.FieldWarnings = append(report.FieldWarnings, res.Warnings...)
		extracted++
	}

	report.CompletenessScore = int(math.Round(100 * float64(extracted) / float64(len(attempted))))
	return report, nil
}

// Analyze parses the document and runs the diagnostic rules over the
// result.
func Analyze(data []byte, cfg Config) (*model.Analysis, error) {
	report, err := Parse(data, cfg)
	if err != nil {
		return nil, err
	}
	rules := cfg.Rules
	if rules == nil {
		rules = model.DefaultRules()
	}
	findings := model.Diagnose(report, rules)
	return &model.Analysis{
		Report:      report,
		Findings:    findings,
		HealthScore: model.ComputeHealthScore(findings),
	}, nil
}
